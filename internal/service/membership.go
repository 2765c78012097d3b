package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/events"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/metrics"
	"tenancy-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errConcurrentRoleChange = apperrors.NewConflictError("tenant user was modified concurrently, retry the request")

// MembershipService is the membership store. It guards role changes and removals.
type MembershipService struct {
	repo      repository.MembershipRepositoryInterface
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewMembershipService creates a new membership service
func NewMembershipService(repo repository.MembershipRepositoryInterface, publisher events.Publisher, m *metrics.Metrics) *MembershipService {
	return &MembershipService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
	}
}

// UpdateRoleRequest represents a role change of a tenant user
type UpdateRoleRequest struct {
	Role models.MembershipRole `json:"role" validate:"required" example:"admin"`
}

// TenantUserResponse represents a membership in API responses
type TenantUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// AddOwner binds the user to the tenant as its owner
func (s *MembershipService) AddOwner(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	return s.add(ctx, userID, tenantID, models.MembershipRoleOwner)
}

// AddMember binds the user to the tenant with role
func (s *MembershipService) AddMember(ctx context.Context, userID, tenantID uuid.UUID, role models.MembershipRole) (*models.Membership, error) {
	if !role.IsValid() {
		return nil, apperrors.ErrInvalidRole
	}
	return s.add(ctx, userID, tenantID, role)
}

func (s *MembershipService) add(ctx context.Context, userID, tenantID uuid.UUID, role models.MembershipRole) (*models.Membership, error) {
	membership := &models.Membership{UserID: userID, TenantID: tenantID, Role: role}
	if err := s.repo.Create(ctx, membership); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMembershipExists):
			return nil, err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.ErrTenantNotFound
		default:
			return nil, fmt.Errorf("failed to create membership: %w", err)
		}
	}

	s.metrics.MembershipsCreated.WithLabelValues(string(role)).Inc()
	return membership, nil
}

// AcceptInvitation joins the user to the invitation's tenant as a user and marks the invitation accepted
func (s *MembershipService) AcceptInvitation(ctx context.Context, userID uuid.UUID, invitation *models.Invitation) (*models.Membership, error) {
	membership := &models.Membership{UserID: userID, Role: models.MembershipRoleUser}
	if err := s.repo.CreateFromInvitation(ctx, membership, invitation.ID, time.Now()); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMembershipExists), errors.Is(err, apperrors.ErrInvitationAccepted):
			return nil, err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperrors.ErrInvitationNotFound
		default:
			return nil, fmt.Errorf("failed to accept invitation: %w", err)
		}
	}

	s.metrics.MembershipsCreated.WithLabelValues(string(membership.Role)).Inc()
	s.metrics.InvitationsAccepted.Inc()
	return membership, nil
}

// GetByUserID retrieves the membership of a user
func (s *MembershipService) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	membership, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return membership, nil
}

// ListByTenant lists the members of the acting member's tenant
func (s *MembershipService) ListByTenant(ctx context.Context, acting *models.Membership) ([]TenantUserResponse, error) {
	if acting == nil {
		return nil, apperrors.ErrUserWithoutMembership
	}

	memberships, err := s.repo.ListByTenant(ctx, acting.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant users: %w", err)
	}

	responses := make([]TenantUserResponse, len(memberships))
	for i := range memberships {
		responses[i] = *convertMembership(&memberships[i])
	}
	return responses, nil
}

// UpdateRole changes the role of targetID on behalf of acting.
// Setting another member as owner transfers ownership and demotes acting to admin in one transaction.
func (s *MembershipService) UpdateRole(ctx context.Context, acting *models.Membership, targetID uuid.UUID, role models.MembershipRole) (*TenantUserResponse, error) {
	if err := requireManager(acting); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, apperrors.ErrInvalidRole
	}

	target, err := s.getInTenant(ctx, acting, targetID)
	if err != nil {
		return nil, err
	}
	self := target.ID == acting.ID

	if target.IsOwner() && !self {
		return nil, apperrors.ErrOnlyOwnerTransfers
	}

	log := logger.WithContext(ctx).WithFields(map[string]interface{}{
		"tenant_id":      acting.TenantID,
		"acting_user_id": acting.ID,
		"target_user_id": target.ID,
	})

	if role == models.MembershipRoleOwner {
		if !acting.IsOwner() {
			return nil, apperrors.ErrOnlyOwnerSetsOwner
		}
		if self {
			return convertMembership(target), nil
		}
		if err := s.repo.TransferOwnership(ctx, acting.ID, target.ID); err != nil {
			switch {
			case errors.Is(err, apperrors.ErrOnlyOwnerSetsOwner):
				return nil, err
			case errors.Is(err, apperrors.ErrMembershipNotFound):
				return nil, errConcurrentRoleChange
			default:
				return nil, fmt.Errorf("failed to transfer ownership: %w", err)
			}
		}
		target.Role = models.MembershipRoleOwner
		acting.Role = models.MembershipRoleAdmin
		s.metrics.RoleChanges.WithLabelValues("transfer").Inc()
		log.Info("Tenant ownership transferred")
		return convertMembership(target), nil
	}

	if target.IsOwner() && self {
		return nil, apperrors.ErrOwnerCannotChangeRole
	}
	if target.Role == role {
		return convertMembership(target), nil
	}

	if err := s.repo.UpdateRole(ctx, target.ID, target.Role, role); err != nil {
		if errors.Is(err, apperrors.ErrMembershipNotFound) {
			return nil, errConcurrentRoleChange
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	log.WithFields(map[string]interface{}{"from": target.Role, "to": role}).Info("Tenant user role changed")
	target.Role = role
	s.metrics.RoleChanges.WithLabelValues("update").Inc()
	return convertMembership(target), nil
}

// Remove deletes targetID from the acting member's tenant. The owner can never be removed.
func (s *MembershipService) Remove(ctx context.Context, acting *models.Membership, targetID uuid.UUID) error {
	if err := requireManager(acting); err != nil {
		return err
	}

	target, err := s.getInTenant(ctx, acting, targetID)
	if err != nil {
		return err
	}
	if target.IsOwner() {
		return apperrors.ErrCannotRemoveOwner
	}

	if err := s.repo.Delete(ctx, target.ID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrCannotRemoveOwner):
			return err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return apperrors.ErrMembershipNotFound
		default:
			return fmt.Errorf("failed to remove tenant user: %w", err)
		}
	}
	s.metrics.MembershipsRemoved.Inc()

	event := events.MembershipDeleted{MembershipID: target.ID, TenantID: target.TenantID}
	if err := s.publisher.PublishMembershipDeleted(ctx, event); err != nil {
		logger.WithContext(ctx).WithError(err).WithField("tenant_id", target.TenantID).
			Error("Membership removed but follow-up handling failed")
	}
	return nil
}

// getInTenant loads a membership, hiding memberships of other tenants
func (s *MembershipService) getInTenant(ctx context.Context, acting *models.Membership, id uuid.UUID) (*models.Membership, error) {
	membership, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get tenant user: %w", err)
	}
	if membership.TenantID != acting.TenantID {
		return nil, apperrors.ErrMembershipNotFound
	}
	return membership, nil
}

func convertMembership(m *models.Membership) *TenantUserResponse {
	response := &TenantUserResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
		UpdatedAt: m.UpdatedAt.Format(time.RFC3339),
	}
	if m.User != nil {
		response.Email = m.User.Email
		response.FirstName = m.User.FirstName
		response.LastName = m.User.LastName
	}
	return response
}
