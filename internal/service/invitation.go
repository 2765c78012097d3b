package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tenancy-backend/internal/database/models"
	"tenancy-backend/internal/email"
	apperrors "tenancy-backend/internal/errors"
	"tenancy-backend/internal/logger"
	"tenancy-backend/internal/metrics"
	"tenancy-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationSettings configures invitation delivery
type InvitationSettings struct {
	TemplateID     string
	ResendCooldown time.Duration
	SignUpURL      string
}

// InvitationService is the invitation ledger
type InvitationService struct {
	repo        repository.InvitationRepositoryInterface
	memberships repository.MembershipRepositoryInterface
	tenants     repository.TenantRepositoryInterface
	queue       EmailQueue
	mailer      email.Client
	validator   *validator.Validate
	metrics     *metrics.Metrics
	settings    InvitationSettings
	now         func() time.Time
}

// InvitationOption configures an InvitationService
type InvitationOption func(*InvitationService)

// WithInvitationClock overrides time.Now for cooldown checks
func WithInvitationClock(now func() time.Time) InvitationOption {
	return func(s *InvitationService) { s.now = now }
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	repo repository.InvitationRepositoryInterface,
	memberships repository.MembershipRepositoryInterface,
	tenants repository.TenantRepositoryInterface,
	queue EmailQueue,
	mailer email.Client,
	validator *validator.Validate,
	m *metrics.Metrics,
	settings InvitationSettings,
	opts ...InvitationOption,
) *InvitationService {
	if settings.ResendCooldown <= 0 {
		settings.ResendCooldown = 24 * time.Hour
	}
	s := &InvitationService{
		repo:        repo,
		memberships: memberships,
		tenants:     tenants,
		queue:       queue,
		mailer:      mailer,
		validator:   validator,
		metrics:     m,
		settings:    settings,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInvitationRequest represents the data needed to invite an email
type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email,max=254" example:"bob@example.com"`
}

// InvitationResponse represents an invitation in API responses
type InvitationResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	InvitedByID *uuid.UUID `json:"invited_by,omitempty"`
	IsAccepted  bool       `json:"is_accepted"`
	LastSentAt  *string    `json:"last_sent_at,omitempty"`
	AcceptedAt  *string    `json:"accepted_at,omitempty"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// Create records a pending invitation for req.Email in the acting member's tenant
// and queues the invitation email.
func (s *InvitationService) Create(ctx context.Context, acting *models.Membership, req *CreateInvitationRequest) (*InvitationResponse, error) {
	if err := requireManager(acting); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	member, err := s.memberships.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return nil, apperrors.ErrEmailAlreadyMember
	}

	invitedBy := acting.ID
	invitation := &models.Invitation{
		TenantID:    acting.TenantID,
		Email:       req.Email,
		InvitedByID: &invitedBy,
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		if errors.Is(err, apperrors.ErrEmailAlreadyInvited) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	s.metrics.InvitationsCreated.Inc()

	s.dispatch(ctx, invitation)
	return convertInvitation(invitation), nil
}

// Resend queues the invitation email again unless it was sent within the cooldown
func (s *InvitationService) Resend(ctx context.Context, acting *models.Membership, id uuid.UUID) error {
	if err := requireManager(acting); err != nil {
		return err
	}

	invitation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvitationNotFound
		}
		return fmt.Errorf("failed to get invitation: %w", err)
	}
	if invitation.TenantID != acting.TenantID {
		return apperrors.ErrInvitationNotFound
	}
	if invitation.IsAccepted() {
		return apperrors.ErrInvitationAccepted
	}
	if !invitation.CanResend(s.now(), s.settings.ResendCooldown) {
		return apperrors.ErrResendCooldown
	}

	if err := s.enqueue(ctx, invitation); err != nil {
		return fmt.Errorf("failed to queue invitation email: %w", err)
	}
	return nil
}

// List returns the invitations of the acting member's tenant
func (s *InvitationService) List(ctx context.Context, acting *models.Membership) ([]InvitationResponse, error) {
	if err := requireManager(acting); err != nil {
		return nil, err
	}

	invitations, err := s.repo.ListByTenant(ctx, acting.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	responses := make([]InvitationResponse, len(invitations))
	for i := range invitations {
		responses[i] = *convertInvitation(&invitations[i])
	}
	return responses, nil
}

// Accept returns the pending invitation for email, or ErrNoPendingInvitation.
// When several tenants invited the same address the oldest invitation wins.
func (s *InvitationService) Accept(ctx context.Context, email string) (*models.Invitation, error) {
	invitation, err := s.repo.FindOldestPendingByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoPendingInvitation
		}
		return nil, fmt.Errorf("failed to look up invitation: %w", err)
	}
	return invitation, nil
}

// dispatch queues the email for a fresh invitation. Queue failures are logged only;
// the invitation stays resendable because last_sent_at is still empty.
func (s *InvitationService) dispatch(ctx context.Context, invitation *models.Invitation) {
	if err := s.enqueue(ctx, invitation); err != nil {
		logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"invitation_id": invitation.ID,
			"email":         invitation.Email,
		}).Error("Failed to queue invitation email")
	}
}

func (s *InvitationService) enqueue(ctx context.Context, invitation *models.Invitation) error {
	invitationID := invitation.ID
	tenantID := invitation.TenantID
	to := invitation.Email

	return s.queue.Enqueue(email.Job{
		Name: "invitation",
		Fields: map[string]interface{}{
			"invitation_id": invitationID,
			"email":         to,
		},
		Send: func(jobCtx context.Context) error {
			variables := map[string]interface{}{"email": to}
			if tenant, err := s.tenants.GetByID(jobCtx, tenantID); err == nil {
				variables["tenantName"] = tenant.Name
			}
			if s.settings.SignUpURL != "" {
				variables["signUpUrl"] = s.settings.SignUpURL
			}
			return s.mailer.SendTransactional(jobCtx, s.settings.TemplateID, to, variables)
		},
		OnDelivered: func(jobCtx context.Context, deliveredAt time.Time) error {
			return s.repo.MarkSent(jobCtx, invitationID, deliveredAt)
		},
	})
}

func convertInvitation(i *models.Invitation) *InvitationResponse {
	response := &InvitationResponse{
		ID:          i.ID,
		Email:       i.Email,
		InvitedByID: i.InvitedByID,
		IsAccepted:  i.IsAccepted(),
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   i.UpdatedAt.Format(time.RFC3339),
	}
	if i.LastSentAt != nil {
		v := i.LastSentAt.Format(time.RFC3339)
		response.LastSentAt = &v
	}
	if i.AcceptedAt != nil {
		v := i.AcceptedAt.Format(time.RFC3339)
		response.AcceptedAt = &v
	}
	return response
}
