package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationRepository handles database operations for invitations
type InvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create inserts a pending invitation. A second pending invitation for the same
// tenant and email fails with ErrEmailAlreadyInvited.
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	invitation.Email = strings.ToLower(strings.TrimSpace(invitation.Email))
	if err := r.db.WithContext(ctx).Create(invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrEmailAlreadyInvited
		}
		return err
	}
	return nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).First(&invitation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListByTenant retrieves all invitations of a tenant, newest first
func (r *InvitationRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := r.db.WithContext(ctx).
		Preload("InvitedBy.User").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// FindOldestPendingByEmail retrieves the earliest pending invitation for email across tenants
func (r *InvitationRepository) FindOldestPendingByEmail(ctx context.Context, email string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).
		Where("email = ? AND accepted_at IS NULL", strings.ToLower(email)).
		Order("created_at ASC").
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// MarkSent records a confirmed dispatch of the invitation email
func (r *InvitationRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_sent_at": sentAt, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
