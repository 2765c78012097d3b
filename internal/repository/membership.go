package repository

import (
	"context"
	"errors"
	"time"

	"tenancy-backend/internal/database/models"
	apperrors "tenancy-backend/internal/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository handles database operations for memberships
type MembershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Create inserts a membership. Fails with ErrMembershipExists if the user already has one
// and with gorm.ErrRecordNotFound if the tenant is gone.
func (r *MembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertMembership(tx, membership)
	})
}

// CreateFromInvitation inserts a membership and marks the invitation accepted in one transaction
func (r *MembershipRepository) CreateFromInvitation(ctx context.Context, membership *models.Membership, invitationID uuid.UUID, acceptedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation models.Invitation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invitation, "id = ?", invitationID).Error; err != nil {
			return err
		}
		if invitation.AcceptedAt != nil {
			return apperrors.ErrInvitationAccepted
		}

		membership.TenantID = invitation.TenantID
		if err := insertMembership(tx, membership); err != nil {
			return err
		}

		return tx.Model(&invitation).Update("accepted_at", acceptedAt).Error
	})
}

// insertMembership holds a share lock on the tenant so it cannot be pruned mid-insert
func insertMembership(tx *gorm.DB, membership *models.Membership) error {
	var tenant models.Tenant
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").First(&tenant, "id = ?", membership.TenantID).Error; err != nil {
		return err
	}

	var existing int64
	if err := tx.Model(&models.Membership{}).Where("user_id = ?", membership.UserID).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return apperrors.ErrMembershipExists
	}

	if err := tx.Create(membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrMembershipExists
		}
		return err
	}
	return nil
}

// GetByID retrieves a membership by ID
func (r *MembershipRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).Preload("User").First(&membership, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// GetByUserID retrieves the membership of a user
func (r *MembershipRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error) {
	var membership models.Membership
	err := r.db.WithContext(ctx).Preload("User").First(&membership, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListByTenant retrieves all memberships of a tenant, oldest first
func (r *MembershipRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// CountByTenant counts the memberships of a tenant
func (r *MembershipRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Membership{}).Where("tenant_id = ?", tenantID).Count(&count).Error
	return count, err
}

// ExistsByEmail reports whether a user with email already belongs to any tenant
func (r *MembershipRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Membership{}).
		Joins("JOIN users ON users.id = memberships.user_id").
		Where("LOWER(users.email) = LOWER(?)", email).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateRole sets the role of a membership only if it still holds the expected role.
// A concurrent transfer or removal makes the swap fail with ErrMembershipNotFound.
func (r *MembershipRepository) UpdateRole(ctx context.Context, id uuid.UUID, expected, role models.MembershipRole) error {
	result := r.db.WithContext(ctx).Model(&models.Membership{}).
		Where("id = ? AND role = ?", id, expected).
		Updates(map[string]interface{}{"role": role, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMembershipNotFound
	}
	return nil
}

// TransferOwnership promotes toID to owner and demotes fromID to admin atomically.
// Both rows are locked in id order and fromID must still be the owner of the same tenant.
func (r *MembershipRepository) TransferOwnership(ctx context.Context, fromID, toID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.Membership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", []uuid.UUID{fromID, toID}).
			Order("id").
			Find(&rows).Error
		if err != nil {
			return err
		}

		var from, to *models.Membership
		for i := range rows {
			switch rows[i].ID {
			case fromID:
				from = &rows[i]
			case toID:
				to = &rows[i]
			}
		}
		if from == nil || to == nil || from.TenantID != to.TenantID {
			return apperrors.ErrMembershipNotFound
		}
		if from.Role != models.MembershipRoleOwner {
			return apperrors.ErrOnlyOwnerSetsOwner
		}

		now := time.Now()
		if err := tx.Model(to).Updates(map[string]interface{}{"role": models.MembershipRoleOwner, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(from).Updates(map[string]interface{}{"role": models.MembershipRoleAdmin, "updated_at": now}).Error
	})
}

// Delete removes a non-owner membership
func (r *MembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.Membership
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&membership, "id = ?", id).Error; err != nil {
			return err
		}
		if membership.IsOwner() {
			return apperrors.ErrCannotRemoveOwner
		}
		return tx.Delete(&membership).Error
	})
}
