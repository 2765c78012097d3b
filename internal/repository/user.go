package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"tenancy-backend/internal/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for users mirrored from the identity provider
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts the user or refreshes its profile when the id is already known
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "first_name", "last_name", "updated_at"}),
	}).Create(user).Error
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Membership.Tenant").First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates the user's profile names
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(user).
		Select("first_name", "last_name", "updated_at").
		Updates(user).Error
}

// Delete removes a user and its membership. When the user owned a tenant that still has
// other members, the oldest admin (or else the oldest member) is promoted to owner first.
// Returns the id of the tenant the user belonged to, or nil.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var tenantID *uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", id).Error; err != nil {
			return err
		}

		var membership models.Membership
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&membership, "user_id = ?", id).Error
		switch {
		case err == nil:
			tenantID = &membership.TenantID
			if membership.IsOwner() {
				if err := promoteSuccessor(tx, membership); err != nil {
					return err
				}
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		return tx.Delete(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return tenantID, nil
}

func promoteSuccessor(tx *gorm.DB, owner models.Membership) error {
	var successor models.Membership
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id <> ?", owner.TenantID, owner.ID).
		Order("CASE WHEN role = 'admin' THEN 0 ELSE 1 END").
		Order("created_at ASC").
		First(&successor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.Model(&successor).Updates(map[string]interface{}{
		"role":       models.MembershipRoleOwner,
		"updated_at": time.Now(),
	}).Error
}
