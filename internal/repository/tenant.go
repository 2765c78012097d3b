package repository

import (
	"context"
	"errors"

	"tenancy-backend/internal/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantRepository handles database operations for tenants
type TenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

// CreateWithOwner inserts the tenant and its owner membership in one transaction.
// owner.TenantID is set from the new tenant.
func (r *TenantRepository) CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		owner.TenantID = tenant.ID
		return insertMembership(tx, owner)
	})
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetWithMembers retrieves a tenant with its memberships (and their users) and logo
func (r *TenantRepository) GetWithMembers(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("memberships.created_at ASC")
		}).
		Preload("Memberships.User").
		Preload("Logo").
		First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// SlugExists reports whether a tenant already uses slug
func (r *TenantRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tenant{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates the mutable tenant fields. The slug is never rewritten.
func (r *TenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Model(tenant).
		Select("name", "website", "phone", "email", "updated_at").
		Updates(tenant).Error
}

// Delete hard-deletes a tenant; memberships, invitations and logo cascade
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Tenant{}, "id = ?", id).Error
}

// DeleteIfEmpty deletes the tenant when it has no memberships left.
// The tenant row is locked so concurrent membership inserts and removals serialize behind it
// and the membership count is re-read inside the same transaction.
func (r *TenantRepository) DeleteIfEmpty(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&tenant, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.Membership{}).Where("tenant_id = ?", id).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := tx.Delete(&tenant).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// GetLogo retrieves the logo of a tenant
func (r *TenantRepository) GetLogo(ctx context.Context, tenantID uuid.UUID) (*models.TenantLogo, error) {
	var logo models.TenantLogo
	err := r.db.WithContext(ctx).First(&logo, "tenant_id = ?", tenantID).Error
	if err != nil {
		return nil, err
	}
	return &logo, nil
}

// ReplaceLogo stores logo as the tenant's logo and returns the one it replaced, if any
func (r *TenantRepository) ReplaceLogo(ctx context.Context, logo *models.TenantLogo) (*models.TenantLogo, error) {
	var previous *models.TenantLogo
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.TenantLogo
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&existing, "tenant_id = ?", logo.TenantID).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			previous = &existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(logo).Error
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// DeleteLogo removes the tenant's logo and returns the deleted record
func (r *TenantRepository) DeleteLogo(ctx context.Context, tenantID uuid.UUID) (*models.TenantLogo, error) {
	var logo models.TenantLogo
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("tenant_id = ?", tenantID).
		Delete(&logo).Error
	if err != nil {
		return nil, err
	}
	if logo.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &logo, nil
}
