package repository

import (
	"context"
	"time"

	"tenancy-backend/internal/database/models"

	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/repository_mocks.go -package=mocks

// TenantRepositoryInterface defines the interface for tenant repository operations
type TenantRepositoryInterface interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	CreateWithOwner(ctx context.Context, tenant *models.Tenant, owner *models.Membership) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetWithMembers(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteIfEmpty(ctx context.Context, id uuid.UUID) (bool, error)
	GetLogo(ctx context.Context, tenantID uuid.UUID) (*models.TenantLogo, error)
	ReplaceLogo(ctx context.Context, logo *models.TenantLogo) (*models.TenantLogo, error)
	DeleteLogo(ctx context.Context, tenantID uuid.UUID) (*models.TenantLogo, error)
}

// MembershipRepositoryInterface defines the interface for membership repository operations
type MembershipRepositoryInterface interface {
	Create(ctx context.Context, membership *models.Membership) error
	CreateFromInvitation(ctx context.Context, membership *models.Membership, invitationID uuid.UUID, acceptedAt time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Membership, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Membership, error)
	CountByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateRole(ctx context.Context, id uuid.UUID, expected, role models.MembershipRole) error
	TransferOwnership(ctx context.Context, fromID, toID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvitationRepositoryInterface defines the interface for invitation repository operations
type InvitationRepositoryInterface interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Invitation, error)
	FindOldestPendingByEmail(ctx context.Context, email string) (*models.Invitation, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
}
