package service

import (
	"context"
	"io"

	"tenancy-backend/internal/database/models"
	"tenancy-backend/internal/email"

	"github.com/google/uuid"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/service_mocks.go -package=mocks

// TenantServiceInterface defines the interface for the tenant registry
type TenantServiceInterface interface {
	Create(ctx context.Context, name string) (*models.Tenant, error)
	CreateWithOwner(ctx context.Context, name string, ownerID uuid.UUID) (*models.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteIfEmpty(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetForMember(ctx context.Context, acting *models.Membership) (*TenantResponse, error)
	Update(ctx context.Context, acting *models.Membership, req *UpdateTenantRequest) (*TenantResponse, error)
	GetLogo(ctx context.Context, acting *models.Membership) (*TenantLogoResponse, error)
	SetLogo(ctx context.Context, acting *models.Membership, upload *LogoUpload) (*TenantLogoResponse, error)
	DeleteLogo(ctx context.Context, acting *models.Membership) error
}

// MembershipServiceInterface defines the interface for the membership store
type MembershipServiceInterface interface {
	AddOwner(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error)
	AddMember(ctx context.Context, userID, tenantID uuid.UUID, role models.MembershipRole) (*models.Membership, error)
	AcceptInvitation(ctx context.Context, userID uuid.UUID, invitation *models.Invitation) (*models.Membership, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Membership, error)
	ListByTenant(ctx context.Context, acting *models.Membership) ([]TenantUserResponse, error)
	UpdateRole(ctx context.Context, acting *models.Membership, targetID uuid.UUID, role models.MembershipRole) (*TenantUserResponse, error)
	Remove(ctx context.Context, acting *models.Membership, targetID uuid.UUID) error
}

// InvitationServiceInterface defines the interface for the invitation ledger
type InvitationServiceInterface interface {
	Create(ctx context.Context, acting *models.Membership, req *CreateInvitationRequest) (*InvitationResponse, error)
	Resend(ctx context.Context, acting *models.Membership, id uuid.UUID) error
	List(ctx context.Context, acting *models.Membership) ([]InvitationResponse, error)
	Accept(ctx context.Context, email string) (*models.Invitation, error)
}

// UserServiceInterface defines the interface for the local user mirror
type UserServiceInterface interface {
	HandleSignUp(ctx context.Context, req *SignUpRequest) (*UserResponse, error)
	HandleDeletion(ctx context.Context, userID uuid.UUID) error
	GetMe(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*UserResponse, error)
}

// EmailQueue accepts outbound email jobs for asynchronous delivery
type EmailQueue interface {
	Enqueue(job email.Job) error
}

// FileStore persists uploaded media
type FileStore interface {
	Save(ctx context.Context, path string, r io.Reader) (int64, error)
	Remove(ctx context.Context, path string) error
	URL(path string) string
}
