package testutils

import (
	"fmt"
	"time"

	"tenancy-backend/internal/database/models"

	"github.com/google/uuid"
)

// UserFactory provides methods to create test User data
type UserFactory struct{}

// NewUserFactory creates a new UserFactory
func NewUserFactory() *UserFactory {
	return &UserFactory{}
}

// Create creates a test User with a unique email
func (f *UserFactory) Create() *models.User {
	id := uuid.New()
	return &models.User{
		BaseModel: models.BaseModel{
			ID:        id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Email:     fmt.Sprintf("user-%s@test.com", id.String()[:8]),
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

// WithEmail creates a test User with a custom email
func (f *UserFactory) WithEmail(email string) *models.User {
	user := f.Create()
	user.Email = email
	return user
}

// TenantFactory provides methods to create test Tenant data
type TenantFactory struct{}

// NewTenantFactory creates a new TenantFactory
func NewTenantFactory() *TenantFactory {
	return &TenantFactory{}
}

// Create creates a test Tenant with a unique slug
func (f *TenantFactory) Create() *models.Tenant {
	id := uuid.New()
	return &models.Tenant{
		BaseModel: models.BaseModel{
			ID:        id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		Name:    "Ada's team",
		Slug:    "adas-team-" + id.String()[:8],
		Website: "https://example.com",
		Phone:   "+1-555-0123",
		Email:   "team@example.com",
	}
}

// WithName creates a test Tenant with a custom name and slug
func (f *TenantFactory) WithName(name, slug string) *models.Tenant {
	tenant := f.Create()
	tenant.Name = name
	tenant.Slug = slug
	return tenant
}

// MembershipFactory provides methods to create test Membership data
type MembershipFactory struct{}

// NewMembershipFactory creates a new MembershipFactory
func NewMembershipFactory() *MembershipFactory {
	return &MembershipFactory{}
}

// Create creates a test Membership with the user role
func (f *MembershipFactory) Create(userID, tenantID uuid.UUID) *models.Membership {
	return f.WithRole(userID, tenantID, models.MembershipRoleUser)
}

// WithRole creates a test Membership with a custom role
func (f *MembershipFactory) WithRole(userID, tenantID uuid.UUID, role models.MembershipRole) *models.Membership {
	return &models.Membership{
		BaseModel: models.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}
}

// InvitationFactory provides methods to create test Invitation data
type InvitationFactory struct{}

// NewInvitationFactory creates a new InvitationFactory
func NewInvitationFactory() *InvitationFactory {
	return &InvitationFactory{}
}

// Create creates a pending test Invitation that has never been sent
func (f *InvitationFactory) Create(tenantID uuid.UUID, email string) *models.Invitation {
	return &models.Invitation{
		BaseModel: models.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
		TenantID: tenantID,
		Email:    email,
	}
}

// SentAt creates a pending test Invitation last sent at sentAt
func (f *InvitationFactory) SentAt(tenantID uuid.UUID, email string, sentAt time.Time) *models.Invitation {
	invitation := f.Create(tenantID, email)
	invitation.LastSentAt = &sentAt
	return invitation
}

// FactorySet provides access to all factories
type FactorySet struct {
	User       *UserFactory
	Tenant     *TenantFactory
	Membership *MembershipFactory
	Invitation *InvitationFactory
}

// NewFactorySet creates a new FactorySet with all factories initialized
func NewFactorySet() *FactorySet {
	return &FactorySet{
		User:       NewUserFactory(),
		Tenant:     NewTenantFactory(),
		Membership: NewMembershipFactory(),
		Invitation: NewInvitationFactory(),
	}
}

// CreateTenantWithOwner builds a tenant, its owner user and the owner membership
func (fs *FactorySet) CreateTenantWithOwner() (*models.Tenant, *models.User, *models.Membership) {
	tenant := fs.Tenant.Create()
	owner := fs.User.Create()
	membership := fs.Membership.WithRole(owner.ID, tenant.ID, models.MembershipRoleOwner)
	return tenant, owner, membership
}
