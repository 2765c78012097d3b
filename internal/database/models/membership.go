package models

import (
	"github.com/google/uuid"
)

// MembershipRole represents the role of a user inside their tenant
type MembershipRole string

const (
	MembershipRoleOwner MembershipRole = "owner"
	MembershipRoleAdmin MembershipRole = "admin"
	MembershipRoleUser  MembershipRole = "user"
)

// IsValid checks if the MembershipRole is valid
func (r MembershipRole) IsValid() bool {
	switch r {
	case MembershipRoleOwner, MembershipRoleAdmin, MembershipRoleUser:
		return true
	}
	return false
}

// CanManage reports whether the role may manage members and invitations
func (r MembershipRole) CanManage() bool {
	return r == MembershipRoleOwner || r == MembershipRoleAdmin
}

// Membership binds exactly one user to exactly one tenant with a role
type Membership struct {
	BaseModel
	UserID   uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	TenantID uuid.UUID      `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Role     MembershipRole `json:"role" gorm:"type:varchar(30);not null;default:'user'" validate:"required"`

	// Relationships
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Tenant *Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for Membership
func (Membership) TableName() string {
	return "memberships"
}

// IsOwner reports whether the membership holds the owner role
func (m *Membership) IsOwner() bool {
	return m.Role == MembershipRoleOwner
}
