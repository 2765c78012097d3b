package models

import (
	"time"

	"github.com/google/uuid"
)

// Invitation is a pending offer for an email address to join a tenant.
// At most one pending invitation exists per (tenant, email).
type Invitation struct {
	BaseModel
	TenantID    uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_invitations_tenant_email_pending,where:accepted_at IS NULL"`
	Email       string     `json:"email" gorm:"not null;size:254;index;uniqueIndex:idx_invitations_tenant_email_pending,where:accepted_at IS NULL" validate:"required,email,max=254"`
	InvitedByID *uuid.UUID `json:"invited_by_id,omitempty" gorm:"type:uuid;index"`
	LastSentAt  *time.Time `json:"last_sent_at,omitempty"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`

	// Relationships
	Tenant    *Tenant     `json:"tenant,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	InvitedBy *Membership `json:"invited_by,omitempty" gorm:"foreignKey:InvitedByID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for Invitation
func (Invitation) TableName() string {
	return "invitations"
}

// IsAccepted reports whether the invitation has been consumed by a sign-up
func (i *Invitation) IsAccepted() bool {
	return i.AcceptedAt != nil
}

// CanResend reports whether the resend cooldown has elapsed at now
func (i *Invitation) CanResend(now time.Time, cooldown time.Duration) bool {
	if i.LastSentAt == nil {
		return true
	}
	return now.Sub(*i.LastSentAt) >= cooldown
}
