package models

import "github.com/google/uuid"

// Tenant represents an organization isolating a group of users and their data
type Tenant struct {
	BaseModel
	Name    string `json:"name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Slug    string `json:"slug" gorm:"uniqueIndex;not null;size:100"`
	Website string `json:"website" gorm:"size:200" validate:"omitempty,url,max=200"`
	Phone   string `json:"phone" gorm:"size:20" validate:"max=20"`
	Email   string `json:"email" gorm:"size:254" validate:"omitempty,email,max=254"`

	// Relationships
	Memberships []Membership `json:"memberships,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	Invitations []Invitation `json:"invitations,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	Logo        *TenantLogo  `json:"logo,omitempty" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// TenantLogo stores the uploaded logo of a tenant. One per tenant.
type TenantLogo struct {
	BaseModel
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex"`
	Path        string    `json:"path" gorm:"not null;size:255"`
	ContentType string    `json:"content_type" gorm:"not null;size:50"`
	Size        int64     `json:"size"`
}

// TableName returns the table name for TenantLogo
func (TenantLogo) TableName() string {
	return "tenant_logos"
}
