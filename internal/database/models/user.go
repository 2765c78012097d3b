package models

// User mirrors an identity issued by the external identity provider.
// The ID is the provider's subject, so it is never generated locally.
type User struct {
	BaseModel
	Email     string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email,max=255"`
	FirstName string `json:"first_name" gorm:"size:30" validate:"max=30"`
	LastName  string `json:"last_name" gorm:"size:30" validate:"max=30"`

	// Relationships
	Membership *Membership `json:"membership,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}
