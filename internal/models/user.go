package models

import "time"

const (
	RoleAdmin        = "admin"
	RoleDonor        = "donor"
	RoleOrganization = "organization"
	RoleHospital     = "hospital"
	RoleVolunteer    = "volunteer"
)

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDonor, RoleOrganization, RoleHospital, RoleVolunteer:
		return true
	}
	return false
}

// User represents the users table.
// Coordinators carry the organization or hospital they act for.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Phone          *string   `gorm:"uniqueIndex;size:20" json:"phone,omitempty"`
	PasswordHash   string    `gorm:"not null;size:255" json:"-"`
	FullName       string    `gorm:"size:150;not null" json:"full_name"`
	Role           string    `gorm:"type:enum('admin','donor','organization','hospital','volunteer');default:'donor';index" json:"role"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	HospitalID     *uint     `gorm:"index" json:"hospital_id,omitempty"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:SET NULL" json:"organization,omitempty"`
	Hospital     *Hospital     `gorm:"foreignKey:HospitalID;constraint:OnDelete:SET NULL" json:"hospital,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// RefreshToken represents the refresh_tokens table
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	TokenHash string    `gorm:"not null;size:255;index" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
