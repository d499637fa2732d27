package models

import "time"

// Review status shared by events and registrations
const (
	StatusPending  = "cho_duyet"
	StatusApproved = "da_duyet"
	StatusRejected = "tu_choi"
)

// ValidReviewDecision reports whether status is a decision a reviewer can take.
func ValidReviewDecision(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// Event is a blood donation drive organized by an organization at a hospital
type Event struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	OrganizationID  uint       `gorm:"not null;index" json:"organization_id"`
	HospitalID      uint       `gorm:"not null;index" json:"hospital_id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	Location        string     `gorm:"size:255" json:"location"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	StartTime       time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime         time.Time  `gorm:"not null" json:"end_time"`
	MaxParticipants int        `gorm:"not null;default:100" json:"max_participants"`
	Status          string     `gorm:"type:enum('cho_duyet','da_duyet','tu_choi');default:'cho_duyet';index" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy      *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
	Hospital     *Hospital     `gorm:"foreignKey:HospitalID;constraint:OnDelete:CASCADE" json:"hospital,omitempty"`

	RegisteredCount int64 `gorm:"-" json:"registered_count"`
}

func (Event) TableName() string {
	return "events"
}
