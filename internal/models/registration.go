package models

import "time"

// Registration is a donor's sign-up for an event.
// At most one row exists per (event, donor).
type Registration struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventID         uint       `gorm:"not null;uniqueIndex:idx_registration_event_donor" json:"event_id"`
	DonorID         uint       `gorm:"not null;uniqueIndex:idx_registration_event_donor;index" json:"donor_id"`
	Status          string     `gorm:"type:enum('cho_duyet','da_duyet','tu_choi');default:'cho_duyet';index" json:"status"`
	Note            string     `gorm:"type:text" json:"note,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedBy      *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`
	Donor *Donor `gorm:"foreignKey:DonorID;constraint:OnDelete:CASCADE" json:"donor,omitempty"`
}

func (Registration) TableName() string {
	return "registrations"
}
