package models

import "time"

const (
	DonationSucceeded = "thanh_cong"
	DonationFailed    = "khong_dat"
)

// DonationResult records the outcome of an approved registration
type DonationResult struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RegistrationID uint      `gorm:"uniqueIndex;not null" json:"registration_id"`
	DonorID        uint      `gorm:"not null;index" json:"donor_id"`
	EventID        uint      `gorm:"not null;index" json:"event_id"`
	HospitalID     uint      `gorm:"not null;index" json:"hospital_id"`
	VolumeML       int       `gorm:"not null;default:0" json:"volume_ml"`
	BloodType      *string   `gorm:"type:enum('A','B','AB','O')" json:"blood_type,omitempty"`
	Status         string    `gorm:"type:enum('thanh_cong','khong_dat');not null" json:"status"`
	Note           string    `gorm:"type:text" json:"note,omitempty"`
	RecordedBy     uint      `gorm:"not null" json:"recorded_by"`
	DonatedAt      time.Time `gorm:"not null" json:"donated_at"`
	CreatedAt      time.Time `json:"created_at"`

	Registration *Registration `gorm:"foreignKey:RegistrationID;constraint:OnDelete:CASCADE" json:"-"`
	Donor        *Donor        `gorm:"foreignKey:DonorID;constraint:OnDelete:CASCADE" json:"donor,omitempty"`
	Event        *Event        `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"event,omitempty"`
	Hospital     *Hospital     `gorm:"foreignKey:HospitalID;constraint:OnDelete:CASCADE" json:"hospital,omitempty"`
}

func (DonationResult) TableName() string {
	return "donation_results"
}
