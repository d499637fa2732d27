package models

import "time"

const (
	BloodTypeA  = "A"
	BloodTypeB  = "B"
	BloodTypeAB = "AB"
	BloodTypeO  = "O"
)

// ValidBloodType reports whether v is one of A, B, AB, O.
func ValidBloodType(v string) bool {
	switch v {
	case BloodTypeA, BloodTypeB, BloodTypeAB, BloodTypeO:
		return true
	}
	return false
}

// Donor holds the donation profile of a user with the donor role
type Donor struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	DateOfBirth           *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Gender                string     `gorm:"type:enum('male','female','other');default:'other'" json:"gender"`
	BloodType             *string    `gorm:"type:enum('A','B','AB','O')" json:"blood_type,omitempty"`
	BloodTypeConfirmed    bool       `gorm:"default:false" json:"blood_type_confirmed"`
	ConfirmedByHospitalID *uint      `json:"confirmed_by_hospital_id,omitempty"`
	ConfirmedAt           *time.Time `json:"confirmed_at,omitempty"`
	Address               string     `gorm:"type:text" json:"address,omitempty"`
	Latitude              *float64   `json:"latitude,omitempty"`
	Longitude             *float64   `json:"longitude,omitempty"`
	LastDonationAt        *time.Time `json:"last_donation_at,omitempty"`
	TotalDonations        int        `gorm:"default:0" json:"total_donations"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (Donor) TableName() string {
	return "donors"
}
