package models

import "time"

const (
	OTPPurposeVerifyEmail   = "verify_email"
	OTPPurposeResetPassword = "reset_password"
)

// OTPCode is a one-time numeric code sent by email
type OTPCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"size:255;not null;index:idx_otp_lookup" json:"email"`
	Code      string     `gorm:"size:10;not null" json:"-"`
	Purpose   string     `gorm:"size:30;not null;index:idx_otp_lookup" json:"purpose"`
	Attempts  int        `gorm:"not null;default:0" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

// Expired reports whether the code is no longer valid at now.
// A code is valid strictly before its expiry instant.
func (o OTPCode) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}
