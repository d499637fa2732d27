package models

import "time"

// AuditLog represents the audit_logs table
// Used for security tracking and admin action logging
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:100;not null;index" json:"action"`
	Details   string    `gorm:"type:text" json:"details"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Organization{},
		&Hospital{},
		&User{},
		&RefreshToken{},
		&Donor{},
		&Event{},
		&Registration{},
		&DonationResult{},
		&Notification{},
		&OTPCode{},
		&VolunteerGroup{},
		&VolunteerGroupMember{},
		&AuditLog{},
	}
}
