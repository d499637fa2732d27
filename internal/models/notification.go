package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationEventCreated         = "event_created"
	NotificationEventReviewed        = "event_reviewed"
	NotificationRegistrationCreated  = "registration_created"
	NotificationRegistrationReviewed = "registration_reviewed"
	NotificationDonationRecorded     = "donation_recorded"
	NotificationBloodTypeConfirmed   = "blood_type_confirmed"
	NotificationBroadcast            = "broadcast"
	NotificationVolunteerGroupJoined = "volunteer_group_joined"
)

// Notification is an in-app message for a single user
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Type      string         `gorm:"size:50;not null" json:"type"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Message   string         `gorm:"type:text" json:"message"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}
