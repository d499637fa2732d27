package models

import "time"

// Organization is a body (club, company, school) that organizes donation events
type Organization struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	Phone       string    `gorm:"size:20" json:"phone,omitempty"`
	Address     string    `gorm:"type:text" json:"address,omitempty"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
}

func (Organization) TableName() string {
	return "organizations"
}
