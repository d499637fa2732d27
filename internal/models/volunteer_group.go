package models

import "time"

// VolunteerGroup gathers volunteers who help run donation events
type VolunteerGroup struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	LeaderID       *uint     `json:"leader_id,omitempty"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`
	MemberCount  int64         `gorm:"-" json:"member_count"`
}

func (VolunteerGroup) TableName() string {
	return "volunteer_groups"
}

// VolunteerGroupMember is the membership join table
type VolunteerGroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  uint      `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Group *VolunteerGroup `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"group,omitempty"`
	User  *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (VolunteerGroupMember) TableName() string {
	return "volunteer_group_members"
}
