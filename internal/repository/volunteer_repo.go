package repository

import (
	"context"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

type VolunteerRepository struct {
	db *gorm.DB
}

func NewVolunteerRepo(db *gorm.DB) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

// CreateGroup inserts a volunteer group
func (r *VolunteerRepository) CreateGroup(ctx context.Context, group *models.VolunteerGroup) error {
	return r.db.WithContext(ctx).Omit("Organization").Create(group).Error
}

// FindGroupByID retrieves an active group with its member count
func (r *VolunteerRepository) FindGroupByID(ctx context.Context, id uint) (*models.VolunteerGroup, error) {
	var group models.VolunteerGroup
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("id = ? AND is_active = ?", id, true).
		First(&group).Error
	if err != nil {
		return nil, translate(err)
	}
	groups := []models.VolunteerGroup{group}
	if err := r.attachMemberCounts(ctx, groups); err != nil {
		return nil, err
	}
	return &groups[0], nil
}

// UpdateGroup saves the group columns
func (r *VolunteerRepository) UpdateGroup(ctx context.Context, group *models.VolunteerGroup) error {
	return r.db.WithContext(ctx).Omit("Organization").Save(group).Error
}

// DeactivateGroup hides a group
func (r *VolunteerRepository) DeactivateGroup(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.VolunteerGroup{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListGroups returns a page of active groups, optionally scoped to an organization
func (r *VolunteerRepository) ListGroups(ctx context.Context, organizationID *uint, query string, page utils.PageParams) ([]models.VolunteerGroup, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.VolunteerGroup{}).Where("is_active = ?", true)
	if organizationID != nil {
		q = q.Where("organization_id = ?", *organizationID)
	}
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var groups []models.VolunteerGroup
	err := q.Preload("Organization").
		Order("name ASC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachMemberCounts(ctx, groups); err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// ListGroupsByMember returns the active groups a user belongs to
func (r *VolunteerRepository) ListGroupsByMember(ctx context.Context, userID uint) ([]models.VolunteerGroup, error) {
	var groups []models.VolunteerGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN volunteer_group_members m ON m.group_id = volunteer_groups.id").
		Where("m.user_id = ? AND volunteer_groups.is_active = ?", userID, true).
		Preload("Organization").
		Order("volunteer_groups.name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	if err := r.attachMemberCounts(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember inserts a membership row
func (r *VolunteerRepository) AddMember(ctx context.Context, member *models.VolunteerGroupMember) error {
	return r.db.WithContext(ctx).Omit("Group", "User").Create(member).Error
}

// RemoveMember deletes a membership row
func (r *VolunteerRepository) RemoveMember(ctx context.Context, groupID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.VolunteerGroupMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsMember reports whether the user belongs to the group
func (r *VolunteerRepository) IsMember(ctx context.Context, groupID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VolunteerGroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListMembers returns a page of members with their accounts
func (r *VolunteerRepository) ListMembers(ctx context.Context, groupID uint, page utils.PageParams) ([]models.VolunteerGroupMember, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.VolunteerGroupMember{}).Where("group_id = ?", groupID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []models.VolunteerGroupMember
	err := q.Preload("User").
		Order("joined_at ASC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&members).Error
	return members, total, err
}

func (r *VolunteerRepository) attachMemberCounts(ctx context.Context, groups []models.VolunteerGroup) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]uint, len(groups))
	for i := range groups {
		ids[i] = groups[i].ID
	}

	var rows []struct {
		GroupID uint
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.VolunteerGroupMember{}).
		Select("group_id, COUNT(*) AS count").
		Where("group_id IN ?", ids).
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	for i := range groups {
		groups[i].MemberCount = counts[groups[i].ID]
	}
	return nil
}
