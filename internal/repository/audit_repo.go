package repository

import (
	"context"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, userID *uint, action string, details string) error {
	log := &models.AuditLog{
		UserID:  userID,
		Action:  action,
		Details: details,
	}
	return r.db.WithContext(ctx).Omit("User").Create(log).Error
}

// ListAuditLogs returns a page of audit entries, newest first
func (r *AuditRepository) ListAuditLogs(ctx context.Context, action string, userID *uint, page utils.PageParams) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	err := q.Preload("User").
		Order("created_at DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&logs).Error
	return logs, total, err
}
