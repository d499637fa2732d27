package service

import (
	"context"
	"fmt"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"
)

// NotificationService serves a user's own inbox.
type NotificationService struct {
	repo NotificationStore
	now  func() time.Time
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, page utils.PageParams) ([]models.Notification, int64, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, page)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	if err := s.repo.MarkRead(ctx, userID, id, s.now()); err != nil {
		return notFoundAs(err, "notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uint) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return notFoundAs(err, "notification not found")
	}
	return nil
}
