package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"blood-donation-backend/internal/mailer"
	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/internal/models"

	"gorm.io/datatypes"
)

const (
	notificationEvent = "notification"
	emailTimeout      = 30 * time.Second
)

// Pusher delivers a real-time event to every socket of a user.
type Pusher interface {
	SendToUser(userID uint, event string, data interface{}) int
}

// Message is one notification for one user. Email is optional.
type Message struct {
	UserID uint
	Email  string
	Type   string
	Title  string
	Body   string
	Data   map[string]interface{}
}

// NotificationSender is what the domain services use to notify users.
type NotificationSender interface {
	Notify(ctx context.Context, msg Message) (*models.Notification, error)
	NotifyMany(ctx context.Context, msgs []Message) (int, error)
}

// Notifier stores a notification, pushes it over WebSocket and emails it in the background.
type Notifier struct {
	store   NotificationStore
	pusher  Pusher
	mail    mailer.Sender
	logger  *slog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewNotifier(store NotificationStore, pusher Pusher, mail mailer.Sender, logger *slog.Logger, m *metrics.Metrics) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		store:   store,
		pusher:  pusher,
		mail:    mail,
		logger:  logger,
		metrics: m,
	}
}

// Notify fails only when the row cannot be stored. Push and email are best effort.
func (n *Notifier) Notify(ctx context.Context, msg Message) (*models.Notification, error) {
	row := &models.Notification{
		UserID:  msg.UserID,
		Type:    msg.Type,
		Title:   msg.Title,
		Message: msg.Body,
	}
	if len(msg.Data) > 0 {
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal notification data: %w", err)
		}
		row.Data = datatypes.JSON(raw)
	}

	if err := n.store.Create(ctx, row); err != nil {
		n.metrics.Notification("db", "failed")
		return nil, fmt.Errorf("store notification: %w", err)
	}
	n.metrics.Notification("db", "stored")

	if n.pusher != nil {
		if n.pusher.SendToUser(row.UserID, notificationEvent, row) > 0 {
			n.metrics.Notification("ws", "sent")
		}
	}

	if msg.Email != "" && n.mail != nil {
		n.sendEmail(ctx, msg)
	}
	return row, nil
}

// NotifyMany notifies each recipient in order and keeps going after a failure.
// It returns how many notifications were stored.
func (n *Notifier) NotifyMany(ctx context.Context, msgs []Message) (int, error) {
	var errs []error
	delivered := 0
	for _, msg := range msgs {
		if _, err := n.Notify(ctx, msg); err != nil {
			n.logger.ErrorContext(ctx, "notify user", "user_id", msg.UserID, "type", msg.Type, "error", err)
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Wait blocks until every background email has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) sendEmail(ctx context.Context, msg Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emailTimeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()

		if err := n.mail.Send(ctx, msg.Email, msg.Title, renderEmail(msg.Title, msg.Body)); err != nil {
			n.metrics.Notification("email", "failed")
			n.logger.Warn("notification email failed", "user_id", msg.UserID, "to", msg.Email, "error", err)
			return
		}
		n.metrics.Notification("email", "sent")
	}()
}
