package repository

import (
	"context"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

type EventFilter struct {
	Status         string
	OrganizationID *uint
	HospitalID     *uint
	Query          string
	From           *time.Time
	// To is exclusive.
	To             *time.Time
	UpcomingAfter  *time.Time
}

// Create inserts an event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Organization", "Hospital").Create(event).Error
}

// FindByID retrieves an event with its organization and hospital
func (r *EventRepository) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Preload("Hospital").
		First(&event, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

// Update saves the event columns
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Organization", "Hospital").Save(event).Error
}

// Delete removes an event; registrations and results cascade
func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EventRepository) applyFilter(q *gorm.DB, filter EventFilter) *gorm.DB {
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrganizationID != nil {
		q = q.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.HospitalID != nil {
		q = q.Where("hospital_id = ?", *filter.HospitalID)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("title LIKE ? OR location LIKE ? OR description LIKE ?", like, like, like)
	}
	if filter.From != nil {
		q = q.Where("start_time >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("start_time < ?", *filter.To)
	}
	if filter.UpcomingAfter != nil {
		q = q.Where("start_time > ?", *filter.UpcomingAfter)
	}
	return q
}

// List returns a page of events ordered by start time
func (r *EventRepository) List(ctx context.Context, filter EventFilter, page utils.PageParams) ([]models.Event, int64, error) {
	q := r.applyFilter(r.db.WithContext(ctx).Model(&models.Event{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.Event
	err := q.Preload("Organization").
		Preload("Hospital").
		Order("start_time ASC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&events).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachCounts(ctx, events); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListAll returns every event matching the filter without paging
func (r *EventRepository) ListAll(ctx context.Context, filter EventFilter) ([]models.Event, error) {
	var events []models.Event
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.Event{}), filter).
		Preload("Organization").
		Preload("Hospital").
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

// CountActiveRegistrations counts registrations that still hold a seat
func (r *EventRepository) CountActiveRegistrations(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Registration{}).
		Where("event_id = ? AND status <> ?", eventID, models.StatusRejected).
		Count(&count).Error
	return count, err
}

// CountByStatus returns the number of events per review status
func (r *EventRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countByStatus(r.db.WithContext(ctx).Model(&models.Event{}))
}

func (r *EventRepository) attachCounts(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]uint, len(events))
	for i := range events {
		ids[i] = events[i].ID
	}

	var rows []struct {
		EventID uint
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.Registration{}).
		Select("event_id, COUNT(*) AS count").
		Where("event_id IN ? AND status <> ?", ids, models.StatusRejected).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.EventID] = row.Count
	}
	for i := range events {
		events[i].RegisteredCount = counts[events[i].ID]
	}
	return nil
}

func countByStatus(q *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
