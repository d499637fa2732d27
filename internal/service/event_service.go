package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

type EventService struct {
	eventRepo    EventStore
	hospitalRepo HospitalStore
	regRepo      RegistrationStore
	userRepo     UserStore
	notifier     NotificationSender
	auditRepo    AuditStore
	now          func() time.Time
}

func NewEventService(
	eventRepo EventStore,
	hospitalRepo HospitalStore,
	regRepo RegistrationStore,
	userRepo UserStore,
	notifier NotificationSender,
	auditRepo AuditStore,
) *EventService {
	return &EventService{
		eventRepo:    eventRepo,
		hospitalRepo: hospitalRepo,
		regRepo:      regRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		auditRepo:    auditRepo,
		now:          time.Now,
	}
}

type EventInput struct {
	HospitalID      uint      `json:"hospital_id" binding:"required"`
	Title           string    `json:"title" binding:"required,max=255"`
	Description     string    `json:"description"`
	Location        string    `json:"location" binding:"required,max=255"`
	Latitude        *float64  `json:"latitude" binding:"omitempty,latitude"`
	Longitude       *float64  `json:"longitude" binding:"omitempty,longitude"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required"`
	MaxParticipants int       `json:"max_participants" binding:"required,min=1"`
}

type EventQuery struct {
	Query          string
	OrganizationID *uint
	HospitalID     *uint
	From           *time.Time
	To             *time.Time
	Upcoming       bool
	Status         string
}

func (s *EventService) validateInput(ctx context.Context, in EventInput) (*models.Hospital, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, utils.BadRequest("title is required")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, utils.BadRequest("end_time must be after start_time")
	}
	if !in.StartTime.After(s.now()) {
		return nil, utils.BadRequest("start_time must be in the future")
	}
	if in.MaxParticipants < 1 {
		return nil, utils.BadRequest("max_participants must be at least 1")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, utils.BadRequest("latitude and longitude must be set together")
	}
	hospital, err := s.hospitalRepo.GetHospitalByID(ctx, in.HospitalID)
	if err != nil {
		return nil, notFoundAs(err, "hospital not found")
	}
	return hospital, nil
}

func applyEventInput(event *models.Event, in EventInput) {
	event.HospitalID = in.HospitalID
	event.Title = strings.TrimSpace(in.Title)
	event.Description = in.Description
	event.Location = strings.TrimSpace(in.Location)
	event.Latitude = in.Latitude
	event.Longitude = in.Longitude
	event.StartTime = in.StartTime
	event.EndTime = in.EndTime
	event.MaxParticipants = in.MaxParticipants
}

// CreateEvent files a new event for review by the hosting hospital
func (s *EventService) CreateEvent(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	user, err := coordinator(ctx, s.userRepo, actor)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleOrganization {
		return nil, utils.Forbidden("only organizations can create events")
	}

	hospital, err := s.validateInput(ctx, in)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		OrganizationID: *user.OrganizationID,
		Status:         models.StatusPending,
	}
	applyEventInput(event, in)
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	event.Hospital = hospital

	s.notifyHospital(ctx, event, "New event awaiting review",
		fmt.Sprintf("Event %q on %s needs your approval.", event.Title, event.StartTime.Format("2006-01-02 15:04")))

	details := fmt.Sprintf("Created event %d: %s", event.ID, event.Title)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "event_create", details)
	return event, nil
}

// UpdateEvent edits a pending or rejected event; a rejected event goes back to review
func (s *EventService) UpdateEvent(ctx context.Context, actor Actor, id uint, in EventInput) (*models.Event, error) {
	user, err := coordinator(ctx, s.userRepo, actor)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "event not found")
	}
	if user.Role != models.RoleOrganization || !sameID(user.OrganizationID, event.OrganizationID) {
		return nil, utils.Forbidden("you can only edit your organization's events")
	}
	if event.Status == models.StatusApproved {
		return nil, utils.Conflict("approved events can no longer be edited")
	}

	hospital, err := s.validateInput(ctx, in)
	if err != nil {
		return nil, err
	}

	resubmitted := event.Status == models.StatusRejected
	applyEventInput(event, in)
	event.Hospital = hospital
	if resubmitted {
		event.Status = models.StatusPending
		event.RejectionReason = ""
		event.ReviewedBy = nil
		event.ReviewedAt = nil
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	if resubmitted {
		s.notifyHospital(ctx, event, "Event resubmitted for review",
			fmt.Sprintf("Event %q was edited and needs your approval again.", event.Title))
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "event_update", fmt.Sprintf("Updated event %d", event.ID))
	return event, nil
}

// DeleteEvent removes an event; registrations go with it
func (s *EventService) DeleteEvent(ctx context.Context, actor Actor, id uint) error {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "event not found")
	}
	if !actor.IsAdmin() {
		user, err := coordinator(ctx, s.userRepo, actor)
		if err != nil {
			return err
		}
		if user.Role != models.RoleOrganization || !sameID(user.OrganizationID, event.OrganizationID) {
			return utils.Forbidden("you can only delete your organization's events")
		}
	}

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "event not found")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "event_delete", fmt.Sprintf("Deleted event %d: %s", event.ID, event.Title))
	return nil
}

// GetEvent returns an approved event to anyone. Unapproved events are visible
// only to their organization, their hospital and admins.
func (s *EventService) GetEvent(ctx context.Context, viewer *Actor, id uint) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "event not found")
	}
	if event.Status != models.StatusApproved && !s.canManage(ctx, viewer, event) {
		return nil, utils.NotFound("event not found")
	}

	count, err := s.eventRepo.CountActiveRegistrations(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	event.RegisteredCount = count
	return event, nil
}

// ListPublicEvents lists approved events
func (s *EventService) ListPublicEvents(ctx context.Context, q EventQuery, page utils.PageParams) ([]models.Event, int64, error) {
	filter := repository.EventFilter{
		Status:         models.StatusApproved,
		OrganizationID: q.OrganizationID,
		HospitalID:     q.HospitalID,
		Query:          strings.TrimSpace(q.Query),
		From:           q.From,
		To:             q.To,
	}
	if q.Upcoming {
		now := s.now()
		filter.UpcomingAfter = &now
	}
	return s.eventRepo.List(ctx, filter, page)
}

// ListMyEvents lists the events of the caller's organization or hospital
func (s *EventService) ListMyEvents(ctx context.Context, actor Actor, q EventQuery, page utils.PageParams) ([]models.Event, int64, error) {
	user, err := coordinator(ctx, s.userRepo, actor)
	if err != nil {
		return nil, 0, err
	}
	if q.Status != "" && q.Status != models.StatusPending && !models.ValidReviewDecision(q.Status) {
		return nil, 0, utils.BadRequest("invalid status filter")
	}

	filter := repository.EventFilter{Status: q.Status, Query: strings.TrimSpace(q.Query), From: q.From, To: q.To}
	switch user.Role {
	case models.RoleOrganization:
		filter.OrganizationID = user.OrganizationID
	case models.RoleHospital:
		filter.HospitalID = user.HospitalID
	default:
		return nil, 0, utils.Forbidden("only organizations and hospitals have events")
	}
	return s.eventRepo.List(ctx, filter, page)
}

// ListEventRegistrations lists sign-ups of an event to the people running it
func (s *EventService) ListEventRegistrations(ctx context.Context, actor Actor, eventID uint, status string, page utils.PageParams) ([]models.Registration, int64, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, 0, notFoundAs(err, "event not found")
	}
	if !s.canManage(ctx, &actor, event) {
		return nil, 0, utils.Forbidden("you cannot view registrations of this event")
	}
	if status != "" && status != models.StatusPending && !models.ValidReviewDecision(status) {
		return nil, 0, utils.BadRequest("invalid status filter")
	}
	return s.regRepo.List(ctx, repository.RegistrationFilter{EventID: &event.ID, Status: status}, page)
}

func (s *EventService) canManage(ctx context.Context, viewer *Actor, event *models.Event) bool {
	if viewer == nil {
		return false
	}
	if viewer.IsAdmin() {
		return true
	}
	user, err := coordinator(ctx, s.userRepo, *viewer)
	if err != nil {
		return false
	}
	switch user.Role {
	case models.RoleOrganization:
		return sameID(user.OrganizationID, event.OrganizationID)
	case models.RoleHospital:
		return sameID(user.HospitalID, event.HospitalID)
	}
	return false
}

func (s *EventService) notifyHospital(ctx context.Context, event *models.Event, title, body string) {
	ids, err := s.userRepo.ListCoordinatorIDs(ctx, nil, &event.HospitalID)
	if err != nil || len(ids) == 0 {
		return
	}
	msgs := make([]Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, Message{
			UserID: id,
			Type:   models.NotificationEventCreated,
			Title:  title,
			Body:   body,
			Data:   map[string]interface{}{"event_id": event.ID},
		})
	}
	_, _ = s.notifier.NotifyMany(ctx, msgs)
}
