package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

type RegistrationService struct {
	regRepo      RegistrationStore
	eventRepo    EventStore
	donorRepo    DonorStore
	userRepo     UserStore
	notifier     NotificationSender
	auditRepo    AuditStore
	metrics      *metrics.Metrics
	intervalDays int
	now          func() time.Time
}

func NewRegistrationService(
	regRepo RegistrationStore,
	eventRepo EventStore,
	donorRepo DonorStore,
	userRepo UserStore,
	notifier NotificationSender,
	auditRepo AuditStore,
	m *metrics.Metrics,
	intervalDays int,
) *RegistrationService {
	return &RegistrationService{
		regRepo:      regRepo,
		eventRepo:    eventRepo,
		donorRepo:    donorRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		auditRepo:    auditRepo,
		metrics:      m,
		intervalDays: intervalDays,
		now:          time.Now,
	}
}

type RegisterEventInput struct {
	EventID uint   `json:"event_id" binding:"required"`
	Note    string `json:"note" binding:"max=1000"`
}

// Register signs the calling donor up for an approved, not yet started event
func (s *RegistrationService) Register(ctx context.Context, actor Actor, in RegisterEventInput) (*models.Registration, error) {
	donor, err := s.donorRepo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundAs(err, "donor profile not found")
	}

	event, err := s.eventRepo.FindByID(ctx, in.EventID)
	if err != nil {
		return nil, notFoundAs(err, "event not found")
	}
	if event.Status != models.StatusApproved {
		return nil, utils.BadRequest("event is not open for registration")
	}
	if !s.now().Before(event.StartTime) {
		return nil, utils.BadRequest("event has already started")
	}

	if _, err := s.regRepo.FindByEventAndDonor(ctx, event.ID, donor.ID); err == nil {
		return nil, utils.Conflict("you are already registered for this event")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find registration: %w", err)
	}

	count, err := s.eventRepo.CountActiveRegistrations(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if count >= int64(event.MaxParticipants) {
		return nil, utils.Conflict("event is full")
	}

	if donor.LastDonationAt != nil && s.intervalDays > 0 {
		earliest := donor.LastDonationAt.AddDate(0, 0, s.intervalDays)
		if event.StartTime.Before(earliest) {
			return nil, utils.BadRequest(fmt.Sprintf(
				"at least %d days must pass between donations; you can donate again from %s",
				s.intervalDays, earliest.Format("2006-01-02")))
		}
	}

	reg := &models.Registration{
		EventID: event.ID,
		DonorID: donor.ID,
		Status:  models.StatusPending,
		Note:    in.Note,
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		if repository.IsDuplicate(err) {
			return nil, utils.Conflict("you are already registered for this event")
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	reg.Event = event
	s.metrics.Registration("created")

	ids, err := s.userRepo.ListCoordinatorIDs(ctx, &event.OrganizationID, nil)
	if err == nil {
		name := "A donor"
		if donor.User != nil {
			name = donor.User.FullName
		}
		msgs := make([]Message, 0, len(ids))
		for _, id := range ids {
			msgs = append(msgs, Message{
				UserID: id,
				Type:   models.NotificationRegistrationCreated,
				Title:  "New registration",
				Body:   fmt.Sprintf("%s registered for %q.", name, event.Title),
				Data:   map[string]interface{}{"event_id": event.ID, "registration_id": reg.ID},
			})
		}
		_, _ = s.notifier.NotifyMany(ctx, msgs)
	}

	details := fmt.Sprintf("Donor %d registered for event %d", donor.ID, event.ID)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "registration_create", details)
	return reg, nil
}

// ListMine lists the calling donor's registrations
func (s *RegistrationService) ListMine(ctx context.Context, actor Actor, status string, page utils.PageParams) ([]models.Registration, int64, error) {
	donor, err := s.donorRepo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, 0, notFoundAs(err, "donor profile not found")
	}
	if status != "" && status != models.StatusPending && !models.ValidReviewDecision(status) {
		return nil, 0, utils.BadRequest("invalid status filter")
	}
	return s.regRepo.List(ctx, repository.RegistrationFilter{DonorID: &donor.ID, Status: status}, page)
}

// Cancel withdraws a pending or approved registration before the event starts
func (s *RegistrationService) Cancel(ctx context.Context, actor Actor, id uint) error {
	donor, err := s.donorRepo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		return notFoundAs(err, "donor profile not found")
	}
	reg, err := s.regRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "registration not found")
	}
	if reg.DonorID != donor.ID {
		return utils.Forbidden("you can only cancel your own registrations")
	}
	if reg.Status == models.StatusRejected {
		return utils.BadRequest("rejected registrations cannot be cancelled")
	}
	if reg.Event != nil && !s.now().Before(reg.Event.StartTime) {
		return utils.BadRequest("event has already started")
	}

	if err := s.regRepo.Delete(ctx, reg.ID); err != nil {
		return notFoundAs(err, "registration not found")
	}
	s.metrics.Registration("cancelled")

	details := fmt.Sprintf("Donor %d cancelled registration %d for event %d", donor.ID, reg.ID, reg.EventID)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "registration_cancel", details)
	return nil
}
