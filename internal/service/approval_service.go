package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

// ApprovalService moves events and registrations through cho_duyet -> da_duyet | tu_choi.
type ApprovalService struct {
	eventRepo EventStore
	regRepo   RegistrationStore
	userRepo  UserStore
	notifier  NotificationSender
	auditRepo AuditStore
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewApprovalService(
	eventRepo EventStore,
	regRepo RegistrationStore,
	userRepo UserStore,
	notifier NotificationSender,
	auditRepo AuditStore,
	m *metrics.Metrics,
) *ApprovalService {
	return &ApprovalService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		auditRepo: auditRepo,
		metrics:   m,
		now:       time.Now,
	}
}

type ReviewInput struct {
	Status string `json:"status" binding:"required,oneof=da_duyet tu_choi"`
	Reason string `json:"reason" binding:"max=1000"`
}

func (in ReviewInput) validate() error {
	if !models.ValidReviewDecision(in.Status) {
		return utils.BadRequest("status must be da_duyet or tu_choi")
	}
	if in.Status == models.StatusRejected && strings.TrimSpace(in.Reason) == "" {
		return utils.BadRequest("a reason is required when rejecting")
	}
	return nil
}

func reviewStatusFilter(status string) (string, error) {
	switch status {
	case "":
		return models.StatusPending, nil
	case "all":
		return "", nil
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		return status, nil
	}
	return "", utils.BadRequest("invalid status filter")
}

// ListEvents lists events awaiting review by the caller's hospital, or all for admins
func (s *ApprovalService) ListEvents(ctx context.Context, actor Actor, status string, page utils.PageParams) ([]models.Event, int64, error) {
	st, err := reviewStatusFilter(status)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.EventFilter{Status: st}
	if !actor.IsAdmin() {
		user, err := coordinator(ctx, s.userRepo, actor)
		if err != nil {
			return nil, 0, err
		}
		if user.Role != models.RoleHospital {
			return nil, 0, utils.Forbidden("only hospitals review events")
		}
		filter.HospitalID = user.HospitalID
	}
	return s.eventRepo.List(ctx, filter, page)
}

// ReviewEvent approves or rejects a pending event
func (s *ApprovalService) ReviewEvent(ctx context.Context, actor Actor, id uint, in ReviewInput) (*models.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "event not found")
	}
	if !actor.IsAdmin() {
		user, err := coordinator(ctx, s.userRepo, actor)
		if err != nil {
			return nil, err
		}
		if user.Role != models.RoleHospital || !sameID(user.HospitalID, event.HospitalID) {
			return nil, utils.Forbidden("only the hosting hospital can review this event")
		}
	}
	if event.Status != models.StatusPending {
		return nil, utils.Conflict("event has already been reviewed")
	}

	now := s.now()
	event.Status = in.Status
	event.ReviewedBy = &actor.UserID
	event.ReviewedAt = &now
	event.RejectionReason = ""
	if in.Status == models.StatusRejected {
		event.RejectionReason = strings.TrimSpace(in.Reason)
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	title, body := "Event approved", fmt.Sprintf("Your event %q was approved and is now open for registration.", event.Title)
	if in.Status == models.StatusRejected {
		title, body = "Event rejected", fmt.Sprintf("Your event %q was rejected: %s", event.Title, event.RejectionReason)
	}
	if ids, err := s.userRepo.ListCoordinatorIDs(ctx, &event.OrganizationID, nil); err == nil {
		msgs := make([]Message, 0, len(ids))
		for _, uid := range ids {
			msgs = append(msgs, Message{
				UserID: uid,
				Type:   models.NotificationEventReviewed,
				Title:  title,
				Body:   body,
				Data:   map[string]interface{}{"event_id": event.ID, "status": event.Status},
			})
		}
		_, _ = s.notifier.NotifyMany(ctx, msgs)
	}

	details := fmt.Sprintf("Event %d reviewed: %s", event.ID, event.Status)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "event_review", details)
	return event, nil
}

// ListRegistrations lists registrations the caller may review
func (s *ApprovalService) ListRegistrations(ctx context.Context, actor Actor, status string, eventID *uint, page utils.PageParams) ([]models.Registration, int64, error) {
	st, err := reviewStatusFilter(status)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.RegistrationFilter{Status: st, EventID: eventID}
	if !actor.IsAdmin() {
		user, err := coordinator(ctx, s.userRepo, actor)
		if err != nil {
			return nil, 0, err
		}
		switch user.Role {
		case models.RoleOrganization:
			filter.OrganizationID = user.OrganizationID
		case models.RoleHospital:
			filter.HospitalID = user.HospitalID
		default:
			return nil, 0, utils.Forbidden("you cannot review registrations")
		}
	}
	return s.regRepo.List(ctx, filter, page)
}

// ReviewRegistration approves or rejects a registration. An approved registration
// can still be rejected until the event ends; rejection is final.
func (s *ApprovalService) ReviewRegistration(ctx context.Context, actor Actor, id uint, in ReviewInput) (*models.Registration, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	reg, err := s.regRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "registration not found")
	}
	event := reg.Event
	if event == nil {
		if event, err = s.eventRepo.FindByID(ctx, reg.EventID); err != nil {
			return nil, notFoundAs(err, "event not found")
		}
	}

	if !actor.IsAdmin() {
		user, err := coordinator(ctx, s.userRepo, actor)
		if err != nil {
			return nil, err
		}
		allowed := (user.Role == models.RoleOrganization && sameID(user.OrganizationID, event.OrganizationID)) ||
			(user.Role == models.RoleHospital && sameID(user.HospitalID, event.HospitalID))
		if !allowed {
			return nil, utils.Forbidden("you cannot review registrations of this event")
		}
	}

	now := s.now()
	switch reg.Status {
	case models.StatusRejected:
		return nil, utils.Conflict("registration has already been rejected")
	case models.StatusApproved:
		if in.Status == models.StatusApproved {
			return nil, utils.Conflict("registration is already approved")
		}
		if !now.Before(event.EndTime) {
			return nil, utils.BadRequest("event has ended")
		}
	}

	reg.Status = in.Status
	reg.ReviewedBy = &actor.UserID
	reg.ReviewedAt = &now
	reg.RejectionReason = ""
	if in.Status == models.StatusRejected {
		reg.RejectionReason = strings.TrimSpace(in.Reason)
	}
	if err := s.regRepo.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	s.metrics.Registration(in.Status)

	if reg.Donor != nil {
		msg := Message{
			UserID: reg.Donor.UserID,
			Type:   models.NotificationRegistrationReviewed,
			Title:  "Registration approved",
			Body:   fmt.Sprintf("Your registration for %q on %s was approved.", event.Title, event.StartTime.Format("2006-01-02 15:04")),
			Data:   map[string]interface{}{"event_id": event.ID, "registration_id": reg.ID, "status": reg.Status},
		}
		if in.Status == models.StatusRejected {
			msg.Title = "Registration rejected"
			msg.Body = fmt.Sprintf("Your registration for %q was rejected: %s", event.Title, reg.RejectionReason)
		}
		if reg.Donor.User != nil {
			msg.Email = reg.Donor.User.Email
		}
		_, _ = s.notifier.Notify(ctx, msg)
	}

	details := fmt.Sprintf("Registration %d reviewed: %s", reg.ID, reg.Status)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "registration_review", details)
	return reg, nil
}
