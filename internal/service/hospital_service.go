package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

type HospitalService struct {
	hospitalRepo HospitalStore
	userRepo     UserStore
	donorRepo    DonorStore
	eventRepo    EventStore
	regRepo      RegistrationStore
	resultRepo   DonationResultStore
	notifier     NotificationSender
	auditRepo    AuditStore
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewHospitalService(
	hospitalRepo HospitalStore,
	userRepo UserStore,
	donorRepo DonorStore,
	eventRepo EventStore,
	regRepo RegistrationStore,
	resultRepo DonationResultStore,
	notifier NotificationSender,
	auditRepo AuditStore,
	m *metrics.Metrics,
) *HospitalService {
	return &HospitalService{
		hospitalRepo: hospitalRepo,
		userRepo:     userRepo,
		donorRepo:    donorRepo,
		eventRepo:    eventRepo,
		regRepo:      regRepo,
		resultRepo:   resultRepo,
		notifier:     notifier,
		auditRepo:    auditRepo,
		metrics:      m,
		now:          time.Now,
	}
}

type HospitalInput struct {
	Code      string   `json:"code" binding:"omitempty,max=50"`
	Name      string   `json:"name" binding:"required,max=255"`
	Email     string   `json:"email" binding:"omitempty,email"`
	Phone     string   `json:"phone" binding:"omitempty,max=20"`
	Address   string   `json:"address"`
	City      string   `json:"city" binding:"omitempty,max=100"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" binding:"omitempty,longitude"`
}

type ResultInput struct {
	RegistrationID uint   `json:"registration_id" binding:"required"`
	Status         string `json:"status" binding:"required,oneof=thanh_cong khong_dat"`
	VolumeML       int    `json:"volume_ml" binding:"min=0,max=1000"`
	BloodType      string `json:"blood_type" binding:"omitempty,bloodtype"`
	Note           string `json:"note" binding:"max=1000"`
}

type RecordResultsInput struct {
	EventID uint          `json:"event_id" binding:"required"`
	Results []ResultInput `json:"results" binding:"required,min=1,dive"`
}

type BloodTypeInput struct {
	BloodType string `json:"blood_type" binding:"required,bloodtype"`
}

func applyHospitalInput(h *models.Hospital, in HospitalInput) {
	h.Name = strings.TrimSpace(in.Name)
	h.Email = in.Email
	h.Phone = in.Phone
	h.Address = in.Address
	h.City = in.City
	h.Latitude = in.Latitude
	h.Longitude = in.Longitude
}

// GetAllHospitals lists active hospitals
func (s *HospitalService) GetAllHospitals(ctx context.Context) ([]models.Hospital, error) {
	return s.hospitalRepo.GetAllHospitals(ctx)
}

// GetHospitalByID retrieves an active hospital
func (s *HospitalService) GetHospitalByID(ctx context.Context, id uint) (*models.Hospital, error) {
	hospital, err := s.hospitalRepo.GetHospitalByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "hospital not found")
	}
	return hospital, nil
}

// CreateHospital creates a new hospital (admin only)
func (s *HospitalService) CreateHospital(ctx context.Context, actor Actor, in HospitalInput) (*models.Hospital, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return nil, utils.BadRequest("code is required")
	}
	if _, err := s.hospitalRepo.GetHospitalByCode(ctx, code); err == nil {
		return nil, utils.Conflict("hospital code already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find hospital: %w", err)
	}

	hospital := &models.Hospital{Code: code, IsActive: true}
	applyHospitalInput(hospital, in)
	if err := s.hospitalRepo.CreateHospital(ctx, hospital); err != nil {
		if repository.IsDuplicate(err) {
			return nil, utils.Conflict("hospital code already exists")
		}
		return nil, fmt.Errorf("failed to create hospital: %w", err)
	}

	details := fmt.Sprintf("Created hospital: %s (code: %s)", hospital.Name, hospital.Code)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "hospital_create", details)
	return hospital, nil
}

// UpdateHospital updates an existing hospital (admin only)
func (s *HospitalService) UpdateHospital(ctx context.Context, actor Actor, id uint, in HospitalInput) (*models.Hospital, error) {
	existing, err := s.hospitalRepo.GetHospitalByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "hospital not found")
	}

	oldCode := existing.Code
	if code := strings.ToUpper(strings.TrimSpace(in.Code)); code != "" && code != existing.Code {
		if other, err := s.hospitalRepo.GetHospitalByCode(ctx, code); err == nil && other.ID != existing.ID {
			return nil, utils.Conflict("hospital code already exists")
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("find hospital: %w", err)
		}
		existing.Code = code
	}
	applyHospitalInput(existing, in)

	if err := s.hospitalRepo.UpdateHospital(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update hospital: %w", err)
	}

	details := fmt.Sprintf("Updated hospital: %s (ID: %d, old code: %s)", existing.Name, existing.ID, oldCode)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "hospital_update", details)
	return existing, nil
}

// DeleteHospital soft deletes a hospital (admin only)
func (s *HospitalService) DeleteHospital(ctx context.Context, actor Actor, id uint) error {
	hospital, err := s.hospitalRepo.GetHospitalByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "hospital not found")
	}

	if err := s.hospitalRepo.SoftDeleteHospital(ctx, id); err != nil {
		return fmt.Errorf("failed to delete hospital: %w", err)
	}

	details := fmt.Sprintf("Deleted hospital: %s (code: %s, ID: %d)", hospital.Name, hospital.Code, id)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "hospital_delete", details)
	return nil
}

func (s *HospitalService) myHospitalID(ctx context.Context, actor Actor) (uint, error) {
	user, err := coordinator(ctx, s.userRepo, actor)
	if err != nil {
		return 0, err
	}
	if user.Role != models.RoleHospital {
		return 0, utils.Forbidden("only hospital accounts can do this")
	}
	return *user.HospitalID, nil
}

// GetMyHospital returns the hospital the caller coordinates
func (s *HospitalService) GetMyHospital(ctx context.Context, actor Actor) (*models.Hospital, error) {
	id, err := s.myHospitalID(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.GetHospitalByID(ctx, id)
}

// UpdateMyHospital lets a coordinator edit contact and location details. The code stays.
func (s *HospitalService) UpdateMyHospital(ctx context.Context, actor Actor, in HospitalInput) (*models.Hospital, error) {
	id, err := s.myHospitalID(ctx, actor)
	if err != nil {
		return nil, err
	}
	hospital, err := s.hospitalRepo.GetHospitalByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "hospital not found")
	}
	applyHospitalInput(hospital, in)
	if err := s.hospitalRepo.UpdateHospital(ctx, hospital); err != nil {
		return nil, fmt.Errorf("failed to update hospital: %w", err)
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "hospital_update", fmt.Sprintf("Coordinator updated hospital %d", id))
	return hospital, nil
}

// RecordResults stores the outcome of approved registrations of one event as a single batch
func (s *HospitalService) RecordResults(ctx context.Context, actor Actor, in RecordResultsInput) ([]models.DonationResult, error) {
	hospitalID, err := s.myHospitalID(ctx, actor)
	if err != nil {
		return nil, err
	}
	if len(in.Results) == 0 {
		return nil, utils.BadRequest("results must not be empty")
	}

	event, err := s.eventRepo.FindByID(ctx, in.EventID)
	if err != nil {
		return nil, notFoundAs(err, "event not found")
	}
	if event.HospitalID != hospitalID {
		return nil, utils.Forbidden("event is not hosted by your hospital")
	}
	if event.Status != models.StatusApproved {
		return nil, utils.BadRequest("event is not approved")
	}
	if s.now().Before(event.StartTime) {
		return nil, utils.BadRequest("event has not started yet")
	}

	ids := make([]uint, 0, len(in.Results))
	seen := make(map[uint]struct{}, len(in.Results))
	for _, r := range in.Results {
		if _, dup := seen[r.RegistrationID]; dup {
			return nil, utils.BadRequest(fmt.Sprintf("registration %d appears more than once", r.RegistrationID))
		}
		seen[r.RegistrationID] = struct{}{}
		ids = append(ids, r.RegistrationID)

		if r.Status != models.DonationSucceeded && r.Status != models.DonationFailed {
			return nil, utils.BadRequest("status must be thanh_cong or khong_dat")
		}
		if r.Status == models.DonationSucceeded && r.VolumeML <= 0 {
			return nil, utils.BadRequest(fmt.Sprintf("registration %d: volume_ml is required for a successful donation", r.RegistrationID))
		}
		if r.BloodType != "" && !models.ValidBloodType(r.BloodType) {
			return nil, utils.BadRequest("blood_type must be one of A, B, AB, O")
		}
	}

	regs, err := s.regRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	byID := make(map[uint]models.Registration, len(regs))
	for _, reg := range regs {
		byID[reg.ID] = reg
	}
	for _, id := range ids {
		reg, ok := byID[id]
		if !ok || reg.EventID != event.ID {
			return nil, utils.BadRequest(fmt.Sprintf("registration %d does not belong to this event", id))
		}
		if reg.Status != models.StatusApproved {
			return nil, utils.BadRequest(fmt.Sprintf("registration %d is not approved", id))
		}
	}

	existing, err := s.resultRepo.ExistingRegistrationIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check existing results: %w", err)
	}
	if len(existing) > 0 {
		return nil, utils.Conflict(fmt.Sprintf("registration %d already has a result", existing[0]))
	}

	results := make([]models.DonationResult, 0, len(in.Results))
	for _, r := range in.Results {
		res := models.DonationResult{
			RegistrationID: r.RegistrationID,
			DonorID:        byID[r.RegistrationID].DonorID,
			EventID:        event.ID,
			HospitalID:     hospitalID,
			VolumeML:       r.VolumeML,
			Status:         r.Status,
			Note:           r.Note,
			RecordedBy:     actor.UserID,
			DonatedAt:      event.StartTime,
		}
		if r.Status == models.DonationFailed {
			res.VolumeML = 0
		}
		if r.BloodType != "" {
			bt := r.BloodType
			res.BloodType = &bt
		}
		results = append(results, res)
	}

	if err := s.resultRepo.CreateBatch(ctx, results); err != nil {
		if repository.IsDuplicate(err) {
			return nil, utils.Conflict("a result was already recorded for one of the registrations")
		}
		return nil, fmt.Errorf("failed to record results: %w", err)
	}

	for _, res := range results {
		s.metrics.DonationRecorded(res.Status)
		reg := byID[res.RegistrationID]
		if reg.Donor == nil {
			continue
		}
		msg := Message{
			UserID: reg.Donor.UserID,
			Type:   models.NotificationDonationRecorded,
			Title:  "Thank you for donating",
			Body:   fmt.Sprintf("Your donation of %d ml at %q was recorded.", res.VolumeML, event.Title),
			Data:   map[string]interface{}{"event_id": event.ID, "result_id": res.ID, "status": res.Status},
		}
		if res.Status == models.DonationFailed {
			msg.Title = "Donation result recorded"
			msg.Body = fmt.Sprintf("You could not donate at %q this time. %s", event.Title, res.Note)
		}
		if reg.Donor.User != nil {
			msg.Email = reg.Donor.User.Email
		}
		_, _ = s.notifier.Notify(ctx, msg)
	}

	details := fmt.Sprintf("Recorded %d results for event %d", len(results), event.ID)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "donation_results_record", details)
	return results, nil
}

// ListResults lists results recorded by the caller's hospital
func (s *HospitalService) ListResults(ctx context.Context, actor Actor, eventID *uint, status string, page utils.PageParams) ([]models.DonationResult, int64, error) {
	hospitalID, err := s.myHospitalID(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	if status != "" && status != models.DonationSucceeded && status != models.DonationFailed {
		return nil, 0, utils.BadRequest("invalid status filter")
	}
	filter := repository.DonationResultFilter{HospitalID: &hospitalID, EventID: eventID, Status: status}
	return s.resultRepo.List(ctx, filter, page)
}

// ConfirmBloodType records a laboratory-confirmed blood type for a donor
func (s *HospitalService) ConfirmBloodType(ctx context.Context, actor Actor, donorID uint, bloodType string) (*models.Donor, error) {
	if !models.ValidBloodType(bloodType) {
		return nil, utils.BadRequest("blood_type must be one of A, B, AB, O")
	}

	var hospitalID *uint
	if !actor.IsAdmin() {
		id, err := s.myHospitalID(ctx, actor)
		if err != nil {
			return nil, err
		}
		hospitalID = &id
	}

	donor, err := s.donorRepo.FindByID(ctx, donorID)
	if err != nil {
		return nil, notFoundAs(err, "donor not found")
	}

	now := s.now()
	if err := s.donorRepo.ConfirmBloodType(ctx, donor.ID, bloodType, hospitalID, now); err != nil {
		return nil, notFoundAs(err, "donor not found")
	}
	donor.BloodType = &bloodType
	donor.BloodTypeConfirmed = true
	donor.ConfirmedByHospitalID = hospitalID
	donor.ConfirmedAt = &now

	msg := Message{
		UserID: donor.UserID,
		Type:   models.NotificationBloodTypeConfirmed,
		Title:  "Blood type confirmed",
		Body:   fmt.Sprintf("Your blood type was confirmed as %s.", bloodType),
		Data:   map[string]interface{}{"blood_type": bloodType},
	}
	if donor.User != nil {
		msg.Email = donor.User.Email
	}
	_, _ = s.notifier.Notify(ctx, msg)

	details := fmt.Sprintf("Confirmed blood type %s for donor %d", bloodType, donor.ID)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "blood_type_confirm", details)
	return donor, nil
}
