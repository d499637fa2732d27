package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

type AdminService struct {
	userRepo     UserStore
	donorRepo    DonorStore
	orgRepo      OrganizationStore
	hospitalRepo HospitalStore
	eventRepo    EventStore
	regRepo      RegistrationStore
	resultRepo   DonationResultStore
	notifier     NotificationSender
	auditRepo    AuditStore
	logger       *slog.Logger
	now          func() time.Time
}

func NewAdminService(
	userRepo UserStore,
	donorRepo DonorStore,
	orgRepo OrganizationStore,
	hospitalRepo HospitalStore,
	eventRepo EventStore,
	regRepo RegistrationStore,
	resultRepo DonationResultStore,
	notifier NotificationSender,
	auditRepo AuditStore,
	logger *slog.Logger,
) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		userRepo:     userRepo,
		donorRepo:    donorRepo,
		orgRepo:      orgRepo,
		hospitalRepo: hospitalRepo,
		eventRepo:    eventRepo,
		regRepo:      regRepo,
		resultRepo:   resultRepo,
		notifier:     notifier,
		auditRepo:    auditRepo,
		logger:       logger,
		now:          time.Now,
	}
}

type CreateUserInput struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=8"`
	FullName       string `json:"full_name" binding:"required,max=150"`
	Phone          string `json:"phone" binding:"omitempty,max=20"`
	Role           string `json:"role" binding:"required,oneof=admin donor organization hospital volunteer"`
	OrganizationID *uint  `json:"organization_id"`
	HospitalID     *uint  `json:"hospital_id"`
}

type BroadcastInput struct {
	Role    string `json:"role" binding:"omitempty,oneof=admin donor organization hospital volunteer"`
	Title   string `json:"title" binding:"required,max=255"`
	Message string `json:"message" binding:"required"`
}

type Stats struct {
	UsersByRole          map[string]int64          `json:"users_by_role"`
	DonorsByBloodType    map[string]int64          `json:"donors_by_blood_type"`
	Organizations        int64                     `json:"organizations"`
	Hospitals            int64                     `json:"hospitals"`
	EventsByStatus       map[string]int64          `json:"events_by_status"`
	RegistrationsByState map[string]int64          `json:"registrations_by_status"`
	Donations            repository.DonationTotals `json:"donations"`
	DonationsLast30Days  repository.DonationTotals `json:"donations_last_30_days"`
}

// Stats aggregates dashboard counters
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	var (
		st  Stats
		err error
	)
	if st.UsersByRole, err = s.userRepo.CountByRole(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if st.DonorsByBloodType, err = s.donorRepo.CountByBloodType(ctx); err != nil {
		return nil, fmt.Errorf("count donors: %w", err)
	}
	if st.Organizations, err = s.orgRepo.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("count organizations: %w", err)
	}
	if st.Hospitals, err = s.hospitalRepo.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("count hospitals: %w", err)
	}
	if st.EventsByStatus, err = s.eventRepo.CountByStatus(ctx); err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	if st.RegistrationsByState, err = s.regRepo.CountByStatus(ctx); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	if st.Donations, err = s.resultRepo.Totals(ctx, repository.DonationResultFilter{}, nil); err != nil {
		return nil, fmt.Errorf("sum donations: %w", err)
	}
	since := s.now().AddDate(0, 0, -30)
	if st.DonationsLast30Days, err = s.resultRepo.Totals(ctx, repository.DonationResultFilter{}, &since); err != nil {
		return nil, fmt.Errorf("sum donations: %w", err)
	}
	return &st, nil
}

func (s *AdminService) ListUsers(ctx context.Context, filter repository.UserFilter, page utils.PageParams) ([]models.User, int64, error) {
	if filter.Role != "" && !models.ValidRole(filter.Role) {
		return nil, 0, utils.BadRequest("invalid role filter")
	}
	return s.userRepo.List(ctx, filter, page)
}

// CreateUser creates any kind of account, including coordinators bound to an entity
func (s *AdminService) CreateUser(ctx context.Context, actor Actor, in CreateUserInput) (*models.User, error) {
	if !models.ValidRole(in.Role) {
		return nil, utils.BadRequest("invalid role")
	}
	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, utils.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if phone != "" {
		if _, err := s.userRepo.FindByPhone(ctx, phone); err == nil {
			return nil, utils.Conflict("phone number already registered")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
	}

	user := &models.User{
		Email:    email,
		FullName: strings.TrimSpace(in.FullName),
		Role:     in.Role,
		IsActive: true,
	}
	if phone != "" {
		user.Phone = &phone
	}

	switch in.Role {
	case models.RoleOrganization:
		if in.OrganizationID == nil {
			return nil, utils.BadRequest("organization_id is required for organization accounts")
		}
		if _, err := s.orgRepo.GetOrganizationByID(ctx, *in.OrganizationID); err != nil {
			return nil, notFoundAs(err, "organization not found")
		}
		user.OrganizationID = in.OrganizationID
	case models.RoleHospital:
		if in.HospitalID == nil {
			return nil, utils.BadRequest("hospital_id is required for hospital accounts")
		}
		if _, err := s.hospitalRepo.GetHospitalByID(ctx, *in.HospitalID); err != nil {
			return nil, notFoundAs(err, "hospital not found")
		}
		user.HospitalID = in.HospitalID
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash

	if in.Role == models.RoleDonor {
		err = s.userRepo.CreateWithDonor(ctx, user, &models.Donor{Gender: "other"})
	} else {
		err = s.userRepo.Create(ctx, user)
	}
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, utils.Conflict("email or phone number already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	details := fmt.Sprintf("Created %s account %s (ID: %d)", user.Role, user.Email, user.ID)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_create", details)
	return user, nil
}

// SetUserStatus enables or disables an account; disabling signs it out everywhere
func (s *AdminService) SetUserStatus(ctx context.Context, actor Actor, id uint, active bool) error {
	if id == actor.UserID {
		return utils.BadRequest("you cannot change the status of your own account")
	}
	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return notFoundAs(err, "user not found")
	}
	if !active {
		if err := s.userRepo.RevokeUserRefreshTokens(ctx, id); err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
	}

	action := "user_enable"
	if !active {
		action = "user_disable"
	}
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, action, fmt.Sprintf("Set user %d active=%t", id, active))
	return nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if id == actor.UserID {
		return utils.BadRequest("you cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundAs(err, "user not found")
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "user not found")
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "user_delete", fmt.Sprintf("Deleted user %s (ID: %d)", user.Email, id))
	return nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, action string, userID *uint, page utils.PageParams) ([]models.AuditLog, int64, error) {
	return s.auditRepo.ListAuditLogs(ctx, strings.TrimSpace(action), userID, page)
}

// Broadcast sends an in-app notification to every active user, optionally of one role.
// Delivery is best effort: recipients that could not be notified are logged and
// left out of the returned count.
func (s *AdminService) Broadcast(ctx context.Context, actor Actor, in BroadcastInput) (int, error) {
	if in.Role != "" && !models.ValidRole(in.Role) {
		return 0, utils.BadRequest("invalid role")
	}
	ids, err := s.userRepo.ListIDs(ctx, in.Role)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	msgs := make([]Message, 0, len(ids))
	for _, id := range ids {
		msgs = append(msgs, Message{
			UserID: id,
			Type:   models.NotificationBroadcast,
			Title:  strings.TrimSpace(in.Title),
			Body:   in.Message,
		})
	}
	delivered, err := s.notifier.NotifyMany(ctx, msgs)
	if err != nil {
		s.logger.WarnContext(ctx, "broadcast partially delivered",
			"recipients", len(ids), "delivered", delivered, "error", err)
	}

	details := fmt.Sprintf("Broadcast %q to %d of %d users (role: %s)", in.Title, delivered, len(ids), in.Role)
	_ = s.auditRepo.CreateAuditLog(ctx, &actor.UserID, "notification_broadcast", details)
	return delivered, nil
}
