package service

import (
	"context"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

// Storage contracts used by the services. The repository package satisfies
// them against MySQL; tests use in-memory fakes.

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateWithDonor(ctx context.Context, user *models.User, donor *models.Donor) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetActive(ctx context.Context, id uint, active bool) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter repository.UserFilter, page utils.PageParams) ([]models.User, int64, error)
	ListIDs(ctx context.Context, role string) ([]uint, error)
	ListCoordinatorIDs(ctx context.Context, organizationID, hospitalID *uint) ([]uint, error)
	CountByRole(ctx context.Context) (map[string]int64, error)

	CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error
	FindRefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	RevokeRefreshTokenByHash(ctx context.Context, hash string) error
	RevokeUserRefreshTokens(ctx context.Context, userID uint) error
	DeleteStaleRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

type DonorStore interface {
	FindByID(ctx context.Context, id uint) (*models.Donor, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Donor, error)
	Update(ctx context.Context, donor *models.Donor) error
	ConfirmBloodType(ctx context.Context, donorID uint, bloodType string, hospitalID *uint, at time.Time) error
	List(ctx context.Context, filter repository.DonorFilter, page utils.PageParams) ([]models.Donor, int64, error)
	CountByBloodType(ctx context.Context) (map[string]int64, error)
}

type OrganizationStore interface {
	GetAllOrganizations(ctx context.Context) ([]models.Organization, error)
	GetOrganizationByID(ctx context.Context, id uint) (*models.Organization, error)
	CreateOrganization(ctx context.Context, org *models.Organization) error
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	SoftDeleteOrganization(ctx context.Context, id uint) error
	CountActive(ctx context.Context) (int64, error)
}

type HospitalStore interface {
	GetAllHospitals(ctx context.Context) ([]models.Hospital, error)
	GetHospitalByID(ctx context.Context, id uint) (*models.Hospital, error)
	GetHospitalByCode(ctx context.Context, code string) (*models.Hospital, error)
	GetHospitalsWithCoordinates(ctx context.Context) ([]models.Hospital, error)
	CreateHospital(ctx context.Context, hospital *models.Hospital) error
	UpdateHospital(ctx context.Context, hospital *models.Hospital) error
	SoftDeleteHospital(ctx context.Context, id uint) error
	CountActive(ctx context.Context) (int64, error)
}

type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uint) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter repository.EventFilter, page utils.PageParams) ([]models.Event, int64, error)
	ListAll(ctx context.Context, filter repository.EventFilter) ([]models.Event, error)
	CountActiveRegistrations(ctx context.Context, eventID uint) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id uint) (*models.Registration, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Registration, error)
	FindByEventAndDonor(ctx context.Context, eventID, donorID uint) (*models.Registration, error)
	Update(ctx context.Context, reg *models.Registration) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter repository.RegistrationFilter, page utils.PageParams) ([]models.Registration, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type DonationResultStore interface {
	ExistingRegistrationIDs(ctx context.Context, registrationIDs []uint) ([]uint, error)
	CreateBatch(ctx context.Context, results []models.DonationResult) error
	List(ctx context.Context, filter repository.DonationResultFilter, page utils.PageParams) ([]models.DonationResult, int64, error)
	Totals(ctx context.Context, filter repository.DonationResultFilter, since *time.Time) (repository.DonationTotals, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, unreadOnly bool, page utils.PageParams) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint, at time.Time) error
	MarkAllRead(ctx context.Context, userID uint, at time.Time) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
}

type OTPStore interface {
	Replace(ctx context.Context, otp *models.OTPCode) error
	FindLatestActive(ctx context.Context, email, purpose string) (*models.OTPCode, error)
	RecordFailedAttempt(ctx context.Context, id uint, maxAttempts int, at time.Time) (int, error)
	MarkUsed(ctx context.Context, id uint, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type VolunteerStore interface {
	CreateGroup(ctx context.Context, group *models.VolunteerGroup) error
	FindGroupByID(ctx context.Context, id uint) (*models.VolunteerGroup, error)
	UpdateGroup(ctx context.Context, group *models.VolunteerGroup) error
	DeactivateGroup(ctx context.Context, id uint) error
	ListGroups(ctx context.Context, organizationID *uint, query string, page utils.PageParams) ([]models.VolunteerGroup, int64, error)
	ListGroupsByMember(ctx context.Context, userID uint) ([]models.VolunteerGroup, error)
	AddMember(ctx context.Context, member *models.VolunteerGroupMember) error
	RemoveMember(ctx context.Context, groupID, userID uint) error
	IsMember(ctx context.Context, groupID, userID uint) (bool, error)
	ListMembers(ctx context.Context, groupID uint, page utils.PageParams) ([]models.VolunteerGroupMember, int64, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, userID *uint, action string, details string) error
	ListAuditLogs(ctx context.Context, action string, userID *uint, page utils.PageParams) ([]models.AuditLog, int64, error)
}

var (
	_ UserStore           = (*repository.UserRepository)(nil)
	_ DonorStore          = (*repository.DonorRepository)(nil)
	_ OrganizationStore   = (*repository.OrganizationRepository)(nil)
	_ HospitalStore       = (*repository.HospitalRepository)(nil)
	_ EventStore          = (*repository.EventRepository)(nil)
	_ RegistrationStore   = (*repository.RegistrationRepository)(nil)
	_ DonationResultStore = (*repository.DonationResultRepository)(nil)
	_ NotificationStore   = (*repository.NotificationRepository)(nil)
	_ OTPStore            = (*repository.OTPRepository)(nil)
	_ VolunteerStore      = (*repository.VolunteerRepository)(nil)
	_ AuditStore          = (*repository.AuditRepository)(nil)
)
