package repository

import (
	"context"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepo(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

type RegistrationFilter struct {
	EventID        *uint
	DonorID        *uint
	Status         string
	OrganizationID *uint
	HospitalID     *uint
}

// Create inserts a registration
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	return r.db.WithContext(ctx).Omit("Event", "Donor").Create(reg).Error
}

// FindByID retrieves a registration with its event and donor
func (r *RegistrationRepository) FindByID(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Donor.User").
		First(&reg, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

// FindByIDs retrieves registrations by id with their donors
func (r *RegistrationRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Registration, error) {
	var regs []models.Registration
	if len(ids) == 0 {
		return regs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Donor.User").
		Where("id IN ?", ids).
		Find(&regs).Error
	return regs, err
}

// FindByEventAndDonor looks up the unique registration of a donor for an event
func (r *RegistrationRepository) FindByEventAndDonor(ctx context.Context, eventID, donorID uint) (*models.Registration, error) {
	var reg models.Registration
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND donor_id = ?", eventID, donorID).
		First(&reg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

// Update saves the registration columns
func (r *RegistrationRepository) Update(ctx context.Context, reg *models.Registration) error {
	return r.db.WithContext(ctx).Omit("Event", "Donor").Save(reg).Error
}

// Delete removes a registration
func (r *RegistrationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Registration{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of registrations, newest first
func (r *RegistrationRepository) List(ctx context.Context, filter RegistrationFilter, page utils.PageParams) ([]models.Registration, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Registration{}).
		Joins("JOIN events ON events.id = registrations.event_id")
	if filter.EventID != nil {
		q = q.Where("registrations.event_id = ?", *filter.EventID)
	}
	if filter.DonorID != nil {
		q = q.Where("registrations.donor_id = ?", *filter.DonorID)
	}
	if filter.Status != "" {
		q = q.Where("registrations.status = ?", filter.Status)
	}
	if filter.OrganizationID != nil {
		q = q.Where("events.organization_id = ?", *filter.OrganizationID)
	}
	if filter.HospitalID != nil {
		q = q.Where("events.hospital_id = ?", *filter.HospitalID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var regs []models.Registration
	err := q.Preload("Event").
		Preload("Donor.User").
		Order("registrations.created_at DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&regs).Error
	return regs, total, err
}

// CountByStatus returns the number of registrations per review status
func (r *RegistrationRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countByStatus(r.db.WithContext(ctx).Model(&models.Registration{}))
}
