package repository

import (
	"context"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

type DonorRepository struct {
	db *gorm.DB
}

func NewDonorRepo(db *gorm.DB) *DonorRepository {
	return &DonorRepository{db: db}
}

type DonorFilter struct {
	BloodType string
	Confirmed *bool
	Query     string
}

// FindByID retrieves a donor with its user account
func (r *DonorRepository) FindByID(ctx context.Context, id uint) (*models.Donor, error) {
	var donor models.Donor
	err := r.db.WithContext(ctx).Preload("User").First(&donor, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &donor, nil
}

// FindByUserID retrieves the donor profile of a user
func (r *DonorRepository) FindByUserID(ctx context.Context, userID uint) (*models.Donor, error) {
	var donor models.Donor
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&donor).Error
	if err != nil {
		return nil, translate(err)
	}
	return &donor, nil
}

// Create inserts a donor profile
func (r *DonorRepository) Create(ctx context.Context, donor *models.Donor) error {
	return r.db.WithContext(ctx).Create(donor).Error
}

// Update saves the donor profile without touching the user association
func (r *DonorRepository) Update(ctx context.Context, donor *models.Donor) error {
	return r.db.WithContext(ctx).Omit("User").Save(donor).Error
}

// ConfirmBloodType stores a hospital-confirmed blood type
func (r *DonorRepository) ConfirmBloodType(ctx context.Context, donorID uint, bloodType string, hospitalID *uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Donor{}).
		Where("id = ?", donorID).
		Updates(map[string]interface{}{
			"blood_type":               bloodType,
			"blood_type_confirmed":     true,
			"confirmed_by_hospital_id": hospitalID,
			"confirmed_at":             at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of donors with their accounts
func (r *DonorRepository) List(ctx context.Context, filter DonorFilter, page utils.PageParams) ([]models.Donor, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Donor{}).
		Joins("JOIN users ON users.id = donors.user_id")
	if filter.BloodType != "" {
		q = q.Where("donors.blood_type = ?", filter.BloodType)
	}
	if filter.Confirmed != nil {
		q = q.Where("donors.blood_type_confirmed = ?", *filter.Confirmed)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("users.full_name LIKE ? OR users.email LIKE ? OR users.phone LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var donors []models.Donor
	err := q.Preload("User").
		Order("donors.created_at DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&donors).Error
	return donors, total, err
}

// CountByBloodType returns donor counts keyed by blood type ("unknown" for NULL)
func (r *DonorRepository) CountByBloodType(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		BloodType *string
		Count     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Donor{}).
		Select("blood_type, COUNT(*) AS count").
		Group("blood_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := "unknown"
		if row.BloodType != nil {
			key = *row.BloodType
		}
		counts[key] = row.Count
	}
	return counts, nil
}
