package repository

import (
	"context"

	"blood-donation-backend/internal/models"

	"gorm.io/gorm"
)

type HospitalRepository struct {
	db *gorm.DB
}

func NewHospitalRepo(db *gorm.DB) *HospitalRepository {
	return &HospitalRepository{db: db}
}

// GetAllHospitals retrieves all active hospitals
func (r *HospitalRepository) GetAllHospitals(ctx context.Context) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&hospitals).Error
	return hospitals, err
}

// GetHospitalByID retrieves an active hospital by ID
func (r *HospitalRepository) GetHospitalByID(ctx context.Context, id uint) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&hospital).Error
	if err != nil {
		return nil, translate(err)
	}
	return &hospital, nil
}

// GetHospitalByCode retrieves a hospital by its unique code
func (r *HospitalRepository) GetHospitalByCode(ctx context.Context, code string) (*models.Hospital, error) {
	var hospital models.Hospital
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&hospital).Error
	if err != nil {
		return nil, translate(err)
	}
	return &hospital, nil
}

// GetHospitalsWithCoordinates retrieves active hospitals that have a position
func (r *HospitalRepository) GetHospitalsWithCoordinates(ctx context.Context) ([]models.Hospital, error) {
	var hospitals []models.Hospital
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Find(&hospitals).Error
	return hospitals, err
}

// CreateHospital creates a new hospital
func (r *HospitalRepository) CreateHospital(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Create(hospital).Error
}

// UpdateHospital updates an existing hospital
func (r *HospitalRepository) UpdateHospital(ctx context.Context, hospital *models.Hospital) error {
	return r.db.WithContext(ctx).Save(hospital).Error
}

// SoftDeleteHospital soft deletes a hospital by setting is_active to false
func (r *HospitalRepository) SoftDeleteHospital(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Hospital{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// CountActive returns the number of active hospitals
func (r *HospitalRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Hospital{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
