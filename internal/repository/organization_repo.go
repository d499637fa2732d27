package repository

import (
	"context"

	"blood-donation-backend/internal/models"

	"gorm.io/gorm"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepo(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// GetAllOrganizations retrieves all active organizations
func (r *OrganizationRepository) GetAllOrganizations(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("name ASC").Find(&orgs).Error
	return orgs, err
}

// GetOrganizationByID retrieves an active organization by ID
func (r *OrganizationRepository) GetOrganizationByID(ctx context.Context, id uint) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&org).Error
	if err != nil {
		return nil, translate(err)
	}
	return &org, nil
}

func (r *OrganizationRepository) CreateOrganization(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *OrganizationRepository) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

// SoftDeleteOrganization hides an organization without dropping its history
func (r *OrganizationRepository) SoftDeleteOrganization(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

func (r *OrganizationRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Organization{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
