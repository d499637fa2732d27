package repository

import (
	"context"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

type DonationResultRepository struct {
	db *gorm.DB
}

func NewDonationResultRepo(db *gorm.DB) *DonationResultRepository {
	return &DonationResultRepository{db: db}
}

type DonationResultFilter struct {
	DonorID    *uint
	EventID    *uint
	HospitalID *uint
	Status     string
}

type DonationTotals struct {
	Successful  int64 `json:"successful"`
	Failed      int64 `json:"failed"`
	TotalVolume int64 `json:"total_volume_ml"`
}

// ExistingRegistrationIDs returns which of the given registrations already have a result
func (r *DonationResultRepository) ExistingRegistrationIDs(ctx context.Context, registrationIDs []uint) ([]uint, error) {
	var ids []uint
	if len(registrationIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).Model(&models.DonationResult{}).
		Where("registration_id IN ?", registrationIDs).
		Pluck("registration_id", &ids).Error
	return ids, err
}

// CreateBatch inserts every result and updates donor history in a single transaction.
// Successful donations move last_donation_at to donatedAt, bump total_donations and
// record an unconfirmed blood type when the donor has none.
func (r *DonationResultRepository) CreateBatch(ctx context.Context, results []models.DonationResult) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range results {
			res := &results[i]
			if err := tx.Omit("Registration", "Donor", "Event", "Hospital").Create(res).Error; err != nil {
				return err
			}
			if res.Status != models.DonationSucceeded {
				continue
			}

			update := tx.Model(&models.Donor{}).
				Where("id = ?", res.DonorID).
				Updates(map[string]interface{}{
					"last_donation_at": res.DonatedAt,
					"total_donations":  gorm.Expr("total_donations + 1"),
				})
			if update.Error != nil {
				return update.Error
			}
			if update.RowsAffected == 0 {
				return ErrNotFound
			}

			if res.BloodType != nil {
				err := tx.Model(&models.Donor{}).
					Where("id = ? AND blood_type IS NULL", res.DonorID).
					Update("blood_type", *res.BloodType).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// List returns a page of results, newest donation first
func (r *DonationResultRepository) List(ctx context.Context, filter DonationResultFilter, page utils.PageParams) ([]models.DonationResult, int64, error) {
	q := r.filtered(ctx, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []models.DonationResult
	err := q.Preload("Event").
		Preload("Hospital").
		Preload("Donor.User").
		Order("donated_at DESC").
		Limit(page.Limit()).
		Offset(page.Offset()).
		Find(&results).Error
	return results, total, err
}

// Totals aggregates outcomes and collected volume, optionally since a time
func (r *DonationResultRepository) Totals(ctx context.Context, filter DonationResultFilter, since *time.Time) (DonationTotals, error) {
	var totals DonationTotals
	q := r.filtered(ctx, filter)
	if since != nil {
		q = q.Where("donated_at >= ?", *since)
	}
	err := q.Select(
		"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS successful, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN volume_ml ELSE 0 END), 0) AS total_volume",
		models.DonationSucceeded, models.DonationFailed, models.DonationSucceeded,
	).Scan(&totals).Error
	return totals, err
}

func (r *DonationResultRepository) filtered(ctx context.Context, filter DonationResultFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.DonationResult{})
	if filter.DonorID != nil {
		q = q.Where("donor_id = ?", *filter.DonorID)
	}
	if filter.EventID != nil {
		q = q.Where("event_id = ?", *filter.EventID)
	}
	if filter.HospitalID != nil {
		q = q.Where("hospital_id = ?", *filter.HospitalID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}
