package repository

import (
	"context"
	"time"

	"blood-donation-backend/internal/models"

	"gorm.io/gorm"
)

type OTPRepository struct {
	db *gorm.DB
}

func NewOTPRepo(db *gorm.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

// Replace invalidates unused codes for (email, purpose) and stores the new one
func (r *OTPRepository) Replace(ctx context.Context, otp *models.OTPCode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.OTPCode{}).
			Where("email = ? AND purpose = ? AND used_at IS NULL", otp.Email, otp.Purpose).
			Update("used_at", otp.CreatedAt).Error
		if err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

// FindLatestActive returns the newest unused code for (email, purpose)
func (r *OTPRepository) FindLatestActive(ctx context.Context, email, purpose string) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND used_at IS NULL", email, purpose).
		Order("id DESC").
		First(&otp).Error
	if err != nil {
		return nil, translate(err)
	}
	return &otp, nil
}

// RecordFailedAttempt counts a wrong guess against the code and retires it once
// maxAttempts is reached. It returns the attempt count after the increment.
func (r *OTPRepository) RecordFailedAttempt(ctx context.Context, id uint, maxAttempts int, at time.Time) (int, error) {
	var attempts int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OTPCode{}).
			Where("id = ? AND used_at IS NULL", id).
			Update("attempts", gorm.Expr("attempts + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var otp models.OTPCode
		if err := tx.Select("id", "attempts").First(&otp, id).Error; err != nil {
			return translate(err)
		}
		attempts = otp.Attempts
		if attempts < maxAttempts {
			return nil
		}
		return tx.Model(&models.OTPCode{}).Where("id = ?", id).Update("used_at", at).Error
	})
	return attempts, err
}

// MarkUsed consumes a code; a code already consumed reports ErrNotFound
func (r *OTPRepository) MarkUsed(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired purges codes that expired or were used before the cutoff
func (r *OTPRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at < ?", before, before).
		Delete(&models.OTPCode{})
	return result.RowsAffected, result.Error
}
