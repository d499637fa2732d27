package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

type DonorService struct {
	donorRepo  DonorStore
	userRepo   UserStore
	resultRepo DonationResultStore
	auditRepo  AuditStore
}

func NewDonorService(donorRepo DonorStore, userRepo UserStore, resultRepo DonationResultStore, auditRepo AuditStore) *DonorService {
	return &DonorService{
		donorRepo:  donorRepo,
		userRepo:   userRepo,
		resultRepo: resultRepo,
		auditRepo:  auditRepo,
	}
}

// UpdateDonorInput holds optional profile changes; nil fields are left untouched.
type UpdateDonorInput struct {
	FullName    *string  `json:"full_name" binding:"omitempty,min=1,max=150"`
	Phone       *string  `json:"phone" binding:"omitempty,max=20"`
	DateOfBirth *string  `json:"date_of_birth"`
	Gender      *string  `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodType   *string  `json:"blood_type" binding:"omitempty,bloodtype"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
}

func (s *DonorService) GetMyProfile(ctx context.Context, userID uint) (*models.Donor, error) {
	donor, err := s.donorRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "donor profile not found")
	}
	return donor, nil
}

func (s *DonorService) UpdateMyProfile(ctx context.Context, userID uint, in UpdateDonorInput) (*models.Donor, error) {
	donor, err := s.donorRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "donor profile not found")
	}
	user := donor.User
	if user == nil {
		if user, err = s.userRepo.FindByID(ctx, userID); err != nil {
			return nil, notFoundAs(err, "user not found")
		}
	}

	userChanged := false
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
		userChanged = true
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		switch {
		case phone == "":
			user.Phone = nil
		case user.Phone == nil || *user.Phone != phone:
			if other, err := s.userRepo.FindByPhone(ctx, phone); err == nil && other.ID != user.ID {
				return nil, utils.Conflict("phone number already registered")
			} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("find user: %w", err)
			}
			user.Phone = &phone
		}
		userChanged = true
	}

	if in.DateOfBirth != nil {
		dob, err := parseDate(*in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		donor.DateOfBirth = dob
	}
	if in.Gender != nil {
		donor.Gender = *in.Gender
	}
	if in.BloodType != nil && (donor.BloodType == nil || *donor.BloodType != *in.BloodType) {
		if donor.BloodTypeConfirmed {
			return nil, utils.BadRequest("blood type was confirmed by a hospital and cannot be changed")
		}
		bt := *in.BloodType
		donor.BloodType = &bt
	}
	if in.Address != nil {
		donor.Address = *in.Address
	}
	if in.Latitude != nil {
		donor.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		donor.Longitude = in.Longitude
	}

	if userChanged {
		if err := s.userRepo.Update(ctx, user); err != nil {
			if repository.IsDuplicate(err) {
				return nil, utils.Conflict("phone number already registered")
			}
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	if err := s.donorRepo.Update(ctx, donor); err != nil {
		return nil, fmt.Errorf("update donor: %w", err)
	}
	donor.User = user

	_ = s.auditRepo.CreateAuditLog(ctx, &userID, "donor_profile_update", fmt.Sprintf("Donor %d updated the profile", donor.ID))
	return donor, nil
}

// MyDonations lists the caller's donation history
func (s *DonorService) MyDonations(ctx context.Context, userID uint, page utils.PageParams) ([]models.DonationResult, int64, error) {
	donor, err := s.donorRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, 0, notFoundAs(err, "donor profile not found")
	}
	return s.resultRepo.List(ctx, repository.DonationResultFilter{DonorID: &donor.ID}, page)
}

func (s *DonorService) ListDonors(ctx context.Context, filter repository.DonorFilter, page utils.PageParams) ([]models.Donor, int64, error) {
	if filter.BloodType != "" && !models.ValidBloodType(filter.BloodType) {
		return nil, 0, utils.BadRequest("blood_type must be one of A, B, AB, O")
	}
	return s.donorRepo.List(ctx, filter, page)
}

func (s *DonorService) GetDonor(ctx context.Context, id uint) (*models.Donor, error) {
	donor, err := s.donorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "donor not found")
	}
	return donor, nil
}
