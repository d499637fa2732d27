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

type AuthService struct {
	userRepo  UserStore
	donorRepo DonorStore
	otp       *OTPService
	auditRepo AuditStore
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(userRepo UserStore, donorRepo DonorStore, otp *OTPService, auditRepo AuditStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:  userRepo,
		donorRepo: donorRepo,
		otp:       otp,
		auditRepo: auditRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// LoginResponse represents the response structure for login
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	OrganizationID *uint  `json:"organization_id,omitempty"`
	HospitalID     *uint  `json:"hospital_id,omitempty"`
}

// MeResponse is the caller's account plus the donor profile when there is one
type MeResponse struct {
	User  *models.User  `json:"user"`
	Donor *models.Donor `json:"donor,omitempty"`
}

type RegisterInput struct {
	Email       string   `json:"email" binding:"required,email"`
	Password    string   `json:"password" binding:"required,min=8"`
	FullName    string   `json:"full_name" binding:"required,max=150"`
	Phone       string   `json:"phone" binding:"omitempty,max=20"`
	OTP         string   `json:"otp" binding:"required"`
	Role        string   `json:"role" binding:"omitempty,oneof=donor volunteer"`
	DateOfBirth string   `json:"date_of_birth"`
	Gender      string   `json:"gender" binding:"omitempty,oneof=male female other"`
	BloodType   string   `json:"blood_type" binding:"omitempty,bloodtype"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		HospitalID:     u.HospitalID,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequestRegistrationOTP emails a verification code to an unregistered address
func (s *AuthService) RequestRegistrationOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return utils.Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find user: %w", err)
	}
	return s.otp.Issue(ctx, email, models.OTPPurposeVerifyEmail)
}

// Register creates a donor or volunteer account once the email code is verified
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*LoginResponse, error) {
	email := normalizeEmail(in.Email)
	phone := strings.TrimSpace(in.Phone)

	// Check if email or phone already exists
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

	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Verify(ctx, email, models.OTPPurposeVerifyEmail, in.OTP); err != nil {
		return nil, err
	}

	passwordHash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := in.Role
	if role == "" {
		role = models.RoleDonor
	}
	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		IsActive:     true,
	}
	if phone != "" {
		user.Phone = &phone
	}

	if role == models.RoleDonor {
		donor := &models.Donor{
			DateOfBirth: dob,
			Gender:      in.Gender,
			Address:     in.Address,
			Latitude:    in.Latitude,
			Longitude:   in.Longitude,
		}
		if donor.Gender == "" {
			donor.Gender = "other"
		}
		if in.BloodType != "" {
			bt := in.BloodType
			donor.BloodType = &bt
		}
		err = s.userRepo.CreateWithDonor(ctx, user, donor)
	} else {
		err = s.userRepo.Create(ctx, user)
	}
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, utils.Conflict("email or phone number already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &user.ID, "user_registration", fmt.Sprintf("User %s registered as %s", email, role))
	return resp, nil
}

// Login authenticates by email or phone and returns tokens
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.FindByEmail(ctx, normalizeEmail(identifier))
	} else {
		user, err = s.userRepo.FindByPhone(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !utils.ComparePassword(user.PasswordHash, password) {
		return nil, utils.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, utils.Forbidden("account is disabled")
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &user.ID, "user_login", fmt.Sprintf("User %s logged in", user.Email))
	return resp, nil
}

// RefreshAccessToken generates a new access token from a refresh token
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	tokenHash := utils.HashRefreshToken(refreshToken)

	token, err := s.userRepo.FindRefreshTokenByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", utils.Unauthorized("invalid or revoked refresh token")
		}
		return "", fmt.Errorf("find refresh token: %w", err)
	}

	if !s.now().Before(token.ExpiresAt) {
		return "", utils.Unauthorized("refresh token expired")
	}
	if !token.User.IsActive {
		return "", utils.Forbidden("account is disabled")
	}

	accessToken, err := utils.GenerateAccessToken(token.User.ID, token.User.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := utils.HashRefreshToken(refreshToken)
	if err := s.userRepo.RevokeRefreshTokenByHash(ctx, tokenHash); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// ForgotPassword sends a reset code when the account exists. It never reveals whether it does.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.ErrorContext(ctx, "forgot password lookup", "error", err)
		}
		return
	}
	if !user.IsActive {
		return
	}
	if err := s.otp.Issue(ctx, email, models.OTPPurposeResetPassword); err != nil {
		s.logger.ErrorContext(ctx, "issue reset code", "user_id", user.ID, "error", err)
	}
}

// ResetPassword sets a new password with a reset code and signs out every session
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errInvalidOTP
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.otp.Verify(ctx, email, models.OTPPurposeResetPassword, code); err != nil {
		return err
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &user.ID, "password_reset", fmt.Sprintf("User %s reset the password", email))
	return nil
}

// ChangePassword replaces the password of a signed-in user
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return notFoundAs(err, "user not found")
	}
	if !utils.ComparePassword(user.PasswordHash, currentPassword) {
		return utils.BadRequest("current password is incorrect")
	}
	if currentPassword == newPassword {
		return utils.BadRequest("new password must differ from the current one")
	}

	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}

	_ = s.auditRepo.CreateAuditLog(ctx, &user.ID, "password_change", fmt.Sprintf("User %s changed the password", user.Email))
	return nil
}

// Me returns the caller's account
func (s *AuthService) Me(ctx context.Context, userID uint) (*MeResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "user not found")
	}

	resp := &MeResponse{User: user}
	if user.Role == models.RoleDonor {
		donor, err := s.donorRepo.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load donor profile: %w", err)
		}
		if donor != nil {
			donor.User = nil
			resp.Donor = donor
		}
	}
	return resp, nil
}

func (s *AuthService) setPassword(ctx context.Context, userID uint, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.userRepo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken := utils.GenerateRefreshToken()
	refreshTokenModel := &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashRefreshToken(refreshToken),
		ExpiresAt: s.now().Add(utils.GetRefreshTokenExpiry()),
	}
	if err := s.userRepo.CreateRefreshToken(ctx, refreshTokenModel); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         toUserResponse(user),
	}, nil
}
