package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"blood-donation-backend/internal/mailer"
	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"
)

var errInvalidOTP = utils.BadRequest("invalid or expired OTP code")

// MaxOTPAttempts is how many wrong guesses retire a code.
const MaxOTPAttempts = 5

type OTPService struct {
	store  OTPStore
	mail   mailer.Sender
	length int
	ttl    time.Duration
	now    func() time.Time
}

func NewOTPService(store OTPStore, mail mailer.Sender, length int, ttl time.Duration) *OTPService {
	return &OTPService{
		store:  store,
		mail:   mail,
		length: length,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a fresh code for (email, purpose), retiring older unused ones, and emails it.
func (s *OTPService) Issue(ctx context.Context, email, purpose string) error {
	code, err := utils.GenerateOTP(s.length)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	now := s.now()
	otp := &models.OTPCode{
		Email:     strings.ToLower(email),
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.store.Replace(ctx, otp); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	subject, intro := "Verify your email", "Use this code to finish creating your account"
	if purpose == models.OTPPurposeResetPassword {
		subject, intro = "Reset your password", "Use this code to reset your password"
	}
	body := renderOTPEmail(intro, code, int(s.ttl.Minutes()))
	if err := s.mail.Send(ctx, otp.Email, subject, body); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

// Verify consumes the code. It is valid strictly before its expiry instant.
// Only the newest code for (email, purpose) is checked, and every wrong guess
// counts against it until MaxOTPAttempts retires it.
func (s *OTPService) Verify(ctx context.Context, email, purpose, code string) error {
	otp, err := s.store.FindLatestActive(ctx, strings.ToLower(email), purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errInvalidOTP
		}
		return fmt.Errorf("find otp: %w", err)
	}

	now := s.now()
	if otp.Expired(now) {
		return errInvalidOTP
	}

	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(strings.TrimSpace(code))) != 1 {
		if _, err := s.store.RecordFailedAttempt(ctx, otp.ID, MaxOTPAttempts, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("record otp attempt: %w", err)
		}
		return errInvalidOTP
	}

	if err := s.store.MarkUsed(ctx, otp.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errInvalidOTP
		}
		return fmt.Errorf("mark otp used: %w", err)
	}
	return nil
}
