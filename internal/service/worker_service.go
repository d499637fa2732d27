package service

import (
	"context"
	"log/slog"
	"time"
)

// WorkerService purges expired OTP codes and dead refresh tokens on a fixed interval.
type WorkerService struct {
	otpRepo  OTPStore
	userRepo UserStore
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewWorkerService(otpRepo OTPStore, userRepo UserStore, interval time.Duration, logger *slog.Logger) *WorkerService {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &WorkerService{
		otpRepo:  otpRepo,
		userRepo: userRepo,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the cleanup loop until ctx is cancelled
func (w *WorkerService) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("maintenance worker started", "interval", w.interval.String())
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("maintenance worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one cleanup pass. Failures are logged and retried on the next tick.
func (w *WorkerService) RunOnce(ctx context.Context) {
	now := w.now()

	otps, err := w.otpRepo.DeleteExpired(ctx, now)
	if err != nil {
		w.logger.ErrorContext(ctx, "purge otp codes", "error", err)
	}

	tokens, err := w.userRepo.DeleteStaleRefreshTokens(ctx, now)
	if err != nil {
		w.logger.ErrorContext(ctx, "purge refresh tokens", "error", err)
	}

	if otps > 0 || tokens > 0 {
		w.logger.InfoContext(ctx, "maintenance pass", "otp_codes_deleted", otps, "refresh_tokens_deleted", tokens)
	}
}
