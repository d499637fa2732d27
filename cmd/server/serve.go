package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blood-donation-backend/internal/database"
	"blood-donation-backend/internal/handler"
	"blood-donation-backend/internal/mailer"
	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/internal/middleware"
	"blood-donation-backend/internal/realtime"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/internal/service"
	"blood-donation-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Run migrations before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	utils.InitJWT(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)

	db, err := database.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cCtx.Bool("migrate") {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	var limiter middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, rate limiting fails open", "addr", cfg.Redis.Addr, "error", err)
		}
		limiter = middleware.NewRedisRateLimiter(rdb)
	}

	mail, err := mailer.New(cfg, log)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}
	defer mail.Close()

	m := metrics.New()
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, log, m)

	// Repositories
	userRepo := repository.NewUserRepo(db)
	donorRepo := repository.NewDonorRepo(db)
	orgRepo := repository.NewOrganizationRepo(db)
	hospitalRepo := repository.NewHospitalRepo(db)
	eventRepo := repository.NewEventRepo(db)
	regRepo := repository.NewRegistrationRepo(db)
	resultRepo := repository.NewDonationResultRepo(db)
	notificationRepo := repository.NewNotificationRepo(db)
	otpRepo := repository.NewOTPRepo(db)
	volunteerRepo := repository.NewVolunteerRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// Services
	notifier := service.NewNotifier(notificationRepo, hub, mail, log, m)
	otpService := service.NewOTPService(otpRepo, mail, cfg.OTP.Length, cfg.OTP.TTL)
	authService := service.NewAuthService(userRepo, donorRepo, otpService, auditRepo, log)
	donorService := service.NewDonorService(donorRepo, userRepo, resultRepo, auditRepo)
	eventService := service.NewEventService(eventRepo, hospitalRepo, regRepo, userRepo, notifier, auditRepo)
	regService := service.NewRegistrationService(regRepo, eventRepo, donorRepo, userRepo, notifier, auditRepo, m, cfg.Donation.IntervalDays)
	approvalService := service.NewApprovalService(eventRepo, regRepo, userRepo, notifier, auditRepo, m)
	hospitalService := service.NewHospitalService(hospitalRepo, userRepo, donorRepo, eventRepo, regRepo, resultRepo, notifier, auditRepo, m)
	orgService := service.NewOrganizationService(orgRepo, userRepo, auditRepo)
	locationService := service.NewLocationService(eventRepo, hospitalRepo)
	volunteerService := service.NewVolunteerService(volunteerRepo, userRepo, orgRepo, notifier, auditRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	adminService := service.NewAdminService(userRepo, donorRepo, orgRepo, hospitalRepo, eventRepo, regRepo, resultRepo, notifier, auditRepo, log)
	workerService := service.NewWorkerService(otpRepo, userRepo, cfg.Worker.Interval, log)

	gin.SetMode(cfg.Server.GinMode)
	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authService, cfg.Server.CookieSecure),
		Donor:        handler.NewDonorHandler(donorService),
		Event:        handler.NewEventHandler(eventService),
		Registration: handler.NewRegistrationHandler(regService),
		Approval:     handler.NewApprovalHandler(approvalService),
		Hospital:     handler.NewHospitalHandler(hospitalService),
		Organization: handler.NewOrganizationHandler(orgService),
		Location:     handler.NewLocationHandler(locationService),
		Volunteer:    handler.NewVolunteerHandler(volunteerService),
		Notification: handler.NewNotificationHandler(notificationService),
		Admin:        handler.NewAdminHandler(adminService),
		WS:           handler.NewWSHandler(hub, userRepo, log),
		Health:       handler.NewHealthHandler(db),
	}, handler.RouterOptions{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Limiter:  limiter,
		Accounts: userRepo,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", "port", cfg.Server.Port, "mode", cfg.Server.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		workerService.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// sockets are hijacked connections and are not closed by Shutdown
		hub.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	notifier.Wait()
	log.Info("server exited")
	return err
}
