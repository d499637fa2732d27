package handler

import (
	"log/slog"

	"blood-donation-backend/internal/config"
	"blood-donation-backend/internal/metrics"
	"blood-donation-backend/internal/middleware"
	"blood-donation-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth         *AuthHandler
	Donor        *DonorHandler
	Event        *EventHandler
	Registration *RegistrationHandler
	Approval     *ApprovalHandler
	Hospital     *HospitalHandler
	Organization *OrganizationHandler
	Location     *LocationHandler
	Volunteer    *VolunteerHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	WS           *WSHandler
	Health       *HealthHandler
}

type RouterOptions struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Limiter is nil when Redis is not configured; limited routes then pass through.
	Limiter  middleware.RateLimiter
	// Accounts lets authenticated routes refuse disabled users.
	Accounts middleware.AccountChecker
}

// NewRouter builds the gin engine with the middleware stack and every /api route.
func NewRouter(h Handlers, opts RouterOptions) *gin.Engine {
	RegisterValidators()

	cfg := opts.Config
	r := gin.New()
	r.Use(
		middleware.RequestLogger(opts.Logger),
		middleware.Recovery(opts.Logger),
		middleware.Metrics(opts.Metrics),
		middleware.CORS(cfg),
		middleware.ErrorHandler(opts.Logger),
	)

	r.GET("/health", h.Health.Health)
	if cfg.Metrics.Enabled && opts.Metrics != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(opts.Metrics.Handler()))
	}
	if h.WS != nil {
		r.GET("/ws", h.WS.Connect)
	}

	limiter := opts.Limiter
	if !cfg.RateLimit.Enabled {
		limiter = nil
	}
	loginLimit := middleware.RateLimit(limiter, "login", middleware.PerMinute(cfg.RateLimit.LoginPerMinute), opts.Logger)
	otpLimit := middleware.RateLimit(limiter, "otp", middleware.PerMinute(cfg.RateLimit.OTPPerMinute), opts.Logger)
	verifyLimit := middleware.RateLimit(limiter, "otp-verify", middleware.PerMinute(cfg.RateLimit.VerifyPerMinute), opts.Logger)

	auth := middleware.AuthMiddleware(opts.Accounts)
	roles := middleware.RequireRoles

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register/otp", otpLimit, h.Auth.RequestRegistrationOTP)
		authGroup.POST("/register", verifyLimit, h.Auth.Register)
		authGroup.POST("/login", loginLimit, h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.POST("/forgot-password", otpLimit, h.Auth.ForgotPassword)
		authGroup.POST("/reset-password", verifyLimit, h.Auth.ResetPassword)
		authGroup.GET("/me", auth, h.Auth.Me)
		authGroup.PUT("/change-password", auth, h.Auth.ChangePassword)
	}

	donors := api.Group("/donors", auth)
	{
		donors.GET("/me", roles(models.RoleDonor), h.Donor.GetMe)
		donors.PUT("/me", roles(models.RoleDonor), h.Donor.UpdateMe)
		donors.GET("/me/donations", roles(models.RoleDonor), h.Donor.MyDonations)
		donors.GET("", roles(models.RoleAdmin, models.RoleHospital), h.Donor.List)
		donors.GET("/:id", roles(models.RoleAdmin, models.RoleHospital), h.Donor.Get)
	}

	events := api.Group("/events")
	{
		events.GET("", h.Event.List)
		events.GET("/mine", auth, roles(models.RoleOrganization, models.RoleHospital), h.Event.Mine)
		events.GET("/:id", middleware.OptionalAuth(), h.Event.Get)
		events.POST("", auth, roles(models.RoleOrganization), h.Event.Create)
		events.PUT("/:id", auth, roles(models.RoleOrganization), h.Event.Update)
		events.DELETE("/:id", auth, roles(models.RoleOrganization, models.RoleAdmin), h.Event.Delete)
		events.GET("/:id/registrations", auth, roles(models.RoleOrganization, models.RoleHospital, models.RoleAdmin), h.Event.Registrations)
	}

	registrations := api.Group("/registrations", auth, roles(models.RoleDonor))
	{
		registrations.POST("", h.Registration.Register)
		registrations.GET("/mine", h.Registration.Mine)
		registrations.DELETE("/:id", h.Registration.Cancel)
	}

	approvals := api.Group("/approvals", auth)
	{
		approvals.GET("/events", roles(models.RoleHospital, models.RoleAdmin), h.Approval.ListEvents)
		approvals.PUT("/events/:id", roles(models.RoleHospital, models.RoleAdmin), h.Approval.ReviewEvent)
		approvals.GET("/registrations", roles(models.RoleOrganization, models.RoleHospital, models.RoleAdmin), h.Approval.ListRegistrations)
		approvals.PUT("/registrations/:id", roles(models.RoleOrganization, models.RoleHospital, models.RoleAdmin), h.Approval.ReviewRegistration)
	}

	hospitals := api.Group("/hospitals")
	{
		hospitals.GET("", h.Hospital.GetAllHospitals)
		hospitals.GET("/me", auth, roles(models.RoleHospital), h.Hospital.GetMyHospital)
		hospitals.PUT("/me", auth, roles(models.RoleHospital), h.Hospital.UpdateMyHospital)
		hospitals.POST("/results", auth, roles(models.RoleHospital), h.Hospital.RecordResults)
		hospitals.GET("/results", auth, roles(models.RoleHospital), h.Hospital.ListResults)
		hospitals.PUT("/donors/:id/blood-type", auth, roles(models.RoleHospital, models.RoleAdmin), h.Hospital.ConfirmBloodType)
		hospitals.GET("/:id", h.Hospital.GetHospital)
	}

	orgs := api.Group("/organizations")
	{
		orgs.GET("", h.Organization.List)
		orgs.GET("/me", auth, roles(models.RoleOrganization), h.Organization.GetMine)
		orgs.PUT("/me", auth, roles(models.RoleOrganization), h.Organization.UpdateMine)
		orgs.GET("/:id", h.Organization.Get)
	}

	api.GET("/locations/nearby", h.Location.Nearby)

	volunteers := api.Group("/volunteers", auth)
	{
		volunteers.GET("/groups", h.Volunteer.ListGroups)
		volunteers.GET("/groups/:id", h.Volunteer.GetGroup)
		volunteers.GET("/groups/:id/members", h.Volunteer.ListMembers)
		volunteers.POST("/groups", roles(models.RoleOrganization, models.RoleAdmin), h.Volunteer.CreateGroup)
		volunteers.PUT("/groups/:id", roles(models.RoleOrganization, models.RoleAdmin), h.Volunteer.UpdateGroup)
		volunteers.DELETE("/groups/:id", roles(models.RoleOrganization, models.RoleAdmin), h.Volunteer.DeleteGroup)
		volunteers.POST("/groups/:id/join", roles(models.RoleVolunteer), h.Volunteer.Join)
		volunteers.DELETE("/groups/:id/leave", roles(models.RoleVolunteer), h.Volunteer.Leave)
		volunteers.GET("/me/groups", roles(models.RoleVolunteer), h.Volunteer.MyGroups)
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.PUT("/read-all", h.Notification.MarkAllRead)
		notifications.PUT("/:id/read", h.Notification.MarkRead)
		notifications.DELETE("/:id", h.Notification.Delete)
	}

	admin := api.Group("/admin", auth, middleware.RequireAdmin())
	{
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/users", h.Admin.ListUsers)
		admin.POST("/users", h.Admin.CreateUser)
		admin.PUT("/users/:id/status", h.Admin.SetUserStatus)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.POST("/organizations", h.Organization.Create)
		admin.PUT("/organizations/:id", h.Organization.Update)
		admin.DELETE("/organizations/:id", h.Organization.Delete)
		admin.POST("/hospitals", h.Hospital.CreateHospital)
		admin.PUT("/hospitals/:id", h.Hospital.UpdateHospital)
		admin.DELETE("/hospitals/:id", h.Hospital.DeleteHospital)
		admin.GET("/audit-logs", h.Admin.ListAuditLogs)
		admin.POST("/notifications/broadcast", h.Admin.Broadcast)
	}

	return r
}
