package routes

import (
	"tenancy-backend/internal/api/handlers"
	"tenancy-backend/internal/api/middleware"
	"tenancy-backend/internal/auth"
	"tenancy-backend/internal/config"
	"tenancy-backend/internal/email"
	"tenancy-backend/internal/events"
	"tenancy-backend/internal/metrics"
	"tenancy-backend/internal/repository"
	"tenancy-backend/internal/service"
	"tenancy-backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Dependencies are the long-lived components created by the process entrypoint
type Dependencies struct {
	DB      *gorm.DB
	Config  *config.Config
	Queue   service.EmailQueue
	Mailer  email.Client
	Metrics *metrics.Metrics
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	// Create router
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(deps.Metrics.Middleware())

	// Initialize validator
	validator := validator.New()

	// Initialize repositories
	tenantRepo := repository.NewTenantRepository(deps.DB)
	membershipRepo := repository.NewMembershipRepository(deps.DB)
	invitationRepo := repository.NewInvitationRepository(deps.DB)
	userRepo := repository.NewUserRepository(deps.DB)

	// Event bus and file storage
	bus := events.NewBus()
	store := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)

	// Initialize services
	tenantService := service.NewTenantService(tenantRepo, store, validator, deps.Metrics)
	membershipService := service.NewMembershipService(membershipRepo, bus, deps.Metrics)
	invitationService := service.NewInvitationService(
		invitationRepo, membershipRepo, tenantRepo,
		deps.Queue, deps.Mailer, validator, deps.Metrics,
		service.InvitationSettings{
			TemplateID:     cfg.LoopsInvitationTransactionalID,
			ResendCooldown: cfg.InvitationResendCooldown,
			SignUpURL:      cfg.FrontendBaseURL + "/sign-up",
		},
	)
	userService := service.NewUserService(userRepo, bus, deps.Queue, deps.Mailer, validator)

	reactor := service.NewLifecycleReactor(tenantService, membershipService, invitationService, userRepo)
	reactor.Register(bus)

	// Initialize auth
	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenValidator(cfg.JWTSecret, cfg.JWTIssuer))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": handlers.DatabaseCheck(deps.DB),
	})
	tenantHandler := handlers.NewTenantHandler(tenantService)
	tenantUserHandler := handlers.NewTenantUserHandler(membershipService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	userHandler := handlers.NewUserHandler(userService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	// Health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/health/live", healthHandler.Live)

	// Metrics
	router.GET("/metrics", deps.Metrics.Handler())

	// Swagger documentation route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Uploaded media
	router.Static(cfg.MediaBaseURL, cfg.MediaRoot)

	// Identity provider webhooks
	webhooks := router.Group("/webhooks")
	webhooks.Use(auth.RequireWebhookSecret(cfg.IdentityWebhookSecret))
	{
		webhooks.POST("/identity", webhookHandler.HandleIdentityEvent)
	}

	// API v1 routes - All endpoints require authentication
	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware.RequireAuth())
	{
		users := v1.Group("/users")
		{
			users.GET("/me", userHandler.GetMe)
			users.PUT("/me", userHandler.UpdateMe)
		}

		// Everything below acts inside the caller's tenant
		tenantScoped := v1.Group("")
		tenantScoped.Use(middleware.RequireMembership(membershipService))

		tenant := tenantScoped.Group("/tenant")
		{
			tenant.GET("/me", tenantHandler.GetTenant)
			tenant.PUT("/me", tenantHandler.UpdateTenant)
			tenant.GET("/logo", tenantHandler.GetLogo)
			tenant.POST("/logo", tenantHandler.UploadLogo)
			tenant.DELETE("/logo", tenantHandler.DeleteLogo)
		}

		tenantUsers := tenantScoped.Group("/tenant-users")
		{
			tenantUsers.GET("", tenantUserHandler.ListTenantUsers)
			tenantUsers.PUT("/:id", tenantUserHandler.UpdateTenantUserRole)
			tenantUsers.DELETE("/:id", tenantUserHandler.DeleteTenantUser)
		}

		invitations := tenantScoped.Group("/invitations")
		{
			invitations.GET("", invitationHandler.ListInvitations)
			invitations.POST("", invitationHandler.CreateInvitation)
			invitations.POST("/:id/resend", invitationHandler.ResendInvitation)
		}
	}

	return router
}
