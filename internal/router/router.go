// internal/router/router.go
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/G-alileo/e-visa-application-system/internal/cache"
	"github.com/G-alileo/e-visa-application-system/internal/config"
	"github.com/G-alileo/e-visa-application-system/internal/domain"
	"github.com/G-alileo/e-visa-application-system/internal/events"
	"github.com/G-alileo/e-visa-application-system/internal/handlers"
	"github.com/G-alileo/e-visa-application-system/internal/metrics"
	"github.com/G-alileo/e-visa-application-system/internal/middleware"
	"github.com/G-alileo/e-visa-application-system/internal/repository"
	"github.com/G-alileo/e-visa-application-system/internal/rules"
	"github.com/G-alileo/e-visa-application-system/internal/services"
)

// Dependencies are the infrastructure pieces the HTTP layer is built on.
// Optional fields fall back to in-process implementations.
type Dependencies struct {
	Config       *config.Config
	Store        repository.Store
	Rules        *rules.Engine
	Files        services.FileStore
	Cache        cache.VisaTypeCache
	Publisher    events.Publisher
	Gateway      services.PaymentGateway
	Metrics      *metrics.Metrics
	Limiters     *middleware.Limiters
	HealthChecks map[string]handlers.Pinger
}

func Initialize(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if deps.Limiters == nil {
		deps.Limiters = middleware.DefaultLimiters()
	}

	// Initialize services
	notificationService := services.NewNotificationService(deps.Publisher)
	auditService := services.NewAuditService(deps.Store)
	transitionService := services.NewTransitionService(deps.Store, auditService, notificationService, deps.Metrics)
	screeningService := services.NewScreeningService(deps.Store, deps.Rules, transitionService, deps.Metrics)
	paymentService, err := services.NewPaymentService(deps.Store, transitionService, auditService, deps.Gateway, notificationService, deps.Metrics, cfg)
	if err != nil {
		return nil, err
	}
	documentService := services.NewDocumentService(deps.Store, deps.Files, deps.Rules)
	reviewService := services.NewReviewService(deps.Store, transitionService)
	applicationService := services.NewApplicationService(deps.Store, transitionService, paymentService, screeningService)
	recommendationService := services.NewRecommendationService(deps.Store, screeningService, documentService)
	visaTypeService := services.NewVisaTypeService(deps.Store, deps.Cache)

	// Initialize handlers
	applicationHandler := handlers.NewApplicationHandler(applicationService, screeningService, recommendationService)
	documentHandler := handlers.NewDocumentHandler(documentService, cfg.Storage.MaxUploadSize)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	auditHandler := handlers.NewAuditHandler(auditService)
	visaTypeHandler := handlers.NewVisaTypeHandler(visaTypeService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", healthHandler.Health)

	// Gateway callbacks are authenticated by signature, not by token. The
	// local gateway accepts unsigned callbacks, so it only listens in development.
	if signedWebhooks(deps.Gateway) || cfg.Environment == "development" {
		r.POST("/webhooks/stripe", deps.Limiters.Webhook.Middleware(), paymentHandler.StripeWebhook)
	}

	v1 := r.Group("/v1")
	v1.Use(deps.Limiters.General.Middleware())
	{
		visaTypes := v1.Group("/visa-types")
		{
			visaTypes.GET("", visaTypeHandler.ListActive)
			visaTypes.GET("/:code", visaTypeHandler.GetByCode)
		}

		// Applicant and shared read routes
		applications := v1.Group("/applications")
		applications.Use(middleware.AuthRequired())
		{
			applications.POST("", middleware.RoleRequired(domain.RoleApplicant), applicationHandler.CreateApplication)
			applications.GET("", applicationHandler.ListMyApplications)
			applications.GET("/:id", applicationHandler.GetApplication)
			applications.PUT("/:id", applicationHandler.UpdateApplication)
			applications.DELETE("/:id", applicationHandler.DeleteApplication)
			applications.POST("/:id/submit", applicationHandler.SubmitApplication)
			applications.POST("/:id/resubmit", applicationHandler.ResubmitApplication)
			applications.POST("/:id/reapply", applicationHandler.ReApply)
			applications.GET("/:id/recommendations", applicationHandler.GetRecommendations)
			applications.GET("/:id/screening", applicationHandler.GetScreeningResult)
			applications.GET("/:id/audit", auditHandler.GetTrail)

			applications.POST("/:id/documents", deps.Limiters.Upload.Middleware(), documentHandler.UploadDocument)
			applications.GET("/:id/documents", documentHandler.ListDocuments)
			applications.GET("/:id/documents/summary", documentHandler.GetDocumentSummary)

			applications.GET("/:id/payment", paymentHandler.GetPayment)
			applications.POST("/:id/payment/checkout", paymentHandler.Checkout)
			applications.POST("/:id/payment/confirm", paymentHandler.ConfirmPayment)
		}

		documents := v1.Group("/documents")
		documents.Use(middleware.AuthRequired())
		{
			documents.GET("/:id/download", documentHandler.DownloadDocument)
		}

		// Review routes
		officer := v1.Group("/officer")
		officer.Use(middleware.AuthRequired(), middleware.RoleRequired(domain.RoleOfficer, domain.RoleSupervisor))
		{
			officer.GET("/queue", applicationHandler.OfficerQueue)
			officer.GET("/pending-info", applicationHandler.PendingInfoQueue)
			officer.GET("/decisions", reviewHandler.DecisionHistory)
			officer.POST("/applications/:id/screening", applicationHandler.RerunScreening)
			officer.POST("/applications/:id/approve", reviewHandler.Approve)
			officer.POST("/applications/:id/reject", reviewHandler.Reject)
			officer.POST("/applications/:id/request-info", reviewHandler.RequestInfo)
			officer.PUT("/documents/:id/verify", documentHandler.VerifyDocument)
		}

		supervisor := v1.Group("/supervisor")
		supervisor.Use(middleware.AuthRequired(), middleware.RoleRequired(domain.RoleSupervisor, domain.RoleAdmin))
		{
			supervisor.GET("/audit", auditHandler.GetRecent)
			supervisor.GET("/decisions", reviewHandler.DecisionHistory)
			supervisor.POST("/applications/:id/screening", applicationHandler.RerunScreening)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.RoleRequired(domain.RoleAdmin))
		{
			admin.GET("/visa-types", visaTypeHandler.ListAll)
			admin.POST("/visa-types", visaTypeHandler.Create)
			admin.PUT("/visa-types/:id", visaTypeHandler.Update)
		}
	}

	return r, nil
}

func signedWebhooks(gateway services.PaymentGateway) bool {
	switch gateway.(type) {
	case nil, services.LocalGateway, *services.LocalGateway:
		return false
	}
	return true
}
