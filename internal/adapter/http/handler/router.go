package handler

import (
	"crypto-checkout/internal/adapter/http/middleware"
	redisStore "crypto-checkout/internal/adapter/storage/redis"
	"crypto-checkout/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	PaymentSvc     ports.PaymentService
	ReportingSvc   ports.ReportingService
	CampaignSvc    ports.CampaignService
	Scheduler      ports.CampaignScheduler
	Dispatcher     ports.CampaignDispatcher
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Customer payment flow (no auth; the reference is the capability) ---
	paymentHandler := NewPaymentHandler(deps.PaymentSvc)
	payments := v1.Group("/payments")
	{
		payments.POST("", rl("payments"), paymentHandler.CreatePayment)
		payments.GET("/:reference", rl("payments"), paymentHandler.GetPayment)
		payments.POST("/:reference/hash", rl("payments"), paymentHandler.SubmitHash)
		payments.POST("/:reference/verify", rl("payments_verify"), paymentHandler.Verify)
		payments.POST("/:reference/refund", rl("payments"), paymentHandler.RequestRefund)
	}

	// --- JWT-authenticated routes (operator back office) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)
	campaignHandler := NewCampaignHandler(deps.CampaignSvc, deps.Scheduler, deps.Dispatcher)

	operator := v1.Group("", jwtAuth)
	{
		operator.POST("/payments/:reference/refund/approve", rl("dashboard"), paymentHandler.ApproveRefund)
		operator.GET("/payments", rl("dashboard"), dashboardHandler.ListPayments)
		operator.GET("/payments/:reference/events", rl("dashboard"), dashboardHandler.ListPaymentEvents)
		operator.GET("/dashboard/stats", rl("dashboard"), dashboardHandler.GetStats)

		campaigns := operator.Group("/campaigns")
		{
			campaigns.POST("", rl("campaigns"), campaignHandler.Create)
			campaigns.GET("", rl("campaigns"), campaignHandler.List)
			campaigns.POST("/tick", rl("campaigns"), campaignHandler.Tick)
			campaigns.POST("/daily/:templateId/ensure", rl("campaigns"), campaignHandler.EnsureDaily)
			campaigns.POST("/:id/dispatch", rl("campaigns"), campaignHandler.Dispatch)
		}
	}

	return r
}
