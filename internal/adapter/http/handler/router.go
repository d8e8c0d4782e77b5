package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"systempay-gateway/internal/adapter/http/middleware"
	redisStore "systempay-gateway/internal/adapter/storage/redis"
	"systempay-gateway/internal/core/ports"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Engine         ports.ReconciliationEngine
	AuthSvc        ports.AuthService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware. Gateway forms and dashboard requests are small,
	// so the body cap stays tight.
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Tracing())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 << 10))

	// Health check (deep, pings the ledger and Redis when configured)
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
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// The gateway authenticates itself through the form signature, so the
	// notification endpoints carry no transport-level auth.
	paymentHandler := NewPaymentHandler(deps.Engine)
	payments := v1.Group("/payments")
	{
		payments.POST("/submit", rl("submit"), paymentHandler.Submit)
		payments.POST("/ipn", rl("ipn"), paymentHandler.Notify)
		payments.POST("/return", rl("ipn"), paymentHandler.Return)
	}

	// --- JWT-authenticated routes (operator dashboard) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	dashboardHandler := NewDashboardHandler(deps.ReportingSvc)

	// Operator-only replay of a lost notification; idempotency makes it safe.
	payments.GET("/ipn", jwtAuth, rl("dashboard"), paymentHandler.Replay)

	dashboard := v1.Group("/dashboard", jwtAuth)
	{
		dashboard.GET("/transactions", rl("dashboard"), dashboardHandler.ListTransactions)
		dashboard.GET("/transactions/:id", rl("dashboard"), dashboardHandler.GetTransaction)
		dashboard.GET("/stats", rl("dashboard"), dashboardHandler.GetStats)
	}

	return r
}
