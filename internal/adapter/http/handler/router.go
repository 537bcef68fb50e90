package handler

import (
	"marketplace-settlement/internal/adapter/http/middleware"
	redisStore "marketplace-settlement/internal/adapter/storage/redis"
	"marketplace-settlement/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Dispatcher     EventDispatcher
	LedgerSvc      ports.LedgerService
	SettlementSvc  ports.SettlementService
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
	r.Use(middleware.RequestID())
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

	// --- Provider webhook (signature-authenticated, no JWT) ---
	webhookHandler := NewWebhookHandler(deps.Dispatcher)
	r.POST("/webhooks/payments", rl("webhook"), webhookHandler.HandleProviderEvent)

	// API v1 routes
	v1 := r.Group("/api/v1")

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	walletHandler := NewWalletHandler(deps.LedgerSvc)
	subscriptionHandler := NewSubscriptionHandler(deps.SettlementSvc)

	// --- Seller/buyer routes (JWT-authenticated) ---
	wallets := v1.Group("/wallets", jwtAuth)
	{
		wallets.GET("/balance", rl("wallets"), walletHandler.GetMyBalance)
	}

	subscriptions := v1.Group("/subscriptions", jwtAuth)
	{
		subscriptions.DELETE("/:seller_id", rl("subscriptions"), subscriptionHandler.Cancel)
	}

	// --- Admin routes (JWT + admin role) ---
	admin := v1.Group("/admin", jwtAuth, middleware.RequireAdmin())
	{
		admin.POST("/wallets", rl("admin"), walletHandler.CreateWallet)
		admin.GET("/wallets/:seller_id/balance", rl("admin"), walletHandler.GetBalance)
		admin.POST("/wallets/:seller_id/adjust", rl("admin"), walletHandler.Adjust)
	}

	return r
}
