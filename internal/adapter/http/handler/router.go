package handler

import (
	"net/http"

	"vendor-invoicing/internal/adapter/http/middleware"
	redisStore "vendor-invoicing/internal/adapter/storage/redis"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc           ports.AuthService
	WalletSvc         ports.WalletService
	WithdrawalSvc     ports.WithdrawalService
	ReconciliationSvc ports.ReconciliationService
	VendorSvc         ports.VendorService
	TokenSvc          ports.TokenService
	WebhookAuth       ports.WebhookAuthenticator
	RateLimitStore    *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers    []ports.HealthChecker
	Metrics           *metrics.Metrics // nil = no HTTP instrumentation
	MetricsHandler    http.Handler     // nil = /metrics not exposed
	Logger            zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Instrument(deps.Metrics))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := middleware.DefaultRateLimitRules()
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

	v1 := r.Group("/api/v1")

	// --- Public routes ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl(middleware.GroupAuthRegister), authHandler.Register)
		auth.POST("/login", rl(middleware.GroupAuthLogin), authHandler.Login)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc, deps.WithdrawalSvc)
	v1.GET("/wallet/banks", rl(middleware.GroupWalletRead), walletHandler.ListBanks)

	// --- Provider callback, authenticated by shared secret only ---
	webhookHandler := NewWebhookHandler(deps.ReconciliationSvc, deps.Logger)
	v1.POST("/wallet/webhook",
		rl(middleware.GroupWebhook),
		middleware.WebhookSignature(deps.WebhookAuth, deps.Logger),
		webhookHandler.Handle,
	)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.POST("", rl(middleware.GroupWalletRead), walletHandler.CreateWallet)
		wallet.GET("", rl(middleware.GroupWalletRead), walletHandler.GetWallet)
		wallet.GET("/history", rl(middleware.GroupWalletRead), walletHandler.History)
		wallet.POST("/pin", rl(middleware.GroupWalletWithdraw), walletHandler.SetPin)
		wallet.POST("/pin/verify", rl(middleware.GroupWalletWithdraw), walletHandler.VerifyPin)
		wallet.POST("/verify-account", rl(middleware.GroupWalletRead), walletHandler.VerifyAccount)
		wallet.POST("/withdraw", rl(middleware.GroupWalletWithdraw), walletHandler.Withdraw)
	}

	vendorHandler := NewVendorHandler(deps.VendorSvc)
	vendors := v1.Group("/vendors/me", jwtAuth)
	{
		vendors.GET("", rl(middleware.GroupWalletRead), vendorHandler.GetProfile)
		vendors.GET("/activity", rl(middleware.GroupWalletRead), vendorHandler.RecentActivity)
	}

	return r
}
