package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"vendor-invoicing/internal/adapter/gateway/flutterwave"
	httpHandler "vendor-invoicing/internal/adapter/http/handler"
	pgStorage "vendor-invoicing/internal/adapter/storage/postgres"
	redisStorage "vendor-invoicing/internal/adapter/storage/redis"
	"vendor-invoicing/internal/core/ports"
	"vendor-invoicing/internal/metrics"
	"vendor-invoicing/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, configPath string) error {
	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("version", version).
		Msg("Starting Vendor Invoicing API")

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is not configured")
	}
	webhookAuth, err := service.NewSharedSecretAuthenticator(cfg.Webhook.SecretHash)
	if err != nil {
		return err
	}
	minimum, err := cfg.Withdrawal.Minimum()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	defer pool.Close()

	if applied, err := pgStorage.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("migrating: %w", err)
	} else if applied > 0 {
		log.Info().Int("applied", applied).Msg("Migrations applied")
	}

	// Redis
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("connecting to Redis: %w", err)
	}
	defer rdb.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Repositories
	vendorRepo := pgStorage.NewVendorRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	invoiceRepo := pgStorage.NewInvoiceRepo(pool)
	activityRepo := pgStorage.NewActivityRepo(pool)
	eventRepo := pgStorage.NewWebhookEventRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis stores
	referenceLock := redisStorage.NewReferenceLock(rdb)
	settledCache := redisStorage.NewSettledCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Payment provider
	gateway := flutterwave.NewClient(cfg.Gateway, &http.Client{Timeout: cfg.Gateway.Timeout}, m, log)

	// Core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	authSvc := service.NewAuthService(vendorRepo, hashSvc, tokenSvc, log)
	walletSvc := service.NewWalletService(walletRepo, txRepo, vendorRepo, activityRepo, gateway, hashSvc, transactor, cfg.Gateway.Country, log)
	vendorSvc := service.NewVendorService(vendorRepo, walletRepo, activityRepo)
	reconciliationSvc := service.NewReconciliationService(
		txRepo,
		walletRepo,
		invoiceRepo,
		activityRepo,
		eventRepo,
		gateway,
		referenceLock,
		settledCache,
		transactor,
		m,
		service.ReconciliationOptions{
			LockTTL:    cfg.Webhook.LockTTL,
			SettledTTL: cfg.Webhook.SettledTTL,
		},
		log,
	)
	withdrawalSvc := service.NewWithdrawalService(
		vendorRepo,
		walletRepo,
		txRepo,
		activityRepo,
		gateway,
		hashSvc,
		service.NewULIDReferenceGenerator(),
		transactor,
		m,
		service.WithdrawalOptions{
			Minimum:     minimum,
			Currency:    cfg.Withdrawal.Currency,
			Narration:   cfg.Withdrawal.Narration,
			CallbackURL: cfg.Gateway.CallbackURL,
		},
		log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:           authSvc,
		WalletSvc:         walletSvc,
		WithdrawalSvc:     withdrawalSvc,
		ReconciliationSvc: reconciliationSvc,
		VendorSvc:         vendorSvc,
		TokenSvc:          tokenSvc,
		WebhookAuth:       webhookAuth,
		RateLimitStore:    rateLimitStore,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return serveUntilDone(ctx, srv, log)
}

// serveUntilDone runs srv until ctx is cancelled, then drains in-flight requests.
func serveUntilDone(ctx context.Context, srv *http.Server, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}
	log.Info().Msg("Server exited")
	return nil
}
