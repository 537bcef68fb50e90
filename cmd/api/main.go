package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-settlement/config"
	httpHandler "marketplace-settlement/internal/adapter/http/handler"
	pgStorage "marketplace-settlement/internal/adapter/storage/postgres"
	redisStorage "marketplace-settlement/internal/adapter/storage/redis"
	"marketplace-settlement/internal/core/ports"
	"marketplace-settlement/internal/service"
	"marketplace-settlement/pkg/logger"
)

const balanceCacheTTL = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Marketplace Settlement Engine")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	purchaseRepo := pgStorage.NewPurchaseRepo(pool)
	subscriptionRepo := pgStorage.NewSubscriptionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	eventDedup := redisStorage.NewEventDedupStore(rdb)
	balanceCache := redisStorage.NewBalanceCache(rdb, balanceCacheTTL)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Outbound HTTP clients
	httpClient := &http.Client{Timeout: 10 * time.Second}
	providerClient := service.NewProviderAPIClient(cfg.Provider, httpClient, log)
	chatClient := service.NewChatAPIClient(cfg.Chat, httpClient)

	// Initialize core services
	verifier := service.NewProviderSignatureVerifier(cfg.Provider.WebhookSecret)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	notifier := service.NewNotificationService(
		cfg.Notify.GatewayURL,
		cfg.Notify.Workers,
		cfg.Notify.QueueSize,
		cfg.Notify.Timeout,
		httpClient,
		log,
	)
	defer notifier.Close()

	// Initialize business services
	settlementSvc := service.NewSettlementService(
		walletRepo,
		purchaseRepo,
		subscriptionRepo,
		transactor,
		balanceCache,
		chatClient,
		providerClient,
		notifier,
		log,
	)
	ledgerSvc := service.NewLedgerService(walletRepo, transactor, balanceCache, log)
	dispatcher := service.NewEventDispatcher(verifier, eventDedup, settlementSvc, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Dispatcher:     dispatcher,
		LedgerSvc:      ledgerSvc,
		SettlementSvc:  settlementSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
