package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-checkout/config"
	"crypto-checkout/internal/adapter/chain"
	"crypto-checkout/internal/adapter/email"
	httpHandler "crypto-checkout/internal/adapter/http/handler"
	pgStorage "crypto-checkout/internal/adapter/storage/postgres"
	redisStorage "crypto-checkout/internal/adapter/storage/redis"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/internal/service"
	"crypto-checkout/pkg/logger"

	"github.com/shopspring/decimal"
)

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
		Msg("Starting Crypto Checkout")

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
	paymentRepo := pgStorage.NewPaymentRepo(pool)
	addrRepo := pgStorage.NewWalletAddressRepo(pool)
	eventRepo := pgStorage.NewPaymentEventRepo(pool)
	campaignRepo := pgStorage.NewCampaignRepo(pool)
	operatorRepo := pgStorage.NewOperatorRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	verifyLock := redisStorage.NewVerifyLock(rdb)
	runGuard := redisStorage.NewRunGuard(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.Crypto.AESKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	digestSvc, err := service.NewHMACDigestService(cfg.Crypto.DigestKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize digest service")
	}
	hashSvc := service.NewArgon2HashService(service.DefaultArgon2Params())
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Chain explorer verifier
	networks := make(map[string]chain.Network, len(cfg.Chain.Networks))
	for name, n := range cfg.Chain.Networks {
		networks[name] = chain.Network{BaseURL: n.BaseURL, Confirmations: n.Confirmations}
	}
	verifier := chain.NewExplorerVerifier(networks, cfg.Chain.RequestTimeout, log)

	// Email provider adapters
	mailer := email.NewHTTPMailer(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.FromAddress,
		cfg.Mailer.Timeout, cfg.Mailer.MaxRetries, log)
	resolver := email.NewHTTPAudienceResolver(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.Timeout, log)
	renderer := email.NewHTTPTemplateRenderer(cfg.Mailer.BaseURL, cfg.Mailer.APIKey, cfg.Mailer.Timeout)

	// Initialize business services
	authSvc := service.NewAuthService(operatorRepo, hashSvc, tokenSvc)
	invoiceSvc := service.NewInvoiceService(mailer, log)
	paymentSvc := service.NewPaymentService(
		paymentRepo,
		addrRepo,
		eventRepo,
		encSvc,
		digestSvc,
		verifier,
		verifyLock,
		invoiceSvc,
		transactor,
		service.PaymentOptions{
			ExpiryWindow:  cfg.Payment.ExpiryWindow,
			TolerancePct:  decimal.NewFromFloat(cfg.Payment.TolerancePct),
			VerifyLockTTL: cfg.Payment.VerifyLockTTL,
		},
		log,
	)
	reportingSvc := service.NewReportingService(paymentRepo, eventRepo, log)
	campaignSvc := service.NewCampaignService(campaignRepo, log)
	dispatcher := service.NewCampaignDispatcher(campaignRepo, resolver, renderer, mailer, log)

	loc, err := time.LoadLocation(cfg.Campaign.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Campaign.Timezone).Msg("Invalid campaign timezone")
	}
	scheduler := service.NewCampaignScheduler(campaignRepo, runGuard, dispatcher, service.SchedulerOptions{
		Location:    loc,
		RunGuardTTL: cfg.Campaign.RunGuardTTL,
	}, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		PaymentSvc:     paymentSvc,
		ReportingSvc:   reportingSvc,
		CampaignSvc:    campaignSvc,
		Scheduler:      scheduler,
		Dispatcher:     dispatcher,
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
