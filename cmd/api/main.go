package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"systempay-gateway/config"
	httpHandler "systempay-gateway/internal/adapter/http/handler"
	pgStorage "systempay-gateway/internal/adapter/storage/postgres"
	redisStorage "systempay-gateway/internal/adapter/storage/redis"
	sqliteStorage "systempay-gateway/internal/adapter/storage/sqlite"
	"systempay-gateway/internal/core/ports"
	"systempay-gateway/internal/service"
	"systempay-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Service, cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Bool("sandbox", cfg.Gateway.SandboxMode).
		Int("port", cfg.Server.Port).
		Msg("Starting SystemPay Gateway Engine")

	ctx := context.Background()

	// Initialize the transaction ledger
	var (
		ledger         ports.TransactionLedger
		healthCheckers []ports.HealthChecker
	)
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqliteStorage.Open(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite ledger")
		}
		defer db.Close()
		if err := sqliteStorage.InitSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SQLite schema")
		}
		ledger = sqliteStorage.NewLedgerRepo(db)
		log.Info().Str("path", cfg.Database.SQLitePath).Msg("SQLite ledger ready")
	default:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.InitSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL schema")
		}
		ledger = pgStorage.NewLedgerRepo(pool)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthChecker(pool))
		log.Info().Msg("PostgreSQL connected")
	}

	// Initialize Redis. The ledger alone is authoritative for duplicate
	// detection, so the service degrades rather than dies without Redis.
	var (
		duplicateCache ports.DuplicateCache
		rateLimitStore *redisStorage.RateLimitStore
	)
	if rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, duplicate cache and rate limiting disabled")
	} else {
		defer rdb.Close()
		duplicateCache = redisStorage.NewDuplicateCache(rdb)
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	}

	// Initialize core services
	sigSvc := service.NewDigestSignatureService(cfg.Gateway.Certificate, cfg.Gateway.Algorithm)
	allocator := service.NewTimeTransIDAllocator()
	fieldSvc := service.NewGatewayFieldService(cfg.Gateway, allocator)
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.Dashboard.JWTSecret, cfg.Dashboard.JWTExpiry, cfg.Dashboard.JWTIssuer)

	// Initialize business services
	engine := service.NewReconciliationService(fieldSvc, sigSvc, ledger, duplicateCache, cfg.Gateway.PaymentURL, log)
	authSvc := service.NewOperatorAuthService(cfg.Dashboard, hashSvc, tokenSvc, log)
	reportingSvc := service.NewReportingService(ledger, engine, log)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Engine:         engine,
		AuthSvc:        authSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: healthCheckers,
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
