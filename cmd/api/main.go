package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"private-ledger-indexer/config"
	httpHandler "private-ledger-indexer/internal/adapter/http/handler"
	"private-ledger-indexer/internal/adapter/http/middleware"
	pgStorage "private-ledger-indexer/internal/adapter/storage/postgres"
	redisStorage "private-ledger-indexer/internal/adapter/storage/redis"
	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/internal/service"
	"private-ledger-indexer/pkg/logger"
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
		Msg("Starting Private Ledger Indexer")

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
	recordRepo := pgStorage.NewRecordRepo(pool)
	clientRepo := pgStorage.NewClientRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	recordCache := redisStorage.NewRecordCache(rdb)
	nonceStore := redisStorage.NewNonceStore(rdb)

	// Initialize core services
	signer, err := service.NewEd25519Signer(cfg.Signer.Seed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize signer")
	}
	recordKey, err := service.DeriveRecordKey(signer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to derive record key")
	}
	codec, err := service.NewRecordCodec(recordKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize record codec")
	}
	log.Info().Str("identity_seed", codec.IdentitySeed()).Msg("Record codec ready")

	sigSvc := service.NewHMACSignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	authSvc := service.NewAuthService(clientRepo, hashSvc, tokenSvc)
	indexSvc := service.NewIndexService(recordRepo, recordCache, codec, transactor, log)

	// The coalescer serialises cache rebuilds; webhook bursts collapse into
	// at most one run plus one queued re-run.
	scheduler := service.NewReloadCoalescer(ctx, indexSvc.Rebuild, log)

	// Warm the cache on startup.
	scheduler.Trigger()

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:    authSvc,
		IndexSvc:   indexSvc,
		Scheduler:  scheduler,
		SigSvc:     sigSvc,
		NonceStore: nonceStore,
		TokenSvc:   tokenSvc,
		HookAuth: middleware.HookAuthConfig{
			Secret:        cfg.Hook.Secret,
			TimestampSkew: cfg.Hook.TimestampSkew,
			NonceTTL:      cfg.Hook.NonceTTL,
		},
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
