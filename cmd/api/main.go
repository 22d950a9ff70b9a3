package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bedrock-relay/config"
	"bedrock-relay/internal/adapter/chain"
	httpHandler "bedrock-relay/internal/adapter/http/handler"
	"bedrock-relay/internal/adapter/storage/aleph"
	"bedrock-relay/internal/adapter/storage/ipfs"
	pgStorage "bedrock-relay/internal/adapter/storage/postgres"
	redisStorage "bedrock-relay/internal/adapter/storage/redis"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/internal/service"
	"bedrock-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Getenv("RELAY_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("ledger_backend", cfg.Ledger.Backend).
		Msg("Starting Bedrock relay")

	ctx := context.Background()
	var checkers []ports.HealthChecker

	// Redis backs the distributed ledger lock, replay guard and rate limiter.
	var (
		locker      ports.LedgerLocker
		replayGuard ports.ReplayGuard
		rateLimiter ports.RateLimitStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		locker = redisStorage.NewLedgerLock(rdb, cfg.Ledger.LockTTL, cfg.Ledger.LockWait)
		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		if cfg.Webhook.ReplayProtection {
			replayGuard = redisStorage.NewReplayGuard(rdb)
		}
		checkers = append(checkers, redisStorage.HealthCheck(rdb))
	} else {
		locker = service.NewLocalLocker()
		log.Warn().Msg("Redis disabled: ledger lock is process-local, run a single instance")
	}

	var auditRepo ports.AuditRepository
	var pool pgStorage.Pool
	if cfg.Database.Enabled {
		pgPool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pgPool.Close()
		if err := pgStorage.EnsureSchema(ctx, pgPool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database schema")
		}
		log.Info().Msg("PostgreSQL connected")

		pool = pgPool
		auditRepo = pgStorage.NewAuditRepository(pgPool)
		checkers = append(checkers, pgStorage.HealthCheck(pgPool))
	}

	// Ledger document store.
	var store ports.AggregateStore
	signingKey := cfg.Ledger.SigningKey(cfg.Chain)
	var alephClient *aleph.Client
	if signingKey != "" {
		alephClient, err = aleph.NewClient(aleph.Config{
			APIURL:     cfg.Ledger.APIURL,
			PrivateKey: signingKey,
			Channel:    cfg.Ledger.Channel,
			Timeout:    cfg.Ledger.Timeout,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize ledger identity")
		}
	}
	switch cfg.Ledger.Backend {
	case "aleph":
		store = alephClient
		checkers = append(checkers, alephClient)
		log.Info().Str("owner", alephClient.Sender()).Str("key", cfg.Ledger.Key).Msg("Ledger on Aleph aggregate")
	case "postgres":
		owner := "local"
		if alephClient != nil {
			owner = alephClient.Sender()
		}
		store = pgStorage.NewAggregateRepo(pool, owner)
		log.Info().Str("owner", owner).Str("key", cfg.Ledger.Key).Msg("Ledger on PostgreSQL aggregates table")
	}

	// Core services
	verifier := service.NewHMACSignatureVerifier(cfg.Webhook.MaxAge, cfg.Webhook.MaxSkew)
	ledgerSvc := service.NewLedgerService(store, locker, cfg.Ledger.Key, log)
	webhookSvc := service.NewWebhookService(verifier, ledgerSvc, replayGuard, service.WebhookSettings{
		Secret:           cfg.Webhook.Secret,
		ProcessorAddress: cfg.Webhook.ProcessorAddress,
		ReplayTTL:        cfg.Webhook.MaxAge + cfg.Webhook.MaxSkew,
	}, log)
	creditSvc := service.NewCreditService(ledgerSvc, log)
	auditSvc := service.NewAuditService(auditRepo, log)

	var tokenSvc ports.TokenService
	if cfg.Admin.JWTSecret != "" {
		tokenSvc = service.NewJWTTokenService(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL, cfg.Admin.Issuer)
	}

	// Name registry needs a chain signer; avatars additionally need a pinning gateway.
	var nameSvc ports.NameService
	if cfg.Chain.PrivateKey != "" {
		registry, ethClient, err := chain.Dial(ctx, cfg.Chain.RPCURL, chain.Config{
			PrivateKey:       cfg.Chain.PrivateKey,
			RegistrarAddress: cfg.Chain.RegistrarAddress,
			ResolverAddress:  cfg.Chain.ResolverAddress,
			GasLimit:         cfg.Chain.GasLimit,
			CallTimeout:      cfg.Chain.CallTimeout,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize name registry")
		}
		defer ethClient.Close()
		checkers = append(checkers, registry)

		var pinner ports.ContentPinner
		if cfg.IPFS.IsEnabled() {
			p, err := ipfs.NewPinner(ctx, ipfs.Config{
				Endpoint:        cfg.IPFS.Endpoint,
				Region:          cfg.IPFS.Region,
				Bucket:          cfg.IPFS.Bucket,
				AccessKeyID:     cfg.IPFS.AccessKeyID,
				SecretAccessKey: cfg.IPFS.SecretAccessKey,
			}, log)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize IPFS pinner")
			}
			pinner = p
			checkers = append(checkers, p)
		} else {
			log.Warn().Msg("IPFS pinning not configured, avatar uploads disabled")
		}

		nameSvc = service.NewNameService(registry, pinner, cfg.Chain.ParentDomain, log)
		log.Info().Str("sender", registry.From().Hex()).Str("parent", cfg.Chain.ParentDomain).Msg("Name registry ready")
	} else {
		log.Warn().Msg("chain.private_key not set, name routes disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WebhookSvc:     webhookSvc,
		CreditSvc:      creditSvc,
		NameSvc:        nameSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimiter,
		AuditSvc:       auditSvc,
		HealthCheckers: checkers,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

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
