package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"govtwool/internal/cache"
	"govtwool/internal/config"
	"govtwool/internal/db"
	apihttp "govtwool/internal/http"
	"govtwool/internal/indexer"
	"govtwool/internal/rationale"
	"govtwool/internal/repository"
	"govtwool/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, falling back to memory cache", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
		cancel()
	}

	var store cache.Store
	if redisClient != nil {
		store = cache.NewRedisStore(redisClient)
	} else {
		mem := cache.NewMemoryStore(cfg.CacheMaxEntries)
		defer mem.Close()
		store = mem
	}
	rawCache := cache.New(store, cfg.CacheEnabled, logger)

	client := indexer.NewHTTPClient(indexer.Config{
		BaseURL:   cfg.IndexerBaseURL,
		APIKey:    cfg.IndexerAPIKey,
		Timeout:   cfg.FetchTimeout,
		RateLimit: cfg.IndexerRateLimit,
		Burst:     cfg.IndexerBurst,
		MaxBytes:  cfg.MetadataMaxBytes,
	}, rawCache, logger)
	anchors := indexer.NewAnchorFetcher(cfg.IPFSGateway, cfg.FetchTimeout, cfg.MetadataMaxBytes, rawCache, logger)

	sources := service.Sources{
		DReps:        client,
		Actions:      client,
		DRepMetadata: client,
		Anchors:      anchors,
	}
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := pingPool(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		// yaci-store no trae metadatos embebidos: los DReps se enriquecen desde su anchor.
		sources.DReps = repository.NewPgDRepRepository(pool)
		sources.DRepMetadata = nil
		logger.Info("drep pages served from yaci-store")
	}

	dir := service.NewDirectory(sources, service.NewProfileCache(), logger, cfg.EnrichConcurrency, cfg.EnrichTimeout)

	var sink rationale.Sink = rationale.NewDisabledSink("rationale sink not configured")
	if cfg.RationaleSinkURL != "" {
		httpSink, err := rationale.NewHTTPSink(cfg.RationaleSinkURL, cfg.RationaleSinkToken, 0, logger)
		if err != nil {
			logger.Warn("rationale sink init failed", zap.Error(err))
		} else {
			sink = httpSink
		}
	}
	var limiter service.PublishLimiter
	if redisClient != nil {
		limiter = service.NewRedisPublishLimiter(redisClient, cfg.RationalePublishWindow, cfg.RationalePublishMax)
	} else {
		memLimiter := service.NewPublishLimiter(cfg.RationalePublishWindow, cfg.RationalePublishMax)
		defer memLimiter.Close()
		limiter = memLimiter
	}
	ratSvc := service.NewRationaleService(sink, limiter, logger)

	tokens := service.NewAdminTokenService(cfg.AdminJWTSecret, cfg.AdminTokenTTL)
	if !tokens.Enabled() {
		logger.Warn("admin jwt secret not configured, admin routes disabled")
	}

	router := apihttp.NewRouter(logger,
		apihttp.NewHealthHandler(cfg.CardanoNetwork, rawCache, dir),
		apihttp.NewDirectoryHandler(logger, dir),
		apihttp.NewRationaleHandler(logger, ratSvc),
		apihttp.NewAdminHandler(logger, rawCache, dir),
		tokens,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("network", cfg.CardanoNetwork),
		zap.String("cache_backend", store.Backend()),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}

func pingPool(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.Ping(ctx, pool)
}
