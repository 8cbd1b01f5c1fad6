// Package main is the entry point for the torobooru API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/synzr/torobooru/internal/app/service"
	"github.com/synzr/torobooru/internal/config"
	"github.com/synzr/torobooru/internal/domain"
	"github.com/synzr/torobooru/internal/infra/postgres"
	"github.com/synzr/torobooru/internal/infra/postgres/migrations"
	"github.com/synzr/torobooru/internal/infra/provider"
	"github.com/synzr/torobooru/internal/infra/provider/registry"
	rediscache "github.com/synzr/torobooru/internal/infra/redis"
	"github.com/synzr/torobooru/internal/infra/s3"
	"github.com/synzr/torobooru/internal/job"
	"github.com/synzr/torobooru/internal/logger"
	"github.com/synzr/torobooru/internal/media"
	"github.com/synzr/torobooru/internal/transport/httpserver"
	"github.com/synzr/torobooru/internal/validator"
	"github.com/synzr/torobooru/pkg/locker"
)

func main() {
	cfg, err := config.Load(os.Getenv("APP_CONFIG"))
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting torobooru",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	ctx := context.Background()

	// Database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			Name:        cfg.Database.Name,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			SSLMode:     cfg.Database.SSLMode,
			MinConns:    cfg.Database.MinConns,
			MaxConns:    cfg.Database.MaxConns,
			MaxLifetime: cfg.Database.MaxLifetime,
			LogQueries:  cfg.App.Debug,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	contentRepo := postgres.NewContentRepository(db)
	externalDataRepo := postgres.NewExternalDataRepository(db)

	// Providers
	providers := registry.NewRegistry(registry.NewProviders(cfg.Provider, log.Logger), log.Logger)
	log.Info("providers ready", zap.Strings("providers", providers.Names()))

	// Redis
	redisClient, err := rediscache.NewClient(ctx, rediscache.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
		log.Info("query cache enabled",
			zap.Duration("query_ttl", cfg.Cache.QueryTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("query cache disabled")
	}

	// Object storage and media
	store, err := s3.New(ctx, s3.Config{
		InstanceURL:  cfg.Storage.InstanceURL,
		Region:       cfg.Storage.Region,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
		Bucket:       cfg.Storage.Bucket,
		UsePathStyle: cfg.Storage.UsePathStyle,
	}, log.Logger)
	if err != nil {
		log.Fatal("failed to configure object storage", zap.Error(err))
	}

	downloader := media.NewDownloader(media.DownloaderConfig{
		Timeout:   cfg.Media.DownloadTimeout,
		MaxBytes:  cfg.Media.MaxBytes,
		UserAgent: cfg.Provider.UserAgent,
	}, log.Logger)
	processor := media.NewProcessor(downloader, store, cfg.Media.Concurrency, log.Logger)
	urls := media.NewURLBuilder(cfg.Storage.PublicBaseURL, cfg.Storage.InstanceURL, cfg.Storage.Bucket)

	// Services
	externalDataSvc := service.NewExternalDataService(externalDataRepo, providers, cfg.Resolver.Concurrency, log.Logger)
	contentSvc := service.NewContentService(contentRepo, processor, urls, cache, cfg.Cache.QueryTTL, log.Logger)
	linkSvc := service.NewLinkService(provider.NewRedirectResolver(cfg.Provider.Tumblr.Timeout, log.Logger), log.Logger)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 4 * 1024 * 1024,
		},
		httpserver.Services{
			Contents:     contentSvc,
			ExternalData: externalDataSvc,
			Links:        linkSvc,
			Hashtags:     service.HashtagsFromText,
		},
		db,
		validator.New(),
		log.Logger,
	)

	// Background refresh of stale external data
	var scheduler *job.RefreshScheduler
	if cfg.Refresh.Enabled {
		refreshSvc := service.NewRefreshService(
			externalDataRepo,
			externalDataSvc,
			cfg.Refresh.MaxAge,
			cfg.Refresh.BatchSize,
			log.Logger,
		)

		scheduler = job.NewRefreshScheduler(
			refreshSvc,
			job.RefreshConfig{
				Interval:  cfg.Refresh.Interval,
				Timeout:   cfg.Refresh.Timeout,
				OnStartup: cfg.Refresh.OnStartup,
			},
			log.Logger,
			locker.NewRedisLocker(redisClient, cfg.Cache.KeyPrefix, log.Logger),
		)
		scheduler.Start(cfg.Refresh.OnStartup)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		if scheduler != nil {
			scheduler.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
