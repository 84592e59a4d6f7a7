// Command hercules serves the judicial catalog API: districts, courts,
// subject matters, rulings, notices, agreement lists and the access
// control catalogs, behind bearer token authentication.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pjecz/hercules-api/pkg/api"
	"github.com/pjecz/hercules-api/pkg/auth"
	"github.com/pjecz/hercules-api/pkg/config"
	"github.com/pjecz/hercules-api/pkg/middleware"
	"github.com/pjecz/hercules-api/pkg/observability"
	"github.com/pjecz/hercules-api/pkg/storage"
	"github.com/pjecz/hercules-api/pkg/storage/postgres"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("Configuration error")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting hercules-api")

	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize OpenTelemetry")
		os.Exit(1)
	}

	connections, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:   cfg.Database.PrimaryURL,
		ReplicaURLs:  postgres.ParseReplicaURLs(cfg.Database.ReplicaURLs),
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		ConnLifetime: cfg.Database.ConnLifetime,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to the database")
		os.Exit(1)
	}
	db := connections.Primary()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Error("Invalid redis URL")
			os.Exit(1)
		}
		if cfg.Redis.Password != "" {
			opts.Password = cfg.Redis.Password
		}
		opts.DB = cfg.Redis.DB
		redisClient = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// redis only backs the shared login limiter, keep going
			logger.WithError(err).Warn("Redis unreachable at startup")
		}
		cancel()
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	authService := auth.NewService(auth.NewSQLUserStore(db), auth.NewTokenSigner(cfg.Auth.SecretKey), logger)

	var limiter middleware.LoginLimiter
	if cfg.RateLimit.Enabled {
		if redisClient != nil {
			limiter = middleware.NewRedisLoginLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
		} else {
			memory := middleware.NewMemoryLoginLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
			memory.StartCleanup(ctx)
			limiter = memory
		}
	}

	var documents api.DocumentPresigner
	if cfg.S3.Bucket != "" {
		store, err := storage.NewDocumentStore(ctx, storage.DocumentStoreConfig{
			Endpoint:      cfg.S3.Endpoint,
			Region:        cfg.S3.Region,
			Bucket:        cfg.S3.Bucket,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			UsePathStyle:  cfg.S3.UsePathStyle,
			PresignExpiry: cfg.S3.PresignExpiry,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to initialize document store")
			os.Exit(1)
		}
		documents = store
	} else {
		logger.Warn("Document store not configured, download endpoints disabled")
	}

	server := api.NewServer(api.ServerConfig{
		DB:           db,
		AuthService:  authService,
		Documents:    documents,
		LoginLimiter: limiter,
		Logger:       logger,
		Metrics:      metrics,
	})

	var handler http.Handler = server
	if providers != nil {
		handler = otelhttp.NewHandler(handler, "hercules-api")
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// probes and metrics on their own port
	opsMux := http.NewServeMux()
	checker := observability.NewHealthChecker(db, redisClient)
	observability.RegisterHealthRoutes(opsMux, checker)
	opsMux.HandleFunc("/healthz", checker.Liveness)
	opsMux.HandleFunc("/readyz", checker.Readiness)
	if metrics != nil {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: opsMux,
	}

	var stats *observability.StatsCollector
	if metrics != nil {
		stats = observability.NewStatsCollector(connections.Replica(), metrics, logger)
		if err := stats.Start(cfg.Observability.StatsSchedule); err != nil {
			logger.WithError(err).Warn("Failed to start stats collector")
		}
	}

	go func() {
		logger.Infof("Probe server listening on %s", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Probe server failed")
		}
	}()

	go func() {
		logger.Infof("API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return opsServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		if stats != nil {
			stats.Stop()
		}
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return connections.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if providers != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
	}

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}
