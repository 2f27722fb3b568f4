package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/jobs/publisher"
	"github.com/synocheck/synocheck/internal/server/cache"
	"github.com/synocheck/synocheck/internal/server/handler"
	"github.com/synocheck/synocheck/internal/server/ratelimit"
	"github.com/synocheck/synocheck/internal/stats"
	"github.com/synocheck/synocheck/internal/store"
	"github.com/synocheck/synocheck/pkg/config"
	"github.com/synocheck/synocheck/pkg/health"
	"github.com/synocheck/synocheck/pkg/kafka"
	"github.com/synocheck/synocheck/pkg/logger"
	"github.com/synocheck/synocheck/pkg/metrics"
	"github.com/synocheck/synocheck/pkg/middleware"
	"github.com/synocheck/synocheck/pkg/postgres"
	pkgredis "github.com/synocheck/synocheck/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting comparison service", "port", cfg.Server.Port, "tuple_size", cfg.Compare.TupleSize)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := compare.NewRunner()

	var reportCache *cache.ReportCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, report caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		reportCache = cache.New(redisClient, cfg.Redis)
		slog.Info("report cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	var jobStore *store.Store
	var jobPublisher *publisher.Publisher
	var pgClient *postgres.Client
	pgClient, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, job submission disabled", "error", err)
	} else {
		defer pgClient.Close()
		jobStore = store.New(pgClient)
		jobProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CompareJobs)
		defer jobProducer.Close()
		jobPublisher = publisher.New(jobStore, jobProducer)
		slog.Info("job submission enabled", "topic", cfg.Kafka.Topics.CompareJobs)
	}

	aggregator := stats.NewAggregator(cfg.Kafka, cfg.Kafka.Topics.CompareResults)
	statsH := stats.NewHandler(aggregator)

	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("stats aggregator error", "error", err)
		}
	}()
	slog.Info("stats aggregator started", "topic", cfg.Kafka.Topics.CompareResults)

	checker := health.NewChecker()
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.DB.PingContext(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(
		runner,
		reportCache,
		jobPublisher,
		jobStore,
		m,
		cfg.Compare.MaxDocumentBytes,
		cfg.Compare.TupleSize,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/compare", h.Compare)
	mux.HandleFunc("POST /api/v1/jobs", h.SubmitJob)
	mux.HandleFunc("GET /api/v1/jobs", h.ListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/v1/stats", statsH.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	limiter := ratelimit.New(time.Minute)

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = ratelimit.Middleware(limiter, cfg.Server.RateLimitPerMinute, m)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("comparison service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("comparison service stopped")
}
