package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/jobs/worker"
	"github.com/synocheck/synocheck/internal/store"
	"github.com/synocheck/synocheck/pkg/config"
	"github.com/synocheck/synocheck/pkg/kafka"
	"github.com/synocheck/synocheck/pkg/logger"
	"github.com/synocheck/synocheck/pkg/metrics"
	"github.com/synocheck/synocheck/pkg/postgres"
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
	slog.Info("starting compare worker",
		"workers", cfg.Compare.WorkerCount,
		"job_timeout", cfg.Compare.JobTimeout,
	)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()
	jobStore := store.New(pgClient)

	resultsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CompareResults)
	defer resultsProducer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := compare.NewRunner()
	handleJob := worker.HandleJob(runner, jobStore, resultsProducer, m, cfg.Compare.JobTimeout)

	// Each worker gets its own consumer in the shared group, so Kafka
	// spreads partitions across them.
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Compare.WorkerCount; i++ {
		w := worker.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CompareJobs, handleJob))
		group.Go(func() error {
			return w.Start(groupCtx)
		})
	}

	slog.Info("compare workers ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.CompareJobs,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("worker error", "error", err)
	}

	if metricsShutdown != nil {
		if err := metricsShutdown(context.Background()); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}

	slog.Info("compare worker stopped")
}
