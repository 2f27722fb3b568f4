// Package worker consumes comparison jobs from Kafka, runs them through the
// comparison engine, persists the result, and emits a completion event for
// the stats aggregator.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/jobs"
	"github.com/synocheck/synocheck/internal/store"
	"github.com/synocheck/synocheck/pkg/kafka"
	"github.com/synocheck/synocheck/pkg/metrics"
	"github.com/synocheck/synocheck/pkg/resilience"
)

// Worker wraps a Kafka consumer to drive the comparison pipeline.
type Worker struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates a Worker backed by the given Kafka consumer.
func New(consumer *kafka.Consumer) *Worker {
	return &Worker{
		consumer: consumer,
		logger:   slog.Default().With("component", "compare-worker"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("compare worker starting")
	return w.consumer.Start(ctx)
}

// HandleJob returns a Kafka MessageHandler that runs each CompareJob under
// jobTimeout, persists the outcome with retry, and publishes a
// CompareCompleted event to results. A persistence failure is returned so
// the message is redelivered; everything else is terminal for the message.
func HandleJob(
	runner *compare.Runner,
	st *store.Store,
	results *kafka.Producer,
	m *metrics.Metrics,
	jobTimeout time.Duration,
) kafka.MessageHandler {
	logger := slog.Default().With("component", "compare-worker")
	return func(ctx context.Context, key []byte, value []byte) error {
		job, err := kafka.DecodeJSON[jobs.CompareJob](value)
		if err != nil {
			logger.Error("failed to decode compare job",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		if m != nil {
			m.JobsInFlight.Inc()
			defer m.JobsInFlight.Dec()
		}
		start := time.Now()

		var report *compare.Report
		err = resilience.WithTimeout(ctx, jobTimeout, "compare job", func(ctx context.Context) error {
			req := compare.Request{
				Synonyms:  job.Synonyms,
				Reference: job.Reference,
				Candidate: job.Candidate,
				TupleSize: job.TupleSize,
			}
			report = runner.Run(ctx, req.Inputs())
			return nil
		})
		if err != nil {
			logger.Error("compare job timed out",
				"job_id", job.JobID,
				"timeout", jobTimeout,
			)
			markFailed(ctx, st, job.JobID, err.Error(), logger)
			publishCompleted(ctx, results, jobs.CompareCompleted{
				JobID:       job.JobID,
				Status:      jobs.StatusFailed,
				LatencyMs:   time.Since(start).Milliseconds(),
				CompletedAt: time.Now().UTC(),
			}, logger)
			if m != nil {
				m.ComparisonsTotal.WithLabelValues("job", "error").Inc()
				m.JobsTotal.WithLabelValues("failed").Inc()
			}
			return nil
		}

		persist := func() error {
			return st.MarkCompleted(ctx, job.JobID, report)
		}
		if err := resilience.Retry(ctx, "persist compare result", resilience.RetryConfig{}, persist); err != nil {
			return fmt.Errorf("persisting result for job %s: %w", job.JobID, err)
		}

		if m != nil {
			m.ComparisonsTotal.WithLabelValues("job", report.Outcome()).Inc()
			m.ComparisonDuration.WithLabelValues("job").Observe(time.Since(start).Seconds())
			m.ScoreRatio.Observe(report.Ratio)
			m.TuplesScannedTotal.Add(float64(report.Total))
			m.JobsTotal.WithLabelValues("done").Inc()
		}

		publishCompleted(ctx, results, jobs.CompareCompleted{
			JobID:       job.JobID,
			Status:      jobs.StatusDone,
			Percent:     report.Percent,
			Ratio:       report.Ratio,
			Matched:     report.Matched,
			Total:       report.Total,
			Degenerate:  report.Degenerate,
			LatencyMs:   time.Since(start).Milliseconds(),
			CompletedAt: time.Now().UTC(),
		}, logger)

		logger.Info("compare job completed",
			"job_id", job.JobID,
			"percent", report.Percent,
			"matched", report.Matched,
			"total", report.Total,
		)
		return nil
	}
}

func markFailed(ctx context.Context, st *store.Store, id, reason string, logger *slog.Logger) {
	if err := resilience.Retry(ctx, "mark job failed", resilience.RetryConfig{}, func() error {
		return st.MarkFailed(ctx, id, reason)
	}); err != nil {
		logger.Error("failed to record job failure", "job_id", id, "error", err)
	}
}

func publishCompleted(ctx context.Context, results *kafka.Producer, ev jobs.CompareCompleted, logger *slog.Logger) {
	if results == nil {
		return
	}
	if err := results.Publish(ctx, kafka.Event{Key: ev.JobID, Value: ev}); err != nil {
		logger.Error("failed to publish completion event", "job_id", ev.JobID, "error", err)
	}
}
