// Package stats aggregates comparison outcomes from the Kafka results
// topic into in-memory counters and latency percentiles, served by the
// API's stats endpoint.
package stats

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/synocheck/synocheck/internal/jobs"
	"github.com/synocheck/synocheck/pkg/config"
	"github.com/synocheck/synocheck/pkg/kafka"
)

// Totals is a point-in-time snapshot of aggregated comparison stats.
type Totals struct {
	TotalComparisons    int64   `json:"total_comparisons"`
	Failed              int64   `json:"failed"`
	Degenerate          int64   `json:"degenerate"`
	HighSimilarity      int64   `json:"high_similarity"`
	MeanRatio           float64 `json:"mean_ratio"`
	P50LatencyMs        int64   `json:"p50_latency_ms"`
	P95LatencyMs        int64   `json:"p95_latency_ms"`
	P99LatencyMs        int64   `json:"p99_latency_ms"`
	ComparisonsPerMinute float64 `json:"comparisons_per_minute"`
}

// highSimilarityThreshold flags comparisons worth human review.
const highSimilarityThreshold = 0.8

// Aggregator folds CompareCompleted events into running totals.
type Aggregator struct {
	mu         sync.RWMutex
	total      int64
	failed     int64
	degenerate int64
	high       int64
	ratioSum   float64
	latencies  []int64
	startTime  time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

// NewAggregator creates an Aggregator consuming completion events from the
// given topic.
func NewAggregator(cfg config.KafkaConfig, topic string) *Aggregator {
	a := &Aggregator{
		latencies: make([]int64, 0, 10000),
		startTime: time.Now(),
		logger:    slog.Default().With("component", "stats-aggregator"),
	}
	a.consumer = kafka.NewConsumer(cfg, topic, a.handleMessage)
	return a
}

// Start enters the consume loop. It blocks until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("stats aggregator starting")
	return a.consumer.Start(ctx)
}

// handleMessage records every CompareCompleted event into the aggregator.
// Undecodable events are dropped rather than redelivered.
func (a *Aggregator) handleMessage(ctx context.Context, key []byte, value []byte) error {
	ev, err := kafka.DecodeJSON[jobs.CompareCompleted](value)
	if err != nil {
		a.logger.Error("failed to decode completion event", "error", err)
		return nil
	}
	a.Record(ev)
	return nil
}

// Record folds one completion event into the totals.
func (a *Aggregator) Record(ev jobs.CompareCompleted) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.latencies = append(a.latencies, ev.LatencyMs)
	if ev.Status == jobs.StatusFailed {
		a.failed++
		return
	}
	a.ratioSum += ev.Ratio
	if ev.Degenerate {
		a.degenerate++
	}
	if ev.Ratio >= highSimilarityThreshold {
		a.high++
	}
}

// Stats returns a snapshot of the aggregated totals.
func (a *Aggregator) Stats() Totals {
	a.mu.RLock()
	defer a.mu.RUnlock()

	t := Totals{
		TotalComparisons: a.total,
		Failed:           a.failed,
		Degenerate:       a.degenerate,
		HighSimilarity:   a.high,
	}
	if scored := a.total - a.failed; scored > 0 {
		t.MeanRatio = a.ratioSum / float64(scored)
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		t.P50LatencyMs = percentile(sorted, 0.50)
		t.P95LatencyMs = percentile(sorted, 0.95)
		t.P99LatencyMs = percentile(sorted, 0.99)
	}
	if minutes := time.Since(a.startTime).Minutes(); minutes > 0 {
		t.ComparisonsPerMinute = float64(a.total) / minutes
	}
	return t
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
