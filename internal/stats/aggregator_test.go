package stats

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/synocheck/synocheck/internal/jobs"
	"github.com/synocheck/synocheck/pkg/config"
)

func testAggregator() *Aggregator {
	return NewAggregator(config.KafkaConfig{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "test-group",
	}, "compare-results")
}

func doneEvent(ratio float64, latencyMs int64) jobs.CompareCompleted {
	return jobs.CompareCompleted{
		Status:      jobs.StatusDone,
		Ratio:       ratio,
		LatencyMs:   latencyMs,
		CompletedAt: time.Now().UTC(),
	}
}

func TestRecordAccumulatesTotals(t *testing.T) {
	agg := testAggregator()
	agg.Record(doneEvent(0.5, 10))
	agg.Record(doneEvent(0.9, 20))
	agg.Record(doneEvent(0.1, 30))
	agg.Record(jobs.CompareCompleted{Status: jobs.StatusFailed, LatencyMs: 5})

	got := agg.Stats()
	if got.TotalComparisons != 4 {
		t.Errorf("TotalComparisons = %d, want 4", got.TotalComparisons)
	}
	if got.Failed != 1 {
		t.Errorf("Failed = %d, want 1", got.Failed)
	}
	if got.HighSimilarity != 1 {
		t.Errorf("HighSimilarity = %d, want 1", got.HighSimilarity)
	}
	if want := 0.5; got.MeanRatio != want {
		t.Errorf("MeanRatio = %v, want %v", got.MeanRatio, want)
	}
}

func TestRecordCountsDegenerate(t *testing.T) {
	agg := testAggregator()
	ev := doneEvent(1.0, 1)
	ev.Degenerate = true
	agg.Record(ev)
	if got := agg.Stats(); got.Degenerate != 1 {
		t.Errorf("Degenerate = %d, want 1", got.Degenerate)
	}
}

func TestFailedEventsDoNotSkewRatio(t *testing.T) {
	agg := testAggregator()
	agg.Record(doneEvent(1.0, 1))
	agg.Record(jobs.CompareCompleted{Status: jobs.StatusFailed})
	if got := agg.Stats(); got.MeanRatio != 1.0 {
		t.Errorf("MeanRatio = %v, want 1.0", got.MeanRatio)
	}
}

func TestLatencyPercentiles(t *testing.T) {
	agg := testAggregator()
	for i := int64(1); i <= 100; i++ {
		agg.Record(doneEvent(0.5, i))
	}
	got := agg.Stats()
	if got.P50LatencyMs < 45 || got.P50LatencyMs > 55 {
		t.Errorf("P50LatencyMs = %d, want around 50", got.P50LatencyMs)
	}
	if got.P95LatencyMs < 90 || got.P95LatencyMs > 100 {
		t.Errorf("P95LatencyMs = %d, want around 95", got.P95LatencyMs)
	}
	if got.P99LatencyMs < got.P95LatencyMs {
		t.Errorf("P99 %d below P95 %d", got.P99LatencyMs, got.P95LatencyMs)
	}
}

func TestEmptyAggregatorStats(t *testing.T) {
	got := testAggregator().Stats()
	if got.TotalComparisons != 0 || got.MeanRatio != 0 || got.P99LatencyMs != 0 {
		t.Errorf("empty aggregator stats = %+v, want zeros", got)
	}
}

func TestStatsHandlerServesJSON(t *testing.T) {
	agg := testAggregator()
	agg.Record(doneEvent(0.75, 12))
	h := NewHandler(agg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	h.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Totals
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.TotalComparisons != 1 {
		t.Errorf("TotalComparisons = %d, want 1", got.TotalComparisons)
	}
	if got.MeanRatio != 0.75 {
		t.Errorf("MeanRatio = %v, want 0.75", got.MeanRatio)
	}
}
