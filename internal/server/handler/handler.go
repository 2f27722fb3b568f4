// Package handler implements the comparison API endpoints: synchronous
// comparisons, asynchronous job submission and history, and cache
// administration.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/internal/jobs/publisher"
	"github.com/synocheck/synocheck/internal/server/cache"
	"github.com/synocheck/synocheck/internal/store"
	apperrors "github.com/synocheck/synocheck/pkg/errors"
	"github.com/synocheck/synocheck/pkg/logger"
	"github.com/synocheck/synocheck/pkg/metrics"
)

const defaultListLimit = 50

// Handler serves the comparison API. The cache, publisher, and store are
// optional: a missing dependency degrades the corresponding endpoints
// instead of preventing startup.
type Handler struct {
	runner           *compare.Runner
	cache            *cache.ReportCache
	publisher        *publisher.Publisher
	store            *store.Store
	metrics          *metrics.Metrics
	maxDocumentBytes int
	defaultTupleSize int
	logger           *slog.Logger
}

// New creates the API handler.
func New(
	runner *compare.Runner,
	reportCache *cache.ReportCache,
	pub *publisher.Publisher,
	st *store.Store,
	m *metrics.Metrics,
	maxDocumentBytes int,
	defaultTupleSize int,
) *Handler {
	return &Handler{
		runner:           runner,
		cache:            reportCache,
		publisher:        pub,
		store:            st,
		metrics:          m,
		maxDocumentBytes: maxDocumentBytes,
		defaultTupleSize: defaultTupleSize,
		logger:           slog.Default().With("component", "compare-handler"),
	}
}

// Compare runs a synchronous comparison of inline payloads.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	var report *compare.Report
	var err error
	cacheHit := false

	computeFn := func() (*compare.Report, error) {
		return h.runner.Run(ctx, req.Inputs()), nil
	}
	if h.cache != nil {
		report, cacheHit, err = h.cache.GetOrCompute(ctx, req, computeFn)
	} else {
		report, err = computeFn()
	}
	if err != nil {
		log.Error("comparison failed", "error", err)
		if h.metrics != nil {
			h.metrics.ComparisonsTotal.WithLabelValues("sync", "error").Inc()
		}
		h.writeError(w, http.StatusInternalServerError, "comparison failed")
		return
	}

	if h.metrics != nil {
		h.metrics.ComparisonsTotal.WithLabelValues("sync", report.Outcome()).Inc()
		h.metrics.ComparisonDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
			h.metrics.ScoreRatio.Observe(report.Ratio)
			h.metrics.TuplesScannedTotal.Add(float64(report.Total))
		}
	}

	log.Info("comparison served",
		"percent", report.Percent,
		"matched", report.Matched,
		"total", report.Total,
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, report)
}

// SubmitJob accepts a comparison for asynchronous processing.
func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.publisher == nil {
		h.writeError(w, http.StatusServiceUnavailable, "job submission is disabled")
		return
	}
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	if req.TupleSize == 0 {
		req.TupleSize = h.defaultTupleSize
	}

	resp, err := h.publisher.Submit(ctx, req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("job submission failed", "error", err, "status_code", statusCode)
		h.writeError(w, statusCode, "job submission failed")
		return
	}
	if h.metrics != nil {
		h.metrics.JobsTotal.WithLabelValues("submitted").Inc()
	}
	log.Info("compare job submitted", "job_id", resp.JobID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

// GetJob returns one job by id.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "job history is disabled")
		return
	}
	id := r.PathValue("id")
	record, err := h.store.GetJob(r.Context(), id)
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), jobErrorMessage(err, id))
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

// ListJobs returns recent jobs, newest first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "job history is disabled")
		return
	}
	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing jobs failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "listing jobs failed")
		return
	}
	if records == nil {
		records = []store.JobRecord{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  records,
		"count": len(records),
	})
}

// CacheStats reports hit/miss counters for the report cache.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops every cached report.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// decodeRequest parses and validates the JSON request body. On failure it
// writes the error response and returns ok=false.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request) (*compare.Request, bool) {
	var req compare.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	if err := compare.Validate(&req, h.maxDocumentBytes); err != nil {
		var validationErr *compare.ValidationError
		if errors.As(err, &validationErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": validationErr.Fields,
			})
			return nil, false
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &req, true
}

func jobErrorMessage(err error, id string) string {
	if errors.Is(err, apperrors.ErrJobNotFound) {
		return fmt.Sprintf("job %s not found", id)
	}
	return "loading job failed"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
