// Package cache caches comparison reports in Redis, keyed by a content
// hash of the full request. Concurrent identical requests collapse into one
// computation via singleflight, and a circuit breaker keeps a failing Redis
// from slowing down comparisons.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/synocheck/synocheck/internal/compare"
	"github.com/synocheck/synocheck/pkg/config"
	pkgredis "github.com/synocheck/synocheck/pkg/redis"
	"github.com/synocheck/synocheck/pkg/resilience"
)

const keyPrefix = "compare:"

// ReportCache caches comparison reports in Redis.
type ReportCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a ReportCache backed by the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *ReportCache {
	return &ReportCache{
		client:  client,
		cfg:     cfg,
		breaker: resilience.NewCircuitBreaker("report-cache", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "report-cache"),
	}
}

// Get returns the cached report for req, if present.
func (c *ReportCache) Get(ctx context.Context, req *compare.Request) (*compare.Report, bool) {
	key := buildKey(req)
	var data string
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.client.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	if data == "" {
		c.misses.Add(1)
		return nil, false
	}
	var report compare.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return &report, true
}

// Set stores a report under the request's content key.
func (c *ReportCache) Set(ctx context.Context, req *compare.Request, report *compare.Report) {
	key := buildKey(req)
	data, err := json.Marshal(report)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached report or computes and caches it. The
// boolean reports whether the result came from cache.
func (c *ReportCache) GetOrCompute(
	ctx context.Context,
	req *compare.Request,
	computeFn func() (*compare.Report, error),
) (*compare.Report, bool, error) {
	if report, ok := c.Get(ctx, req); ok {
		return report, true, nil
	}
	key := buildKey(req)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if report, ok := c.Get(ctx, req); ok {
			return report, nil
		}
		report, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, report)
		return report, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*compare.Report), false, nil
}

// Invalidate removes every cached report.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating report cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counters.
func (c *ReportCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey derives a stable key from every input that affects the report.
// Payload fields are length-prefixed before hashing so field boundaries
// stay unambiguous.
func buildKey(req *compare.Request) string {
	h := sha256.New()
	var lenBuf [8]byte
	for _, field := range []string{req.Synonyms, req.Reference, req.Candidate} {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}
	binary.BigEndian.PutUint64(lenBuf[:], uint64(req.TupleSize))
	h.Write(lenBuf[:])
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
