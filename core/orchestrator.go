package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"github.com/huangsam/qmetrics/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Orchestrator composes the calculators into snapshots and owns the snapshot cache.
// Snapshots it returns are shared between callers and must not be modified.
type Orchestrator struct {
	results  contract.ResultStore
	catalog  contract.CatalogStore
	cache    *Cache
	snapshot contract.CacheStore   // optional persistent cache
	history  contract.HistoryStore // optional run history
	logger   *zap.Logger
	group    singleflight.Group
}

var _ contract.MetricsService = &Orchestrator{} // Compile-time check

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSnapshotStore adds a persistent cache consulted after the in-memory cache.
func WithSnapshotStore(store contract.CacheStore) Option {
	return func(o *Orchestrator) { o.snapshot = store }
}

// WithHistoryStore records a summary of every freshly computed snapshot.
func WithHistoryStore(store contract.HistoryStore) Option {
	return func(o *Orchestrator) { o.history = store }
}

// WithLogger sets the logger for non-fatal cache and catalog problems.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(logger) }
}

// NewOrchestrator creates an orchestrator. A nil catalog reports empty library stats
// and a nil cache uses the default TTL with the wall clock.
func NewOrchestrator(results contract.ResultStore, catalog contract.CatalogStore, cache *Cache, opts ...Option) *Orchestrator {
	if cache == nil {
		cache = NewCache(contract.DefaultCacheTTL, nil)
	}
	o := &Orchestrator{
		results: results,
		catalog: catalog,
		cache:   cache,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns the cached snapshot for (project, days), computing it when missing or stale.
// Concurrent requests for the same key share a single computation.
func (o *Orchestrator) Snapshot(ctx context.Context, project string, days int) (*schema.MetricsSnapshot, error) {
	key := NewCacheKey(project, days)
	if snap, ok := o.cache.Get(key); ok {
		return snap, nil
	}

	v, err, _ := o.group.Do(key.String(), func() (any, error) {
		// Another caller may have filled the cache while this one waited.
		if snap, ok := o.cache.Get(key); ok {
			return snap, nil
		}
		now := o.cache.Now()
		gen := o.cache.Generation()

		if o.snapshot != nil {
			if snap, computedAt := checkCacheHit(o.snapshot, generateCacheKey(key), now, o.cache.TTL()); snap != nil {
				o.cache.PutIfGeneration(key, snap, computedAt, gen)
				return snap, nil
			}
		}

		snap, err := o.compute(ctx, project, days, now)
		if err != nil {
			return nil, err
		}
		// A clear during compute means the records may be outdated: answer
		// this call but keep the result out of both cache levels.
		if !o.cache.PutIfGeneration(key, snap, now, gen) {
			o.logger.Debug("discarded snapshot computed across a cache clear", zap.String("key", key.String()))
			return snap, nil
		}
		if o.snapshot != nil {
			storeSnapshot(o.snapshot, generateCacheKey(key), snap, now, o.logger)
		}
		if o.history != nil {
			recordHistory(o.history, key, snap, o.logger)
		}
		o.logger.Debug("computed snapshot", zap.String("key", key.String()),
			zap.Int("records", snap.Overview.TotalValidations))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*schema.MetricsSnapshot), nil
}

// compute loads records and runs every calculator.
func (o *Orchestrator) compute(ctx context.Context, project string, days int, now time.Time) (*schema.MetricsSnapshot, error) {
	cutoff := now.Add(-time.Duration(days) * dayDuration)
	records, err := o.results.Load(ctx, project, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation results: %w", err)
	}
	all, err := o.results.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load validation results for comparison: %w", err)
	}
	libraryStats := o.libraryStats(ctx)
	stats := patternStats(records)

	return &schema.MetricsSnapshot{
		Overview:     calculateOverview(records, now),
		Trends:       calculateTrends(records, days, now),
		Patterns:     rankPatterns(stats, libraryStats),
		PatternStats: stats,
		Performance:  calculatePerformance(records),
		Health:       calculateHealth(records, now),
		Comparative:  calculateComparative(all, project, now),
		Timestamp:    now,
		Project:      project,
		Timeframe:    days,
	}, nil
}

// libraryStats reads the catalog; a catalog failure degrades to empty stats.
func (o *Orchestrator) libraryStats(ctx context.Context) map[schema.PatternScope]schema.LibraryStat {
	empty := map[schema.PatternScope]schema.LibraryStat{}
	for _, scope := range schema.AllPatternScopes {
		empty[scope] = schema.LibraryStat{}
	}
	if o.catalog == nil {
		return empty
	}
	stats, err := o.catalog.LibraryStats(ctx)
	if err != nil {
		o.logger.Warn("failed to read pattern catalog", zap.Error(err))
		return empty
	}
	return stats
}

// Quality returns the full snapshot.
func (o *Orchestrator) Quality(ctx context.Context, project string, days int) (*schema.MetricsSnapshot, error) {
	return o.Snapshot(ctx, project, days)
}

// Trends returns the trend buckets with the overall overview.
func (o *Orchestrator) Trends(ctx context.Context, project string, days int) (schema.TrendsResult, error) {
	snap, err := o.Snapshot(ctx, project, days)
	if err != nil {
		return schema.TrendsResult{}, err
	}
	return schema.TrendsResult{Trends: snap.Trends, Overview: snap.Overview}, nil
}

// Health returns the health metrics with a short overview.
func (o *Orchestrator) Health(ctx context.Context, project string, days int) (schema.HealthResult, error) {
	snap, err := o.Snapshot(ctx, project, days)
	if err != nil {
		return schema.HealthResult{}, err
	}
	return schema.HealthResult{Health: snap.Health, OverviewSummary: snap.Overview.Summarize()}, nil
}

// Patterns returns the pattern rankings, narrowed to scope when one is given.
func (o *Orchestrator) Patterns(ctx context.Context, project string, days int, scope schema.PatternScope) (schema.PatternMetrics, error) {
	snap, err := o.Snapshot(ctx, project, days)
	if err != nil {
		return schema.PatternMetrics{}, err
	}
	if scope == "" {
		return snap.Patterns, nil
	}
	return scopedPatterns(snap.PatternStats, snap.Patterns.LibraryStats, scope), nil
}

// Performance returns the execution statistics.
func (o *Orchestrator) Performance(ctx context.Context, project string, days int) (schema.PerformanceMetrics, error) {
	snap, err := o.Snapshot(ctx, project, days)
	if err != nil {
		return schema.PerformanceMetrics{}, err
	}
	return snap.Performance, nil
}

// Comparative returns the cross-project ranking.
func (o *Orchestrator) Comparative(ctx context.Context, project string, days int) (schema.ComparativeMetrics, error) {
	snap, err := o.Snapshot(ctx, project, days)
	if err != nil {
		return schema.ComparativeMetrics{}, err
	}
	return snap.Comparative, nil
}

// ClearCache empties the in-memory cache and the persistent cache, if any.
// The returned stats describe the in-memory cache.
func (o *Orchestrator) ClearCache() schema.ClearCacheResult {
	result := o.cache.Clear()
	if o.snapshot != nil {
		if err := o.snapshot.Clear(); err != nil {
			o.logger.Warn("failed to clear persistent snapshot cache", zap.Error(err))
		}
	}
	return result
}

// CacheStats describes the in-memory cache.
func (o *Orchestrator) CacheStats() schema.CacheStats {
	return o.cache.Stats()
}

// ResultStatus reports on the underlying result store.
func (o *Orchestrator) ResultStatus(ctx context.Context) (schema.StoreStatus, error) {
	return o.results.Status(ctx)
}
