// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

// ResultStore loads validation records from the backing store.
// This allows the metrics engine to be tested without files or a database.
type ResultStore interface {
	// Load returns records whose project contains the filter (case-insensitive)
	// and whose timestamp is at or after cutoff. A zero cutoff disables the time filter.
	// Records are sorted ascending by timestamp.
	Load(ctx context.Context, project string, cutoff time.Time) ([]schema.ValidationResult, error)

	// LoadAll returns every record regardless of project or time.
	LoadAll(ctx context.Context) ([]schema.ValidationResult, error)

	// Status returns record counts and the time range covered by the store.
	Status(ctx context.Context) (schema.StoreStatus, error)

	// Close releases the underlying resources.
	Close() error
}

// CatalogStore reads the declared pattern library.
type CatalogStore interface {
	// LibraryStats returns the declared pattern count and version per scope.
	LibraryStats(ctx context.Context) (map[schema.PatternScope]schema.LibraryStat, error)
}

// CacheManager defines the interface for managing persistent stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSnapshotStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for persisted snapshot data.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Clear() error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for recording computed snapshots.
type HistoryStore interface {
	// RecordSnapshot appends one computed snapshot summary and returns its run ID.
	RecordSnapshot(run schema.SnapshotRun) (int64, error)

	// GetAllRuns returns every recorded run ordered by run ID.
	GetAllRuns() ([]schema.SnapshotRun, error)

	// GetStatus returns status information about the history store.
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// MetricsService answers metrics queries for the HTTP and MCP surfaces.
// The core orchestrator implements it.
type MetricsService interface {
	Quality(ctx context.Context, project string, days int) (*schema.MetricsSnapshot, error)
	Trends(ctx context.Context, project string, days int) (schema.TrendsResult, error)
	Health(ctx context.Context, project string, days int) (schema.HealthResult, error)
	Patterns(ctx context.Context, project string, days int, scope schema.PatternScope) (schema.PatternMetrics, error)
	Performance(ctx context.Context, project string, days int) (schema.PerformanceMetrics, error)
	Comparative(ctx context.Context, project string, days int) (schema.ComparativeMetrics, error)
	ClearCache() schema.ClearCacheResult
	CacheStats() schema.CacheStats
}
