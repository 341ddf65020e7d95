package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"go.uber.org/zap"
)

// currentCacheVersion defines the version of the persisted snapshot schema.
// Bump it whenever persistedSnapshot or schema.MetricsSnapshot changes shape.
const currentCacheVersion = 2

// persistedSnapshot is the L2 payload. PatternStats is carried next to the
// snapshot because the snapshot's own JSON leaves it out.
type persistedSnapshot struct {
	Snapshot     *schema.MetricsSnapshot `json:"snapshot"`
	PatternStats []schema.PatternStat    `json:"patternStats"`
}

// checkCacheHit attempts to retrieve and validate a persisted snapshot.
func checkCacheHit(store contract.CacheStore, key string, now time.Time, ttl time.Duration) (*schema.MetricsSnapshot, time.Time) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil, time.Time{} // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion {
		return nil, time.Time{}
	}
	computedAt := time.UnixMilli(ts)
	if now.Sub(computedAt) > ttl {
		return nil, time.Time{}
	}

	var payload persistedSnapshot
	if err := json.Unmarshal(data, &payload); err != nil || payload.Snapshot == nil {
		return nil, time.Time{}
	}
	payload.Snapshot.PatternStats = payload.PatternStats
	return payload.Snapshot, computedAt // Cache hit
}

// storeSnapshot persists a computed snapshot. Failures only cost a future recomputation.
func storeSnapshot(store contract.CacheStore, key string, snapshot *schema.MetricsSnapshot, computedAt time.Time, logger *zap.Logger) {
	data, err := json.Marshal(persistedSnapshot{Snapshot: snapshot, PatternStats: snapshot.PatternStats})
	if err != nil {
		logger.Warn("failed to encode snapshot", zap.Error(err))
		return
	}
	if err := store.Set(key, data, currentCacheVersion, computedAt.UnixMilli()); err != nil {
		logger.Warn("failed to persist snapshot", zap.Error(err))
	}
}

// recordHistory appends a summary of the snapshot to the history store.
func recordHistory(store contract.HistoryStore, key CacheKey, snapshot *schema.MetricsSnapshot, logger *zap.Logger) {
	run := schema.SnapshotRun{
		Project:          key.Scope,
		Timeframe:        key.Days,
		ComputedAt:       snapshot.Timestamp,
		TotalValidations: snapshot.Overview.TotalValidations,
		SuccessRate:      snapshot.Overview.SuccessRate,
		QualityScore:     snapshot.Overview.QualityScore,
		HealthScore:      snapshot.Health.Score,
		HealthGrade:      snapshot.Health.Overall,
		Trend:            snapshot.Overview.Trend,
	}
	if _, err := store.RecordSnapshot(run); err != nil {
		logger.Warn("failed to record snapshot history", zap.String("key", key.String()), zap.Error(err))
	}
}

// generateCacheKey hashes the cache key for the persistent store.
func generateCacheKey(key CacheKey) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key.String())))
}
