package core

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/qmetrics/internal/iocache"
	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeResultStore serves records from memory and counts loads.
type fakeResultStore struct {
	records []schema.ValidationResult
	err     error
	gate    chan struct{} // when set, Load blocks until it is closed
	loads   atomic.Int32
}

func (s *fakeResultStore) Load(_ context.Context, project string, cutoff time.Time) ([]schema.ValidationResult, error) {
	s.loads.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	var out []schema.ValidationResult
	for _, r := range s.records {
		if schema.MatchesProject(r.Project, project) && !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeResultStore) LoadAll(context.Context) ([]schema.ValidationResult, error) {
	return s.records, s.err
}

func (s *fakeResultStore) Status(context.Context) (schema.StoreStatus, error) {
	return schema.StoreStatus{Backend: "memory", TotalRecords: len(s.records)}, nil
}

func (s *fakeResultStore) Close() error { return nil }

type fakeCatalog struct {
	stats map[schema.PatternScope]schema.LibraryStat
	err   error
}

func (c fakeCatalog) LibraryStats(context.Context) (map[schema.PatternScope]schema.LibraryStat, error) {
	return c.stats, c.err
}

func sampleRecords() []schema.ValidationResult {
	var records []schema.ValidationResult
	records = append(records, repeat("web-app", 7, time.Hour, schema.SuccessStatus, "retry")...)
	records = append(records, repeat("web-app", 2, 10*time.Hour, schema.WarningStatus, "retry")...)
	records = append(records, repeat("web-app", 1, 20*time.Hour, schema.FailureStatus, "a11y")...)
	records = append(records, repeat("api", 5, 40*24*time.Hour, schema.FailureStatus)...)
	return records
}

func newTestOrchestrator(results *fakeResultStore, clock *fakeClock, opts ...Option) *Orchestrator {
	catalog := fakeCatalog{stats: map[schema.PatternScope]schema.LibraryStat{
		schema.BackendScope: {Count: 12, Version: "2.1.0"},
	}}
	return NewOrchestrator(results, catalog, NewCache(5*time.Minute, clock.Now), opts...)
}

func TestOrchestratorSnapshot(t *testing.T) {
	results := &fakeResultStore{records: sampleRecords()}
	clock := &fakeClock{now: testNow}
	orch := newTestOrchestrator(results, clock)
	ctx := context.Background()

	snap, err := orch.Snapshot(ctx, "web", 30)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Overview.TotalValidations)
	assert.Equal(t, 70, snap.Overview.SuccessRate)
	assert.Equal(t, 80, snap.Overview.QualityScore)
	assert.Equal(t, "web", snap.Project)
	assert.Equal(t, 30, snap.Timeframe)
	assert.Equal(t, testNow, snap.Timestamp)
	assert.Len(t, snap.Trends, 10)
	assert.Equal(t, schema.LibraryStat{Count: 12, Version: "2.1.0"}, snap.Patterns.LibraryStats[schema.BackendScope])
	// Comparison spans every project, including ones outside the timeframe.
	assert.Equal(t, 2, snap.Comparative.TotalProjects)
	assert.Nil(t, snap.Comparative.CurrentProjectRank)

	clock.Advance(4 * time.Minute)
	again, err := orch.Snapshot(ctx, "web", 30)
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, int32(1), results.loads.Load())

	other, err := orch.Snapshot(ctx, "web", 7)
	require.NoError(t, err)
	assert.NotSame(t, snap, other)
	assert.Equal(t, int32(2), results.loads.Load())

	clock.Advance(2 * time.Minute)
	fresh, err := orch.Snapshot(ctx, "web", 30)
	require.NoError(t, err)
	assert.NotSame(t, snap, fresh)
	assert.Equal(t, testNow.Add(6*time.Minute), fresh.Timestamp)
	assert.Equal(t, int32(3), results.loads.Load())
}

func TestOrchestratorSharesConcurrentComputation(t *testing.T) {
	results := &fakeResultStore{records: sampleRecords(), gate: make(chan struct{})}
	orch := newTestOrchestrator(results, &fakeClock{now: testNow})

	var wg sync.WaitGroup
	snaps := make([]*schema.MetricsSnapshot, 8)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := orch.Snapshot(context.Background(), "", 30)
			assert.NoError(t, err)
			snaps[i] = snap
		}(i)
	}
	// Let the callers pile up behind the first load.
	time.Sleep(50 * time.Millisecond)
	close(results.gate)
	wg.Wait()

	assert.Equal(t, int32(1), results.loads.Load())
	for _, s := range snaps[1:] {
		assert.Same(t, snaps[0], s)
	}
}

func TestOrchestratorLoadError(t *testing.T) {
	results := &fakeResultStore{err: errors.New("disk gone")}
	orch := newTestOrchestrator(results, &fakeClock{now: testNow})

	_, err := orch.Quality(context.Background(), "", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Equal(t, 0, orch.CacheStats().Size)
}

func TestOrchestratorCatalogFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	results := &fakeResultStore{records: sampleRecords()}
	orch := NewOrchestrator(results, fakeCatalog{err: errors.New("bad yaml")},
		NewCache(time.Minute, func() time.Time { return testNow }), WithLogger(zap.New(core)))

	metrics, err := orch.Patterns(context.Background(), "", 30, "")
	require.NoError(t, err)
	assert.Len(t, metrics.LibraryStats, len(schema.AllPatternScopes))
	for _, stat := range metrics.LibraryStats {
		assert.Equal(t, schema.LibraryStat{}, stat)
	}
	assert.Equal(t, 1, logs.FilterMessage("failed to read pattern catalog").Len())
}

func TestOrchestratorQueries(t *testing.T) {
	results := &fakeResultStore{records: sampleRecords()}
	orch := newTestOrchestrator(results, &fakeClock{now: testNow})
	ctx := context.Background()

	trends, err := orch.Trends(ctx, "web-app", 30)
	require.NoError(t, err)
	assert.Len(t, trends.Trends, 10)
	assert.Equal(t, 80, trends.Overview.QualityScore)

	health, err := orch.Health(ctx, "web-app", 30)
	require.NoError(t, err)
	assert.Equal(t, 80, health.OverviewSummary.QualityScore)
	assert.Equal(t, 100, health.Health.Score)

	patterns, err := orch.Patterns(ctx, "web-app", 30, schema.FrontendScope)
	require.NoError(t, err)
	assert.Empty(t, patterns.PatternUsage)
	assert.Equal(t, 0, patterns.TotalPatterns)

	patterns, err = orch.Patterns(ctx, "web-app", 30, schema.BackendScope)
	require.NoError(t, err)
	assert.Len(t, patterns.PatternUsage, 2)

	perf, err := orch.Performance(ctx, "web-app", 30)
	require.NoError(t, err)
	assert.Equal(t, 0, perf.AverageExecutionTime)

	comp, err := orch.Comparative(ctx, "web-app", 30)
	require.NoError(t, err)
	require.NotNil(t, comp.CurrentProjectRank)
	assert.Equal(t, 1, *comp.CurrentProjectRank)

	status, err := orch.ResultStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, status.TotalRecords)

	// Every query above shares one cached snapshot.
	assert.Equal(t, int32(1), results.loads.Load())
	assert.Equal(t, []string{"web-app:30"}, orch.CacheStats().Keys)
}

func TestOrchestratorClearCache(t *testing.T) {
	results := &fakeResultStore{records: sampleRecords()}
	snapshots := &iocache.MockCacheStore{}
	snapshots.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))
	snapshots.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)
	snapshots.On("Clear").Return(nil).Once()
	orch := newTestOrchestrator(results, &fakeClock{now: testNow}, WithSnapshotStore(snapshots))

	_, err := orch.Quality(context.Background(), "", 30)
	require.NoError(t, err)

	result := orch.ClearCache()
	assert.Greater(t, result.Before.Size, 0)
	assert.Equal(t, 0, result.After.Size)
	snapshots.AssertExpectations(t)
}

func TestOrchestratorClearDuringCompute(t *testing.T) {
	results := &fakeResultStore{records: sampleRecords(), gate: make(chan struct{})}
	snapshots := &iocache.MockCacheStore{}
	snapshots.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("miss"))
	snapshots.On("Clear").Return(nil).Once()
	orch := newTestOrchestrator(results, &fakeClock{now: testNow}, WithSnapshotStore(snapshots))

	done := make(chan error, 1)
	go func() {
		_, err := orch.Snapshot(context.Background(), "web-app", 30)
		done <- err
	}()
	require.Eventually(t, func() bool { return results.loads.Load() == 1 }, time.Second, time.Millisecond)

	orch.ClearCache()
	close(results.gate)
	require.NoError(t, <-done)

	// The snapshot computed before the clear is served once but never cached.
	assert.Equal(t, 0, orch.CacheStats().Size)
	snapshots.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	snapshots.AssertExpectations(t)

	snapshots.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil).Once()
	_, err := orch.Snapshot(context.Background(), "web-app", 30)
	require.NoError(t, err)
	assert.Equal(t, int32(2), results.loads.Load())
	assert.Equal(t, 1, orch.CacheStats().Size)
}

func TestOrchestratorPersistentCache(t *testing.T) {
	key := generateCacheKey(NewCacheKey("web-app", 30))

	t.Run("miss computes and stores", func(t *testing.T) {
		results := &fakeResultStore{records: sampleRecords()}
		snapshots := &iocache.MockCacheStore{}
		snapshots.On("Get", key).Return(nil, 0, int64(0), errors.New("miss")).Once()
		snapshots.On("Set", key, mock.Anything, currentCacheVersion, testNow.UnixMilli()).Return(nil).Once()
		orch := newTestOrchestrator(results, &fakeClock{now: testNow}, WithSnapshotStore(snapshots))

		_, err := orch.Snapshot(context.Background(), "web-app", 30)
		require.NoError(t, err)
		assert.Equal(t, int32(1), results.loads.Load())
		snapshots.AssertExpectations(t)
	})

	t.Run("fresh hit skips computation", func(t *testing.T) {
		stored := persistedSnapshot{
			Snapshot: &schema.MetricsSnapshot{Project: "web-app", Timeframe: 30, Overview: schema.Overview{QualityScore: 42}},
			PatternStats: []schema.PatternStat{
				{Name: "a11y", Scope: schema.FrontendScope, UsageCount: 4, Successes: 4, Effectiveness: 100},
				{Name: "retry", Scope: schema.BackendScope, UsageCount: 9, Successes: 7, Effectiveness: 88},
			},
		}
		data, err := json.Marshal(stored)
		require.NoError(t, err)

		results := &fakeResultStore{records: sampleRecords()}
		snapshots := &iocache.MockCacheStore{}
		computedAt := testNow.Add(-time.Minute)
		snapshots.On("Get", key).Return(data, currentCacheVersion, computedAt.UnixMilli(), nil).Once()
		orch := newTestOrchestrator(results, &fakeClock{now: testNow}, WithSnapshotStore(snapshots))

		snap, err := orch.Snapshot(context.Background(), "web-app", 30)
		require.NoError(t, err)
		assert.Equal(t, 42, snap.Overview.QualityScore)
		assert.Len(t, snap.PatternStats, 2)

		// Scoped rankings are rebuilt from the restored per-pattern stats.
		frontend, err := orch.Patterns(context.Background(), "web-app", 30, schema.FrontendScope)
		require.NoError(t, err)
		assert.Equal(t, []string{"a11y"}, names(frontend.PatternUsage))
		assert.Equal(t, 1, frontend.TotalPatterns)

		assert.Equal(t, int32(0), results.loads.Load())
		snapshots.AssertExpectations(t)
	})

	t.Run("stale or old version recomputes", func(t *testing.T) {
		data, err := json.Marshal(persistedSnapshot{Snapshot: &schema.MetricsSnapshot{}})
		require.NoError(t, err)

		for _, tc := range []struct {
			name    string
			version int
			age     time.Duration
		}{
			{"stale", currentCacheVersion, 10 * time.Minute},
			{"old version", currentCacheVersion + 1, time.Minute},
		} {
			t.Run(tc.name, func(t *testing.T) {
				results := &fakeResultStore{records: sampleRecords()}
				snapshots := &iocache.MockCacheStore{}
				snapshots.On("Get", key).Return(data, tc.version, testNow.Add(-tc.age).UnixMilli(), nil).Once()
				snapshots.On("Set", key, mock.Anything, currentCacheVersion, testNow.UnixMilli()).Return(nil).Once()
				orch := newTestOrchestrator(results, &fakeClock{now: testNow}, WithSnapshotStore(snapshots))

				snap, err := orch.Snapshot(context.Background(), "web-app", 30)
				require.NoError(t, err)
				assert.Equal(t, 80, snap.Overview.QualityScore)
				assert.Equal(t, int32(1), results.loads.Load())
			})
		}
	})

	t.Run("store failure is logged", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		results := &fakeResultStore{records: sampleRecords()}
		snapshots := &iocache.MockCacheStore{}
		snapshots.On("Get", key).Return(nil, 0, int64(0), errors.New("miss"))
		snapshots.On("Set", key, mock.Anything, currentCacheVersion, mock.Anything).Return(errors.New("read only"))
		orch := newTestOrchestrator(results, &fakeClock{now: testNow},
			WithSnapshotStore(snapshots), WithLogger(zap.New(core)))

		_, err := orch.Snapshot(context.Background(), "web-app", 30)
		require.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("failed to persist snapshot").Len())
	})
}

func TestOrchestratorHistory(t *testing.T) {
	t.Run("records computed snapshots", func(t *testing.T) {
		history := &iocache.MockHistoryStore{}
		history.On("RecordSnapshot", mock.MatchedBy(func(run schema.SnapshotRun) bool {
			return run.Project == "web-app" && run.Timeframe == 30 &&
				run.QualityScore == 80 && run.ComputedAt.Equal(testNow)
		})).Return(int64(1), nil).Once()

		orch := newTestOrchestrator(&fakeResultStore{records: sampleRecords()}, &fakeClock{now: testNow},
			WithHistoryStore(history))
		_, err := orch.Snapshot(context.Background(), "web-app", 30)
		require.NoError(t, err)
		_, err = orch.Snapshot(context.Background(), "web-app", 30)
		require.NoError(t, err)
		history.AssertExpectations(t)
	})

	t.Run("failure does not fail the request", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		history := &iocache.MockHistoryStore{}
		history.On("RecordSnapshot", mock.Anything).Return(int64(0), errors.New("locked"))

		orch := newTestOrchestrator(&fakeResultStore{records: sampleRecords()}, &fakeClock{now: testNow},
			WithHistoryStore(history), WithLogger(zap.New(core)))
		snap, err := orch.Snapshot(context.Background(), "", 30)
		require.NoError(t, err)
		assert.NotNil(t, snap)

		entries := logs.FilterMessage("failed to record snapshot history").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "global:30", entries[0].ContextMap()["key"])
	})
}
