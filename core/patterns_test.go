package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePatternsEffectiveness(t *testing.T) {
	var records []schema.ValidationResult
	records = append(records, repeat("web", 4, time.Hour, schema.SuccessStatus, "retry-with-backoff")...)
	records = append(records, newRecord("web", 10*time.Hour, schema.FailureStatus, "retry-with-backoff"))

	confidences := []float64{0.9, 0.8, 0.85, 0.7, 1.0}
	for i := range records {
		records[i].Patterns[0].Confidence = confidences[i]
	}

	got := calculatePatterns(records, nil)
	require.Len(t, got.PatternUsage, 1)

	stat := got.PatternUsage[0]
	assert.Equal(t, "retry-with-backoff", stat.Name)
	assert.Equal(t, schema.BackendScope, stat.Scope)
	assert.Equal(t, 5, stat.UsageCount)
	assert.Equal(t, 4, stat.Successes)
	assert.Equal(t, 1, stat.Failures)
	assert.Equal(t, 80, stat.Effectiveness)
	assert.Equal(t, 80, stat.SuccessRate)
	assert.Equal(t, schema.GoodGrade, stat.Grade)
	assert.InDelta(t, 0.85, stat.AverageConfidence, 0.001)

	assert.Equal(t, 1, got.TotalPatterns)
	assert.Equal(t, 80, got.AverageEffectiveness)
	assert.Equal(t, schema.ScopeSummary{Patterns: 1, AverageEffectiveness: 80}, got.ByScope[schema.BackendScope])
	assert.Equal(t, schema.ScopeSummary{}, got.ByScope[schema.FrontendScope])
	assert.NotNil(t, got.LibraryStats)
}

func TestCalculatePatternsRankings(t *testing.T) {
	var records []schema.ValidationResult
	// "alpha": 3 uses, all failures.
	records = append(records, repeat("web", 3, time.Hour, schema.FailureStatus, "alpha")...)
	// "beta": 4 uses, all successes.
	records = append(records, repeat("web", 4, 10*time.Hour, schema.SuccessStatus, "beta")...)
	// "gamma": 2 uses, all successes; ties beta on effectiveness with fewer uses.
	records = append(records, repeat("web", 2, 20*time.Hour, schema.SuccessStatus, "gamma")...)
	// "delta": 2 uses, all failures; too few uses to rank as least effective.
	records = append(records, repeat("web", 2, 30*time.Hour, schema.FailureStatus, "delta")...)

	got := calculatePatterns(records, nil)

	usage := names(got.PatternUsage)
	assert.Equal(t, []string{"beta", "alpha", "delta", "gamma"}, usage)

	assert.Equal(t, []string{"beta", "gamma", "alpha", "delta"}, names(got.MostEffective))
	assert.Equal(t, []string{"alpha", "beta"}, names(got.LeastEffective))
	assert.Equal(t, 50, got.AverageEffectiveness)
}

func TestCalculatePatternsLimits(t *testing.T) {
	var records []schema.ValidationResult
	for i := range 25 {
		name := fmt.Sprintf("pattern-%02d", i)
		records = append(records, repeat("web", 3, time.Duration(i)*10*time.Hour, schema.FailureStatus, name)...)
	}

	got := calculatePatterns(records, nil)
	assert.Equal(t, 25, got.TotalPatterns)
	assert.Len(t, got.PatternUsage, topUsageLimit)
	assert.Len(t, got.MostEffective, mostEffectiveLimit)
	assert.Len(t, got.LeastEffective, leastEffectiveLimit)
	// Equal usage keeps name order.
	assert.Equal(t, "pattern-00", got.PatternUsage[0].Name)
}

func TestCalculatePatternsScopeAndLibrary(t *testing.T) {
	records := []schema.ValidationResult{
		{Status: schema.SuccessStatus, Patterns: []schema.PatternRef{{Name: "a11y", Confidence: 0.5}}},
		{Status: schema.WarningStatus, Patterns: []schema.PatternRef{{Name: "a11y", Scope: schema.FrontendScope, Confidence: 0.5}}},
	}
	library := map[schema.PatternScope]schema.LibraryStat{
		schema.FrontendScope: {Count: 7, Version: "2.1.0"},
	}

	got := calculatePatterns(records, library)
	require.Len(t, got.PatternUsage, 1)
	assert.Equal(t, schema.FrontendScope, got.PatternUsage[0].Scope)
	assert.Equal(t, 75, got.PatternUsage[0].Effectiveness)
	assert.Equal(t, library, got.LibraryStats)
}

func TestCalculatePatternsEmpty(t *testing.T) {
	got := calculatePatterns(nil, nil)
	assert.Empty(t, got.PatternUsage)
	assert.Empty(t, got.MostEffective)
	assert.Empty(t, got.LeastEffective)
	assert.Equal(t, 0, got.TotalPatterns)
	assert.Len(t, got.ByScope, len(schema.AllPatternScopes))
}

func TestScopedPatterns(t *testing.T) {
	var records []schema.ValidationResult
	for i := range 25 {
		name := fmt.Sprintf("shared-%02d", i)
		batch := repeat("web", 5, time.Duration(i)*10*time.Hour, schema.SuccessStatus, name)
		for j := range batch {
			batch[j].Patterns[0].Scope = schema.UniversalScope
		}
		records = append(records, batch...)
	}
	// A backend pattern with fewer uses than every universal one.
	records = append(records, repeat("web", 3, 400*time.Hour, schema.FailureStatus, "retry-with-backoff")...)

	stats := patternStats(records)
	library := map[schema.PatternScope]schema.LibraryStat{
		schema.BackendScope:   {Count: 12, Version: "2.1.0"},
		schema.FrontendScope:  {Count: 7, Version: "2.1.0"},
		schema.UniversalScope: {Count: 30, Version: "2.1.0"},
	}

	overall := rankPatterns(stats, library)
	require.Len(t, overall.PatternUsage, topUsageLimit)
	assert.NotContains(t, names(overall.PatternUsage), "retry-with-backoff")

	tests := []struct {
		name      string
		scope     schema.PatternScope
		usage     int
		most      int
		least     []string
		total     int
		effective int
	}{
		{"backend outside overall top lists", schema.BackendScope, 1, 1, []string{"retry-with-backoff"}, 1, 0},
		{"universal is still capped", schema.UniversalScope, topUsageLimit, mostEffectiveLimit,
			[]string{"shared-00", "shared-01", "shared-02", "shared-03", "shared-04"}, 25, 100},
		{"frontend without patterns", schema.FrontendScope, 0, 0, []string{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scopedPatterns(stats, library, tt.scope)
			assert.Len(t, got.PatternUsage, tt.usage)
			assert.Len(t, got.MostEffective, tt.most)
			assert.Equal(t, tt.least, names(got.LeastEffective))
			assert.Equal(t, tt.total, got.TotalPatterns)
			assert.Equal(t, tt.effective, got.AverageEffectiveness)
			assert.Equal(t, map[schema.PatternScope]schema.LibraryStat{tt.scope: library[tt.scope]}, got.LibraryStats)
			require.Len(t, got.ByScope, 1)
			assert.Equal(t, tt.total, got.ByScope[tt.scope].Patterns)
		})
	}
}

func names(stats []schema.PatternStat) []string {
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Name)
	}
	return out
}
