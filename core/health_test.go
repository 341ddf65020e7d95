package core

import (
	"testing"
	"time"

	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
)

func TestCalculateHealth(t *testing.T) {
	day := 24 * time.Hour

	slow := func(records []schema.ValidationResult) []schema.ValidationResult {
		for i := range records {
			records[i].ExecutionTime = floatPtr(40000)
		}
		return records
	}

	tests := []struct {
		name            string
		records         []schema.ValidationResult
		wantScore       int
		wantGrade       schema.Grade
		wantLevels      []schema.IndicatorLevel
		wantRecommended int
	}{
		{
			name:       "all successful",
			records:    repeat("web", 10, time.Hour, schema.SuccessStatus, "a", "b", "c"),
			wantScore:  100,
			wantGrade:  schema.ExcellentGrade,
			wantLevels: []schema.IndicatorLevel{schema.SuccessLevel},
		},
		{
			name: "low success rate",
			records: append(repeat("web", 5, time.Hour, schema.SuccessStatus, "a", "b", "c"),
				repeat("web", 5, 10*time.Hour, schema.FailureStatus, "a", "b", "c")...),
			wantScore:       80,
			wantGrade:       schema.GoodGrade,
			wantLevels:      []schema.IndicatorLevel{schema.WarningLevel},
			wantRecommended: 1,
		},
		{
			name: "declining trend",
			records: append(append(repeat("web", 5, 8*day, schema.SuccessStatus, "a", "b", "c"),
				repeat("web", 4, 2*day, schema.FailureStatus, "a", "b", "c")...),
				repeat("web", 1, day, schema.SuccessStatus, "a", "b", "c")...),
			wantScore:       75,
			wantGrade:       schema.GoodGrade,
			wantLevels:      []schema.IndicatorLevel{schema.WarningLevel, schema.WarningLevel},
			wantRecommended: 2,
		},
		{
			name: "improving trend",
			records: append(append(repeat("web", 1, 9*day, schema.WarningStatus, "a", "b", "c"),
				repeat("web", 4, 8*day, schema.SuccessStatus, "a", "b", "c")...),
				repeat("web", 5, day, schema.SuccessStatus, "a", "b", "c")...),
			wantScore:  100,
			wantGrade:  schema.ExcellentGrade,
			wantLevels: []schema.IndicatorLevel{schema.SuccessLevel},
		},
		{
			name:            "low pattern variety",
			records:         repeat("web", 12, time.Hour, schema.SuccessStatus, "a"),
			wantScore:       95,
			wantGrade:       schema.ExcellentGrade,
			wantLevels:      []schema.IndicatorLevel{schema.SuccessLevel, schema.InfoLevel},
			wantRecommended: 1,
		},
		{
			name:       "variety needs more than ten records",
			records:    repeat("web", 10, time.Hour, schema.SuccessStatus, "a"),
			wantScore:  100,
			wantGrade:  schema.ExcellentGrade,
			wantLevels: []schema.IndicatorLevel{schema.SuccessLevel},
		},
		{
			name:            "slow execution",
			records:         slow(repeat("web", 3, time.Hour, schema.SuccessStatus)),
			wantScore:       90,
			wantGrade:       schema.ExcellentGrade,
			wantLevels:      []schema.IndicatorLevel{schema.SuccessLevel, schema.WarningLevel},
			wantRecommended: 1,
		},
		{
			name:            "deductions stack",
			records:         slow(repeat("web", 12, time.Hour, schema.FailureStatus)),
			wantScore:       15,
			wantGrade:       schema.PoorGrade,
			wantLevels:      []schema.IndicatorLevel{schema.WarningLevel, schema.InfoLevel, schema.WarningLevel},
			wantRecommended: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateHealth(tt.records, testNow)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantGrade, got.Overall)
			assert.Equal(t, testNow, got.LastUpdate)

			levels := make([]schema.IndicatorLevel, 0, len(got.Indicators))
			for _, ind := range got.Indicators {
				levels = append(levels, ind.Type)
			}
			assert.Equal(t, tt.wantLevels, levels)
			assert.Len(t, got.Recommendations, tt.wantRecommended)
		})
	}
}

func TestCalculateHealthEmpty(t *testing.T) {
	got := calculateHealth(nil, testNow)
	assert.Equal(t, schema.UnknownGrade, got.Overall)
	assert.Equal(t, 0, got.Score)
	assert.Empty(t, got.Indicators)
	assert.NotNil(t, got.Indicators)
	assert.Equal(t, []string{noDataRecommendation}, got.Recommendations)
}

func TestCalculateHealthScoreBounds(t *testing.T) {
	statuses := []schema.Status{schema.SuccessStatus, schema.FailureStatus, schema.WarningStatus}
	for _, s := range statuses {
		for n := 1; n <= 25; n += 6 {
			got := calculateHealth(slow3(repeat("web", n, time.Hour, s)), testNow)
			assert.GreaterOrEqual(t, got.Score, 0)
			assert.LessOrEqual(t, got.Score, 100)
		}
	}
}

func slow3(records []schema.ValidationResult) []schema.ValidationResult {
	for i := range records {
		if i%3 == 0 {
			records[i].ExecutionTime = floatPtr(90000)
		}
	}
	return records
}

func TestRecentPatternVariety(t *testing.T) {
	records := append(repeat("web", 5, 30*time.Hour, schema.SuccessStatus, "old-1", "old-2"),
		repeat("web", 20, time.Hour, schema.SuccessStatus, "new")...)
	assert.Equal(t, 1, recentPatternVariety(records, 20))
	assert.Equal(t, 3, recentPatternVariety(records, 25))
}
