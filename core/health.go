package core

import (
	"fmt"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

// Health scoring rules.
const (
	healthStartScore     = 100
	healthLowSuccessRate = 70
	healthHighSuccess    = 95
	healthDecliningCost  = 15
	diversityWindow      = 20 // most recent records inspected for pattern variety
	diversityMinPatterns = 3
	diversityMinRecords  = 10
	diversityCost        = 5
	slowExecutionMillis  = 30000.0
	slowExecutionCost    = 10
)

const noDataRecommendation = "No validation data available"

// calculateHealth derives a 0-100 score, grade, indicators and recommendations.
// Deductions stack additively and the result is floored at 0.
// Records must be sorted ascending by timestamp.
func calculateHealth(records []schema.ValidationResult, now time.Time) schema.HealthMetrics {
	if len(records) == 0 {
		return schema.HealthMetrics{
			Overall:         schema.UnknownGrade,
			Score:           0,
			Indicators:      []schema.HealthIndicator{},
			Recommendations: []string{noDataRecommendation},
			LastUpdate:      now,
		}
	}

	overview := calculateOverview(records, now)
	score := healthStartScore
	indicators := []schema.HealthIndicator{}
	recommendations := []string{}

	note := func(level schema.IndicatorLevel, msg, rec string) {
		indicators = append(indicators, schema.HealthIndicator{Type: level, Message: msg})
		if rec != "" {
			recommendations = append(recommendations, rec)
		}
	}

	switch {
	case overview.SuccessRate < healthLowSuccessRate:
		score -= healthLowSuccessRate - overview.SuccessRate
		note(schema.WarningLevel,
			fmt.Sprintf("Success rate of %d%% is below the %d%% target", overview.SuccessRate, healthLowSuccessRate),
			"Review failing patterns and address the most common failure causes")
	case overview.SuccessRate >= healthHighSuccess:
		note(schema.SuccessLevel, fmt.Sprintf("Excellent success rate of %d%%", overview.SuccessRate), "")
	}

	switch overview.Trend {
	case schema.DecliningTrend:
		score -= healthDecliningCost
		note(schema.WarningLevel, "Quality trend is declining over the last 7 days",
			"Investigate recent changes that reduced validation success")
	case schema.ImprovingTrend:
		note(schema.SuccessLevel, "Quality trend is improving over the last 7 days", "")
	}

	if distinct := recentPatternVariety(records, diversityWindow); len(records) > diversityMinRecords && distinct < diversityMinPatterns {
		score -= diversityCost
		note(schema.InfoLevel,
			fmt.Sprintf("Only %d distinct patterns used in the last %d validations", distinct, diversityWindow),
			"Diversify the pattern catalog to cover more scenarios")
	}

	if times := executionTimes(records); len(times) > 0 {
		if avg := mean(times); avg > slowExecutionMillis {
			score -= slowExecutionCost
			note(schema.WarningLevel,
				fmt.Sprintf("Average execution time of %.1fs exceeds %.0fs", avg/1000, slowExecutionMillis/1000),
				"Optimize slow validations to reduce execution time")
		}
	}

	if score < 0 {
		score = 0
	}
	return schema.HealthMetrics{
		Overall:         schema.GradeForScore(score),
		Score:           score,
		Indicators:      indicators,
		Recommendations: recommendations,
		LastUpdate:      now,
	}
}

// recentPatternVariety counts distinct pattern names in the last n records.
func recentPatternVariety(records []schema.ValidationResult, n int) int {
	start := len(records) - n
	if start < 0 {
		start = 0
	}
	seen := map[string]struct{}{}
	for _, r := range records[start:] {
		for _, p := range r.Patterns {
			seen[p.Name] = struct{}{}
		}
	}
	return len(seen)
}
