package core

import (
	"time"

	"github.com/huangsam/qmetrics/schema"
)

const (
	trendBuckets   = 10 // target bucket count; width is timeframe/10 days
	maxTrendPoints = trendBuckets + 1
	dayDuration    = 24 * time.Hour
	periodLayout   = "2006-01-02"
)

// trendBucketWidth returns the bucket width for a timeframe, at least one day.
func trendBucketWidth(days int) time.Duration {
	width := days / trendBuckets
	if width < 1 {
		width = 1
	}
	return time.Duration(width) * dayDuration
}

// calculateTrends splits the timeframe ending at now into equal buckets and
// computes an overview per bucket. Buckets cover [start, end) and are returned oldest first.
// Each bucket's trend label is evaluated relative to that bucket's end.
func calculateTrends(records []schema.ValidationResult, days int, now time.Time) []schema.TrendPoint {
	if days < 1 {
		return []schema.TrendPoint{}
	}

	width := trendBucketWidth(days)
	floor := now.Add(-time.Duration(days) * dayDuration)

	var points []schema.TrendPoint
	for end := now; end.After(floor) && len(points) < maxTrendPoints; end = end.Add(-width) {
		start := end.Add(-width)
		points = append(points, schema.TrendPoint{
			Period:      start.UTC().Format(periodLayout),
			PeriodStart: start,
			PeriodEnd:   end,
			Overview:    calculateOverview(recordsBetween(records, start, end), end),
		})
	}

	// Walked backward from now, so reverse into chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}

// recordsBetween returns records with start <= timestamp < end.
func recordsBetween(records []schema.ValidationResult, start, end time.Time) []schema.ValidationResult {
	var out []schema.ValidationResult
	for _, r := range records {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			out = append(out, r)
		}
	}
	return out
}
