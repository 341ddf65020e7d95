package core

import (
	"math"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

const (
	trendWindow       = 7 * 24 * time.Hour // recent window compared against the one before it
	trendMinSamples   = 5                  // fewer records in either window means stable
	trendDiffCutoff   = 0.05               // success-rate delta needed to call a direction
	halfCreditWarning = 0.5                // warnings count as half a success
)

// roundPercent returns part/total as a rounded percentage, or 0 for an empty total.
func roundPercent(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

// countStatuses tallies records per status.
func countStatuses(records []schema.ValidationResult) schema.StatusBreakdown {
	var b schema.StatusBreakdown
	for _, r := range records {
		switch r.Status {
		case schema.SuccessStatus:
			b.Success++
		case schema.FailureStatus:
			b.Failure++
		case schema.WarningStatus:
			b.Warning++
		}
	}
	return b
}

// qualityCredit is the success-weighted count used by quality score and effectiveness.
func qualityCredit(successes, warnings int) float64 {
	return float64(successes) + float64(warnings)*halfCreditWarning
}

// calculateOverview computes aggregate rates, the quality score and the 7-day trend.
// The trend is evaluated relative to now.
func calculateOverview(records []schema.ValidationResult, now time.Time) schema.Overview {
	total := len(records)
	if total == 0 {
		return schema.Overview{Trend: schema.StableTrend}
	}

	b := countStatuses(records)
	n := float64(total)
	return schema.Overview{
		TotalValidations: total,
		SuccessRate:      roundPercent(float64(b.Success), n),
		FailureRate:      roundPercent(float64(b.Failure), n),
		WarningRate:      roundPercent(float64(b.Warning), n),
		QualityScore:     roundPercent(qualityCredit(b.Success, b.Warning), n),
		Trend:            calculateTrend(records, now),
		Breakdown:        b,
	}
}

// calculateTrend compares the success rate of the last 7 days against the 7 days before.
func calculateTrend(records []schema.ValidationResult, now time.Time) schema.TrendLabel {
	recentStart := now.Add(-trendWindow)
	previousStart := recentStart.Add(-trendWindow)

	var recent, previous, recentOK, previousOK int
	for _, r := range records {
		switch {
		case !r.Timestamp.Before(recentStart):
			recent++
			if r.Status == schema.SuccessStatus {
				recentOK++
			}
		case !r.Timestamp.Before(previousStart):
			previous++
			if r.Status == schema.SuccessStatus {
				previousOK++
			}
		}
	}
	return classifyTrend(recent, recentOK, previous, previousOK)
}

// classifyTrend labels the change between two windows' success rates.
func classifyTrend(recent, recentOK, previous, previousOK int) schema.TrendLabel {
	if recent < trendMinSamples || previous < trendMinSamples {
		return schema.StableTrend
	}
	diff := float64(recentOK)/float64(recent) - float64(previousOK)/float64(previous)
	switch {
	case diff > trendDiffCutoff:
		return schema.ImprovingTrend
	case diff < -trendDiffCutoff:
		return schema.DecliningTrend
	default:
		return schema.StableTrend
	}
}
