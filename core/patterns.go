package core

import (
	"math"
	"sort"

	"github.com/huangsam/qmetrics/schema"
)

const (
	topUsageLimit          = 20
	mostEffectiveLimit     = 10
	leastEffectiveLimit    = 5
	leastEffectiveMinUsage = 3
)

// patternAccumulator folds the usage of one pattern across records.
type patternAccumulator struct {
	name          string
	scope         schema.PatternScope
	usage         int
	successes     int
	failures      int
	warnings      int
	avgConfidence float64
}

func (a *patternAccumulator) add(ref schema.PatternRef, status schema.Status) {
	a.usage++
	switch status {
	case schema.SuccessStatus:
		a.successes++
	case schema.FailureStatus:
		a.failures++
	case schema.WarningStatus:
		a.warnings++
	}
	n := float64(a.usage)
	a.avgConfidence = (a.avgConfidence*(n-1) + ref.Confidence) / n
	if a.scope == "" && ref.Scope != "" {
		a.scope = ref.Scope
	}
}

func (a *patternAccumulator) stat() schema.PatternStat {
	effectiveness := roundPercent(qualityCredit(a.successes, a.warnings), float64(a.usage))
	return schema.PatternStat{
		Name:              a.name,
		Scope:             a.scope,
		UsageCount:        a.usage,
		Successes:         a.successes,
		Failures:          a.failures,
		Warnings:          a.warnings,
		AverageConfidence: math.Round(a.avgConfidence*100) / 100,
		Effectiveness:     effectiveness,
		SuccessRate:       roundPercent(float64(a.successes), float64(a.usage)),
		Grade:             schema.GradeForScore(effectiveness),
	}
}

// calculatePatterns ranks patterns by usage and effectiveness.
// libraryStats comes from the pattern catalog and is passed through unchanged.
func calculatePatterns(records []schema.ValidationResult, libraryStats map[schema.PatternScope]schema.LibraryStat) schema.PatternMetrics {
	return rankPatterns(patternStats(records), libraryStats)
}

// patternStats folds records into one stat per pattern name, in name order.
func patternStats(records []schema.ValidationResult) []schema.PatternStat {
	accs := map[string]*patternAccumulator{}
	for _, r := range records {
		for _, ref := range r.Patterns {
			acc, ok := accs[ref.Name]
			if !ok {
				acc = &patternAccumulator{name: ref.Name}
				accs[ref.Name] = acc
			}
			acc.add(ref, r.Status)
		}
	}

	stats := make([]schema.PatternStat, 0, len(accs))
	for _, acc := range accs {
		stats = append(stats, acc.stat())
	}
	// Map iteration is random, so settle on name order before ranking.
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// rankPatterns builds the capped rankings and summaries from complete per-pattern stats.
func rankPatterns(stats []schema.PatternStat, libraryStats map[schema.PatternScope]schema.LibraryStat) schema.PatternMetrics {
	if libraryStats == nil {
		libraryStats = map[schema.PatternScope]schema.LibraryStat{}
	}
	return schema.PatternMetrics{
		PatternUsage:         topByUsage(stats, topUsageLimit),
		MostEffective:        mostEffective(stats, mostEffectiveLimit),
		LeastEffective:       leastEffective(stats, leastEffectiveLimit, leastEffectiveMinUsage),
		LibraryStats:         libraryStats,
		TotalPatterns:        len(stats),
		AverageEffectiveness: averageEffectiveness(stats),
		ByScope:              summarizeScopes(stats),
	}
}

// scopedPatterns ranks only the patterns of one scope. Ranking happens after
// filtering so in-scope patterns outside the overall top lists still show up.
func scopedPatterns(all []schema.PatternStat, libraryStats map[schema.PatternScope]schema.LibraryStat, scope schema.PatternScope) schema.PatternMetrics {
	inScope := make([]schema.PatternStat, 0, len(all))
	for _, s := range all {
		if s.Scope == scope {
			inScope = append(inScope, s)
		}
	}

	library := map[schema.PatternScope]schema.LibraryStat{}
	if stat, ok := libraryStats[scope]; ok {
		library[scope] = stat
	}
	m := rankPatterns(inScope, library)
	m.ByScope = map[schema.PatternScope]schema.ScopeSummary{scope: m.ByScope[scope]}
	return m
}

func topByUsage(stats []schema.PatternStat, limit int) []schema.PatternStat {
	ranked := make([]schema.PatternStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UsageCount > ranked[j].UsageCount
	})
	return truncate(ranked, limit)
}

func mostEffective(stats []schema.PatternStat, limit int) []schema.PatternStat {
	ranked := make([]schema.PatternStat, len(stats))
	copy(ranked, stats)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Effectiveness != ranked[j].Effectiveness {
			return ranked[i].Effectiveness > ranked[j].Effectiveness
		}
		return ranked[i].UsageCount > ranked[j].UsageCount
	})
	return truncate(ranked, limit)
}

// leastEffective excludes patterns used fewer than minUsage times.
func leastEffective(stats []schema.PatternStat, limit, minUsage int) []schema.PatternStat {
	ranked := make([]schema.PatternStat, 0, len(stats))
	for _, s := range stats {
		if s.UsageCount >= minUsage {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Effectiveness != ranked[j].Effectiveness {
			return ranked[i].Effectiveness < ranked[j].Effectiveness
		}
		return ranked[i].UsageCount > ranked[j].UsageCount
	})
	return truncate(ranked, limit)
}

func averageEffectiveness(stats []schema.PatternStat) int {
	if len(stats) == 0 {
		return 0
	}
	sum := 0
	for _, s := range stats {
		sum += s.Effectiveness
	}
	return int(math.Round(float64(sum) / float64(len(stats))))
}

// summarizeScopes totals observed patterns per known scope.
func summarizeScopes(stats []schema.PatternStat) map[schema.PatternScope]schema.ScopeSummary {
	grouped := map[schema.PatternScope][]schema.PatternStat{}
	for _, s := range stats {
		if _, ok := schema.ValidPatternScopes[s.Scope]; ok {
			grouped[s.Scope] = append(grouped[s.Scope], s)
		}
	}
	out := make(map[schema.PatternScope]schema.ScopeSummary, len(schema.AllPatternScopes))
	for _, scope := range schema.AllPatternScopes {
		out[scope] = schema.ScopeSummary{
			Patterns:             len(grouped[scope]),
			AverageEffectiveness: averageEffectiveness(grouped[scope]),
		}
	}
	return out
}

func truncate(stats []schema.PatternStat, limit int) []schema.PatternStat {
	if len(stats) > limit {
		return stats[:limit]
	}
	return stats
}
