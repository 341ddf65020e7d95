package core

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

// minComparableRecords is the smallest sample a project needs to be ranked.
const minComparableRecords = 5

// calculateComparative ranks every project in the full record population by quality score.
// currentProject is matched case-insensitively against project names.
func calculateComparative(all []schema.ValidationResult, currentProject string, now time.Time) schema.ComparativeMetrics {
	byProject := map[string][]schema.ValidationResult{}
	for _, r := range all {
		byProject[r.Project] = append(byProject[r.Project], r)
	}

	projects := make([]schema.ProjectComparison, 0, len(byProject))
	for name, records := range byProject {
		if len(records) < minComparableRecords {
			continue
		}
		projects = append(projects, schema.ProjectComparison{
			Name:        name,
			IsCurrent:   currentProject != "" && strings.EqualFold(name, currentProject),
			Overview:    calculateOverview(records, now),
			Performance: calculatePerformance(records),
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		if projects[i].Overview.QualityScore != projects[j].Overview.QualityScore {
			return projects[i].Overview.QualityScore > projects[j].Overview.QualityScore
		}
		return projects[i].Name < projects[j].Name
	})

	result := schema.ComparativeMetrics{
		Projects:      projects,
		TotalProjects: len(projects),
	}
	var quality, success float64
	for i := range projects {
		projects[i].Rank = i + 1
		if projects[i].IsCurrent {
			rank := i + 1
			result.CurrentProjectRank = &rank
		}
		quality += float64(projects[i].Overview.QualityScore)
		success += float64(projects[i].Overview.SuccessRate)
	}
	if n := float64(len(projects)); n > 0 {
		result.IndustryAverage = schema.IndustryAverage{
			QualityScore: int(math.Round(quality / n)),
			SuccessRate:  int(math.Round(success / n)),
		}
	}
	return result
}
