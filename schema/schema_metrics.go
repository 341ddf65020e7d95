package schema

import "time"

// StatusBreakdown holds raw per-status counts.
type StatusBreakdown struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Warning int `json:"warning"`
}

// Overview holds the aggregate rates for a set of records.
type Overview struct {
	TotalValidations int             `json:"totalValidations"`
	SuccessRate      int             `json:"successRate"`
	FailureRate      int             `json:"failureRate"`
	WarningRate      int             `json:"warningRate"`
	QualityScore     int             `json:"qualityScore"`
	Trend            TrendLabel      `json:"trend"`
	Breakdown        StatusBreakdown `json:"breakdown"`
}

// TrendPoint is the overview of one bucket in the timeframe.
type TrendPoint struct {
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	Overview
}

// PatternStat holds the effectiveness of a single pattern.
type PatternStat struct {
	Name              string       `json:"name"`
	Scope             PatternScope `json:"scope"`
	UsageCount        int          `json:"usageCount"`
	Successes         int          `json:"successes"`
	Failures          int          `json:"failures"`
	Warnings          int          `json:"warnings"`
	AverageConfidence float64      `json:"averageConfidence"`
	Effectiveness     int          `json:"effectiveness"`
	SuccessRate       int          `json:"successRate"`
	Grade             Grade        `json:"grade"`
}

// ScopeSummary holds totals for all patterns observed in one scope.
type ScopeSummary struct {
	Patterns             int `json:"patterns"`
	AverageEffectiveness int `json:"averageEffectiveness"`
}

// PatternMetrics holds the pattern effectiveness rankings.
type PatternMetrics struct {
	PatternUsage         []PatternStat                 `json:"patternUsage"`
	MostEffective        []PatternStat                 `json:"mostEffective"`
	LeastEffective       []PatternStat                 `json:"leastEffective"`
	LibraryStats         map[PatternScope]LibraryStat  `json:"libraryStats"`
	TotalPatterns        int                           `json:"totalPatterns"`
	AverageEffectiveness int                           `json:"averageEffectiveness"`
	ByScope              map[PatternScope]ScopeSummary `json:"byScope"`
}

// PerformanceMetrics holds execution time and throughput statistics.
type PerformanceMetrics struct {
	AverageExecutionTime int     `json:"averageExecutionTime"`
	MedianExecutionTime  int     `json:"medianExecutionTime"`
	MaxExecutionTime     int     `json:"maxExecutionTime"`
	MinExecutionTime     int     `json:"minExecutionTime"`
	AverageTestCount     int     `json:"averageTestCount"`
	TotalTestsExecuted   int     `json:"totalTestsExecuted"`
	Throughput           float64 `json:"throughput"` // records per hour
}

// HealthIndicator is one observation that contributed to the health score.
type HealthIndicator struct {
	Type    IndicatorLevel `json:"type"`
	Message string         `json:"message"`
}

// HealthMetrics holds the composite health score.
type HealthMetrics struct {
	Overall         Grade             `json:"overall"`
	Score           int               `json:"score"`
	Indicators      []HealthIndicator `json:"indicators"`
	Recommendations []string          `json:"recommendations"`
	LastUpdate      time.Time         `json:"lastUpdate"`
}

// ProjectComparison is one ranked project.
type ProjectComparison struct {
	Name        string             `json:"name"`
	Rank        int                `json:"rank"`
	IsCurrent   bool               `json:"isCurrent"`
	Overview    Overview           `json:"overview"`
	Performance PerformanceMetrics `json:"performance"`
}

// IndustryAverage is the unweighted mean across ranked projects.
type IndustryAverage struct {
	QualityScore int `json:"qualityScore"`
	SuccessRate  int `json:"successRate"`
}

// ComparativeMetrics ranks every project with enough records.
type ComparativeMetrics struct {
	Projects           []ProjectComparison `json:"projects"`
	TotalProjects      int                 `json:"totalProjects"`
	CurrentProjectRank *int                `json:"currentProjectRank"`
	IndustryAverage    IndustryAverage     `json:"industryAverage"`
}

// MetricsSnapshot is the full set of derived metrics for one query.
type MetricsSnapshot struct {
	Overview    Overview           `json:"overview"`
	Trends      []TrendPoint       `json:"trends"`
	Patterns    PatternMetrics     `json:"patterns"`
	Performance PerformanceMetrics `json:"performance"`
	Health      HealthMetrics      `json:"health"`
	Comparative ComparativeMetrics `json:"comparative"`
	Timestamp   time.Time          `json:"timestamp"`
	Project     string             `json:"project,omitempty"`
	Timeframe   int                `json:"timeframe"`

	// PatternStats holds every observed pattern in name order. It backs
	// scope-filtered rankings and is not part of the query output.
	PatternStats []PatternStat `json:"-"`
}

// TrendsResult is returned by the trends query.
type TrendsResult struct {
	Trends   []TrendPoint `json:"trends"`
	Overview Overview     `json:"overview"`
}

// OverviewSummary is the short overview attached to the health query.
type OverviewSummary struct {
	TotalValidations int        `json:"totalValidations"`
	SuccessRate      int        `json:"successRate"`
	QualityScore     int        `json:"qualityScore"`
	Trend            TrendLabel `json:"trend"`
}

// HealthResult is returned by the health query.
type HealthResult struct {
	Health          HealthMetrics   `json:"health"`
	OverviewSummary OverviewSummary `json:"overviewSummary"`
}

// CacheStats describes the in-memory snapshot cache.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// ClearCacheResult is returned when the cache is purged.
type ClearCacheResult struct {
	Before CacheStats `json:"before"`
	After  CacheStats `json:"after"`
}
