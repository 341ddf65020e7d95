package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

// sampleSnapshot returns a small but fully populated snapshot.
func sampleSnapshot() *schema.MetricsSnapshot {
	rank := 1
	overview := schema.Overview{
		TotalValidations: 10,
		SuccessRate:      70,
		FailureRate:      10,
		WarningRate:      20,
		QualityScore:     80,
		Trend:            schema.StableTrend,
		Breakdown:        schema.StatusBreakdown{Success: 7, Failure: 1, Warning: 2},
	}
	return &schema.MetricsSnapshot{
		Overview: overview,
		Trends: []schema.TrendPoint{
			{
				Period:      "2024-06-27",
				PeriodStart: testNow.Add(-72 * time.Hour),
				PeriodEnd:   testNow,
				Overview:    overview,
			},
		},
		Patterns: schema.PatternMetrics{
			PatternUsage: []schema.PatternStat{
				{Name: "retry-with-backoff", Scope: schema.BackendScope, UsageCount: 5, Successes: 4, Failures: 1, AverageConfidence: 0.85, Effectiveness: 80, SuccessRate: 80, Grade: schema.GoodGrade},
			},
			MostEffective: []schema.PatternStat{
				{Name: "retry-with-backoff", Scope: schema.BackendScope, UsageCount: 5, Successes: 4, Failures: 1, AverageConfidence: 0.85, Effectiveness: 80, SuccessRate: 80, Grade: schema.GoodGrade},
			},
			LibraryStats: map[schema.PatternScope]schema.LibraryStat{
				schema.BackendScope: {Count: 12, Version: "2.1.0"},
			},
			TotalPatterns:        1,
			AverageEffectiveness: 80,
			ByScope: map[schema.PatternScope]schema.ScopeSummary{
				schema.BackendScope: {Patterns: 1, AverageEffectiveness: 80},
			},
		},
		Performance: schema.PerformanceMetrics{
			AverageExecutionTime: 1200,
			MedianExecutionTime:  1100,
			MaxExecutionTime:     2400,
			MinExecutionTime:     300,
			AverageTestCount:     42,
			TotalTestsExecuted:   420,
			Throughput:           1.25,
		},
		Health: schema.HealthMetrics{
			Overall: schema.GoodGrade,
			Score:   85,
			Indicators: []schema.HealthIndicator{
				{Type: schema.WarningLevel, Message: "Elevated failure rate"},
			},
			Recommendations: []string{"Investigate failing validations"},
			LastUpdate:      testNow,
		},
		Comparative: schema.ComparativeMetrics{
			Projects: []schema.ProjectComparison{
				{Name: "web-app", Rank: 1, IsCurrent: true, Overview: overview},
			},
			TotalProjects:      1,
			CurrentProjectRank: &rank,
			IndustryAverage:    schema.IndustryAverage{QualityScore: 80, SuccessRate: 70},
		},
		Timestamp: testNow,
		Project:   "web-app",
		Timeframe: 30,
	}
}

func TestWriteQualityResultsText(t *testing.T) {
	cfg := &contract.Config{Output: schema.TextOut, ResultsBackend: schema.FilesResults}

	var buf bytes.Buffer
	require.NoError(t, WriteQualityResults(&buf, sampleSnapshot(), cfg, time.Second))

	output := buf.String()
	assert.Contains(t, output, `Quality overview (project "web-app", last 30 days)`)
	assert.Contains(t, output, "qualityScore")
	assert.Contains(t, output, "stable")
	assert.Contains(t, output, "good")
	assert.Contains(t, output, "Quality snapshot computed in 1s. Results backend: files")
}

func TestWriteQualityResultsJSON(t *testing.T) {
	cfg := &contract.Config{Output: schema.JSONOut}

	var buf bytes.Buffer
	require.NoError(t, WriteQualityResults(&buf, sampleSnapshot(), cfg, time.Second))

	var decoded schema.MetricsSnapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 80, decoded.Overview.QualityScore)
	assert.Equal(t, "web-app", decoded.Project)
	require.NotNil(t, decoded.Comparative.CurrentProjectRank)
	assert.Equal(t, 1, *decoded.Comparative.CurrentProjectRank)
}

func TestWriteQualityResultsCSV(t *testing.T) {
	cfg := &contract.Config{Output: schema.CSVOut}

	var buf bytes.Buffer
	require.NoError(t, WriteQualityResults(&buf, sampleSnapshot(), cfg, time.Second))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 12)
	assert.Equal(t, []string{"metric", "value"}, records[0])
	assert.Equal(t, []string{"qualityScore", "80"}, records[5])
	assert.Equal(t, []string{"healthGrade", "good"}, records[8])
}

func TestWriteQualityResultsParquet(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}

	var buf bytes.Buffer
	err := WriteQualityResults(&buf, sampleSnapshot(), cfg, time.Second)
	assert.ErrorIs(t, err, errParquetTrendsOnly)
}

func TestPrintQualityResultsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quality.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: path}

	require.NoError(t, PrintQualityResults(sampleSnapshot(), cfg, time.Second))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"qualityScore": 80`)
}

func TestScopeTitle(t *testing.T) {
	assert.Equal(t, "all projects, last 7 days", scopeTitle("", 7))
	assert.Equal(t, `project "api", last 30 days`, scopeTitle("api", 30))
}
