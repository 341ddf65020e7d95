package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
)

// errParquetTrendsOnly is returned when parquet output is requested for a non-tabular result.
var errParquetTrendsOnly = errors.New("parquet output is only supported for trends and history export")

// scopeTitle describes the project filter and timeframe for headings.
func scopeTitle(project string, days int) string {
	if project == "" {
		return fmt.Sprintf("all projects, last %d days", days)
	}
	return fmt.Sprintf("project %q, last %d days", project, days)
}

// PrintQualityResults outputs the full snapshot, dispatching based on the output format configured.
func PrintQualityResults(snap *schema.MetricsSnapshot, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteQualityResults(w, snap, cfg, duration)
	}, "Wrote quality results")
}

// WriteQualityResults writes the full snapshot to w.
func WriteQualityResults(w io.Writer, snap *schema.MetricsSnapshot, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, snap)
	case schema.CSVOut:
		return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
			return cw.WriteAll(qualityRows(snap))
		})
	case schema.ParquetOut:
		return errParquetTrendsOnly
	default:
		writeSection(w, cfg, "Quality overview ("+scopeTitle(snap.Project, snap.Timeframe)+")")
		rows := qualityRows(snap)
		rows[5][1] = trendLabel(cfg, snap.Overview.Trend)
		rows[7][1] = gradeLabel(cfg, snap.Health.Overall)
		if err := writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
			return fmt.Errorf("error writing quality table output: %w", err)
		}
		writeFooter(w, cfg, "Quality snapshot", duration)
		return nil
	}
}

// qualityRows lists the headline numbers of a snapshot.
// Row order is fixed; the table output recolors the trend and grade rows.
func qualityRows(snap *schema.MetricsSnapshot) [][]string {
	o := snap.Overview
	return [][]string{
		{"totalValidations", strconv.Itoa(o.TotalValidations)},
		{"successRate", strconv.Itoa(o.SuccessRate)},
		{"failureRate", strconv.Itoa(o.FailureRate)},
		{"warningRate", strconv.Itoa(o.WarningRate)},
		{"qualityScore", strconv.Itoa(o.QualityScore)},
		{"trend", string(o.Trend)},
		{"healthScore", strconv.Itoa(snap.Health.Score)},
		{"healthGrade", string(snap.Health.Overall)},
		{"totalPatterns", strconv.Itoa(snap.Patterns.TotalPatterns)},
		{"averageExecutionTime", strconv.Itoa(snap.Performance.AverageExecutionTime)},
		{"rankedProjects", strconv.Itoa(snap.Comparative.TotalProjects)},
	}
}
