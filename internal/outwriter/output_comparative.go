package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
)

// PrintComparativeResults outputs the project ranking, dispatching based on the output format configured.
func PrintComparativeResults(metrics schema.ComparativeMetrics, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteComparativeResults(w, metrics, cfg, duration)
	}, "Wrote comparative results")
}

// WriteComparativeResults writes the project ranking to w.
func WriteComparativeResults(w io.Writer, m schema.ComparativeMetrics, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, m)
	case schema.CSVOut:
		header := []string{"rank", "project", "totalValidations", "successRate", "qualityScore", "trend", "averageExecutionTime", "isCurrent"}
		return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
			for _, p := range m.Projects {
				row := []string{
					strconv.Itoa(p.Rank),
					p.Name,
					strconv.Itoa(p.Overview.TotalValidations),
					strconv.Itoa(p.Overview.SuccessRate),
					strconv.Itoa(p.Overview.QualityScore),
					string(p.Overview.Trend),
					strconv.Itoa(p.Performance.AverageExecutionTime),
					strconv.FormatBool(p.IsCurrent),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
	case schema.ParquetOut:
		return errParquetTrendsOnly
	default:
		writeSection(w, cfg, fmt.Sprintf("Project comparison (%d ranked)", m.TotalProjects))
		nameWidth := GetMaxTableNameWidth(cfg, 60)
		var rows [][]string
		for _, p := range m.Projects {
			name := contract.TruncateName(p.Name, nameWidth)
			if p.IsCurrent {
				name = "* " + name
			}
			rows = append(rows, []string{
				strconv.Itoa(p.Rank),
				name,
				strconv.Itoa(p.Overview.TotalValidations),
				percent(p.Overview.SuccessRate),
				strconv.Itoa(p.Overview.QualityScore),
				trendLabel(cfg, p.Overview.Trend),
				millis(p.Performance.AverageExecutionTime),
			})
		}
		header := []string{"Rank", "Project", "Validations", "Success", "Quality", "Trend", "Avg Time"}
		if err := writeTable(w, header, rows); err != nil {
			return fmt.Errorf("error writing comparative table output: %w", err)
		}
		rank := "unranked"
		if m.CurrentProjectRank != nil {
			rank = "#" + strconv.Itoa(*m.CurrentProjectRank)
		}
		_, _ = fmt.Fprintf(w, "Industry average: quality score %d, success rate %d%%. Current project: %s\n",
			m.IndustryAverage.QualityScore, m.IndustryAverage.SuccessRate, rank)
		writeFooter(w, cfg, "Comparison", duration)
		return nil
	}
}
