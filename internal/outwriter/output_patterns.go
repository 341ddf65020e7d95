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

// PrintPatternsResults outputs the pattern rankings, dispatching based on the output format configured.
func PrintPatternsResults(metrics schema.PatternMetrics, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WritePatternsResults(w, metrics, cfg, duration)
	}, "Wrote pattern results")
}

// WritePatternsResults writes the pattern rankings to w.
func WritePatternsResults(w io.Writer, metrics schema.PatternMetrics, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, metrics)
	case schema.CSVOut:
		return writeCSVResultsForPatterns(w, metrics, fmtFloat)
	case schema.ParquetOut:
		return errParquetTrendsOnly
	default:
		nameWidth := GetMaxTableNameWidth(cfg, 70)
		lists := []struct {
			title string
			stats []schema.PatternStat
		}{
			{"Most used patterns", metrics.PatternUsage},
			{"Most effective patterns", metrics.MostEffective},
			{"Least effective patterns (3+ uses)", metrics.LeastEffective},
		}
		for _, list := range lists {
			writeSection(w, cfg, list.title)
			if len(list.stats) == 0 {
				_, _ = fmt.Fprintln(w, "  (none)")
				continue
			}
			var rows [][]string
			for _, s := range list.stats {
				rows = append(rows, []string{
					contract.TruncateName(s.Name, nameWidth),
					scopeLabel(s.Scope),
					strconv.Itoa(s.UsageCount),
					percent(s.SuccessRate),
					strconv.Itoa(s.Effectiveness),
					fmtFloat(s.AverageConfidence),
					gradeLabel(cfg, s.Grade),
				})
			}
			header := []string{"Pattern", "Scope", "Uses", "Success", "Effectiveness", "Confidence", "Grade"}
			if err := writeTable(w, header, rows); err != nil {
				return fmt.Errorf("error writing patterns table output: %w", err)
			}
		}

		writeSection(w, cfg, "Pattern library")
		var rows [][]string
		for _, scope := range schema.AllPatternScopes {
			lib, libOK := metrics.LibraryStats[scope]
			observed, obsOK := metrics.ByScope[scope]
			if !libOK && !obsOK {
				continue
			}
			version := lib.Version
			if version == "" {
				version = "-"
			}
			rows = append(rows, []string{
				string(scope),
				strconv.Itoa(lib.Count),
				version,
				strconv.Itoa(observed.Patterns),
				strconv.Itoa(observed.AverageEffectiveness),
			})
		}
		if err := writeTable(w, []string{"Scope", "Declared", "Version", "Observed", "Avg Effectiveness"}, rows); err != nil {
			return fmt.Errorf("error writing library table output: %w", err)
		}
		_, _ = fmt.Fprintf(w, "%d patterns observed, average effectiveness %d\n",
			metrics.TotalPatterns, metrics.AverageEffectiveness)
		writeFooter(w, cfg, "Pattern effectiveness", duration)
		return nil
	}
}

// writeCSVResultsForPatterns writes every ranked list, tagged by list name.
func writeCSVResultsForPatterns(w io.Writer, metrics schema.PatternMetrics, fmtFloat func(float64) string) error {
	header := []string{
		"list",
		"name",
		"scope",
		"usageCount",
		"successes",
		"failures",
		"warnings",
		"averageConfidence",
		"effectiveness",
		"successRate",
		"grade",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		lists := []struct {
			name  string
			stats []schema.PatternStat
		}{
			{"usage", metrics.PatternUsage},
			{"most_effective", metrics.MostEffective},
			{"least_effective", metrics.LeastEffective},
		}
		for _, list := range lists {
			for _, s := range list.stats {
				row := []string{
					list.name,
					s.Name,
					string(s.Scope),
					strconv.Itoa(s.UsageCount),
					strconv.Itoa(s.Successes),
					strconv.Itoa(s.Failures),
					strconv.Itoa(s.Warnings),
					fmtFloat(s.AverageConfidence),
					strconv.Itoa(s.Effectiveness),
					strconv.Itoa(s.SuccessRate),
					string(s.Grade),
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
