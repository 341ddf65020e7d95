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

// PrintHealthResults outputs the health report, dispatching based on the output format configured.
func PrintHealthResults(result schema.HealthResult, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteHealthResults(w, result, cfg, duration)
	}, "Wrote health results")
}

// WriteHealthResults writes the health report to w.
func WriteHealthResults(w io.Writer, result schema.HealthResult, cfg *contract.Config, duration time.Duration) error {
	h := result.Health
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, result)
	case schema.CSVOut:
		return writeCSVWithHeader(w, []string{"kind", "level", "message"}, func(cw *csv.Writer) error {
			if err := cw.Write([]string{"score", string(h.Overall), strconv.Itoa(h.Score)}); err != nil {
				return err
			}
			for _, ind := range h.Indicators {
				if err := cw.Write([]string{"indicator", string(ind.Type), ind.Message}); err != nil {
					return err
				}
			}
			for _, rec := range h.Recommendations {
				if err := cw.Write([]string{"recommendation", "", rec}); err != nil {
					return err
				}
			}
			return nil
		})
	case schema.ParquetOut:
		return errParquetTrendsOnly
	default:
		writeSection(w, cfg, "Health report")
		_, _ = fmt.Fprintf(w, "Score: %d/100 (%s)\n", h.Score, gradeLabel(cfg, h.Overall))
		s := result.OverviewSummary
		_, _ = fmt.Fprintf(w, "Validations: %d, success rate %d%%, quality score %d, trend %s\n",
			s.TotalValidations, s.SuccessRate, s.QualityScore, trendLabel(cfg, s.Trend))

		if len(h.Indicators) > 0 {
			var rows [][]string
			for _, ind := range h.Indicators {
				rows = append(rows, []string{indicatorLabel(cfg, ind.Type), ind.Message})
			}
			if err := writeTable(w, []string{"Level", "Indicator"}, rows); err != nil {
				return fmt.Errorf("error writing health table output: %w", err)
			}
		}
		if len(h.Recommendations) > 0 {
			_, _ = fmt.Fprintln(w, "Recommendations:")
			for _, rec := range h.Recommendations {
				_, _ = fmt.Fprintf(w, "  - %s\n", rec)
			}
		}
		writeFooter(w, cfg, "Health", duration)
		return nil
	}
}
