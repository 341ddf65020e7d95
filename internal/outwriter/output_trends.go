package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/parquet"
	"github.com/huangsam/qmetrics/schema"
)

// PrintTrendsResults outputs the trend buckets, dispatching based on the output format configured.
// Parquet output is written straight to --output-file.
func PrintTrendsResults(result schema.TrendsResult, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.ParquetOut {
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires --output-file")
		}
		if err := parquet.WriteTrendsParquet(parquet.TrendRows(result.Trends), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote parquet trends to %s\n", cfg.OutputFile)
		return nil
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteTrendsResults(w, result, cfg, duration)
	}, "Wrote trends results")
}

// WriteTrendsResults writes the trend buckets to w.
func WriteTrendsResults(w io.Writer, result schema.TrendsResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, result)
	case schema.CSVOut:
		return writeCSVResultsForTrends(w, result.Trends)
	case schema.ParquetOut:
		return errors.New("parquet output requires --output-file")
	default:
		writeSection(w, cfg, fmt.Sprintf("Quality trends (%d buckets)", len(result.Trends)))
		var rows [][]string
		for _, p := range result.Trends {
			rows = append(rows, []string{
				p.Period,
				strconv.Itoa(p.TotalValidations),
				percent(p.SuccessRate),
				percent(p.FailureRate),
				percent(p.WarningRate),
				strconv.Itoa(p.QualityScore),
				trendLabel(cfg, p.Trend),
			})
		}
		header := []string{"Period", "Validations", "Success", "Failure", "Warning", "Quality", "Trend"}
		if err := writeTable(w, header, rows); err != nil {
			return fmt.Errorf("error writing trends table output: %w", err)
		}
		_, _ = fmt.Fprintf(w, "Overall: %d validations, quality score %d, trend %s\n",
			result.Overview.TotalValidations, result.Overview.QualityScore, trendLabel(cfg, result.Overview.Trend))
		writeFooter(w, cfg, "Trends", duration)
		return nil
	}
}

// writeCSVResultsForTrends writes one row per bucket with its bounds.
func writeCSVResultsForTrends(w io.Writer, points []schema.TrendPoint) error {
	header := []string{
		"period",
		"periodStart",
		"periodEnd",
		"totalValidations",
		"successRate",
		"failureRate",
		"warningRate",
		"qualityScore",
		"trend",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range points {
			row := []string{
				p.Period,
				p.PeriodStart.Format(contract.DateTimeFormat),
				p.PeriodEnd.Format(contract.DateTimeFormat),
				strconv.Itoa(p.TotalValidations),
				strconv.Itoa(p.SuccessRate),
				strconv.Itoa(p.FailureRate),
				strconv.Itoa(p.WarningRate),
				strconv.Itoa(p.QualityScore),
				string(p.Trend),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
