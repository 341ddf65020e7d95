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

// PrintPerformanceResults outputs the execution statistics, dispatching based on the output format configured.
func PrintPerformanceResults(metrics schema.PerformanceMetrics, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WritePerformanceResults(w, metrics, cfg, duration)
	}, "Wrote performance results")
}

// WritePerformanceResults writes the execution statistics to w.
func WritePerformanceResults(w io.Writer, m schema.PerformanceMetrics, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, m)
	case schema.CSVOut:
		return writeCSVWithHeader(w, []string{"metric", "value"}, func(cw *csv.Writer) error {
			return cw.WriteAll([][]string{
				{"averageExecutionTime", strconv.Itoa(m.AverageExecutionTime)},
				{"medianExecutionTime", strconv.Itoa(m.MedianExecutionTime)},
				{"maxExecutionTime", strconv.Itoa(m.MaxExecutionTime)},
				{"minExecutionTime", strconv.Itoa(m.MinExecutionTime)},
				{"averageTestCount", strconv.Itoa(m.AverageTestCount)},
				{"totalTestsExecuted", strconv.Itoa(m.TotalTestsExecuted)},
				{"throughput", fmtFloat(m.Throughput)},
			})
		})
	case schema.ParquetOut:
		return errParquetTrendsOnly
	default:
		writeSection(w, cfg, "Performance")
		rows := [][]string{
			{"Average execution time", millis(m.AverageExecutionTime)},
			{"Median execution time", millis(m.MedianExecutionTime)},
			{"Max execution time", millis(m.MaxExecutionTime)},
			{"Min execution time", millis(m.MinExecutionTime)},
			{"Average test count", strconv.Itoa(m.AverageTestCount)},
			{"Total tests executed", strconv.Itoa(m.TotalTestsExecuted)},
			{"Throughput", fmtFloat(m.Throughput) + "/h"},
		}
		if err := writeTable(w, []string{"Metric", "Value"}, rows); err != nil {
			return fmt.Errorf("error writing performance table output: %w", err)
		}
		writeFooter(w, cfg, "Performance", duration)
		return nil
	}
}
