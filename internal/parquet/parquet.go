// Package parquet provides data structures and functions for exporting qmetrics
// trend buckets and snapshot history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/qmetrics/schema"
	"github.com/parquet-go/parquet-go"
)

// TrendRow is one trend bucket.
type TrendRow struct {
	// Period is the bucket label (start date)
	Period string `parquet:"period,snappy"`

	// PeriodStart and PeriodEnd bound the bucket as [start, end)
	PeriodStart time.Time `parquet:"period_start,snappy"`
	PeriodEnd   time.Time `parquet:"period_end,snappy"`

	TotalValidations int32  `parquet:"total_validations,snappy"`
	SuccessRate      int32  `parquet:"success_rate,snappy"`
	FailureRate      int32  `parquet:"failure_rate,snappy"`
	WarningRate      int32  `parquet:"warning_rate,snappy"`
	QualityScore     int32  `parquet:"quality_score,snappy"`
	Trend            string `parquet:"trend,snappy"`
}

// SnapshotRunRow maps to the snapshot_runs history table.
type SnapshotRunRow struct {
	RunID int64 `parquet:"run_id,snappy"`

	// Project is the cache scope, "global" when no project filter was used
	Project   string    `parquet:"project,snappy"`
	Timeframe int32     `parquet:"timeframe_days,snappy"`
	Computed  time.Time `parquet:"computed_at,snappy"`

	TotalValidations int32  `parquet:"total_validations,snappy"`
	SuccessRate      int32  `parquet:"success_rate,snappy"`
	QualityScore     int32  `parquet:"quality_score,snappy"`
	HealthScore      int32  `parquet:"health_score,snappy"`
	HealthGrade      string `parquet:"health_grade,snappy"`
	Trend            string `parquet:"trend,snappy"`
}

// TrendRows converts trend points to parquet rows.
func TrendRows(points []schema.TrendPoint) []TrendRow {
	rows := make([]TrendRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, TrendRow{
			Period:           p.Period,
			PeriodStart:      p.PeriodStart,
			PeriodEnd:        p.PeriodEnd,
			TotalValidations: int32(p.TotalValidations),
			SuccessRate:      int32(p.SuccessRate),
			FailureRate:      int32(p.FailureRate),
			WarningRate:      int32(p.WarningRate),
			QualityScore:     int32(p.QualityScore),
			Trend:            string(p.Trend),
		})
	}
	return rows
}

// SnapshotRunRows converts history runs to parquet rows.
func SnapshotRunRows(runs []schema.SnapshotRun) []SnapshotRunRow {
	rows := make([]SnapshotRunRow, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, SnapshotRunRow{
			RunID:            r.RunID,
			Project:          r.Project,
			Timeframe:        int32(r.Timeframe),
			Computed:         r.ComputedAt,
			TotalValidations: int32(r.TotalValidations),
			SuccessRate:      int32(r.SuccessRate),
			QualityScore:     int32(r.QualityScore),
			HealthScore:      int32(r.HealthScore),
			HealthGrade:      string(r.HealthGrade),
			Trend:            string(r.Trend),
		})
	}
	return rows
}

// WriteTrendsParquet writes trend rows to a Parquet file.
func WriteTrendsParquet(data []TrendRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// WriteSnapshotRunsParquet writes history rows to a Parquet file.
func WriteSnapshotRunsParquet(data []SnapshotRunRow, outputPath string) error {
	return writeParquetFile(data, outputPath)
}

// writeParquetFile infers the schema from T's struct tags and writes every row.
func writeParquetFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}
