package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/parquet"
)

// ErrNoHistory is returned when there are no recorded runs to export.
var ErrNoHistory = errors.New("no snapshot history found to export")

// ExportHistory writes every recorded run from the store to a Parquet file.
func ExportHistory(store contract.HistoryStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is disabled. Set --history-backend to enable it")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return ErrNoHistory
	}
	_, _ = fmt.Fprintf(out, "Exporting %d snapshot runs from %s backend...\n", status.TotalRuns, status.Backend)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshot runs: %w", err)
	}

	rows := parquet.SnapshotRunRows(runs)
	if err := parquet.WriteSnapshotRunsParquet(rows, outputFile); err != nil {
		return fmt.Errorf("failed to write snapshot runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d snapshot runs to: %s\n", len(rows), outputFile)
	return nil
}

// ExecuteHistoryExport exports the history of the global manager.
func ExecuteHistoryExport(outputFile string, out io.Writer) error {
	return ExportHistory(Manager.GetHistoryStore(), outputFile, out)
}
