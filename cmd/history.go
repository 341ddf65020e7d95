package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/iocache"
	"github.com/huangsam/qmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyConfig loads and validates the history backend settings without opening it.
func historyConfig() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := backendFromConfig("history-backend")
	if _, ok := schema.ValidHistoryBackends[backend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// historySetup loads the history settings and opens the history store.
func historySetup(_ *cobra.Command, _ []string) error {
	if err := historyConfig(); err != nil {
		return err
	}
	// No snapshot cache for history commands
	if err := iocache.InitStores("", "", cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}
	return nil
}

// historyConfigWrapper validates settings only, so clear and migrate work on a fresh or broken database.
func historyConfigWrapper(_ *cobra.Command, _ []string) error {
	return historyConfig()
}

// historyCmd focused on snapshot history management.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of computed snapshots",
	Long: `Manage the record of computed snapshots used for long-term tracking.

When --history-backend is set, every freshly computed snapshot appends one row
with its project, timeframe, totals, scores, grade and trend.

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show history statistics
  export  - Export runs to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Move the history schema to a given version`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			iocache.WriteHistoryStatus(os.Stdout, schema.HistoryStatus{Backend: string(cfg.HistoryBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.WriteHistoryStatus(os.Stdout, status)
	},
}

// historyExportCmd exports recorded runs to Parquet.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to a Parquet file",
	Long: `Write every recorded snapshot run to a Parquet file.

The file can be read by DuckDB, Pandas (via pyarrow), Apache Spark and other Parquet tools.

Examples:
  qmetrics history export --history-backend sqlite --output-file runs.parquet`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(cfg.OutputFile, os.Stdout); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyClearCmd removes all recorded runs.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete the snapshot history.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history tables`,
	PreRunE: historyConfigWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.HistoryDBConnect
		if dbFilePath == "" {
			dbFilePath = contract.GetHistoryDBFilePath()
		}
		if err := iocache.ClearHistory(cfg.HistoryBackend, dbFilePath, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyMigrateCmd runs history schema migrations.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the history schema",
	Long: `Apply or roll back history schema migrations.

Examples:
  # Migrate to the latest version
  qmetrics history migrate --history-backend postgresql --history-db-connect "host=localhost dbname=qmetrics"

  # Roll back everything
  qmetrics history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyConfigWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		target, err := cmd.Flags().GetInt("target-version")
		if err != nil {
			contract.LogFatal("Invalid target version", err)
		}
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, target, os.Stdout); err != nil {
			contract.LogFatal("Failed to migrate history", err)
		}
	},
}
