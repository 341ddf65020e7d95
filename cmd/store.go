package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/qmetrics/core"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/store"
	"github.com/huangsam/qmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeCmd groups commands that inspect the validation result store.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and migrate the validation result store",
	Long: `Inspect where validation results are read from.

Results come from a directory of JSON files (default) or a SQL table.

Subcommands:
  status  - Show record counts and the covered time range
  migrate - Move the SQL results schema to a given version`,
}

// storeStatusCmd shows result store status.
var storeStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show record counts and the covered time range",
	PreRunE: sharedSetupWrapper,
	Run:     runExecutor("store status", core.ExecuteStoreStatus),
}

// storeMigrateCmd runs results schema migrations on the SQL backends.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the SQL results schema",
	Long: `Apply or roll back migrations of the validation_results and pattern_catalog tables.

Examples:
  qmetrics store migrate --results-backend sqlite --results-path results.db
  qmetrics store migrate --results-backend mysql --results-path "user:pass@tcp(localhost:3306)/qmetrics" --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfigFile()
	},
	Run: func(cmd *cobra.Command, _ []string) {
		backend := schema.ResultsBackend(strings.ToLower(viper.GetString("results-backend")))
		if backend == "" || backend == schema.FilesResults {
			contract.LogFatal("Cannot migrate results", fmt.Errorf("migrations require a SQL results backend (received %q)", backend))
		}
		if _, ok := schema.ValidResultsBackends[backend]; !ok {
			contract.LogFatal("Cannot migrate results", fmt.Errorf("invalid results backend '%s'", backend))
		}
		target, err := cmd.Flags().GetInt("target-version")
		if err != nil {
			contract.LogFatal("Invalid target version", err)
		}
		if err := store.MigrateResults(backend.DatabaseBackend(), viper.GetString("results-path"), target, os.Stdout); err != nil {
			contract.LogFatal("Failed to migrate results", err)
		}
	},
}
