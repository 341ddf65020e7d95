// Package cmd defines the command-line interface for qmetrics.
package cmd

import (
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(qualityCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(comparativeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(storeCmd)

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("project", "p", "", "Project name filter (case-insensitive substring, empty for all projects)")
	rootCmd.PersistentFlags().IntP("days", "d", contract.DefaultTimeframeDays, "Timeframe in days to look back (1-3650)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "auto", "Enable colored labels in output (auto/yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("results-backend", string(schema.FilesResults), "Where validation results live: files or sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("results-path", "", "Results directory for files, or database path/DSN for SQL backends")
	rootCmd.PersistentFlags().String("catalog-path", "", "Optional YAML pattern catalog")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.NoneBackend), "Persistent snapshot cache: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for the cache (e.g., user:pass@tcp(host:port)/dbname or redis://host:6379/0)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long a computed snapshot stays fresh")
	rootCmd.PersistentFlags().String("history-backend", "", "Snapshot history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Connection string for snapshot history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of patternsCmd to Viper
	patternsCmd.Flags().String("scope", "", "Only include patterns of this scope: universal or backend or frontend")
	if err := viper.BindPFlags(patternsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding patterns flags", err)
	}

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().String("format", string(schema.JSONExport), "Export format: json or csv")
	if err := viper.BindPFlags(exportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address for the HTTP server to listen on")
	serveCmd.Flags().Bool("watch", false, "Clear the cache when files in the results directory change")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Migrate flags are read from the command itself since both commands share the name
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
