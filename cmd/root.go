package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/iocache"
	"github.com/huangsam/qmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// profile holds profiling configuration.
var profile = &contract.ProfileConfig{}

// prof runs the profiler described by profile.
var prof = &profiler{cfg: profile}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "qmetrics",
	Short:              "Aggregate validation results into quality metrics.",
	Long:               `qmetrics turns a history of validation results into quality scores, trends, pattern rankings and health reports.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// setConfigSource points viper at --config or the default .qmetrics locations.
func setConfigSource() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".qmetrics") // Name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigSource()

	viper.SetEnvPrefix("QMETRICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("days", contract.DefaultTimeframeDays)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("results-backend", schema.FilesResults)
	viper.SetDefault("results-path", "")
	viper.SetDefault("cache-backend", schema.NoneBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("cache-ttl", contract.DefaultCacheTTL.String())
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("color", "auto")
}

// loadConfigFile reads the config file if one is present.
func loadConfigFile() error {
	setConfigSource()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the persistent stores.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if err := prof.start(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	// Precedence is flags > env > file > defaults; viper resolves it on Unmarshal.
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := contract.ProcessAndValidate(ctx, cfg, input); err != nil {
		return err
	}

	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager sets the global cache manager.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling flushes any running profiles.
func StopProfiling() error {
	return prof.stop()
}
