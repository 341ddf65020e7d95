package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/iocache"
	"github.com/huangsam/qmetrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// backendFromConfig reads a backend flag, treating an empty value as none.
func backendFromConfig(key string) schema.DatabaseBackend {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString(key)))
	if backend == "" {
		return schema.NoneBackend
	}
	return backend
}

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := backendFromConfig("cache-backend")
	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", backend)
	}
	connStr := viper.GetString("cache-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// No history tracking for cache commands
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on snapshot cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by query commands. This avoids opening the result store
// for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent snapshot cache",
	Long: `Manage the cache of computed metrics snapshots.

Every process keeps an in-memory cache. A persistent cache shares snapshots
between processes until they are older than --cache-ttl.

Supported backends: SQLite, MySQL, PostgreSQL, Redis, or None (default, in-memory only)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached snapshots

Examples:
  # Check cache status
  qmetrics cache status --cache-backend sqlite

  # Clear a Redis cache
  QMETRICS_CACHE_BACKEND=redis QMETRICS_CACHE_DB_CONNECT=redis://localhost:6379/0 qmetrics cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached snapshots",
	Long: `Delete every snapshot from the configured persistent cache.

Use this after importing or correcting validation results so the next
query recomputes instead of waiting for the TTL to expire.

Examples:
  qmetrics cache clear --cache-backend sqlite`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearCache(); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show the backend, connection state, entry count, entry timestamps and
storage size of the persistent snapshot cache.

Examples:
  qmetrics cache status --cache-backend sqlite`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetSnapshotStore()
		if store == nil {
			iocache.WriteCacheStatus(os.Stdout, schema.CacheStatus{Backend: string(schema.NoneBackend)})
			return
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.WriteCacheStatus(os.Stdout, status)
	},
}
