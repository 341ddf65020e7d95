package iocache

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/sqldb"
	"github.com/huangsam/qmetrics/schema"
)

// snapshotTable names the SQL table (or Redis key prefix) holding persisted snapshots.
const snapshotTable = "metrics_snapshots"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the snapshot and history stores.
// An empty backend leaves the corresponding store disabled.
func InitStores(cacheBackend schema.DatabaseBackend, cacheConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var snapshot contract.CacheStore
		if cacheBackend != "" {
			store, err := NewCacheStore(snapshotTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize snapshot cache: %w", err)
				return
			}
			snapshot = store
		}

		var history contract.HistoryStore
		if historyBackend != "" && historyBackend != schema.NoneBackend {
			store, err := NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if snapshot != nil {
					_ = snapshot.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
			history = store
		}

		Manager.Lock()
		Manager.snapshot = snapshot
		Manager.history = history
		Manager.Unlock()
	})

	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.snapshot != nil {
			_ = Manager.snapshot.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearCache deletes every persisted snapshot from the initialized store.
func ClearCache() error {
	store := Manager.GetSnapshotStore()
	if store == nil {
		return nil
	}
	return store.Clear()
}

// ClearHistory removes recorded history for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL/PostgreSQL, it drops the history and migration tables.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		return dropSQLTables(backend, connStr, snapshotRunsTable, historyMigrationTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}

// dropSQLTables connects to the SQL database and drops each table if it exists.
func dropSQLTables(backend schema.DatabaseBackend, connStr string, tables ...string) error {
	db, err := sqldb.Open(backend, connStr, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", sqldb.QuoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
