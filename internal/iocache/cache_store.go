package iocache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/sqldb"
	"github.com/huangsam/qmetrics/schema"
)

// CacheStoreImpl handles durable snapshot storage using the SQL backends.
type CacheStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.CacheStore = &CacheStoreImpl{} // Compile-time check

// NewCacheStore initializes and returns a new CacheStore based on the backend type.
// The redis backend uses tableName as its key prefix.
func NewCacheStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.CacheStore, error) {
	if err := sqldb.ValidateTableName(tableName); err != nil {
		return nil, err
	}

	switch backend {
	case schema.NoneBackend:
		return &CacheStoreImpl{tableName: tableName, backend: backend, connStr: connStr}, nil
	case schema.RedisBackend:
		store, err := NewRedisCacheStore(connStr, tableName)
		if err != nil {
			return nil, err
		}
		return store, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s. Must be sqlite, mysql, postgresql, redis, or none", backend)
	}

	db, err := sqldb.Open(backend, connStr, contract.GetCacheDBFilePath())
	if err != nil {
		return nil, err
	}

	store := &CacheStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}
	if _, err := db.Exec(store.dialect().create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}
	return store, nil
}

// snapshotDialect holds the backend-specific statements for the snapshot table.
// Rows are (snapshot_key, payload, payload_version, computed_at) with computed_at in unix ms.
type snapshotDialect struct {
	create string
	upsert string
}

func (ps *CacheStoreImpl) dialect() snapshotDialect {
	table := sqldb.QuoteTableName(ps.tableName, ps.backend)
	switch ps.backend {
	case schema.MySQLBackend:
		return snapshotDialect{
			create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				snapshot_key CHAR(64) PRIMARY KEY,
				payload LONGBLOB NOT NULL,
				payload_version INT NOT NULL,
				computed_at BIGINT NOT NULL
			)`, table),
			upsert: fmt.Sprintf(`INSERT INTO %s (snapshot_key, payload, payload_version, computed_at) VALUES (?, ?, ?, ?) AS incoming
				ON DUPLICATE KEY UPDATE payload = incoming.payload, payload_version = incoming.payload_version, computed_at = incoming.computed_at`, table),
		}
	case schema.PostgreSQLBackend:
		return snapshotDialect{
			create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				snapshot_key CHAR(64) PRIMARY KEY,
				payload BYTEA NOT NULL,
				payload_version INTEGER NOT NULL,
				computed_at BIGINT NOT NULL
			)`, table),
			upsert: fmt.Sprintf(`INSERT INTO %s (snapshot_key, payload, payload_version, computed_at) VALUES ($1, $2, $3, $4)
				ON CONFLICT (snapshot_key) DO UPDATE SET payload = EXCLUDED.payload, payload_version = EXCLUDED.payload_version, computed_at = EXCLUDED.computed_at`, table),
		}
	default:
		return snapshotDialect{
			create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				snapshot_key TEXT PRIMARY KEY,
				payload BLOB NOT NULL,
				payload_version INTEGER NOT NULL,
				computed_at INTEGER NOT NULL
			)`, table),
			upsert: fmt.Sprintf(`INSERT INTO %s (snapshot_key, payload, payload_version, computed_at) VALUES (?, ?, ?, ?)
				ON CONFLICT (snapshot_key) DO UPDATE SET payload = excluded.payload, payload_version = excluded.payload_version, computed_at = excluded.computed_at`, table),
		}
	}
}

// disabled reports whether the store has nothing behind it.
func (ps *CacheStoreImpl) disabled() bool {
	return ps.backend == schema.NoneBackend || ps.db == nil
}

// Get returns the payload, its version and computed_at (unix ms) for key.
// A missing key or a disabled store returns sql.ErrNoRows.
func (ps *CacheStoreImpl) Get(key string) ([]byte, int, int64, error) {
	if ps.disabled() {
		return nil, 0, 0, sql.ErrNoRows
	}

	query := fmt.Sprintf(`SELECT payload, payload_version, computed_at FROM %s WHERE snapshot_key = %s`,
		sqldb.QuoteTableName(ps.tableName, ps.backend), sqldb.Placeholder(ps.backend, 1))

	var payload []byte
	var version int
	var computedAt int64
	if err := ps.db.QueryRow(query, key).Scan(&payload, &version, &computedAt); err != nil {
		return nil, 0, 0, err
	}
	return payload, version, computedAt, nil
}

// Set inserts or replaces the snapshot stored under key.
func (ps *CacheStoreImpl) Set(key string, payload []byte, version int, computedAt int64) error {
	if ps.disabled() {
		return nil
	}
	_, err := ps.db.Exec(ps.dialect().upsert, key, payload, version, computedAt)
	return err
}

// Clear deletes every snapshot but keeps the table.
func (ps *CacheStoreImpl) Clear() error {
	if ps.disabled() {
		return nil
	}
	query := fmt.Sprintf("DELETE FROM %s", sqldb.QuoteTableName(ps.tableName, ps.backend))
	if _, err := ps.db.Exec(query); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", ps.tableName, err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (ps *CacheStoreImpl) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// GetStatus returns status information about the cache store.
func (ps *CacheStoreImpl) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{
		Backend:   string(ps.backend),
		Connected: ps.db != nil,
	}

	if ps.disabled() {
		return status, nil
	}

	var newest, oldest sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(*), MAX(computed_at), MIN(computed_at) FROM %s", sqldb.QuoteTableName(ps.tableName, ps.backend))
	if err := ps.db.QueryRow(query).Scan(&status.TotalEntries, &newest, &oldest); err != nil {
		return status, fmt.Errorf("failed to count snapshots: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}
	status.LastEntryTime = time.UnixMilli(newest.Int64)
	status.OldestEntryTime = time.UnixMilli(oldest.Int64)
	status.TableSizeBytes = ps.tableSize(status.TotalEntries)
	return status, nil
}

// tableSize estimates the storage used by the table, falling back to a rough per-row guess.
func (ps *CacheStoreImpl) tableSize(entries int) int64 {
	estimate := int64(entries) * 1000
	var size int64
	switch ps.backend {
	case schema.SQLiteBackend:
		// page_count * page_size covers the whole file, which holds only this table
		if err := ps.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&size); err != nil {
			return 0
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ps.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		query := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := ps.db.QueryRow(query, cfg.DBName, ps.tableName).Scan(&size); err != nil {
			return estimate
		}
	case schema.PostgreSQLBackend:
		if err := ps.db.QueryRow("SELECT pg_total_relation_size($1)", ps.tableName).Scan(&size); err != nil {
			return estimate
		}
	default:
		return estimate
	}
	return size
}
