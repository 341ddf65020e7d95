package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"github.com/huangsam/qmetrics/internal/sqldb"
	"github.com/huangsam/qmetrics/schema"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	resultsTable    = "validation_results"
	catalogTable    = "pattern_catalog"
	migrationsTable = "qmetrics_results_migrations"
)

// Migrations returns the embedded schema for the results database.
func Migrations() sqldb.Migrations {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations missing: %v", err)) // unreachable with go:embed
	}
	return sqldb.Migrations{Source: sub, Table: migrationsTable}
}

// SQLResultStore reads validation results and the pattern catalog from a SQL database.
type SQLResultStore struct {
	db       *sql.DB
	backend  schema.DatabaseBackend
	location string
	logger   *zap.Logger
}

var (
	_ contract.ResultStore  = &SQLResultStore{} // Compile-time check
	_ contract.CatalogStore = &SQLResultStore{} // Compile-time check
)

// NewSQLResultStore connects to the database and applies pending migrations.
// For SQLite an empty connStr uses the default results file in the home directory.
func NewSQLResultStore(backend schema.DatabaseBackend, connStr string, logger *zap.Logger) (*SQLResultStore, error) {
	db, err := sqldb.Open(backend, connStr, contract.GetResultsDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := Migrations().Up(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare results schema: %w", err)
	}

	location := connStr
	if backend == schema.SQLiteBackend && location == "" {
		location = contract.GetResultsDBFilePath()
	}
	return &SQLResultStore{
		db:       db,
		backend:  backend,
		location: location,
		logger:   logging.OrNop(logger),
	}, nil
}

// MigrateResults runs results schema migrations on the given backend.
func MigrateResults(backend schema.DatabaseBackend, connStr string, targetVersion int, out io.Writer) error {
	db, err := sqldb.Open(backend, connStr, contract.GetResultsDBFilePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return Migrations().Migrate(db, backend, targetVersion, out)
}

// Load returns matching records sorted ascending by timestamp.
// The cutoff is applied in SQL and the project filter in Go.
func (s *SQLResultStore) Load(ctx context.Context, project string, cutoff time.Time) ([]schema.ValidationResult, error) {
	records, _, err := s.query(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return filterRecords(records, project, time.Time{}), nil
}

// LoadAll returns every record in the table.
func (s *SQLResultStore) LoadAll(ctx context.Context) ([]schema.ValidationResult, error) {
	records, _, err := s.query(ctx, time.Time{})
	return records, err
}

// Status reports counts and the covered time range.
func (s *SQLResultStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	records, skipped, err := s.query(ctx, time.Time{})
	if err != nil {
		return schema.StoreStatus{}, err
	}
	return summarize(string(s.backend), s.location, records, skipped), nil
}

// Close closes the database connection.
func (s *SQLResultStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LibraryStats counts declared catalog patterns per scope.
func (s *SQLResultStore) LibraryStats(ctx context.Context) (map[schema.PatternScope]schema.LibraryStat, error) {
	query := fmt.Sprintf("SELECT scope, COUNT(*), MAX(version) FROM %s GROUP BY scope",
		sqldb.QuoteTableName(catalogTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := emptyLibraryStats()
	for rows.Next() {
		var scope string
		var count int
		var version sql.NullString
		if err := rows.Scan(&scope, &count, &version); err != nil {
			return nil, fmt.Errorf("failed to scan pattern catalog: %w", err)
		}
		key := schema.PatternScope(scope)
		if _, ok := schema.ValidPatternScopes[key]; !ok {
			s.logger.Warn("ignoring catalog scope", zap.String("scope", scope))
			continue
		}
		stats[key] = schema.LibraryStat{Count: count, Version: version.String}
	}
	return stats, rows.Err()
}

func (s *SQLResultStore) query(ctx context.Context, cutoff time.Time) ([]schema.ValidationResult, int, error) {
	query := fmt.Sprintf(
		"SELECT id, project, recorded_at, status, execution_time_ms, test_count, patterns, stored_at FROM %s",
		sqldb.QuoteTableName(resultsTable, s.backend))
	var args []any
	if !cutoff.IsZero() {
		query += fmt.Sprintf(" WHERE COALESCE(recorded_at, stored_at) >= %s", sqldb.Placeholder(s.backend, 1))
		args = append(args, cutoff.UnixMilli())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query validation results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []schema.ValidationResult{}
	skipped := 0
	for rows.Next() {
		var (
			id         string
			project    sql.NullString
			recordedAt sql.NullInt64
			status     string
			execTime   sql.NullFloat64
			testCount  sql.NullInt64
			patterns   sql.NullString
			storedAt   int64
		)
		if err := rows.Scan(&id, &project, &recordedAt, &status, &execTime, &testCount, &patterns, &storedAt); err != nil {
			s.logger.Warn("skipping unreadable result row", zap.Error(err))
			skipped++
			continue
		}

		fields := recordFields{ID: id, Project: project.String, Status: status}
		if recordedAt.Valid {
			fields.Timestamp = time.UnixMilli(recordedAt.Int64)
		}
		if execTime.Valid {
			v := execTime.Float64
			fields.ExecutionTime = &v
		}
		if testCount.Valid {
			v := int(testCount.Int64)
			fields.TestCount = &v
		}
		if patterns.Valid && patterns.String != "" {
			if err := json.Unmarshal([]byte(patterns.String), &fields.Patterns); err != nil {
				s.logger.Warn("skipping result row with malformed patterns", zap.String("id", id), zap.Error(err))
				skipped++
				continue
			}
		}

		record, err := normalize(fields, time.UnixMilli(storedAt), id)
		if err != nil {
			s.logger.Warn("skipping malformed result row", zap.String("id", id), zap.Error(err))
			skipped++
			continue
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read validation results: %w", err)
	}

	sortRecords(records)
	return records, skipped, nil
}
