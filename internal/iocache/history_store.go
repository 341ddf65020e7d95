package iocache

import (
	"database/sql"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/sqldb"
	"github.com/huangsam/qmetrics/schema"
)

// Table names for snapshot history.
const (
	snapshotRunsTable     = "qmetrics_snapshot_runs"
	historyMigrationTable = "qmetrics_history_migrations"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// historyMigrations returns the migration set for the backend's SQL dialect.
func historyMigrations(backend schema.DatabaseBackend) (sqldb.Migrations, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+string(backend))
	if err != nil {
		return sqldb.Migrations{}, fmt.Errorf("no history migrations for backend %s: %w", backend, err)
	}
	return sqldb.Migrations{Source: sub, Table: historyMigrationTable}, nil
}

// HistoryStoreImpl records computed snapshot summaries in a SQL database.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history database and applies pending migrations.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	migrations, err := historyMigrations(backend)
	if err != nil {
		return nil, err
	}
	db, err := sqldb.Open(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare history tables: %w", err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// RecordSnapshot appends one run and returns the ID assigned by the database.
func (hs *HistoryStoreImpl) RecordSnapshot(run schema.SnapshotRun) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	args := []any{
		run.Project, run.Timeframe, run.ComputedAt.UnixMilli(), run.TotalValidations,
		run.SuccessRate, run.QualityScore, run.HealthScore, string(run.HealthGrade), string(run.Trend),
	}

	ph := make([]string, len(args))
	for i := range ph {
		ph[i] = sqldb.Placeholder(hs.backend, i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (project, timeframe_days, computed_at, total_validations,
		success_rate, quality_score, health_score, health_grade, trend) VALUES (%s)`,
		sqldb.QuoteTableName(snapshotRunsTable, hs.backend), strings.Join(ph, ", "))

	// pgx does not implement LastInsertId
	if hs.backend == schema.PostgreSQLBackend {
		var id int64
		if err := hs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("failed to record snapshot run: %w", err)
		}
		return id, nil
	}

	res, err := hs.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to record snapshot run: %w", err)
	}
	return res.LastInsertId()
}

// GetAllRuns returns every recorded run ordered by run ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.SnapshotRun, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, project, timeframe_days, computed_at, total_validations,
		success_rate, quality_score, health_score, health_grade, trend
		FROM %s ORDER BY run_id`, sqldb.QuoteTableName(snapshotRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []schema.SnapshotRun
	for rows.Next() {
		var run schema.SnapshotRun
		var computedAt int64
		var grade, trend string
		if err := rows.Scan(&run.RunID, &run.Project, &run.Timeframe, &computedAt, &run.TotalValidations,
			&run.SuccessRate, &run.QualityScore, &run.HealthScore, &grade, &trend); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot run: %w", err)
		}
		run.ComputedAt = time.UnixMilli(computedAt)
		run.HealthGrade = schema.Grade(grade)
		run.Trend = schema.TrendLabel(trend)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetStatus returns run counts and the time range of recorded runs.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:   string(hs.backend),
		Connected: hs.db != nil,
	}
	if hs.db == nil {
		return status, nil
	}

	var lastID, lastTs, oldestTs sql.NullInt64
	query := fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT project), MAX(run_id), MAX(computed_at), MIN(computed_at) FROM %s",
		sqldb.QuoteTableName(snapshotRunsTable, hs.backend))
	if err := hs.db.QueryRow(query).Scan(&status.TotalRuns, &status.Projects, &lastID, &lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns > 0 {
		status.LastRunID = lastID.Int64
		status.LastRunTime = time.UnixMilli(lastTs.Int64)
		status.OldestRunTime = time.UnixMilli(oldestTs.Int64)
	}
	return status, nil
}

// Close closes the underlying DB connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// MigrateHistory moves the history schema to targetVersion and reports progress to out.
// A negative target migrates to the latest version and zero rolls everything back.
func MigrateHistory(backend schema.DatabaseBackend, connStr string, targetVersion int, out io.Writer) error {
	if backend == schema.NoneBackend || backend == schema.RedisBackend {
		return fmt.Errorf("migrations are not supported for backend %s", backend)
	}
	migrations, err := historyMigrations(backend)
	if err != nil {
		return err
	}
	db, err := sqldb.Open(backend, connStr, contract.GetHistoryDBFilePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return migrations.Migrate(db, backend, targetVersion, out)
}
