package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/qmetrics/schema"
)

// Migrations describes one embedded migration set and the table tracking it.
// Each store keeps its own tracking table so they can share one database.
type Migrations struct {
	Source fs.FS  // directory holding NNNNNN_name.{up,down}.sql files
	Table  string // schema_migrations table name
}

func (ms Migrations) newMigrator(db *sql.DB, backend schema.DatabaseBackend) (*migrate.Migrate, error) {
	if err := ValidateTableName(ms.Table); err != nil {
		return nil, err
	}

	var driver database.Driver
	var err error
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: ms.Table})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: ms.Table})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: ms.Table})
	default:
		return nil, fmt.Errorf("migrations are not supported for backend %s", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sourceDriver, err := iofs.New(ms.Source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Up applies every pending migration without printing anything.
func (ms Migrations) Up(db *sql.DB, backend schema.DatabaseBackend) error {
	m, err := ms.newMigrator(db, backend)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate to latest version: %w", err)
	}
	return nil
}

// Migrate moves the schema to targetVersion and reports what happened to out.
//   - If targetVersion < 0, it migrates to the latest version.
//   - If targetVersion == 0, it rolls back all migrations.
//   - If targetVersion > 0, it migrates to the specified version.
func (ms Migrations) Migrate(db *sql.DB, backend schema.DatabaseBackend, targetVersion int, out io.Writer) error {
	m, err := ms.newMigrator(db, backend)
	if err != nil {
		return err
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to latest version: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintln(out, "No migration needed. Database is already at the latest version.")
			return nil
		}
		newVersion, _, _ := m.Version()
		_, _ = fmt.Fprintf(out, "Successfully migrated from version %d to version %d\n", currentVersion, newVersion)

	case targetVersion == 0:
		err = m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back to version 0: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintln(out, "No migration needed. Database is already at version 0")
			return nil
		}
		_, _ = fmt.Fprintf(out, "Successfully rolled back from version %d to version 0\n", currentVersion)

	default:
		err = m.Migrate(uint(targetVersion))
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			_, _ = fmt.Fprintf(out, "No migration needed. Database is already at version %d\n", targetVersion)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Successfully migrated from version %d to version %d\n", currentVersion, targetVersion)
	}
	return nil
}

// Version returns the applied migration version, or 0 when none has run.
func (ms Migrations) Version(db *sql.DB, backend schema.DatabaseBackend) (uint, error) {
	m, err := ms.newMigrator(db, backend)
	if err != nil {
		return 0, err
	}
	v, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	return v, err
}
