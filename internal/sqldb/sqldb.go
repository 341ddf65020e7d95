// Package sqldb opens the SQL backends shared by the result store, snapshot cache and history.
package sqldb

import (
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/qmetrics/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DriverName returns the database/sql driver registered for the backend.
func DriverName(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported SQL backend: %s. Must be sqlite, mysql, or postgresql", backend)
	}
}

// Open connects to the backend and verifies the connection with a ping.
// For SQLite an empty connStr falls back to defaultPath.
func Open(backend schema.DatabaseBackend, connStr, defaultPath string) (*sql.DB, error) {
	driverName, err := DriverName(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	if backend == schema.SQLiteBackend && dsn == "" {
		dsn = defaultPath
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		switch backend {
		case schema.SQLiteBackend:
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Ensure the directory is writable", dsn, err)
		case schema.MySQLBackend:
			return nil, fmt.Errorf("failed to connect to MySQL: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		default:
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}
	}

	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}
	return db, nil
}

// ValidateTableName validates that the table name is a safe SQL identifier.
// It ensures the name consists only of alphanumeric characters and underscores,
// starting with a letter or underscore, to prevent SQL injection.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// QuoteTableName returns the properly quoted table name for the given backend.
func QuoteTableName(name string, backend schema.DatabaseBackend) string {
	if backend == schema.MySQLBackend {
		return fmt.Sprintf("`%s`", name)
	}
	return fmt.Sprintf("%q", name)
}

// Placeholder returns the bind parameter for position n (1-based).
func Placeholder(backend schema.DatabaseBackend, n int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
