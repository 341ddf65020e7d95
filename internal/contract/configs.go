package contract

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

// Default values for configuration.
const (
	DefaultTimeframeDays = 30
	MaxTimeframeDays     = 3650
	DefaultPrecision     = 1
	DefaultCacheTTL      = 5 * time.Minute
	DefaultServeAddr     = ":8080"
	DefaultResultsDir    = "validation-results"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ErrInvalidRequest marks errors caused by bad query parameters.
// Query surfaces map it to a client error before any computation starts.
var ErrInvalidRequest = errors.New("invalid request")

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for metrics queries.
// This struct remains the "final, validated" config.
type Config struct {
	Project      string
	Days         int
	Scope        schema.PatternScope // empty means all scopes
	ExportFormat schema.ExportFormat
	Precision    int
	Output       schema.OutputMode
	OutputFile   string
	Width        int // Terminal width override (0 = auto-detect)

	ResultsBackend schema.ResultsBackend
	ResultsPath    string // Directory for files, file path or DSN for SQL backends
	CatalogPath    string // Optional YAML pattern catalog

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	ServeAddr string
	Watch     bool

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Project          string `mapstructure:"project"`
	Days             int    `mapstructure:"days"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	ResultsBackend   string `mapstructure:"results-backend"`
	ResultsPath      string `mapstructure:"results-path"`
	CatalogPath      string `mapstructure:"catalog-path"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from patternsCmd.Flags() ---
	Scope string `mapstructure:"scope"`

	// --- Fields from exportCmd.Flags() ---
	Format string `mapstructure:"format"`

	// --- Fields from serveCmd.Flags() ---
	Addr  string `mapstructure:"addr"`
	Watch bool   `mapstructure:"watch"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Cutoff returns the earliest record timestamp covered by the configured timeframe.
func (c *Config) Cutoff(now time.Time) time.Time {
	return now.Add(-time.Duration(c.Days) * 24 * time.Hour)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(_ context.Context, cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateResultsConfig(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := validateRequestInputs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateScope parses a pattern scope filter. An empty value means all scopes.
func ValidateScope(s string) (schema.PatternScope, error) {
	if s == "" {
		return "", nil
	}
	scope := schema.PatternScope(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidPatternScopes[scope]; !ok {
		return "", fmt.Errorf("%w: invalid scope '%s'. must be universal, backend, frontend", ErrInvalidRequest, s)
	}
	return scope, nil
}

// ValidateExportFormat parses an export format. An empty value means JSON.
func ValidateExportFormat(s string) (schema.ExportFormat, error) {
	if s == "" {
		return schema.JSONExport, nil
	}
	format := schema.ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidExportFormats[format]; !ok {
		return "", fmt.Errorf("%w: invalid format '%s'. must be json, csv", ErrInvalidRequest, s)
	}
	return format, nil
}

// ValidateTimeframe checks that a timeframe in days is within bounds.
func ValidateTimeframe(days int) error {
	if days < 1 || days > MaxTimeframeDays {
		return fmt.Errorf("%w: timeframe must be between 1 and %d days (received %d)", ErrInvalidRequest, MaxTimeframeDays, days)
	}
	return nil
}

// ParseTimeframe parses a timeframe query parameter. An empty value means the default.
func ParseTimeframe(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultTimeframeDays, nil
	}
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: timeframe must be an integer number of days (received %q)", ErrInvalidRequest, s)
	}
	if err := ValidateTimeframe(days); err != nil {
		return 0, err
	}
	return days, nil
}

// ValidateDatabaseConnectionString validates the format of connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") && !strings.Contains(connStr, ":") {
			return fmt.Errorf("Redis connection string must be a redis:// URL or host:port")
		}
	}
	return nil
}

// ProcessProfilingConfig enables profiling when a prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// validateSimpleInputs processes and validates presentation and timeframe fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Project = strings.TrimSpace(input.Project)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Watch = input.Watch

	colors, err := ParseColorString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if err := ValidateTimeframe(input.Days); err != nil {
		return err
	}
	cfg.Days = input.Days

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := time.ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl '%s': %w", input.CacheTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("cache-ttl must be positive (received %s)", input.CacheTTL)
		}
		cfg.CacheTTL = ttl
	}

	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	return nil
}

// validateResultsConfig validates where validation records and the catalog are read from.
func validateResultsConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.ResultsBackend = schema.ResultsBackend(strings.ToLower(input.ResultsBackend))
	if cfg.ResultsBackend == "" {
		cfg.ResultsBackend = schema.FilesResults
	}
	if _, ok := schema.ValidResultsBackends[cfg.ResultsBackend]; !ok {
		return fmt.Errorf("invalid results backend '%s'. must be files, sqlite, mysql, postgresql", input.ResultsBackend)
	}

	cfg.ResultsPath = input.ResultsPath
	switch cfg.ResultsBackend {
	case schema.FilesResults:
		if cfg.ResultsPath == "" {
			cfg.ResultsPath = DefaultResultsDir
		}
	case schema.SQLiteResults:
		if cfg.ResultsPath == "" {
			cfg.ResultsPath = GetResultsDBFilePath()
		}
	default:
		if err := ValidateDatabaseConnectionString(cfg.ResultsBackend.DatabaseBackend(), cfg.ResultsPath); err != nil {
			return fmt.Errorf("invalid results-path: %w", err)
		}
	}

	cfg.CatalogPath = input.CatalogPath
	return nil
}

// validateBackendConfigs validates snapshot cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Validate that cache and history use different SQLite files
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// validateRequestInputs validates the per-command query parameters.
func validateRequestInputs(cfg *Config, input *ConfigRawInput) error {
	scope, err := ValidateScope(input.Scope)
	if err != nil {
		return err
	}
	cfg.Scope = scope

	format, err := ValidateExportFormat(input.Format)
	if err != nil {
		return err
	}
	cfg.ExportFormat = format
	return nil
}
