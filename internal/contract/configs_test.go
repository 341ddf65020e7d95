package contract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/qmetrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input equivalent to the CLI defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Days:           DefaultTimeframeDays,
		Output:         "text",
		Precision:      DefaultPrecision,
		Color:          "no",
		ResultsBackend: "files",
		CacheBackend:   "none",
		CacheTTL:       "5m",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
		check       func(*testing.T, *Config)
	}{
		{
			name:   "valid minimal config",
			mutate: func(*ConfigRawInput) {},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultTimeframeDays, cfg.Days)
				assert.Equal(t, schema.TextOut, cfg.Output)
				assert.Equal(t, schema.FilesResults, cfg.ResultsBackend)
				assert.Equal(t, DefaultResultsDir, cfg.ResultsPath)
				assert.Equal(t, schema.NoneBackend, cfg.CacheBackend)
				assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
				assert.Equal(t, schema.JSONExport, cfg.ExportFormat)
				assert.Equal(t, DefaultServeAddr, cfg.ServeAddr)
				assert.Empty(t, cfg.Scope)
			},
		},
		{
			name: "normalizes case and trims project",
			mutate: func(in *ConfigRawInput) {
				in.Output = "JSON"
				in.Scope = "Backend"
				in.Format = "CSV"
				in.Project = "  web-app "
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.JSONOut, cfg.Output)
				assert.Equal(t, schema.BackendScope, cfg.Scope)
				assert.Equal(t, schema.CSVExport, cfg.ExportFormat)
				assert.Equal(t, "web-app", cfg.Project)
			},
		},
		{
			name:        "invalid output",
			mutate:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: true,
		},
		{
			name:        "zero days",
			mutate:      func(in *ConfigRawInput) { in.Days = 0 },
			expectError: true,
		},
		{
			name:        "too many days",
			mutate:      func(in *ConfigRawInput) { in.Days = MaxTimeframeDays + 1 },
			expectError: true,
		},
		{
			name:        "invalid precision",
			mutate:      func(in *ConfigRawInput) { in.Precision = 3 },
			expectError: true,
		},
		{
			name:        "invalid color",
			mutate:      func(in *ConfigRawInput) { in.Color = "sometimes" },
			expectError: true,
		},
		{
			name:        "invalid scope",
			mutate:      func(in *ConfigRawInput) { in.Scope = "mobile" },
			expectError: true,
		},
		{
			name:        "invalid export format",
			mutate:      func(in *ConfigRawInput) { in.Format = "xml" },
			expectError: true,
		},
		{
			name:        "invalid cache ttl",
			mutate:      func(in *ConfigRawInput) { in.CacheTTL = "soon" },
			expectError: true,
		},
		{
			name:        "negative cache ttl",
			mutate:      func(in *ConfigRawInput) { in.CacheTTL = "-1m" },
			expectError: true,
		},
		{
			name:        "invalid results backend",
			mutate:      func(in *ConfigRawInput) { in.ResultsBackend = "mongo" },
			expectError: true,
		},
		{
			name: "sqlite results default path",
			mutate: func(in *ConfigRawInput) {
				in.ResultsBackend = "sqlite"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, GetResultsDBFilePath(), cfg.ResultsPath)
			},
		},
		{
			name: "postgres results requires dsn",
			mutate: func(in *ConfigRawInput) {
				in.ResultsBackend = "postgresql"
			},
			expectError: true,
		},
		{
			name:        "invalid cache backend",
			mutate:      func(in *ConfigRawInput) { in.CacheBackend = "memcached" },
			expectError: true,
		},
		{
			name: "redis cache backend",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "redis"
				in.CacheDBConnect = "redis://localhost:6379/0"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.RedisBackend, cfg.CacheBackend)
			},
		},
		{
			name:        "redis history backend not supported",
			mutate:      func(in *ConfigRawInput) { in.HistoryBackend = "redis" },
			expectError: true,
		},
		{
			name: "cache and history share sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.HistoryBackend = "sqlite"
				in.CacheDBConnect = "/tmp/same.db"
				in.HistoryDBConnect = "/tmp/same.db"
			},
			expectError: true,
		},
		{
			name: "cache and history separate sqlite files",
			mutate: func(in *ConfigRawInput) {
				in.CacheBackend = "sqlite"
				in.HistoryBackend = "sqlite"
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, schema.SQLiteBackend, cfg.HistoryBackend)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(input)
			cfg := &Config{}

			err := ProcessAndValidate(context.Background(), cfg, input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/qmetrics", false},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/qmetrics", true},
		{"mysql missing db", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=qmetrics", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=qmetrics", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"redis url", schema.RedisBackend, "redis://localhost:6379/0", false},
		{"redis host port", schema.RedisBackend, "localhost:6379", false},
		{"redis empty", schema.RedisBackend, "", true},
		{"redis garbage", schema.RedisBackend, "localhost", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateScope(t *testing.T) {
	scope, err := ValidateScope("")
	require.NoError(t, err)
	assert.Empty(t, scope)

	scope, err = ValidateScope("FRONTEND")
	require.NoError(t, err)
	assert.Equal(t, schema.FrontendScope, scope)

	_, err = ValidateScope("mobile")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "invalid scope 'mobile'")
}

func TestValidateExportFormat(t *testing.T) {
	format, err := ValidateExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, schema.JSONExport, format)

	format, err = ValidateExportFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, schema.CSVExport, format)

	_, err = ValidateExportFormat("parquet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", DefaultTimeframeDays, false},
		{"7", 7, false},
		{" 90 ", 90, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"3651", 0, true},
		{"week", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTimeframe(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigCutoff(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	cfg := &Config{Days: 7}
	assert.Equal(t, time.Date(2024, 6, 23, 12, 0, 0, 0, time.UTC), cfg.Cutoff(now))
}
