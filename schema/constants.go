// Package schema holds the records, derived metrics and constants shared across qmetrics.
package schema

// Custom string types for type safety.
type (
	// Status represents the outcome of a single validation run.
	Status string

	// TrendLabel represents the direction of the success rate over time.
	TrendLabel string

	// Grade represents a categorical health or effectiveness grade.
	Grade string

	// PatternScope represents the library scope a pattern belongs to.
	PatternScope string

	// IndicatorLevel represents the severity of a health indicator.
	IndicatorLevel string

	// OutputMode represents the format of the output.
	OutputMode string

	// ExportFormat represents the format of an export byte stream.
	ExportFormat string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// ResultsBackend represents where validation results are read from.
	ResultsBackend string
)

// All validation statuses supported.
const (
	SuccessStatus Status = "success"
	FailureStatus Status = "failure"
	WarningStatus Status = "warning"
)

// All trend labels supported.
const (
	ImprovingTrend TrendLabel = "improving"
	StableTrend    TrendLabel = "stable" // default
	DecliningTrend TrendLabel = "declining"
)

// All grades supported. UnknownGrade is only used by health for empty input.
const (
	ExcellentGrade Grade = "excellent"
	GoodGrade      Grade = "good"
	FairGrade      Grade = "fair"
	PoorGrade      Grade = "poor"
	UnknownGrade   Grade = "unknown"
)

// All pattern library scopes supported.
const (
	UniversalScope PatternScope = "universal"
	BackendScope   PatternScope = "backend"
	FrontendScope  PatternScope = "frontend"
)

// All indicator levels supported.
const (
	SuccessLevel IndicatorLevel = "success"
	WarningLevel IndicatorLevel = "warning"
	InfoLevel    IndicatorLevel = "info"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All export formats supported.
const (
	JSONExport ExportFormat = "json" // default
	CSVExport  ExportFormat = "csv"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis"
	NoneBackend       DatabaseBackend = "none"
)

// All results backends supported.
const (
	FilesResults      ResultsBackend = "files" // default
	SQLiteResults     ResultsBackend = "sqlite"
	MySQLResults      ResultsBackend = "mysql"
	PostgreSQLResults ResultsBackend = "postgresql"
)

// UnknownProject is used for records without a project.
const UnknownProject = "unknown"

// GlobalScope is the cache scope used when no project filter is given.
const GlobalScope = "global"

// AllPatternScopes returns the library scopes in display order.
var AllPatternScopes = []PatternScope{UniversalScope, BackendScope, FrontendScope}

// ValidStatuses lists all valid validation statuses.
var ValidStatuses = map[Status]struct{}{
	SuccessStatus: {},
	FailureStatus: {},
	WarningStatus: {},
}

// ValidPatternScopes lists all valid pattern scopes.
var ValidPatternScopes = map[PatternScope]struct{}{
	UniversalScope: {},
	BackendScope:   {},
	FrontendScope:  {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidExportFormats lists all valid export formats.
var ValidExportFormats = map[ExportFormat]struct{}{
	JSONExport: {},
	CSVExport:  {},
}

// ValidCacheBackends lists all valid snapshot cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid snapshot history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidResultsBackends lists all valid results backends.
var ValidResultsBackends = map[ResultsBackend]struct{}{
	FilesResults:      {},
	SQLiteResults:     {},
	MySQLResults:      {},
	PostgreSQLResults: {},
}

// DatabaseBackend maps a SQL results backend to the matching database backend.
// The files backend has no database equivalent and maps to NoneBackend.
func (r ResultsBackend) DatabaseBackend() DatabaseBackend {
	switch r {
	case SQLiteResults:
		return SQLiteBackend
	case MySQLResults:
		return MySQLBackend
	case PostgreSQLResults:
		return PostgreSQLBackend
	default:
		return NoneBackend
	}
}
