package schema

import "time"

// CacheStatus represents the status of the persistent snapshot cache.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the snapshot history store.
type HistoryStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	TotalRuns     int       `json:"total_runs"`
	LastRunID     int64     `json:"last_run_id"`
	LastRunTime   time.Time `json:"last_run_time"`
	OldestRunTime time.Time `json:"oldest_run_time"`
	Projects      int       `json:"projects"`
}

// StoreStatus represents the status of the result store.
type StoreStatus struct {
	Backend        string    `json:"backend"`
	Location       string    `json:"location"`
	TotalRecords   int       `json:"total_records"`
	SkippedRecords int       `json:"skipped_records"`
	OldestRecord   time.Time `json:"oldest_record"`
	NewestRecord   time.Time `json:"newest_record"`
}

// SnapshotRun is one computed snapshot recorded in the history store.
type SnapshotRun struct {
	RunID            int64      `json:"run_id"`
	Project          string     `json:"project"`
	Timeframe        int        `json:"timeframe"`
	ComputedAt       time.Time  `json:"computed_at"`
	TotalValidations int        `json:"total_validations"`
	SuccessRate      int        `json:"success_rate"`
	QualityScore     int        `json:"quality_score"`
	HealthScore      int        `json:"health_score"`
	HealthGrade      Grade      `json:"health_grade"`
	Trend            TrendLabel `json:"trend"`
}
