// Package store reads validation records and the pattern catalog from files or SQL databases.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

// rawPattern is a pattern reference as written by producers.
// Older producers only set Type, so it is kept as a fallback for Name.
type rawPattern struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Scope      string   `json:"scope"`
	Confidence *float64 `json:"confidence"`
}

// rawRecord is the on-disk shape of one validation result.
type rawRecord struct {
	ID            string          `json:"id"`
	Project       string          `json:"project"`
	Timestamp     json.RawMessage `json:"timestamp"`
	Status        string          `json:"status"`
	ExecutionTime *float64        `json:"executionTime"`
	TestCount     *int            `json:"testCount"`
	Patterns      []rawPattern    `json:"patterns"`
}

// recordFields is a decoded record before normalization.
type recordFields struct {
	ID            string
	Project       string
	Timestamp     time.Time // zero when absent
	Status        string
	ExecutionTime *float64
	TestCount     *int
	Patterns      []rawPattern
}

// decodeRecords splits a JSON document into records. A document holds either a
// single object or an array of objects; each array element is decoded on its own
// so one bad element does not hide the rest.
func decodeRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	return []json.RawMessage{trimmed}, nil
}

// parseRecord decodes one JSON record into its fields.
func parseRecord(item json.RawMessage) (recordFields, error) {
	var raw rawRecord
	if err := json.Unmarshal(item, &raw); err != nil {
		return recordFields{}, err
	}
	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return recordFields{}, err
	}
	return recordFields{
		ID:            raw.ID,
		Project:       raw.Project,
		Timestamp:     ts,
		Status:        raw.Status,
		ExecutionTime: raw.ExecutionTime,
		TestCount:     raw.TestCount,
		Patterns:      raw.Patterns,
	}, nil
}

// parseTimestamp accepts RFC 3339 strings or epoch milliseconds.
// A missing or null timestamp yields the zero time.
func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, err
		}
		if strings.TrimSpace(str) == "" {
			return time.Time{}, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", str, err)
		}
		return ts, nil
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %s: %w", s, err)
	}
	return time.UnixMilli(int64(ms)), nil
}

// normalize validates the fields and applies the record defaults:
// missing project becomes "unknown", missing timestamp becomes fallback,
// and each pattern is keyed by name, then type, then "unknown".
func normalize(f recordFields, fallback time.Time, fallbackID string) (schema.ValidationResult, error) {
	status := schema.Status(strings.ToLower(strings.TrimSpace(f.Status)))
	if _, ok := schema.ValidStatuses[status]; !ok {
		return schema.ValidationResult{}, fmt.Errorf("invalid status %q", f.Status)
	}
	if f.ExecutionTime != nil && *f.ExecutionTime < 0 {
		return schema.ValidationResult{}, fmt.Errorf("negative execution time %v", *f.ExecutionTime)
	}
	if f.TestCount != nil && *f.TestCount < 0 {
		return schema.ValidationResult{}, fmt.Errorf("negative test count %d", *f.TestCount)
	}

	ts := f.Timestamp
	if ts.IsZero() {
		ts = fallback
	}
	id := strings.TrimSpace(f.ID)
	if id == "" {
		id = fallbackID
	}

	patterns := make([]schema.PatternRef, 0, len(f.Patterns))
	for _, p := range f.Patterns {
		ref := schema.PatternRef{
			Name:  schema.PatternKey(p.Name, p.Type),
			Scope: schema.PatternScope(strings.ToLower(strings.TrimSpace(p.Scope))),
		}
		if p.Confidence != nil {
			ref.Confidence = *p.Confidence
		}
		patterns = append(patterns, ref)
	}

	return schema.ValidationResult{
		ID:            id,
		Project:       schema.NormalizeProject(f.Project),
		Timestamp:     ts.UTC(),
		Status:        status,
		ExecutionTime: f.ExecutionTime,
		TestCount:     f.TestCount,
		Patterns:      patterns,
	}, nil
}

// filterRecords keeps records matching the project filter at or after cutoff.
func filterRecords(records []schema.ValidationResult, project string, cutoff time.Time) []schema.ValidationResult {
	out := make([]schema.ValidationResult, 0, len(records))
	for _, r := range records {
		if !cutoff.IsZero() && r.Timestamp.Before(cutoff) {
			continue
		}
		if !schema.MatchesProject(r.Project, project) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// sortRecords orders records ascending by timestamp, then by ID for stability.
func sortRecords(records []schema.ValidationResult) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].ID < records[j].ID
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// summarize builds a store status from a full scan.
func summarize(backend, location string, records []schema.ValidationResult, skipped int) schema.StoreStatus {
	status := schema.StoreStatus{
		Backend:        backend,
		Location:       location,
		TotalRecords:   len(records),
		SkippedRecords: skipped,
	}
	for i, r := range records {
		if i == 0 || r.Timestamp.Before(status.OldestRecord) {
			status.OldestRecord = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(status.NewestRecord) {
			status.NewestRecord = r.Timestamp
		}
	}
	return status
}
