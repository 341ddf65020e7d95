package schema

import "time"

// PatternRef is a pattern applied during one validation run.
// Name is already normalized, so it is never empty.
type PatternRef struct {
	Name       string       `json:"name"`
	Scope      PatternScope `json:"scope,omitempty"`
	Confidence float64      `json:"confidence"`
}

// ValidationResult is one immutable validation record.
// ExecutionTime and TestCount are nil when the producer did not report them.
type ValidationResult struct {
	ID            string       `json:"id"`
	Project       string       `json:"project"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        Status       `json:"status"`
	ExecutionTime *float64     `json:"executionTime,omitempty"` // milliseconds
	TestCount     *int         `json:"testCount,omitempty"`
	Patterns      []PatternRef `json:"patterns"`
}

// CatalogEntry is a pattern declared in the pattern library.
type CatalogEntry struct {
	Name       string       `json:"name" yaml:"name"`
	Scope      PatternScope `json:"scope" yaml:"scope"`
	Confidence float64      `json:"confidence" yaml:"confidence"`
}

// LibraryStat summarizes the declared catalog for one scope.
type LibraryStat struct {
	Count   int    `json:"count"`
	Version string `json:"version"`
}
