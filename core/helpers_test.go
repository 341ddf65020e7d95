package core

import (
	"fmt"
	"time"

	"github.com/huangsam/qmetrics/schema"
)

var testNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// newRecord builds a record aged relative to testNow with the named patterns.
func newRecord(project string, age time.Duration, status schema.Status, patterns ...string) schema.ValidationResult {
	refs := make([]schema.PatternRef, 0, len(patterns))
	for _, p := range patterns {
		refs = append(refs, schema.PatternRef{Name: p, Scope: schema.BackendScope, Confidence: 0.8})
	}
	return schema.ValidationResult{
		ID:        fmt.Sprintf("%s-%s-%d", project, status, age),
		Project:   project,
		Timestamp: testNow.Add(-age),
		Status:    status,
		Patterns:  refs,
	}
}

// repeat returns n records with the same status, one hour apart, oldest first.
func repeat(project string, n int, baseAge time.Duration, status schema.Status, patterns ...string) []schema.ValidationResult {
	out := make([]schema.ValidationResult, 0, n)
	for i := n - 1; i >= 0; i-- {
		r := newRecord(project, baseAge+time.Duration(i)*time.Hour, status, patterns...)
		r.ID = fmt.Sprintf("%s-%d", r.ID, i)
		out = append(out, r)
	}
	return out
}
