package schema

import "strings"

// NormalizeProject returns the project name used for grouping.
// Missing or blank projects are grouped under UnknownProject.
func NormalizeProject(project string) string {
	trimmed := strings.TrimSpace(project)
	if trimmed == "" {
		return UnknownProject
	}
	return trimmed
}

// PatternKey resolves the key a pattern is tracked under.
// It falls back from the name to the declared type, and finally to "unknown".
func PatternKey(name, declaredType string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if t := strings.TrimSpace(declaredType); t != "" {
		return t
	}
	return "unknown"
}

// CacheScope returns the cache scope for an optional project filter.
func CacheScope(project string) string {
	if project == "" {
		return GlobalScope
	}
	return project
}

// MatchesProject reports whether a record project matches the filter.
// The filter is a case-insensitive substring; an empty filter matches everything.
func MatchesProject(recordProject, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(recordProject), strings.ToLower(filter))
}
