package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of a pattern library file.
//
//	version: "2.1.0"
//	versions:
//	  frontend: "1.4.0"
//	patterns:
//	  - name: retry-with-backoff
//	    scope: backend
//	    confidence: 0.9
type catalogFile struct {
	Version  string                         `yaml:"version"`
	Versions map[schema.PatternScope]string `yaml:"versions"`
	Patterns []schema.CatalogEntry          `yaml:"patterns"`
}

// FileCatalog reads the declared pattern library from a YAML file.
type FileCatalog struct {
	path string
}

var _ contract.CatalogStore = &FileCatalog{} // Compile-time check

// NewFileCatalog returns a catalog backed by path. An empty path means no catalog.
func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

// LibraryStats counts declared patterns per scope. A missing file yields zero counts.
func (c *FileCatalog) LibraryStats(_ context.Context) (map[schema.PatternScope]schema.LibraryStat, error) {
	stats := emptyLibraryStats()
	if c.path == "" {
		return stats, nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern catalog %s: %w", c.path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pattern catalog %s: %w", c.path, err)
	}

	for scope := range stats {
		version := file.Version
		if v, ok := file.Versions[scope]; ok && v != "" {
			version = v
		}
		stats[scope] = schema.LibraryStat{Version: version}
	}
	for _, entry := range file.Patterns {
		scope := schema.PatternScope(strings.ToLower(strings.TrimSpace(string(entry.Scope))))
		stat, ok := stats[scope]
		if !ok {
			return nil, fmt.Errorf("pattern %q has invalid scope %q", entry.Name, entry.Scope)
		}
		stat.Count++
		stats[scope] = stat
	}
	return stats, nil
}

// emptyLibraryStats returns a zero entry for each scope.
func emptyLibraryStats() map[schema.PatternScope]schema.LibraryStat {
	stats := make(map[schema.PatternScope]schema.LibraryStat, len(schema.AllPatternScopes))
	for _, scope := range schema.AllPatternScopes {
		stats[scope] = schema.LibraryStat{}
	}
	return stats
}
