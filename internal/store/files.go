package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"github.com/huangsam/qmetrics/schema"
	"go.uber.org/zap"
)

// FileResultStore reads validation results from a directory of *.json files.
type FileResultStore struct {
	dir    string
	logger *zap.Logger
}

var _ contract.ResultStore = &FileResultStore{} // Compile-time check

// NewFileResultStore returns a store rooted at dir. The directory does not need to exist yet.
func NewFileResultStore(dir string, logger *zap.Logger) *FileResultStore {
	return &FileResultStore{dir: dir, logger: logging.OrNop(logger)}
}

// Dir returns the directory being read.
func (s *FileResultStore) Dir() string {
	return s.dir
}

// Load returns matching records sorted ascending by timestamp.
func (s *FileResultStore) Load(ctx context.Context, project string, cutoff time.Time) ([]schema.ValidationResult, error) {
	records, _, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	return filterRecords(records, project, cutoff), nil
}

// LoadAll returns every record in the directory.
func (s *FileResultStore) LoadAll(ctx context.Context) ([]schema.ValidationResult, error) {
	records, _, err := s.scan(ctx)
	return records, err
}

// Status scans the directory and reports counts and the covered time range.
func (s *FileResultStore) Status(ctx context.Context) (schema.StoreStatus, error) {
	records, skipped, err := s.scan(ctx)
	if err != nil {
		return schema.StoreStatus{}, err
	}
	return summarize(string(schema.FilesResults), s.dir, records, skipped), nil
}

// Close is a no-op for the file store.
func (s *FileResultStore) Close() error {
	return nil
}

// scan reads every *.json file in the directory. An unreadable directory
// yields no records. Malformed files or records are skipped and counted.
func (s *FileResultStore) scan(ctx context.Context) ([]schema.ValidationResult, int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("results directory unreadable", zap.String("dir", s.dir), zap.Error(err))
		return []schema.ValidationResult{}, 0, nil
	}

	records := make([]schema.ValidationResult, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		fileRecords, fileSkipped := s.readFile(entry)
		records = append(records, fileRecords...)
		skipped += fileSkipped
	}

	sortRecords(records)
	return records, skipped, nil
}

func (s *FileResultStore) readFile(entry os.DirEntry) ([]schema.ValidationResult, int) {
	path := filepath.Join(s.dir, entry.Name())
	info, err := entry.Info()
	if err != nil {
		s.logger.Warn("skipping unreadable result file", zap.String("file", path), zap.Error(err))
		return nil, 1
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("skipping unreadable result file", zap.String("file", path), zap.Error(err))
		return nil, 1
	}

	items, err := decodeRecords(data)
	if err != nil {
		s.logger.Warn("skipping malformed result file", zap.String("file", path), zap.Error(err))
		return nil, 1
	}

	base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
	records := make([]schema.ValidationResult, 0, len(items))
	skipped := 0
	for i, item := range items {
		fallbackID := base
		if len(items) > 1 {
			fallbackID = fmt.Sprintf("%s-%d", base, i)
		}
		fields, err := parseRecord(item)
		if err == nil {
			var record schema.ValidationResult
			record, err = normalize(fields, info.ModTime(), fallbackID)
			if err == nil {
				records = append(records, record)
				continue
			}
		}
		s.logger.Warn("skipping malformed result record",
			zap.String("file", path), zap.Int("index", i), zap.Error(err))
		skipped++
	}
	return records, skipped
}
