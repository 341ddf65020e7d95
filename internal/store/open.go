package store

import (
	"fmt"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/schema"
	"go.uber.org/zap"
)

// Open builds the result store and catalog described by the configuration.
// An explicit catalog path always wins; otherwise SQL backends read the
// pattern_catalog table and the files backend reports an empty catalog.
func Open(cfg *contract.Config, logger *zap.Logger) (contract.ResultStore, contract.CatalogStore, error) {
	switch cfg.ResultsBackend {
	case schema.FilesResults, "":
		return NewFileResultStore(cfg.ResultsPath, logger), NewFileCatalog(cfg.CatalogPath), nil

	case schema.SQLiteResults, schema.MySQLResults, schema.PostgreSQLResults:
		s, err := NewSQLResultStore(cfg.ResultsBackend.DatabaseBackend(), cfg.ResultsPath, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.CatalogPath != "" {
			return s, NewFileCatalog(cfg.CatalogPath), nil
		}
		return s, s, nil

	default:
		return nil, nil, fmt.Errorf("unsupported results backend: %s", cfg.ResultsBackend)
	}
}
