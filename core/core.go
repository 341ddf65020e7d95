// Package core has core logic for computing, caching and reporting quality metrics.
package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/outwriter"
	"github.com/huangsam/qmetrics/internal/store"
	"go.uber.org/zap"
)

// ExecutorFunc defines the function signature for executing the different report commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// BuildOrchestrator opens the configured result store and wires the persistent stores of mgr.
// The returned close function releases the result store.
func BuildOrchestrator(cfg *contract.Config, mgr contract.CacheManager, logger *zap.Logger) (*Orchestrator, func() error, error) {
	results, catalog, err := store.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open result store: %w", err)
	}

	opts := []Option{WithLogger(logger)}
	if mgr != nil {
		// Interface values holding nil pointers must not reach the orchestrator.
		if s := mgr.GetSnapshotStore(); s != nil {
			opts = append(opts, WithSnapshotStore(s))
		}
		if h := mgr.GetHistoryStore(); h != nil {
			opts = append(opts, WithHistoryStore(h))
		}
	}
	orch := NewOrchestrator(results, catalog, NewCache(cfg.CacheTTL, nil), opts...)
	return orch, results.Close, nil
}

// runWithOrchestrator handles the open, run, close sequence shared by every executor.
func runWithOrchestrator(cfg *contract.Config, mgr contract.CacheManager, run func(*Orchestrator) error) error {
	orch, closeFn, err := BuildOrchestrator(cfg, mgr, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil {
			contract.LogWarn("Error closing result store", cerr)
		}
	}()
	return run(orch)
}

// ExecuteQuality computes the full snapshot and prints its headline numbers.
func ExecuteQuality(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		snap, err := o.Quality(ctx, cfg.Project, cfg.Days)
		if err != nil {
			return err
		}
		return outwriter.PrintQualityResults(snap, cfg, time.Since(start))
	})
}

// ExecuteTrends prints the bucketed quality trend.
func ExecuteTrends(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		result, err := o.Trends(ctx, cfg.Project, cfg.Days)
		if err != nil {
			return err
		}
		return outwriter.PrintTrendsResults(result, cfg, time.Since(start))
	})
}

// ExecuteHealth prints the health report.
func ExecuteHealth(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		result, err := o.Health(ctx, cfg.Project, cfg.Days)
		if err != nil {
			return err
		}
		return outwriter.PrintHealthResults(result, cfg, time.Since(start))
	})
}

// ExecutePatterns prints the pattern rankings, narrowed to cfg.Scope when set.
func ExecutePatterns(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		metrics, err := o.Patterns(ctx, cfg.Project, cfg.Days, cfg.Scope)
		if err != nil {
			return err
		}
		return outwriter.PrintPatternsResults(metrics, cfg, time.Since(start))
	})
}

// ExecutePerformance prints execution time statistics.
func ExecutePerformance(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		metrics, err := o.Performance(ctx, cfg.Project, cfg.Days)
		if err != nil {
			return err
		}
		return outwriter.PrintPerformanceResults(metrics, cfg, time.Since(start))
	})
}

// ExecuteComparative prints the cross-project ranking.
func ExecuteComparative(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		metrics, err := o.Comparative(ctx, cfg.Project, cfg.Days)
		if err != nil {
			return err
		}
		return outwriter.PrintComparativeResults(metrics, cfg, time.Since(start))
	})
}

// ExecuteExport writes the snapshot in cfg.ExportFormat to the output file or stdout.
func ExecuteExport(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		snap, err := o.Quality(ctx, cfg.Project, cfg.Days)
		if err != nil {
			return err
		}
		return outwriter.PrintExport(snap, cfg.ExportFormat, cfg.OutputFile)
	})
}

// ExecuteStoreStatus prints record counts for the configured result store.
func ExecuteStoreStatus(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	return runWithOrchestrator(cfg, mgr, func(o *Orchestrator) error {
		status, err := o.ResultStatus(ctx)
		if err != nil {
			return err
		}
		outwriter.WriteStoreStatus(os.Stdout, status)
		return nil
	})
}
