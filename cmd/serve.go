package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/qmetrics/core"
	"github.com/huangsam/qmetrics/internal/api"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"github.com/huangsam/qmetrics/internal/store"
	"github.com/huangsam/qmetrics/schema"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the HTTP query surface.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics queries over HTTP.",
	Long: `Start an HTTP server exposing every metrics query as JSON.

Routes:
  GET  /api/metrics/quality|trends|health|patterns|performance|comparative
  GET  /api/metrics/export?format=json|csv
  POST /api/metrics/cache/clear
  GET  /healthz
  GET  /metrics (Prometheus text format)

All query routes accept ?project= and ?timeframe= (days, 1-3650).
With --watch, the cache is cleared whenever a result file changes.

Examples:
  qmetrics serve --addr :9090
  qmetrics serve --results-path ./validation-results --watch`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		logger, err := logging.NewLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		orch, closeFn, err := core.BuildOrchestrator(cfg, cacheManager, logger)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeFn(); cerr != nil {
				contract.LogWarn("Error closing result store", cerr)
			}
		}()

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Watch {
			if cfg.ResultsBackend != schema.FilesResults {
				return errors.New("--watch requires the files results backend")
			}
			go func() {
				err := store.Watch(ctx, cfg.ResultsPath, logger, func(path string) {
					result := orch.ClearCache()
					logger.Info("results changed, cache cleared",
						zap.String("path", path), zap.Int("entries", result.Before.Size))
				})
				if err != nil {
					logger.Warn("result watcher stopped", zap.Error(err))
				}
			}()
		}

		gin.SetMode(gin.ReleaseMode)
		server := &http.Server{
			Addr:              cfg.ServeAddr,
			Handler:           api.NewRouter(orch, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("qmetrics API listening", zap.String("addr", cfg.ServeAddr))
		return api.Serve(ctx, server, nil, logger)
	},
}
