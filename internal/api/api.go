// Package api exposes the metrics queries over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long in-flight requests may run after the server is told to stop.
const ShutdownTimeout = 15 * time.Second

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc contract.MetricsService, logger *zap.Logger) *gin.Engine {
	logger = logging.OrNop(logger)
	router := gin.New()
	router.Use(RequestID(), AccessLog(logger), gin.Recovery())
	RegisterRoutes(router, &handler{svc: svc, logger: logger})
	return router
}

// RegisterRoutes wires the HTTP handlers to the gin router.
func RegisterRoutes(router gin.IRouter, h *handler) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", h.prometheus)

	group := router.Group("/api/metrics")
	group.GET("/quality", h.quality)
	group.GET("/trends", h.trends)
	group.GET("/health", h.health)
	group.GET("/patterns", h.patterns)
	group.GET("/performance", h.performance)
	group.GET("/comparative", h.comparative)
	group.GET("/export", h.export)
	group.POST("/cache/clear", h.clearCache)
}

// Serve runs the server until ctx is done, then shuts it down gracefully.
// A nil listener makes the server listen on its own Addr.
func Serve(ctx context.Context, server *http.Server, listener net.Listener, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down HTTP server", zap.String("addr", server.Addr))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
