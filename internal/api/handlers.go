package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"github.com/huangsam/qmetrics/internal/outwriter"
	"go.uber.org/zap"
)

type handler struct {
	svc    contract.MetricsService
	logger *zap.Logger
}

// query holds the parameters shared by every metrics route.
type query struct {
	project string
	days    int
}

func parseQuery(c *gin.Context) (query, error) {
	days, err := contract.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		return query{}, err
	}
	return query{project: strings.TrimSpace(c.Query("project")), days: days}, nil
}

// fail maps an error to a JSON error response.
func (h *handler) fail(c *gin.Context, operation string, err error) {
	if errors.Is(err, contract.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestID := c.GetString(requestIDKey)
	logging.WithOperation(h.logger, operation, requestID).
		Error("query failed", zap.Error(logging.NewOperationError(operation, requestID, err)))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// respond runs fn with the parsed query and writes its result as JSON.
func (h *handler) respond(c *gin.Context, operation string, fn func(q query) (any, error)) {
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, operation, err)
		return
	}
	result, err := fn(q)
	if err != nil {
		h.fail(c, operation, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) quality(c *gin.Context) {
	h.respond(c, "quality", func(q query) (any, error) {
		return h.svc.Quality(c.Request.Context(), q.project, q.days)
	})
}

func (h *handler) trends(c *gin.Context) {
	h.respond(c, "trends", func(q query) (any, error) {
		return h.svc.Trends(c.Request.Context(), q.project, q.days)
	})
}

func (h *handler) health(c *gin.Context) {
	h.respond(c, "health", func(q query) (any, error) {
		return h.svc.Health(c.Request.Context(), q.project, q.days)
	})
}

func (h *handler) patterns(c *gin.Context) {
	scope, err := contract.ValidateScope(c.Query("scope"))
	if err != nil {
		h.fail(c, "patterns", err)
		return
	}
	h.respond(c, "patterns", func(q query) (any, error) {
		return h.svc.Patterns(c.Request.Context(), q.project, q.days, scope)
	})
}

func (h *handler) performance(c *gin.Context) {
	h.respond(c, "performance", func(q query) (any, error) {
		return h.svc.Performance(c.Request.Context(), q.project, q.days)
	})
}

func (h *handler) comparative(c *gin.Context) {
	h.respond(c, "comparative", func(q query) (any, error) {
		return h.svc.Comparative(c.Request.Context(), q.project, q.days)
	})
}

func (h *handler) clearCache(c *gin.Context) {
	result := h.svc.ClearCache()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared",
		"before":  result.Before,
		"after":   result.After,
	})
}

func (h *handler) export(c *gin.Context) {
	format, err := contract.ValidateExportFormat(c.Query("format"))
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	q, err := parseQuery(c)
	if err != nil {
		h.fail(c, "export", err)
		return
	}
	snap, err := h.svc.Quality(c.Request.Context(), q.project, q.days)
	if err != nil {
		h.fail(c, "export", err)
		return
	}

	c.Header("Content-Type", outwriter.ExportContentType(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outwriter.ExportFilename(q.project, q.days, format)))
	c.Status(http.StatusOK)
	if err := outwriter.WriteExport(c.Writer, snap, format); err != nil {
		h.logger.Error("failed to write export", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
	}
}
