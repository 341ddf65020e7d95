package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/outwriter"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svc     contract.MetricsService
}

// queryArgs resolves project and timeframe, falling back to the base config.
func (h *toolHandler) queryArgs(request mcp.CallToolRequest) (string, int, error) {
	project := request.GetString("project", h.baseCfg.Project)
	days := h.baseCfg.Days
	if days == 0 {
		days = contract.DefaultTimeframeDays
	}
	if _, ok := request.GetArguments()["timeframe"]; ok {
		days = request.GetInt("timeframe", 0)
		if err := contract.ValidateTimeframe(days); err != nil {
			return "", 0, err
		}
	}
	return project, days, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// runQuery validates the shared arguments, runs fn and encodes its result.
func (h *toolHandler) runQuery(request mcp.CallToolRequest, fn func(project string, days int) (any, error)) (*mcp.CallToolResult, error) {
	project, days, err := h.queryArgs(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	result, err := fn(project, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleGetQuality(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runQuery(request, func(project string, days int) (any, error) {
		return h.svc.Quality(ctx, project, days)
	})
}

func (h *toolHandler) handleGetTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runQuery(request, func(project string, days int) (any, error) {
		return h.svc.Trends(ctx, project, days)
	})
}

func (h *toolHandler) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runQuery(request, func(project string, days int) (any, error) {
		return h.svc.Health(ctx, project, days)
	})
}

func (h *toolHandler) handleGetPatterns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scope, err := contract.ValidateScope(request.GetString("scope", string(h.baseCfg.Scope)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	return h.runQuery(request, func(project string, days int) (any, error) {
		return h.svc.Patterns(ctx, project, days, scope)
	})
}

func (h *toolHandler) handleGetPerformance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runQuery(request, func(project string, days int) (any, error) {
		return h.svc.Performance(ctx, project, days)
	})
}

func (h *toolHandler) handleGetComparative(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.runQuery(request, func(project string, days int) (any, error) {
		return h.svc.Comparative(ctx, project, days)
	})
}

func (h *toolHandler) handleClearCache(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := h.svc.ClearCache()
	return jsonResult(map[string]any{
		"message": "Cache cleared",
		"before":  result.Before,
		"after":   result.After,
	})
}

func (h *toolHandler) handleExportMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := contract.ValidateExportFormat(request.GetString("format", string(h.baseCfg.ExportFormat)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	project, days, err := h.queryArgs(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	snap, err := h.svc.Quality(ctx, project, days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := outwriter.WriteExport(&buf, snap, format); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
