// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// queryOptions are the arguments every metrics tool accepts.
func queryOptions(extra ...mcp.ToolOption) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithString("project", mcp.Description("Project name filter (case-insensitive substring). Omit for all projects.")),
		mcp.WithNumber("timeframe", mcp.Description("Number of days to look back (1-3650). Defaults to 30."), mcp.Min(1), mcp.Max(contract.MaxTimeframeDays)),
	}
	return append(opts, extra...)
}

// NewMCPServer initializes and configures the quality metrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, svc contract.MetricsService) *server.MCPServer {
	s := server.NewMCPServer(
		"Quality Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg, svc: svc}

	s.AddTool(mcp.NewTool("get_quality", append(
		[]mcp.ToolOption{mcp.WithDescription("Full quality metrics snapshot: overview, trends, patterns, performance, health and comparison.")},
		queryOptions()...)...,
	), h.handleGetQuality)

	s.AddTool(mcp.NewTool("get_trends", append(
		[]mcp.ToolOption{mcp.WithDescription("Success and quality rates over time, split into up to 11 periods.")},
		queryOptions()...)...,
	), h.handleGetTrends)

	s.AddTool(mcp.NewTool("get_health", append(
		[]mcp.ToolOption{mcp.WithDescription("Health score, grade, indicators and recommendations.")},
		queryOptions()...)...,
	), h.handleGetHealth)

	s.AddTool(mcp.NewTool("get_patterns", append(
		[]mcp.ToolOption{mcp.WithDescription("Pattern usage and effectiveness rankings.")},
		queryOptions(mcp.WithString("scope",
			mcp.Description("Only include patterns of this scope."),
			mcp.Enum("universal", "backend", "frontend")))...)...,
	), h.handleGetPatterns)

	s.AddTool(mcp.NewTool("get_performance", append(
		[]mcp.ToolOption{mcp.WithDescription("Execution time statistics, test counts and throughput.")},
		queryOptions()...)...,
	), h.handleGetPerformance)

	s.AddTool(mcp.NewTool("get_comparative", append(
		[]mcp.ToolOption{mcp.WithDescription("Rank every project by quality score against the average.")},
		queryOptions()...)...,
	), h.handleGetComparative)

	s.AddTool(mcp.NewTool("clear_cache",
		mcp.WithDescription("Discard every cached metrics snapshot."),
	), h.handleClearCache)

	s.AddTool(mcp.NewTool("export_metrics", append(
		[]mcp.ToolOption{mcp.WithDescription("Export the metrics snapshot as JSON or as CSV trend rows.")},
		queryOptions(mcp.WithString("format",
			mcp.Description("Export format. Defaults to json."),
			mcp.Enum("json", "csv")))...)...,
	), h.handleExportMetrics)

	return s
}

// StartMCPServer starts the quality metrics MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, svc contract.MetricsService) error {
	s := NewMCPServer(baseCfg, svc)
	return server.ServeStdio(s)
}
