// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/internal/fetch"
	"github.com/cecompare/cecompare/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SourceFactory builds the dataset source for a per-call config.
type SourceFactory func(cfg *contract.Config) contract.DatasetSource

// NewMCPServer initializes and configures the cecompare MCP server without starting it.
// A nil factory uses fetch.NewSource. Sinks receive every outcome produced by a tool call.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, newSource SourceFactory, sinks ...contract.OutcomeSink) *server.MCPServer {
	s := server.NewMCPServer(
		"cecompare Engine Comparison Server",
		"1.0.0",
		server.WithLogging(),
	)

	if newSource == nil {
		newSource = fetch.NewSource
	}
	h := &toolHandler{
		baseCfg:   baseCfg,
		newSource: newSource,
		sinks:     sinks,
	}

	selects := make([]string, 0, len(schema.ValidResultSelects))
	for _, sel := range []schema.ResultSelect{schema.SelectFirst, schema.SelectLast, schema.SelectDate} {
		selects = append(selects, string(sel))
	}

	// --- 1. Tool: compare_engines ---
	s.AddTool(mcp.NewTool("compare_engines",
		mcp.WithDescription("Compare availability and reliability of the prod and devel compute engines of a tenant for one date."),
		mcp.WithString("tenant", mcp.Description("Tenant name as configured (case-insensitive)."), mcp.Required()),
		mcp.WithString("date", mcp.Description("Date to compare in YYYY-MM-DD format."), mcp.Required()),
		mcp.WithNumber("threshold", mcp.Description("Delta at or above which an endpoint is reported. Defaults to the configured threshold.")),
		mcp.WithString("result_select", mcp.Description("Which dated result of an endpoint to use. Defaults to the configured strategy."), mcp.Enum(selects...)),
	), h.handleCompareEngines)

	// --- 2. Tool: list_tenants ---
	s.AddTool(mcp.NewTool("list_tenants",
		mcp.WithDescription("List the tenants that can be compared."),
	), h.handleListTenants)

	return s
}

// StartMCPServer starts the cecompare MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, newSource SourceFactory, sinks ...contract.OutcomeSink) error {
	s := NewMCPServer(baseCfg, newSource, sinks...)
	return server.ServeStdio(s)
}
