package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cecompare/cecompare/core"
	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg   *contract.Config
	newSource SourceFactory
	sinks     []contract.OutcomeSink
}

func (h *toolHandler) handleCompareEngines(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := request.GetString("date", "")
	if _, err := contract.DateRange(date, date); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}

	tenant, err := h.baseCfg.LookupTenant(request.GetString("tenant", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: %v", err)), nil
	}

	cfg := h.baseCfg.CloneForDate(date)
	cfg.Tenant = tenant
	cfg.Threshold = request.GetFloat("threshold", cfg.Threshold)
	if cfg.Threshold < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: threshold must be non-negative, got %v", cfg.Threshold)), nil
	}
	if sel := request.GetString("result_select", ""); sel != "" {
		cfg.ResultSelect = schema.ResultSelect(sel)
		if _, ok := schema.ValidResultSelects[cfg.ResultSelect]; !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid comparison parameters: unknown result_select %q", sel)), nil
		}
	}

	outcome := core.RunDate(ctx, cfg, h.newSource(cfg), date)
	for _, sink := range h.sinks {
		if err := sink.Consume(ctx, tenant.Name, outcome); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to record outcome: %v", err)), nil
		}
	}
	if !outcome.Compared() {
		return mcp.NewToolResultError(fmt.Sprintf("comparison could not run for %s: %s", date, outcome.Reason)), nil
	}

	return jsonResult(outcome.Report), nil
}

func (h *toolHandler) handleListTenants(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.baseCfg.TenantNames()), nil
}

// jsonResult encodes v as an indented JSON tool result, or a tool error if it cannot be encoded.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}
