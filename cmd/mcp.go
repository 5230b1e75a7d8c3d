package cmd

import (
	"github.com/cecompare/cecompare/internal/archive"
	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/internal/mcp"
	"github.com/cecompare/cecompare/schema"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the cecompare MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents compare engines via standard tools.

Tools:
  compare_engines - compare one tenant for one date and return the JSON report
  list_tenants    - list the configured tenants`,
	PreRunE: optionalSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := archive.Open(rootCtx, cfg.ArchiveBackend, cfg.ArchiveDBConnect)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		var sinks []contract.OutcomeSink
		if cfg.ArchiveBackend != schema.NoneBackend {
			sinks = append(sinks, archive.Sink(store))
		}
		return mcp.StartMCPServer(rootCtx, cfg, nil, sinks...)
	},
}
