package cmd

import (
	"github.com/huangsam/qmetrics/core"
	"github.com/huangsam/qmetrics/internal/contract"
	"github.com/huangsam/qmetrics/internal/logging"
	"github.com/huangsam/qmetrics/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the quality metrics MCP server",
	Long:  `Launch an MCP server on stdio so AI agents can query quality metrics via standard tools.`,
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		// The production logger writes to stderr, leaving stdio to the protocol
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
		return mcp.StartMCPServer(rootCtx, cfg, orch)
	},
}
