package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/mcp"
)

// MetricsHandler exposes Prometheus metrics over HTTP.
type MetricsHandler interface {
	Handler() http.Handler
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask
questions about the active manual.

Tools: ask_manual, search_manual, ingest_status
Resources: manualqa://manuals, manualqa://manuals/{ref}

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead; add --metrics to expose Prometheus metrics at
/metrics on the same port.

Examples:
  manualqa mcp serve
  manualqa mcp serve --port 8080 --metrics

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "manualqa": {
        "command": "/path/to/manualqa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("metrics", false, "serve Prometheus metrics at /metrics (HTTP mode only)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	withMetrics, err := cmd.Flags().GetBool("metrics")
	if err != nil {
		return fmt.Errorf("getting metrics flag: %w", err)
	}
	if withMetrics && port <= 0 {
		return fmt.Errorf("--metrics requires --port")
	}

	restoreActive(cmd)

	var opts []mcp.Option
	if withMetrics {
		if metricsHandler == nil {
			return errNotConfigured("metrics")
		}
		opts = append(opts, mcp.WithMetricsHandler(metricsHandler.Handler()))
	}

	server, err := mcp.NewServer(&mcp.Ports{
		QA:      qaService,
		Manuals: manualService,
		Ingest:  ingestService,
	}, opts...)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
