package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-ingest/internal/app"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ingest
sources and inspect ingestion runs.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Tools:
  ingest_source         load, chunk, embed and upsert a source
  build_lexical_index   rebuild the keyword sidecar index
  list_runs             list recent ingestion runs

Examples:
  # Stdio mode (default)
  sercha-ingest mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  sercha-ingest mcp serve --port 8080

Desktop assistant configuration:
  {
    "mcpServers": {
      "sercha-ingest": {
        "command": "/path/to/sercha-ingest",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	svc, closeFn, err := openServices(cmd.Context(), cfg, app.Options{WantLLM: true})
	if err != nil {
		return err
	}
	defer closeFn()
	if svc.Ingest == nil {
		return errNotConfigured("ingest")
	}

	ports := &mcp.Ports{
		Ingest:   svc.Ingest,
		Index:    svc.Index,
		Runs:     svc.Runs,
		Defaults: cfg.IngestOptions(""),
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
