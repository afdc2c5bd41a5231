package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regbot/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Tools:
  ask           answer a question, optionally continuing a session
  index_status  report the loaded vector index

Resources:
  regbot://index, regbot://examples, regbot://sessions/{id}

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Examples:
  # Stdio mode (default, for Claude Desktop)
  regbot mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  regbot mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "regbot": {
        "command": "/path/to/regbot",
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

	if err := requirePipeline(); err != nil {
		return err
	}
	ctx := cmd.Context()

	// stdout carries the protocol in stdio mode; progress goes to the logger.
	if _, err := ensureIndex(ctx, documentPath(nil)); err != nil {
		return err
	}
	startPromptWatcher(ctx)

	ports := &mcp.Ports{
		Ask:      services.Ask,
		Index:    services.Index,
		Sessions: services.Sessions,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
