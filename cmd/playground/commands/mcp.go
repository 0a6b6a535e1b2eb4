// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents drive the embedding playground via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/embedding-playground/internal/mcp"
	"github.com/harper/embedding-playground/internal/notify"
)

var mcpEphemeral bool

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the playground as an MCP (Model Context Protocol) server over stdio,
so LLM agents can add texts, build embedding expressions and read the
similarity matrix and projection.

Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  playground mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "playground": {
  #       "command": "playground",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().BoolVar(&mcpEphemeral, "ephemeral", false, "Keep entries in memory only")

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	logs := newNotifier(cmd.ErrOrStderr())
	recorder := &notify.Recorder{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, appOptions{
		ephemeral: mcpEphemeral,
		notifier:  notify.Multi{logs, recorder},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcpserver.NewMCPServer("Embedding Playground", versionInfo.Version)
	mcp.RegisterTools(server, a.playground, a.catalog, recorder)

	logs.Logger().Info("MCP server starting on stdio", "model", a.playground.Model().Name)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logs.Logger().Info("Shutdown signal received, gracefully shutting down...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
