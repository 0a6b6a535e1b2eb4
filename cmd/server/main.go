// ABOUTME: Main entry point for the playground MCP server with stdio transport
// ABOUTME: Runs the same server as "playground mcp" for clients that expect a dedicated binary
package main

import (
	"fmt"
	"os"

	"github.com/harper/embedding-playground/cmd/playground/commands"
)

func main() {
	cmd := commands.NewMCPCmd()
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
