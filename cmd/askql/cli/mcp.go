package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	amcp "github.com/askql/askql/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes the query pipeline
as tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for direct integration with MCP clients that launch it as a
subprocess.

In HTTP mode, the server listens on the specified port for streamable HTTP
connections.`,
		Example: `  askql mcp                                # stdio mode
  askql mcp --transport http --port 3001   # HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "HTTP port (only used with --transport http)")

	return cmd
}

func runMCP(transport string, port int) error {
	// MCP stdio clients own stdout, so logging stays on stderr.
	logger := newLogger(false)

	comps, err := buildComponents(logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	mcpSrv := amcp.NewMCPServer(comps.svc, comps.exec, logger)

	switch transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(fmt.Sprintf(":%d", port))
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", transport)
	}
}
