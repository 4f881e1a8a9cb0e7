package cli

import (
	"fmt"
	"sort"

	mcpadapter "github.com/axeflow/axeflow/internal/adapters/inbound/mcp"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the axeflow MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(opts))
	cmd.AddCommand(newMCPToolsCmd(opts))
	return cmd
}

func newMCPServer(opts *rootOptions) (*server.MCPServer, error) {
	p, err := loadProject(opts)
	if err != nil {
		return nil, err
	}
	return mcpadapter.NewAxeflowMCPServer(p.path, version), nil
}

func newMCPServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start axeflow MCP server (stdio)",
		Long:  "Start the axeflow MCP server using stdio transport. This lets AI assistants read reports, flows and run history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newMCPServer(opts)
			if err != nil {
				return err
			}
			return server.ServeStdio(s)
		},
	}
}

func newMCPToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the MCP server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newMCPServer(opts)
			if err != nil {
				return err
			}
			tools := s.ListTools()
			names := make([]string, 0, len(tools))
			for name := range tools {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", name, tools[name].Tool.Description)
			}
			return nil
		},
	}
}
