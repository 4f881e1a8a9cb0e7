package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewAxeflowMCPServer creates an MCP server exposing the reports, flows and run
// history of the project rooted at projectPath.
func NewAxeflowMCPServer(projectPath, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"axeflow",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}
