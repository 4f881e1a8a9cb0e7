package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/axeflow/axeflow/internal/adapters/outbound/config"
	"github.com/axeflow/axeflow/internal/adapters/outbound/flows"
	"github.com/axeflow/axeflow/internal/adapters/outbound/history"
	"github.com/axeflow/axeflow/internal/adapters/outbound/report"
	"github.com/axeflow/axeflow/internal/domain"
)

const defaultHistoryLimit = 20

// registerTools registers all axeflow MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	// 1. axeflow_count_issues
	s.AddTool(
		mcplib.NewTool("axeflow_count_issues",
			mcplib.WithDescription("Counts URLs with outstanding accessibility issues in a site summary CSV"),
			mcplib.WithString("summary",
				mcplib.Description("Summary CSV path relative to the project (defaults to serve.issues_csv)"),
			),
		),
		handleCountIssues(projectPath),
	)

	// 2. axeflow_list_flows
	s.AddTool(
		mcplib.NewTool("axeflow_list_flows",
			mcplib.WithDescription("Lists the declarative flows defined for the project"),
		),
		handleListFlows(projectPath),
	)

	// 3. axeflow_history
	s.AddTool(
		mcplib.NewTool("axeflow_history",
			mcplib.WithDescription("Returns recent run history, newest last"),
			mcplib.WithString("page",
				mcplib.Description("Only return runs of this page"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Maximum number of entries (default 20)"),
			),
		),
		handleHistory(projectPath),
	)

	// 4. axeflow_list_reports
	s.AddTool(
		mcplib.NewTool("axeflow_list_reports",
			mcplib.WithDescription("Lists report artifacts in the reports directory"),
		),
		handleListReports(projectPath),
	)

	// 5. axeflow_read_report
	s.AddTool(
		mcplib.NewTool("axeflow_read_report",
			mcplib.WithDescription("Returns the contents of one report artifact"),
			mcplib.WithString("name",
				mcplib.Required(),
				mcplib.Description("File name of the report, e.g. tepp.csv"),
			),
		),
		handleReadReport(projectPath),
	)
}

func loadConfig(projectPath string) (domain.ProjectConfig, error) {
	return config.New().Load(projectPath)
}

func resolve(projectPath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectPath, p)
}

func handleCountIssues(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		summary := request.GetString("summary", "")
		if summary == "" {
			cfg, err := loadConfig(projectPath)
			if err != nil {
				return errorResult(fmt.Sprintf("loading config: %v", err)), nil
			}
			summary = cfg.Serve.IssuesCSV
		}
		path := resolve(projectPath, summary)
		count, err := report.CountIssuesFile(path)
		if err != nil {
			return errorResult(fmt.Sprintf("counting issues: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{
			"summary": summary,
			"count":   count,
		})
	}
}

type flowInfo struct {
	Page   string `json:"page"`
	Source string `json:"source"`
	Steps  int    `json:"steps"`
}

func handleListFlows(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, err := loadConfig(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		all, err := flows.New().LoadDir(resolve(projectPath, cfg.FlowsDir))
		if err != nil {
			return errorResult(fmt.Sprintf("loading flows: %v", err)), nil
		}
		infos := make([]flowInfo, 0, len(all))
		for _, f := range all {
			infos = append(infos, flowInfo{Page: f.Page, Source: f.Source, Steps: len(f.Steps)})
		}
		return jsonResult(infos)
	}
}

func handleHistory(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		entries, err := history.New().Load(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading history: %v", err)), nil
		}
		if page := request.GetString("page", ""); page != "" {
			entries = history.ForPage(entries, page)
		}
		entries = history.Last(entries, request.GetInt("limit", defaultHistoryLimit))
		if entries == nil {
			entries = []domain.RunEntry{}
		}
		return jsonResult(entries)
	}
}

type reportInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func handleListReports(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, err := loadConfig(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		entries, err := os.ReadDir(resolve(projectPath, cfg.ReportsDir))
		if err != nil && !os.IsNotExist(err) {
			return errorResult(fmt.Sprintf("reading reports: %v", err)), nil
		}
		infos := []reportInfo{}
		for _, e := range entries {
			if e.IsDir() || !isReport(e.Name()) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			infos = append(infos, reportInfo{Name: e.Name(), Size: info.Size()})
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
		return jsonResult(infos)
	}
}

func handleReadReport(projectPath string) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if filepath.Base(name) != name || !isReport(name) {
			return errorResult(fmt.Sprintf("invalid report name %q", name)), nil
		}
		cfg, err := loadConfig(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		content, err := os.ReadFile(filepath.Join(resolve(projectPath, cfg.ReportsDir), name))
		if err != nil {
			return errorResult(fmt.Sprintf("reading report: %v", err)), nil
		}
		return textResult(string(content)), nil
	}
}

func isReport(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".html":
		return true
	}
	return false
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// textResult returns a plain text content result.
func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
