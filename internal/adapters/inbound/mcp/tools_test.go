package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeflow/axeflow/internal/adapters/outbound/history"
	"github.com/axeflow/axeflow/internal/domain"
)

func call(t *testing.T, h func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error), args map[string]any) (*mcplib.CallToolResult, string) {
	t.Helper()
	var req mcplib.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	return res, text.Text
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCountIssuesTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.csv"), "URL,Violations\na/,x (serious)\nb/,\nc/,y (minor)\n")

	res, text := call(t, handleCountIssues(dir), map[string]any{"summary": "site.csv"})

	assert.False(t, res.IsError)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &body))
	assert.Equal(t, float64(2), body["count"])
}

func TestCountIssuesTool_MissingSummary(t *testing.T) {
	res, text := call(t, handleCountIssues(t.TempDir()), nil)
	assert.True(t, res.IsError)
	assert.Contains(t, text, "counting issues")
}

func TestListFlowsTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flows", "dogs.yaml"), `
page: dog-registration
steps:
  - name: start
    actions:
      - action: goto
        value: https://example.org/dogs
`)

	res, text := call(t, handleListFlows(dir), nil)

	require.False(t, res.IsError, text)
	var infos []flowInfo
	require.NoError(t, json.Unmarshal([]byte(text), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "dog-registration", infos[0].Page)
	assert.Equal(t, 1, infos[0].Steps)
}

func TestHistoryTool_FiltersAndLimits(t *testing.T) {
	dir := t.TempDir()
	h := history.New()
	for _, page := range []string{"tepp", "dogs", "tepp", "tepp"} {
		require.NoError(t, h.Save(dir, domain.RunEntry{Page: page, Status: domain.RunPassed}))
	}

	res, text := call(t, handleHistory(dir), map[string]any{"page": "tepp", "limit": float64(2)})

	require.False(t, res.IsError, text)
	var entries []domain.RunEntry
	require.NoError(t, json.Unmarshal([]byte(text), &entries))
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "tepp", e.Page)
	}
}

func TestHistoryTool_Empty(t *testing.T) {
	_, text := call(t, handleHistory(t.TempDir()), nil)
	assert.JSONEq(t, "[]", text)
}

func TestReportTools(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "reports", "tepp.csv"), "URL,Step\n")
	writeFile(t, filepath.Join(dir, "reports", "notes.txt"), "ignored")

	_, text := call(t, handleListReports(dir), nil)
	var infos []reportInfo
	require.NoError(t, json.Unmarshal([]byte(text), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "tepp.csv", infos[0].Name)

	res, text := call(t, handleReadReport(dir), map[string]any{"name": "tepp.csv"})
	assert.False(t, res.IsError)
	assert.Equal(t, "URL,Step\n", text)
}

func TestReadReportTool_RejectsPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"../.axeflow.yaml", "/etc/passwd", "notes.txt"} {
		res, text := call(t, handleReadReport(dir), map[string]any{"name": name})
		assert.True(t, res.IsError, name)
		assert.Contains(t, text, "invalid report name")
	}
}

func TestReadReportTool_RequiresName(t *testing.T) {
	res, _ := call(t, handleReadReport(t.TempDir()), nil)
	assert.True(t, res.IsError)
}
