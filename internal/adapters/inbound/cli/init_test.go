package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axeflow/axeflow/internal/adapters/inbound/cli"
	"github.com/axeflow/axeflow/internal/adapters/outbound/config"
	"github.com/axeflow/axeflow/internal/adapters/outbound/flows"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_CreatesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".axeflow.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "format: csv")
	assert.Contains(t, string(data), "settle:")
}

func TestInitCmd_ConfigRoundTrips(t *testing.T) {
	tmpDir := t.TempDir()

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir, "--format", "html"})
	require.NoError(t, root.Execute())

	cfg, err := config.New().Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatHTML, cfg.Format)
	assert.Equal(t, domain.DefaultSettleTimeout, cfg.Settle.Timeout)
	assert.Equal(t, domain.DefaultUserAgent, cfg.Browser.UserAgent)
}

func TestInitCmd_WritesValidExampleFlow(t *testing.T) {
	tmpDir := t.TempDir()

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir})
	require.NoError(t, root.Execute())

	f, err := flows.New().LoadFile(filepath.Join(tmpDir, "flows", "example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "example", f.Page)
	assert.Len(t, f.Steps, 2)
}

func TestInitCmd_FailsIfExists(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".axeflow.yaml"), []byte("existing"), 0644))

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir})
	err := root.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".axeflow.yaml"), []byte("old"), 0644))

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir, "--force"})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(filepath.Join(tmpDir, ".axeflow.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "reports_dir:")
	assert.NotEqual(t, "old", string(data))
}

func TestInitCmd_InvalidFormat(t *testing.T) {
	tmpDir := t.TempDir()

	root := cli.NewRootCmdForTest()
	root.SetArgs([]string{"init", tmpDir, "--format", "pdf"})
	err := root.Execute()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
