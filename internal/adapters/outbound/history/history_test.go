package history_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/axeflow/axeflow/internal/adapters/outbound/history"
	"github.com/axeflow/axeflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entry := domain.RunEntry{
		RunID:      "5f0c1d8e-0000-4000-8000-000000000001",
		Timestamp:  "2026-02-25T10:00:00Z",
		CommitHash: "abc1234",
		Page:       "tepp",
		Status:     domain.RunIssues,
		Steps:      4,
		Violations: 7,
		Artifact:   "reports/tepp.csv",
	}

	err := h.Save(dir, entry)
	require.NoError(t, err)

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry, entries[0])
}

func TestHistory_AppendMultiple(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t1", Page: "tepp", Violations: 7}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t2", Page: "dogs", Violations: 2}))
	require.NoError(t, h.Save(dir, domain.RunEntry{Timestamp: "t3", Page: "tepp", Violations: 3}))

	entries, err := h.Load(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 7, entries[0].Violations)
	assert.Equal(t, 3, entries[2].Violations)

	tepp := history.ForPage(entries, "tepp")
	require.Len(t, tepp, 2)
	assert.Equal(t, "t3", tepp[1].Timestamp)

	assert.Equal(t, entries[1:], history.Last(entries, 2))
	assert.Equal(t, entries, history.Last(entries, 0))
	assert.Equal(t, entries, history.Last(entries, 10))
}

func TestHistory_LoadEmpty(t *testing.T) {
	dir := t.TempDir()
	h := history.New()

	entries, err := h.Load(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistory_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	nestedDir := filepath.Join(dir, "deep", "nested")
	h := history.New()

	err := h.Save(nestedDir, domain.RunEntry{Timestamp: "t1", Page: "tepp"})
	require.NoError(t, err)

	entries, err := h.Load(nestedDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHistory_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, ".axeflow", "history", "runs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(fp), 0755))
	require.NoError(t, os.WriteFile(fp, []byte("{not json"), 0644))

	_, err := history.New().Load(dir)
	assert.Error(t, err)
}
