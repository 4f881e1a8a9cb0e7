package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axeflow/axeflow/internal/adapters/outbound/cache"
)

const axeURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"

func TestStore_SaveAndLoad(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	saved, err := store.Save(projectPath, axeURL, []byte("window.axe = {};"))
	require.NoError(t, err)
	assert.Equal(t, 16, saved.Size)

	loaded, err := store.Load(projectPath, axeURL)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, axeURL, loaded.URL)
	assert.Equal(t, saved.SHA256, loaded.SHA256)
	assert.Equal(t, "window.axe = {};", string(loaded.Body))
	assert.False(t, loaded.FetchedAt.IsZero())
}

func TestStore_LoadNonExistent(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	loaded, err := store.Load(projectPath, axeURL)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_KeyedByURL(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	_, err := store.Save(projectPath, axeURL, []byte("a"))
	require.NoError(t, err)

	loaded, err := store.Load(projectPath, "https://example.org/other.js")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_TamperedBodyIsMiss(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	_, err := store.Save(projectPath, axeURL, []byte("original"))
	require.NoError(t, err)

	dir := filepath.Join(projectPath, ".axeflow", "cache")
	matches, err := filepath.Glob(filepath.Join(dir, "*.js"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NoError(t, os.WriteFile(matches[0], []byte("changed"), 0644))

	loaded, err := store.Load(projectPath, axeURL)
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_Invalidate(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	_, err := store.Save(projectPath, axeURL, []byte("x"))
	require.NoError(t, err)

	err = store.Invalidate(projectPath, axeURL)
	require.NoError(t, err)

	loaded, err := store.Load(projectPath, axeURL)
	assert.NoError(t, err)
	assert.Nil(t, loaded)

	assert.NoError(t, store.Invalidate(projectPath, axeURL), "invalidating twice is fine")
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	store := cache.New()
	projectPath := t.TempDir()

	cacheDir := filepath.Join(projectPath, ".axeflow", "cache")
	_, err := os.Stat(cacheDir)
	require.True(t, os.IsNotExist(err), "cache directory should not exist before save")

	_, err = store.Save(projectPath, axeURL, []byte("x"))
	require.NoError(t, err)

	info, err := os.Stat(cacheDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
