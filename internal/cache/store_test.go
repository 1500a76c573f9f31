package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawDocument = `{"Data":{"hostname":"srv","sv_maxclients":32,"resources":["a","b"],"vars":{"sv_enforceGameBuild":"2189"},"players":[{"id":1,"name":"Bob","ping":20}]}}`

func TestLoadMissingIsNotFound(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.LoadRaw("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	store := NewStore(dir)

	// The directory is created lazily on first save.
	require.NoError(t, store.Save("abc123", []byte(rawDocument)))

	snap, err := store.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, "srv", snap.Hostname)
	assert.Equal(t, []string{"a", "b"}, snap.Resources)
	assert.Equal(t, "2189", snap.GameBuild)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "Bob", snap.Players[0].Name)
}

func TestSaveWritesIndentedDocument(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save("abc123", []byte(rawDocument)))

	onDisk, err := os.ReadFile(filepath.Join(dir, "abc123.cache.json"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(onDisk), "\n    "), "document should be indented for inspection")

	raw, err := store.LoadRaw("abc123")
	require.NoError(t, err)
	assert.JSONEq(t, rawDocument, string(raw))
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save("abc123", []byte(rawDocument)))

	updated := strings.Replace(rawDocument, `"2189"`, `"2372"`, 1)
	require.NoError(t, store.Save("abc123", []byte(updated)))

	snap, err := store.Load("abc123")
	require.NoError(t, err)
	assert.Equal(t, "2372", snap.GameBuild)
}

func TestSaveKeepsServersApart(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.Save("one", []byte(rawDocument)))

	_, err := store.Load("two")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, store.Save("abc123", []byte(rawDocument)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc123.cache.json", entries[0].Name())
}
