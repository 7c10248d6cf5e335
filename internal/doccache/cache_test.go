package doccache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) *Cache {
	cache, err := New(t.TempDir())
	require.NoError(t, err)
	return cache
}

func TestGet_MissWhenAbsent(t *testing.T) {
	cache := setupCache(t)

	_, ok := cache.Get("owner/repo", time.Now())
	assert.False(t, ok)
}

func TestPutGet_FreshEntry(t *testing.T) {
	cache := setupCache(t)

	// Upstream last changed an hour ago; the entry written now is fresh.
	updatedAt := time.Now().Add(-time.Hour)
	cache.Put("owner/repo", "readme text")

	text, ok := cache.Get("owner/repo", updatedAt)
	require.True(t, ok)
	assert.Equal(t, "readme text", text)
}

func TestGet_MissWhenStale(t *testing.T) {
	cache := setupCache(t)
	cache.Put("owner/repo", "old text")

	// Backdate the cache file so the upstream timestamp is newer.
	path := filepath.Join(cache.Dir(), "owner_repo_readme.txt")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	_, ok := cache.Get("owner/repo", time.Now().Add(-time.Hour))
	assert.False(t, ok)
}

func TestGet_MissWhenEqualMtime(t *testing.T) {
	cache := setupCache(t)
	cache.Put("owner/repo", "text")

	path := filepath.Join(cache.Dir(), "owner_repo_readme.txt")
	ts := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, ts, ts))

	// Strictly-after comparison: equal timestamps are stale.
	_, ok := cache.Get("owner/repo", ts)
	assert.False(t, ok)
}

func TestPut_SlashesReplaced(t *testing.T) {
	cache := setupCache(t)
	cache.Put("owner/repo", "text")

	_, err := os.Stat(filepath.Join(cache.Dir(), "owner_repo_readme.txt"))
	assert.NoError(t, err)
}

func TestRemove(t *testing.T) {
	cache := setupCache(t)
	cache.Put("owner/repo", "text")

	require.NoError(t, cache.Remove("owner/repo"))
	_, ok := cache.Get("owner/repo", time.Now().Add(-time.Hour))
	assert.False(t, ok)

	// Removing again is not an error.
	assert.NoError(t, cache.Remove("owner/repo"))
}
