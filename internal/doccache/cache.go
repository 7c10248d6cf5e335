// Package doccache is an on-disk cache of fetched README text, one file per
// repository. It is best effort: the store of record is the content index,
// the cache only saves remote fetches. All I/O failures degrade to a miss.
package doccache

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fileSuffix = "_readme.txt"

// Cache stores README text under dir, keyed by repository full name.
type Cache struct {
	dir string
}

// New creates the cache directory if needed and returns a Cache over it.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns cached text for fullName if the cache entry was written
// strictly after upstreamUpdatedAt. Anything else, including read errors,
// is a miss and forces a refetch.
func (c *Cache) Get(fullName string, upstreamUpdatedAt time.Time) (string, bool) {
	path := c.path(fullName)

	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if !info.ModTime().After(upstreamUpdatedAt) {
		// Stale: the upstream has changed since this entry was written.
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put persists text for fullName, stamping the current time. Write failures
// are logged and swallowed: last writer wins and refetch is idempotent.
func (c *Cache) Put(fullName, text string) {
	path := c.path(fullName)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		slog.Warn("readme cache write failed", "repo", fullName, "error", err)
	}
}

// Remove evicts the cache entry for fullName. Missing entries are not an
// error.
func (c *Cache) Remove(fullName string) error {
	err := os.Remove(c.path(fullName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *Cache) path(fullName string) string {
	return filepath.Join(c.dir, strings.ReplaceAll(fullName, "/", "_")+fileSuffix)
}
