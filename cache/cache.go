// Package cache keeps rendered page fragments on disk so the homepage
// grids and the sitemap are not rebuilt on every request.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
)

// Keys of the cached fragments.
const (
	KeyHome    = "home"
	KeySitemap = "sitemap"
)

const suffix = ".cache"

type Cache struct {
	dir string
}

// New returns a cache rooted at dir. A nil *Cache is valid and caches nothing.
func New(dir string) *Cache {
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

// Hash is the short xxHash of s, used for file names and ETags.
func Hash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// HashBytes is Hash over raw bytes.
func HashBytes(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

// path returns the file of key: "<key>_<hash>.cache".
func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s%s", key, Hash(key), suffix))
}

// Write stores content under key.
func (c *Cache) Write(key, content string) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	return os.WriteFile(c.path(key), []byte(content), 0644)
}

// Read returns the content of key if it exists and is younger than maxAge.
func (c *Cache) Read(key string, maxAge time.Duration) (string, bool) {
	if c == nil {
		return "", false
	}
	p := c.path(key)

	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if time.Since(info.ModTime()) > maxAge {
		return "", false
	}

	content, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	return string(content), true
}

// Clear removes the given keys. Missing entries are not an error.
func (c *Cache) Clear(keys ...string) error {
	if c == nil {
		return nil
	}
	for _, key := range keys {
		if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Invalidate is Clear that logs instead of failing; a stale entry only
// lives until its TTL.
func (c *Cache) Invalidate(keys ...string) {
	if err := c.Clear(keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

// ClearAll removes every cached fragment.
func (c *Cache) ClearAll() error {
	if c == nil {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// ClearOld removes entries older than maxAge.
func (c *Cache) ClearOld(maxAge time.Duration) error {
	if c == nil {
		return nil
	}
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, suffix) {
			return nil
		}
		if time.Since(info.ModTime()) > maxAge {
			os.Remove(path)
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
