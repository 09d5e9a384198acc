package extract

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
)

// Cache stores raw model responses on disk, keyed by document content.
type Cache struct {
	cacheDir string
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Cache{cacheDir: dir}, nil
}

// cacheKey identifies a document and extraction variant
func (c *Cache) cacheKey(doc Document, variant string) string {
	return fmt.Sprintf("%s_%s", ContentHash(doc.Data), variant)
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".txt")
}

// Get returns the cached response, if any.
func (c *Cache) Get(doc Document, variant string) (string, bool) {
	data, err := os.ReadFile(c.filePath(c.cacheKey(doc, variant)))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set stores a response.
func (c *Cache) Set(doc Document, variant, response string) error {
	return os.WriteFile(c.filePath(c.cacheKey(doc, variant)), []byte(response), 0o644)
}

// Dir returns the cache directory path
func (c *Cache) Dir() string {
	return c.cacheDir
}

// Clear removes all cached files
func (c *Cache) Clear() error {
	return os.RemoveAll(c.cacheDir)
}

// ContentHash returns the MD5 hex digest of data.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}
