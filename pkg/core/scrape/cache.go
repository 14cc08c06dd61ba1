package scrape

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"

	"financial_forecast/pkg/core/document"
)

// DownloadCache provides file-based caching of fetched document bodies.
// It is a pure performance optimization: the pipeline never depends on it
// for correctness and it stores nothing request-scoped.
type DownloadCache struct {
	cacheDir string
}

// NewDownloadCache creates a cache rooted at dir (created if missing).
func NewDownloadCache(dir string) *DownloadCache {
	if dir == "" {
		dir = filepath.Join(".cache", "documents")
	}
	os.MkdirAll(dir, 0755)
	return &DownloadCache{cacheDir: dir}
}

// cacheKey derives a stable filename from the document URL.
func (c *DownloadCache) cacheKey(url string, format document.Format) string {
	return fmt.Sprintf("%x.%s", md5.Sum([]byte(url)), format)
}

// Get returns the cached body and format for a URL, if present.
func (c *DownloadCache) Get(url string) ([]byte, document.Format, bool) {
	for _, format := range []document.Format{document.FormatPDF, document.FormatHTML} {
		path := filepath.Join(c.cacheDir, c.cacheKey(url, format))
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return data, format, true
		}
	}
	return nil, "", false
}

// Set stores a document body in the cache.
func (c *DownloadCache) Set(url string, body []byte, format document.Format) error {
	path := filepath.Join(c.cacheDir, c.cacheKey(url, format))
	return os.WriteFile(path, body, 0644)
}

// Clear removes all cached files.
func (c *DownloadCache) Clear() error {
	return os.RemoveAll(c.cacheDir)
}
