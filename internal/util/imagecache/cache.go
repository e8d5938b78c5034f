// Package imagecache keeps downloaded remote images on disk so repeated
// samples of the same URL don't refetch it.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	httputil "github.com/jmylchreest/halo/internal/util/http"
)

// Cache stores remote images under Dir.
type Cache struct {
	// Dir is the directory where images are cached.
	Dir string

	// Fetch configures the download of cache misses.
	Fetch httputil.FetchOptions
}

// DefaultDir returns the default cache directory, ~/.cache/halo/images on Linux.
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		return filepath.Join(home, ".cache", "halo", "images"), nil
	}
	return filepath.Join(cacheDir, "halo", "images"), nil
}

// New returns a Cache rooted at dir, or at DefaultDir when dir is empty.
func New(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return &Cache{Dir: dir}, nil
}

// Filename derives a deterministic cache filename from a URL: the first 16
// bytes of its SHA-256 plus the URL's extension (default .img).
func Filename(url string) string {
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:16])

	ext := filepath.Ext(url)
	if idx := strings.IndexAny(ext, "?#"); idx != -1 {
		ext = ext[:idx]
	}
	if ext == "" || len(ext) > 5 || strings.ContainsRune(ext, '/') {
		ext = ".img"
	}
	return name + strings.ToLower(ext)
}

// Get returns the bytes for url, downloading and storing them on a miss.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("invalid URL %q: must start with http:// or https://", url)
	}

	path := filepath.Join(c.Dir, Filename(url))
	if data, err := os.ReadFile(path); err == nil { // #nosec G304 - path is derived from a hash
		return data, nil
	}

	data, err := httputil.Fetch(ctx, url, c.Fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil { // #nosec G301 - cache directory needs standard permissions
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { // #nosec G306 - cache files need standard read permissions
		return nil, fmt.Errorf("failed to write cached image: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to store cached image: %w", err)
	}

	return data, nil
}
