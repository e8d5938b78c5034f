// Package image acquires decoded images from local files and HTTP(S) URLs.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP format

	httputil "github.com/jmylchreest/halo/internal/util/http"
	"github.com/jmylchreest/halo/internal/util/imagecache"
)

// Loader acquires a decoded image for a source locator.
type Loader interface {
	Load(ctx context.Context, source string) (image.Image, error)
}

// IsRemote reports whether source is an HTTP(S) URL.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Decode decodes an image from r. Supported formats: JPEG, PNG, GIF, WebP.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
func (l *FileLoader) Load(ctx context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - user-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
// Remote images go through Cache when one is configured.
type SmartLoader struct {
	fileLoader *FileLoader
	cache      *imagecache.Cache
	fetch      httputil.FetchOptions
}

// SmartOption configures a SmartLoader.
type SmartOption func(*SmartLoader)

// WithCache routes remote fetches through an on-disk cache.
func WithCache(c *imagecache.Cache) SmartOption {
	return func(l *SmartLoader) { l.cache = c }
}

// WithFetchOptions sets the options used for uncached remote fetches.
func WithFetchOptions(opts httputil.FetchOptions) SmartOption {
	return func(l *SmartLoader) { l.fetch = opts }
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(opts ...SmartOption) *SmartLoader {
	l := &SmartLoader{fileLoader: NewFileLoader()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, source string) (image.Image, error) {
	if IsRemote(source) {
		return l.loadFromURL(ctx, source)
	}
	return l.fileLoader.Load(ctx, source)
}

func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	if l.cache != nil {
		data, err = l.cache.Get(ctx, url)
	} else {
		data, err = httputil.Fetch(ctx, url, l.fetch)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	return Decode(bytes.NewReader(data))
}
