// Package security validates image sources that arrive from untrusted input.
package security

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"path/filepath"
	"strings"
)

var (
	// ErrForbiddenHost is returned for URLs pointing at local or private hosts.
	ErrForbiddenHost = errors.New("URL cannot point to local or private hosts")

	// ErrPathTraversal is returned when a path would escape its root directory.
	ErrPathTraversal = errors.New("path escapes the root directory")
)

// ValidateImageURL checks that urlStr is an http(s) URL for a public host,
// so a preview request can't be used to reach internal services.
func ValidateImageURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("only HTTP(S) URLs are allowed (got %q)", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	host := strings.ToLower(parsed.Hostname())
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, host)
	}
	return nil
}

// isLocalOrPrivateHost reports loopback, private, link-local and unspecified
// addresses, and localhost names. Other hostnames are not resolved here;
// GuardedClient checks the addresses they resolve to when dialing.
func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return isForbiddenAddr(addr)
}

func isForbiddenAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified()
}

// ResolveLocalPath joins a relative image path onto root and rejects
// anything that would leave it.
func ResolveLocalPath(path, root string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty file path")
	}
	if root == "" {
		return "", fmt.Errorf("local images are not served: no root directory configured")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root directory: %w", err)
	}

	final := filepath.Join(absRoot, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if final != absRoot && !strings.HasPrefix(final, absRoot+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return final, nil
}
