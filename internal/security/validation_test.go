package security

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestValidateImageURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		wantIs  error
	}{
		{name: "https public", url: "https://images.example.com/a.png"},
		{name: "http public", url: "http://example.com/a.png"},
		{name: "empty", url: "", wantErr: true},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "no host", url: "https:///a.png", wantErr: true},
		{name: "localhost", url: "http://localhost:8080/a.png", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "loopback", url: "http://127.0.0.1/a.png", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "private", url: "http://10.1.2.3/a.png", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "private 172", url: "http://172.20.0.1/a.png", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "metadata", url: "http://169.254.169.254/latest", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "ipv6 loopback", url: "http://[::1]/a.png", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "mapped ipv4", url: "http://[::ffff:192.168.0.1]/a.png", wantErr: true, wantIs: ErrForbiddenHost},
		{name: "public 172", url: "http://172.32.0.1/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateImageURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("ValidateImageURL(%q) error = %v, want %v", tt.url, err, tt.wantIs)
			}
		})
	}
}

func TestResolveLocalPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		root    string
		want    string
		wantErr bool
	}{
		{name: "relative", path: "img/a.png", root: root, want: filepath.Join(root, "img", "a.png")},
		{name: "site absolute", path: "/img/a.png", root: root, want: filepath.Join(root, "img", "a.png")},
		{name: "traversal", path: "../etc/passwd", root: root, wantErr: true},
		{name: "nested traversal", path: "img/../../x", root: root, wantErr: true},
		{name: "no root", path: "a.png", root: "", wantErr: true},
		{name: "empty", path: "", root: root, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLocalPath(tt.path, tt.root)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveLocalPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveLocalPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
