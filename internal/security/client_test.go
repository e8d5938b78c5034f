package security

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"
)

func TestCheckDialAddr(t *testing.T) {
	tests := []struct {
		address string
		wantErr bool
	}{
		{address: "93.184.216.34:443"},
		{address: "[2606:2800:220:1::1]:80"},
		{address: "127.0.0.1:80", wantErr: true},
		{address: "10.0.0.5:8080", wantErr: true},
		{address: "169.254.169.254:80", wantErr: true},
		{address: "[::1]:443", wantErr: true},
		{address: "[fd00::1]:80", wantErr: true},
		{address: "not-an-address", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := checkDialAddr("tcp", tt.address, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkDialAddr(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
		})
	}
}

func TestGuardedClientRefusesPrivateDial(t *testing.T) {
	// httptest listens on loopback, the same place a hostname such as
	// 127.0.0.1.nip.io would resolve to.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached a loopback server")
	}))
	defer srv.Close()

	resp, err := GuardedClient(5 * time.Second).Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("Get() succeeded, want dial refused")
	}
	if !errors.Is(err, ErrForbiddenHost) {
		t.Errorf("Get() error = %v, want ErrForbiddenHost", err)
	}
}

func TestGuardedClientValidatesRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metadata":
			http.Redirect(w, r, "http://169.254.169.254/latest/meta-data", http.StatusFound)
		case "/localhost":
			http.Redirect(w, r, "http://localhost:9000/admin.png", http.StatusMovedPermanently)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	// Allow the loopback test server itself so only the redirect check is exercised.
	allowAll := func(string, string, syscall.RawConn) error { return nil }
	client := guardedClient(5*time.Second, allowAll)

	tests := []string{"/metadata", "/localhost"}

	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			resp, err := client.Get(srv.URL + path)
			if err == nil {
				resp.Body.Close()
				t.Fatal("Get() followed the redirect, want error")
			}
			if !errors.Is(err, ErrForbiddenHost) {
				t.Errorf("Get() error = %v, want ErrForbiddenHost", err)
			}
		})
	}
}
