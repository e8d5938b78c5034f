package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// MaxRedirects bounds the redirects a GuardedClient follows.
const MaxRedirects = 5

// GuardedClient returns an HTTP client for fetching untrusted image URLs.
// Every redirect target goes through ValidateImageURL and every dialed
// address is checked after name resolution, so hostnames resolving to
// private networks are refused too.
func GuardedClient(timeout time.Duration) *http.Client {
	return guardedClient(timeout, checkDialAddr)
}

func guardedClient(timeout time.Duration, checkAddr func(network, address string, c syscall.RawConn) error) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   checkAddr,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// A proxy would dial on our behalf and skip the address check.
	transport.Proxy = nil
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, addr)
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects (%d)", len(via))
			}
			if err := ValidateImageURL(req.URL.String()); err != nil {
				return fmt.Errorf("redirect blocked: %w", err)
			}
			return nil
		},
	}
}

// checkDialAddr rejects connections to local or private addresses.
func checkDialAddr(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("unexpected dial address %q: %w", address, err)
	}
	if isForbiddenAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenHost, ap.Addr())
	}
	return nil
}
