// Package server exposes halo's rendering and link normalization over HTTP
// for previewing components.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/halo/internal/colour"
	"github.com/jmylchreest/halo/internal/halo"
	imageloader "github.com/jmylchreest/halo/internal/image"
	"github.com/jmylchreest/halo/internal/links"
	"github.com/jmylchreest/halo/internal/palette"
	"github.com/jmylchreest/halo/internal/security"
)

// Options configures a Server.
type Options struct {
	// BasePath is the site deployment base path used by /link.
	BasePath string

	// Timeout bounds sampling per request. Zero waits for the sampler.
	Timeout time.Duration

	// Root is the directory local image sources are resolved against. When
	// empty only remote sources are served.
	Root string

	// AllowPrivateHosts permits remote sources on loopback and private
	// networks.
	AllowPrivateHosts bool

	Loader     imageloader.Loader
	NewSampler func() colour.Sampler
}

// Server renders halo components on demand.
type Server struct {
	opts   Options
	linker links.Normalizer
	logger hclog.Logger
	router *chi.Mux
}

// New creates a Server with its routes registered.
func New(opts Options, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{opts: opts, linker: links.Normalizer{BasePath: opts.BasePath}, logger: logger, router: r}
	s.RegisterHTTP(r)
	return s
}

// RegisterHTTP registers the endpoints on r.
func (s *Server) RegisterHTTP(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/halo", s.handleHalo)
	r.Get("/link", s.handleLink)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", addr, "base_path", s.opts.BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down preview server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

type haloResponse struct {
	Source string    `json:"source"`
	State  string    `json:"state"`
	Reason string    `json:"reason,omitempty"`
	Hex    string    `json:"hex,omitempty"`
	Halo   halo.Halo `json:"halo"`
}

func (s *Server) handleHalo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	props := halo.Props{
		Source:     q.Get("src"),
		AltText:    q.Get("alt"),
		StyleClass: q.Get("class"),
	}
	if props.Source == "" {
		http.Error(w, "missing src parameter", http.StatusBadRequest)
		return
	}

	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))

	source, err := s.resolveSource(props.Source)
	if err != nil {
		logger.Warn("rejected image source", "source", props.Source, "error", err)
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	c := palette.NewController(s.opts.Loader, s.opts.NewSampler,
		palette.WithLogger(logger.Named("palette")),
		palette.WithTimeout(s.opts.Timeout),
		palette.WithContext(r.Context()),
	)
	defer c.OnDispose()

	state, err := c.Resolve(r.Context(), palette.ImageDescriptor{Source: source, AltText: props.AltText})
	if err != nil {
		// Client went away or the controller was disposed; render what we have.
		logger.Debug("sampling did not finish", "source", props.Source, "error", err)
	}
	h := halo.Render(state)

	w.Header().Set("X-Halo-State", state.Phase.String())

	if q.Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		resp := haloResponse{
			Source: props.Source,
			State:  state.Phase.String(),
			Reason: state.Reason,
			Hex:    state.Sample.Hex,
			Halo:   h,
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := halo.RenderHTML(w, props, h); err != nil {
		logger.Error("failed to render component", "error", err)
	}
}

// resolveSource maps a requested src to the locator handed to the loader.
func (s *Server) resolveSource(src string) (string, error) {
	if imageloader.IsRemote(src) {
		if s.opts.AllowPrivateHosts {
			return src, nil
		}
		return src, security.ValidateImageURL(src)
	}
	return security.ResolveLocalPath(src, s.opts.Root)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	href := r.URL.Query().Get("href")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.linker.Normalize(href) + "\n"))
}
