package palette

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/halo/internal/colour"
	imageloader "github.com/jmylchreest/halo/internal/image"
)

// DefaultTimeout bounds a single sampling request, image acquisition included.
const DefaultTimeout = 10 * time.Second

// ErrControllerDisposed is returned when a disposed controller is asked to sample.
var ErrControllerDisposed = errors.New("palette controller disposed")

// Controller manages exactly one sampling lifecycle per image identity.
//
// A new identity disposes the previous sampler before a new one is issued, so
// there is never more than one live request. Results are applied only while
// their request is still the current one; anything else is dropped.
type Controller struct {
	loader     imageloader.Loader
	newSampler func() colour.Sampler
	logger     hclog.Logger
	timeout    time.Duration
	observer   func(State)
	base       context.Context

	mu       sync.Mutex
	state    State
	active   *request
	seq      uint64
	disposed bool
	wg       sync.WaitGroup
}

type request struct {
	id      uint64
	source  string
	sampler colour.Sampler
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for sampling diagnostics.
func WithLogger(l hclog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each request. Zero or negative waits indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

// WithObserver registers fn to receive every applied state transition, in
// order. fn runs with the controller locked and must not call back into it.
func WithObserver(fn func(State)) Option {
	return func(c *Controller) { c.observer = fn }
}

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.base = ctx
		}
	}
}

// NewController creates a Controller in the Idle state. A nil loader defaults
// to a SmartLoader and a nil newSampler to a DominantSampler per request.
func NewController(loader imageloader.Loader, newSampler func() colour.Sampler, opts ...Option) *Controller {
	c := &Controller{
		loader:     loader,
		newSampler: newSampler,
		logger:     hclog.NewNullLogger(),
		timeout:    DefaultTimeout,
		base:       context.Background(),
		state:      IdleState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loader == nil {
		c.loader = imageloader.NewSmartLoader()
	}
	if c.newSampler == nil {
		c.newSampler = func() colour.Sampler { return colour.NewDominantSampler() }
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnIdentityChange disposes any previous sampler, moves to Sampling(d) and
// issues a new request tagged with d.
func (c *Controller) OnIdentityChange(d ImageDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.issueLocked(d)
	return err
}

// issueLocked replaces the active request with a new one for d. The request
// is never written after its worker starts.
func (c *Controller) issueLocked(d ImageDescriptor) (*request, error) {
	if c.disposed {
		return nil, ErrControllerDisposed
	}

	c.releaseLocked()

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(c.base, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(c.base)
	}

	c.seq++
	req := &request{
		id:      c.seq,
		source:  d.Source,
		sampler: c.newSampler(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	c.active = req
	c.setLocked(SamplingState(d))
	c.logger.Debug("sampling started", "source", d.Source, "request", req.id)

	c.wg.Add(1)
	go c.run(ctx, req)
	return req, nil
}

// Update applies new image props. Sampling restarts only when the identity
// changed; an alt text change just updates the published descriptor.
func (c *Controller) Update(d ImageDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return ErrControllerDisposed
	}
	if c.active != nil && c.active.source == d.Source {
		c.state.Descriptor = d
		return nil
	}
	_, err := c.issueLocked(d)
	return err
}

// OnDispose disposes the active sampler. No transitions happen afterwards.
// Calling it more than once is harmless.
func (c *Controller) OnDispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	c.releaseLocked()
	c.logger.Debug("controller disposed")
}

// Wait blocks until every issued request has finished or been abandoned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Resolve requests d and waits for that request to finish, returning the
// resulting state. If ctx ends first the current state and ctx.Err() are
// returned; the request keeps running.
func (c *Controller) Resolve(ctx context.Context, d ImageDescriptor) (State, error) {
	c.mu.Lock()
	req, err := c.issueLocked(d)
	c.mu.Unlock()
	if err != nil {
		return State{}, err
	}

	select {
	case <-req.done:
		return c.State(), nil
	case <-ctx.Done():
		return c.State(), ctx.Err()
	}
}

// releaseLocked cancels the active request and disposes its sampler.
func (c *Controller) releaseLocked() {
	if c.active == nil {
		return
	}
	c.active.cancel()
	c.active.sampler.Dispose()
}

func (c *Controller) setLocked(s State) {
	c.state = s
	if c.observer != nil {
		c.observer(s)
	}
}

type outcome struct {
	sample colour.Sample
	err    error
}

func (c *Controller) run(ctx context.Context, req *request) {
	defer c.wg.Done()
	defer close(req.done)
	defer req.cancel()

	source := req.source

	img, err := c.loader.Load(ctx, source)
	if err != nil {
		c.resolve(req, colour.Sample{}, loadError(source, err))
		return
	}

	// The sampler may ignore ctx, so its result is raced against it. A result
	// that arrives later is never applied.
	results := make(chan outcome, 1)
	go func(sampler colour.Sampler, img image.Image) {
		s, err := sampler.SampleDominantColor(ctx, img)
		results <- outcome{sample: s, err: err}
	}(req.sampler, img)

	select {
	case out := <-results:
		c.resolve(req, out.sample, out.err)
	case <-ctx.Done():
		c.resolve(req, colour.Sample{}, colour.AsSamplingError(source, ctx.Err()))
	}
}

// resolve applies a result for req if req is still current. The published
// descriptor comes from the state, which carries any alt text update.
func (c *Controller) resolve(req *request, sample colour.Sample, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || c.active != req || c.state.Phase != Sampling || c.state.Descriptor.Source != req.source {
		c.logger.Debug("stale result discarded", "source", req.source, "request", req.id)
		return
	}

	d := c.state.Descriptor
	if err != nil {
		se := colour.AsSamplingError(d.Source, err)
		c.logger.Warn("dominant colour sampling failed", "source", d.Source, "reason", se.Reason, "error", se.Err)
		c.setLocked(FailedState(d, se.Reason))
		return
	}

	c.logger.Debug("sampling finished", "source", d.Source, "hex", sample.Hex, "dark", sample.IsDark)
	c.setLocked(SampledState(d, sample))
}

// loadError classifies an image acquisition failure.
func loadError(source string, err error) *colour.SamplingError {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return colour.AsSamplingError(source, err)
	}
	return &colour.SamplingError{Source: source, Reason: colour.ReasonDecode, Err: err}
}
