// Package colour samples the dominant colour of an image.
package colour

import (
	"context"
	"errors"
	"fmt"
	"image"
)

var (
	// ErrSamplerDisposed is returned by a Sampler after Dispose has been called.
	ErrSamplerDisposed = errors.New("sampler disposed")

	// ErrEmptyImage is returned when an image has no pixels to sample.
	ErrEmptyImage = errors.New("image has no pixels")
)

// Sample is the dominant colour of an image.
type Sample struct {
	// Hex is the colour as "#rrggbb", lowercase.
	Hex string `json:"hex"`

	// IsDark is true when the colour's relative luminance is below 0.5.
	IsDark bool `json:"is_dark"`
}

// NewSample builds a Sample from an RGB colour.
func NewSample(c RGB) Sample {
	return Sample{Hex: c.Hex(), IsDark: IsDark(c)}
}

// Sampler produces the dominant colour of a decoded image.
//
// Once Dispose is called every in-flight and future SampleDominantColor call
// fails with ErrSamplerDisposed; a disposed sampler never yields a Sample.
type Sampler interface {
	SampleDominantColor(ctx context.Context, img image.Image) (Sample, error)
	Dispose()
}

// SamplingError reports why a dominant colour could not be produced.
type SamplingError struct {
	// Source is the image locator, when known.
	Source string
	// Reason is a short machine-friendly cause such as "decode" or "timeout".
	Reason string
	Err    error
}

func (e *SamplingError) Error() string {
	msg := "sampling failed"
	if e.Source != "" {
		msg += " for " + e.Source
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *SamplingError) Unwrap() error {
	return e.Err
}

// Reasons used by SamplingError.
const (
	ReasonDecode    = "decode"
	ReasonEmpty     = "empty"
	ReasonDisposed  = "disposed"
	ReasonCancelled = "cancelled"
	ReasonTimeout   = "timeout"
	ReasonSampler   = "sampler"
)

// AsSamplingError wraps err in a SamplingError unless it already is one.
// Context errors are classified as timeout or cancelled.
func AsSamplingError(source string, err error) *SamplingError {
	if err == nil {
		return nil
	}
	var se *SamplingError
	if errors.As(err, &se) {
		if se.Source == "" {
			cp := *se
			cp.Source = source
			return &cp
		}
		return se
	}
	reason := ReasonSampler
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.Is(err, context.Canceled):
		reason = ReasonCancelled
	case errors.Is(err, ErrSamplerDisposed):
		reason = ReasonDisposed
	case errors.Is(err, ErrEmptyImage):
		reason = ReasonEmpty
	}
	return &SamplingError{Source: source, Reason: reason, Err: err}
}
