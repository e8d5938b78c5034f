// Package palette owns the dominant-colour sampling lifecycle of one rendered
// image and exposes the latest result that is not stale.
package palette

import (
	"github.com/jmylchreest/halo/internal/colour"
)

// ImageDescriptor identifies an image to sample. Source is the identity.
type ImageDescriptor struct {
	Source  string `json:"source"`
	AltText string `json:"alt_text"`
}

// SameIdentity reports whether d and other refer to the same image.
func (d ImageDescriptor) SameIdentity(other ImageDescriptor) bool {
	return d.Source == other.Source
}

// Phase is the stage of the sampling lifecycle.
type Phase int

const (
	// Idle means no image has been requested yet.
	Idle Phase = iota
	// Sampling means a request for State.Descriptor is in flight.
	Sampling
	// Sampled means State.Sample holds the dominant colour.
	Sampled
	// Failed means sampling the current image failed; State.Reason says why.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Sampled:
		return "sampled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of a controller. Fields beyond Phase are only
// meaningful for the phases that set them.
type State struct {
	Phase      Phase
	Descriptor ImageDescriptor
	Sample     colour.Sample
	Reason     string
}

// IdleState is the initial state.
func IdleState() State {
	return State{Phase: Idle}
}

// SamplingState is the state while d is being sampled.
func SamplingState(d ImageDescriptor) State {
	return State{Phase: Sampling, Descriptor: d}
}

// SampledState is the state after d was sampled as s.
func SampledState(d ImageDescriptor, s colour.Sample) State {
	return State{Phase: Sampled, Descriptor: d, Sample: s}
}

// FailedState is the state after sampling d failed.
func FailedState(d ImageDescriptor, reason string) State {
	return State{Phase: Failed, Descriptor: d, Reason: reason}
}
