package colour

import (
	"fmt"
	"slices"
)

// Algorithm selects how a Sampler reduces pixels to one colour.
type Algorithm string

const (
	// AlgorithmDominant picks the centre of the largest k-means cluster.
	AlgorithmDominant Algorithm = "dominant"

	// AlgorithmAverage averages every sampled pixel.
	AlgorithmAverage Algorithm = "average"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{AlgorithmDominant, AlgorithmAverage}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	return slices.Contains(ValidAlgorithms(), alg)
}

// NewSampler creates a Sampler for the given algorithm.
func NewSampler(alg Algorithm, opts ...Option) (Sampler, error) {
	switch alg {
	case AlgorithmDominant, "":
		return NewDominantSampler(opts...), nil
	case AlgorithmAverage:
		return NewDominantSampler(append(opts, withAverage())...), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

// SamplerFactory returns a constructor producing a fresh Sampler per call.
// Each image identity gets its own sampler so disposing one never affects another.
func SamplerFactory(alg Algorithm, opts ...Option) (func() Sampler, error) {
	if !IsValidAlgorithm(alg) && alg != "" {
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
	return func() Sampler {
		s, _ := NewSampler(alg, opts...)
		return s
	}, nil
}
