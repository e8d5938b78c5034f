package colour

import (
	"context"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sync/atomic"
)

// DominantSampler implements Sampler using k-means clustering over a grid of
// sampled pixels. Fully transparent pixels are ignored.
type DominantSampler struct {
	clusters      int
	maxIterations int
	convergence   float64
	maxSamples    int
	seed          uint64
	seeded        bool
	average       bool

	disposed atomic.Bool
}

// Option configures a DominantSampler.
type Option func(*DominantSampler)

// WithClusters sets the number of k-means clusters (default 5).
func WithClusters(k int) Option {
	return func(s *DominantSampler) {
		if k > 0 {
			s.clusters = k
		}
	}
}

// WithMaxSamples caps how many pixels are read from an image (default 2000).
func WithMaxSamples(n int) Option {
	return func(s *DominantSampler) {
		if n > 0 {
			s.maxSamples = n
		}
	}
}

// WithSeed makes centroid initialisation deterministic.
func WithSeed(seed uint64) Option {
	return func(s *DominantSampler) {
		s.seed = seed
		s.seeded = true
	}
}

func withAverage() Option {
	return func(s *DominantSampler) { s.average = true }
}

// NewDominantSampler creates a DominantSampler with default settings.
func NewDominantSampler(opts ...Option) *DominantSampler {
	s := &DominantSampler{
		clusters:      5,
		maxIterations: 20,
		convergence:   2.0,
		maxSamples:    2000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispose makes every current and future call fail with ErrSamplerDisposed.
func (s *DominantSampler) Dispose() {
	s.disposed.Store(true)
}

func (s *DominantSampler) check(ctx context.Context) error {
	if s.disposed.Load() {
		return &SamplingError{Reason: ReasonDisposed, Err: ErrSamplerDisposed}
	}
	if err := ctx.Err(); err != nil {
		return AsSamplingError("", err)
	}
	return nil
}

// SampleDominantColor returns the dominant colour of img.
func (s *DominantSampler) SampleDominantColor(ctx context.Context, img image.Image) (Sample, error) {
	if err := s.check(ctx); err != nil {
		return Sample{}, err
	}
	if img == nil {
		return Sample{}, &SamplingError{Reason: ReasonDecode, Err: ErrEmptyImage}
	}

	points := s.samplePixels(img)
	if len(points) == 0 {
		return Sample{}, &SamplingError{Reason: ReasonEmpty, Err: ErrEmptyImage}
	}

	var (
		rgb RGB
		err error
	)
	if s.average {
		rgb = mean(points).rgb()
	} else {
		rgb, err = s.dominant(ctx, points)
		if err != nil {
			return Sample{}, err
		}
	}

	// A result computed while Dispose raced must still not escape.
	if err := s.check(ctx); err != nil {
		return Sample{}, err
	}
	return NewSample(rgb), nil
}

// point3D represents a point in 3D RGB colour space.
type point3D struct {
	R, G, B float64
}

func (p point3D) distance(other point3D) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func (p point3D) rgb() RGB {
	return RGB{R: clamp8(p.R), G: clamp8(p.G), B: clamp8(p.B)}
}

func clamp8(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// samplePixels reads at most maxSamples opaque-enough pixels on a regular grid.
func (s *DominantSampler) samplePixels(img image.Image) []point3D {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return nil
	}

	step := max(int(math.Sqrt(float64(total)/float64(s.maxSamples))), 1)

	points := make([]point3D, 0, min(total, s.maxSamples))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A == 0 {
				continue
			}
			points = append(points, point3D{R: float64(c.R), G: float64(c.G), B: float64(c.B)})
			if len(points) >= s.maxSamples {
				return points
			}
		}
	}
	return points
}

func mean(points []point3D) point3D {
	var sum point3D
	for _, p := range points {
		sum.R += p.R
		sum.G += p.G
		sum.B += p.B
	}
	n := float64(len(points))
	return point3D{R: sum.R / n, G: sum.G / n, B: sum.B / n}
}

// dominant returns the most frequent colour when the image has few distinct
// colours, otherwise the centroid of the heaviest k-means cluster.
func (s *DominantSampler) dominant(ctx context.Context, points []point3D) (RGB, error) {
	counts := make(map[RGB]int)
	order := make([]RGB, 0, s.clusters+1)
	for _, p := range points {
		c := p.rgb()
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
		if len(order) > s.clusters {
			break
		}
	}
	if len(order) <= s.clusters {
		best := order[0]
		for _, c := range order[1:] {
			if counts[c] > counts[best] {
				best = c
			}
		}
		return best, nil
	}

	centroids, weights, err := s.kmeans(ctx, points, s.clusters)
	if err != nil {
		return RGB{}, err
	}
	best := 0
	for i, w := range weights {
		if w > weights[best] {
			best = i
		}
	}
	return centroids[best].rgb(), nil
}

func (s *DominantSampler) rng() *rand.Rand {
	if s.seeded {
		return rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// kmeans clusters points into k groups and returns centroids with their
// relative weights. It stops early when the sampler is disposed or ctx ends.
func (s *DominantSampler) kmeans(ctx context.Context, points []point3D, k int) ([]point3D, []float64, error) {
	r := s.rng()
	centroids := initCentroids(r, points, k)
	assignments := make([]int, len(points))

	for range s.maxIterations {
		if err := s.check(ctx); err != nil {
			return nil, nil, err
		}

		changed := 0
		for i, p := range points {
			nearest := nearestCentroid(p, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed++
			}
		}
		if float64(changed)/float64(len(points)) < 0.01 {
			break
		}

		next := recalculate(r, points, assignments, k)
		movement := 0.0
		for i := range centroids {
			movement += centroids[i].distance(next[i])
		}
		centroids = next
		if movement/float64(k) < s.convergence {
			break
		}
	}

	weights := make([]float64, k)
	for _, a := range assignments {
		weights[a]++
	}
	for i := range weights {
		weights[i] /= float64(len(points))
	}
	return centroids, weights, nil
}

// initCentroids uses k-means++ seeding.
func initCentroids(r *rand.Rand, points []point3D, k int) []point3D {
	centroids := make([]point3D, 0, k)
	centroids = append(centroids, points[r.IntN(len(points))])

	distances := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := p.distance(centroids[nearestCentroid(p, centroids)])
			distances[i] = d * d
			total += distances[i]
		}

		if total == 0 {
			last := centroids[len(centroids)-1]
			centroids = append(centroids, point3D{R: last.R + 0.1, G: last.G + 0.1, B: last.B + 0.1})
			continue
		}

		target := r.Float64() * total
		cumulative := 0.0
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				centroids = append(centroids, points[i])
				break
			}
		}
	}
	return centroids
}

func nearestCentroid(p point3D, centroids []point3D) int {
	minDist := math.MaxFloat64
	nearest := 0
	for i, c := range centroids {
		if d := p.distance(c); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}

func recalculate(r *rand.Rand, points []point3D, assignments []int, k int) []point3D {
	sums := make([]point3D, k)
	counts := make([]int, k)
	for i, p := range points {
		c := assignments[i]
		sums[c].R += p.R
		sums[c].G += p.G
		sums[c].B += p.B
		counts[c]++
	}

	centroids := make([]point3D, k)
	for i := range k {
		if counts[i] == 0 {
			// Empty cluster: reseed from a random point.
			centroids[i] = points[r.IntN(len(points))]
			continue
		}
		n := float64(counts[i])
		centroids[i] = point3D{R: sums[i].R / n, G: sums[i].G / n, B: sums[i].B / n}
	}
	return centroids
}
