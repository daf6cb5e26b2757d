package fixture

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Classes is the number of distinct labels in synthesized classification
// targets.
const Classes = 3

// Fixture is an immutable synthesized dataset. Fixtures are shared read-only
// between checks that request the same recipe; checks must never mutate X,
// Y, or Weights.
type Fixture struct {
	Recipe  Recipe
	X       mat.Matrix
	Y       []float64
	Weights []float64

	// Classes is the number of distinct labels when Target is labels.
	Classes int
}

// Rows returns the sample count of X.
func (f *Fixture) Rows() int {
	r, _ := f.X.Dims()
	return r
}

// Cols returns the feature count of X.
func (f *Fixture) Cols() int {
	_, c := f.X.Dims()
	return c
}

// Synthesizer builds fixtures deterministically from a run seed.
//
// The seed is mixed with each recipe's canonical key, so fixtures for
// different recipes are independent streams while the same (seed, recipe)
// pair is byte-for-byte reproducible. Safe for concurrent use.
type Synthesizer struct {
	seed uint64

	mu    sync.Mutex
	cache map[string]*Fixture
}

// NewSynthesizer creates a synthesizer for the given run seed.
func NewSynthesizer(seed uint64) *Synthesizer {
	return &Synthesizer{seed: seed, cache: make(map[string]*Fixture)}
}

// Seed returns the run seed the synthesizer was created with.
func (s *Synthesizer) Seed() uint64 { return s.seed }

// Synthesize builds (or returns the cached) fixture for a recipe.
func (s *Synthesizer) Synthesize(r Recipe) (*Fixture, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	key := r.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	if fx, ok := s.cache[key]; ok {
		return fx, nil
	}

	fx, err := s.build(r)
	if err != nil {
		return nil, err
	}
	s.cache[key] = fx
	return fx, nil
}

// build constructs a fixture from scratch. Caller holds the cache lock.
func (s *Synthesizer) build(r Recipe) (*Fixture, error) {
	rng := rand.New(rand.NewPCG(s.seed, mixKey(r.Key())))
	rows, cols := r.Dims()

	// Labels first: features are shifted by class so classifiers have
	// signal to learn. The label pattern is positional, not random, to keep
	// class counts balanced for every shape class.
	labels := make([]float64, rows)
	for i := range labels {
		labels[i] = float64(i % Classes)
	}

	// Baseline values are in [0, 2): non-negative by construction so that
	// requires_positive estimators receive valid happy-path input.
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := rng.Float64()*2 + labels[i]*3
			data[i*cols+j] = narrow(v, r.Dtype)
		}
	}

	y, err := makeTarget(r, rows, labels, data, cols, rng)
	if err != nil {
		return nil, err
	}

	var weights []float64
	if r.Weights {
		n := len(y)
		if r.Target == TargetNone {
			n = rows
		}
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = narrow(rng.Float64()+0.5, r.Dtype)
		}
	}

	applyPerturbation(r, data, rows, cols)
	if r.Perturb == LengthMismatch {
		if len(y) == 0 {
			return nil, fmt.Errorf("recipe %q: length_mismatch requires a target", r.Key())
		}
		y = y[:len(y)-1]
	}

	dense := mat.NewDense(rows, cols, data)
	var x mat.Matrix
	switch r.Kind {
	case Sparse:
		sparsify(dense, rng)
		x = NewCSRFromDense(dense)
	case Frame:
		names := make([]string, cols)
		for j := range names {
			names[j] = fmt.Sprintf("f%d", j)
		}
		x = NewLabeledFrame(dense, names)
	default:
		x = dense
	}

	fx := &Fixture{Recipe: r, X: x, Y: y, Weights: weights}
	if r.Target == TargetLabels {
		fx.Classes = Classes
	}
	return fx, nil
}

func makeTarget(r Recipe, rows int, labels, data []float64, cols int, rng *rand.Rand) ([]float64, error) {
	switch r.Target {
	case TargetNone:
		return nil, nil
	case TargetLabels:
		y := make([]float64, rows)
		copy(y, labels)
		return y, nil
	case TargetContinuous:
		y := make([]float64, rows)
		for i := 0; i < rows; i++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				sum += data[i*cols+j]
			}
			y[i] = sum + rng.Float64()*0.1
		}
		return y, nil
	default:
		return nil, fmt.Errorf("recipe: unknown target %q", r.Target)
	}
}

// applyPerturbation injects the recipe's defect in place. Positions are
// fixed, not random, so the defective element is always identifiable in a
// failure message.
func applyPerturbation(r Recipe, data []float64, rows, cols int) {
	at := func(i, j int) int { return i*cols + j }
	switch r.Perturb {
	case WithNaN:
		data[at(0, min(1, cols-1))] = math.NaN()
	case WithInf:
		data[at(min(1, rows-1), min(2, cols-1))] = math.Inf(1)
	case WithNegative:
		data[at(0, 0)] = -math.Abs(data[at(0, 0)]) - 1
	case ConstantColumn:
		for i := 0; i < rows; i++ {
			data[at(i, 0)] = 1
		}
	}
}

// sparsify zeroes roughly 60% of entries, keeping at least one value per
// row so no sample degenerates to all-zero.
func sparsify(d *mat.Dense, rng *rand.Rand) {
	rows, cols := d.Dims()
	for i := 0; i < rows; i++ {
		keep := rng.IntN(cols)
		for j := 0; j < cols; j++ {
			if j != keep && rng.Float64() < 0.6 {
				d.Set(i, j, 0)
			}
		}
	}
}

// narrow rounds a value through the recipe's dtype representation.
func narrow(v float64, d Dtype) float64 {
	switch d {
	case Float32:
		return float64(float32(v))
	case Int:
		return math.Floor(v)
	default:
		return v
	}
}

// AsFloat32 returns a copy of m with every element rounded through float32.
// Used by the dtype-invariance check to build the narrow encoding of an
// existing fixture without re-synthesizing.
func AsFloat32(m mat.Matrix) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, float64(float32(m.At(i, j))))
		}
	}
	return out
}

func mixKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}
