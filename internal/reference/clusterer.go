package reference

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

// GridClusterer buckets samples by row mean into evenly spaced intervals
// over the range seen at fit time. Samples outside the fitted range clamp
// to the edge buckets, so labels always lie in [0, clusters).
type GridClusterer struct {
	clusters int64

	fitted    bool
	nFeatures int
	lo, hi    float64
}

// NewGridClusterer returns an unfitted clusterer with 3 buckets.
func NewGridClusterer() *GridClusterer {
	return &GridClusterer{clusters: 3}
}

func (g *GridClusterer) Name() string { return "GridClusterer" }

func (g *GridClusterer) Params() estimator.Params {
	return estimator.Params{"clusters": g.clusters}
}

func (g *GridClusterer) SetParams(p estimator.Params) error {
	for k, v := range p {
		switch k {
		case "clusters":
			n, ok := v.(int64)
			if !ok {
				return estimator.NewValidationError("set_params", "clusters must be an int64, got %T", v)
			}
			if n < 1 {
				return estimator.NewValidationError("set_params", "clusters must be positive, got %d", n)
			}
			g.clusters = n
		default:
			return estimator.NewValidationError("set_params", "unknown parameter %q", k)
		}
	}
	return nil
}

func (g *GridClusterer) Clone() estimator.Estimator {
	return &GridClusterer{clusters: g.clusters}
}

func (g *GridClusterer) IsFitted() bool { return g.fitted }

func (g *GridClusterer) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagClusterer)
}

func (g *GridClusterer) Traits() estimator.TraitSet {
	return estimator.TraitSet{
		estimator.TraitDeterministic:  true,
		estimator.TraitSupportsSparse: true,
	}
}

func (g *GridClusterer) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := validateFit("fit", X, y, false); err != nil {
		return err
	}
	rows, cols := X.Dims()

	lo, hi := rowMean(X, 0), rowMean(X, 0)
	for i := 1; i < rows; i++ {
		m := rowMean(X, i)
		if m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}

	g.nFeatures = cols
	g.lo, g.hi = lo, hi
	g.fitted = true
	return nil
}

func (g *GridClusterer) ClusterLabels(X mat.Matrix) ([]int, error) {
	if err := validateApply(g.Name(), "cluster_labels", X, g.fitted, g.nFeatures); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	span := g.hi - g.lo
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		if span == 0 {
			continue
		}
		k := int(float64(g.clusters) * (rowMean(X, i) - g.lo) / span)
		if k < 0 {
			k = 0
		}
		if k >= int(g.clusters) {
			k = int(g.clusters) - 1
		}
		labels[i] = k
	}
	return labels, nil
}

func (g *GridClusterer) NumClusters() int { return int(g.clusters) }
