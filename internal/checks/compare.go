package checks

import (
	"context"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
)

// vectorsClose compares two output vectors within tolerance. On mismatch it
// returns an error naming the first offending index and summarizing the
// magnitude of the divergence.
func vectorsClose(a, b []float64, tol Tolerance) error {
	if len(a) != len(b) {
		return fmt.Errorf("output lengths differ: %d vs %d", len(a), len(b))
	}
	firstBad := -1
	diffs := make([]float64, len(a))
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		diffs[i] = math.Abs(a[i] - b[i])
		if !scalar.EqualWithinAbsOrRel(a[i], b[i], tol.Abs, tol.Rel) && firstBad < 0 {
			firstBad = i
		}
	}
	if firstBad < 0 {
		return nil
	}
	maxDiff, _ := stats.Max(diffs)
	meanDiff, _ := stats.Mean(diffs)
	return fmt.Errorf("outputs diverge beyond tolerance (abs=%g rel=%g): first at index %d (%g vs %g), max diff %g, mean diff %g",
		tol.Abs, tol.Rel, firstBad, a[firstBad], b[firstBad], maxDiff, meanDiff)
}

// allFinite reports the index of the first NaN or Inf value, or -1.
func allFinite(vals []float64) int {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return i
		}
	}
	return -1
}

// flatten copies a matrix into a row-major vector.
func flatten(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

// primaryOutput produces the estimator's main output vector on X, trying
// roles in a fixed order so the comparison target is stable for estimators
// holding several tags. Every call is guarded.
func primaryOutput(e estimator.Estimator, X mat.Matrix) (vals []float64, op string, err error) {
	switch est := e.(type) {
	case estimator.Predictor:
		op = "predict"
		err = guard(op, func() error {
			var perr error
			vals, perr = est.Predict(X)
			return perr
		})
	case estimator.Transformer:
		op = "transform"
		err = guard(op, func() error {
			out, terr := est.Transform(X)
			if terr != nil {
				return terr
			}
			vals = flatten(out)
			return nil
		})
	case estimator.Clusterer:
		op = "cluster_labels"
		err = guard(op, func() error {
			labels, cerr := est.ClusterLabels(X)
			if cerr != nil {
				return cerr
			}
			vals = make([]float64, len(labels))
			for i, l := range labels {
				vals[i] = float64(l)
			}
			return nil
		})
	case estimator.OutlierDetector:
		op = "outlier_scores"
		err = guard(op, func() error {
			var serr error
			vals, serr = est.OutlierScores(X)
			return serr
		})
	default:
		return nil, "", fmt.Errorf("estimator %s exposes no output operation", e.Name())
	}
	return vals, op, err
}

// fitGuarded fits e on the fixture through the panic guard.
func fitGuarded(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) error {
	return guard("fit", func() error {
		return e.Fit(ctx, fx.X, fx.Y)
	})
}
