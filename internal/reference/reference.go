// Package reference provides small, honest estimator implementations used
// by the built-in suite and the harness's own tests, plus deliberately
// broken variants that violate specific contract rules.
//
// The broken estimators are not bugs: they exist so the harness has
// something to catch. Each one misbehaves in exactly one documented way and
// is otherwise correct.
package reference

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

// Catalog maps suite estimator ids to constructors.
func Catalog() map[string]func() estimator.Estimator {
	return map[string]func() estimator.Estimator{
		"centroid":  func() estimator.Estimator { return NewCentroidClassifier() },
		"meanreg":   func() estimator.Estimator { return NewMeanRegressor() },
		"scaler":    func() estimator.Estimator { return NewStandardScaler() },
		"grid":      func() estimator.Estimator { return NewGridClusterer() },
		"quantile":  func() estimator.Estimator { return NewQuantileOutlier() },
		"unchecked": func() estimator.Estimator { return NewUncheckedRegressor() },
		"jitter":    func() estimator.Estimator { return NewJitterRegressor() },
		"leaky":     func() estimator.Estimator { return NewLeakyClassifier() },
	}
}

// Names returns the catalog ids in sorted order.
func Names() []string {
	cat := Catalog()
	names := make([]string, 0, len(cat))
	for n := range cat {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Honest returns fresh instances of the well-behaved estimators, in a fixed
// order.
func Honest() []estimator.Estimator {
	return []estimator.Estimator{
		NewCentroidClassifier(),
		NewMeanRegressor(),
		NewStandardScaler(),
		NewGridClusterer(),
		NewQuantileOutlier(),
	}
}

// All returns fresh instances of every catalog estimator, honest first, in
// a fixed order.
func All() []estimator.Estimator {
	return append(Honest(),
		NewUncheckedRegressor(),
		NewJitterRegressor(),
		NewLeakyClassifier(),
	)
}

// validateFit performs the input validation the contract demands of every
// fit implementation: non-empty X, finite values, and X/y agreement.
func validateFit(op string, X mat.Matrix, y []float64, needY bool) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return estimator.NewValidationError(op, "X is empty (%dx%d)", rows, cols)
	}
	if needY && y == nil {
		return estimator.NewValidationError(op, "y is required")
	}
	if y != nil && len(y) != rows {
		return estimator.NewValidationError(op, "X has %d rows but y has %d values", rows, len(y))
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				return estimator.NewValidationError(op, "X contains NaN at (%d,%d)", i, j)
			}
			if math.IsInf(v, 0) {
				return estimator.NewValidationError(op, "X contains Inf at (%d,%d)", i, j)
			}
		}
	}
	return nil
}

// validateApply guards a role operation: the estimator must be fitted and
// the feature count must match what fit saw.
func validateApply(name, op string, X mat.Matrix, fitted bool, nFeatures int) error {
	if !fitted {
		return &estimator.NotFittedError{Name: name, Op: op}
	}
	_, cols := X.Dims()
	if cols != nFeatures {
		return estimator.NewValidationError(op, "X has %d features but %s was fitted with %d", cols, name, nFeatures)
	}
	return nil
}

// rowMean averages one row of X.
func rowMean(X mat.Matrix, i int) float64 {
	_, cols := X.Dims()
	sum := 0.0
	for j := 0; j < cols; j++ {
		sum += X.At(i, j)
	}
	return sum / float64(cols)
}
