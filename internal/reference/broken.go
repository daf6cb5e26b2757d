package reference

import (
	"context"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

// UncheckedRegressor skips input validation entirely: mismatched X/y
// lengths and non-finite values are silently averaged into the model. The
// input-validation checks fail against it while the happy-path checks pass.
type UncheckedRegressor struct {
	fitted bool
	mean   float64
}

// NewUncheckedRegressor returns an unfitted regressor that trusts its input.
func NewUncheckedRegressor() *UncheckedRegressor {
	return &UncheckedRegressor{}
}

func (u *UncheckedRegressor) Name() string { return "UncheckedRegressor" }

func (u *UncheckedRegressor) Params() estimator.Params { return estimator.Params{} }

func (u *UncheckedRegressor) SetParams(p estimator.Params) error {
	if len(p) > 0 {
		return estimator.NewValidationError("set_params", "no parameters accepted")
	}
	return nil
}

func (u *UncheckedRegressor) Clone() estimator.Estimator { return &UncheckedRegressor{} }

func (u *UncheckedRegressor) IsFitted() bool { return u.fitted }

func (u *UncheckedRegressor) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagRegressor)
}

func (u *UncheckedRegressor) Traits() estimator.TraitSet {
	return estimator.TraitSet{estimator.TraitDeterministic: true}
}

func (u *UncheckedRegressor) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	if len(y) > 0 {
		u.mean = sum / float64(len(y))
	}
	u.fitted = true
	return nil
}

func (u *UncheckedRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if !u.fitted {
		return nil, &estimator.NotFittedError{Name: u.Name(), Op: "predict"}
	}
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = u.mean
	}
	return out, nil
}

// jitterCounter makes every JitterRegressor fit distinct on purpose.
var jitterCounter atomic.Int64

// JitterRegressor falsely declares the deterministic trait: each fit folds
// a process-wide counter into the model, so refitting on identical input
// yields different predictions and the determinism check fails.
type JitterRegressor struct {
	fitted    bool
	nFeatures int
	mean      float64
}

// NewJitterRegressor returns an unfitted regressor whose fits drift.
func NewJitterRegressor() *JitterRegressor {
	return &JitterRegressor{}
}

func (j *JitterRegressor) Name() string { return "JitterRegressor" }

func (j *JitterRegressor) Params() estimator.Params { return estimator.Params{} }

func (j *JitterRegressor) SetParams(p estimator.Params) error {
	if len(p) > 0 {
		return estimator.NewValidationError("set_params", "no parameters accepted")
	}
	return nil
}

func (j *JitterRegressor) Clone() estimator.Estimator { return &JitterRegressor{} }

func (j *JitterRegressor) IsFitted() bool { return j.fitted }

func (j *JitterRegressor) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagRegressor)
}

func (j *JitterRegressor) Traits() estimator.TraitSet {
	return estimator.TraitSet{estimator.TraitDeterministic: true}
}

func (j *JitterRegressor) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := validateFit("fit", X, y, true); err != nil {
		return err
	}
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	_, cols := X.Dims()
	j.nFeatures = cols
	j.mean = sum/float64(len(y)) + float64(jitterCounter.Add(1))*1e-3
	j.fitted = true
	return nil
}

func (j *JitterRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if err := validateApply(j.Name(), "predict", X, j.fitted, j.nFeatures); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = j.mean
	}
	return out, nil
}

// LeakyClassifier breaks the cloning contract: Clone returns the receiver
// itself, so the "clone" shares fitted state with the original and the
// clone checks fail.
type LeakyClassifier struct {
	inner *CentroidClassifier
}

// NewLeakyClassifier returns an unfitted classifier whose clones alias it.
func NewLeakyClassifier() *LeakyClassifier {
	return &LeakyClassifier{inner: NewCentroidClassifier()}
}

func (l *LeakyClassifier) Name() string { return "LeakyClassifier" }

func (l *LeakyClassifier) Params() estimator.Params { return l.inner.Params() }

func (l *LeakyClassifier) SetParams(p estimator.Params) error { return l.inner.SetParams(p) }

func (l *LeakyClassifier) IsFitted() bool { return l.inner.IsFitted() }

// Clone violates the contract on purpose: the same instance comes back.
func (l *LeakyClassifier) Clone() estimator.Estimator { return l }

func (l *LeakyClassifier) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagClassifier)
}

func (l *LeakyClassifier) Traits() estimator.TraitSet {
	return estimator.TraitSet{estimator.TraitDeterministic: true}
}

func (l *LeakyClassifier) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	return l.inner.Fit(ctx, X, y)
}

func (l *LeakyClassifier) Predict(X mat.Matrix) ([]float64, error) {
	return l.inner.Predict(X)
}
