// Package estimator defines the contract every estimator under test must
// satisfy, plus the capability and trait vocabulary the harness uses to
// decide which checks apply.
//
// The harness never looks at what an estimator computes - only at whether it
// honors this surface: parameter introspection, cloning, fitting, and the
// role-specific operations (predict/transform/cluster/score).
package estimator

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Estimator is the minimal surface required of every estimator under test.
//
// Implementations must treat Params/SetParams as pure configuration: no
// fitting, no validation against data, no hidden state. Clone must return a
// fresh, unfitted instance carrying identical parameters - the harness clones
// before every check so one check can never contaminate another.
type Estimator interface {
	// Name identifies the estimator class. Used as the estimator identifier
	// in reports and in the exemption ledger.
	Name() string

	// Params returns the current configuration.
	Params() Params

	// SetParams replaces configuration values. Unknown keys are an error.
	// SetParams(Params()) must be a no-op.
	SetParams(Params) error

	// Fit learns state from X and y. y may be nil for unsupervised roles.
	// Malformed input (length mismatch, NaN, wrong shape) must be rejected
	// with a *ValidationError, not silently accepted and not panicked on.
	Fit(ctx context.Context, X mat.Matrix, y []float64) error

	// Clone returns an unfitted copy with identical parameters.
	Clone() Estimator

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool
}

// Predictor produces one output value per input row.
// Classifiers return labels, regressors return continuous values.
type Predictor interface {
	Estimator
	Predict(X mat.Matrix) ([]float64, error)
}

// Transformer maps an input matrix to an output matrix with the same
// number of rows.
type Transformer interface {
	Estimator
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// ProbabilityPredictor is implemented by classifiers that expose class
// membership probabilities. Each output row must sum to one.
type ProbabilityPredictor interface {
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Clusterer assigns each input row to one of NumClusters partitions.
type Clusterer interface {
	Estimator
	ClusterLabels(X mat.Matrix) ([]int, error)
	NumClusters() int
}

// OutlierDetector scores each input row; higher means more anomalous.
type OutlierDetector interface {
	Estimator
	OutlierScores(X mat.Matrix) ([]float64, error)
}

// Scorer is an optional quality metric over labeled data.
type Scorer interface {
	Score(X mat.Matrix, y []float64) (float64, error)
}

// WeightedFitter is implemented by estimators that accept per-sample weights.
type WeightedFitter interface {
	FitWeighted(ctx context.Context, X mat.Matrix, y, weights []float64) error
}

// Tagged is implemented by estimators that declare their capabilities and
// traits explicitly. Declared metadata always wins over structural probing,
// and trait flags are ONLY ever taken from declarations - the harness never
// infers a trait from observed behavior.
type Tagged interface {
	Tags() TagSet
	Traits() TraitSet
}

// ValidationError reports that an estimator rejected malformed input.
// This is the expected outcome of the input-validation checks: returning a
// *ValidationError is a Pass, returning nil or an unrelated error is a Fail.
type ValidationError struct {
	// Op names the operation that rejected the input ("fit", "predict", ...).
	Op string

	// Reason describes what was wrong with the input.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid input: %s", e.Op, e.Reason)
}

// NewValidationError creates a ValidationError for the given operation.
func NewValidationError(op, format string, args ...any) *ValidationError {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFittedError reports that a role operation was called before Fit.
type NotFittedError struct {
	// Name is the estimator class name.
	Name string

	// Op names the operation that was attempted.
	Op string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s called before fit", e.Name, e.Op)
}

// IsNotFittedError reports whether err is (or wraps) a *NotFittedError.
func IsNotFittedError(err error) bool {
	var nf *NotFittedError
	return errors.As(err, &nf)
}
