// Package fixture synthesizes the datasets checks run against.
//
// Synthesis is recipe-driven and deterministic: the run seed is mixed with
// the recipe's canonical key, so the same (seed, recipe) pair produces the
// same bytes on every run and every failure is reproducible. Fixtures are
// immutable once built and cached per recipe key, shared read-only across
// checks.
package fixture

import "fmt"

// Dtype selects the element precision of the synthesized matrix.
// Values are always stored as float64; narrower dtypes round every element
// through the narrower representation so checks can compare encodings of
// equivalent values.
type Dtype string

const (
	Float64 Dtype = "float64"
	Float32 Dtype = "float32"
	Int     Dtype = "int"
)

// Kind selects the container the feature matrix is delivered in.
type Kind string

const (
	// Dense is a plain gonum dense matrix.
	Dense Kind = "dense"

	// Sparse is a CSR matrix implementing mat.Matrix.
	Sparse Kind = "sparse"

	// Frame is a dense matrix with column labels, standing in for
	// labeled-frame inputs.
	Frame Kind = "frame"
)

// Shape selects the dimension class of the matrix.
type Shape string

const (
	// Standard is 30 samples by 5 features.
	Standard Shape = "standard"

	// SingleSample is 1 sample by 5 features.
	SingleSample Shape = "single_sample"

	// SingleFeature is 30 samples by 1 feature.
	SingleFeature Shape = "single_feature"

	// Wide is 5 samples by 20 features.
	Wide Shape = "wide"
)

// Perturbation injects a deliberate defect into an otherwise valid dataset.
// Used only by checks that validate estimator rejection behavior.
type Perturbation string

const (
	// None leaves the dataset valid.
	None Perturbation = "none"

	// WithNaN sets one element to NaN.
	WithNaN Perturbation = "nan"

	// WithInf sets one element to +Inf.
	WithInf Perturbation = "inf"

	// WithNegative forces at least one element negative.
	WithNegative Perturbation = "negative"

	// ConstantColumn zeroes the variance of the first column.
	ConstantColumn Perturbation = "constant_column"

	// LengthMismatch drops the last label so len(y) != rows(X).
	LengthMismatch Perturbation = "length_mismatch"
)

// Target selects what kind of label vector accompanies X.
type Target string

const (
	// TargetNone produces no labels (unsupervised roles).
	TargetNone Target = "none"

	// TargetLabels produces integer class labels in [0, Classes).
	TargetLabels Target = "labels"

	// TargetContinuous produces continuous regression targets.
	TargetContinuous Target = "continuous"
)

// Recipe fully describes a synthesized dataset. The zero Recipe is invalid;
// use Default and override fields as needed.
type Recipe struct {
	Dtype   Dtype
	Kind    Kind
	Shape   Shape
	Perturb Perturbation
	Target  Target

	// Weights adds a per-sample weight vector.
	Weights bool
}

// Default returns the baseline happy-path recipe: dense float64, standard
// shape, labeled, unperturbed. Baseline feature values are non-negative so
// estimators declaring requires_positive receive valid input from every
// happy-path check.
func Default() Recipe {
	return Recipe{
		Dtype:   Float64,
		Kind:    Dense,
		Shape:   Standard,
		Perturb: None,
		Target:  TargetLabels,
	}
}

// Key renders the recipe in canonical form. Two recipes with equal keys
// synthesize byte-identical fixtures under the same seed.
func (r Recipe) Key() string {
	return fmt.Sprintf("dtype=%s kind=%s shape=%s perturb=%s target=%s weights=%t",
		r.Dtype, r.Kind, r.Shape, r.Perturb, r.Target, r.Weights)
}

// Dims returns the sample and feature counts for the recipe's shape class.
func (r Recipe) Dims() (rows, cols int) {
	switch r.Shape {
	case SingleSample:
		return 1, 5
	case SingleFeature:
		return 30, 1
	case Wide:
		return 5, 20
	default:
		return 30, 5
	}
}

// Validate checks that every enum field holds a known value.
func (r Recipe) Validate() error {
	switch r.Dtype {
	case Float64, Float32, Int:
	default:
		return fmt.Errorf("recipe: unknown dtype %q", r.Dtype)
	}
	switch r.Kind {
	case Dense, Sparse, Frame:
	default:
		return fmt.Errorf("recipe: unknown kind %q", r.Kind)
	}
	switch r.Shape {
	case Standard, SingleSample, SingleFeature, Wide:
	default:
		return fmt.Errorf("recipe: unknown shape %q", r.Shape)
	}
	switch r.Perturb {
	case None, WithNaN, WithInf, WithNegative, ConstantColumn, LengthMismatch:
	default:
		return fmt.Errorf("recipe: unknown perturbation %q", r.Perturb)
	}
	switch r.Target {
	case TargetNone, TargetLabels, TargetContinuous:
	default:
		return fmt.Errorf("recipe: unknown target %q", r.Target)
	}
	return nil
}
