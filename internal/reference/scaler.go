package reference

import (
	"context"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/estcheck/internal/estimator"
)

// StandardScaler centers each feature to zero mean and scales to unit
// variance. Constant features keep scale 1 so transform never divides by
// zero. Centering densifies sparse input, so the scaler does not declare
// sparse support; the harness records sparse checks for it as skipped.
type StandardScaler struct {
	withMean bool
	withStd  bool

	fitted    bool
	nFeatures int
	means     []float64
	scales    []float64
}

// NewStandardScaler returns an unfitted scaler that both centers and
// scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{withMean: true, withStd: true}
}

func (s *StandardScaler) Name() string { return "StandardScaler" }

func (s *StandardScaler) Params() estimator.Params {
	return estimator.Params{"with_mean": s.withMean, "with_std": s.withStd}
}

func (s *StandardScaler) SetParams(p estimator.Params) error {
	for k, v := range p {
		b, ok := v.(bool)
		if !ok {
			return estimator.NewValidationError("set_params", "%s must be a bool, got %T", k, v)
		}
		switch k {
		case "with_mean":
			s.withMean = b
		case "with_std":
			s.withStd = b
		default:
			return estimator.NewValidationError("set_params", "unknown parameter %q", k)
		}
	}
	return nil
}

func (s *StandardScaler) Clone() estimator.Estimator {
	return &StandardScaler{withMean: s.withMean, withStd: s.withStd}
}

func (s *StandardScaler) IsFitted() bool { return s.fitted }

func (s *StandardScaler) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagTransformer)
}

func (s *StandardScaler) Traits() estimator.TraitSet {
	return estimator.TraitSet{estimator.TraitDeterministic: true}
}

func (s *StandardScaler) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := validateFit("fit", X, y, false); err != nil {
		return err
	}
	rows, cols := X.Dims()

	means := make([]float64, cols)
	scales := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = X.At(i, j)
		}
		means[j] = stat.Mean(col, nil)
		sd := stat.StdDev(col, nil)
		if sd == 0 || rows < 2 {
			sd = 1
		}
		scales[j] = sd
	}

	s.nFeatures = cols
	s.means = means
	s.scales = scales
	s.fitted = true
	return nil
}

func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := validateApply(s.Name(), "transform", X, s.fitted, s.nFeatures); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if s.withMean {
				v -= s.means[j]
			}
			if s.withStd {
				v /= s.scales[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}
