package reference

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

// MeanRegressor predicts the (optionally weighted) mean of the training
// targets plus a constant offset. It is the simplest possible regressor
// that still honors the full contract, including sample weights.
type MeanRegressor struct {
	offset float64

	fitted    bool
	nFeatures int
	mean      float64
}

// NewMeanRegressor returns an unfitted regressor with offset 0.
func NewMeanRegressor() *MeanRegressor {
	return &MeanRegressor{}
}

func (m *MeanRegressor) Name() string { return "MeanRegressor" }

func (m *MeanRegressor) Params() estimator.Params {
	return estimator.Params{"offset": m.offset}
}

func (m *MeanRegressor) SetParams(p estimator.Params) error {
	for k, v := range p {
		switch k {
		case "offset":
			f, ok := v.(float64)
			if !ok {
				return estimator.NewValidationError("set_params", "offset must be a float64, got %T", v)
			}
			m.offset = f
		default:
			return estimator.NewValidationError("set_params", "unknown parameter %q", k)
		}
	}
	return nil
}

func (m *MeanRegressor) Clone() estimator.Estimator {
	return &MeanRegressor{offset: m.offset}
}

func (m *MeanRegressor) IsFitted() bool { return m.fitted }

func (m *MeanRegressor) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagRegressor)
}

func (m *MeanRegressor) Traits() estimator.TraitSet {
	return estimator.TraitSet{
		estimator.TraitDeterministic:  true,
		estimator.TraitSupportsSparse: true,
		estimator.TraitSampleWeights:  true,
	}
}

func (m *MeanRegressor) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	return m.FitWeighted(ctx, X, y, nil)
}

// FitWeighted computes the weighted target mean. A nil weight slice means
// uniform weights.
func (m *MeanRegressor) FitWeighted(ctx context.Context, X mat.Matrix, y, weights []float64) error {
	if err := validateFit("fit", X, y, true); err != nil {
		return err
	}
	if weights != nil && len(weights) != len(y) {
		return estimator.NewValidationError("fit", "y has %d values but weights has %d", len(y), len(weights))
	}

	sum, total := 0.0, 0.0
	for i, v := range y {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		sum += w * v
		total += w
	}
	if total == 0 {
		return estimator.NewValidationError("fit", "sample weights sum to zero")
	}

	_, cols := X.Dims()
	m.nFeatures = cols
	m.mean = sum / total
	m.fitted = true
	return nil
}

func (m *MeanRegressor) Predict(X mat.Matrix) ([]float64, error) {
	if err := validateApply(m.Name(), "predict", X, m.fitted, m.nFeatures); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := range out {
		out[i] = m.mean + m.offset
	}
	return out, nil
}

// Score returns the negative mean squared error of predictions against y.
func (m *MeanRegressor) Score(X mat.Matrix, y []float64) (float64, error) {
	preds, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	if len(y) != len(preds) {
		return 0, estimator.NewValidationError("score", "X has %d rows but y has %d values", len(preds), len(y))
	}
	mse := 0.0
	for i, p := range preds {
		d := p - y[i]
		mse += d * d
	}
	return -mse / float64(len(y)), nil
}
