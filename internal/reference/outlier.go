package reference

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

// QuantileOutlier scores each sample by its row mean's absolute deviation
// from the training median. Scores are always finite on finite input.
type QuantileOutlier struct {
	threshold float64

	fitted    bool
	nFeatures int
	median    float64
}

// NewQuantileOutlier returns an unfitted detector with threshold 0.9.
func NewQuantileOutlier() *QuantileOutlier {
	return &QuantileOutlier{threshold: 0.9}
}

func (q *QuantileOutlier) Name() string { return "QuantileOutlier" }

func (q *QuantileOutlier) Params() estimator.Params {
	return estimator.Params{"threshold": q.threshold}
}

func (q *QuantileOutlier) SetParams(p estimator.Params) error {
	for k, v := range p {
		switch k {
		case "threshold":
			f, ok := v.(float64)
			if !ok {
				return estimator.NewValidationError("set_params", "threshold must be a float64, got %T", v)
			}
			if f <= 0 || f >= 1 || math.IsNaN(f) {
				return estimator.NewValidationError("set_params", "threshold must be in (0, 1), got %v", f)
			}
			q.threshold = f
		default:
			return estimator.NewValidationError("set_params", "unknown parameter %q", k)
		}
	}
	return nil
}

func (q *QuantileOutlier) Clone() estimator.Estimator {
	return &QuantileOutlier{threshold: q.threshold}
}

func (q *QuantileOutlier) IsFitted() bool { return q.fitted }

func (q *QuantileOutlier) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagOutlierDetector)
}

func (q *QuantileOutlier) Traits() estimator.TraitSet {
	return estimator.TraitSet{
		estimator.TraitDeterministic:  true,
		estimator.TraitSupportsSparse: true,
	}
}

func (q *QuantileOutlier) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := validateFit("fit", X, y, false); err != nil {
		return err
	}
	rows, cols := X.Dims()

	means := make([]float64, rows)
	for i := range means {
		means[i] = rowMean(X, i)
	}
	median, err := stats.Median(means)
	if err != nil {
		return estimator.NewValidationError("fit", "computing median: %v", err)
	}

	q.nFeatures = cols
	q.median = median
	q.fitted = true
	return nil
}

func (q *QuantileOutlier) OutlierScores(X mat.Matrix) ([]float64, error) {
	if err := validateApply(q.Name(), "outlier_scores", X, q.fitted, q.nFeatures); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = math.Abs(rowMean(X, i) - q.median)
	}
	return scores, nil
}
