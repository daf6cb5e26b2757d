package reference

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

// CentroidClassifier predicts the label of the nearest class centroid.
// It is deterministic, probabilistic (inverse-distance class weights), and
// reads X only through mat.Matrix, so sparse input works unchanged.
type CentroidClassifier struct {
	shrink float64

	fitted    bool
	nFeatures int
	classes   []float64
	centroids [][]float64
}

// NewCentroidClassifier returns an unfitted classifier with shrink 0.
func NewCentroidClassifier() *CentroidClassifier {
	return &CentroidClassifier{}
}

func (c *CentroidClassifier) Name() string { return "CentroidClassifier" }

func (c *CentroidClassifier) Params() estimator.Params {
	return estimator.Params{"shrink": c.shrink}
}

func (c *CentroidClassifier) SetParams(p estimator.Params) error {
	for k, v := range p {
		switch k {
		case "shrink":
			f, ok := v.(float64)
			if !ok {
				return estimator.NewValidationError("set_params", "shrink must be a float64, got %T", v)
			}
			if f < 0 {
				return estimator.NewValidationError("set_params", "shrink must be non-negative, got %v", f)
			}
			c.shrink = f
		default:
			return estimator.NewValidationError("set_params", "unknown parameter %q", k)
		}
	}
	return nil
}

func (c *CentroidClassifier) Clone() estimator.Estimator {
	return &CentroidClassifier{shrink: c.shrink}
}

func (c *CentroidClassifier) IsFitted() bool { return c.fitted }

func (c *CentroidClassifier) Tags() estimator.TagSet {
	return estimator.NewTagSet(estimator.TagClassifier)
}

func (c *CentroidClassifier) Traits() estimator.TraitSet {
	return estimator.TraitSet{
		estimator.TraitDeterministic:  true,
		estimator.TraitProbabilistic:  true,
		estimator.TraitSupportsSparse: true,
	}
}

func (c *CentroidClassifier) Fit(ctx context.Context, X mat.Matrix, y []float64) error {
	if err := validateFit("fit", X, y, true); err != nil {
		return err
	}
	_, cols := X.Dims()

	byClass := make(map[float64][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]float64, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	sort.Float64s(classes)

	centroids := make([][]float64, len(classes))
	for k, label := range classes {
		centroid := make([]float64, cols)
		members := byClass[label]
		for _, i := range members {
			for j := 0; j < cols; j++ {
				centroid[j] += X.At(i, j)
			}
		}
		for j := range centroid {
			centroid[j] /= float64(len(members))
			centroid[j] *= 1 - c.shrink
		}
		centroids[k] = centroid
	}

	c.nFeatures = cols
	c.classes = classes
	c.centroids = centroids
	c.fitted = true
	return nil
}

func (c *CentroidClassifier) Predict(X mat.Matrix) ([]float64, error) {
	if err := validateApply(c.Name(), "predict", X, c.fitted, c.nFeatures); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		best := 0
		bestDist := math.Inf(1)
		for k := range c.centroids {
			if d := c.distance(X, i, k); d < bestDist {
				best, bestDist = k, d
			}
		}
		out[i] = c.classes[best]
	}
	return out, nil
}

// PredictProba weights each class by inverse distance to its centroid; rows
// sum to 1 by construction.
func (c *CentroidClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := validateApply(c.Name(), "predict_proba", X, c.fitted, c.nFeatures); err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	proba := mat.NewDense(rows, len(c.classes), nil)
	for i := 0; i < rows; i++ {
		total := 0.0
		weights := make([]float64, len(c.classes))
		for k := range c.centroids {
			w := 1 / (c.distance(X, i, k) + 1e-12)
			weights[k] = w
			total += w
		}
		for k, w := range weights {
			proba.Set(i, k, w/total)
		}
	}
	return proba, nil
}

func (c *CentroidClassifier) distance(X mat.Matrix, i, k int) float64 {
	sum := 0.0
	for j := 0; j < c.nFeatures; j++ {
		d := X.At(i, j) - c.centroids[k][j]
		sum += d * d
	}
	return math.Sqrt(sum)
}
