package reference

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
)

func trainingData() (mat.Matrix, []float64) {
	X := mat.NewDense(6, 2, []float64{
		0.0, 0.1,
		0.2, 0.0,
		0.1, 0.2,
		3.0, 3.1,
		3.2, 3.0,
		3.1, 3.2,
	})
	y := []float64{0, 0, 0, 1, 1, 1}
	return X, y
}

func TestCatalogCoversEveryEstimator(t *testing.T) {
	cat := Catalog()

	seen := map[string]bool{}
	for id, construct := range cat {
		e := construct()
		require.NotNil(t, e, "catalog id %q", id)
		seen[e.Name()] = true
	}
	for _, e := range All() {
		assert.True(t, seen[e.Name()], "%s missing from the catalog", e.Name())
	}
	assert.Len(t, cat, len(All()))
}

func TestNamesSorted(t *testing.T) {
	names := Names()

	assert.Len(t, names, len(Catalog()))
	assert.True(t, sort.StringsAreSorted(names))
}

func TestHonestEstimatorsStartUnfitted(t *testing.T) {
	for _, e := range Honest() {
		assert.False(t, e.IsFitted(), e.Name())
		assert.False(t, e.Clone().IsFitted(), e.Name())
	}
}

func TestCentroidClassifierPredictsTrainingClasses(t *testing.T) {
	X, y := trainingData()
	c := NewCentroidClassifier()
	require.NoError(t, c.Fit(context.Background(), X, y))

	preds, err := c.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, y, preds, "well-separated clusters classify perfectly")

	proba, err := c.PredictProba(X)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	assert.Equal(t, 6, rows)
	assert.Equal(t, 2, cols)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			assert.GreaterOrEqual(t, p, 0.0)
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %d", i)
	}
}

func TestMeanRegressorPredictsMean(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := []float64{2, 4, 6, 8}
	m := NewMeanRegressor()
	require.NoError(t, m.Fit(context.Background(), X, y))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 5.0, p, 1e-12)
	}

	score, err := m.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, -5.0, score, 1e-12, "negative MSE of the constant prediction")
}

func TestMeanRegressorWeightedFit(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := []float64{0, 10}
	m := NewMeanRegressor()
	require.NoError(t, m.FitWeighted(context.Background(), X, y, []float64{3, 1}))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, preds[0], 1e-12)

	err = NewMeanRegressor().FitWeighted(context.Background(), X, y, []float64{0, 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to zero")
}

func TestMeanRegressorOffsetParam(t *testing.T) {
	m := NewMeanRegressor()
	require.NoError(t, m.SetParams(estimator.Params{"offset": 1.5}))

	X := mat.NewDense(2, 1, []float64{1, 2})
	require.NoError(t, m.Fit(context.Background(), X, []float64{2, 4}))

	preds, err := m.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, preds[0], 1e-12)

	require.Error(t, m.SetParams(estimator.Params{"gamma": 1.0}))
}

func TestStandardScalerStandardizes(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{2, 4, 6, 8})
	s := NewStandardScaler()
	require.NoError(t, s.Fit(context.Background(), X, nil))

	out, err := s.Transform(X)
	require.NoError(t, err)

	rows, _ := out.Dims()
	mean := 0.0
	for i := 0; i < rows; i++ {
		mean += out.At(i, 0)
	}
	assert.InDelta(t, 0.0, mean/float64(rows), 1e-12, "scaled column is centered")
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})
	s := NewStandardScaler()
	require.NoError(t, s.Fit(context.Background(), X, nil))

	out, err := s.Transform(X)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.False(t, math.IsNaN(out.At(i, 0)), "zero variance must not divide to NaN")
	}
}

func TestGridClustererLabelsInRange(t *testing.T) {
	X, _ := trainingData()
	g := NewGridClusterer()
	require.NoError(t, g.Fit(context.Background(), X, nil))

	labels, err := g.ClusterLabels(X)
	require.NoError(t, err)
	require.Len(t, labels, 6)
	for _, l := range labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, g.NumClusters())
	}
}

func TestQuantileOutlierScores(t *testing.T) {
	X, _ := trainingData()
	q := NewQuantileOutlier()
	require.NoError(t, q.Fit(context.Background(), X, nil))

	scores, err := q.OutlierScores(X)
	require.NoError(t, err)
	require.Len(t, scores, 6)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.False(t, math.IsInf(s, 0))
	}
}

func TestValidateFitRejections(t *testing.T) {
	good := mat.NewDense(2, 1, []float64{1, 2})

	err := validateFit("fit", &mat.Dense{}, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	err = validateFit("fit", good, nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "y is required")

	err = validateFit("fit", good, []float64{1}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X has 2 rows but y has 1 values")

	err = validateFit("fit", mat.NewDense(2, 1, []float64{1, math.NaN()}), []float64{1, 2}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NaN")

	err = validateFit("fit", mat.NewDense(2, 1, []float64{1, math.Inf(1)}), []float64{1, 2}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Inf")

	var verr *estimator.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestValidateApplyGuards(t *testing.T) {
	X := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	err := validateApply("Thing", "predict", X, false, 3)
	var nfe *estimator.NotFittedError
	require.ErrorAs(t, err, &nfe)

	err = validateApply("Thing", "predict", X, true, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 features")

	require.NoError(t, validateApply("Thing", "predict", X, true, 3))
}

func TestUncheckedRegressorSkipsValidation(t *testing.T) {
	u := NewUncheckedRegressor()

	// Mismatched lengths go through without complaint.
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	require.NoError(t, u.Fit(context.Background(), X, []float64{1, 2}))
	assert.True(t, u.IsFitted())

	_, err := NewUncheckedRegressor().Predict(X)
	var nfe *estimator.NotFittedError
	require.ErrorAs(t, err, &nfe, "the unfitted guard is the one check it keeps")
}

func TestJitterRegressorDriftsBetweenFits(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := []float64{1, 3}

	first := NewJitterRegressor()
	require.NoError(t, first.Fit(context.Background(), X, y))
	p1, err := first.Predict(X)
	require.NoError(t, err)

	second := NewJitterRegressor()
	require.NoError(t, second.Fit(context.Background(), X, y))
	p2, err := second.Predict(X)
	require.NoError(t, err)

	assert.NotEqual(t, p1[0], p2[0], "each fit folds in fresh jitter")
}

func TestLeakyClassifierSharesStateAcrossClones(t *testing.T) {
	l := NewLeakyClassifier()
	clone := l.Clone()
	assert.Same(t, l, clone)

	X, y := trainingData()
	require.NoError(t, clone.Fit(context.Background(), X, y))
	assert.True(t, l.IsFitted(), "fitting the clone leaks into the original")
}
