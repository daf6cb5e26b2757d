package estimator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// baseStub satisfies the Estimator surface with no role operations.
type baseStub struct{}

func (baseStub) Name() string           { return "stub" }
func (baseStub) Params() Params         { return Params{} }
func (baseStub) SetParams(Params) error { return nil }
func (baseStub) Clone() Estimator       { return baseStub{} }
func (baseStub) IsFitted() bool         { return false }

func (baseStub) Fit(context.Context, mat.Matrix, []float64) error { return nil }

type predictorStub struct{ baseStub }

func (predictorStub) Predict(mat.Matrix) ([]float64, error) { return nil, nil }

type probaStub struct{ predictorStub }

func (probaStub) PredictProba(mat.Matrix) (mat.Matrix, error) { return nil, nil }

type transformerStub struct{ baseStub }

func (transformerStub) Transform(mat.Matrix) (mat.Matrix, error) { return nil, nil }

type taggedStub struct{ predictorStub }

func (taggedStub) Tags() TagSet { return NewTagSet(TagClassifier) }

func (taggedStub) Traits() TraitSet { return NewTraitSet(TraitDeterministic) }

func TestClassifyDeclarationWins(t *testing.T) {
	// taggedStub probes as a regressor (plain Predictor), but its
	// declaration says classifier. Declarations always win.
	tags, traits := Classify(taggedStub{})

	assert.True(t, tags.Has(TagClassifier))
	assert.False(t, tags.Has(TagRegressor))
	assert.True(t, traits.Has(TraitDeterministic))
}

func TestClassifyProbesPlainPredictorAsRegressor(t *testing.T) {
	tags, traits := Classify(predictorStub{})

	assert.True(t, tags.Has(TagRegressor))
	assert.Empty(t, traits, "traits are never probed")
}

func TestClassifyProbesProbaAsClassifier(t *testing.T) {
	tags, _ := Classify(probaStub{})

	assert.True(t, tags.Has(TagClassifier))
	assert.False(t, tags.Has(TagRegressor))
}

func TestClassifyProbesTransformer(t *testing.T) {
	tags, _ := Classify(transformerStub{})

	assert.True(t, tags.Has(TagTransformer))
}

func TestClassifyNoRoleIsOther(t *testing.T) {
	tags, traits := Classify(baseStub{})

	assert.Equal(t, []Tag{TagOther}, tags.List())
	assert.Empty(t, traits)
}

func TestClassifyReturnsClones(t *testing.T) {
	tags, traits := Classify(taggedStub{})
	tags[TagClusterer] = true
	traits[TraitAllowNaN] = true

	tags2, traits2 := Classify(taggedStub{})
	assert.False(t, tags2.Has(TagClusterer), "mutating the result must not affect later calls")
	assert.False(t, traits2.Has(TraitAllowNaN))
}
