package estimator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsCloneIsIndependent(t *testing.T) {
	p := Params{"alpha": 0.5, "mode": "fast"}
	clone := p.Clone()

	clone["alpha"] = 0.9
	assert.Equal(t, 0.5, p["alpha"])
	assert.True(t, p.Equal(Params{"alpha": 0.5, "mode": "fast"}))
}

func TestParamsEqualNaN(t *testing.T) {
	a := Params{"threshold": math.NaN()}
	b := Params{"threshold": math.NaN()}

	assert.True(t, a.Equal(b), "NaN defaults must survive a round-trip")
	assert.False(t, a.Equal(Params{"threshold": 0.5}))
}

func TestParamsEqualMismatch(t *testing.T) {
	a := Params{"alpha": 0.5}

	assert.False(t, a.Equal(Params{"alpha": 0.5, "beta": int64(1)}))
	assert.False(t, a.Equal(Params{"beta": 0.5}))
	assert.False(t, a.Equal(Params{"alpha": "0.5"}))
}

func TestParamsStringCanonical(t *testing.T) {
	p := Params{"zeta": true, "alpha": int64(3), "mid": "x"}

	// Sorted by key, independent of insertion order.
	assert.Equal(t, "alpha=3 mid=x zeta=true", p.String())
	assert.Equal(t, p.String(), p.Clone().String())
}

func TestParamsValidate(t *testing.T) {
	good := Params{"s": "v", "b": true, "i": int64(2), "f": 1.5}
	require.NoError(t, good.Validate())

	bad := Params{"nested": map[string]any{"x": 1}}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested")

	// Plain int is not an allowed scalar; configs decode to int64.
	require.Error(t, Params{"n": 7}.Validate())
}

func TestValidationErrorAs(t *testing.T) {
	err := NewValidationError("fit", "X has %d rows but y has %d values", 30, 29)

	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "fit: invalid input")
	assert.False(t, IsValidationError(assert.AnError))
}

func TestNotFittedError(t *testing.T) {
	err := &NotFittedError{Name: "Thing", Op: "predict"}

	assert.True(t, IsNotFittedError(err))
	assert.Equal(t, "Thing: predict called before fit", err.Error())
	assert.False(t, IsNotFittedError(assert.AnError))
}
