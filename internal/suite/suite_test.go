package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileBasic(t *testing.T) {
	spec, err := Compile([]byte(`
		suite: {
			name:       "nightly"
			seed:       42
			estimators: ["centroid", "meanreg"]
			include:    ["fit_then_output"]
			exclude:    ["dtype_invariance"]
			ledger:     "exemptions.yaml"
			tolerance: {
				abs: 1e-6
				rel: 1e-5
			}
		}
	`), "nightly.cue")
	require.NoError(t, err)

	assert.Equal(t, "nightly", spec.Name)
	assert.Equal(t, uint64(42), spec.Seed)
	assert.Equal(t, []string{"centroid", "meanreg"}, spec.Estimators)
	assert.Equal(t, []string{"fit_then_output"}, spec.Include)
	assert.Equal(t, []string{"dtype_invariance"}, spec.Exclude)
	assert.Equal(t, "exemptions.yaml", spec.LedgerPath)
	require.NotNil(t, spec.Tolerance)
	assert.Equal(t, 1e-6, spec.Tolerance.Abs)
	assert.Equal(t, 1e-5, spec.Tolerance.Rel)
}

func TestCompileMinimal(t *testing.T) {
	spec, err := Compile([]byte(`
		suite: {
			name:       "minimal"
			estimators: ["centroid"]
		}
	`), "minimal.cue")
	require.NoError(t, err)

	assert.Equal(t, uint64(0), spec.Seed)
	assert.Empty(t, spec.Include)
	assert.Empty(t, spec.Exclude)
	assert.Empty(t, spec.LedgerPath)
	assert.Nil(t, spec.Tolerance)
}

func TestCompileMissingSuite(t *testing.T) {
	_, err := Compile([]byte(`other: {}`), "bad.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "suite")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileMissingName(t *testing.T) {
	_, err := Compile([]byte(`
		suite: {
			estimators: ["centroid"]
		}
	`), "bad.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileMissingEstimators(t *testing.T) {
	_, err := Compile([]byte(`
		suite: {
			name: "empty"
		}
	`), "bad.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "estimators")
	assert.Contains(t, err.Error(), "at least one")
}

func TestCompileRejectsNegativeSeed(t *testing.T) {
	_, err := Compile([]byte(`
		suite: {
			name:       "bad"
			seed:       -1
			estimators: ["centroid"]
		}
	`), "bad.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed")
}

func TestCompileRejectsBadTolerance(t *testing.T) {
	_, err := Compile([]byte(`
		suite: {
			name:       "bad"
			estimators: ["centroid"]
			tolerance: { abs: 1e-6 }
		}
	`), "bad.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rel")

	_, err = Compile([]byte(`
		suite: {
			name:       "bad"
			estimators: ["centroid"]
			tolerance: { abs: 0.0, rel: 1e-5 }
		}
	`), "bad.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive")
}

func TestCompileRejectsNonListEstimators(t *testing.T) {
	_, err := Compile([]byte(`
		suite: {
			name:       "bad"
			estimators: "centroid"
		}
	`), "bad.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list of strings")
}

func TestCompileErrorCarriesPosition(t *testing.T) {
	_, err := Compile([]byte("suite: {\n\tname: 42\n\testimators: [\"x\"]\n}\n"), "typed.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "typed.cue")
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
		suite: {
			name:       "disk"
			estimators: ["grid"]
		}
	`), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "disk", spec.Name)

	_, err = Load(filepath.Join(dir, "missing.cue"))
	require.Error(t, err)
}
