package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/estcheck/internal/checks"
)

const validLedger = `
exemptions:
  - estimator: CentroidClassifier
    check: fit_determinism
    action: xfail
    justification: "nondeterministic centroid ties pending seeding fix"
  - estimator: StandardScaler
    check: dtype_invariance
    action: skip
    justification: "float32 path unsupported on this platform"
`

func TestParseValidLedger(t *testing.T) {
	l, err := Parse([]byte(validLedger))
	require.NoError(t, err)

	assert.Equal(t, 2, l.Len())
	entry, ok := l.Lookup("CentroidClassifier", "fit_determinism")
	require.True(t, ok)
	assert.Equal(t, ActionXFail, entry.Action)

	_, ok = l.Lookup("CentroidClassifier", "other_check")
	assert.False(t, ok)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
exemptions:
  - estimator: A
    check: c
    action: skip
    justification: ok
    severity: high
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "severity")
}

func TestParseRejectsMissingJustification(t *testing.T) {
	_, err := Parse([]byte(`
exemptions:
  - estimator: A
    check: c
    action: xfail
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "justification is required")
}

func TestParseRejectsUnknownAction(t *testing.T) {
	_, err := Parse([]byte(`
exemptions:
  - estimator: A
    check: c
    action: ignore
    justification: because
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "ignore"`)
}

func TestParseRejectsDuplicatePairs(t *testing.T) {
	_, err := Parse([]byte(`
exemptions:
  - estimator: A
    check: c
    action: skip
    justification: one
  - estimator: A
    check: c
    action: xfail
    justification: two
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry for A/c")
}

func TestParseEmptyDocument(t *testing.T) {
	l, err := Parse([]byte("exemptions: []\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestResolveXFailDowngradesFailure(t *testing.T) {
	l, err := Parse([]byte(validLedger))
	require.NoError(t, err)

	v := l.Resolve("CentroidClassifier", "fit_determinism", checks.Failf("outputs diverged"))

	assert.Equal(t, checks.StatusXFail, v.Status)
	assert.Contains(t, v.Reason, "nondeterministic centroid ties")
	assert.Contains(t, v.Reason, "outputs diverged")
}

func TestResolveXFailPromotesPass(t *testing.T) {
	l, err := Parse([]byte(validLedger))
	require.NoError(t, err)

	v := l.Resolve("CentroidClassifier", "fit_determinism", checks.Pass())

	assert.Equal(t, checks.StatusUnexpectedPass, v.Status)
	assert.Contains(t, v.Reason, "stale exemption")
}

func TestResolveSkipReplacesVerdict(t *testing.T) {
	l, err := Parse([]byte(validLedger))
	require.NoError(t, err)

	v := l.Resolve("StandardScaler", "dtype_invariance", checks.Failf("diverged"))

	assert.Equal(t, checks.StatusSkip, v.Status)
	assert.Contains(t, v.Reason, "exempted")
}

func TestResolveNeverExemptsErrors(t *testing.T) {
	l, err := Parse([]byte(validLedger))
	require.NoError(t, err)

	v := l.Resolve("StandardScaler", "dtype_invariance", checks.Errorf("harness bug"))
	assert.Equal(t, checks.StatusError, v.Status)

	v = l.Resolve("CentroidClassifier", "fit_determinism", checks.Errorf("timeout"))
	assert.Equal(t, checks.StatusError, v.Status)
}

func TestResolveUnlistedPairUntouched(t *testing.T) {
	l := Empty()

	v := l.Resolve("X", "y", checks.Failf("broken"))
	assert.Equal(t, checks.StatusFail, v.Status)
	assert.Equal(t, "broken", v.Reason)
}
