package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/estcheck/internal/checks"
	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
	"github.com/roach88/estcheck/internal/ledger"
	"github.com/roach88/estcheck/internal/reference"
	"github.com/roach88/estcheck/internal/report"
	"github.com/roach88/estcheck/internal/testutil"
)

func newTestEngine(t *testing.T, led *ledger.Ledger, opts ...Option) *Engine {
	t.Helper()
	reg, err := checks.NewRegistry()
	require.NoError(t, err)

	base := []Option{
		WithSuiteName("test"),
		WithSeed(42),
		WithRunIDSource(testutil.FixedRunID("run-fixed")),
		WithNowSource(func() time.Time { return time.Unix(0, 0).UTC() }),
	}
	return New(reg, led, append(base, opts...)...)
}

func TestRunHonestEstimatorsNeverFail(t *testing.T) {
	eng := newTestEngine(t, nil)

	run, err := eng.Run(context.Background(), reference.Honest())
	require.NoError(t, err)

	assert.Zero(t, run.Counts.Fail, "honest estimators must be fully conformant")
	assert.Zero(t, run.Counts.Error)
	assert.Positive(t, run.Counts.Pass)
	assert.False(t, run.Interrupted)
	assert.Equal(t, report.ExitPass, report.ExitCode(run, true))
}

func TestRunDeterministicBytes(t *testing.T) {
	a, err := newTestEngine(t, nil).Run(context.Background(), reference.Honest())
	require.NoError(t, err)
	b, err := newTestEngine(t, nil).Run(context.Background(), reference.Honest())
	require.NoError(t, err)

	ja, err := report.MarshalCanonical(a)
	require.NoError(t, err)
	jb, err := report.MarshalCanonical(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb), "same seed and targets must produce byte-identical reports")
}

func TestRunParallelMatchesSerial(t *testing.T) {
	// Exclude the nondeterministic-on-purpose estimator: its drift is
	// process-global, so only the deterministic rest can be compared.
	targets := func() []estimator.Estimator {
		return []estimator.Estimator{
			reference.NewCentroidClassifier(),
			reference.NewMeanRegressor(),
			reference.NewStandardScaler(),
			reference.NewGridClusterer(),
			reference.NewQuantileOutlier(),
			reference.NewUncheckedRegressor(),
		}
	}

	serial, err := newTestEngine(t, nil, WithParallelism(1)).Run(context.Background(), targets())
	require.NoError(t, err)
	parallel, err := newTestEngine(t, nil, WithParallelism(4)).Run(context.Background(), targets())
	require.NoError(t, err)

	js, err := report.MarshalCanonical(serial)
	require.NoError(t, err)
	jp, err := report.MarshalCanonical(parallel)
	require.NoError(t, err)
	assert.Equal(t, string(js), string(jp))
}

func TestRunSeqContiguousAndOrdered(t *testing.T) {
	eng := newTestEngine(t, nil)

	run, err := eng.Run(context.Background(), []estimator.Estimator{
		reference.NewStandardScaler(),
		reference.NewMeanRegressor(),
	})
	require.NoError(t, err)

	for i, e := range run.Entries {
		assert.Equal(t, int64(i+1), e.Seq)
	}

	// Entries follow estimator input order, not alphabetical order.
	sawRegressor := false
	for _, e := range run.Entries {
		if e.Estimator == "MeanRegressor" {
			sawRegressor = true
		}
		if sawRegressor {
			assert.Equal(t, "MeanRegressor", e.Estimator)
		}
	}
	assert.True(t, sawRegressor)
}

func TestRunRecordsTraitSkips(t *testing.T) {
	eng := newTestEngine(t, nil)

	// StandardScaler does not declare supports_sparse, so the sparse checks
	// must appear as explicit skips.
	run, err := eng.Run(context.Background(), []estimator.Estimator{reference.NewStandardScaler()})
	require.NoError(t, err)

	found := false
	for _, e := range run.Entries {
		if e.Check == "sparse_fit_accepted" {
			found = true
			assert.Equal(t, checks.StatusSkip, e.Status)
			assert.Equal(t, "trait supports_sparse not declared", e.Reason)
		}
	}
	assert.True(t, found, "trait-gated checks must not vanish from the report")
}

func TestRunIsolatesBrokenEstimators(t *testing.T) {
	eng := newTestEngine(t, nil)

	run, err := eng.Run(context.Background(), reference.All())
	require.NoError(t, err)

	assert.Positive(t, run.Counts.Fail)
	assert.Zero(t, run.Counts.Error, "estimator misbehavior is never a harness error")

	byPair := map[[2]string]checks.Status{}
	for _, e := range run.Entries {
		byPair[[2]string{e.Estimator, e.Check}] = e.Status
	}
	assert.Equal(t, checks.StatusFail, byPair[[2]string{"UncheckedRegressor", "fit_validates_length"}])
	assert.Equal(t, checks.StatusFail, byPair[[2]string{"JitterRegressor", "fit_determinism"}])
	assert.Equal(t, checks.StatusFail, byPair[[2]string{"LeakyClassifier", "clone_independent"}])

	// Broken estimators alongside honest ones must not contaminate them.
	assert.Equal(t, checks.StatusPass, byPair[[2]string{"MeanRegressor", "fit_validates_length"}])
}

func TestRunAppliesLedger(t *testing.T) {
	led, err := ledger.Parse([]byte(`
exemptions:
  - estimator: UncheckedRegressor
    check: fit_validates_length
    action: xfail
    justification: "validation rewrite tracked upstream"
  - estimator: MeanRegressor
    check: fit_determinism
    action: xfail
    justification: "was flaky on the old solver"
  - estimator: StandardScaler
    check: dtype_invariance
    action: skip
    justification: "float32 path unsupported here"
`))
	require.NoError(t, err)
	eng := newTestEngine(t, led)

	run, err := eng.Run(context.Background(), []estimator.Estimator{
		reference.NewUncheckedRegressor(),
		reference.NewMeanRegressor(),
		reference.NewStandardScaler(),
	})
	require.NoError(t, err)

	byPair := map[[2]string]report.Entry{}
	for _, e := range run.Entries {
		byPair[[2]string{e.Estimator, e.Check}] = e
	}

	xfail := byPair[[2]string{"UncheckedRegressor", "fit_validates_length"}]
	assert.Equal(t, checks.StatusXFail, xfail.Status)
	assert.Contains(t, xfail.Reason, "validation rewrite")
	assert.Contains(t, xfail.Reason, "original failure")

	// The exempted check passes, so the stale exemption is surfaced.
	xpass := byPair[[2]string{"MeanRegressor", "fit_determinism"}]
	assert.Equal(t, checks.StatusUnexpectedPass, xpass.Status)

	skip := byPair[[2]string{"StandardScaler", "dtype_invariance"}]
	assert.Equal(t, checks.StatusSkip, skip.Status)
	assert.Contains(t, skip.Reason, "exempted")
}

func TestRunEmptyTargetsFatal(t *testing.T) {
	eng := newTestEngine(t, nil)

	_, err := eng.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no estimators")
}

func TestRunNilRegistryFatal(t *testing.T) {
	eng := New(nil, nil)

	_, err := eng.Run(context.Background(), reference.Honest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry")
}

func TestRunCancelledContext(t *testing.T) {
	eng := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := eng.Run(ctx, reference.Honest())
	require.NoError(t, err, "cancellation finalizes a partial report instead of failing")
	assert.True(t, run.Interrupted)
	assert.Empty(t, run.Entries)
}

func TestExecuteTimeout(t *testing.T) {
	eng := newTestEngine(t, nil, WithTimeout(20*time.Millisecond))

	slow := checks.Check{
		Name: "slow",
		Fn: func(ctx context.Context, _ estimator.Estimator, _ *fixture.Fixture) checks.Verdict {
			time.Sleep(2 * time.Second)
			return checks.Pass()
		},
	}
	v, ok := eng.execute(context.Background(), reference.NewMeanRegressor(), slow, nil)

	require.True(t, ok)
	assert.Equal(t, checks.StatusError, v.Status, "a hung check indicts the harness, not the estimator")
	assert.Contains(t, v.Reason, "timeout")
}

func TestExecuteCheckPanicIsHarnessError(t *testing.T) {
	eng := newTestEngine(t, nil)

	buggy := checks.Check{
		Name: "buggy",
		Fn: func(ctx context.Context, _ estimator.Estimator, _ *fixture.Fixture) checks.Verdict {
			panic("check bug")
		},
	}
	v, ok := eng.execute(context.Background(), reference.NewMeanRegressor(), buggy, nil)

	require.True(t, ok)
	assert.Equal(t, checks.StatusError, v.Status)
	assert.Contains(t, v.Reason, "harness")
}

func TestClock(t *testing.T) {
	c := NewClock()

	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}
