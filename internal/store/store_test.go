package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/estcheck/internal/checks"
	"github.com/roach88/estcheck/internal/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string) *report.Run {
	r := &report.Run{
		ID:        id,
		Suite:     "default",
		Seed:      42,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		Entries: []report.Entry{
			{Seq: 1, Estimator: "MeanRegressor", Check: "fit_then_output", Status: checks.StatusPass},
			{Seq: 2, Estimator: "MeanRegressor", Check: "fit_determinism", Status: checks.StatusFail, Reason: "outputs diverged"},
			{Seq: 3, Estimator: "StandardScaler", Check: "sparse_fit_accepted", Status: checks.StatusSkip, Reason: "trait supports_sparse not declared"},
		},
	}
	r.Tally()
	return r
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestWriteRunRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := testRun("run-1")

	require.NoError(t, s.WriteRun(ctx, want))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Suite, got.Suite)
	assert.Equal(t, want.Seed, got.Seed)
	assert.True(t, want.StartedAt.Equal(got.StartedAt), "started_at survives the RFC3339Nano round trip")
	assert.Equal(t, want.Interrupted, got.Interrupted)
	assert.Equal(t, want.Counts, got.Counts)
	assert.Equal(t, want.Entries, got.Entries)
}

func TestWriteRunIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, testRun("run-1")))

	// A second write of the same run id is a no-op, even with different
	// entries: stored runs are immutable.
	again := testRun("run-1")
	again.Entries = again.Entries[:1]
	again.Tally()
	require.NoError(t, s.WriteRun(ctx, again))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 3)
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), "no-such-run")
	require.Error(t, err)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		r := testRun(id)
		r.StartedAt = r.StartedAt.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.WriteRun(ctx, r))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-new", runs[0].ID)
	assert.Equal(t, "run-mid", runs[1].ID)
	assert.Equal(t, "run-old", runs[2].ID)
	assert.Equal(t, uint64(42), runs[0].Seed)
	assert.Equal(t, 1, runs[0].Counts.Fail)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-new", limited[0].ID)
}

func TestDiff(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before := testRun("run-a")
	require.NoError(t, s.WriteRun(ctx, before))

	after := testRun("run-b")
	after.Entries[1].Status = checks.StatusPass
	after.Entries[1].Reason = ""
	after.Entries = append(after.Entries, report.Entry{
		Seq: 4, Estimator: "GridClusterer", Check: "cluster_labels_in_range", Status: checks.StatusPass,
	})
	after.Tally()
	require.NoError(t, s.WriteRun(ctx, after))

	changes, err := s.Diff(ctx, "run-a", "run-b")
	require.NoError(t, err)
	require.Len(t, changes, 2)

	// Sorted by estimator then check. The pair present only in run-b has an
	// empty From side.
	assert.Equal(t, Change{
		Estimator: "GridClusterer",
		Check:     "cluster_labels_in_range",
		To:        checks.StatusPass,
	}, changes[0])
	assert.Equal(t, Change{
		Estimator: "MeanRegressor",
		Check:     "fit_determinism",
		From:      checks.StatusFail,
		To:        checks.StatusPass,
	}, changes[1])
}

func TestDiffIdenticalRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, testRun("run-a")))
	b := testRun("run-b")
	require.NoError(t, s.WriteRun(ctx, b))

	changes, err := s.Diff(ctx, "run-a", "run-b")
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestDiffUnknownRun(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.WriteRun(context.Background(), testRun("run-a")))

	_, err := s.Diff(context.Background(), "run-a", "run-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-missing not found")
}
