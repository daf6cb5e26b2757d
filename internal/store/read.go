package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/estcheck/internal/checks"
	"github.com/roach88/estcheck/internal/report"
)

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID          string
	Suite       string
	Seed        uint64
	StartedAt   time.Time
	Interrupted bool
	Counts      report.Counts
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, suite, seed, started_at, interrupted,
		       pass, fail, skip, xfail, unexpected_pass, error
		FROM runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			sum         RunSummary
			seed        int64
			startedAt   string
			interrupted int
		)
		if err := rows.Scan(&sum.ID, &sum.Suite, &seed, &startedAt, &interrupted,
			&sum.Counts.Pass, &sum.Counts.Fail, &sum.Counts.Skip,
			&sum.Counts.XFail, &sum.Counts.UnexpectedPass, &sum.Counts.Error); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		sum.Seed = uint64(seed)
		sum.Interrupted = interrupted != 0
		sum.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse started_at %q: %w", startedAt, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetRun reconstructs a stored run, entries in report order.
func (s *Store) GetRun(ctx context.Context, runID string) (*report.Run, error) {
	var (
		r           report.Run
		seed        int64
		startedAt   string
		interrupted int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, suite, seed, started_at, interrupted,
		       pass, fail, skip, xfail, unexpected_pass, error
		FROM runs WHERE run_id = ?
	`, runID).Scan(&r.ID, &r.Suite, &seed, &startedAt, &interrupted,
		&r.Counts.Pass, &r.Counts.Fail, &r.Counts.Skip,
		&r.Counts.XFail, &r.Counts.UnexpectedPass, &r.Counts.Error)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.Seed = uint64(seed)
	r.Interrupted = interrupted != 0
	r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("get run %s: parse started_at %q: %w", runID, startedAt, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, estimator, "check", status, reason
		FROM verdicts WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run %s: verdicts: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e      report.Entry
			status string
		)
		if err := rows.Scan(&e.Seq, &e.Estimator, &e.Check, &status, &e.Reason); err != nil {
			return nil, fmt.Errorf("get run %s: scan verdict: %w", runID, err)
		}
		e.Status = checks.Status(status)
		r.Entries = append(r.Entries, e)
	}
	return &r, rows.Err()
}

// Change is one (estimator, check) pair whose status differs between two
// runs. An empty From or To means the pair exists in only one of them.
type Change struct {
	Estimator string
	Check     string
	From      checks.Status
	To        checks.Status
}

// Diff compares the verdict statuses of two stored runs and returns the
// pairs that changed, sorted by estimator then check name.
func (s *Store) Diff(ctx context.Context, runA, runB string) ([]Change, error) {
	a, err := s.verdictMap(ctx, runA)
	if err != nil {
		return nil, err
	}
	b, err := s.verdictMap(ctx, runB)
	if err != nil {
		return nil, err
	}

	keys := make(map[[2]string]struct{}, len(a)+len(b))
	for k := range a {
		keys[k] = struct{}{}
	}
	for k := range b {
		keys[k] = struct{}{}
	}

	var changes []Change
	for k := range keys {
		from, to := a[k], b[k]
		if from == to {
			continue
		}
		changes = append(changes, Change{Estimator: k[0], Check: k[1], From: from, To: to})
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Estimator != changes[j].Estimator {
			return changes[i].Estimator < changes[j].Estimator
		}
		return changes[i].Check < changes[j].Check
	})
	return changes, nil
}

// verdictMap loads a run's statuses keyed by (estimator, check).
func (s *Store) verdictMap(ctx context.Context, runID string) (map[[2]string]checks.Status, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("diff: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("diff: run %s not found", runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT estimator, "check", status
		FROM verdicts WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("diff: verdicts for %s: %w", runID, err)
	}
	defer rows.Close()

	out := make(map[[2]string]checks.Status)
	for rows.Next() {
		var estimatorName, checkName, status string
		if err := rows.Scan(&estimatorName, &checkName, &status); err != nil {
			return nil, fmt.Errorf("diff: scan verdict: %w", err)
		}
		out[[2]string{estimatorName, checkName}] = checks.Status(status)
	}
	return out, rows.Err()
}
