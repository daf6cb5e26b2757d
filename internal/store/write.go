package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/estcheck/internal/report"
)

// WriteRun persists a finalized run and all its verdict entries in one
// transaction. Uses ON CONFLICT(run_id) DO NOTHING for idempotency: writing
// the same run twice is a no-op.
func (s *Store) WriteRun(ctx context.Context, r *report.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, suite, seed, started_at, interrupted, pass, fail, skip, xfail, unexpected_pass, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO NOTHING
	`,
		r.ID,
		r.Suite,
		int64(r.Seed),
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		boolToInt(r.Interrupted),
		r.Counts.Pass,
		r.Counts.Fail,
		r.Counts.Skip,
		r.Counts.XFail,
		r.Counts.UnexpectedPass,
		r.Counts.Error,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if inserted == 0 {
		// Run already stored; entries are immutable once written.
		return tx.Commit()
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verdicts (run_id, seq, estimator, "check", status, reason)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write run: prepare verdicts: %w", err)
	}
	defer stmt.Close()

	for _, e := range r.Entries {
		if _, err := stmt.ExecContext(ctx, r.ID, e.Seq, e.Estimator, e.Check, string(e.Status), e.Reason); err != nil {
			return fmt.Errorf("write run: verdict seq %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
