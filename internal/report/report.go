// Package report models the outcome of a harness run and renders it for
// humans, for golden comparison, and for the results store.
package report

import (
	"time"

	"github.com/roach88/estcheck/internal/checks"
)

// Entry is one finalized (estimator, check) verdict.
type Entry struct {
	// Seq is the entry's position in the deterministic report order,
	// starting at 1. Assigned at finalization, after sorting, so the same
	// run inputs always yield the same numbering regardless of worker
	// interleaving.
	Seq int64 `json:"seq"`

	Estimator string        `json:"estimator"`
	Check     string        `json:"check"`
	Status    checks.Status `json:"status"`
	Reason    string        `json:"reason,omitempty"`
}

// Counts tallies entries per status.
type Counts struct {
	Pass           int `json:"pass"`
	Fail           int `json:"fail"`
	Skip           int `json:"skip"`
	XFail          int `json:"xfail"`
	UnexpectedPass int `json:"unexpected_pass"`
	Error          int `json:"error"`
}

// Total returns the number of tallied entries.
func (c Counts) Total() int {
	return c.Pass + c.Fail + c.Skip + c.XFail + c.UnexpectedPass + c.Error
}

// Run is a finalized harness run. Immutable once the engine returns it.
type Run struct {
	// ID is unique per invocation and excluded from canonical output.
	ID string `json:"id"`

	Suite string `json:"suite"`
	Seed  uint64 `json:"seed"`

	// StartedAt is wall-clock and excluded from canonical output.
	StartedAt time.Time `json:"started_at"`

	// Interrupted is true when the run was cancelled and the report holds
	// only the entries completed before cancellation.
	Interrupted bool `json:"interrupted,omitempty"`

	Entries []Entry `json:"entries"`
	Counts  Counts  `json:"counts"`
}

// Tally recomputes Counts from Entries.
func (r *Run) Tally() {
	var c Counts
	for _, e := range r.Entries {
		switch e.Status {
		case checks.StatusPass:
			c.Pass++
		case checks.StatusFail:
			c.Fail++
		case checks.StatusSkip:
			c.Skip++
		case checks.StatusXFail:
			c.XFail++
		case checks.StatusUnexpectedPass:
			c.UnexpectedPass++
		case checks.StatusError:
			c.Error++
		}
	}
	r.Counts = c
}

// Blocking reports whether the run should fail the process: any Fail or
// Error after ledger resolution, and optionally any UnexpectedPass under
// the stricter policy.
func (r *Run) Blocking(failOnUnexpectedPass bool) bool {
	if r.Counts.Fail > 0 || r.Counts.Error > 0 {
		return true
	}
	return failOnUnexpectedPass && r.Counts.UnexpectedPass > 0
}

// Exit codes for the harness process.
const (
	ExitPass = 0
	ExitFail = 1
)

// ExitCode maps a finalized run to a process exit status.
func ExitCode(r *Run, failOnUnexpectedPass bool) int {
	if r.Blocking(failOnUnexpectedPass) {
		return ExitFail
	}
	return ExitPass
}
