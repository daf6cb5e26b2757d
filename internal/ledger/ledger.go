// Package ledger loads and applies the exemption ledger: a static,
// version-controlled table of (estimator, check) pairs whose failure is
// expected or whose execution should be skipped.
//
// The ledger is read once at startup and never mutated by a run, which makes
// it safe for concurrent reads and diffable over time: every loosening or
// tightening of the contract shows up in version control.
package ledger

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/estcheck/internal/checks"
)

// Action is what an exemption does to its (estimator, check) pair.
type Action string

const (
	// ActionSkip suppresses execution of the check entirely.
	ActionSkip Action = "skip"

	// ActionXFail runs the check but downgrades a Fail to XFail. If the
	// check passes instead, the result is surfaced as UnexpectedPass so
	// the stale exemption can be pruned.
	ActionXFail Action = "xfail"
)

// Entry is one exemption. Justification is mandatory: an exemption without
// a reason is indistinguishable from a silenced regression.
type Entry struct {
	Estimator     string `yaml:"estimator"`
	Check         string `yaml:"check"`
	Action        Action `yaml:"action"`
	Justification string `yaml:"justification"`
}

// file is the on-disk document shape.
type file struct {
	Exemptions []Entry `yaml:"exemptions"`
}

type key struct {
	estimator string
	check     string
}

// Ledger is the immutable in-memory exemption table.
type Ledger struct {
	entries map[key]Entry
}

// Empty returns a ledger with no exemptions.
func Empty() *Ledger {
	return &Ledger{entries: map[key]Entry{}}
}

// Load reads and validates a ledger YAML file. Unknown fields, missing
// justifications, unknown actions, and duplicate (estimator, check) pairs
// are all load errors: a malformed ledger aborts the run before any check
// executes.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exemption ledger: %w", err)
	}
	return Parse(data)
}

// Parse builds a ledger from YAML bytes. See Load for validation rules.
func Parse(data []byte) (*Ledger, error) {
	var doc file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse exemption ledger: %w", err)
	}

	l := Empty()
	for i, e := range doc.Exemptions {
		if e.Estimator == "" {
			return nil, fmt.Errorf("exemption %d: estimator is required", i)
		}
		if e.Check == "" {
			return nil, fmt.Errorf("exemption %d: check is required", i)
		}
		switch e.Action {
		case ActionSkip, ActionXFail:
		default:
			return nil, fmt.Errorf("exemption %d (%s/%s): unknown action %q", i, e.Estimator, e.Check, e.Action)
		}
		if e.Justification == "" {
			return nil, fmt.Errorf("exemption %d (%s/%s): justification is required", i, e.Estimator, e.Check)
		}
		k := key{estimator: e.Estimator, check: e.Check}
		if _, dup := l.entries[k]; dup {
			return nil, fmt.Errorf("exemption %d: duplicate entry for %s/%s", i, e.Estimator, e.Check)
		}
		l.entries[k] = e
	}
	return l, nil
}

// Len returns the number of exemptions.
func (l *Ledger) Len() int { return len(l.entries) }

// Lookup returns the exemption for an (estimator, check) pair, if any.
func (l *Ledger) Lookup(estimatorID, checkName string) (Entry, bool) {
	e, ok := l.entries[key{estimator: estimatorID, check: checkName}]
	return e, ok
}

// Resolve applies the exemption table to an executed verdict.
//
// The asymmetry is deliberate: an expected failure is tolerated quietly
// (XFail), but an exempted check that passes is promoted to UnexpectedPass
// so a stale exemption is always visible and never celebrated as a plain
// Pass. Harness errors are never exemptable.
func (l *Ledger) Resolve(estimatorID, checkName string, v checks.Verdict) checks.Verdict {
	entry, ok := l.Lookup(estimatorID, checkName)
	if !ok {
		return v
	}
	switch entry.Action {
	case ActionSkip:
		// Normally the engine consults the ledger before running; this
		// branch covers verdicts that were produced anyway.
		if v.Status == checks.StatusError {
			return v
		}
		return checks.Skipf("exempted: %s", entry.Justification)
	case ActionXFail:
		switch v.Status {
		case checks.StatusFail:
			return checks.XFail(entry.Justification, v.Reason)
		case checks.StatusPass:
			return checks.UnexpectedPass(entry.Justification)
		}
	}
	return v
}
