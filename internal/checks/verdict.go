// Package checks defines the conformance checks and the registry that
// resolves which of them apply to a classified estimator.
//
// Every check is a pure function over (estimator clone, fixture): it shares
// no state with other checks and reports a Verdict. Fail is reserved for
// genuine contract violations; anything an estimator legitimately does not
// support - declared through traits - resolves to Skip.
package checks

import "fmt"

// Status is the outcome category of one (estimator, check) execution.
type Status string

const (
	// StatusPass means the contract property held.
	StatusPass Status = "pass"

	// StatusFail means the estimator violated the contract.
	StatusFail Status = "fail"

	// StatusSkip means the check does not apply to this estimator.
	StatusSkip Status = "skip"

	// StatusXFail means a registered exemption downgraded a failure.
	StatusXFail Status = "xfail"

	// StatusUnexpectedPass means a check exempted as xfail now passes.
	// Surfaced distinctly so stale exemptions are discoverable.
	StatusUnexpectedPass Status = "unexpected_pass"

	// StatusError means the harness itself misbehaved (check bug, fixture
	// synthesis failure, timeout). Distinct from Fail: an Error indicts the
	// harness, a Fail indicts the estimator.
	StatusError Status = "error"
)

// Verdict is the immutable outcome of one check execution.
type Verdict struct {
	Status Status
	Reason string
}

// Pass returns a passing verdict.
func Pass() Verdict { return Verdict{Status: StatusPass} }

// Failf returns a failing verdict with a formatted reason.
func Failf(format string, args ...any) Verdict {
	return Verdict{Status: StatusFail, Reason: fmt.Sprintf(format, args...)}
}

// Skipf returns a skip verdict with a formatted reason.
func Skipf(format string, args ...any) Verdict {
	return Verdict{Status: StatusSkip, Reason: fmt.Sprintf(format, args...)}
}

// Errorf returns a harness-error verdict with a formatted reason.
func Errorf(format string, args ...any) Verdict {
	return Verdict{Status: StatusError, Reason: fmt.Sprintf(format, args...)}
}

// XFail returns an expected-failure verdict carrying the exemption
// justification and the original failure reason.
func XFail(justification, original string) Verdict {
	reason := justification
	if original != "" {
		reason = fmt.Sprintf("%s (original failure: %s)", justification, original)
	}
	return Verdict{Status: StatusXFail, Reason: reason}
}

// UnexpectedPass returns a verdict for an exempted check that now passes.
func UnexpectedPass(justification string) Verdict {
	return Verdict{
		Status: StatusUnexpectedPass,
		Reason: fmt.Sprintf("check passes despite xfail exemption (%s); remove the stale exemption", justification),
	}
}

// Blocking reports whether the verdict should make the run fail.
// UnexpectedPass is blocking only under a stricter policy decided by the
// reporter, so it is not counted here.
func (v Verdict) Blocking() bool {
	return v.Status == StatusFail || v.Status == StatusError
}

func (v Verdict) String() string {
	if v.Reason == "" {
		return string(v.Status)
	}
	return fmt.Sprintf("%s: %s", v.Status, v.Reason)
}
