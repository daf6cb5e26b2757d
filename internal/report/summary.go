package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/roach88/estcheck/internal/checks"
)

// statusMark gives each status a distinct sigil so contract violations,
// exemptions, and harness errors are visually separable at a glance.
var statusMark = map[checks.Status]string{
	checks.StatusPass:           "ok",
	checks.StatusFail:           "FAIL",
	checks.StatusSkip:           "skip",
	checks.StatusXFail:          "xfail",
	checks.StatusUnexpectedPass: "XPASS",
	checks.StatusError:          "ERROR",
}

// Summarize writes the human-readable report: entries grouped by estimator
// in report order, failure and error reasons verbatim, then the totals line.
// With verbose false, Pass and Skip entries are collapsed into the counts.
func Summarize(w io.Writer, r *Run, verbose bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	current := ""
	shown := 0
	for _, e := range r.Entries {
		if !verbose && (e.Status == checks.StatusPass || e.Status == checks.StatusSkip) {
			continue
		}
		if e.Estimator != current {
			if current != "" {
				fmt.Fprintln(tw, "\t\t")
			}
			fmt.Fprintf(tw, "%s\t\t\n", e.Estimator)
			current = e.Estimator
		}
		line := fmt.Sprintf("  %s\t%s\t", e.Check, statusMark[e.Status])
		if e.Reason != "" {
			line += e.Reason
		}
		fmt.Fprintln(tw, line)
		shown++
	}
	if shown > 0 {
		fmt.Fprintln(tw, "\t\t")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	c := r.Counts
	fmt.Fprintf(w, "%d checks: %d passed, %d failed, %d skipped, %d xfailed, %d unexpected passes, %d errors\n",
		c.Total(), c.Pass, c.Fail, c.Skip, c.XFail, c.UnexpectedPass, c.Error)
	if r.Interrupted {
		fmt.Fprintln(w, "run interrupted: report is partial")
	}
	return nil
}
