package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/estcheck/internal/store"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Database string
}

// NewDiffCommand creates the run diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Compare verdict statuses between two stored runs",
		Long: `Compare two runs from the results store and list every
(estimator, check) pair whose status changed. An empty side means the pair
exists in only one run.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return diffRuns(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite results store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func diffRuns(opts *DiffOptions, runA, runB string, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open results store", err)
	}
	defer st.Close()

	changes, err := st.Diff(cmd.Context(), runA, runB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to diff runs", err)
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(changes)
	}

	if len(changes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no verdict changes")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ESTIMATOR\tCHECK\tFROM\tTO")
	for _, c := range changes {
		from, to := string(c.From), string(c.To)
		if from == "" {
			from = "-"
		}
		if to == "" {
			to = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Estimator, c.Check, from, to)
	}
	return tw.Flush()
}
