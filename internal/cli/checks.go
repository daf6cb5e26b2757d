package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/estcheck/internal/checks"
	"github.com/roach88/estcheck/internal/estimator"
)

// NewChecksCommand creates the checks listing command.
func NewChecksCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "List registered conformance checks",
		Long: `List every check in the registry with its cost class and the
trait declarations that gate it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listChecks(rootOpts, cmd)
		},
	}
	return cmd
}

type checkInfo struct {
	Name     string   `json:"name"`
	Cost     string   `json:"cost"`
	Doc      string   `json:"doc,omitempty"`
	Requires []string `json:"requires_traits,omitempty"`
	Excluded []string `json:"excluded_by_traits,omitempty"`
}

func listChecks(opts *RootOptions, cmd *cobra.Command) error {
	registry, err := checks.NewRegistry()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build check registry", err)
	}

	infos := make([]checkInfo, 0, registry.Len())
	for _, c := range registry.Checks() {
		infos = append(infos, checkInfo{
			Name:     c.Name,
			Cost:     c.Cost.String(),
			Doc:      c.Doc,
			Requires: traitNames(c.RequiresTraits),
			Excluded: traitNames(c.ExcludedByTraits),
		})
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOST\tTRAITS")
	for _, info := range infos {
		gates := make([]string, 0, len(info.Requires)+len(info.Excluded))
		for _, t := range info.Requires {
			gates = append(gates, "requires "+t)
		}
		for _, t := range info.Excluded {
			gates = append(gates, "unless "+t)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Name, info.Cost, strings.Join(gates, ", "))
	}
	return tw.Flush()
}

func traitNames(traits []estimator.Trait) []string {
	out := make([]string, 0, len(traits))
	for _, t := range traits {
		out = append(out, string(t))
	}
	return out
}
