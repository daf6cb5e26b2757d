// Command estcheck runs estimator conformance checks.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/estcheck/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
