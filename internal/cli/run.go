package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/estcheck/internal/checks"
	"github.com/roach88/estcheck/internal/engine"
	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/ledger"
	"github.com/roach88/estcheck/internal/reference"
	"github.com/roach88/estcheck/internal/report"
	"github.com/roach88/estcheck/internal/store"
	"github.com/roach88/estcheck/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	SuitePath            string
	Seed                 uint64
	LedgerPath           string
	Parallel             int
	Timeout              time.Duration
	FailOnUnexpectedPass bool
	Database             string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [estimator...]",
		Short: "Run conformance checks against estimators",
		Long: `Run the conformance check registry against a set of estimators.

Without a suite file, the named estimators (or all built-in honest ones)
run against the full registry. With --suite, the CUE suite file selects
estimators, seed, check filters, tolerance, and the exemption ledger;
explicit flags override the suite's values.

Example:
  estcheck run centroid meanreg --seed 42
  estcheck run --suite suite.cue --ledger exemptions.yaml --db runs.db`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SuitePath, "suite", "", "path to CUE suite file")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "fixture synthesis seed")
	cmd.Flags().StringVar(&opts.LedgerPath, "ledger", "", "path to exemption ledger YAML")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 1, "estimators checked concurrently")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", engine.DefaultTimeout, "per-check timeout (0 disables)")
	cmd.Flags().BoolVar(&opts.FailOnUnexpectedPass, "fail-on-unexpected-pass", false, "treat unexpected passes as failures")
	cmd.Flags().StringVar(&opts.Database, "db", "", "persist the run to this SQLite results store")

	return cmd
}

func runChecks(opts *RunOptions, args []string, cmd *cobra.Command) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	suiteName := "default"
	seed := opts.Seed
	ledgerPath := opts.LedgerPath
	estimatorIDs := args
	var registryOpts []checks.Option

	if opts.SuitePath != "" {
		spec, err := suite.Load(opts.SuitePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to compile suite", err)
		}
		suiteName = spec.Name
		if !cmd.Flags().Changed("seed") {
			seed = spec.Seed
		}
		if len(estimatorIDs) == 0 {
			estimatorIDs = spec.Estimators
		}
		if ledgerPath == "" && spec.LedgerPath != "" {
			ledgerPath = spec.LedgerPath
			if !filepath.IsAbs(ledgerPath) {
				ledgerPath = filepath.Join(filepath.Dir(opts.SuitePath), ledgerPath)
			}
		}
		if len(spec.Include) > 0 {
			registryOpts = append(registryOpts, checks.WithOnly(spec.Include...))
		}
		if len(spec.Exclude) > 0 {
			registryOpts = append(registryOpts, checks.WithExclude(spec.Exclude...))
		}
		if spec.Tolerance != nil {
			registryOpts = append(registryOpts, checks.WithTolerance(checks.Tolerance{
				Abs: spec.Tolerance.Abs,
				Rel: spec.Tolerance.Rel,
			}))
		}
	}

	targets, err := resolveEstimators(estimatorIDs)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve estimators", err)
	}

	registry, err := checks.NewRegistry(registryOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build check registry", err)
	}

	led := ledger.Empty()
	if ledgerPath != "" {
		led, err = ledger.Load(ledgerPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load exemption ledger", err)
		}
	}

	eng := engine.New(registry, led,
		engine.WithSuiteName(suiteName),
		engine.WithSeed(seed),
		engine.WithParallelism(opts.Parallel),
		engine.WithTimeout(opts.Timeout),
		engine.WithLogger(logger),
	)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, finalizing partial report", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("run starting", "suite", suiteName, "seed", seed, "estimators", len(targets), "checks", registry.Len())
	run, err := eng.Run(ctx, targets)
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if opts.Database != "" {
		// The interrupt that finalized a partial report has already
		// cancelled ctx; persistence of that report must still go through.
		dbCtx := context.WithoutCancel(parentCtx)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open results store", err)
		}
		defer st.Close()
		if err := st.WriteRun(dbCtx, run); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist run", err)
		}
		logger.Info("run persisted", "db", opts.Database, "run_id", run.ID)
	}

	if opts.Format == "json" {
		data, err := report.MarshalCanonical(run)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal report", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		if err := report.Summarize(cmd.OutOrStdout(), run, opts.Verbose); err != nil {
			return WrapExitError(ExitCommandError, "failed to render report", err)
		}
	}

	if report.ExitCode(run, opts.FailOnUnexpectedPass) != report.ExitPass {
		return NewExitError(ExitFailure, "conformance checks failed")
	}
	return nil
}

// resolveEstimators maps catalog ids to fresh instances. No ids means the
// built-in honest set.
func resolveEstimators(ids []string) ([]estimator.Estimator, error) {
	if len(ids) == 0 {
		return reference.Honest(), nil
	}
	cat := reference.Catalog()
	targets := make([]estimator.Estimator, 0, len(ids))
	for _, id := range ids {
		ctor, ok := cat[id]
		if !ok {
			return nil, fmt.Errorf("unknown estimator %q (known: %v)", id, reference.Names())
		}
		targets = append(targets, ctor())
	}
	return targets, nil
}
