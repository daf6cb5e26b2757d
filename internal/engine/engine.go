// Package engine runs the cross-product of estimators and applicable
// checks and aggregates the verdicts into a report.
//
// Each (estimator, check) pair is isolated: it receives a fresh clone and
// an immutable fixture, estimator failures are captured as Fail verdicts,
// and a misbehaving check is captured as a harness Error. Nothing an
// estimator does can abort the run of the remaining pairs.
//
// Determinism model: estimators may run in parallel, but entries are sorted
// by (estimator input order, check registry order) and renumbered at
// finalization, and every fixture derives from the run seed. Two runs with
// the same seed and estimator set produce byte-identical canonical reports.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/estcheck/internal/checks"
	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
	"github.com/roach88/estcheck/internal/ledger"
	"github.com/roach88/estcheck/internal/report"
)

// DefaultTimeout bounds a single check execution.
const DefaultTimeout = 30 * time.Second

// Engine executes conformance runs.
type Engine struct {
	registry    *checks.Registry
	ledger      *ledger.Ledger
	suite       string
	seed        uint64
	parallelism int
	timeout     time.Duration
	logger      *slog.Logger
	newRunID    func() string
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSuiteName records the suite name in the report.
func WithSuiteName(name string) Option {
	return func(e *Engine) { e.suite = name }
}

// WithSeed fixes the synthesis seed. Default 0.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithParallelism bounds concurrent estimators. Default 1 (serial).
func WithParallelism(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// WithTimeout bounds each check execution. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRunIDSource overrides run id generation; tests use a fixed source so
// reports compare byte-identically.
func WithRunIDSource(fn func() string) Option {
	return func(e *Engine) { e.newRunID = fn }
}

// WithNowSource overrides the wall clock for the report's StartedAt.
func WithNowSource(fn func() time.Time) Option {
	return func(e *Engine) { e.now = fn }
}

// New creates an engine over a check registry and an exemption ledger.
// A nil ledger means no exemptions.
func New(reg *checks.Registry, led *ledger.Ledger, opts ...Option) *Engine {
	if led == nil {
		led = ledger.Empty()
	}
	e := &Engine{
		registry:    reg,
		ledger:      led,
		suite:       "default",
		parallelism: 1,
		timeout:     DefaultTimeout,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		newRunID:    uuid.NewString,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes every applicable check for every estimator and returns the
// finalized report.
//
// Misconfiguration of the harness itself (no estimators, empty registry) is
// the only fatal path and aborts before any check executes. Cancellation
// finalizes the partial report rather than discarding it; the returned run
// is then marked Interrupted.
func (e *Engine) Run(ctx context.Context, targets []estimator.Estimator) (*report.Run, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("engine: no estimators to check")
	}
	if e.registry == nil || e.registry.Len() == 0 {
		return nil, fmt.Errorf("engine: check registry is empty")
	}

	synth := fixture.NewSynthesizer(e.seed)
	results := make([][]report.Entry, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = e.runEstimator(gctx, target, synth)
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	run := &report.Run{
		ID:        e.newRunID(),
		Suite:     e.suite,
		Seed:      e.seed,
		StartedAt: e.now(),
	}
	clock := NewClock()
	for _, entries := range results {
		for _, entry := range entries {
			entry.Seq = clock.Next()
			run.Entries = append(run.Entries, entry)
		}
	}
	run.Tally()
	if ctx.Err() != nil {
		run.Interrupted = true
	}
	return run, nil
}

// runEstimator classifies one estimator and executes its check plan in
// registry order. Returns the entries completed before cancellation.
func (e *Engine) runEstimator(ctx context.Context, target estimator.Estimator, synth *fixture.Synthesizer) []report.Entry {
	name := target.Name()
	tags, traits := estimator.Classify(target)
	e.logger.Debug("classified estimator",
		"estimator", name,
		"tags", tags.List(),
		"traits", traits.List(),
	)

	plan := e.registry.Plan(tags, traits)
	entries := make([]report.Entry, 0, len(plan))
	for _, p := range plan {
		if ctx.Err() != nil {
			break
		}
		verdict, recorded := e.runCheck(ctx, target, p, synth)
		if !recorded {
			break
		}
		entries = append(entries, report.Entry{
			Estimator: name,
			Check:     p.Check.Name,
			Status:    verdict.Status,
			Reason:    verdict.Reason,
		})
		e.logger.Debug("check finished",
			"estimator", name,
			"check", p.Check.Name,
			"status", verdict.Status,
		)
	}
	return entries
}

// runCheck produces the resolved verdict for one (estimator, check) pair.
// recorded is false only when cancellation preempted the execution.
func (e *Engine) runCheck(ctx context.Context, target estimator.Estimator, p checks.Planned, synth *fixture.Synthesizer) (v checks.Verdict, recorded bool) {
	name := target.Name()
	checkName := p.Check.Name

	// Trait gating resolved at plan time: record the skip, never run.
	if p.SkipReason != "" {
		return checks.Skipf("%s", p.SkipReason), true
	}

	// Skip exemptions preempt execution entirely.
	if entry, ok := e.ledger.Lookup(name, checkName); ok && entry.Action == ledger.ActionSkip {
		return checks.Skipf("exempted: %s", entry.Justification), true
	}

	var fx *fixture.Fixture
	if p.Check.NeedsFixture() {
		var err error
		fx, err = synth.Synthesize(p.Check.Recipe)
		if err != nil {
			// Synthesis failure indicts the harness, not the estimator.
			return e.ledger.Resolve(name, checkName, checks.Errorf("synthesize fixture: %v", err)), true
		}
	}

	// Fresh clone per check: the caller's instance is never mutated and
	// checks cannot contaminate each other.
	var clone estimator.Estimator
	clonePanic := func() (p any) {
		defer func() { p = recover() }()
		clone = target.Clone()
		return nil
	}()
	if clonePanic != nil {
		return e.ledger.Resolve(name, checkName, checks.Failf("clone panicked: %v", clonePanic)), true
	}
	if clone == nil {
		return e.ledger.Resolve(name, checkName, checks.Failf("Clone returned nil")), true
	}

	verdict, ok := e.execute(ctx, clone, p.Check, fx)
	if !ok {
		return checks.Verdict{}, false
	}
	return e.ledger.Resolve(name, checkName, verdict), true
}

// execute runs the check body with panic isolation and the per-check
// timeout. A panic escaping the check function is a harness bug (checks
// guard their own estimator calls) and becomes an Error verdict. ok is
// false when cancellation preempted completion.
func (e *Engine) execute(ctx context.Context, clone estimator.Estimator, c checks.Check, fx *fixture.Fixture) (v checks.Verdict, ok bool) {
	cctx := ctx
	var cancel context.CancelFunc
	if e.timeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan checks.Verdict, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- checks.Errorf("harness: check %s panicked: %v", c.Name, r)
			}
		}()
		done <- c.Fn(cctx, clone, fx)
	}()

	select {
	case verdict := <-done:
		return verdict, true
	case <-cctx.Done():
		if ctx.Err() != nil {
			// Run-level cancellation: finalize the partial report. The
			// abandoned goroutine drains into the buffered channel.
			return checks.Verdict{}, false
		}
		return checks.Errorf("timeout after %s", e.timeout), true
	}
}
