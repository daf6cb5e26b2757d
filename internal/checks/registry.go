package checks

import (
	"fmt"
	"sort"

	"github.com/roach88/estcheck/internal/estimator"
)

// Tolerance bounds numerical equality in behavioral checks.
type Tolerance struct {
	Abs float64
	Rel float64
}

// DefaultTolerance is the comparison bound for float64 outputs.
func DefaultTolerance() Tolerance {
	return Tolerance{Abs: 1e-9, Rel: 1e-7}
}

// Widened returns the looser bound used when one side of a comparison went
// through a float32 representation.
func (t Tolerance) Widened() Tolerance {
	return Tolerance{Abs: 1e-4, Rel: 1e-4}
}

// Registry holds the ordered set of conformance checks.
//
// Ordering is stable: structural checks come before behavioral checks, and
// within a cost class checks keep registration order. The order never
// depends on the estimator, which keeps reports byte-identical across runs.
type Registry struct {
	checks []Check
}

// Option configures registry construction.
type Option func(*registryConfig)

type registryConfig struct {
	tol     Tolerance
	include map[string]bool
	exclude map[string]bool
}

// WithTolerance overrides the default numerical tolerance.
func WithTolerance(tol Tolerance) Option {
	return func(c *registryConfig) { c.tol = tol }
}

// WithOnly restricts the registry to the named checks.
func WithOnly(names ...string) Option {
	return func(c *registryConfig) {
		c.include = make(map[string]bool, len(names))
		for _, n := range names {
			c.include[n] = true
		}
	}
}

// WithExclude removes the named checks from the registry.
func WithExclude(names ...string) Option {
	return func(c *registryConfig) {
		if c.exclude == nil {
			c.exclude = make(map[string]bool, len(names))
		}
		for _, n := range names {
			c.exclude[n] = true
		}
	}
}

// NewRegistry builds the default registry: every check defined by the
// harness, structural first, filtered by the given options.
func NewRegistry(opts ...Option) (*Registry, error) {
	cfg := &registryConfig{tol: DefaultTolerance()}
	for _, opt := range opts {
		opt(cfg)
	}

	all := defaultChecks(cfg.tol)
	known := make(map[string]bool, len(all))
	for _, c := range all {
		if known[c.Name] {
			return nil, fmt.Errorf("registry: duplicate check name %q", c.Name)
		}
		known[c.Name] = true
	}
	for n := range cfg.include {
		if !known[n] {
			return nil, fmt.Errorf("registry: unknown check %q in include filter", n)
		}
	}
	for n := range cfg.exclude {
		if !known[n] {
			return nil, fmt.Errorf("registry: unknown check %q in exclude filter", n)
		}
	}

	var kept []Check
	for _, c := range all {
		if cfg.include != nil && !cfg.include[c.Name] {
			continue
		}
		if cfg.exclude[c.Name] {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("registry: no checks remain after filtering")
	}

	// Stable: structural before behavioral, registration order within.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Cost < kept[j].Cost })
	return &Registry{checks: kept}, nil
}

// Checks returns the ordered checks.
func (r *Registry) Checks() []Check { return r.checks }

// Len returns the number of registered checks.
func (r *Registry) Len() int { return len(r.checks) }

// Planned pairs a check with an optional skip reason. A non-empty SkipReason
// means the check must be recorded as Skip rather than executed: the
// estimator's declared traits make it inapplicable. These entries are never
// silently omitted from the report.
type Planned struct {
	Check      Check
	SkipReason string
}

// Plan resolves the checks applicable to a classified estimator, in
// registry order. Capability mismatches exclude a check entirely; trait
// mismatches keep it in the plan with a skip reason.
func (r *Registry) Plan(tags estimator.TagSet, traits estimator.TraitSet) []Planned {
	var plan []Planned
	for _, c := range r.checks {
		if !c.Applies(tags) {
			continue
		}
		p := Planned{Check: c}
		for _, t := range c.RequiresTraits {
			if !traits.Has(t) {
				p.SkipReason = fmt.Sprintf("trait %s not declared", t)
				break
			}
		}
		if p.SkipReason == "" {
			for _, t := range c.ExcludedByTraits {
				if traits.Has(t) {
					p.SkipReason = fmt.Sprintf("trait %s declared", t)
					break
				}
			}
		}
		plan = append(plan, p)
	}
	return plan
}

// defaultChecks assembles every check in registration order.
func defaultChecks(tol Tolerance) []Check {
	var all []Check
	all = append(all, structuralChecks()...)
	all = append(all, behavioralChecks(tol)...)
	all = append(all, sparseChecks(tol)...)
	return all
}
