package checks

import (
	"context"

	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
)

// Cost orders checks in the registry: structural checks (pure introspection,
// no fitting) always precede behavioral checks so that a report surfaces
// cheap structural breakage first for triage. A structural failure does not
// short-circuit the remaining checks.
type Cost int

const (
	// CostStructural checks inspect configuration only.
	CostStructural Cost = iota

	// CostBehavioral checks fit estimators and exercise role operations.
	CostBehavioral
)

func (c Cost) String() string {
	if c == CostStructural {
		return "structural"
	}
	return "behavioral"
}

// Func executes one check against a freshly cloned estimator and an
// immutable fixture. fx is nil when the check declares no recipe.
//
// Implementations must be pure: no state shared between invocations, no
// mutation of the fixture, and every estimator call routed through guard so
// estimator panics surface as failures instead of unwinding the harness.
type Func func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict

// Check is a named conformance property with declared applicability.
type Check struct {
	// Name identifies the check in reports and the exemption ledger.
	Name string

	// Doc is a one-line description shown by the CLI listing.
	Doc string

	// Cost classifies the check for ordering.
	Cost Cost

	// Applies reports whether the check is meaningful for the capability
	// set. Estimators outside a check's capabilities are not reported at
	// all; trait gating below yields explicit Skip entries instead.
	Applies func(estimator.TagSet) bool

	// RequiresTraits lists traits that must be declared. A missing trait
	// turns the execution into Skip("trait ... not declared").
	RequiresTraits []estimator.Trait

	// ExcludedByTraits lists traits whose declaration makes the check moot
	// (e.g. NaN rejection when allow_nan is declared).
	ExcludedByTraits []estimator.Trait

	// Recipe is the fixture recipe the check needs. The zero Recipe means
	// the check runs without data.
	Recipe fixture.Recipe

	// Fn is the check body.
	Fn Func
}

// NeedsFixture reports whether the check declares a fixture recipe.
func (c Check) NeedsFixture() bool {
	return c.Recipe != (fixture.Recipe{})
}

// universal applies to every capability set, including TagOther.
func universal(estimator.TagSet) bool { return true }

// anyRole applies to every estimator with at least one recognized role.
func anyRole(tags estimator.TagSet) bool {
	return tags.HasAny(
		estimator.TagClassifier,
		estimator.TagRegressor,
		estimator.TagTransformer,
		estimator.TagClusterer,
		estimator.TagOutlierDetector,
	)
}
