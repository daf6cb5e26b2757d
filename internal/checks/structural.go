package checks

import (
	"context"

	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
)

// structuralChecks are pure introspection: they never fit and need no data.
// They run first for every estimator, including TagOther.
func structuralChecks() []Check {
	return []Check{
		{
			Name:    "params_roundtrip",
			Doc:     "SetParams(Params()) leaves the configuration unchanged without fitting",
			Cost:    CostStructural,
			Applies: universal,
			Fn:      checkParamsRoundTrip,
		},
		{
			Name:    "params_roundtrip_idempotent",
			Doc:     "applying the params round-trip twice equals applying it once",
			Cost:    CostStructural,
			Applies: universal,
			Fn:      checkParamsRoundTripIdempotent,
		},
		{
			Name:    "params_valid_types",
			Doc:     "every parameter value is an allowed scalar type",
			Cost:    CostStructural,
			Applies: universal,
			Fn:      checkParamsValidTypes,
		},
		{
			Name:    "params_string_stable",
			Doc:     "the canonical parameter rendering is identical across calls and clones",
			Cost:    CostStructural,
			Applies: universal,
			Fn:      checkParamsStringStable,
		},
		{
			Name:    "clone_params_equal",
			Doc:     "a clone carries identical parameters and is unfitted",
			Cost:    CostStructural,
			Applies: universal,
			Fn:      checkCloneParamsEqual,
		},
	}
}

func checkParamsRoundTrip(ctx context.Context, e estimator.Estimator, _ *fixture.Fixture) Verdict {
	var before, after estimator.Params
	err := guard("params", func() error {
		before = e.Params().Clone()
		return nil
	})
	if err != nil {
		return Failf("reading params: %v", err)
	}
	err = guard("set_params", func() error {
		return e.SetParams(before.Clone())
	})
	if err != nil {
		return Failf("SetParams rejected its own Params output: %v", err)
	}
	err = guard("params", func() error {
		after = e.Params()
		return nil
	})
	if err != nil {
		return Failf("re-reading params: %v", err)
	}
	if !before.Equal(after) {
		return Failf("params changed after round-trip: before %q, after %q", before, after)
	}
	return Pass()
}

func checkParamsRoundTripIdempotent(ctx context.Context, e estimator.Estimator, _ *fixture.Fixture) Verdict {
	var original, final estimator.Params
	if err := guard("params", func() error { original = e.Params().Clone(); return nil }); err != nil {
		return Failf("reading params: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := guard("set_params", func() error { return e.SetParams(e.Params()) }); err != nil {
			return Failf("round-trip %d: %v", i+1, err)
		}
	}
	if err := guard("params", func() error { final = e.Params(); return nil }); err != nil {
		return Failf("re-reading params: %v", err)
	}
	if !original.Equal(final) {
		return Failf("double round-trip mutated params: before %q, after %q", original, final)
	}
	return Pass()
}

func checkParamsValidTypes(ctx context.Context, e estimator.Estimator, _ *fixture.Fixture) Verdict {
	var p estimator.Params
	if err := guard("params", func() error { p = e.Params(); return nil }); err != nil {
		return Failf("reading params: %v", err)
	}
	if err := p.Validate(); err != nil {
		return Failf("%v", err)
	}
	return Pass()
}

func checkParamsStringStable(ctx context.Context, e estimator.Estimator, _ *fixture.Fixture) Verdict {
	var first, second string
	err := guard("params", func() error {
		first = e.Params().String()
		second = e.Params().String()
		return nil
	})
	if err != nil {
		return Failf("reading params: %v", err)
	}
	if first != second {
		return Failf("params rendering unstable across calls: %q then %q", first, second)
	}
	var clone estimator.Estimator
	if err := guard("clone", func() error { clone = e.Clone(); return nil }); err != nil {
		return Failf("clone: %v", err)
	}
	var got string
	if err := guard("params", func() error { got = clone.Params().String(); return nil }); err != nil {
		return Failf("reading clone params: %v", err)
	}
	if got != first {
		return Failf("clone renders params differently: %q vs %q", got, first)
	}
	return Pass()
}

func checkCloneParamsEqual(ctx context.Context, e estimator.Estimator, _ *fixture.Fixture) Verdict {
	var clone estimator.Estimator
	if err := guard("clone", func() error { clone = e.Clone(); return nil }); err != nil {
		return Failf("clone: %v", err)
	}
	if clone == nil {
		return Failf("Clone returned nil")
	}
	if clone.Name() != e.Name() {
		return Failf("clone reports name %q, original %q", clone.Name(), e.Name())
	}
	var origParams, cloneParams estimator.Params
	err := guard("params", func() error {
		origParams = e.Params()
		cloneParams = clone.Params()
		return nil
	})
	if err != nil {
		return Failf("reading params: %v", err)
	}
	if !cloneParams.Equal(origParams) {
		return Failf("clone params differ: original %q, clone %q", origParams, cloneParams)
	}
	if clone.IsFitted() {
		return Failf("clone of an unfitted estimator reports fitted state")
	}
	return Pass()
}
