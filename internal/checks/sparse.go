package checks

import (
	"context"

	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
)

// sparseChecks exercise the supports_sparse trait. Estimators that do not
// declare it receive explicit Skip entries for these checks; support is
// never inferred from behavior.
func sparseChecks(tol Tolerance) []Check {
	sparse := fixture.Default()
	sparse.Kind = fixture.Sparse

	return []Check{
		{
			Name:           "sparse_fit_accepted",
			Doc:            "estimators declaring supports_sparse fit on CSR input",
			Cost:           CostBehavioral,
			Applies:        anyRole,
			RequiresTraits: []estimator.Trait{estimator.TraitSupportsSparse},
			Recipe:         sparse,
			Fn:             checkSparseFitAccepted,
		},
		{
			Name:           "sparse_dense_equivalence",
			Doc:            "outputs on sparse and dense encodings of the same data agree within tolerance",
			Cost:           CostBehavioral,
			Applies:        anyRole,
			RequiresTraits: []estimator.Trait{estimator.TraitSupportsSparse},
			Recipe:         sparse,
			Fn:             checkSparseDenseEquivalence(tol),
		},
	}
}

func checkSparseFitAccepted(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on sparse input failed despite declared supports_sparse: %v", err)
	}
	if !e.IsFitted() {
		return Failf("IsFitted reports false after fitting on sparse input")
	}
	return Pass()
}

func checkSparseDenseEquivalence(tol Tolerance) Func {
	return func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
		csr, ok := fx.X.(*fixture.CSR)
		if !ok {
			return Errorf("sparse fixture does not carry a CSR matrix")
		}
		dense := csr.ToDense()

		if err := guard("fit", func() error { return e.Fit(ctx, dense, fx.Y) }); err != nil {
			return Failf("fit on dense encoding failed: %v", err)
		}
		outDense, op, err := primaryOutput(e, dense)
		if err != nil {
			return Failf("%s on dense encoding: %v", op, err)
		}
		outSparse, _, err := primaryOutput(e, csr)
		if err != nil {
			return Failf("%s on sparse encoding failed despite declared supports_sparse: %v", op, err)
		}
		if err := vectorsClose(outDense, outSparse, tol); err != nil {
			return Failf("sparse vs dense encodings: %v", err)
		}
		return Pass()
	}
}
