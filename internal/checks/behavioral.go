package checks

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/estcheck/internal/estimator"
	"github.com/roach88/estcheck/internal/fixture"
)

// behavioralChecks fit estimators and exercise role operations. They run
// after the structural checks for every estimator with a recognized role.
func behavioralChecks(tol Tolerance) []Check {
	labeled := fixture.Default()

	mismatched := fixture.Default()
	mismatched.Perturb = fixture.LengthMismatch

	withNaN := fixture.Default()
	withNaN.Perturb = fixture.WithNaN

	withInf := fixture.Default()
	withInf.Perturb = fixture.WithInf

	withNegative := fixture.Default()
	withNegative.Perturb = fixture.WithNegative

	constantCol := fixture.Default()
	constantCol.Perturb = fixture.ConstantColumn

	singleSample := fixture.Default()
	singleSample.Shape = fixture.SingleSample

	singleFeature := fixture.Default()
	singleFeature.Shape = fixture.SingleFeature

	framed := fixture.Default()
	framed.Kind = fixture.Frame

	integer := fixture.Default()
	integer.Dtype = fixture.Int

	weighted := fixture.Default()
	weighted.Weights = true

	return []Check{
		{
			Name:    "fit_then_output",
			Doc:     "a fitted estimator reports fitted state and produces one finite output per sample",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  labeled,
			Fn:      checkFitThenOutput(),
		},
		{
			Name:    "unfitted_call_rejected",
			Doc:     "role operations before fit return an error instead of panicking or succeeding",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  labeled,
			Fn:      checkUnfittedCallRejected,
		},
		{
			Name:    "clone_unfitted_after_fit",
			Doc:     "cloning a fitted estimator yields an unfitted copy with identical params",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  labeled,
			Fn:      checkCloneUnfittedAfterFit,
		},
		{
			Name:    "clone_independent",
			Doc:     "fitting a clone leaves the original untouched",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  labeled,
			Fn:      checkCloneIndependent,
		},
		{
			Name:    "fit_validates_length",
			Doc:     "fit rejects mismatched X/y lengths with a validation error",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  mismatched,
			Fn:      checkFitValidatesLength,
		},
		{
			Name:             "fit_rejects_nan",
			Doc:              "fit rejects NaN feature values with a validation error",
			Cost:             CostBehavioral,
			Applies:          anyRole,
			ExcludedByTraits: []estimator.Trait{estimator.TraitAllowNaN},
			Recipe:           withNaN,
			Fn:               checkFitRejects("NaN"),
		},
		{
			Name:             "fit_rejects_inf",
			Doc:              "fit rejects infinite feature values with a validation error",
			Cost:             CostBehavioral,
			Applies:          anyRole,
			ExcludedByTraits: []estimator.Trait{estimator.TraitAllowInf},
			Recipe:           withInf,
			Fn:               checkFitRejects("Inf"),
		},
		{
			Name:           "fit_determinism",
			Doc:            "two fits on identical data produce identical outputs within tolerance",
			Cost:           CostBehavioral,
			Applies:        anyRole,
			RequiresTraits: []estimator.Trait{estimator.TraitDeterministic},
			Recipe:         labeled,
			Fn:             checkFitDeterminism(tol),
		},
		{
			Name:    "dtype_invariance",
			Doc:     "predictions on float32 and float64 encodings of the same data agree within tolerance",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  labeled,
			Fn:      checkDtypeInvariance(tol.Widened()),
		},
		{
			Name:    "frame_input_accepted",
			Doc:     "a labeled-frame container behaves like its dense equivalent",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  framed,
			Fn:      checkFitThenOutput(),
		},
		{
			Name:    "integer_dtype_accepted",
			Doc:     "integer-coded feature values fit and produce finite outputs",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  integer,
			Fn:      checkFitThenOutput(),
		},
		{
			Name:    "feature_count_consistency",
			Doc:     "predicting with a different feature count than seen in fit fails descriptively",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  labeled,
			Fn:      checkFeatureCountConsistency,
		},
		{
			Name:    "fit_constant_column",
			Doc:     "a zero-variance column neither breaks fit nor poisons outputs",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  constantCol,
			Fn:      checkFitThenOutput(),
		},
		{
			Name:    "fit_single_sample",
			Doc:     "fitting on a single sample succeeds",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  singleSample,
			Fn:      checkFitSucceeds,
		},
		{
			Name:    "fit_single_feature",
			Doc:     "fitting on a single feature succeeds",
			Cost:    CostBehavioral,
			Applies: anyRole,
			Recipe:  singleFeature,
			Fn:      checkFitSucceeds,
		},
		{
			Name:           "positive_input_enforced",
			Doc:            "estimators declaring requires_positive reject negative feature values",
			Cost:           CostBehavioral,
			Applies:        anyRole,
			RequiresTraits: []estimator.Trait{estimator.TraitRequiresPositive},
			Recipe:         withNegative,
			Fn:             checkFitRejects("negative"),
		},
		{
			Name:           "sample_weight_accepted",
			Doc:            "estimators declaring sample_weights fit with a weight vector",
			Cost:           CostBehavioral,
			Applies:        anyRole,
			RequiresTraits: []estimator.Trait{estimator.TraitSampleWeights},
			Recipe:         weighted,
			Fn:             checkSampleWeightAccepted,
		},
		{
			Name:    "transform_preserves_rows",
			Doc:     "transform output has one row per input sample",
			Cost:    CostBehavioral,
			Applies: func(tags estimator.TagSet) bool { return tags.Has(estimator.TagTransformer) },
			Recipe:  labeled,
			Fn:      checkTransformPreservesRows,
		},
		{
			Name:           "proba_contract",
			Doc:            "class probabilities are in [0,1] and each row sums to one",
			Cost:           CostBehavioral,
			Applies:        func(tags estimator.TagSet) bool { return tags.Has(estimator.TagClassifier) },
			RequiresTraits: []estimator.Trait{estimator.TraitProbabilistic},
			Recipe:         labeled,
			Fn:             checkProbaContract(tol.Widened()),
		},
		{
			Name:    "cluster_labels_in_range",
			Doc:     "cluster labels fall in [0, NumClusters)",
			Cost:    CostBehavioral,
			Applies: func(tags estimator.TagSet) bool { return tags.Has(estimator.TagClusterer) },
			Recipe:  labeled,
			Fn:      checkClusterLabelsInRange,
		},
		{
			Name:    "outlier_scores_finite",
			Doc:     "outlier scores are finite with one score per sample",
			Cost:    CostBehavioral,
			Applies: func(tags estimator.TagSet) bool { return tags.Has(estimator.TagOutlierDetector) },
			Recipe:  labeled,
			Fn:      checkOutlierScoresFinite,
		},
	}
}

// checkFitThenOutput validates the basic fit/operate cycle. Reused by
// fit_constant_column, where the interesting part is the fixture.
func checkFitThenOutput() Func {
	return func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
		if err := fitGuarded(ctx, e, fx); err != nil {
			return Failf("fit on valid data failed: %v", err)
		}
		if !e.IsFitted() {
			return Failf("IsFitted reports false after a successful fit")
		}
		out, op, err := primaryOutput(e, fx.X)
		if err != nil {
			return Failf("%s after fit failed: %v", op, err)
		}
		// Transformers yield a flattened matrix, so the output length is a
		// whole number of values per sample rather than exactly one.
		if len(out) == 0 || len(out)%fx.Rows() != 0 {
			return Failf("%s returned %d values for %d samples", op, len(out), fx.Rows())
		}
		if i := allFinite(out); i >= 0 {
			return Failf("%s produced a non-finite value at index %d", op, i)
		}
		return Pass()
	}
}

func checkFitSucceeds(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	rows, cols := fx.X.Dims()
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on a valid %dx%d dataset failed: %v", rows, cols, err)
	}
	return Pass()
}

func checkUnfittedCallRejected(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	out, op, err := primaryOutput(e, fx.X)
	if err == nil {
		return Failf("%s before fit succeeded with %d values; expected an error", op, len(out))
	}
	if IsEstimatorPanic(err) {
		return Failf("%s before fit panicked instead of returning an error: %v", op, err)
	}
	return Pass()
}

func checkCloneUnfittedAfterFit(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on valid data failed: %v", err)
	}
	var clone estimator.Estimator
	if err := guard("clone", func() error { clone = e.Clone(); return nil }); err != nil {
		return Failf("clone of fitted estimator: %v", err)
	}
	if clone.IsFitted() {
		return Failf("clone of a fitted estimator reports fitted state; clones must be unfitted")
	}
	var origParams, cloneParams estimator.Params
	if err := guard("params", func() error {
		origParams = e.Params()
		cloneParams = clone.Params()
		return nil
	}); err != nil {
		return Failf("reading params: %v", err)
	}
	if !cloneParams.Equal(origParams) {
		return Failf("clone params differ from fitted original: %q vs %q", cloneParams, origParams)
	}
	return Pass()
}

func checkCloneIndependent(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	var clone estimator.Estimator
	if err := guard("clone", func() error { clone = e.Clone(); return nil }); err != nil {
		return Failf("clone: %v", err)
	}
	if err := fitGuarded(ctx, clone, fx); err != nil {
		return Failf("fit of clone failed: %v", err)
	}
	if e.IsFitted() {
		return Failf("fitting a clone marked the original as fitted; clones must not share state")
	}
	return Pass()
}

func checkFitValidatesLength(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	err := fitGuarded(ctx, e, fx)
	if err == nil {
		return Failf("fit accepted X with %d rows and y with %d values; expected a validation error identifying the length mismatch",
			fx.Rows(), len(fx.Y))
	}
	if IsEstimatorPanic(err) {
		return Failf("fit panicked on mismatched lengths instead of returning a validation error: %v", err)
	}
	if !estimator.IsValidationError(err) {
		return Failf("fit rejected mismatched lengths with %T instead of a validation error: %v", err, err)
	}
	return Pass()
}

// checkFitRejects expects fit to reject the fixture's defective values with
// a validation error. what names the defect for diagnostics.
func checkFitRejects(what string) Func {
	return func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
		err := fitGuarded(ctx, e, fx)
		if err == nil {
			return Failf("fit silently accepted %s feature values", what)
		}
		if IsEstimatorPanic(err) {
			return Failf("fit panicked on %s values instead of returning a validation error: %v", what, err)
		}
		if !estimator.IsValidationError(err) {
			return Failf("fit rejected %s values with %T instead of a validation error: %v", what, err, err)
		}
		return Pass()
	}
}

func checkFitDeterminism(tol Tolerance) Func {
	return func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
		first := e
		var second estimator.Estimator
		if err := guard("clone", func() error { second = e.Clone(); return nil }); err != nil {
			return Failf("clone: %v", err)
		}
		if err := fitGuarded(ctx, first, fx); err != nil {
			return Failf("first fit failed: %v", err)
		}
		if err := fitGuarded(ctx, second, fx); err != nil {
			return Failf("second fit failed: %v", err)
		}
		out1, op, err := primaryOutput(first, fx.X)
		if err != nil {
			return Failf("%s after first fit: %v", op, err)
		}
		out2, _, err := primaryOutput(second, fx.X)
		if err != nil {
			return Failf("%s after second fit: %v", op, err)
		}
		if err := vectorsClose(out1, out2, tol); err != nil {
			return Failf("estimator declares deterministic but repeated fits disagree: %v", err)
		}
		return Pass()
	}
}

func checkDtypeInvariance(tol Tolerance) Func {
	return func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
		if err := fitGuarded(ctx, e, fx); err != nil {
			return Failf("fit on valid data failed: %v", err)
		}
		out64, op, err := primaryOutput(e, fx.X)
		if err != nil {
			return Failf("%s on float64 input: %v", op, err)
		}
		out32, _, err := primaryOutput(e, fixture.AsFloat32(fx.X))
		if err != nil {
			return Failf("%s on float32-rounded input: %v", op, err)
		}
		if err := vectorsClose(out64, out32, tol); err != nil {
			return Failf("float32 vs float64 input: %v", err)
		}
		return Pass()
	}
}

func checkFeatureCountConsistency(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on valid data failed: %v", err)
	}
	rows, cols := fx.X.Dims()
	narrow := mat.NewDense(rows, cols-1, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols-1; j++ {
			narrow.Set(i, j, fx.X.At(i, j))
		}
	}
	out, op, err := primaryOutput(e, narrow)
	if err == nil {
		return Failf("%s accepted %d features after fitting on %d and returned %d values; expected a descriptive error",
			op, cols-1, cols, len(out))
	}
	if IsEstimatorPanic(err) {
		return Failf("%s panicked on a feature-count mismatch instead of returning a descriptive error: %v", op, err)
	}
	return Pass()
}

func checkSampleWeightAccepted(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	wf, ok := e.(estimator.WeightedFitter)
	if !ok {
		return Failf("estimator declares trait %s but does not implement FitWeighted", estimator.TraitSampleWeights)
	}
	err := guard("fit_weighted", func() error {
		return wf.FitWeighted(ctx, fx.X, fx.Y, fx.Weights)
	})
	if err != nil {
		return Failf("weighted fit on valid data failed: %v", err)
	}
	if !e.IsFitted() {
		return Failf("IsFitted reports false after a successful weighted fit")
	}
	return Pass()
}

func checkTransformPreservesRows(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	tr, ok := e.(estimator.Transformer)
	if !ok {
		return Failf("estimator is tagged transformer but does not implement Transform")
	}
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on valid data failed: %v", err)
	}
	var out mat.Matrix
	err := guard("transform", func() error {
		var terr error
		out, terr = tr.Transform(fx.X)
		return terr
	})
	if err != nil {
		return Failf("transform after fit failed: %v", err)
	}
	gotRows, _ := out.Dims()
	if gotRows != fx.Rows() {
		return Failf("transform returned %d rows for %d input samples", gotRows, fx.Rows())
	}
	if i := allFinite(flatten(out)); i >= 0 {
		return Failf("transform produced a non-finite value at flat index %d", i)
	}
	return Pass()
}

func checkProbaContract(tol Tolerance) Func {
	return func(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
		pp, ok := e.(estimator.ProbabilityPredictor)
		if !ok {
			return Failf("estimator declares trait %s but does not implement PredictProba", estimator.TraitProbabilistic)
		}
		if err := fitGuarded(ctx, e, fx); err != nil {
			return Failf("fit on valid data failed: %v", err)
		}
		var proba mat.Matrix
		err := guard("predict_proba", func() error {
			var perr error
			proba, perr = pp.PredictProba(fx.X)
			return perr
		})
		if err != nil {
			return Failf("predict_proba after fit failed: %v", err)
		}
		rows, cols := proba.Dims()
		if rows != fx.Rows() {
			return Failf("predict_proba returned %d rows for %d samples", rows, fx.Rows())
		}
		for i := 0; i < rows; i++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				p := proba.At(i, j)
				if math.IsNaN(p) || p < -tol.Abs || p > 1+tol.Abs {
					return Failf("probability out of [0,1] at (%d,%d): %g", i, j, p)
				}
				sum += p
			}
			if math.Abs(sum-1) > tol.Abs+tol.Rel {
				return Failf("probabilities in row %d sum to %g, want 1", i, sum)
			}
		}
		return Pass()
	}
}

func checkClusterLabelsInRange(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	cl, ok := e.(estimator.Clusterer)
	if !ok {
		return Failf("estimator is tagged clusterer but does not implement ClusterLabels")
	}
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on valid data failed: %v", err)
	}
	var labels []int
	err := guard("cluster_labels", func() error {
		var cerr error
		labels, cerr = cl.ClusterLabels(fx.X)
		return cerr
	})
	if err != nil {
		return Failf("cluster_labels after fit failed: %v", err)
	}
	if len(labels) != fx.Rows() {
		return Failf("cluster_labels returned %d labels for %d samples", len(labels), fx.Rows())
	}
	k := cl.NumClusters()
	for i, l := range labels {
		if l < 0 || l >= k {
			return Failf("label %d at index %d outside [0,%d)", l, i, k)
		}
	}
	return Pass()
}

func checkOutlierScoresFinite(ctx context.Context, e estimator.Estimator, fx *fixture.Fixture) Verdict {
	od, ok := e.(estimator.OutlierDetector)
	if !ok {
		return Failf("estimator is tagged outlier_detector but does not implement OutlierScores")
	}
	if err := fitGuarded(ctx, e, fx); err != nil {
		return Failf("fit on valid data failed: %v", err)
	}
	var scores []float64
	err := guard("outlier_scores", func() error {
		var serr error
		scores, serr = od.OutlierScores(fx.X)
		return serr
	})
	if err != nil {
		return Failf("outlier_scores after fit failed: %v", err)
	}
	if len(scores) != fx.Rows() {
		return Failf("outlier_scores returned %d scores for %d samples", len(scores), fx.Rows())
	}
	if i := allFinite(scores); i >= 0 {
		return Failf("outlier score at index %d is not finite", i)
	}
	return Pass()
}
