package estimator

import "sort"

// Tag is a capability an estimator exposes. An estimator may hold several
// tags at once (e.g. a transformer that also classifies).
type Tag string

const (
	// TagClassifier marks estimators that predict discrete labels.
	TagClassifier Tag = "classifier"

	// TagRegressor marks estimators that predict continuous values.
	TagRegressor Tag = "regressor"

	// TagTransformer marks estimators that map matrices to matrices.
	TagTransformer Tag = "transformer"

	// TagClusterer marks estimators that partition rows into clusters.
	TagClusterer Tag = "clusterer"

	// TagOutlierDetector marks estimators that score rows for anomaly.
	TagOutlierDetector Tag = "outlier_detector"

	// TagOther marks estimators with no recognizable role. They still run
	// the universal checks (params round-trip, cloning) but nothing else.
	TagOther Tag = "other"
)

// Trait is a declared boolean property of an estimator. Traits gate check
// applicability: a check requiring an undeclared trait yields Skip, never
// Fail. Traits are never probed - declaration is the single source of truth.
type Trait string

const (
	// TraitSupportsSparse declares that fit and the role operations accept
	// sparse input and produce output equivalent to the dense encoding.
	TraitSupportsSparse Trait = "supports_sparse"

	// TraitDeterministic declares that fitting twice on identical data
	// yields identical fitted behavior.
	TraitDeterministic Trait = "deterministic"

	// TraitProbabilistic declares that a classifier exposes PredictProba.
	TraitProbabilistic Trait = "probabilistic"

	// TraitRequiresPositive declares that the estimator only accepts
	// non-negative feature values and rejects negative input.
	TraitRequiresPositive Trait = "requires_positive"

	// TraitAllowNaN declares that NaN feature values are legal input.
	TraitAllowNaN Trait = "allow_nan"

	// TraitAllowInf declares that infinite feature values are legal input.
	TraitAllowInf Trait = "allow_inf"

	// TraitStateless declares that fit stores no data-dependent state.
	TraitStateless Trait = "stateless"

	// TraitSampleWeights declares support for per-sample weights via
	// the WeightedFitter interface.
	TraitSampleWeights Trait = "sample_weights"
)

// TagSet is a set of capability tags.
type TagSet map[Tag]bool

// NewTagSet builds a set from the given tags.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = true
	}
	return s
}

// Has reports membership.
func (s TagSet) Has(t Tag) bool { return s[t] }

// HasAny reports whether any of the given tags is present.
func (s TagSet) HasAny(tags ...Tag) bool {
	for _, t := range tags {
		if s[t] {
			return true
		}
	}
	return false
}

// List returns the tags in sorted order for deterministic output.
func (s TagSet) List() []Tag {
	out := make([]Tag, 0, len(s))
	for t, ok := range s {
		if ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a copy of the set.
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	for t, ok := range s {
		if ok {
			out[t] = true
		}
	}
	return out
}

// TraitSet is a set of declared trait flags.
type TraitSet map[Trait]bool

// NewTraitSet builds a set from the given traits.
func NewTraitSet(traits ...Trait) TraitSet {
	s := make(TraitSet, len(traits))
	for _, t := range traits {
		s[t] = true
	}
	return s
}

// Has reports membership.
func (s TraitSet) Has(t Trait) bool { return s[t] }

// List returns the traits in sorted order for deterministic output.
func (s TraitSet) List() []Trait {
	out := make([]Trait, 0, len(s))
	for t, ok := range s {
		if ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a copy of the set.
func (s TraitSet) Clone() TraitSet {
	out := make(TraitSet, len(s))
	for t, ok := range s {
		if ok {
			out[t] = true
		}
	}
	return out
}
