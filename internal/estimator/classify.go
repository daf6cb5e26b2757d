package estimator

// Classify determines an estimator's capability tags and trait flags.
//
// Declared metadata (the Tagged interface) always takes precedence. When an
// estimator declares nothing, capability tags fall back to structural
// probing: the presence of a role interface implies the capability, the same
// way a predict_proba method implies a probabilistic classifier. Trait flags
// are never probed - an undeclared trait is an absent trait, so that an
// estimator which correctly refuses unsupported input is skipped rather than
// failed.
//
// Classify is deterministic: the same estimator type and configuration
// always produce the same tag and trait sets.
func Classify(e Estimator) (TagSet, TraitSet) {
	if tagged, ok := e.(Tagged); ok {
		tags := tagged.Tags().Clone()
		traits := tagged.Traits().Clone()
		if len(tags) == 0 {
			tags = probeTags(e)
		}
		return tags, traits
	}
	return probeTags(e), NewTraitSet()
}

// probeTags derives capability tags from the role interfaces an estimator
// implements. A plain Predictor with no probability surface is treated as a
// regressor; classifiers are expected to either declare TagClassifier or
// expose PredictProba.
func probeTags(e Estimator) TagSet {
	tags := NewTagSet()
	if _, ok := e.(Transformer); ok {
		tags[TagTransformer] = true
	}
	if _, ok := e.(Clusterer); ok {
		tags[TagClusterer] = true
	}
	if _, ok := e.(OutlierDetector); ok {
		tags[TagOutlierDetector] = true
	}
	if _, ok := e.(ProbabilityPredictor); ok {
		tags[TagClassifier] = true
	} else if _, ok := e.(Predictor); ok && len(tags) == 0 {
		tags[TagRegressor] = true
	}
	if len(tags) == 0 {
		tags[TagOther] = true
	}
	return tags
}
