package compliance

import "time"

// Weights holds the confidence penalty magnitudes. The reference values are
// operational constants, not calibrated law; deployments tune them through
// configuration.
type Weights struct {
	// StaleAge is the cache age beyond which the staleness penalty applies.
	StaleAge time.Duration
	// StalePenalty is deducted when the rule data is older than StaleAge.
	StalePenalty int
	// AmbiguityPenalty is deducted when the evaluated district's ordinance
	// text contains hedging language.
	AmbiguityPenalty int
	// MissingFieldPenalty is deducted per skipped dimensional check.
	MissingFieldPenalty int
	// EdgeCasePenalty is deducted when the property carries an overlay
	// district, grandfathered status, or similar flag.
	EdgeCasePenalty int
}

// DefaultWeights matches the reference deployment.
func DefaultWeights() Weights {
	return Weights{
		StaleAge:            3 * 24 * time.Hour,
		StalePenalty:        10,
		AmbiguityPenalty:    15,
		MissingFieldPenalty: 5,
		EdgeCasePenalty:     20,
	}
}

// ScoreConfidence computes the additive-penalty confidence score, starting
// at 100 and clamped to [0,100]. This is pure domain logic - no I/O, no side
// effects - so the numeric contract is independently testable.
func ScoreConfidence(w Weights, cacheAge time.Duration, ambiguityCount, missingFields int, edgeCase bool) int {
	score := 100

	if cacheAge > w.StaleAge {
		score -= w.StalePenalty
	}
	if ambiguityCount > 0 {
		score -= w.AmbiguityPenalty
	}
	// Uncapped per field; the clamp below is the only floor.
	score -= missingFields * w.MissingFieldPenalty
	if edgeCase {
		score -= w.EdgeCasePenalty
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
