package features

// detectRiskAvoidance implements spec §4.2 step 10: true when king
// safety improves, the eval change is small in magnitude, the
// opponent's tactics shrink, and the contact ratio drops. No Python
// source survives for this predicate (see DESIGN.md); the condition is
// taken directly from the spec's prose.
func detectRiskAvoidance(kingSafetyDelta float64, absDeltaEvalCP float64, riskSmallLossCP int, oppTacticsDelta float64, contactDeltaPlayed float64) bool {
	return kingSafetyDelta > 0 &&
		absDeltaEvalCP <= float64(riskSmallLossCP) &&
		oppTacticsDelta < 0 &&
		contactDeltaPlayed < 0
}

// inferIntentHint labels the mover's apparent plan from the same
// before/played deltas risk_avoidance draws on, returning the label
// plus the signal vector the label was computed from.
func inferIntentHint(
	mobilityDelta, oppMobilityDelta, kingSafetyDelta, centerControlDelta,
	contactDeltaPlayed, deltaEvalFloat float64,
) (string, map[string]float64) {
	signals := map[string]float64{
		"mobility_delta":      round3(mobilityDelta),
		"opp_mobility_delta":  round3(oppMobilityDelta),
		"king_safety_delta":   round3(kingSafetyDelta),
		"center_control_delta": round3(centerControlDelta),
		"contact_delta_played": round3(contactDeltaPlayed),
		"delta_eval":          round3(deltaEvalFloat),
	}

	label := "neutral"
	switch {
	case contactDeltaPlayed > 0 && deltaEvalFloat > 0:
		label = "attack"
	case mobilityDelta > 0 && centerControlDelta > 0:
		label = "expand"
	case oppMobilityDelta < 0:
		label = "restrict"
	case kingSafetyDelta > 0 && contactDeltaPlayed < 0:
		label = "consolidate"
	}
	return label, signals
}
