package features

import "github.com/kestrelchess/styletagger/internal/style/config"

// computeTacticalWeight combines the cp-drop, tactics/structure deltas,
// the three depth/gap probes, contact ratio, and the forcing flags into
// a scalar in [0,1]. It is monotonic in forcing evidence, in cp drop,
// and in the three depth/gap signals, and saturates at 1 whenever a
// mate threat is present. No Python source survives for this function
// (see DESIGN.md); the shape below is derived directly from the
// component list spec.md names.
func computeTacticalWeight(
	cfg *config.ThresholdTable,
	deltaEvalCP int,
	deltaTacticsBestVsBefore float64,
	deltaStructureBestVsBefore float64,
	depthJumpCP int,
	deepeningGainCP int,
	scoreGapCP int,
	contactRatioBefore float64,
	phaseRatio float64,
	bestIsForcing bool,
	playedIsForcing bool,
	mateThreat bool,
) float64 {
	if mateThreat {
		return 1.0
	}

	wCP := clamp01(absF(float64(deltaEvalCP)) / float64(cfg.TacticalDominanceThresholdCP))
	wTactics := clamp01(absF(deltaTacticsBestVsBefore) / cfg.TacticalDeltaTactics)
	wStructure := clamp01(absF(deltaStructureBestVsBefore) / cfg.StructureThreshold)

	depthSum := absF(float64(depthJumpCP)) + absF(float64(deepeningGainCP)) + absF(float64(scoreGapCP))
	wDepth := clamp01(depthSum / (3 * float64(cfg.TacticalSlopeThresholdCP)))

	wContact := clamp01(contactRatioBefore)

	wForcing := 0.0
	if bestIsForcing {
		wForcing += 0.15
	}
	if playedIsForcing {
		wForcing += 0.15
	}

	base := 0.25*wCP + 0.2*wTactics + 0.15*wStructure + 0.2*wDepth + 0.1*wContact + wForcing
	// Deeper into the game (lower phase ratio), the combined weight is
	// scaled up by as much as 10%.
	base *= 1 + (1-clamp01(phaseRatio))*0.1

	return clamp01(base)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
