package detect

import (
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// maneuverEVGuard rejects quiet-looking moves that actually gamble
// material: a capture is allowed through only when ManeuverAllowLightCapture
// is set, and any move whose eval swing exceeds ManeuverEVFailCP while
// failing to protect at least ManeuverEVProtectCP of it is excluded from
// the maneuver family entirely (it belongs to the sacrifice family instead).
func maneuverEVGuard(ctx Context, cfg *config.ThresholdTable) bool {
	if ctx.IsCapture && !cfg.ManeuverAllowLightCapture {
		return false
	}
	b := ctx.Bundle
	loss := -b.DeltaEval
	if loss > cfg.ManeuverEVFailCP/100.0 {
		protected := b.ComponentDeltas["tactics"] + b.ComponentDeltas["structure"]
		if protected*100.0 < cfg.ManeuverEVProtectCP {
			return false
		}
	}
	return true
}

// Maneuver classifies a quiet, non-tactical repositioning move into one
// of constructive_maneuver, constructive_maneuver_prepare, neutral_maneuver,
// misplaced_maneuver, or maneuver_opening, guarded by maneuverEVGuard and
// ManeuverOpeningFullmoveCutoff.
func Maneuver(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	if ctx.IsCheck {
		return nil
	}
	if !maneuverEVGuard(ctx, cfg) {
		return nil
	}
	b := ctx.Bundle

	if ctx.Ply <= cfg.ManeuverOpeningFullmoveCutoff*2 {
		if name, ok := openingManeuverName(ctx); ok {
			return &schema.DetectorResult{
				Name:     name,
				Score:    0.5,
				Why:      "early-game repositioning move",
				Metrics:  map[string]float64{"ply": float64(ctx.Ply)},
				Severity: schema.SeverityWeak,
			}
		}
	}

	centerGain := b.ComponentDeltas["center_control"]
	structureGain := b.ComponentDeltas["structure"]
	mobilityGain := b.ComponentDeltas["mobility"]
	combined := centerGain + structureGain + mobilityGain

	evalTolerance := cfg.ManeuverEvalTolerance
	evalOK := absF(b.DeltaEval) <= evalTolerance*100.0

	var name string
	var score float64
	switch {
	case combined >= cfg.ManeuverConstructive:
		name = "constructive_maneuver"
		score = clamp01(combined)
		if centerGain >= cfg.ManeuverBonusCenterThreshold &&
			structureGain >= cfg.ManeuverBonusStructureThreshold &&
			mobilityGain >= cfg.ManeuverBonusMobilityThreshold {
			name = "constructive_maneuver_prepare"
		}
	case combined <= cfg.ManeuverMisplaced:
		name = "misplaced_maneuver"
		score = clamp01(-combined)
	case evalOK &&
		absF(centerGain) <= cfg.ManeuverLowImpactCenter &&
		absF(structureGain) <= cfg.ManeuverLowImpactStructure &&
		absF(mobilityGain) <= cfg.ManeuverLowImpactMobility:
		name = "neutral_maneuver"
		score = 0.3
	default:
		return nil
	}

	return &schema.DetectorResult{
		Name: name,
		Score: score,
		Why:  "quiet repositioning classified by combined positional delta",
		Metrics: map[string]float64{
			"center_gain":    centerGain,
			"structure_gain": structureGain,
			"mobility_gain":  mobilityGain,
			"combined":       combined,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

// openingManeuverName distinguishes a central-pawn opening move from a
// rook-pawn opening move by inspecting the UCI move string's origin file,
// falling back to "not an opening pawn move" when the played move isn't a
// pawn push at all (the generic maneuver_opening path handles that case).
func openingManeuverName(ctx Context) (string, bool) {
	move := ctx.Bundle.PlayedMove
	if len(move) < 2 {
		return "", false
	}
	if !isPawnPush(ctx, move) {
		return "maneuver_opening", true
	}
	file := move[0]
	switch file {
	case 'c', 'd', 'e', 'f':
		return "opening_central_pawn_move", true
	case 'a', 'h':
		return "opening_rook_pawn_move", true
	}
	return "maneuver_opening", true
}
