package detect

import (
	"math"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// FullMaterialCount is the number of pieces on the board when nothing has
// been captured yet; used to disqualify prophylaxis in the opening, where
// quiet moves are routine development rather than genuine prevention.
const FullMaterialCount = 32

// isProphylaxisCandidate mirrors rule_tagger's is_prophylaxis_candidate: a
// move is eligible for prophylaxis tagging only away from full material,
// never on a capture or check, and never a pawn push onto the d/e files
// (those are central breaks, not prevention).
func isProphylaxisCandidate(ctx Context) bool {
	if ctx.FullMaterial {
		return false
	}
	if ctx.IsCapture || ctx.IsCheck {
		return false
	}
	if ctx.MovedPieceType == board.Pawn && (ctx.ToFile == 3 || ctx.ToFile == 4) {
		return false
	}
	return true
}

// classifyProphylaxisQuality maps (preventive_score, effective_delta,
// tactical_weight, soft_weight) onto {strong, soft, meaningless}, ported
// from classify_prophylaxis_quality: a low preventive score only survives
// as "soft" when the position didn't worsen much and soft_weight clears a
// floor; a high preventive score still gets discounted when the move's own
// tactical weight is heavy, capped at cfg.ProphylaxisSafetyBonusCap.
func classifyProphylaxisQuality(preventiveScore, effectiveDelta, tacticalWeight, softWeight float64, cfg *config.ThresholdTable) (string, float64) {
	trigger := cfg.ProphylaxisPreventiveTrigger
	safetyCap := cfg.ProphylaxisSafetyBonusCap

	if preventiveScore < trigger {
		if effectiveDelta <= -0.2 {
			return "prophylactic_meaningless", 0
		}
		if effectiveDelta > -0.2 && effectiveDelta < -0.1 && softWeight >= 0.4 {
			return "prophylactic_soft", round3(softWeight)
		}
		return "prophylactic_meaningless", 0
	}
	if effectiveDelta <= -0.25 {
		return "prophylactic_meaningless", 0
	}
	if tacticalWeight < 0.3 && effectiveDelta >= -0.1 {
		return "prophylactic_strong", 1.0
	}
	if tacticalWeight < 0.5 {
		base := 0.4
		if effectiveDelta >= -0.1 {
			base = 0.5
		}
		return "prophylactic_soft", round3(maxF(softWeight, base))
	}
	base := 0.2
	if effectiveDelta >= -0.05 {
		base = 0.35
	}
	soft := maxF(softWeight, base)
	return "prophylactic_soft", round3(minF(soft, safetyCap))
}

// ProphylacticMove fires when the played move reduces the opponent's
// tactical chances without itself being a capture, a check, an
// opening-phase move with full material on the board, or a central pawn
// push, and classifies the quality of the prevention as strong, soft, or
// meaningless (meaningless never fires a tag).
func ProphylacticMove(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	if !isProphylaxisCandidate(ctx) {
		return nil
	}
	b := ctx.Bundle

	selfTacticsGain := b.ComponentDeltas["tactics"]
	preventiveScore := -b.OppComponentDeltas["tactics"]
	if preventiveScore <= 0 {
		return nil
	}
	effectiveDelta := b.DeltaEval
	tacticalWeight := b.TacticalWeight
	softWeight := clamp01(preventiveScore / cfg.ProphylaxisThreatDrop)

	quality, qualityScore := classifyProphylaxisQuality(preventiveScore, effectiveDelta, tacticalWeight, softWeight, cfg)
	if quality == "prophylactic_meaningless" {
		return nil
	}

	name := "prophylactic_latent"
	if quality == "prophylactic_strong" {
		name = "prophylactic_direct"
	}

	return &schema.DetectorResult{
		Name:  name,
		Score: qualityScore,
		Why:   "reduces opponent tactical chances (" + quality + ")",
		Metrics: map[string]float64{
			"preventive_score":  preventiveScore,
			"effective_delta":   effectiveDelta,
			"tactical_weight":   tacticalWeight,
			"soft_weight":       softWeight,
			"self_tactics_gain": selfTacticsGain,
		},
		Severity: schema.SeverityFromScore(qualityScore),
	}
}

// FailedProphylactic fires when the move looks like a prevention attempt
// (quiet, non-capturing) but the opponent's tactical chances increase
// instead of decrease, i.e. the prevention backfired.
func FailedProphylactic(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	if ctx.IsCapture || ctx.IsCheck {
		return nil
	}
	b := ctx.Bundle

	oppTacticsGain := b.OppComponentDeltas["tactics"]
	if oppTacticsGain < cfg.ProphylaxisPreventiveTrigger {
		return nil
	}
	selfKingSafetyDrop := -b.ComponentDeltas["king_safety"]
	if selfKingSafetyDrop < cfg.ProphylaxisThreatDrop {
		return nil
	}

	score := clamp01(oppTacticsGain / cfg.ProphylaxisSafetyBonusCap)
	return &schema.DetectorResult{
		Name:  "failed_prophylactic",
		Score: score,
		Why:   "intended prevention left opponent tactics and own king safety worse",
		Metrics: map[string]float64{
			"opp_tactics_gain":      oppTacticsGain,
			"self_king_safety_drop": selfKingSafetyDrop,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

func maxF(a, b float64) float64 {
	return math.Max(a, b)
}

func minF(a, b float64) float64 {
	return math.Min(a, b)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
