package detect

import (
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// StructuralIntegrity fires when the played move keeps the mover's pawn
// structure stable (structure delta between 0 and StructureThreshold)
// while mobility does not drop past MobilityTolerance, i.e. a quiet
// structurally-sound move.
func StructuralIntegrity(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	b := ctx.Bundle
	structureDelta := b.ComponentDeltas["structure"]
	if structureDelta < 0 {
		return nil
	}
	if structureDelta > cfg.StructureThreshold {
		return nil
	}
	if b.ComponentDeltas["mobility"] < -cfg.MobilityTolerance {
		return nil
	}

	score := clamp01(1 - structureDelta/cfg.StructureThreshold)
	return &schema.DetectorResult{
		Name:  "structural_integrity",
		Score: score,
		Why:   "pawn structure held without mobility cost",
		Metrics: map[string]float64{
			"structure_delta": structureDelta,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

// StructuralCompromiseDynamic fires when the move weakens the mover's
// structure but gains enough tactical/tempo compensation (tactics or
// mobility improve past tolerance) to call the weakening deliberate.
func StructuralCompromiseDynamic(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	b := ctx.Bundle
	structureDelta := b.ComponentDeltas["structure"]
	if structureDelta > cfg.StructureWeakenLimit {
		return nil
	}

	tacticsGain := b.ComponentDeltas["tactics"]
	mobilityGain := b.ComponentDeltas["mobility"]
	if tacticsGain < cfg.TacticalDeltaTactics && mobilityGain < cfg.MobilityTolerance {
		return nil
	}

	score := clamp01(absF(structureDelta) / cfg.StructureDominanceLimit)
	return &schema.DetectorResult{
		Name:  "structural_compromise_dynamic",
		Score: score,
		Why:   "structure weakened for tactical or mobility compensation",
		Metrics: map[string]float64{
			"structure_delta": structureDelta,
			"tactics_gain":     tacticsGain,
			"mobility_gain":    mobilityGain,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

// StructuralCompromiseStatic fires when the structure weakens past the
// same limit with no offsetting tactical or mobility gain: a structural
// concession with no visible point.
func StructuralCompromiseStatic(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	b := ctx.Bundle
	structureDelta := b.ComponentDeltas["structure"]
	if structureDelta > cfg.StructureWeakenLimit {
		return nil
	}

	tacticsGain := b.ComponentDeltas["tactics"]
	mobilityGain := b.ComponentDeltas["mobility"]
	if tacticsGain >= cfg.TacticalDeltaTactics || mobilityGain >= cfg.MobilityTolerance {
		return nil
	}

	score := clamp01(absF(structureDelta) / cfg.StructureDominanceLimit)
	return &schema.DetectorResult{
		Name:  "structural_compromise_static",
		Score: score,
		Why:   "structure weakened with no tactical or mobility offset",
		Metrics: map[string]float64{
			"structure_delta": structureDelta,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

// StructuralBlockage fires when the position's contact ratio sits at or
// below StaticBlockageThreshold (scaled by SoftBlockScale, less
// StaticBlockageHysteresis) and the structure delta is not negative,
// indicating the move locked the position into a closed, low-contact
// structure.
func StructuralBlockage(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	b := ctx.Bundle
	contactAfter := b.Contact.Played
	threshold := cfg.StaticBlockageThreshold * cfg.SoftBlockScale
	if contactAfter > threshold-cfg.StaticBlockageHysteresis {
		return nil
	}
	structureDelta := b.ComponentDeltas["structure"]
	if structureDelta < 0 {
		return nil
	}

	score := clamp01(1 - contactAfter/threshold)
	return &schema.DetectorResult{
		Name:  "structural_blockage",
		Score: score,
		Why:   "move locks the position into a closed structure",
		Metrics: map[string]float64{
			"contact_after":   contactAfter,
			"structure_delta": structureDelta,
		},
		Severity: schema.SeverityFromScore(score),
	}
}
