package detect

import (
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// oppMobilityDropRatio is the opponent-mobility-drop bar a sacrifice must
// clear to count as initiative-generating, reusing the TensionMobilityNear
// threshold the neutral tension detector uses for borderline mobility
// evidence.
func oppMobilityDropRatio(cfg *config.ThresholdTable) float64 {
	return cfg.TensionMobilityNear
}

// sacrificeEvidence is the shared material/compensation picture every
// sacrifice subtype reasons about.
type sacrificeEvidence struct {
	materialLoss     int
	evalLossCP       int
	tacticsGain      float64
	structureLoss    float64
	kingSafetyLoss   float64
	oppMobilityDrop  float64
	mobilityGain     float64
}

func computeSacrificeEvidence(ctx Context) sacrificeEvidence {
	b := ctx.Bundle
	return sacrificeEvidence{
		materialLoss:    -b.Material.DeltaSelf,
		evalLossCP:      -b.DeltaEvalCP,
		tacticsGain:     b.ComponentDeltas["tactics"],
		structureLoss:   -b.ComponentDeltas["structure"],
		kingSafetyLoss:  -b.ComponentDeltas["king_safety"],
		oppMobilityDrop: -b.OppChangePlayedVsBefore["mobility"],
		mobilityGain:    b.ComponentDeltas["mobility"],
	}
}

// Sacrifice classifies a net-material-losing move into one of the nine
// sacrifice subtypes, or returns nil when the move isn't a material
// sacrifice at all (materialLoss <= 0).
func Sacrifice(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	ev := computeSacrificeEvidence(ctx)
	if ev.materialLoss <= 0 {
		return nil
	}

	engineEndorsed := ctx.Bundle.PlayedMove == ctx.Bundle.BestMove
	compensated := ev.evalLossCP <= cfg.TacticalMissLossCP

	name, score := classifySacrifice(ctx, cfg, ev, engineEndorsed, compensated)
	if name == "" {
		return nil
	}

	return &schema.DetectorResult{
		Name:  name,
		Score: score,
		Why:   "net material given up",
		Metrics: map[string]float64{
			"material_loss":      float64(ev.materialLoss),
			"eval_loss_cp":       float64(ev.evalLossCP),
			"tactics_gain":       ev.tacticsGain,
			"opp_mobility_drop":  ev.oppMobilityDrop,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

func classifySacrifice(ctx Context, cfg *config.ThresholdTable, ev sacrificeEvidence, engineEndorsed, compensated bool) (string, float64) {
	switch {
	case engineEndorsed && ev.tacticsGain >= cfg.TacticalDeltaTactics && ev.oppMobilityDrop >= cfg.TensionMobilityMin:
		return "tactical_combination_sacrifice", clamp01(ev.tacticsGain)

	case engineEndorsed && ev.oppMobilityDrop >= oppMobilityDropRatio(cfg) && ev.evalLossCP <= cfg.InitiativeBoostCP:
		return "tactical_initiative_sacrifice", clamp01(float64(cfg.InitiativeBoostCP-ev.evalLossCP) / float64(cfg.InitiativeBoostCP+1))

	case engineEndorsed && compensated:
		return "tactical_sacrifice", clamp01(1 - float64(ev.evalLossCP)/float64(cfg.TacticalMissLossCP+1))

	case !engineEndorsed && ev.evalLossCP > cfg.TacticalMissLossCP && ev.evalLossCP <= cfg.TacticalMissLossCP*2:
		return "inaccurate_tactical_sacrifice", clamp01(float64(ev.evalLossCP) / float64(cfg.TacticalMissLossCP*2))

	case !engineEndorsed && ev.evalLossCP > cfg.TacticalMissLossCP*2:
		return "desperate_sacrifice", 1.0

	case ev.structureLoss >= cfg.StructureWeakenLimit*-1 && ev.mobilityGain < cfg.MobilityTolerance && compensated:
		return "positional_structure_sacrifice", clamp01(ev.structureLoss)

	case ev.mobilityGain >= cfg.MobilitySelfLimit && compensated:
		return "positional_space_sacrifice", clamp01(ev.mobilityGain)

	case compensated && ev.kingSafetyLoss <= cfg.KingSafetyTolerance:
		return "positional_sacrifice", clamp01(1 - float64(ev.evalLossCP)/float64(cfg.TacticalMissLossCP+1))

	case !compensated:
		return "speculative_sacrifice", clamp01(float64(ev.evalLossCP) / float64(cfg.TacticalMissLossCP*3+1))
	}

	return "", 0
}
