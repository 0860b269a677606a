package detect

import (
	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
	"github.com/kestrelchess/styletagger/internal/style/styleengine"
)

// codResult is what a Control-over-Dynamics subtype predicate reports:
// whether it fires, a 0..1 score, its reasoning, and any metrics worth
// surfacing on the DetectorResult.
type codResult struct {
	Fires   bool
	Score   float64
	Why     string
	Metrics map[string]float64
}

// codPredicate is the shared semantic test every CoD subtype implements
// once; control_* and cod_* are both thin wrappers around the same
// predicate, differing only in gating.
type codPredicate func(ctx Context, cfg *config.ThresholdTable) codResult

// controlVolatility mirrors _collect_control_metrics' volatility
// bookkeeping: volatility_before_cp is the depth-jump/deepening-gain
// telemetry already on the feature bundle, volatility_after_cp is the
// larger of the eval drop from best and |DeltaEvalCP| (both measure the
// played-vs-best gap), and tension_delta reuses the bundle's contact-ratio delta (this
// module only tracks one contact profile, where control_patterns.py
// sums self+opponent contact separately).
func controlVolatility(ctx Context) (volatilityDropCP, tensionDelta float64) {
	b := ctx.Bundle
	volatilityBeforeCP := absF(float64(b.AnalysisMeta.DepthJumpCP)) + absF(float64(b.AnalysisMeta.DeepeningGainCP))
	dropFromBest := absF(float64(b.EvalBestCP - b.EvalPlayedCP))
	rawSwing := absF(float64(b.DeltaEvalCP))
	volatilityAfterCP := maxF(dropFromBest, rawSwing)
	volatilityDropCP = maxF(0, volatilityBeforeCP-volatilityAfterCP)
	tensionDelta = b.Contact.DeltaPlayed
	return volatilityDropCP, tensionDelta
}

// controlTensionThreshold is a simplified control_tension_threshold: the
// Python original scales CONTROL_TENSION_DELTA by a per-phase weight and
// caps it in the endgame; this module doesn't carry that weight table,
// so it returns the plain tension-decrease floor for every phase.
func controlTensionThreshold(cfg *config.ThresholdTable) float64 {
	return cfg.TensionDecMin
}

func phaseBonus(cfg *config.ThresholdTable, label string) config.PhaseAdjust {
	switch label {
	case "OPEN":
		return cfg.PhaseAdjustOpen
	case "END":
		return cfg.PhaseAdjustEnd
	default:
		return cfg.PhaseAdjustMid
	}
}

// isSimplify: ported from control_patterns.py's is_simplify — a genuine
// exchange (captures this ply, or a recapture expected on a defended
// square) that drops volatility and the opponent's mobility while
// tension falls and the trade stays inside a material window.
// has_immediate_tactical_followup isn't tracked anywhere in this
// module, so the recapture-pair estimate always assumes no followup.
func isSimplify(ctx Context, cfg *config.ThresholdTable) codResult {
	if !ctx.AllowPositional {
		return codResult{}
	}
	b := ctx.Bundle
	cm := ctx.Control

	bonus := phaseBonus(cfg, phaseLabel(ctx))
	volThreshold := float64(cfg.VolatilityDropCP + bonus.VolBonus)
	tensionThreshold := cfg.TensionDecMin
	mobThreshold := float64(cfg.OppMobilityDrop)

	expectedRecapturePairs := 0
	if ctx.IsCapture && cm.SquareDefendedByOpp >= 1 {
		expectedRecapturePairs = 1
	}
	exchangePairs := cm.CapturesThisPly + expectedRecapturePairs
	if exchangePairs > 2 {
		exchangePairs = 2
	}
	transactionOK := exchangePairs >= 1 || cm.TotalActiveDrop >= 1
	if cfg.StrictMode {
		minExchange := cfg.SimplifyMinExchange
		if minExchange < 2 {
			minExchange = 2
		}
		if exchangePairs < minExchange {
			transactionOK = false
		}
	}

	volatilityDrop, tensionDelta := controlVolatility(ctx)
	oppMobilityDrop := cm.OppMobilityDrop
	envOK := volatilityDrop >= volThreshold && tensionDelta <= tensionThreshold && oppMobilityDrop >= mobThreshold*0.8

	windowCP := 30.0
	if expectedRecapturePairs == 1 {
		windowCP = maxF(30, float64(cm.CapturedValueCP)*1.1)
	}
	materialOK := absF(float64(b.Material.DeltaSelf)) <= windowCP

	if !(envOK && transactionOK && materialOK) {
		return codResult{}
	}

	score := volatilityDrop + maxF(oppMobilityDrop, 0)*10 + float64(exchangePairs)*40 - absF(tensionDelta)*2
	return codResult{
		Fires: true,
		Score: clamp01(score / 200.0),
		Why:   "trades down while volatility, tension, and the opponent's mobility all fall",
		Metrics: map[string]float64{
			"volatility_drop_cp":     volatilityDrop,
			"opp_mobility_drop":      oppMobilityDrop,
			"tension_delta":          tensionDelta,
			"exchange_pairs":         float64(exchangePairs),
			"material_delta_self_cp": float64(b.Material.DeltaSelf),
		},
	}
}

// isPlanKill: ported from control_patterns.py's is_plan_kill's
// "preventive squeeze" fallback branch. This module has no standalone
// plan-drop detector to feed the plan_gate branch, so plan_kill here
// always resolves through the preventive-squeeze path: a meaningful
// drop in the opponent's own tactical chances, outside of a contested
// minor-piece trade, backed by a real threat/mobility/volatility gain.
func isPlanKill(ctx Context, cfg *config.ThresholdTable) codResult {
	b := ctx.Bundle
	cm := ctx.Control

	preventiveScore := -b.OppComponentDeltas["tactics"]
	threatDelta := preventiveScore
	mobilityDrop := cm.OppMobilityDrop
	volatilityDrop, _ := controlVolatility(ctx)

	bonus := phaseBonus(cfg, phaseLabel(ctx))
	volThreshold := float64(cfg.VolatilityDropCP + bonus.VolBonus)

	trigger := cfg.ProphylaxisPreventiveTrigger
	threatDropThreshold := cfg.ProphylaxisThreatDrop
	contestedTrade := ctx.IsCapture && cm.SquareDefendedByOpp >= 1 && cm.CapturesThisPly <= 1 &&
		(cm.CapturedPieceType == board.Bishop || cm.CapturedPieceType == board.Knight)

	fallback := ctx.AllowPositional && preventiveScore >= trigger && !contestedTrade &&
		(threatDelta >= threatDropThreshold || mobilityDrop >= float64(cfg.OppMobilityDrop) || volatilityDrop >= volThreshold)

	if !fallback {
		return codResult{}
	}

	score := preventiveScore*120 + maxF(mobilityDrop, 0)*20
	return codResult{
		Fires: true,
		Score: clamp01(score / 40.0),
		Why:   "preventive squeeze kills the opponent's plan",
		Metrics: map[string]float64{
			"preventive_score":   preventiveScore,
			"threat_delta":       threatDelta,
			"opp_mobility_drop":  mobilityDrop,
			"volatility_drop_cp": volatilityDrop,
		},
	}
}

// isFreezeBind: ported from control_patterns.py's is_freeze_bind —
// falling tension (or falling contact), plus either a real pin increase
// or an opponent mobility drop, backed by a volatility drop.
func isFreezeBind(ctx Context, cfg *config.ThresholdTable) codResult {
	if !ctx.AllowPositional {
		return codResult{}
	}
	b := ctx.Bundle
	cm := ctx.Control
	volatilityDrop, tensionDelta := controlVolatility(ctx)
	contactRatioDrop := b.Contact.DeltaPlayed
	oppMobDrop := cm.OppMobilityDrop

	bonus := phaseBonus(cfg, phaseLabel(ctx))
	volThreshold := float64(cfg.VolatilityDropCP + bonus.VolBonus)
	mobThreshold := float64(cfg.OppMobilityDrop)

	tOK := tensionDelta <= 0 || contactRatioDrop <= -0.05
	pOK := cm.OpPinsIncrease >= 1 || oppMobDrop >= mobThreshold
	envOK := volatilityDrop >= volThreshold
	if !(tOK && pOK && envOK) {
		return codResult{}
	}

	score := maxF(-tensionDelta, 0)*40 + maxF(oppMobDrop, 0)*30 + float64(cm.OpPinsIncrease)*20
	return codResult{
		Fires: true,
		Score: clamp01(score / 100.0),
		Why:   "freezes the opponent's tension and mobility together",
		Metrics: map[string]float64{
			"tension_delta":      tensionDelta,
			"opp_mobility_drop":  oppMobDrop,
			"op_pins_increase":   float64(cm.OpPinsIncrease),
			"volatility_drop_cp": volatilityDrop,
		},
	}
}

// isBlockadePassed: ported from control_patterns.py's is_blockade_passed
// in shape (opp_passed_exists && blockade_established && push_ok), but
// this module tracks no passed-pawn/blockade state, so opp_passed_exists
// and blockade_established are approximated from the opponent's
// structure delta and move quietness respectively; blockade_file/SEE
// telemetry isn't available, so the SEE-based push_ok fallback never
// fires.
func isBlockadePassed(ctx Context, cfg *config.ThresholdTable) codResult {
	b := ctx.Bundle
	oppStructureDrop := -b.OppComponentDeltas["structure"]
	oppPassedExists := oppStructureDrop > 0
	blockadeEstablished := !ctx.IsCapture
	if !cfg.AllowSeeBlockade && ctx.IsCapture {
		blockadeEstablished = false
	}

	pushDrop := oppStructureDrop * 10
	pushOK := pushDrop >= float64(cfg.PassedPushMin)

	if !(oppPassedExists && blockadeEstablished && pushOK) {
		return codResult{}
	}

	score := pushDrop * 50
	return codResult{
		Fires:   true,
		Score:   clamp01(score / 100.0),
		Why:     "halts the opponent's passed-pawn progress",
		Metrics: map[string]float64{"opp_passed_push_drop": pushDrop},
	}
}

// isFileSeal: ported from control_patterns.py's is_file_seal. Open-file
// pressure isn't tracked for the opponent directly, so opp_line_pressure_drop
// is approximated by the mover's own coverage gain (a file seized by one
// side is denied to the other).
func isFileSeal(ctx Context, cfg *config.ThresholdTable) codResult {
	b := ctx.Bundle
	cm := ctx.Control
	pressureDrop := float64(b.Coverage.Delta)
	volatilityDrop, _ := controlVolatility(ctx)
	lineMin := float64(cfg.LineMin)

	passed := pressureDrop >= lineMin
	passed = passed && volatilityDrop >= float64(cfg.VolatilityDropCP)*0.5
	if !passed {
		return codResult{}
	}

	score := pressureDrop * 40
	return codResult{
		Fires: true,
		Score: clamp01(score / 80.0),
		Why:   "seizes an open line, denying the opponent space on it",
		Metrics: map[string]float64{
			"opp_line_pressure_drop": pressureDrop,
			"opp_mobility_drop":      cm.OppMobilityDrop,
			"volatility_drop_cp":     volatilityDrop,
		},
	}
}

// isKingSafetyShell: ported directly from control_patterns.py's
// is_king_safety_shell — a real king-safety gain past KSMin/100, paired
// with either the opponent's own tactics worsening or a genuine drop in
// their legal-move count.
func isKingSafetyShell(ctx Context, cfg *config.ThresholdTable) codResult {
	b := ctx.Bundle
	cm := ctx.Control
	ksGain := b.ComponentDeltas["king_safety"]
	oppTactics := b.OppComponentDeltas["tactics"]
	mobilityDrop := cm.OppMobilityDrop
	threshold := cfg.KSMin / 100.0

	if !(ksGain >= threshold && (oppTactics <= -0.1 || mobilityDrop >= float64(cfg.OppMobilityDrop))) {
		return codResult{}
	}

	score := ksGain*100 + absF(minF(oppTactics, 0))*40
	return codResult{
		Fires: true,
		Score: clamp01(score / 30.0),
		Why:   "shores up the mover's own king safety while the opponent's tactics fade",
		Metrics: map[string]float64{
			"king_safety_gain":        ksGain,
			"opp_tactics_change_eval": oppTactics,
			"opp_mobility_drop":       mobilityDrop,
		},
	}
}

// isSpaceClamp: ported from control_patterns.py's is_space_clamp. The
// tension-window check (Python compares an integer contact-count delta
// against {0,-1,-2}) is adapted to a small-magnitude band since this
// module's tension signal is a continuous contact ratio, not an integer
// count.
func isSpaceClamp(ctx Context, cfg *config.ThresholdTable) codResult {
	if !ctx.AllowPositional {
		return codResult{}
	}
	b := ctx.Bundle
	cm := ctx.Control
	ownSpaceGain := b.ComponentDeltas["mobility"]
	spaceControlGain := float64(b.Coverage.Delta)
	mobilityDrop := cm.OppMobilityDrop
	volatilityDrop, tensionDelta := controlVolatility(ctx)

	bonus := phaseBonus(cfg, phaseLabel(ctx))
	spaceThreshold := float64(cfg.SpaceMin) / 10.0
	mobThreshold := float64(cfg.OppMobilityDrop)
	volThreshold := float64(cfg.VolatilityDropCP + bonus.VolBonus)

	spaceOK := ownSpaceGain >= spaceThreshold || spaceControlGain >= 1
	tensionOK := tensionDelta <= 0 && tensionDelta >= -0.2
	mobOK := mobilityDrop >= mobThreshold
	envOK := volatilityDrop >= volThreshold

	if !(spaceOK && mobOK && tensionOK && envOK) {
		return codResult{}
	}

	score := ownSpaceGain*80 + maxF(spaceControlGain, 0)*10 + mobilityDrop*10
	return codResult{
		Fires: true,
		Score: clamp01(score / 150.0),
		Why:   "clamps space, gaining mobility while denying the opponent's",
		Metrics: map[string]float64{
			"space_gain":         ownSpaceGain,
			"space_control_gain": spaceControlGain,
			"opp_mobility_drop":  mobilityDrop,
			"tension_delta":      tensionDelta,
			"volatility_drop_cp": volatilityDrop,
		},
	}
}

// isRegroupConsolidate: ported directly from control_patterns.py's
// is_regroup_consolidate.
func isRegroupConsolidate(ctx Context, cfg *config.ThresholdTable) codResult {
	if !ctx.AllowPositional {
		return codResult{}
	}
	b := ctx.Bundle
	ksGain := b.ComponentDeltas["king_safety"]
	structureGain := b.ComponentDeltas["structure"]
	selfMobilityChange := b.ComponentDeltas["mobility"]
	volatilityDrop, _ := controlVolatility(ctx)

	if !(volatilityDrop >= float64(cfg.VolatilityDropCP)*0.6 &&
		selfMobilityChange <= 0.05 &&
		(ksGain >= 0.05 || structureGain >= 0.1)) {
		return codResult{}
	}

	score := volatilityDrop + ksGain*80 + structureGain*60
	return codResult{
		Fires: true,
		Score: clamp01(score / 150.0),
		Why:   "regroups to consolidate safety and structure without losing mobility",
		Metrics: map[string]float64{
			"king_safety_gain":     ksGain,
			"structure_gain":       structureGain,
			"self_mobility_change": selfMobilityChange,
			"volatility_drop_cp":   volatilityDrop,
		},
	}
}

// isSlowdown: ported directly from control_patterns.py's is_slowdown —
// a dynamic alternative existed, the mover chose the positional move
// instead, the eval didn't drop past the band, and volatility/tension/
// opponent mobility all moved the right way.
func isSlowdown(ctx Context, cfg *config.ThresholdTable) codResult {
	if !ctx.AllowPositional {
		return codResult{}
	}
	b := ctx.Bundle
	cm := ctx.Control
	hasDynamic := b.BestKind == styleengine.Dynamic
	playedPositional := b.PlayedKind == styleengine.Positional
	evalDropCP := -b.DeltaEvalCP
	volatilityDrop, tensionDelta := controlVolatility(ctx)
	oppMobilityDrop := cm.OppMobilityDrop

	bonus := phaseBonus(cfg, phaseLabel(ctx))
	volThreshold := float64(cfg.VolatilityDropCP + bonus.VolBonus)
	mobThreshold := float64(cfg.OppMobilityDrop + bonus.OpMobDrop)
	tensionThreshold := controlTensionThreshold(cfg)

	if !(hasDynamic && playedPositional &&
		float64(evalDropCP) <= float64(cfg.EvalDropCP) &&
		volatilityDrop >= volThreshold &&
		tensionDelta <= tensionThreshold &&
		oppMobilityDrop >= mobThreshold) {
		return codResult{}
	}

	score := volatilityDrop + oppMobilityDrop*5
	return codResult{
		Fires: true,
		Score: clamp01(score / 150.0),
		Why:   "dampens dynamics by choosing the quiet move over a live tactical one",
		Metrics: map[string]float64{
			"eval_drop_cp":       float64(evalDropCP),
			"volatility_drop_cp": volatilityDrop,
			"tension_delta":      tensionDelta,
			"opp_mobility_drop":  oppMobilityDrop,
		},
	}
}

var codPredicates = map[string]codPredicate{
	"simplify":            isSimplify,
	"plan_kill":           isPlanKill,
	"freeze_bind":         isFreezeBind,
	"blockade_passed":     isBlockadePassed,
	"file_seal":           isFileSeal,
	"king_safety_shell":   isKingSafetyShell,
	"space_clamp":         isSpaceClamp,
	"regroup_consolidate": isRegroupConsolidate,
	"slowdown":            isSlowdown,
}

// phaseWeightFor looks up the PhaseWeights bonus for subtype in the
// mover's current phase, 0 when absent.
func phaseWeightFor(cfg *config.ThresholdTable, phase string, subtype string) float64 {
	weights, ok := cfg.PhaseWeights[phase]
	if !ok {
		return 0
	}
	return weights[subtype]
}

func phaseLabel(ctx Context) string {
	switch ctx.Phase {
	case "opening":
		return "OPEN"
	case "middlegame":
		return "MID"
	case "endgame":
		return "END"
	default:
		return "MID"
	}
}

// Control builds the ungated control_<subtype> detector: always computed,
// non-exclusive, never gated by cooldown or tactical weight (StrictMode
// still tightens the simplify predicate it shares with cod_simplify).
// This is the telemetry-only half of the CoD family spec §4.4.6 names.
func Control(subtype string) Detector {
	pred := codPredicates[subtype]
	name := "control_" + subtype
	return func(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
		res := pred(ctx, cfg)
		if !res.Fires {
			return nil
		}
		res.Metrics["phase_weight"] = phaseWeightFor(cfg, phaseLabel(ctx), subtype)
		return &schema.DetectorResult{
			Name:     name,
			Score:    res.Score,
			Why:      res.Why,
			Metrics:  res.Metrics,
			Severity: schema.SeverityFromScore(res.Score),
		}
	}
}

// CoD builds the gated cod_<subtype> detector: requires Enabled, requires
// the move to sit in the positional/blended regime (tactical_weight at or
// below TacticalWeightCeiling), and is suppressed while the subtype is
// still within its own cooldown window (a rare subtype keeps suppressing
// for CooldownPlies * 2, per spec's RareTypes carve-out).
func CoD(subtype string) Detector {
	pred := codPredicates[subtype]
	name := "cod_" + subtype
	return func(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
		if !cfg.Enabled {
			return nil
		}
		if ctx.Bundle.TacticalWeight > cfg.TacticalWeightCeiling {
			return nil
		}
		if cooldownBlocks(ctx, cfg, subtype) {
			return nil
		}

		res := pred(ctx, cfg)
		if !res.Fires {
			return nil
		}

		res.Score = clamp01(res.Score + phaseWeightFor(cfg, phaseLabel(ctx), subtype)/10.0)
		res.Metrics["phase_weight"] = phaseWeightFor(cfg, phaseLabel(ctx), subtype)
		return &schema.DetectorResult{
			Name:     name,
			Score:    res.Score,
			Why:      res.Why,
			Metrics:  res.Metrics,
			Severity: schema.SeverityFromScore(res.Score),
		}
	}
}

// CoDCandidate is one CoD subtype's raw (ungated) predicate result,
// exported for the gate package's selection algorithm.
type CoDCandidate struct {
	Name    string
	Score   float64
	Why     string
	Metrics map[string]float64
}

// CoDCandidates evaluates every CoD subtype's shared predicate, ungated
// by cooldown or tactical weight, and returns every one that fires. The
// gate package applies priority ordering, cooldown suppression, and the
// rare-type override on top of this raw list.
func CoDCandidates(ctx Context, cfg *config.ThresholdTable) []CoDCandidate {
	out := make([]CoDCandidate, 0, len(config.CODSubtypes))
	for _, subtype := range config.CODSubtypes {
		pred, ok := codPredicates[subtype]
		if !ok {
			continue
		}
		res := pred(ctx, cfg)
		if !res.Fires {
			continue
		}
		out = append(out, CoDCandidate{Name: subtype, Score: res.Score, Why: res.Why, Metrics: res.Metrics})
	}
	return out
}

func cooldownBlocks(ctx Context, cfg *config.ThresholdTable, subtype string) bool {
	if ctx.Cooldown == nil || !ctx.Cooldown.Has() {
		return false
	}
	if ctx.Cooldown.LastKind != subtype {
		return false
	}
	window := cfg.CooldownPlies
	if cfg.RareTypes[subtype] {
		window *= 2
	}
	return ctx.Ply-ctx.Cooldown.LastPly <= window
}

// DeferredInitiative fires as the catch-all CoD companion tag: the mover
// had a tactical opportunity (BestKind is dynamic) but chose a quiet move
// instead, deferring the initiative rather than forfeiting it outright.
func DeferredInitiative(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	b := ctx.Bundle
	if ctx.IsCapture || ctx.IsCheck {
		return nil
	}
	if b.BestKind != styleengine.Dynamic {
		return nil
	}
	if b.PlayedMove == b.BestMove {
		return nil
	}
	if absF(float64(b.DeltaEvalCP)) > float64(cfg.EvalDropCP) {
		return nil
	}

	score := clamp01(1 - absF(float64(b.DeltaEvalCP))/float64(cfg.EvalDropCP+1))
	return &schema.DetectorResult{
		Name:  "deferred_initiative",
		Score: score,
		Why:   "postpones a live tactical chance without losing ground",
		Metrics: map[string]float64{
			"eval_loss_cp": float64(-b.DeltaEvalCP),
		},
		Severity: schema.SeverityFromScore(score),
	}
}
