// Package gate implements the assembler spec §4.5 describes: it collects
// every detector's output, resolves which Control-over-Dynamics subtype
// (if any) wins the slot for this move, applies a tactical gating pass,
// orders the survivors by static priority, and assembles the final
// TagBundle.
package gate

import (
	"fmt"
	"sort"

	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/detect"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// Bank is the full set of non-CoD detectors run for every move; CoD is
// handled separately by SelectCoD because it needs cross-subtype
// comparison the single-detector signature can't express.
var Bank = []detect.Detector{
	detect.TensionCreation,
	detect.NeutralTensionCreation,
	detect.ProphylacticMove,
	detect.FailedProphylactic,
	detect.StructuralIntegrity,
	detect.StructuralCompromiseDynamic,
	detect.StructuralCompromiseStatic,
	detect.StructuralBlockage,
	detect.Maneuver,
	detect.Sacrifice,
	detect.OpeningCentralPawnMove,
	detect.OpeningRookPawnMove,
	detect.DeferredInitiative,
}

// RunBank invokes every non-CoD detector against ctx, recovering from any
// panic so one failing detector can't take down the whole pass: a
// recovered detector's tag becomes inactive, recorded in telemetry with
// why = "Error: <message>", per spec §4.4's failure semantics.
func RunBank(ctx detect.Context, cfg *config.ThresholdTable) ([]schema.DetectorResult, map[string]string) {
	var results []schema.DetectorResult
	errors := map[string]string{}

	for i, d := range Bank {
		res := runDetectorSafely(d, ctx, cfg)
		if res == nil {
			continue
		}
		if res.Name == "__error__" {
			errors[fmt.Sprintf("detector_%d", i)] = res.Why
			continue
		}
		results = append(results, *res)
	}
	return results, errors
}

func runDetectorSafely(d detect.Detector, ctx detect.Context, cfg *config.ThresholdTable) (result *schema.DetectorResult) {
	defer func() {
		if r := recover(); r != nil {
			result = &schema.DetectorResult{Name: "__error__", Why: fmt.Sprintf("Error: %v", r)}
		}
	}()
	return d(ctx, cfg)
}

// CoDSelection is the outcome of the Control-over-Dynamics slot contest
// for one move: at most one winner, plus every other candidate that was
// suppressed (by cooldown or by losing the contest).
type CoDSelection struct {
	Winner      *schema.DetectorResult
	Suppressed  []string
	ControlTags []schema.DetectorResult
}

type codEvalInfo struct {
	candidate   detect.CoDCandidate
	priorityIdx int
	phaseWeight float64
	isRare      bool
	composite   float64
}

// SelectCoD runs every CoD subtype's shared predicate, applies priority
// ordering (PriorityEnd in the endgame), drops the cooldown-held subtype,
// computes the composite score, applies the rare-type tie-break lift, and
// returns the single winner plus everyone it suppressed. It also returns
// the always-on control_* telemetry tags (never gated, never exclusive).
func SelectCoD(ctx detect.Context, cfg *config.ThresholdTable) CoDSelection {
	controlTags := make([]schema.DetectorResult, 0, len(config.CODSubtypes))
	for _, subtype := range config.CODSubtypes {
		if res := detect.Control(subtype)(ctx, cfg); res != nil {
			controlTags = append(controlTags, *res)
		}
	}

	if !cfg.Enabled || ctx.Bundle.TacticalWeight > cfg.TacticalWeightCeiling {
		return CoDSelection{ControlTags: controlTags}
	}

	candidates := detect.CoDCandidates(ctx, cfg)

	priority := cfg.Priority
	if phaseLabel(ctx) == "END" && len(cfg.PriorityEnd) > 0 {
		priority = cfg.PriorityEnd
	}
	priorityIdx := make(map[string]int, len(priority))
	for i, name := range priority {
		priorityIdx[name] = i
	}

	var suppressed []string
	if ctx.Cooldown != nil && ctx.Cooldown.Has() {
		diff := ctx.Ply - ctx.Cooldown.LastPly
		if diff <= cfg.CooldownPlies {
			kept := candidates[:0:0]
			for _, c := range candidates {
				if c.Name == ctx.Cooldown.LastKind {
					suppressed = append(suppressed, c.Name)
					continue
				}
				kept = append(kept, c)
			}
			candidates = kept
		}
	}

	if len(candidates) == 0 {
		return CoDSelection{Suppressed: suppressed, ControlTags: controlTags}
	}

	phaseWeights := cfg.PhaseWeights[phaseLabel(ctx)]
	infos := make([]codEvalInfo, len(candidates))
	for i, c := range candidates {
		rank, ok := priorityIdx[c.Name]
		if !ok {
			rank = len(priority)
		}
		pw := phaseWeights[c.Name]
		infos[i] = codEvalInfo{
			candidate:   c,
			priorityIdx: rank,
			phaseWeight: pw,
			isRare:      cfg.RareTypes[c.Name],
			composite:   float64(rank) - pw - gateScore(c),
		}
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].composite < infos[j].composite })

	winnerIdx := 0
	best := infos[0]
	if !best.isRare {
		rareIdx := -1
		var rareBest codEvalInfo
		for i, info := range infos {
			if !info.isRare {
				continue
			}
			if rareIdx == -1 || info.composite < rareBest.composite {
				rareIdx = i
				rareBest = info
			}
		}
		if rareIdx != -1 {
			gateGap := absF(gateScore(best.candidate) - gateScore(rareBest.candidate))
			if rareBest.phaseWeight > 0 && gateGap <= 1.0 && rareBest.composite <= best.composite+cfg.TieBreakDelta {
				winnerIdx = rareIdx
			}
		}
	}

	winner := infos[winnerIdx].candidate
	for i, info := range infos {
		if i != winnerIdx {
			suppressed = append(suppressed, info.candidate.Name)
		}
	}

	if ctx.Cooldown != nil {
		ctx.Cooldown.Record(winner.Name, ctx.Ply)
	}

	return CoDSelection{
		Winner: &schema.DetectorResult{
			Name:     "cod_" + winner.Name,
			Score:    winner.Score,
			Why:      winner.Why,
			Metrics:  winner.Metrics,
			Severity: schema.SeverityFromScore(winner.Score),
		},
		Suppressed:  suppressed,
		ControlTags: controlTags,
	}
}

// gateScore is a 0..1 composite of how solidly a CoD candidate cleared
// its own predicate, used as the tie-break signal the reference
// selection logic calls gate_score. Reusing Score itself keeps this
// consistent with how each predicate already encodes confidence.
func gateScore(c detect.CoDCandidate) float64 {
	return c.Score
}

func phaseLabel(ctx detect.Context) string {
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

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
