package gate

import (
	"sort"

	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/detect"
	"github.com/kestrelchess/styletagger/internal/style/mode"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// gatedOut pairs a tag name that was removed from the primary list with
// the reason it was removed, for telemetry.
type gatedOut struct {
	Name   string
	Reason string
}

// tacticalGate drops or flags tags whose material/eval story disagrees
// with what the tag name claims: a "positional"-flavored tag riding a
// large eval loss is dropped as a gating contradiction (spec §4.5 step 3).
func tacticalGate(results []schema.DetectorResult, ctx detect.Context, cfg *config.ThresholdTable) ([]schema.DetectorResult, []gatedOut) {
	var kept []schema.DetectorResult
	var gated []gatedOut

	positionalFamily := map[string]bool{
		"structural_integrity":  true,
		"neutral_maneuver":      true,
		"constructive_maneuver": true,
		"positional_sacrifice":  true,
		"regroup_consolidate":   true,
	}

	evalLossCP := -ctx.Bundle.DeltaEvalCP
	blockagePenalty := false
	for _, r := range results {
		if r.Name == "structural_blockage" {
			blockagePenalty = true
		}
	}

	for _, r := range results {
		if positionalFamily[r.Name] && evalLossCP > cfg.DeltaEvalPositionalCP {
			gated = append(gated, gatedOut{Name: r.Name, Reason: "gated: eval_loss_exceeds_positional_band"})
			continue
		}
		if blockagePenalty && r.Name == "constructive_maneuver" {
			gated = append(gated, gatedOut{Name: r.Name, Reason: "gated: blockage_penalty_active"})
			continue
		}
		kept = append(kept, r)
	}
	return kept, gated
}

// Assemble runs the full §4.5 pipeline for one move: the detector bank,
// the CoD selection, the tactical gate, static priority ordering, and
// final primary/secondary assembly.
func Assemble(ctx detect.Context, cfg *config.ThresholdTable, modeDecision mode.Decision) *schema.TagBundle {
	bankResults, errs := RunBank(ctx, cfg)
	cod := SelectCoD(ctx, cfg)

	all := append([]schema.DetectorResult{}, bankResults...)
	if cod.Winner != nil {
		all = append(all, *cod.Winner)
	}

	kept, gatedOut := tacticalGate(all, ctx, cfg)

	sort.SliceStable(kept, func(i, j int) bool {
		return tagPriority(kept[i].Name) < tagPriority(kept[j].Name)
	})

	primary := uniqueNonForced(names(kept))

	secondarySet := map[string]bool{}
	var secondary []string
	for _, n := range primary {
		if !secondarySet[n] {
			secondarySet[n] = true
			secondary = append(secondary, n)
		}
	}
	for _, g := range gatedOut {
		if !secondarySet[g.Name] {
			secondarySet[g.Name] = true
			secondary = append(secondary, g.Name)
		}
	}
	for _, s := range cod.Suppressed {
		if !secondarySet[s] {
			secondarySet[s] = true
			secondary = append(secondary, s)
		}
	}

	notes := map[string]string{}
	for _, g := range gatedOut {
		notes[g.Name] = g.Reason
	}
	for name, why := range errs {
		notes[name] = why
	}

	telemetry := map[string]any{
		"mode":         modeDecision.Tag,
		"mode_debug":   modeDecision.Debug,
		"control_tags": cod.ControlTags,
	}
	if cod.Winner != nil {
		telemetry["cod_winner"] = cod.Winner.Name
	}
	if len(cod.Suppressed) > 0 {
		telemetry["cod_suppressed"] = cod.Suppressed
	}

	return &schema.TagBundle{
		Primary:   primary,
		Secondary: secondary,
		Notes:     notes,
		Telemetry: telemetry,
		Debug:     map[string]any{"tactical_weight": ctx.Bundle.TacticalWeight},
	}
}

func tagPriority(name string) int {
	if p, ok := schema.TagPriority[name]; ok {
		return p
	}
	return schema.DefaultPriority
}

func names(results []schema.DetectorResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Name)
	}
	return out
}

func uniqueNonForced(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, n := range in {
		if n == schema.ForcedMove || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
