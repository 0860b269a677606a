package detect

import (
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// TensionTriggerPriority orders the evidence a tension detector can
// cite, lower sorts first, ported verbatim from the reference
// pipeline's TENSION_TRIGGER_PRIORITY.
var TensionTriggerPriority = map[string]int{
	"contact_direct":     1,
	"contact_comp":       2,
	"symmetry_core":      3,
	"structural_support": 4,
	"delayed_trend":       5,
}

// tensionEvidence bundles the raw signals tension_creation reasons
// about, computed once and shared with the neutral variant.
type tensionEvidence struct {
	oppMobilityDrop float64 // positive = opponent mobility shrank
	contactJump     float64
	selfTrend       float64
	oppTrend        float64
	sustainMean     float64
	sustainVar      float64
	trigger         string
}

func computeTensionEvidence(ctx Context, cfg *config.ThresholdTable) tensionEvidence {
	b := ctx.Bundle
	oppMobilityDrop := -b.OppChangePlayedVsBefore["mobility"]
	contactJump := b.Contact.DeltaPlayed

	ev := tensionEvidence{
		oppMobilityDrop: oppMobilityDrop,
		contactJump:     contactJump,
		selfTrend:       b.Trends.SelfTrend,
		oppTrend:        b.Trends.OppTrend,
		sustainMean:     b.Trends.WindowMean,
		sustainVar:      b.Trends.WindowVar,
	}

	switch {
	case contactJump >= cfg.ContactRatioMin:
		ev.trigger = "contact_direct"
	case contactJump >= cfg.ContactRatioDelay:
		ev.trigger = "contact_comp"
	case oppMobilityDrop >= cfg.TensionMobilityMin:
		ev.trigger = "symmetry_core"
	case ev.sustainMean >= cfg.TensionSustainMin && ev.sustainVar <= cfg.TensionSustainVarCap:
		ev.trigger = "structural_support"
	default:
		ev.trigger = "delayed_trend"
	}
	return ev
}

// TensionCreation fires when evidence for rising tension clears the
// configured thresholds: opponent mobility drops past TensionMobilityMin,
// or the contact ratio jumps past ContactRatioMin, or the self trend falls
// to TensionTrendSelf while the opponent trend rises to TensionTrendOpp.
func TensionCreation(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	ev := computeTensionEvidence(ctx, cfg)

	strong := ev.oppMobilityDrop >= cfg.TensionMobilityMin ||
		ev.contactJump >= cfg.ContactRatioMin ||
		(ev.selfTrend <= cfg.TensionTrendSelf && ev.oppTrend >= cfg.TensionTrendOpp)

	if !strong {
		return nil
	}

	score := clamp01(ev.oppMobilityDrop/cfg.TensionMobilityMin*0.5 + ev.contactJump/cfg.ContactRatioMin*0.5)
	return &schema.DetectorResult{
		Name:  "tension_creation",
		Score: score,
		Why:   "tension evidence via " + ev.trigger,
		Metrics: map[string]float64{
			"opp_mobility_drop": ev.oppMobilityDrop,
			"contact_jump":       ev.contactJump,
			"self_trend":         ev.selfTrend,
			"opp_trend":          ev.oppTrend,
		},
		Severity: schema.SeverityFromScore(score),
	}
}

// NeutralTensionCreation fires when tension evidence is present but
// borderline: opponent mobility drop in [TensionMobilityNear,
// TensionMobilityMin) or contact jump in [ContactRatioDelay,
// ContactRatioMin), without clearing either hard threshold.
func NeutralTensionCreation(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	ev := computeTensionEvidence(ctx, cfg)

	strong := ev.oppMobilityDrop >= cfg.TensionMobilityMin || ev.contactJump >= cfg.ContactRatioMin
	if strong {
		return nil
	}

	mobilityBorderline := ev.oppMobilityDrop >= cfg.TensionMobilityNear &&
		ev.oppMobilityDrop < cfg.TensionMobilityMin
	contactBorderline := ev.contactJump >= cfg.ContactRatioDelay &&
		ev.contactJump < cfg.ContactRatioMin

	if !mobilityBorderline && !contactBorderline {
		return nil
	}

	score := clamp01(ev.oppMobilityDrop/cfg.TensionMobilityMin*0.4 + ev.contactJump/cfg.ContactRatioMin*0.4)
	return &schema.DetectorResult{
		Name:  "neutral_tension_creation",
		Score: score,
		Why:   "borderline tension evidence via " + ev.trigger,
		Metrics: map[string]float64{
			"opp_mobility_drop": ev.oppMobilityDrop,
			"contact_jump":       ev.contactJump,
		},
		Severity: schema.SeverityFromScore(score),
	}
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
