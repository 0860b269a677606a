// Package mode maps a FeatureBundle's tactical_weight to a tagging mode
// via either a hard threshold or a soft logistic gate.
package mode

import (
	"math"

	"github.com/kestrelchess/styletagger/internal/style/config"
)

// Tag is one of the three tagging modes the detector bank and gate
// consult to decide which tag families may fire.
type Tag string

const (
	Tactical   Tag = "tactical"
	Positional Tag = "positional"
	Blended    Tag = "blended"
)

// Decision is the mode selector's output: the chosen tag plus a debug
// map recording the threshold or midpoint actually used.
type Decision struct {
	Tag   Tag
	Debug map[string]float64
}

// Hard implements the hard-threshold strategy: tactical when weight is
// at or above TacticalEnter, positional at or below PositionalEnter,
// blended in between.
func Hard(weight float64, cfg *config.ThresholdTable) Decision {
	tag := Blended
	switch {
	case weight >= cfg.TacticalEnter:
		tag = Tactical
	case weight <= cfg.PositionalEnter:
		tag = Positional
	}
	return Decision{
		Tag: tag,
		Debug: map[string]float64{
			"weight":           weight,
			"tactical_enter":   cfg.TacticalEnter,
			"positional_enter": cfg.PositionalEnter,
		},
	}
}

// Soft implements the soft-gate strategy: a logistic curve over weight
// with a configurable midpoint and width, compared against the same
// tactical/positional boundaries as Hard once converted to a
// probability of "tactical-ness". When useState is false (no prior
// state to gate on), Soft falls through to Hard.
func Soft(weight float64, cfg *config.ThresholdTable, useState bool) Decision {
	if !useState {
		return Hard(weight, cfg)
	}

	width := cfg.SoftGateWidth
	if width == 0 {
		width = 1
	}
	p := 1.0 / (1.0 + math.Exp(-(weight-cfg.SoftGateMidpoint)/width))

	tag := Blended
	switch {
	case p >= cfg.TacticalEnter:
		tag = Tactical
	case p <= cfg.PositionalEnter:
		tag = Positional
	}
	return Decision{
		Tag: tag,
		Debug: map[string]float64{
			"weight":     weight,
			"midpoint":   cfg.SoftGateMidpoint,
			"width":      width,
			"gate_value": p,
		},
	}
}
