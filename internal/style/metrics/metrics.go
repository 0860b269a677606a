// Package metrics computes the five style-component evaluators consumed
// by the feature extractor: king safety, mobility, center control, pawn
// structure, and tactical themes. Each evaluator is a deterministic
// function of one board; algorithms are ported from the reference
// ChessEvaluator, not re-derived.
package metrics

import "github.com/kestrelchess/styletagger/internal/board"

// Metrics is a style-component snapshot for one side of one board.
type Metrics struct {
	Mobility      float64
	CenterControl float64
	KingSafety    float64
	Structure     float64
	Tactics       float64
}

// Keys lists the five style-component names in a fixed order, mirroring
// STYLE_COMPONENT_KEYS.
var Keys = []string{"mobility", "center_control", "king_safety", "structure", "tactics"}

// Map converts the snapshot to the {component -> value} form spec.md uses.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"mobility":       m.Mobility,
		"center_control": m.CenterControl,
		"king_safety":    m.KingSafety,
		"structure":      m.Structure,
		"tactics":        m.Tactics,
	}
}

// Sub returns a-b component-wise.
func Sub(a, b Metrics) Metrics {
	return Metrics{
		Mobility:      a.Mobility - b.Mobility,
		CenterControl: a.CenterControl - b.CenterControl,
		KingSafety:    a.KingSafety - b.KingSafety,
		Structure:     a.Structure - b.Structure,
		Tactics:       a.Tactics - b.Tactics,
	}
}

// Evaluate computes Metrics for the mover (pos.SideToMove) and its
// opponent, matching ChessEvaluator.evaluate()'s components dict: four of
// the five components are white-minus-black and then read from the
// mover's perspective; tactics is already a single white-positive total
// and is read from the mover's perspective the same way (see
// SPEC_FULL.md §0 for the sign-convention note).
func Evaluate(pos *board.Position) (self, opp Metrics) {
	ks := evaluateKingSafety(pos)
	mob := evaluateMobility(pos)
	cc := evaluateCenterControl(pos)
	ps := evaluatePawnStructure(pos)
	tac := evaluateTactics(pos)

	// whiteMinusBlack matches ChessEvaluator.evaluate()'s components dict:
	// each of the four positional components is white's score minus
	// black's; tactics is already computed in the same white-positive
	// convention (a pin or hanging piece against black adds, against
	// white subtracts), so it needs no further combination.
	whiteMinusBlack := Metrics{
		Mobility:      mob[board.White].Score - mob[board.Black].Score,
		CenterControl: cc[board.White] - cc[board.Black],
		KingSafety:    ks[board.White] - ks[board.Black],
		Structure:     ps[board.White] - ps[board.Black],
		Tactics:       tac,
	}

	if pos.SideToMove == board.White {
		return whiteMinusBlack, negate(whiteMinusBlack)
	}
	return negate(whiteMinusBlack), whiteMinusBlack
}

func negate(m Metrics) Metrics {
	return Metrics{
		Mobility:      -m.Mobility,
		CenterControl: -m.CenterControl,
		KingSafety:    -m.KingSafety,
		Structure:     -m.Structure,
		Tactics:       -m.Tactics,
	}
}
