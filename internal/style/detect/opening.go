package detect

import (
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// OpeningCentralPawnMove fires when, within the opening window
// (ManeuverOpeningFullmoveCutoff full moves), the played move is a pawn
// push from one of the center files.
func OpeningCentralPawnMove(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	if ctx.Ply > cfg.ManeuverOpeningFullmoveCutoff*2 {
		return nil
	}
	move := ctx.Bundle.PlayedMove
	if !isPawnPush(ctx, move) {
		return nil
	}
	if len(move) < 1 {
		return nil
	}
	switch move[0] {
	case 'c', 'd', 'e', 'f':
	default:
		return nil
	}

	return &schema.DetectorResult{
		Name:     "opening_central_pawn_move",
		Score:    0.6,
		Why:      "central pawn push in the opening",
		Metrics:  map[string]float64{"ply": float64(ctx.Ply)},
		Severity: schema.SeverityWeak,
	}
}

// OpeningRookPawnMove fires when, within the opening window, the played
// move is a pawn push from the a- or h-file.
func OpeningRookPawnMove(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult {
	if ctx.Ply > cfg.ManeuverOpeningFullmoveCutoff*2 {
		return nil
	}
	move := ctx.Bundle.PlayedMove
	if !isPawnPush(ctx, move) {
		return nil
	}
	if len(move) < 1 {
		return nil
	}
	switch move[0] {
	case 'a', 'h':
	default:
		return nil
	}

	return &schema.DetectorResult{
		Name:     "opening_rook_pawn_move",
		Score:    0.4,
		Why:      "rook pawn push in the opening",
		Metrics:  map[string]float64{"ply": float64(ctx.Ply)},
		Severity: schema.SeverityWeak,
	}
}

// isPawnPush reports whether the played move looks like a pawn advance:
// not a capture, not a check, and its origin/destination share a file
// (the one shape a plain pawn push has that piece moves along a file
// rarely share with knights/bishops/queens over two squares).
func isPawnPush(ctx Context, moveUCI string) bool {
	if ctx.IsCapture || ctx.IsCheck {
		return false
	}
	if len(moveUCI) < 4 {
		return false
	}
	return moveUCI[0] == moveUCI[2]
}
