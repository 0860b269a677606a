// Package boardutil holds small board-derived scalars shared by the
// engine client and the feature extractor: phase ratio, contact ratio,
// and move classification. None of it depends on engine output.
package boardutil

import "github.com/kestrelchess/styletagger/internal/board"

// startingNonPawnMaterial is both sides' non-pawn, non-king material at
// the start of a game: per side 2N+2B+2R+Q = 2*320+2*330+2*500+900.
const startingNonPawnMaterial = 2 * (2*320 + 2*330 + 2*500 + 900)

// PhaseRatio is a material-based scalar in [0,1]; 1 means opening, 0
// means endgame. Buckets: <=0.33 endgame, <=0.66 middlegame, else
// opening.
func PhaseRatio(pos *board.Position) float64 {
	total := 0
	for _, c := range [2]board.Color{board.White, board.Black} {
		for pt := board.Knight; pt < board.King; pt++ {
			total += pos.Pieces[c][pt].PopCount() * board.PieceValue[pt]
		}
	}
	ratio := float64(total) / float64(startingNonPawnMaterial)
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	return ratio
}

// Phase names the three buckets PhaseRatio falls into.
type Phase string

const (
	PhaseOpening    Phase = "opening"
	PhaseMiddlegame Phase = "middlegame"
	PhaseEndgame    Phase = "endgame"
)

// PhaseBucket classifies a phase ratio into its named bucket.
func PhaseBucket(ratio float64) Phase {
	switch {
	case ratio <= 0.33:
		return PhaseEndgame
	case ratio <= 0.66:
		return PhaseMiddlegame
	default:
		return PhaseOpening
	}
}

// ContactRatio is the fraction of legal moves in pos that are captures
// or give check.
func ContactRatio(pos *board.Position) float64 {
	moves := pos.GenerateLegalMoves()
	if moves.Len() == 0 {
		return 0
	}
	contact := 0
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if IsCaptureOrCheck(pos, m) {
			contact++
		}
	}
	return float64(contact) / float64(moves.Len())
}

// IsCaptureOrCheck reports whether playing m from pos is a capture or
// delivers check.
func IsCaptureOrCheck(pos *board.Position, m board.Move) bool {
	if m.IsCapture(pos) {
		return true
	}
	undo := pos.MakeMove(m)
	inCheck := pos.InCheck()
	pos.UnmakeMove(m, undo)
	return inCheck
}

// MaterialBalance returns the material balance (positive favors White)
// for pos, counting pawns and all pieces but not the king.
func MaterialBalance(pos *board.Position) int {
	return pos.Material()
}

// ControlMetrics are the board-level signals the Control-over-Dynamics
// predicates need beyond what the feature bundle already carries:
// opponent mobility/pin deltas and the exchange bookkeeping (captured
// piece, defenders of the landing square, active-piece counts) that let
// a predicate tell a genuine trade from a quiet positional move.
type ControlMetrics struct {
	OppMobilityDrop     float64
	OpPinsIncrease      int
	CapturedPieceType   board.PieceType // board.NoPieceType when not a capture
	CapturedValueCP     int
	CapturesThisPly     int
	SquareDefendedByOpp int
	OwnActiveDrop       int
	OppActiveDrop       int
	TotalActiveDrop     int
}

// legalMoveCountFor counts legal moves for color c in pos without
// mutating pos, by probing a throwaway copy with the side to move
// flipped.
func legalMoveCountFor(pos *board.Position, c board.Color) int {
	probe := pos.Copy()
	probe.SideToMove = c
	return probe.GenerateLegalMoves().Len()
}

// pinnedCountFor counts pieces pinned to color c's king in pos, probing
// a throwaway copy the same way legalMoveCountFor does.
func pinnedCountFor(pos *board.Position, c board.Color) int {
	probe := pos.Copy()
	probe.SideToMove = c
	return probe.ComputePinned().PopCount()
}

// activePieceCount counts color c's non-pawn, non-king pieces.
func activePieceCount(pos *board.Position, c board.Color) int {
	return pos.Pieces[c][board.Knight].PopCount() +
		pos.Pieces[c][board.Bishop].PopCount() +
		pos.Pieces[c][board.Rook].PopCount() +
		pos.Pieces[c][board.Queen].PopCount()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CollectControlMetrics computes the opponent-mobility, pin, and
// exchange signals control_patterns.py's _collect_control_metrics
// derives from two board snapshots, for the actor who just played
// playedMove from pos.
func CollectControlMetrics(pos *board.Position, playedMove board.Move, actor board.Color) ControlMetrics {
	opp := actor.Other()

	capturedType := board.NoPieceType
	capturedPiece := pos.PieceAt(playedMove.To())
	if capturedPiece != board.NoPiece {
		capturedType = capturedPiece.Type()
	} else if playedMove.IsEnPassant() {
		capturedType = board.Pawn
	}
	capturedValueCP := 0
	if capturedType != board.NoPieceType {
		capturedValueCP = board.PieceValue[capturedType]
	}
	capturesThisPly := 0
	if capturedType != board.NoPieceType {
		capturesThisPly = 1
	}

	played := pos.Copy()
	played.MakeMove(playedMove)

	squareDefendedByOpp := played.AttackersByColor(playedMove.To(), opp, played.AllOccupied).PopCount()

	oppMobilityDrop := float64(legalMoveCountFor(pos, opp) - legalMoveCountFor(played, opp))

	opPinsIncrease := pinnedCountFor(played, opp) - pinnedCountFor(pos, opp)
	if opPinsIncrease < 0 {
		opPinsIncrease = 0
	}

	ownActiveDrop := maxInt(0, activePieceCount(pos, actor)-activePieceCount(played, actor))
	oppActiveDrop := maxInt(0, activePieceCount(pos, opp)-activePieceCount(played, opp))

	return ControlMetrics{
		OppMobilityDrop:     oppMobilityDrop,
		OpPinsIncrease:      opPinsIncrease,
		CapturedPieceType:   capturedType,
		CapturedValueCP:     capturedValueCP,
		CapturesThisPly:     capturesThisPly,
		SquareDefendedByOpp: squareDefendedByOpp,
		OwnActiveDrop:       ownActiveDrop,
		OppActiveDrop:       oppActiveDrop,
		TotalActiveDrop:     ownActiveDrop + oppActiveDrop,
	}
}
