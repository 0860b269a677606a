package metrics

import "github.com/kestrelchess/styletagger/internal/board"

var mobilityBonusKnight = []int{-62, -53, -12, 0, 12, 29, 44, 53, 63}
var mobilityBonusBishop = []int{-49, -24, -10, 0, 14, 29, 42, 55, 63, 70, 77, 84, 91, 96}
var mobilityBonusRook = []int{-58, -27, -15, -5, 4, 13, 22, 31, 39, 46, 53, 60, 67, 73, 79}
var mobilityBonusQueen = []int{
	-39, -21, -7, 7, 21, 36, 50, 62, 74, 86, 98, 110, 122, 134, 146,
	158, 170, 182, 194, 206, 218, 230, 242, 254, 266, 278, 290, 302,
}

// SideMobility is the mobility evaluator's per-side result.
type SideMobility struct {
	TotalSquares  int
	KingSafeMoves int
	ScoreCP       int
	Score         float64
}

// evaluateMobility ports chess_evaluator/mobility.py. The mobility area is
// all squares minus own pieces, minus squares attacked by enemy pawns,
// minus the enemy king's 8-neighborhood plus the king square. Pinned
// pieces only count moves along the pin line. A per-piece-type lookup
// maps target count to a centipawn bonus; the sum divided by 100 is the
// score.
func evaluateMobility(pos *board.Position) [2]SideMobility {
	var out [2]SideMobility
	for _, c := range [2]board.Color{board.White, board.Black} {
		out[c] = mobilitySide(pos, c)
	}
	return out
}

func mobilitySide(pos *board.Position, c board.Color) SideMobility {
	area := mobilityArea(pos, c)
	scoreCP := 0
	total := 0

	addPiece := func(pt board.PieceType, table []int) {
		bb := pos.Pieces[c][pt]
		for bb != 0 {
			from := bb.PopLSB()
			targets := mobilityTargets(pos, from, c, pt, area)
			total += targets
			scoreCP += mobilityBonus(table, targets)
		}
	}
	addPiece(board.Queen, mobilityBonusQueen)
	addPiece(board.Rook, mobilityBonusRook)
	addPiece(board.Bishop, mobilityBonusBishop)
	addPiece(board.Knight, mobilityBonusKnight)

	kingSafe := 0
	ksq := pos.KingSquare[c]
	if ksq != board.NoSquare {
		dests := board.KingAttacks(ksq)
		for dests != 0 {
			dest := dests.PopLSB()
			p := pos.PieceAt(dest)
			if p != board.NoPiece && p.Color() == c {
				continue
			}
			if pos.IsSquareAttacked(dest, c.Other()) {
				continue
			}
			kingSafe++
		}
	}

	return SideMobility{
		TotalSquares:  total,
		KingSafeMoves: kingSafe,
		ScoreCP:       scoreCP,
		Score:         float64(scoreCP) / 100.0,
	}
}

func mobilityArea(pos *board.Position, c board.Color) board.Bitboard {
	area := ^board.Bitboard(0)
	area &^= pos.Occupied[c]

	enemy := c.Other()
	pawns := pos.Pieces[enemy][board.Pawn]
	for pawns != 0 {
		psq := pawns.PopLSB()
		area &^= board.PawnAttacks(psq, enemy)
	}

	enemyKing := pos.KingSquare[enemy]
	if enemyKing != board.NoSquare {
		zone := board.KingAttacks(enemyKing) | board.SquareBB(enemyKing)
		area &^= zone
	}
	return area
}

func mobilityTargets(pos *board.Position, from board.Square, c board.Color, pt board.PieceType, area board.Bitboard) int {
	var attacks board.Bitboard
	switch pt {
	case board.Knight:
		attacks = board.KnightAttacks(from)
	case board.Bishop:
		attacks = board.BishopAttacks(from, pos.AllOccupied)
	case board.Rook:
		attacks = board.RookAttacks(from, pos.AllOccupied)
	case board.Queen:
		attacks = board.QueenAttacks(from, pos.AllOccupied)
	}

	pinLine, pinned := pinLineFor(pos, c, from)

	count := 0
	for attacks != 0 {
		dest := attacks.PopLSB()
		p := pos.PieceAt(dest)
		if p != board.NoPiece && p.Color() == c {
			continue
		}
		if pinned && !pinLine.IsSet(dest) {
			continue
		}
		if !area.IsSet(dest) {
			continue
		}
		count++
	}
	return count
}

func mobilityBonus(table []int, count int) int {
	if len(table) == 0 {
		return 0
	}
	idx := count
	if idx > len(table)-1 {
		idx = len(table) - 1
	}
	return table[idx]
}

// pinLineFor reports whether `square` is pinned to its own king by an
// enemy slider, and if so the set of squares the pinned piece may still
// move to along the pin ray (the squares strictly between the king and
// the pinner, plus the pinner's square itself).
func pinLineFor(pos *board.Position, c board.Color, square board.Square) (board.Bitboard, bool) {
	king := pos.KingSquare[c]
	if king == board.NoSquare {
		return 0, false
	}
	enemy := c.Other()

	sliders := (board.RookAttacks(king, 0) & (pos.Pieces[enemy][board.Rook] | pos.Pieces[enemy][board.Queen])) |
		(board.BishopAttacks(king, 0) & (pos.Pieces[enemy][board.Bishop] | pos.Pieces[enemy][board.Queen]))

	for sliders != 0 {
		attacker := sliders.PopLSB()
		between := board.Between(attacker, king) & pos.AllOccupied
		if between.PopCount() == 1 && between.IsSet(square) {
			return board.Between(king, attacker) | board.SquareBB(attacker), true
		}
	}
	return 0, false
}
