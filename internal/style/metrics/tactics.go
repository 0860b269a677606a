package metrics

import "github.com/kestrelchess/styletagger/internal/board"

// rayDelta enumerates the eight ray directions as (fileStep, rankStep).
type rayDelta struct {
	df, dr int
}

var rayDirections = []rayDelta{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
}

// evaluateTactics ports chess_evaluator/tactics.py: scan eight ray
// directions from each king looking for a pin motif (own piece then an
// enemy slider consistent with the ray geometry), and scan all squares for
// hanging pieces (attacked by the opponent, not defended). score = +0.3
// per pin against black, -0.3 per pin against white; +0.2 per hanging
// black piece, -0.2 per hanging white piece. This is a single signed
// total, not a per-side pair.
func evaluateTactics(pos *board.Position) float64 {
	score := 0.0
	for _, c := range [2]board.Color{board.White, board.Black} {
		for range findPins(pos, c) {
			if c == board.Black {
				score += 0.3
			} else {
				score -= 0.3
			}
		}
	}
	for _, h := range findHangingPieces(pos) {
		if h.Color() == board.Black {
			score += 0.2
		} else {
			score -= 0.2
		}
	}
	return score
}

type pinMotif struct {
	pinnedSquare  board.Square
	pinningSquare board.Square
}

// findPins looks for pin motifs against color's own pieces: king, then
// along a ray the first piece belongs to color, then the next piece is an
// enemy slider whose type is consistent with the ray (straight for
// rook/queen, diagonal for bishop/queen).
func findPins(pos *board.Position, c board.Color) []pinMotif {
	king := pos.KingSquare[c]
	if king == board.NoSquare {
		return nil
	}
	var pins []pinMotif
	kf, kr := king.File(), king.Rank()
	for _, d := range rayDirections {
		first, firstOK := rayScan(pos, kf, kr, d)
		if !firstOK {
			continue
		}
		firstPiece := pos.PieceAt(first)
		if firstPiece == board.NoPiece || firstPiece.Color() != c || firstPiece.Type() == board.King {
			continue
		}
		second, secondOK := rayScan(pos, first.File(), first.Rank(), d)
		if !secondOK {
			continue
		}
		secondPiece := pos.PieceAt(second)
		if secondPiece == board.NoPiece || secondPiece.Color() == c {
			continue
		}
		isStraight := d.df == 0 || d.dr == 0
		isDiagonal := d.df != 0 && d.dr != 0
		pt := secondPiece.Type()
		if (isStraight && (pt == board.Rook || pt == board.Queen)) ||
			(isDiagonal && (pt == board.Bishop || pt == board.Queen)) {
			pins = append(pins, pinMotif{pinnedSquare: first, pinningSquare: second})
		}
	}
	return pins
}

// rayScan walks from (file,rank) along delta until it finds an occupied
// square (returning it) or runs off the board.
func rayScan(pos *board.Position, file, rank int, d rayDelta) (board.Square, bool) {
	f, r := file+d.df, rank+d.dr
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		s := board.NewSquare(f, r)
		if pos.PieceAt(s) != board.NoPiece {
			return s, true
		}
		f += d.df
		r += d.dr
	}
	return board.NoSquare, false
}

func findHangingPieces(pos *board.Position) []board.Piece {
	var hanging []board.Piece
	for s := board.Square(0); s < board.NoSquare; s++ {
		p := pos.PieceAt(s)
		if p == board.NoPiece || p.Type() == board.King {
			continue
		}
		if !pos.IsSquareAttacked(s, p.Color().Other()) {
			continue
		}
		if pos.IsSquareAttacked(s, p.Color()) {
			continue
		}
		hanging = append(hanging, p)
	}
	return hanging
}
