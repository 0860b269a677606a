package metrics

import "github.com/kestrelchess/styletagger/internal/board"

var centerSquares = []string{"d4", "e4", "d5", "e5"}

var extendedCenterSquares = []string{
	"c3", "d3", "e3", "f3",
	"c4", "d4", "e4", "f4",
	"c5", "d5", "e5", "f5",
	"c6", "d6", "e6", "f6",
}

// evaluateCenterControl ports chess_evaluator/center_control.py: center_4
// counts attacked-or-occupied center squares (each condition independently
// addable), extended counts attacked extended-center squares.
// score = 0.3*center_4 + 0.05*extended.
func evaluateCenterControl(pos *board.Position) [2]float64 {
	var out [2]float64
	for _, c := range [2]board.Color{board.White, board.Black} {
		center4, extended := 0, 0
		for _, name := range centerSquares {
			s := sq(name)
			if pos.IsSquareAttacked(s, c) {
				center4++
			}
			p := pos.PieceAt(s)
			if p != board.NoPiece && p.Color() == c {
				center4++
			}
		}
		for _, name := range extendedCenterSquares {
			if pos.IsSquareAttacked(sq(name), c) {
				extended++
			}
		}
		out[c] = float64(center4)*0.3 + float64(extended)*0.05
	}
	return out
}
