package metrics

import "github.com/kestrelchess/styletagger/internal/board"

// evaluateKingSafety ports chess_evaluator/king_safety.py: for each color,
// pawn_shield count on the two ranks ahead of the king within one file,
// open/semi-open files among the king's own file and its neighbors,
// attacks on the king's 8-neighborhood (including the king square), and a
// castled flag. score = 0.3*shield - 0.4*open - 0.2*semi_open -
// 0.1*attacks + 0.5*castled; a missing king scores -10.
func evaluateKingSafety(pos *board.Position) [2]float64 {
	var out [2]float64
	for _, c := range [2]board.Color{board.White, board.Black} {
		out[c] = kingSafetySide(pos, c)
	}
	return out
}

func kingSafetySide(pos *board.Position, c board.Color) float64 {
	ksq := pos.KingSquare[c]
	if ksq == board.NoSquare {
		return -10
	}

	kingFile := ksq.File()
	castled := hasCastled(ksq, c)
	shield := countPawnShield(pos, ksq, c)

	openFiles, semiOpenFiles := 0, 0
	for _, off := range []int{-1, 0, 1} {
		f := kingFile + off
		if f < 0 || f > 7 {
			continue
		}
		switch fileStatus(pos, f, c) {
		case fileOpen:
			openFiles++
		case fileSemiOpen:
			semiOpenFiles++
		}
	}

	attacks := countKingZoneAttacks(pos, ksq, c)

	score := float64(shield)*0.3 - float64(openFiles)*0.4 - float64(semiOpenFiles)*0.2 - float64(attacks)*0.1
	if castled {
		score += 0.5
	}
	return score
}

func hasCastled(ksq board.Square, c board.Color) bool {
	if c == board.White {
		return ksq == sq("g1") || ksq == sq("c1")
	}
	return ksq == sq("g8") || ksq == sq("c8")
}

func countPawnShield(pos *board.Position, ksq board.Square, c board.Color) int {
	kingFile, kingRank := ksq.File(), ksq.Rank()
	direction := 1
	if c == board.Black {
		direction = -1
	}
	shield := 0
	for _, fo := range []int{-1, 0, 1} {
		for _, ro := range []int{direction, direction * 2} {
			f, r := kingFile+fo, kingRank+ro
			if f < 0 || f > 7 || r < 0 || r > 7 {
				continue
			}
			s := board.NewSquare(f, r)
			p := pos.PieceAt(s)
			if p != board.NoPiece && p.Color() == c && p.Type() == board.Pawn {
				shield++
			}
		}
	}
	return shield
}

type fileState int

const (
	fileClosed fileState = iota
	fileOpen
	fileSemiOpen
)

func fileStatus(pos *board.Position, file int, c board.Color) fileState {
	ownPawn, enemyPawn := false, false
	for rank := 0; rank < 8; rank++ {
		s := board.NewSquare(file, rank)
		p := pos.PieceAt(s)
		if p == board.NoPiece || p.Type() != board.Pawn {
			continue
		}
		if p.Color() == c {
			ownPawn = true
		} else {
			enemyPawn = true
		}
	}
	if !ownPawn && !enemyPawn {
		return fileOpen
	}
	if !ownPawn {
		return fileSemiOpen
	}
	return fileClosed
}

func countKingZoneAttacks(pos *board.Position, ksq board.Square, c board.Color) int {
	kingFile, kingRank := ksq.File(), ksq.Rank()
	attacks := 0
	for _, fo := range []int{-1, 0, 1} {
		for _, ro := range []int{-1, 0, 1} {
			f, r := kingFile+fo, kingRank+ro
			if f < 0 || f > 7 || r < 0 || r > 7 {
				continue
			}
			s := board.NewSquare(f, r)
			if pos.IsSquareAttacked(s, c.Other()) {
				attacks++
			}
		}
	}
	return attacks
}

func sq(name string) board.Square {
	s, err := board.ParseSquare(name)
	if err != nil {
		return board.NoSquare
	}
	return s
}
