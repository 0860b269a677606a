package metrics

import "github.com/kestrelchess/styletagger/internal/board"

var centerSquareSet = map[board.Square]bool{
	sq("d4"): true, sq("e4"): true, sq("d5"): true, sq("e5"): true,
}

// evaluatePawnStructure ports chess_evaluator/pawn_structure.py verbatim:
// isolated, doubled, backward, passed, chains, islands, hanging pairs on
// central file-pairs (files 2/3 or 3/4, 0-indexed, on ranks 3/4), and
// center pawns. score = -0.5*isolated -0.3*doubled -0.4*backward
// +0.8*passed +0.2*sum(chain_lengths) -0.3*islands -0.4*hanging
// +0.3*center_pawns.
func evaluatePawnStructure(pos *board.Position) [2]float64 {
	var out [2]float64
	for _, c := range [2]board.Color{board.White, board.Black} {
		out[c] = pawnStructureSide(pos, c)
	}
	return out
}

func pawnStructureSide(pos *board.Position, c board.Color) float64 {
	pawns := pos.Pieces[c][board.Pawn].Squares()

	isolated := findIsolatedPawns(pawns)
	doubled := findDoubledPawns(pawns)
	backward := findBackwardPawns(pos, pawns, c)
	passed := findPassedPawns(pos, pawns, c)
	chains := findPawnChains(pawns, c)
	islands := countPawnIslands(pawns)
	hanging := findHangingPawnPairs(pos, pawns, c)
	center := findCenterPawns(pawns)

	score := 0.0
	score -= float64(len(isolated)) * 0.5
	score -= float64(len(doubled)) * 0.3
	score -= float64(len(backward)) * 0.4
	score += float64(len(passed)) * 0.8
	for _, chain := range chains {
		score += float64(len(chain)) * 0.2
	}
	score -= float64(islands) * 0.3
	score -= float64(len(hanging)) * 0.4
	score += float64(len(center)) * 0.3
	return score
}

func findIsolatedPawns(pawns []board.Square) []board.Square {
	var isolated []board.Square
	for _, p := range pawns {
		file := p.File()
		hasAdjacent := false
		for _, adj := range []int{file - 1, file + 1} {
			if adj < 0 || adj > 7 {
				continue
			}
			for _, other := range pawns {
				if other.File() == adj {
					hasAdjacent = true
					break
				}
			}
			if hasAdjacent {
				break
			}
		}
		if !hasAdjacent {
			isolated = append(isolated, p)
		}
	}
	return isolated
}

func findDoubledPawns(pawns []board.Square) []board.Square {
	byFile := map[int][]board.Square{}
	for _, p := range pawns {
		byFile[p.File()] = append(byFile[p.File()], p)
	}
	var doubled []board.Square
	for _, entries := range byFile {
		if len(entries) > 1 {
			doubled = append(doubled, entries...)
		}
	}
	return doubled
}

func findBackwardPawns(pos *board.Position, pawns []board.Square, c board.Color) []board.Square {
	var backward []board.Square
	direction := 1
	if c == board.Black {
		direction = -1
	}
	for _, p := range pawns {
		file, rank := p.File(), p.Rank()
		nextRank := rank + direction
		if nextRank < 0 || nextRank > 7 {
			continue
		}
		forward := board.NewSquare(file, nextRank)
		if pos.PieceAt(forward) != board.NoPiece {
			continue
		}
		moreAdvanced := false
		for _, adj := range []int{file - 1, file + 1} {
			if adj < 0 || adj > 7 {
				continue
			}
			for _, other := range pawns {
				if other.File() != adj {
					continue
				}
				otherRank := other.Rank()
				if (c == board.White && otherRank > rank) || (c == board.Black && otherRank < rank) {
					moreAdvanced = true
					break
				}
			}
			if moreAdvanced {
				break
			}
		}
		if moreAdvanced && pos.IsSquareAttacked(forward, c.Other()) {
			backward = append(backward, p)
		}
	}
	return backward
}

func findPassedPawns(pos *board.Position, pawns []board.Square, c board.Color) []board.Square {
	var passed []board.Square
	enemyPawns := pos.Pieces[c.Other()][board.Pawn].Squares()
	for _, p := range pawns {
		file, rank := p.File(), p.Rank()
		isPassed := true
		for _, e := range enemyPawns {
			ef, er := e.File(), e.Rank()
			if abs(ef-file) <= 1 {
				if (c == board.White && er > rank) || (c == board.Black && er < rank) {
					isPassed = false
					break
				}
			}
		}
		if isPassed {
			passed = append(passed, p)
		}
	}
	return passed
}

func findPawnChains(pawns []board.Square, c board.Color) [][]board.Square {
	var chains [][]board.Square
	visited := map[board.Square]bool{}
	direction := 1
	if c == board.Black {
		direction = -1
	}
	for _, p := range pawns {
		if visited[p] {
			continue
		}
		chain := []board.Square{p}
		visited[p] = true
		file, rank := p.File(), p.Rank()
		for _, other := range pawns {
			if other == p || visited[other] {
				continue
			}
			of, or := other.File(), other.Rank()
			if abs(of-file) == 1 && or-rank == direction {
				chain = append(chain, other)
				visited[other] = true
			}
		}
		if len(chain) > 1 {
			chains = append(chains, chain)
		}
	}
	return chains
}

func countPawnIslands(pawns []board.Square) int {
	if len(pawns) == 0 {
		return 0
	}
	seen := map[int]bool{}
	var files []int
	for _, p := range pawns {
		f := p.File()
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	sortInts(files)
	islands := 1
	for i := 0; i < len(files)-1; i++ {
		if files[i+1]-files[i] > 1 {
			islands++
		}
	}
	return islands
}

// findHangingPawnPairs ports _find_hanging_pawns: only the central
// file-pairs (2,3) and (3,4), 0-indexed, on ranks 3/4 (0-indexed), are
// eligible; a pair is hanging when neither member is protected.
func findHangingPawnPairs(pos *board.Position, pawns []board.Square, c board.Color) []board.Square {
	var hanging []board.Square
	for _, filePair := range [][2]int{{2, 3}, {3, 4}} {
		var pair []board.Square
		for _, p := range pawns {
			f, r := p.File(), p.Rank()
			if (f == filePair[0] || f == filePair[1]) && (r == 3 || r == 4) {
				pair = append(pair, p)
			}
		}
		if len(pair) == 2 {
			supported := isPawnProtected(pos, pair[0], c) || isPawnProtected(pos, pair[1], c)
			if !supported {
				hanging = append(hanging, pair...)
			}
		}
	}
	return hanging
}

func findCenterPawns(pawns []board.Square) []board.Square {
	var center []board.Square
	for _, p := range pawns {
		if centerSquareSet[p] {
			center = append(center, p)
		}
	}
	return center
}

func isPawnProtected(pos *board.Position, square board.Square, c board.Color) bool {
	file, rank := square.File(), square.Rank()
	direction := -1
	if c == board.Black {
		direction = 1
	}
	for _, fo := range []int{-1, 1} {
		f, r := file+fo, rank+direction
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		p := pos.PieceAt(board.NewSquare(f, r))
		if p != board.NoPiece && p.Color() == c && p.Type() == board.Pawn {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
