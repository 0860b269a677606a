package features

import (
	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/metrics"
	"github.com/kestrelchess/styletagger/internal/style/styleengine"
)

// metricsDelta returns a-b for every key metrics.Keys names.
func metricsDelta(a, b map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(metrics.Keys))
	for _, k := range metrics.Keys {
		out[k] = round3(a[k] - b[k])
	}
	return out
}

// evaluationAndMetrics evaluates pos and returns (self, opp) maps from
// actor's perspective, regardless of whose turn it is to move in pos.
func evaluationAndMetrics(pos *board.Position, actor board.Color) (map[string]float64, map[string]float64) {
	self, opp := metrics.Evaluate(pos)
	if pos.SideToMove == actor {
		return self.Map(), opp.Map()
	}
	return opp.Map(), self.Map()
}

// materialBalance is the mover's material balance: positive favors
// White, so it is negated when the mover is Black.
func materialBalance(pos *board.Position, actor board.Color) int {
	balance := boardutil.MaterialBalance(pos)
	if actor == board.Black {
		return -balance
	}
	return balance
}

// defendedSquareCount counts squares attacked by actor's own pieces:
// the mover's "coverage".
func defendedSquareCount(pos *board.Position, actor board.Color) int {
	count := 0
	for s := board.Square(0); s < board.NoSquare; s++ {
		if pos.IsSquareAttacked(s, actor) {
			count++
		}
	}
	return count
}

// classifyMove reports dynamic iff m is a capture or delivers check in
// pos, positional otherwise.
func classifyMove(pos *board.Position, m board.Move) styleengine.MoveKind {
	if boardutil.IsCaptureOrCheck(pos, m) {
		return styleengine.Dynamic
	}
	return styleengine.Positional
}

func round3(v float64) float64 {
	const scale = 1000.0
	if v >= 0 {
		return float64(int(v*scale+0.5)) / scale
	}
	return float64(int(v*scale-0.5)) / scale
}
