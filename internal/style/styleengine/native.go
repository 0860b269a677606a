package styleengine

import (
	"context"
	"fmt"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/engine"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/metrics"
)

// DeepeningDelta is the extra depth probed for deepening_gain_cp, when the
// caller does not override it.
const DeepeningDelta = 2

// NativeClient is an in-process Client backed by the bundled search
// engine and board package. It owns one *engine.Engine across its
// lifetime, matching the teacher's one-process-per-session pattern; the
// core never calls into it concurrently.
type NativeClient struct {
	eng  *engine.Engine
	name string
}

// NewNativeClient wraps an already-configured engine (book/tablebase/NNUE
// loaded by the caller) as a styleengine.Client.
func NewNativeClient(eng *engine.Engine, name string) *NativeClient {
	if name == "" {
		name = "native"
	}
	return &NativeClient{eng: eng, name: name}
}

func (c *NativeClient) Identifier() string { return c.name }

func (c *NativeClient) Analyze(ctx context.Context, fen string, depth, multiPV, depthLow int) (EngineCandidates, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: err}
	}

	results := c.eng.SearchMultiPV(pos, engine.SearchLimits{Depth: depth, MultiPV: multiPV})
	if len(results) == 0 {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: fmt.Errorf("no legal moves")}
	}

	moves := make([]EngineMove, 0, len(results))
	for _, r := range results {
		moves = append(moves, EngineMove{
			UCI:     r.Move.String(),
			ScoreCP: r.Score,
			Kind:    classify(pos, r.Move),
			PV:      pvStrings(r.PV),
		})
	}

	meta := AnalysisMeta{
		ContactRatio: boardutil.ContactRatio(pos),
		PhaseRatio:   boardutil.PhaseRatio(pos),
		DepthUsed:    depth,
		DepthLowUsed: depthLow,
	}
	if len(moves) > 1 {
		meta.ScoreGapCP = moves[0].ScoreCP - moves[1].ScoreCP
	}
	if depthLow > 0 && depthLow != depth {
		lowResults := c.eng.SearchMultiPV(pos, engine.SearchLimits{Depth: depthLow, MultiPV: 1})
		if len(lowResults) > 0 {
			meta.DepthJumpCP = moves[0].ScoreCP - lowResults[0].Score
		}
	}
	if deeper := c.eng.SearchMultiPV(pos, engine.SearchLimits{Depth: depth + DeepeningDelta, MultiPV: 1}); len(deeper) > 0 {
		meta.DeepeningGainCP = deeper[0].Score - moves[0].ScoreCP
	}
	for _, mv := range moves {
		if isMateScore(mv.ScoreCP) {
			meta.MateThreat = true
			break
		}
	}

	return EngineCandidates{
		FEN:          fen,
		SideToMove:   sideToMoveName(pos),
		Moves:        moves,
		EvalBeforeCP: moves[0].ScoreCP,
		Meta:         meta,
	}, nil
}

func (c *NativeClient) EvalMove(ctx context.Context, fen, moveUCI string, depth int) (int, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: err}
	}
	m, found := findLegalMove(pos, moveUCI)
	if !found {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: fmt.Errorf("illegal move %s in %s", moveUCI, fen)}
	}
	undo := pos.MakeMove(m)
	defer pos.UnmakeMove(m, undo)
	if err := ctx.Err(); err != nil {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: err}
	}
	results := c.eng.SearchMultiPV(pos, engine.SearchLimits{Depth: depth, MultiPV: 1})
	if len(results) == 0 {
		return -c.eng.Evaluate(pos), nil
	}
	// SearchMultiPV's score is from the post-move side-to-move's
	// perspective; eval_move reports from the mover's own perspective.
	return -results[0].Score, nil
}

func (c *NativeClient) SimulateFollowup(ctx context.Context, fen string, actorIsWhite bool, steps, depth int) (FollowupTrace, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return FollowupTrace{}, &Error{Client: c.name, Op: "simulate_followup", Err: err}
	}

	actor := board.White
	if !actorIsWhite {
		actor = board.Black
	}

	base := snapshotPair(pos, actor)
	trace := FollowupTrace{BaseSelf: base[0], BaseOpp: base[1]}

	for ply := 0; ply < steps; ply++ {
		if err := ctx.Err(); err != nil {
			return trace, &Error{Client: c.name, Op: "simulate_followup", Err: err}
		}
		if pos.GenerateLegalMoves().Len() == 0 {
			break
		}
		results := c.eng.SearchMultiPV(pos, engine.SearchLimits{Depth: depth, MultiPV: 1})
		if len(results) == 0 {
			break
		}
		pos.MakeMove(results[0].Move)
		snap := snapshotPair(pos, actor)
		trace.SeqSelf = append(trace.SeqSelf, snap[0])
		trace.SeqOpp = append(trace.SeqOpp, snap[1])
	}
	return trace, nil
}

func classify(pos *board.Position, m board.Move) MoveKind {
	if boardutil.IsCaptureOrCheck(pos, m) {
		return Dynamic
	}
	return Positional
}

func isMateScore(cp int) bool {
	if cp < 0 {
		cp = -cp
	}
	return cp >= MateBase-100*64
}

func sideToMoveName(pos *board.Position) string {
	if pos.SideToMove == board.White {
		return "white"
	}
	return "black"
}

func pvStrings(pv []board.Move) []string {
	out := make([]string, 0, len(pv))
	for _, m := range pv {
		out = append(out, m.String())
	}
	return out
}

// snapshotPair returns {actor's metrics, opponent's metrics} as plain
// maps, regardless of whose turn it is to move in pos.
func snapshotPair(pos *board.Position, actor board.Color) [2]map[string]float64 {
	self, opp := metrics.Evaluate(pos)
	if pos.SideToMove == actor {
		return [2]map[string]float64{self.Map(), opp.Map()}
	}
	return [2]map[string]float64{opp.Map(), self.Map()}
}

func findLegalMove(pos *board.Position, uci string) (board.Move, bool) {
	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.String() == uci {
			return m, true
		}
	}
	return board.NoMove, false
}
