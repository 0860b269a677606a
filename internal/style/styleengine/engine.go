// Package styleengine defines the engine-client capability the tagging
// pipeline consumes and the adapters that satisfy it: a native in-process
// client backed by the bundled search engine, a UCI subprocess client, and
// an HTTP client for a remote analysis shim.
package styleengine

import (
	"context"
	"fmt"
)

// MoveKind classifies a candidate by whether it was forcing in the source
// position: dynamic iff the source move is a capture or check, positional
// otherwise.
type MoveKind string

const (
	Dynamic    MoveKind = "dynamic"
	Positional MoveKind = "positional"
)

// MateBase is the sentinel magnitude a mate score is derived from: a
// reported mate in N plies maps to sign*(MateBase - |N|*100).
const MateBase = 9000

// EngineMove is a single multi-PV candidate, score in integer centipawns
// from the perspective of the side to move in the probed position.
type EngineMove struct {
	UCI     string
	ScoreCP int
	Kind    MoveKind
	PV      []string
}

// AnalysisMeta carries the auxiliary probe results §4.1 requires beyond
// the ranked candidate list.
type AnalysisMeta struct {
	ScoreGapCP       int
	DepthJumpCP      int
	DeepeningGainCP  int
	ContactRatio     float64
	PhaseRatio       float64
	MateThreat       bool
	DepthUsed        int
	DepthLowUsed     int
}

// EngineCandidates is the ranked, best-first result of one analyze call.
type EngineCandidates struct {
	FEN         string
	SideToMove  string
	Moves       []EngineMove
	EvalBeforeCP int
	Meta        AnalysisMeta
}

// Best returns the top-ranked candidate. Callers may rely on
// EngineCandidates always being non-empty for a legal position with legal
// moves.
func (c EngineCandidates) Best() EngineMove {
	return c.Moves[0]
}

// FollowupTrace is the result of simulate_followup: the actor's and
// opponent's metric snapshots before the line is played, and the
// per-ply sequence of snapshots while the engine's preferred line is
// followed.
type FollowupTrace struct {
	BaseSelf map[string]float64
	BaseOpp  map[string]float64
	SeqSelf  []map[string]float64
	SeqOpp   []map[string]float64
}

// Client is the capability the tagging pipeline requires of an engine. It
// corresponds to spec §4.1: analyze, eval_move, simulate_followup,
// identifier.
type Client interface {
	Analyze(ctx context.Context, fen string, depth, multiPV, depthLow int) (EngineCandidates, error)
	EvalMove(ctx context.Context, fen, moveUCI string, depth int) (int, error)
	SimulateFollowup(ctx context.Context, fen string, actorIsWhite bool, steps, depth int) (FollowupTrace, error)
	Identifier() string
}

// Error wraps an engine failure with the identifier of the client that
// produced it. Any engine failure is fatal for the current request; the
// caller decides policy from there.
type Error struct {
	Client string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("styleengine: %s: %s: %v", e.Client, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
