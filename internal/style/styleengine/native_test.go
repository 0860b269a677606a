package styleengine

import (
	"context"
	"testing"

	"github.com/kestrelchess/styletagger/internal/engine"
)

func TestNativeClientAnalyzeStartpos(t *testing.T) {
	eng := engine.NewEngine(16)
	client := NewNativeClient(eng, "test-native")

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	candidates, err := client.Analyze(context.Background(), fen, 4, 3, 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(candidates.Moves) == 0 {
		t.Fatal("expected at least one candidate")
	}
	if candidates.SideToMove != "white" {
		t.Errorf("expected side to move white, got %s", candidates.SideToMove)
	}
	for i := 1; i < len(candidates.Moves); i++ {
		if candidates.Moves[i].ScoreCP > candidates.Moves[i-1].ScoreCP {
			t.Errorf("candidates not sorted descending at index %d", i)
		}
	}
	if candidates.Meta.PhaseRatio != 1 {
		t.Errorf("expected full-material startpos to have phase ratio 1, got %v", candidates.Meta.PhaseRatio)
	}
}

func TestNativeClientEvalMove(t *testing.T) {
	eng := engine.NewEngine(16)
	client := NewNativeClient(eng, "test-native")

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	cp, err := client.EvalMove(context.Background(), fen, "e2e4", 4)
	if err != nil {
		t.Fatalf("EvalMove failed: %v", err)
	}
	t.Logf("eval after e2e4: %d cp", cp)
}

func TestNativeClientSimulateFollowup(t *testing.T) {
	eng := engine.NewEngine(16)
	client := NewNativeClient(eng, "test-native")

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	trace, err := client.SimulateFollowup(context.Background(), fen, true, 3, 3)
	if err != nil {
		t.Fatalf("SimulateFollowup failed: %v", err)
	}
	if len(trace.SeqSelf) == 0 {
		t.Fatal("expected at least one followup ply")
	}
	if len(trace.SeqSelf) != len(trace.SeqOpp) {
		t.Errorf("self/opp followup sequences have mismatched lengths: %d vs %d", len(trace.SeqSelf), len(trace.SeqOpp))
	}
}
