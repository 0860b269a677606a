package features

import (
	"context"
	"testing"

	"github.com/kestrelchess/styletagger/internal/engine"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/styleengine"
)

func TestBuildFeatureBundleStartpos(t *testing.T) {
	eng := engine.NewEngine(16)
	client := styleengine.NewNativeClient(eng, "test")
	cfg := config.Defaults()

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	candidates, err := client.Analyze(context.Background(), fen, 3, 3, 2)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	opts := Options{CPThreshold: 30, EvalDepth: 3, FollowupDepth: 2, FollowupSteps: 2}
	bundle, err := Build(context.Background(), fen, candidates.Best().UCI, candidates, client, cfg, opts)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if bundle.TacticalWeight < 0 || bundle.TacticalWeight > 1 {
		t.Errorf("tactical_weight out of range: %v", bundle.TacticalWeight)
	}
	if bundle.PlayedMove != candidates.Best().UCI {
		t.Errorf("expected played move to be the engine's best move, got %s", bundle.PlayedMove)
	}
	if _, ok := bundle.ComponentDeltas["mobility"]; !ok {
		t.Error("expected mobility in component deltas")
	}
}

func TestBuildFeatureBundleRejectsIllegalMove(t *testing.T) {
	eng := engine.NewEngine(16)
	client := styleengine.NewNativeClient(eng, "test")
	cfg := config.Defaults()

	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	candidates, err := client.Analyze(context.Background(), fen, 3, 2, 2)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	opts := Options{CPThreshold: 30, EvalDepth: 3, FollowupDepth: 2, FollowupSteps: 2}
	_, err = Build(context.Background(), fen, "e2e5", candidates, client, cfg, opts)
	if err == nil {
		t.Fatal("expected an error for an illegal played move")
	}
}
