package gate

import (
	"testing"

	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/detect"
	"github.com/kestrelchess/styletagger/internal/style/features"
	"github.com/kestrelchess/styletagger/internal/style/mode"
	"github.com/kestrelchess/styletagger/internal/style/styleengine"
)

func baseBundle() *features.FeatureBundle {
	return &features.FeatureBundle{
		PlayedMove:              "e2e4",
		BestMove:                "e2e4",
		ComponentDeltas:         map[string]float64{"mobility": 0, "center_control": 0, "king_safety": 0, "structure": 0, "tactics": 0},
		OppComponentDeltas:      map[string]float64{"mobility": 0, "center_control": 0, "king_safety": 0, "structure": 0, "tactics": 0},
		OppChangePlayedVsBefore: map[string]float64{"mobility": 0},
		Trends:                  features.FollowupTrends{},
		Contact:                 features.ContactProfile{},
		Material:                features.MaterialProfile{},
		Coverage:                features.CoverageProfile{},
		AnalysisMeta:            styleengine.AnalysisMeta{},
	}
}

func TestRunBankDoesNotErrorOnCleanBundle(t *testing.T) {
	cfg := config.Defaults()
	ctx := detect.Context{Bundle: baseBundle(), Phase: boardutil.PhaseMiddlegame}

	_, errs := RunBank(ctx, cfg)
	if len(errs) != 0 {
		t.Errorf("unexpected errors from a clean bank run: %v", errs)
	}
}

func TestSelectCoDPicksByPriority(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.TacticalWeight = 0.1
	b.OppComponentDeltas["tactics"] = -0.5
	ctx := detect.Context{Bundle: b, Phase: boardutil.PhaseMiddlegame, Ply: 20, AllowPositional: true}

	sel := SelectCoD(ctx, cfg)
	if sel.Winner == nil {
		t.Fatal("expected a CoD winner for a clear plan_kill signal")
	}
}

func TestAssembleDropsForcedMoveFromPrimary(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	ctx := detect.Context{Bundle: b, Phase: boardutil.PhaseMiddlegame}
	decision := mode.Hard(0.1, cfg)

	bundle := Assemble(ctx, cfg, decision)
	for _, name := range bundle.Primary {
		if name == "forced_move" {
			t.Error("forced_move must never appear in primary")
		}
	}
}
