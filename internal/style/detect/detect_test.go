package detect

import (
	"testing"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/features"
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

func TestTensionCreationFiresOnMobilityDrop(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.OppChangePlayedVsBefore["mobility"] = -0.5
	ctx := Context{Bundle: b, Phase: boardutil.PhaseMiddlegame}

	res := TensionCreation(ctx, cfg)
	if res == nil {
		t.Fatal("expected tension_creation to fire")
	}
	if res.Name != "tension_creation" {
		t.Errorf("unexpected name %s", res.Name)
	}
}

func TestTensionCreationDoesNotFireWithoutEvidence(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	ctx := Context{Bundle: b, Phase: boardutil.PhaseMiddlegame}

	if res := TensionCreation(ctx, cfg); res != nil {
		t.Errorf("expected no fire, got %v", res)
	}
}

func TestStructuralIntegrityFiresOnStableStructure(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	ctx := Context{Bundle: b, Phase: boardutil.PhaseMiddlegame}

	res := StructuralIntegrity(ctx, cfg)
	if res == nil {
		t.Fatal("expected structural_integrity to fire on a flat structure delta")
	}
}

func TestSacrificeRequiresMaterialLoss(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.Material.DeltaSelf = 0
	ctx := Context{Bundle: b}

	if res := Sacrifice(ctx, cfg); res != nil {
		t.Errorf("expected no sacrifice tag without material loss, got %v", res)
	}
}

func TestSacrificeFiresOnMaterialLossWithCompensation(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.Material.DeltaSelf = -300
	b.DeltaEvalCP = -50
	ctx := Context{Bundle: b}

	res := Sacrifice(ctx, cfg)
	if res == nil {
		t.Fatal("expected a sacrifice subtype to fire")
	}
}

func TestControlAndCoDWrapSamePredicate(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.TacticalWeight = 0.1
	b.Material.DeltaSelf = 0
	b.DeltaEvalCP = 0
	b.OppComponentDeltas["tactics"] = -0.5
	ctx := Context{Bundle: b, Phase: boardutil.PhaseMiddlegame, Ply: 20, AllowPositional: true}

	control := Control("plan_kill")(ctx, cfg)
	if control == nil {
		t.Fatal("expected control_plan_kill to fire")
	}
	if control.Name != "control_plan_kill" {
		t.Errorf("unexpected name %s", control.Name)
	}

	cod := CoD("plan_kill")(ctx, cfg)
	if cod == nil {
		t.Fatal("expected cod_plan_kill to fire when tactical weight is low and cooldown is empty")
	}
}

func TestCoDRespectsCooldown(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.TacticalWeight = 0.1
	b.OppComponentDeltas["tactics"] = -0.5
	cool := config.NewCooldownState()
	cool.Record("plan_kill", 10)
	ctx := Context{Bundle: b, Phase: boardutil.PhaseMiddlegame, Ply: 11, Cooldown: cool, AllowPositional: true}

	if res := CoD("plan_kill")(ctx, cfg); res != nil {
		t.Errorf("expected cod_plan_kill suppressed by cooldown, got %v", res)
	}
}

func TestProphylacticMoveDisqualifiedByFullMaterial(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.OppComponentDeltas["tactics"] = -0.5
	ctx := Context{Bundle: b, FullMaterial: true}

	if res := ProphylacticMove(ctx, cfg); res != nil {
		t.Errorf("expected no fire with full material on the board, got %v", res)
	}
}

func TestProphylacticMoveDisqualifiedByCentralPawnPush(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.OppComponentDeltas["tactics"] = -0.5
	ctx := Context{Bundle: b, MovedPieceType: board.Pawn, ToFile: 3}

	if res := ProphylacticMove(ctx, cfg); res != nil {
		t.Errorf("expected no fire for a pawn push onto the d-file, got %v", res)
	}
}

func TestProphylacticMoveStrongWhenTacticalWeightLow(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.OppComponentDeltas["tactics"] = -0.5
	b.TacticalWeight = 0.1
	b.DeltaEval = 0
	ctx := Context{Bundle: b}

	res := ProphylacticMove(ctx, cfg)
	if res == nil {
		t.Fatal("expected prophylactic_direct to fire")
	}
	if res.Name != "prophylactic_direct" {
		t.Errorf("unexpected name %s", res.Name)
	}
}

func TestProphylacticMoveMeaninglessWhenPositionWorsens(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.OppComponentDeltas["tactics"] = -0.5
	b.TacticalWeight = 0.1
	b.DeltaEval = -0.3
	ctx := Context{Bundle: b}

	if res := ProphylacticMove(ctx, cfg); res != nil {
		t.Errorf("expected no fire when the effective delta is clearly negative, got %v", res)
	}
}

func TestOpeningCentralPawnMove(t *testing.T) {
	cfg := config.Defaults()
	b := baseBundle()
	b.PlayedMove = "e2e4"
	ctx := Context{Bundle: b, Ply: 1}

	res := OpeningCentralPawnMove(ctx, cfg)
	if res == nil {
		t.Fatal("expected opening_central_pawn_move to fire for e2e4")
	}
}
