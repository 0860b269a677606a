package blunder

import "testing"

func cp(v int) *int { return &v }

func TestGateTriggersAtThreshold(t *testing.T) {
	candidates := []Candidate{
		{UCI: "a2a3", ScoreCP: cp(250)},
		{UCI: "a2a4", ScoreCP: cp(50)},
	}
	gate := EvaluateEngineGap(candidates, 200, -150)
	if !gate.Triggered {
		t.Fatal("expected gate to trigger")
	}
	if gate.GapCP == nil || *gate.GapCP != 200 {
		t.Errorf("expected gap_cp 200, got %v", gate.GapCP)
	}
}

func TestGateNotTriggeredBelowThreshold(t *testing.T) {
	candidates := []Candidate{
		{UCI: "a2a3", ScoreCP: cp(249)},
		{UCI: "a2a4", ScoreCP: cp(50)},
	}
	gate := EvaluateEngineGap(candidates, 200, -150)
	if gate.Triggered {
		t.Fatal("expected gate not to trigger")
	}
	if gate.GapCP == nil || *gate.GapCP != 199 {
		t.Errorf("expected gap_cp 199, got %v", gate.GapCP)
	}
}

func TestGateRequiresTwoScores(t *testing.T) {
	candidates := []Candidate{{UCI: "a2a3", ScoreCP: cp(250)}}
	gate := EvaluateEngineGap(candidates, 200, -150)
	if gate.Triggered || gate.GapCP != nil {
		t.Errorf("expected no trigger and nil gap with one candidate, got %+v", gate)
	}

	candidates = []Candidate{
		{UCI: "a2a3", ScoreCP: nil},
		{UCI: "a2a4", ScoreCP: cp(0)},
	}
	gate = EvaluateEngineGap(candidates, 200, -150)
	if gate.Triggered || gate.GapCP != nil {
		t.Errorf("expected no trigger and nil gap with a missing score, got %+v", gate)
	}
}

func TestForcedProbabilities(t *testing.T) {
	probs := ForcedProbabilities(3, 0)
	want := []float64{1.0, 0.0, 0.0}
	for i := range want {
		if probs[i] != want[i] {
			t.Errorf("probs[%d] = %v, want %v", i, probs[i], want[i])
		}
	}
}

func TestApplyInaccuracyPatchFlagsSharpDrop(t *testing.T) {
	candidates := []Candidate{
		{UCI: "a", ScoreCP: cp(100)},
		{UCI: "b", ScoreCP: cp(-50)},
		{UCI: "c", ScoreCP: cp(-60)},
	}
	probs := []float64{1.0, 0.0, 0.0}
	adjusted, flags := ApplyInaccuracyPatch(candidates, probs, 40)
	if !flags[1] || !flags[2] {
		t.Errorf("expected inaccuracy flagged from index 1 onward, got %v", flags)
	}
	if adjusted[0] != 1.0 {
		t.Errorf("expected index 0 untouched, got %v", adjusted[0])
	}
}
