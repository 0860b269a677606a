package schema

import "testing"

func TestSeverityFromScore(t *testing.T) {
	cases := []struct {
		score float64
		want  Severity
	}{
		{0.9, SeverityStrong},
		{0.75, SeverityStrong},
		{0.5, SeverityModerate},
		{0.4, SeverityModerate},
		{0.1, SeverityWeak},
		{0, SeverityWeak},
	}
	for _, c := range cases {
		if got := SeverityFromScore(c.score); got != c.want {
			t.Errorf("SeverityFromScore(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}

func TestTagPriorityKnownTags(t *testing.T) {
	for _, name := range []string{
		"tension_creation",
		"structural_integrity",
		"cod_plan_kill",
		"control_plan_kill",
		"tactical_sacrifice",
	} {
		if _, ok := TagPriority[name]; !ok {
			t.Errorf("expected TagPriority to have an entry for %q", name)
		}
	}
}

func TestForcedMoveHasNoPriorityEntry(t *testing.T) {
	if _, ok := TagPriority[ForcedMove]; ok {
		t.Errorf("forced_move should never carry a display priority")
	}
}

func TestStyleTrackerProfileBeforeAnyUpdate(t *testing.T) {
	tr := NewStyleTracker([]string{"mobility", "tactics"})
	profile := tr.Profile()
	if profile["mobility"] != 0 || profile["tactics"] != 0 {
		t.Errorf("expected all-zero profile before any update, got %+v", profile)
	}
}

func TestStyleTrackerUpdateAndProfile(t *testing.T) {
	tr := NewStyleTracker([]string{"mobility", "tactics"})
	tr.Update(map[string]float64{"mobility": 1.0, "tactics": 0.5})
	tr.Update(map[string]float64{"mobility": 0.0, "tactics": 0.25})

	profile := tr.Profile()
	if profile["mobility"] != 0.5 {
		t.Errorf("expected mobility average 0.5, got %v", profile["mobility"])
	}
	if profile["tactics"] != 0.375 {
		t.Errorf("expected tactics average 0.375, got %v", profile["tactics"])
	}
	if tr.Count != 2 {
		t.Errorf("expected count 2, got %d", tr.Count)
	}
}

func TestRound3(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.123456, 0.123},
		{0.1235, 0.124},
		{-0.1235, -0.124},
		{0, 0},
	}
	for _, c := range cases {
		if got := round3(c.in); got != c.want {
			t.Errorf("round3(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
