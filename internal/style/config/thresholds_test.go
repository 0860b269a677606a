package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchOriginal(t *testing.T) {
	d := Defaults()
	if d.TensionMobilityMin != 0.38 {
		t.Fatalf("TensionMobilityMin = %v, want 0.38", d.TensionMobilityMin)
	}
	if d.CooldownPlies != 3 {
		t.Fatalf("CooldownPlies = %v, want 3", d.CooldownPlies)
	}
	if len(d.Priority) != 9 || d.Priority[0] != "simplify" {
		t.Fatalf("Priority = %v", d.Priority)
	}
	if !d.RareTypes["freeze_bind"] || !d.RareTypes["space_clamp"] || !d.RareTypes["blockade_passed"] {
		t.Fatalf("RareTypes missing expected members: %v", d.RareTypes)
	}
}

func TestLoadFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.txt")
	content := "tension_mobility_min: 0.5 # widened for testing\nunknown_key: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.TensionMobilityMin != 0.5 {
		t.Fatalf("TensionMobilityMin = %v, want 0.5", table.TensionMobilityMin)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "absent.txt"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.CooldownPlies != 3 {
		t.Fatalf("expected defaults, got CooldownPlies=%d", table.CooldownPlies)
	}
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thresholds.txt")
	if err := os.WriteFile(path, []byte("control_cooldown_plies: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONTROL_CONTROL_COOLDOWN_PLIES", "7")
	table, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if table.CooldownPlies != 7 {
		t.Fatalf("CooldownPlies = %d, want 7 (env should win over file)", table.CooldownPlies)
	}
}
