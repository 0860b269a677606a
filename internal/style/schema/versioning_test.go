package schema

import "testing"

func TestDetectVersionDeclaredAndSupported(t *testing.T) {
	raw := map[string]any{
		"engine_meta": map[string]any{"ruleset_version": "rulestack_2025-11-03"},
	}
	if got := DetectVersion(raw); got != "rulestack_2025-11-03" {
		t.Errorf("DetectVersion = %q, want rulestack_2025-11-03", got)
	}
}

func TestDetectVersionUnderAnalysisContext(t *testing.T) {
	raw := map[string]any{
		"analysis_context": map[string]any{
			"engine_meta": map[string]any{"ruleset_version": "rulestack_2025-10-20"},
		},
	}
	if got := DetectVersion(raw); got != "rulestack_2025-10-20" {
		t.Errorf("DetectVersion = %q, want rulestack_2025-10-20", got)
	}
}

func TestDetectVersionFallsBackToFingerprint(t *testing.T) {
	raw := map[string]any{
		"engine_meta": map[string]any{
			"tension_support": map[string]any{
				"thresholds": map[string]any{
					"tension_mobility_min":           0.38,
					"contact_ratio_min":              0.04,
					"maneuver_eval_tolerance":        0.12,
					"prophylaxis_preventive_trigger": 0.08,
				},
			},
		},
	}
	if got := DetectVersion(raw); got != "rulestack_2025-11-03" {
		t.Errorf("DetectVersion fingerprint fallback = %q, want rulestack_2025-11-03", got)
	}
}

func TestDetectVersionUnknownWhenNothingMatches(t *testing.T) {
	raw := map[string]any{}
	if got := DetectVersion(raw); got != "unknown" {
		t.Errorf("DetectVersion = %q, want unknown", got)
	}
}

func TestDetectVersionReturnsUnsupportedClaimedAsHint(t *testing.T) {
	raw := map[string]any{
		"engine_meta": map[string]any{"ruleset_version": "rulestack_2099-01-01"},
	}
	if got := DetectVersion(raw); got != "rulestack_2099-01-01" {
		t.Errorf("DetectVersion = %q, want the unsupported claimed version echoed back", got)
	}
}

func TestNormalizeToCanonRoundTrip(t *testing.T) {
	for _, version := range []string{"rulestack_2025-10-20", "rulestack_2025-11-03"} {
		raw := map[string]any{
			"engine_meta": map[string]any{"ruleset_version": version},
			"eval_before": 0.1,
			"eval_played": 0.2,
			"eval_best":   0.3,
		}
		record := NormalizeToCanon(raw)
		if record.RulesetVersion != version {
			t.Errorf("version %s: RulesetVersion = %s", version, record.RulesetVersion)
		}
		if record.CanonSchema != CanonSchemaVersion {
			t.Errorf("version %s: CanonSchema = %s, want %s", version, record.CanonSchema, CanonSchemaVersion)
		}
		if record.VersionCorrected {
			t.Errorf("version %s: expected VersionCorrected false when claimed matches detected", version)
		}
	}
}

func TestNormalizeToCanonFlagsVersionCorrected(t *testing.T) {
	raw := map[string]any{
		"engine_meta": map[string]any{"ruleset_version": "rulestack_2099-01-01"},
	}
	record := NormalizeToCanon(raw)
	if record.RulesetVersion != "rulestack_2025-10-20" {
		t.Fatalf("expected fallback to the oldest normalizer, got %s", record.RulesetVersion)
	}
	if !record.VersionCorrected {
		t.Error("expected VersionCorrected true when claimed version isn't in the registry")
	}
	if record.RulesetVersionClaimed != "rulestack_2099-01-01" {
		t.Errorf("RulesetVersionClaimed = %s", record.RulesetVersionClaimed)
	}
}

func TestNormalizeToCanonSacrificeFlags(t *testing.T) {
	raw := map[string]any{
		"engine_meta": map[string]any{
			"ruleset_version": "rulestack_2025-11-03",
			"trigger_order":   []any{"tactical_sacrifice", "tactical_combination_sacrifice"},
		},
	}
	record := NormalizeToCanon(raw)
	if !record.Sacrifice["tactical"] {
		t.Error("expected sacrifice.tactical true")
	}
	if !record.Sacrifice["combination"] {
		t.Error("expected sacrifice.combination true")
	}
	if record.Sacrifice["positional"] {
		t.Error("expected sacrifice.positional false")
	}
}

func TestCollectTagsFallsBackToTagFlags(t *testing.T) {
	raw := map[string]any{
		"engine_meta": map[string]any{
			"tag_flags": map[string]any{
				"tension_creation": true,
				"panic_move":       false,
			},
		},
	}
	tags := collectTags(raw)
	if len(tags) != 1 || tags[0] != "tension_creation" {
		t.Errorf("collectTags = %v, want only tension_creation", tags)
	}
}
