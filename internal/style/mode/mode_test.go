package mode

import (
	"testing"

	"github.com/kestrelchess/styletagger/internal/style/config"
)

func TestHardThresholdBoundaries(t *testing.T) {
	cfg := config.Defaults()

	if got := Hard(0.9, cfg).Tag; got != Tactical {
		t.Errorf("expected tactical at weight 0.9, got %s", got)
	}
	if got := Hard(0.05, cfg).Tag; got != Positional {
		t.Errorf("expected positional at weight 0.05, got %s", got)
	}
	if got := Hard(0.3, cfg).Tag; got != Blended {
		t.Errorf("expected blended at weight 0.3, got %s", got)
	}
}

func TestSoftFallsThroughWithoutState(t *testing.T) {
	cfg := config.Defaults()
	hard := Hard(0.9, cfg)
	soft := Soft(0.9, cfg, false)
	if soft.Tag != hard.Tag {
		t.Errorf("expected Soft without state to match Hard, got %s vs %s", soft.Tag, hard.Tag)
	}
}

func TestSoftGateValueIsDebugged(t *testing.T) {
	cfg := config.Defaults()
	d := Soft(0.5, cfg, true)
	if _, ok := d.Debug["gate_value"]; !ok {
		t.Error("expected gate_value in debug map")
	}
}
