// Package schema holds the shared result/record types the detector
// bank, gate, and CLI all depend on: DetectorResult, TagBundle, the
// static tag-priority table, and the style-profile tracker.
package schema

// Severity buckets a DetectorResult's score.
type Severity string

const (
	SeverityWeak     Severity = "weak"
	SeverityModerate Severity = "moderate"
	SeverityStrong   Severity = "strong"
)

// DetectorResult is one predicate firing.
type DetectorResult struct {
	Name     string
	Score    float64
	Why      string
	Metrics  map[string]float64
	Severity Severity
}

// SeverityFromScore buckets a 0..1-ish score into a Severity, matching
// the thresholds the CoD detectors use for their own severity field.
func SeverityFromScore(score float64) Severity {
	switch {
	case score >= 0.75:
		return SeverityStrong
	case score >= 0.4:
		return SeverityModerate
	default:
		return SeverityWeak
	}
}

// TagBundle is the final, assembled output for one move.
type TagBundle struct {
	Primary   []string
	Secondary []string
	Notes     map[string]string
	Telemetry map[string]any
	Debug     map[string]any
}

// ForcedMove is the ignored tag that is never exported to primary.
const ForcedMove = "forced_move"

// TagPriority is the static priority table (lower sorts first) used by
// the gate's priority-ordering stage, ported verbatim from the
// reference pipeline's TAG_PRIORITY.
var TagPriority = map[string]int{
	"initiative_exploitation":  1,
	"initiative_attempt":       2,
	"file_pressure_c":          3,
	"tension_creation":         4,
	"neutral_tension_creation": 5,
	"premature_attack":         6,

	"constructive_maneuver":         7,
	"constructive_maneuver_prepare": 7,
	"neutral_maneuver":              8,
	"misplaced_maneuver":            9,
	"maneuver_opening":              9,
	"opening_central_pawn_move":     9,
	"opening_rook_pawn_move":        9,

	"tactical_sacrifice":             10,
	"positional_sacrifice":           10,
	"inaccurate_tactical_sacrifice":  11,
	"speculative_sacrifice":          12,
	"desperate_sacrifice":            13,
	"tactical_combination_sacrifice": 14,
	"tactical_initiative_sacrifice":  14,
	"positional_structure_sacrifice": 15,
	"positional_space_sacrifice":     15,

	"prophylactic_move":        10,
	"prophylactic_direct":      10,
	"prophylactic_latent":      11,
	"prophylactic_meaningless": 12,
	"failed_prophylactic":      12,
	"structural_blockage":      13,

	"control_over_dynamics":   14,
	"cod_simplify":            14,
	"cod_plan_kill":           14,
	"cod_freeze_bind":         14,
	"cod_blockade_passed":     14,
	"cod_file_seal":           14,
	"cod_king_safety_shell":   14,
	"cod_space_clamp":         14,
	"cod_regroup_consolidate": 14,
	"cod_slowdown":            14,

	"control_simplify":            15,
	"control_plan_kill":           15,
	"control_freeze_bind":         15,
	"control_blockade_passed":     15,
	"control_file_seal":           15,
	"control_king_safety_shell":   15,
	"control_space_clamp":         15,
	"control_regroup_consolidate": 15,
	"control_slowdown":            15,
	"deferred_initiative":         15,

	"risk_avoidance":                16,
	"structural_compromise_dynamic": 17,
	"structural_compromise_static":  18,
	"structural_integrity":          19,

	"tactical_sensitivity": 20,
	"first_choice":         21,
	"missed_tactic":        22,
	"conversion_precision": 23,
	"panic_move":           24,
	"tactical_recovery":    25,

	"accurate_knight_bishop_exchange":   20,
	"inaccurate_knight_bishop_exchange": 21,
	"bad_knight_bishop_exchange":        22,
}

// DefaultPriority is used when a fired tag has no entry in TagPriority
// (keeps it from crashing the ordering stage; sorts after everything
// named).
const DefaultPriority = 99

// StyleTracker accumulates per-component averages across many moves for
// a player's running style profile.
type StyleTracker struct {
	Totals map[string]float64
	Count  int
}

// NewStyleTracker returns a tracker with every key in keys initialized
// to zero.
func NewStyleTracker(keys []string) *StyleTracker {
	totals := make(map[string]float64, len(keys))
	for _, k := range keys {
		totals[k] = 0
	}
	return &StyleTracker{Totals: totals}
}

// Update accumulates one snapshot into the tracker.
func (s *StyleTracker) Update(snapshot map[string]float64) {
	for k, v := range snapshot {
		s.Totals[k] += v
	}
	s.Count++
}

// Profile returns the per-key running average, rounded to 3 decimals,
// or all-zero when no snapshot has been recorded yet.
func (s *StyleTracker) Profile() map[string]float64 {
	out := make(map[string]float64, len(s.Totals))
	if s.Count == 0 {
		for k := range s.Totals {
			out[k] = 0
		}
		return out
	}
	for k, total := range s.Totals {
		out[k] = round3(total / float64(s.Count))
	}
	return out
}

func round3(v float64) float64 {
	const scale = 1000.0
	if v >= 0 {
		return float64(int(v*scale+0.5)) / scale
	}
	return float64(int(v*scale-0.5)) / scale
}
