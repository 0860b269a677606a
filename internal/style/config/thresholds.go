// Package config loads the move-tagger's ThresholdTable: numeric and
// boolean tunables sourced from compiled-in defaults, an optional
// line-oriented override file, and CONTROL_-prefixed environment
// variables (env wins over file, file wins over defaults). The table is
// built once by the startup sequence and passed explicitly into every
// detector — there is no package-level mutable singleton.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kestrelchess/styletagger/internal/style/taperr"
)

// PhaseAdjust carries the per-phase CoD gate bonuses.
type PhaseAdjust struct {
	VolBonus  int
	OpMobDrop int
}

// ThresholdTable is the full set of tunables consulted by the feature
// extractor, mode selector, and detector bank. It is immutable after
// Load returns.
type ThresholdTable struct {
	// Plain numeric thresholds (rule_tagger2.legacy.config.DEFAULT_THRESHOLDS).
	TensionMobilityMin          float64
	TensionMobilityNear         float64
	ContactRatioMin             float64
	ContactRatioDelay           float64
	TensionMobilityDelay        float64
	TensionTrendSelf            float64
	TensionTrendOpp             float64
	TensionSustainMin           float64
	TensionSustainVarCap        float64
	StaticBlockageThreshold     float64
	StaticBlockageHysteresis    float64
	SoftBlockScale              float64
	ProphylaxisPlanDropEnabled  bool
	PlanDropPsiMin              float64
	PlanDropEvalCap             float64
	PlanDropMultiPV             int
	PlanDropDepth               int
	PlanDropSampleRate          float64
	PlanDropVarianceCap         float64
	PlanDropRuntimeCapMs        float64
	PlanDropPlanLossMin         float64
	ProphylaxisPreventiveTrigger float64
	ProphylaxisSafetyBonusCap   float64
	ProphylaxisThreatDrop       float64
	WinningTauMax               float64
	WinningTauScale             float64
	LosingTauMin                float64
	LosingTauScale              float64
	SoftGateMidpoint            float64
	SoftGateWidth               float64
	ManeuverConstructive        float64
	ManeuverNeutral              float64
	ManeuverMisplaced            float64
	ManeuverEvalTolerance        float64
	ManeuverTimingConstructiveBonus float64
	ManeuverPrecisionBonusThreshold float64
	ManeuverEvalBonusTolerance   float64
	ManeuverBonusCenterThreshold float64
	ManeuverBonusStructureThreshold float64
	ManeuverBonusMobilityThreshold float64
	ManeuverLowImpactCenter      float64
	ManeuverLowImpactStructure   float64
	ManeuverLowImpactMobility    float64
	ManeuverStructuralTimingBonus float64
	ManeuverTimingNeutral        float64
	ManeuverTrendNeutral         float64
	ManeuverAllowLightCapture    bool
	ManeuverOpeningFullmoveCutoff int
	ManeuverEVFailCP             float64
	ManeuverEVProtectCP          float64
	AggressionThreshold          float64
	RiskAvoidanceMobilityDrop    float64
	StructureWeakenLimit         float64
	MobilitySelfLimit            float64
	FilePressureThreshold        float64
	VolatilityDropTolerance      float64
	PrematureAttackThreshold     float64
	PrematureAttackHard          float64

	// Fixed constants carried over verbatim (they have no entry in
	// DEFAULT_THRESHOLDS). Of these, only TacticalEnter and PositionalEnter
	// have file/env override keys; the rest are not overridable.
	MobilityTolerance            float64
	CenterTolerance               float64
	KingSafetyTolerance            float64
	KingSafetyGain                  float64
	MobilityRiskTradeoff            float64
	StructureThreshold               float64
	TacticalThreshold                 float64
	TacticalEnter                      float64
	PositionalEnter                    float64
	TacticalDominanceThresholdCP       int
	TacticalSlopeThresholdCP           int
	TacticalDeltaTactics               float64
	StructureDominanceLimit            float64
	DeltaEvalPositionalCP              int
	TensionEvalMin                     float64
	TensionEvalMax                     float64
	TensionSymmetryTol                 float64
	NeutralTensionBand                 float64
	RiskSmallLossCP                    int
	InitiativeBoostCP                  int
	TacticalGapFirstChoiceCP           int
	TacticalMissLossCP                 int

	// Control-over-Dynamics configuration (rule_tagger2.legacy.config.CONTROL_DEFAULTS).
	Enabled                 bool
	StrictMode              bool
	DebugContext            bool
	EvalDropCP              int
	VolatilityDropCP        int
	OppMobilityDrop         int
	TensionDecMin           float64
	KSMin                   float64
	SpaceMin                int
	PassedPushMin           int
	AllowSeeBlockade        bool
	LineMin                 int
	CooldownPlies           int
	TacticalWeightCeiling   float64
	PhaseAdjustOpen         PhaseAdjust
	PhaseAdjustMid          PhaseAdjust
	PhaseAdjustEnd          PhaseAdjust
	PlanKillStrict          bool
	VolGateForPlan          bool
	Priority                []string
	PriorityEnd             []string
	RareTypes               map[string]bool
	TieBreakDelta           float64
	PhaseWeights            map[string]map[string]float64
	SimplifyMinExchange     int
	ControlKingSafetyThresh float64
	BlunderThreatThreshCP   float64
}

// CODSubtypes is the fixed ordering of CoD subtype names.
var CODSubtypes = []string{
	"simplify",
	"plan_kill",
	"freeze_bind",
	"blockade_passed",
	"file_seal",
	"king_safety_shell",
	"space_clamp",
	"regroup_consolidate",
	"slowdown",
}

// Defaults returns the compiled-in ThresholdTable, matching
// rule_tagger2.legacy.config.DEFAULT_THRESHOLDS / CONTROL_DEFAULTS exactly.
func Defaults() *ThresholdTable {
	return &ThresholdTable{
		TensionMobilityMin:              0.38,
		TensionMobilityNear:             0.3,
		ContactRatioMin:                 0.04,
		ContactRatioDelay:               0.03,
		TensionMobilityDelay:            0.25,
		TensionTrendSelf:                -0.3,
		TensionTrendOpp:                 0.3,
		TensionSustainMin:               0.15,
		TensionSustainVarCap:            0.2,
		StaticBlockageThreshold:         1.2,
		StaticBlockageHysteresis:        0.05,
		SoftBlockScale:                  0.75,
		ProphylaxisPlanDropEnabled:      false,
		PlanDropPsiMin:                  0.6,
		PlanDropEvalCap:                 -0.3,
		PlanDropMultiPV:                 5,
		PlanDropDepth:                   8,
		PlanDropSampleRate:              0.3,
		PlanDropVarianceCap:             0.2,
		PlanDropRuntimeCapMs:            800.0,
		PlanDropPlanLossMin:             0.15,
		ProphylaxisPreventiveTrigger:    0.08,
		ProphylaxisSafetyBonusCap:       0.6,
		ProphylaxisThreatDrop:           0.3,
		WinningTauMax:                   2.0,
		WinningTauScale:                 0.2,
		LosingTauMin:                    0.6,
		LosingTauScale:                  0.2,
		SoftGateMidpoint:                -0.25,
		SoftGateWidth:                   0.1,
		ManeuverConstructive:            0.25,
		ManeuverNeutral:                 0.0,
		ManeuverMisplaced:               -0.25,
		ManeuverEvalTolerance:           0.12,
		ManeuverTimingConstructiveBonus: 0.9,
		ManeuverPrecisionBonusThreshold: 0.18,
		ManeuverEvalBonusTolerance:      0.12,
		ManeuverBonusCenterThreshold:    0.2,
		ManeuverBonusStructureThreshold: 0.15,
		ManeuverBonusMobilityThreshold:  0.1,
		ManeuverLowImpactCenter:         0.08,
		ManeuverLowImpactStructure:      0.05,
		ManeuverLowImpactMobility:       0.05,
		ManeuverStructuralTimingBonus:   0.7,
		ManeuverTimingNeutral:           0.5,
		ManeuverTrendNeutral:            0.08,
		ManeuverAllowLightCapture:       false,
		ManeuverOpeningFullmoveCutoff:   12,
		ManeuverEVFailCP:                60.0,
		ManeuverEVProtectCP:             20.0,
		AggressionThreshold:             0.4,
		RiskAvoidanceMobilityDrop:       0.1,
		StructureWeakenLimit:            -0.2,
		MobilitySelfLimit:               0.25,
		FilePressureThreshold:           0.35,
		VolatilityDropTolerance:         0.05,
		PrematureAttackThreshold:        -0.25,
		PrematureAttackHard:             -0.4,

		MobilityTolerance:            0.35,
		CenterTolerance:              0.25,
		KingSafetyTolerance:          0.25,
		KingSafetyGain:               0.3,
		MobilityRiskTradeoff:         1.2,
		StructureThreshold:           0.2,
		TacticalThreshold:            0.15,
		TacticalEnter:                0.55,
		PositionalEnter:              0.15,
		TacticalDominanceThresholdCP: 300,
		TacticalSlopeThresholdCP:     50,
		TacticalDeltaTactics:         0.3,
		StructureDominanceLimit:      0.4,
		DeltaEvalPositionalCP:        300,
		TensionEvalMin:               -0.9,
		TensionEvalMax:               0.1,
		TensionSymmetryTol:           0.23,
		NeutralTensionBand:           0.12,
		RiskSmallLossCP:              50,
		InitiativeBoostCP:            50,
		TacticalGapFirstChoiceCP:     80,
		TacticalMissLossCP:           150,

		Enabled:               true,
		StrictMode:            false,
		DebugContext:          false,
		EvalDropCP:            25,
		VolatilityDropCP:      36,
		OppMobilityDrop:       3,
		TensionDecMin:         0,
		KSMin:                 15,
		SpaceMin:              1,
		PassedPushMin:         0,
		AllowSeeBlockade:      true,
		LineMin:               2,
		CooldownPlies:         3,
		TacticalWeightCeiling: 0.55,
		PhaseAdjustOpen:       PhaseAdjust{VolBonus: 0, OpMobDrop: 2},
		PhaseAdjustMid:        PhaseAdjust{VolBonus: 0, OpMobDrop: 2},
		PhaseAdjustEnd:        PhaseAdjust{VolBonus: 5, OpMobDrop: 3},
		PlanKillStrict:        true,
		VolGateForPlan:        true,
		Priority:              append([]string{}, CODSubtypes...),
		PriorityEnd: []string{
			"simplify",
			"blockade_passed",
			"king_safety_shell",
			"space_clamp",
			"file_seal",
			"freeze_bind",
			"plan_kill",
			"regroup_consolidate",
			"slowdown",
		},
		RareTypes: map[string]bool{
			"freeze_bind":      true,
			"space_clamp":      true,
			"blockade_passed":  true,
		},
		TieBreakDelta: 1,
		PhaseWeights: map[string]map[string]float64{
			"OPEN": {"space_clamp": 2, "freeze_bind": 2},
			"MID":  {"space_clamp": 2, "freeze_bind": 2},
			"END":  {"blockade_passed": 3, "king_safety_shell": 3},
		},
		SimplifyMinExchange:     2,
		ControlKingSafetyThresh: 0.15,
		BlunderThreatThreshCP:   120,
	}
}

// overridable lists every file/env-recognized key name alongside a setter.
// Unknown keys in the file or environment are ignored per spec §6.
func (t *ThresholdTable) overridable() map[string]func(string) bool {
	setFloat := func(dst *float64) func(string) bool {
		return func(raw string) bool {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return false
			}
			*dst = v
			return true
		}
	}
	setInt := func(dst *int) func(string) bool {
		return func(raw string) bool {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return false
			}
			*dst = int(v)
			return true
		}
	}
	setBool := func(dst *bool) func(string) bool {
		return func(raw string) bool {
			v, ok := coerceBool(raw)
			if !ok {
				return false
			}
			*dst = v
			return true
		}
	}
	setList := func(dst *[]string) func(string) bool {
		return func(raw string) bool {
			*dst = coerceList(raw)
			return true
		}
	}

	m := map[string]func(string) bool{
		"tactical_enter":                    setFloat(&t.TacticalEnter),
		"positional_enter":                  setFloat(&t.PositionalEnter),
		"tension_mobility_min":              setFloat(&t.TensionMobilityMin),
		"tension_mobility_near":             setFloat(&t.TensionMobilityNear),
		"contact_ratio_min":                 setFloat(&t.ContactRatioMin),
		"contact_ratio_delay":               setFloat(&t.ContactRatioDelay),
		"tension_mobility_delay":            setFloat(&t.TensionMobilityDelay),
		"tension_trend_self":                setFloat(&t.TensionTrendSelf),
		"tension_trend_opp":                 setFloat(&t.TensionTrendOpp),
		"tension_sustain_min":               setFloat(&t.TensionSustainMin),
		"tension_sustain_var_cap":           setFloat(&t.TensionSustainVarCap),
		"static_blockage_threshold":         setFloat(&t.StaticBlockageThreshold),
		"static_blockage_hysteresis":        setFloat(&t.StaticBlockageHysteresis),
		"soft_block_scale":                  setFloat(&t.SoftBlockScale),
		"plan_drop_psi_min":                 setFloat(&t.PlanDropPsiMin),
		"plan_drop_eval_cap":                setFloat(&t.PlanDropEvalCap),
		"plan_drop_multipv":                 setInt(&t.PlanDropMultiPV),
		"plan_drop_depth":                   setInt(&t.PlanDropDepth),
		"plan_drop_sample_rate":             setFloat(&t.PlanDropSampleRate),
		"plan_drop_variance_cap":            setFloat(&t.PlanDropVarianceCap),
		"plan_drop_runtime_cap_ms":          setFloat(&t.PlanDropRuntimeCapMs),
		"plan_drop_plan_loss_min":           setFloat(&t.PlanDropPlanLossMin),
		"prophylaxis_preventive_trigger":    setFloat(&t.ProphylaxisPreventiveTrigger),
		"prophylaxis_safety_bonus_cap":      setFloat(&t.ProphylaxisSafetyBonusCap),
		"prophylaxis_threat_drop":           setFloat(&t.ProphylaxisThreatDrop),
		"winning_tau_max":                   setFloat(&t.WinningTauMax),
		"winning_tau_scale":                 setFloat(&t.WinningTauScale),
		"losing_tau_min":                    setFloat(&t.LosingTauMin),
		"losing_tau_scale":                  setFloat(&t.LosingTauScale),
		"soft_gate_midpoint":                setFloat(&t.SoftGateMidpoint),
		"soft_gate_width":                   setFloat(&t.SoftGateWidth),
		"maneuver_constructive_threshold":   setFloat(&t.ManeuverConstructive),
		"maneuver_neutral_threshold":        setFloat(&t.ManeuverNeutral),
		"maneuver_misplaced_threshold":      setFloat(&t.ManeuverMisplaced),
		"maneuver_eval_tolerance":           setFloat(&t.ManeuverEvalTolerance),
		"maneuver_ev_fail_cp":               setFloat(&t.ManeuverEVFailCP),
		"maneuver_ev_protect_cp":            setFloat(&t.ManeuverEVProtectCP),
		"maneuver_timing_neutral":           setFloat(&t.ManeuverTimingNeutral),
		"maneuver_trend_neutral":            setFloat(&t.ManeuverTrendNeutral),
		"maneuver_allow_light_capture":      setBool(&t.ManeuverAllowLightCapture),
		"maneuver_opening_fullmove_cutoff":  setInt(&t.ManeuverOpeningFullmoveCutoff),
		"aggression_threshold":              setFloat(&t.AggressionThreshold),
		"risk_avoidance_mobility_drop":      setFloat(&t.RiskAvoidanceMobilityDrop),
		"structure_weaken_limit":            setFloat(&t.StructureWeakenLimit),
		"mobility_self_limit":               setFloat(&t.MobilitySelfLimit),
		"file_pressure_threshold":           setFloat(&t.FilePressureThreshold),
		"volatility_drop_tolerance":         setFloat(&t.VolatilityDropTolerance),
		"premature_attack_threshold":        setFloat(&t.PrematureAttackThreshold),
		"premature_attack_hard":             setFloat(&t.PrematureAttackHard),

		"control_enabled":                       setBool(&t.Enabled),
		"control_strict_mode":                   setBool(&t.StrictMode),
		"control_debug_context":                 setBool(&t.DebugContext),
		"control_eval_drop_cp":                  setInt(&t.EvalDropCP),
		"control_volatility_drop_cp":            setInt(&t.VolatilityDropCP),
		"control_op_mobility_drop":               setInt(&t.OppMobilityDrop),
		"control_tension_dec_min":                setFloat(&t.TensionDecMin),
		"control_ks_min":                         setFloat(&t.KSMin),
		"control_space_min":                      setInt(&t.SpaceMin),
		"control_passed_push_min":                setInt(&t.PassedPushMin),
		"control_allow_see_blockade":              setBool(&t.AllowSeeBlockade),
		"control_line_min":                        setInt(&t.LineMin),
		"control_cooldown_plies":                  setInt(&t.CooldownPlies),
		"control_tactical_weight_max":             setFloat(&t.TacticalWeightCeiling),
		"control_phase_adjust_open_vol_bonus":      setInt(&t.PhaseAdjustOpen.VolBonus),
		"control_phase_adjust_open_op_mob_drop":    setInt(&t.PhaseAdjustOpen.OpMobDrop),
		"control_phase_adjust_mid_vol_bonus":       setInt(&t.PhaseAdjustMid.VolBonus),
		"control_phase_adjust_mid_op_mob_drop":     setInt(&t.PhaseAdjustMid.OpMobDrop),
		"control_phase_adjust_end_vol_bonus":       setInt(&t.PhaseAdjustEnd.VolBonus),
		"control_phase_adjust_end_op_mob_drop":     setInt(&t.PhaseAdjustEnd.OpMobDrop),
		"control_priority":                         setList(&t.Priority),
		"control_priority_end":                     setList(&t.PriorityEnd),
		"control_plan_kill_strict":                 setBool(&t.PlanKillStrict),
		"control_vol_gate_for_plan":                setBool(&t.VolGateForPlan),
	}
	return m
}

func coerceBool(raw string) (bool, bool) {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	switch lowered {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

func coerceList(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return []string{}
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		text = strings.TrimSpace(text[1 : len(text)-1])
		if text == "" {
			return []string{}
		}
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readOverrideFile parses `key: value # comment` lines, same shape as the
// canonical tag file spec §6 describes.
func readOverrideFile(path string) (map[string]string, error) {
	out := map[string]string{}
	if path == "" {
		return out, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		key := strings.TrimSpace(parts[0])
		value := parts[1]
		if idx := strings.Index(value, "#"); idx >= 0 {
			value = value[:idx]
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, scanner.Err()
}

// envKey mirrors the original's "CONTROL_" + key.upper() convention.
func envKey(key string) string {
	return "CONTROL_" + strings.ToUpper(key)
}

// Load builds a ThresholdTable from compiled-in defaults, an optional
// override file, and CONTROL_-prefixed environment variables (env wins).
// An empty or missing file means "use defaults". Unknown keys are logged
// once at the Warn level and otherwise ignored, satisfying the
// ConfigError taxonomy entry for unrecognized/unconsumed keys.
func Load(filePath string, log *zap.Logger) (*ThresholdTable, error) {
	table := Defaults()
	setters := table.overridable()

	fileEntries, err := readOverrideFile(filePath)
	if err != nil {
		return nil, taperr.Newf(taperr.ConfigError, "reading threshold file %s: %v", filePath, err).WithContext("path", filePath)
	}
	for key, raw := range fileEntries {
		setter, ok := setters[key]
		if !ok {
			if log != nil {
				log.Warn("unrecognized threshold override key in file", zap.String("key", key))
			}
			continue
		}
		if !setter(raw) {
			if log != nil {
				log.Warn("could not coerce threshold override value", zap.String("key", key), zap.String("value", raw))
			}
		}
	}

	for key, setter := range setters {
		raw, ok := os.LookupEnv(envKey(key))
		if !ok {
			continue
		}
		if !setter(raw) {
			if log != nil {
				log.Warn("could not coerce threshold environment override", zap.String("env", envKey(key)), zap.String("value", raw))
			}
		}
	}

	return table, nil
}
