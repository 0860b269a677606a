package schema

// CanonSchemaVersion is the current canonical schema identifier, bumped
// whenever CanonTagRecord's shape changes in a way callers must know
// about.
const CanonSchemaVersion = "canon_v1"

// CanonTagRecord is the versioned, engine-agnostic representation every
// raw tagger payload normalizes down to, spec §6's "canonical tag
// schema". It is the stable contract external consumers (the player
// style tracker, downstream analytics) read instead of the raw detector
// output, which is free to change shape between ruleset versions.
type CanonTagRecord struct {
	RulesetVersion        string
	RulesetVersionClaimed string
	VersionCorrected      bool
	CanonSchema           string

	EvalBefore *float64
	EvalPlayed *float64
	EvalBest   *float64

	Tags []string

	Sacrifice   map[string]bool
	Maneuver    map[string]any
	Prophylaxis map[string]any

	EngineMeta map[string]any
	Notes      map[string]any

	RawPayload map[string]any
}

// versionFingerprint is the set of threshold values a ruleset version's
// telemetry is expected to carry, used to infer a version when the
// payload doesn't declare one (or declares one outside the registry).
type versionFingerprint struct {
	TensionMobilityMin           float64
	ContactRatioMin              float64
	ManeuverEvalTolerance        float64
	ProphylaxisPreventiveTrigger float64
}

var fingerprintKeys = []string{
	"tension_mobility_min",
	"contact_ratio_min",
	"maneuver_eval_tolerance",
	"prophylaxis_preventive_trigger",
}

func (f versionFingerprint) value(key string) float64 {
	switch key {
	case "tension_mobility_min":
		return f.TensionMobilityMin
	case "contact_ratio_min":
		return f.ContactRatioMin
	case "maneuver_eval_tolerance":
		return f.ManeuverEvalTolerance
	case "prophylaxis_preventive_trigger":
		return f.ProphylaxisPreventiveTrigger
	default:
		return 0
	}
}

var fingerprints = map[string]versionFingerprint{
	"rulestack_2025-10-20": {
		TensionMobilityMin:           0.38,
		ContactRatioMin:              0.04,
		ManeuverEvalTolerance:        0.12,
		ProphylaxisPreventiveTrigger: 0.15,
	},
	"rulestack_2025-11-03": {
		TensionMobilityMin:           0.38,
		ContactRatioMin:              0.04,
		ManeuverEvalTolerance:        0.12,
		ProphylaxisPreventiveTrigger: 0.08,
	},
}

// normalizer converts one raw payload, already known to be of the given
// ruleset version, into a CanonTagRecord.
type normalizer func(raw map[string]any, version string) CanonTagRecord

// registry is the supported-version → normalizer table, ported from
// versions.py's REGISTRY; SUPPORTED is its key set.
var registry = map[string]normalizer{
	"rulestack_2025-10-20": normalizeV20251020,
	"rulestack_2025-11-03": normalizeV20251103,
}

func supportedVersion(v string) bool {
	_, ok := registry[v]
	return ok
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// extractEngineMeta mirrors versions.py's _extract_meta: engine_meta
// lives either under analysis_context.engine_meta or directly at the
// top level.
func extractEngineMeta(raw map[string]any) map[string]any {
	if ctx := asMap(raw["analysis_context"]); ctx != nil {
		if meta := asMap(ctx["engine_meta"]); meta != nil {
			return meta
		}
	}
	return asMap(raw["engine_meta"])
}

// inferVersionByFingerprint mirrors fingerprints.py's
// infer_version_by_fingerprint: scores each known version by how many
// of its fingerprint threshold values match the payload's telemetry
// within a small tolerance, and returns the best match if it clears a
// minimum of two matching keys.
func inferVersionByFingerprint(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	tele := asMap(asMap(meta["prophylaxis"])["telemetry"])
	thresholds := asMap(asMap(meta["tension_support"])["thresholds"])

	bestVersion := ""
	bestScore := -1
	for _, version := range sortedFingerprintVersions() {
		fp := fingerprints[version]
		score := 0
		for _, key := range fingerprintKeys {
			var raw any
			if thresholds != nil {
				raw = thresholds[key]
			}
			if raw == nil && tele != nil {
				raw = tele[key]
			}
			value, ok := asFloat(raw)
			if !ok {
				continue
			}
			if abs64(value-fp.value(key)) <= 1e-3 {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestVersion = version
		}
	}
	if bestScore >= 2 {
		return bestVersion
	}
	return ""
}

// sortedFingerprintVersions gives deterministic iteration order over the
// fingerprint table so a tie always resolves the same way.
func sortedFingerprintVersions() []string {
	return []string{"rulestack_2025-10-20", "rulestack_2025-11-03"}
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// DetectVersion mirrors versions.py's detect_version: a declared,
// registry-known version wins outright; failing that, a fingerprint
// match against telemetry thresholds; failing that, the declared
// (but unsupported) version is still returned as a hint; otherwise
// "unknown".
func DetectVersion(raw map[string]any) string {
	meta := extractEngineMeta(raw)
	claimed, _ := meta["ruleset_version"].(string)
	if claimed != "" && supportedVersion(claimed) {
		return claimed
	}
	if inferred := inferVersionByFingerprint(meta); inferred != "" {
		return inferred
	}
	if claimed != "" {
		return claimed
	}
	return "unknown"
}

// NormalizeToCanon mirrors versions.py's normalize_to_canon: detects the
// version, looks up its normalizer, and falls back to the oldest known
// normalizer when the detected version has none registered (an unknown
// or unsupported version is still normalized on a best-effort basis
// rather than rejected, and the record carries the oldest version as its
// RulesetVersion).
func NormalizeToCanon(raw map[string]any) CanonTagRecord {
	version := DetectVersion(raw)
	norm, ok := registry[version]
	if !ok {
		version = "rulestack_2025-10-20"
		norm = normalizeV20251020
	}
	return norm(raw, version)
}

// collectTags mirrors normalizers.py's _collect_tags: prefer an explicit
// trigger_order/tags_secondary list, falling back to the keys of a
// tag_flags boolean map, de-duplicated in first-seen order.
func collectTags(raw map[string]any) []string {
	meta := extractEngineMeta(raw)
	var ordered []any
	if meta != nil {
		if v, ok := meta["trigger_order"].([]any); ok && len(v) > 0 {
			ordered = v
		} else if v, ok := meta["tags_secondary"].([]any); ok && len(v) > 0 {
			ordered = v
		} else if flags := asMap(meta["tag_flags"]); flags != nil {
			for name, active := range flags {
				if b, ok := active.(bool); ok && b {
					ordered = append(ordered, name)
				}
			}
		}
	}
	seen := make(map[string]bool, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, v := range ordered {
		s, ok := v.(string)
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func floatPtr(raw map[string]any, key string) *float64 {
	v, ok := asFloat(raw[key])
	if !ok {
		return nil
	}
	return &v
}

// baseRecord mirrors normalizers.py's _base_record.
func baseRecord(raw map[string]any, version string) CanonTagRecord {
	meta := extractEngineMeta(raw)
	claimed, _ := meta["ruleset_version"].(string)

	notes := asMap(raw["notes"])
	if notes == nil {
		notes = map[string]any{}
	}

	return CanonTagRecord{
		RulesetVersion:        version,
		RulesetVersionClaimed: claimed,
		VersionCorrected:      claimed != "" && claimed != version,
		CanonSchema:           CanonSchemaVersion,
		EvalBefore:            floatPtr(raw, "eval_before"),
		EvalPlayed:            floatPtr(raw, "eval_played"),
		EvalBest:              floatPtr(raw, "eval_best"),
		Tags:                  collectTags(raw),
		EngineMeta:            meta,
		Notes:                 notes,
		RawPayload:            raw,
	}
}

// collectSacrificeTags mirrors normalizers.py's _collect_sacrifice_tags.
func collectSacrificeTags(record CanonTagRecord) map[string]bool {
	tagSet := make(map[string]bool, len(record.Tags))
	for _, t := range record.Tags {
		tagSet[t] = true
	}
	return map[string]bool{
		"tactical":            tagSet["tactical_sacrifice"],
		"positional":          tagSet["positional_sacrifice"],
		"inaccurate_tactical": tagSet["inaccurate_tactical_sacrifice"],
		"speculative":         tagSet["speculative_sacrifice"],
		"desperate":           tagSet["desperate_sacrifice"],
		"combination":         tagSet["tactical_combination_sacrifice"],
		"initiative":          tagSet["tactical_initiative_sacrifice"],
		"pos_structure":       tagSet["positional_structure_sacrifice"],
		"pos_space":           tagSet["positional_space_sacrifice"],
	}
}

// normalizeV20251020 mirrors normalizers.py's normalize_v_2025_10_20.
func normalizeV20251020(raw map[string]any, version string) CanonTagRecord {
	record := baseRecord(raw, version)
	record.Sacrifice = collectSacrificeTags(record)
	record.Maneuver = map[string]any{
		"precision": raw["maneuver_precision_score"],
		"timing":    raw["maneuver_timing_score"],
	}

	prophylaxisMeta := asMap(record.EngineMeta["prophylaxis"])
	components := asMap(prophylaxisMeta["components"])
	var quality any
	if prophylaxisMeta != nil {
		quality = prophylaxisMeta["quality"]
	}
	record.Prophylaxis = map[string]any{
		"preventive_score":     components["preventive_score"],
		"effective_preventive": components["effective_preventive"],
		"quality":              quality,
	}
	return record
}

// normalizeV20251103 mirrors normalizers.py's normalize_v_2025_11_03,
// which is a pure alias of the 2025-10-20 normalizer — the schema
// didn't change between these two ruleset releases, only the default
// thresholds did.
func normalizeV20251103(raw map[string]any, version string) CanonTagRecord {
	return normalizeV20251020(raw, version)
}
