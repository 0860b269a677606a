// Package features assembles the per-move FeatureBundle the detector
// bank and mode selector consume: board-derived metrics on three
// positions, engine deltas, contact/material/coverage profiles, followup
// trend simulations, and the two auxiliary flags (risk avoidance, intent
// hint).
package features

import "github.com/kestrelchess/styletagger/internal/style/styleengine"

// ContactProfile is the captures+checks ratio on one board plus the two
// deltas relative to the before board, rounded to 3 decimals like the
// reference pipeline.
type ContactProfile struct {
	Before      float64
	Played      float64
	Best        float64
	DeltaPlayed float64
	DeltaBest   float64
}

// MaterialProfile is the mover's material balance before/after the
// played move.
type MaterialProfile struct {
	Before    int
	After     int
	DeltaSelf int
}

// CoverageProfile is the mover's attacked-square count before/after.
type CoverageProfile struct {
	Before int
	After  int
	Delta  int
}

// FollowupTrends holds the EMA trend (weights [0.6, 0.3, 0.1] over the
// first plies) for self/opp mobility deltas along the played and best
// lines, plus a small-window mean/variance of the self-mobility deltas
// along the played line.
type FollowupTrends struct {
	SelfTrend     float64
	OppTrend      float64
	SelfTrendBest float64
	OppTrendBest  float64
	WindowMean    float64
	WindowVar     float64
}

// IntentHint labels the mover's apparent plan from the before/played
// metric deltas.
type IntentHint struct {
	Label   string
	Signals map[string]float64
}

// FeatureBundle is the complete, immutable signal set for one move
// evaluation.
type FeatureBundle struct {
	FEN        string
	PlayedMove string
	BestMove   string
	PlayedKind styleengine.MoveKind
	BestKind   styleengine.MoveKind

	TacticalWeight float64

	MetricsBefore, MetricsPlayed, MetricsBest          map[string]float64
	OppMetricsBefore, OppMetricsPlayed, OppMetricsBest map[string]float64

	ComponentDeltas    map[string]float64
	OppComponentDeltas map[string]float64

	ChangePlayedVsBefore    map[string]float64
	OppChangePlayedVsBefore map[string]float64

	Contact  ContactProfile
	Material MaterialProfile
	Coverage CoverageProfile

	FollowSelfDeltas     []map[string]float64
	FollowOppDeltas      []map[string]float64
	FollowSelfDeltasBest []map[string]float64
	FollowOppDeltasBest  []map[string]float64
	Trends               FollowupTrends

	RiskAvoidance bool
	Intent        IntentHint

	EvalBeforeCP int
	EvalPlayedCP int
	EvalBestCP   int
	DeltaEvalCP  int
	DeltaEval    float64

	AnalysisMeta styleengine.AnalysisMeta
}
