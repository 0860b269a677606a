// Package blunder implements the hard dominance gate consulted at the
// engine layer, separate from the detector bank: it decides whether the
// top engine candidate dominates the field clearly enough that anything
// else is a blunder by comparison, and applies an inaccuracy penalty when
// adjacent candidate scores swing sharply.
package blunder

// Candidate is the minimal shape the gate needs from a ranked engine
// candidate move.
type Candidate struct {
	UCI     string
	ScoreCP *int
}

// GateResult mirrors the reference gate's returned metadata.
type GateResult struct {
	Triggered      bool
	GapCP          *int
	ThresholdCP    int
	CutoffCP       int
	Engine1Index   int
	KeptIndices    []int
	DroppedIndices []int
}

// FilterCandidates drops any candidate whose score is at or below
// cutoffCP, returning the survivors plus the original indices of both the
// kept and dropped candidates.
func FilterCandidates(candidates []Candidate, cutoffCP int) (kept []Candidate, keptIndices, droppedIndices []int) {
	for idx, c := range candidates {
		if c.ScoreCP != nil && *c.ScoreCP <= cutoffCP {
			droppedIndices = append(droppedIndices, idx)
			continue
		}
		kept = append(kept, c)
		keptIndices = append(keptIndices, idx)
	}
	return kept, keptIndices, droppedIndices
}

// EvaluateEngineGap reports whether the engine's first-ranked surviving
// candidate dominates its second-ranked one by at least thresholdCP.
func EvaluateEngineGap(candidates []Candidate, thresholdCP, cutoffCP int) GateResult {
	kept, keptIndices, droppedIndices := FilterCandidates(candidates, cutoffCP)
	result := GateResult{
		ThresholdCP:    thresholdCP,
		CutoffCP:       cutoffCP,
		Engine1Index:   0,
		KeptIndices:    keptIndices,
		DroppedIndices: droppedIndices,
	}
	if len(kept) < 2 {
		return result
	}
	if kept[0].ScoreCP == nil || kept[1].ScoreCP == nil {
		return result
	}

	gap := *kept[0].ScoreCP - *kept[1].ScoreCP
	result.GapCP = &gap
	result.Triggered = gap >= thresholdCP
	if len(keptIndices) > 0 {
		result.Engine1Index = keptIndices[0]
	}
	return result
}

// ForcedProbabilities returns a probability vector with the engine's top
// pick forced to 1.0 and everything else to 0.0, the shape the gate hands
// downstream once dominance triggers.
func ForcedProbabilities(n, engine1Index int) []float64 {
	probs := make([]float64, n)
	if engine1Index >= 0 && engine1Index < n {
		probs[engine1Index] = 1.0
	}
	return probs
}

// ApplyInaccuracyPatch walks adjacent candidate scores looking for a
// sharp drop (more than gapCP) or a sign flip; from the first such point
// onward it shaves 0.05 off every probability (floored at 0) and flags
// those entries as inaccuracy-affected.
func ApplyInaccuracyPatch(candidates []Candidate, probabilities []float64, gapCP int) ([]float64, []bool) {
	adjusted := append([]float64(nil), probabilities...)
	flags := make([]bool, len(probabilities))

	if len(candidates) == 0 || len(probabilities) == 0 || len(candidates) != len(probabilities) {
		return adjusted, flags
	}

	scores := make([]int, len(candidates))
	for i, c := range candidates {
		if c.ScoreCP == nil {
			return adjusted, flags
		}
		scores[i] = *c.ScoreCP
	}

	triggerIndex := -1
	for idx := 1; idx < len(scores); idx++ {
		prev, curr := scores[idx-1], scores[idx]
		if (prev-curr) > gapCP || (prev >= 0 && curr < 0) || (prev <= 0 && curr > 0) {
			triggerIndex = idx
			break
		}
	}
	if triggerIndex == -1 {
		return adjusted, flags
	}

	for idx := triggerIndex; idx < len(adjusted); idx++ {
		adjusted[idx] -= 0.05
		if adjusted[idx] < 0 {
			adjusted[idx] = 0
		}
		flags[idx] = true
	}
	return adjusted, flags
}
