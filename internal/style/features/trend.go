package features

import "github.com/kestrelchess/styletagger/internal/style/metrics"

// computeDeltaSequence returns, for every snapshot in sequence, the
// per-component delta relative to base.
func computeDeltaSequence(base map[string]float64, sequence []map[string]float64) []map[string]float64 {
	deltas := make([]map[string]float64, 0, len(sequence))
	for _, snap := range sequence {
		d := make(map[string]float64, len(metrics.Keys))
		for _, k := range metrics.Keys {
			d[k] = round3(snap[k] - base[k])
		}
		deltas = append(deltas, d)
	}
	return deltas
}

var emaWeights = []float64{0.6, 0.3, 0.1}

// emaTrend is a weighted average of the mobility component across the
// first plies of deltas, weights [0.6, 0.3, 0.1] truncated to len(deltas).
func emaTrend(deltas []map[string]float64) float64 {
	if len(deltas) == 0 {
		return 0
	}
	weights := emaWeights
	if len(deltas) < len(weights) {
		weights = weights[:len(deltas)]
	}
	total := 0.0
	trend := 0.0
	for i, w := range weights {
		total += w
		trend += w * deltas[i]["mobility"]
	}
	if total == 0 {
		return 0
	}
	return trend / total
}

// windowStats returns the mean and (population) variance of the
// absolute mobility delta over the first `steps` plies, or (0,0) if
// fewer than `steps` plies are available.
func windowStats(deltas []map[string]float64, steps int) (float64, float64) {
	if len(deltas) < steps {
		return 0, 0
	}
	window := deltas[:steps]
	values := make([]float64, len(window))
	mean := 0.0
	for i, entry := range window {
		values[i] = absF(entry["mobility"])
		mean += values[i]
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, variance
}
