package ai

// minMaxNormalize rescales one model's native-scale scores into [0,1] over
// the candidate set of a single decision. Models emit incomparable scales
// (probabilities, log-likelihood ratios, Q-values, average rewards), so
// the ensemble never compares raw scores across models; it compares
// normalized rankings. When a model scores every candidate identically it
// carries no ranking information, and every candidate normalizes to 1.0
// so the model's vote degenerates to its bare weight.
func minMaxNormalize(scores map[string]float64, candidates []string) map[string]float64 {
	out := make(map[string]float64, len(candidates))
	first := true
	var lo, hi float64
	for _, c := range candidates {
		v := scores[c]
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		for _, c := range candidates {
			out[c] = 1.0
		}
		return out
	}
	for _, c := range candidates {
		out[c] = (scores[c] - lo) / (hi - lo)
	}
	return out
}
