package ai

import "math/rand"

// aiRng is the package-level random source used by every stochastic path
// in the decision core (exploration draws, rollouts, random tie-breaks).
// When nil, the functions below delegate to the global math/rand default.
// Use SeedAIRng to set a deterministic source for reproducible decisions.
var aiRng *rand.Rand

// SeedAIRng sets a deterministic random source for reproducible behavior.
func SeedAIRng(seed int64) {
	aiRng = rand.New(rand.NewSource(seed))
}

// ResetAIRng reverts to the default (non-deterministic) global random source.
func ResetAIRng() {
	aiRng = nil
}

func aiFloat64() float64 {
	if aiRng != nil {
		return aiRng.Float64()
	}
	return rand.Float64()
}

func aiIntn(n int) int {
	if aiRng != nil {
		return aiRng.Intn(n)
	}
	return rand.Intn(n)
}

func aiShuffle(n int, swap func(i, j int)) {
	if aiRng != nil {
		aiRng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
