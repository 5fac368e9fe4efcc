package ai

import "time"

// TieBreak selects how the ensemble resolves candidates with identical
// combined scores.
type TieBreak string

const (
	// TieBreakLexical picks the lexicographically smallest word.
	// Deterministic regardless of seed.
	TieBreakLexical TieBreak = "lexical"
	// TieBreakRandom picks uniformly among the tied words using the
	// package RNG; deterministic under SeedAIRng.
	TieBreakRandom TieBreak = "random"
)

// Params is the immutable configuration supplied to every model at
// construction time. Copies are passed by value; nothing mutates it after
// NewCoordinator.
type Params struct {
	LearningRate     float64       // Q-learning α
	DiscountFactor   float64       // Q-learning γ
	ExplorationRate  float64       // ε-greedy exploration probability
	SmoothingEpsilon float64       // additive smoothing for Bayes likelihoods
	MarkovOrder      int           // context length for letter transitions
	TopK             int           // predictions returned by Markov Predict
	MCTSBudget       time.Duration // hard wall-clock ceiling per search
	MCTSMaxIters     int           // hard iteration ceiling per search
	MCTSMaxDepth     int           // rollout depth bound
	UCTConstant      float64       // exploration constant in UCT selection
	TurnBudget       time.Duration // whole-ensemble decision ceiling
	TieBreak         TieBreak
	HistoryWindow    int // last-N words folded into the state key
}

// DefaultParams mirrors the tuning the models were developed with.
func DefaultParams() Params {
	return Params{
		LearningRate:     0.1,
		DiscountFactor:   0.9,
		ExplorationRate:  0.2,
		SmoothingEpsilon: 0.5,
		MarkovOrder:      2,
		TopK:             5,
		MCTSBudget:       250 * time.Millisecond,
		MCTSMaxIters:     2000,
		MCTSMaxDepth:     4,
		UCTConstant:      1.414,
		TurnBudget:       2 * time.Second,
		TieBreak:         TieBreakLexical,
		HistoryWindow:    3,
	}
}

// rewardScale converts a raw game score into the reward range shared by
// the Q-learning table and the meta-selector.
const rewardScale = 10.0

// Reward bounds. Training signals outside this range are clamped, never
// propagated (a malformed signal must not poison the tables).
const (
	minReward = -1.0
	maxReward = 10.0
)

func clampReward(r float64) float64 {
	if r < minReward {
		return minReward
	}
	if r > maxReward {
		return maxReward
	}
	return r
}
