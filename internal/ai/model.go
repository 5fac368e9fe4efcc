package ai

import (
	"context"

	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// Model is the flat capability interface shared by the four base
// predictors. The coordinator only ever talks to this; there are exactly
// four implementations (Markov, NaiveBayes, QLearning, MCTS) and no
// hierarchy between them.
type Model interface {
	Name() string

	// Score rates every candidate on the model's native scale (Markov:
	// probability, Bayes: relative likelihood, Q-learning: Q-value,
	// MCTS: average rollout reward). Scales differ per model; the
	// coordinator normalizes before voting. A model that cannot rate a
	// candidate returns it with its neutral score rather than omitting it.
	Score(ctx context.Context, s *wordgame.State, candidates []string) (map[string]float64, error)

	// Observe feeds the resolved move back as a training signal. Never
	// returns an error: malformed signals are clamped and logged so a bad
	// outcome cannot interrupt the game.
	Observe(ctx context.Context, s *wordgame.State, out wordgame.Outcome)

	// Observations counts Observe calls that reached this model. Exposed
	// for stats reporting.
	Observations() uint64

	// Checkpoint flushes buffered learning deltas to the store. Called at
	// decision boundaries (end of turn/game), never per update.
	Checkpoint(ctx context.Context) error
}

// Suggestion is one model's top pick with its native-scale confidence.
type Suggestion struct {
	Word       string
	Confidence float64
}

// bestOf returns the top-scored candidate from a score map, breaking ties
// lexically for determinism.
func bestOf(scores map[string]float64) Suggestion {
	var best Suggestion
	first := true
	for w, sc := range scores {
		if first || sc > best.Confidence || (sc == best.Confidence && w < best.Word) {
			best = Suggestion{Word: w, Confidence: sc}
			first = false
		}
	}
	return best
}
