package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"gorgonia.org/tensor"

	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/internal/store"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// EnsembleDecision is the move the coordinator hands back to the engine,
// with enough provenance to be logged as a training signal.
type EnsembleDecision struct {
	Word         string
	Confidence   float64            // combined weighted vote share, 0..1
	Contributors []string           // models whose top pick matched
	Weights      map[string]float64 // per-model vote weight used
	State        StateKey
	Features     *tensor.Dense // dense state encoding, emitted with the outcome record
}

// pendingDecision holds what Observe needs to close the loop on the last
// Decide: the state it was made in and each model's normalized ranking.
type pendingDecision struct {
	state      *wordgame.State
	key        StateKey
	normalized map[string]map[string]float64 // model -> candidate -> [0,1]
	decision   EnsembleDecision
}

// Coordinator queries the four base models, combines their rankings by
// confidence-weighted voting, and routes every resolved outcome back as a
// shared training signal. Vote weights are tuned online by a meta-level
// Q-learner whose action space is the set of base model names.
type Coordinator struct {
	p      Params
	st     store.Store
	enc    *StateEncoder
	markov *MarkovModel
	bayes  *NaiveBayesModel
	qlearn *QLearningModel
	mcts   *MCTSModel
	models []Model
	meta   *QLearningModel
	log    zerolog.Logger

	mu   sync.Mutex
	last *pendingDecision
}

// NewCoordinator builds the full ensemble over one store. Params are
// copied; the configuration is immutable after this call.
func NewCoordinator(p Params, st store.Store) *Coordinator {
	enc := NewStateEncoder(p.HistoryWindow)
	c := &Coordinator{
		p:      p,
		st:     st,
		enc:    enc,
		markov: NewMarkovModel(p, st, enc),
		bayes:  NewNaiveBayesModel(p, st),
		qlearn: NewQLearningModel(p, st, enc),
		mcts:   NewMCTSModel(p, st, enc),
		meta:   NewMetaSelector(p, st, enc),
		log:    logger.Get().With().Str("component", "ensemble").Logger(),
	}
	c.models = []Model{c.markov, c.bayes, c.qlearn, c.mcts}
	return c
}

// Load warms every model from the store. Failures degrade to cold starts.
func (c *Coordinator) Load(ctx context.Context) error {
	if err := c.markov.Load(ctx); err != nil {
		return err
	}
	if err := c.bayes.Load(ctx); err != nil {
		return err
	}
	if err := c.qlearn.Load(ctx); err != nil {
		return err
	}
	if err := c.mcts.Load(ctx); err != nil {
		return err
	}
	return c.meta.Load(ctx)
}

// Models exposes the base models in their fixed order.
func (c *Coordinator) Models() []Model { return c.models }

// Markov, Bayes, QLearning, and MCTS expose the concrete models for
// training harness access.
func (c *Coordinator) Markov() *MarkovModel          { return c.markov }
func (c *Coordinator) Bayes() *NaiveBayesModel       { return c.bayes }
func (c *Coordinator) QLearning() *QLearningModel    { return c.qlearn }
func (c *Coordinator) MCTS() *MCTSModel              { return c.mcts }
func (c *Coordinator) MetaSelector() *QLearningModel { return c.meta }

// Weights returns the current per-model vote weight for a state:
// 1 + the meta Q-value for trusting that model there, floored at 0.1 so a
// model is never silenced entirely. Before any meta learning all weights
// are exactly 1.
func (c *Coordinator) Weights(s *wordgame.State) map[string]float64 {
	key, err := c.enc.Encode(s)
	if err != nil {
		key = ""
	}
	out := make(map[string]float64, len(c.models))
	for _, m := range c.models {
		w := 1.0 + c.meta.Entry(key, m.Name()).QValue
		if w < 0.1 {
			w = 0.1
		}
		out[m.Name()] = w
	}
	return out
}

// Decide queries each model for its ranking of the candidates, min-max
// normalizes each model's native-scale scores over this candidate set
// (an all-equal ranking normalizes to 1.0 everywhere, degenerating to a
// pure weight vote), and returns the weighted-vote winner.
//
// Deterministic given identical model state, candidate set, and RNG seed.
// Each model gets an equal share of the turn budget; a model that errors
// or times out is skipped and the vote proceeds on partial results.
func (c *Coordinator) Decide(ctx context.Context, s *wordgame.State, candidates []string) (EnsembleDecision, error) {
	if len(candidates) == 0 {
		return EnsembleDecision{}, ErrNoCandidates
	}
	key, err := c.enc.Encode(s)
	if err != nil {
		return EnsembleDecision{}, err
	}
	features, err := c.enc.Features(s)
	if err != nil {
		return EnsembleDecision{}, err
	}

	weights := c.Weights(s)
	share := c.p.TurnBudget / 4

	normalized := make(map[string]map[string]float64, len(c.models))
	combined := make(map[string]float64, len(candidates))
	for _, m := range c.models {
		mctx, cancel := context.WithTimeout(ctx, share)
		scores, err := m.Score(mctx, s, candidates)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Str("model", m.Name()).Msg("model skipped this decision")
			continue
		}
		norm := minMaxNormalize(scores, candidates)
		normalized[m.Name()] = norm
		for _, cand := range candidates {
			combined[cand] += weights[m.Name()] * norm[cand]
		}
	}
	if len(normalized) == 0 {
		return EnsembleDecision{}, fmt.Errorf("decide: every model failed: %w", ErrNoCandidates)
	}

	best := c.pickWinner(candidates, combined)

	totalWeight := 0.0
	for name := range normalized {
		totalWeight += weights[name]
	}
	var contributors []string
	for _, m := range c.models {
		norm, ok := normalized[m.Name()]
		if ok && bestOf(norm).Word == best {
			contributors = append(contributors, m.Name())
		}
	}

	decision := EnsembleDecision{
		Word:         best,
		Confidence:   combined[best] / totalWeight,
		Contributors: contributors,
		Weights:      weights,
		State:        key,
		Features:     features,
	}

	c.mu.Lock()
	c.last = &pendingDecision{
		state:      s.Clone(),
		key:        key,
		normalized: normalized,
		decision:   decision,
	}
	c.mu.Unlock()

	c.log.Debug().
		Str("word", best).
		Float64("confidence", decision.Confidence).
		Strs("contributors", contributors).
		Msg("ensemble decision")
	return decision, nil
}

// pickWinner selects the highest combined score, applying the configured
// tie-break policy. Iteration follows candidate order, never map order.
func (c *Coordinator) pickWinner(candidates []string, combined map[string]float64) string {
	best := candidates[0]
	tied := []string{best}
	for _, cand := range candidates[1:] {
		switch {
		case combined[cand] > combined[best]:
			best = cand
			tied = tied[:0]
			tied = append(tied, cand)
		case combined[cand] == combined[best]:
			tied = append(tied, cand)
		}
	}
	if len(tied) <= 1 {
		return best
	}
	switch c.p.TieBreak {
	case TieBreakRandom:
		return tied[aiIntn(len(tied))]
	default: // TieBreakLexical
		lex := tied[0]
		for _, w := range tied[1:] {
			if w < lex {
				lex = w
			}
		}
		return lex
	}
}

// Observe fans the resolved outcome out to every base model - the single
// point where all four learn from the same ground truth - and rewards the
// meta-selector for each model in proportion to how strongly that model
// had endorsed the actual word. An outcome arriving without a preceding
// Decide is dropped with a warning.
func (c *Coordinator) Observe(ctx context.Context, out wordgame.Outcome) {
	c.mu.Lock()
	last := c.last
	c.last = nil
	c.mu.Unlock()

	if last == nil {
		c.log.Warn().Str("word", out.Word).Msg("outcome without pending decision dropped")
		return
	}

	c.log.Info().
		Str("predicted", last.decision.Word).
		Str("actual", out.Word).
		Bool("accepted", out.Accepted).
		Int("score", out.Score).
		Msg("outcome observed")
	if f := last.decision.Features; f != nil {
		c.log.Debug().
			Floats64("features", f.Data().([]float64)).
			Str("actual", out.Word).
			Int("score", out.Score).
			Msg("training record")
	}

	for _, m := range c.models {
		m.Observe(ctx, last.state, out)
	}

	// Meta reward: the move's scaled score, attributed per model by how
	// highly that model ranked the word that was actually played.
	base := clampReward(float64(out.Score) / rewardScale)
	if !out.Accepted {
		base = minReward
	}
	for _, m := range c.models {
		norm, ok := last.normalized[m.Name()]
		if !ok {
			continue
		}
		endorsement := norm[out.Word]
		c.meta.Update(last.key, m.Name(), base*endorsement, last.key)
	}
}

// Checkpoint flushes every model's buffered learning to the store. Called
// at decision boundaries (end of turn or game), never per update.
func (c *Coordinator) Checkpoint(ctx context.Context) error {
	for _, m := range c.models {
		if err := m.Checkpoint(ctx); err != nil {
			return err
		}
	}
	return c.meta.Checkpoint(ctx)
}

// Reset drops every learned table. This is the explicit cleanup that
// replaces relational cascade deletes; nothing else ever deletes learning
// rows.
func (c *Coordinator) Reset(ctx context.Context) error {
	for _, kind := range []store.Kind{
		store.KindMarkov, store.KindBayes, store.KindQLearning,
		store.KindMCTS, store.KindEnsemble,
	} {
		if err := c.st.DeleteAll(ctx, kind); err != nil {
			return fmt.Errorf("reset %s: %w", kind, err)
		}
	}
	return nil
}
