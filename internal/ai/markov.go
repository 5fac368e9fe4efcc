package ai

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/internal/store"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// MarkovModel learns symbol transition counts (letters within words, words
// within a game) and predicts likely continuations. Probabilities are
// always derived from counts at read time; only counts are stored, so the
// two can never drift apart.
type MarkovModel struct {
	order int
	topK  int
	st    store.Store
	enc   *StateEncoder
	log   zerolog.Logger

	mu           sync.Mutex
	transitions  map[string]map[string]float64 // context -> next -> count
	totals       map[string]float64            // context -> Σ counts
	symbolTotals map[string]float64            // next symbol -> total observations
	pending      map[string]float64            // store key -> unflushed delta
	observations uint64
}

// Prediction is one ranked next-symbol candidate.
type Prediction struct {
	Symbol      string
	Probability float64
}

// NewMarkovModel creates a Markov model persisting under store.KindMarkov.
func NewMarkovModel(p Params, st store.Store, enc *StateEncoder) *MarkovModel {
	order := p.MarkovOrder
	if order < 1 {
		order = 1
	}
	return &MarkovModel{
		order:        order,
		topK:         p.TopK,
		st:           st,
		enc:          enc,
		log:          logger.ForModel("markov"),
		transitions:  make(map[string]map[string]float64),
		totals:       make(map[string]float64),
		symbolTotals: make(map[string]float64),
		pending:      make(map[string]float64),
	}
}

func (m *MarkovModel) Name() string { return "markov" }

// Load warms the in-memory counts from the store. Safe to call on an empty
// table; a missing backend only costs the model its cross-session memory.
func (m *MarkovModel) Load(ctx context.Context) error {
	entries, err := m.st.Scan(ctx, store.KindMarkov, "t|")
	if err != nil {
		m.log.Warn().Err(err).Msg("markov load failed, starting cold")
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, count := range entries {
		parts := store.SplitKey(k)
		if len(parts) != 3 {
			continue
		}
		m.addLocked(parts[1], parts[2], count)
	}
	return nil
}

// Train increments transition counts for every adjacent pair in the
// ordered sequence. Symbols may be single letters or whole words.
func (m *MarkovModel) Train(sequence []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i+1 < len(sequence); i++ {
		cur := strings.ToUpper(sequence[i])
		next := strings.ToUpper(sequence[i+1])
		if cur == "" || next == "" {
			continue
		}
		m.recordLocked(cur, next, 1)
	}
}

// TrainWord decomposes a word into order-length letter contexts and
// increments the letter transition for each.
func (m *MarkovModel) TrainWord(word string) {
	w := strings.ToUpper(word)
	if len(w) <= m.order {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i+m.order < len(w); i++ {
		m.recordLocked(w[i:i+m.order], string(w[i+m.order]), 1)
	}
}

func (m *MarkovModel) recordLocked(cur, next string, count float64) {
	m.addLocked(cur, next, count)
	m.pending[store.Key("t", cur, next)] += count
}

func (m *MarkovModel) addLocked(cur, next string, count float64) {
	t, ok := m.transitions[cur]
	if !ok {
		t = make(map[string]float64)
		m.transitions[cur] = t
	}
	t[next] += count
	m.totals[cur] += count
	m.symbolTotals[next] += count
}

// Predict normalizes the counts out of context into a probability
// distribution and returns the top-K next symbols. Equal probabilities are
// broken toward the symbol with the lower total observed count, preferring
// less-explored options; the inverse of the Q-learning exploit tie-break.
// An unseen context yields a uniform distribution over the known alphabet
// (A-Z before anything has been observed), never an error.
func (m *MarkovModel) Predict(context string) []Prediction {
	ctx := strings.ToUpper(context)
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.transitions[ctx]
	total := m.totals[ctx]

	var preds []Prediction
	if total <= 0 || len(next) == 0 {
		alphabet := m.alphabetLocked()
		p := 1.0 / float64(len(alphabet))
		for _, sym := range alphabet {
			preds = append(preds, Prediction{Symbol: sym, Probability: p})
		}
	} else {
		for sym, count := range next {
			preds = append(preds, Prediction{Symbol: sym, Probability: count / total})
		}
	}

	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Probability != preds[j].Probability {
			return preds[i].Probability > preds[j].Probability
		}
		ti, tj := m.symbolTotals[preds[i].Symbol], m.symbolTotals[preds[j].Symbol]
		if ti != tj {
			return ti < tj
		}
		return preds[i].Symbol < preds[j].Symbol
	})

	if m.topK > 0 && len(preds) > m.topK {
		preds = preds[:m.topK]
	}
	return preds
}

func (m *MarkovModel) alphabetLocked() []string {
	if len(m.symbolTotals) == 0 {
		out := make([]string, 26)
		for i := range out {
			out[i] = string(rune('A' + i))
		}
		return out
	}
	out := make([]string, 0, len(m.symbolTotals))
	for sym := range m.symbolTotals {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Score rates each candidate by the geometric mean of its letter
// transition probabilities, so longer words are not penalized for having
// more transitions. When the state carries history, the trailing letters
// of the last played word form one extra boundary transition into the
// candidate's first letter, treating the game as a single continuing
// letter stream. Transitions through unseen contexts contribute the
// uniform probability instead of zero.
func (m *MarkovModel) Score(_ context.Context, s *wordgame.State, candidates []string) (map[string]float64, error) {
	boundary := m.enc.MarkovContext(s, m.order)

	m.mu.Lock()
	defer m.mu.Unlock()

	alphaSize := float64(len(m.symbolTotals))
	if alphaSize == 0 {
		alphaSize = 26
	}
	uniform := 1.0 / alphaSize

	out := make(map[string]float64, len(candidates))
	for _, cand := range candidates {
		w := strings.ToUpper(cand)
		logSum, n := 0.0, 0
		if boundary != "" && len(w) > 0 {
			logSum += math.Log(m.probLocked(boundary, string(w[0]), uniform))
			n++
		}
		for i := 0; i+m.order < len(w); i++ {
			logSum += math.Log(m.probLocked(w[i:i+m.order], string(w[i+m.order]), uniform))
			n++
		}
		if n == 0 {
			out[cand] = uniform
			continue
		}
		out[cand] = math.Exp(logSum / float64(n))
	}
	return out, nil
}

// probLocked derives a transition probability from the counts. A seen
// context with an unseen continuation gets the uniform mass discounted by
// the context total; a fully unseen context gets plain uniform.
func (m *MarkovModel) probLocked(ctx, next string, uniform float64) float64 {
	if total := m.totals[ctx]; total > 0 {
		if count := m.transitions[ctx][next]; count > 0 {
			return count / total
		}
		return uniform / total
	}
	return uniform
}

// Observe learns from an accepted word: its internal letter transitions,
// the word-level transition from the previous play, and the letter
// boundary between the previous play's tail and the word's first letter.
func (m *MarkovModel) Observe(_ context.Context, s *wordgame.State, out wordgame.Outcome) {
	m.mu.Lock()
	m.observations++
	m.mu.Unlock()

	if !out.Accepted || out.Word == "" {
		return
	}
	m.TrainWord(out.Word)
	if s != nil && len(s.History) > 0 {
		m.Train([]string{s.History[len(s.History)-1], out.Word})
		if boundary := m.enc.MarkovContext(s, m.order); boundary != "" {
			w := strings.ToUpper(out.Word)
			m.mu.Lock()
			m.recordLocked(boundary, string(w[0]), 1)
			m.mu.Unlock()
		}
	}
}

// Observations reports how many outcomes this model has been fed.
func (m *MarkovModel) Observations() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observations
}

// Checkpoint flushes buffered count deltas to the store. A failed write is
// logged and the deltas are kept for the next attempt; learning continues
// in memory either way.
func (m *MarkovModel) Checkpoint(ctx context.Context) error {
	m.mu.Lock()
	pending := m.pending
	m.pending = make(map[string]float64)
	m.mu.Unlock()

	for k, delta := range pending {
		if _, err := m.st.Increment(ctx, store.KindMarkov, k, delta); err != nil {
			m.log.Warn().Err(err).Str("key", k).Msg("markov checkpoint write failed")
			m.mu.Lock()
			for k2, d2 := range pending {
				m.pending[k2] += d2
			}
			m.mu.Unlock()
			return nil
		}
		delete(pending, k)
	}
	return nil
}
