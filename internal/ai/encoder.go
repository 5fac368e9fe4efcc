package ai

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"gorgonia.org/tensor"

	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// StateKey is the canonical, deterministic identifier of a game situation.
// It is the join key for every per-model table, so it must be stable
// across process restarts and identical for semantically equal states.
type StateKey string

// StateEncoder turns raw game snapshots into the keys and feature vectors
// the models consume. It is stateless; one instance is shared by the whole
// ensemble.
type StateEncoder struct {
	historyWindow int
}

// NewStateEncoder creates an encoder folding the last n history words into
// the key.
func NewStateEncoder(historyWindow int) *StateEncoder {
	if historyWindow < 0 {
		historyWindow = 0
	}
	return &StateEncoder{historyWindow: historyWindow}
}

// Encode hashes the state into its canonical key. Letter multisets are
// sorted first so letter order never changes the key. Returns
// ErrInvalidState when the combined letter pool is empty.
func (e *StateEncoder) Encode(s *wordgame.State) (StateKey, error) {
	if s == nil || len(s.Shared)+len(s.Private) == 0 {
		return "", fmt.Errorf("encode: empty letter pool: %w", ErrInvalidState)
	}

	var b strings.Builder
	b.WriteString(sortedLetters(s.Shared))
	b.WriteByte('/')
	b.WriteString(sortedLetters(s.Private))
	b.WriteByte('/')
	fmt.Fprintf(&b, "%d", s.Turn)
	b.WriteByte('/')
	for _, w := range lastN(s.History, e.historyWindow) {
		b.WriteString(strings.ToUpper(w))
		b.WriteByte(',')
	}

	h := fnv.New64a()
	h.Write([]byte(b.String()))
	return StateKey(fmt.Sprintf("%016x", h.Sum64())), nil
}

// featureLen is 26 letter counts + turn + history length + mean history
// word length.
const featureLen = 29

// Features encodes the state as a dense vector: per-letter pool counts,
// turn index, and history shape. Consumers treat it as an opaque
// fixed-width row.
func (e *StateEncoder) Features(s *wordgame.State) (*tensor.Dense, error) {
	if s == nil || len(s.Shared)+len(s.Private) == 0 {
		return nil, fmt.Errorf("features: empty letter pool: %w", ErrInvalidState)
	}

	backing := make([]float64, featureLen)
	for _, r := range s.Available() {
		if u := upper(r); u >= 'A' && u <= 'Z' {
			backing[u-'A']++
		}
	}
	backing[26] = float64(s.Turn)
	backing[27] = float64(len(s.History))
	if len(s.History) > 0 {
		total := 0
		for _, w := range s.History {
			total += len(w)
		}
		backing[28] = float64(total) / float64(len(s.History))
	}

	return tensor.New(tensor.WithShape(featureLen), tensor.WithBacking(backing)), nil
}

// MarkovContext returns the trailing letters of the last played word,
// which is the transition context the Markov model predicts from. Empty
// when no history exists.
func (e *StateEncoder) MarkovContext(s *wordgame.State, order int) string {
	if s == nil || len(s.History) == 0 {
		return ""
	}
	last := strings.ToUpper(s.History[len(s.History)-1])
	if len(last) < order {
		return last
	}
	return last[len(last)-order:]
}

func sortedLetters(letters []rune) string {
	rs := make([]rune, len(letters))
	for i, r := range letters {
		rs[i] = upper(r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	return string(rs)
}

func lastN(words []string, n int) []string {
	if len(words) <= n {
		return words
	}
	return words[len(words)-n:]
}

func upper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}
