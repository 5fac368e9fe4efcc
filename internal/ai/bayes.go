package ai

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/internal/store"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// Outcome labels the Bayes model conditions its likelihoods on.
const (
	LabelAccepted  = "accepted"
	LabelRejected  = "rejected"
	LabelHighScore = "high_score"
)

// highScoreThreshold marks an outcome worth learning as "high_score" in
// addition to "accepted".
const highScoreThreshold = 12

// NaiveBayesModel learns per-feature letter-pattern frequencies
// conditioned on outcome labels and scores candidates by their smoothed
// log-likelihood under the positive labels.
//
// The output is a relative ranking score, not a calibrated probability:
// feature independence does not hold between overlapping n-grams, so the
// numbers only order candidates and must not be read as true chances of
// acceptance.
type NaiveBayesModel struct {
	eps float64
	st  store.Store
	log zerolog.Logger

	mu           sync.Mutex
	counts       map[string]map[string]float64 // label -> feature -> count
	labelTotals  map[string]float64            // label -> Σ feature counts
	classCounts  map[string]float64            // label -> observations
	vocabulary   map[string]bool               // every feature ever seen
	total        float64                       // total labeled observations
	pending      map[string]float64
	observations uint64
}

// NewNaiveBayesModel creates a Bayes model persisting under store.KindBayes.
func NewNaiveBayesModel(p Params, st store.Store) *NaiveBayesModel {
	eps := p.SmoothingEpsilon
	if eps <= 0 {
		eps = 0.5
	}
	return &NaiveBayesModel{
		eps:         eps,
		st:          st,
		log:         logger.ForModel("bayes"),
		counts:      make(map[string]map[string]float64),
		labelTotals: make(map[string]float64),
		classCounts: make(map[string]float64),
		vocabulary:  make(map[string]bool),
		pending:     make(map[string]float64),
	}
}

func (b *NaiveBayesModel) Name() string { return "bayes" }

// Load warms in-memory counts from the store.
func (b *NaiveBayesModel) Load(ctx context.Context) error {
	entries, err := b.st.Scan(ctx, store.KindBayes, "")
	if err != nil {
		b.log.Warn().Err(err).Msg("bayes load failed, starting cold")
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range entries {
		parts := store.SplitKey(k)
		switch {
		case len(parts) == 3 && parts[0] == "cnt":
			b.addFeatureLocked(parts[1], parts[2], v)
		case len(parts) == 2 && parts[0] == "cls":
			b.classCounts[parts[1]] += v
			b.total += v
		}
	}
	return nil
}

// wordFeatures extracts the letter patterns a word is judged by: prefix,
// suffix, and every internal bigram.
func wordFeatures(word string) []string {
	w := strings.ToUpper(word)
	var feats []string
	if len(w) >= 3 {
		feats = append(feats, "pre|"+w[:3], "suf|"+w[len(w)-3:])
	}
	for i := 0; i+2 <= len(w); i++ {
		feats = append(feats, "bg|"+w[i:i+2])
	}
	if len(feats) == 0 {
		feats = append(feats, "word|"+w)
	}
	return feats
}

// Train updates the frequency tables for one labeled observation.
func (b *NaiveBayesModel) Train(word, label string) {
	if word == "" || label == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.classCounts[label]++
	b.total++
	b.pending[store.Key("cls", label)]++
	for _, f := range wordFeatures(word) {
		b.addFeatureLocked(label, f, 1)
		b.pending[store.Key("cnt", label, f)]++
	}
}

func (b *NaiveBayesModel) addFeatureLocked(label, feature string, count float64) {
	t, ok := b.counts[label]
	if !ok {
		t = make(map[string]float64)
		b.counts[label] = t
	}
	t[feature] += count
	b.labelTotals[label] += count
	b.vocabulary[feature] = true
}

// ScoreWord computes the smoothed log-likelihood of the word under label,
// plus the log class prior. Additive ε smoothing guarantees an unseen
// feature never zeroes the product.
func (b *NaiveBayesModel) ScoreWord(word, label string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scoreLocked(word, label)
}

func (b *NaiveBayesModel) scoreLocked(word, label string) float64 {
	vocab := float64(len(b.vocabulary))
	if vocab == 0 {
		vocab = 1
	}
	labelTotal := b.labelTotals[label]

	// Smoothed prior; never zero even for an unseen label.
	prior := (b.classCounts[label] + b.eps) / (b.total + b.eps*float64(len(b.classCounts)+1))
	logScore := math.Log(prior)

	for _, f := range wordFeatures(word) {
		p := (b.counts[label][f] + b.eps) / (labelTotal + b.eps*vocab)
		logScore += math.Log(p)
	}
	return logScore
}

// Score rates candidates by their likelihood under the positive labels,
// length-normalized so feature count does not dominate. Values are
// comparable only within one call.
func (b *NaiveBayesModel) Score(_ context.Context, _ *wordgame.State, candidates []string) (map[string]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]float64, len(candidates))
	for _, cand := range candidates {
		n := float64(len(wordFeatures(cand)) + 1)
		ll := b.scoreLocked(cand, LabelAccepted) + 0.5*b.scoreLocked(cand, LabelHighScore)
		out[cand] = math.Exp(ll / n)
	}
	return out, nil
}

// Observe labels the outcome and folds it into the frequency tables.
func (b *NaiveBayesModel) Observe(_ context.Context, _ *wordgame.State, out wordgame.Outcome) {
	b.mu.Lock()
	b.observations++
	b.mu.Unlock()

	if out.Word == "" {
		return
	}
	if !out.Accepted {
		b.Train(out.Word, LabelRejected)
		return
	}
	b.Train(out.Word, LabelAccepted)
	if out.Score >= highScoreThreshold {
		b.Train(out.Word, LabelHighScore)
	}
}

// Observations reports how many outcomes this model has been fed.
func (b *NaiveBayesModel) Observations() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.observations
}

// Checkpoint flushes buffered count deltas to the store, keeping them on
// failure so learning continues in memory.
func (b *NaiveBayesModel) Checkpoint(ctx context.Context) error {
	b.mu.Lock()
	pending := b.pending
	b.pending = make(map[string]float64)
	b.mu.Unlock()

	for k, delta := range pending {
		if _, err := b.st.Increment(ctx, store.KindBayes, k, delta); err != nil {
			b.log.Warn().Err(err).Str("key", k).Msg("bayes checkpoint write failed")
			b.mu.Lock()
			for k2, d2 := range pending {
				b.pending[k2] += d2
			}
			b.mu.Unlock()
			return nil
		}
		delete(pending, k)
	}
	return nil
}
