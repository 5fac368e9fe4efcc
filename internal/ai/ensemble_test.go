package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wordduelgame/wordduel/internal/store"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *store.MemoryStore) {
	t.Helper()
	p := testParams()
	p.MCTSBudget = 20 * time.Millisecond
	p.MCTSMaxIters = 200
	st := store.NewMemoryStore()
	return NewCoordinator(p, st), st
}

func ensembleState() *wordgame.State {
	return &wordgame.State{
		Shared:  []rune{'C', 'A', 'T', 'D', 'O', 'G'},
		Private: []rune{'S', 'E'},
		Turn:    1,
	}
}

func TestDecideReturnsCandidate(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, _ := newTestCoordinator(t)
	candidates := []string{"CAT", "DOG", "TOE"}

	d, err := c.Decide(context.Background(), ensembleState(), candidates)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, cand := range candidates {
		if cand == d.Word {
			found = true
		}
	}
	if !found {
		t.Errorf("decision %q not in candidate set", d.Word)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		t.Errorf("confidence = %v, want in [0,1]", d.Confidence)
	}
	if d.State == "" {
		t.Error("decision carries no state key")
	}
	if len(d.Weights) != 4 {
		t.Errorf("decision carries %d weights, want 4", len(d.Weights))
	}
}

func TestDecideCarriesFeatureVector(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, _ := newTestCoordinator(t)
	d, err := c.Decide(context.Background(), ensembleState(), []string{"CAT", "DOG"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Features == nil {
		t.Fatal("decision carries no feature vector")
	}
	if got := d.Features.Shape()[0]; got != featureLen {
		t.Fatalf("feature vector length = %d, want %d", got, featureLen)
	}
	data := d.Features.Data().([]float64)
	if data['A'-'A'] != 1 || data['O'-'A'] != 1 {
		t.Errorf("letter counts not encoded: A=%v O=%v, want 1 each", data['A'-'A'], data['O'-'A'])
	}
	if data[26] != 1 {
		t.Errorf("turn feature = %v, want 1", data[26])
	}
}

func TestDecideErrors(t *testing.T) {
	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := c.Decide(ctx, ensembleState(), nil); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("no candidates: err = %v, want ErrNoCandidates", err)
	}
	if _, err := c.Decide(ctx, &wordgame.State{}, []string{"CAT"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("empty pool: err = %v, want ErrInvalidState", err)
	}
}

func TestDefaultWeightsAreUniform(t *testing.T) {
	c, _ := newTestCoordinator(t)
	for name, w := range c.Weights(ensembleState()) {
		if w != 1.0 {
			t.Errorf("cold weight for %s = %v, want 1", name, w)
		}
	}
}

func TestObserveFansOutOnce(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := c.Decide(ctx, ensembleState(), []string{"CAT", "DOG"}); err != nil {
		t.Fatal(err)
	}
	c.Observe(ctx, wordgameOutcome("CAT", true, 5))

	for _, m := range c.Models() {
		if got := m.Observations(); got != 1 {
			t.Errorf("%s observations = %d, want exactly 1", m.Name(), got)
		}
	}

	// A second outcome with no pending decision is dropped, not replayed.
	c.Observe(ctx, wordgameOutcome("DOG", true, 5))
	for _, m := range c.Models() {
		if got := m.Observations(); got != 1 {
			t.Errorf("%s observations after dropped outcome = %d, want 1", m.Name(), got)
		}
	}
}

func TestMetaWeightsShiftWithOutcomes(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()
	s := ensembleState()
	candidates := []string{"CAT", "DOG"}

	// Reward the same high-scoring word repeatedly from the same state.
	for i := 0; i < 10; i++ {
		if _, err := c.Decide(ctx, s, candidates); err != nil {
			t.Fatal(err)
		}
		c.Observe(ctx, wordgameOutcome("DOG", true, 9))
	}

	weights := c.Weights(s)
	shifted := false
	for _, w := range weights {
		if w > 1.0 {
			shifted = true
		}
		if w < 0.1 {
			t.Errorf("weight %v fell below the floor", w)
		}
	}
	if !shifted {
		t.Errorf("no model weight grew after consistent positive outcomes: %v", weights)
	}
}

func TestWeightShiftsTowardModelThatRankedWinner(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()
	s := ensembleState()

	// Markov has only ever seen CAT patterns, so it ranks CAT above DOG.
	c.Markov().TrainWord("CAT")
	c.Markov().TrainWord("CATALOG")

	if _, err := c.Decide(ctx, s, []string{"CAT", "DOG"}); err != nil {
		t.Fatal(err)
	}
	// The engine resolves DOG as the actual, high-scoring move.
	c.Observe(ctx, wordgameOutcome("DOG", true, 15))

	weights := c.Weights(s)
	if weights["markov"] != 1.0 {
		t.Errorf("markov weight = %v, want unchanged 1.0 (it ranked DOG last)", weights["markov"])
	}
	// Bayes was cold and scored both words equally, so its normalized
	// endorsement of DOG was full strength and its weight must grow.
	if weights["bayes"] <= 1.0 {
		t.Errorf("bayes weight = %v, want growth above 1.0", weights["bayes"])
	}
	if weights["bayes"] <= weights["markov"] {
		t.Errorf("weight did not shift toward the model that ranked DOG highest: %v", weights)
	}
}

func TestRejectedOutcomeLowersMetaWeight(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, _ := newTestCoordinator(t)
	ctx := context.Background()
	s := ensembleState()

	var sum float64
	for i := 0; i < 10; i++ {
		if _, err := c.Decide(ctx, s, []string{"CAT", "DOG"}); err != nil {
			t.Fatal(err)
		}
		c.Observe(ctx, wordgameOutcome("CAT", false, 0))
	}
	for _, w := range c.Weights(s) {
		sum += w
	}
	if sum >= 4.0 {
		t.Errorf("total weight %v did not drop after consistent rejections", sum)
	}
}

func TestCheckpointPersistsAllModels(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, st := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := c.Decide(ctx, ensembleState(), []string{"CAT", "DOG"}); err != nil {
		t.Fatal(err)
	}
	c.Observe(ctx, wordgameOutcome("CAT", true, 5))
	if err := c.Checkpoint(ctx); err != nil {
		t.Fatal(err)
	}

	for _, kind := range []store.Kind{store.KindMarkov, store.KindBayes, store.KindQLearning} {
		entries, err := st.Scan(ctx, kind, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) == 0 {
			t.Errorf("checkpoint wrote nothing under %s", kind)
		}
	}
}

func TestLoadWarmsFromStore(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, st := newTestCoordinator(t)
	ctx := context.Background()
	s := ensembleState()

	for i := 0; i < 5; i++ {
		if _, err := c.Decide(ctx, s, []string{"CAT", "DOG"}); err != nil {
			t.Fatal(err)
		}
		c.Observe(ctx, wordgameOutcome("DOG", true, 9))
	}
	if err := c.Checkpoint(ctx); err != nil {
		t.Fatal(err)
	}

	c2 := NewCoordinator(c.p, st)
	if err := c2.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if c2.Markov().Predict("DO")[0].Symbol != "G" {
		t.Error("reloaded Markov model lost its transitions")
	}
	w1, w2 := c.Weights(s), c2.Weights(s)
	for name := range w1 {
		if w1[name] != w2[name] {
			t.Errorf("weight for %s changed across reload: %v vs %v", name, w1[name], w2[name])
		}
	}
}

func TestResetDropsLearnedState(t *testing.T) {
	SeedAIRng(42)
	defer ResetAIRng()

	c, st := newTestCoordinator(t)
	ctx := context.Background()

	if _, err := c.Decide(ctx, ensembleState(), []string{"CAT"}); err != nil {
		t.Fatal(err)
	}
	c.Observe(ctx, wordgameOutcome("CAT", true, 5))
	if err := c.Checkpoint(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	for _, kind := range []store.Kind{
		store.KindMarkov, store.KindBayes, store.KindQLearning, store.KindMCTS,
	} {
		entries, _ := st.Scan(ctx, kind, "")
		if len(entries) != 0 {
			t.Errorf("reset left %d entries under %s", len(entries), kind)
		}
	}
}
