package ai

import (
	"errors"
	"testing"

	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

func TestEncodeDeterministic(t *testing.T) {
	enc := NewStateEncoder(3)
	s := &wordgame.State{
		Shared:  []rune{'C', 'A', 'T'},
		Private: []rune{'S'},
		Turn:    2,
		History: []string{"DOG"},
	}

	k1, err := enc.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := enc.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if k1 != k2 {
		t.Errorf("same state produced different keys: %s vs %s", k1, k2)
	}
	if len(k1) != 16 {
		t.Errorf("key length = %d, want 16 hex chars", len(k1))
	}
}

func TestEncodeLetterOrderInvariant(t *testing.T) {
	enc := NewStateEncoder(3)
	a := &wordgame.State{Shared: []rune{'C', 'A', 'T'}, Private: []rune{'X', 'Y'}, Turn: 1}
	b := &wordgame.State{Shared: []rune{'T', 'C', 'A'}, Private: []rune{'Y', 'X'}, Turn: 1}

	ka, _ := enc.Encode(a)
	kb, _ := enc.Encode(b)
	if ka != kb {
		t.Error("letter order changed the state key")
	}

	// Case never matters either.
	c := &wordgame.State{Shared: []rune{'t', 'c', 'a'}, Private: []rune{'y', 'x'}, Turn: 1}
	kc, _ := enc.Encode(c)
	if ka != kc {
		t.Error("letter case changed the state key")
	}
}

func TestEncodeDistinguishesStates(t *testing.T) {
	enc := NewStateEncoder(3)
	base := &wordgame.State{Shared: []rune{'C', 'A', 'T'}, Turn: 1}

	turn2 := base.Clone()
	turn2.Turn = 2
	withHistory := base.Clone()
	withHistory.History = []string{"CAB"}

	kBase, _ := enc.Encode(base)
	kTurn, _ := enc.Encode(turn2)
	kHist, _ := enc.Encode(withHistory)
	if kBase == kTurn {
		t.Error("turn change did not change the key")
	}
	if kBase == kHist {
		t.Error("history change did not change the key")
	}
}

func TestEncodeHistoryWindow(t *testing.T) {
	enc := NewStateEncoder(2)
	a := &wordgame.State{Shared: []rune{'A'}, Turn: 5, History: []string{"OLD", "CAB", "DOG"}}
	b := &wordgame.State{Shared: []rune{'A'}, Turn: 5, History: []string{"OTHER", "CAB", "DOG"}}

	ka, _ := enc.Encode(a)
	kb, _ := enc.Encode(b)
	if ka != kb {
		t.Error("history beyond the window changed the key")
	}
}

func TestEncodeEmptyPool(t *testing.T) {
	enc := NewStateEncoder(3)
	_, err := enc.Encode(&wordgame.State{Turn: 1})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("empty pool: err = %v, want ErrInvalidState", err)
	}
	_, err = enc.Encode(nil)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("nil state: err = %v, want ErrInvalidState", err)
	}
}

func TestFeatures(t *testing.T) {
	enc := NewStateEncoder(3)
	s := &wordgame.State{
		Shared:  []rune{'A', 'A', 'B'},
		Private: []rune{'z'},
		Turn:    4,
		History: []string{"CAT", "HOUSE"},
	}

	feat, err := enc.Features(s)
	if err != nil {
		t.Fatal(err)
	}
	if feat.Shape()[0] != featureLen {
		t.Fatalf("feature length = %d, want %d", feat.Shape()[0], featureLen)
	}
	data := feat.Data().([]float64)
	if data[0] != 2 { // A
		t.Errorf("A count = %v, want 2", data[0])
	}
	if data[1] != 1 { // B
		t.Errorf("B count = %v, want 1", data[1])
	}
	if data[25] != 1 { // lowercase z normalized
		t.Errorf("Z count = %v, want 1", data[25])
	}
	if data[26] != 4 {
		t.Errorf("turn feature = %v, want 4", data[26])
	}
	if data[27] != 2 {
		t.Errorf("history length feature = %v, want 2", data[27])
	}
	if data[28] != 4 { // mean of len(CAT)=3, len(HOUSE)=5
		t.Errorf("mean word length = %v, want 4", data[28])
	}

	if _, err := enc.Features(&wordgame.State{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("empty pool features: err = %v, want ErrInvalidState", err)
	}
}

func TestMarkovContext(t *testing.T) {
	enc := NewStateEncoder(3)

	s := &wordgame.State{History: []string{"CAB", "house"}}
	if got := enc.MarkovContext(s, 2); got != "SE" {
		t.Errorf("MarkovContext = %q, want SE", got)
	}
	// Word shorter than the order comes back whole.
	s = &wordgame.State{History: []string{"A"}}
	if got := enc.MarkovContext(s, 2); got != "A" {
		t.Errorf("MarkovContext short word = %q, want A", got)
	}
	if got := enc.MarkovContext(&wordgame.State{}, 2); got != "" {
		t.Errorf("MarkovContext no history = %q, want empty", got)
	}
}
