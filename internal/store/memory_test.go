package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, KindMarkov, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing key: err = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, KindMarkov, "k", 1.5); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, KindMarkov, "k")
	if err != nil || v != 1.5 {
		t.Fatalf("Get = %v, %v; want 1.5, nil", v, err)
	}

	// Kinds are isolated tables.
	if _, err := s.Get(ctx, KindBayes, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-kind read: err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreIncrement(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// Incrementing an absent key starts from zero.
	v, err := s.Increment(ctx, KindQLearning, "n", 2)
	if err != nil || v != 2 {
		t.Fatalf("first increment = %v, %v; want 2, nil", v, err)
	}
	v, err = s.Increment(ctx, KindQLearning, "n", -0.5)
	if err != nil || v != 1.5 {
		t.Fatalf("second increment = %v, %v; want 1.5, nil", v, err)
	}
}

func TestMemoryStoreScan(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put(ctx, KindMarkov, Key("t", "CA", "T"), 3)
	s.Put(ctx, KindMarkov, Key("t", "AT", "E"), 1)
	s.Put(ctx, KindMarkov, Key("x", "CA", "B"), 9)

	got, err := s.Scan(ctx, KindMarkov, "t|")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Scan(t|) returned %d entries, want 2: %v", len(got), got)
	}
	if got["t|CA|T"] != 3 {
		t.Errorf("t|CA|T = %v, want 3", got["t|CA|T"])
	}

	all, err := s.Scan(ctx, KindMarkov, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("Scan(\"\") returned %d entries, want 3", len(all))
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put(ctx, KindBayes, "a", 1)
	s.Put(ctx, KindBayes, "b", 2)

	if err := s.Delete(ctx, KindBayes, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, KindBayes, "a"); !errors.Is(err, ErrNotFound) {
		t.Error("deleted key still readable")
	}
	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, KindBayes, "never"); err != nil {
		t.Errorf("delete absent key: %v", err)
	}

	if err := s.DeleteAll(ctx, KindBayes); err != nil {
		t.Fatal(err)
	}
	all, _ := s.Scan(ctx, KindBayes, "")
	if len(all) != 0 {
		t.Errorf("DeleteAll left %d entries", len(all))
	}
}

func TestMemoryStoreSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Put(ctx, KindQLearning, "q1", 0.7)
	s.Put(ctx, KindQLearning, "q2", -0.2)

	if err := s.Snapshot(ctx, KindQLearning, "before"); err != nil {
		t.Fatal(err)
	}

	// Mutate the live table after the snapshot.
	s.Put(ctx, KindQLearning, "q1", 99)
	s.Delete(ctx, KindQLearning, "q2")
	s.Put(ctx, KindQLearning, "q3", 1)

	if err := s.Restore(ctx, KindQLearning, "before"); err != nil {
		t.Fatal(err)
	}
	v, err := s.Get(ctx, KindQLearning, "q1")
	if err != nil || v != 0.7 {
		t.Errorf("q1 after restore = %v, %v; want 0.7", v, err)
	}
	if v, _ := s.Get(ctx, KindQLearning, "q2"); v != -0.2 {
		t.Errorf("q2 after restore = %v, want -0.2", v)
	}
	if _, err := s.Get(ctx, KindQLearning, "q3"); !errors.Is(err, ErrNotFound) {
		t.Error("q3 should not survive restore")
	}

	// The backup survives the restore and further mutation.
	s.Put(ctx, KindQLearning, "q1", 5)
	if err := s.Restore(ctx, KindQLearning, "before"); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(ctx, KindQLearning, "q1"); v != 0.7 {
		t.Errorf("second restore q1 = %v, want 0.7", v)
	}
}

func TestMemoryStoreRestoreMissing(t *testing.T) {
	s := NewMemoryStore()
	err := s.Restore(context.Background(), KindMCTS, "never-made")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("restore of missing snapshot: err = %v, want ErrNotFound", err)
	}
}

func TestKeyRoundTrip(t *testing.T) {
	k := Key("q", "state123", "WORD")
	parts := SplitKey(k)
	if len(parts) != 3 || parts[0] != "q" || parts[1] != "state123" || parts[2] != "WORD" {
		t.Errorf("SplitKey(%q) = %v", k, parts)
	}
}
