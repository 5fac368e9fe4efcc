// Package store defines the key-value persistence contract the AI models
// learn through, plus adapters for in-memory, Redis, and Postgres backends.
// Models never see a concrete backend; they address tables by Kind and
// composite string keys and store only float64 values (counts, rewards,
// Q-values). Probabilities are always recomputed from counts, never stored.
package store

import (
	"context"
	"errors"
	"strings"
)

// Kind namespaces one model's learned table.
type Kind string

const (
	KindMarkov    Kind = "markov"
	KindBayes     Kind = "bayes"
	KindQLearning Kind = "qlearning"
	KindMCTS      Kind = "mcts"
	KindEnsemble  Kind = "ensemble"
)

// ErrNotFound is returned by Get for keys that were never written.
var ErrNotFound = errors.New("store: key not found")

// Store is the persistence contract consumed by the AI core.
type Store interface {
	Get(ctx context.Context, kind Kind, key string) (float64, error)
	Put(ctx context.Context, kind Kind, key string, value float64) error
	// Increment adds delta to the stored value (zero if absent) and
	// returns the new value.
	Increment(ctx context.Context, kind Kind, key string, delta float64) (float64, error)
	// Scan returns all entries of kind whose key starts with prefix.
	// An empty prefix returns the whole table.
	Scan(ctx context.Context, kind Kind, prefix string) (map[string]float64, error)
	Delete(ctx context.Context, kind Kind, key string) error
	// DeleteAll clears a model's table. This is the explicit session-end
	// cleanup that replaces relational cascade deletes.
	DeleteAll(ctx context.Context, kind Kind) error
	// Snapshot copies the live table of kind into a named backup.
	Snapshot(ctx context.Context, kind Kind, name string) error
	// Restore replaces the live table of kind with the named backup.
	// The backup itself is left intact.
	Restore(ctx context.Context, kind Kind, name string) error
}

// Key joins composite key parts with the canonical separator. Parts must
// not contain '|'.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// SplitKey splits a composite key back into its parts.
func SplitKey(key string) []string {
	return strings.Split(key, "|")
}
