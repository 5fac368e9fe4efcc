package ai

import "errors"

// Errors surfaced to the game engine. Everything else the core can hit
// (exhausted search budget, unreachable persistence) is recovered locally
// with a fallback and only logged.
var (
	// ErrInvalidState means the game state could not be encoded, e.g. an
	// empty letter pool. Fatal for a single decision; the engine must
	// re-draw or forfeit the turn.
	ErrInvalidState = errors.New("ai: invalid game state")

	// ErrNoCandidates means the legal-move set was empty.
	ErrNoCandidates = errors.New("ai: no candidate words")
)
