// Package wordgame holds the game-state types and letter arithmetic shared
// between the AI core, the training arena, and the engine transport. The
// dictionary, the interactive loop, and authoritative scoring live in the
// external game engine; this package only carries what the models need to
// read a snapshot and simulate cheap continuations.
package wordgame

import (
	"math/rand"
	"strings"
)

// State is an immutable snapshot of the game at decision time.
type State struct {
	Shared  []rune   // letters visible to both players
	Private []rune   // letters held by the AI
	Turn    int      // 1-based turn index
	History []string // last words played, oldest first
}

// Outcome is the resolved result of a submitted word, fed back to the
// models as the training signal.
type Outcome struct {
	Word     string
	Accepted bool
	Score    int
}

// Clone returns a deep copy of the state. Rollouts mutate their copy only.
func (s *State) Clone() *State {
	c := &State{
		Shared:  make([]rune, len(s.Shared)),
		Private: make([]rune, len(s.Private)),
		Turn:    s.Turn,
		History: make([]string, len(s.History)),
	}
	copy(c.Shared, s.Shared)
	copy(c.Private, s.Private)
	copy(c.History, s.History)
	return c
}

// Available returns the combined letter pool the AI may draw from.
func (s *State) Available() []rune {
	out := make([]rune, 0, len(s.Shared)+len(s.Private))
	out = append(out, s.Shared...)
	out = append(out, s.Private...)
	return out
}

// letterValues follows standard word-game letter scoring.
var letterValues = map[rune]int{
	'A': 1, 'B': 3, 'C': 3, 'D': 2, 'E': 1, 'F': 4, 'G': 2, 'H': 4,
	'I': 1, 'J': 8, 'K': 5, 'L': 1, 'M': 3, 'N': 1, 'O': 1, 'P': 3,
	'Q': 10, 'R': 1, 'S': 1, 'T': 1, 'U': 1, 'V': 4, 'W': 4, 'X': 8,
	'Y': 4, 'Z': 10,
}

// LetterValue returns the point value of a letter, 0 for non-letters.
func LetterValue(r rune) int {
	return letterValues[toUpper(r)]
}

// ScoreWord sums letter values and adds a length bonus of 2 points per
// letter beyond the fourth. This is the same arithmetic the engine uses,
// duplicated here so rollouts can score continuations without a round trip.
func ScoreWord(word string) int {
	score := 0
	for _, r := range strings.ToUpper(word) {
		score += letterValues[r]
	}
	if n := len(word); n > 4 {
		score += 2 * (n - 4)
	}
	return score
}

// CanForm reports whether word can be assembled from the letter multiset.
func CanForm(word string, letters []rune) bool {
	counts := make(map[rune]int, len(letters))
	for _, r := range letters {
		counts[toUpper(r)]++
	}
	for _, r := range strings.ToUpper(word) {
		if counts[r] == 0 {
			return false
		}
		counts[r]--
	}
	return true
}

// Consume removes the letters of word from the pool and returns the
// remainder. Letters not present are ignored; callers validate with
// CanForm first.
func Consume(letters []rune, word string) []rune {
	used := make(map[rune]int, len(word))
	for _, r := range strings.ToUpper(word) {
		used[r]++
	}
	out := make([]rune, 0, len(letters))
	for _, r := range letters {
		u := toUpper(r)
		if used[u] > 0 {
			used[u]--
			continue
		}
		out = append(out, r)
	}
	return out
}

// letterFrequency weights pool draws toward common letters, roughly
// matching English letter distribution.
var letterFrequency = []struct {
	letter rune
	weight int
}{
	{'E', 12}, {'A', 9}, {'I', 9}, {'O', 8}, {'N', 6}, {'R', 6},
	{'T', 6}, {'L', 4}, {'S', 4}, {'U', 4}, {'D', 4}, {'G', 3},
	{'B', 2}, {'C', 2}, {'M', 2}, {'P', 2}, {'F', 2}, {'H', 2},
	{'V', 2}, {'W', 2}, {'Y', 2}, {'K', 1}, {'J', 1}, {'X', 1},
	{'Q', 1}, {'Z', 1},
}

var vowels = map[rune]bool{'A': true, 'E': true, 'I': true, 'O': true, 'U': true}

// RandomPool draws n letters weighted by frequency, guaranteeing at least
// two vowels so a pool is never unplayable.
func RandomPool(n int, rng *rand.Rand) []rune {
	if n <= 0 {
		return nil
	}
	total := 0
	for _, lf := range letterFrequency {
		total += lf.weight
	}
	pool := make([]rune, 0, n)
	vowelCount := 0
	for len(pool) < n {
		pick := rng.Intn(total)
		for _, lf := range letterFrequency {
			pick -= lf.weight
			if pick < 0 {
				pool = append(pool, lf.letter)
				if vowels[lf.letter] {
					vowelCount++
				}
				break
			}
		}
	}
	for i := 0; vowelCount < 2 && i < len(pool); i++ {
		if !vowels[pool[i]] {
			pool[i] = []rune{'A', 'E', 'I', 'O', 'U'}[rng.Intn(5)]
			vowelCount++
		}
	}
	return pool
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}
