package ai

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/pkg/wordgame"
)

// arenaMu serializes Decide/Observe pairs when parallel games share one
// coordinator, since the coordinator tracks a single pending decision.
var arenaMu sync.Mutex

// ArenaConfig configures a single self-play training game.
type ArenaConfig struct {
	PoolSize    int   // shared letter pool size
	PrivateSize int   // per-player private letters
	MaxTurns    int   // cap on AI+opponent turn pairs
	Seed        int64 // 0 = random
	DryRun      bool  // skip store checkpoints
}

// ArenaResult describes the outcome of a completed training game.
type ArenaResult struct {
	GameID        string `json:"game_id"`
	Winner        string `json:"winner"` // "ensemble", "greedy", or "draw"
	AIScore       int    `json:"ai_score"`
	OpponentScore int    `json:"opponent_score"`
	Turns         int    `json:"turns"`
	Decisions     int    `json:"decisions"`
}

// RunGame plays one full game of the ensemble against a greedy heuristic
// opponent, feeding every resolved move back through Observe so the models
// train, and checkpointing learned state at the end of the game.
func RunGame(ctx context.Context, cfg ArenaConfig, coord *Coordinator) (*ArenaResult, error) {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 12
	}
	if cfg.PrivateSize == 0 {
		cfg.PrivateSize = 4
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = 10
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	result := &ArenaResult{GameID: uuid.NewString()}
	gameLog := logger.ForGame(result.GameID)

	shared := wordgame.RandomPool(cfg.PoolSize, rng)
	aiPrivate := wordgame.RandomPool(cfg.PrivateSize, rng)
	oppPrivate := wordgame.RandomPool(cfg.PrivateSize, rng)
	var history []string

	for turn := 1; turn <= cfg.MaxTurns; turn++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.Turns = turn

		// Ensemble turn.
		state := &wordgame.State{
			Shared:  shared,
			Private: aiPrivate,
			Turn:    turn,
			History: history,
		}
		candidates := wordgame.LegalWords(state.Available())
		if len(candidates) == 0 {
			break
		}
		arenaMu.Lock()
		decision, err := coord.Decide(ctx, state, candidates)
		if err != nil {
			arenaMu.Unlock()
			return nil, fmt.Errorf("decide turn %d: %w", turn, err)
		}
		score := wordgame.ScoreWord(decision.Word)
		coord.Observe(ctx, wordgame.Outcome{Word: decision.Word, Accepted: true, Score: score})
		arenaMu.Unlock()

		result.Decisions++
		result.AIScore += score

		shared = wordgame.Consume(shared, decision.Word)
		shared = replenish(shared, cfg.PoolSize, rng)
		history = append(history, decision.Word)

		// Greedy opponent turn: highest-scoring legal word, no learning.
		oppView := append(append([]rune(nil), shared...), oppPrivate...)
		oppWord := greedyWord(wordgame.LegalWords(oppView))
		if oppWord != "" {
			result.OpponentScore += wordgame.ScoreWord(oppWord)
			shared = wordgame.Consume(shared, oppWord)
			shared = replenish(shared, cfg.PoolSize, rng)
			history = append(history, oppWord)
		}
	}

	if !cfg.DryRun {
		if err := coord.Checkpoint(ctx); err != nil {
			gameLog.Warn().Err(err).Msg("post-game checkpoint failed")
		}
	}

	switch {
	case result.AIScore > result.OpponentScore:
		result.Winner = "ensemble"
	case result.AIScore < result.OpponentScore:
		result.Winner = "greedy"
	default:
		result.Winner = "draw"
	}

	gameLog.Info().
		Str("winner", result.Winner).
		Int("aiScore", result.AIScore).
		Int("oppScore", result.OpponentScore).
		Int("turns", result.Turns).
		Msg("arena game finished")
	return result, nil
}

func greedyWord(candidates []string) string {
	best, bestScore := "", -1
	for _, w := range candidates {
		if s := wordgame.ScoreWord(w); s > bestScore || (s == bestScore && w < best) {
			best, bestScore = w, s
		}
	}
	return best
}

func replenish(pool []rune, size int, rng *rand.Rand) []rune {
	if len(pool) >= size {
		return pool
	}
	return append(pool, wordgame.RandomPool(size-len(pool), rng)...)
}
