package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordduelgame/wordduel/internal/ai"
	"github.com/wordduelgame/wordduel/internal/config"
	"github.com/wordduelgame/wordduel/internal/engineio"
	"github.com/wordduelgame/wordduel/internal/logger"
	"github.com/wordduelgame/wordduel/internal/store"
)

func main() {
	cfg := config.Load()

	url := flag.String("url", cfg.EngineURL, "engine base URL")
	name := flag.String("name", "wordduel-bot", "bot display name")
	redisURL := flag.String("redis", cfg.RedisURL, "redis URL for learned state (empty = in-memory)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = random)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger.Init()
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *seed != 0 {
		ai.SeedAIRng(*seed)
	}

	var st store.Store = store.NewMemoryStore()
	if *redisURL != "" {
		rs, err := store.NewRedisStore(*redisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		defer rs.Close()
		st = rs
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	coord := ai.NewCoordinator(ai.DefaultParams(), st)
	if err := coord.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Model load failed")
	}

	client, err := engineio.Dial(*name, *url)
	if err != nil {
		log.Fatal().Err(err).Msg("Engine connection failed")
	}
	defer client.Close()

	if err := engineio.Run(ctx, client, coord); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Bot session failed")
	}
	log.Info().Msg("Bot session completed")
}
