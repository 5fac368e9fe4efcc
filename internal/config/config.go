package config

import "os"

// Config holds application configuration loaded from environment variables.
type Config struct {
	DatabaseURL string // Postgres checkpoint store; empty disables it
	RedisURL    string // Redis live store; empty disables it
	EngineURL   string // external game engine websocket base URL
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		EngineURL:   envOrDefault("ENGINE_URL", "ws://localhost:8010"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
