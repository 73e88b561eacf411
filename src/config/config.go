package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	StateSecret string

	AggregatorBaseURL      string
	AggregatorClientID     string
	AggregatorClientSecret string
	AggregatorRedirectURL  string

	ReadOnly bool
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		StateSecret: getEnv("OAUTH_STATE_SECRET", ""),

		AggregatorBaseURL:      getEnv("AGGREGATOR_BASE_URL", ""),
		AggregatorClientID:     getEnv("AGGREGATOR_CLIENT_ID", ""),
		AggregatorClientSecret: getEnv("AGGREGATOR_CLIENT_SECRET", ""),
		AggregatorRedirectURL:  getEnv("AGGREGATOR_REDIRECT_URL", ""),

		ReadOnly: getEnv("READ_ONLY_MODE", "false") == "true",
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	if cfg.StateSecret == "" {
		log.Fatal("OAUTH_STATE_SECRET is required")
	}
	if cfg.AggregatorBaseURL == "" || cfg.AggregatorClientID == "" || cfg.AggregatorClientSecret == "" {
		log.Fatal("AGGREGATOR_BASE_URL, AGGREGATOR_CLIENT_ID and AGGREGATOR_CLIENT_SECRET are required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
