package config

import (
	"fmt"
	"os"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL       string
	JWTSecret   string
	QuoteAPIKey string
	QuoteAPIURL string
	Port        string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	quoteKey := os.Getenv("QUOTE_API_KEY")
	if quoteKey == "" {
		return nil, fmt.Errorf("QUOTE_API_KEY environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		PGURL:       pgURL,
		JWTSecret:   jwtSecret,
		QuoteAPIKey: quoteKey,
		QuoteAPIURL: os.Getenv("QUOTE_API_URL"),
		Port:        port,
	}, nil
}
