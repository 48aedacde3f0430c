package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dev server
type Config struct {
	// Addr is the listen address, also used when building tenant
	// redirect URLs.
	Addr string

	// Database configuration
	DatabaseURL string

	// JWTSecret signs session tokens. Generated fresh on each start when
	// not pinned via env, which invalidates sessions across restarts.
	JWTSecret string
	TokenTTL  time.Duration

	// SeedFile optionally points at a YAML fixture loaded on startup.
	SeedFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	addr := os.Getenv("TASKDECK_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "taskdeck.sqlite"
	}

	secret := os.Getenv("TASKDECK_JWT_SECRET")
	if secret == "" {
		generated, err := generateSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("TASKDECK_TOKEN_TTL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TASKDECK_TOKEN_TTL: %w", err)
		}
		ttl = parsed
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}

	return &Config{
		Addr:        addr,
		DatabaseURL: dbURL,
		JWTSecret:   secret,
		TokenTTL:    ttl,
		SeedFile:    os.Getenv("TASKDECK_SEED_FILE"),
		LogLevel:    logLevel,
		LogFormat:   logFormat,
	}, nil
}

// generateSecret produces a random 64-hex-char JWT secret
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(secretBytes), nil
}
