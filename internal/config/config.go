// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL     string        // Remote ScriptLyze API, e.g. http://localhost:8000.
	ListenAddr     string        // Local dashboard listen address.
	DBPath         string        // SQLite file holding the credential slot.
	RequestTimeout time.Duration // Per-request transport timeout.
	CacheTTL       time.Duration // Freshness window for cached query results.
	SecretKey      []byte        // Optional 32-byte key for token-at-rest encryption.
}

// Load reads configuration from the environment (after a best-effort .env
// load) and returns a validated Config. All variables are optional:
// SCRIPTLYZE_API_URL (http://localhost:8000), SCRIPTLYZE_LISTEN_ADDR
// (127.0.0.1:8090), SCRIPTLYZE_DB_PATH (scriptlyze.db),
// SCRIPTLYZE_REQUEST_TIMEOUT (15s), SCRIPTLYZE_CACHE_TTL (30s), and
// SCRIPTLYZE_SECRET_KEY (base64, 32 bytes decoded; token stored plaintext
// when absent).
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	apiBaseURL := "http://localhost:8000"
	if v, ok := os.LookupEnv("SCRIPTLYZE_API_URL"); ok && v != "" {
		apiBaseURL = v
	}

	listenAddr := "127.0.0.1:8090"
	if v, ok := os.LookupEnv("SCRIPTLYZE_LISTEN_ADDR"); ok && v != "" {
		listenAddr = v
	}

	dbPath := "scriptlyze.db"
	if v, ok := os.LookupEnv("SCRIPTLYZE_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	requestTimeout := 15 * time.Second
	if v, ok := os.LookupEnv("SCRIPTLYZE_REQUEST_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SCRIPTLYZE_REQUEST_TIMEOUT has invalid duration %q: %w", v, err)
		}
		requestTimeout = parsed
	}

	cacheTTL := 30 * time.Second
	if v, ok := os.LookupEnv("SCRIPTLYZE_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SCRIPTLYZE_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		cacheTTL = parsed
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("SCRIPTLYZE_SECRET_KEY"); ok && v != "" {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("SCRIPTLYZE_SECRET_KEY is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("SCRIPTLYZE_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	return &Config{
		APIBaseURL:     apiBaseURL,
		ListenAddr:     listenAddr,
		DBPath:         dbPath,
		RequestTimeout: requestTimeout,
		CacheTTL:       cacheTTL,
		SecretKey:      secretKey,
	}, nil
}
