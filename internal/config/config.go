// ABOUTME: Configuration loader for the unimeet CLI
// ABOUTME: Loads settings from environment variables with defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// API
	APIURL         string
	RequestTimeout int // seconds, applied to every outbound request (default 15)

	// Inbox polling
	PollInterval int // seconds, while the inbox drawer is open (default 30)

	// Local caching
	EventsCacheTTL int // seconds, for the event list (default 30)

	// Client state
	CredentialsPath string // token file location (default: user config dir)
	LogFile         string // slog output file for TUI sessions (empty = stderr)
}

func Load() (*Config, error) {
	// Best-effort .env load; absence is not an error
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:          ensureScheme(getEnv("UNIMEET_API_URL", "http://127.0.0.1:8000")),
		RequestTimeout:  getEnvInt("UNIMEET_REQUEST_TIMEOUT", 15),
		PollInterval:    getEnvInt("UNIMEET_POLL_INTERVAL", 30),
		EventsCacheTTL:  getEnvInt("UNIMEET_EVENTS_CACHE_TTL", 30),
		CredentialsPath: os.Getenv("UNIMEET_CREDENTIALS_PATH"),
		LogFile:         os.Getenv("UNIMEET_LOG_FILE"),
	}

	if cfg.CredentialsPath == "" {
		cfg.CredentialsPath = DefaultCredentialsPath()
	}

	if cfg.RequestTimeout < 1 || cfg.RequestTimeout > 300 {
		return nil, fmt.Errorf("UNIMEET_REQUEST_TIMEOUT must be between 1 and 300, got %d", cfg.RequestTimeout)
	}
	if cfg.PollInterval < 1 || cfg.PollInterval > 3600 {
		return nil, fmt.Errorf("UNIMEET_POLL_INTERVAL must be between 1 and 3600, got %d", cfg.PollInterval)
	}

	return cfg, nil
}

// DefaultCredentialsPath returns the token file location under the user
// config directory, falling back to the working directory when the home
// directory cannot be resolved.
func DefaultCredentialsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".unimeet-credentials.json"
	}
	return filepath.Join(configDir, "unimeet", "credentials.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}
