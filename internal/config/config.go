// ABOUTME: Configuration loader for the akctl client
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
	// ConfigDir holds the profile registry and other local state
	ConfigDir string

	// Timeouts in seconds
	RequestTimeout int // default request timeout (default: 30)
	ProbeTimeout   int // connectivity probe timeout (default: 10)

	// TLSSkipVerify accepts self-signed server certificates.
	// Explicit opt-in for self-hosted deployments; default is full
	// chain validation.
	TLSSkipVerify bool

	// Token is a bearer token injected via AK_TOKEN for scripted use.
	// Never written to disk; each process run starts from whatever the
	// environment provides.
	Token string
}

func Load() (*Config, error) {
	// Optional .env next to the working directory; absence is fine
	_ = godotenv.Load()

	cfg := &Config{
		ConfigDir:      getEnv("AK_CONFIG_DIR", defaultConfigDir()),
		RequestTimeout: getEnvInt("AK_REQUEST_TIMEOUT", 30),
		ProbeTimeout:   getEnvInt("AK_PROBE_TIMEOUT", 10),
		TLSSkipVerify:  getEnvBool("AK_TLS_SKIP_VERIFY", false),
		Token:          os.Getenv("AK_TOKEN"),
	}

	if cfg.RequestTimeout < 1 {
		return nil, fmt.Errorf("AK_REQUEST_TIMEOUT must be at least 1 second, got %d", cfg.RequestTimeout)
	}
	if cfg.ProbeTimeout < 1 {
		return nil, fmt.Errorf("AK_PROBE_TIMEOUT must be at least 1 second, got %d", cfg.ProbeTimeout)
	}

	return cfg, nil
}

// defaultConfigDir resolves to ~/.config/artifact-keeper, falling back to
// the working directory when the home directory cannot be determined.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".artifact-keeper"
	}
	return filepath.Join(home, ".config", "artifact-keeper")
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// EnsureScheme adds https:// prefix if the URL has no scheme
func EnsureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
