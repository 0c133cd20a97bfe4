package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	LogDir      string // empty = stdout only
	LogMaxFiles int

	// Store configuration
	StoreBackend string // "github", "sqlite" or "memory"
	StorePath    string // collection blob path
	LegacyDir    string // directory of legacy one-file-per-note blobs
	StoreTimeout time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
	CacheTTL     time.Duration
	SQLitePath   string

	// GitHub contents API
	GitHubAPIURL    string
	GitHubOwner     string
	GitHubRepo      string
	GitHubBranch    string
	GitHubToken     string
	GitHubUserAgent string

	// Content pipeline
	ObfuscatorURL      string
	FilterURL          string
	HookTimeout        time.Duration
	ClassifierKeywords []string // overrides the embedded keyword list

	// Notifications
	WebhookURL string

	// Write access
	AuthMode      string // "none", "secret" or "jwt"
	WriteSecret   string
	JWKSURL       string
	JWTRole       string
	ClientUAMatch string // legacy User-Agent filter for single-item reads
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),

		StoreBackend: getEnv("STORE_BACKEND", getDefaultBackend(env)),
		StorePath:    getEnv("STORE_PATH", "data/notes.json"),
		LegacyDir:    getEnv("LEGACY_DIR", "notes"),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 10*time.Second),
		MaxAttempts:  getEnvInt("STORE_MAX_ATTEMPTS", 3),
		RetryBackoff: getEnvDuration("STORE_RETRY_BACKOFF", 50*time.Millisecond),
		CacheTTL:     getEnvDuration("CACHE_TTL", 0),
		SQLitePath:   getEnv("SQLITE_PATH", "data/notebin.db"),

		GitHubAPIURL:    getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubOwner:     getEnv("GITHUB_OWNER", ""),
		GitHubRepo:      getEnv("GITHUB_REPO", ""),
		GitHubBranch:    getEnv("GITHUB_BRANCH", "main"),
		GitHubToken:     getEnv("GITHUB_TOKEN", ""),
		GitHubUserAgent: getEnv("GITHUB_USER_AGENT", "notebin"),

		ObfuscatorURL:      getEnv("OBFUSCATOR_URL", ""),
		FilterURL:          getEnv("FILTER_URL", ""),
		HookTimeout:        getEnvDuration("HOOK_TIMEOUT", 10*time.Second),
		ClassifierKeywords: getEnvList("CLASSIFIER_KEYWORDS"),

		WebhookURL: getEnv("WEBHOOK_URL", ""),

		AuthMode:      getEnv("AUTH_MODE", "none"),
		WriteSecret:   getEnv("WRITE_SECRET", ""),
		JWKSURL:       getEnv("JWKS_URL", ""),
		JWTRole:       getEnv("JWT_ROLE", "authenticated"),
		ClientUAMatch: getEnv("CLIENT_UA_FILTER", ""),
	}
}

// getDefaultBackend returns the default store backend for an environment.
// Production talks to GitHub; everything else runs in memory.
func getDefaultBackend(env string) string {
	if env == "prod" {
		return "github"
	}
	return "memory"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty items
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
