package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	RelayPort       string
	CORSAllowOrigin []string
	Env             string

	AnalysisNormalizeURL string
	AnalysisOptimizeURL  string
	AnalysisAPIKey       string
	AnalysisTimeout      time.Duration

	ChatURL string

	NumberLocale string

	DemoEmail    string
	DemoPassword string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of a local env file for dev convenience.
	_ = godotenv.Load()

	return Config{
		Port:                 getEnv("PORT", "8080"),
		RelayPort:            getEnv("RELAY_PORT", "8090"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:                  normalizeEnv(getEnv("ENV", "dev")),
		AnalysisNormalizeURL: getEnv("ANALYSIS_NORMALIZE_URL", ""),
		AnalysisOptimizeURL:  getEnv("ANALYSIS_OPTIMIZE_URL", ""),
		AnalysisAPIKey:       getEnv("ANALYSIS_API_KEY", ""),
		AnalysisTimeout:      timeoutSeconds(getEnv("ANALYSIS_TIMEOUT_SECONDS", "30")),
		ChatURL:              getEnv("CHAT_URL", ""),
		NumberLocale:         normalizeLocale(getEnv("NUMBER_LOCALE", "auto")),
		DemoEmail:            getEnv("DEMO_EMAIL", "demo@valoris.app"),
		DemoPassword:         getEnv("DEMO_PASSWORD", "valoris2024"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeLocale(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "us":
		return "us"
	case "eu":
		return "eu"
	default:
		return "auto"
	}
}

func timeoutSeconds(raw string) time.Duration {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || parsed <= 0 {
		return 30 * time.Second
	}
	return time.Duration(parsed) * time.Second
}
