package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig marks configuration problems detected at startup.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	Port                 string
	Env                  string
	CORSAllowOrigin      []string
	TrustedProxies       []string
	LLMProvider          string
	LLMModel             string
	GoogleAPIKey         string
	OpenAIAPIKey         string
	GenerationTimeout    time.Duration
	FetchTimeout         time.Duration
	FetchMaxBytes        int64
	FetchUserAgent       string
	MaxUploadBytes       int64
	DatabaseURL          string
	GenerationDailyLimit int
	GenerateRatePerMin   float64
	GenerateBurst        int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	provider := normalizeProvider(getEnv("LLM_PROVIDER", "gemini"))

	return Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  env,
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		TrustedProxies:       splitAndTrim(os.Getenv("TRUSTED_PROXIES")),
		LLMProvider:          provider,
		LLMModel:             getEnv("LLM_MODEL", defaultModel(provider)),
		GoogleAPIKey:         firstNonEmpty(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY")),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		GenerationTimeout:    getSeconds("GENERATION_TIMEOUT_SECONDS", 120*time.Second),
		FetchTimeout:         getSeconds("FETCH_TIMEOUT_SECONDS", 15*time.Second),
		FetchMaxBytes:        getInt64("FETCH_MAX_BYTES", 5<<20),
		FetchUserAgent:       getEnv("FETCH_USER_AGENT", "Mozilla/5.0"),
		MaxUploadBytes:       getInt64("MAX_UPLOAD_BYTES", 10<<20),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		GenerationDailyLimit: int(getInt64("GENERATION_DAILY_LIMIT", 25)),
		GenerateRatePerMin:   float64(getInt64("GENERATE_RATE_PER_MINUTE", 6)),
		GenerateBurst:        int(getInt64("GENERATE_BURST", 3)),
	}
}

// Validate reports missing or inconsistent settings that make the service unusable.
func (c Config) Validate() error {
	var problems []string
	switch c.LLMProvider {
	case "gemini":
		if strings.TrimSpace(c.GoogleAPIKey) == "" {
			problems = append(problems, "GOOGLE_API_KEY is required for the gemini provider")
		}
	case "openai":
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			problems = append(problems, "OPENAI_API_KEY is required for the openai provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}
	if strings.TrimSpace(c.LLMModel) == "" {
		problems = append(problems, "LLM_MODEL is required")
	}
	if c.Env == "production" && strings.TrimSpace(c.DatabaseURL) == "" && c.GenerationDailyLimit > 0 {
		log.Printf("config: DATABASE_URL empty in production; generation quota is per-process")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv.Load never overrides variables already present in the environment.
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: skip %s: %v", path, err)
		}
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val < 0 {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getSeconds(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		log.Printf("config: %s invalid seconds %q, using %s", key, raw, def)
		return def
	}
	return time.Duration(parsed) * time.Second
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
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

func normalizeProvider(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		return "gpt-4o-mini"
	default:
		return "gemini-1.5-flash"
	}
}
