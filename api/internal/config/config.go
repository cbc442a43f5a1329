package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	DefaultLLM string

	GeminiAPIKey string
	GeminiModel  string
	GenAIModel   string
	OpenAIAPIKey string
	OpenAIModel  string

	VertexProjectID string
	VertexRegion    string
	VertexModel     string

	RetryWait   time.Duration
	MaxDocChars int
	CacheTTL    time.Duration

	DatabaseURL string

	TelegramBotToken string
	WebhookURL       string

	LogLevel string
}

const (
	minRetryWait   = 5 * time.Second
	maxRetryWait   = 10 * time.Second
	minDocChars    = 8000
	maxDocChars    = 15000
	defaultDocChar = 12000
)

var errMissing = errors.New("missing required env")

func mustEnv(k string) (string, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return "", fmt.Errorf("%w %s", errMissing, k)
	}
	return v, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	// bare numbers are seconds
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return d, nil
}

func getInt(k string, def int) (int, error) {
	v := getEnv(k, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return n, nil
}

// LoadDotEnv reads .env from the working directory or the nearest parent
// holding go.mod. A missing file is not an error.
func LoadDotEnv() error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	for {
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			return godotenv.Load(p)
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// Parse reads the configuration from the environment.
func Parse() (*Config, error) {
	key, err := mustEnv("GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}
	retryWait, err := getDuration("RETRY_WAIT", minRetryWait)
	if err != nil {
		return nil, err
	}
	ttl, err := getDuration("CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	docChars, err := getInt("MAX_DOC_CHARS", defaultDocChar)
	if err != nil {
		return nil, err
	}

	geminiModel := getEnv("GEMINI_MODEL", "gemini-2.5-flash")
	return &Config{
		Port:       getEnv("PORT", "8000"),
		DefaultLLM: strings.ToLower(getEnv("DEFAULT_LLM", "gemini")),

		GeminiAPIKey: key,
		GeminiModel:  geminiModel,
		GenAIModel:   getEnv("GENAI_MODEL", geminiModel),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		VertexProjectID: getEnv("VERTEX_PROJECT_ID", ""),
		VertexRegion:    getEnv("VERTEX_REGION", "us-central1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-2.5-flash"),

		RetryWait:   clampDuration(retryWait, minRetryWait, maxRetryWait),
		MaxDocChars: clampInt(docChars, minDocChars, maxDocChars),
		CacheTTL:    ttl,

		DatabaseURL: getEnv("DATABASE_URL", ""),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Load loads .env and parses the environment, exiting on a missing
// credential before any surface starts.
func Load() *Config {
	if err := LoadDotEnv(); err != nil {
		log.Printf("config: .env ignored: %v", err)
	}
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	return min(max(d, lo), hi)
}

func clampInt(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
