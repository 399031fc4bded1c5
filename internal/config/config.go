package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	ArtweaveAPIKey string

	// Grok (x.ai) planning + judging
	XAIAPIKey  string
	XAIModel   string
	XAIBaseURL string
	XAITimeout time.Duration

	// Image search provider
	SearchURL         string
	SearchAPIKey      string
	CandidatesPerSlot int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Article profile (YAML); empty means built-in defaults.
	ProfilePath string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		ArtweaveAPIKey: os.Getenv("ARTWEAVE_API_KEY"),

		XAIAPIKey:  os.Getenv("XAI_API_KEY"),
		XAIModel:   envOr("XAI_MODEL", "grok-4-1-fast-non-reasoning"),
		XAIBaseURL: envOr("XAI_BASE_URL", "https://api.x.ai/v1"),
		XAITimeout: envDuration("XAI_TIMEOUT", 120*time.Second),

		SearchURL:         envOr("SEARCH_URL", "http://localhost:8095"),
		SearchAPIKey:      os.Getenv("SEARCH_API_KEY"),
		CandidatesPerSlot: envInt("CANDIDATES_PER_SLOT", 7),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		ProfilePath: os.Getenv("ARTICLE_PROFILE"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.CandidatesPerSlot <= 0 {
		cfg.CandidatesPerSlot = 7
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.XAITimeout <= 0 {
		cfg.XAITimeout = 120 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ArtweaveAPIKey == "" {
		return fmt.Errorf("ARTWEAVE_API_KEY is required")
	}
	if c.XAIAPIKey == "" {
		return fmt.Errorf("XAI_API_KEY is required")
	}
	if c.SearchAPIKey == "" {
		return fmt.Errorf("SEARCH_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
