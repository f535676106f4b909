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
	APIKey string

	// MediaWiki source
	WikiAPIURL    string
	WikiUser      string
	WikiPassword  string
	WikiIndexPage string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentFetch int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Storage
	DBPath string

	// Text format file (YAML), empty for built-in defaults
	FormatConfig string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("WIKISCAN_API_KEY"),

		WikiAPIURL:    os.Getenv("WIKI_API_URL"),
		WikiUser:      os.Getenv("WIKI_USER"),
		WikiPassword:  os.Getenv("WIKI_PASSWORD"),
		WikiIndexPage: envOr("WIKI_INDEX_PAGE", "Scans"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentFetch: envInt("MAX_CONCURRENT_FETCH", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		DBPath: envOr("DB_PATH", "wikiscan.db"),

		FormatConfig: os.Getenv("FORMAT_CONFIG"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentFetch <= 0 {
		cfg.MaxConcurrentFetch = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("WIKISCAN_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	return nil
}

// HasWiki reports whether a wiki is configured for export. Credentials are
// optional; without WIKI_USER the wiki is read anonymously.
func (c Config) HasWiki() bool {
	return c.WikiAPIURL != ""
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
