package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	BaseURL  string
	Env      string
	LogLevel string

	DBPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitWindow time.Duration
	RateLimitMax    int

	CacheTTL      time.Duration
	AnnotationTTL time.Duration

	OllamaBaseURL string
	OllamaModel   string

	MetadataTimeout  time.Duration
	MetadataMaxBytes int64

	GeoIPDBPath string
	GeoIPAPIURL string

	TrackerWorkers   int
	TrackerQueueSize int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:     envOrDefault("APP_PORT", "8080"),
		BaseURL:  envOrDefault("APP_BASE_URL", "http://localhost:8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DBPath: envOrDefault("DB_PATH", "./shortai.db"),

		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseInt("REDIS_DB", 0),

		RateLimitWindow: time.Duration(parseInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		RateLimitMax:    parseInt("RATE_LIMIT_MAX_REQUESTS", 100),

		CacheTTL:      time.Duration(parseInt("CACHE_TTL_HOURS", 24)) * time.Hour,
		AnnotationTTL: time.Duration(parseInt("ANNOTATION_TTL_DAYS", 7)) * 24 * time.Hour,

		OllamaBaseURL: envOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   envOrDefault("OLLAMA_MODEL", "llama3.2:1b"),

		MetadataTimeout:  parseDuration("METADATA_FETCH_TIMEOUT", 10*time.Second),
		MetadataMaxBytes: int64(parseInt("METADATA_MAX_BODY_BYTES", 1<<20)),

		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),
		GeoIPAPIURL: envOrDefault("GEOIP_API_URL", "http://ip-api.com"),

		TrackerWorkers:   parseInt("TRACKER_WORKERS", runtime.NumCPU()*4),
		TrackerQueueSize: parseInt("TRACKER_QUEUE_SIZE", 10000),
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if cfg.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL_HOURS must be positive")
	}
	if cfg.AnnotationTTL <= 0 {
		return nil, fmt.Errorf("ANNOTATION_TTL_DAYS must be positive")
	}
	if cfg.TrackerWorkers <= 0 {
		return nil, fmt.Errorf("TRACKER_WORKERS must be positive")
	}
	if cfg.TrackerQueueSize <= 0 {
		return nil, fmt.Errorf("TRACKER_QUEUE_SIZE must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
