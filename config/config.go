package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StrategyAPI      = "api"
	StrategyEmbedded = "embedded"

	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	ListingURL string `json:"listing_url"`
	BaseOrigin string `json:"base_origin"`
	UserAgent  string `json:"user_agent"`
	Region     string `json:"region"`

	ReferenceStrategy  string `json:"reference_strategy"`
	ReferenceIndexName string `json:"reference_index_name"`
	FipeAPIURL         string `json:"fipe_api_url"`
	VehicleType        string `json:"vehicle_type"`

	MarginThreshold int `json:"margin_threshold"`
	ThresholdMin    int `json:"threshold_min"`
	ThresholdMax    int `json:"threshold_max"`
	ThresholdStep   int `json:"threshold_step"`

	RequestTimeoutMs int     `json:"request_timeout_ms"`
	MaxConcurrency   int     `json:"max_concurrency"`
	RateLimitPerSec  float64 `json:"rate_limit_per_sec"`
	MaxRetries       int     `json:"max_retries"`

	FetchMode        string `json:"fetch_mode"`
	ChromeBin        string `json:"chrome_bin"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`

	CacheTTLSec int `json:"cache_ttl_sec"`
	CacheSize   int `json:"cache_size"`

	CSVOutputPath string `json:"csv_output_path"`
	PostgresDSN   string `json:"postgres_dsn"`
	OtelEndpoint  string `json:"otel_endpoint"`
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		ListingURL: getEnv("LISTING_URL", "https://www.olx.com.br/autos-e-pecas/carros-vans-e-utilitarios/estado-pr"),
		BaseOrigin: getEnv("BASE_ORIGIN", "https://www.olx.com.br"),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"),
		Region: getEnv("REGION", "PR"),

		ReferenceStrategy:  strings.ToLower(getEnv("REFERENCE_STRATEGY", StrategyAPI)),
		ReferenceIndexName: getEnv("REFERENCE_INDEX_NAME", "FIPE"),
		FipeAPIURL:         getEnv("FIPE_API_URL", "https://parallelum.com.br/fipe/api/v1"),
		VehicleType:        getEnv("VEHICLE_TYPE", "carros"),

		MarginThreshold: getEnvInt("MARGIN_THRESHOLD", 4000),
		ThresholdMin:    getEnvInt("THRESHOLD_MIN", 2000),
		ThresholdMax:    getEnvInt("THRESHOLD_MAX", 30000),
		ThresholdStep:   getEnvInt("THRESHOLD_STEP", 1000),

		RequestTimeoutMs: getEnvInt("REQUEST_TIMEOUT_MS", 10000),
		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 0),
		RateLimitPerSec:  getEnvFloat("RATE_LIMIT_PER_SEC", 0),
		MaxRetries:       getEnvInt("MAX_RETRIES", 2),

		FetchMode:        strings.ToLower(getEnv("FETCH_MODE", FetchHTTP)),
		ChromeBin:        getEnv("CHROME_BIN", ""),
		CloudflareBypass: getEnvBool("CLOUDFLARE_BYPASS", false),

		CacheTTLSec: getEnvInt("CACHE_TTL_SEC", 0),
		CacheSize:   getEnvInt("CACHE_SIZE", 1024),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", ""),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		OtelEndpoint:  getEnv("OTEL_ENDPOINT", ""),
	}
}

// RequestTimeout is the bound applied to every individual network call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// CacheTTL is the lifetime of cached reference prices; zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.ReferenceStrategy {
	case StrategyAPI, StrategyEmbedded:
	default:
		return fmt.Errorf("config: unknown reference strategy %q", c.ReferenceStrategy)
	}
	switch c.FetchMode {
	case FetchHTTP, FetchBrowser:
	default:
		return fmt.Errorf("config: unknown fetch mode %q", c.FetchMode)
	}
	if c.ListingURL == "" {
		return fmt.Errorf("config: listing url is required")
	}
	if c.ThresholdStep <= 0 || c.ThresholdMin > c.ThresholdMax {
		return fmt.Errorf("config: invalid threshold range %d..%d step %d",
			c.ThresholdMin, c.ThresholdMax, c.ThresholdStep)
	}
	if c.MarginThreshold < c.ThresholdMin || c.MarginThreshold > c.ThresholdMax {
		return fmt.Errorf("config: default threshold %d outside %d..%d",
			c.MarginThreshold, c.ThresholdMin, c.ThresholdMax)
	}
	if c.RequestTimeoutMs <= 0 {
		return fmt.Errorf("config: request timeout must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
