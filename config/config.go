package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends
const (
	BackendSupabase = "supabase"
	BackendSQLite   = "sqlite"
)

// Browser engines
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// Config represents the application configuration
type Config struct {
	// Lead store configuration
	StoreBackend  string
	SupabaseURL   string
	SupabaseKey   string
	SupabaseTable string
	SQLitePath    string

	// Memcache configuration
	MemcacheAddr   string
	ExistsCacheTTL time.Duration

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Browser configuration
	BrowserEngine string
	Headless      bool
	ChromePath    string

	// Discovery configuration
	SearchURL         string
	NavigationTimeout time.Duration
	FeedTimeout       time.Duration
	ElementTimeout    time.Duration
	ScrollDelayMin    time.Duration
	ScrollDelayMax    time.Duration
	MaxStaleScrolls   int
	ScreenshotPath    string

	// Worker configuration
	WorkerConcurrency int
	DiscoveryInterval time.Duration

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	existsTTL, _ := strconv.Atoi(getEnv("EXISTS_CACHE_TTL_SECONDS", "86400"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "1000"))
	navTimeout, _ := strconv.Atoi(getEnv("NAVIGATION_TIMEOUT_SECONDS", "60"))
	feedTimeout, _ := strconv.Atoi(getEnv("FEED_TIMEOUT_SECONDS", "30"))
	elementTimeout, _ := strconv.Atoi(getEnv("ELEMENT_TIMEOUT_SECONDS", "10"))
	delayMin, _ := strconv.ParseFloat(getEnv("SCROLL_DELAY_MIN_SECONDS", "2"), 64)
	delayMax, _ := strconv.ParseFloat(getEnv("SCROLL_DELAY_MAX_SECONDS", "5"), 64)
	maxStale, _ := strconv.Atoi(getEnv("MAX_STALE_SCROLLS", "5"))
	concurrency, _ := strconv.Atoi(getEnv("WORKER_CONCURRENCY", "2"))
	interval, _ := strconv.Atoi(getEnv("DISCOVERY_INTERVAL_SECONDS", "0"))
	headless, err := strconv.ParseBool(getEnv("HEADLESS", "true"))
	if err != nil {
		headless = true
	}

	return &Config{
		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		SupabaseURL:          strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseKey:          getEnv("SUPABASE_KEY", ""),
		SupabaseTable:        getEnv("SUPABASE_TABLE", "leads"),
		SQLitePath:           getEnv("SQLITE_PATH", "leads.db"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		ExistsCacheTTL:       time.Duration(existsTTL) * time.Second,
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "leads:discovered"),
		RedisStreamMaxLength: streamMaxLength,
		BrowserEngine:        strings.ToLower(getEnv("BROWSER_ENGINE", EngineChromedp)),
		Headless:             headless,
		ChromePath:           getEnv("CHROME_PATH", ""),
		SearchURL:            getEnv("SEARCH_URL", "https://www.google.com/maps"),
		NavigationTimeout:    time.Duration(navTimeout) * time.Second,
		FeedTimeout:          time.Duration(feedTimeout) * time.Second,
		ElementTimeout:       time.Duration(elementTimeout) * time.Second,
		ScrollDelayMin:       time.Duration(delayMin * float64(time.Second)),
		ScrollDelayMax:       time.Duration(delayMax * float64(time.Second)),
		MaxStaleScrolls:      maxStale,
		ScreenshotPath:       getEnv("SCREENSHOT_PATH", "error_screenshot.png"),
		WorkerConcurrency:    concurrency,
		DiscoveryInterval:    time.Duration(interval) * time.Second,
		Environment:          getEnv("LEADWORKER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can drive a crawl
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.BrowserEngine {
	case EngineChromedp, EngineRod:
	default:
		return fmt.Errorf("unknown BROWSER_ENGINE %q", c.BrowserEngine)
	}

	if c.NavigationTimeout <= 0 || c.FeedTimeout <= 0 || c.ElementTimeout <= 0 {
		return fmt.Errorf("navigation, feed and element timeouts must be positive")
	}
	if c.ScrollDelayMin < 0 || c.ScrollDelayMax < c.ScrollDelayMin {
		return fmt.Errorf("invalid scroll delay range %s-%s", c.ScrollDelayMin, c.ScrollDelayMax)
	}
	if c.MaxStaleScrolls < 0 {
		return fmt.Errorf("MAX_STALE_SCROLLS must not be negative")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.RedisAddr != "" && c.RedisStreamMaxLength < 1 {
		return fmt.Errorf("REDIS_STREAM_MAX_LENGTH must be at least 1")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
