package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	ContentDir     string        // root directory holding the category shard files
	CategoriesFile string        // path to categories.yaml (optional, empty = derive categories from shards only)
	ReloadInterval time.Duration // interval to re-walk shards and reload categories.yaml (default: 5m)

	// Live-update channel
	WSHistoryLimit int // number of version->changeset entries kept for incremental sync

	// Redis (optional best-effort cache; empty addr disables it)
	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int
	RedisDT       time.Duration // dial timeout
	RedisRT       time.Duration // read timeout
	RedisWT       time.Duration // write timeout
	RedisPoolSize int
	CacheTTL      time.Duration // TTL for the cached aggregate collection

	// Access restrictions for mutating/admin endpoints
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)

	// Rate limiting for mutating endpoints
	RateBurst  int
	RatePerMin int
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LINKDEX_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("LINKDEX_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LINKDEX_LOG_LEVEL", "info"),
		PrettyLog: mustBool("LINKDEX_PRETTY_LOG", true),

		// Content
		ContentDir:     requireEnv("LINKDEX_CONTENT_DIR"),
		CategoriesFile: getenv("LINKDEX_CATEGORIES_FILE", ""),
		ReloadInterval: mustDuration("LINKDEX_RELOAD_INTERVAL", 5*time.Minute),

		// Live-update channel
		WSHistoryLimit: getenvInt("LINKDEX_WS_HISTORY_LIMIT", 16),

		// Redis settings (cache is optional)
		RedisAddr:     getenv("LINKDEX_REDIS_ADDR", ""),
		RedisUser:     getenv("LINKDEX_REDIS_USERNAME", "default"),
		RedisPassword: getenv("LINKDEX_REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("LINKDEX_REDIS_DB", 0),
		RedisDT:       mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:       mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:       mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize: getenvInt("REDIS_POOL_SIZE", 10),
		CacheTTL:      mustDuration("LINKDEX_CACHE_TTL", time.Hour),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("LINKDEX_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("LINKDEX_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("LINKDEX_TRUST_PROXY", true),

		// Rate limiting
		RateBurst:  getenvInt("LINKDEX_RATE_BURST", 10),
		RatePerMin: getenvInt("LINKDEX_RATE_PER_MIN", 60),
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
