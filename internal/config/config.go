package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config holds runtime configuration with sensible defaults for local dev.
type Config struct {
	Port            int             `yaml:"port"`             // HTTP port (default 5000)
	BaseURL         string          `yaml:"base_url"`         // e.g., http://localhost:5000 (no trailing slash)
	CodeLength      int             `yaml:"code_length"`      // generated code length (default 6)
	CleanupInterval time.Duration   `yaml:"cleanup_interval"` // in-process cleanup period, 0 disables
	MaxBodyBytes    int64           `yaml:"max_body_bytes"`
	Production      bool            `yaml:"production"`
	Store           StoreConfig     `yaml:"store"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Log             LogConfig       `yaml:"log"`
}

type StoreConfig struct {
	Driver         string        `yaml:"driver"`
	SQLitePath     string        `yaml:"sqlite_path"`
	PostgresURL    string        `yaml:"postgres_url"`
	MongoURI       string        `yaml:"mongo_uri"`
	MongoDatabase  string        `yaml:"mongo_database"`
	ConnectRetries int           `yaml:"connect_retries"`
	ConnectDelay   time.Duration `yaml:"connect_delay"`
}

// RateLimitConfig applies to POST /shorten only. Max 0 disables the limiter.
type RateLimitConfig struct {
	Max        int           `yaml:"max"`
	Window     time.Duration `yaml:"window"`
	MaxEntries int           `yaml:"max_entries"`
	RedisAddr  string        `yaml:"redis_addr"` // shared limiter when set
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:         5000,
		BaseURL:      "http://localhost:5000",
		CodeLength:   6,
		MaxBodyBytes: 10 << 20,
		Store: StoreConfig{
			Driver:         DriverSQLite,
			SQLitePath:     "./data/urlshorty.db",
			MongoURI:       "mongodb://localhost:27017",
			MongoDatabase:  "urlshorty",
			ConnectRetries: 5,
			ConnectDelay:   5 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Max:        5,
			Window:     time.Minute,
			MaxEntries: 10000,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by CONFIG_FILE,
// a local ".env" file (never overriding real env) and the environment, in that order.
func Load() (Config, error) {
	_ = godotenv.Load() // best-effort: a missing .env is fine

	cfg := Default()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnvInt("PORT", c.Port)
	c.BaseURL = getEnv("BASE_URL", c.BaseURL)
	c.CodeLength = getEnvInt("CODE_LENGTH", c.CodeLength)
	c.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", c.CleanupInterval)
	c.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(c.MaxBodyBytes)))
	c.Production = getEnvBool("PRODUCTION", c.Production)

	c.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", c.Store.Driver))
	c.Store.SQLitePath = getEnv("DB_PATH", c.Store.SQLitePath)
	c.Store.PostgresURL = getEnv("DATABASE_URL", c.Store.PostgresURL)
	c.Store.MongoURI = getEnv("MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDatabase = getEnv("MONGO_DATABASE", c.Store.MongoDatabase)
	c.Store.ConnectRetries = getEnvInt("STORE_CONNECT_RETRIES", c.Store.ConnectRetries)
	c.Store.ConnectDelay = getEnvDuration("STORE_CONNECT_DELAY", c.Store.ConnectDelay)

	if rl := getEnv("RATE_LIMIT", ""); rl != "" {
		max, window, err := parseRateLimit(rl)
		if err != nil {
			return err
		}
		c.RateLimit.Max = max
		if window > 0 {
			c.RateLimit.Window = window
		}
	}
	c.RateLimit.MaxEntries = getEnvInt("RATE_LIMIT_MAX_ENTRIES", c.RateLimit.MaxEntries)
	c.RateLimit.RedisAddr = getEnv("REDIS_ADDR", c.RateLimit.RedisAddr)

	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))
	c.Log.Format = strings.ToLower(getEnv("LOG_FORMAT", c.Log.Format))
	return nil
}

func (c *Config) normalize() {
	c.BaseURL = sanitizeBaseURL(c.BaseURL)
	if c.CodeLength <= 0 {
		c.CodeLength = 6
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 << 20
	}
	if c.Store.ConnectRetries <= 0 {
		c.Store.ConnectRetries = 1
	}
	if c.Store.Driver == DriverSQLite {
		c.Store.SQLitePath = getDBPath(c.Store.SQLitePath)
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("store driver %q needs DATABASE_URL", c.Store.Driver)
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			return fmt.Errorf("store driver %q needs MONGO_URI and MONGO_DATABASE", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.RateLimit.Max < 0 {
		return fmt.Errorf("invalid rate limit %d", c.RateLimit.Max)
	}
	return nil
}

// Addr returns the HTTP listen address, e.g. ":5000".
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func sanitizeBaseURL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "/")
	if s == "" {
		return "http://localhost:5000"
	}
	return s
}

func getDBPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = "./data/urlshorty.db"
	}
	if p == ":memory:" {
		return p
	}
	// Normalize to OS-specific path; create parent dir if possible (best-effort).
	p = filepath.Clean(p)
	if dir := filepath.Dir(p); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return p
}

var rateRe = regexp.MustCompile(`^(\d+)(?:\s*/\s*(\S+))?$`)

// parseRateLimit accepts "5", "5/1m" or "100/30s" (max/window). "0" disables limiting.
func parseRateLimit(s string) (max int, window time.Duration, err error) {
	m := rateRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid RATE_LIMIT %q", s)
	}
	max, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		window, err = time.ParseDuration(m[2])
		if err != nil || window <= 0 {
			return 0, 0, fmt.Errorf("invalid RATE_LIMIT window %q", m[2])
		}
	}
	return max, window, nil
}
