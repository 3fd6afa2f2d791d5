package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "BASE_URL", "CODE_LENGTH", "CLEANUP_INTERVAL", "MAX_BODY_BYTES",
		"PRODUCTION", "STORE_DRIVER", "DB_PATH", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE",
		"STORE_CONNECT_RETRIES", "STORE_CONNECT_DELAY", "RATE_LIMIT", "RATE_LIMIT_MAX_ENTRIES",
		"REDIS_ADDR", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	// Keep godotenv away from any .env in the package directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", ":memory:")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, "http://localhost:5000", cfg.BaseURL)
	assert.Equal(t, 6, cfg.CodeLength)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, ":memory:", cfg.Store.SQLitePath)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 10000, cfg.RateLimit.MaxEntries)
	assert.Equal(t, int64(10<<20), cfg.MaxBodyBytes)
	assert.Zero(t, cfg.CleanupInterval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("BASE_URL", "https://sho.rt///")
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/urls?sslmode=disable")
	t.Setenv("RATE_LIMIT", "10/30s")
	t.Setenv("CLEANUP_INTERVAL", "1h")
	t.Setenv("STORE_CONNECT_DELAY", "2")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "https://sho.rt", cfg.BaseURL)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.RateLimit.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 2*time.Second, cfg.Store.ConnectDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "urlshorty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
base_url: http://yaml.example/
code_length: 8
store:
  driver: mongo
  mongo_uri: mongodb://mongo:27017
  mongo_database: links
rate_limit:
  max: 3
  window: 10s
log:
  format: console
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port, "env wins over yaml")
	assert.Equal(t, "http://yaml.example", cfg.BaseURL)
	assert.Equal(t, 8, cfg.CodeLength)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "links", cfg.Store.MongoDatabase)
	assert.Equal(t, 3, cfg.RateLimit.Max)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 10000, cfg.RateLimit.MaxEntries, "unset yaml keys keep defaults")
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv skips keys that are present, even when empty.
	require.NoError(t, os.Unsetenv("BASE_URL"))
	require.NoError(t, os.Unsetenv("DB_PATH"))
	require.NoError(t, os.WriteFile(".env", []byte("BASE_URL=http://dotenv.example\nDB_PATH=:memory:\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.example", cfg.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "cassandra"}},
		{"postgres without url", map[string]string{"STORE_DRIVER": "postgres"}},
		{"bad rate limit", map[string]string{"RATE_LIMIT": "fast"}},
		{"bad rate window", map[string]string{"RATE_LIMIT": "5/soon"}},
		{"bad port", map[string]string{"PORT": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_PATH", ":memory:")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		in     string
		max    int
		window time.Duration
	}{
		{"5", 5, 0},
		{"0", 0, 0},
		{"5/1m", 5, time.Minute},
		{" 100 / 30s ", 100, 30 * time.Second},
	}
	for _, tt := range tests {
		max, window, err := parseRateLimit(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.max, max, tt.in)
		assert.Equal(t, tt.window, window, tt.in)
	}
}

func TestGetDBPath_CreatesParent(t *testing.T) {
	dir := t.TempDir()
	p := getDBPath(filepath.Join(dir, "nested", "db.sqlite"))

	assert.Equal(t, filepath.Join(dir, "nested", "db.sqlite"), p)
	st, err := os.Stat(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.True(t, st.IsDir())
}
