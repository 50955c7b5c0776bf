package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	unsetenv(t, "JWT_SECRET")
	t.Setenv("DATABASE_URL", "sqlite://test.db")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)

	t.Setenv("JWT_SECRET", "x")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), cfg.JWTKey)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	unsetenv(t, "DATABASE_URL")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://app:pw@localhost:5432/expenses")
	for _, k := range []string{"API_PORT", "DB_CONNECT_TIMEOUT_SECONDS", "COOKIE_SECURE", "CORS_ORIGINS", "REDIS_ADDR", "KAFKA_BROKERS"} {
		unsetenv(t, k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, 10*time.Second, cfg.DBConnectTimeout)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "expense.", cfg.KafkaTopicPrefix)
}

func TestLoad_ListsAndFlags(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "sqlite://test.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.KafkaEnabled())
}

func TestString_MasksCredentials(t *testing.T) {
	cfg := &Config{APIPort: "8080", DatabaseURL: "postgres://app:pw@db:5432/expenses", JWTKey: []byte("top")}
	s := cfg.String()
	assert.NotContains(t, s, "pw")
	assert.NotContains(t, s, "top")
	assert.Contains(t, s, "postgres://***@db:5432/expenses")
}
