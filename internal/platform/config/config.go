package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingJWTSecret   = errors.New("JWT_SECRET environment variable is not set")
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")
)

type Config struct {
	APIPort string
	JWTKey  []byte

	DatabaseURL      string
	DBConnectTimeout time.Duration

	CookieSecure bool
	CORSOrigins  []string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	EventQueueName string

	KafkaBrokers     []string
	KafkaTopicPrefix string
}

// Load reads .env (if present) and the process environment. A missing signing
// secret or store URL is an error; callers treat it as fatal.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:          getEnv("API_PORT", "8080"),
		JWTKey:           []byte(getEnv("JWT_SECRET", "")),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBConnectTimeout: time.Duration(getEnvAsInt("DB_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
		CookieSecure:     getEnvAsBool("COOKIE_SECURE", false),
		CORSOrigins:      getEnvAsList("CORS_ORIGINS", "http://localhost:3000"),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		EventQueueName:   getEnv("EVENT_QUEUE_NAME", "expense_events_queue"),
		KafkaBrokers:     getEnvAsList("KAFKA_BROKERS", ""),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "expense."),
	}

	if len(cfg.JWTKey) == 0 {
		return nil, ErrMissingJWTSecret
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// String masks the secret and the credentials part of the store URL.
func (c *Config) String() string {
	return fmt.Sprintf("Config{port: %s, db: %s, redis: %t, kafka: %t, jwt: ***}",
		c.APIPort, maskURL(c.DatabaseURL), c.RedisEnabled(), c.KafkaEnabled())
}

func maskURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "***" + raw[at:]
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
