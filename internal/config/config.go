package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	DBPoolSize      int
	APIKey          string
	JWTSecret       string
	RedisURL        string
	RedisPoolSize   int
	CacheTTL        int // seconds
	KafkaBrokers    []string
	KafkaTopic      string
	KafkaPartitions int
	RealtimeBuffer  int
	LogLevel        string
}

// ErrMissing is returned by Validate when required settings are absent.
var ErrMissing = errors.New("missing required configuration")

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = Load()
	})
	return cfg
}

// Load reads the configuration from the environment without caching it.
func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBPoolSize:      getIntEnv("DB_POOL_SIZE", 25),
		APIKey:          os.Getenv("API_KEY"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		RedisURL:        os.Getenv("REDIS_URL"),
		RedisPoolSize:   getIntEnv("REDIS_POOL_SIZE", 50),
		CacheTTL:        getIntEnv("CACHE_TTL_SEC", 60),
		KafkaBrokers:    getSliceEnv("KAFKA_BROKERS"),
		KafkaTopic:      getEnv("KAFKA_CHANGES_TOPIC", "entity-changes"),
		KafkaPartitions: getIntEnv("KAFKA_PARTITIONS", 8),
		RealtimeBuffer:  getIntEnv("REALTIME_BUFFER", 64),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every required setting that is missing. The server must
// not start without them.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.APIKey == "" {
		missing = append(missing, "API_KEY")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}

// CacheTTLDuration is CacheTTL as a duration.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// KafkaEnabled reports whether the realtime feed goes through Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
