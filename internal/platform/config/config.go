// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs at startup. Empty optional
// fields (PostgresDSN, RedisURL, KafkaBrokers) disable the corresponding
// backend and the in-memory substitute is used instead.
type Config struct {
	Addr          string
	JWTSigningKey string

	PostgresDSN string

	RedisURL          string
	ListedCacheTTL    time.Duration
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration
	RedisPoolSize     int
	RedisMinIdleConns int

	KafkaBrokers []string
	KafkaTopic   string

	EventJournalPath string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("CURIO_ADDR", ":8080"),
		JWTSigningKey:     envOr("CURIO_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:       os.Getenv("CURIO_POSTGRES_DSN"),
		RedisURL:          os.Getenv("CURIO_REDIS_URL"),
		ListedCacheTTL:    5 * time.Second,
		RedisDialTimeout:  5 * time.Second,
		RedisReadTimeout:  3 * time.Second,
		RedisWriteTimeout: 3 * time.Second,
		RedisPoolSize:     10,
		RedisMinIdleConns: 2,
		KafkaTopic:        envOr("CURIO_KAFKA_TOPIC", "curio.market.events"),
		EventJournalPath:  envOr("CURIO_EVENT_JOURNAL", "curio-events.db"),
	}
	if brokers := os.Getenv("CURIO_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if ttl := os.Getenv("CURIO_LISTED_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.ListedCacheTTL = d
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
