package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration. The domain configuration
// (CRS tables, program rules, documents) lives in the file-based bundle
// and is loaded separately by internal/bundle.
type Server struct {
	Addr        string
	BundleDir   string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig carries connection settings for the optional Redis client.
// An empty URL disables Redis; the ledger then falls back to in-process
// case locks, which is correct for single-instance deployments.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries settings for the case-event outbox publisher.
// Empty brokers disable publishing; events still persist in the ledger.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("MAPLECASE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	bundleDir := os.Getenv("MAPLECASE_BUNDLE_DIR")
	if bundleDir == "" {
		bundleDir = "config/bundle"
	}

	kafkaTopic := os.Getenv("MAPLECASE_KAFKA_TOPIC")
	if kafkaTopic == "" {
		kafkaTopic = "maplecase.case-events"
	}

	var brokers []string
	if b := os.Getenv("MAPLECASE_KAFKA_BROKERS"); b != "" {
		brokers = splitAndTrim(b)
	}

	return Server{
		Addr:        addr,
		BundleDir:   bundleDir,
		DatabaseURL: os.Getenv("MAPLECASE_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("MAPLECASE_REDIS_URL"),
			PoolSize:     envInt("MAPLECASE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("MAPLECASE_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   kafkaTopic,
		},
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
