package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	Redis     RedisConfig
	Kafka     KafkaConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig
}

// RateLimitConfig throttles the public endpoints per client IP. A zero
// PublicLimit disables throttling.
type RateLimitConfig struct {
	PublicLimit  int
	PublicWindow time.Duration
}

// RedisConfig configures the wanted-list cache. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the notification outbox publisher. Empty brokers
// disable publishing (notifications stay in the outbox table).
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	PollInterval time.Duration
}

// GatewayConfig configures the external payment gateway client.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// WantedListCacheTTL bounds staleness of the public wanted list.
var WantedListCacheTTL = 5 * time.Minute

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CASEFILE_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("CASEFILE_DATABASE_URL"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		Redis: RedisConfig{
			URL:          os.Getenv("CASEFILE_REDIS_URL"),
			PoolSize:     getenvInt("CASEFILE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("CASEFILE_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:        getenv("CASEFILE_KAFKA_TOPIC", "casefile.notifications"),
			PollInterval: 2 * time.Second,
		},
		Gateway: GatewayConfig{
			BaseURL: os.Getenv("PAYMENT_GATEWAY_URL"),
			APIKey:  os.Getenv("PAYMENT_GATEWAY_API_KEY"),
			Timeout: 10 * time.Second,
		},
		RateLimit: RateLimitConfig{
			PublicLimit:  getenvInt("CASEFILE_PUBLIC_RATE_LIMIT", 60),
			PublicWindow: time.Minute,
		},
	}
	if brokers := os.Getenv("CASEFILE_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if cfg.JWTSigningKey == "" {
		// Development default - must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
