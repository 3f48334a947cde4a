package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the engine needs from the environment so main
// stays lean.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Legal    LegalConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr          string
	JWTSigningKey string
}

// PostgresConfig captures the storage DSN. Empty DSN selects the in-memory
// stores (development and tests).
type PostgresConfig struct {
	DSN string
}

// RedisConfig configures the distributed reservation lock. Empty URL disables
// Redis and falls back to the in-process sharded guard.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the notification publisher. Empty Brokers disables
// Kafka and notifications are logged only.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	AuditTopic        string
}

// LegalConfig carries policy knobs for the legal transaction engine.
type LegalConfig struct {
	// ReservationTTL bounds how long a reservation may sit unsigned before
	// the expiry sweep cancels it. Zero disables sweeping.
	ReservationTTL time.Duration
	// SweepInterval is how often the caller-owned sweep timer fires.
	SweepInterval time.Duration
	// CommandTimeout bounds a single command handler, lock wait included.
	CommandTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: ServerConfig{
			Addr:          envOr("CONVEYO_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			NotificationTopic: envOr("KAFKA_NOTIFICATION_TOPIC", "conveyo.legal.notifications"),
			AuditTopic:        envOr("KAFKA_AUDIT_TOPIC", "conveyo.legal.audit"),
		},
		Legal: LegalConfig{
			ReservationTTL: envDurationOr("RESERVATION_TTL", 21*24*time.Hour),
			SweepInterval:  envDurationOr("SWEEP_INTERVAL", time.Minute),
			CommandTimeout: envDurationOr("COMMAND_TIMEOUT", 5*time.Second),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
