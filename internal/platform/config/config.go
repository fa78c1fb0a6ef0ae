// Package config builds process configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"rentrihub/pkg/domain"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment domain.Environment
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Registry    RegistryConfig
}

// RedisConfig configures the optional Redis-backed token cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit event publisher. Empty brokers disable it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RegistryConfig carries per-environment Registry endpoints.
type RegistryConfig struct {
	DemoBaseURL       string
	ProductionBaseURL string
	RequestTimeout    time.Duration
}

// BaseURL returns the Registry base URL for the given environment.
func (c RegistryConfig) BaseURL(env domain.Environment) string {
	if env == domain.EnvProduction {
		return c.ProductionBaseURL
	}
	return c.DemoBaseURL
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	env := domain.EnvDemo
	if parsed, err := domain.ParseEnvironment(os.Getenv("RENTRIHUB_ENV")); err == nil {
		env = parsed
	}

	return Server{
		Addr:        getEnv("RENTRIHUB_ADDR", ":8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/rentrihub?sslmode=disable"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "rentrihub.audit"),
		},
		Registry: RegistryConfig{
			DemoBaseURL:       getEnv("RENTRI_DEMO_BASE_URL", "https://demoapi.rentri.gov.it"),
			ProductionBaseURL: getEnv("RENTRI_BASE_URL", "https://api.rentri.gov.it"),
			RequestTimeout:    getEnvDuration("RENTRI_REQUEST_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
