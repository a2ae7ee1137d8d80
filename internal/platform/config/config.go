package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr             string
	PostgresDSN      string
	JWTSigningKey    string
	SessionTimeout   time.Duration
	CredentialPrefix string
	SeedAdmin        SeedAdminConfig
	Redis            RedisConfig
	Kafka            KafkaConfig
}

// SeedAdminConfig bootstraps the first super-admin on an empty deployment.
// Seeding is skipped when the username is empty or already taken.
type SeedAdminConfig struct {
	Username string
	Password string
}

// RedisConfig captures connection settings for the optional Redis session store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures settings for the optional audit event fan-out.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// DefaultSessionTimeout is the sliding-window idle expiry for authenticated
// sessions. Every authorized activity check extends the window.
const DefaultSessionTimeout = 15 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("COREBANK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("COREBANK_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	sessionTimeout := DefaultSessionTimeout
	if raw := os.Getenv("COREBANK_SESSION_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			sessionTimeout = d
		}
	}

	auditTopic := os.Getenv("COREBANK_KAFKA_AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "corebank.audit"
	}

	credentialPrefix := os.Getenv("COREBANK_CREDENTIAL_PREFIX")
	if credentialPrefix == "" {
		credentialPrefix = "CBNK"
	}

	return Server{
		Addr:             addr,
		PostgresDSN:      os.Getenv("COREBANK_POSTGRES_DSN"),
		JWTSigningKey:    jwtSigningKey,
		SessionTimeout:   sessionTimeout,
		CredentialPrefix: credentialPrefix,
		SeedAdmin: SeedAdminConfig{
			Username: os.Getenv("COREBANK_SEED_ADMIN_USERNAME"),
			Password: os.Getenv("COREBANK_SEED_ADMIN_PASSWORD"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("COREBANK_REDIS_URL"),
			PoolSize:     envInt("COREBANK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("COREBANK_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("COREBANK_KAFKA_BROKERS")),
			AuditTopic: auditTopic,
		},
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
