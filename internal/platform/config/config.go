// Package config builds runtime configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs to wire its dependencies.
type Config struct {
	Addr string

	// PostgresDSN is empty for in-memory deployments.
	PostgresDSN string

	Redis RedisConfig

	// KafkaBrokers is empty when the audit pipeline is log-only.
	KafkaBrokers []string

	// JWTSigningKey signs session tokens.
	JWTSigningKey string
	// TokenTTL bounds session token validity.
	TokenTTL time.Duration

	// AdminSecret promotes a self-registration to the admin role when the
	// registrant supplies it. Empty disables promotion entirely.
	AdminSecret string

	// CodeTTL bounds one-time code validity.
	CodeTTL time.Duration
	// NotifyTimeout bounds each outbound notification attempt.
	NotifyTimeout time.Duration

	SMTP SMTPConfig
	SMS  SMSConfig
}

// RedisConfig configures the optional Redis backing store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SMTPConfig configures the email notification channel.
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

// SMSConfig configures the Fast2SMS notification channel.
type SMSConfig struct {
	APIKey string
	URL    string
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:        getenv("GRAMINSETU_ADDR", ":8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      24 * time.Hour,
		AdminSecret:   os.Getenv("ADMIN_SECRET"),
		CodeTTL:       5 * time.Minute,
		NotifyTimeout: 5 * time.Second,
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "587"),
			From:     os.Getenv("EMAIL_USER"),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASS"),
		},
		SMS: SMSConfig{
			APIKey: os.Getenv("FAST2SMS_API_KEY"),
			URL:    getenv("FAST2SMS_URL", "https://www.fast2sms.com/dev/bulkV2"),
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
