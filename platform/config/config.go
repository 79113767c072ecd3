// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for the tenant middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// WhatsAppConfig provides settings for the WhatsApp notifier gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	IsWhatsAppEnabled() bool
}

// SMTPConfig provides settings for the email notifier.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// StorageConfig provides settings for MinIO S3-compatible document storage.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketNegotiationDocuments() string
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                             string
	HTTPAddr                        string
	DatabaseURL                     string
	JWTAccessSecret                 string
	CORSAllowAll                    bool
	CORSOrigins                     []string
	CORSAllowCreds                  bool
	RedisURL                        string
	RedisTLSInsecure                bool
	AsynqQueueName                  string
	AsynqConcurrency                int
	WhatsAppURL                     string
	WhatsAppKey                     string
	SMTPHost                        string
	SMTPPort                        int
	SMTPUsername                    string
	SMTPPassword                    string
	EmailFromName                   string
	EmailFromAddress                string
	MinIOEndpoint                   string
	MinIOAccessKey                  string
	MinIOSecretKey                  string
	MinIOUseSSL                     bool
	MinIOMaxFileSize                int64
	MinioBucketNegotiationDocuments string
	OutboxPollInterval              time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string  { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string  { return c.WhatsAppKey }
func (c *Config) IsWhatsAppEnabled() bool { return c.WhatsAppURL != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" }

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketNegotiationDocuments() string {
	return c.MinioBucketNegotiationDocuments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                             getEnv("APP_ENV", "development"),
		HTTPAddr:                        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                     getEnv("DATABASE_URL", ""),
		JWTAccessSecret:                 getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                    corsAllowAll,
		CORSOrigins:                     corsOrigins,
		CORSAllowCreds:                  strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                        getEnv("REDIS_URL", ""),
		RedisTLSInsecure:                strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:                  getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:                mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		WhatsAppURL:                     getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:                     getEnv("WHATSAPP_KEY", ""),
		SMTPHost:                        getEnv("SMTP_HOST", ""),
		SMTPPort:                        mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                    getEnv("SMTP_PASSWORD", ""),
		EmailFromName:                   getEnv("EMAIL_FROM_NAME", "ImobCRM"),
		EmailFromAddress:                getEnv("EMAIL_FROM_ADDRESS", ""),
		MinIOEndpoint:                   getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:                  getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:                  getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                     strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:                mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "52428800")),
		MinioBucketNegotiationDocuments: getEnv("MINIO_BUCKET_NEGOTIATION_DOCUMENTS", "negotiation-documents"),
		OutboxPollInterval:              mustDuration(getEnv("OUTBOX_POLL_INTERVAL", "2s")),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}
