package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSessionSecret = "dev-session-secret-change-in-production"

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName    string
	S3PublicBaseURL string

	SessionSecret     string
	SessionCookieName string
	SessionExpiry     time.Duration

	OTPExpiry           time.Duration
	OTPMaxAttempts      int
	OTPSendLimitPerHour int

	SMTP SMTPConfig

	GoogleClientID string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowedOrigins []string // CORS allowed origins
	TrustedProxies []string // IPs or CIDRs whose X-Forwarded-For is believed
	FrontendURL    string
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts   string
	Identities string
	Documents  string
}

type SMTPConfig struct {
	Service  string // gmail | outlook | office365 | any host
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Enabled reports whether enough is configured to send mail.
func (c SMTPConfig) Enabled() bool {
	return (c.Host != "" || c.Service != "") && c.Username != "" && c.Password != ""
}

// Load reads all configuration from environment variables.
func Load() *Config {
	username := getEnv("SMTP_USERNAME", os.Getenv("EMAIL_ADMIN"))
	return &Config{
		AppPort:   getEnv("APP_PORT", getEnv("PORT", "8080")),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Accounts:   getEnv("DYNAMO_TABLE_ACCOUNTS", getEnv("COLLECTION_ACCOUNTS", "accounts")),
			Identities: getEnv("DYNAMO_TABLE_IDENTITIES", "identities"),
			Documents:  getEnv("DYNAMO_TABLE_DOCUMENTS", "documents"),
		},

		S3BucketName:    getEnv("S3_BUCKET_NAME", ""),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "session"),
		SessionExpiry:     time.Duration(getEnvInt("SESSION_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		OTPExpiry:           time.Duration(getEnvInt("OTP_EXPIRY_MINUTES", 10)) * time.Minute,
		OTPMaxAttempts:      getEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPSendLimitPerHour: getEnvInt("OTP_SEND_LIMIT_PER_HOUR", 5),

		SMTP: SMTPConfig{
			Service:  getEnv("SMTP_SERVICE", os.Getenv("EMAIL_SERVICE")),
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 0),
			Username: username,
			Password: getEnv("SMTP_PASSWORD", os.Getenv("EMAIL_PASS_ADMIN")),
			From:     getEnv("SMTP_FROM", username),
			FromName: getEnv("SMTP_FROM_NAME", "SMM Panel Landing"),
		},

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", getEnv("CORS_ORIGIN", "http://localhost:3000"))),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
	}
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// Validate checks required settings. Outside production a missing session
// secret falls back to a fixed development value.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return errors.New("SESSION_SECRET must be set in production")
		}
		slog.Warn("SESSION_SECRET not set, using default (dev only)")
		c.SessionSecret = devSessionSecret
	}
	if c.DynamoTables.Accounts == "" {
		return errors.New("DYNAMO_TABLE_ACCOUNTS must be set")
	}
	if c.OTPExpiry <= 0 {
		return errors.New("OTP_EXPIRY_MINUTES must be positive")
	}
	if c.OTPMaxAttempts <= 0 {
		return errors.New("OTP_MAX_ATTEMPTS must be positive")
	}
	if c.OTPSendLimitPerHour <= 0 {
		return errors.New("OTP_SEND_LIMIT_PER_HOUR must be positive")
	}
	if c.SessionExpiry <= 0 {
		return errors.New("SESSION_EXPIRY_DAYS must be positive")
	}
	return nil
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

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
