package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	AppEnv      string
	CORSOrigins string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBSchema   string

	// Session tokens
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Email verification
	VerificationCodeTTL   time.Duration
	VerifiedEmailTTL      time.Duration
	RequireVerifiedSignup bool

	// VK OAuth
	VKAppID        string
	VKAppSecret    string
	VKAuthURL      string
	VKTokenURL     string
	VKAPIURL       string
	VKAPIVersion   string
	VKRedirectPath string
	DefaultOrigin  string

	OAuthStateTTL    time.Duration
	OAuthStateSecret string
	OutboundTimeout  time.Duration

	// SMTP
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SMTPTimeout time.Duration

	RedisURL  string
	SentryDSN string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "accounts"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBSchema:   getEnv("DB_SCHEMA", getEnv("MAIN_DB_SCHEMA", "public")),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "1h"), time.Hour),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "720h"), 30*24*time.Hour),

		VerificationCodeTTL:   parseDuration(getEnv("VERIFICATION_CODE_TTL", "10m"), 10*time.Minute),
		VerifiedEmailTTL:      parseDuration(getEnv("EMAIL_VERIFIED_TTL", "30m"), 30*time.Minute),
		RequireVerifiedSignup: parseBool(getEnv("EMAIL_REGISTER_REQUIRE_VERIFIED", "true"), true),

		VKAppID:        getEnv("VK_APP_ID", ""),
		VKAppSecret:    getEnv("VK_APP_SECRET", ""),
		VKAuthURL:      getEnv("VK_AUTH_URL", "https://oauth.vk.com/authorize"),
		VKTokenURL:     getEnv("VK_TOKEN_URL", "https://oauth.vk.com/access_token"),
		VKAPIURL:       getEnv("VK_API_URL", "https://api.vk.com/method"),
		VKAPIVersion:   getEnv("VK_API_VERSION", "5.131"),
		VKRedirectPath: getEnv("VK_REDIRECT_PATH", "/auth/vk/callback"),
		DefaultOrigin:  getEnv("DEFAULT_ORIGIN", "http://localhost:5173"),

		OAuthStateTTL:    parseDuration(getEnv("OAUTH_STATE_TTL", "10m"), 10*time.Minute),
		OAuthStateSecret: getEnv("OAUTH_STATE_SECRET", ""),
		OutboundTimeout:  parseDuration(getEnv("OUTBOUND_TIMEOUT", "15s"), 15*time.Second),

		SMTPHost:    getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:    getEnv("SMTP_PORT", "587"),
		SMTPUser:    getEnv("SMTP_USER", ""),
		SMTPPass:    getEnv("SMTP_PASS", ""),
		SMTPTimeout: parseDuration(getEnv("SMTP_TIMEOUT", "10s"), 10*time.Second),

		RedisURL:  getEnv("REDIS_URL", ""),
		SentryDSN: getEnv("SENTRY_DSN", ""),
	}

	if cfg.OAuthStateSecret == "" {
		cfg.OAuthStateSecret = cfg.JWTSecret
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SMTPConfigured reports whether outbound mail credentials are present.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPUser != "" && c.SMTPPass != ""
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" search_path=" + c.DBSchema +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
