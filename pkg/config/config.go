package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	FrontendDir string

	// TrustForwardedHeaders lets X-Forwarded-Proto/Host shape emailed links.
	TrustForwardedHeaders bool

	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Cache         CacheConfig
	Mailer        MailerConfig
	Notifications NotificationConfig
	Renderer      RendererConfig
	RateLimit     RateLimitConfig
	Startup       StartupConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs caching of reference listings.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// MailerConfig points at the external mail microservice.
type MailerConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NotificationConfig sizes the background notification queue.
type NotificationConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

// RendererConfig selects remote PDF rendering when BaseURL is set.
type RendererConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RateLimitConfig throttles the explicit email trigger per client.
type RateLimitConfig struct {
	EmailRPS   float64
	EmailBurst int
}

// StartupConfig toggles work performed by the serve command before listening.
type StartupConfig struct {
	Migrate bool
	Seed    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = normalizePrefix(v.GetString("API_PREFIX"))
	cfg.FrontendDir = v.GetString("FRONTEND_DIR")
	cfg.TrustForwardedHeaders = v.GetBool("TRUST_FORWARDED_HEADERS")

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_REFERENCE_CACHE"),
		TTL:     parseDuration(v.GetString("REFERENCE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Mailer = MailerConfig{
		BaseURL: v.GetString("MAILER_URL"),
		APIKey:  v.GetString("MAILER_API_KEY"),
		Timeout: parseDuration(v.GetString("MAILER_TIMEOUT"), 10*time.Second),
	}

	cfg.Notifications = NotificationConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
	}

	cfg.Renderer = RendererConfig{
		BaseURL: strings.TrimSpace(v.GetString("PDF_RENDERER_URL")),
		Timeout: parseDuration(v.GetString("PDF_RENDERER_TIMEOUT"), 15*time.Second),
	}

	cfg.RateLimit = RateLimitConfig{
		EmailRPS:   v.GetFloat64("EMAIL_RATE_LIMIT_RPS"),
		EmailBurst: v.GetInt("EMAIL_RATE_LIMIT_BURST"),
	}

	cfg.Startup = StartupConfig{
		Migrate: v.GetBool("DB_MIGRATE_ON_START"),
		Seed:    v.GetBool("SEED_ON_START"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("FRONTEND_DIR", "./frontend")
	v.SetDefault("TRUST_FORWARDED_HEADERS", false)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "focused")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE_ON_START", true)
	v.SetDefault("SEED_ON_START", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_REFERENCE_CACHE", false)
	v.SetDefault("REFERENCE_CACHE_TTL", "5m")

	v.SetDefault("MAILER_URL", "http://127.0.0.1:8001")
	v.SetDefault("MAILER_API_KEY", "")
	v.SetDefault("MAILER_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_BUFFER", 64)
	v.SetDefault("NOTIFY_MAX_RETRIES", 0)

	v.SetDefault("PDF_RENDERER_URL", "")
	v.SetDefault("PDF_RENDERER_TIMEOUT", "15s")

	v.SetDefault("EMAIL_RATE_LIMIT_RPS", 1)
	v.SetDefault("EMAIL_RATE_LIMIT_BURST", 5)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// normalizePrefix guarantees a leading slash and no trailing slash ("" stays "").
func normalizePrefix(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}
