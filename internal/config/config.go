// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RemoteAPIConfig struct {
	BaseURL               string `yaml:"base_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	UploadTimeoutSeconds  int    `yaml:"upload_timeout_seconds"`
}

type SessionConfig struct {
	CookieName    string `yaml:"cookie_name"`
	LifetimeHours int    `yaml:"lifetime_hours"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type UploadsConfig struct {
	MaxDocumentMB int `yaml:"max_document_mb"`
}

type SubscriptionConfig struct {
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	TrialDays       int     `yaml:"trial_days"`
	MonthlyPrice    float64 `yaml:"monthly_price"`
	YearlyPrice     float64 `yaml:"yearly_price"`
}

type Config struct {
	SiteName        string             `yaml:"site_name"`
	SiteDescription string             `yaml:"site_description"`
	CurrentYear     int                `yaml:"current_year"`
	BaseURL         string             `yaml:"base_url"`
	Port            int                `yaml:"port"`
	AppEnv          string             `yaml:"app_env"`
	RemoteAPI       RemoteAPIConfig    `yaml:"remote_api"`
	Session         SessionConfig      `yaml:"session"`
	Redis           RedisConfig        `yaml:"redis"`
	RateLimit       RateLimitConfig    `yaml:"rate_limit"`
	Uploads         UploadsConfig      `yaml:"uploads"`
	Subscription    SubscriptionConfig `yaml:"subscription"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RemoteAPI.RequestTimeoutSeconds) * time.Second
}

func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.RemoteAPI.UploadTimeoutSeconds) * time.Second
}

func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.Session.LifetimeHours) * time.Hour
}

func (c *Config) SubscriptionCacheTTL() time.Duration {
	return time.Duration(c.Subscription.CacheTTLSeconds) * time.Second
}

func (c *Config) MaxDocumentBytes() int64 {
	return int64(c.Uploads.MaxDocumentMB) << 20
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Environment variable is not a number, using default", "key", key, "value", valueStr)
	}
	return defaultValue
}

// LoadConfig reads the YAML file, applies environment overrides and fills defaults.
func LoadConfig(filename string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			slog.Info("configs/.env not loaded, relying on process environment", "error", err)
		} else {
			slog.Info("Environment loaded from configs/.env")
		}
	}

	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("open config file '%s': %w", filename, err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode YAML from '%s': %w", filename, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("Configuration loaded", "app_env", cfg.AppEnv, "base_url", cfg.BaseURL, "port", cfg.Port, "remote_api", cfg.RemoteAPI.BaseURL, "redis", cfg.Redis.Addr != "")
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	cfg.BaseURL = getStringEnvOrDefault("BASE_URL", cfg.BaseURL)
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)

	cfg.RemoteAPI.BaseURL = getStringEnvOrDefault("REMOTE_API_URL", cfg.RemoteAPI.BaseURL)
	cfg.RemoteAPI.RequestTimeoutSeconds = getIntEnvOrDefault("REMOTE_API_TIMEOUT_SECONDS", cfg.RemoteAPI.RequestTimeoutSeconds)

	cfg.Redis.Addr = getStringEnvOrDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getStringEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getIntEnvOrDefault("REDIS_DB", cfg.Redis.DB)

	cfg.Session.LifetimeHours = getIntEnvOrDefault("SESSION_LIFETIME_HOURS", cfg.Session.LifetimeHours)
}

func applyDefaults(cfg *Config) {
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Arabic Tutor"
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	cfg.RemoteAPI.BaseURL = strings.TrimSuffix(cfg.RemoteAPI.BaseURL, "/")

	if cfg.RemoteAPI.RequestTimeoutSeconds <= 0 {
		cfg.RemoteAPI.RequestTimeoutSeconds = 90
	}
	if cfg.RemoteAPI.UploadTimeoutSeconds <= 0 {
		cfg.RemoteAPI.UploadTimeoutSeconds = 300
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "tutor_session"
	}
	if cfg.Session.LifetimeHours <= 0 {
		cfg.Session.LifetimeHours = 24
	}
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit.RequestsPerMinute = 20
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.Uploads.MaxDocumentMB <= 0 {
		cfg.Uploads.MaxDocumentMB = 20
	}
	if cfg.Subscription.CacheTTLSeconds <= 0 {
		cfg.Subscription.CacheTTLSeconds = 60
	}
	if cfg.Subscription.TrialDays <= 0 {
		cfg.Subscription.TrialDays = 3
	}
	if cfg.Subscription.MonthlyPrice <= 0 {
		cfg.Subscription.MonthlyPrice = 9.99
	}
	if cfg.Subscription.YearlyPrice <= 0 {
		cfg.Subscription.YearlyPrice = 99.99
	}
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL is not set")
	}
	if c.IsProduction() && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("BASE_URL must start with https:// in production")
	}
	if c.RemoteAPI.BaseURL == "" {
		return fmt.Errorf("remote_api.base_url (REMOTE_API_URL) is not set")
	}
	if !strings.HasPrefix(c.RemoteAPI.BaseURL, "http://") && !strings.HasPrefix(c.RemoteAPI.BaseURL, "https://") {
		return fmt.Errorf("remote_api.base_url must be an http(s) URL, got %q", c.RemoteAPI.BaseURL)
	}
	if c.IsProduction() && c.Redis.Addr == "" {
		slog.Warn("REDIS_ADDR is not set in production, sessions and caches stay in process memory")
	}
	return nil
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == "development" {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
