package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "development-secret-key-minimum-32-characters-long"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Session    SessionConfig    `mapstructure:"session"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Content    ContentConfig    `mapstructure:"content"`
	Newsletter NewsletterConfig `mapstructure:"newsletter"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Log        LogConfig        `mapstructure:"log"`
	CSP        CSPConfig        `mapstructure:"csp"`
	Site       SiteConfig       `mapstructure:"site"`
	Google     GoogleConfig     `mapstructure:"google"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`        // debug, release, test
	Environment  string        `mapstructure:"environment"` // development, production, test
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// IsProduction reports whether the server runs with production hardening.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

type DatabaseConfig struct {
	Type            string        `mapstructure:"type"` // postgres, mysql, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type SessionConfig struct {
	Secret string        `mapstructure:"secret"`
	Name   string        `mapstructure:"name"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// Rule is a fixed-window limit: at most Max requests per Window.
type Rule struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	Backend         string `mapstructure:"backend"` // memory, redis
	Global          Rule   `mapstructure:"global"`
	API             Rule   `mapstructure:"api"`
	Auth            Rule   `mapstructure:"auth"`
	CommentsPerHour int    `mapstructure:"comments_per_hour"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type ContentConfig struct {
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type NewsletterConfig struct {
	DoubleOptIn bool `mapstructure:"double_opt_in"`
}

type TranslatorConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Key      string        `mapstructure:"key"`
	Region   string        `mapstructure:"region"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether translation credentials are configured.
func (t TranslatorConfig) Enabled() bool {
	return t.Key != ""
}

type NotifyConfig struct {
	Twilio TwilioConfig `mapstructure:"twilio"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
}

// Enabled reports whether every field needed to send an SMS is set.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != "" && t.To != ""
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CSPConfig struct {
	ReportURI   string  `mapstructure:"report_uri"`
	ReportRate  float64 `mapstructure:"report_rate"`
	ReportBurst int     `mapstructure:"report_burst"`
}

type SiteConfig struct {
	URL         string `mapstructure:"url"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Author      string `mapstructure:"author"`
	Email       string `mapstructure:"email"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	TokenInfoURL string `mapstructure:"token_info_url"`
}

// Load reads configuration from .env, config.yaml and the environment,
// in increasing order of precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/erenailab")

	setDefaults(v)
	bindLegacyEnv(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		slog.Info("Config file not found, using defaults and environment")
	} else {
		slog.Info("Config file loaded", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "file:erenailab.db?_foreign_keys=on")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.conn_max_idle_time", time.Minute)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.expiration", 72*time.Hour)

	v.SetDefault("session.secret", defaultJWTSecret)
	v.SetDefault("session.name", "erenailab_session")
	v.SetDefault("session.max_age", 30*24*time.Hour)

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.global.max", 100)
	v.SetDefault("ratelimit.global.window", 15*time.Minute)
	v.SetDefault("ratelimit.api.max", 30)
	v.SetDefault("ratelimit.api.window", 5*time.Minute)
	v.SetDefault("ratelimit.auth.max", 5)
	v.SetDefault("ratelimit.auth.window", 15*time.Minute)
	v.SetDefault("ratelimit.comments_per_hour", 10)

	v.SetDefault("redis.url", "")

	v.SetDefault("content.dir", "content/posts")
	v.SetDefault("content.cache_ttl", time.Minute)

	v.SetDefault("newsletter.double_opt_in", false)

	v.SetDefault("translator.endpoint", "https://api.cognitive.microsofttranslator.com")
	v.SetDefault("translator.key", "")
	v.SetDefault("translator.region", "eastus")
	v.SetDefault("translator.cache_ttl", 7*24*time.Hour)
	v.SetDefault("translator.timeout", 15*time.Second)

	v.SetDefault("notify.twilio.account_sid", "")
	v.SetDefault("notify.twilio.auth_token", "")
	v.SetDefault("notify.twilio.from", "")
	v.SetDefault("notify.twilio.to", "")

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "Admin")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csp.report_uri", "")
	v.SetDefault("csp.report_rate", 1.0)
	v.SetDefault("csp.report_burst", 10)

	v.SetDefault("site.url", "http://localhost:3000")
	v.SetDefault("site.name", "ErenAILab Blog")
	v.SetDefault("site.description", "Academic AI Research Blog")
	v.SetDefault("site.author", "Eren Dikmen")
	v.SetDefault("site.email", "contact@erenailab.com")

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.token_info_url", "https://oauth2.googleapis.com/tokeninfo")
}

func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT", "APP_ENV")
	_ = v.BindEnv("database.type", "DATABASE_TYPE", "DB_TYPE")
	_ = v.BindEnv("database.dsn", "DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("session.secret", "SESSION_SECRET")
	_ = v.BindEnv("redis.url", "REDIS_URL")
	_ = v.BindEnv("site.url", "SITE_URL")
	_ = v.BindEnv("admin.email", "ADMIN_EMAIL")
	_ = v.BindEnv("admin.password", "ADMIN_PASSWORD")
	_ = v.BindEnv("translator.key", "TRANSLATOR_KEY", "AZURE_TRANSLATOR_KEY")
	_ = v.BindEnv("translator.region", "TRANSLATOR_REGION", "AZURE_TRANSLATOR_REGION")
	_ = v.BindEnv("translator.endpoint", "TRANSLATOR_ENDPOINT", "AZURE_TRANSLATOR_ENDPOINT")
	_ = v.BindEnv("notify.twilio.account_sid", "TWILIO_ACCOUNT_SID")
	_ = v.BindEnv("notify.twilio.auth_token", "TWILIO_AUTH_TOKEN")
	_ = v.BindEnv("notify.twilio.from", "TWILIO_FROM")
	_ = v.BindEnv("notify.twilio.to", "TWILIO_TO")
	_ = v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
}

func validateConfig(cfg *Config) error {
	switch cfg.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode: %s (supported: debug, release, test)", cfg.Server.Mode)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		return errors.New("server.cors_origins must list at least one origin")
	}

	switch cfg.Database.Type {
	case "postgres", "postgresql", "mysql", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unsupported database type: %s (supported: postgres, mysql, sqlite)", cfg.Database.Type)
	}
	if cfg.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if cfg.Server.IsProduction() {
		if len(cfg.JWT.Secret) < 32 {
			return errors.New("jwt.secret must be at least 32 characters in production")
		}
		if cfg.JWT.Secret == defaultJWTSecret {
			return errors.New("jwt.secret must be changed from the default in production")
		}
	}
	if cfg.JWT.Expiration <= 0 {
		return errors.New("jwt.expiration must be positive")
	}

	for name, rule := range map[string]Rule{
		"global": cfg.RateLimit.Global,
		"api":    cfg.RateLimit.API,
		"auth":   cfg.RateLimit.Auth,
	} {
		if rule.Max <= 0 || rule.Window <= 0 {
			return fmt.Errorf("ratelimit.%s needs a positive max and window", name)
		}
	}
	switch cfg.RateLimit.Backend {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required when ratelimit.backend is redis")
		}
	default:
		return fmt.Errorf("unsupported ratelimit backend: %s (supported: memory, redis)", cfg.RateLimit.Backend)
	}

	return nil
}

// LogSummary prints the effective configuration with secrets masked.
func (c *Config) LogSummary(logger *slog.Logger) {
	logger.Info("Configuration loaded",
		"environment", c.Server.Environment,
		"listen", c.Server.Host+":"+c.Server.Port,
		"database_type", c.Database.Type,
		"database_dsn", maskDSN(c.Database.DSN),
		"ratelimit_backend", c.RateLimit.Backend,
		"content_dir", c.Content.Dir,
		"translator_enabled", c.Translator.Enabled(),
		"twilio_enabled", c.Notify.Twilio.Enabled(),
		"jwt_secret", mask(c.JWT.Secret),
	)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}

// maskDSN hides the password in URL-style DSNs.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":****" + dsn[at:]
	}
	return dsn
}
