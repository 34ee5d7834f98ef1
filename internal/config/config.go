package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers selectable through DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Outbox      OutboxConfig
	SMTP        SMTPConfig
	Media       MediaConfig
	Pagination  PaginationConfig
	Comments    CommentsConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	I18n        I18nConfig
}

type HTTPConfig struct {
	Host               string
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxConn            int
	MaxRequestBodySize int
}

type DatabaseConfig struct {
	Driver          string
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
	SQLitePath      string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// OutboxConfig drives the persisted mail retry queue.
type OutboxConfig struct {
	Path         string
	MaxSize      int
	SyncInterval time.Duration
	MaxRetry     int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether outgoing mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type MediaConfig struct {
	Root          string
	URL           string
	StaticRoot    string
	StaticURL     string
	PublicBaseURL string
}

type PaginationConfig struct {
	PageSize    int
	MaxPageSize int
}

type CommentsConfig struct {
	// MaxDepth caps reply nesting when serializing threads; 0 disables the cap.
	MaxDepth int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

type I18nConfig struct {
	DefaultLanguage string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "taskhub"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:               getString("SERVER_HOST", "0.0.0.0"),
			Port:               getString("SERVER_PORT", "8080"),
			ReadTimeout:        getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:       getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:        getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:            getInt("SERVER_MAX_CONN", 0),
			MaxRequestBodySize: getInt("SERVER_MAX_BODY_BYTES", 10<<20),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getString("DB_DRIVER", DriverPostgres)),
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "taskhub"),
			User:            getString("DB_USER", "taskhub"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
			SQLitePath:      getString("SQLITE_PATH", "./data/taskhub.db"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "taskhub"),
			AccessTTL:  getDuration("JWT_ACCESS_TTL", 5*time.Minute),
			RefreshTTL: getDuration("JWT_REFRESH_TTL", 24*time.Hour),
		},
		Outbox: OutboxConfig{
			Path:         getString("OUTBOX_PATH", "./data/outbox.db"),
			MaxSize:      getInt("OUTBOX_MAX_SIZE", 100_000),
			SyncInterval: getDuration("OUTBOX_SYNC_INTERVAL", 30*time.Second),
			MaxRetry:     getInt("OUTBOX_MAX_RETRIES", 5),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getString("SMTP_FROM", "no-reply@taskhub.local"),
		},
		Media: MediaConfig{
			Root:          getString("MEDIA_ROOT", "./media"),
			URL:           getString("MEDIA_URL", "/media"),
			StaticRoot:    getString("STATIC_ROOT", "./static"),
			StaticURL:     getString("STATIC_URL", "/static"),
			PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		},
		Pagination: PaginationConfig{
			PageSize:    getInt("PAGE_SIZE", 50),
			MaxPageSize: getInt("MAX_PAGE_SIZE", 100),
		},
		Comments: CommentsConfig{
			MaxDepth: getInt("COMMENT_MAX_DEPTH", 32),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		I18n: I18nConfig{
			DefaultLanguage: getString("DEFAULT_LANGUAGE", "en"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}
	if cfg.JWT.Secret == "" && cfg.IsDevelopment() {
		cfg.JWT.Secret = "development-only-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "test"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Pagination.PageSize <= 0 || c.Pagination.MaxPageSize < c.Pagination.PageSize {
		errs = append(errs, fmt.Errorf("invalid pagination sizes %d/%d", c.Pagination.PageSize, c.Pagination.MaxPageSize))
	}
	if c.Comments.MaxDepth < 0 {
		errs = append(errs, errors.New("COMMENT_MAX_DEPTH must not be negative"))
	}
	return errors.Join(errs...)
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
