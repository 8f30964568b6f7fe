package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Storage     StorageConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Cache       CacheConfig
	JWT         JWTConfig
	Outbox      OutboxConfig
	Archive     ArchiveConfig
	Ledger      LedgerConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnablePprof   bool
	EnableMetrics bool
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
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
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// JWTConfig configures the role gate. An empty secret disables it.
type JWTConfig struct {
	Secret string
	Issuer string
}

type OutboxConfig struct {
	Path           string
	RetentionHours int
	SyncInterval   time.Duration
	BatchSize      int
	MaxRetry       int

	// MonitorInterval is how often storage probes run.
	MonitorInterval time.Duration
}

type ArchiveConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	Prefix    string
	PathStyle bool
}

type LedgerConfig struct {
	TransitionMode string
	VerifyPath     string
	// PolicyFile optionally overrides the built-in intake policy.
	PolicyFile string
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

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "herbtrace"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", false),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getString("STORAGE_DRIVER", DriverMemory)),
			SQLitePath: getString("SQLITE_PATH", "./data/herbtrace.db"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "herbtrace"),
			User:            getString("DB_USER", "herbtrace"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Cache: CacheConfig{
			Enabled: getBool("CACHE_ENABLED", false),
			TTL:     getDuration("CACHE_TTL", 5*time.Minute),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: os.Getenv("JWT_ISSUER"),
		},
		Outbox: OutboxConfig{
			Path:            getString("OUTBOX_PATH", "./data/outbox.db"),
			RetentionHours:  getInt("OUTBOX_RETENTION_HOURS", 72),
			SyncInterval:    getDuration("OUTBOX_SYNC_INTERVAL", 30*time.Second),
			BatchSize:       getInt("OUTBOX_BATCH_SIZE", 50),
			MaxRetry:        getInt("MAX_RETRY_ATTEMPTS", 5),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Archive: ArchiveConfig{
			Bucket:    os.Getenv("ARCHIVE_S3_BUCKET"),
			Region:    getString("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("ARCHIVE_S3_ENDPOINT"),
			Prefix:    getString("ARCHIVE_S3_PREFIX", "provenance"),
			PathStyle: getBool("ARCHIVE_S3_PATH_STYLE", false),
		},
		Ledger: LedgerConfig{
			TransitionMode: strings.ToLower(getString("LEDGER_TRANSITION_MODE", "legacy")),
			VerifyPath:     getString("LEDGER_VERIFY_PATH", "/verify"),
			PolicyFile:     os.Getenv("INTAKE_POLICY_FILE"),
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
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Ledger.TransitionMode {
	case "legacy", "forward":
	default:
		return fmt.Errorf("unsupported LEDGER_TRANSITION_MODE %q", c.Ledger.TransitionMode)
	}
	if c.Cache.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("CACHE_ENABLED requires REDIS_URL")
	}
	return nil
}

// OutboxRetention converts the retention window to a duration.
func (c *Config) OutboxRetention() time.Duration {
	if c.Outbox.RetentionHours <= 0 {
		return 0
	}
	return time.Duration(c.Outbox.RetentionHours) * time.Hour
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
