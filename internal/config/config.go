package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"hours-reconciliation-backend/internal/services/matching"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all runtime configuration. Values come from the environment,
// optionally seeded from a .env file in the working directory.
type Config struct {
	Port           string   `env:"PORT" env-default:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
	LogLevel       string   `env:"LOG_LEVEL" env-default:"info"`
	LogFormat      string   `env:"LOG_FORMAT" env-default:"json"`
	MaxUploadMB    int64    `env:"MAX_UPLOAD_MB" env-default:"32"`

	// DualJoinPolicy is full_outer or hha_anchored.
	DualJoinPolicy string `env:"DUAL_JOIN_POLICY" env-default:"full_outer"`

	// StoreDriver selects postgres, or memory for local runs without a database.
	StoreDriver string `env:"STORE_DRIVER" env-default:"postgres"`

	Database DatabaseConfig
	Redis    RedisConfig
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            int           `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" env-default:"hr_portal"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
}

// DSN is the postgres connection string for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig enables the summary cache when Addr is set.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `env:"SUMMARY_CACHE_TTL" env-default:"5m"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) JoinPolicy() matching.JoinPolicy {
	p, _ := matching.ParseJoinPolicy(c.DualJoinPolicy)
	return p
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := matching.ParseJoinPolicy(c.DualJoinPolicy); err != nil {
		return fmt.Errorf("DUAL_JOIN_POLICY: %w", err)
	}
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}
