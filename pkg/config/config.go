package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Jobx     JobxConfig
	Cashback CashbackConfig
	Wallet   WalletConfig
	Banking  BankingConfig
	Notifx   NotifxConfig
}

// ServerConfig configures the ops HTTP server.
type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
}

// IsProduction reports whether the process runs in production.
func (s ServerConfig) IsProduction() bool { return s.Environment == "production" }

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" envDefault:"rewardwallet"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the queue connection.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig selects where dead-letter archives are written.
type StorageConfig struct {
	Mode      string `env:"STORAGE_MODE" envDefault:"local"`
	LocalDir  string `env:"STORAGE_DIR" envDefault:"./data"`
	Bucket    string `env:"AWS_BUCKET"`
	Prefix    string `env:"AWS_BUCKET_PREFIX"`
	AWSRegion string `env:"AWS_REGION" envDefault:"ap-southeast-1"`
}

var configErrors = errx.NewRegistry("CONFIG")

var ErrInvalidConfig = configErrors.Register("INVALID", errx.TypeValidation, 500, "Invalid configuration")

// Load reads an optional .env file then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, configErrors.NewWithCause(ErrInvalidConfig, err).WithDetail("file", ".env")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, configErrors.NewWithCause(ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Mode {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return configErrors.NewWithMessage(ErrInvalidConfig, "AWS_BUCKET is required when STORAGE_MODE=s3")
		}
	default:
		return configErrors.NewWithMessage(ErrInvalidConfig, "STORAGE_MODE must be local or s3").
			WithDetail("value", c.Storage.Mode)
	}

	switch c.Notifx.Provider {
	case "console", "ses":
	default:
		return configErrors.NewWithMessage(ErrInvalidConfig, "NOTIFX_PROVIDER must be console or ses").
			WithDetail("value", c.Notifx.Provider)
	}

	if c.Jobx.Attempts < 1 {
		return configErrors.NewWithMessage(ErrInvalidConfig, "JOBX_ATTEMPTS must be at least 1")
	}
	return nil
}
