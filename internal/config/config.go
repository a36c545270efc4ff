package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Market     MarketConfig
	Cache      CacheConfig
	Thresholds ThresholdsConfig
	Log        LogConfig
}

// ServerConfig defines the HTTP listener settings.
type ServerConfig struct {
	Port int `validate:"min=1,max=65535"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	User     string `validate:"required"`
	Password string
	DBName   string `mapstructure:"dbname" validate:"required"`
	MaxConns int    `mapstructure:"max_conns" validate:"min=1"`
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

// MarketConfig defines how the price API is reached.
type MarketConfig struct {
	Provider               string `validate:"required"`
	BaseURL                string `mapstructure:"base_url" validate:"required,url"`
	DefaultRegion          string `mapstructure:"default_region" validate:"required"`
	ListingsPerRequest     int    `mapstructure:"listings_per_request" validate:"min=1,max=1000"`
	TimeoutSeconds         int    `mapstructure:"timeout_seconds" validate:"min=1"`
	MaxRetries             int    `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryInitialIntervalMS int    `mapstructure:"retry_initial_interval_ms" validate:"min=1"`
}

// Timeout returns the per-request timeout.
func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// RetryInitialInterval returns the first backoff interval.
func (m MarketConfig) RetryInitialInterval() time.Duration {
	return time.Duration(m.RetryInitialIntervalMS) * time.Millisecond
}

// CacheConfig defines the in-process memoisation of price lookups.
// A zero size disables the cache.
type CacheConfig struct {
	Size       int `validate:"min=0"`
	TTLSeconds int `mapstructure:"ttl_seconds" validate:"min=0"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ThresholdsConfig defines the classification limits.
type ThresholdsConfig struct {
	SlowVelocity float64 `mapstructure:"slow_velocity" validate:"min=0"`
	FastVelocity float64 `mapstructure:"fast_velocity" validate:"gtefield=SlowVelocity"`
	LowMargin    float64 `mapstructure:"low_margin"`
}

// LogConfig defines the logger settings.
type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "craftcheck")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("market.provider", "universalis")
	v.SetDefault("market.base_url", "https://universalis.app")
	v.SetDefault("market.default_region", "Mana")
	v.SetDefault("market.listings_per_request", 100)
	v.SetDefault("market.timeout_seconds", 10)
	v.SetDefault("market.max_retries", 3)
	v.SetDefault("market.retry_initial_interval_ms", 500)

	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.ttl_seconds", 300)

	v.SetDefault("thresholds.slow_velocity", 15)
	v.SetDefault("thresholds.fast_velocity", 99)
	v.SetDefault("thresholds.low_margin", 0.25)

	v.SetDefault("log.level", "info")
}

// LoadConfig reads configuration from file or environment variables.
// A missing config file is not an error; defaults and environment apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}

	if err = validator.New().Struct(config); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}
