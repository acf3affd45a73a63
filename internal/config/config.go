package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config captures all runtime configuration. Values come from an optional
// config.yaml overlaid by environment variables.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	StoreDriver      string `mapstructure:"STORE_DRIVER"`
	StoreTimeoutMS   int    `mapstructure:"STORE_TIMEOUT_MS"`
	RatingMaxRetries int    `mapstructure:"RATING_MAX_RETRIES"`
	MaxPageLimit     int    `mapstructure:"MAX_PAGE_LIMIT"`

	DBURL             string `mapstructure:"DB_URL"`
	DBMaxConns        int    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int    `mapstructure:"DB_MIN_CONNS"`
	DBMaxIdleSecs     int    `mapstructure:"DB_MAX_CONN_IDLE_SECS"`
	DBMaxLifeSecs     int    `mapstructure:"DB_MAX_CONN_LIFETIME_SECS"`
	DBConnTimeoutSecs int    `mapstructure:"DB_CONN_TIMEOUT_SECS"`
	DBStatementCache  int    `mapstructure:"DB_STATEMENT_CACHE_CAPACITY"`

	MongoURL      string `mapstructure:"MONGO_URL"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	FurnitureURL          string `mapstructure:"FURNITURE_URL"`
	FurnitureAPIKey       string `mapstructure:"FURNITURE_API_KEY"`
	FurnitureTimeoutSecs  int    `mapstructure:"FURNITURE_TIMEOUT_SECS"`
	FurnitureCacheTTLSecs int    `mapstructure:"FURNITURE_CACHE_TTL_SECS"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	ReadTimeoutSecs  int `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeoutSecs int `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeoutSecs  int `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

var defaults = map[string]interface{}{
	"PORT":                        "8080",
	"ENV":                         "development",
	"LOG_LEVEL":                   "info",
	"STORE_DRIVER":                DriverPostgres,
	"STORE_TIMEOUT_MS":            5000,
	"RATING_MAX_RETRIES":          5,
	"MAX_PAGE_LIMIT":              100,
	"DB_URL":                      "",
	"DB_MAX_CONNS":                20,
	"DB_MIN_CONNS":                2,
	"DB_MAX_CONN_IDLE_SECS":       300,
	"DB_MAX_CONN_LIFETIME_SECS":   3600,
	"DB_CONN_TIMEOUT_SECS":        10,
	"DB_STATEMENT_CACHE_CAPACITY": 256,
	"MONGO_URL":                   "",
	"MONGO_DATABASE":              "room_catalog",
	"FURNITURE_URL":               "",
	"FURNITURE_API_KEY":           "",
	"FURNITURE_TIMEOUT_SECS":      3,
	"FURNITURE_CACHE_TTL_SECS":    600,
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"SERVER_READ_TIMEOUT":         15,
	"SERVER_WRITE_TIMEOUT":        15,
	"SERVER_IDLE_TIMEOUT":         60,
}

// Load reads configuration, applying defaults and validation.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverMongo:
		if cfg.MongoURL == "" {
			return fmt.Errorf("MONGO_URL is required when STORE_DRIVER=%s", DriverMongo)
		}
		if cfg.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE must not be empty")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMongo, cfg.StoreDriver)
	}
	if cfg.FurnitureURL == "" {
		return fmt.Errorf("FURNITURE_URL is required")
	}
	if cfg.FurnitureTimeoutSecs <= 0 {
		return fmt.Errorf("FURNITURE_TIMEOUT_SECS must be positive")
	}
	if cfg.FurnitureCacheTTLSecs <= 0 {
		return fmt.Errorf("FURNITURE_CACHE_TTL_SECS must be positive")
	}
	if cfg.StoreTimeoutMS <= 0 {
		return fmt.Errorf("STORE_TIMEOUT_MS must be positive")
	}
	if cfg.RatingMaxRetries <= 0 {
		return fmt.Errorf("RATING_MAX_RETRIES must be positive")
	}
	if cfg.MaxPageLimit <= 0 {
		return fmt.Errorf("MAX_PAGE_LIMIT must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	return nil
}

// CacheEnabled reports whether furniture lookups go through Redis.
func (cfg Config) CacheEnabled() bool {
	return cfg.RedisAddr != ""
}
