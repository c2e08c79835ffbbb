package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

type Config struct {
	Store              string       `json:"store" env:"STORE"`
	JWTSecret          string       `json:"jwt_secret" env:"JWT_SECRET"`
	Redis              RedisConfig  `json:"redis" envPrefix:"REDIS_"`
	SQLite             SQLiteConfig `json:"sqlite" envPrefix:"SQLITE_"`
	Port               string       `json:"port" env:"PORT"`
	MaxUploadSize      int64        `json:"max_upload_size" env:"MAX_UPLOAD_SIZE"`
	TopRefreshInterval int          `json:"top_refresh_interval" env:"TOP_REFRESH_INTERVAL"`
	RateLimit          struct {
		Requests int `json:"requests" env:"REQUESTS"`
		Duration int `json:"duration" env:"DURATION"`
	} `json:"rate_limit" envPrefix:"RATE_LIMIT_"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"ADDR"`
	Password string `json:"password" env:"PASSWORD"`
	DB       int    `json:"db" env:"DB"`
	PoolSize int    `json:"pool_size" env:"POOL_SIZE"`
}

type SQLiteConfig struct {
	Path string `json:"path" env:"PATH"`
}

// Default returns the configuration used when neither the file nor the
// environment set a value.
func Default() Config {
	cfg := Config{
		Store:              StoreRedis,
		Redis:              RedisConfig{Addr: "localhost:6379", PoolSize: 10},
		SQLite:             SQLiteConfig{Path: "./imagehoster.db"},
		Port:               "8080",
		MaxUploadSize:      10 << 20,
		TopRefreshInterval: 60,
	}
	cfg.RateLimit.Requests = 100
	cfg.RateLimit.Duration = 60
	return cfg
}

// Load reads path on top of the defaults, then applies IMAGEHOSTER_*
// environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "IMAGEHOSTER_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Store != StoreRedis && c.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Duration <= 0 {
		return errors.New("rate_limit requests and duration must be positive")
	}
	if c.TopRefreshInterval <= 0 {
		return errors.New("top_refresh_interval must be positive")
	}
	return nil
}
