package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines the charging engine configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"VOLTCITY_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"VOLTCITY_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"VOLTCITY_REDIS_ADDR"`
		Password string `yaml:"password" env:"VOLTCITY_REDIS_PASSWORD"`
		TTL      int    `yaml:"ttlSeconds" env:"VOLTCITY_REDIS_TTL"`
	} `yaml:"redis"`
	Pricing struct {
		FixedAmountMinor int64   `yaml:"fixedAmountMinor" env:"VOLTCITY_FIXED_AMOUNT_MINOR"`
		FixedEnergyKWh   float64 `yaml:"fixedEnergyKwh" env:"VOLTCITY_FIXED_ENERGY_KWH"`
		PricePerKWhMinor int64   `yaml:"pricePerKwhMinor" env:"VOLTCITY_PRICE_PER_KWH_MINOR"`
	} `yaml:"pricing"`
	Compensation struct {
		MaxAttempts int `yaml:"maxAttempts" env:"VOLTCITY_COMPENSATION_MAX_ATTEMPTS"`
	} `yaml:"compensation"`
}

// Load reads configuration via the shared loader and applies defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.TTL = 86400
	cfg.Pricing.FixedAmountMinor = 1550
	cfg.Pricing.FixedEnergyKWh = 25
	cfg.Pricing.PricePerKWhMinor = 62
	cfg.Compensation.MaxAttempts = 5

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		return nil, errors.New("config: redis addr required")
	}
	if cfg.Pricing.FixedAmountMinor <= 0 {
		return nil, errors.New("config: fixed tariff amount must be positive")
	}
	if cfg.Compensation.MaxAttempts <= 0 {
		cfg.Compensation.MaxAttempts = 5
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// ActiveChargeTTL returns the cache ttl as a duration.
func (c *Config) ActiveChargeTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTL) * time.Second
}
