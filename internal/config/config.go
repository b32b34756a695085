package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	SessionSecret        string `env:"SESSION_SECRET"`
	ScannerTTLHours      int    `env:"SCANNER_TTL_HOURS" envDefault:"12"`
	ScanQueueMaxDepth    int    `env:"SCAN_QUEUE_MAX_DEPTH" envDefault:"500"`
	StaffSessionTTLHours int    `env:"STAFF_SESSION_TTL_HOURS" envDefault:"24"`
	NotificationTTLHours int    `env:"NOTIFICATION_TTL_HOURS" envDefault:"24"`
	ScanRateLimitPerMin  int    `env:"SCAN_RATE_LIMIT_PER_MIN" envDefault:"120"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) ScannerTTL() time.Duration {
	return time.Duration(c.ScannerTTLHours) * time.Hour
}

func (c *Config) StaffSessionTTL() time.Duration {
	return time.Duration(c.StaffSessionTTLHours) * time.Hour
}

func (c *Config) NotificationTTL() time.Duration {
	return time.Duration(c.NotificationTTLHours) * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.ScannerTTLHours <= 0 {
		return fmt.Errorf("SCANNER_TTL_HOURS must be positive")
	}
	if c.ScanQueueMaxDepth <= 0 {
		return fmt.Errorf("SCAN_QUEUE_MAX_DEPTH must be positive")
	}

	if isProduction {
		if err := validateSecret("SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
