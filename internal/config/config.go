// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
)

// Config is shared by the server and the historian; each reads the fields it needs.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// StoreBackend is "memory" or "postgres".
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"tabletop_actions"`
	BatchSize int    `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMS   int    `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`

	CatalogBaseURL      string        `env:"CATALOG_BASE_URL" envDefault:"https://marvelcdb.com"`
	CatalogRequestDelay time.Duration `env:"CATALOG_REQUEST_DELAY" envDefault:"100ms"`
	CatalogTimeout      time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	ImageDir            string        `env:"IMAGE_DIR" envDefault:"data/images"`

	CounterFloorZero bool   `env:"COUNTER_FLOOR_ZERO" envDefault:"false"`
	TokenExpireTime  string `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
	ClientOrigin     string `env:"CLIENT_ORIGIN" envDefault:"localhost:*"`

	// Seat token keys. Both empty means a fresh key pair per process.
	SeatPrivateKeyFile string `env:"SEAT_PRIVATE_KEY_FILE"`
	SeatPublicKeyFile  string `env:"SEAT_PUBLIC_KEY_FILE"`
}

// Load parses the environment into a Config and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects combinations the processes cannot start with.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if (c.SeatPrivateKeyFile == "") != (c.SeatPublicKeyFile == "") {
		return fmt.Errorf("SEAT_PRIVATE_KEY_FILE and SEAT_PUBLIC_KEY_FILE must be set together")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// FlushInterval is HISTORIAN_FLUSH_MS as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushMS) * time.Millisecond
}

// CounterPolicy maps COUNTER_FLOOR_ZERO onto the game counter policy.
func (c Config) CounterPolicy() models.CounterPolicy {
	if c.CounterFloorZero {
		return models.CountersFloorZero
	}
	return models.CountersUnbounded
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
