// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Room and message limits. They are part of the client contract and are not configurable.
const (
	RoomDuration         = 600 * time.Second
	TickInterval         = 60 * time.Second
	MaxMessageLength     = 500
	MaxMessagesPerSender = 3
)

// DatabaseConfig selects the audit database.
type DatabaseConfig struct {
	Driver string `envconfig:"DATABASE_DRIVER" default:"sqlite" validate:"oneof=postgres sqlite"`
	DSN    string `envconfig:"DATABASE_DSN" default:"chachat.db" validate:"required"`
}

type Config struct {
	DatabaseConfig

	Port     int    `envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// RedisAddr is optional; without it audit events are only written to the database.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`

	JWTSecret string        `envconfig:"JWT_SECRET" validate:"required,min=16"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"15m" validate:"gt=0"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	// AllowedOrigins is a comma-separated list. Empty allows any origin.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	AuditBuffer    int      `envconfig:"AUDIT_BUFFER" default:"256" validate:"min=1"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings. Used by the admin CLI.
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()

	var cfg DatabaseConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
