package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	DatabaseURL    string `env:"DATABASE_URL,required" validate:"required"`
	MigrateOnStart bool   `env:"MIGRATE_ON_START"      envDefault:"false"`
	RedisURL       string `env:"REDIS_URL"`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret         string        `env:"JWT_SECRET,required"  validate:"required,min=32"`
	SessionTTL        time.Duration `env:"SESSION_TTL"          envDefault:"168h" validate:"min=1m"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME"  envDefault:"notes_session" validate:"required"`
	CookieSecure      bool          `env:"COOKIE_SECURE"        envDefault:"false"`
	LoginPath         string        `env:"LOGIN_PATH"           envDefault:"/login" validate:"required,startswith=/"`
	CORSOrigins       []string      `env:"CORS_ORIGINS"         envSeparator:","`

	OTPTTL           time.Duration `env:"OTP_TTL"            envDefault:"5m"  validate:"min=1m"`
	RecoveryTokenTTL time.Duration `env:"RECOVERY_TOKEN_TTL" envDefault:"10m" validate:"min=1m"`
	OTPSweepSchedule string        `env:"OTP_SWEEP_SCHEDULE" envDefault:"@every 5m" validate:"required"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto slog levels. Validation guarantees a known value.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
