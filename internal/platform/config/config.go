// Package config loads service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBName     string `env:"DB_NAME" envDefault:"registration_engine"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort string `env:"REDIS_PORT" envDefault:"6379"`

	// Empty AMQPURL falls back to the log notifier.
	AMQPURL     string `env:"AMQP_URL" envDefault:""`
	NotifyQueue string `env:"NOTIFY_QUEUE" envDefault:"ticket-notifications"`

	IdentityURL string `env:"IDENTITY_URL" envDefault:"http://localhost:8081"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
}

func Load() (Config, error) {
	// Missing .env is fine; the process environment wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
