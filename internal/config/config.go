package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"ctchen222/Nexus-Tic-Tac-Toe/internal/validator"

	"github.com/ilyakaznacheev/cleanenv"
)

// Session stores
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	HTTP      HTTP      `yaml:"http"`
	Session   Session   `yaml:"session"`
	Redis     Redis     `yaml:"redis"`
	Auth      Auth      `yaml:"auth"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	WebRoot         string        `yaml:"web-root" env:"HTTP_WEB_ROOT" env-default:"./web"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type Session struct {
	Store        string        `yaml:"store" env:"SESSION_STORE" env-default:"memory" validate:"oneof=memory redis"`
	AIDelay      time.Duration `yaml:"ai-delay" env:"SESSION_AI_DELAY" env-default:"700ms"`
	LevelUpDelay time.Duration `yaml:"level-up-delay" env:"SESSION_LEVEL_UP_DELAY" env-default:"2s"`
	ConquerDelay time.Duration `yaml:"conquer-delay" env:"SESSION_CONQUER_DELAY" env-default:"3s"`
	IdleTimeout  time.Duration `yaml:"idle-timeout" env:"SESSION_IDLE_TIMEOUT" env-default:"30m" validate:"gt=0"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_CONNSTRING" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Auth struct {
	Secret   string        `yaml:"secret" env:"AUTH_SECRET" validate:"required,min=16"`
	TokenTTL time.Duration `yaml:"token-ttl" env:"AUTH_TOKEN_TTL" env-default:"24h" validate:"gt=0"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"nexus-tic-tac-toe"`
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides and defaults. Without a file only the environment is used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else if errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = statErr
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad is Load for program start-up.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
