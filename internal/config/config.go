package config

import (
	"fmt"
	"os"
	"strconv"

	"ctchen222/BigTicTacToe/internal/validator"
)

// Config holds the server settings read from the environment.
// EngineDepthLimit stops at 3; deeper searches on a 10x10 board do not
// finish in useful time.
type Config struct {
	HTTPAddr          string `validate:"required"`
	RedisConnString   string `validate:"required"`
	SQLitePath        string `validate:"required"`
	OtelCollectorAddr string `validate:"required_if=OtelEnabled true"`
	OtelEnabled       bool
	JWTSecret         string `validate:"required,min=8"`
	BoardSizeDefault  int    `validate:"gte=3,ltefield=BoardSizeMax"`
	BoardSizeMax      int    `validate:"gte=3,lte=10"`
	EngineDepthLimit  int    `validate:"gte=0,lte=3"`
	EngineSeed        uint64
}

// Load reads the configuration from environment variables, applies defaults
// and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		RedisConnString:   getenv("REDIS_CONNSTRING", "localhost:6379"),
		SQLitePath:        getenv("SQLITE_PATH", "./master.db"),
		OtelCollectorAddr: getenv("OTEL_COLLECTOR_ADDR", "otel-collector:4317"),
		JWTSecret:         getenv("JWT_SECRET", "my_super_secret_key"),
	}

	var err error
	if cfg.OtelEnabled, err = getenvBool("OTEL_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.BoardSizeDefault, err = getenvInt("BOARD_SIZE_DEFAULT", 3); err != nil {
		return nil, err
	}
	if cfg.BoardSizeMax, err = getenvInt("BOARD_SIZE_MAX", 10); err != nil {
		return nil, err
	}
	if cfg.EngineDepthLimit, err = getenvInt("ENGINE_DEPTH_LIMIT", 0); err != nil {
		return nil, err
	}
	if cfg.EngineSeed, err = getenvUint("ENGINE_SEED", 0); err != nil {
		return nil, err
	}

	if err := validator.GetValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getenvUint(key string, fallback uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
