package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the server's environment surface. CLI flags layer on top of
// it in cmd; nothing below cmd reads the environment directly.
type Config struct {
	Root        string   `env:"CEDARSCRIPT_ROOT" validate:"required"`
	ReadOnly    bool     `env:"CEDARSCRIPT_READ_ONLY" env-default:"false"`
	MaxFileSize int64    `env:"CEDARSCRIPT_MAX_FILE_SIZE" env-default:"10485760" validate:"gt=0"`
	Denylist    []string `env:"CEDARSCRIPT_DENYLIST"`
	EngineBin   string   `env:"CEDARSCRIPT_BIN" env-default:"cedarscript" validate:"required"`
	LogLevel    string   `env:"CEDARSCRIPT_LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	LogFormat   string   `env:"CEDARSCRIPT_LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

func Load() (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	// The project root defaults to the working directory; it cannot be
	// expressed as a static env-default.
	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
		cfg.Root = wd
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}
