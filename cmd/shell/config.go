package main

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"taller-access/internal/infrastructure/auth"
)

type config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	AuthMode string `envconfig:"AUTH_MODE" default:"none"`
	JWKSURL  string `envconfig:"JWKS_URL"`

	BackendURL          string        `envconfig:"BACKEND_URL" required:"true"`
	BackendIdentityPath string        `envconfig:"BACKEND_IDENTITY_PATH" default:"/auth/me"`
	BackendTimeout      time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`

	AdminRole string `envconfig:"ADMIN_ROLE" default:"Administrador"`
	MenuFile  string `envconfig:"MENU_FILE"`

	// Role editor storage. An empty table disables the role routes.
	TableName string `envconfig:"TABLE_NAME"`
	Region    string `envconfig:"AWS_REGION"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return config{}, err
	}
	if strings.TrimSpace(cfg.BackendURL) == "" {
		return config{}, errors.New("BACKEND_URL must not be empty")
	}
	mode, err := auth.ParseMode(cfg.AuthMode)
	if err != nil {
		return config{}, err
	}
	if mode == auth.ModeJWKS && cfg.JWKSURL == "" {
		return config{}, errors.New("JWKS_URL is required for jwks auth mode")
	}
	if cfg.TableName != "" && cfg.Region == "" {
		return config{}, errors.New("AWS_REGION is required when TABLE_NAME is set")
	}
	return cfg, nil
}

func (c config) mode() auth.Mode {
	mode, _ := auth.ParseMode(c.AuthMode)
	return mode
}

func (c config) roleEditorEnabled() bool {
	return c.TableName != ""
}
