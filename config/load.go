package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Load reads the configuration from path (yaml) overlaid with INCIDENTS_* environment
// variables. An empty path reads the environment only. A .env file in the working
// directory, when present, is loaded into the environment first.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg AppConfig
	if strings.TrimSpace(path) != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *AppConfig) Validate() error {
	switch c.DBDriver {
	case "postgres", "pgx":
		if strings.TrimSpace(c.DBURL) == "" {
			return errors.New("config: db_url is required for postgres")
		}
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("config: db_path is required for sqlite")
		}
	default:
		return fmt.Errorf("config: unsupported db_driver %q", c.DBDriver)
	}
	if c.TLSEnabled && (c.TLSCert == "" || c.TLSKey == "") {
		return errors.New("config: tls_cert and tls_key are required when tls is enabled")
	}
	return nil
}

// Usage describes every supported environment variable.
func Usage() (string, error) {
	var cfg AppConfig
	return cleanenv.GetDescription(&cfg, nil)
}
