// Package config loads the settings of one map run: defaults, then an
// optional YAML file, then whatever the command line sets explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"methane-leak-map/pkg/database"
	"methane-leak-map/pkg/leakmap"
	"methane-leak-map/pkg/logger"
)

// Config is everything a run needs.
type Config struct {
	Database  database.Config `yaml:"database"`
	Table     string          `yaml:"table"`      // measurement table name
	City      string          `yaml:"city"`       // label used in the output filename
	OutputDir string          `yaml:"output_dir"` // where <city>_maine_map.html is written
	ShareURL  string          `yaml:"share_url"`  // optional; adds a QR badge to the map
	LogLevel  string          `yaml:"log_level"`
}

// Default returns the settings used when nothing overrides them. City has
// no default and must always be supplied.
func Default() Config {
	return Config{
		Database: database.Config{
			DBType:    "sqlite",
			DBPath:    "data/methane_project_DB",
			DBHost:    "127.0.0.1",
			DBPort:    5432,
			DBUser:    "postgres",
			DBName:    "methane",
			PGSSLMode: "prefer",
		},
		Table:     "measurements",
		OutputDir: ".",
		LogLevel:  "INFO",
	}
}

// LoadEnvFile exports the variables of a .env file into the process
// environment. A missing file is only an error when required is set.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadFile overlays the YAML file at path onto cfg. ${VAR} references are
// expanded from the environment before parsing; keys absent from the file
// keep their current values.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(raw, cfg)
}

// Parse is LoadFile for bytes already in memory.
func Parse(raw []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Table) == "" {
		result = multierror.Append(result, errors.New("table name is required"))
	}
	if _, err := leakmap.MapFileName(c.City); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := c.Database.DSN(); err != nil {
		result = multierror.Append(result, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}
	if c.ShareURL != "" {
		u, err := url.Parse(c.ShareURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("share url %q must be an absolute http(s) URL", c.ShareURL))
		}
	}
	return result.ErrorOrNil()
}
