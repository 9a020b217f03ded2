// Package config loads the dockhand configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yml"

// Config is the application configuration.
type Config struct {
	// ComposeFile is the path to the compose file describing the managed
	// services.
	ComposeFile string `yaml:"compose_file"`
	// DataDir holds the application's persistent data, including the state
	// store database.
	DataDir string `yaml:"data_dir"`
	// BackupDir is where backup archives are written.
	BackupDir string `yaml:"backup_dir"`
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error resolving user config directory: %w", err)
	}
	return filepath.Join(dir, "dockhand"), nil
}

// Load reads the configuration from dir, creating a default file when none
// exists. A .env file next to the compose file is loaded into the process
// environment so compose overrides like COMPOSE_PROJECT_NAME take effect.
func Load(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating configuration directory: %w", err)
	}

	path := filepath.Join(dir, configFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info("config file not found, creating it", "path", path)
		if werr := os.WriteFile(path, defaultConfig(dir), 0o644); werr != nil {
			return nil, fmt.Errorf("error writing default configuration: %w", werr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("error checking configuration file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration file: %w", err)
	}
	cfg.applyDefaults(dir)

	// Optional .env alongside the compose file; absence is not an error.
	if cfg.ComposeFile != "" {
		envFile := filepath.Join(filepath.Dir(cfg.ComposeFile), ".env")
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("error loading %s: %w", envFile, err)
			}
			log.Debug("loaded environment file", "path", envFile)
		}
	}

	return cfg, nil
}

func (c *Config) applyDefaults(dir string) {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(dir, "data")
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(dir, "backups")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ComposeFile == "" {
		c.ComposeFile = filepath.Join(c.DataDir, "docker-compose.yml")
	}
}

// DatabasePath returns the state store location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "dockhand.db")
}

func defaultConfig(dir string) []byte {
	return []byte(fmt.Sprintf(`# dockhand configuration
compose_file: %s
data_dir: %s
backup_dir: %s
log_level: info
`,
		filepath.Join(dir, "data", "docker-compose.yml"),
		filepath.Join(dir, "data"),
		filepath.Join(dir, "backups")))
}
