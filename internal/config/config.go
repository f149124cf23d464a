// Package config loads shellherd configuration from the global config
// file and SHELLHERD_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8776
	DefaultLogDir         = "logs"
	DefaultRestartTimeout = 10 * time.Second
	DefaultGracePeriod    = 5 * time.Second
)

// configFile is the name of the config file.
const configFile = "config.yaml"

// Config holds shellherd configuration.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	LogDir         string        `yaml:"log_dir"`
	RestartTimeout time.Duration `yaml:"restart_timeout"`
	GracePeriod    time.Duration `yaml:"grace_period"`
}

type fileConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	LogDir         string `yaml:"log_dir"`
	RestartTimeout int    `yaml:"restart_timeout"` // seconds
	GracePeriod    int    `yaml:"grace_period"`    // seconds
}

// Load loads configuration with the following precedence (highest first):
// 1. Environment variables (SHELLHERD_*)
// 2. Global ~/.config/shellherd/config.yaml
// 3. Built-in defaults
func Load() (*Config, error) {
	cfg := &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		LogDir:         DefaultLogDir,
		RestartTimeout: DefaultRestartTimeout,
		GracePeriod:    DefaultGracePeriod,
	}

	globalPath := globalConfigPath()
	if globalPath != "" {
		if err := loadFromFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

// globalConfigPath returns the path to the global config file.
func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "shellherd", configFile)
}

// loadFromFile merges non-zero values from a YAML file into cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}

	if fileCfg.Host != "" {
		cfg.Host = fileCfg.Host
	}
	if fileCfg.Port != 0 {
		cfg.Port = fileCfg.Port
	}
	if fileCfg.LogDir != "" {
		cfg.LogDir = fileCfg.LogDir
	}
	if fileCfg.RestartTimeout > 0 {
		cfg.RestartTimeout = time.Duration(fileCfg.RestartTimeout) * time.Second
	}
	if fileCfg.GracePeriod > 0 {
		cfg.GracePeriod = time.Duration(fileCfg.GracePeriod) * time.Second
	}

	return nil
}

// applyEnv applies environment variables to config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SHELLHERD_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SHELLHERD_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Port = port
		}
	}
	if v := os.Getenv("SHELLHERD_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("SHELLHERD_RESTART_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RestartTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("SHELLHERD_GRACE_PERIOD"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.GracePeriod = time.Duration(secs) * time.Second
		}
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
