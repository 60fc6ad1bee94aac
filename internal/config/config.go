package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for MedConfirm
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Reminders RemindersConfig `mapstructure:"reminders" yaml:"reminders"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address" yaml:"address"`
	Port         int    `mapstructure:"port" yaml:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path"`
}

// RemindersConfig holds reminder delivery settings
type RemindersConfig struct {
	// FreeSlots is how many medications can be registered before extra
	// slots have to be unlocked
	FreeSlots int `mapstructure:"free_slots" yaml:"free_slots"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "medconfirm.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "triggers"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medconfirm.yaml")
	}

	seed := false
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		seed = true
	}

	// Environment variables (MEDCONFIRM_SERVER_PORT, MEDCONFIRM_LOGGING_LEVEL, ...)
	v.SetEnvPrefix("MEDCONFIRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	// First run: write the resolved config so users have a file to edit
	if seed {
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	return &cfg, nil
}

// Save writes the configuration as YAML. Load calls it on first run to
// seed the default config file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func setDefaults(v *viper.Viper) {
	// Server defaults: localhost only, this is a single-user app
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8475)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("reminders.free_slots", 2)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medconfirm")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medconfirm")
}

// loadEnvOverrides applies env vars viper's AutomaticEnv misses on
// unmarshal (nested keys with no config-file counterpart)
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	cfg.Server.Address = getEnv("MEDCONFIRM_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("MEDCONFIRM_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	cfg.Storage.DataDir = getEnv("MEDCONFIRM_STORAGE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Logging.Level = getEnv("MEDCONFIRM_LOGGING_LEVEL", cfg.Logging.Level)
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Reminders.FreeSlots < 0 {
		return fmt.Errorf("reminders.free_slots must not be negative")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", cfg.Logging.Level)
	}
	return nil
}
