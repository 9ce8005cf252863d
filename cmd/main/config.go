package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/CTAG07/layerview/pkg/view"
	"github.com/natefinch/atomic"
)

const (
	storeFile = "file"
	storeSQL  = "sql"
)

// ServerConfig holds the configuration for the HTTP servers.
type ServerConfig struct {
	ServerAddr   string            `json:"server_addr"`
	ApiAddr      string            `json:"api_addr"`
	LogLevel     string            `json:"log_level"`
	LogFormat    string            `json:"log_format"`
	TemplateDir  string            `json:"template_dir"`
	StoreDriver  string            `json:"store_driver"`
	DatabasePath string            `json:"database_path"`
	Headers      map[string]string `json:"headers"`
}

// PartialConfig names a partial body and the template it is loaded from.
type PartialConfig struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server   *ServerConfig     `json:"server_config"`
	View     *view.Config      `json:"view_config"`
	Partials []PartialConfig   `json:"partials"`
	Static   map[string]string `json:"static_tokens"`
	Vars     map[string]any    `json:"variables"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ServerAddr:   ":7377",
		ApiAddr:      ":7378",
		LogLevel:     "info",
		LogFormat:    "text",
		TemplateDir:  "./data/templates",
		StoreDriver:  storeFile,
		DatabasePath: "./data/layerview.db?_journal_mode=WAL&_busy_timeout=5000",
		Headers: map[string]string{
			"Cache-Control": "no-cache",
			"Content-Type":  "text/html; charset=utf-8",
		},
	}
}

// DefaultConfig returns a configuration with every section populated.
func DefaultConfig() *Config {
	return &Config{
		Server:   DefaultServerConfig(),
		View:     view.DefaultConfig(),
		Partials: []PartialConfig{},
		Static:   map[string]string{},
		Vars:     map[string]any{},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err = writeConfig(path, config); err != nil {
				// The server can still run with defaults.
				fmt.Printf("warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Server == nil {
		c.Server = DefaultServerConfig()
	}
	if c.View == nil {
		c.View = view.DefaultConfig()
	}
	switch c.Server.StoreDriver {
	case "", storeFile:
		c.Server.StoreDriver = storeFile
	case storeSQL:
	default:
		return fmt.Errorf("unknown store driver '%s'", c.Server.StoreDriver)
	}
	for _, p := range c.Partials {
		if p.Name == "" {
			return fmt.Errorf("partial with source '%s' has no name", p.Source)
		}
	}
	return nil
}

func writeConfig(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ConfigManager handles thread-safe access to the configuration.
type ConfigManager struct {
	config     *Config
	mu         sync.RWMutex
	configPath string
	logger     *slog.Logger
}

// NewConfigManager loads the config and initializes the manager.
func NewConfigManager(path string) (*ConfigManager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return &ConfigManager{
		config:     cfg,
		configPath: path,
		// Log to stdout before the application-specific logger is set.
		logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})),
	}, nil
}

// SetLogger sets the logger.
func (cm *ConfigManager) SetLogger(logger *slog.Logger) {
	cm.logger = logger
}

// Get returns a copy of the current configuration. Nested sections are
// shared and must not be modified.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

// Update validates and applies a new configuration, then saves it to disk.
// Server address and store changes take effect on restart.
func (cm *ConfigManager) Update(newConfig Config) error {
	if err := newConfig.validate(); err != nil {
		return err
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	*cm.config = newConfig
	if err := writeConfig(cm.configPath, cm.config); err != nil {
		return err
	}
	cm.logger.Info("Configuration updated", "path", cm.configPath)
	return nil
}
