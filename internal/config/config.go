// Package config handles reading and writing the agent-sync user
// configuration file (~/.agent-sync.toml).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds agent-sync user settings.
type Config struct {
	EnabledTools  []string `toml:"enabled_tools,omitempty" json:"enabled_tools,omitempty"`
	IgnoreServers []string `toml:"ignore_servers,omitempty" json:"ignore_servers,omitempty"`
	DefaultFormat string   `toml:"default_format,omitempty" json:"default_format,omitempty"`
	HistoryDB     string   `toml:"history_db,omitempty" json:"history_db,omitempty"`
	Backup        bool     `toml:"backup,omitempty" json:"backup,omitempty"`
}

// validKeys lists the allowed configuration keys.
var validKeys = map[string]bool{
	"enabled_tools":  true,
	"ignore_servers": true,
	"default_format": true,
	"history_db":     true,
	"backup":         true,
}

// ValidKeys returns the sorted list of valid configuration keys.
func ValidKeys() []string {
	return []string{"backup", "default_format", "enabled_tools", "history_db", "ignore_servers"}
}

// Path returns the default config file path (~/.agent-sync.toml).
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agent-sync.toml"
	}
	return filepath.Join(home, ".agent-sync.toml")
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config from a specific path. Returns an empty
// Config if the file does not exist.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the config to a specific path, creating parent
// directories as needed.
func (c *Config) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Get returns the string value of a configuration key.
func (c *Config) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "enabled_tools":
		return strings.Join(c.EnabledTools, ","), nil
	case "ignore_servers":
		return strings.Join(c.IgnoreServers, ","), nil
	case "default_format":
		return c.DefaultFormat, nil
	case "history_db":
		return c.HistoryDB, nil
	case "backup":
		return strconv.FormatBool(c.Backup), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set assigns a value to a configuration key.
func (c *Config) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(ValidKeys(), ", "))
	}
	switch key {
	case "enabled_tools":
		c.EnabledTools = splitList(value)
	case "ignore_servers":
		c.IgnoreServers = splitList(value)
	case "default_format":
		if value != "" && value != "table" && value != "json" {
			return fmt.Errorf("default_format must be \"table\" or \"json\", got %q", value)
		}
		c.DefaultFormat = value
	case "history_db":
		c.HistoryDB = value
	case "backup":
		if value == "" {
			c.Backup = false
			return nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("backup must be true or false, got %q", value)
		}
		c.Backup = b
	}
	return nil
}

// splitList parses a comma-separated value into a list, dropping empty
// elements. An empty value clears the list.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
