package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the bridge configuration. Command-line flags override anything
// loaded from the config file.
type Config struct {
	SocketPath   string `json:"socketPath,omitempty"`
	InputDevice  int    `json:"inputDevice"`
	OutputDevice int    `json:"outputDevice"`
	Verbose      bool   `json:"verbose,omitempty"`
}

// DefaultConfig returns a config with sensible defaults. Device index -1
// means auto-select the first available port.
func DefaultConfig() *Config {
	return &Config{
		InputDevice:  -1,
		OutputDevice: -1,
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "midibridge"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from path, or from the default location when path is
// empty. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
