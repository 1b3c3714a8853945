package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Load reads settings from a TOML (.toml) or YAML (.yaml, .yml) file.
// Options missing from the file keep their defaults.
// An empty path returns the defaults.
func Load(path string) (*Settings, error) {
	settings := &Settings{}
	if path == "" {
		settings.ApplyDefaults()
		return settings, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), settings); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}

	settings.ApplyDefaults()
	log.Debug("Loaded config", "path", path)
	return settings, nil
}

// Save writes settings as TOML to path, creating parent directories as needed.
func Save(settings *Settings, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	file, err := os.Create(path) // #nosec G304 -- path is controlled by the operator
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn("Failed to close config file", "path", path, "err", closeErr)
		}
	}()

	if err := toml.NewEncoder(file).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode config to %s: %w", path, err)
	}
	return nil
}
