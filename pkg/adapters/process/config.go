package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Stdin formats.
const (
	// FormatText writes the rendered instruction to stdin.
	FormatText = "text"
	// FormatJSON writes a Request document to stdin.
	FormatJSON = "json"
)

// Command declares an external program acting as a generation provider.
type Command struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Format      string            `yaml:"format" json:"format"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of providers.yaml.
type ConfigFile struct {
	Providers []Command `yaml:"providers" json:"providers"`
}

// LoadCommands reads a configuration file (YAML or JSON) and returns the
// declared commands by provider name. A missing file declares none.
func LoadCommands(path string) (map[string]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Command{}, nil
		}
		return nil, fmt.Errorf("failed to read providers config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	commands := make(map[string]Command)
	for _, c := range cfg.Providers {
		if c.Name == "" {
			continue
		}
		if c.Command == "" {
			return nil, fmt.Errorf("provider %q: command is empty", c.Name)
		}
		switch c.Format {
		case "", FormatText, FormatJSON:
		default:
			return nil, fmt.Errorf("provider %q: unknown format %q", c.Name, c.Format)
		}
		commands[c.Name] = c
	}
	return commands, nil
}
