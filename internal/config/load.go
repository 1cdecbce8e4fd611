package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cascade/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Source names, as used in error messages.
const (
	SourceDefaults = "default_config"
	SourceAgents   = "agent_config"
	SourceFlow     = "flow"
)

// Extensions accepted for configuration files, in lookup order.
var Extensions = []string{".json", ".yaml", ".yml"}

// Paths points at the three configuration sources.
type Paths struct {
	Defaults string
	Agents   string
	Flow     string
}

// Discover resolves the configuration files inside dir.
// A source with no file keeps the .json path so that errors name it.
func Discover(dir string) Paths {
	return Paths{
		Defaults: find(dir, SourceDefaults),
		Agents:   find(dir, SourceAgents),
		Flow:     find(dir, SourceFlow),
	}
}

func find(dir, base string) string {
	for _, ext := range Extensions {
		p := filepath.Join(dir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, base+Extensions[0])
}

// Files is the loaded, not yet resolved, configuration.
// It is immutable once returned by Load.
type Files struct {
	Settings Settings
	// Defaults is the default_agent_config object.
	Defaults map[string]any
	// Overrides maps a step name to its raw overrides.
	Overrides map[string]map[string]any
	// Flow maps a step name to its ordered downstream steps.
	Flow map[string][]string
}

type defaultsFile struct {
	DefaultAgentConfig map[string]any `mapstructure:"default_agent_config"`
	Settings           `mapstructure:",squash"`
}

// Load reads the configuration sources from dir.
func Load(dir string) (*Files, error) {
	return LoadPaths(Discover(dir))
}

// LoadPaths reads the configuration sources from explicit paths.
// A missing or malformed file is an error naming its source.
func LoadPaths(p Paths) (*Files, error) {
	var def defaultsFile
	if err := loadInto(SourceDefaults, p.Defaults, &def); err != nil {
		return nil, err
	}
	settings := def.Settings.withDefaults()
	if err := settings.Validate(); err != nil {
		return nil, &domain.ConfigError{Err: fmt.Errorf("%s: %w", SourceDefaults, err)}
	}

	overrides := map[string]map[string]any{}
	if err := loadInto(SourceAgents, p.Agents, &overrides); err != nil {
		return nil, err
	}

	flow := map[string][]string{}
	if err := loadInto(SourceFlow, p.Flow, &flow); err != nil {
		return nil, err
	}

	if def.DefaultAgentConfig == nil {
		def.DefaultAgentConfig = map[string]any{}
	}

	return &Files{
		Settings:  settings,
		Defaults:  def.DefaultAgentConfig,
		Overrides: overrides,
		Flow:      flow,
	}, nil
}

func loadInto(source, path string, out any) error {
	raw, err := readFile(source, path)
	if err != nil {
		return err
	}
	if err := decode(raw, out); err != nil {
		return &domain.ConfigError{Err: fmt.Errorf("%s (%s): %w", source, path, err)}
	}
	return nil
}

func readFile(source, path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.ConfigError{Err: fmt.Errorf("%s configuration file not found: %s: %w", source, path, err)}
		}
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &domain.ConfigError{Err: fmt.Errorf("failed to parse %s (%s): %w", source, path, err)}
	}
	return raw, nil
}

func decode(input any, out any) error {
	_, err := decodeMeta(input, out)
	return err
}

// decodeMeta decodes like decode and reports which input keys matched no field.
func decodeMeta(input any, out any) (mapstructure.Metadata, error) {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: liftStringToSlice,
		Metadata:   &md,
		Result:     out,
		TagName:    "mapstructure",
	})
	if err != nil {
		return md, err
	}
	err = dec.Decode(input)
	sort.Strings(md.Unused)
	return md, err
}
