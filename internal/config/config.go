// Package config loads nodegraph.yaml: logging and diagnostics settings plus
// the table of host types registered next to the built-in ones.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/nodegraph/internal/diagnostics"
	"github.com/funvibe/nodegraph/internal/logging"
	"github.com/funvibe/nodegraph/internal/object"
)

// Config represents the top-level nodegraph.yaml configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Compile     CompileConfig     `yaml:"compile"`

	// Types lists host types to register in the type registry.
	Types []TypeDecl `yaml:"types,omitempty"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`
	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

type DiagnosticsConfig struct {
	// Color is auto, always or never.
	Color string `yaml:"color,omitempty"`
}

type CompileConfig struct {
	// Workers bounds concurrent compiles; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers,omitempty"`
}

// TypeDecl declares an opaque host type.
//
//	types:
//	  - name: Image
//	  - name: Mesh
//	    id: 0b7e8a52-94d1-4c3f-8f0e-2d6a1c9e5b10
type TypeDecl struct {
	Name string `yaml:"name"`
	// ID is the stable identity of the type. Derived from Name when omitted.
	ID string `yaml:"id,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a nodegraph.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses nodegraph.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// FindConfig searches for nodegraph.yaml starting from dir and walking up
// to parent directories. It returns "" with a nil error when no file exists.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{FileName, AltFileName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%s: log.level: %w", path, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%s: log.format: unknown format %q (want text or json)", path, c.Log.Format)
	}
	if _, err := diagnostics.ParseColorMode(c.Diagnostics.Color); err != nil {
		return fmt.Errorf("%s: diagnostics.color: %w", path, err)
	}
	if c.Compile.Workers < 0 {
		return fmt.Errorf("%s: compile.workers: must not be negative", path)
	}

	seenNames := make(map[string]int)
	seenIDs := make(map[uuid.UUID]string)
	for i, decl := range c.Types {
		if decl.Name == "" {
			return fmt.Errorf("%s: types[%d]: name is required", path, i)
		}
		if prev, ok := seenNames[decl.Name]; ok {
			return fmt.Errorf("%s: types[%d]: name %q already declared at types[%d]", path, i, decl.Name, prev)
		}
		seenNames[decl.Name] = i

		id, err := decl.id()
		if err != nil {
			return fmt.Errorf("%s: types[%d] (%s): %w", path, i, decl.Name, err)
		}
		if prev, ok := seenIDs[id]; ok {
			return fmt.Errorf("%s: types[%d] (%s): id %s already used by %s", path, i, decl.Name, id, prev)
		}
		seenIDs[id] = decl.Name
	}
	return nil
}

// setDefaults fills in default values for optional fields.
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Diagnostics.Color == "" {
		c.Diagnostics.Color = DefaultColor
	}
}

func (d TypeDecl) id() (uuid.UUID, error) {
	if d.ID == "" {
		return object.StableID(d.Name), nil
	}
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", d.ID, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("id must not be the nil uuid")
	}
	return id, nil
}

// TypeInfos builds the type records of the declared host types.
func (c *Config) TypeInfos() ([]*object.TypeInfo, error) {
	infos := make([]*object.TypeInfo, 0, len(c.Types))
	for _, decl := range c.Types {
		id, err := decl.id()
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", decl.Name, err)
		}
		infos = append(infos, &object.TypeInfo{ID: id, Name: decl.Name})
	}
	return infos, nil
}

// RegisterTypes adds the declared host types to reg.
func (c *Config) RegisterTypes(reg *object.Registry) error {
	infos, err := c.TypeInfos()
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := reg.Register(info); err != nil {
			return err
		}
	}
	return nil
}

// Logging returns the logger settings for output w.
func (c *Config) Logging(w io.Writer, component string) logging.Config {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Config{Level: level, Format: c.Log.Format, Output: w, Component: component}
}

// ColorMode returns the configured diagnostics colour mode.
func (c *Config) ColorMode() diagnostics.ColorMode {
	mode, _ := diagnostics.ParseColorMode(c.Diagnostics.Color)
	return mode
}
