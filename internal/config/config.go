// Package config loads the runtime configuration of the data-object core: logging, buffer
// allocation limits, the registry context and the demo acquisition.
//
// Files are YAML unless they carry a .toml extension.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Format selects the file decoder.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

type Config struct {
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
	Buffers     BuffersConfig     `yaml:"buffers" toml:"buffers"`
	Registry    RegistryConfig    `yaml:"registry" toml:"registry"`
	Acquisition AcquisitionConfig `yaml:"acquisition" toml:"acquisition"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" toml:"level"`
	Encoding string `yaml:"encoding" toml:"encoding"` // "json" or "console"
}

type BuffersConfig struct {
	// DefaultElements seeds the preferred size of new buffers.
	DefaultElements uint64 `yaml:"default_elements" toml:"default_elements"`
	// MaxBytes caps a single buffer allocation; zero disables the cap.
	MaxBytes uint64 `yaml:"max_bytes" toml:"max_bytes"`
}

type RegistryConfig struct {
	Context string `yaml:"context" toml:"context"`
}

// AcquisitionConfig describes the demo producer.
type AcquisitionConfig struct {
	ElementType string        `yaml:"element_type" toml:"element_type"`
	Elements    uint64        `yaml:"elements" toml:"elements"`
	Interval    time.Duration `yaml:"interval" toml:"interval"`
	Rounds      int           `yaml:"rounds" toml:"rounds"`
	// Expression is a Lua expression over the sample index i. Empty means a ramp.
	Expression string `yaml:"expression,omitempty" toml:"expression,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Buffers: BuffersConfig{
			DefaultElements: 1024,
			MaxBytes:        64 << 20,
		},
		Registry: RegistryConfig{
			Context: "default",
		},
		Acquisition: AcquisitionConfig{
			ElementType: "float64",
			Elements:    1024,
			Interval:    100 * time.Millisecond,
			Rounds:      10,
		},
	}
}

// Load reads path, or returns the defaults when path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults, then validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case FormatYAML, "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalid, format)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills values an explicit empty entry would otherwise zero.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = def.Logging.Encoding
	}
	if c.Registry.Context == "" {
		c.Registry.Context = def.Registry.Context
	}
	if c.Acquisition.ElementType == "" {
		c.Acquisition.ElementType = def.Acquisition.ElementType
	}
	if c.Acquisition.Interval <= 0 {
		c.Acquisition.Interval = def.Acquisition.Interval
	}
}

func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging.encoding %q", ErrInvalid, c.Logging.Encoding)
	}

	t, ok := fields.ParseType(c.Acquisition.ElementType)
	if !ok || !t.Numeric() {
		return fmt.Errorf("%w: acquisition.element_type %q", ErrInvalid, c.Acquisition.ElementType)
	}
	if c.Acquisition.Elements == 0 {
		return fmt.Errorf("%w: acquisition.elements must be positive", ErrInvalid)
	}
	if c.Acquisition.Rounds < 0 {
		return fmt.Errorf("%w: acquisition.rounds must not be negative", ErrInvalid)
	}
	hi, need := bits.Mul64(c.Acquisition.Elements, uint64(t.Size()))
	if limit := c.Buffers.MaxBytes; limit > 0 && (hi != 0 || need > limit) {
		return fmt.Errorf("%w: acquisition of %d %s elements exceeds buffers.max_bytes", ErrInvalid, c.Acquisition.Elements, t)
	}
	return nil
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Logging.Level)
	return level
}

// ElementType returns the parsed acquisition element type.
func (c *Config) ElementType() fields.Type {
	t, _ := fields.ParseType(c.Acquisition.ElementType)
	return t
}
