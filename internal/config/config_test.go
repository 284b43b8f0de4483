package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/dataobjects/internal/core/fields"
	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

const yamlConfig = `
logging:
  level: debug
  encoding: json
buffers:
  default_elements: 512
  max_bytes: 1048576
registry:
  context: bench
acquisition:
  element_type: uint16
  elements: 256
  interval: 250ms
  rounds: 3
  expression: "i % 100"
`

const tomlConfig = `
[logging]
level = "warn"

[buffers]
max_bytes = 4096

[acquisition]
element_type = "int32"
elements = 1000
interval = "2s"
`

func TestParse(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		cfg, err := Parse([]byte(yamlConfig), FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, log.LevelDebug, cfg.LogLevel())
		assert.Equal(t, "json", cfg.Logging.Encoding)
		assert.Equal(t, uint64(512), cfg.Buffers.DefaultElements)
		assert.Equal(t, uint64(1<<20), cfg.Buffers.MaxBytes)
		assert.Equal(t, "bench", cfg.Registry.Context)
		assert.Equal(t, fields.Uint16, cfg.ElementType())
		assert.Equal(t, uint64(256), cfg.Acquisition.Elements)
		assert.Equal(t, 250*time.Millisecond, cfg.Acquisition.Interval)
		assert.Equal(t, 3, cfg.Acquisition.Rounds)
		assert.Equal(t, "i % 100", cfg.Acquisition.Expression)
	})

	t.Run("TOML over defaults", func(t *testing.T) {
		cfg, err := Parse([]byte(tomlConfig), FormatTOML)
		require.NoError(t, err)
		assert.Equal(t, log.LevelWarn, cfg.LogLevel())
		assert.Equal(t, "console", cfg.Logging.Encoding)
		assert.Equal(t, uint64(1024), cfg.Buffers.DefaultElements)
		assert.Equal(t, fields.Int32, cfg.ElementType())
		assert.Equal(t, 2*time.Second, cfg.Acquisition.Interval)
		assert.Equal(t, "default", cfg.Registry.Context)
	})

	t.Run("Empty document", func(t *testing.T) {
		cfg, err := Parse(nil, FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
		}{
			{"Level", "logging: {level: loud}"},
			{"Encoding", "logging: {encoding: xml}"},
			{"Element type", "acquisition: {element_type: string}"},
			{"Unknown element type", "acquisition: {element_type: complex128}"},
			{"No elements", "acquisition: {elements: 0}"},
			{"Negative rounds", "acquisition: {rounds: -1}"},
			{"Above the allocation cap", "buffers: {max_bytes: 16}\nacquisition: {elements: 4, element_type: float64}"},
			{"Byte size overflows", "buffers: {max_bytes: 1024}\nacquisition: {elements: 4611686018427387904, element_type: float64}"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Parse([]byte(tt.doc), FormatYAML)
				require.ErrorIs(t, err, ErrInvalid)
			})
		}

		_, err := Parse([]byte("logging: ["), FormatYAML)
		require.Error(t, err)
		_, err = Parse(nil, Format("ini"))
		require.ErrorIs(t, err, ErrInvalid)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("No path", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("Format follows the extension", func(t *testing.T) {
		path := filepath.Join(dir, "acq.toml")
		require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o644))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, fields.Int32, cfg.ElementType())

		path = filepath.Join(dir, "acq.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o644))
		cfg, err = Load(path)
		require.NoError(t, err)
		assert.Equal(t, fields.Uint16, cfg.ElementType())
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
