// Package config loads the formcode CLI configuration from an optional YAML
// file. Values left out of the file keep their defaults; command line flags
// are applied on top by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// DefaultMaxSourceBytes bounds the size of a form source read by the CLI.
const DefaultMaxSourceBytes int64 = 256 << 10

// ErrSourceTooLarge is returned by ReadSource when input exceeds the limit.
var ErrSourceTooLarge = errors.New("config: source exceeds max_source_bytes")

// Config holds the CLI settings.
type Config struct {
	MaxSourceBytes int64    `yaml:"max_source_bytes"`
	Output         string   `yaml:"output"`
	LogLevel       string   `yaml:"log_level"`
	Extensions     []string `yaml:"extensions"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MaxSourceBytes: DefaultMaxSourceBytes,
		Output:         OutputJSON,
		LogLevel:       "info",
	}
}

// Load reads path and merges it over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFS is like Load but reads from fsys.
func LoadFS(fsys fs.FS, path string) (Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate normalizes and checks the settings.
func (c *Config) Validate() error {
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	switch c.Output {
	case "":
		c.Output = OutputJSON
	case OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("config: unsupported output %q", c.Output)
	}
	if c.MaxSourceBytes <= 0 {
		return fmt.Errorf("config: max_source_bytes must be positive, got %d", c.MaxSourceBytes)
	}
	names := c.Extensions[:0]
	for _, name := range c.Extensions {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	c.Extensions = names
	return nil
}

// ReadSource reads at most MaxSourceBytes from r and fails with
// ErrSourceTooLarge when more is available.
func (c Config) ReadSource(r io.Reader) (string, error) {
	limit := c.MaxSourceBytes
	if limit <= 0 {
		limit = DefaultMaxSourceBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("config: read source: %w", err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w (%d bytes)", ErrSourceTooLarge, limit)
	}
	return string(data), nil
}
