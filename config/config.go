// Package config loads quickstore settings from a YAML file.
//
// Unknown fields are rejected. Fields missing from the file keep their
// defaults, and the result is validated before it is returned.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lattice-substrate/quickstore/jsontoken"
)

// Store kinds.
const (
	KindFile   = "file"
	KindBolt   = "bolt"
	KindMemory = "memory"
)

// Log levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// MaxIndent bounds format.indent.
const MaxIndent = 16

// Config is the root configuration document.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Format FormatConfig `yaml:"format"`
	Parse  ParseConfig  `yaml:"parse"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects and configures the value store.
type StoreConfig struct {
	Kind string `yaml:"kind"`
	// Path is the store file. A leading "~/" is replaced by the home directory.
	Path string `yaml:"path"`
	// Node is the preference store bucket; bolt only.
	Node string `yaml:"node"`
	// Timeout bounds the wait for the preference database lock; bolt only.
	Timeout time.Duration `yaml:"timeout"`
}

// FormatConfig controls pretty output.
type FormatConfig struct {
	Indent int `yaml:"indent"`
}

// ParseConfig bounds the parser.
type ParseConfig struct {
	MaxDepth     int `yaml:"max_depth"`
	MaxInputSize int `yaml:"max_input_size"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Kind:    KindFile,
			Path:    "~/.qds",
			Node:    "quickstore",
			Timeout: 5 * time.Second,
		},
		Format: FormatConfig{Indent: 2},
		Parse: ParseConfig{
			MaxDepth:     jsontoken.DefaultMaxDepth,
			MaxInputSize: jsontoken.DefaultMaxInputSize,
		},
		Log: LogConfig{Level: LevelInfo},
	}
}

// Load reads, decodes, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a configuration document. An empty document
// yields the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode config yaml: %w", err)
	}
	var trailing yaml.Node
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("decode config yaml: unexpected second document")
		}
		return nil, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	switch c.Store.Kind {
	case KindFile, KindBolt:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for store kind %q", c.Store.Kind)
		}
	case KindMemory:
	default:
		return fmt.Errorf("store.kind: invalid kind %q (want file, bolt or memory)", c.Store.Kind)
	}
	if c.Store.Kind == KindBolt && c.Store.Node == "" {
		return fmt.Errorf("store.node is required for store kind %q", KindBolt)
	}
	if c.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout cannot be negative")
	}
	if c.Format.Indent < 0 || c.Format.Indent > MaxIndent {
		return fmt.Errorf("format.indent must be between 0 and %d, got %d", MaxIndent, c.Format.Indent)
	}
	if c.Parse.MaxDepth < 1 || c.Parse.MaxDepth > jsontoken.DefaultMaxDepth {
		return fmt.Errorf("parse.max_depth must be between 1 and %d, got %d", jsontoken.DefaultMaxDepth, c.Parse.MaxDepth)
	}
	if c.Parse.MaxInputSize < 1 {
		return fmt.Errorf("parse.max_input_size must be >= 1")
	}
	switch c.Log.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("log.level: invalid level %q", c.Log.Level)
	}
	return nil
}

// ParserOptions returns the parser limits from c.
func (c *Config) ParserOptions() *jsontoken.Options {
	return &jsontoken.Options{
		MaxDepth:     c.Parse.MaxDepth,
		MaxInputSize: c.Parse.MaxInputSize,
	}
}

// ResolvedPath returns Store.Path with a leading "~" expanded.
func (s StoreConfig) ResolvedPath() (string, error) {
	p := s.Path
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand store.path: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
