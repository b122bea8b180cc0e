// Package config handles hymn.toml session configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file FindAndLoad looks for.
const FileName = "hymn.toml"

const (
	DefaultMaxStack = 1024
	maxStackCeiling = 1 << 20
)

// Config is the session configuration.
type Config struct {
	Session Session `toml:"session" yaml:"session"`
	Log     Log     `toml:"log" yaml:"log"`

	// Dir is the directory containing the loaded file (set at load time).
	Dir string `toml:"-" yaml:"-"`
}

// Session configures compilation and execution.
type Session struct {
	// Script names the source in diagnostics and faults.
	Script           string `toml:"script" yaml:"script"`
	MaxStack         int    `toml:"max-stack" yaml:"max-stack"`
	InstructionLimit int    `toml:"instruction-limit" yaml:"instruction-limit"`
	Trace            bool   `toml:"trace" yaml:"trace"`
}

// Log configures diagnostics logging.
type Log struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// levels follows commonlog's verbosity scale, where 0 is notice.
var levels = map[string]int{
	"none":     -4,
	"critical": -3,
	"error":    -2,
	"warning":  -1,
	"notice":   0,
	"info":     1,
	"debug":    2,
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Session: Session{MaxStack: DefaultMaxStack},
		Log:     Log{Level: "warning"},
	}
}

// Verbosity maps the log level onto a commonlog verbosity.
func (c *Config) Verbosity() int {
	if v, ok := levels[strings.ToLower(c.Log.Level)]; ok {
		return v
	}
	return levels["warning"]
}

// Validate rejects out-of-range settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.MaxStack < 1 || c.Session.MaxStack > maxStackCeiling {
		errs = append(errs, fmt.Errorf("session.max-stack must be between 1 and %d, got %d", maxStackCeiling, c.Session.MaxStack))
	}
	if c.Session.InstructionLimit < 0 {
		errs = append(errs, fmt.Errorf("session.instruction-limit must not be negative, got %d", c.Session.InstructionLimit))
	}
	if _, ok := levels[strings.ToLower(c.Log.Level)]; !ok {
		errs = append(errs, fmt.Errorf("log.level %q is not one of none, critical, error, warning, notice, info, debug", c.Log.Level))
	}
	return errors.Join(errs...)
}

// Parse decodes data in the given format ("toml" or "yaml") on top of
// the defaults. Unknown keys are rejected.
func Parse(data []byte, format string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(format) {
	case "toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a configuration file, choosing the decoder by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	format := strings.TrimPrefix(filepath.Ext(path), ".")
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir to find a hymn.toml file, then
// loads it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}
