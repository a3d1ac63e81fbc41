// Package config loads flowsheet settings from YAML or TOML files with
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLogLevel      = "FLOWSHEET_LOG_LEVEL"
	EnvLogDir        = "FLOWSHEET_LOG_DIR"
	EnvComboInterval = "FLOWSHEET_COMBO_INTERVAL"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalidConfig     = errors.New("invalid config")
)

type Config struct {
	Window   WindowConfig   `yaml:"window" toml:"window"`
	Keyboard KeyboardConfig `yaml:"keyboard" toml:"keyboard"`
	Log      LogConfig      `yaml:"log" toml:"log"`
}

type WindowConfig struct {
	Title  string  `yaml:"title" toml:"title"`
	Width  float32 `yaml:"width" toml:"width"`
	Height float32 `yaml:"height" toml:"height"`
}

type KeyboardConfig struct {
	// ComboInterval is the longest gap allowed between consecutive combo
	// presses, and the age after which history entries are pruned.
	ComboInterval time.Duration `yaml:"combo_interval" toml:"combo_interval"`
	PollInterval  time.Duration `yaml:"poll_interval" toml:"poll_interval"`
	HistorySize   int           `yaml:"history_size" toml:"history_size"`
}

type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	Dir     string `yaml:"dir" toml:"dir"`
	Console bool   `yaml:"console" toml:"console"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:  "flowsheet",
			Width:  1000,
			Height: 1000,
		},
		Keyboard: KeyboardConfig{
			ComboInterval: 500 * time.Millisecond,
			PollInterval:  50 * time.Millisecond,
			HistorySize:   20,
		},
		Log: LogConfig{
			Level:   "info",
			Dir:     "logs",
			Console: true,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// ApplyEnv overrides settings from the environment as seen through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogDir); ok && v != "" {
		c.Log.Dir = v
	}
	if v, ok := lookup(EnvComboInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvComboInterval, v, err)
		}
		c.Keyboard.ComboInterval = d
	}
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %vx%v", ErrInvalidConfig, c.Window.Width, c.Window.Height))
	}
	if c.Keyboard.ComboInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: keyboard.combo_interval must be positive, got %s", ErrInvalidConfig, c.Keyboard.ComboInterval))
	}
	if c.Keyboard.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: keyboard.poll_interval must be positive, got %s", ErrInvalidConfig, c.Keyboard.PollInterval))
	}
	if c.Keyboard.HistorySize <= 0 {
		errs = append(errs, fmt.Errorf("%w: keyboard.history_size must be positive, got %d", ErrInvalidConfig, c.Keyboard.HistorySize))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log.level %q", ErrInvalidConfig, c.Log.Level))
	}
	if c.Log.Dir == "" {
		errs = append(errs, fmt.Errorf("%w: log.dir is empty", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
