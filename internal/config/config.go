package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Color modes for display.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

type Config struct {
	Inputs struct {
		Project      string `yaml:"project"`
		Trace        string `yaml:"trace"`
		SourceFormat string `yaml:"source_format"`
		Objects      string `yaml:"objects"`
		SourceFile   string `yaml:"source_file"` // java source used to name functions
	} `yaml:"inputs"`
	Display struct {
		Window          int    `yaml:"window"`
		IndentWidth     int    `yaml:"indent_width"`
		Color           string `yaml:"color"`
		ExpandFunctions bool   `yaml:"expand_functions"`
	} `yaml:"display"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.Inputs.Project = "."
	cfg.Display.Window = 40
	cfg.Display.IndentWidth = 6
	cfg.Display.Color = ColorAuto
	cfg.Log.Level = "info"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults
	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// 3. Override with Environment Variables if present
	overrides := []struct {
		env    string
		target *string
	}{
		{"JUMBOTRACE_TRACE", &cfg.Inputs.Trace},
		{"JUMBOTRACE_SOURCE_FORMAT", &cfg.Inputs.SourceFormat},
		{"JUMBOTRACE_OBJECTS", &cfg.Inputs.Objects},
		{"JUMBOTRACE_SOURCE_FILE", &cfg.Inputs.SourceFile},
		{"JUMBOTRACE_LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the viewer cannot use.
func (c *Config) Validate() error {
	if c.Display.Window < 0 {
		return fmt.Errorf("display.window must not be negative, got %d", c.Display.Window)
	}
	if c.Display.IndentWidth < 0 {
		return fmt.Errorf("display.indent_width must not be negative, got %d", c.Display.IndentWidth)
	}
	switch strings.ToLower(c.Display.Color) {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("display.color must be auto, always or never, got %q", c.Display.Color)
	}
	return nil
}
