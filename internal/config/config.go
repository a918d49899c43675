// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/kpauljoseph/pdfannotate/internal/viewport"
	"github.com/kpauljoseph/pdfannotate/pkg/models"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Tool struct {
		Color       string  `yaml:"color" toml:"color"`
		StrokeWidth float64 `yaml:"stroke_width" toml:"stroke_width"`
	} `yaml:"tool" toml:"tool"`
	Viewport struct {
		InitialScale float64 `yaml:"initial_scale" toml:"initial_scale"`
	} `yaml:"viewport" toml:"viewport"`
	Text struct {
		Placeholder string  `yaml:"placeholder" toml:"placeholder"`
		FontSize    float64 `yaml:"font_size" toml:"font_size"`
	} `yaml:"text" toml:"text"`
	OutputDir   string `yaml:"output_dir" toml:"output_dir"`
	ArchivePath string `yaml:"archive_path" toml:"archive_path"`
	LogPrefix   string `yaml:"log_prefix" toml:"log_prefix"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads a YAML or TOML file, chosen by extension, and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Tool.Color == "" {
		c.Tool.Color = models.DefaultColor
	}
	if c.Tool.StrokeWidth == 0 {
		c.Tool.StrokeWidth = models.DefaultStrokeWidth
	}
	if c.Viewport.InitialScale == 0 {
		c.Viewport.InitialScale = 1
	}
	if c.Text.Placeholder == "" {
		c.Text.Placeholder = models.TextPlaceholder
	}
	if c.Text.FontSize == 0 {
		c.Text.FontSize = models.TextFontSize
	}
	if c.OutputDir == "" {
		c.OutputDir = "./pdfannotate-exports"
	}
	if c.LogPrefix == "" {
		c.LogPrefix = "[pdfannotate] "
	}
}

func (c *Config) Validate() error {
	if err := c.ToolState().Style().Validate(); err != nil {
		return fmt.Errorf("%w: tool: %v", ErrInvalidConfig, err)
	}
	s := c.Viewport.InitialScale
	if s < viewport.MinScale || s > viewport.MaxScale {
		return fmt.Errorf("%w: initial scale %.2f outside [%.2f, %.2f]",
			ErrInvalidConfig, s, viewport.MinScale, viewport.MaxScale)
	}
	if c.Text.FontSize < 0 {
		return fmt.Errorf("%w: font size %.1f", ErrInvalidConfig, c.Text.FontSize)
	}
	return nil
}

// ToolState is the tool state a new session starts with.
func (c *Config) ToolState() models.ToolState {
	state := models.DefaultToolState()
	state.Color = c.Tool.Color
	state.StrokeWidth = c.Tool.StrokeWidth
	return state
}
