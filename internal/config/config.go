// Package config loads scalebar-mcp settings from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/scalebar-mcp/internal/calibration"
	"github.com/ironsheep/scalebar-mcp/internal/imaging"
	"github.com/ironsheep/scalebar-mcp/internal/overlay"
)

// Environment variables read by the command.
const (
	EnvConfigPath = "SCALEBAR_MCP_CONFIG"
	EnvLogLevel   = "SCALEBAR_MCP_LOG_LEVEL"
)

// DefaultArchiveName is the zip file written at the end of a batch.
const DefaultArchiveName = "processed_images.zip"

// Config represents the application configuration
type Config struct {
	Font        FontConfig          `yaml:"font"`
	Layout      overlay.LayoutSpec  `yaml:"layout"`
	Colors      ColorsConfig        `yaml:"colors"`
	Output      OutputConfig        `yaml:"output"`
	Verify      VerifyConfig        `yaml:"verify"`
	Calibration []calibration.Entry `yaml:"calibration"`
}

type FontConfig struct {
	Path string   `yaml:"path"`
	Size float64  `yaml:"size"`
	Dirs []string `yaml:"dirs"`
}

type ColorsConfig struct {
	Box string `yaml:"box"`
	Ink string `yaml:"ink"`
}

type OutputConfig struct {
	JPEGQuality int    `yaml:"jpeg_quality"`
	ArchiveName string `yaml:"archive_name"`
}

type VerifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Font: FontConfig{
			Path: overlay.DefaultFontPath,
			Size: overlay.DefaultFontSize,
		},
		Layout: overlay.DefaultLayout(),
		Colors: ColorsConfig{
			Box: "#FFFFFF",
			Ink: "#000000",
		},
		Output: OutputConfig{
			JPEGQuality: imaging.DefaultJPEGQuality,
			ArchiveName: DefaultArchiveName,
		},
		Verify: VerifyConfig{
			Language: "eng",
		},
	}
}

// Load reads and parses the configuration file. Values missing from the file
// keep their defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// FromEnv loads the file named by SCALEBAR_MCP_CONFIG, or the defaults when
// it is unset.
func FromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigPath))
}

// Validate checks value ranges and that colors and calibrations parse.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Font.Size < 0 {
		return fmt.Errorf("font.size must be >= 0, got %v", c.Font.Size)
	}
	if q := c.Output.JPEGQuality; q < 0 || q > 100 {
		return fmt.Errorf("output.jpeg_quality must be 0-100, got %d", q)
	}
	if c.Output.ArchiveName == "" {
		return fmt.Errorf("output.archive_name is required")
	}
	if _, err := c.Style(); err != nil {
		return err
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	return nil
}

// Table returns the calibration table: the configured entries, or the
// default set when none are configured.
func (c *Config) Table() (*calibration.Table, error) {
	if len(c.Calibration) == 0 {
		return calibration.Default(), nil
	}
	t, err := calibration.NewTable(c.Calibration...)
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}
	return t, nil
}

// Style returns the parsed overlay colors.
func (c *Config) Style() (overlay.Style, error) {
	box, err := imaging.ParseHexColor(c.Colors.Box)
	if err != nil {
		return overlay.Style{}, fmt.Errorf("colors.box: %w", err)
	}
	ink, err := imaging.ParseHexColor(c.Colors.Ink)
	if err != nil {
		return overlay.Style{}, fmt.Errorf("colors.ink: %w", err)
	}
	return overlay.Style{Box: box, Ink: ink}, nil
}

// FontOptions returns the font search settings.
func (c *Config) FontOptions() overlay.FontOptions {
	return overlay.FontOptions{
		Path: c.Font.Path,
		Size: c.Font.Size,
		Dirs: c.Font.Dirs,
	}
}

// EncodeOptions returns the image encoder settings.
func (c *Config) EncodeOptions() imaging.EncodeOptions {
	return imaging.EncodeOptions{JPEGQuality: c.Output.JPEGQuality}
}
