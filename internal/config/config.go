package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkmill/bookpress/internal/fileutil"
	"github.com/inkmill/bookpress/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// Validation limits. Dimensions are sanity ceilings, not print constraints:
// a 2 m trim box is a typo, not a book.
const (
	MaxPathLength   = 4096 // Filesystem limit on most platforms
	MaxPrefixLength = 100  // Preview filename prefix
	MaxDimensionCM  = 200  // Trim/cover/back edge length
	MaxBleedCM      = 10   // Bleed allowance
	MaxDPI          = 1200 // Preview raster resolution
	MaxPreviewWidth = 10000
	MaxWorkers      = 64
)

// Config holds file-based defaults for book building and previewing.
// Zero values mean "not set"; the CLI applies its own defaults on top,
// so an absent field never overrides a flag default.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Page    PageConfig    `yaml:"page"`
	Cover   CoverConfig   `yaml:"cover"`
	Back    BackConfig    `yaml:"back"`
	Font    FontConfig    `yaml:"font"`
	Build   BuildConfig   `yaml:"build"`
	Preview PreviewConfig `yaml:"preview"`
}

// InputConfig defines input source options.
type InputConfig struct {
	ImagesDir string `yaml:"imagesDir"` // Scene image folder (empty = mode default)
	Markdown  string `yaml:"markdown"`  // Flat-mode text file (empty = text_content.md)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Path      string `yaml:"path"`      // Main document (empty = mode default)
	CoverPath string `yaml:"coverPath"` // Split cover document (empty = derived)
	BackPath  string `yaml:"backPath"`  // Back document (empty = derived)
}

// PageConfig defines trim and bleed geometry.
type PageConfig struct {
	AutoTrim     bool    `yaml:"autoTrim"`     // Infer square/rect from sample image aspect
	SquareSizeCM float64 `yaml:"squareSizeCM"` // Square trim edge (0 = 19.0)
	RectWidthCM  float64 `yaml:"rectWidthCM"`  // Rect trim width (0 = 21.0)
	RectHeightCM float64 `yaml:"rectHeightCM"` // Rect trim height (0 = 14.8)
	WidthCM      float64 `yaml:"widthCM"`      // Explicit trim width, beats autoTrim
	HeightCM     float64 `yaml:"heightCM"`     // Explicit trim height (0 with widthCM set = square)
	BleedCM      float64 `yaml:"bleedCM"`      // Bleed per edge (0 = 0.5; use --bleed-cm 0 for none)
}

// CoverConfig defines the cover trim override.
type CoverConfig struct {
	WidthCM  float64 `yaml:"widthCM"`  // 0 = page trim width
	HeightCM float64 `yaml:"heightCM"` // 0 = cover width, then page trim height
}

// BackConfig defines the back cover trim override.
type BackConfig struct {
	WidthCM  float64 `yaml:"widthCM"`
	HeightCM float64 `yaml:"heightCM"`
}

// FontConfig defines text rendering options.
type FontConfig struct {
	Path string `yaml:"path"` // TTF file (empty = fonts/ShantellSans-Regular.ttf)
}

// BuildConfig defines document assembly options.
type BuildConfig struct {
	CropMarks  bool `yaml:"cropMarks"`  // Draw printer trim marks on every page
	SplitCover bool `yaml:"splitCover"` // Cover as separate document
	SplitBack  bool `yaml:"splitBack"`  // Accepted for symmetry; back splits whenever present
	Workers    int  `yaml:"workers"`    // Color prefetch pool size (0 = default)
}

// PreviewConfig defines rasterizer options.
type PreviewConfig struct {
	OutputDir string `yaml:"outputDir"` // Empty = preview-images
	DPI       int    `yaml:"dpi"`       // 0 = 150
	MaxWidth  int    `yaml:"maxWidth"`  // Downscale ceiling in px (0 = 1200)
	Quality   int    `yaml:"quality"`   // JPEG quality (0 = 85)
	Format    string `yaml:"format"`    // "jpeg" or "png" (empty = jpeg)
	Prefix    string `yaml:"prefix"`    // Output filename prefix (empty = page)
	Workers   int    `yaml:"workers"`   // Raster pool size (0 = default)
}

// Validate checks value ranges and field lengths.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	// Validate path fields
	pathFields := []struct {
		name  string
		value string
	}{
		{"input.imagesDir", c.Input.ImagesDir},
		{"input.markdown", c.Input.Markdown},
		{"output.path", c.Output.Path},
		{"output.coverPath", c.Output.CoverPath},
		{"output.backPath", c.Output.BackPath},
		{"font.path", c.Font.Path},
		{"preview.outputDir", c.Preview.OutputDir},
	}
	for _, f := range pathFields {
		if err := validateFieldLength(f.name, f.value, MaxPathLength); err != nil {
			return err
		}
	}

	// Validate geometry fields
	dimFields := []struct {
		name  string
		value float64
	}{
		{"page.squareSizeCM", c.Page.SquareSizeCM},
		{"page.rectWidthCM", c.Page.RectWidthCM},
		{"page.rectHeightCM", c.Page.RectHeightCM},
		{"page.widthCM", c.Page.WidthCM},
		{"page.heightCM", c.Page.HeightCM},
		{"cover.widthCM", c.Cover.WidthCM},
		{"cover.heightCM", c.Cover.HeightCM},
		{"back.widthCM", c.Back.WidthCM},
		{"back.heightCM", c.Back.HeightCM},
	}
	for _, f := range dimFields {
		if err := validateDimension(f.name, f.value, MaxDimensionCM); err != nil {
			return err
		}
	}
	if err := validateDimension("page.bleedCM", c.Page.BleedCM, MaxBleedCM); err != nil {
		return err
	}

	// Validate worker pools
	if err := validateRange("build.workers", c.Build.Workers, MaxWorkers); err != nil {
		return err
	}
	if err := validateRange("preview.workers", c.Preview.Workers, MaxWorkers); err != nil {
		return err
	}

	// Validate preview fields
	if err := validateRange("preview.dpi", c.Preview.DPI, MaxDPI); err != nil {
		return err
	}
	if err := validateRange("preview.maxWidth", c.Preview.MaxWidth, MaxPreviewWidth); err != nil {
		return err
	}
	if err := validateRange("preview.quality", c.Preview.Quality, 100); err != nil {
		return err
	}
	if c.Preview.Format != "" {
		switch strings.ToLower(c.Preview.Format) {
		case "jpeg", "jpg", "png":
			// valid
		default:
			return fmt.Errorf("preview.format: invalid value %q (must be jpeg or png)", c.Preview.Format)
		}
	}
	if err := validateFieldLength("preview.prefix", c.Preview.Prefix, MaxPrefixLength); err != nil {
		return err
	}
	if strings.ContainsAny(c.Preview.Prefix, "/\\") {
		return fmt.Errorf("preview.prefix: must not contain path separators, got %q", c.Preview.Prefix)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateDimension rejects negative or absurd measurements; zero means unset.
func validateDimension(fieldName string, value, maxValue float64) error {
	if value < 0 {
		return fmt.Errorf("%s: must not be negative, got %.2f", fieldName, value)
	}
	if value > maxValue {
		return fmt.Errorf("%s: must be at most %.0f, got %.2f", fieldName, maxValue, value)
	}
	return nil
}

// validateRange rejects negative or out-of-range counts; zero means unset.
func validateRange(fieldName string, value, maxValue int) error {
	if value < 0 {
		return fmt.Errorf("%s: must not be negative, got %d", fieldName, value)
	}
	if value > maxValue {
		return fmt.Errorf("%s: must be at most %d, got %d", fieldName, maxValue, value)
	}
	return nil
}

// DefaultConfig returns a neutral configuration with everything unset.
// Mode defaults (paths, trim sizes, bleed) are applied by the CLI layer
// so precedence stays flags > environment > config file > defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		found, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = found
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths returns the candidate locations for a named config, in
// resolution order: current directory first, then the user config
// directory. Used for resolution, doctor output, and not-found hints.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "bookpress", name+ext))
		}
	}

	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)

	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
