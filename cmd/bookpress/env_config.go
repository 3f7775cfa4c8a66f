package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inkmill/bookpress/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // BOOKPRESS_CONFIG: config file name or path
	ImagesDir  string // BOOKPRESS_IMAGES_DIR: scene image folder
	Markdown   string // BOOKPRESS_MARKDOWN: flat-mode text file
	Output     string // BOOKPRESS_OUTPUT: main document path
	Font       string // BOOKPRESS_FONT: TTF font path
	Pdftoppm   string // BOOKPRESS_PDFTOPPM: poppler binary name or path
	Workers    int    // BOOKPRESS_WORKERS: worker pool size
}

// knownEnvVars lists valid BOOKPRESS_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"BOOKPRESS_CONFIG":     true,
	"BOOKPRESS_IMAGES_DIR": true,
	"BOOKPRESS_MARKDOWN":   true,
	"BOOKPRESS_OUTPUT":     true,
	"BOOKPRESS_FONT":       true,
	"BOOKPRESS_PDFTOPPM":   true,
	"BOOKPRESS_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized BOOKPRESS_* values.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("BOOKPRESS_CONFIG"),
		ImagesDir:  getenv("BOOKPRESS_IMAGES_DIR"),
		Markdown:   getenv("BOOKPRESS_MARKDOWN"),
		Output:     getenv("BOOKPRESS_OUTPUT"),
		Font:       getenv("BOOKPRESS_FONT"),
		Pdftoppm:   getenv("BOOKPRESS_PDFTOPPM"),
	}

	// Parse int for workers
	if workers := getenv("BOOKPRESS_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized BOOKPRESS_* variables.
// Helps catch typos like BOOKPRESS_IMAGE_DIR instead of BOOKPRESS_IMAGES_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "BOOKPRESS_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config,
// overwriting file values. Combined with mergeBuildFlags and
// mergePreviewFlags running afterwards, the precedence is:
// CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.ImagesDir != "" {
		cfg.Input.ImagesDir = env.ImagesDir
	}
	if env.Markdown != "" {
		cfg.Input.Markdown = env.Markdown
	}
	if env.Output != "" {
		cfg.Output.Path = env.Output
	}
	if env.Font != "" {
		cfg.Font.Path = env.Font
	}
	if env.Workers > 0 {
		cfg.Build.Workers = env.Workers
		cfg.Preview.Workers = env.Workers
	}
}
