package main

import (
	"context"
	"fmt"

	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/preview"
)

// defaultPreviewDir is the image output directory when neither
// --output nor config names one.
const defaultPreviewDir = "preview-images"

// runPreview rasterizes a PDF into per-page preview images.
func runPreview(ctx context.Context, positionalArgs []string, flags *previewFlags, deps *Dependencies) error {
	if len(positionalArgs) == 0 {
		return fmt.Errorf("%w: preview needs a PDF path", ErrNoInput)
	}
	pdfPath := positionalArgs[0]

	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	logger := newLogger(deps.Stderr, flags.common.quiet, flags.common.verbose)

	env := loadEnvConfig(deps.Getenv)

	cfg := config.DefaultConfig()
	configName := flags.common.config
	if configName == "" {
		configName = env.ConfigPath
	}
	if configName != "" {
		var err error
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(env, cfg)
	mergePreviewFlags(flags, cfg)

	outputDir := cfg.Preview.OutputDir
	if outputDir == "" {
		outputDir = defaultPreviewDir
	}

	format, err := preview.ParseFormat(cfg.Preview.Format)
	if err != nil {
		return err
	}

	// The poppler binary has no config slot; flag beats env here.
	binary := flags.pdftoppm
	if binary == "" {
		binary = env.Pdftoppm
	}

	opts := preview.Options{
		DPI:       cfg.Preview.DPI,
		MaxWidth:  cfg.Preview.MaxWidth,
		Quality:   cfg.Preview.Quality,
		Format:    format,
		Prefix:    cfg.Preview.Prefix,
		StartPage: flags.startPage,
		EndPage:   flags.endPage,
		Workers:   cfg.Preview.Workers,
		Pdftoppm:  binary,
	}

	result, err := preview.NewRasterizer(logger).Render(ctx, pdfPath, outputDir, opts)
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(deps.Stdout, "Rendered %d page(s) to %s (%d bytes)\n",
			result.Pages, result.OutputDir, result.TotalBytes)
	}

	return nil
}

// mergePreviewFlags merges CLI flags into config. CLI values override
// config values. The page range is per-invocation state and never
// comes from config.
func mergePreviewFlags(flags *previewFlags, cfg *config.Config) {
	if flags.output != "" {
		cfg.Preview.OutputDir = flags.output
	}
	if flags.dpi > 0 {
		cfg.Preview.DPI = flags.dpi
	}
	if flags.maxWidth > 0 {
		cfg.Preview.MaxWidth = flags.maxWidth
	}
	if flags.quality > 0 {
		cfg.Preview.Quality = flags.quality
	}
	if flags.format != "" {
		cfg.Preview.Format = flags.format
	}
	if flags.prefix != "" {
		cfg.Preview.Prefix = flags.prefix
	}
	if flags.workers > 0 {
		cfg.Preview.Workers = flags.workers
	}
}
