package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/inkmill/bookpress"
	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/flatbook"
	"github.com/inkmill/bookpress/internal/fonts"
	"github.com/inkmill/bookpress/internal/manifest"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// defaultManifestOutput is the main document path in manifest mode when
// neither --output nor config names one.
const defaultManifestOutput = "book-output.pdf"

// runBuild orchestrates a book build. A positional manifest argument
// selects manifest mode; without one the flat-folder defaults apply.
func runBuild(ctx context.Context, positionalArgs []string, flags *buildFlags, deps *Dependencies) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	logger := newLogger(deps.Stderr, flags.common.quiet, flags.common.verbose)

	env := loadEnvConfig(deps.Getenv)

	// Load configuration
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

	// Precedence: CLI flags > env vars > config file > defaults
	applyEnvConfig(env, cfg)
	mergeBuildFlags(flags, cfg)

	source, outputPath, err := resolveSource(positionalArgs, cfg)
	if err != nil {
		return err
	}

	fontPath := cfg.Font.Path
	if fontPath == "" {
		fontPath, _ = fonts.Resolve()
	}

	var progress io.Writer
	if flags.machineReadable {
		progress = deps.Stdout
	}

	input := bookpress.Input{
		Source:   source,
		Geometry: buildGeometry(flags, cfg),
		Output: bookpress.OutputSpec{
			Path:      outputPath,
			CoverPath: cfg.Output.CoverPath,
			BackPath:  cfg.Output.BackPath,
		},
		Font:       bookpress.FontOptions{TTFPath: fontPath},
		CropMarks:  cfg.Build.CropMarks,
		SplitCover: cfg.Build.SplitCover,
		SplitBack:  cfg.Build.SplitBack,
		Progress:   progress,
	}

	opts := []bookpress.Option{bookpress.WithLogger(logger)}
	if cfg.Build.Workers > 0 {
		opts = append(opts, bookpress.WithColorWorkers(cfg.Build.Workers))
	}

	start := deps.Now()
	result, err := bookpress.New(opts...).Build(ctx, input)
	if err != nil {
		return err
	}

	// Human status goes to stderr: stdout belongs to the progress
	// protocol when --mr is set.
	if !flags.common.quiet {
		if result.CoverPath != "" {
			fmt.Fprintf(deps.Stderr, "Created %s\n", result.CoverPath)
		}
		if result.BackPath != "" {
			fmt.Fprintf(deps.Stderr, "Created %s\n", result.BackPath)
		}
		fmt.Fprintf(deps.Stderr, "Created %s (%d pages)\n", result.OutputPath, result.Pages)
	}
	if flags.common.verbose {
		fmt.Fprintf(deps.Stderr, "Built in %v\n", deps.Now().Sub(start).Round(time.Millisecond))
	}

	return nil
}

// resolveSource loads the book content for the selected input mode and
// returns it with the mode's default output path applied.
func resolveSource(args []string, cfg *config.Config) (bookpress.Source, string, error) {
	outputPath := cfg.Output.Path

	if len(args) > 0 {
		// An empty images dir defaults to the manifest's own directory
		// inside Load.
		book, err := manifest.Load(args[0], cfg.Input.ImagesDir)
		if err != nil {
			return nil, "", err
		}
		if outputPath == "" {
			outputPath = defaultManifestOutput
		}
		return book, outputPath, nil
	}

	imagesDir := cfg.Input.ImagesDir
	if imagesDir == "" {
		imagesDir = flatbook.DefaultImagesDir
	}
	markdownPath := cfg.Input.Markdown
	if markdownPath == "" {
		markdownPath = flatbook.DefaultMarkdownFile
	}
	book, err := flatbook.Load(imagesDir, markdownPath)
	if err != nil {
		return nil, "", err
	}
	if outputPath == "" {
		outputPath = flatbook.DefaultOutput
	}
	return book, outputPath, nil
}

// mergeBuildFlags merges CLI flags into config. CLI values override
// config values. Bleed is excluded: its sentinel is resolved directly
// in buildGeometry because the config file cannot express an explicit
// zero.
func mergeBuildFlags(flags *buildFlags, cfg *config.Config) {
	// I/O flags
	if flags.imagesDir != "" {
		cfg.Input.ImagesDir = flags.imagesDir
	}
	if flags.markdown != "" {
		cfg.Input.Markdown = flags.markdown
	}
	if flags.output != "" {
		cfg.Output.Path = flags.output
	}
	if flags.coverOutput != "" {
		cfg.Output.CoverPath = flags.coverOutput
	}
	if flags.backOutput != "" {
		cfg.Output.BackPath = flags.backOutput
	}

	// Geometry flags
	if flags.geometry.autoTrim {
		cfg.Page.AutoTrim = true
	}
	if flags.geometry.squareSizeCM > 0 {
		cfg.Page.SquareSizeCM = flags.geometry.squareSizeCM
	}
	if flags.geometry.rectWidthCM > 0 {
		cfg.Page.RectWidthCM = flags.geometry.rectWidthCM
	}
	if flags.geometry.rectHeightCM > 0 {
		cfg.Page.RectHeightCM = flags.geometry.rectHeightCM
	}
	if flags.geometry.pageWidthCM > 0 {
		cfg.Page.WidthCM = flags.geometry.pageWidthCM
	}
	if flags.geometry.pageHeightCM > 0 {
		cfg.Page.HeightCM = flags.geometry.pageHeightCM
	}
	if flags.geometry.coverWidthCM > 0 {
		cfg.Cover.WidthCM = flags.geometry.coverWidthCM
	}
	if flags.geometry.coverHeightCM > 0 {
		cfg.Cover.HeightCM = flags.geometry.coverHeightCM
	}
	if flags.geometry.backWidthCM > 0 {
		cfg.Back.WidthCM = flags.geometry.backWidthCM
	}
	if flags.geometry.backHeightCM > 0 {
		cfg.Back.HeightCM = flags.geometry.backHeightCM
	}

	// Rendering flags
	if flags.font != "" {
		cfg.Font.Path = flags.font
	}
	if flags.cropMarks {
		cfg.Build.CropMarks = true
	}
	if flags.splitCover {
		cfg.Build.SplitCover = true
	}
	if flags.splitBack {
		cfg.Build.SplitBack = true
	}
	if flags.workers > 0 {
		cfg.Build.Workers = flags.workers
	}
}

// buildGeometry assembles geometry options from merged config plus the
// bleed flag.
func buildGeometry(flags *buildFlags, cfg *config.Config) bookpress.GeometryOptions {
	return bookpress.GeometryOptions{
		PageWidthCM:  cfg.Page.WidthCM,
		PageHeightCM: cfg.Page.HeightCM,
		AutoTrim:     cfg.Page.AutoTrim,
		Presets: bookpress.TrimPresets{
			SquareCM:     cfg.Page.SquareSizeCM,
			RectWidthCM:  cfg.Page.RectWidthCM,
			RectHeightCM: cfg.Page.RectHeightCM,
		},
		BleedCM:       resolveBleed(flags.geometry.bleedCM, cfg.Page.BleedCM),
		CoverWidthCM:  cfg.Cover.WidthCM,
		CoverHeightCM: cfg.Cover.HeightCM,
		BackWidthCM:   cfg.Back.WidthCM,
		BackHeightCM:  cfg.Back.HeightCM,
	}
}

// resolveBleed applies the bleed precedence. Only --bleed-cm can
// disable bleed entirely; in the config file 0 means unset.
func resolveBleed(flagBleed, cfgBleed float64) float64 {
	if flagBleed != bleedSentinel {
		return flagBleed
	}
	if cfgBleed > 0 {
		return cfgBleed
	}
	return bookpress.DefaultBleedCM
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > config.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, config.MaxWorkers)
	}
	return nil
}
