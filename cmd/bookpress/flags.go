package main

import (
	"os"

	flag "github.com/spf13/pflag"
)

// bleedSentinel detects if --bleed-cm was explicitly set.
// Since 0 is a valid bleed (trim-only output), we use an out-of-range
// sentinel; bleed can never be negative.
const bleedSentinel = -1.0

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// geometryFlags holds trim and bleed flags.
type geometryFlags struct {
	autoTrim      bool
	squareSizeCM  float64
	rectWidthCM   float64
	rectHeightCM  float64
	bleedCM       float64
	pageWidthCM   float64
	pageHeightCM  float64
	coverWidthCM  float64
	coverHeightCM float64
	backWidthCM   float64
	backHeightCM  float64
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common   commonFlags
	geometry geometryFlags

	imagesDir   string
	markdown    string
	output      string
	coverOutput string
	backOutput  string

	machineReadable bool
	cropMarks       bool
	splitCover      bool
	splitBack       bool
	font            string
	workers         int
}

// previewFlags holds all flags for the preview command.
type previewFlags struct {
	common commonFlags

	output    string
	dpi       int
	maxWidth  int
	quality   int
	format    string
	prefix    string
	startPage int
	endPage   int
	workers   int
	pdftoppm  string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug detail")
}

// addGeometryFlags adds trim and bleed flags to a FlagSet.
func addGeometryFlags(fs *flag.FlagSet, f *geometryFlags) {
	fs.BoolVar(&f.autoTrim, "auto-trim", false, "infer square/rect trim from the first image")
	fs.Float64Var(&f.squareSizeCM, "square-size-cm", 0, "square trim edge in cm (default 19.0)")
	fs.Float64Var(&f.rectWidthCM, "rect-width-cm", 0, "rect trim width in cm (default 21.0)")
	fs.Float64Var(&f.rectHeightCM, "rect-height-cm", 0, "rect trim height in cm (default 14.8)")
	fs.Float64Var(&f.bleedCM, "bleed-cm", bleedSentinel, "bleed per edge in cm (default 0.5)")
	fs.Float64Var(&f.pageWidthCM, "page-width-cm", 0, "explicit trim width in cm (beats auto-trim)")
	fs.Float64Var(&f.pageHeightCM, "page-height-cm", 0, "explicit trim height in cm (one value = square)")
	fs.Float64Var(&f.coverWidthCM, "cover-width-cm", 0, "cover trim width in cm (default: page trim)")
	fs.Float64Var(&f.coverHeightCM, "cover-height-cm", 0, "cover trim height in cm")
	fs.Float64Var(&f.backWidthCM, "back-width-cm", 0, "back trim width in cm (default: cover trim)")
	fs.Float64Var(&f.backHeightCM, "back-height-cm", 0, "back trim height in cm")
}

// parseBuildFlags parses build command flags and returns positional args.
func parseBuildFlags(args []string) (*buildFlags, []string, error) {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	f := &buildFlags{}

	// I/O flags
	fs.StringVar(&f.imagesDir, "images-dir", "", "scene image folder")
	fs.StringVar(&f.markdown, "markdown", "", "flat-mode text file")
	fs.StringVarP(&f.output, "output", "o", "", "main document path")
	fs.StringVar(&f.coverOutput, "cover-output", "", "split cover document path")
	fs.StringVar(&f.backOutput, "back-output", "", "back document path")

	// Rendering flags
	fs.BoolVar(&f.machineReadable, "mr", false, "emit machine-readable progress on stdout")
	fs.BoolVar(&f.cropMarks, "crop-marks", false, "draw printer trim marks on every page")
	fs.BoolVar(&f.splitCover, "split-cover", false, "write the cover as a separate document")
	fs.BoolVar(&f.splitBack, "split-back", false, "accepted for symmetry; the back always splits")
	fs.StringVar(&f.font, "font", "", "TTF font path")
	fs.IntVarP(&f.workers, "workers", "w", 0, "background color workers (0 = auto)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addGeometryFlags(fs, &f.geometry)

	fs.Usage = func() { printBuildUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// parsePreviewFlags parses preview command flags and returns positional args.
func parsePreviewFlags(args []string) (*previewFlags, []string, error) {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	f := &previewFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "image output directory (default preview-images)")
	fs.IntVar(&f.dpi, "dpi", 0, "render resolution (default 150)")
	fs.IntVar(&f.maxWidth, "max-width", 0, "downscale ceiling in px (default 1200)")
	fs.IntVar(&f.quality, "quality", 0, "JPEG quality 1-100 (default 85)")
	fs.StringVar(&f.format, "format", "", "output format: jpeg, png (default jpeg)")
	fs.StringVar(&f.prefix, "prefix", "", "output filename prefix (default page)")
	fs.IntVar(&f.startPage, "start-page", 0, "first page to render (1-indexed)")
	fs.IntVar(&f.endPage, "end-page", 0, "last page to render (inclusive)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "render workers (0 = auto)")
	fs.StringVar(&f.pdftoppm, "pdftoppm", "", "poppler pdftoppm binary name or path")

	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printPreviewUsage(os.Stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
