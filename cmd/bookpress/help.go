package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookpress <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  build      Build a print-ready picture book PDF")
	fmt.Fprintln(w, "  preview    Rasterize a PDF into per-page preview images")
	fmt.Fprintln(w, "  doctor     Check the environment (renderer, font, config)")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'bookpress help <command>' for details on a specific command.")
}

// printBuildUsage prints usage for the build command.
func printBuildUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookpress build [book.json] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Build a print-ready picture book PDF with bleed.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  book.json    Manifest with scene texts; images are matched by name")
	fmt.Fprintln(w, "               (scene_<n>, cover, back) next to it. Without a manifest,")
	fmt.Fprintln(w, "               TIFFs in ./cmyk_tiff_images pair with ./text_content.md")
	fmt.Fprintln(w, "               pages split on --- breaks.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "      --images-dir <dir>    Scene image folder")
	fmt.Fprintln(w, "      --markdown <file>     Flat-mode text file")
	fmt.Fprintln(w, "  -o, --output <path>       Main document path")
	fmt.Fprintln(w, "      --cover-output <path> Split cover document path")
	fmt.Fprintln(w, "      --back-output <path>  Back document path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Geometry (centimeters):")
	fmt.Fprintln(w, "      --auto-trim           Infer square/rect trim from the first image")
	fmt.Fprintln(w, "      --square-size-cm <f>  Square trim edge (19.0)")
	fmt.Fprintln(w, "      --rect-width-cm <f>   Rect trim width (21.0)")
	fmt.Fprintln(w, "      --rect-height-cm <f>  Rect trim height (14.8)")
	fmt.Fprintln(w, "      --bleed-cm <f>        Bleed per edge (0.5; 0 disables)")
	fmt.Fprintln(w, "      --page-width-cm <f>   Explicit trim width (beats auto-trim)")
	fmt.Fprintln(w, "      --page-height-cm <f>  Explicit trim height (one value = square)")
	fmt.Fprintln(w, "      --cover-width-cm <f>  Cover trim width (default: page trim)")
	fmt.Fprintln(w, "      --cover-height-cm <f> Cover trim height")
	fmt.Fprintln(w, "      --back-width-cm <f>   Back trim width (default: cover trim)")
	fmt.Fprintln(w, "      --back-height-cm <f>  Back trim height")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --crop-marks          Draw printer trim marks on every page")
	fmt.Fprintln(w, "      --split-cover         Write the cover as a separate document")
	fmt.Fprintln(w, "      --split-back          Accepted for symmetry; the back always splits")
	fmt.Fprintln(w, "      --font <path>         TTF font path")
	fmt.Fprintln(w, "  -w, --workers <n>         Background color workers (0 = auto)")
	fmt.Fprintln(w, "      --mr                  Emit machine-readable progress on stdout:")
	fmt.Fprintln(w, "                            PDFTOTAL|n, PDFPAGE|c|t, PDFDONE")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug detail")
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: bookpress preview <pdf> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rasterize PDF pages into preview images via poppler's pdftoppm.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  pdf    Document to rasterize")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <dir>        Image output directory (preview-images)")
	fmt.Fprintln(w, "      --dpi <n>             Render resolution (150)")
	fmt.Fprintln(w, "      --max-width <n>       Downscale ceiling in px (1200)")
	fmt.Fprintln(w, "      --quality <n>         JPEG quality 1-100 (85)")
	fmt.Fprintln(w, "      --format <s>          Output format: jpeg, png")
	fmt.Fprintln(w, "      --prefix <s>          Output filename prefix (page)")
	fmt.Fprintln(w, "      --start-page <n>      First page to render (1-indexed)")
	fmt.Fprintln(w, "      --end-page <n>        Last page to render (inclusive)")
	fmt.Fprintln(w, "  -w, --workers <n>         Render workers (0 = auto)")
	fmt.Fprintln(w, "      --pdftoppm <path>     Poppler binary name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug detail")
}

// runHelp prints help for a specific command.
func runHelp(args []string, deps *Dependencies) {
	if len(args) == 0 {
		printUsage(deps.Stdout)
		return
	}

	switch args[0] {
	case "build":
		printBuildUsage(deps.Stdout)
	case "preview":
		printPreviewUsage(deps.Stdout)
	case "doctor":
		fmt.Fprintln(deps.Stdout, "Usage: bookpress doctor [--json]")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Check the environment: pdftoppm, book font, config, temp dir.")
	case "version":
		fmt.Fprintln(deps.Stdout, "Usage: bookpress version")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(deps.Stdout, "Usage: bookpress help [command]")
		fmt.Fprintln(deps.Stdout)
		fmt.Fprintln(deps.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(deps.Stderr, "Unknown command: %s\n", args[0])
		printUsage(deps.Stderr)
	}
}
