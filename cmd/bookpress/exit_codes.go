package main

import (
	"errors"
	"os"

	"github.com/inkmill/bookpress"
	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/flatbook"
	"github.com/inkmill/bookpress/internal/manifest"
	"github.com/inkmill/bookpress/internal/preview"
)

// Exit codes for the bookpress CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Documents written or diagnostics clean
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or input validation
	ExitIO      = 3 // Missing or unreadable inputs, write failures
	ExitRender  = 4 // Canvas embedding, pdfcpu, or pdftoppm failures
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Render errors (exit 4)
	if errors.Is(err, bookpress.ErrImageEmbed) ||
		errors.Is(err, bookpress.ErrCoverDocument) ||
		errors.Is(err, bookpress.ErrBackDocument) ||
		errors.Is(err, preview.ErrPageCount) ||
		errors.Is(err, preview.ErrRender) ||
		errors.Is(err, preview.ErrImageDecode) {
		return ExitRender
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, bookpress.ErrDocumentWrite) ||
		errors.Is(err, manifest.ErrManifestRead) ||
		errors.Is(err, manifest.ErrSceneImage) ||
		errors.Is(err, flatbook.ErrMarkdownRead) ||
		errors.Is(err, flatbook.ErrImagesDir) ||
		errors.Is(err, preview.ErrImageWrite) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, manifest.ErrManifestSyntax) ||
		errors.Is(err, manifest.ErrManifestSchema) ||
		errors.Is(err, flatbook.ErrNoTextPages) ||
		errors.Is(err, flatbook.ErrNoImages) ||
		errors.Is(err, flatbook.ErrCountMismatch) ||
		errors.Is(err, bookpress.ErrNilSource) ||
		errors.Is(err, bookpress.ErrEmptyOutput) ||
		errors.Is(err, bookpress.ErrInvalidTrimSize) ||
		errors.Is(err, bookpress.ErrInvalidBleed) ||
		errors.Is(err, preview.ErrPageRange) ||
		errors.Is(err, preview.ErrUnknownFormat) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}
