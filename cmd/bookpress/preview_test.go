package main

// Notes:
// - Rendering itself needs poppler on the host and is covered by the
//   preview package's seam-based tests. Here we cover argument handling,
//   flag/config merging, and the failure paths that never reach pdftoppm.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/preview"
)

// ---------------------------------------------------------------------------
// TestMergePreviewFlags - CLI over config precedence
// ---------------------------------------------------------------------------

func TestMergePreviewFlags_FlagsWin(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Preview.OutputDir = "file-dir"
	cfg.Preview.DPI = 150
	cfg.Preview.Format = "png"
	cfg.Preview.Workers = 2

	flags, _, err := parsePreviewFlags([]string{
		"book.pdf",
		"-o", "cli-dir",
		"--dpi", "300",
		"--format", "jpeg",
		"--quality", "80",
		"-w", "4",
	})
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	mergePreviewFlags(flags, cfg)

	if cfg.Preview.OutputDir != "cli-dir" {
		t.Errorf("OutputDir = %q, want cli-dir", cfg.Preview.OutputDir)
	}
	if cfg.Preview.DPI != 300 {
		t.Errorf("DPI = %d, want 300", cfg.Preview.DPI)
	}
	if cfg.Preview.Format != "jpeg" {
		t.Errorf("Format = %q, want jpeg", cfg.Preview.Format)
	}
	if cfg.Preview.Quality != 80 {
		t.Errorf("Quality = %d, want 80", cfg.Preview.Quality)
	}
	if cfg.Preview.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Preview.Workers)
	}
}

func TestMergePreviewFlags_UnsetFlagsKeepConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Preview.OutputDir = "file-dir"
	cfg.Preview.DPI = 150
	cfg.Preview.Prefix = "spread"

	flags, _, err := parsePreviewFlags([]string{"book.pdf"})
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	mergePreviewFlags(flags, cfg)

	if cfg.Preview.OutputDir != "file-dir" || cfg.Preview.DPI != 150 || cfg.Preview.Prefix != "spread" {
		t.Errorf("unset flags must keep config: %+v", cfg.Preview)
	}
}

// ---------------------------------------------------------------------------
// TestRunPreview - Failure paths
// ---------------------------------------------------------------------------

func TestRunPreview_NoArgument(t *testing.T) {
	t.Parallel()

	flags, positional, err := parsePreviewFlags(nil)
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runPreview(context.Background(), positional, flags, deps)
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("error = %v, want ErrNoInput", err)
	}
}

func TestRunPreview_UnknownFormat(t *testing.T) {
	t.Parallel()

	flags, positional, err := parsePreviewFlags([]string{"book.pdf", "--format", "bmp"})
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runPreview(context.Background(), positional, flags, deps)
	if !errors.Is(err, preview.ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestRunPreview_MissingPDF(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "absent.pdf")
	flags, positional, err := parsePreviewFlags([]string{missing, "-o", t.TempDir()})
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runPreview(context.Background(), positional, flags, deps)
	if !errors.Is(err, preview.ErrPageCount) {
		t.Errorf("error = %v, want ErrPageCount", err)
	}
}

func TestRunPreview_BrokenPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(pdfPath, []byte("not a pdf"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	flags, positional, err := parsePreviewFlags([]string{pdfPath, "-o", dir})
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runPreview(context.Background(), positional, flags, deps)
	if !errors.Is(err, preview.ErrPageCount) {
		t.Errorf("error = %v, want ErrPageCount", err)
	}
}

func TestRunPreview_InvalidWorkers(t *testing.T) {
	t.Parallel()

	flags, positional, err := parsePreviewFlags([]string{"book.pdf", "-w", "-3"})
	if err != nil {
		t.Fatalf("parsePreviewFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runPreview(context.Background(), positional, flags, deps)
	if !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
	}
}
