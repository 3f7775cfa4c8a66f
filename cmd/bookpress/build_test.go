package main

// Notes:
// - Manifest-mode runs are real end-to-end builds: generated PNG scenes,
//   a JSON manifest, and the actual PDF writer. Fixture text stays ASCII
//   so the core-font fallback renders it when no TTF ships with the test.
// - Flag structs come from parseBuildFlags so the bleed sentinel and
//   other defaults match what main() would hand runBuild.

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inkmill/bookpress"
	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/flatbook"
	"github.com/inkmill/bookpress/internal/manifest"
)

func testDeps() (*Dependencies, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	deps := &Dependencies{
		Now:      time.Now,
		Stdout:   &stdout,
		Stderr:   &stderr,
		Getenv:   func(string) string { return "" },
		Environ:  func() []string { return nil },
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
	}
	return deps, &stdout, &stderr
}

func writeScenePNG(t *testing.T, dir, name string, c color.NRGBA) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path) // #nosec G304 -- temp dir controlled by the test
	if err != nil {
		t.Fatalf("setup: create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("setup: encode %s: %v", name, err)
	}
	return path
}

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, "book.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: write manifest: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// TestResolveBleed - Bleed precedence
// ---------------------------------------------------------------------------

func TestResolveBleed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		flag float64
		cfg  float64
		want float64
	}{
		{name: "flag wins over config", flag: 0.3, cfg: 0.7, want: 0.3},
		{name: "explicit zero disables bleed", flag: 0, cfg: 0.7, want: 0},
		{name: "config wins over default", flag: bleedSentinel, cfg: 0.7, want: 0.7},
		{name: "default when both unset", flag: bleedSentinel, cfg: 0, want: bookpress.DefaultBleedCM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveBleed(tt.flag, tt.cfg); got != tt.want {
				t.Errorf("resolveBleed(%v, %v) = %v, want %v", tt.flag, tt.cfg, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidateWorkers - Worker count bounds
// ---------------------------------------------------------------------------

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{name: "zero means auto", n: 0, wantErr: false},
		{name: "one", n: 1, wantErr: false},
		{name: "maximum", n: config.MaxWorkers, wantErr: false},
		{name: "negative", n: -1, wantErr: true},
		{name: "above maximum", n: config.MaxWorkers + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateWorkers(tt.n)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWorkerCount) {
					t.Errorf("validateWorkers(%d) = %v, want ErrInvalidWorkerCount", tt.n, err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateWorkers(%d) = %v, want nil", tt.n, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMergeBuildFlags - CLI over config precedence
// ---------------------------------------------------------------------------

func TestMergeBuildFlags_FlagsWin(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Input.ImagesDir = "file-art"
	cfg.Output.Path = "file.pdf"
	cfg.Page.SquareSizeCM = 19
	cfg.Font.Path = "file.ttf"
	cfg.Build.Workers = 2

	flags, _, err := parseBuildFlags([]string{
		"--images-dir", "cli-art",
		"-o", "cli.pdf",
		"--square-size-cm", "20",
		"--font", "cli.ttf",
		"-w", "5",
		"--crop-marks",
	})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	mergeBuildFlags(flags, cfg)

	if cfg.Input.ImagesDir != "cli-art" {
		t.Errorf("ImagesDir = %q, want cli-art", cfg.Input.ImagesDir)
	}
	if cfg.Output.Path != "cli.pdf" {
		t.Errorf("Output.Path = %q, want cli.pdf", cfg.Output.Path)
	}
	if cfg.Page.SquareSizeCM != 20 {
		t.Errorf("SquareSizeCM = %v, want 20", cfg.Page.SquareSizeCM)
	}
	if cfg.Font.Path != "cli.ttf" {
		t.Errorf("Font.Path = %q, want cli.ttf", cfg.Font.Path)
	}
	if cfg.Build.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Build.Workers)
	}
	if !cfg.Build.CropMarks {
		t.Error("CropMarks should be set from the flag")
	}
}

func TestMergeBuildFlags_UnsetFlagsKeepConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Input.ImagesDir = "file-art"
	cfg.Output.Path = "file.pdf"
	cfg.Page.AutoTrim = true
	cfg.Build.SplitCover = true
	cfg.Build.Workers = 2

	flags, _, err := parseBuildFlags(nil)
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	mergeBuildFlags(flags, cfg)

	if cfg.Input.ImagesDir != "file-art" || cfg.Output.Path != "file.pdf" {
		t.Errorf("unset flags must keep config: %q/%q", cfg.Input.ImagesDir, cfg.Output.Path)
	}
	if !cfg.Page.AutoTrim || !cfg.Build.SplitCover {
		t.Error("unset boolean flags must not clear config values")
	}
	if cfg.Build.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Build.Workers)
	}
}

// ---------------------------------------------------------------------------
// TestBuildGeometry - Config to geometry mapping
// ---------------------------------------------------------------------------

func TestBuildGeometry(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Page.WidthCM = 18
	cfg.Page.HeightCM = 12
	cfg.Page.AutoTrim = true
	cfg.Page.SquareSizeCM = 20
	cfg.Page.RectWidthCM = 22
	cfg.Page.RectHeightCM = 15
	cfg.Cover.WidthCM = 19
	cfg.Back.HeightCM = 19

	flags, _, err := parseBuildFlags(nil)
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	geom := buildGeometry(flags, cfg)

	if geom.PageWidthCM != 18 || geom.PageHeightCM != 12 {
		t.Errorf("page = %v x %v", geom.PageWidthCM, geom.PageHeightCM)
	}
	if !geom.AutoTrim {
		t.Error("AutoTrim not carried over")
	}
	if geom.Presets.SquareCM != 20 || geom.Presets.RectWidthCM != 22 || geom.Presets.RectHeightCM != 15 {
		t.Errorf("presets = %+v", geom.Presets)
	}
	if geom.BleedCM != bookpress.DefaultBleedCM {
		t.Errorf("BleedCM = %v, want default %v", geom.BleedCM, bookpress.DefaultBleedCM)
	}
	if geom.CoverWidthCM != 19 || geom.BackHeightCM != 19 {
		t.Errorf("cover/back = %v/%v", geom.CoverWidthCM, geom.BackHeightCM)
	}
}

// ---------------------------------------------------------------------------
// TestResolveSource - Input mode selection
// ---------------------------------------------------------------------------

func TestResolveSource_ManifestMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	manifestPath := writeManifest(t, dir, `{
		"shortDescription": "d",
		"motivationEnd": "m",
		"scenes": [{"sourceText_bg": "text"}]
	}`)

	source, outputPath, err := resolveSource([]string{manifestPath}, config.DefaultConfig())
	if err != nil {
		t.Fatalf("resolveSource() error = %v", err)
	}
	if len(source.Scenes()) != 1 {
		t.Errorf("len(Scenes()) = %d, want 1", len(source.Scenes()))
	}
	if outputPath != defaultManifestOutput {
		t.Errorf("outputPath = %q, want %q", outputPath, defaultManifestOutput)
	}
}

func TestResolveSource_ManifestMode_ConfigOutputWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	manifestPath := writeManifest(t, dir, `{
		"shortDescription": "d",
		"motivationEnd": "m",
		"scenes": [{"sourceText_bg": "text"}]
	}`)

	cfg := config.DefaultConfig()
	cfg.Output.Path = "custom.pdf"

	_, outputPath, err := resolveSource([]string{manifestPath}, cfg)
	if err != nil {
		t.Fatalf("resolveSource() error = %v", err)
	}
	if outputPath != "custom.pdf" {
		t.Errorf("outputPath = %q, want custom.pdf", outputPath)
	}
}

func TestResolveSource_FlatMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 5, G: 5, B: 5, A: 255})
	markdownPath := filepath.Join(dir, "pages.md")
	if err := os.WriteFile(markdownPath, []byte("Only page.\n"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Input.ImagesDir = dir
	cfg.Input.Markdown = markdownPath

	source, outputPath, err := resolveSource(nil, cfg)
	if err != nil {
		t.Fatalf("resolveSource() error = %v", err)
	}
	if len(source.Scenes()) != 1 {
		t.Errorf("len(Scenes()) = %d, want 1", len(source.Scenes()))
	}
	if outputPath != flatbook.DefaultOutput {
		t.Errorf("outputPath = %q, want %q", outputPath, flatbook.DefaultOutput)
	}
}

func TestResolveSource_FlatMode_MissingFolder(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Input.ImagesDir = filepath.Join(t.TempDir(), "absent")
	cfg.Input.Markdown = "irrelevant.md"

	_, _, err := resolveSource(nil, cfg)
	if !errors.Is(err, flatbook.ErrImagesDir) {
		t.Errorf("error = %v, want ErrImagesDir", err)
	}
}

// ---------------------------------------------------------------------------
// TestRunBuild - End-to-end manifest builds
// ---------------------------------------------------------------------------

func TestRunBuild_ManifestMode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 22, G: 26, B: 64, A: 255})
	writeScenePNG(t, dir, "scene_2.png", color.NRGBA{R: 236, G: 240, B: 250, A: 255})
	manifestPath := writeManifest(t, dir, `{
		"shortDescription": "A small fox learns to wait for the moon.",
		"motivationEnd": "Patience is its own small light.",
		"scenes": [
			{"sourceText_bg": "The fox waited."},
			{"sourceText_bg": "The moon rose."}
		]
	}`)
	outPath := filepath.Join(dir, "out.pdf")

	flags, positional, err := parseBuildFlags([]string{manifestPath, "-o", outPath, "--mr"})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, stdout, stderr := testDeps()
	if err := runBuild(context.Background(), positional, flags, deps); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("output document missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output document is empty")
	}

	// 2 scenes x 2 pages plus front and closing matter.
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if lines[0] != "PDFTOTAL|6" {
		t.Errorf("first protocol line = %q, want PDFTOTAL|6", lines[0])
	}
	if lines[len(lines)-1] != "PDFDONE" {
		t.Errorf("last protocol line = %q, want PDFDONE", lines[len(lines)-1])
	}
	var pageLines int
	for _, line := range lines {
		if strings.HasPrefix(line, "PDFPAGE|") {
			pageLines++
		}
	}
	if pageLines != 6 {
		t.Errorf("PDFPAGE lines = %d, want 6", pageLines)
	}

	// Human status stays off stdout.
	if !strings.Contains(stderr.String(), "Created "+outPath+" (6 pages)") {
		t.Errorf("stderr = %q, want Created status line", stderr.String())
	}
}

func TestRunBuild_QuietSkipsStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 80, G: 80, B: 80, A: 255})
	manifestPath := writeManifest(t, dir, `{
		"shortDescription": "d",
		"motivationEnd": "m",
		"scenes": [{"sourceText_bg": "One page."}]
	}`)
	outPath := filepath.Join(dir, "out.pdf")

	flags, positional, err := parseBuildFlags([]string{manifestPath, "-o", outPath, "-q"})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, stdout, stderr := testDeps()
	if err := runBuild(context.Background(), positional, flags, deps); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty without --mr", stdout.String())
	}
	if strings.Contains(stderr.String(), "Created") {
		t.Errorf("stderr = %q, quiet must suppress status", stderr.String())
	}
}

func TestRunBuild_VerboseTiming(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 40, G: 90, B: 40, A: 255})
	manifestPath := writeManifest(t, dir, `{
		"shortDescription": "d",
		"motivationEnd": "m",
		"scenes": [{"sourceText_bg": "One page."}]
	}`)
	outPath := filepath.Join(dir, "out.pdf")

	flags, positional, err := parseBuildFlags([]string{manifestPath, "-o", outPath, "-v"})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, _, stderr := testDeps()
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deps.Now = func() time.Time {
		clock = clock.Add(1500 * time.Millisecond)
		return clock
	}

	if err := runBuild(context.Background(), positional, flags, deps); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}

	if !strings.Contains(stderr.String(), "Built in 1.5s") {
		t.Errorf("stderr = %q, want deterministic timing line", stderr.String())
	}
}

func TestRunBuild_MissingManifest(t *testing.T) {
	t.Parallel()

	flags, positional, err := parseBuildFlags([]string{filepath.Join(t.TempDir(), "absent.json")})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runBuild(context.Background(), positional, flags, deps)
	if !errors.Is(err, manifest.ErrManifestRead) {
		t.Errorf("error = %v, want ErrManifestRead", err)
	}
}

func TestRunBuild_InvalidWorkers(t *testing.T) {
	t.Parallel()

	flags, positional, err := parseBuildFlags([]string{"book.json", "-w", "-1"})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runBuild(context.Background(), positional, flags, deps)
	if !errors.Is(err, ErrInvalidWorkerCount) {
		t.Errorf("error = %v, want ErrInvalidWorkerCount", err)
	}
}

func TestRunBuild_ConfigNotFound(t *testing.T) {
	t.Parallel()

	flags, positional, err := parseBuildFlags([]string{"book.json", "-c", "no-such-profile"})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	err = runBuild(context.Background(), positional, flags, deps)
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("error = %v, want ErrConfigNotFound", err)
	}
}

func TestRunBuild_EnvOutputApplies(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeScenePNG(t, dir, "scene_1.png", color.NRGBA{R: 120, G: 60, B: 200, A: 255})
	manifestPath := writeManifest(t, dir, `{
		"shortDescription": "d",
		"motivationEnd": "m",
		"scenes": [{"sourceText_bg": "One page."}]
	}`)
	outPath := filepath.Join(dir, "env-out.pdf")

	flags, positional, err := parseBuildFlags([]string{manifestPath})
	if err != nil {
		t.Fatalf("parseBuildFlags() error = %v", err)
	}

	deps, _, _ := testDeps()
	deps.Getenv = fakeGetenv(map[string]string{"BOOKPRESS_OUTPUT": outPath})

	if err := runBuild(context.Background(), positional, flags, deps); err != nil {
		t.Fatalf("runBuild() error = %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("env-named output missing: %v", err)
	}
}
