// Package preview rasterizes book PDFs into per-page web images.
//
// Rendering shells out to pdftoppm (poppler-utils) one page at a time,
// then downsizes and re-encodes each page for UI display. Output
// filenames keep absolute page numbers regardless of the requested
// range, so page_0007.jpeg is always the document's seventh page.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	xdraw "golang.org/x/image/draw"

	"github.com/inkmill/bookpress/internal/fileutil"
	"github.com/inkmill/bookpress/internal/process"
)

// Sentinel errors for preview operations.
var (
	ErrPageCount     = errors.New("preview: cannot determine page count")
	ErrPageRange     = errors.New("preview: invalid page range")
	ErrRender        = errors.New("preview: pdftoppm failed")
	ErrImageDecode   = errors.New("preview: cannot decode rendered page")
	ErrImageWrite    = errors.New("preview: cannot write page image")
	ErrUnknownFormat = errors.New("preview: unknown output format")
)

// Defaults applied to zero-valued options.
const (
	DefaultDPI      = 150
	DefaultMaxWidth = 1200
	DefaultQuality  = 85
	DefaultPrefix   = "page"

	// maxDefaultWorkers caps the derived pool size; each worker holds a
	// full decoded page in memory.
	maxDefaultWorkers = 8
)

// Format selects the output encoding. Its string value doubles as the
// output filename extension.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Options controls rasterization. Zero values take the package defaults.
type Options struct {
	DPI       int    // render resolution
	MaxWidth  int    // downscale ceiling in px; pages are never upscaled
	Quality   int    // JPEG quality, ignored for PNG
	Format    Format // jpeg or png
	Prefix    string // output filename prefix
	StartPage int    // 1-indexed inclusive; 0 = first page
	EndPage   int    // 1-indexed inclusive; 0 = last page
	Workers   int    // render pool size
	Pdftoppm  string // poppler binary name or path
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = DefaultDPI
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Format == "" {
		o.Format = FormatJPEG
	}
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Pdftoppm == "" {
		o.Pdftoppm = "pdftoppm"
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
		if o.Workers > maxDefaultWorkers {
			o.Workers = maxDefaultWorkers
		}
	}
	return o
}

// Result reports what a render produced.
type Result struct {
	Pages      int    // pages written
	TotalBytes int64  // bytes across all page images
	OutputDir  string // where the images landed
}

// Rasterizer converts PDF pages into preview images.
type Rasterizer struct {
	logger *slog.Logger

	// Seams for tests; real rendering needs poppler on the host.
	countPages func(pdfPath string) (int, error)
	renderPage func(ctx context.Context, binary, pdfPath, tmpDir string, page, dpi int) (string, error)
}

// NewRasterizer returns a Rasterizer logging through logger.
// A nil logger falls back to slog.Default().
func NewRasterizer(logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{
		logger:     logger,
		countPages: pdfPageCount,
		renderPage: runPdftoppm,
	}
}

// Render rasterizes the selected page range of pdfPath into outputDir.
// Pages render concurrently; the first failure aborts the run.
func (r *Rasterizer) Render(ctx context.Context, pdfPath, outputDir string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	count, err := r.countPages(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCount, err)
	}

	if opts.EndPage > count {
		r.logger.Warn("end page beyond document, clamping",
			"requested", opts.EndPage,
			"pages", count)
	}
	first, last, err := pageRange(opts.StartPage, opts.EndPage, count)
	if err != nil {
		return nil, err
	}

	if err := fileutil.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageWrite, err)
	}

	r.logger.Info("rasterizing pages",
		"pdf", pdfPath,
		"pages", last-first+1,
		"dpi", opts.DPI,
		"maxWidth", opts.MaxWidth,
		"format", opts.Format)

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg         sync.WaitGroup
		once       sync.Once
		firstErr   error
		totalBytes atomic.Int64
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	sem := make(chan struct{}, opts.Workers)
	for page := first; page <= last; page++ {
		if renderCtx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(p int) {
			defer wg.Done()
			defer func() { <-sem }()

			n, err := r.renderOne(renderCtx, pdfPath, outputDir, p, opts)
			if err != nil {
				fail(fmt.Errorf("page %d: %w", p, err))
				return
			}
			totalBytes.Add(n)
		}(page)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Pages:      last - first + 1,
		TotalBytes: totalBytes.Load(),
		OutputDir:  outputDir,
	}
	r.logger.Info("preview images written",
		"pages", result.Pages,
		"totalBytes", result.TotalBytes,
		"dir", outputDir)
	return result, nil
}

// renderOne renders a single page into outputDir and returns the bytes
// written.
func (r *Rasterizer) renderOne(ctx context.Context, pdfPath, outputDir string, page int, opts Options) (int64, error) {
	tmpDir, err := os.MkdirTemp("", "bookpress-page-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	renderedPath, err := r.renderPage(ctx, opts.Pdftoppm, pdfPath, tmpDir, page, opts.DPI)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(renderedPath) // #nosec G304 -- path is inside our temp dir
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	img, err := png.Decode(f)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	img = optimize(img, opts.MaxWidth, opts.Format)

	outPath := filepath.Join(outputDir, fmt.Sprintf("%s_%04d.%s", opts.Prefix, page, opts.Format))
	out, err := os.Create(outPath) // #nosec G304 -- output dir is user-provided
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImageWrite, err)
	}
	if err := encode(out, img, opts.Format, opts.Quality); err != nil {
		out.Close()
		return 0, fmt.Errorf("%w: %v", ErrImageWrite, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImageWrite, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImageWrite, err)
	}
	return info.Size(), nil
}

// pageRange resolves a requested 1-indexed inclusive range against the
// document. A start beyond the document is an error; an end beyond it
// clamps to the last page.
func pageRange(start, end, count int) (first, last int, err error) {
	first = start
	if first <= 0 {
		first = 1
	}
	if first > count {
		return 0, 0, fmt.Errorf("%w: start page %d beyond document with %d pages", ErrPageRange, first, count)
	}

	last = end
	if last <= 0 || last > count {
		last = count
	}
	if last < first {
		return 0, 0, fmt.Errorf("%w: end page %d before start page %d", ErrPageRange, last, first)
	}

	return first, last, nil
}

// optimize downsizes img to the width ceiling and, for JPEG output,
// flattens any alpha onto white.
func optimize(img image.Image, maxWidth int, format Format) image.Image {
	bounds := img.Bounds()
	if maxWidth > 0 && bounds.Dx() > maxWidth {
		ratio := float64(maxWidth) / float64(bounds.Dx())
		height := int(float64(bounds.Dy()) * ratio)
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
		img = dst
	}

	if format == FormatJPEG {
		img = flattenOnWhite(img)
	}
	return img
}

// flattenOnWhite composites img over a white background. JPEG carries
// no alpha channel, and transparent regions must read as paper.
func flattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), img, bounds.Min, xdraw.Over)
	return dst
}

// encode writes img in the requested format.
func encode(w *os.File, img image.Image, format Format, quality int) error {
	if format == FormatPNG {
		return png.Encode(w, img)
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// pdfPageCount reads the page count without touching poppler.
func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path) // #nosec G304 -- PDF path is user-provided
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return api.PageCount(f, nil)
}

// runPdftoppm renders one page to <tmpDir>/page.png using the poppler
// CLI. -singlefile keeps the output name free of page suffixes.
func runPdftoppm(ctx context.Context, binary, pdfPath, tmpDir string, page, dpi int) (string, error) {
	outputPrefix := filepath.Join(tmpDir, "page")
	pageArg := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, binary,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", pageArg,
		"-l", pageArg,
		"-singlefile",
		pdfPath,
		outputPrefix,
	)
	process.IsolateGroup(cmd)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %v (output: %s)", ErrRender, err, bytes.TrimSpace(output))
	}

	rendered := outputPrefix + ".png"
	if !fileutil.FileExists(rendered) {
		return "", fmt.Errorf("%w: no output for page %d", ErrRender, page)
	}
	return rendered, nil
}
