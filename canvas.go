package bookpress

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hhrutter/tiff"
	"github.com/jung-kurt/gofpdf"

	"github.com/inkmill/bookpress/internal/fileutil"
)

// Canvas is the drawing surface for one PDF document. Coordinates are in
// points with the origin at the top-left corner of the page.
type Canvas interface {
	// PageSize returns the page width and height in points.
	PageSize() (w, h float64)
	// AddPage starts a new page. The first page must be added before any
	// drawing happens.
	AddPage()
	// FillPage floods the entire page with a color.
	FillPage(c Color)
	// DrawImage places an image file across the given rectangle.
	DrawImage(path string, x, y, w, h float64) error
	// DrawLine strokes a segment, used for printer marks.
	DrawLine(x1, y1, x2, y2 float64)
	// SetTextColor sets the color of subsequent text.
	SetTextColor(c Color)
	// SetFontSize sets the size of subsequent text in points.
	SetFontSize(size float64)
	// DrawText draws s with its baseline starting at (x, y).
	DrawText(x, y float64, s string)
	// TextWidth reports the rendered width of s at the given font size.
	// Measuring may leave the canvas at that font size.
	TextWidth(s string, fontSize float64) float64
	// WriteFile finalizes the document and writes it to path.
	WriteFile(path string) error
}

// Font families registered on a document.
const (
	bookFontFamily     = "bookfont"
	fallbackFontFamily = "Helvetica"
)

// PDFCanvas implements Canvas on a gofpdf document.
type PDFCanvas struct {
	pdf        *gofpdf.Fpdf
	width      float64
	height     float64
	family     string
	registered map[string]bool // TIFFs transcoded and registered, by path
}

// Compile-time check that PDFCanvas implements Canvas.
var _ Canvas = (*PDFCanvas)(nil)

// NewPDFCanvas creates a single-document canvas at the geometry's final
// page size. The TTF font is registered per document; a missing or
// invalid font file degrades to the built-in Helvetica with a warning.
// Helvetica lacks Cyrillic glyphs, so degraded documents may show text
// incorrectly but are still produced.
func NewPDFCanvas(geom PageGeometry, font FontOptions, logger *slog.Logger) *PDFCanvas {
	if logger == nil {
		logger = slog.Default()
	}
	w, h := geom.WidthPt(), geom.HeightPt()

	pdf := newDocument(w, h)
	family := fallbackFontFamily
	switch {
	case font.TTFPath == "":
		// Built-in font only.
	case !fileutil.FileExists(font.TTFPath):
		logger.Warn("font file not found, falling back to built-in font",
			"font", font.TTFPath, "fallback", fallbackFontFamily)
	default:
		pdf.AddUTF8Font(bookFontFamily, "", font.TTFPath)
		if pdf.Err() {
			logger.Warn("font registration failed, falling back to built-in font",
				"font", font.TTFPath, "fallback", fallbackFontFamily, "error", pdf.Error())
			// A gofpdf error is sticky, so start over on a fresh document.
			pdf = newDocument(w, h)
		} else {
			family = bookFontFamily
		}
	}
	pdf.SetFont(family, "", BaseFontSize)

	return &PDFCanvas{
		pdf:        pdf,
		width:      w,
		height:     h,
		family:     family,
		registered: make(map[string]bool),
	}
}

func newDocument(w, h float64) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(0, 0, 0)
	return pdf
}

// PageSize returns the page width and height in points.
func (c *PDFCanvas) PageSize() (w, h float64) {
	return c.width, c.height
}

// AddPage starts a new page.
func (c *PDFCanvas) AddPage() {
	c.pdf.AddPage()
}

// FillPage floods the page with col.
func (c *PDFCanvas) FillPage(col Color) {
	r, g, b := col.RGB255()
	c.pdf.SetFillColor(r, g, b)
	c.pdf.Rect(0, 0, c.width, c.height, "F")
}

// DrawImage places the image file across the given rectangle. JPEG and
// PNG embed natively; TIFF (CMYK print masters included) is transcoded
// to PNG once per path and registered with the document.
func (c *PDFCanvas) DrawImage(path string, x, y, w, h float64) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrImageEmbed, path, err)
	}

	var opts gofpdf.ImageOptions
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		if err := c.registerTIFF(path); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrImageEmbed, path, err)
		}
		opts.ImageType = "PNG"
	}

	c.pdf.ImageOptions(path, x, y, w, h, false, opts, 0, "")
	if c.pdf.Err() {
		return fmt.Errorf("%w: %s: %v", ErrImageEmbed, path, c.pdf.Error())
	}
	return nil
}

// registerTIFF decodes a TIFF and registers it as PNG under its path.
// gofpdf has no native TIFF support.
func (c *PDFCanvas) registerTIFF(path string) error {
	if c.registered[path] {
		return nil
	}

	f, err := os.Open(path) // #nosec G304 -- paths come from resolved book inputs
	if err != nil {
		return err
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return fmt.Errorf("decode tiff: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	c.pdf.RegisterImageOptionsReader(path, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	if c.pdf.Err() {
		return c.pdf.Error()
	}
	c.registered[path] = true
	return nil
}

// DrawLine strokes a 1pt black segment.
func (c *PDFCanvas) DrawLine(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

// SetTextColor sets the color of subsequent text.
func (c *PDFCanvas) SetTextColor(col Color) {
	r, g, b := col.RGB255()
	c.pdf.SetTextColor(r, g, b)
}

// SetFontSize sets the size of subsequent text in points.
func (c *PDFCanvas) SetFontSize(size float64) {
	c.pdf.SetFontSize(size)
}

// DrawText draws s with its baseline starting at (x, y).
func (c *PDFCanvas) DrawText(x, y float64, s string) {
	c.pdf.Text(x, y, s)
}

// TextWidth measures s at fontSize and leaves the canvas at that size.
func (c *PDFCanvas) TextWidth(s string, fontSize float64) float64 {
	c.pdf.SetFontSize(fontSize)
	return c.pdf.GetStringWidth(s)
}

// WriteFile finalizes the document and writes it to path.
func (c *PDFCanvas) WriteFile(path string) error {
	if err := c.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDocumentWrite, path, err)
	}
	return nil
}
