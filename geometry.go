package bookpress

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
)

// CMToPoints converts print centimeters to PDF points (72 per inch).
func CMToPoints(cm float64) float64 {
	return cm / 2.54 * 72
}

// Trim and bleed defaults, in centimeters.
const (
	DefaultSquareTrimCM = 19.0
	DefaultRectWidthCM  = 21.0
	DefaultRectHeightCM = 14.8
	DefaultBleedCM      = 0.5
)

// squareAspectTolerance is how far an aspect ratio may deviate from 1.0
// and still count as square during auto-trim.
const squareAspectTolerance = 0.02

// TrimPresets are the trim formats auto-trim chooses between: a square
// format and a rectangular one (swapped for portrait sources).
type TrimPresets struct {
	SquareCM     float64
	RectWidthCM  float64
	RectHeightCM float64
}

// DefaultTrimPresets returns the standard print formats.
func DefaultTrimPresets() TrimPresets {
	return TrimPresets{
		SquareCM:     DefaultSquareTrimCM,
		RectWidthCM:  DefaultRectWidthCM,
		RectHeightCM: DefaultRectHeightCM,
	}
}

// withDefaults fills zero fields from the standard formats.
func (p TrimPresets) withDefaults() TrimPresets {
	d := DefaultTrimPresets()
	if p.SquareCM > 0 {
		d.SquareCM = p.SquareCM
	}
	if p.RectWidthCM > 0 {
		d.RectWidthCM = p.RectWidthCM
	}
	if p.RectHeightCM > 0 {
		d.RectHeightCM = p.RectHeightCM
	}
	return d
}

// GeometryOptions resolves the trim and bleed of the book, cover, and
// back pages. Explicit dimensions always beat auto-trim; a single
// explicit page dimension implies a square trim. Cover dimensions
// default to the book trim, and back dimensions default to the cover.
type GeometryOptions struct {
	PageWidthCM  float64
	PageHeightCM float64
	AutoTrim     bool
	Presets      TrimPresets // zero fields use the standard formats
	BleedCM      float64     // added on all four sides

	CoverWidthCM  float64
	CoverHeightCM float64
	BackWidthCM   float64
	BackHeightCM  float64
}

// Validate rejects negative dimensions and bleed.
func (g GeometryOptions) Validate() error {
	dims := []struct {
		name string
		v    float64
	}{
		{"page width", g.PageWidthCM},
		{"page height", g.PageHeightCM},
		{"cover width", g.CoverWidthCM},
		{"cover height", g.CoverHeightCM},
		{"back width", g.BackWidthCM},
		{"back height", g.BackHeightCM},
	}
	for _, d := range dims {
		if d.v < 0 {
			return fmt.Errorf("%w: %s %.2fcm", ErrInvalidTrimSize, d.name, d.v)
		}
	}
	if g.BleedCM < 0 {
		return fmt.Errorf("%w: %.2fcm", ErrInvalidBleed, g.BleedCM)
	}
	return nil
}

// PageGeometry is one resolved page size: the trim box plus symmetric
// bleed on every side.
type PageGeometry struct {
	TrimWidthCM  float64
	TrimHeightCM float64
	BleedCM      float64
}

// FinalWidthCM returns the trim width plus bleed on both sides.
func (g PageGeometry) FinalWidthCM() float64 {
	return g.TrimWidthCM + 2*g.BleedCM
}

// FinalHeightCM returns the trim height plus bleed on both sides.
func (g PageGeometry) FinalHeightCM() float64 {
	return g.TrimHeightCM + 2*g.BleedCM
}

// WidthPt returns the final page width in PDF points.
func (g PageGeometry) WidthPt() float64 {
	return CMToPoints(g.FinalWidthCM())
}

// HeightPt returns the final page height in PDF points.
func (g PageGeometry) HeightPt() float64 {
	return CMToPoints(g.FinalHeightCM())
}

// BookGeometry holds the resolved geometries of every document a build
// can write.
type BookGeometry struct {
	Page  PageGeometry
	Cover PageGeometry
	Back  PageGeometry
}

// Resolve computes the final page geometries. samplePath feeds auto-trim
// and may be empty. Resolution never fails: an unreadable sample degrades
// to the square preset with a warning.
func (g GeometryOptions) Resolve(samplePath string, logger *slog.Logger) BookGeometry {
	if logger == nil {
		logger = slog.Default()
	}
	presets := g.Presets.withDefaults()
	trimW, trimH := g.resolveTrim(presets, samplePath, logger)

	coverW := g.CoverWidthCM
	if coverW == 0 {
		coverW = trimW
	}
	coverH := g.CoverHeightCM
	if coverH == 0 {
		coverH = trimH
		if g.CoverWidthCM != 0 {
			coverH = g.CoverWidthCM
		}
	}

	backW := g.BackWidthCM
	if backW == 0 {
		backW = coverW
	}
	backH := g.BackHeightCM
	if backH == 0 {
		backH = coverH
		if g.BackWidthCM != 0 {
			backH = g.BackWidthCM
		}
	}

	return BookGeometry{
		Page:  PageGeometry{TrimWidthCM: trimW, TrimHeightCM: trimH, BleedCM: g.BleedCM},
		Cover: PageGeometry{TrimWidthCM: coverW, TrimHeightCM: coverH, BleedCM: g.BleedCM},
		Back:  PageGeometry{TrimWidthCM: backW, TrimHeightCM: backH, BleedCM: g.BleedCM},
	}
}

// resolveTrim applies the precedence: explicit dimensions, then auto-trim,
// then the square preset.
func (g GeometryOptions) resolveTrim(presets TrimPresets, samplePath string, logger *slog.Logger) (w, h float64) {
	if g.PageWidthCM > 0 || g.PageHeightCM > 0 {
		w, h = g.PageWidthCM, g.PageHeightCM
		if w == 0 {
			w = h
		}
		if h == 0 {
			h = w
		}
		logger.Info("fixed trim override", "width_cm", w, "height_cm", h)
		return w, h
	}

	if g.AutoTrim {
		if w, h, ok := trimFromSample(presets, samplePath, logger); ok {
			return w, h
		}
	}

	return presets.SquareCM, presets.SquareCM
}

// trimFromSample infers the trim format from the aspect ratio of a sample
// image. Only the image header is decoded.
func trimFromSample(presets TrimPresets, samplePath string, logger *slog.Logger) (w, h float64, ok bool) {
	if samplePath == "" {
		logger.Warn("auto-trim: no sample image available, using square trim",
			"square_cm", presets.SquareCM)
		return 0, 0, false
	}

	f, err := os.Open(samplePath) // #nosec G304 -- sample comes from resolved book inputs
	if err != nil {
		logger.Warn("auto-trim: cannot open sample image, using square trim",
			"image", samplePath, "error", err)
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil || cfg.Height == 0 {
		logger.Warn("auto-trim: cannot read sample image size, using square trim",
			"image", samplePath, "error", err)
		return 0, 0, false
	}

	aspect := float64(cfg.Width) / float64(cfg.Height)
	switch {
	case math.Abs(aspect-1) <= squareAspectTolerance:
		logger.Info("auto-trim: square format", "aspect", aspect, "trim_cm", presets.SquareCM)
		return presets.SquareCM, presets.SquareCM, true
	case aspect >= 1:
		logger.Info("auto-trim: landscape format", "aspect", aspect,
			"width_cm", presets.RectWidthCM, "height_cm", presets.RectHeightCM)
		return presets.RectWidthCM, presets.RectHeightCM, true
	default:
		logger.Info("auto-trim: portrait format", "aspect", aspect,
			"width_cm", presets.RectHeightCM, "height_cm", presets.RectWidthCM)
		return presets.RectHeightCM, presets.RectWidthCM, true
	}
}
