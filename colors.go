package bookpress

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	// Scene images arrive as JPEG or PNG exports and as TIFF print
	// masters, often CMYK. The hhrutter fork decodes CMYK TIFFs that
	// x/image/tiff rejects.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/hhrutter/tiff"
	xdraw "golang.org/x/image/draw"
)

// Color is an RGB color with channels in [0, 1].
type Color struct {
	R, G, B float64
}

// Page colors.
var (
	White = Color{R: 1, G: 1, B: 1}
	Black = Color{R: 0, G: 0, B: 0}

	// fallbackBackground is used when a scene image cannot be decoded.
	fallbackBackground = Color{R: 0.95, G: 0.95, B: 0.95}
)

// Luminance returns the relative luminance (ITU-R BT.709 coefficients).
func (c Color) Luminance() float64 {
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

// RGB255 returns the color scaled to 8-bit channels.
func (c Color) RGB255() (r, g, b int) {
	return int(c.R*255 + 0.5), int(c.G*255 + 0.5), int(c.B*255 + 0.5)
}

// Background sampling parameters.
const (
	sampleGrid        = 64   // downsample edge length, fidelity is irrelevant
	luminanceFloor    = 0.25 // minimum background luminance for readability
	textContrastPoint = 0.6  // background luminance above which text is black
)

// DefaultColorWorkers bounds the background pre-extraction pool.
const DefaultColorWorkers = 4

// ColorSample is the background color extracted from a scene image and
// the text color chosen to contrast with it.
type ColorSample struct {
	Background Color
	Text       Color
}

// ColorCache memoizes per-image color samples. Safe for concurrent use.
// Concurrent misses of the same path may both decode, but writes are
// idempotent so the duplicate work is harmless.
type ColorCache struct {
	mu      sync.Mutex
	samples map[string]ColorSample
	logger  *slog.Logger
}

// NewColorCache returns an empty cache. A nil logger defaults to
// slog.Default().
func NewColorCache(logger *slog.Logger) *ColorCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ColorCache{
		samples: make(map[string]ColorSample),
		logger:  logger,
	}
}

// Sample returns the colors for the image at path, computing and caching
// them on first use. A decode failure degrades to a light gray background
// and is cached too, so the warning fires once per path and a build never
// aborts over an unreadable background.
func (c *ColorCache) Sample(path string) ColorSample {
	c.mu.Lock()
	if s, ok := c.samples[path]; ok {
		c.mu.Unlock()
		return s
	}
	c.mu.Unlock()

	s, err := sampleImage(path)
	if err != nil {
		c.logger.Warn("background sampling failed, using fallback gray",
			"image", path, "error", err)
		s = ColorSample{
			Background: fallbackBackground,
			Text:       textColorFor(fallbackBackground),
		}
	}

	c.mu.Lock()
	c.samples[path] = s
	c.mu.Unlock()
	return s
}

// Prefetch warms the cache for every path with a bounded worker pool and
// returns once all sampling is done or ctx is canceled. Failures degrade
// inside Sample and never abort the warm-up.
func (c *ColorCache) Prefetch(ctx context.Context, paths []string, workers int) {
	if workers < 1 {
		workers = DefaultColorWorkers
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			c.Sample(path)
		}()
	}
	wg.Wait()
}

// sampleImage decodes, downsamples, and blends an image into a background
// color with the readability floor applied.
func sampleImage(path string) (ColorSample, error) {
	f, err := os.Open(path) // #nosec G304 -- paths come from resolved book inputs
	if err != nil {
		return ColorSample{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return ColorSample{}, fmt.Errorf("decode: %w", err)
	}

	bg := raiseLuminance(blendBackground(downsample(src)))
	return ColorSample{Background: bg, Text: textColorFor(bg)}, nil
}

// downsample scales the image onto the fixed sampling grid. Bilinear is
// plenty here, only speed matters.
func downsample(src image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, sampleGrid, sampleGrid))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// blendBackground averages the mean and median of each channel 50/50.
// The mean tracks overall tone, the median resists outlier regions.
func blendBackground(img *image.RGBA) Color {
	n := sampleGrid * sampleGrid
	var chans [3][]float64
	for i := range chans {
		chans[i] = make([]float64, 0, n)
	}
	for y := 0; y < sampleGrid; y++ {
		for x := 0; x < sampleGrid; x++ {
			off := img.PixOffset(x, y)
			for i := range chans {
				chans[i] = append(chans[i], float64(img.Pix[off+i])/255)
			}
		}
	}

	var out [3]float64
	for i, vals := range chans {
		out[i] = (mean(vals) + median(vals)) / 2
	}
	return Color{R: out[0], G: out[1], B: out[2]}
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// median of an even-length sample is the average of the two middle values.
func median(vals []float64) float64 {
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// raiseLuminance rescales backgrounds darker than the floor so text stays
// readable, clamping each channel at 1.
func raiseLuminance(c Color) Color {
	l := c.Luminance()
	if l >= luminanceFloor {
		return c
	}
	scale := 4.0
	if l > 0 {
		scale = luminanceFloor / l
	}
	return Color{
		R: math.Min(c.R*scale, 1),
		G: math.Min(c.G*scale, 1),
		B: math.Min(c.B*scale, 1),
	}
}

// textColorFor picks black on light backgrounds, white on dark ones.
func textColorFor(bg Color) Color {
	if bg.Luminance() > textContrastPoint {
		return Black
	}
	return White
}
