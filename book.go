package bookpress

import (
	"context"
	"fmt"
	"log/slog"
)

// Crop mark layout. The inset is the print shop's trim guide distance,
// fixed at 0.3cm from the page edge regardless of the configured bleed.
const (
	cropMarkInsetCM = 0.3
	cropMarkLenPt   = 15.0
)

// Builder assembles picture-book PDF documents.
//
// A Builder holds no per-book state and is safe for concurrent use; each
// Build call creates its own documents and color cache.
type Builder struct {
	cfg builderConfig

	// newCanvas is swapped by tests to capture draw calls.
	newCanvas func(geom PageGeometry, font FontOptions) Canvas
}

// New creates a Builder with default configuration.
// Use options to customize behavior (e.g., WithLogger).
func New(opts ...Option) *Builder {
	b := &Builder{
		cfg: builderConfig{
			logger:       slog.Default(),
			colorWorkers: DefaultColorWorkers,
		},
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.newCanvas == nil {
		b.newCanvas = func(geom PageGeometry, font FontOptions) Canvas {
			return NewPDFCanvas(geom, font, b.cfg.logger)
		}
	}

	return b
}

// Build assembles the main book document plus any companion documents
// and reports what was written. The context cancels between pages.
//
// The main document runs cover (unless split off or absent), front
// matter, two pages per scene, closing matter. Scenes alternate page
// order: odd scenes read text first, even scenes lead with the image.
// A back cover image always becomes its own single-page document, split
// flag or not; a back document that cannot be written is logged and
// skipped so a bad back image never sinks the finished book. A split
// cover that cannot be written is fatal.
func (b *Builder) Build(ctx context.Context, in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	scenes := in.Source.Scenes()
	coverImage, hasCover := in.Source.CoverImage()
	backImage, hasBack := in.Source.BackImage()
	front, hasFront := in.Source.FrontMatter()
	closing, hasClosing := in.Source.ClosingMatter()

	geom := in.Geometry.Resolve(trimSamplePath(in.Source), b.cfg.logger)
	b.cfg.logger.Info("building book",
		"scenes", len(scenes),
		"cover", hasCover,
		"back", hasBack,
		"output", in.Output.Path,
	)

	result := &Result{OutputPath: in.Output.Path}

	// Companion documents come first: a cover that cannot be written
	// aborts the build before any main-book work.
	if in.SplitCover && hasCover {
		path := in.Output.coverPath()
		if err := b.writeImageDocument(geom.Cover, in.CropMarks, coverImage, path); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCoverDocument, err)
		}
		b.cfg.logger.Info("cover document written", "path", path)
		result.CoverPath = path
	}
	if hasBack {
		path := in.Output.backPath()
		if err := b.writeImageDocument(geom.Back, in.CropMarks, backImage, path); err != nil {
			b.cfg.logger.Warn("skipping back cover document",
				"path", path,
				"error", fmt.Errorf("%w: %v", ErrBackDocument, err),
			)
		} else {
			b.cfg.logger.Info("back document written", "path", path)
			result.BackPath = path
		}
	}

	coverInMain := hasCover && !in.SplitCover
	reporter := NewProgressReporter(in.Progress)
	reporter.Total(pageTotal(len(scenes), coverInMain, hasFront, hasClosing))

	canvas := b.newCanvas(geom.Page, in.Font)

	if coverInMain {
		if err := b.addImagePage(canvas, in.CropMarks, coverImage); err != nil {
			return nil, fmt.Errorf("drawing cover page: %w", err)
		}
		reporter.Page()
	}

	if hasFront {
		b.addTextPage(canvas, in.CropMarks, front, matterColors())
		reporter.Page()
	}

	cache := NewColorCache(b.cfg.logger)
	cache.Prefetch(ctx, sceneImagePaths(scenes), b.cfg.colorWorkers)

	for i, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		colors := cache.Sample(scene.ImagePath)
		drawImage := func() error {
			if err := b.addImagePage(canvas, in.CropMarks, scene.ImagePath); err != nil {
				return fmt.Errorf("drawing scene %d: %w", i+1, err)
			}
			reporter.Page()
			return nil
		}
		drawText := func() {
			b.addTextPage(canvas, in.CropMarks, scene.Text, colors)
			reporter.Page()
		}

		// 1-based scene numbering drives the alternation.
		if (i+1)%2 != 0 {
			drawText()
			if err := drawImage(); err != nil {
				return nil, err
			}
		} else {
			if err := drawImage(); err != nil {
				return nil, err
			}
			drawText()
		}
	}

	if hasClosing {
		b.addTextPage(canvas, in.CropMarks, closing, matterColors())
		reporter.Page()
	}

	if err := canvas.WriteFile(in.Output.Path); err != nil {
		return nil, err
	}
	reporter.Done()

	result.Pages = reporter.Count()
	b.cfg.logger.Info("book document written",
		"path", in.Output.Path,
		"pages", result.Pages,
	)
	return result, nil
}

// writeImageDocument writes a standalone single-page document holding one
// full-bleed image. Image-only documents skip TTF registration, so cover
// and back files never embed the text font.
func (b *Builder) writeImageDocument(geom PageGeometry, cropMarks bool, imagePath, outPath string) error {
	canvas := b.newCanvas(geom, FontOptions{})
	if err := b.addImagePage(canvas, cropMarks, imagePath); err != nil {
		return err
	}
	return canvas.WriteFile(outPath)
}

// addImagePage adds one page covered edge to edge by the image.
func (b *Builder) addImagePage(c Canvas, cropMarks bool, path string) error {
	c.AddPage()
	w, h := c.PageSize()
	if err := c.DrawImage(path, 0, 0, w, h); err != nil {
		return err
	}
	if cropMarks {
		drawCropMarks(c)
	}
	return nil
}

// addTextPage adds one page with a solid background and the fitted,
// centered text block.
func (b *Builder) addTextPage(c Canvas, cropMarks bool, text string, colors ColorSample) {
	c.AddPage()
	w, h := c.PageSize()

	c.FillPage(colors.Background)
	c.SetTextColor(colors.Text)

	layout := FitText(c, text, w, h)
	c.SetFontSize(layout.FontSize)
	for _, ln := range layout.Lines {
		if ln.Blank {
			continue
		}
		c.DrawText(ln.X, ln.Y, ln.Text)
	}

	if cropMarks {
		drawCropMarks(c)
	}
}

// drawCropMarks strokes the eight trim guide segments, two per corner,
// meeting at the guide inset and pointing off the trim box.
func drawCropMarks(c Canvas) {
	w, h := c.PageSize()
	inset := CMToPoints(cropMarkInsetCM)

	// Top left
	c.DrawLine(inset-cropMarkLenPt, inset, inset, inset)
	c.DrawLine(inset, inset-cropMarkLenPt, inset, inset)
	// Bottom left
	c.DrawLine(inset-cropMarkLenPt, h-inset, inset, h-inset)
	c.DrawLine(inset, h-inset, inset, h-inset+cropMarkLenPt)
	// Top right
	c.DrawLine(w-inset, inset, w-inset+cropMarkLenPt, inset)
	c.DrawLine(w-inset, inset-cropMarkLenPt, w-inset, inset)
	// Bottom right
	c.DrawLine(w-inset, h-inset, w-inset+cropMarkLenPt, h-inset)
	c.DrawLine(w-inset, h-inset, w-inset, h-inset+cropMarkLenPt)
}

// pageTotal is the announced page count of the main document.
func pageTotal(sceneCount int, coverInMain, hasFront, hasClosing bool) int {
	total := 2 * sceneCount
	if coverInMain {
		total++
	}
	if hasFront {
		total++
	}
	if hasClosing {
		total++
	}
	return total
}

// matterColors is the palette of front and closing matter pages: plain
// white with black text, independent of any scene image.
func matterColors() ColorSample {
	return ColorSample{Background: White, Text: Black}
}

// trimSamplePath picks the image whose aspect ratio drives auto-trim:
// the cover when present, else the first scene, else the back.
func trimSamplePath(src Source) string {
	if p, ok := src.CoverImage(); ok {
		return p
	}
	if scenes := src.Scenes(); len(scenes) > 0 {
		return scenes[0].ImagePath
	}
	if p, ok := src.BackImage(); ok {
		return p
	}
	return ""
}

// sceneImagePaths collects the image paths of all scenes in order.
func sceneImagePaths(scenes []Scene) []string {
	paths := make([]string, len(scenes))
	for i, s := range scenes {
		paths[i] = s.ImagePath
	}
	return paths
}
