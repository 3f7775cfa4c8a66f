package bookpress_test

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/inkmill/bookpress"
)

// storybook is a minimal in-memory Source: ordered scenes and nothing
// else. Real builds usually come from a JSON manifest or a flat image
// folder, but any type with this shape can feed the builder.
type storybook struct {
	scenes []bookpress.Scene
}

func (s storybook) Scenes() []bookpress.Scene     { return s.scenes }
func (s storybook) FrontMatter() (string, bool)   { return "", false }
func (s storybook) ClosingMatter() (string, bool) { return "", false }
func (s storybook) CoverImage() (string, bool)    { return "", false }
func (s storybook) BackImage() (string, bool)     { return "", false }

// Example builds a two-scene book into a temporary directory.
func Example() {
	dir, err := os.MkdirTemp("", "bookpress-example")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	// Two uniform images stand in for the real print masters.
	night, err := writeUniformPNG(dir, "scene_1.png", color.NRGBA{R: 22, G: 26, B: 64, A: 255})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	day, err := writeUniformPNG(dir, "scene_2.png", color.NRGBA{R: 236, G: 240, B: 250, A: 255})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	result, err := bookpress.New().Build(context.Background(), bookpress.Input{
		Source: storybook{scenes: []bookpress.Scene{
			{ImagePath: night, Text: "The fox slept under a paper moon."},
			{ImagePath: day, Text: "Morning came with tiny golden bells."},
		}},
		Output: bookpress.OutputSpec{Path: filepath.Join(dir, "book.pdf")},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("pages:", result.Pages)
	// Output: pages: 4
}

// ExampleGeometryOptions_Resolve shows an explicit trim override; the
// bleed is added on every side.
func ExampleGeometryOptions_Resolve() {
	opts := bookpress.GeometryOptions{
		PageWidthCM:  21,
		PageHeightCM: 14.8,
		BleedCM:      0.5,
	}

	geom := opts.Resolve("", nil)

	fmt.Printf("%.1fcm x %.1fcm\n", geom.Page.FinalWidthCM(), geom.Page.FinalHeightCM())
	// Output: 22.0cm x 15.8cm
}

// ExampleProgressReporter shows the wire format consumed by wrapper UIs.
func ExampleProgressReporter() {
	reporter := bookpress.NewProgressReporter(os.Stdout)

	reporter.Total(2)
	reporter.Page()
	reporter.Page()
	reporter.Done()

	// Output:
	// PDFTOTAL|2
	// PDFPAGE|1|2
	// PDFPAGE|2|2
	// PDFDONE
}

func writeUniformPNG(dir, name string, c color.NRGBA) (string, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path) // #nosec G304 -- temp dir controlled by the example
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", err
	}
	return path, nil
}
