// Package flatbook adapts the legacy flat input layout into a build
// source: a folder of print-resolution TIFF scenes paired with a
// markdown file whose thematic breaks separate the page texts.
package flatbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/inkmill/bookpress"
)

// Historical defaults for the flat layout.
const (
	DefaultImagesDir    = "cmyk_tiff_images"
	DefaultMarkdownFile = "text_content.md"
	DefaultOutput       = "output_book_with_crop_marks_and_bg.pdf"
)

// Sentinel errors for flat mode loading.
var (
	ErrMarkdownRead  = errors.New("flatbook: cannot read markdown file")
	ErrImagesDir     = errors.New("flatbook: cannot list images folder")
	ErrNoTextPages   = errors.New("flatbook: no text pages in markdown file")
	ErrNoImages      = errors.New("flatbook: no TIFF images in folder")
	ErrCountMismatch = errors.New("flatbook: image and text page counts differ")
)

// mdParser is shared across loads; parse state lives in each call's context.
var mdParser = goldmark.New().Parser()

// Book pairs natural-ordered TIFF scenes with markdown page texts.
type Book struct {
	scenes []bookpress.Scene
}

var _ bookpress.Source = (*Book)(nil)

// Load lists the folder's TIFF images, splits the markdown into page
// texts, and pairs them in order. Counts must match exactly.
func Load(imagesDir, markdownPath string) (*Book, error) {
	texts, err := readTextPages(markdownPath)
	if err != nil {
		return nil, err
	}
	images, err := listSceneImages(imagesDir)
	if err != nil {
		return nil, err
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoImages, imagesDir)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTextPages, markdownPath)
	}
	if len(images) != len(texts) {
		return nil, fmt.Errorf("%w: %d images, %d text pages", ErrCountMismatch, len(images), len(texts))
	}

	scenes := make([]bookpress.Scene, len(images))
	for i, name := range images {
		scenes[i] = bookpress.Scene{
			ImagePath: filepath.Join(imagesDir, name),
			Text:      texts[i],
		}
	}

	return &Book{scenes: scenes}, nil
}

// readTextPages loads the markdown file and splits it into page texts.
func readTextPages(path string) ([]string, error) {
	src, err := os.ReadFile(path) // #nosec G304 -- markdown path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarkdownRead, err)
	}
	return splitPages(src), nil
}

// splitPages cuts the markdown at top-level thematic breaks. Each page
// is the raw source span of the blocks between breaks, trimmed; blank
// pages are dropped.
func splitPages(src []byte) []string {
	doc := mdParser.Parse(text.NewReader(src))

	var pages []string
	start, stop := -1, -1

	flush := func() {
		if start < 0 {
			return
		}
		if page := strings.TrimSpace(string(src[start:stop])); page != "" {
			pages = append(pages, page)
		}
		start, stop = -1, -1
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindThematicBreak {
			flush()
			continue
		}
		s, e, ok := nodeSpan(n)
		if !ok {
			continue
		}
		if start < 0 {
			start = s
		}
		if e > stop {
			stop = e
		}
	}
	flush()

	return pages
}

// nodeSpan reports the source byte range covered by a block node,
// descending into containers that carry no lines of their own.
// Inline nodes are skipped; calling Lines on them panics.
func nodeSpan(n ast.Node) (start, stop int, ok bool) {
	if lines := n.Lines(); lines.Len() > 0 {
		start = lines.At(0).Start
		stop = lines.At(lines.Len() - 1).Stop
		ok = true
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if child.Type() != ast.TypeBlock {
			continue
		}
		s, e, childOK := nodeSpan(child)
		if !childOK {
			continue
		}
		if !ok || s < start {
			start = s
		}
		if !ok || e > stop {
			stop = e
		}
		ok = true
	}

	return start, stop, ok
}

// listSceneImages returns the folder's TIFF filenames in natural order,
// so scene_2 sorts before scene_10.
func listSceneImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImagesDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".tif", ".tiff":
			names = append(names, entry.Name())
		}
	}

	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })

	return names, nil
}

// naturalLess orders strings byte-wise except that embedded digit runs
// compare numerically.
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			aRun, iNext := digitRun(a, i)
			bRun, jNext := digitRun(b, j)
			if less, equal := digitRunLess(aRun, bRun); !equal {
				return less
			}
			i, j = iNext, jNext
			continue
		}
		if a[i] != b[j] {
			return a[i] < b[j]
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// digitRun returns the digit substring starting at i and the index
// just past it.
func digitRun(s string, i int) (string, int) {
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[start:i], i
}

// digitRunLess compares digit runs numerically without overflow:
// strip leading zeros, then shorter means smaller.
func digitRunLess(a, b string) (less, equal bool) {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) < len(b), false
	}
	if a != b {
		return a < b, false
	}
	return false, true
}

// Scenes returns the ordered scenes.
func (b *Book) Scenes() []bookpress.Scene { return b.scenes }

// FrontMatter reports none; flat books carry scenes only.
func (b *Book) FrontMatter() (string, bool) { return "", false }

// ClosingMatter reports none.
func (b *Book) ClosingMatter() (string, bool) { return "", false }

// CoverImage reports none; flat folders hold numbered scenes only.
func (b *Book) CoverImage() (string, bool) { return "", false }

// BackImage reports none.
func (b *Book) BackImage() (string, bool) { return "", false }
