// Package manifest adapts JSON book manifests into build sources.
//
// A manifest carries the book's texts; its images live beside it (or in
// an explicit images directory) and are resolved by naming convention:
// cover.<ext>, back.<ext>, and scene_<n>.<ext> with 1-based scene
// numbers. Cover and back lookups prefer print masters (TIFF first),
// scene lookups prefer proofs (JPEG first).
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/inkmill/bookpress"
	"github.com/inkmill/bookpress/internal/fileutil"
)

// Sentinel errors for manifest operations.
var (
	ErrManifestRead   = errors.New("manifest: cannot read file")
	ErrManifestSyntax = errors.New("manifest: invalid JSON")
	ErrManifestSchema = errors.New("manifest: schema violation")
	ErrSceneImage     = errors.New("manifest: missing scene image")
)

// placeholderText stands in for scenes whose text is empty after
// trimming, so every text page has something to draw.
const placeholderText = "[Empty scene text]"

var (
	coverExtensions = []string{"tiff", "tif", "jpg", "jpeg", "png"}
	sceneExtensions = []string{"jpg", "jpeg", "png", "tif", "tiff"}
)

// bookSchema gates the fields every manifest must carry. Violations
// name the offending field in the error message.
var bookSchema = jsonschema.MustCompileString("book.json", `{
	"type": "object",
	"required": ["shortDescription", "motivationEnd", "scenes"],
	"properties": {
		"shortDescription": {"type": "string"},
		"motivationEnd": {"type": "string"},
		"scenes": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`)

// document mirrors the manifest JSON. Unknown fields are tolerated.
type document struct {
	ShortDescription string      `json:"shortDescription"`
	MotivationEnd    string      `json:"motivationEnd"`
	Scenes           []sceneText `json:"scenes"`
}

type sceneText struct {
	SourceText string `json:"sourceText_bg"`
}

// Book is a validated manifest with its images resolved on disk.
type Book struct {
	description string
	motivation  string
	scenes      []bookpress.Scene
	cover       string
	back        string
}

var _ bookpress.Source = (*Book)(nil)

// Load reads, validates, and resolves a manifest. An empty imagesDir
// defaults to the manifest's own directory.
func Load(manifestPath, imagesDir string) (*Book, error) {
	data, err := os.ReadFile(manifestPath) // #nosec G304 -- manifest path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestRead, err)
	}
	if imagesDir == "" {
		imagesDir = filepath.Dir(manifestPath)
	}
	return parse(data, imagesDir)
}

// parse validates the manifest bytes and resolves every image path.
// A zero-scene manifest is valid and yields a matter-only book.
func parse(data []byte, imagesDir string) (*Book, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestSyntax, err)
	}
	if err := bookSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestSchema, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestSyntax, err)
	}

	book := &Book{
		description: doc.ShortDescription,
		motivation:  doc.MotivationEnd,
		cover:       findImage(imagesDir, "cover", coverExtensions),
		back:        findImage(imagesDir, "back", coverExtensions),
	}

	book.scenes = make([]bookpress.Scene, 0, len(doc.Scenes))
	for i, s := range doc.Scenes {
		name := fmt.Sprintf("scene_%d", i+1)
		imagePath := findImage(imagesDir, name, sceneExtensions)
		if imagePath == "" {
			return nil, fmt.Errorf("%w: %s in %s", ErrSceneImage, name, imagesDir)
		}

		text := strings.TrimSpace(s.SourceText)
		if text == "" {
			text = placeholderText
		}

		book.scenes = append(book.scenes, bookpress.Scene{
			ImagePath: imagePath,
			Text:      text,
		})
	}

	return book, nil
}

// findImage returns the first existing <dir>/<base>.<ext> following the
// extension preference order, or "" when none exists.
func findImage(dir, base string, extensions []string) string {
	for _, ext := range extensions {
		candidate := filepath.Join(dir, base+"."+ext)
		if fileutil.FileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// Scenes returns the ordered scenes with images resolved.
func (b *Book) Scenes() []bookpress.Scene { return b.scenes }

// FrontMatter returns the short description. JSON books always carry a
// description page, even when the text is empty.
func (b *Book) FrontMatter() (string, bool) { return b.description, true }

// ClosingMatter returns the motivation text. Always present, as with
// the description.
func (b *Book) ClosingMatter() (string, bool) { return b.motivation, true }

// CoverImage returns the resolved cover image, if one exists on disk.
func (b *Book) CoverImage() (string, bool) { return b.cover, b.cover != "" }

// BackImage returns the resolved back cover image, if one exists on disk.
func (b *Book) BackImage() (string, bool) { return b.back, b.back != "" }
