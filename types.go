package bookpress

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// Scene is one spread of the book: a full-bleed image page paired with a
// text page. Input adapters substitute a placeholder before an empty text
// ever reaches the builder.
type Scene struct {
	ImagePath string
	Text      string
}

// Source supplies the ordered content of a book. Implementations adapt
// the input modes: a JSON manifest with images resolved by naming
// convention, or a flat image folder paired with a markdown file.
type Source interface {
	// Scenes returns the ordered scenes. Scene numbering is 1-based and
	// drives the text/image page alternation.
	Scenes() []Scene
	// FrontMatter returns the text placed on its own page before the
	// scenes, if any.
	FrontMatter() (string, bool)
	// ClosingMatter returns the text placed on its own page after the
	// scenes, if any.
	ClosingMatter() (string, bool)
	// CoverImage returns the cover image path, if any.
	CoverImage() (string, bool)
	// BackImage returns the back cover image path, if any.
	BackImage() (string, bool)
}

// Input contains build parameters for a single book.
type Input struct {
	Source   Source          // book content (required)
	Geometry GeometryOptions // trim/bleed resolution
	Output   OutputSpec      // document paths
	Font     FontOptions     // text font (zero value = built-in fallback)

	// CropMarks draws printer trim marks on every page of every document.
	CropMarks bool

	// SplitCover routes the cover image, when present, to a separate
	// single-page document instead of the first page of the main book.
	SplitCover bool

	// SplitBack is accepted for CLI symmetry. A back document is written
	// whenever the source has a back image; the back page never joins
	// the main document either way.
	SplitBack bool

	// Progress receives the machine-readable page protocol. Nil disables
	// emission.
	Progress io.Writer
}

// Validate checks that the input is buildable.
func (in Input) Validate() error {
	if in.Source == nil {
		return ErrNilSource
	}
	if err := in.Output.Validate(); err != nil {
		return err
	}
	return in.Geometry.Validate()
}

// OutputSpec names the documents a build writes. Empty cover and back
// paths derive from the main path with "-cover" and "-back" inserted
// before the extension.
type OutputSpec struct {
	Path      string // main document (required)
	CoverPath string // split cover document (optional)
	BackPath  string // back cover document (optional)
}

// Validate checks that a main output path is present.
func (o OutputSpec) Validate() error {
	if strings.TrimSpace(o.Path) == "" {
		return ErrEmptyOutput
	}
	return nil
}

func (o OutputSpec) coverPath() string {
	if o.CoverPath != "" {
		return o.CoverPath
	}
	return suffixPath(o.Path, "-cover")
}

func (o OutputSpec) backPath() string {
	if o.BackPath != "" {
		return o.BackPath
	}
	return suffixPath(o.Path, "-back")
}

// suffixPath inserts suffix between the file base and its extension.
// A path without an extension gets ".pdf" appended.
func suffixPath(path, suffix string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".pdf"
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix + ext
}

// DefaultFontPath is where the bundled book font is expected at runtime.
const DefaultFontPath = "fonts/ShantellSans-Regular.ttf"

// FontOptions selects the text font. An empty or unloadable TTF path
// falls back to the built-in Helvetica with a warning.
type FontOptions struct {
	TTFPath string
}

// Result reports what a build produced.
type Result struct {
	OutputPath string // main document
	CoverPath  string // split cover document, "" when none was written
	BackPath   string // back document, "" when none was written
	Pages      int    // committed main-document pages
}

// Option configures a Builder.
type Option func(*Builder)

// builderConfig holds internal configuration for Builder.
type builderConfig struct {
	logger       *slog.Logger
	colorWorkers int
}

// WithLogger sets the logger used for warnings and build status.
// Panics if logger is nil (programmer error).
func WithLogger(logger *slog.Logger) Option {
	if logger == nil {
		panic("bookpress: WithLogger logger must not be nil")
	}
	return func(b *Builder) {
		b.cfg.logger = logger
	}
}

// WithColorWorkers sets the size of the background color pre-extraction
// pool. Panics if n < 1 (programmer error, similar to time.NewTicker).
func WithColorWorkers(n int) Option {
	if n < 1 {
		panic("bookpress: WithColorWorkers count must be positive")
	}
	return func(b *Builder) {
		b.cfg.colorWorkers = n
	}
}
