package bookpress

// Notes:
// - Input: validation of source, output, and geometry
// - OutputSpec: companion path derivation from the main path
// - Options: panic behavior on programmer errors

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestInput_Validate - Input Validation
// ---------------------------------------------------------------------------

func TestInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{
			name: "valid input",
			input: Input{
				Source: fakeSource{scenes: []Scene{{ImagePath: "a.png", Text: "x"}}},
				Output: OutputSpec{Path: "book.pdf"},
			},
			wantErr: nil,
		},
		{
			name:    "nil source",
			input:   Input{Output: OutputSpec{Path: "book.pdf"}},
			wantErr: ErrNilSource,
		},
		{
			name:    "empty output path",
			input:   Input{Source: fakeSource{}},
			wantErr: ErrEmptyOutput,
		},
		{
			name: "whitespace output path",
			input: Input{
				Source: fakeSource{},
				Output: OutputSpec{Path: "   "},
			},
			wantErr: ErrEmptyOutput,
		},
		{
			name: "invalid geometry",
			input: Input{
				Source:   fakeSource{},
				Output:   OutputSpec{Path: "book.pdf"},
				Geometry: GeometryOptions{BleedCM: -1},
			},
			wantErr: ErrInvalidBleed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.input.Validate()

			if tt.wantErr != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestOutputSpec - Companion Path Derivation
// ---------------------------------------------------------------------------

func TestOutputSpec_CompanionPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		spec      OutputSpec
		wantCover string
		wantBack  string
	}{
		{
			name:      "derived from the main path",
			spec:      OutputSpec{Path: "out/book.pdf"},
			wantCover: "out/book-cover.pdf",
			wantBack:  "out/book-back.pdf",
		},
		{
			name:      "missing extension defaults to pdf",
			spec:      OutputSpec{Path: "book"},
			wantCover: "book-cover.pdf",
			wantBack:  "book-back.pdf",
		},
		{
			name: "explicit paths win",
			spec: OutputSpec{
				Path:      "book.pdf",
				CoverPath: "front.pdf",
				BackPath:  "rear.pdf",
			},
			wantCover: "front.pdf",
			wantBack:  "rear.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.spec.coverPath(); got != tt.wantCover {
				t.Errorf("coverPath() = %q, want %q", got, tt.wantCover)
			}
			if got := tt.spec.backPath(); got != tt.wantBack {
				t.Errorf("backPath() = %q, want %q", got, tt.wantBack)
			}
		})
	}
}

func TestSuffixPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		suffix string
		want   string
	}{
		{path: "book.pdf", suffix: "-cover", want: "book-cover.pdf"},
		{path: "dir/book.pdf", suffix: "-back", want: "dir/book-back.pdf"},
		{path: "book", suffix: "-cover", want: "book-cover.pdf"},
		{path: "a.b/book", suffix: "-x", want: "a.b/book-x.pdf"},
	}

	for _, tt := range tests {
		if got := suffixPath(tt.path, tt.suffix); got != tt.want {
			t.Errorf("suffixPath(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestOptions - Panic Behavior
// ---------------------------------------------------------------------------

func TestWithLoggerPanicsOnNil(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for nil logger")
		}
	}()
	WithLogger(nil)
}

func TestWithColorWorkersPanicsOnZero(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for zero workers")
		}
	}()
	WithColorWorkers(0)
}
