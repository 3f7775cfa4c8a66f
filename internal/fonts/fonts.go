// Package fonts locates the bundled book font on disk. The builder
// falls back to a built-in face when no TTF is found, so resolution
// never fails; it only reports where it looked.
package fonts

import (
	"os"
	"path/filepath"

	"github.com/inkmill/bookpress"
	"github.com/inkmill/bookpress/internal/fileutil"
)

// SearchPaths returns the candidate locations for the bundled book
// font, in resolution order: the working directory first, then the
// user config directory, then the executable's directory. Used for
// resolution, doctor output, and not-found hints.
func SearchPaths() []string {
	paths := []string{bookpress.DefaultFontPath}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(userConfigDir, "bookpress", bookpress.DefaultFontPath))
	}

	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), bookpress.DefaultFontPath))
	}

	return paths
}

// Resolve returns the first existing candidate. When none exists,
// found is false and path names the canonical location so warnings
// and hints can point somewhere concrete.
func Resolve() (path string, found bool) {
	for _, p := range SearchPaths() {
		if fileutil.FileExists(p) {
			return p, true
		}
	}
	return bookpress.DefaultFontPath, false
}
