// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"runtime"
	"strings"
)

// ForPdftoppmMissing returns installation hints for the poppler raster
// backend used by the preview command, tuned to the host platform.
func ForPdftoppmMissing() string {
	switch runtime.GOOS {
	case "darwin":
		return format("install poppler (brew install poppler) or pass --pdftoppm /path/to/pdftoppm")
	case "windows":
		return format("install poppler for Windows and pass --pdftoppm with the full path")
	default:
		return format("install poppler-utils (apt-get install poppler-utils) or pass --pdftoppm /path/to/pdftoppm")
	}
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/bookpress") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForFontNotFound returns hints for a missing book font file.
func ForFontNotFound(path string) string {
	return format("place the TTF at " + path + " or pass --font; built-in Helvetica lacks Cyrillic glyphs")
}

// ForNoSceneImages returns hints for an image folder with nothing usable.
func ForNoSceneImages() string {
	return format("JSON mode expects scene_<n>.(jpg|png|tif), flat mode expects *.tif/*.tiff")
}

// ForManifest returns hints for manifest validation failures.
func ForManifest() string {
	return format("book.json needs shortDescription, motivationEnd, and a scenes array")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
