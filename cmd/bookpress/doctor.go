package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/fileutil"
	"github.com/inkmill/bookpress/internal/fonts"
	"github.com/inkmill/bookpress/internal/hints"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string       `json:"status"` // "ready", "warnings", "errors"
	Renderer rendererInfo `json:"renderer"`
	Font     fontInfo     `json:"font"`
	Config   configInfo   `json:"config"`
	System   systemInfo   `json:"system"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

// rendererInfo holds pdftoppm detection results.
type rendererInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// fontInfo holds book font detection results.
type fontInfo struct {
	Found    bool     `json:"found"`
	Path     string   `json:"path,omitempty"`
	Searched []string `json:"searched,omitempty"`
}

// configInfo holds config file detection results.
type configInfo struct {
	Found    bool     `json:"found"`
	Path     string   `json:"path,omitempty"`
	Searched []string `json:"searched,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	TempWritable bool   `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, deps *Dependencies) int {
	jsonOutput := false
	for _, arg := range args {
		if arg == "--json" {
			jsonOutput = true
		}
	}

	result := runDoctor(deps)

	if jsonOutput {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(deps.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(deps *Dependencies) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		System: systemInfo{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}

	checkRenderer(result, deps)
	checkFont(result)
	checkConfig(result)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkRenderer detects the poppler pdftoppm binary used by preview.
// Building needs no external tools, so a missing renderer only warns.
func checkRenderer(result *doctorResult, deps *Dependencies) {
	binary := deps.Getenv("BOOKPRESS_PDFTOPPM")
	if binary == "" {
		binary = "pdftoppm"
	}

	path, err := deps.LookPath(binary)
	if err != nil {
		result.Warnings = append(result.Warnings,
			"pdftoppm not found; the preview command is unavailable."+hints.ForPdftoppmMissing())
		return
	}

	result.Renderer.Found = true
	result.Renderer.Path = path

	// pdftoppm prints its version banner on stderr
	if out, _ := exec.Command(path, "-v").CombinedOutput(); len(out) > 0 { // #nosec G204 -- resolved via LookPath
		line, _, _ := strings.Cut(string(out), "\n")
		result.Renderer.Version = strings.TrimSpace(line)
	}
}

// checkFont looks for the bundled book font. Text still renders with
// the built-in fallback face, so absence is a warning.
func checkFont(result *doctorResult) {
	result.Font.Searched = fonts.SearchPaths()

	path, found := fonts.Resolve()
	if !found {
		result.Warnings = append(result.Warnings,
			"book font not found; text pages fall back to Helvetica."+hints.ForFontNotFound(path))
		return
	}

	result.Font.Found = true
	result.Font.Path = path
}

// checkConfig reports whether a default-named config file exists.
// Config files are optional; this is informational only.
func checkConfig(result *doctorResult) {
	result.Config.Searched = config.SearchPaths("bookpress")

	for _, p := range result.Config.Searched {
		if fileutil.FileExists(p) {
			result.Config.Found = true
			result.Config.Path = p
			return
		}
	}
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	// Preview renders each page into a temp directory first
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "bookpress-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "bookpress doctor")
	fmt.Fprintln(w)

	// Renderer section
	fmt.Fprintln(w, "Preview renderer (pdftoppm)")
	if r.Renderer.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Renderer.Path)
		if r.Renderer.Version != "" {
			fmt.Fprintf(w, "  [OK] %s\n", r.Renderer.Version)
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	// Font section
	fmt.Fprintln(w, "Book font")
	if r.Font.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Font.Path)
	} else {
		fmt.Fprintln(w, "  [WARN] Not found (Helvetica fallback)")
		for _, p := range r.Font.Searched {
			fmt.Fprintf(w, "         searched %s\n", p)
		}
	}
	fmt.Fprintln(w)

	// Config section
	fmt.Fprintln(w, "Config")
	if r.Config.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Config.Path)
	} else {
		fmt.Fprintln(w, "  [OK] None (defaults apply)")
	}
	fmt.Fprintln(w)

	// System section
	fmt.Fprintln(w, "System")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.System.OS, r.System.Arch)
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
