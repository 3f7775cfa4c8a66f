package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/inkmill/bookpress"
	"github.com/inkmill/bookpress/internal/config"
	"github.com/inkmill/bookpress/internal/flatbook"
	"github.com/inkmill/bookpress/internal/hints"
	"github.com/inkmill/bookpress/internal/manifest"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultDeps())
	stop()
	os.Exit(code)
}

// runMain dispatches subcommands and maps errors to exit codes.
func runMain(ctx context.Context, args []string, deps *Dependencies) int {
	if len(args) < 2 {
		printUsage(deps.Stderr)
		return ExitUsage
	}

	warnUnknownEnvVars(deps.Stderr, deps.Environ())

	switch args[1] {
	case "build":
		flags, positional, err := parseBuildFlags(args[2:])
		if err != nil {
			return flagExitCode(err)
		}
		return reportError(deps.Stderr, flags.common.config, runBuild(ctx, positional, flags, deps))

	case "preview":
		flags, positional, err := parsePreviewFlags(args[2:])
		if err != nil {
			return flagExitCode(err)
		}
		return reportError(deps.Stderr, flags.common.config, runPreview(ctx, positional, flags, deps))

	case "doctor":
		return runDoctorCmd(args[2:], deps)

	case "version":
		fmt.Fprintf(deps.Stdout, "bookpress %s\n", Version)
		return ExitSuccess

	case "help":
		runHelp(args[2:], deps)
		return ExitSuccess

	default:
		fmt.Fprintf(deps.Stderr, "Unknown command: %s\n\n", args[1])
		printUsage(deps.Stderr)
		return ExitUsage
	}
}

// flagExitCode maps pflag parse results; --help is not an error.
func flagExitCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	return ExitUsage
}

// reportError prints a command error with an actionable hint and
// converts it to an exit code.
func reportError(w io.Writer, configName string, err error) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(w, "Error: %v%s\n", err, hintFor(err, configName))
	return exitCodeFor(err)
}

// hintFor picks a hint for the failure classes users can act on.
func hintFor(err error, configName string) string {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return hints.ForPdftoppmMissing()
	case errors.Is(err, config.ErrConfigNotFound):
		if configName == "" {
			configName = "bookpress"
		}
		return hints.ForConfigNotFound(config.SearchPaths(configName))
	case errors.Is(err, manifest.ErrManifestSyntax), errors.Is(err, manifest.ErrManifestSchema):
		return hints.ForManifest()
	case errors.Is(err, manifest.ErrSceneImage), errors.Is(err, flatbook.ErrNoImages):
		return hints.ForNoSceneImages()
	case errors.Is(err, bookpress.ErrDocumentWrite):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}

// newLogger builds the CLI logger on stderr. Quiet shows errors only,
// verbose shows debug detail.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
