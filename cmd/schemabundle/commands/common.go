// Package commands provides CLI command handlers for schemabundle.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/flavors-dev/schemabundle/bundler"
	"github.com/flavors-dev/schemabundle/internal/cliutil"
	"github.com/flavors-dev/schemabundle/internal/fileutil"
	"github.com/flavors-dev/schemabundle/internal/pathutil"
)

// Output format constants
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat validates an output format. An empty format keeps the
// format of the input document.
func ValidateOutputFormat(format string) error {
	if format != "" && format != FormatJSON && format != FormatYAML {
		return fmt.Errorf("invalid format '%s'. Valid formats: %s, %s", format, FormatJSON, FormatYAML)
	}
	return nil
}

// ValidateIndent checks an --indent value and returns the indent string.
// Zero selects compact JSON.
func ValidateIndent(n int) (string, error) {
	if n < 0 || n > 8 {
		return "", fmt.Errorf("invalid indent %d: must be between 0 and 8", n)
	}
	return strings.Repeat(" ", n), nil
}

// ValidateOutputPath checks that the output path is safe to write to and
// returns its cleaned absolute form. The output must not be one of the input
// files and must not be a symlink.
func ValidateOutputPath(outputPath string, inputPaths []string, status *cliutil.Status) (string, error) {
	absOutputPath, err := pathutil.SanitizeOutputPath(outputPath)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}

	for _, inputPath := range inputPaths {
		if inputPath == StdinFilePath || isURL(inputPath) {
			continue
		}
		absInputPath, err := filepath.Abs(inputPath)
		if err != nil {
			return "", fmt.Errorf("invalid input path %s: %w", inputPath, err)
		}
		if absOutputPath == absInputPath {
			return "", fmt.Errorf("output file %s would overwrite input file %s", outputPath, inputPath)
		}
	}

	if _, err := os.Stat(absOutputPath); err == nil && status != nil {
		status.Warnf("output file %s already exists and will be overwritten", outputPath)
	}

	return absOutputPath, nil
}

// WriteOutput writes data atomically to path, or to stdout when path is empty.
func WriteOutput(path string, data []byte) error {
	if path == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}
	if err := fileutil.WriteFileAtomic(path, data, fileutil.ReadableByAll); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// FormatSpecPath returns a display-friendly path for the input.
// Returns "<stdin>" if the path is StdinFilePath, otherwise returns the path as-is.
func FormatSpecPath(specPath string) string {
	if specPath == StdinFilePath {
		return "<stdin>"
	}
	return specPath
}

// FormatOutputPath returns a display-friendly name for an output destination.
func FormatOutputPath(path string) string {
	if path == "" {
		return "<stdout>"
	}
	return path
}

// NewLogger returns a bundler logger writing debug-level text records to w
// when debug is set, and a logger that discards everything otherwise.
func NewLogger(debug bool, w io.Writer) bundler.Logger {
	if !debug {
		return bundler.NopLogger{}
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	return bundler.NewSlogAdapter(slog.New(handler))
}

// InputOption returns the bundler option that reads input: a path, a URL,
// or stdin when input is StdinFilePath.
func InputOption(input string) bundler.Option {
	if input == StdinFilePath {
		return bundler.WithReader(os.Stdin)
	}
	return bundler.WithLocation(input)
}

// OutputBundleSummary writes the bundle statistics and warnings to status.
func OutputBundleSummary(status *cliutil.Status, input string, result *bundler.BundleResult) {
	status.Infof("Schema: %s", FormatSpecPath(input))
	status.Infof("Format: %s", result.SourceFormat)
	status.Infof("Documents: %d", result.Stats.DocumentsLoaded)
	status.Infof("References: %d local, %d external", result.Stats.LocalRefs, result.Stats.ExternalRefs)
	if result.Stats.InlinedDefinitions > 0 {
		status.Infof("Inlined: %d under %s", result.Stats.InlinedDefinitions, result.DefinitionsKey)
	}
	if result.Stats.CircularRefs > 0 {
		status.Infof("Circular references: %d", result.Stats.CircularRefs)
	}
	status.Infof("Load Time: %v", result.LoadTime)
	for _, warning := range result.Warnings {
		status.Warnf("%s", warning)
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
