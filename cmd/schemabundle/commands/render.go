package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/flavors-dev/schemabundle/bundler"
	"github.com/flavors-dev/schemabundle/internal/cliutil"
	"github.com/flavors-dev/schemabundle/render"
)

// RenderFlags contains flags for the render command
type RenderFlags struct {
	Output          string
	Format          string
	Indent          int
	BaseDir         string
	ResolveHTTPRefs bool
	Flavors         string
	Quiet           bool
	Debug           bool
}

// SetupRenderFlags creates and configures a FlagSet for the render command.
func SetupRenderFlags() (*flag.FlagSet, *RenderFlags) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	flags := &RenderFlags{}

	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Format, "format", FormatJSON, "output format: json or yaml")
	fs.IntVar(&flags.Indent, "indent", 2, "JSON indentation width, 0 for compact output")
	fs.StringVar(&flags.BaseDir, "base-dir", "", "restrict file references to this directory")
	fs.BoolVar(&flags.ResolveHTTPRefs, "resolve-http-refs", false, "follow http(s) references")
	fs.StringVar(&flags.Flavors, "flavors", "", "JSON or YAML file mapping item property names to enum values")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: suppress diagnostic messages (for pipelining)")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: suppress diagnostic messages (for pipelining)")
	fs.BoolVar(&flags.Debug, "debug", false, "write debug logs to stderr")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: schemabundle render [flags] <file|url|->\n\n")
		cliutil.Writef(fs.Output(), "Produce a fully resolved schema for form renderers: bundle, expand every\n")
		cliutil.Writef(fs.Output(), "$ref in place, collapse properties.X.properties.X nesting and mark every\n")
		cliutil.Writef(fs.Output(), "top-level property as required. With --flavors, item properties of\n")
		cliutil.Writef(fs.Output(), "array-of-object properties named in the flavors file get an enum.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  schemabundle render -o resolved_schema.json common.json\n")
		cliutil.Writef(fs.Output(), "  schemabundle render -o schemas/render1-schema.json schemas/dedicated-schema.json\n")
		cliutil.Writef(fs.Output(), "  schemabundle render --flavors flavors.json -o render.json menu/schema.json\n")
	}

	return fs, flags
}

// HandleRender executes the render command
func HandleRender(ctx context.Context, args []string) error {
	fs, flags := SetupRenderFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("render command requires exactly one input file, URL or '-'")
	}
	input := fs.Arg(0)

	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	indent, err := ValidateIndent(flags.Indent)
	if err != nil {
		return err
	}

	var flavors map[string][]any
	if flags.Flavors != "" {
		if flavors, err = readFlavors(flags.Flavors); err != nil {
			return err
		}
	}

	status := cliutil.NewStatus(os.Stderr)
	output := flags.Output
	if output != "" {
		inputs := []string{input}
		if flags.Flavors != "" {
			inputs = append(inputs, flags.Flavors)
		}
		if output, err = ValidateOutputPath(output, inputs, status); err != nil {
			return err
		}
	}

	result, err := bundler.BundleWithOptions(ctx,
		InputOption(input),
		bundler.WithBaseDir(flags.BaseDir),
		bundler.WithResolveHTTPRefs(flags.ResolveHTTPRefs),
		bundler.WithLogger(NewLogger(flags.Debug, os.Stderr)),
	)
	if err != nil {
		if !flags.Quiet {
			status.Failuref("Rendering %s failed", FormatSpecPath(input))
		}
		return err
	}

	report, err := render.Apply(result, flavors)
	if err != nil {
		return err
	}

	data, err := result.MarshalFormat(bundler.SourceFormat(flags.Format), indent)
	if err != nil {
		return fmt.Errorf("marshaling rendered document: %w", err)
	}
	if err := WriteOutput(output, data); err != nil {
		return err
	}

	if !flags.Quiet {
		status.Infof("Schema: %s", FormatSpecPath(input))
		status.Infof("Documents: %d", result.Stats.DocumentsLoaded)
		if len(report.Collapsed) > 0 {
			status.Infof("Collapsed: %s", strings.Join(report.Collapsed, ", "))
		}
		status.Infof("Required: %d properties", len(report.Required))
		if len(report.Enums) > 0 {
			status.Infof("Enums: %s", strings.Join(report.Enums, ", "))
		}
		for _, warning := range result.Warnings {
			status.Warnf("%s", warning)
		}
		status.Successf("Schema rendered successfully to %s", FormatOutputPath(flags.Output))
	}
	return nil
}

func readFlavors(path string) (map[string][]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("reading flavors file: %w", err)
	}
	flavors, err := render.ParseFlavors(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flavors, nil
}
