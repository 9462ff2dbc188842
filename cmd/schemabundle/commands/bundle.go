package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/flavors-dev/schemabundle/bundler"
	"github.com/flavors-dev/schemabundle/internal/cliutil"
)

// BundleFlags contains flags for the bundle command
type BundleFlags struct {
	Output          string
	Format          string
	Indent          int
	DefinitionsKey  string
	BaseDir         string
	ResolveHTTPRefs bool
	Insecure        bool
	Concurrency     int
	MaxRefDepth     int
	Dereference     bool
	CompileCheck    bool
	Quiet           bool
	Debug           bool
}

// SetupBundleFlags creates and configures a FlagSet for the bundle command.
// Returns the FlagSet and a BundleFlags struct with bound flag variables.
func SetupBundleFlags() (*flag.FlagSet, *BundleFlags) {
	fs := flag.NewFlagSet("bundle", flag.ContinueOnError)
	flags := &BundleFlags{}

	fs.StringVar(&flags.Output, "o", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Output, "output", "", "output file path (default: stdout)")
	fs.StringVar(&flags.Format, "format", "", "output format: json or yaml (default: input format)")
	fs.IntVar(&flags.Indent, "indent", 2, "JSON indentation width, 0 for compact output")
	fs.StringVar(&flags.DefinitionsKey, "definitions-key", "", "root member receiving inlined definitions (default: $defs or definitions by $schema)")
	fs.StringVar(&flags.BaseDir, "base-dir", "", "restrict file references to this directory")
	fs.BoolVar(&flags.ResolveHTTPRefs, "resolve-http-refs", false, "follow http(s) references")
	fs.BoolVar(&flags.Insecure, "insecure", false, "skip TLS certificate verification for http(s) references")
	fs.IntVar(&flags.Concurrency, "concurrency", bundler.DefaultConcurrency, "number of documents prefetched in parallel (1 disables prefetch)")
	fs.IntVar(&flags.MaxRefDepth, "max-ref-depth", bundler.DefaultMaxRefDepth, "maximum nesting depth of inlined references")
	fs.BoolVar(&flags.Dereference, "dereference", false, "expand local references in place after bundling")
	fs.BoolVar(&flags.CompileCheck, "compile-check", false, "compile the result offline to prove it is self-contained")
	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: suppress diagnostic messages (for pipelining)")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: suppress diagnostic messages (for pipelining)")
	fs.BoolVar(&flags.Debug, "debug", false, "write debug logs to stderr")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: schemabundle bundle [flags] <file|url|->\n\n")
		cliutil.Writef(fs.Output(), "Inline every external $ref of a JSON Schema document into one self-contained document.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  schemabundle bundle -o schemas/render-schema.json schemas/dedicated-schema.json\n")
		cliutil.Writef(fs.Output(), "  schemabundle bundle --format yaml --base-dir schemas schemas/root.yaml\n")
		cliutil.Writef(fs.Output(), "  schemabundle bundle --resolve-http-refs https://example.com/schemas/root.json\n")
		cliutil.Writef(fs.Output(), "  cat root.json | schemabundle bundle -q - > bundled.json\n")
		cliutil.Writef(fs.Output(), "\nNotes:\n")
		cliutil.Writef(fs.Output(), "  - Relative references in stdin input resolve against the current directory\n")
		cliutil.Writef(fs.Output(), "  - Output files are replaced atomically; a failed run leaves them untouched\n")
	}

	return fs, flags
}

// HandleBundle executes the bundle command
func HandleBundle(ctx context.Context, args []string) error {
	fs, flags := SetupBundleFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("bundle command requires exactly one input file, URL or '-'")
	}
	input := fs.Arg(0)

	if err := ValidateOutputFormat(flags.Format); err != nil {
		return err
	}
	indent, err := ValidateIndent(flags.Indent)
	if err != nil {
		return err
	}

	status := cliutil.NewStatus(os.Stderr)
	output := flags.Output
	if output != "" {
		if output, err = ValidateOutputPath(output, []string{input}, status); err != nil {
			return err
		}
	}

	opts := []bundler.Option{
		InputOption(input),
		bundler.WithBaseDir(flags.BaseDir),
		bundler.WithResolveHTTPRefs(flags.ResolveHTTPRefs),
		bundler.WithInsecureSkipVerify(flags.Insecure),
		bundler.WithConcurrency(flags.Concurrency),
		bundler.WithMaxRefDepth(flags.MaxRefDepth),
		bundler.WithLogger(NewLogger(flags.Debug, os.Stderr)),
	}
	if flags.DefinitionsKey != "" {
		opts = append(opts, bundler.WithDefinitionsKey(flags.DefinitionsKey))
	}

	result, err := bundler.BundleWithOptions(ctx, opts...)
	if err != nil {
		if !flags.Quiet {
			status.Failuref("Bundling %s failed", FormatSpecPath(input))
		}
		return err
	}

	if flags.Dereference {
		if err := bundler.Dereference(result); err != nil {
			return fmt.Errorf("dereferencing bundle: %w", err)
		}
	}
	if flags.CompileCheck {
		if err := bundler.CompileCheck(result); err != nil {
			return err
		}
	}

	data, err := result.MarshalFormat(bundler.SourceFormat(flags.Format), indent)
	if err != nil {
		return fmt.Errorf("marshaling bundled document: %w", err)
	}
	if err := WriteOutput(output, data); err != nil {
		return err
	}

	if !flags.Quiet {
		OutputBundleSummary(status, input, result)
		status.Successf("Schema bundled successfully to %s", FormatOutputPath(flags.Output))
	}
	return nil
}
