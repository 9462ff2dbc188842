package bundler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle"
	"github.com/flavors-dev/schemabundle/bundleerrors"
	"github.com/flavors-dev/schemabundle/internal/nodeutil"
)

// Default resource limits, used when the corresponding field is zero.
const (
	// DefaultConcurrency is the number of documents prefetched in parallel.
	DefaultConcurrency = 4
	// DefaultMaxRefDepth bounds how deeply inlined targets may nest.
	DefaultMaxRefDepth = 100
	// DefaultMaxCachedDocuments bounds the number of external documents per call.
	DefaultMaxCachedDocuments = 100
	// DefaultMaxFileSize bounds the size of every loaded document (10MB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
)

// SourceFormat represents the format of the root document
type SourceFormat string

const (
	// SourceFormatJSON indicates a JSON document
	SourceFormatJSON SourceFormat = "json"
	// SourceFormatYAML indicates a YAML document
	SourceFormatYAML SourceFormat = "yaml"
	// SourceFormatUnknown indicates the format could not be determined
	SourceFormatUnknown SourceFormat = "unknown"
)

// Bundler resolves external references of a JSON Schema document and inlines
// their targets under a definitions container of the root document.
//
// A Bundler holds configuration only. Each call builds its own document
// cache and inlining table and discards them on return, so one Bundler may
// be used from several goroutines.
type Bundler struct {
	// DefinitionsKey names the root member that receives inlined targets.
	// When empty it is chosen from the root document: an existing "$defs" or
	// "definitions" mapping, else "$defs" for draft 2019-09 and 2020-12
	// schemas, else "definitions".
	DefinitionsKey string
	// BaseDir restricts file references to a directory tree.
	// Empty means no restriction.
	BaseDir string
	// ResolveHTTPRefs allows http:// and https:// references.
	// This is disabled by default for security (SSRF protection).
	ResolveHTTPRefs bool
	// InsecureSkipVerify disables TLS certificate verification for HTTP documents
	InsecureSkipVerify bool
	// HTTPClient is used for remote documents. If nil, a client with a
	// 30-second timeout is created. When set, InsecureSkipVerify is ignored.
	HTTPClient *http.Client
	// UserAgent is sent with HTTP requests. Defaults to "schemabundle/<version>".
	UserAgent string
	// Concurrency is the number of external documents prefetched in
	// parallel. 1 disables prefetching. Default: 4
	Concurrency int
	// Logger receives debug output. If nil, logging is disabled.
	Logger Logger

	// Resource limits (0 means use default)

	// MaxRefDepth is the maximum nesting of inlined targets. Default: 100
	MaxRefDepth int
	// MaxCachedDocuments is the maximum number of external documents. Default: 100
	MaxCachedDocuments int
	// MaxFileSize is the maximum size in bytes of any document. Default: 10MB
	MaxFileSize int64
}

// New creates a Bundler with default settings.
func New() *Bundler {
	return &Bundler{
		Concurrency: DefaultConcurrency,
		UserAgent:   schemabundle.UserAgent(),
	}
}

// InlinedDefinition records one external target copied into the bundle.
type InlinedDefinition struct {
	// Name is the member name under the definitions key
	Name string
	// Source is the original target, "location#pointer"
	Source string
	// Ref is the local reference that now points at the copy
	Ref string
}

// BundleStats contains counters collected while bundling.
type BundleStats struct {
	// LocalRefs counts references that resolved inside the root document
	LocalRefs int
	// ExternalRefs counts references that pointed outside the root document
	ExternalRefs int
	// InlinedDefinitions counts targets copied under the definitions key
	InlinedDefinitions int
	// DocumentsLoaded counts distinct documents the bundle drew from, including the root
	DocumentsLoaded int
	// CircularRefs counts references that point back into a target being processed
	CircularRefs int
}

// BundleResult contains a bundled document and information about how it was built.
type BundleResult struct {
	// Document is the bundled root value (usually a mapping node).
	// Key order of the source documents is preserved.
	Document *yaml.Node
	// SourcePath is the root document's path or URL
	SourcePath string
	// SourceFormat is the format of the root document
	SourceFormat SourceFormat
	// DefinitionsKey is the root member holding inlined targets
	DefinitionsKey string
	// Definitions lists the inlined targets in the order they were added
	Definitions []InlinedDefinition
	// Stats contains bundle counters
	Stats BundleStats
	// Warnings contains non-fatal issues
	Warnings []string
	// LoadTime is the time taken to bundle
	LoadTime time.Duration

	// createdDefinitions is true when the definitions key did not exist in the root
	createdDefinitions bool
}

// Bundle loads the document at location (a file path or URL) and bundles it.
// No partial result is returned on error.
func (b *Bundler) Bundle(ctx context.Context, location string) (*BundleResult, error) {
	rootLoc, err := inputLocation(location)
	if err != nil {
		return nil, &bundleerrors.LoadError{Location: location, Message: "invalid location", Cause: err}
	}
	return b.run(ctx, rootLoc, nil)
}

// BundleBytes bundles an in-memory document. baseLocation is the path or URL
// that relative references resolve against; when empty, the current working
// directory is used.
func (b *Bundler) BundleBytes(ctx context.Context, data []byte, baseLocation string) (*BundleResult, error) {
	if baseLocation == "" {
		baseLocation = "."
	}
	rootLoc, err := inputLocation(baseLocation)
	if err != nil {
		return nil, &bundleerrors.ConfigError{Option: "base location", Value: baseLocation, Cause: err}
	}
	format := detectFormat(data, rootLoc, "")
	doc, err := parseDocument(data, rootLoc, format)
	if err != nil {
		return nil, err
	}
	return b.run(ctx, rootLoc, doc)
}

// BundleReader reads a document from r and bundles it like BundleBytes.
func (b *Bundler) BundleReader(ctx context.Context, r io.Reader, baseLocation string) (*BundleResult, error) {
	limit := b.maxFileSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &bundleerrors.LoadError{Location: "reader", Message: "failed to read input", Cause: err}
	}
	if int64(len(data)) > limit {
		return nil, &bundleerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        limit,
			Message:      "input exceeds maximum size",
		}
	}
	return b.BundleBytes(ctx, bytes.Clone(data), baseLocation)
}

func (b *Bundler) run(ctx context.Context, rootLoc string, root *document) (*BundleResult, error) {
	start := time.Now()
	log := b.log().With("root", displayLocation(rootLoc))

	var warnings []string
	if b.HTTPClient != nil && b.InsecureSkipVerify {
		msg := "InsecureSkipVerify ignored when HTTPClient is provided; configure TLS on the client's transport"
		log.Warn(msg)
		warnings = append(warnings, msg)
	}

	ld := newLoader(b, rootLoc, log)
	if root == nil {
		var err error
		if root, err = ld.load(ctx, rootLoc); err != nil {
			return nil, err
		}
	} else {
		ld.seed(root)
	}

	if concurrency := b.concurrency(); concurrency > 1 {
		ld.prefetch(ctx, root, concurrency)
	}

	s := newBundleState(ctx, b, ld, root, log)
	if err := s.walk(root.node, root.location, 0); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("bundler: %w", err)
	}

	warnings = append(warnings, s.warnings...)
	s.stats.DocumentsLoaded = len(s.used) + 1
	s.stats.InlinedDefinitions = len(s.definitions)
	log.Debug("bundle complete",
		"externalRefs", s.stats.ExternalRefs,
		"inlined", s.stats.InlinedDefinitions,
		"documents", s.stats.DocumentsLoaded)

	return &BundleResult{
		Document:           root.node,
		SourcePath:         displayLocation(rootLoc),
		SourceFormat:       root.format,
		DefinitionsKey:     s.defsKey,
		Definitions:        s.definitions,
		Stats:              s.stats,
		Warnings:           warnings,
		LoadTime:           time.Since(start),
		createdDefinitions: s.createdDefs,
	}, nil
}

// log returns the configured logger, or a no-op logger if none is set.
func (b *Bundler) log() Logger {
	if b.Logger == nil {
		return NopLogger{}
	}
	return b.Logger
}

func (b *Bundler) concurrency() int {
	if b.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return b.Concurrency
}

func (b *Bundler) maxRefDepth() int {
	if b.MaxRefDepth <= 0 {
		return DefaultMaxRefDepth
	}
	return b.MaxRefDepth
}

func (b *Bundler) maxCachedDocuments() int {
	if b.MaxCachedDocuments <= 0 {
		return DefaultMaxCachedDocuments
	}
	return b.MaxCachedDocuments
}

func (b *Bundler) maxFileSize() int64 {
	if b.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return b.MaxFileSize
}

// References returns every $ref value in the bundled document in document order.
func (r *BundleResult) References() []string {
	var refs []string
	var visit func(n *yaml.Node)
	visit = func(n *yaml.Node) {
		if v, ok := nodeutil.Ref(n); ok {
			refs = append(refs, v.Value)
		}
		for _, child := range n.Content {
			visit(child)
		}
	}
	if r.Document != nil {
		visit(r.Document)
	}
	return refs
}

// Data decodes the bundled document into generic Go values
// (map[string]any, []any and scalars). Key order is not preserved.
func (r *BundleResult) Data() (any, error) {
	var out any
	if r.Document == nil {
		return nil, nil
	}
	if err := r.Document.Decode(&out); err != nil {
		return nil, fmt.Errorf("bundler: failed to decode document: %w", err)
	}
	return out, nil
}
