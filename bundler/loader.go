package bundler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.yaml.in/yaml/v4"
	"golang.org/x/sync/singleflight"

	"github.com/flavors-dev/schemabundle/bundleerrors"
	"github.com/flavors-dev/schemabundle/internal/httputil"
	"github.com/flavors-dev/schemabundle/internal/nodeutil"
)

// maxAliasNodes bounds how many nodes YAML alias expansion may create per document.
const maxAliasNodes = 1_000_000

// document is a parsed source document.
type document struct {
	location string
	node     *yaml.Node
	format   SourceFormat
}

type cacheEntry struct {
	doc *document
	err error
}

// loader reads and parses documents for a single bundle call. Loads of the
// same location are collapsed, and both documents and load failures are
// cached until the call returns.
type loader struct {
	bundler      *Bundler
	rootLocation string
	log          Logger
	client       *http.Client
	baseDir      string
	maxFileSize  int64

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func newLoader(b *Bundler, rootLocation string, log Logger) *loader {
	l := &loader{
		bundler:      b,
		rootLocation: rootLocation,
		log:          log,
		client:       newHTTPClient(b),
		maxFileSize:  b.maxFileSize(),
		entries:      make(map[string]*cacheEntry),
	}
	if b.BaseDir != "" {
		l.baseDir = resolveBaseDir(b.BaseDir)
	}
	return l
}

func resolveBaseDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// seed registers an already parsed document, used for in-memory roots.
func (l *loader) seed(doc *document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[doc.location] = &cacheEntry{doc: doc}
}

// size returns the number of cached locations, including failed ones.
func (l *loader) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *loader) cached(location string) (*cacheEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[location]
	return e, ok
}

// load returns the document at location, reading it at most once per call.
// It is safe for concurrent use. Failures caused by context cancellation are
// not cached.
func (l *loader) load(ctx context.Context, location string) (*document, error) {
	if e, ok := l.cached(location); ok {
		return e.doc, e.err
	}
	v, err, _ := l.group.Do(location, func() (any, error) {
		if e, ok := l.cached(location); ok {
			return e.doc, e.err
		}
		doc, err := l.read(ctx, location)
		if err != nil && ctx.Err() != nil {
			return nil, err
		}
		l.mu.Lock()
		l.entries[location] = &cacheEntry{doc: doc, err: err}
		l.mu.Unlock()
		return doc, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*document), nil
}

func (l *loader) read(ctx context.Context, location string) (*document, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch locationScheme(location) {
	case "file":
		data, err = l.readFile(location)
	case "http", "https":
		data, contentType, err = l.fetch(ctx, location)
	default:
		err = &bundleerrors.LoadError{
			Location: location,
			Message:  fmt.Sprintf("unsupported location scheme %q", locationScheme(location)),
		}
	}
	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(data, location, detectFormat(data, location, contentType))
	if err != nil {
		return nil, err
	}
	l.log.Debug("loaded document", "location", displayLocation(location), "bytes", len(data), "format", doc.format)
	return doc, nil
}

func (l *loader) readFile(location string) ([]byte, error) {
	path, _ := filePath(location)
	if location != l.rootLocation {
		if err := l.checkBaseDir(path); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &bundleerrors.LoadError{Location: path, Message: "failed to read file", Cause: err}
	}
	if info.IsDir() {
		return nil, &bundleerrors.LoadError{Location: path, Message: "location is a directory"}
	}
	if info.Size() > l.maxFileSize {
		return nil, &bundleerrors.ResourceLimitError{
			ResourceType: "file_size",
			Limit:        l.maxFileSize,
			Actual:       info.Size(),
			Message:      fmt.Sprintf("file %s exceeds maximum size", path),
		}
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is confined to BaseDir when one is configured
	if err != nil {
		return nil, &bundleerrors.LoadError{Location: path, Message: "failed to read file", Cause: err}
	}
	return data, nil
}

// checkBaseDir rejects paths that escape the configured base directory.
func (l *loader) checkBaseDir(path string) error {
	if l.baseDir == "" {
		return nil
	}
	rel, err := filepath.Rel(l.baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return &bundleerrors.ReferenceError{
			RefType:         "file",
			IsPathTraversal: true,
			Message:         fmt.Sprintf("%s is outside base directory %s", path, l.baseDir),
		}
	}
	return nil
}

// parseDocument parses JSON or YAML into a node tree with aliases expanded.
// JSON goes through the JSON decoder first; when that fails the data is tried
// as YAML, which covers YAML flow mappings and YAML files with a .json name.
// A mapping that repeats a key is rejected in either format.
func parseDocument(data []byte, location string, format SourceFormat) (*document, error) {
	content, err := parseNode(data, format)
	if err != nil {
		return nil, &bundleerrors.LoadError{
			Location: displayLocation(location),
			Message:  "failed to parse document",
			Cause:    err,
		}
	}
	if content == nil {
		return nil, &bundleerrors.LoadError{Location: displayLocation(location), Message: "document is empty"}
	}
	if err := nodeutil.CheckDuplicateKeys(content); err != nil {
		return nil, &bundleerrors.LoadError{Location: displayLocation(location), Message: "duplicate mapping key", Cause: err}
	}
	if err := nodeutil.ExpandAliases(content, maxAliasNodes); err != nil {
		return nil, &bundleerrors.LoadError{Location: displayLocation(location), Message: "failed to expand aliases", Cause: err}
	}
	return &document{location: location, node: content, format: format}, nil
}

func parseNode(data []byte, format SourceFormat) (*yaml.Node, error) {
	var jsonErr error
	if format == SourceFormatJSON {
		node, err := nodeutil.DecodeJSON(data)
		if err == nil {
			return node, nil
		}
		jsonErr = err
	}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		if jsonErr != nil {
			return nil, jsonErr
		}
		return nil, err
	}
	return nodeutil.Content(&root), nil
}

// detectFormat determines the format from the location and Content-Type,
// falling back to sniffing the first significant byte.
func detectFormat(data []byte, location, contentType string) SourceFormat {
	var format string
	switch locationScheme(location) {
	case "file":
		path, _ := filePath(location)
		format = httputil.FormatFromPath(path)
	case "http", "https":
		format = httputil.FormatFromURL(location, contentType)
	}
	switch format {
	case httputil.FormatJSON:
		return SourceFormatJSON
	case httputil.FormatYAML:
		return SourceFormatYAML
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return SourceFormatUnknown
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return SourceFormatJSON
	}
	return SourceFormatYAML
}
