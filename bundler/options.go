package bundler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flavors-dev/schemabundle"
	"github.com/flavors-dev/schemabundle/bundleerrors"
	"github.com/flavors-dev/schemabundle/internal/options"
)

// Option is a function that configures a bundle operation
type Option func(*bundleConfig) error

// bundleConfig holds configuration for a bundle operation
type bundleConfig struct {
	// Input source (exactly one must be set)
	location *string
	reader   io.Reader
	bytes    []byte

	baseLocation       string
	definitionsKey     string
	baseDir            string
	resolveHTTPRefs    bool
	insecureSkipVerify bool
	httpClient         *http.Client
	userAgent          string
	logger             Logger
	concurrency        int

	// Resource limits (0 means use default)
	maxRefDepth        int
	maxCachedDocuments int
	maxFileSize        int64
}

// BundleWithOptions bundles a JSON Schema document using functional options.
//
// Example:
//
//	result, err := bundler.BundleWithOptions(ctx,
//	    bundler.WithLocation("schemas/dedicated-schema.json"),
//	    bundler.WithBaseDir("schemas"),
//	)
func BundleWithOptions(ctx context.Context, opts ...Option) (*BundleResult, error) {
	cfg, err := applyOptions(opts...)
	if err != nil {
		return nil, fmt.Errorf("bundler: invalid options: %w", err)
	}

	b := &Bundler{
		DefinitionsKey:     cfg.definitionsKey,
		BaseDir:            cfg.baseDir,
		ResolveHTTPRefs:    cfg.resolveHTTPRefs,
		InsecureSkipVerify: cfg.insecureSkipVerify,
		HTTPClient:         cfg.httpClient,
		UserAgent:          cfg.userAgent,
		Concurrency:        cfg.concurrency,
		Logger:             cfg.logger,
		MaxRefDepth:        cfg.maxRefDepth,
		MaxCachedDocuments: cfg.maxCachedDocuments,
		MaxFileSize:        cfg.maxFileSize,
	}

	switch {
	case cfg.location != nil:
		return b.Bundle(ctx, *cfg.location)
	case cfg.reader != nil:
		return b.BundleReader(ctx, cfg.reader, cfg.baseLocation)
	default:
		return b.BundleBytes(ctx, cfg.bytes, cfg.baseLocation)
	}
}

// applyOptions applies option functions and validates configuration
func applyOptions(opts ...Option) (*bundleConfig, error) {
	cfg := &bundleConfig{
		concurrency: DefaultConcurrency,
		userAgent:   schemabundle.UserAgent(),
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if err := options.ValidateSingleInputSource("bundler",
		options.Source{Name: "WithLocation", Set: cfg.location != nil},
		options.Source{Name: "WithReader", Set: cfg.reader != nil},
		options.Source{Name: "WithBytes", Set: cfg.bytes != nil},
	); err != nil {
		return nil, &bundleerrors.ConfigError{Option: "input source", Cause: err}
	}
	if cfg.location != nil && cfg.baseLocation != "" {
		return nil, &bundleerrors.ConfigError{
			Option:  "WithBaseLocation",
			Value:   cfg.baseLocation,
			Message: "only applies to WithReader and WithBytes inputs",
		}
	}

	return cfg, nil
}

// WithLocation specifies a file path or URL as the input source
func WithLocation(location string) Option {
	return func(cfg *bundleConfig) error {
		if location == "" {
			return &bundleerrors.ConfigError{Option: "WithLocation", Message: "location cannot be empty"}
		}
		cfg.location = &location
		return nil
	}
}

// WithReader specifies an io.Reader as the input source
func WithReader(r io.Reader) Option {
	return func(cfg *bundleConfig) error {
		if r == nil {
			return &bundleerrors.ConfigError{Option: "WithReader", Message: "reader cannot be nil"}
		}
		cfg.reader = r
		return nil
	}
}

// WithBytes specifies a byte slice as the input source
func WithBytes(data []byte) Option {
	return func(cfg *bundleConfig) error {
		if data == nil {
			return &bundleerrors.ConfigError{Option: "WithBytes", Message: "bytes cannot be nil"}
		}
		cfg.bytes = data
		return nil
	}
}

// WithBaseLocation sets the path or URL that relative references in a
// reader or byte input resolve against.
// Default: the current working directory
func WithBaseLocation(location string) Option {
	return func(cfg *bundleConfig) error {
		cfg.baseLocation = location
		return nil
	}
}

// WithDefinitionsKey sets the root member that receives inlined targets.
// Default: chosen from the root document (see Bundler.DefinitionsKey)
func WithDefinitionsKey(key string) Option {
	return func(cfg *bundleConfig) error {
		if key == "" {
			return &bundleerrors.ConfigError{Option: "WithDefinitionsKey", Message: "key cannot be empty"}
		}
		cfg.definitionsKey = key
		return nil
	}
}

// WithBaseDir restricts file references to dir and its subdirectories.
func WithBaseDir(dir string) Option {
	return func(cfg *bundleConfig) error {
		cfg.baseDir = dir
		return nil
	}
}

// WithResolveHTTPRefs enables resolution of http:// and https:// references.
// Default: false
func WithResolveHTTPRefs(enabled bool) Option {
	return func(cfg *bundleConfig) error {
		cfg.resolveHTTPRefs = enabled
		return nil
	}
}

// WithInsecureSkipVerify disables TLS certificate verification for HTTP documents.
// Default: false
func WithInsecureSkipVerify(enabled bool) Option {
	return func(cfg *bundleConfig) error {
		cfg.insecureSkipVerify = enabled
		return nil
	}
}

// WithHTTPClient sets the client used for remote documents.
// A nil client leaves the default in place.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *bundleConfig) error {
		if client != nil {
			cfg.httpClient = client
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent string for HTTP requests
// Default: "schemabundle/vX.Y.Z"
func WithUserAgent(ua string) Option {
	return func(cfg *bundleConfig) error {
		cfg.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger Logger) Option {
	return func(cfg *bundleConfig) error {
		cfg.logger = logger
		return nil
	}
}

// WithConcurrency sets how many external documents are prefetched in
// parallel. 1 disables prefetching.
// Default: 4
func WithConcurrency(n int) Option {
	return func(cfg *bundleConfig) error {
		if n < 1 {
			return &bundleerrors.ConfigError{Option: "WithConcurrency", Value: n, Message: "must be at least 1"}
		}
		cfg.concurrency = n
		return nil
	}
}

// WithMaxRefDepth sets the maximum nesting of inlined targets.
// Default: 100
func WithMaxRefDepth(depth int) Option {
	return func(cfg *bundleConfig) error {
		if depth < 0 {
			return &bundleerrors.ConfigError{Option: "WithMaxRefDepth", Value: depth, Message: "cannot be negative"}
		}
		cfg.maxRefDepth = depth
		return nil
	}
}

// WithMaxCachedDocuments sets the maximum number of external documents.
// Default: 100
func WithMaxCachedDocuments(count int) Option {
	return func(cfg *bundleConfig) error {
		if count < 0 {
			return &bundleerrors.ConfigError{Option: "WithMaxCachedDocuments", Value: count, Message: "cannot be negative"}
		}
		cfg.maxCachedDocuments = count
		return nil
	}
}

// WithMaxFileSize sets the maximum size in bytes of any document.
// Default: 10MB
func WithMaxFileSize(size int64) Option {
	return func(cfg *bundleConfig) error {
		if size < 0 {
			return &bundleerrors.ConfigError{Option: "WithMaxFileSize", Value: size, Message: "cannot be negative"}
		}
		cfg.maxFileSize = size
		return nil
	}
}
