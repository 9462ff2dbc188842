package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flavors-dev/schemabundle/bundler"
)

// specInput represents the three ways a schema can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to a JSON Schema file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch a JSON Schema document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline JSON Schema document content (JSON or YAML). Relative $refs resolve against the server base directory."`
}

// validate checks that exactly one source is set and that inline content is
// within the configured limit.
func (s specInput) validate(c *serverConfig) error {
	count := 0
	if s.File != "" {
		count++
	}
	if s.URL != "" {
		count++
	}
	if s.Content != "" {
		count++
	}
	if count != 1 {
		return fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}

	if s.Content != "" && int64(len(s.Content)) > c.MaxInlineSize {
		return fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set %s_MAX_INLINE_SIZE to increase",
			len(s.Content), c.MaxInlineSize, envPrefix)
	}
	return nil
}

// bundlerOptions translates the input and server configuration into bundler
// options. Remote documents are always fetched with the SSRF-safe client
// unless private addresses are explicitly allowed.
func (s specInput) bundlerOptions(c *serverConfig) []bundler.Option {
	opts := []bundler.Option{
		bundler.WithResolveHTTPRefs(c.ResolveHTTPRefs),
		bundler.WithConcurrency(c.Concurrency),
		bundler.WithMaxRefDepth(c.MaxRefDepth),
		bundler.WithMaxCachedDocuments(c.MaxCachedDocuments),
		bundler.WithMaxFileSize(c.MaxFileSize),
		bundler.WithLogger(bundler.NewSlogAdapter(slog.Default())),
	}
	if c.BaseDir != "" {
		opts = append(opts, bundler.WithBaseDir(c.BaseDir))
	}
	if !c.AllowPrivateIPs {
		opts = append(opts, bundler.WithHTTPClient(newSafeHTTPClient(c.HTTPTimeout)))
	}

	switch {
	case s.File != "":
		opts = append(opts, bundler.WithLocation(s.File))
	case s.URL != "":
		opts = append(opts, bundler.WithLocation(s.URL))
	default:
		opts = append(opts, bundler.WithBytes([]byte(s.Content)))
		if c.BaseDir != "" {
			opts = append(opts, bundler.WithBaseLocation(c.BaseDir))
		}
	}
	return opts
}

// bundle runs the bundler on the input.
func (s specInput) bundle(ctx context.Context, c *serverConfig, extra ...bundler.Option) (*bundler.BundleResult, error) {
	if err := s.validate(c); err != nil {
		return nil, err
	}
	opts := append(s.bundlerOptions(c), extra...)
	return bundler.BundleWithOptions(ctx, opts...)
}
