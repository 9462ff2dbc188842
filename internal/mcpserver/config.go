package mcpserver

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix of every environment variable read by the server,
// e.g. SCHEMABUNDLE_MAX_INLINE_SIZE.
const envPrefix = "SCHEMABUNDLE"

// serverConfig holds all configurable MCP server defaults.
type serverConfig struct {
	// Input limits.
	MaxInlineSize int64 `envconfig:"MAX_INLINE_SIZE" default:"10485760"`

	// Remote access.
	AllowPrivateIPs bool          `envconfig:"ALLOW_PRIVATE_IPS" default:"false"`
	ResolveHTTPRefs bool          `envconfig:"RESOLVE_HTTP_REFS" default:"true"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// Bundler limits.
	BaseDir            string `envconfig:"BASE_DIR"`
	Concurrency        int    `envconfig:"CONCURRENCY" default:"4"`
	MaxRefDepth        int    `envconfig:"MAX_REF_DEPTH" default:"100"`
	MaxCachedDocuments int    `envconfig:"MAX_CACHED_DOCUMENTS" default:"100"`
	MaxFileSize        int64  `envconfig:"MAX_FILE_SIZE" default:"10485760"`
}

// loadConfig reads configuration from SCHEMABUNDLE_* environment variables.
func loadConfig() (*serverConfig, error) {
	var c serverConfig
	if err := envconfig.Process(envPrefix, &c); err != nil {
		return nil, fmt.Errorf("mcpserver: failed to process environment variables: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *serverConfig) validate() error {
	switch {
	case c.MaxInlineSize <= 0:
		return fmt.Errorf("mcpserver: %s_MAX_INLINE_SIZE must be positive, got %d", envPrefix, c.MaxInlineSize)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("mcpserver: %s_HTTP_TIMEOUT must be positive, got %s", envPrefix, c.HTTPTimeout)
	case c.Concurrency < 1:
		return fmt.Errorf("mcpserver: %s_CONCURRENCY must be at least 1, got %d", envPrefix, c.Concurrency)
	case c.MaxRefDepth < 0, c.MaxCachedDocuments < 0, c.MaxFileSize < 0:
		return fmt.Errorf("mcpserver: bundler limits must not be negative")
	}
	return nil
}
