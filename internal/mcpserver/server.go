// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes schemabundle capabilities as MCP tools over stdio.
package mcpserver

import (
	"context"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flavors-dev/schemabundle"
)

const serverInstructions = `schemabundle MCP server: bundles JSON Schema documents split across files or URLs into one self-contained document.

Configuration: All defaults are configurable via SCHEMABUNDLE_* environment variables set in your MCP client config. The Go MCP SDK does not support initializationOptions; use env vars instead.

Key settings:
- SCHEMABUNDLE_BASE_DIR: restrict file $refs to this directory; inline content resolves relative $refs against it
- SCHEMABUNDLE_RESOLVE_HTTP_REFS (default: true): follow http(s) $refs
- SCHEMABUNDLE_ALLOW_PRIVATE_IPS (default: false): allow fetching from private/loopback addresses
- SCHEMABUNDLE_MAX_INLINE_SIZE (default: 10MiB): maximum size of inline content
- SCHEMABUNDLE_MAX_REF_DEPTH (default: 100), SCHEMABUNDLE_MAX_CACHED_DOCUMENTS (default: 100), SCHEMABUNDLE_MAX_FILE_SIZE (default: 10MiB): bundler resource limits`

// Run loads the configuration, then starts the MCP server over stdio and
// blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	return newServer(c).Run(ctx, &mcp.StdioTransport{})
}

func newServer(c *serverConfig) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "schemabundle", Version: schemabundle.Version()},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)
	registerAllTools(server, &tools{cfg: c})
	return server
}

// tools carries the configuration shared by the tool handlers.
type tools struct {
	cfg *serverConfig
}

func registerAllTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "bundle",
		Description: "Bundle a JSON Schema document: every external $ref (other files or URLs) is inlined once under a definitions key ($defs or definitions) and rewritten as a local pointer, so the result is self-contained. Set dereference=true to expand every local $ref in place (cycles stay as pointers), and render=true to additionally collapse redundant property nesting and mark all top-level properties required. Use output to write to a file instead of returning the document inline.",
	}, t.handleBundle)
}

// sanitizeError strips absolute filesystem paths from error messages
// to prevent leaking internal directory structure to MCP clients.
var pathPattern = regexp.MustCompile(`(?:/(?:home|tmp|var|Users|etc|opt|usr|private|root|mnt|srv|run|snap|nix)[a-zA-Z0-9._/-]*)`)

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return pathPattern.ReplaceAllString(err.Error(), "<path>")
}

// errResult creates an MCP error result from an error.
func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: sanitizeError(err)}},
	}
}
