package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error returns empty string",
			err:  nil,
			want: "",
		},
		{
			name: "strips absolute path",
			err:  fmt.Errorf("failed to open /home/user/secret/schema.json: no such file"),
			want: "failed to open <path>: no such file",
		},
		{
			name: "strips file URL path",
			err:  fmt.Errorf("bundler: load error at file:///tmp/x/common.json: not found"),
			want: "bundler: load error at file://<path>: not found",
		},
		{
			name: "preserves non-path content",
			err:  fmt.Errorf("invalid JSON at line 5"),
			want: "invalid JSON at line 5",
		},
		{
			name: "strips multiple paths",
			err:  fmt.Errorf("ref /tmp/a.json from /tmp/b.json failed"),
			want: "ref <path> from <path> failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// startTestSession creates an in-process MCP server/client pair and returns
// the connected client session. The server is shut down when the test ends.
func startTestSession(t *testing.T, c *serverConfig) *mcp.ClientSession {
	t.Helper()

	server := newServer(c)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(
		&mcp.Implementation{Name: "test-client", Version: "test"},
		nil,
	)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})

	return session
}

func unmarshalStructured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if result.StructuredContent != nil {
		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(data, &m))
		return m
	}

	require.NotEmpty(t, result.Content, "expected at least one content item")
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &m), "failed to parse text content as JSON")
	return m
}

func TestIntegration_ListTools(t *testing.T) {
	session := startTestSession(t, testConfig(t.TempDir()))

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)

	assert.Equal(t, "bundle", result.Tools[0].Name)
	assert.NotEmpty(t, result.Tools[0].Description)
}

func TestIntegration_CallTool_Bundle(t *testing.T) {
	dir := t.TempDir()
	writeSchemas(t, dir)
	session := startTestSession(t, testConfig(dir))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "bundle",
		Arguments: map[string]any{
			"spec": map[string]any{
				"file": filepath.Join(dir, "root.json"),
			},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "bundle should succeed")

	structured := unmarshalStructured(t, result)
	assert.Equal(t, "json", structured["source_format"])
	assert.Equal(t, "definitions", structured["definitions_key"])
	stats, ok := structured["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), stats["inlined_definitions"])
	assert.Contains(t, structured["document"], `"$ref": "#/definitions/Address"`)
}

func TestIntegration_CallTool_BundleError(t *testing.T) {
	session := startTestSession(t, testConfig(t.TempDir()))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "bundle",
		Arguments: map[string]any{
			"spec": map[string]any{},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
