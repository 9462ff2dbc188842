package bundler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReference(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		ref      string
		wantLoc  string
		wantFrag string
	}{
		{"sibling file", "file:///nonexistent/a/root.json", "common.json#/definitions/X", "file:///nonexistent/a/common.json", "/definitions/X"},
		{"dot segments", "file:///nonexistent/a/root.json", "./b/../common.json", "file:///nonexistent/a/common.json", ""},
		{"parent directory", "file:///nonexistent/a/root.json", "../shared/types.yaml#/Id", "file:///nonexistent/shared/types.yaml", "/Id"},
		{"local fragment", "file:///nonexistent/a/root.json", "#/definitions/X", "file:///nonexistent/a/root.json", "/definitions/X"},
		{"whole document", "file:///nonexistent/a/root.json", "#", "file:///nonexistent/a/root.json", ""},
		{"percent-encoded fragment", "file:///nonexistent/a/root.json", "#/definitions/a%20b", "file:///nonexistent/a/root.json", "/definitions/a b"},
		{"directory base", "file:///nonexistent/a/", "common.json", "file:///nonexistent/a/common.json", ""},
		{"http relative", "https://example.com/schemas/root.json", "common.json#/X", "https://example.com/schemas/common.json", "/X"},
		{"http absolute", "file:///nonexistent/root.json", "HTTP://Example.COM:80/s/./a.json", "http://example.com/s/a.json", ""},
		{"https default port", "file:///nonexistent/root.json", "https://example.com:443", "https://example.com/", ""},
		{"non-default port kept", "file:///nonexistent/root.json", "https://Example.com:8443/a.json", "https://example.com:8443/a.json", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, frag, err := resolveReference(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLoc, loc)
			assert.Equal(t, tt.wantFrag, frag)
		})
	}
}

func TestResolveReference_Malformed(t *testing.T) {
	_, _, err := resolveReference("file:///nonexistent/root.json", "http://[::1")
	assert.Error(t, err)
}

func TestInputLocation(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	file := filepath.Join(dir, "root.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	loc, err := inputLocation(file)
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(file), loc)

	loc, err = inputLocation(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(loc, "/"))

	loc, err = inputLocation("https://Example.com/a.json#/x")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.json", loc)
}

func TestInputLocation_SymlinkAliasesRoot(t *testing.T) {
	dir := writeFiles(t, map[string]string{"real.json": "{}"})
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(filepath.Join(dir, "real.json"), link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	viaLink, err := inputLocation(link)
	require.NoError(t, err)
	direct, err := inputLocation(filepath.Join(dir, "real.json"))
	require.NoError(t, err)

	assert.Equal(t, direct, viaLink)
}

func TestLocalRef(t *testing.T) {
	assert.Equal(t, "#", localRef(""))
	assert.Equal(t, "#/definitions/Address", localRef("/definitions/Address"))
	assert.Equal(t, "#/$defs/a~1b", localRef("/$defs/a~1b"))
	assert.Equal(t, "#/definitions/a%20b", localRef("/definitions/a b"))
}

func TestDisplayLocation(t *testing.T) {
	assert.Equal(t, filepath.FromSlash("/tmp/root.json"), displayLocation("file:///tmp/root.json"))
	assert.Equal(t, "https://example.com/a.json", displayLocation("https://example.com/a.json"))
	assert.Equal(t, "https://example.com/a.json#/X", sourceName("https://example.com/a.json", "/X"))
}
