package bundler

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flavors-dev/schemabundle/bundleerrors"
)

func TestBundleWithOptions_InputSources(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"root.json":   `{"properties": {"a": {"$ref": "common.json#/definitions/Address"}}}`,
		"common.json": commonAddress,
	})
	rootPath := filepath.Join(dir, "root.json")
	rootData := []byte(`{"properties": {"a": {"$ref": "common.json#/definitions/Address"}}}`)

	tests := []struct {
		name string
		opts []Option
	}{
		{"location", []Option{WithLocation(rootPath)}},
		{"bytes", []Option{WithBytes(rootData), WithBaseLocation(dir)}},
		{"reader", []Option{WithReader(bytes.NewReader(rootData)), WithBaseLocation(dir)}},
		{"bytes with file base", []Option{WithBytes(rootData), WithBaseLocation(rootPath)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := BundleWithOptions(context.Background(), tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, []string{"#/definitions/Address"}, result.References())
		})
	}
}

func TestBundleWithOptions_Configuration(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schemas/root.json":   `{"properties": {"a": {"$ref": "common.json#/definitions/Address"}}}`,
		"schemas/common.json": commonAddress,
	})

	result, err := BundleWithOptions(context.Background(),
		WithLocation(filepath.Join(dir, "schemas", "root.json")),
		WithDefinitionsKey("$defs"),
		WithBaseDir(filepath.Join(dir, "schemas")),
		WithConcurrency(2),
		WithMaxRefDepth(5),
		WithMaxCachedDocuments(5),
		WithMaxFileSize(1024),
		WithUserAgent("test"),
		WithHTTPClient(nil),
		WithResolveHTTPRefs(false),
		WithInsecureSkipVerify(false),
		WithLogger(NopLogger{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "$defs", result.DefinitionsKey)
	assert.Equal(t, []string{"#/$defs/Address"}, result.References())
}

func TestBundleWithOptions_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		contains string
	}{
		{"no input", nil, "must specify an input source"},
		{"two inputs", []Option{WithLocation("a.json"), WithBytes([]byte("{}"))}, "exactly one input source"},
		{"empty location", []Option{WithLocation("")}, "location cannot be empty"},
		{"nil reader", []Option{WithReader(nil)}, "reader cannot be nil"},
		{"nil bytes", []Option{WithBytes(nil)}, "bytes cannot be nil"},
		{"empty definitions key", []Option{WithLocation("a.json"), WithDefinitionsKey("")}, "key cannot be empty"},
		{"zero concurrency", []Option{WithLocation("a.json"), WithConcurrency(0)}, "must be at least 1"},
		{"negative depth", []Option{WithLocation("a.json"), WithMaxRefDepth(-1)}, "cannot be negative"},
		{"negative documents", []Option{WithLocation("a.json"), WithMaxCachedDocuments(-1)}, "cannot be negative"},
		{"negative size", []Option{WithLocation("a.json"), WithMaxFileSize(-1)}, "cannot be negative"},
		{"base location with location", []Option{WithLocation("a.json"), WithBaseLocation("dir")}, "only applies to WithReader and WithBytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := BundleWithOptions(context.Background(), tt.opts...)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, bundleerrors.ErrConfig)
			assert.Contains(t, err.Error(), tt.contains)
			assert.True(t, strings.HasPrefix(err.Error(), "bundler: invalid options"))
		})
	}
}

func TestBundleReader_SizeLimit(t *testing.T) {
	b := New()
	b.MaxFileSize = 8

	_, err := b.BundleReader(context.Background(), strings.NewReader(`{"type": "string"}`), "")

	assert.ErrorIs(t, err, bundleerrors.ErrResourceLimit)
}
