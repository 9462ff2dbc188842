package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle/bundleerrors"
)

func TestHandleBundle_WritesOutput(t *testing.T) {
	dir := writeSchemas(t, dedicatedSchemas)
	out := filepath.Join(dir, "render-schema.json")

	err := HandleBundle(context.Background(), []string{"-q", "-o", out, filepath.Join(dir, "dedicated-schema.json")})
	require.NoError(t, err)

	assert.JSONEq(t, `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "database": {"$ref": "#/$defs/Database"},
    "replica": {"$ref": "#/$defs/Database"}
  },
  "$defs": {
    "Database": {
      "type": "object",
      "properties": {"host": {"type": "string"}, "port": {"type": "integer"}}
    }
  }
}`, readFile(t, out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestHandleBundle_Flags(t *testing.T) {
	dir := writeSchemas(t, dedicatedSchemas)
	input := filepath.Join(dir, "dedicated-schema.json")

	t.Run("yaml output with custom key", func(t *testing.T) {
		out := filepath.Join(dir, "bundle.yaml")
		require.NoError(t, HandleBundle(context.Background(), []string{
			"-q", "--format", "yaml", "--definitions-key", "definitions", "-o", out, input,
		}))

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(readFile(t, out)), &doc))
		assert.Contains(t, doc, "definitions")
		props := doc["properties"].(map[string]any)
		assert.Equal(t, map[string]any{"$ref": "#/definitions/Database"}, props["database"])
	})

	t.Run("compact dereferenced output passes compile check", func(t *testing.T) {
		out := filepath.Join(dir, "flat.json")
		require.NoError(t, HandleBundle(context.Background(), []string{
			"--quiet", "--indent", "0", "--dereference", "--compile-check", "--concurrency", "1", "-o", out, input,
		}))

		got := readFile(t, out)
		assert.NotContains(t, got, "$ref")
		assert.NotContains(t, got, "\n  ")
	})

	t.Run("base dir", func(t *testing.T) {
		out := filepath.Join(dir, "based.json")
		require.NoError(t, HandleBundle(context.Background(), []string{"-q", "--base-dir", dir, "-o", out, input}))
	})
}

func TestHandleBundle_Help(t *testing.T) {
	assert.NoError(t, HandleBundle(context.Background(), []string{"--help"}))
}

func TestHandleBundle_Errors(t *testing.T) {
	dir := writeSchemas(t, dedicatedSchemas)
	input := filepath.Join(dir, "dedicated-schema.json")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no input", []string{"-q"}, "requires exactly one input"},
		{"two inputs", []string{"-q", input, input}, "requires exactly one input"},
		{"invalid format", []string{"-q", "--format", "xml", input}, "invalid format 'xml'"},
		{"invalid indent", []string{"-q", "--indent", "12", input}, "invalid indent 12"},
		{"overwrite input", []string{"-q", "-o", input, input}, "would overwrite input file"},
		{"bad concurrency", []string{"-q", "--concurrency", "0", input}, "WithConcurrency"},
		{"unknown flag", []string{"--nope", input}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleBundle(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHandleBundle_FailureLeavesOutputUntouched(t *testing.T) {
	dir := writeSchemas(t, map[string]string{
		"root.json": `{"properties": {"a": {"$ref": "missing.json"}}}`,
		"out.json":  `{"previous": true}`,
	})
	out := filepath.Join(dir, "out.json")

	err := HandleBundle(context.Background(), []string{"-q", "-o", out, filepath.Join(dir, "root.json")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bundleerrors.ErrLoad))
	assert.Equal(t, `{"previous": true}`, readFile(t, out))
}

func TestHandleBundle_RejectsSymlinkOutput(t *testing.T) {
	dir := writeSchemas(t, dedicatedSchemas)
	target := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(target, []byte(`{}`), 0o600))
	link := filepath.Join(dir, "link.json")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	err := HandleBundle(context.Background(), []string{"-q", "-o", link, filepath.Join(dir, "dedicated-schema.json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symlink")
	assert.Equal(t, `{}`, readFile(t, target))
}
