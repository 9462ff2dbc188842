package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeSchemas writes the named files into a new temp dir and returns it.
func writeSchemas(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

var dedicatedSchemas = map[string]string{
	"dedicated-schema.json": `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "database": {"$ref": "common.json#/$defs/database"},
    "replica": {"$ref": "common.json#/$defs/database"}
  }
}`,
	"common.json": `{
  "$defs": {
    "database": {
      "type": "object",
      "properties": {"host": {"type": "string"}, "port": {"type": "integer"}}
    }
  }
}`,
}
