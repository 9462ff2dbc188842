package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFiles creates files relative to a fresh temporary directory and
// returns the directory.
func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

// bundleJSON bundles path and returns the result with its compact JSON.
func bundleJSON(t *testing.T, b *Bundler, path string) (*BundleResult, string) {
	t.Helper()
	result, err := b.Bundle(context.Background(), path)
	require.NoError(t, err)
	data, err := result.MarshalOrderedJSON()
	require.NoError(t, err)
	return result, string(data)
}
