package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("creates new file", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "out.json")

		require.NoError(t, WriteFileAtomic(target, []byte(`{"a":1}`), ReadableByAll))

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(data))

		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, ReadableByAll, info.Mode().Perm())
	})

	t.Run("replaces existing file", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "out.json")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0o600))

		require.NoError(t, WriteFileAtomic(target, []byte("new"), ReadableByAll))

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, ReadableByAll, info.Mode().Perm())
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, WriteFileAtomic(filepath.Join(dir, "out.json"), []byte("x"), ReadableByAll))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "out.json", entries[0].Name())
	})

	t.Run("missing directory fails", func(t *testing.T) {
		err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "out.json"), []byte("x"), ReadableByAll)
		require.Error(t, err)
	})
}
