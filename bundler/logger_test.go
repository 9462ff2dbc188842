package bundler

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.With("component", "test").Info("hello", "key", "value")
	logger.Debug("debug")
	logger.Warn("warn")
	logger.Error("error")

	out := buf.String()
	assert.Contains(t, out, "component=test")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}

func TestNewSlogAdapter_NilUsesDefault(t *testing.T) {
	assert.NotNil(t, NewSlogAdapter(nil))
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NopLogger{}
	logger.Debug("x")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
	assert.Equal(t, NopLogger{}, logger.With("k", "v"))
}

func TestBundle_LogsInlining(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"root.json":   `{"properties": {"a": {"$ref": "common.json#/definitions/Address"}}}`,
		"common.json": commonAddress,
	})
	var buf bytes.Buffer
	b := New()
	b.Logger = NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	bundleJSON(t, b, filepath.Join(dir, "root.json"))

	assert.Contains(t, buf.String(), "inlined reference")
	assert.Contains(t, buf.String(), "name=Address")
	assert.Contains(t, buf.String(), "bundle complete")
}
