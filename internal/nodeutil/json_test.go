package nodeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v4"
)

func TestDecodeJSON_MatchesYAMLParser(t *testing.T) {
	src := `{
  "type": "object",
  "properties": {"n": {"minimum": 1, "maximum": 2.5, "default": null}},
  "required": ["n"],
  "additionalProperties": false
}`
	got, err := DecodeJSON([]byte(src))
	require.NoError(t, err)
	want := parse(t, src)

	var compare func(t *testing.T, want, got *yaml.Node)
	compare = func(t *testing.T, want, got *yaml.Node) {
		t.Helper()
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.ShortTag(), got.ShortTag(), "value %q", want.Value)
		assert.Equal(t, want.Value, got.Value)
		assert.Equal(t, want.Line, got.Line, "line of %q", want.Value)
		require.Len(t, got.Content, len(want.Content))
		for i := range want.Content {
			compare(t, want.Content[i], got.Content[i])
		}
	}
	compare(t, want, got)
}

func TestDecodeJSON_SurrogatePairs(t *testing.T) {
	node, err := DecodeJSON([]byte(`{"title": "\ud83d\ude00 \u00e9"}`))
	require.NoError(t, err)
	assert.Equal(t, "\U0001F600 \u00e9", Get(node, "title").Value)
}

func TestDecodeJSON_Empty(t *testing.T) {
	node, err := DecodeJSON([]byte("\ufeff \n"))
	require.NoError(t, err)
	assert.Nil(t, node)
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains string
	}{
		{"syntax", "{\n  \"a\": [}\n", "line 2"},
		{"truncated", `{"a": `, "unexpected EOF"},
		{"trailing data", `{} {}`, "unexpected data after top-level value"},
		{"yaml flow mapping", `{a: 1}`, "json:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCheckDuplicateKeys(t *testing.T) {
	tests := []struct {
		name string
		src  string
		key  string
		line int
	}{
		{"unique keys", `{"a": 1, "b": {"a": 2}}`, "", 0},
		{"top level", `{"a": 1, "a": 2}`, "a", 1},
		{"nested", "{\"x\": [\n  {\"k\": 1,\n   \"k\": 2}\n]}", "k", 3},
		{"yaml block", "a: 1\nb: 2\na: 3\n", "a", 3},
		{"alias reuse", "base: &b {x: 1}\nother: *b\n", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDuplicateKeys(parse(t, tt.src))
			if tt.key == "" {
				assert.NoError(t, err)
				return
			}
			var dup *DuplicateKeyError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.key, dup.Key)
			assert.Equal(t, tt.line, dup.Line)
		})
	}
}
