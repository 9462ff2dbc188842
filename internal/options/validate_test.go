package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSingleInputSource(t *testing.T) {
	sources := func(location, reader, bytes bool) []Source {
		return []Source{
			{Name: "WithLocation", Set: location},
			{Name: "WithReader", Set: reader},
			{Name: "WithBytes", Set: bytes},
		}
	}

	tests := []struct {
		name    string
		sources []Source
		wantErr string
	}{
		{"one source", sources(true, false, false), ""},
		{"last source", sources(false, false, true), ""},
		{"no source", sources(false, false, false), "bundler: must specify an input source (use WithLocation, WithReader, or WithBytes)"},
		{"two sources", sources(true, false, true), "bundler: must specify exactly one input source, got WithLocation and WithBytes"},
		{"all sources", sources(true, true, true), "got WithLocation and WithReader and WithBytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSingleInputSource("bundler", tt.sources...)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJoinOr(t *testing.T) {
	assert.Equal(t, "", joinOr(nil))
	assert.Equal(t, "a", joinOr([]string{"a"}))
	assert.Equal(t, "a or b", joinOr([]string{"a", "b"}))
	assert.Equal(t, "a, b, or c", joinOr([]string{"a", "b", "c"}))
}
