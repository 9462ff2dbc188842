package pathutil

import (
	"strconv"
	"strings"
)

// PathBuilder provides efficient incremental JSON Pointer construction.
// Uses push/pop semantics to avoid allocations during traversal.
// The full string is only materialized when String() is called.
type PathBuilder struct {
	segments []string
	length   int // Pre-calculated length for String() allocation
}

// Push adds an unescaped reference token to the pointer.
func (p *PathBuilder) Push(token string) {
	seg := Escape(token)
	p.segments = append(p.segments, seg)
	p.length += len(seg) + 1 // leading slash
}

// PushIndex adds an array index token: "/0", "/1", etc.
func (p *PathBuilder) PushIndex(i int) {
	seg := strconv.Itoa(i)
	p.segments = append(p.segments, seg)
	p.length += len(seg) + 1
}

// Pop removes the last token.
func (p *PathBuilder) Pop() {
	if len(p.segments) == 0 {
		return
	}
	last := p.segments[len(p.segments)-1]
	p.segments = p.segments[:len(p.segments)-1]
	p.length -= len(last) + 1
}

// Reset clears the builder for reuse.
func (p *PathBuilder) Reset() {
	p.segments = p.segments[:0]
	p.length = 0
}

// Depth returns the number of tokens currently in the pointer.
func (p *PathBuilder) Depth() int {
	return len(p.segments)
}

// String materializes the full pointer. The document root is "".
func (p *PathBuilder) String() string {
	if len(p.segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(p.length)
	for _, seg := range p.segments {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}
