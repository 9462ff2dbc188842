package pathutil

import (
	"fmt"
	"testing"
)

func BenchmarkPathBuilder_DeepPath(b *testing.B) {
	b.Run("PathBuilder", func(b *testing.B) {
		for b.Loop() {
			p := Get()
			p.Push("definitions")
			p.Push("Address")
			p.Push("properties")
			p.Push("lines")
			p.Push("items")
			p.Push("properties")
			p.Push("name")
			_ = p.String()
			Put(p)
		}
	})

	b.Run("FmtSprintf", func(b *testing.B) {
		for b.Loop() {
			path := ""
			for _, seg := range []string{"definitions", "Address", "properties", "lines", "items", "properties", "name"} {
				path = fmt.Sprintf("%s/%s", path, seg)
			}
			_ = path
		}
	})
}

func BenchmarkPathBuilder_NoStringCall(b *testing.B) {
	for b.Loop() {
		p := Get()
		for j := 0; j < 8; j++ {
			p.Push("segment")
		}
		for j := 0; j < 8; j++ {
			p.Pop()
		}
		Put(p)
	}
}

func BenchmarkJoin(b *testing.B) {
	b.Run("Join", func(b *testing.B) {
		for b.Loop() {
			_ = Join("$defs", "MySchema")
		}
	})

	b.Run("FmtSprintf", func(b *testing.B) {
		for b.Loop() {
			_ = fmt.Sprintf("/%s/%s", "$defs", "MySchema")
		}
	})
}
