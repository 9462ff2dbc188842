package pathutil

import "testing"

func TestPathBuilder_Basic(t *testing.T) {
	p := &PathBuilder{}
	p.Push("properties")
	p.Push("name")

	got := p.String()
	want := "/properties/name"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPathBuilder_WithIndex(t *testing.T) {
	p := &PathBuilder{}
	p.Push("allOf")
	p.PushIndex(0)
	p.Push("properties")

	got := p.String()
	want := "/allOf/0/properties"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPathBuilder_EscapesTokens(t *testing.T) {
	p := &PathBuilder{}
	p.Push("paths")
	p.Push("/pets/{id}")
	p.Push("a~b")

	got := p.String()
	want := "/paths/~1pets~1{id}/a~0b"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPathBuilder_PushPop(t *testing.T) {
	p := &PathBuilder{}
	p.Push("a")
	p.Push("b")
	p.Pop()
	p.Push("c")

	got := p.String()
	want := "/a/c"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if p.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", p.Depth())
	}
}

func TestPathBuilder_Empty(t *testing.T) {
	p := &PathBuilder{}
	got := p.String()
	if got != "" {
		t.Errorf("String() on empty = %q, want empty", got)
	}
}

func TestPathBuilder_PopEmpty(t *testing.T) {
	p := &PathBuilder{}
	p.Pop() // Should not panic
	got := p.String()
	if got != "" {
		t.Errorf("String() after Pop on empty = %q, want empty", got)
	}
}

func TestPathBuilder_Reset(t *testing.T) {
	p := &PathBuilder{}
	p.Push("a")
	p.Push("b")
	p.Reset()

	got := p.String()
	if got != "" {
		t.Errorf("String() after Reset = %q, want empty", got)
	}

	// Should be reusable after reset
	p.Push("c")
	got = p.String()
	if got != "/c" {
		t.Errorf("String() after Reset+Push = %q, want %q", got, "/c")
	}
}

func TestPool_GetPut(t *testing.T) {
	p := Get()
	if p == nil {
		t.Fatal("Get() returned nil")
	}

	p.Push("test")
	Put(p)

	// Get another - may or may not be same instance
	p2 := Get()
	if p2.String() != "" {
		t.Errorf("Get() returned non-reset builder: %q", p2.String())
	}
	Put(p2)
}

func TestPool_PutNil(t *testing.T) {
	Put(nil) // Should not panic
}
