// Package nodeutil provides helpers for reading and rewriting yaml.Node
// trees, which the bundler uses as its order-preserving document model for
// both JSON and YAML sources.
package nodeutil

import (
	"errors"
	"fmt"
	"strconv"

	"go.yaml.in/yaml/v4"
)

// RefKey is the member name that marks a reference node.
const RefKey = "$ref"

// String creates a string scalar node.
func String(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// NewMapping creates an empty mapping node.
func NewMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// NewSequence creates a sequence node holding items.
func NewSequence(items ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: items}
}

// Content returns the top-level value of a parsed document, unwrapping a
// DocumentNode. It returns nil for an empty document.
func Content(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		return node.Content[0]
	}
	if node.Kind == 0 {
		return nil
	}
	return node
}

// Get returns the value stored under key in a mapping node, or nil.
func Get(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one at the end.
func Set(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, String(key), value)
}

// Delete removes key from a mapping node. It reports whether the key was present.
func Delete(mapping *yaml.Node, key string) bool {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return true
		}
	}
	return false
}

// Keys returns the keys of a mapping node in document order.
func Keys(mapping *yaml.Node) []string {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys
}

// Ref returns the value node of a string $ref member, if node is a reference node.
// A "$ref" member holding a non-string (for example a property named "$ref"
// inside "properties") does not make the node a reference.
func Ref(node *yaml.Node) (*yaml.Node, bool) {
	v := Get(node, RefKey)
	if v == nil || v.Kind != yaml.ScalarNode {
		return nil, false
	}
	if v.ShortTag() != "!!str" {
		return nil, false
	}
	return v, true
}

// Copy returns a deep copy of node. Aliases are replaced by copies of their
// anchored values so the result has no shared structure.
func Copy(node *yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return Copy(node.Alias)
	}
	out := *node
	out.Anchor = ""
	out.Alias = nil
	if len(node.Content) > 0 {
		out.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			out.Content[i] = Copy(child)
		}
	}
	return &out
}

// ExpandAliases replaces every alias below node with a copy of the value it
// points at. budget bounds the number of nodes the expansion may create, so
// documents built from nested aliases ("billion laughs") fail instead of
// exhausting memory.
func ExpandAliases(node *yaml.Node, budget int) error {
	remaining := budget
	if err := expandAliases(node, &remaining); err != nil {
		return fmt.Errorf("nodeutil: alias expansion exceeds %d nodes: %w", budget, err)
	}
	return nil
}

var errBudget = errors.New("budget exhausted")

func expandAliases(node *yaml.Node, remaining *int) error {
	for i, child := range node.Content {
		if child.Kind == yaml.AliasNode && child.Alias != nil {
			n := countUpTo(child.Alias, *remaining+1)
			if n > *remaining {
				return errBudget
			}
			*remaining -= n
			expanded := Copy(child.Alias)
			node.Content[i] = expanded
			child = expanded
		}
		if err := expandAliases(child, remaining); err != nil {
			return err
		}
	}
	return nil
}

// countUpTo counts the nodes under node, following aliases, and stops once
// limit is reached.
func countUpTo(node *yaml.Node, limit int) int {
	if node == nil || limit <= 0 {
		return 0
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return countUpTo(node.Alias, limit)
	}
	n := 1
	for _, child := range node.Content {
		if n >= limit {
			break
		}
		n += countUpTo(child, limit-n)
	}
	return n
}

// LookupError describes a JSON Pointer that could not be followed.
type LookupError struct {
	// Index is the position of the failing token
	Index int
	// Token is the unescaped token that failed
	Token string
	// Reason explains why traversal stopped
	Reason string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("token %d (%q): %s", e.Index, e.Token, e.Reason)
}

// Lookup follows unescaped JSON Pointer tokens from node.
// Array tokens must be non-negative decimal indexes per RFC 6901.
func Lookup(node *yaml.Node, tokens []string) (*yaml.Node, error) {
	current := node
	for i, tok := range tokens {
		if current.Kind == yaml.AliasNode && current.Alias != nil {
			current = current.Alias
		}
		switch current.Kind {
		case yaml.MappingNode:
			next := Get(current, tok)
			if next == nil {
				return nil, &LookupError{Index: i, Token: tok, Reason: "missing key"}
			}
			current = next
		case yaml.SequenceNode:
			index, err := strconv.Atoi(tok)
			if err != nil || index < 0 || (len(tok) > 1 && tok[0] == '0') {
				return nil, &LookupError{Index: i, Token: tok, Reason: "invalid array index"}
			}
			if index >= len(current.Content) {
				return nil, &LookupError{Index: i, Token: tok,
					Reason: fmt.Sprintf("array index out of bounds (length %d)", len(current.Content))}
			}
			current = current.Content[index]
		default:
			return nil, &LookupError{Index: i, Token: tok, Reason: "cannot traverse into a scalar"}
		}
	}
	return current, nil
}

// ClearFlowStyle removes flow style from every collection below node so that
// documents parsed from JSON are emitted as block YAML.
func ClearFlowStyle(node *yaml.Node) {
	if node == nil {
		return
	}
	if node.Kind == yaml.MappingNode || node.Kind == yaml.SequenceNode {
		node.Style &^= yaml.FlowStyle
	}
	for _, child := range node.Content {
		ClearFlowStyle(child)
	}
}
