package bundler

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle/bundleerrors"
	"github.com/flavors-dev/schemabundle/internal/nodeutil"
	"github.com/flavors-dev/schemabundle/internal/pathutil"
)

// maxDereferencedNodes bounds the size of a dereferenced document.
const maxDereferencedNodes = 5_000_000

// Dereference replaces every local reference in a bundled document with a
// deep copy of its target. Sibling members of a reference override the
// members of the copied target. References that would expand into
// themselves are kept as local pointers and reported in Warnings.
//
// When the bundler created the definitions key and no remaining reference
// points into it, the key is removed.
func Dereference(result *BundleResult) error {
	if result == nil || result.Document == nil {
		return fmt.Errorf("bundler: nothing to dereference")
	}
	d := &dereferencer{
		root:   result.Document,
		active: make(map[*yaml.Node]bool),
		budget: maxDereferencedNodes,
	}
	out, err := d.expand(result.Document)
	if err != nil {
		return err
	}

	if result.createdDefinitions && !referencesInto(out, result.DefinitionsKey) {
		nodeutil.Delete(out, result.DefinitionsKey)
	}
	result.Document = out
	for _, ref := range d.kept {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("circular reference %s kept as a local pointer", ref))
	}
	return nil
}

type dereferencer struct {
	root   *yaml.Node
	active map[*yaml.Node]bool
	budget int
	kept   []string
}

func (d *dereferencer) expand(node *yaml.Node) (*yaml.Node, error) {
	d.budget--
	if d.budget < 0 {
		return nil, &bundleerrors.ResourceLimitError{
			ResourceType: "dereferenced_nodes",
			Limit:        maxDereferencedNodes,
			Message:      "dereferenced document is too large",
		}
	}
	if ref, ok := nodeutil.Ref(node); ok {
		return d.expandRef(node, ref.Value)
	}

	d.active[node] = true
	defer delete(d.active, node)

	out := *node
	out.Content = nil
	for i, child := range node.Content {
		if node.Kind == yaml.MappingNode && i%2 == 0 {
			out.Content = append(out.Content, nodeutil.Copy(child))
			continue
		}
		expanded, err := d.expand(child)
		if err != nil {
			return nil, err
		}
		out.Content = append(out.Content, expanded)
	}
	return &out, nil
}

func (d *dereferencer) expandRef(node *yaml.Node, ref string) (*yaml.Node, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, &bundleerrors.ReferenceError{Ref: ref, RefType: "external", Message: "document still contains an external reference"}
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, &bundleerrors.ReferenceError{Ref: ref, RefType: "local", Message: "malformed reference", Cause: err}
	}
	tokens, err := pathutil.Split(u.Fragment)
	if err != nil {
		return nil, &bundleerrors.ReferenceError{Ref: ref, RefType: "local", Message: "invalid JSON pointer", Cause: err}
	}
	target, err := nodeutil.Lookup(d.root, tokens)
	if err != nil {
		return nil, &bundleerrors.ReferenceError{Ref: ref, RefType: "local", Pointer: u.Fragment, Message: "target not found", Cause: err}
	}
	if d.active[target] || target == node {
		if !slices.Contains(d.kept, ref) {
			d.kept = append(d.kept, ref)
		}
		return nodeutil.Copy(node), nil
	}

	d.active[node] = true
	defer delete(d.active, node)

	expanded, err := d.expand(target)
	if err != nil {
		return nil, err
	}
	if expanded.Kind != yaml.MappingNode {
		return expanded, nil
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if key == nodeutil.RefKey {
			continue
		}
		value, err := d.expand(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		nodeutil.Set(expanded, key, value)
	}
	return expanded, nil
}

// referencesInto reports whether any $ref below node points into the root member key.
func referencesInto(node *yaml.Node, key string) bool {
	prefix := localRef(pathutil.Join(key))
	var found bool
	var visit func(n *yaml.Node)
	visit = func(n *yaml.Node) {
		if found {
			return
		}
		if v, ok := nodeutil.Ref(n); ok && (v.Value == prefix || strings.HasPrefix(v.Value, prefix+"/")) {
			found = true
			return
		}
		for _, child := range n.Content {
			visit(child)
		}
	}
	visit(node)
	return found
}
