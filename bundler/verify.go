package bundler

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle/bundleerrors"
	"github.com/flavors-dev/schemabundle/internal/nodeutil"
	"github.com/flavors-dev/schemabundle/internal/pathutil"
)

// compileURL is the resource name the bundle is registered under for CompileCheck.
const compileURL = "mem:///bundle.json"

// VerifySelfContained checks that every $ref below node is a same-document
// reference whose target exists. It returns the first offending reference
// as a *bundleerrors.ReferenceError whose message names where the reference
// sits in the document.
func VerifySelfContained(node *yaml.Node) error {
	path := pathutil.Get()
	defer pathutil.Put(path)

	var check func(n *yaml.Node) error
	check = func(n *yaml.Node) error {
		if v, ok := nodeutil.Ref(n); ok {
			if err := checkLocalRef(node, v.Value); err != nil {
				err.Message += fmt.Sprintf(" (at %q)", "#"+path.String())
				return err
			}
		}
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				path.Push(n.Content[i].Value)
				err := check(n.Content[i+1])
				path.Pop()
				if err != nil {
					return err
				}
			}
		case yaml.SequenceNode:
			for i, child := range n.Content {
				path.PushIndex(i)
				err := check(child)
				path.Pop()
				if err != nil {
					return err
				}
			}
		case yaml.DocumentNode:
			for _, child := range n.Content {
				if err := check(child); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return check(node)
}

func checkLocalRef(root *yaml.Node, ref string) *bundleerrors.ReferenceError {
	if !strings.HasPrefix(ref, "#") {
		return &bundleerrors.ReferenceError{Ref: ref, RefType: "external", Message: "reference is not local"}
	}
	u, err := url.Parse(ref)
	if err != nil {
		return &bundleerrors.ReferenceError{Ref: ref, RefType: "local", Message: "malformed reference", Cause: err}
	}
	tokens, err := pathutil.Split(u.Fragment)
	if err != nil {
		return &bundleerrors.ReferenceError{Ref: ref, RefType: "local", Message: "invalid JSON pointer", Cause: err}
	}
	if _, err := nodeutil.Lookup(root, tokens); err != nil {
		return &bundleerrors.ReferenceError{
			Ref:     ref,
			RefType: "local",
			Pointer: u.Fragment,
			Message: "target not found",
			Cause:   err,
		}
	}
	return nil
}

// CompileCheck compiles the bundled document with a standard JSON Schema
// compiler that is not allowed to load anything but the built-in
// metaschemas. Success shows the bundle is self-contained for other tools.
// Instance data is never validated.
func CompileCheck(result *BundleResult) error {
	data, err := result.MarshalOrderedJSON()
	if err != nil {
		return err
	}

	c := jsonschema.NewCompiler()
	c.LoadURL = func(s string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("external resource %s is not part of the bundle", s)
	}
	if err := c.AddResource(compileURL, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("bundler: compile check failed: %w", err)
	}
	if _, err := c.Compile(compileURL); err != nil {
		return fmt.Errorf("bundler: compile check failed: %w", err)
	}
	return nil
}
