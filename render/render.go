// Package render applies the post-bundle transforms that form renderers
// expect: references fully expanded, a redundant level of nesting removed
// from each top-level property and every top-level property required.
// InjectEnums additionally fills item enums from a flavors table.
package render

import (
	"errors"
	"fmt"

	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle/bundler"
	"github.com/flavors-dev/schemabundle/internal/nodeutil"
)

// ErrNotObject is returned when the schema root is not an object.
var ErrNotObject = errors.New("render: schema root is not an object")

// Report describes the changes made by Apply.
type Report struct {
	// Collapsed lists the top-level properties whose nesting was removed
	Collapsed []string
	// Required lists the property names written to the root "required" member
	Required []string
	// Enums lists the item properties that received an enum, as "property.key"
	Enums []string
}

// Apply dereferences a bundle and then runs CollapseRedundantNesting and
// RequireAllProperties on it. When flavors is non-empty InjectEnums runs
// last.
func Apply(result *bundler.BundleResult, flavors map[string][]any) (*Report, error) {
	if err := bundler.Dereference(result); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	collapsed, err := CollapseRedundantNesting(result.Document)
	if err != nil {
		return nil, err
	}
	required, err := RequireAllProperties(result.Document)
	if err != nil {
		return nil, err
	}
	report := &Report{Collapsed: collapsed, Required: required}
	if len(flavors) > 0 {
		if report.Enums, err = InjectEnums(result.Document, flavors); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// CollapseRedundantNesting replaces every top-level property X whose schema
// is an object with its own "properties.X" by that inner schema, turning
//
//	{"properties": {"db": {"properties": {"db": {...}}}}}
//
// into {"properties": {"db": {...}}}. It returns the collapsed names in
// document order.
func CollapseRedundantNesting(root *yaml.Node) ([]string, error) {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, ErrNotObject
	}
	props := nodeutil.Get(root, "properties")
	if props == nil || props.Kind != yaml.MappingNode {
		return nil, nil
	}

	var collapsed []string
	for i := 0; i+1 < len(props.Content); i += 2 {
		name := props.Content[i].Value
		inner := nodeutil.Get(nodeutil.Get(props.Content[i+1], "properties"), name)
		if inner == nil {
			continue
		}
		props.Content[i+1] = inner
		collapsed = append(collapsed, name)
	}
	return collapsed, nil
}

// RequireAllProperties sets the root "required" member to the names of all
// top-level properties in document order. A schema without properties gets
// an empty list.
func RequireAllProperties(root *yaml.Node) ([]string, error) {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, ErrNotObject
	}
	names := nodeutil.Keys(nodeutil.Get(root, "properties"))

	required := nodeutil.NewSequence()
	for _, name := range names {
		required.Content = append(required.Content, nodeutil.String(name))
	}
	nodeutil.Set(root, "required", required)

	if names == nil {
		names = []string{}
	}
	return names, nil
}

// InjectEnums sets "enum" on item properties of array-typed top-level
// properties. For every property whose schema has "type": "array" and whose
// "items" schema has "type": "object", each entry of items.properties whose
// name is a key of flavors gets enum = flavors[name], replacing any enum it
// had. Names are returned as "property.key" in document order.
func InjectEnums(root *yaml.Node, flavors map[string][]any) ([]string, error) {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, ErrNotObject
	}

	var injected []string
	props := nodeutil.Get(root, "properties")
	for _, name := range nodeutil.Keys(props) {
		prop := nodeutil.Get(props, name)
		if !hasType(prop, "array") {
			continue
		}
		items := nodeutil.Get(prop, "items")
		if !hasType(items, "object") {
			continue
		}
		itemProps := nodeutil.Get(items, "properties")
		for _, key := range nodeutil.Keys(itemProps) {
			values, ok := flavors[key]
			if !ok {
				continue
			}
			target := nodeutil.Get(itemProps, key)
			if target == nil || target.Kind != yaml.MappingNode {
				continue
			}
			var enum yaml.Node
			if err := enum.Encode(values); err != nil {
				return nil, fmt.Errorf("render: encoding enum for %s.%s: %w", name, key, err)
			}
			nodeutil.Set(target, "enum", &enum)
			injected = append(injected, name+"."+key)
		}
	}
	return injected, nil
}

func hasType(schema *yaml.Node, want string) bool {
	if schema == nil || schema.Kind != yaml.MappingNode {
		return false
	}
	t := nodeutil.Get(schema, "type")
	return t != nil && t.Kind == yaml.ScalarNode && t.Value == want
}

// ParseFlavors decodes a flavors table: a JSON or YAML object mapping item
// property names to their allowed values.
func ParseFlavors(data []byte) (map[string][]any, error) {
	node, err := nodeutil.DecodeJSON(data)
	if err != nil {
		var doc yaml.Node
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("render: parsing flavors: %w", err)
		}
		node = nodeutil.Content(&doc)
	}
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, errors.New("render: flavors must be an object of arrays")
	}
	if err := nodeutil.CheckDuplicateKeys(node); err != nil {
		return nil, fmt.Errorf("render: parsing flavors: %w", err)
	}

	flavors := make(map[string][]any, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		if value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("render: flavors entry %q is not an array", key)
		}
		var values []any
		if err := value.Decode(&values); err != nil {
			return nil, fmt.Errorf("render: flavors entry %q: %w", key, err)
		}
		flavors[key] = values
	}
	return flavors, nil
}
