package bundler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"

	"github.com/flavors-dev/schemabundle/internal/nodeutil"
)

// DefaultIndent is the indentation used for JSON output.
const DefaultIndent = "  "

var jsonNumber = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?$`)

// MarshalOrderedJSON returns the bundled document as compact JSON with the
// source key order.
func (r *BundleResult) MarshalOrderedJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNodeJSON(&buf, r.Document); err != nil {
		return nil, fmt.Errorf("bundler: failed to marshal JSON: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalOrderedJSONIndent is like MarshalOrderedJSON but applies indentation.
// The output ends with a newline.
func (r *BundleResult) MarshalOrderedJSONIndent(prefix, indent string) ([]byte, error) {
	compact, err := r.MarshalOrderedJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, prefix, indent); err != nil {
		return nil, fmt.Errorf("bundler: failed to indent JSON: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// MarshalOrderedYAML returns the bundled document as block-style YAML with
// the source key order.
func (r *BundleResult) MarshalOrderedYAML() ([]byte, error) {
	node := nodeutil.Copy(r.Document)
	nodeutil.ClearFlowStyle(node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("bundler: failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("bundler: failed to marshal YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// MarshalFormat writes the document in format. An empty or unknown format
// uses the source format, falling back to JSON. indent only applies to JSON.
func (r *BundleResult) MarshalFormat(format SourceFormat, indent string) ([]byte, error) {
	if format == "" || format == SourceFormatUnknown {
		format = r.SourceFormat
	}
	if format == SourceFormatYAML {
		return r.MarshalOrderedYAML()
	}
	if indent == "" {
		return r.MarshalOrderedJSON()
	}
	return r.MarshalOrderedJSONIndent("", indent)
}

// writeNodeJSON encodes a node tree as JSON. Scalars are encoded according to
// their resolved YAML tag, so quoted strings stay strings.
func writeNodeJSON(buf *bytes.Buffer, node *yaml.Node) error {
	if node == nil {
		buf.WriteString("null")
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		return writeNodeJSON(buf, nodeutil.Content(node))
	case yaml.AliasNode:
		return writeNodeJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, node.Content[i].Value); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNodeJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNodeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		return writeScalarJSON(buf, node)
	default:
		return fmt.Errorf("unsupported node kind %v at line %d", node.Kind, node.Line)
	}
}

func writeScalarJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool":
		var v bool
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		buf.WriteString(strconv.FormatBool(v))
	case "!!int", "!!float":
		if jsonNumber.MatchString(node.Value) {
			buf.WriteString(node.Value)
			return nil
		}
		return writeYAMLNumber(buf, node)
	default:
		return writeJSONString(buf, node.Value)
	}
	return nil
}

// writeYAMLNumber converts YAML-only number spellings (0x1F, 1_000, .5) to JSON.
func writeYAMLNumber(buf *bytes.Buffer, node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	switch n := v.(type) {
	case int:
		buf.WriteString(strconv.Itoa(n))
	case int64:
		buf.WriteString(strconv.FormatInt(n, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(n, 10))
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return fmt.Errorf("line %d: %s cannot be represented in JSON", node.Line, node.Value)
		}
		buf.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
	default:
		return writeJSONString(buf, node.Value)
	}
	return nil
}

// writeJSONString writes s as a JSON string without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.WriteString(strings.TrimSuffix(tmp.String(), "\n"))
	return nil
}
