package nodeutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v4"
)

// DecodeJSON parses a JSON document into a node tree that keeps member order.
// Nodes carry the same kinds, tags and styles the YAML parser produces for
// JSON input, so the rest of the pipeline cannot tell the two apart.
// Whitespace-only input yields a nil node and no error.
//
// Unlike the YAML parser, DecodeJSON accepts every escape JSON allows,
// including UTF-16 surrogate pairs such as "\ud83d\ude00".
func DecodeJSON(data []byte) (*yaml.Node, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	d := &jsonDecoder{dec: json.NewDecoder(bytes.NewReader(data)), data: data}
	d.dec.UseNumber()
	d.indexLines()

	node, err := d.value()
	if err != nil {
		return nil, d.wrap(err)
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, d.wrap(err)
	}
	return node, nil
}

type jsonDecoder struct {
	dec        *json.Decoder
	data       []byte
	lineStarts []int
}

func (d *jsonDecoder) indexLines() {
	d.lineStarts = []int{0}
	for i, b := range d.data {
		if b == '\n' {
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
}

// position returns the 1-based line and column of the next token.
func (d *jsonDecoder) position() (int, int) {
	off := int(d.dec.InputOffset())
	for off < len(d.data) && strings.IndexByte(" \t\r\n,:", d.data[off]) >= 0 {
		off++
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > off })
	return line, off - d.lineStarts[line-1] + 1
}

func (d *jsonDecoder) wrap(err error) error {
	var syntax *json.SyntaxError
	if errors.As(err, &syntax) {
		line := sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] >= int(syntax.Offset) })
		return fmt.Errorf("json: line %d: %w", max(line, 1), err)
	}
	return fmt.Errorf("json: %w", err)
}

func (d *jsonDecoder) value() (*yaml.Node, error) {
	line, column := d.position()
	tok, err := d.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	node := &yaml.Node{Kind: yaml.ScalarNode, Line: line, Column: column}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node.Kind, node.Tag, node.Style = yaml.MappingNode, "!!map", yaml.FlowStyle
			return node, d.object(node)
		case '[':
			node.Kind, node.Tag, node.Style = yaml.SequenceNode, "!!seq", yaml.FlowStyle
			return node, d.array(node)
		}
		return nil, fmt.Errorf("line %d: unexpected %q", line, v)
	case string:
		node.Tag, node.Value, node.Style = "!!str", v, yaml.DoubleQuotedStyle
	case json.Number:
		node.Tag, node.Value = "!!int", v.String()
		if strings.ContainsAny(node.Value, ".eE") {
			node.Tag = "!!float"
		}
	case bool:
		node.Tag, node.Value = "!!bool", strconv.FormatBool(v)
	case nil:
		node.Tag, node.Value = "!!null", "null"
	}
	return node, nil
}

func (d *jsonDecoder) object(node *yaml.Node) error {
	for d.dec.More() {
		line, column := d.position()
		tok, err := d.dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("line %d: object key must be a string", line)
		}
		value, err := d.value()
		if err != nil {
			return err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Style: yaml.DoubleQuotedStyle, Line: line, Column: column},
			value)
	}
	return d.closing()
}

func (d *jsonDecoder) array(node *yaml.Node) error {
	for d.dec.More() {
		value, err := d.value()
		if err != nil {
			return err
		}
		node.Content = append(node.Content, value)
	}
	return d.closing()
}

func (d *jsonDecoder) closing() error {
	if _, err := d.dec.Token(); err != nil {
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

// DuplicateKeyError reports a mapping that defines the same key twice.
type DuplicateKeyError struct {
	Key  string
	Line int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("line %d: duplicate key %q", e.Line, e.Key)
}

// CheckDuplicateKeys returns a *DuplicateKeyError for the first mapping below
// node, in document order, that repeats a key. Alias targets are checked
// where they are defined, not where they are used.
func CheckDuplicateKeys(node *yaml.Node) error {
	if node == nil || node.Kind == yaml.AliasNode {
		return nil
	}
	if node.Kind == yaml.MappingNode {
		seen := make(map[string]struct{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if key.Kind == yaml.ScalarNode {
				if _, dup := seen[key.Value]; dup {
					return &DuplicateKeyError{Key: key.Value, Line: key.Line}
				}
				seen[key.Value] = struct{}{}
			}
		}
	}
	for _, child := range node.Content {
		if err := CheckDuplicateKeys(child); err != nil {
			return err
		}
	}
	return nil
}
