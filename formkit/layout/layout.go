// Package layout reads form layouts from YAML files.
//
// A layout file is a mapping of form titles to field mappings.  Field order
// is kept as written.  Within a field mapping
//
//	name: 3                  # scalar: field with an inferred control
//	format: [Marcs, Stagger] # sequence: dropdown choices
//	advanced:                # mapping: nested collapsible group
//	  dims: 23
//	[nx, ny]: [3, 4]         # sequence key: fields sharing one row
package layout

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/G-Node/formkit/formkit/form"
	"gopkg.in/yaml.v3"
)

// ErrLayout is wrapped by every layout decoding error.
var ErrLayout = errors.New("invalid layout")

// Section is one titled form of a layout file.
type Section struct {
	Title string
	Spec  form.Spec
}

// Document is an ordered layout file.
type Document []Section

// Section returns the section with the given title.
func (d Document) Section(title string) (form.Spec, bool) {
	for _, s := range d {
		if s.Title == title {
			return s.Spec, true
		}
	}
	return nil, false
}

// Load reads a layout from a file path.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a layout document from r.  An empty input is an empty
// document.
func Decode(r io.Reader) (Document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return Document{}, nil
		}
		return nil, err
	}
	top := &root
	if top.Kind == yaml.DocumentNode && len(top.Content) > 0 {
		top = top.Content[0]
	}
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: top level must be a mapping of form titles", ErrLayout, top.Line)
	}

	doc := make(Document, 0, len(top.Content)/2)
	for idx := 0; idx < len(top.Content); idx += 2 {
		key, value := top.Content[idx], top.Content[idx+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: form title must be a scalar", ErrLayout, key.Line)
		}
		spec, err := decodeSpec(value)
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", key.Value, err)
		}
		doc = append(doc, Section{Title: key.Value, Spec: spec})
	}
	return doc, nil
}

func decodeSpec(node *yaml.Node) (form.Spec, error) {
	if isNull(node) {
		return form.Spec{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of fields", ErrLayout, node.Line)
	}
	spec := make(form.Spec, 0, len(node.Content)/2)
	for idx := 0; idx < len(node.Content); idx += 2 {
		key, value := node.Content[idx], node.Content[idx+1]
		entry, err := decodeEntry(key, value)
		if err != nil {
			return nil, err
		}
		spec = append(spec, entry)
	}
	return spec, nil
}

func decodeEntry(key, value *yaml.Node) (form.Entry, error) {
	switch key.Kind {
	case yaml.ScalarNode:
		if value.Kind == yaml.MappingNode {
			group, err := decodeSpec(value)
			if err != nil {
				return form.Entry{}, fmt.Errorf("group %q: %w", key.Value, err)
			}
			return form.Group(key.Value, group), nil
		}
		v, err := decodeValue(value)
		if err != nil {
			return form.Entry{}, fmt.Errorf("field %q: %w", key.Value, err)
		}
		return form.Field(key.Value, v), nil
	case yaml.SequenceNode:
		names := make([]string, 0, len(key.Content))
		for _, n := range key.Content {
			if n.Kind != yaml.ScalarNode {
				return form.Entry{}, fmt.Errorf("%w: line %d: row names must be scalars", ErrLayout, n.Line)
			}
			names = append(names, n.Value)
		}
		if value.Kind != yaml.SequenceNode {
			return form.Entry{}, fmt.Errorf("%w: line %d: row %v needs a sequence of values", ErrLayout, value.Line, names)
		}
		values := make([]interface{}, 0, len(value.Content))
		for _, n := range value.Content {
			v, err := decodeValue(n)
			if err != nil {
				return form.Entry{}, fmt.Errorf("row %v: %w", names, err)
			}
			values = append(values, v)
		}
		return form.Row(names, values...), nil
	}
	return form.Entry{}, fmt.Errorf("%w: line %d: unsupported field key", ErrLayout, key.Line)
}

// decodeValue converts a value node to the Go type its control is inferred
// from.
func decodeValue(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)
	case yaml.SequenceNode:
		choices := make(form.Choices, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: choices must be scalars", ErrLayout, n.Line)
			}
			choices = append(choices, n.Value)
		}
		return choices, nil
	case yaml.AliasNode:
		return decodeValue(node.Alias)
	}
	return nil, fmt.Errorf("%w: line %d: unsupported value", ErrLayout, node.Line)
}

func decodeScalar(node *yaml.Node) (interface{}, error) {
	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int
		if err := node.Decode(&i); err != nil {
			return nil, err
		}
		return i, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	}
	return node.Value, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
