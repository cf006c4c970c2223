package form

import (
	"errors"
	"fmt"
)

// ErrRowMismatch is returned when a row group has a different number of
// names and default values.
var ErrRowMismatch = errors.New("row group names and values differ in length")

// Spec is the ordered mapping of field names to default values a form is
// built from.  Order is the rendered order.
type Spec []Entry

// Entry is a single item of a Spec: a field, a row group of fields laid out
// side by side, or a nested Spec rendered as a collapsible group.
type Entry struct {
	// Name of a field, or the title of a nested group.
	Name string
	// Default value of a field.  A Spec value makes the entry a nested group.
	Value interface{}
	// Names of a row group.  Non-nil makes the entry a row.
	Row []string
	// Default values of a row group, parallel to Row.
	Values []interface{}
}

// Field returns a single field entry.
func Field(name string, value interface{}) Entry {
	return Entry{Name: name, Value: value}
}

// Row returns a row group entry.  The number of names and values must match
// when the form is built.
func Row(names []string, values ...interface{}) Entry {
	return Entry{Row: names, Values: values}
}

// Group returns a nested group entry with the given title.
func Group(title string, spec Spec) Entry {
	return Entry{Name: title, Value: spec}
}

// IsRow reports whether the entry is a row group.
func (e Entry) IsRow() bool {
	return e.Row != nil
}

// Collapse selects the title decoration of a (sub-)form.
type Collapse int

const (
	// NoToggle renders a static title row if a title is set.
	NoToggle Collapse = iota
	// Expanded renders a toggle that starts open.
	Expanded
	// Collapsed renders a toggle that starts closed.
	Collapsed
)

// NodeKind identifies the role of a Node in the form tree.
type NodeKind string

const (
	RootNode  NodeKind = "root"
	TitleNode NodeKind = "title"
	RowNode   NodeKind = "row"
	LeafNode  NodeKind = "leaf"
	GroupNode NodeKind = "group"
)

// Node is an element of the form tree.  The root and nested groups hold rows;
// rows hold leaves or a single group.
type Node struct {
	Kind     NodeKind
	Title    string
	Collapse Collapse
	// Nested is set on groups built from a nested Spec.
	Nested   bool
	Control  *Control
	Children []*Node
	Classes  []string
}

// table is the flat name → control lookup.  It holds non-owning references
// to the leaves of the tree, in rendered order.
type table struct {
	controls map[string]*Control
	order    []string
}

func newTable() *table {
	return &table{controls: make(map[string]*Control)}
}

// put registers a control.  A name that is already present keeps its
// position and is overwritten.
func (t *table) put(c *Control) bool {
	_, exists := t.controls[c.Name]
	if !exists {
		t.order = append(t.order, c.Name)
	}
	t.controls[c.Name] = c
	return exists
}

func (t *table) merge(other *table) []string {
	var dupes []string
	for _, name := range other.order {
		if t.put(other.controls[name]) {
			dupes = append(dupes, name)
		}
	}
	return dupes
}

func (t *table) get(name string) (*Control, bool) {
	c, ok := t.controls[name]
	return c, ok
}

func (t *table) each(fn func(c *Control)) {
	for _, name := range t.order {
		fn(t.controls[name])
	}
}

// build walks the spec and produces the form tree and its flat table.
func build(spec Spec, title string, collapse Collapse, nested bool) (*Node, *table, []string, error) {
	flat := newTable()
	var dupes []string
	rows := make([]*Node, 0, len(spec)+1)

	if collapse == NoToggle && title != "" {
		rows = append(rows, &Node{Kind: TitleNode, Title: title, Classes: []string{"ifk-form-title"}})
	}

	for _, entry := range spec {
		row := &Node{Kind: RowNode, Classes: []string{"ifk-form-hbox"}}
		switch sub, isSpec := entry.Value.(Spec); {
		case entry.IsRow():
			if len(entry.Row) != len(entry.Values) {
				return nil, nil, nil, fmt.Errorf("%w: %d names %v, %d values", ErrRowMismatch, len(entry.Row), entry.Row, len(entry.Values))
			}
			for idx, name := range entry.Row {
				c := newControl(Infer(name, entry.Values[idx]))
				if flat.put(c) {
					dupes = append(dupes, name)
				}
				row.Children = append(row.Children, leafNode(c))
			}
		case isSpec:
			group, subflat, subdupes, err := build(sub, entry.Name, Collapsed, true)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("group %q: %w", entry.Name, err)
			}
			dupes = append(dupes, subdupes...)
			dupes = append(dupes, flat.merge(subflat)...)
			row.Children = append(row.Children, group)
		default:
			c := newControl(Infer(entry.Name, entry.Value))
			if flat.put(c) {
				dupes = append(dupes, entry.Name)
			}
			row.Children = append(row.Children, leafNode(c))
		}
		rows = append(rows, row)
	}

	root := &Node{Kind: GroupNode, Title: title, Collapse: collapse, Nested: nested, Children: rows}
	if collapse == NoToggle {
		root.Title = ""
	}
	if !nested {
		root.Kind = RootNode
		root.Classes = append(root.Classes, "ifk-form")
	}
	return root, flat, dupes, nil
}

func leafNode(c *Control) *Node {
	classes := []string{"ifk-widget-box"}
	if c.Kind == FileInput {
		classes = append(classes, "ifk-widget-FileAutocomplete")
	}
	if c.Kind == Checkbox {
		classes = append(classes, "widget-hbox")
	} else {
		classes = append(classes, "widget-vbox")
	}
	return &Node{Kind: LeafNode, Control: c, Classes: classes}
}

// Walk calls fn for n and every node below it, depth first.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
