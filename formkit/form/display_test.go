package form

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// findAll returns every element node with the given tag below n.
func findAll(n *html.Node, tag string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func byName(nodes []*html.Node, name string) *html.Node {
	for _, n := range nodes {
		if v, _ := attr(n, "name"); v == name {
			return n
		}
	}
	return nil
}

func byField(nodes []*html.Node, name string) *html.Node {
	for _, n := range nodes {
		if v, _ := attr(n, "data-field"); v == name {
			return n
		}
	}
	return nil
}

func TestDisplayAllKinds(t *testing.T) {
	spec := Spec{
		Field("run", nil),
		Field("flag", true),
		Row([]string{"nx", "vmic"}, 3, 1.25),
		Field("atom_file", filepath.Join("input", "atom.ba06")),
		Field("password", "secret"),
		Field("notes", "Notes..."),
		Field("name", "ba_test1"),
		Field("format", Choices{"Marcs", "Stagger"}),
		Field("empty", Choices{}),
		Group("advanced", Spec{Field("dims", 8)}),
	}
	f, err := New(spec, Options{
		Title:     "atmos_params",
		Collapse:  Expanded,
		Mandatory: []string{"name"},
		Tooltips:  map[string]string{"nx": "grid points"},
		Disable:   Conditions{"vmic": func(v Values) bool { return v.Bool("flag") }},
		Hide:      Conditions{"notes": func(v Values) bool { return v.Bool("flag") }},
	})
	if err != nil {
		t.Fatalf("Failed to build form: %v", err)
	}

	out := new(bytes.Buffer)
	if err := f.Display(out); err != nil {
		t.Fatalf("Failed to display form: %v", err)
	}
	doc, err := html.Parse(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("Bad HTML when rendering form: %v", err)
	}

	if n := len(findAll(doc, "style")); n != 2 {
		t.Fatalf("Expected 2 injected stylesheets, found %d", n)
	}

	inputs := findAll(doc, "input")
	expTypes := map[string]string{
		"flag":      "checkbox",
		"nx":        "number",
		"vmic":      "number",
		"atom_file": "text",
		"password":  "password",
		"name":      "text",
	}
	for name, exp := range expTypes {
		in := byName(inputs, name)
		if in == nil {
			t.Fatalf("No input element for %s", name)
		}
		if typ, _ := attr(in, "type"); typ != exp {
			t.Fatalf("Input %s has type %q; expected %q", name, typ, exp)
		}
	}
	if step, _ := attr(byName(inputs, "vmic"), "step"); step != "0.01" {
		t.Fatalf("Unexpected step for vmic: %q", step)
	}
	if _, ok := attr(byName(inputs, "vmic"), "disabled"); !ok {
		t.Fatal("vmic should be rendered disabled")
	}
	if _, ok := attr(byName(inputs, "flag"), "checked"); !ok {
		t.Fatal("flag should be rendered checked")
	}
	if ph, _ := attr(byName(inputs, "name"), "placeholder"); ph != "ba_test1" {
		t.Fatalf("Unexpected placeholder for name: %q", ph)
	}
	if byName(findAll(doc, "textarea"), "notes") == nil {
		t.Fatal("No textarea for notes")
	}
	if byName(findAll(doc, "button"), "run") == nil {
		t.Fatal("No button for run")
	}
	sel := byName(findAll(doc, "select"), "format")
	if sel == nil {
		t.Fatal("No select for format")
	}
	if opts := findAll(sel, "option"); len(opts) != 2 {
		t.Fatalf("Expected 2 options, found %d", len(opts))
	}
	if len(findAll(doc, "datalist")) != 1 {
		t.Fatal("Expected a datalist for the file field")
	}

	boxes := findAll(doc, "div")
	notes := byField(boxes, "notes")
	if style, _ := attr(notes, "style"); !strings.Contains(style, "display: none") {
		t.Fatalf("Hidden field rendered visible: %q", style)
	}
	if empty := byField(boxes, "empty"); empty == nil {
		t.Fatal("No box for the empty choice field")
	}

	details := findAll(doc, "details")
	if len(details) != 2 {
		t.Fatalf("Expected 2 collapsible groups, found %d", len(details))
	}
	if _, ok := attr(details[0], "open"); !ok {
		t.Fatal("Expanded form rendered closed")
	}
	if _, ok := attr(details[1], "open"); ok {
		t.Fatal("Nested group rendered open")
	}

	for _, frag := range []string{"name *", "grid points", "(Empty list - no options)"} {
		if !strings.Contains(out.String(), frag) {
			t.Fatalf("Rendered form does not contain %q", frag)
		}
	}
}

func TestDisplayMasonry(t *testing.T) {
	a, err := New(Spec{Field("a", 1)}, Options{Title: "first"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Spec{Field("b", 2)}, Options{Title: "second"})
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewMasonry(a, b)
	if err != nil {
		t.Fatalf("Failed to build masonry: %v", err)
	}
	out := new(bytes.Buffer)
	if err := m.Display(out); err != nil {
		t.Fatalf("Failed to display masonry: %v", err)
	}
	doc, err := html.Parse(out)
	if err != nil {
		t.Fatalf("Bad HTML when rendering masonry: %v", err)
	}
	roots := 0
	for _, div := range findAll(doc, "div") {
		class, _ := attr(div, "class")
		if strings.Contains(class, "ifk-masonry") {
			roots++
			if n := len(findAll(div, "input")); n != 2 {
				t.Fatalf("Masonry contains %d inputs; expected 2", n)
			}
		}
	}
	if roots != 1 {
		t.Fatalf("Expected one masonry container, found %d", roots)
	}
}

func TestDisplayHidesSecrets(t *testing.T) {
	f, err := New(Spec{Field("password", "secret"), Field("name", "run")}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	f.Set("password", "hunter2")
	f.Set("name", "alice")

	out := new(bytes.Buffer)
	if err := f.Display(out); err != nil {
		t.Fatalf("Failed to display form: %v", err)
	}
	if strings.Contains(out.String(), "hunter2") {
		t.Fatal("Password value rendered into the page")
	}
	if !strings.Contains(out.String(), "alice") {
		t.Fatal("Text value missing from the page")
	}
}
