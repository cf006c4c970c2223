package form

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/G-Node/formkit/assets"
	"github.com/G-Node/formkit/templates"
)

// View is the template data for one or more rendered forms.
type View struct {
	Masonry     bool
	Forms       []FormView
	Stylesheets []assets.Stylesheet
}

// FormView is the template data for a single form.
type FormView struct {
	ID       string
	Title    string
	MaxWidth int
	Root     NodeView
}

// NodeView is the template data for a node of the form tree.
type NodeView struct {
	Kind     string
	Title    string
	Toggle   bool
	Open     bool
	Classes  string
	Field    *FieldView
	Children []NodeView
}

// FieldView is the template data for a single control.
type FieldView struct {
	FormID      string
	ID          string
	Name        string
	Kind        string
	Label       string
	Tooltip     string
	Value       string
	Checked     bool
	Placeholder string
	Step        string
	Text        string
	Options     []OptionView
	Disabled    bool
	Hidden      bool
	Mandatory   bool
	BoxClasses  string
	Classes     string
}

// OptionView is a dropdown option.
type OptionView struct {
	Value    string
	Selected bool
}

// NewView returns the template data for the given forms in their current
// state.
func NewView(masonry bool, forms ...*Form) *View {
	v := &View{Masonry: masonry, Forms: make([]FormView, 0, len(forms))}
	for _, f := range forms {
		v.Forms = append(v.Forms, FormView{
			ID:       f.ID,
			Title:    f.title,
			MaxWidth: f.maxWidth,
			Root:     f.nodeView(f.root),
		})
	}
	return v
}

func (f *Form) nodeView(n *Node) NodeView {
	nv := NodeView{
		Kind:    string(n.Kind),
		Title:   n.Title,
		Toggle:  n.Collapse != NoToggle,
		Open:    n.Collapse == Expanded,
		Classes: strings.Join(n.Classes, " "),
	}
	if n.Control != nil {
		nv.Field = f.fieldView(n)
	}
	for _, child := range n.Children {
		nv.Children = append(nv.Children, f.nodeView(child))
	}
	return nv
}

func (f *Form) fieldView(n *Node) *FieldView {
	c := n.Control
	fv := &FieldView{
		FormID:      f.ID,
		ID:          fmt.Sprintf("%s-%s", f.ID[:8], c.Name),
		Name:        c.Name,
		Kind:        string(c.Kind),
		Label:       c.Label,
		Tooltip:     c.Tooltip,
		Placeholder: c.Placeholder,
		Text:        c.Text,
		Disabled:    c.Disabled(),
		Hidden:      c.Hidden(),
		Mandatory:   f.mandatory[c.Name],
		BoxClasses:  strings.Join(n.Classes, " "),
		Classes:     strings.Join(append([]string{"ifk-widget-input"}, c.Classes()...), " "),
	}
	value := c.Value()
	if c.Kind.Secret() {
		value = nil
	}
	switch v := value.(type) {
	case bool:
		fv.Checked = v
	case float64:
		fv.Value = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
	default:
		fv.Value = fmt.Sprint(v)
	}
	if c.Kind == FloatText {
		fv.Step = strconv.FormatFloat(c.Step, 'f', -1, 64)
	}
	for _, opt := range c.Options {
		fv.Options = append(fv.Options, OptionView{Value: opt, Selected: opt == c.Value()})
	}
	return fv
}

var widgetsTmpl = template.Must(template.New("formkit").Parse(templates.Widgets))

// render writes the view with its stylesheets inlined.
func render(w io.Writer, logger interface{ Printf(string, ...interface{}) }, view *View) error {
	view.Stylesheets = assets.Load(logger, assets.FS, assets.DefaultStylesheets...)
	return widgetsTmpl.ExecuteTemplate(w, "widgets", view)
}

// Display renders the form and its stylesheets to w.
func (f *Form) Display(w io.Writer) error {
	return render(w, f.logger, NewView(false, f))
}
