package form

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
)

// Masonry lays out several forms in one container.
type Masonry struct {
	forms  []*Form
	logger *log.Logger
}

// ErrDuplicateTitle is returned by NewMasonry when two forms share a title.
// Validated values are keyed by title, so titles must be unique.
var ErrDuplicateTitle = errors.New("duplicate form title")

// NewMasonry groups the given forms.  At most one form may be untitled.
func NewMasonry(forms ...*Form) (*Masonry, error) {
	seen := make(map[string]bool, len(forms))
	for _, f := range forms {
		if seen[f.title] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTitle, f.title)
		}
		seen[f.title] = true
	}
	m := &Masonry{forms: forms, logger: log.New(ioutil.Discard, "", 0)}
	if len(forms) > 0 {
		m.logger = forms[0].logger
	}
	return m, nil
}

// Forms returns the forms of the layout in order.
func (m *Masonry) Forms() []*Form {
	return m.forms
}

// Form returns the form with the given ID.
func (m *Masonry) Form(id string) (*Form, bool) {
	for _, f := range m.forms {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// CheckAndReturnValues validates every form and returns their values keyed
// by form title.  All forms are checked, so every blocking field is
// flagged, and the first rejection is returned.
func (m *Masonry) CheckAndReturnValues() (map[string]Values, error) {
	out := make(map[string]Values, len(m.forms))
	var rejection error
	for _, f := range m.forms {
		values, err := f.CheckAndReturnValues()
		if err != nil {
			if rejection == nil {
				rejection = err
			}
			continue
		}
		out[f.title] = values
	}
	if rejection != nil {
		return nil, rejection
	}
	return out, nil
}

// Secrets returns the names of the secret fields of every form, keyed by
// form title.
func (m *Masonry) Secrets() map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, f := range m.forms {
		f.flat.each(func(c *Control) {
			if !c.Kind.Secret() {
				return
			}
			if out[f.title] == nil {
				out[f.title] = make(map[string]bool)
			}
			out[f.title][c.Name] = true
		})
	}
	return out
}

// View returns the template data for the layout.
func (m *Masonry) View() *View {
	return NewView(true, m.forms...)
}

// Display renders the layout and its stylesheets to w.
func (m *Masonry) Display(w io.Writer) error {
	return render(w, m.logger, m.View())
}

// Close detaches the subscriptions of every form.
func (m *Masonry) Close() {
	for _, f := range m.forms {
		f.Close()
	}
}
