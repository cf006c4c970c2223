package form

import (
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxWidth is the maximum form width in pixels if none is given.
const DefaultMaxWidth = 600

// MandatoryMarker is appended to the label of mandatory fields.
const MandatoryMarker = " *"

var (
	// ErrUnknownField is returned when a name does not match any field.
	ErrUnknownField = errors.New("unknown field")
	// ErrNilPredicate is returned in strict mode for a nil condition.
	ErrNilPredicate = errors.New("nil predicate")
	// ErrRejected is matched by the error returned from a failed
	// CheckAndReturnValues.
	ErrRejected = errors.New("form input rejected")
)

// RejectedError lists the fields that blocked validation.
type RejectedError struct {
	Form    string
	Missing []string
	Invalid []string
}

func (e *RejectedError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing mandatory %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, fmt.Sprintf("invalid %s", strings.Join(e.Invalid, ", ")))
	}
	msg := ErrRejected.Error()
	if e.Form != "" {
		msg = fmt.Sprintf("%s: %s", e.Form, msg)
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrRejected) hold.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Options configure a Form.  The zero value is a plain form without title.
type Options struct {
	// Title of the form.
	Title string
	// Collapse selects a static title row or a collapse toggle.
	Collapse Collapse
	// MaxWidth in pixels.  Zero means DefaultMaxWidth.
	MaxWidth int
	// Mandatory fields may not be empty when values are checked.
	Mandatory []string
	// Disable, Hide and Check hold the per-field conditions of each facet.
	Disable Conditions
	Hide    Conditions
	Check   Conditions
	// Tooltips by field name.
	Tooltips map[string]string
	// Logger receives diagnostics.  Nil discards them.
	Logger *log.Logger
	// Observer receives engine activity.
	Observer Observer
	// Strict turns configuration warnings (unknown names, nil predicates)
	// into construction errors.
	Strict bool
}

// Form is an interactive form built from a Spec.  Field facets follow their
// conditions whenever any value changes.
type Form struct {
	ID       string
	title    string
	maxWidth int
	root     *Node
	flat     *table
	engine   *engine
	logger   *log.Logger
	observer Observer

	mandatory map[string]bool
}

// New builds a form.  It fails if a row group is malformed or a mandatory
// field does not exist.
func New(spec Spec, opts Options) (*Form, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	root, flat, dupes, err := build(spec, opts.Title, opts.Collapse, false)
	if err != nil {
		return nil, err
	}
	for _, name := range dupes {
		logger.Printf("Warning: field %s is defined more than once; the last definition is used", name)
	}

	f := &Form{
		ID:        uuid.New().String(),
		title:     opts.Title,
		maxWidth:  opts.MaxWidth,
		root:      root,
		flat:      flat,
		logger:    logger,
		mandatory: make(map[string]bool),
	}
	if f.maxWidth <= 0 {
		f.maxWidth = DefaultMaxWidth
	}

	for _, name := range opts.Mandatory {
		c, ok := flat.get(name)
		if !ok {
			return nil, fmt.Errorf("mandatory field: %w: %s", ErrUnknownField, name)
		}
		if !f.mandatory[name] {
			c.Label += MandatoryMarker
		}
		f.mandatory[name] = true
	}

	f.engine = newEngine(flat, logger, opts.Observer)
	f.observer = f.engine.observer
	for _, fc := range []struct {
		conds Conditions
		facet Facet
	}{
		{opts.Disable, FacetDisable},
		{opts.Hide, FacetHide},
		{opts.Check, FacetCheck},
	} {
		if err := f.engine.register(fc.conds, fc.facet, opts.Strict); err != nil {
			f.engine.close()
			return nil, err
		}
	}

	// Hidden state last: it decides whether emptiness matters at all.
	f.Reevaluate(FacetCheck)
	f.Reevaluate(FacetDisable)
	f.Reevaluate(FacetHide)

	if err := f.setTooltips(opts.Tooltips, opts.Strict); err != nil {
		f.engine.close()
		return nil, err
	}
	return f, nil
}

func (f *Form) setTooltips(tooltips map[string]string, strict bool) error {
	names := make([]string, 0, len(tooltips))
	for name := range tooltips {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c, ok := f.flat.get(name)
		if !ok {
			if strict {
				return fmt.Errorf("tooltip: %w: %s", ErrUnknownField, name)
			}
			f.logger.Printf("Warning: %s is not a valid key in the form", name)
			continue
		}
		c.Tooltip = tooltips[name]
	}
	return nil
}

// Title returns the form title.
func (f *Form) Title() string {
	return f.title
}

// MaxWidth returns the maximum width of the form in pixels.
func (f *Form) MaxWidth() int {
	return f.maxWidth
}

// Root returns the root of the form tree.
func (f *Form) Root() *Node {
	return f.root
}

// Names returns the field names in rendered order.
func (f *Form) Names() []string {
	names := make([]string, len(f.flat.order))
	copy(names, f.flat.order)
	return names
}

// Control returns the control for a field.
func (f *Form) Control(name string) (*Control, bool) {
	return f.flat.get(name)
}

// IsMandatory reports whether a field is mandatory.
func (f *Form) IsMandatory(name string) bool {
	return f.mandatory[name]
}

// Reevaluate runs the conditions of a facet against the current values.
// Running it again without a value change yields the same state.
func (f *Form) Reevaluate(facet Facet) {
	f.engine.reevaluate(facet)
}

// Values returns the value of every field that has one, regardless of its
// facet state.
func (f *Form) Values() Values {
	return f.engine.snapshot()
}

// SetValues assigns values by field name.  Row entries take a parallel list
// of values and nested groups are applied field by field.  Unknown names and
// mismatched types are reported and skipped.  Facets are re-evaluated once
// after all values are applied.
func (f *Form) SetValues(values Spec) {
	f.engine.batch(func() {
		for _, entry := range values {
			switch sub, isSpec := entry.Value.(Spec); {
			case entry.IsRow():
				for idx, name := range entry.Row {
					if idx >= len(entry.Values) {
						break
					}
					f.setKey(name, entry.Values[idx])
				}
			case isSpec:
				for _, subentry := range sub {
					f.setKey(subentry.Name, subentry.Value)
				}
			default:
				f.setKey(entry.Name, entry.Value)
			}
		}
	})
}

// Set assigns a single value.
func (f *Form) Set(name string, value interface{}) {
	f.SetValues(Spec{Field(name, value)})
}

func (f *Form) setKey(name string, value interface{}) {
	c, ok := f.flat.get(name)
	if !ok {
		f.logger.Printf("Warning: %s is not a valid key in the form", name)
		return
	}
	if choices, ok := asChoices(value); ok {
		if len(choices) == 0 {
			return
		}
		value = choices[0]
	}
	if !c.Kind.HasValue() {
		if value != nil {
			f.logger.Printf("Warning: %s is not a valid widget", name)
		}
		return
	}
	if err := c.SetValue(value); err != nil {
		f.logger.Printf("Warning: %v", err)
	}
}

// SetString parses a raw string for the field's value type and assigns it.
func (f *Form) SetString(name, raw string) error {
	c, ok := f.flat.get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	value, err := parseRaw(c, raw)
	if err != nil {
		return err
	}
	var setErr error
	f.engine.batch(func() {
		setErr = c.SetValue(value)
	})
	return setErr
}

// CheckAndReturnValues validates the form and returns the values of every
// field that is neither disabled nor hidden.  Empty mandatory fields and
// failed checks reject the whole form with a *RejectedError.
func (f *Form) CheckAndReturnValues() (Values, error) {
	snapshot := f.engine.snapshot()
	out := make(Values, len(snapshot))
	rejected := &RejectedError{Form: f.title}

	f.flat.each(func(c *Control) {
		if !c.Kind.HasValue() {
			return
		}
		value := c.Value()

		if value == "" && f.mandatory[c.Name] {
			f.logger.Printf("Mandatory field '%s' is empty.", c.Name)
			c.setMissing(true)
			rejected.Missing = append(rejected.Missing, c.Name)
		} else {
			c.setMissing(false)
		}

		valid := true
		if p, ok := f.engine.predicate(FacetCheck, c); ok {
			result, err := callPredicate(p, snapshot.copy())
			if err != nil {
				f.logger.Printf("Error updating %s state for %s: %v", FacetCheck, c.Label, err)
				f.observer.PredicateFault(FacetCheck, c.Name)
				result = false
			}
			valid = result
			c.setInvalid(!valid)
		}
		if !valid {
			f.logger.Printf("Invalid input in field '%s'.", c.Name)
			rejected.Invalid = append(rejected.Invalid, c.Name)
		}

		if !(c.Disabled() || c.Hidden()) {
			out[c.Name] = value
		}
	})

	if len(rejected.Missing) > 0 || len(rejected.Invalid) > 0 {
		f.observer.Rejected(len(rejected.Missing), len(rejected.Invalid))
		return nil, rejected
	}
	return out, nil
}

// FieldState is the facet state of one field, for hosts that mirror it.
type FieldState struct {
	Name     string      `json:"name"`
	Value    interface{} `json:"value"`
	Disabled bool        `json:"disabled"`
	Hidden   bool        `json:"hidden"`
	Invalid  bool        `json:"invalid"`
	Missing  bool        `json:"missing"`
	Classes  []string    `json:"classes"`
}

// State returns the facet state of every field in rendered order.  Secret
// values are left out.
func (f *Form) State() []FieldState {
	states := make([]FieldState, 0, len(f.flat.order))
	f.flat.each(func(c *Control) {
		value := c.Value()
		if c.Kind.Secret() {
			value = nil
		}
		states = append(states, FieldState{
			Name:     c.Name,
			Value:    value,
			Disabled: c.Disabled(),
			Hidden:   c.Hidden(),
			Invalid:  c.Invalid(),
			Missing:  c.Missing(),
			Classes:  c.Classes(),
		})
	})
	return states
}

// Close detaches the form's value-change subscriptions.
func (f *Form) Close() {
	f.engine.close()
}
