package form

import (
	"errors"
	"fmt"
	"sort"
)

// Style classes applied to controls by the facets and by validation.
const (
	ClassDisabled = "ifk-widget-input-disabled"
	ClassError    = "ifk-widget-input-error"
	ClassMissing  = "ifk-widget-input-missing"
)

// ErrTypeMismatch is returned when a value of the wrong type is assigned to
// a control.
var ErrTypeMismatch = errors.New("type mismatch")

// ChangeFunc is called with the old and new value when a control's value
// changes.
type ChangeFunc func(old, new interface{})

// Control is the runtime instance of a Widget.  Its value is the single
// source of truth for the field; the facet flags are owned by the form's
// engine.
type Control struct {
	Widget
	// Label text, including the mandatory marker.
	Label string
	// Tooltip text shown next to the label.
	Tooltip string

	value    interface{}
	disabled bool
	hidden   bool
	invalid  bool
	missing  bool
	classes  map[string]bool

	subs     map[int]ChangeFunc
	nextSub  int
	handlers []func()
}

func newControl(w Widget) *Control {
	return &Control{
		Widget:  w,
		Label:   w.Name,
		value:   w.Default,
		classes: make(map[string]bool),
		subs:    make(map[int]ChangeFunc),
	}
}

// Value returns the current value, or nil for controls without a value.
func (c *Control) Value() interface{} {
	return c.value
}

// SetValue assigns a new value.  The value must have the control's value
// type, and for dropdowns be one of its options.  Subscribers are notified
// only if the value actually changed.
func (c *Control) SetValue(v interface{}) error {
	if !c.Kind.HasValue() {
		return fmt.Errorf("%s: %s control has no value", c.Name, c.Kind)
	}
	v = normalize(v)
	if typeName(v) != typeName(c.value) {
		return fmt.Errorf("%w for %s: expected %s, got %s", ErrTypeMismatch, c.Name, typeName(c.value), typeName(v))
	}
	if c.Kind == Dropdown && !contains(c.Options, v.(string)) {
		return fmt.Errorf("%s: %q is not one of %v", c.Name, v, c.Options)
	}
	if v == c.value {
		return nil
	}
	old := c.value
	c.value = v
	for _, id := range c.subIDs() {
		if fn, ok := c.subs[id]; ok {
			fn(old, v)
		}
	}
	return nil
}

// Subscribe registers fn for value changes.  The returned function cancels
// the subscription.
func (c *Control) Subscribe(fn ChangeFunc) (cancel func()) {
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() { delete(c.subs, id) }
}

func (c *Control) subIDs() []int {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// OnClick registers a handler for Button controls.
func (c *Control) OnClick(fn func()) {
	c.handlers = append(c.handlers, fn)
}

// Click runs the click handlers of a Button control.
func (c *Control) Click() {
	for _, fn := range c.handlers {
		fn()
	}
}

// Disabled reports whether the disable facet is set.
func (c *Control) Disabled() bool { return c.disabled }

// Hidden reports whether the hide facet is set.
func (c *Control) Hidden() bool { return c.hidden }

// Invalid reports whether the last check failed.
func (c *Control) Invalid() bool { return c.invalid }

// Missing reports whether the last validation found a mandatory field empty.
func (c *Control) Missing() bool { return c.missing }

func (c *Control) setDisabled(disabled bool) {
	c.disabled = disabled
	c.setClass(ClassDisabled, disabled)
}

func (c *Control) setHidden(hidden bool) {
	c.hidden = hidden
}

func (c *Control) setInvalid(invalid bool) {
	c.invalid = invalid
	c.setClass(ClassError, invalid)
}

func (c *Control) setMissing(missing bool) {
	c.missing = missing
	c.setClass(ClassMissing, missing)
}

func (c *Control) setClass(class string, on bool) {
	if on {
		c.classes[class] = true
	} else {
		delete(c.classes, class)
	}
}

// Classes returns the style classes currently applied to the input, sorted.
func (c *Control) Classes() []string {
	classes := make([]string, 0, len(c.classes))
	for class := range c.classes {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
