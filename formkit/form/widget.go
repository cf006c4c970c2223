package form

import (
	"fmt"
	"math"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
)

const (
	Button    Kind = "button"
	Checkbox  Kind = "checkbox"
	IntText   Kind = "int"
	FloatText Kind = "float"
	FileInput Kind = "file"
	Password  Kind = "password"
	TextArea  Kind = "textarea"
	TextInput Kind = "text"
	Dropdown  Kind = "dropdown"
	InfoLabel Kind = "label"
)

// Kind defines the type of input control a field is rendered as.
type Kind string

// HasValue reports whether controls of this kind hold a value.  Buttons and
// informational labels do not.
func (k Kind) HasValue() bool {
	return k != Button && k != InfoLabel
}

// Secret reports whether values of this kind are kept out of rendered pages,
// state messages and stored jobs.
func (k Kind) Secret() bool {
	return k == Password
}

// Choices is an ordered set of options for a dropdown field.  The first
// option is the default.
type Choices []string

// Widget is the declarative description of a single input, inferred from a
// field name and its default value.
type Widget struct {
	// Name of the field.  Used as key in the value map.
	Name string
	// Kind of input control.
	Kind Kind
	// Default value of the control.  Nil for kinds without a value.
	Default interface{}
	// Placeholder text for the string kinds.
	Placeholder string
	// Step for FloatText controls.
	Step float64
	// Options for Dropdown controls.
	Options []string
	// Text shown by InfoLabel controls.
	Text string
}

type inferRule struct {
	match func(name string, value interface{}) bool
	build func(name string, value interface{}) Widget
}

// inferRules is the ordered inference chain.  The string rules are syntactic
// and overlap, so the first match wins.
var inferRules = []inferRule{
	{
		match: func(_ string, v interface{}) bool { return v == nil },
		build: func(name string, _ interface{}) Widget {
			return Widget{Name: name, Kind: Button}
		},
	},
	{
		match: func(_ string, v interface{}) bool { _, ok := v.(bool); return ok },
		build: func(name string, v interface{}) Widget {
			return Widget{Name: name, Kind: Checkbox, Default: v}
		},
	},
	{
		match: func(_ string, v interface{}) bool { _, ok := asInt(v); return ok },
		build: func(name string, v interface{}) Widget {
			n, _ := asInt(v)
			return Widget{Name: name, Kind: IntText, Default: n}
		},
	},
	{
		match: func(_ string, v interface{}) bool { _, ok := asFloat(v); return ok },
		build: func(name string, v interface{}) Widget {
			f, _ := asFloat(v)
			return Widget{Name: name, Kind: FloatText, Default: f, Step: FloatStep(f)}
		},
	},
	{
		match: func(_ string, v interface{}) bool {
			s, ok := v.(string)
			return ok && strings.ContainsRune(s, filepath.Separator)
		},
		build: func(name string, v interface{}) Widget {
			return Widget{Name: name, Kind: FileInput, Default: "", Placeholder: v.(string)}
		},
	},
	{
		match: func(name string, v interface{}) bool {
			_, ok := v.(string)
			return ok && strings.Contains(strings.ToLower(name), "password")
		},
		build: func(name string, v interface{}) Widget {
			return Widget{Name: name, Kind: Password, Default: "", Placeholder: v.(string)}
		},
	},
	{
		match: func(_ string, v interface{}) bool {
			s, ok := v.(string)
			return ok && strings.HasSuffix(s, "...")
		},
		build: func(name string, v interface{}) Widget {
			return Widget{Name: name, Kind: TextArea, Default: "", Placeholder: strings.TrimSuffix(v.(string), "...")}
		},
	},
	{
		match: func(_ string, v interface{}) bool { _, ok := v.(string); return ok },
		build: func(name string, v interface{}) Widget {
			return Widget{Name: name, Kind: TextInput, Default: "", Placeholder: v.(string)}
		},
	},
	{
		match: func(_ string, v interface{}) bool { _, ok := asChoices(v); return ok },
		build: func(name string, v interface{}) Widget {
			opts, _ := asChoices(v)
			if len(opts) == 0 {
				return Widget{Name: name, Kind: InfoLabel, Text: "(Empty list - no options)"}
			}
			return Widget{Name: name, Kind: Dropdown, Default: opts[0], Options: opts}
		},
	},
}

// Infer maps a field name and its default value to a Widget.  Values of an
// unsupported type produce an InfoLabel naming the type.
//
// String defaults are placeholders: the control itself starts empty, so a
// mandatory string field is unfilled until the user types into it.
func Infer(name string, value interface{}) Widget {
	for _, rule := range inferRules {
		if rule.match(name, value) {
			return rule.build(name, value)
		}
	}
	return Widget{Name: name, Kind: InfoLabel, Text: fmt.Sprintf("Unsupported type: %T", value)}
}

// FloatStep returns the input step for a float default: 10^-d where d is the
// number of decimal places in the shortest representation of the value.
func FloatStep(value float64) float64 {
	return math.Pow10(-decimalPlaces(value))
}

func decimalPlaces(value float64) int {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0
	}
	s := strconv.FormatFloat(value, 'f', -1, 64)
	idx := strings.IndexByte(s, '.')
	if idx < 0 {
		return 0
	}
	return len(s) - idx - 1
}

// asInt converts the integer family to int.  Values int cannot hold are not
// integers for this purpose and fall through to the unsupported label.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	return 0, false
}

func asChoices(v interface{}) ([]string, bool) {
	switch c := v.(type) {
	case Choices:
		return []string(c), true
	case []string:
		return c, true
	}
	return nil, false
}

// normalize converts the integer and float families to int and float64 so
// values compare by kind rather than by exact Go type.
func normalize(v interface{}) interface{} {
	if n, ok := asInt(v); ok {
		return n
	}
	if f, ok := asFloat(v); ok {
		return f
	}
	return v
}

func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
