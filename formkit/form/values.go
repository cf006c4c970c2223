package form

import (
	"fmt"
	"strconv"
	"strings"
)

// Values is a snapshot of field values keyed by field name.  Predicates get
// a fresh copy on every evaluation.
type Values map[string]interface{}

// Bool returns the named value if it is a bool, false otherwise.
func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Int returns the named value if it is an int, 0 otherwise.
func (v Values) Int(name string) int {
	n, _ := v[name].(int)
	return n
}

// Float returns the named value as a float64.  Ints are converted.
func (v Values) Float(name string) float64 {
	switch f := v[name].(type) {
	case float64:
		return f
	case int:
		return float64(f)
	}
	return 0
}

// String returns the named value if it is a string, "" otherwise.
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Has reports whether the snapshot contains the named field.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Strings formats every value for display or storage.
func (v Values) Strings() map[string]string {
	out := make(map[string]string, len(v))
	for k, val := range v {
		out[k] = fmt.Sprint(val)
	}
	return out
}

// parseRaw converts a raw host string (as posted by a browser) to the value
// type of the control.
func parseRaw(c *Control, raw string) (interface{}, error) {
	switch c.Kind {
	case Checkbox:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "on", "true", "1", "yes":
			return true, nil
		case "", "off", "false", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("%w for %s: %q is not a boolean", ErrTypeMismatch, c.Name, raw)
	case IntText:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %q is not an integer", ErrTypeMismatch, c.Name, raw)
		}
		return n, nil
	case FloatText:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %q is not a number", ErrTypeMismatch, c.Name, raw)
		}
		return f, nil
	case Button, InfoLabel:
		return nil, fmt.Errorf("%s: %s control has no value", c.Name, c.Kind)
	}
	return raw, nil
}
