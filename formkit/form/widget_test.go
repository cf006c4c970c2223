package form

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferKinds(t *testing.T) {
	path := filepath.Join("input", "atmos", "model.mod")

	tests := []struct {
		name        string
		field       string
		value       interface{}
		kind        Kind
		def         interface{}
		placeholder string
		text        string
	}{
		{name: "nil is a button", field: "run", value: nil, kind: Button},
		{name: "true is a checkbox", field: "flag", value: true, kind: Checkbox, def: true},
		{name: "false is a checkbox", field: "flag", value: false, kind: Checkbox, def: false},
		{name: "int", field: "n", value: 3, kind: IntText, def: 3},
		{name: "int64 normalises", field: "n", value: int64(7), kind: IntText, def: 7},
		{name: "uint8 normalises", field: "n", value: uint8(2), kind: IntText, def: 2},
		{name: "uint64 in range", field: "n", value: uint64(math.MaxInt), kind: IntText, def: math.MaxInt},
		{name: "uint64 overflow", field: "n", value: uint64(math.MaxUint64), kind: InfoLabel, text: "Unsupported type: uint64"},
		{name: "uint overflow", field: "n", value: uint(math.MaxUint), kind: InfoLabel, text: "Unsupported type: uint"},
		{name: "float", field: "x", value: 1.25, kind: FloatText, def: 1.25},
		{name: "float32 normalises", field: "x", value: float32(0.5), kind: FloatText, def: 0.5},
		{name: "path", field: "atmos_file", value: path, kind: FileInput, def: "", placeholder: path},
		{name: "path wins over password name", field: "password_file", value: path, kind: FileInput, def: "", placeholder: path},
		{name: "password", field: "User_Password", value: "secret", kind: Password, def: "", placeholder: "secret"},
		{name: "password wins over ellipsis", field: "password", value: "type...", kind: Password, def: "", placeholder: "type..."},
		{name: "ellipsis", field: "notes", value: "Notes...", kind: TextArea, def: "", placeholder: "Notes"},
		{name: "text", field: "name", value: "ba_test1", kind: TextInput, def: "", placeholder: "ba_test1"},
		{name: "empty text", field: "name", value: "", kind: TextInput, def: ""},
		{name: "choices", field: "format", value: Choices{"Marcs", "Stagger"}, kind: Dropdown, def: "Marcs"},
		{name: "string slice", field: "format", value: []string{"radau"}, kind: Dropdown, def: "radau"},
		{name: "empty choices", field: "format", value: Choices{}, kind: InfoLabel, text: "(Empty list - no options)"},
		{name: "float named password", field: "password_amount", value: 2.5, kind: FloatText, def: 2.5},
		{name: "unsupported", field: "m", value: map[string]int{}, kind: InfoLabel, text: "Unsupported type: map[string]int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Infer(tt.field, tt.value)
			assert.Equal(t, tt.field, w.Name)
			assert.Equal(t, tt.kind, w.Kind)
			assert.Equal(t, tt.def, w.Default)
			assert.Equal(t, tt.placeholder, w.Placeholder)
			assert.Equal(t, tt.text, w.Text)
		})
	}
}

func TestInferBoolIsNeverInt(t *testing.T) {
	for _, v := range []bool{true, false} {
		w := Infer("flag", v)
		assert.Equal(t, Checkbox, w.Kind)
		assert.IsType(t, true, w.Default)
	}
}

func TestFloatStep(t *testing.T) {
	tests := []struct {
		value float64
		step  float64
	}{
		{1.5, 0.1},
		{2.0, 1},
		{1.25, 0.01},
		{-1.0, 1},
		{1e-3, 0.001},
		{1e5, 1},
		{4200.125, 0.001},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.step, FloatStep(tt.value), 1e-12, "step for %v", tt.value)
		assert.InDelta(t, tt.step, Infer("x", tt.value).Step, 1e-12, "inferred step for %v", tt.value)
	}
}

func TestKindHasValue(t *testing.T) {
	for _, k := range []Kind{Checkbox, IntText, FloatText, FileInput, Password, TextArea, TextInput, Dropdown} {
		assert.True(t, k.HasValue(), "%s", k)
	}
	assert.False(t, Button.HasValue())
	assert.False(t, InfoLabel.HasValue())
}
