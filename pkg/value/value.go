// Package value implements the WarPy runtime value model.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the member of the value union.
type Kind int

const (
	KindAbsent Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Value is the interface for all WarPy runtime values.
// The sealed marker restricts implementations to this package.
type Value interface {
	Kind() Kind
	value() // sealed marker
}

// Absent is the value of an undeclared variable or of a command that
// returned nothing.
type Absent struct{}

func (Absent) Kind() Kind { return KindAbsent }
func (Absent) value()     {}

// Int represents an integer value.
type Int struct {
	Value int64
}

func (Int) Kind() Kind { return KindInt }
func (Int) value()     {}

// Float represents a floating-point value.
type Float struct {
	Value float64
}

func (Float) Kind() Kind { return KindFloat }
func (Float) value()     {}

// Str represents a string value.
type Str struct {
	Value string
}

func (Str) Kind() Kind { return KindString }
func (Str) value()     {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// NewAbsent creates the absent value.
func NewAbsent() Value {
	return Absent{}
}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewFloat creates a floating-point value.
func NewFloat(f float64) Value {
	return Float{Value: f}
}

// NewString creates a string value.
func NewString(s string) Value {
	return Str{Value: s}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// IsAbsent reports whether v is absent. A nil Value counts as absent.
func IsAbsent(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Absent)
	return ok
}

// KindOf returns the kind of v, treating nil as absent.
func KindOf(v Value) Kind {
	if v == nil {
		return KindAbsent
	}
	return v.Kind()
}

// Truthiness returns the boolean interpretation of a value.
// absent, false, 0, 0.0 and "" are falsy; everything else is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return val.Value
	case Int:
		return val.Value != 0
	case Float:
		return val.Value != 0
	case Str:
		return val.Value != ""
	default:
		return false
	}
}

// String renders v the way str() does.
func String(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(val.Value, 10)
	case Float:
		return formatFloat(val.Value)
	case Str:
		return val.Value
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	default:
		return "undefined"
	}
}

// formatFloat prints the shortest round-trip form; whole numbers keep ".0"
// so floats stay distinguishable from ints.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseNumeric converts numeric text to an Int, or to a Float when the text
// contains a decimal point. Surrounding whitespace is ignored. Only an
// optional sign, digits and an optional fraction are accepted; exponents,
// hex forms, underscores and special values are not.
func ParseNumeric(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	isFloat, ok := scanNumeric(s)
	if !ok {
		return nil, false
	}
	if isFloat {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return NewFloat(f), true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return NewInt(n), true
}

// scanNumeric matches [+-]?digits(.digits)? and reports whether the text has
// a fraction.
func scanNumeric(s string) (isFloat, ok bool) {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if !allDigits(intPart) || (hasDot && !allDigits(frac)) {
		return false, false
	}
	return hasDot, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ToInt converts a range bound to an integer: ints as-is, floats truncated
// toward zero, numeric strings parsed as base-10 integers.
func ToInt(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int:
		return val.Value, true
	case Float:
		if math.IsNaN(val.Value) || val.Value >= math.MaxInt64 || val.Value < math.MinInt64 {
			return 0, false
		}
		return int64(val.Value), true
	case Str:
		n, err := strconv.ParseInt(strings.TrimSpace(val.Value), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
