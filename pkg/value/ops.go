package value

import (
	"errors"
	"fmt"
	"math"
)

// Operator failures. Callers attach source spans and error kinds.
var (
	ErrDivisionByZero  = errors.New("division by zero")
	ErrModuloByZero    = errors.New("modulo by zero")
	ErrIntegerOverflow = errors.New("integer overflow")
)

// OperandError reports an operator applied to unsupported operand kinds.
type OperandError struct {
	Op    string
	Left  Kind
	Right Kind
}

func (e *OperandError) Error() string {
	return fmt.Sprintf("unsupported operand kinds for '%s': %s and %s", e.Op, e.Left, e.Right)
}

// Arith applies one of + - * / % to two values.
func Arith(op string, a, b Value) (Value, error) {
	if op == "+" {
		if as, ok := a.(Str); ok {
			if bs, ok := b.(Str); ok {
				return NewString(as.Value + bs.Value), nil
			}
		}
	}

	ai, aInt := a.(Int)
	bi, bInt := b.(Int)
	if aInt && bInt {
		return intArith(op, ai.Value, bi.Value)
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, &OperandError{Op: op, Left: KindOf(a), Right: KindOf(b)}
	}
	return floatArith(op, af, bf)
}

func intArith(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		c := a + b
		if (a^c)&(b^c) < 0 {
			return nil, ErrIntegerOverflow
		}
		return NewInt(c), nil
	case "-":
		c := a - b
		if (a^b)&(a^c) < 0 {
			return nil, ErrIntegerOverflow
		}
		return NewInt(c), nil
	case "*":
		c := a * b
		if a != 0 && (c/a != b || (a == -1 && b == math.MinInt64)) {
			return nil, ErrIntegerOverflow
		}
		return NewInt(c), nil
	case "/":
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return NewFloat(float64(a) / float64(b)), nil
	case "%":
		if b == 0 {
			return nil, ErrModuloByZero
		}
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return NewInt(r), nil
	}
	return nil, fmt.Errorf("unknown arithmetic operator '%s'", op)
}

func floatArith(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return NewFloat(a + b), nil
	case "-":
		return NewFloat(a - b), nil
	case "*":
		return NewFloat(a * b), nil
	case "/":
		if b == 0 {
			return nil, ErrDivisionByZero
		}
		return NewFloat(a / b), nil
	case "%":
		if b == 0 {
			return nil, ErrModuloByZero
		}
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return NewFloat(r), nil
	}
	return nil, fmt.Errorf("unknown arithmetic operator '%s'", op)
}

// Negate applies unary minus.
func Negate(v Value) (Value, error) {
	switch val := v.(type) {
	case Int:
		if val.Value == math.MinInt64 {
			return nil, ErrIntegerOverflow
		}
		return NewInt(-val.Value), nil
	case Float:
		return NewFloat(-val.Value), nil
	}
	return nil, &OperandError{Op: "-", Left: KindOf(v), Right: KindOf(v)}
}

func asFloat(v Value) (float64, bool) {
	switch val := v.(type) {
	case Int:
		return float64(val.Value), true
	case Float:
		return val.Value, true
	}
	return 0, false
}

// Equal compares two values. Numbers compare numerically across int and
// float; other kinds are equal only to the same kind with the same content.
func Equal(a, b Value) bool {
	if af, ok := asFloat(a); ok {
		if ai, ok := a.(Int); ok {
			if bi, ok := b.(Int); ok {
				return ai.Value == bi.Value
			}
		}
		bf, ok := asFloat(b)
		return ok && af == bf
	}

	switch av := a.(type) {
	case Str:
		bv, ok := b.(Str)
		return ok && av.Value == bv.Value
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	}
	return IsAbsent(a) && IsAbsent(b)
}

// Compare applies one of == != < > <= >=. Ordering is defined for
// number/number and string/string pairs only.
func Compare(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return Equal(a, b), nil
	case "!=":
		return !Equal(a, b), nil
	}

	var c int
	if as, ok := a.(Str); ok {
		bs, ok := b.(Str)
		if !ok {
			return false, &OperandError{Op: op, Left: KindOf(a), Right: KindOf(b)}
		}
		c = compareOrdered(as.Value, bs.Value)
	} else {
		ai, aInt := a.(Int)
		bi, bInt := b.(Int)
		if aInt && bInt {
			c = compareOrdered(ai.Value, bi.Value)
		} else {
			af, aok := asFloat(a)
			bf, bok := asFloat(b)
			if !aok || !bok {
				return false, &OperandError{Op: op, Left: KindOf(a), Right: KindOf(b)}
			}
			if math.IsNaN(af) || math.IsNaN(bf) {
				return false, nil
			}
			c = compareOrdered(af, bf)
		}
	}

	switch op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, fmt.Errorf("unknown comparison operator '%s'", op)
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
