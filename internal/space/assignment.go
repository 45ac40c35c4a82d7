package space

import "math"

// Value is a parameter value. Values are numbers (int64 or float64),
// strings, or bools. JSON round-trips turn all numbers into float64; the
// typed accessors below absorb that.
type Value = any

// Assignment maps parameter names to values conforming to a Space.
type Assignment map[string]Value

// Int returns the named value as an int64. Returns 0, false when absent or
// non-numeric.
func (a Assignment) Int(name string) (int64, bool) {
	f, ok := asFloat(a[name])
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// Float returns the named value as a float64.
func (a Assignment) Float(name string) (float64, bool) {
	return asFloat(a[name])
}

// String returns the named value as a string.
func (a Assignment) String(name string) (string, bool) {
	s, ok := a[name].(string)
	return s, ok
}

// Clone returns a shallow copy of the assignment. Values are immutable
// scalars, so a shallow copy is a full copy.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func asFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

func valueEqual(a, b Value) bool {
	fa, aok := asFloat(a)
	fb, bok := asFloat(b)
	if aok && bok {
		return fa == fb
	}
	return a == b
}
