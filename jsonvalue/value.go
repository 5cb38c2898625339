// Package jsonvalue is the in-memory JSON value model shared by the parser,
// the formatter, the streaming writer and the record mapper.
//
// A Value is a small tagged union: Null, Bool, Int (int64), Float (finite
// float64), String, Array, Object. The zero Value is "no value", which is
// distinct from Null: storing the zero Value under an object key removes the
// key, while storing Null keeps it.
//
// Containers are mutable and owned by exactly one parent. Nothing in this
// package prevents a caller from inserting a container into its own subtree;
// such trees are not valid input to the formatter, which bounds its recursion
// and reports NestingTooDeep instead of looping.
//
// Values are not safe for concurrent mutation.
package jsonvalue

import (
	"math"
	"strings"

	"github.com/lattice-substrate/quickstore/jsonnum"
	"github.com/lattice-substrate/quickstore/qserr"
)

// Kind identifies the type of a JSON value.
type Kind int

const (
	// KindInvalid is the kind of the zero Value ("no value").
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindNull:    "null",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindArray:   "array",
	KindObject:  "object",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a JSON value.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  *Array
	obj  *Object
}

// Null is the explicit JSON null.
var Null = Value{kind: KindNull}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value. NaN and ±Inf are rejected with
// InvalidNumber.
func Float(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, qserr.Newf(qserr.InvalidNumber, "JSON does not allow non-finite numbers")
	}
	return Value{kind: KindFloat, f: f}, nil
}

// MustFloat is like Float but panics on a non-finite argument.
func MustFloat(f float64) Value {
	v, err := Float(f)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// ObjectValue wraps o. A nil o yields the zero Value.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Value{}
	}
	return Value{kind: KindObject, obj: o}
}

// ArrayValue wraps a. A nil a yields the zero Value.
func ArrayValue(a *Array) Value {
	if a == nil {
		return Value{}
	}
	return Value{kind: KindArray, arr: a}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value (including Null).
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsNull reports whether v is Null or no value.
func (v Value) IsNull() bool { return v.kind == KindNull || v.kind == KindInvalid }

// Bool returns v as a bool. Strings "true" and "false" are accepted in any case.
func (v Value) Bool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindString:
		if strings.EqualFold(v.s, "true") {
			return true, nil
		}
		if strings.EqualFold(v.s, "false") {
			return false, nil
		}
	}
	return false, mismatch(v, "a bool")
}

// Int64 returns v as an int64. Floats are truncated toward zero; strings must
// be base-10 integers.
func (v Value) Int64() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if v.f < math.MinInt64 || v.f >= math.MaxInt64 {
			return 0, mismatch(v, "a long")
		}
		return int64(v.f), nil
	case KindString:
		i, err := jsonnum.ParseInteger(v.s)
		if err == nil {
			return i, nil
		}
	}
	return 0, mismatch(v, "a long")
}

// Int returns v as an int constrained to the 32-bit signed range.
func (v Value) Int() (int, error) {
	i, err := v.Int64()
	if err != nil || i < math.MinInt32 || i > math.MaxInt32 {
		return 0, mismatch(v, "an int")
	}
	return int(i), nil
}

// Float64 returns v as a float64. Strings are parsed with the decimal grammar.
func (v Value) Float64() (float64, error) {
	switch v.kind {
	case KindInt:
		return float64(v.i), nil
	case KindFloat:
		return v.f, nil
	case KindString:
		f, err := jsonnum.ParseDecimal(v.s)
		if err == nil {
			return f, nil
		}
	}
	return 0, mismatch(v, "a number")
}

// Str returns the string held by v. No coercion is applied.
func (v Value) Str() (string, error) {
	if v.kind == KindString {
		return v.s, nil
	}
	return "", mismatch(v, "a string")
}

// Array returns the array held by v.
func (v Value) Array() (*Array, error) {
	if v.kind == KindArray {
		return v.arr, nil
	}
	return nil, mismatch(v, "an array")
}

// Object returns the object held by v.
func (v Value) Object() (*Object, error) {
	if v.kind == KindObject {
		return v.obj, nil
	}
	return nil, mismatch(v, "an object")
}

// Text returns the plain text of a scalar: the string itself for strings,
// "true"/"false", "null", or the number text. Containers and no value
// return false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindBool:
		if v.b {
			return "true", true
		}
		return "false", true
	case KindNull:
		return "null", true
	case KindInt:
		return jsonnum.FormatInt(v.i), true
	case KindFloat:
		s, err := jsonnum.FormatDouble(v.f)
		return s, err == nil
	}
	return "", false
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		return ArrayValue(v.arr.Clone())
	case KindObject:
		return ObjectValue(v.obj.Clone())
	}
	return v
}

func mismatch(v Value, want string) error {
	return qserr.Newf(qserr.TypeMismatch, "%s value is not %s", v.kind, want)
}
