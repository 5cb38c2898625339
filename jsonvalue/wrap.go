package jsonvalue

import (
	"math"
	"reflect"

	"github.com/lattice-substrate/quickstore/qserr"
)

// Wrap converts a loose Go value into a Value. Supported inputs are nil
// (Null), Value, *Object, *Array, bool, all integer and float kinds, string,
// and slices, arrays and string-keyed maps of supported values. Unsigned
// integers above MaxInt64 and non-finite floats are InvalidNumber; anything
// else is a TypeMismatch. Input must be acyclic; nesting beyond MaxDepth
// fails with NestingTooDeep.
func Wrap(x any) (Value, error) {
	return wrap(x, 0)
}

func wrap(x any, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, qserr.Newf(qserr.NestingTooDeep, "nesting depth exceeds %d", MaxDepth)
	}
	switch t := x.(type) {
	case nil:
		return Null, nil
	case Value:
		if !t.IsValid() {
			return Null, nil
		}
		return t, nil
	case *Object:
		if t == nil {
			return Null, nil
		}
		return ObjectValue(t), nil
	case *Array:
		if t == nil {
			return Null, nil
		}
		return ArrayValue(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case int32:
		return Int(int64(t)), nil
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, qserr.Newf(qserr.InvalidNumber, "unsigned value %d overflows int64", u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null, nil
		}
		return wrap(rv.Elem().Interface(), depth)
	case reflect.Slice:
		if rv.IsNil() {
			return Null, nil
		}
		return wrapSeq(rv, depth)
	case reflect.Array:
		return wrapSeq(rv, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, qserr.Newf(qserr.TypeMismatch, "map key type %s is not string", rv.Type().Key())
		}
		if rv.IsNil() {
			return Null, nil
		}
		o := NewObject()
		iter := rv.MapRange()
		for iter.Next() {
			v, err := wrap(iter.Value().Interface(), depth+1)
			if err != nil {
				return Value{}, err
			}
			o.Put(iter.Key().String(), v)
		}
		return ObjectValue(o), nil
	}
	return Value{}, qserr.Newf(qserr.TypeMismatch, "unsupported type %T", x)
}

func wrapSeq(rv reflect.Value, depth int) (Value, error) {
	a := &Array{vs: make([]Value, 0, rv.Len())}
	for i := 0; i < rv.Len(); i++ {
		v, err := wrap(rv.Index(i).Interface(), depth+1)
		if err != nil {
			return Value{}, err
		}
		a.Append(v)
	}
	return ArrayValue(a), nil
}
