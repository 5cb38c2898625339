package jsonvalue

import (
	"strconv"

	"github.com/lattice-substrate/quickstore/qserr"
)

// Array is an ordered sequence of values.
type Array struct {
	vs []Value
}

// NewArray returns an array holding vs. Zero Values are stored as Null.
func NewArray(vs ...Value) *Array {
	a := &Array{vs: make([]Value, 0, len(vs))}
	for _, v := range vs {
		a.Append(v)
	}
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.vs) }

// Values returns the elements. The slice aliases the array storage.
func (a *Array) Values() []Value { return a.vs }

// Append adds v at the end. The zero Value is stored as Null.
func (a *Array) Append(v Value) *Array {
	if !v.IsValid() {
		v = Null
	}
	a.vs = append(a.vs, v)
	return a
}

// AppendAny wraps x with Wrap and appends it.
func (a *Array) AppendAny(x any) error {
	v, err := Wrap(x)
	if err != nil {
		return err
	}
	a.Append(v)
	return nil
}

// Set stores v at index i, padding with Null when i is past the end.
func (a *Array) Set(i int, v Value) error {
	if i < 0 {
		return qserr.Newf(qserr.KeyNotFound, "index %d not found", i)
	}
	if !v.IsValid() {
		v = Null
	}
	for len(a.vs) <= i {
		a.vs = append(a.vs, Null)
	}
	a.vs[i] = v
	return nil
}

// Remove deletes the element at i and returns it.
func (a *Array) Remove(i int) (Value, bool) {
	if i < 0 || i >= len(a.vs) {
		return Value{}, false
	}
	v := a.vs[i]
	a.vs = append(a.vs[:i], a.vs[i+1:]...)
	return v, true
}

// Get returns the element at i, or a KeyNotFound error when out of range.
func (a *Array) Get(i int) (Value, error) {
	if i < 0 || i >= len(a.vs) {
		return Value{}, qserr.Newf(qserr.KeyNotFound, "index %d not found", i)
	}
	return a.vs[i], nil
}

// Opt returns the element at i and whether it exists.
func (a *Array) Opt(i int) (Value, bool) {
	if i < 0 || i >= len(a.vs) {
		return Value{}, false
	}
	return a.vs[i], true
}

// IsNull reports whether the element at i is missing or Null.
func (a *Array) IsNull(i int) bool {
	v, _ := a.Opt(i)
	return v.IsNull()
}

func (a *Array) GetBool(i int) (bool, error) {
	v, err := a.Get(i)
	if err != nil {
		return false, err
	}
	b, err := v.Bool()
	if err != nil {
		return false, indexMismatch(i, err)
	}
	return b, nil
}

func (a *Array) GetInt(i int) (int, error) {
	v, err := a.Get(i)
	if err != nil {
		return 0, err
	}
	n, err := v.Int()
	if err != nil {
		return 0, indexMismatch(i, err)
	}
	return n, nil
}

func (a *Array) GetLong(i int) (int64, error) {
	v, err := a.Get(i)
	if err != nil {
		return 0, err
	}
	n, err := v.Int64()
	if err != nil {
		return 0, indexMismatch(i, err)
	}
	return n, nil
}

func (a *Array) GetDouble(i int) (float64, error) {
	v, err := a.Get(i)
	if err != nil {
		return 0, err
	}
	f, err := v.Float64()
	if err != nil {
		return 0, indexMismatch(i, err)
	}
	return f, nil
}

func (a *Array) GetString(i int) (string, error) {
	v, err := a.Get(i)
	if err != nil {
		return "", err
	}
	s, err := v.Str()
	if err != nil {
		return "", indexMismatch(i, err)
	}
	return s, nil
}

func (a *Array) GetArray(i int) (*Array, error) {
	v, err := a.Get(i)
	if err != nil {
		return nil, err
	}
	arr, err := v.Array()
	if err != nil {
		return nil, indexMismatch(i, err)
	}
	return arr, nil
}

func (a *Array) GetObject(i int) (*Object, error) {
	v, err := a.Get(i)
	if err != nil {
		return nil, err
	}
	obj, err := v.Object()
	if err != nil {
		return nil, indexMismatch(i, err)
	}
	return obj, nil
}

// OptString returns the text of the scalar at i, or def.
func (a *Array) OptString(i int, def string) string {
	v, _ := a.Opt(i)
	if v.IsNull() {
		return def
	}
	s, ok := v.Text()
	if !ok {
		return def
	}
	return s
}

// Clone returns a deep copy of a.
func (a *Array) Clone() *Array {
	out := &Array{vs: make([]Value, len(a.vs))}
	for i, v := range a.vs {
		out.vs[i] = v.Clone()
	}
	return out
}

func indexMismatch(i int, err error) error {
	return qserr.Wrap(qserr.TypeMismatch, -1, "index "+strconv.Itoa(i), err)
}
