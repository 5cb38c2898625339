package jsonvalue

import (
	"sort"
	"strconv"

	"github.com/lattice-substrate/quickstore/qserr"
)

// MaxDepth bounds recursion over value trees (Wrap, Equal and the formatter).
const MaxDepth = 1000

// Object is an unordered collection of string keys mapped to values. Keys are
// iterated in byte-wise sorted order. The zero Object is empty and ready to use.
type Object struct {
	m map[string]Value
}

// set stores v under key, allocating the map on first use.
func (o *Object) set(key string, v Value) {
	if o.m == nil {
		o.m = make(map[string]Value)
	}
	o.m[key] = v
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{m: make(map[string]Value)}
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.m) }

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.m[key]
	return ok
}

// IsNull reports whether key is absent or mapped to Null.
func (o *Object) IsNull(key string) bool {
	return o.m[key].IsNull()
}

// Keys returns the keys in sorted order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.m))
	for k := range o.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Names returns the keys as an array of strings, or nil when the object is
// empty.
func (o *Object) Names() *Array {
	if len(o.m) == 0 {
		return nil
	}
	a := NewArray()
	for _, k := range o.Keys() {
		a.Append(String(k))
	}
	return a
}

// Get returns the value for key, or a KeyNotFound error.
func (o *Object) Get(key string) (Value, error) {
	v, ok := o.m[key]
	if !ok {
		return Value{}, qserr.Newf(qserr.KeyNotFound, "key %q not found", key)
	}
	return v, nil
}

// Opt returns the value for key and whether it was present.
func (o *Object) Opt(key string) (Value, bool) {
	v, ok := o.m[key]
	return v, ok
}

// GetBool returns the value for key as a bool.
func (o *Object) GetBool(key string) (bool, error) {
	v, err := o.Get(key)
	if err != nil {
		return false, err
	}
	b, err := v.Bool()
	if err != nil {
		return false, keyMismatch(key, err)
	}
	return b, nil
}

// GetInt returns the value for key as an int in the 32-bit range.
func (o *Object) GetInt(key string) (int, error) {
	v, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	i, err := v.Int()
	if err != nil {
		return 0, keyMismatch(key, err)
	}
	return i, nil
}

// GetLong returns the value for key as an int64.
func (o *Object) GetLong(key string) (int64, error) {
	v, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	i, err := v.Int64()
	if err != nil {
		return 0, keyMismatch(key, err)
	}
	return i, nil
}

// GetDouble returns the value for key as a float64.
func (o *Object) GetDouble(key string) (float64, error) {
	v, err := o.Get(key)
	if err != nil {
		return 0, err
	}
	f, err := v.Float64()
	if err != nil {
		return 0, keyMismatch(key, err)
	}
	return f, nil
}

// GetString returns the string for key. Non-string values are a TypeMismatch.
func (o *Object) GetString(key string) (string, error) {
	v, err := o.Get(key)
	if err != nil {
		return "", err
	}
	s, err := v.Str()
	if err != nil {
		return "", keyMismatch(key, err)
	}
	return s, nil
}

// GetArray returns the array for key.
func (o *Object) GetArray(key string) (*Array, error) {
	v, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	a, err := v.Array()
	if err != nil {
		return nil, keyMismatch(key, err)
	}
	return a, nil
}

// GetObject returns the object for key.
func (o *Object) GetObject(key string) (*Object, error) {
	v, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	obj, err := v.Object()
	if err != nil {
		return nil, keyMismatch(key, err)
	}
	return obj, nil
}

// OptBool is OptBoolOr(key, false).
func (o *Object) OptBool(key string) bool { return o.OptBoolOr(key, false) }

// OptBoolOr returns the bool for key, or def when absent or not coercible.
func (o *Object) OptBoolOr(key string, def bool) bool {
	b, err := o.m[key].Bool()
	if err != nil {
		return def
	}
	return b
}

// OptInt is OptIntOr(key, 0).
func (o *Object) OptInt(key string) int { return o.OptIntOr(key, 0) }

// OptIntOr returns the int for key, or def when absent or not coercible.
func (o *Object) OptIntOr(key string, def int) int {
	i, err := o.m[key].Int()
	if err != nil {
		return def
	}
	return i
}

// OptLong is OptLongOr(key, 0).
func (o *Object) OptLong(key string) int64 { return o.OptLongOr(key, 0) }

// OptLongOr returns the int64 for key, or def when absent or not coercible.
func (o *Object) OptLongOr(key string, def int64) int64 {
	i, err := o.m[key].Int64()
	if err != nil {
		return def
	}
	return i
}

// OptDouble is OptDoubleOr(key, 0).
func (o *Object) OptDouble(key string) float64 { return o.OptDoubleOr(key, 0) }

// OptDoubleOr returns the float64 for key, or def when absent or not coercible.
func (o *Object) OptDoubleOr(key string, def float64) float64 {
	f, err := o.m[key].Float64()
	if err != nil {
		return def
	}
	return f
}

// OptString is OptStringOr(key, "").
func (o *Object) OptString(key string) string { return o.OptStringOr(key, "") }

// OptStringOr returns the text of the scalar under key. Null, absent keys and
// containers yield def.
func (o *Object) OptStringOr(key string, def string) string {
	v := o.m[key]
	if v.IsNull() {
		return def
	}
	s, ok := v.Text()
	if !ok {
		return def
	}
	return s
}

// OptArray returns the array for key, or nil.
func (o *Object) OptArray(key string) *Array {
	a, _ := o.m[key].Array()
	return a
}

// OptObject returns the object for key, or nil.
func (o *Object) OptObject(key string) *Object {
	obj, _ := o.m[key].Object()
	return obj
}

// Put stores v under key. The zero Value removes the key.
func (o *Object) Put(key string, v Value) *Object {
	if !v.IsValid() {
		delete(o.m, key)
		return o
	}
	o.set(key, v)
	return o
}

// PutAny wraps x with Wrap and stores it under key. A nil x removes the key.
func (o *Object) PutAny(key string, x any) error {
	if x == nil {
		delete(o.m, key)
		return nil
	}
	v, err := Wrap(x)
	if err != nil {
		return err
	}
	o.Put(key, v)
	return nil
}

// PutOnce stores v under key unless key already holds a value.
func (o *Object) PutOnce(key string, v Value) error {
	if !v.IsValid() {
		return nil
	}
	if _, ok := o.m[key]; ok {
		return qserr.Newf(qserr.DuplicateKey, "duplicate key %q", key)
	}
	o.set(key, v)
	return nil
}

// PutOpt stores v under key only when v holds a value.
func (o *Object) PutOpt(key string, v Value) *Object {
	if v.IsValid() {
		o.set(key, v)
	}
	return o
}

// Accumulate adds v under key. An absent key receives v itself, as with Put;
// a present array gets v appended; any other present value is replaced by a
// two-element array.
func (o *Object) Accumulate(key string, v Value) error {
	if !v.IsValid() {
		return qserr.Newf(qserr.TypeMismatch, "cannot accumulate no value under %q", key)
	}
	cur, ok := o.m[key]
	switch {
	case !ok:
		o.set(key, v)
	case cur.kind == KindArray:
		cur.arr.Append(v)
	default:
		o.set(key, ArrayValue(NewArray(cur, v)))
	}
	return nil
}

// Append adds v to the array under key, creating it when absent. A present
// non-array value is a TypeMismatch.
func (o *Object) Append(key string, v Value) error {
	if !v.IsValid() {
		return qserr.Newf(qserr.TypeMismatch, "cannot append no value under %q", key)
	}
	cur, ok := o.m[key]
	switch {
	case !ok:
		o.set(key, ArrayValue(NewArray(v)))
	case cur.kind == KindArray:
		cur.arr.Append(v)
	default:
		return qserr.Newf(qserr.TypeMismatch, "value under %q is %s, not an array", key, cur.kind)
	}
	return nil
}

// Increment adds one to the number under key. An absent key becomes Int(1).
func (o *Object) Increment(key string) error {
	cur, ok := o.m[key]
	if !ok {
		o.set(key, Int(1))
		return nil
	}
	switch cur.kind {
	case KindInt:
		o.set(key, Int(cur.i + 1))
	case KindFloat:
		v, err := Float(cur.f + 1)
		if err != nil {
			return err
		}
		o.set(key, v)
	default:
		return qserr.Newf(qserr.TypeMismatch, "unable to increment %s value under %q", cur.kind, key)
	}
	return nil
}

// Remove deletes key and returns the value it held.
func (o *Object) Remove(key string) (Value, bool) {
	v, ok := o.m[key]
	if ok {
		delete(o.m, key)
	}
	return v, ok
}

// Subset returns a deep copy of the named keys that are present.
func (o *Object) Subset(names ...string) *Object {
	out := NewObject()
	for _, n := range names {
		if v, ok := o.m[n]; ok {
			out.m[n] = v.Clone()
		}
	}
	return out
}

// ToArray returns the values for the given names, in order, with Null for
// absent keys. It returns nil when names is empty.
func (o *Object) ToArray(names *Array) *Array {
	if names == nil || names.Len() == 0 {
		return nil
	}
	out := NewArray()
	for _, n := range names.vs {
		s, ok := n.Text()
		if !ok {
			out.Append(Null)
			continue
		}
		v, present := o.m[s]
		if !present {
			v = Null
		}
		out.Append(v)
	}
	return out
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	out := &Object{m: make(map[string]Value, len(o.m))}
	for k, v := range o.m {
		out.m[k] = v.Clone()
	}
	return out
}

func keyMismatch(key string, err error) error {
	return qserr.Wrap(qserr.TypeMismatch, -1, "key "+strconv.Quote(key), err)
}
