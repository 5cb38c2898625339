// Package mapper converts Go values to and from the envelope documents that
// quickstore keeps under each key.
//
// An envelope is a JSON object with a "type" of "primitive", "object" or
// "list" and a "class" naming the concrete type:
//
//	{"type":"primitive","class":"int","primitive":7}
//	{"type":"object","class":"point","data":{"x":1,"y":2}}
//	{"type":"list","value":[{"primitive":"a","class":"string"},{"class":"point","data":{...}}]}
//
// Primitives are string, int, int64, float64 and bool. Anything else must be
// a Record whose type name has been registered, or a slice of those.
package mapper

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/jsonwrite"
	"github.com/lattice-substrate/quickstore/qserr"
)

// Envelope types.
const (
	TypePrimitive = "primitive"
	TypeObject    = "object"
	TypeList      = "list"
)

// Primitive class identifiers.
const (
	ClassString  = "string"
	ClassInt     = "int"
	ClassInt64   = "int64"
	ClassFloat64 = "float64"
	ClassBool    = "bool"
)

// Reserved envelope keys.
const (
	keyType      = "type"
	keyClass     = "class"
	keyPrimitive = "primitive"
	keyData      = "data"
	keyValue     = "value"
)

// Record is a type that maps itself to the fields of an envelope's "data"
// object.
type Record interface {
	// TypeName is the class identifier stored in the envelope.
	TypeName() string
	// MarshalFields writes the record's key/value pairs. The enclosing
	// object is already open.
	MarshalFields(w *jsonwrite.Writer) error
	// UnmarshalFields populates the record from a decoded "data" object.
	UnmarshalFields(data *jsonvalue.Object) error
}

// Factory returns a new, empty Record for decoding.
type Factory func() Record

// Registry resolves class identifiers to record factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds name to f. Primitive class names are reserved, and each
// name may be registered once.
func (r *Registry) Register(name string, f Factory) error {
	if name == "" || f == nil {
		return qserr.Newf(qserr.TypeMismatch, "register: empty class name or nil factory")
	}
	if isPrimitiveClass(name) {
		return qserr.Newf(qserr.DuplicateKey, "register: class %q is a primitive class", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return qserr.Newf(qserr.DuplicateKey, "register: class %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

// MustRegister is Register that panics on error. It is meant for package
// initialization.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Classes returns the registered class identifiers.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

func (r *Registry) factory(name string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, qserr.Newf(qserr.TypeMismatch, "unknown class %q", name)
	}
	return f, nil
}

// Encode returns the envelope text for v. The text is compact and fits on
// one line.
func (r *Registry) Encode(v any) (string, error) {
	var sb strings.Builder
	w := jsonwrite.New(&sb)
	if err := r.encode(w, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Registry) encode(w *jsonwrite.Writer, v any) error {
	if v == nil {
		return qserr.Newf(qserr.TypeMismatch, "cannot store a nil value")
	}
	if class, ok := primitiveClass(v); ok {
		return writeEnvelope(w, TypePrimitive, func() error {
			return writePrimitive(w, class, v)
		})
	}
	if rec, ok := v.(Record); ok {
		return writeEnvelope(w, TypeObject, func() error {
			return r.writeRecord(w, rec)
		})
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		if err := beginEnvelope(w, TypeList); err != nil {
			return err
		}
		if err := r.writeList(w, rv); err != nil {
			return err
		}
		return w.EndObject()
	}
	return qserr.Newf(qserr.TypeMismatch, "cannot store a value of type %T", v)
}

func beginEnvelope(w *jsonwrite.Writer, typ string) error {
	if err := w.BeginObject(); err != nil {
		return err
	}
	if err := w.Key(keyType); err != nil {
		return err
	}
	return w.String(typ)
}

func writeEnvelope(w *jsonwrite.Writer, typ string, body func() error) error {
	if err := beginEnvelope(w, typ); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	return w.EndObject()
}

// writePrimitive writes the class and primitive keys of an open object.
func writePrimitive(w *jsonwrite.Writer, class string, v any) error {
	if err := w.Key(keyClass); err != nil {
		return err
	}
	if err := w.String(class); err != nil {
		return err
	}
	if err := w.Key(keyPrimitive); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		return w.String(x)
	case int:
		return w.Int(int64(x))
	case int64:
		return w.Int(x)
	case float64:
		return w.Float(x)
	case bool:
		return w.Bool(x)
	}
	return qserr.Newf(qserr.InternalError, "primitive class %q for %T", class, v)
}

// writeRecord writes the class and data keys of an open object. Only
// registered classes are written, so everything Encode produces can be
// decoded by the same Registry.
func (r *Registry) writeRecord(w *jsonwrite.Writer, rec Record) error {
	class := rec.TypeName()
	if _, err := r.factory(class); err != nil {
		return err
	}
	if err := w.Key(keyClass); err != nil {
		return err
	}
	if err := w.String(class); err != nil {
		return err
	}
	if err := w.Key(keyData); err != nil {
		return err
	}
	if err := w.BeginObject(); err != nil {
		return err
	}
	if err := rec.MarshalFields(w); err != nil {
		return err
	}
	return w.EndObject()
}

func (r *Registry) writeList(w *jsonwrite.Writer, rv reflect.Value) error {
	if err := w.Key(keyValue); err != nil {
		return err
	}
	if err := w.BeginArray(); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if err := w.BeginObject(); err != nil {
			return err
		}
		var err error
		if class, ok := primitiveClass(item); ok {
			err = writeListPrimitive(w, class, item)
		} else if rec, ok := item.(Record); ok {
			err = r.writeRecord(w, rec)
		} else {
			err = qserr.Newf(qserr.TypeMismatch, "list element %d: cannot store a value of type %T", i, item)
		}
		if err != nil {
			return err
		}
		if err := w.EndObject(); err != nil {
			return err
		}
	}
	return w.EndArray()
}

func writeListPrimitive(w *jsonwrite.Writer, class string, v any) error {
	if err := w.Key(keyPrimitive); err != nil {
		return err
	}
	if err := w.Value(v); err != nil {
		return err
	}
	if err := w.Key(keyClass); err != nil {
		return err
	}
	return w.String(class)
}

// Decode parses envelope text and returns the stored value: a primitive, a
// Record built by the registered factory, or a []any of those.
func (r *Registry) Decode(text string) (any, error) {
	env, err := jsontoken.ParseObject([]byte(text))
	if err != nil {
		return nil, err
	}
	typ, err := env.GetString(keyType)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypePrimitive:
		return decodePrimitive(env)
	case TypeObject:
		return r.decodeRecord(env)
	case TypeList:
		items, err := env.GetArray(keyValue)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, items.Len())
		for i := 0; i < items.Len(); i++ {
			item, err := items.GetObject(i)
			if err != nil {
				return nil, err
			}
			var v any
			if item.Has(keyData) {
				v, err = r.decodeRecord(item)
			} else {
				v, err = decodePrimitive(item)
			}
			if err != nil {
				return nil, qserr.Wrap(qserr.ClassOf(err), -1, "list element "+strconv.Itoa(i), err)
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, qserr.Newf(qserr.TypeMismatch, "unknown envelope type %q", typ)
}

// DecodeInto decodes an object envelope into rec. The stored class must
// match rec.TypeName().
func (r *Registry) DecodeInto(text string, rec Record) error {
	env, err := jsontoken.ParseObject([]byte(text))
	if err != nil {
		return err
	}
	typ, err := env.GetString(keyType)
	if err != nil {
		return err
	}
	if typ != TypeObject {
		return qserr.Newf(qserr.TypeMismatch, "envelope type %q is not %q", typ, TypeObject)
	}
	class, err := env.GetString(keyClass)
	if err != nil {
		return err
	}
	if class != rec.TypeName() {
		return qserr.Newf(qserr.TypeMismatch, "stored class %q does not match %q", class, rec.TypeName())
	}
	data, err := env.GetObject(keyData)
	if err != nil {
		return err
	}
	return rec.UnmarshalFields(data)
}

func (r *Registry) decodeRecord(env *jsonvalue.Object) (Record, error) {
	class, err := env.GetString(keyClass)
	if err != nil {
		return nil, err
	}
	f, err := r.factory(class)
	if err != nil {
		return nil, err
	}
	data, err := env.GetObject(keyData)
	if err != nil {
		return nil, err
	}
	rec := f()
	if err := rec.UnmarshalFields(data); err != nil {
		return nil, err
	}
	return rec, nil
}

func decodePrimitive(env *jsonvalue.Object) (any, error) {
	class, err := env.GetString(keyClass)
	if err != nil {
		return nil, err
	}
	switch class {
	case ClassString:
		return env.GetString(keyPrimitive)
	case ClassInt:
		i, err := env.GetLong(keyPrimitive)
		if err != nil {
			return nil, err
		}
		return int(i), nil
	case ClassInt64:
		return env.GetLong(keyPrimitive)
	case ClassFloat64:
		return env.GetDouble(keyPrimitive)
	case ClassBool:
		return env.GetBool(keyPrimitive)
	}
	return nil, qserr.Newf(qserr.TypeMismatch, "unknown primitive class %q", class)
}

func primitiveClass(v any) (string, bool) {
	switch v.(type) {
	case string:
		return ClassString, true
	case int:
		return ClassInt, true
	case int64:
		return ClassInt64, true
	case float64:
		return ClassFloat64, true
	case bool:
		return ClassBool, true
	}
	return "", false
}

func isPrimitiveClass(name string) bool {
	switch name {
	case ClassString, ClassInt, ClassInt64, ClassFloat64, ClassBool:
		return true
	}
	return false
}
