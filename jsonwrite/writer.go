// Package jsonwrite emits one JSON document to an io.Writer through explicit
// begin/key/value/end calls.
//
// The Writer tracks where it is in the document with a mode register and a
// stack of open scopes, and rejects a call that would produce malformed text
// at the call itself: a value where a key is expected, a key inside an array,
// an end that does not match the innermost scope, or a repeated key within one
// object. Such rejections write nothing and leave the Writer usable. A failure
// of the underlying io.Writer is different: it poisons the Writer, and every
// later call returns that first error.
//
// Output is compact, with keys in call order.
package jsonwrite

import (
	"io"
	"math"

	"github.com/lattice-substrate/quickstore/jsonfmt"
	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/qserr"
)

// MaxDepth is the maximum number of simultaneously open scopes.
const MaxDepth = 200

// Mode is the position of the Writer within its document.
type Mode int

const (
	// ModeInitial: nothing written yet.
	ModeInitial Mode = iota
	// ModeKey: inside an object, a key or the object's end is expected.
	ModeKey
	// ModeValue: inside an object after a key, its value is expected.
	ModeValue
	// ModeArray: inside an array, an element or the array's end is expected.
	ModeArray
	// ModeDone: the document is complete.
	ModeDone
)

func (m Mode) String() string {
	switch m {
	case ModeInitial:
		return "initial"
	case ModeKey:
		return "key"
	case ModeValue:
		return "value"
	case ModeArray:
		return "array"
	case ModeDone:
		return "done"
	}
	return "unknown"
}

type scope struct {
	object bool
	keys   map[string]struct{}
}

// Writer writes a single JSON document. It is not safe for concurrent use.
type Writer struct {
	w     io.Writer
	mode  Mode
	comma bool
	stack []scope
	buf   []byte
	err   error
}

// New returns a Writer that emits to w.
func New(w io.Writer) *Writer {
	return &Writer{w: w, stack: make([]scope, 0, 8)}
}

// Mode returns the current mode.
func (w *Writer) Mode() Mode { return w.mode }

// Depth returns the number of open scopes.
func (w *Writer) Depth() int { return len(w.stack) }

// Err returns the sink error that poisoned the Writer, if any.
func (w *Writer) Err() error { return w.err }

// BeginObject opens an object.
func (w *Writer) BeginObject() error {
	if w.err != nil {
		return w.err
	}
	if !w.valueAllowed() && w.mode != ModeInitial {
		return qserr.Newf(qserr.MisplacedObject, "misplaced object in %s mode", w.mode)
	}
	if err := w.push(true); err != nil {
		return err
	}
	return w.emit('{')
}

// BeginArray opens an array.
func (w *Writer) BeginArray() error {
	if w.err != nil {
		return w.err
	}
	if !w.valueAllowed() && w.mode != ModeInitial {
		return qserr.Newf(qserr.MisplacedArray, "misplaced array in %s mode", w.mode)
	}
	if err := w.push(false); err != nil {
		return err
	}
	return w.emit('[')
}

// Key writes an object key. Each key may appear once per object.
func (w *Writer) Key(name string) error {
	if w.err != nil {
		return w.err
	}
	if w.mode != ModeKey {
		return qserr.Newf(qserr.MisplacedKey, "misplaced key %q in %s mode", name, w.mode)
	}
	top := &w.stack[len(w.stack)-1]
	if _, dup := top.keys[name]; dup {
		return qserr.Newf(qserr.DuplicateKey, "duplicate key %q", name)
	}
	top.keys[name] = struct{}{}

	w.buf = w.buf[:0]
	if w.comma {
		w.buf = append(w.buf, ',')
	}
	w.buf = append(w.buf, jsonfmt.Quote(name)...)
	w.buf = append(w.buf, ':')
	w.comma = false
	w.mode = ModeValue
	return w.flush()
}

// Value writes x as the next array element or as the value of the pending
// key. x may be anything jsonfmt.FormatAny accepts, including whole
// jsonvalue trees.
func (w *Writer) Value(x any) error {
	if w.err != nil {
		return w.err
	}
	if !w.valueAllowed() {
		return qserr.Newf(qserr.ValueOutOfSequence, "value out of sequence in %s mode", w.mode)
	}
	text, err := jsonfmt.FormatAny(x)
	if err != nil {
		return err
	}
	return w.writeValue(text)
}

// Bool writes a boolean value.
func (w *Writer) Bool(b bool) error { return w.Value(jsonvalue.Bool(b)) }

// Int writes an integer value.
func (w *Writer) Int(i int64) error { return w.Value(jsonvalue.Int(i)) }

// Float writes a float value. NaN and ±Inf fail with InvalidNumber.
func (w *Writer) Float(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return qserr.Newf(qserr.InvalidNumber, "JSON does not allow non-finite numbers")
	}
	return w.Value(jsonvalue.MustFloat(f))
}

// String writes a string value.
func (w *Writer) String(s string) error { return w.Value(jsonvalue.String(s)) }

// Null writes null.
func (w *Writer) Null() error { return w.Value(jsonvalue.Null) }

// EndObject closes the innermost scope, which must be an object awaiting a key.
func (w *Writer) EndObject() error {
	return w.end(ModeKey, '}')
}

// EndArray closes the innermost scope, which must be an array.
func (w *Writer) EndArray() error {
	return w.end(ModeArray, ']')
}

func (w *Writer) end(want Mode, c byte) error {
	if w.err != nil {
		return w.err
	}
	if w.mode != want {
		name := "endObject"
		if want == ModeArray {
			name = "endArray"
		}
		return qserr.Newf(qserr.MisplacedEnd, "misplaced %s in %s mode", name, w.mode)
	}
	w.stack = w.stack[:len(w.stack)-1]
	switch {
	case len(w.stack) == 0:
		w.mode = ModeDone
	case w.stack[len(w.stack)-1].object:
		w.mode = ModeKey
	default:
		w.mode = ModeArray
	}
	w.comma = true
	w.buf = append(w.buf[:0], c)
	return w.flush()
}

func (w *Writer) valueAllowed() bool {
	return w.mode == ModeArray || w.mode == ModeValue
}

func (w *Writer) push(object bool) error {
	if len(w.stack) >= MaxDepth {
		return qserr.Newf(qserr.NestingTooDeep, "nesting deeper than %d scopes", MaxDepth)
	}
	s := scope{object: object}
	if object {
		s.keys = make(map[string]struct{})
	}
	// The separator belongs to the enclosing scope, so compute it first.
	w.buf = w.buf[:0]
	if w.comma && w.mode == ModeArray {
		w.buf = append(w.buf, ',')
	}
	w.stack = append(w.stack, s)
	if object {
		w.mode = ModeKey
	} else {
		w.mode = ModeArray
	}
	w.comma = false
	return nil
}

// emit appends c to the separator prepared by push and writes both.
func (w *Writer) emit(c byte) error {
	w.buf = append(w.buf, c)
	return w.flush()
}

func (w *Writer) writeValue(text string) error {
	w.buf = w.buf[:0]
	if w.comma && w.mode == ModeArray {
		w.buf = append(w.buf, ',')
	}
	w.buf = append(w.buf, text...)
	if w.mode == ModeValue {
		w.mode = ModeKey
	}
	w.comma = true
	return w.flush()
}

func (w *Writer) flush() error {
	if _, err := w.w.Write(w.buf); err != nil {
		w.err = qserr.Wrap(qserr.IOError, -1, "write JSON output", err)
		return w.err
	}
	return nil
}
