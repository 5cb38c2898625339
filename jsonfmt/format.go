// Package jsonfmt renders value trees as JSON text.
//
// Compact output has no insignificant whitespace. Pretty output puts each
// entry of a container on its own line, indented by a fixed number of spaces
// per level, except that containers with a single entry stay on one line
// ({"a": 1}) and empty containers print as {} and [].
//
// Object keys are written in byte-wise sorted order, so the output for a given
// tree is deterministic. Strings are escaped so the text is safe to embed in
// HTML script blocks and never contains a raw line break.
package jsonfmt

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/lattice-substrate/quickstore/jsonnum"
	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/qserr"
)

// MaxDepth is the deepest container nesting the formatter will render.
const MaxDepth = jsonvalue.MaxDepth

// Marshaler is implemented by types that render themselves as JSON text. The
// text is parsed with the lenient grammar and re-emitted in compact form, so
// malformed text is rejected instead of reaching the output.
type Marshaler interface {
	MarshalQuickJSON() ([]byte, error)
}

// Format returns the compact text of v.
func Format(v jsonvalue.Value) (string, error) {
	buf, err := AppendValue(nil, v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// FormatPretty returns the indented text of v. An indent of zero or less is
// the same as Format.
func FormatPretty(v jsonvalue.Value, indent int) (string, error) {
	if indent < 0 {
		indent = 0
	}
	p := printer{factor: indent}
	if err := p.value(v, 0, 0); err != nil {
		return "", err
	}
	return string(p.buf), nil
}

// AppendValue appends the compact text of v to buf.
func AppendValue(buf []byte, v jsonvalue.Value) ([]byte, error) {
	p := printer{buf: buf}
	if err := p.value(v, 0, 0); err != nil {
		return nil, err
	}
	return p.buf, nil
}

// FormatAny renders a loose Go value. A Marshaler supplies its own text,
// which must parse; everything else goes through jsonvalue.Wrap.
func FormatAny(x any) (string, error) {
	if m, ok := x.(Marshaler); ok {
		b, err := m.MarshalQuickJSON()
		if err != nil {
			return "", qserr.Wrap(qserr.TypeMismatch, -1, "marshal value", err)
		}
		v, err := jsontoken.Parse(b)
		if err != nil {
			return "", qserr.Wrap(qserr.TypeMismatch, -1, fmt.Sprintf("%T produced invalid JSON", x), err)
		}
		return Format(v)
	}
	v, err := jsonvalue.Wrap(x)
	if err != nil {
		return "", err
	}
	return Format(v)
}

// FormatNumber returns the text of an Int or Float value.
func FormatNumber(v jsonvalue.Value) (string, error) {
	switch v.Kind() {
	case jsonvalue.KindInt, jsonvalue.KindFloat:
		s, _ := v.Text()
		return s, nil
	}
	return "", qserr.Newf(qserr.TypeMismatch, "%s value is not a number", v.Kind())
}

// Quote returns s as a JSON string literal.
func Quote(s string) string {
	return string(appendQuoted(make([]byte, 0, len(s)+2), s))
}

type printer struct {
	buf    []byte
	factor int
}

func (p *printer) value(v jsonvalue.Value, indent, depth int) error {
	switch v.Kind() {
	case jsonvalue.KindInvalid, jsonvalue.KindNull:
		p.buf = append(p.buf, "null"...)
	case jsonvalue.KindBool:
		b, _ := v.Bool()
		if b {
			p.buf = append(p.buf, "true"...)
		} else {
			p.buf = append(p.buf, "false"...)
		}
	case jsonvalue.KindInt:
		i, _ := v.Int64()
		p.buf = strconv.AppendInt(p.buf, i, 10)
	case jsonvalue.KindFloat:
		f, _ := v.Float64()
		p.buf = jsonnum.AppendDouble(p.buf, f)
	case jsonvalue.KindString:
		s, _ := v.Str()
		p.buf = appendQuoted(p.buf, s)
	case jsonvalue.KindArray:
		a, _ := v.Array()
		return p.array(a, indent, depth+1)
	case jsonvalue.KindObject:
		o, _ := v.Object()
		return p.object(o, indent, depth+1)
	default:
		return qserr.Newf(qserr.InternalError, "unknown value kind %d", v.Kind())
	}
	return nil
}

func (p *printer) object(o *jsonvalue.Object, indent, depth int) error {
	if depth > MaxDepth {
		return qserr.Newf(qserr.NestingTooDeep, "nesting depth exceeds %d", MaxDepth)
	}
	keys := o.Keys()
	p.buf = append(p.buf, '{')
	if len(keys) == 1 {
		v, _ := o.Opt(keys[0])
		p.key(keys[0])
		if err := p.value(v, indent, depth); err != nil {
			return err
		}
		p.buf = append(p.buf, '}')
		return nil
	}
	inner := indent + p.factor
	for i, k := range keys {
		if i > 0 {
			p.buf = append(p.buf, ',')
		}
		p.newline(inner)
		v, _ := o.Opt(k)
		p.key(k)
		if err := p.value(v, inner, depth); err != nil {
			return err
		}
	}
	if len(keys) > 0 {
		p.newline(indent)
	}
	p.buf = append(p.buf, '}')
	return nil
}

func (p *printer) array(a *jsonvalue.Array, indent, depth int) error {
	if depth > MaxDepth {
		return qserr.Newf(qserr.NestingTooDeep, "nesting depth exceeds %d", MaxDepth)
	}
	vs := a.Values()
	p.buf = append(p.buf, '[')
	if len(vs) == 1 {
		if err := p.value(vs[0], indent, depth); err != nil {
			return err
		}
		p.buf = append(p.buf, ']')
		return nil
	}
	inner := indent + p.factor
	for i, v := range vs {
		if i > 0 {
			p.buf = append(p.buf, ',')
		}
		p.newline(inner)
		if err := p.value(v, inner, depth); err != nil {
			return err
		}
	}
	if len(vs) > 0 {
		p.newline(indent)
	}
	p.buf = append(p.buf, ']')
	return nil
}

func (p *printer) key(k string) {
	p.buf = appendQuoted(p.buf, k)
	p.buf = append(p.buf, ':')
	if p.factor > 0 {
		p.buf = append(p.buf, ' ')
	}
}

func (p *printer) newline(indent int) {
	if p.factor <= 0 {
		return
	}
	p.buf = append(p.buf, '\n')
	for i := 0; i < indent; i++ {
		p.buf = append(p.buf, ' ')
	}
}

// appendQuoted writes s as a string literal. Besides the mandatory escapes,
// C1 controls and U+2000-U+20FF are written as \u escapes and "</" becomes
// "<\/". Invalid UTF-8 bytes are replaced with U+FFFD.
func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	var prev rune
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"', '\\':
			buf = append(buf, '\\', byte(r))
		case '/':
			if prev == '<' {
				buf = append(buf, '\\')
			}
			buf = append(buf, '/')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			if r < 0x20 || (r >= 0x80 && r < 0xa0) || (r >= 0x2000 && r < 0x2100) || (r == utf8.RuneError && size == 1) {
				buf = appendUnicodeEscape(buf, r)
			} else {
				buf = utf8.AppendRune(buf, r)
			}
		}
		prev = r
	}
	return append(buf, '"')
}

func appendUnicodeEscape(buf []byte, r rune) []byte {
	return append(buf, '\\', 'u',
		hexDigit(byte(r>>12)&0x0F), hexDigit(byte(r>>8)&0x0F),
		hexDigit(byte(r>>4)&0x0F), hexDigit(byte(r)&0x0F))
}

func hexDigit(b byte) byte {
	if b < 10 {
		return '0' + b
	}
	return 'a' + (b - 10)
}
