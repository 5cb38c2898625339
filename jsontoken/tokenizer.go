// Package jsontoken reads the lenient JSON grammar into jsonvalue trees.
//
// The accepted language is a superset of RFC 8259:
//   - comments: // line, # line and /* block */
//   - single-quoted strings and the \' escape
//   - unquoted keys and values ({a:1}, [x, y]); unquoted runs are coerced to
//     booleans, null or numbers when they look like one and kept as strings
//     otherwise
//   - '=' or '=>' in place of ':' and ';' in place of ','
//   - trailing separators ({"a":1,} and [1,2,]) and elided array
//     elements ([1,,2] holds a null)
//   - '(' ... ')' as array brackets
//
// Duplicate object keys are rejected. The first error aborts the parse; there
// is no recovery.
package jsontoken

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/lattice-substrate/quickstore/jsonnum"
	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/qserr"
)

// Limits for denial-of-service protection.
const (
	// DefaultMaxDepth is the maximum nesting depth for objects and arrays.
	DefaultMaxDepth = jsonvalue.MaxDepth

	// DefaultMaxInputSize is the maximum input size in bytes (64 MiB).
	DefaultMaxInputSize = 64 * 1024 * 1024
)

// Options controls parser behavior.
type Options struct {
	MaxDepth     int // 0 means DefaultMaxDepth
	MaxInputSize int // 0 means DefaultMaxInputSize
}

func (o *Options) maxDepth() int {
	if o != nil && o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return DefaultMaxDepth
}

func (o *Options) maxInputSize() int {
	if o != nil && o.MaxInputSize > 0 {
		return o.MaxInputSize
	}
	return DefaultMaxInputSize
}

// unquotedDelims end an unquoted run, as do spaces and control bytes.
const unquotedDelims = ",:]}/\\\"[{;=#)"

// Tokenizer is a cursor over JSON text with one byte of pushback.
type Tokenizer struct {
	data     []byte
	pos      int
	advanced int  // bytes consumed by the last read (0 at end of input)
	canBack  bool // a read happened since the last Back
	depth    int
	maxDepth int
}

// NewTokenizer returns a tokenizer over data. A nil opts uses the defaults.
func NewTokenizer(data []byte, opts *Options) *Tokenizer {
	return &Tokenizer{data: data, maxDepth: opts.maxDepth()}
}

// Offset returns the index of the next byte to be read.
func (t *Tokenizer) Offset() int { return t.pos }

// End reports whether all input has been consumed.
func (t *Tokenizer) End() bool { return t.pos >= len(t.data) }

// Next consumes and returns the next byte, or 0 at end of input.
func (t *Tokenizer) Next() byte {
	t.canBack = true
	if t.pos >= len(t.data) {
		t.advanced = 0
		return 0
	}
	b := t.data[t.pos]
	t.pos++
	t.advanced = 1
	return b
}

// Back un-reads the byte returned by the last Next. Stepping back twice
// without a read in between is an InternalError.
func (t *Tokenizer) Back() error {
	if !t.canBack {
		return qserr.New(qserr.InternalError, t.pos, "stepping back two steps is not supported")
	}
	t.pos -= t.advanced
	t.canBack = false
	return nil
}

func (t *Tokenizer) peek() byte {
	if t.pos >= len(t.data) {
		return 0
	}
	return t.data[t.pos]
}

// back is Back for call sites that always follow a read.
func (t *Tokenizer) back() {
	_ = t.Back()
}

// NextN consumes the next n bytes.
func (t *Tokenizer) NextN(n int) (string, error) {
	if n == 0 {
		return "", nil
	}
	if t.pos+n > len(t.data) {
		return "", t.SyntaxError("substring bounds error")
	}
	s := string(t.data[t.pos : t.pos+n])
	t.pos += n
	t.advanced = 1
	t.canBack = true
	return s, nil
}

// NextClean skips whitespace and comments and returns the next significant
// byte, or 0 at end of input.
func (t *Tokenizer) NextClean() (byte, error) {
	for {
		c := t.Next()
		switch {
		case c == '/':
			switch t.peek() {
			case '/':
				t.pos++
				t.skipLine()
			case '*':
				t.pos++
				if err := t.skipBlockComment(); err != nil {
					return 0, err
				}
			default:
				return '/', nil
			}
		case c == '#':
			t.skipLine()
		case c == 0 || c > ' ':
			return c, nil
		}
	}
}

func (t *Tokenizer) skipLine() {
	for {
		c := t.Next()
		if c == '\n' || c == '\r' || c == 0 {
			return
		}
	}
}

func (t *Tokenizer) skipBlockComment() error {
	for {
		c := t.Next()
		if c == 0 {
			return t.SyntaxError("unclosed comment")
		}
		if c == '*' {
			if t.Next() == '/' {
				return nil
			}
			t.back()
		}
	}
}

// NextString reads a string body up to the closing quote, which has already
// been consumed as the opening delimiter. Raw line breaks are not allowed.
func (t *Tokenizer) NextString(quote byte) (string, error) {
	var sb strings.Builder
	for {
		c := t.Next()
		switch c {
		case 0, '\n', '\r':
			return "", t.SyntaxError("unterminated string")
		case '\\':
			if err := t.escape(&sb); err != nil {
				return "", err
			}
		default:
			if c == quote {
				return sb.String(), nil
			}
			sb.WriteByte(c)
		}
	}
}

func (t *Tokenizer) escape(sb *strings.Builder) error {
	c := t.Next()
	switch c {
	case 'b':
		sb.WriteByte('\b')
	case 't':
		sb.WriteByte('\t')
	case 'n':
		sb.WriteByte('\n')
	case 'f':
		sb.WriteByte('\f')
	case 'r':
		sb.WriteByte('\r')
	case 'u':
		r, err := t.unicodeEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(r)
	case '"', '\'', '\\', '/':
		sb.WriteByte(c)
	default:
		return t.SyntaxError("illegal escape")
	}
	return nil
}

// unicodeEscape decodes XXXX after "\u". A high surrogate followed by an
// escaped low surrogate decodes to one code point; a lone surrogate becomes
// U+FFFD.
func (t *Tokenizer) unicodeEscape() (rune, error) {
	r1, err := t.hex4()
	if err != nil {
		return 0, err
	}
	if !utf16.IsSurrogate(r1) {
		return r1, nil
	}
	if r1 < 0xDC00 && bytes.HasPrefix(t.data[t.pos:], []byte(`\u`)) {
		save := t.pos
		t.pos += 2
		r2, err := t.hex4()
		if err == nil && r2 >= 0xDC00 && r2 <= 0xDFFF {
			return utf16.DecodeRune(r1, r2), nil
		}
		t.pos = save
	}
	return utf8.RuneError, nil
}

func (t *Tokenizer) hex4() (rune, error) {
	s, err := t.NextN(4)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, t.SyntaxError("illegal escape")
	}
	return rune(n), nil
}

// NextValue reads the next value: an object, an array, a quoted string, or an
// unquoted run coerced with StringToValue.
func (t *Tokenizer) NextValue() (jsonvalue.Value, error) {
	c, err := t.NextClean()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	switch c {
	case '"', '\'':
		s, err := t.NextString(c)
		if err != nil {
			return jsonvalue.Value{}, err
		}
		return jsonvalue.String(s), nil
	case '{':
		t.back()
		o, err := t.parseObject()
		if err != nil {
			return jsonvalue.Value{}, err
		}
		return jsonvalue.ObjectValue(o), nil
	case '[', '(':
		t.back()
		a, err := t.parseArray()
		if err != nil {
			return jsonvalue.Value{}, err
		}
		return jsonvalue.ArrayValue(a), nil
	}

	if c == 0 {
		return jsonvalue.Value{}, t.SyntaxError("missing value")
	}
	start := t.pos - 1
	for c > ' ' && strings.IndexByte(unquotedDelims, c) < 0 {
		c = t.Next()
	}
	t.back()
	run := string(t.data[start:t.pos])
	if run == "" {
		return jsonvalue.Value{}, t.SyntaxError("missing value")
	}
	return StringToValue(run), nil
}

// SkipTo advances to the next occurrence of c and returns it, leaving it as
// the next byte to read. When c does not occur the position is unchanged and
// 0 is returned.
func (t *Tokenizer) SkipTo(c byte) byte {
	i := bytes.IndexByte(t.data[t.pos:], c)
	if i < 0 {
		return 0
	}
	t.pos += i
	t.canBack = false
	return c
}

// SyntaxError returns a SyntaxError at the current position. The message
// carries the 1-based line and column.
func (t *Tokenizer) SyntaxError(msg string) *qserr.Error {
	line := 1 + bytes.Count(t.data[:t.pos], []byte{'\n'})
	col := t.pos - bytes.LastIndexByte(t.data[:t.pos], '\n')
	return qserr.New(qserr.SyntaxError, t.pos, fmt.Sprintf("%s [character %d line %d]", msg, col, line))
}

// StringToValue coerces an unquoted run: "" stays an empty string, true,
// false and null match in any case, and runs that start like a number become
// Int or Float when they parse as one. Everything else is a String.
func StringToValue(s string) jsonvalue.Value {
	if s == "" {
		return jsonvalue.String(s)
	}
	switch {
	case strings.EqualFold(s, "true"):
		return jsonvalue.Bool(true)
	case strings.EqualFold(s, "false"):
		return jsonvalue.Bool(false)
	case strings.EqualFold(s, "null"):
		return jsonvalue.Null
	}
	if n, ok := jsonnum.ParseLiteral(s); ok {
		if n.IsFloat {
			v, err := jsonvalue.Float(n.Float)
			if err == nil {
				return v
			}
			return jsonvalue.String(s)
		}
		return jsonvalue.Int(n.Int)
	}
	return jsonvalue.String(s)
}
