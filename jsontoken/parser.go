package jsontoken

import (
	"fmt"

	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/qserr"
)

// Parse parses exactly one value. Anything but whitespace and comments after
// it is a SyntaxError.
func Parse(data []byte) (jsonvalue.Value, error) {
	return ParseWithOptions(data, nil)
}

// ParseWithOptions is like Parse but accepts configuration options.
func ParseWithOptions(data []byte, opts *Options) (jsonvalue.Value, error) {
	maxInput := opts.maxInputSize()
	if len(data) > maxInput {
		return jsonvalue.Value{}, qserr.New(qserr.SyntaxError, 0,
			fmt.Sprintf("input size %d exceeds maximum %d", len(data), maxInput))
	}
	t := NewTokenizer(data, opts)
	v, err := t.NextValue()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	c, err := t.NextClean()
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if c != 0 {
		t.back()
		return jsonvalue.Value{}, t.SyntaxError("trailing content after JSON value")
	}
	return v, nil
}

// ParseObject parses text that must be a single object.
func ParseObject(data []byte) (*jsonvalue.Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	o, err := v.Object()
	if err != nil {
		return nil, qserr.Wrap(qserr.SyntaxError, 0, "a JSON object text must begin with '{'", err)
	}
	return o, nil
}

// ParseArray parses text that must be a single array.
func ParseArray(data []byte) (*jsonvalue.Array, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	a, err := v.Array()
	if err != nil {
		return nil, qserr.Wrap(qserr.SyntaxError, 0, "a JSON array text must begin with '['", err)
	}
	return a, nil
}

func (t *Tokenizer) pushDepth() error {
	t.depth++
	if t.depth > t.maxDepth {
		return qserr.New(qserr.NestingTooDeep, t.pos,
			fmt.Sprintf("nesting depth %d exceeds maximum %d", t.depth, t.maxDepth))
	}
	return nil
}

func (t *Tokenizer) popDepth() {
	t.depth--
}

func (t *Tokenizer) parseObject() (*jsonvalue.Object, error) {
	if err := t.pushDepth(); err != nil {
		return nil, err
	}
	defer t.popDepth()

	c, err := t.NextClean()
	if err != nil {
		return nil, err
	}
	if c != '{' {
		return nil, t.SyntaxError("a JSON object text must begin with '{'")
	}
	o := jsonvalue.NewObject()
	for {
		c, err = t.NextClean()
		if err != nil {
			return nil, err
		}
		switch c {
		case 0:
			return nil, t.SyntaxError("a JSON object text must end with '}'")
		case '}':
			return o, nil
		}
		t.back()

		keyAt := t.pos
		kv, err := t.NextValue()
		if err != nil {
			return nil, err
		}
		key, ok := kv.Text()
		if !ok {
			return nil, qserr.New(qserr.SyntaxError, keyAt, "object key must be a scalar")
		}

		c, err = t.NextClean()
		if err != nil {
			return nil, err
		}
		switch c {
		case ':':
		case '=':
			if t.Next() != '>' {
				t.back()
			}
		default:
			return nil, t.SyntaxError("expected a ':' after a key")
		}

		v, err := t.NextValue()
		if err != nil {
			return nil, err
		}
		if o.Has(key) {
			return nil, qserr.New(qserr.DuplicateKey, keyAt, fmt.Sprintf("duplicate key %q", key))
		}
		o.Put(key, v)

		c, err = t.NextClean()
		if err != nil {
			return nil, err
		}
		switch c {
		case ',', ';':
			c, err = t.NextClean()
			if err != nil {
				return nil, err
			}
			if c == '}' {
				return o, nil
			}
			t.back()
		case '}':
			return o, nil
		default:
			return nil, t.SyntaxError("expected a ',' or '}'")
		}
	}
}

func (t *Tokenizer) parseArray() (*jsonvalue.Array, error) {
	if err := t.pushDepth(); err != nil {
		return nil, err
	}
	defer t.popDepth()

	c, err := t.NextClean()
	if err != nil {
		return nil, err
	}
	var closer byte
	switch c {
	case '[':
		closer = ']'
	case '(':
		closer = ')'
	default:
		return nil, t.SyntaxError("a JSON array text must begin with '['")
	}

	a := jsonvalue.NewArray()
	c, err = t.NextClean()
	if err != nil {
		return nil, err
	}
	if c == closer {
		return a, nil
	}
	t.back()

	for {
		c, err = t.NextClean()
		if err != nil {
			return nil, err
		}
		if c == ',' || c == ';' {
			t.back()
			a.Append(jsonvalue.Null)
		} else {
			t.back()
			v, err := t.NextValue()
			if err != nil {
				return nil, err
			}
			a.Append(v)
		}

		c, err = t.NextClean()
		if err != nil {
			return nil, err
		}
		switch c {
		case ',', ';':
			c, err = t.NextClean()
			if err != nil {
				return nil, err
			}
			if c == closer {
				return a, nil
			}
			t.back()
		case ']', ')':
			if c != closer {
				return nil, t.SyntaxError(fmt.Sprintf("expected a '%c'", closer))
			}
			return a, nil
		default:
			return nil, t.SyntaxError(fmt.Sprintf("expected a ',' or '%c'", closer))
		}
	}
}
