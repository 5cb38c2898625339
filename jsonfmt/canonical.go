package jsonfmt

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/qserr"
)

// Canonicalize parses text with the lenient grammar and returns its compact
// form, which is the canonical text of the value.
func Canonicalize(text []byte) ([]byte, error) {
	return CanonicalizeWithOptions(text, nil)
}

// CanonicalizeWithOptions is like Canonicalize but accepts parser options.
func CanonicalizeWithOptions(text []byte, opts *jsontoken.Options) ([]byte, error) {
	v, err := jsontoken.ParseWithOptions(text, opts)
	if err != nil {
		return nil, err
	}
	return AppendValue(nil, v)
}

// Verify checks that data is already canonical: valid UTF-8 whose bytes equal
// the compact form of the value it encodes. A single trailing line feed is
// allowed. Non-canonical input fails with NotCanonical; unparseable input
// fails with the parser's error.
func Verify(data []byte) error {
	body, err := canonicalBody(data)
	if err != nil {
		return err
	}
	canonical, err := Canonicalize(body)
	if err != nil {
		return err
	}
	if !bytes.Equal(body, canonical) {
		at := firstDifference(body, canonical)
		return qserr.New(qserr.NotCanonical, at,
			"bytes differ from canonical re-serialization")
	}
	return nil
}

// canonicalBody enforces the text-level constraints that hold before parsing
// and strips the optional trailing line feed.
func canonicalBody(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, qserr.New(qserr.NotCanonical, 0, "input is empty")
	}
	body := data
	if body[len(body)-1] == '\n' {
		body = body[:len(body)-1]
	}
	if len(body) == 0 {
		return nil, qserr.New(qserr.NotCanonical, 0, "input contains only a line feed")
	}
	if len(body) >= 3 && body[0] == 0xEF && body[1] == 0xBB && body[2] == 0xBF {
		return nil, qserr.New(qserr.NotCanonical, 0, "UTF-8 BOM detected")
	}
	if i := bytes.IndexAny(body, "\r\n"); i >= 0 {
		return nil, qserr.New(qserr.NotCanonical, i, fmt.Sprintf("line break byte 0x%02X in body", body[i]))
	}
	if !utf8.Valid(body) {
		return nil, qserr.New(qserr.NotCanonical, findInvalidUTF8(body), "invalid UTF-8")
	}
	return body, nil
}

func firstDifference(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// findInvalidUTF8 returns the byte offset of the first invalid UTF-8 sequence.
func findInvalidUTF8(data []byte) int {
	i := 0
	for i < len(data) {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}
