// Package store defines the boundary between quickstore and the places that
// hold serialized documents.
//
// A ValueStore maps string keys to single-line JSON text. It knows nothing
// about the documents it holds; encoding and decoding happen in the mapper.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/lattice-substrate/quickstore/qserr"
)

// ValueStore persists serialized values under string keys.
//
// LoadValue reports ok=false with a nil error for a key that was never
// written.
type ValueStore interface {
	WriteValue(ctx context.Context, key, value string) error
	LoadValue(ctx context.Context, key string) (value string, ok bool, err error)
}

// ValidateKey rejects keys that cannot be stored in a line-oriented
// key=value layout: the empty key and keys containing '=', CR, or LF.
func ValidateKey(key string) error {
	if key == "" {
		return qserr.Newf(qserr.InvalidEntry, "key is empty")
	}
	if i := strings.IndexAny(key, "=\r\n"); i >= 0 {
		return qserr.New(qserr.InvalidEntry, i, "key "+strconv.Quote(key)+" contains a reserved byte")
	}
	return nil
}

// ValidateValue rejects values that would span lines.
func ValidateValue(value string) error {
	if i := strings.IndexAny(value, "\r\n"); i >= 0 {
		return qserr.New(qserr.InvalidEntry, i, "value contains a line break")
	}
	return nil
}
