package jsontoken_test

import (
	"testing"
	"unicode/utf8"

	"github.com/lattice-substrate/quickstore/jsonfmt"
	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/jsonvalue"
)

// FuzzParseFormatRoundTrip: parse → format → parse → format idempotence.
func FuzzParseFormatRoundTrip(f *testing.F) {
	seeds := []string{
		`null`,
		`true`,
		`{"a":1,"z":[3,2,1]}`,
		`{a:1;b=2,}`,
		`[1,,2]`,
		`"line1\nline2</tag>"`,
		`{" ":"\u0085"}`,
		`1e21`,
		`100000000000000000000`,
		`// c
		{x: 'y'}`,
	}
	for _, seed := range seeds {
		f.Add([]byte(seed))
	}

	f.Fuzz(func(t *testing.T, in []byte) {
		if len(in) > 1<<20 || !utf8.Valid(in) {
			return
		}

		v, err := jsontoken.Parse(in)
		if err != nil {
			return
		}

		out1, err := jsonfmt.Format(v)
		if err != nil {
			t.Fatalf("format parsed value: %v", err)
		}

		v2, err := jsontoken.Parse([]byte(out1))
		if err != nil {
			t.Fatalf("reparse formatted output %q: %v", out1, err)
		}
		if !jsonvalue.Equal(v, v2) {
			t.Fatalf("round trip changed the value: %q", out1)
		}
		out2, err := jsonfmt.Format(v2)
		if err != nil {
			t.Fatalf("reformat: %v", err)
		}
		if out1 != out2 {
			t.Fatalf("non-deterministic output: %q vs %q", out1, out2)
		}
	})
}
