package conformance_test

import (
	"bytes"
	"reflect"
	"testing"
	"unicode/utf8"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	gojson "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lattice-substrate/quickstore/jsonfmt"
	"github.com/lattice-substrate/quickstore/jsontoken"
)

// strictCorpus is plain RFC 8259 text without characters that quickstore
// escapes beyond what RFC 8785 requires, so both canonicalizers must agree
// byte for byte.
var strictCorpus = []string{
	`{"b":2,"a":1}`,
	`[1,2.5,-0.125,1e21,1e-7,123456789012,true,false,null]`,
	`{"nested":{"z":[{"y":1,"x":2}],"a":"text"},"empty":{},"list":[]}`,
	`{"num":1.0,"exp":2E3,"neg":-4.50}`,
	`["tab\tquote\"backslash\\"]`,
	`{"unicode":"é😀","ctl":"\u0001"}`,
	`[0.1,0.2,0.30000000000000004,5e-324,1.7976931348623157e308]`,
	`{"a":[[[[[]]]]]}`,
}

// decodeCorpus differs from RFC 8785 output in its bytes but must decode to
// the same data: strings quickstore escapes for safe embedding in markup,
// integers beyond 2^53 that quickstore keeps exact, and top-level scalars.
var decodeCorpus = []string{
	`{"html":"</script>"}`,
	`9007199254740993`,
	`"top level"`,
	`["\u0085"," ","€"]`,
}

// lenientCorpus is accepted only by quickstore's lenient grammar.
var lenientCorpus = []string{
	`{a:1;b=2,}`,
	`{'single':'quotes', k => v}`,
	`(1;2;3)`,
	`[1,,2]`,
	`{x: hello, y: -1.50}`,
	"{a: 1 /* comment */, # line\n b: 2 // tail\n}",
}

func decodeGoccy(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	require.NoError(t, gojson.Unmarshal(data, &v), "goccy rejected %q", data)
	return v
}

func TestCanonicalMatchesCyberphone(t *testing.T) {
	for _, in := range strictCorpus {
		ours, err := jsonfmt.Canonicalize([]byte(in))
		require.NoError(t, err, in)
		theirs, err := cyberphone.Transform([]byte(in))
		require.NoError(t, err, in)
		require.Equal(t, string(theirs), string(ours), "input %s", in)
	}
}

func TestCanonicalDecodesLikeInput(t *testing.T) {
	for _, in := range append(append([]string{}, strictCorpus...), decodeCorpus...) {
		ours, err := jsonfmt.Canonicalize([]byte(in))
		require.NoError(t, err, in)
		require.True(t, gojson.Valid(ours), "goccy rejects our output %s", ours)
		if diff := cmp.Diff(decodeGoccy(t, []byte(in)), decodeGoccy(t, ours)); diff != "" {
			t.Fatalf("decoded data differs for %s (-input +ours):\n%s", in, diff)
		}
	}
}

func TestLenientOutputIsStrict(t *testing.T) {
	for _, in := range lenientCorpus {
		require.False(t, gojson.Valid([]byte(in)), "goccy unexpectedly accepts %q", in)

		ours, err := jsonfmt.Canonicalize([]byte(in))
		require.NoError(t, err, in)
		require.True(t, gojson.Valid(ours), "goccy rejects our output %s", ours)

		theirs, err := cyberphone.Transform(ours)
		require.NoError(t, err, "cyberphone rejects our output %s", ours)
		require.Equal(t, string(ours), string(theirs), "output of %q is not RFC 8785 canonical", in)
	}
}

func TestPrettyDecodesLikeCompact(t *testing.T) {
	for _, in := range strictCorpus {
		v, err := jsontoken.Parse([]byte(in))
		require.NoError(t, err)
		pretty, err := jsonfmt.FormatPretty(v, 3)
		require.NoError(t, err)
		compact, err := jsonfmt.Format(v)
		require.NoError(t, err)
		if diff := cmp.Diff(decodeGoccy(t, []byte(compact)), decodeGoccy(t, []byte(pretty))); diff != "" {
			t.Fatalf("pretty output of %s decodes differently:\n%s", in, diff)
		}
	}
}

// FuzzGoccyDifferential checks that whenever goccy and quickstore both
// accept a strict document, quickstore's canonical output decodes to the
// same data.
func FuzzGoccyDifferential(f *testing.F) {
	for _, in := range strictCorpus {
		f.Add([]byte(in))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<16 || !utf8.Valid(data) || bytes.Contains(bytes.ToLower(data), []byte(`\ud`)) {
			return
		}
		var want any
		if gojson.Unmarshal(data, &want) != nil {
			return
		}
		ours, err := jsonfmt.Canonicalize(data)
		if err != nil {
			return
		}
		var got any
		if err := gojson.Unmarshal(ours, &got); err != nil {
			t.Fatalf("goccy rejects canonical output %q of %q: %v", ours, data, err)
		}
		if !reflect.DeepEqual(want, got) {
			t.Fatalf("decoded data differs for %q: input %#v, ours %#v", data, want, got)
		}
	})
}
