package jsontoken_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/lattice-substrate/quickstore/jsontoken"
	"github.com/lattice-substrate/quickstore/jsonvalue"
	"github.com/lattice-substrate/quickstore/qserr"
)

func mustParse(t *testing.T, in string) jsonvalue.Value {
	t.Helper()
	v, err := jsontoken.Parse([]byte(in))
	if err != nil {
		t.Fatalf("parse %q: %v", in, err)
	}
	return v
}

func mustParseErr(t *testing.T, in string) *qserr.Error {
	t.Helper()
	_, err := jsontoken.Parse([]byte(in))
	if err == nil {
		t.Fatalf("expected error for %q", in)
	}
	var qe *qserr.Error
	if !errors.As(err, &qe) {
		t.Fatalf("expected *qserr.Error, got %T: %v", err, err)
	}
	return qe
}

func mustEqual(t *testing.T, in string, want string) {
	t.Helper()
	got := mustParse(t, in)
	exp := mustParse(t, want)
	if !jsonvalue.Equal(got, exp) {
		t.Fatalf("%q did not parse to the same value as %q", in, want)
	}
}

func TestLenientGrammarMatchesStrict(t *testing.T) {
	mustEqual(t, `{a:1;b=2,}`, `{"a":1,"b":2}`)
	mustEqual(t, `{a=>1}`, `{"a":1}`)
	mustEqual(t, `{'a':'x'}`, `{"a":"x"}`)
	mustEqual(t, `[1,2,]`, `[1,2]`)
	mustEqual(t, `(1;2)`, `[1,2]`)
	mustEqual(t, `[1,,2]`, `[1,null,2]`)
	mustEqual(t, `[,1]`, `[null,1]`)
	mustEqual(t, `{k: hello}`, `{"k":"hello"}`)
}

func TestComments(t *testing.T) {
	mustEqual(t, "// lead\n{ /* a */ \"a\" : 1 # trailing\n}", `{"a":1}`)
	mustEqual(t, "[1 // one\n, 2]", `[1,2]`)
}

func TestUnclosedComment(t *testing.T) {
	qe := mustParseErr(t, `{"a":1 /* open`)
	if qe.Class != qserr.SyntaxError {
		t.Fatalf("expected SYNTAX_ERROR, got %s", qe.Class)
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	qe := mustParseErr(t, `{"a":1,"a":2}`)
	if qe.Class != qserr.DuplicateKey {
		t.Fatalf("expected DUPLICATE_KEY, got %s", qe.Class)
	}
	if qe.Offset != 7 {
		t.Fatalf("expected offset 7, got %d", qe.Offset)
	}
}

func TestStringToValue(t *testing.T) {
	cases := []struct {
		in   string
		want jsonvalue.Value
	}{
		{"", jsonvalue.String("")},
		{"TRUE", jsonvalue.Bool(true)},
		{"False", jsonvalue.Bool(false)},
		{"NULL", jsonvalue.Null},
		{"42", jsonvalue.Int(42)},
		{"-7", jsonvalue.Int(-7)},
		{"3000000000", jsonvalue.Int(3000000000)},
		{"1.5", jsonvalue.MustFloat(1.5)},
		{"1e3", jsonvalue.MustFloat(1000)},
		{"1e999", jsonvalue.String("1e999")},
		{"99999999999999999999", jsonvalue.MustFloat(99999999999999999999)},
		{"1-2", jsonvalue.String("1-2")},
		{"-abc", jsonvalue.String("-abc")},
		{"abc", jsonvalue.String("abc")},
	}
	for _, tc := range cases {
		got := jsontoken.StringToValue(tc.in)
		if got.Kind() != tc.want.Kind() || !jsonvalue.Equal(got, tc.want) {
			t.Errorf("StringToValue(%q) = %v (%s), want %v (%s)", tc.in, got, got.Kind(), tc.want, tc.want.Kind())
		}
	}
}

func TestEscapes(t *testing.T) {
	v := mustParse(t, `"\b\t\n\f\r\"\'\\\/A😀"`)
	s, err := v.Str()
	if err != nil {
		t.Fatal(err)
	}
	if s != "\b\t\n\f\r\"'\\/A😀" {
		t.Fatalf("got %q", s)
	}
	lone, _ := mustParse(t, `"\ud800x"`).Str()
	if lone != "\ufffdx" {
		t.Fatalf("lone surrogate decoded to %q", lone)
	}
}

func TestSyntaxErrors(t *testing.T) {
	cases := []struct {
		in   string
		frag string
	}{
		{``, "missing value"},
		{`{"a" 1}`, "expected a ':' after a key"},
		{`{"a":1 "b":2}`, "expected a ',' or '}'"},
		{`{"a":1,`, "must end with '}'"},
		{`{"a":1 b`, "expected a ',' or '}'"},
		{`[a b]`, "expected a ',' or ']'"},
		{`[1 2]`, "expected a ',' or ']'"},
		{`[1)`, "expected a ']'"},
		{`[1,`, "missing value"},
		{`"abc`, "unterminated string"},
		{"\"a\nb\"", "unterminated string"},
		{`"\x"`, "illegal escape"},
		{`"\u12"`, "substring bounds error"},
		{`{"a":1} x`, "trailing content"},
		{`{[1]:2}`, "object key must be a scalar"},
	}
	for _, tc := range cases {
		qe := mustParseErr(t, tc.in)
		if qe.Class != qserr.SyntaxError {
			t.Errorf("%q: expected SYNTAX_ERROR, got %s", tc.in, qe.Class)
			continue
		}
		if !strings.Contains(qe.Error(), tc.frag) {
			t.Errorf("%q: error %q does not mention %q", tc.in, qe.Error(), tc.frag)
		}
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	qe := mustParseErr(t, "{\n  \"a\" 1}")
	if !strings.Contains(qe.Message, "line 2") {
		t.Fatalf("expected line marker, got %q", qe.Message)
	}
	if qe.Offset != 9 {
		t.Fatalf("expected offset 9, got %d", qe.Offset)
	}
}

func TestDepthLimit(t *testing.T) {
	in := strings.Repeat("[", 5) + strings.Repeat("]", 5)
	_, err := jsontoken.ParseWithOptions([]byte(in), &jsontoken.Options{MaxDepth: 4})
	if !qserr.Is(err, qserr.NestingTooDeep) {
		t.Fatalf("expected NESTING_TOO_DEEP, got %v", err)
	}
	if _, err := jsontoken.ParseWithOptions([]byte(in), &jsontoken.Options{MaxDepth: 5}); err != nil {
		t.Fatalf("depth 5 should parse: %v", err)
	}
}

func TestInputSizeLimit(t *testing.T) {
	_, err := jsontoken.ParseWithOptions([]byte(`[1,2,3]`), &jsontoken.Options{MaxInputSize: 3})
	if !qserr.Is(err, qserr.SyntaxError) {
		t.Fatalf("expected SYNTAX_ERROR, got %v", err)
	}
}

func TestParseObjectAndArray(t *testing.T) {
	if _, err := jsontoken.ParseObject([]byte(`[1]`)); !qserr.Is(err, qserr.SyntaxError) {
		t.Fatalf("ParseObject([1]) err = %v", err)
	}
	a, err := jsontoken.ParseArray([]byte(`[1, "two", {}]`))
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != 3 {
		t.Fatalf("len = %d", a.Len())
	}
}

func TestBackTwiceFails(t *testing.T) {
	tok := jsontoken.NewTokenizer([]byte("ab"), nil)
	if c := tok.Next(); c != 'a' {
		t.Fatalf("Next = %q", c)
	}
	if err := tok.Back(); err != nil {
		t.Fatal(err)
	}
	if err := tok.Back(); !qserr.Is(err, qserr.InternalError) {
		t.Fatalf("second Back err = %v", err)
	}
	if c := tok.Next(); c != 'a' {
		t.Fatalf("Next after Back = %q", c)
	}
}

func TestTokenizerPrimitives(t *testing.T) {
	tok := jsontoken.NewTokenizer([]byte("  abc=def"), nil)
	c, err := tok.NextClean()
	if err != nil || c != 'a' {
		t.Fatalf("NextClean = %q, %v", c, err)
	}
	s, err := tok.NextN(2)
	if err != nil || s != "bc" {
		t.Fatalf("NextN = %q, %v", s, err)
	}
	if got := tok.SkipTo('f'); got != 'f' {
		t.Fatalf("SkipTo = %q", got)
	}
	if c := tok.Next(); c != 'f' {
		t.Fatalf("Next after SkipTo = %q", c)
	}
	if got := tok.SkipTo('z'); got != 0 {
		t.Fatalf("SkipTo missing = %q", got)
	}
	if !tok.End() {
		t.Fatal("expected end of input")
	}
	if c := tok.Next(); c != 0 {
		t.Fatalf("Next at end = %q", c)
	}
}
