// Package jsonnum converts between numeric literal text and the two numeric
// kinds of the value model: int64 and finite float64.
//
// Formatting produces the shortest decimal text that parses back to the same
// double, laid out with the ECMAScript Number::toString rules: integral values
// carry no fraction (1.0 formats as "1"), fixed notation is used for decimal
// exponents in (-7, 21], and exponential notation ("1e+21", "1.5e-7")
// otherwise. Non-finite values are rejected.
//
// Parsing implements the lenient literal coercion used by the tokenizer: a
// token containing '.', 'e' or 'E' is a double, anything else is tried as a
// 64-bit integer.
package jsonnum

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/lattice-substrate/quickstore/qserr"
)

// Number is a parsed numeric literal.
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

// FormatDouble formats a finite double as its shortest round-trip decimal
// text. Negative zero formats as "0". NaN and ±Inf return an InvalidNumber
// error.
func FormatDouble(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", qserr.Newf(qserr.InvalidNumber, "JSON does not allow non-finite numbers")
	}
	if f == 0 {
		return "0", nil
	}
	return string(AppendDouble(nil, f)), nil
}

// AppendDouble appends the text of a finite, non-zero double to buf. Callers
// must have rejected non-finite values.
func AppendDouble(buf []byte, f float64) []byte {
	if f == 0 {
		return append(buf, '0')
	}
	negative := f < 0
	if negative {
		f = -f
	}
	digits, n := shortestDigits(f)
	return appendECMA(buf, negative, digits, n)
}

// FormatInt formats an int64 in base 10.
func FormatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// shortestDigits returns the shortest significand digits of f (f > 0) and the
// decimal point position n such that f = 0.<digits> * 10^n.
func shortestDigits(f float64) (string, int) {
	var tmp [32]byte
	// 'e' with precision -1 yields d[.ddd]e±xx with the minimal digit count.
	b := strconv.AppendFloat(tmp[:0], f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(string(b), "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, err := strconv.Atoi(exp)
	if err != nil {
		// AppendFloat always emits a decimal exponent.
		panic("jsonnum: malformed exponent from strconv: " + exp)
	}
	digits = strings.TrimRight(digits, "0")
	if digits == "" {
		digits = "0"
	}
	return digits, e + 1
}

// appendECMA lays out digits using the Number::toString steps 6-9.
//
// digits: significand digit string
// n: decimal exponent (number of integer digits in fixed-point)
func appendECMA(buf []byte, negative bool, digits string, n int) []byte {
	k := len(digits)
	if negative {
		buf = append(buf, '-')
	}

	switch {
	case k <= n && n <= 21:
		buf = append(buf, digits...)
		for i := 0; i < n-k; i++ {
			buf = append(buf, '0')
		}
	case 0 < n && n <= 21:
		buf = append(buf, digits[:n]...)
		buf = append(buf, '.')
		buf = append(buf, digits[n:]...)
	case -6 < n && n <= 0:
		buf = append(buf, '0', '.')
		for i := 0; i < -n; i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
	default:
		buf = append(buf, digits[0])
		if k > 1 {
			buf = append(buf, '.')
			buf = append(buf, digits[1:]...)
		}
		buf = append(buf, 'e')
		exp := n - 1
		if exp >= 0 {
			buf = append(buf, '+')
		}
		buf = strconv.AppendInt(buf, int64(exp), 10)
	}
	return buf
}

// LooksNumeric reports whether s starts like a numeric literal: a digit,
// '.', '-' or '+'.
func LooksNumeric(s string) bool {
	if s == "" {
		return false
	}
	b := s[0]
	return (b >= '0' && b <= '9') || b == '.' || b == '-' || b == '+'
}

// ParseLiteral coerces an unquoted token to a number. Tokens containing '.',
// 'e' or 'E' must be finite decimals; other integers outside the int64 range
// become doubles.
// The boolean result is false when the token is not a number, in which case
// callers keep it as a string.
func ParseLiteral(s string) (Number, bool) {
	if !LooksNumeric(s) {
		return Number{}, false
	}
	if strings.ContainsAny(s, ".eE") {
		f, err := ParseDecimal(s)
		if err != nil {
			return Number{}, false
		}
		return Number{IsFloat: true, Float: f}, true
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return Number{Int: i}, true
	}
	// Integral text beyond int64 is what the formatter emits for large
	// integral doubles, so it reads back as a double.
	if errors.Is(err, strconv.ErrRange) {
		if f, ferr := ParseDecimal(s); ferr == nil {
			return Number{IsFloat: true, Float: f}, true
		}
	}
	return Number{}, false
}

// ParseDecimal parses s with the decimal/exponent grammar
// [+-] digits [. digits] [(e|E) [+-] digits], where at least one digit must
// appear in the significand. Hex floats, "Inf", "NaN" and underscores are
// rejected, as are values that overflow to infinity.
func ParseDecimal(s string) (float64, error) {
	if !validDecimal(s) {
		return 0, qserr.Newf(qserr.InvalidNumber, "%q is not a decimal number", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, qserr.Wrap(qserr.InvalidNumber, -1, "parse "+strconv.Quote(s), err)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, qserr.Newf(qserr.InvalidNumber, "%q is not finite", s)
	}
	return f, nil
}

// ParseInteger parses s as a signed base-10 int64.
func ParseInteger(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, qserr.Wrap(qserr.InvalidNumber, -1, "parse "+strconv.Quote(s), err)
	}
	return i, nil
}

func validDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
