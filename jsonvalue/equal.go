package jsonvalue

// Equal reports whether a and b hold the same JSON data. Object key order is
// irrelevant and numbers compare by value across the Int and Float kinds,
// since an integral Float formats the same as the Int it equals. Trees nested
// deeper than MaxDepth are never equal. Null and the zero Value are not
// equal; use IsNull where absent and null should match.
func Equal(a, b Value) bool {
	return equal(a, b, 0)
}

func equal(a, b Value, depth int) bool {
	if depth > MaxDepth {
		return false
	}
	if isNumber(a) && isNumber(b) {
		return numbersEqual(a, b)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInvalid, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindArray:
		if a.arr == b.arr {
			return true
		}
		if len(a.arr.vs) != len(b.arr.vs) {
			return false
		}
		for i := range a.arr.vs {
			if !equal(a.arr.vs[i], b.arr.vs[i], depth+1) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj == b.obj {
			return true
		}
		if len(a.obj.m) != len(b.obj.m) {
			return false
		}
		for k, av := range a.obj.m {
			bv, ok := b.obj.m[k]
			if !ok || !equal(av, bv, depth+1) {
				return false
			}
		}
		return true
	}
	return false
}

func isNumber(v Value) bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func numbersEqual(a, b Value) bool {
	switch {
	case a.kind == KindInt && b.kind == KindInt:
		return a.i == b.i
	case a.kind == KindFloat && b.kind == KindFloat:
		return a.f == b.f
	case a.kind == KindInt:
		return intEqualsFloat(a.i, b.f)
	default:
		return intEqualsFloat(b.i, a.f)
	}
}

// intEqualsFloat compares without rounding i through float64, so
// 2^53+1 is not equal to 2^53.
func intEqualsFloat(i int64, f float64) bool {
	if f != f || f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		return false
	}
	if float64(int64(f)) != f {
		return false
	}
	return int64(f) == i
}
