// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package constfold

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/constraints"
	"github.com/gx-org/pyjs/build/ast"
)

const (
	// MaxSafeInt is the largest integer represented exactly by target numbers.
	MaxSafeInt = 1 << 53
	// MaxRepeat is the maximum length of a folded repetition.
	MaxRepeat = 4096
)

func safe(v int64) bool {
	return v >= -MaxSafeInt && v <= MaxSafeInt
}

// number converts a numeric constant to an integer or a float.
// Booleans are integers.
func number(v any) (i int64, f float64, isInt, ok bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, 1, true, true
		}
		return 0, 0, true, true
	case int64:
		return x, float64(x), true, safe(x)
	case float64:
		return 0, x, false, true
	}
	return 0, 0, false, false
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// truth returns the truth value of a constant.
func truth(v any) (bool, bool) {
	switch x := v.(type) {
	case nil:
		return false, true
	case bool:
		return x, true
	case int64:
		return x != 0, true
	case float64:
		return x != 0, true
	case string:
		return x != "", true
	case ast.Bytes:
		return x != "", true
	}
	return false, false
}

func floorDiv[T constraints.Integer](a, b T) T {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod[T constraints.Integer](a, b T) T {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floatMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

// mulInt multiplies two safe integers, reporting if the result is safe.
func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if abs(a) > MaxSafeInt/abs(b) {
		return 0, false
	}
	r := a * b
	return r, safe(r)
}

func powInt(base, exp int64) (int64, bool) {
	switch {
	case base == 0 || base == 1:
		if exp == 0 {
			return 1, true
		}
		return base, true
	case base == -1:
		if exp%2 == 0 {
			return 1, true
		}
		return -1, true
	case exp > 53:
		return 0, false
	}
	r := int64(1)
	for range exp {
		var ok bool
		if r, ok = mulInt(r, base); !ok {
			return 0, false
		}
	}
	return r, true
}

func abs[T constraints.Signed | constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// extreme returns the index of the first smallest or largest key.
func extreme[T constraints.Ordered](keys []T, largest bool) int {
	best := 0
	for i, k := range keys[1:] {
		if (largest && k > keys[best]) || (!largest && k < keys[best]) {
			best = i + 1
		}
	}
	return best
}

// compareOrdered applies a comparison operator to ordered values.
func compareOrdered[T constraints.Ordered](op ast.CmpOp, a, b T) (bool, bool) {
	switch op {
	case ast.Eq:
		return a == b, true
	case ast.NotEq:
		return a != b, true
	case ast.Lt:
		return a < b, true
	case ast.LtE:
		return a <= b, true
	case ast.Gt:
		return a > b, true
	case ast.GtE:
		return a >= b, true
	}
	return false, false
}

// binary folds a binary operation over two constant values.
func binary(op ast.Operator, l, r any) (any, bool) {
	if ls, ok := l.(string); ok {
		return sequence(op, ls, r, func(s string) any { return s })
	}
	if lb, ok := l.(ast.Bytes); ok {
		return sequence(op, string(lb), r, func(s string) any { return ast.Bytes(s) })
	}
	if rs, ok := r.(string); ok && op == ast.Mult {
		return sequence(op, rs, l, func(s string) any { return s })
	}
	if rb, ok := r.(ast.Bytes); ok && op == ast.Mult {
		return sequence(op, string(rb), l, func(s string) any { return ast.Bytes(s) })
	}
	if lb, ok := l.(bool); ok {
		if rb, ok := r.(bool); ok {
			switch op {
			case ast.BitAnd:
				return lb && rb, true
			case ast.BitOr:
				return lb || rb, true
			case ast.BitXor:
				return lb != rb, true
			}
		}
	}
	li, lf, lInt, ok := number(l)
	if !ok {
		return nil, false
	}
	ri, rf, rInt, ok := number(r)
	if !ok {
		return nil, false
	}
	if lInt && rInt {
		return binaryInt(op, li, ri)
	}
	return binaryFloat(op, lf, rf)
}

// sequence folds concatenation and repetition of strings and bytes.
func sequence(op ast.Operator, s string, other any, wrap func(string) any) (any, bool) {
	switch op {
	case ast.Add:
		switch o := other.(type) {
		case string:
			if _, isBytes := wrap("").(ast.Bytes); isBytes {
				return nil, false
			}
			return wrap(s + o), true
		case ast.Bytes:
			if _, isBytes := wrap("").(ast.Bytes); !isBytes {
				return nil, false
			}
			return wrap(s + string(o)), true
		}
	case ast.Mult:
		n, _, isInt, ok := number(other)
		if !ok || !isInt {
			return nil, false
		}
		if n <= 0 {
			return wrap(""), true
		}
		if int64(utf8.RuneCountInString(s))*n > MaxRepeat {
			return nil, false
		}
		return wrap(strings.Repeat(s, int(n))), true
	}
	return nil, false
}

func binaryInt(op ast.Operator, a, b int64) (any, bool) {
	var r int64
	switch op {
	case ast.Add:
		r = a + b
	case ast.Sub:
		r = a - b
	case ast.Mult:
		var ok bool
		if r, ok = mulInt(a, b); !ok {
			return nil, false
		}
	case ast.Div:
		if b == 0 {
			return nil, false
		}
		return float64(a) / float64(b), true
	case ast.FloorDiv:
		if b == 0 {
			return nil, false
		}
		r = floorDiv(a, b)
	case ast.Mod:
		if b == 0 {
			return nil, false
		}
		r = floorMod(a, b)
	case ast.Pow:
		if b < 0 {
			if a == 0 {
				return nil, false
			}
			f := math.Pow(float64(a), float64(b))
			return f, finite(f)
		}
		var ok bool
		if r, ok = powInt(a, b); !ok {
			return nil, false
		}
	case ast.LShift:
		if b < 0 || b >= 53 {
			return nil, false
		}
		r = a << b
	case ast.RShift:
		if b < 0 {
			return nil, false
		}
		if b >= 63 {
			b = 63
		}
		r = a >> b
	case ast.BitAnd:
		r = a & b
	case ast.BitOr:
		r = a | b
	case ast.BitXor:
		r = a ^ b
	default:
		return nil, false
	}
	if !safe(r) {
		return nil, false
	}
	return r, true
}

func binaryFloat(op ast.Operator, a, b float64) (any, bool) {
	var r float64
	switch op {
	case ast.Add:
		r = a + b
	case ast.Sub:
		r = a - b
	case ast.Mult:
		r = a * b
	case ast.Div:
		if b == 0 {
			return nil, false
		}
		r = a / b
	case ast.FloorDiv:
		if b == 0 {
			return nil, false
		}
		r = math.Floor(a / b)
	case ast.Mod:
		if b == 0 {
			return nil, false
		}
		r = floatMod(a, b)
	case ast.Pow:
		if (a == 0 && b < 0) || (a < 0 && b != math.Trunc(b)) {
			return nil, false
		}
		r = math.Pow(a, b)
	default:
		return nil, false
	}
	return r, finite(r)
}

func unary(op ast.UnaryOperator, v any) (any, bool) {
	if op == ast.Not {
		t, ok := truth(v)
		return !t, ok
	}
	i, f, isInt, ok := number(v)
	if !ok {
		return nil, false
	}
	switch op {
	case ast.UAdd:
		if isInt {
			return i, true
		}
		return f, true
	case ast.USub:
		if isInt {
			return -i, true
		}
		return -f, true
	case ast.Invert:
		if isInt {
			return ^i, true
		}
	}
	return nil, false
}

// compare folds a comparison between two constant values.
func compare(op ast.CmpOp, l, r any) (bool, bool) {
	switch op {
	case ast.Is, ast.IsNot:
		if !singleton(l) || !singleton(r) {
			return false, false
		}
		return (l == r) == (op == ast.Is), true
	case ast.In, ast.NotIn:
		ls, lok := l.(string)
		rs, rok := r.(string)
		if !lok || !rok {
			return false, false
		}
		return strings.Contains(rs, ls) == (op == ast.In), true
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return compareOrdered(op, ls, rs)
		}
	}
	_, lf, _, lok := number(l)
	_, rf, _, rok := number(r)
	if lok && rok {
		return compareOrdered(op, lf, rf)
	}
	if op == ast.Eq || op == ast.NotEq {
		if l == nil || r == nil {
			return (l == r) == (op == ast.Eq), true
		}
		if lok != rok {
			// Numbers are never equal to other constants.
			return op == ast.NotEq, true
		}
	}
	return false, false
}

func singleton(v any) bool {
	switch v.(type) {
	case nil, bool:
		return true
	}
	return false
}
