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
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
)

type builtinFolder func(args []ast.Expr) (any, bool)

var builtinFolders = map[string]builtinFolder{
	"len":  foldLen,
	"min":  func(args []ast.Expr) (any, bool) { return foldExtreme(args, false) },
	"max":  func(args []ast.Expr) (any, bool) { return foldExtreme(args, true) },
	"abs":  foldAbs,
	"sum":  foldSum,
	"chr":  foldChr,
	"ord":  foldOrd,
	"bool": foldBool,
	"int":  foldInt,
}

// call folds calls to pure built-in functions with constant arguments.
// The callee must resolve to the built-in and not to a user definition
// shadowing it.
func (f *folder) call(c *ast.Call) ast.Expr {
	name, ok := c.Func.(*ast.Name)
	if !ok || len(c.Keywords) > 0 || f.bind == nil {
		return c
	}
	fn := builtinFolders[name.ID]
	if fn == nil {
		return c
	}
	b := f.bind.Use(name)
	if b == nil || b.Resolved().Class != binder.Builtin {
		return c
	}
	for _, arg := range c.Args {
		if _, ok := arg.(*ast.Starred); ok {
			return c
		}
	}
	v, ok := fn(c.Args)
	if !ok {
		return c
	}
	return f.constant(c.Pos, v)
}

func single(args []ast.Expr) (any, bool) {
	if len(args) != 1 {
		return nil, false
	}
	return constValue(args[0])
}

func foldLen(args []ast.Expr) (any, bool) {
	if len(args) != 1 {
		return nil, false
	}
	if vals, ok := elements(args[0]); ok {
		return int64(len(vals)), true
	}
	switch v, _ := constValue(args[0]); x := v.(type) {
	case string:
		return int64(utf8.RuneCountInString(x)), true
	case ast.Bytes:
		return int64(len(x)), true
	}
	return nil, false
}

// operands returns the constant values compared by min or max.
func operands(args []ast.Expr) ([]any, bool) {
	switch len(args) {
	case 0:
		return nil, false
	case 1:
		vals, ok := elements(args[0])
		return vals, ok && len(vals) > 0
	}
	vals := make([]any, len(args))
	for i, arg := range args {
		v, ok := constValue(arg)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

func foldExtreme(args []ast.Expr, largest bool) (any, bool) {
	vals, ok := operands(args)
	if !ok {
		return nil, false
	}
	if _, isString := vals[0].(string); isString {
		keys := make([]string, len(vals))
		for i, v := range vals {
			if keys[i], ok = v.(string); !ok {
				return nil, false
			}
		}
		return vals[extreme(keys, largest)], true
	}
	keys := make([]float64, len(vals))
	for i, v := range vals {
		var isNum bool
		_, keys[i], _, isNum = number(v)
		if !isNum || math.IsNaN(keys[i]) {
			return nil, false
		}
	}
	return vals[extreme(keys, largest)], true
}

func foldAbs(args []ast.Expr) (any, bool) {
	v, ok := single(args)
	if !ok {
		return nil, false
	}
	i, fl, isInt, ok := number(v)
	if !ok {
		return nil, false
	}
	if isInt {
		return abs(i), true
	}
	return abs(fl), true
}

func foldSum(args []ast.Expr) (any, bool) {
	if len(args) != 1 {
		return nil, false
	}
	vals, ok := elements(args[0])
	if !ok {
		return nil, false
	}
	var (
		isum   int64
		fsum   float64
		floats bool
	)
	for _, v := range vals {
		i, fl, isInt, ok := number(v)
		if !ok {
			return nil, false
		}
		fsum += fl
		if !isInt {
			floats = true
			continue
		}
		isum += i
		if !safe(isum) {
			return nil, false
		}
	}
	if floats {
		return fsum, finite(fsum)
	}
	return isum, true
}

func foldChr(args []ast.Expr) (any, bool) {
	v, ok := single(args)
	if !ok {
		return nil, false
	}
	i, isInt := v.(int64)
	if !isInt || i < 0 || i > utf8.MaxRune || (i >= 0xD800 && i <= 0xDFFF) {
		return nil, false
	}
	return string(rune(i)), true
}

func foldOrd(args []ast.Expr) (any, bool) {
	v, ok := single(args)
	if !ok {
		return nil, false
	}
	switch x := v.(type) {
	case string:
		if utf8.RuneCountInString(x) != 1 {
			return nil, false
		}
		r, _ := utf8.DecodeRuneInString(x)
		return int64(r), true
	case ast.Bytes:
		if len(x) != 1 {
			return nil, false
		}
		return int64(x[0]), true
	}
	return nil, false
}

func foldBool(args []ast.Expr) (any, bool) {
	if len(args) == 0 {
		return false, true
	}
	v, ok := single(args)
	if !ok {
		return nil, false
	}
	return truth(v)
}

func foldInt(args []ast.Expr) (any, bool) {
	if len(args) == 0 {
		return int64(0), true
	}
	v, ok := single(args)
	if !ok {
		return nil, false
	}
	switch x := v.(type) {
	case bool:
		i, _, _, _ := number(x)
		return i, true
	case int64:
		return x, safe(x)
	case float64:
		if !finite(x) {
			return nil, false
		}
		t := math.Trunc(x)
		if math.Abs(t) > MaxSafeInt {
			return nil, false
		}
		return int64(t), true
	case string:
		s := strings.TrimSpace(x)
		if strings.Contains(s, "_") {
			return nil, false
		}
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil || !safe(i) {
			return nil, false
		}
		return i, true
	}
	return nil, false
}
