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

// Package constfold evaluates pure expressions over literals at compile time.
//
// Only expressions without side effects are folded. Integer results are
// folded while they stay in the range of integers represented exactly by
// target numbers, and repetitions while they stay short.
package constfold

import (
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/infer"
)

type folder struct {
	bind  *binder.Info
	types *infer.Info
}

// Module folds the constant expressions of a module in place.
// types is updated with the type of the folded constants. It can be nil.
func Module(mod *ast.Module, bind *binder.Info, types *infer.Info) {
	f := &folder{bind: bind, types: types}
	ast.Rewrite(mod, f.fold)
}

// Expr folds an expression and returns the result.
func Expr(e ast.Expr, bind *binder.Info) ast.Expr {
	s := &ast.ExprStmt{Value: e}
	ast.Rewrite(s, (&folder{bind: bind}).fold)
	return s.Value
}

func constValue(e ast.Expr) (any, bool) {
	c, ok := e.(*ast.Constant)
	if !ok {
		return nil, false
	}
	if _, ok := c.Value.(ast.EllipsisValue); ok {
		return nil, false
	}
	return c.Value, true
}

func (f *folder) constant(pos ast.Pos, v any) ast.Expr {
	c := &ast.Constant{Pos: pos, Value: v}
	if f.types != nil {
		f.types.Types[c] = infer.OfConstant(v)
	}
	return c
}

func (f *folder) fold(e ast.Expr) ast.Expr {
	switch x := e.(type) {
	case *ast.UnaryOp:
		if v, ok := constValue(x.Operand); ok {
			if r, ok := unary(x.Op, v); ok {
				return f.constant(x.Pos, r)
			}
		}
	case *ast.BinOp:
		if x.InPlace {
			return e
		}
		l, lok := constValue(x.Left)
		r, rok := constValue(x.Right)
		if lok && rok {
			if v, ok := binary(x.Op, l, r); ok {
				return f.constant(x.Pos, v)
			}
		}
	case *ast.BoolOp:
		return f.boolOp(x)
	case *ast.Compare:
		return f.compare(x)
	case *ast.IfExp:
		if v, ok := constValue(x.Test); ok {
			if t, ok := truth(v); ok {
				if t {
					return x.Body
				}
				return x.OrElse
			}
		}
	case *ast.Subscript:
		if x.Ctx == ast.Load {
			if v, ok := subscript(x.Value, x.Index); ok {
				return f.constant(x.Pos, v)
			}
		}
	case *ast.Call:
		return f.call(x)
	}
	return e
}

// boolOp drops the constant operands which cannot be the result
// and the operands following a constant deciding the result.
func (f *folder) boolOp(x *ast.BoolOp) ast.Expr {
	var values []ast.Expr
	for i, v := range x.Values {
		last := i == len(x.Values)-1
		c, ok := constValue(v)
		if !ok {
			values = append(values, v)
			continue
		}
		t, ok := truth(c)
		if !ok {
			values = append(values, v)
			continue
		}
		if t == (x.Op == ast.Or) || last {
			values = append(values, v)
			break
		}
	}
	if len(values) == 1 {
		return values[0]
	}
	x.Values = values
	return x
}

func (f *folder) compare(x *ast.Compare) ast.Expr {
	left, ok := constValue(x.Left)
	if !ok {
		return x
	}
	result := true
	for i, op := range x.Ops {
		right, ok := constValue(x.Comparators[i])
		if !ok {
			return x
		}
		r, ok := compare(op, left, right)
		if !ok {
			return x
		}
		result = result && r
		left = right
	}
	return f.constant(x.Pos, result)
}

// elements returns the constant elements of a tuple or list display.
func elements(e ast.Expr) ([]any, bool) {
	var elts []ast.Expr
	switch x := e.(type) {
	case *ast.Tuple:
		elts = x.Elts
	case *ast.List:
		elts = x.Elts
	default:
		return nil, false
	}
	vals := make([]any, len(elts))
	for i, elt := range elts {
		v, ok := constValue(elt)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	return vals, true
}

func index(i int64, n int) (int, bool) {
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, false
	}
	return int(i), true
}

// subscript folds the element of a literal container at a literal index.
func subscript(value, idx ast.Expr) (any, bool) {
	key, ok := constValue(idx)
	if !ok {
		return nil, false
	}
	if d, ok := value.(*ast.Dict); ok {
		return dictItem(d, key)
	}
	i, _, isInt, ok := number(key)
	if !ok || !isInt {
		return nil, false
	}
	if _, isBool := key.(bool); isBool {
		return nil, false
	}
	if vals, ok := elements(value); ok {
		pos, ok := index(i, len(vals))
		if !ok {
			return nil, false
		}
		return vals[pos], true
	}
	v, ok := constValue(value)
	if !ok {
		return nil, false
	}
	switch s := v.(type) {
	case string:
		runes := []rune(s)
		pos, ok := index(i, len(runes))
		if !ok {
			return nil, false
		}
		return string(runes[pos]), true
	case ast.Bytes:
		pos, ok := index(i, len(s))
		if !ok {
			return nil, false
		}
		return int64(s[pos]), true
	}
	return nil, false
}

// dictItem folds d[key] when all the keys and values of d are constants.
func dictItem(d *ast.Dict, key any) (any, bool) {
	var found any
	present := false
	for i, k := range d.Keys {
		kv, ok := constValue(k)
		if !ok {
			return nil, false
		}
		vv, ok := constValue(d.Values[i])
		if !ok {
			return nil, false
		}
		if eq, ok := compare(ast.Eq, kv, key); !ok {
			return nil, false
		} else if eq {
			found, present = vv, true
		}
	}
	return found, present
}
