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

package desugar

import "github.com/gx-org/pyjs/build/ast"

func (d *desugarer) comprehensions(gens []*ast.Comprehension) {
	for _, gen := range gens {
		d.target(gen.Target)
		gen.Iter = d.expr(gen.Iter)
		d.exprs(gen.Ifs)
	}
}

// expr rewrites the sub-expressions of e and returns its replacement.
func (d *desugarer) expr(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Constant, *ast.Name:
	case *ast.BinOp:
		e.Left = d.expr(e.Left)
		e.Right = d.expr(e.Right)
	case *ast.UnaryOp:
		e.Operand = d.expr(e.Operand)
	case *ast.BoolOp:
		d.exprs(e.Values)
	case *ast.Compare:
		e.Left = d.expr(e.Left)
		d.exprs(e.Comparators)
		if len(e.Ops) > 1 {
			return d.chain(e)
		}
	case *ast.Attribute:
		e.Value = d.expr(e.Value)
	case *ast.Subscript:
		e.Value = d.expr(e.Value)
		e.Index = d.expr(e.Index)
	case *ast.Slice:
		e.Lower = d.expr(e.Lower)
		e.Upper = d.expr(e.Upper)
		e.Step = d.expr(e.Step)
	case *ast.Call:
		e.Func = d.expr(e.Func)
		d.exprs(e.Args)
		for _, kw := range e.Keywords {
			kw.Value = d.expr(kw.Value)
		}
	case *ast.IfExp:
		e.Test = d.expr(e.Test)
		e.Body = d.expr(e.Body)
		e.OrElse = d.expr(e.OrElse)
	case *ast.List:
		d.exprs(e.Elts)
	case *ast.Tuple:
		d.exprs(e.Elts)
	case *ast.Set:
		d.exprs(e.Elts)
	case *ast.Dict:
		d.exprs(e.Keys)
		d.exprs(e.Values)
	case *ast.ListComp:
		d.comprehensions(e.Generators)
		e.Elt = d.expr(e.Elt)
	case *ast.SetComp:
		d.comprehensions(e.Generators)
		e.Elt = d.expr(e.Elt)
	case *ast.GeneratorExp:
		d.comprehensions(e.Generators)
		e.Elt = d.expr(e.Elt)
	case *ast.DictComp:
		d.comprehensions(e.Generators)
		e.Key = d.expr(e.Key)
		e.Value = d.expr(e.Value)
	case *ast.Lambda:
		if e.Args != nil && e.Args.Kwarg != nil {
			d.app.Unsupported(e.Args.Kwarg, "**kwargs in lambda")
		}
		d.arguments(e.Args)
		e.Body = d.expr(e.Body)
	case *ast.JoinedStr:
		d.exprs(e.Values)
	case *ast.FormattedValue:
		e.Value = d.expr(e.Value)
		e.FormatSpec = d.expr(e.FormatSpec)
	case *ast.Yield:
		e.Value = d.expr(e.Value)
	case *ast.YieldFrom:
		e.Value = d.expr(e.Value)
	case *ast.Starred:
		e.Value = d.expr(e.Value)
	case *ast.NamedExpr:
		e.Value = d.expr(e.Value)
	case *ast.ShimCall:
		d.exprs(e.Args)
	case *ast.Bind:
		e.Value = d.expr(e.Value)
	default:
		d.app.AppendInternalf(e, "expression %T not supported by desugaring", e)
	}
	return e
}

// chain rewrites a < b < c into a < b and b < c.
// Operands in the middle of the chain which are not names or constants
// are evaluated once with an assignment expression.
func (d *desugarer) chain(e *ast.Compare) ast.Expr {
	values := make([]ast.Expr, len(e.Ops))
	left := e.Left
	for i, op := range e.Ops {
		right := e.Comparators[i]
		next := right
		if i < len(e.Ops)-1 {
			if isPure(right) {
				next = dup(right)
			} else {
				tmp := d.temp(right)
				right = &ast.NamedExpr{Pos: right.Span(), Target: tmp, Value: right}
				next = load(tmp)
			}
		}
		values[i] = &ast.Compare{
			Pos:         left.Span().Join(right.Span()),
			Left:        left,
			Ops:         []ast.CmpOp{op},
			Comparators: []ast.Expr{right},
		}
		left = next
	}
	return &ast.BoolOp{Pos: e.Pos, Op: ast.And, Values: values}
}
