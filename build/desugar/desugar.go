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

// Package desugar rewrites a syntax tree into the smaller core language
// consumed by the later passes.
//
// After desugaring, a module contains no augmented assignment, no chained
// comparison, no tuple or list assignment target outside comprehensions,
// no multi-target assignment, no with or match statement, no try/else,
// no raise ... from, and decorators only on dataclasses and on methods.
// Temporaries are named $t<n> which cannot clash with a source identifier.
package desugar

import (
	"github.com/gx-org/pyjs/base/uname"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// Module rewrites mod in place.
// The first unsupported construct found is returned as an error.
func Module(file string, mod *ast.Module) error {
	d := &desugarer{
		app: fmterr.NewAppender(file),
		tmp: uname.New(),
	}
	mod.Body = d.block(mod.Body)
	return d.app.First()
}

type desugarer struct {
	app *fmterr.Appender
	tmp *uname.Unique
	// inClass is set while the direct body of a class is rewritten.
	inClass bool
}

func (d *desugarer) block(body []ast.Stmt) []ast.Stmt {
	var out []ast.Stmt
	for _, s := range body {
		out = append(out, d.stmt(s)...)
	}
	return out
}

func (d *desugarer) exprs(es []ast.Expr) {
	for i, e := range es {
		es[i] = d.expr(e)
	}
}

func (d *desugarer) stmt(s ast.Stmt) []ast.Stmt {
	switch s := s.(type) {
	case *ast.Assign:
		return d.assign(s)
	case *ast.AugAssign:
		return d.augAssign(s)
	case *ast.AnnAssign:
		d.target(s.Target)
		s.Value = d.expr(s.Value)
	case *ast.ExprStmt:
		s.Value = d.expr(s.Value)
	case *ast.If:
		s.Test = d.expr(s.Test)
		s.Body = d.block(s.Body)
		s.OrElse = d.block(s.OrElse)
	case *ast.While:
		s.Test = d.expr(s.Test)
		s.Body = d.block(s.Body)
		s.OrElse = d.block(s.OrElse)
	case *ast.For:
		return d.forStmt(s)
	case *ast.Return:
		s.Value = d.expr(s.Value)
	case *ast.Raise:
		d.raise(s)
	case *ast.Try:
		return d.try(s)
	case *ast.With:
		return d.withItems(s.Pos, s.Items, s.Body)
	case *ast.FunctionDef:
		return d.funcDef(s)
	case *ast.ClassDef:
		return d.classDef(s)
	case *ast.Match:
		return d.match(s)
	case *ast.Delete:
		s.Targets = d.flattenTargets(s.Targets)
	case *ast.Assert:
		s.Test = d.expr(s.Test)
		s.Msg = d.expr(s.Msg)
	case *ast.Break, *ast.Continue, *ast.Pass, *ast.Global, *ast.Nonlocal, *ast.Import, *ast.ImportFrom:
	default:
		d.app.AppendInternalf(s, "statement %T not supported by desugaring", s)
	}
	return []ast.Stmt{s}
}

// flattenTargets expands tuple and list targets of a del statement.
func (d *desugarer) flattenTargets(targets []ast.Expr) []ast.Expr {
	var out []ast.Expr
	for _, t := range targets {
		switch t := t.(type) {
		case *ast.Tuple:
			out = append(out, d.flattenTargets(t.Elts)...)
		case *ast.List:
			out = append(out, d.flattenTargets(t.Elts)...)
		default:
			d.target(t)
			out = append(out, t)
		}
	}
	return out
}

func (d *desugarer) arguments(args *ast.Arguments) {
	if args == nil {
		return
	}
	d.exprs(args.Defaults)
	d.exprs(args.KwDefaults)
}

func (d *desugarer) funcDef(s *ast.FunctionDef) []ast.Stmt {
	d.arguments(s.Args)
	inClass := d.inClass
	d.inClass = false
	s.Body = d.block(s.Body)
	d.inClass = inClass
	d.exprs(s.Decorators)
	if inClass || len(s.Decorators) == 0 {
		return []ast.Stmt{s}
	}
	decorators := s.Decorators
	s.Decorators = nil
	return []ast.Stmt{s, decorate(s.Pos, s.Name, decorators)}
}

// decorate returns name = d1(d2(...(name))).
func decorate(pos ast.Pos, name string, decorators []ast.Expr) ast.Stmt {
	var value ast.Expr = &ast.Name{Pos: pos, ID: name}
	for i := len(decorators) - 1; i >= 0; i-- {
		value = &ast.Call{
			Pos:  decorators[i].Span(),
			Func: decorators[i],
			Args: []ast.Expr{value},
		}
	}
	return &ast.Assign{
		Pos:     pos,
		Targets: []ast.Expr{&ast.Name{Pos: pos, ID: name, Ctx: ast.Store}},
		Value:   value,
	}
}

// IsDataclass returns true if a decorator is dataclasses.dataclass,
// possibly called with options.
func IsDataclass(dec ast.Expr) bool {
	if call, ok := dec.(*ast.Call); ok {
		dec = call.Func
	}
	switch dec := dec.(type) {
	case *ast.Name:
		return dec.ID == "dataclass"
	case *ast.Attribute:
		name, ok := dec.Value.(*ast.Name)
		return ok && name.ID == "dataclasses" && dec.Attr == "dataclass"
	}
	return false
}

func (d *desugarer) classDef(s *ast.ClassDef) []ast.Stmt {
	d.exprs(s.Bases)
	for _, kw := range s.Keywords {
		kw.Value = d.expr(kw.Value)
	}
	inClass := d.inClass
	d.inClass = true
	s.Body = d.block(s.Body)
	d.inClass = inClass
	d.exprs(s.Decorators)
	var kept, applied []ast.Expr
	for _, dec := range s.Decorators {
		if IsDataclass(dec) {
			kept = append(kept, dec)
		} else {
			applied = append(applied, dec)
		}
	}
	s.Decorators = kept
	if len(applied) == 0 {
		return []ast.Stmt{s}
	}
	return []ast.Stmt{s, decorate(s.Pos, s.Name, applied)}
}

// temp returns a new temporary name in store context.
func (d *desugarer) temp(node ast.Node) *ast.Name {
	return &ast.Name{Pos: node.Span(), ID: d.tmp.Next("$t"), Ctx: ast.Store}
}

func assignTo(name *ast.Name, value ast.Expr) ast.Stmt {
	return &ast.Assign{Pos: name.Pos, Targets: []ast.Expr{name}, Value: value}
}

// load returns a fresh reference to a name.
func load(n *ast.Name) *ast.Name {
	return &ast.Name{Pos: n.Pos, ID: n.ID}
}

// store returns a fresh binding occurrence of a name.
func store(n *ast.Name) *ast.Name {
	return &ast.Name{Pos: n.Pos, ID: n.ID, Ctx: ast.Store}
}

// isPure returns true if evaluating e twice is the same as evaluating it once.
func isPure(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Name, *ast.Constant:
		return true
	}
	return false
}

// dup returns a copy of an expression made of names, constants,
// attributes and slices so that no node appears twice in the tree.
func dup(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.Name:
		return &ast.Name{Pos: e.Pos, ID: e.ID}
	case *ast.Constant:
		c := *e
		return &c
	case *ast.Attribute:
		return &ast.Attribute{Pos: e.Pos, Value: dup(e.Value), Attr: e.Attr}
	case *ast.Slice:
		return &ast.Slice{Pos: e.Pos, Lower: dup(e.Lower), Upper: dup(e.Upper), Step: dup(e.Step)}
	case *ast.Tuple:
		elts := make([]ast.Expr, len(e.Elts))
		for i, elt := range e.Elts {
			elts[i] = dup(elt)
		}
		return &ast.Tuple{Pos: e.Pos, Elts: elts}
	}
	return e
}

func constant(pos ast.Pos, v any) *ast.Constant {
	return &ast.Constant{Pos: pos, Value: v}
}

func intConst(pos ast.Pos, i int) *ast.Constant {
	return constant(pos, int64(i))
}

func shim(pos ast.Pos, name string, args ...ast.Expr) *ast.ShimCall {
	return &ast.ShimCall{Pos: pos, Shim: name, Args: args}
}

func isTrue(e ast.Expr) bool {
	c, ok := e.(*ast.Constant)
	return ok && c.Value == true
}

// and returns the conjunction of tests, dropping constant True operands.
func and(pos ast.Pos, tests ...ast.Expr) ast.Expr {
	var values []ast.Expr
	for _, t := range tests {
		if isTrue(t) {
			continue
		}
		if b, ok := t.(*ast.BoolOp); ok && b.Op == ast.And {
			values = append(values, b.Values...)
			continue
		}
		values = append(values, t)
	}
	switch len(values) {
	case 0:
		return constant(pos, true)
	case 1:
		return values[0]
	}
	return &ast.BoolOp{Pos: pos, Op: ast.And, Values: values}
}
