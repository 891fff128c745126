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

import (
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// target rewrites the expressions found inside an assignment target.
func (d *desugarer) target(t ast.Expr) {
	switch t := t.(type) {
	case *ast.Attribute:
		t.Value = d.expr(t.Value)
	case *ast.Subscript:
		t.Value = d.expr(t.Value)
		t.Index = d.expr(t.Index)
	case *ast.Tuple:
		for _, elt := range t.Elts {
			d.target(elt)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			d.target(elt)
		}
	case *ast.Starred:
		d.target(t.Value)
	}
}

func (d *desugarer) assign(s *ast.Assign) []ast.Stmt {
	value := d.expr(s.Value)
	for _, t := range s.Targets {
		d.target(t)
	}
	if len(s.Targets) == 1 {
		return d.bind(s.Pos, s.Targets[0], value)
	}
	var out []ast.Stmt
	if !isPure(value) {
		tmp := d.temp(s)
		out = append(out, assignTo(tmp, value))
		value = load(tmp)
	}
	for _, t := range s.Targets {
		out = append(out, d.bind(s.Pos, t, dup(value))...)
	}
	return out
}

// bind assigns value to a target, unpacking tuple and list targets.
func (d *desugarer) bind(pos ast.Pos, target, value ast.Expr) []ast.Stmt {
	switch t := target.(type) {
	case *ast.Tuple:
		return d.unpack(pos, t.Elts, value)
	case *ast.List:
		return d.unpack(pos, t.Elts, value)
	case *ast.Starred:
		d.app.Appendf(fmterr.SyntaxError, t, "starred assignment target must be in a list or tuple")
		return nil
	}
	return []ast.Stmt{&ast.Assign{Pos: pos, Targets: []ast.Expr{target}, Value: value}}
}

func displayElts(e ast.Expr) []ast.Expr {
	switch e := e.(type) {
	case *ast.Tuple:
		return e.Elts
	case *ast.List:
		return e.Elts
	}
	return nil
}

func hasStarred(es []ast.Expr) bool {
	for _, e := range es {
		if _, ok := e.(*ast.Starred); ok {
			return true
		}
	}
	return false
}

// unpack assigns the items of value to targets.
// The value is first stored in a temporary, then each target is
// assigned by index.
func (d *desugarer) unpack(pos ast.Pos, targets []ast.Expr, value ast.Expr) []ast.Stmt {
	star := -1
	for i, t := range targets {
		if _, ok := t.(*ast.Starred); ok {
			star = i
		}
	}
	var rhs ast.Expr
	if elts := displayElts(value); star < 0 && len(elts) == len(targets) && !hasStarred(elts) {
		rhs = &ast.Tuple{Pos: value.Span(), Elts: elts}
	} else {
		rhs = shim(value.Span(), "unpack", value, intConst(pos, len(targets)), intConst(pos, star))
	}
	tmp := d.temp(value)
	out := []ast.Stmt{assignTo(tmp, rhs)}
	for i, t := range targets {
		if st, ok := t.(*ast.Starred); ok {
			t = st.Value
		}
		item := &ast.Subscript{Pos: t.Span(), Value: load(tmp), Index: intConst(t.Span(), i)}
		out = append(out, d.bind(pos, t, item)...)
	}
	return out
}

// stable returns an expression equivalent to e which can be duplicated
// with dup. Statements evaluating e into temporaries are appended to out.
func (d *desugarer) stable(e ast.Expr, out *[]ast.Stmt) ast.Expr {
	if e == nil || isPure(e) {
		return e
	}
	if sl, ok := e.(*ast.Slice); ok {
		return &ast.Slice{
			Pos:   sl.Pos,
			Lower: d.stable(sl.Lower, out),
			Upper: d.stable(sl.Upper, out),
			Step:  d.stable(sl.Step, out),
		}
	}
	tmp := d.temp(e)
	*out = append(*out, assignTo(tmp, e))
	return load(tmp)
}

// augAssign rewrites target op= value into target = target op= value
// where the object and the index of the target are evaluated once.
func (d *desugarer) augAssign(s *ast.AugAssign) []ast.Stmt {
	var out []ast.Stmt
	var store, current ast.Expr
	switch t := s.Target.(type) {
	case *ast.Name:
		store = &ast.Name{Pos: t.Pos, ID: t.ID, Ctx: ast.Store}
		current = load(t)
	case *ast.Attribute:
		obj := d.stable(d.expr(t.Value), &out)
		store = &ast.Attribute{Pos: t.Pos, Value: obj, Attr: t.Attr, Ctx: ast.Store}
		current = &ast.Attribute{Pos: t.Pos, Value: dup(obj), Attr: t.Attr}
	case *ast.Subscript:
		obj := d.stable(d.expr(t.Value), &out)
		index := d.stable(d.expr(t.Index), &out)
		store = &ast.Subscript{Pos: t.Pos, Value: obj, Index: index, Ctx: ast.Store}
		current = &ast.Subscript{Pos: t.Pos, Value: dup(obj), Index: dup(index)}
	default:
		d.app.Appendf(fmterr.SyntaxError, s.Target, "illegal expression for augmented assignment")
		return nil
	}
	value := d.expr(s.Value)
	return append(out, &ast.Assign{
		Pos:     s.Pos,
		Targets: []ast.Expr{store},
		Value: &ast.BinOp{
			Pos:     s.Pos,
			Left:    current,
			Op:      s.Op,
			Right:   value,
			InPlace: true,
		},
	})
}

// forStmt replaces a compound loop target by a temporary unpacked
// at the start of the body.
func (d *desugarer) forStmt(s *ast.For) []ast.Stmt {
	s.Iter = d.expr(s.Iter)
	body := d.block(s.Body)
	if _, ok := s.Target.(*ast.Name); !ok {
		d.target(s.Target)
		tmp := d.temp(s.Target)
		prologue := d.bind(s.Target.Span(), s.Target, load(tmp))
		s.Target = tmp
		body = append(prologue, body...)
	}
	s.Body = body
	s.OrElse = d.block(s.OrElse)
	return []ast.Stmt{s}
}
