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

func (d *desugarer) raise(s *ast.Raise) {
	s.Exc = d.expr(s.Exc)
	if s.Cause == nil {
		return
	}
	s.Exc = shim(s.Pos, "with_cause", s.Exc, d.expr(s.Cause))
	s.Cause = nil
}

// try moves the else clause of a try statement after the handlers,
// guarded by a flag set at the end of the body.
func (d *desugarer) try(s *ast.Try) []ast.Stmt {
	body := d.block(s.Body)
	for _, h := range s.Handlers {
		h.Type = d.expr(h.Type)
		h.Body = d.block(h.Body)
	}
	final := d.block(s.FinalBody)
	if len(s.OrElse) == 0 {
		s.Body = body
		s.FinalBody = final
		return []ast.Stmt{s}
	}
	orElse := d.block(s.OrElse)
	ok := d.temp(s)
	inner := &ast.Try{
		Pos:      s.Pos,
		Body:     append(body, assignTo(store(ok), constant(s.Pos, true))),
		Handlers: s.Handlers,
	}
	guarded := &ast.If{Pos: s.Pos, Test: load(ok), Body: orElse}
	out := []ast.Stmt{assignTo(ok, constant(s.Pos, false))}
	if len(final) == 0 {
		return append(out, inner, guarded)
	}
	return append(out, &ast.Try{
		Pos:       s.Pos,
		Body:      []ast.Stmt{inner, guarded},
		FinalBody: final,
	})
}

// closingCall returns the argument of contextlib.closing(x).
func closingCall(e ast.Expr) (ast.Expr, bool) {
	call, ok := e.(*ast.Call)
	if !ok || len(call.Args) != 1 || len(call.Keywords) != 0 {
		return nil, false
	}
	if _, starred := call.Args[0].(*ast.Starred); starred {
		return nil, false
	}
	switch fn := call.Func.(type) {
	case *ast.Name:
		return call.Args[0], fn.ID == "closing"
	case *ast.Attribute:
		mod, ok := fn.Value.(*ast.Name)
		return call.Args[0], ok && mod.ID == "contextlib" && fn.Attr == "closing"
	}
	return nil, false
}

// withItems rewrites a with statement into a try statement calling
// the enter and exit methods of each context manager in turn.
func (d *desugarer) withItems(pos ast.Pos, items []*ast.WithItem, body []ast.Stmt) []ast.Stmt {
	item := items[0]
	var inner []ast.Stmt
	if len(items) > 1 {
		inner = d.withItems(pos, items[1:], body)
	} else {
		inner = d.block(body)
	}
	mgr := d.expr(item.ContextExpr)
	if item.OptionalVars != nil {
		d.target(item.OptionalVars)
	}
	if obj, ok := closingCall(mgr); ok {
		return d.closing(pos, obj, item.OptionalVars, inner)
	}
	m := d.temp(mgr)
	out := []ast.Stmt{assignTo(m, mgr)}
	enter := shim(mgr.Span(), "with_enter", load(m))
	var tryBody []ast.Stmt
	if item.OptionalVars == nil {
		out = append(out, &ast.ExprStmt{Pos: pos, Value: enter})
	} else {
		v := d.temp(item.OptionalVars)
		out = append(out, assignTo(v, enter))
		tryBody = d.bind(item.OptionalVars.Span(), item.OptionalVars, load(v))
	}
	flag := d.temp(mgr)
	out = append(out, assignTo(flag, constant(pos, true)))
	tryBody = append(tryBody, inner...)
	exc := d.temp(mgr)
	handler := &ast.ExceptHandler{
		Pos:  pos,
		Name: exc.ID,
		Body: []ast.Stmt{
			assignTo(store(flag), constant(pos, false)),
			&ast.If{
				Pos: pos,
				Test: &ast.UnaryOp{
					Pos:     pos,
					Op:      ast.Not,
					Operand: shim(pos, "with_exit", load(m), load(exc)),
				},
				Body: []ast.Stmt{&ast.Raise{Pos: pos}},
			},
		},
	}
	final := &ast.If{
		Pos:  pos,
		Test: load(flag),
		Body: []ast.Stmt{&ast.ExprStmt{Pos: pos, Value: shim(pos, "with_exit", load(m), constant(pos, nil))}},
	}
	return append(out, &ast.Try{
		Pos:       pos,
		Body:      tryBody,
		Handlers:  []*ast.ExceptHandler{handler},
		FinalBody: []ast.Stmt{final},
	})
}

// closing rewrites with closing(obj) as v into a try/finally calling obj.close().
func (d *desugarer) closing(pos ast.Pos, obj, vars ast.Expr, inner []ast.Stmt) []ast.Stmt {
	m := d.temp(obj)
	out := []ast.Stmt{assignTo(m, obj)}
	var body []ast.Stmt
	if vars != nil {
		body = d.bind(vars.Span(), vars, load(m))
	}
	body = append(body, inner...)
	closeCall := &ast.Call{
		Pos:  pos,
		Func: &ast.Attribute{Pos: pos, Value: load(m), Attr: "close"},
	}
	return append(out, &ast.Try{
		Pos:       pos,
		Body:      body,
		FinalBody: []ast.Stmt{&ast.ExprStmt{Pos: pos, Value: closeCall}},
	})
}
