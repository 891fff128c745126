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

package codegen

import (
	"strconv"
	"strings"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/infer"
)

func (g *generator) block(body []ast.Stmt) {
	for _, s := range body {
		g.stmt(s)
	}
}

// indented generates a block one level deeper.
func (g *generator) indented(body []ast.Stmt) {
	g.buf.Indent()
	g.block(body)
	g.buf.Dedent()
}

func (g *generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Assign:
		g.assign(s)
	case *ast.AnnAssign:
		g.annAssign(s)
	case *ast.ExprStmt:
		g.exprStmt(s)
	case *ast.If:
		g.ifStmt(s, "")
	case *ast.While:
		g.whileStmt(s)
	case *ast.For:
		g.forStmt(s)
	case *ast.Break:
		g.breakStmt(s)
	case *ast.Continue:
		g.buf.Line(s.Pos, "continue;")
	case *ast.Pass, *ast.Global, *ast.Nonlocal:
	case *ast.Return:
		g.returnStmt(s)
	case *ast.Raise:
		g.raise(s)
	case *ast.Try:
		g.try(s)
	case *ast.Import:
		g.importStmt(s)
	case *ast.ImportFrom:
		g.importFrom(s)
	case *ast.FunctionDef:
		g.functionDef(s)
	case *ast.ClassDef:
		g.classDef(s)
	case *ast.Delete:
		for _, target := range s.Targets {
			g.del(s, target)
		}
	case *ast.Assert:
		g.assert(s)
	default:
		g.app.AppendInternalf(s, "statement %T not supported by code generation", s)
	}
}

func (g *generator) assign(s *ast.Assign) {
	if len(s.Targets) != 1 {
		g.app.AppendInternalf(s, "assignment to %d targets not desugared", len(s.Targets))
		return
	}
	target := s.Targets[0]
	if name, ok := target.(*ast.Name); ok {
		if g.cls != nil && name.ID == "__slots__" {
			g.slots(s)
			return
		}
		if isTemp(name.ID) && arrayValue(s.Value) {
			g.arrays[name.ID] = true
		}
	}
	g.store(s.Pos, target, g.expr(s.Value))
}

// arrayValue returns true if e always evaluates to a target array.
func arrayValue(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.Tuple:
		return true
	case *ast.ShimCall:
		return e.Shim == "unpack"
	}
	return false
}

// store assigns a value to a target.
func (g *generator) store(pos ast.Pos, target ast.Expr, value fragment) {
	switch t := target.(type) {
	case *ast.Name:
		g.buf.Line(pos, g.nameTarget(t)+" = "+value.arg()+";")
	case *ast.Attribute:
		g.buf.Line(pos, g.expr(t.Value).member()+"."+t.Attr+" = "+value.arg()+";")
	case *ast.Subscript:
		obj := g.expr(t.Value)
		if sl, ok := t.Index.(*ast.Slice); ok {
			g.storeSlice(pos, t.Value, obj, sl, value)
			return
		}
		g.buf.Line(pos, call(g.shim("setitem"), obj, g.expr(t.Index), value).text+";")
	default:
		g.app.AppendInternalf(target, "assignment to %T not desugared", target)
	}
}

func (g *generator) storeSlice(pos ast.Pos, value ast.Expr, obj fragment, sl *ast.Slice, v fragment) {
	lo, loOK := int64(0), sl.Lower == nil
	if !loOK {
		lo, loOK = intConstant(sl.Lower)
	}
	hi, hiOK := int64(-1), sl.Upper == nil
	if !hiOK {
		hi, hiOK = intConstant(sl.Upper)
	}
	if g.typeOf(value) == infer.List && sl.Step == nil && loOK && hiOK && lo >= 0 && (sl.Upper == nil || hi >= lo) {
		count := "Infinity"
		if sl.Upper != nil {
			count = strconv.FormatInt(hi-lo, 10)
		}
		g.buf.Line(pos, obj.member()+".splice("+strconv.FormatInt(lo, 10)+", "+count+", ..."+v.arg()+");")
		return
	}
	g.buf.Line(pos, call(g.shim("setslice"), obj, g.optional(sl.Lower), g.optional(sl.Upper), g.optional(sl.Step), v).text+";")
}

func (g *generator) annAssign(s *ast.AnnAssign) {
	if name, ok := s.Target.(*ast.Name); ok && g.cls != nil && !isClassVar(s.Annotation) {
		g.cls.fields = append(g.cls.fields, name.ID)
	}
	if s.Value == nil {
		return
	}
	g.store(s.Pos, s.Target, g.expr(s.Value))
}

// isClassVar returns true for ClassVar annotations, which do not declare fields.
func isClassVar(ann ast.Expr) bool {
	if sub, ok := ann.(*ast.Subscript); ok {
		ann = sub.Value
	}
	switch a := ann.(type) {
	case *ast.Name:
		return a.ID == "ClassVar"
	case *ast.Attribute:
		return a.Attr == "ClassVar"
	}
	return false
}

func (g *generator) exprStmt(s *ast.ExprStmt) {
	if _, ok := s.Value.(*ast.Constant); ok {
		return
	}
	text := g.expr(s.Value).text
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "function") {
		text = "(" + text + ")"
	}
	g.buf.Line(s.Pos, text+";")
}

func (g *generator) ifStmt(s *ast.If, prefix string) {
	g.buf.Line(s.Pos, prefix+"if ("+g.cond(s.Test).text+") {")
	g.indented(s.Body)
	if len(s.OrElse) == 1 {
		if elif, ok := s.OrElse[0].(*ast.If); ok {
			g.ifStmt(elif, "} else ")
			return
		}
	}
	if len(s.OrElse) > 0 {
		g.buf.Line(ast.Pos{}, "} else {")
		g.indented(s.OrElse)
	}
	g.buf.Line(ast.Pos{}, "}")
}

// loop generates a loop and its else clause.
// The else clause runs unless the loop exits with break.
func (g *generator) loop(orElse []ast.Stmt, body func()) {
	label := ""
	if len(orElse) > 0 {
		label = g.names.Next("$l")
		g.buf.Line(ast.Pos{}, label+": {")
		g.buf.Indent()
	}
	g.fn.loops = append(g.fn.loops, label)
	body()
	g.fn.loops = g.fn.loops[:len(g.fn.loops)-1]
	if label != "" {
		g.block(orElse)
		g.buf.Dedent()
		g.buf.Line(ast.Pos{}, "}")
	}
}

func (g *generator) whileStmt(s *ast.While) {
	g.loop(s.OrElse, func() {
		g.buf.Line(s.Pos, "while ("+g.cond(s.Test).text+") {")
		g.indented(s.Body)
		g.buf.Line(ast.Pos{}, "}")
	})
}

func (g *generator) forStmt(s *ast.For) {
	name, ok := s.Target.(*ast.Name)
	if !ok {
		g.app.AppendInternalf(s.Target, "loop target %T not desugared", s.Target)
		return
	}
	target := g.nameTarget(name)
	g.loop(s.OrElse, func() {
		if header, ok := g.rangeLoop(s.Iter); ok {
			g.buf.Line(s.Pos, header.head)
			g.buf.Indent()
			g.buf.Line(ast.Pos{}, target+" = "+header.index+";")
		} else {
			g.buf.Line(s.Pos, "for ("+target+" of "+g.expr(s.Iter).arg()+") {")
			g.buf.Indent()
		}
		g.block(s.Body)
		g.buf.Dedent()
		g.buf.Line(ast.Pos{}, "}")
	})
}

type rangeHeader struct {
	head, index string
}

// rangeLoop returns the header of a counting loop over range(...)
// when the bounds are integers and the step is a constant.
func (g *generator) rangeLoop(iter ast.Expr) (rangeHeader, bool) {
	c, ok := iter.(*ast.Call)
	if !ok || !g.isBuiltin(c.Func, "range") || len(c.Keywords) > 0 || len(c.Args) == 0 || len(c.Args) > 3 || hasStarred(c.Args) {
		return rangeHeader{}, false
	}
	step := int64(1)
	if len(c.Args) == 3 {
		if step, ok = intConstant(c.Args[2]); !ok || step == 0 {
			return rangeHeader{}, false
		}
	}
	bounds := c.Args
	if len(bounds) == 3 {
		bounds = bounds[:2]
	}
	for _, arg := range bounds {
		if arith(g.typeOf(arg)) != infer.Int {
			return rangeHeader{}, false
		}
	}
	start, stop := primary("0"), g.expr(bounds[0])
	if len(bounds) == 2 {
		start, stop = g.expr(bounds[0]), g.expr(bounds[1])
	}
	i, n := g.names.Next("$i"), g.names.Next("$n")
	cmp, inc := " < ", i+" += "+strconv.FormatInt(step, 10)
	switch {
	case step == 1:
		inc = i + "++"
	case step < 0:
		cmp = " > "
		inc = i + " -= " + strconv.FormatInt(-step, 10)
	}
	return rangeHeader{
		head:  "for (let " + i + " = " + start.arg() + ", " + n + " = " + stop.arg() + "; " + i + cmp + n + "; " + inc + ") {",
		index: i,
	}, true
}

func (g *generator) breakStmt(s *ast.Break) {
	if n := len(g.fn.loops); n > 0 && g.fn.loops[n-1] != "" {
		g.buf.Line(s.Pos, "break "+g.fn.loops[n-1]+";")
		return
	}
	g.buf.Line(s.Pos, "break;")
}

func (g *generator) returnStmt(s *ast.Return) {
	switch {
	case s.Value != nil:
		g.buf.Line(s.Pos, "return "+g.expr(s.Value).arg()+";")
	case g.fn.generator:
		g.buf.Line(s.Pos, "return;")
	default:
		g.buf.Line(s.Pos, "return null;")
	}
}

func (g *generator) raise(s *ast.Raise) {
	if s.Cause != nil {
		g.app.AppendInternalf(s, "exception cause not desugared")
		return
	}
	if s.Exc == nil {
		if n := len(g.fn.handlers); n > 0 {
			g.buf.Line(s.Pos, "throw "+g.fn.handlers[n-1]+";")
			return
		}
		g.buf.Line(s.Pos, "throw "+g.shim("reraise")+"();")
		return
	}
	g.buf.Line(s.Pos, "throw "+call(g.shim("exc_new"), g.expr(s.Exc)).text+";")
}

func (g *generator) try(s *ast.Try) {
	if len(s.OrElse) > 0 {
		g.app.AppendInternalf(s, "try else clause not desugared")
		return
	}
	g.buf.Line(s.Pos, "try {")
	g.indented(s.Body)
	if len(s.Handlers) > 0 {
		g.handlers(s.Handlers)
	}
	if len(s.FinalBody) > 0 {
		g.buf.Line(ast.Pos{}, "} finally {")
		g.indented(s.FinalBody)
	}
	g.buf.Line(ast.Pos{}, "}")
}

// handlers generates a catch clause testing the exception against
// the handlers in order. Unmatched exceptions are thrown again.
func (g *generator) handlers(handlers []*ast.ExceptHandler) {
	exc := g.names.Next("$e")
	g.buf.Line(handlers[0].Pos, "} catch ("+exc+") {")
	g.buf.Indent()
	g.buf.Line(ast.Pos{}, exc+" = "+call(g.shim("wrap_exc"), primary(exc)).text+";")
	g.fn.handlers = append(g.fn.handlers, exc)
	bare := false
	for i, h := range handlers {
		switch {
		case h.Type == nil && i == 0:
			bare = true
		case h.Type == nil:
			bare = true
			g.buf.Line(h.Pos, "} else {")
		default:
			prefix := "} else if ("
			if i == 0 {
				prefix = "if ("
			}
			g.buf.Line(h.Pos, prefix+call(g.shim("isinstance"), primary(exc), g.expr(h.Type)).text+") {")
		}
		if len(handlers) > 1 || h.Type != nil {
			g.buf.Indent()
		}
		if h.Name != "" {
			g.buf.Line(h.Pos, g.declared(h, h.Name)+" = "+exc+";")
		}
		g.block(h.Body)
		if len(handlers) > 1 || h.Type != nil {
			g.buf.Dedent()
		}
		if bare {
			break
		}
	}
	if !bare {
		g.buf.Line(ast.Pos{}, "} else {")
		g.buf.Indent()
		g.buf.Line(ast.Pos{}, "throw "+exc+";")
		g.buf.Dedent()
	}
	if len(handlers) > 1 || !bare {
		g.buf.Line(ast.Pos{}, "}")
	}
	g.fn.handlers = g.fn.handlers[:len(g.fn.handlers)-1]
	g.buf.Dedent()
}

func (g *generator) assert(s *ast.Assert) {
	var msg []fragment
	if s.Msg != nil {
		msg = []fragment{g.expr(s.Msg)}
	}
	test := unary("!", g.cond(s.Test))
	g.buf.Line(s.Pos, "if ("+test.text+") throw "+call(g.shim("assert_fail"), msg...).text+";")
}

func (g *generator) del(s *ast.Delete, target ast.Expr) {
	switch t := target.(type) {
	case *ast.Name:
		b := g.bind.Use(t)
		if cls := g.classOf(b); cls != nil {
			g.buf.Line(s.Pos, "delete "+g.variable(b)+";")
			return
		}
		g.buf.Line(s.Pos, g.nameTarget(t)+" = undefined;")
	case *ast.Attribute:
		g.buf.Line(s.Pos, call(g.shim("delattr"), g.expr(t.Value), primary(quote(t.Attr))).text+";")
	case *ast.Subscript:
		obj := g.expr(t.Value)
		if sl, ok := t.Index.(*ast.Slice); ok {
			g.buf.Line(s.Pos, call(g.shim("delslice"), obj, g.optional(sl.Lower), g.optional(sl.Upper), g.optional(sl.Step)).text+";")
			return
		}
		g.buf.Line(s.Pos, call(g.shim("delitem"), obj, g.expr(t.Index)).text+";")
	case *ast.Tuple:
		for _, elt := range t.Elts {
			g.del(s, elt)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			g.del(s, elt)
		}
	default:
		g.app.AppendInternalf(target, "cannot delete %T", target)
	}
}
