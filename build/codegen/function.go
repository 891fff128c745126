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
	"github.com/gx-org/pyjs/build/binder"
)

// Kinds of function passed to the fn_def shim.
const (
	plainKind       = 0
	methodKind      = 1
	classMethodKind = 2
	staticKind      = 3
)

// directDefs returns the functions that can be called without binding
// arguments at runtime: functions with positional parameters only, defined
// at the top level of a module or function body, whose name is never rebound.
func directDefs(mod *ast.Module, bind *binder.Info) map[*binder.Binding]*ast.FunctionDef {
	counts := make(map[*binder.Binding]int)
	candidates := make(map[*binder.Binding]*ast.FunctionDef)
	bound := func(scope *binder.Scope, name string) *binder.Binding {
		b, ok := scope.Lookup(name)
		if !ok {
			return nil
		}
		b = b.Resolved()
		counts[b]++
		return b
	}
	candidate := func(scope *binder.Scope, body []ast.Stmt) {
		for _, s := range body {
			def, ok := s.(*ast.FunctionDef)
			if !ok || !def.Args.Simple() || len(def.Decorators) > 0 {
				continue
			}
			if b, ok := scope.Lookup(def.Name); ok {
				candidates[b.Resolved()] = def
			}
		}
	}
	candidate(bind.Module, mod.Body)
	var walk func(ast.Node, *binder.Scope)
	walk = func(node ast.Node, scope *binder.Scope) {
		switch n := node.(type) {
		case *ast.Name:
			if n.Ctx != ast.Load {
				if b := bind.Use(n); b != nil {
					counts[b.Resolved()]++
				}
			}
		case *ast.FunctionDef:
			bound(scope, n.Name)
			if inner := bind.ScopeOf(n); inner != nil {
				candidate(inner, n.Body)
			}
		case *ast.ClassDef:
			bound(scope, n.Name)
		case *ast.Import:
			for _, alias := range n.Names {
				bound(scope, importedName(alias))
			}
		case *ast.ImportFrom:
			for _, alias := range n.Names {
				if alias.Name != "*" {
					bound(scope, importedName(alias))
				}
			}
		case *ast.ExceptHandler:
			if n.Name != "" {
				bound(scope, n.Name)
			}
		}
		if inner := bind.ScopeOf(node); inner != nil {
			scope = inner
		}
		for _, child := range ast.Children(node) {
			walk(child, scope)
		}
	}
	walk(mod, bind.Module)
	direct := make(map[*binder.Binding]*ast.FunctionDef)
	for b, def := range candidates {
		if counts[b] == 1 {
			direct[b] = def
		}
	}
	return direct
}

// importedName returns the name bound by an import alias.
func importedName(alias *ast.Alias) string {
	if alias.AsName != "" {
		return alias.AsName
	}
	top, _, _ := strings.Cut(alias.Name, ".")
	return top
}

// directName returns the name of the function declaration of a def.
func directName(def *ast.FunctionDef) string {
	return Mangle(def.Name) + "$"
}

// params returns the target parameters of a source function.
func params(args *ast.Arguments) string {
	return joinMap(args.All(), func(arg *ast.Arg) string {
		return Mangle(arg.Name)
	})
}

// signature returns the runtime description of the parameters of a function.
// Defaults are evaluated when the function is defined.
func (g *generator) signature(args *ast.Arguments) string {
	if args == nil {
		args = &ast.Arguments{}
	}
	names := func(args []*ast.Arg) string {
		return joinMap(args, func(arg *ast.Arg) string {
			return quote(arg.Name)
		})
	}
	defaults := make([]string, len(args.Defaults))
	for i, d := range args.Defaults {
		defaults[i] = g.expr(d).arg()
	}
	var kwDefaults []string
	for i, d := range args.KwDefaults {
		if d == nil {
			continue
		}
		kwDefaults = append(kwDefaults, quote(args.KwOnly[i].Name)+": "+g.expr(d).arg())
	}
	return "{p: [" + names(args.Positional()) + "]" +
		", d: [" + strings.Join(defaults, ", ") + "]" +
		", v: " + strconv.FormatBool(args.Vararg != nil) +
		", k: [" + names(args.KwOnly) + "]" +
		", kd: {" + strings.Join(kwDefaults, ", ") + "}" +
		", kw: " + strconv.FormatBool(args.Kwarg != nil) + "}"
}

func (g *generator) functionDef(s *ast.FunctionDef) {
	if g.cls != nil {
		g.methodDef(g.cls, s)
		return
	}
	if len(s.Decorators) > 0 {
		g.app.AppendInternalf(s, "function decorators not desugared")
		return
	}
	sig := g.signature(s.Args)
	target := g.declared(s, s.Name)
	if b, ok := g.scope.Lookup(s.Name); ok && g.direct[b.Resolved()] == s {
		name := directName(s)
		g.buf.NamedLine(s.Pos, s.Name, g.functionKeyword(s)+" "+name+"("+params(s.Args)+") {")
		g.functionBody(s, s.Body, nil)
		g.buf.Line(ast.Pos{}, "}")
		g.buf.Line(s.Pos, target+" = "+g.shim("fn_def")+"("+name+", "+quote(s.Name)+", "+sig+", "+strconv.Itoa(plainKind)+");")
		return
	}
	closer := g.openFunction(s, target+" = ", sig, plainKind, nil)
	g.buf.Line(ast.Pos{}, closer+";")
}

func (g *generator) functionKeyword(node ast.Node) string {
	if g.bind.Generators[node] {
		return "function*"
	}
	return "function"
}

// openFunction writes the head and the body of a function wrapped by
// the fn_def shim. It returns the text closing the wrapper.
func (g *generator) openFunction(s *ast.FunctionDef, head, sig string, kind int, cls *classCtx) string {
	g.buf.NamedLine(s.Pos, s.Name, head+g.shim("fn_def")+"("+g.functionKeyword(s)+" ("+params(s.Args)+") {")
	g.functionBody(s, s.Body, cls)
	return "}, " + quote(s.Name) + ", " + sig + ", " + strconv.Itoa(kind) + ")"
}

// functionBody generates the statements of a function in its own context.
func (g *generator) functionBody(node ast.Node, body []ast.Stmt, cls *classCtx) {
	scope := g.bind.ScopeOf(node)
	if scope == nil {
		g.app.AppendInternalf(node, "function without scope")
		return
	}
	fn := &funcCtx{scope: scope, generator: g.bind.Generators[node], class: cls}
	if def, ok := node.(*ast.FunctionDef); ok && cls != nil {
		if pos := def.Args.Positional(); len(pos) > 0 {
			fn.self = Mangle(pos[0].Name)
		}
	}
	savedFn, savedScope, savedCls := g.fn, g.scope, g.cls
	g.fn, g.scope, g.cls = fn, scope, nil
	g.buf.Indent()
	start := g.buf.Len()
	g.block(body)
	if decls := g.declarations(fn); len(decls) > 0 {
		g.buf.Insert(start, "let "+strings.Join(decls, ", ")+";")
	}
	g.buf.Dedent()
	g.fn, g.scope, g.cls = savedFn, savedScope, savedCls
}

// lambda returns an arrow function for lambdas with positional parameters
// and a wrapped function otherwise.
func (g *generator) lambda(l *ast.Lambda) fragment {
	if g.bind.Generators[l] {
		return g.unsupported(l, "yield in lambda")
	}
	scope := g.bind.ScopeOf(l)
	if scope == nil {
		return g.internalf(l, "lambda without scope")
	}
	var sig string
	if !l.Args.Simple() {
		sig = g.signature(l.Args)
	}
	fn := &funcCtx{scope: scope}
	savedFn, savedScope, savedCls := g.fn, g.scope, g.cls
	g.fn, g.scope, g.cls = fn, scope, nil
	body := g.expr(l.Body)
	g.fn, g.scope, g.cls = savedFn, savedScope, savedCls

	ret := body.arg()
	if decls := g.declarations(fn); len(decls) > 0 {
		ret = "{ let " + strings.Join(decls, ", ") + "; return " + ret + "; }"
	} else if strings.HasPrefix(ret, "{") {
		ret = "(" + ret + ")"
	}
	if l.Args.Simple() {
		return fragment{text: "(" + params(l.Args) + ") => " + ret, prec: precAssign}
	}
	if !strings.HasPrefix(ret, "{") {
		ret = "{ return " + ret + "; }"
	}
	fnDef := g.shim("fn_def") + "(function (" + params(l.Args) + ") " + ret + ", " + quote("<lambda>") + ", " + sig + ", " + strconv.Itoa(plainKind) + ")"
	return primary(fnDef)
}
