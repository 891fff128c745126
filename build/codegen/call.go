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
	"strings"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/infer"
	"github.com/gx-org/pyjs/stdlib"
)

func (g *generator) call(c *ast.Call) fragment {
	switch fn := c.Func.(type) {
	case *ast.Name:
		b := g.bind.Use(fn)
		if b != nil && b.Class == binder.Builtin {
			return g.builtinCall(c, fn)
		}
		if b == nil {
			break
		}
		if def := g.direct[b.Resolved()]; def != nil && directArgs(c, def) {
			return call(directName(def), g.exprs(c.Args)...)
		}
	case *ast.Attribute:
		if fn.Attr != "__class__" {
			return g.methodCall(c, fn)
		}
	}
	return fragment{text: g.expr(c.Func).at(precCall) + "(" + g.arguments(c) + ")", prec: precCall}
}

func hasStarred(args []ast.Expr) bool {
	for _, arg := range args {
		if _, ok := arg.(*ast.Starred); ok {
			return true
		}
	}
	return false
}

// directArgs returns true if a call passes exactly the positional
// parameters of a function.
func directArgs(c *ast.Call, def *ast.FunctionDef) bool {
	return len(c.Keywords) == 0 && !hasStarred(c.Args) && len(c.Args) == len(def.Args.Positional())
}

// arguments returns the arguments of a call to a source function.
// Keyword arguments are passed with positional arguments in a single kw object.
func (g *generator) arguments(c *ast.Call) string {
	if len(c.Keywords) == 0 {
		return g.elements(c.Args)
	}
	return "new " + g.shim("kw") + "([" + g.elements(c.Args) + "], " + g.keywords(c.Keywords).arg() + ")"
}

// keywords returns an object mapping keyword names to values.
func (g *generator) keywords(kws []*ast.Keyword) fragment {
	var parts []fragment
	var props []string
	expanded := false
	flush := func() {
		if len(props) > 0 {
			parts = append(parts, primary("{"+strings.Join(props, ", ")+"}"))
			props = nil
		}
	}
	for _, kw := range kws {
		if kw.Arg == "" {
			flush()
			parts = append(parts, g.expr(kw.Value))
			expanded = true
			continue
		}
		props = append(props, quote(kw.Arg)+": "+g.expr(kw.Value).arg())
	}
	flush()
	if !expanded && len(parts) == 1 {
		return parts[0]
	}
	return call(g.shim("kwmerge"), parts...)
}

func (g *generator) builtinCall(c *ast.Call, name *ast.Name) fragment {
	switch name.ID {
	case stdlib.Super:
		return g.superCall(c)
	case stdlib.ModuleName, stdlib.Property:
		return g.builtin(name)
	}
	shim, ok := g.cat.Builtin(name.ID)
	if !ok {
		return g.builtin(name)
	}
	starred := hasStarred(c.Args)
	if len(c.Keywords) == 0 && !starred && !shim.Accepts(len(c.Args)) {
		g.app.Appendf(fmterr.IncompatibleType, c, "%s() does not accept %d positional arguments", name.ID, len(c.Args))
		return primary("null")
	}
	if len(c.Keywords) == 0 && !starred && len(c.Args) == 1 && name.ID == "len" {
		switch g.typeOf(c.Args[0]) {
		case infer.List, infer.Tuple:
			return fragment{text: g.expr(c.Args[0]).member() + ".length", prec: precCall}
		}
	}
	fn := g.shim(name.ID)
	if len(c.Keywords) == 0 {
		return primary(fn + "(" + g.elements(c.Args) + ")")
	}
	if name.ID == "dict" {
		return g.dictCall(c)
	}
	args := g.elements(c.Args)
	if shim.Arity >= 0 && !starred {
		for i := len(c.Args); i < shim.Arity; i++ {
			if args != "" {
				args += ", "
			}
			args += "undefined"
		}
	}
	if args != "" {
		args += ", "
	}
	return primary(fn + "(" + args + "new " + g.shim("opts") + "(" + g.keywords(c.Keywords).arg() + "))")
}

// dictCall builds a dict from an optional positional argument and keywords.
func (g *generator) dictCall(c *ast.Call) fragment {
	parts := g.exprs(c.Args)
	var props []string
	flush := func() {
		if len(props) > 0 {
			parts = append(parts, call(g.shim("dict_obj"), primary("{"+strings.Join(props, ", ")+"}")))
			props = nil
		}
	}
	for _, kw := range c.Keywords {
		if kw.Arg == "" {
			flush()
			parts = append(parts, g.expr(kw.Value))
			continue
		}
		props = append(props, quote(kw.Arg)+": "+g.expr(kw.Value).arg())
	}
	flush()
	return call(g.shim("dict_new"), parts...)
}

func (g *generator) superCall(c *ast.Call) fragment {
	if len(c.Args) > 0 || len(c.Keywords) > 0 {
		return g.unsupported(c, "super with arguments")
	}
	if g.fn.class == nil || g.fn.self == "" {
		return g.unsupported(c, "super outside of a method")
	}
	return call(g.shim("super"), primary(g.fn.class.ident), primary(g.fn.self))
}

// methodCall calls a method on a receiver. Methods of builtin types with a
// different target name or behavior dispatch through method shims.
func (g *generator) methodCall(c *ast.Call, attr *ast.Attribute) fragment {
	if sup, ok := attr.Value.(*ast.Call); ok && g.isBuiltin(sup.Func, stdlib.Super) {
		recv := g.superCall(sup)
		return fragment{text: recv.member() + "." + attr.Attr + "(" + g.arguments(c) + ")", prec: precCall}
	}
	recv := g.expr(attr.Value)
	if g.hasMethod(attr.Attr) {
		if len(c.Keywords) > 0 {
			if g.typeOf(attr.Value) == infer.String {
				return g.unsupported(c, "keyword arguments to str."+attr.Attr)
			}
		} else {
			args := []fragment{recv}
			if len(c.Args) > 0 {
				args = append(args, primary(g.elements(c.Args)))
			}
			return call(g.method(attr.Attr), args...)
		}
	}
	return fragment{text: recv.member() + "." + attr.Attr + "(" + g.arguments(c) + ")", prec: precCall}
}

// isBuiltin returns true if e is a builtin name.
func (g *generator) isBuiltin(e ast.Expr, name string) bool {
	n, ok := e.(*ast.Name)
	if !ok || n.ID != name {
		return false
	}
	b := g.bind.Use(n)
	return b != nil && b.Class == binder.Builtin
}
