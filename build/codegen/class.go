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
	"github.com/gx-org/pyjs/build/desugar"
	"github.com/gx-org/pyjs/stdlib"
)

// property collects the accessors of a property declared in a class body.
type property struct {
	getter, setter *ast.FunctionDef
}

// classDef generates a class in a block:
//
//	{
//	  const $k = _fn_class("C", base);
//	  ...body assigning $k.prototype members...
//	  C = $k;
//	}
func (g *generator) classDef(s *ast.ClassDef) {
	if len(s.Bases) > 1 {
		g.app.Unsupported(s.Bases[1], "multiple inheritance")
		return
	}
	if len(s.Keywords) > 0 {
		g.app.Unsupported(s, "class keyword arguments")
		return
	}
	var dataclass ast.Expr
	for _, dec := range s.Decorators {
		if !desugar.IsDataclass(dec) {
			g.app.AppendInternalf(dec, "class decorator not desugared")
			return
		}
		dataclass = dec
	}
	scope := g.bind.ScopeOf(s)
	if scope == nil {
		g.app.AppendInternalf(s, "class without scope")
		return
	}
	base := primary("null")
	if len(s.Bases) == 1 {
		base = g.expr(s.Bases[0])
	}
	target := g.declared(s, s.Name)
	cls := &classCtx{
		def:   s,
		scope: scope,
		ident: g.names.Next("$k"),
		props: g.properties(s.Body),
	}
	g.classes[scope] = cls
	g.buf.Line(ast.Pos{}, "{")
	g.buf.Indent()
	g.buf.NamedLine(s.Pos, s.Name, "const "+cls.ident+" = "+call(g.shim("class"), primary(quote(s.Name)), base).text+";")

	savedScope, savedCls := g.scope, g.cls
	g.scope, g.cls = scope, cls
	g.block(s.Body)
	g.scope, g.cls = savedScope, savedCls

	value := primary(cls.ident)
	if dataclass != nil {
		value = g.dataclass(cls, dataclass)
	}
	g.buf.Line(s.Pos, target+" = "+value.arg()+";")
	g.buf.Dedent()
	g.buf.Line(ast.Pos{}, "}")
}

// dataclass records the fields of a class, including the fields
// of its bases, and returns the decorated class.
func (g *generator) dataclass(cls *classCtx, dec ast.Expr) fragment {
	fields := make([]string, len(cls.fields))
	for i, f := range cls.fields {
		fields[i] = quote(f)
	}
	g.buf.Line(ast.Pos{}, cls.ident+".$fields = ("+cls.ident+".$base.$fields || []).concat(["+strings.Join(fields, ", ")+"]);")
	fn := g.shim("dataclass")
	c, ok := dec.(*ast.Call)
	if !ok {
		return call(fn, primary(cls.ident))
	}
	if len(c.Args) > 0 {
		return g.unsupported(c, "positional arguments to dataclass")
	}
	var opts []fragment
	if len(c.Keywords) > 0 {
		opts = append(opts, primary("new "+g.shim("opts")+"("+g.keywords(c.Keywords).arg()+")"))
	}
	return primary(call(fn, opts...).text + "(" + cls.ident + ")")
}

// properties returns the properties declared in a class body by name.
func (g *generator) properties(body []ast.Stmt) map[string]*property {
	props := make(map[string]*property)
	for _, s := range body {
		def, ok := s.(*ast.FunctionDef)
		if !ok {
			continue
		}
		for _, dec := range def.Decorators {
			switch {
			case g.isBuiltin(dec, stdlib.Property):
				props[def.Name] = &property{getter: def}
			case isSetter(dec, def.Name):
				if p := props[def.Name]; p != nil {
					p.setter = def
				}
			}
		}
	}
	return props
}

func isSetter(dec ast.Expr, name string) bool {
	attr, ok := dec.(*ast.Attribute)
	if !ok || attr.Attr != "setter" {
		return false
	}
	n, ok := attr.Value.(*ast.Name)
	return ok && n.ID == name
}

// methodDef generates a function defined in a class body.
func (g *generator) methodDef(cls *classCtx, s *ast.FunctionDef) {
	kind := methodKind
	var wrappers []ast.Expr
	for _, dec := range s.Decorators {
		switch {
		case g.isBuiltin(dec, "staticmethod"):
			kind = staticKind
		case g.isBuiltin(dec, "classmethod"):
			kind = classMethodKind
		case g.isBuiltin(dec, stdlib.Property):
			g.propertyDef(cls, s, false)
			return
		case isSetter(dec, s.Name):
			g.propertyDef(cls, s, true)
			return
		default:
			wrappers = append(wrappers, dec)
		}
	}
	sig := g.signature(s.Args)
	target := g.declared(s, s.Name)
	head := target + " = "
	for _, w := range wrappers {
		head += g.expr(w).at(precCall) + "("
	}
	closer := g.openFunction(s, head, sig, kind, cls)
	g.buf.Line(ast.Pos{}, closer+strings.Repeat(")", len(wrappers))+";")
}

// propertyDef defines a property once all its accessors are known:
// at the getter if there is no setter, at the setter otherwise.
func (g *generator) propertyDef(cls *classCtx, s *ast.FunctionDef, setter bool) {
	p := cls.props[s.Name]
	if p == nil {
		g.app.Unsupported(s, "property setter without getter")
		return
	}
	if !setter && p.setter != nil {
		return
	}
	head := call(g.shim("property"), primary(cls.ident), primary(quote(s.Name))).text
	head = strings.TrimSuffix(head, ")") + ", "
	getterSig := g.signature(p.getter.Args)
	closer := g.openFunction(p.getter, head, getterSig, methodKind, cls)
	if p.setter == nil {
		g.buf.Line(ast.Pos{}, closer+", null);")
		return
	}
	setterSig := g.signature(p.setter.Args)
	closer = g.openFunction(p.setter, closer+", ", setterSig, methodKind, cls)
	g.buf.Line(ast.Pos{}, closer+");")
}

// slots declares the attributes of the instances of a class.
func (g *generator) slots(s *ast.Assign) {
	value := g.expr(s.Value)
	g.buf.Line(s.Pos, call(g.shim("slots"), primary(g.cls.ident), value, primary(strconv.FormatBool(g.opts.Strict))).text+";")
}
