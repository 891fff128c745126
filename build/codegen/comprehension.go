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
)

// compTarget returns the declaration of the target of a comprehension loop.
func (g *generator) compTarget(target ast.Expr) string {
	switch t := target.(type) {
	case *ast.Name:
		return g.nameTarget(t)
	case *ast.Tuple:
		return g.compTargets(t.Elts)
	case *ast.List:
		return g.compTargets(t.Elts)
	case *ast.Starred:
		return "..." + g.compTarget(t.Value)
	}
	g.unsupported(target, "comprehension target")
	return "_"
}

func (g *generator) compTargets(elts []ast.Expr) string {
	texts := make([]string, len(elts))
	for i, elt := range elts {
		texts[i] = g.compTarget(elt)
	}
	return "[" + strings.Join(texts, ", ") + "]"
}

// loops returns the nested loops of a comprehension around a statement.
// The first iterable is the given text.
func (g *generator) loops(gens []*ast.Comprehension, first, stmt string) string {
	var b strings.Builder
	for i, gen := range gens {
		it := first
		if i > 0 {
			it = g.expr(gen.Iter).arg()
		}
		b.WriteString("for (const " + g.compTarget(gen.Target) + " of " + it + ") { ")
		for _, cond := range gen.Ifs {
			b.WriteString("if (" + unary("!", g.cond(cond)).text + ") continue; ")
		}
	}
	b.WriteString(stmt)
	b.WriteString(strings.Repeat(" }", len(gens)))
	return b.String()
}

// collection returns an immediately invoked arrow function building
// the list, set or dict of a comprehension.
func (g *generator) collection(node ast.Expr, kind string, elt, value ast.Expr, gens []*ast.Comprehension) fragment {
	first := g.expr(gens[0].Iter).arg()
	scope := g.bind.ScopeOf(node)
	if scope == nil {
		return g.internalf(node, "comprehension without scope")
	}
	saved := g.scope
	g.scope = scope
	defer func() { g.scope = saved }()
	r := g.names.Next("$r")
	var init, add string
	switch kind {
	case "list":
		init = g.shim("list") + ".$of()"
		add = r + ".push(" + g.expr(elt).arg() + ");"
	case "set":
		init = g.shim("set") + ".$of()"
		add = r + ".add(" + g.expr(elt).arg() + ");"
	default:
		init = "new " + g.shim("dict") + "()"
		add = call(g.shim("setitem"), primary(r), g.expr(elt), g.expr(value)).text + ";"
	}
	body := g.loops(gens, first, add)
	return fragment{
		text: "(() => { const " + r + " = " + init + "; " + body + " return " + r + "; })()",
		prec: precCall,
	}
}

// generatorExp returns an immediately invoked generator function.
// The first iterable is evaluated when the expression is.
func (g *generator) generatorExp(e *ast.GeneratorExp) fragment {
	first := g.expr(e.Generators[0].Iter).arg()
	scope := g.bind.ScopeOf(e)
	if scope == nil {
		return g.internalf(e, "generator expression without scope")
	}
	saved := g.scope
	g.scope = scope
	defer func() { g.scope = saved }()
	it := g.names.Next("$i")
	body := g.loops(e.Generators, it, "yield "+g.expr(e.Elt).arg()+";")
	return fragment{
		text: "(function* (" + it + ") { " + body + " })(" + first + ")",
		prec: precCall,
	}
}
