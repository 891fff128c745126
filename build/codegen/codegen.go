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

// Package codegen generates target code from a desugared, bound and typed module.
//
// Generated code calls runtime shims for every source operation whose target
// equivalent behaves differently. Operations on operands with a known
// primitive type use native target operators instead.
package codegen

import (
	"slices"
	"strings"

	"github.com/gx-org/pyjs/base/uname"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/build/infer"
	"github.com/gx-org/pyjs/build/resolver"
	"github.com/gx-org/pyjs/stdlib"
)

// Options of the code generation.
type Options struct {
	// ModuleMode generates ES module imports and exports instead of CommonJS.
	ModuleMode bool
	// Strict seals the instances of classes declaring __slots__.
	Strict bool
	// ModuleName is the value of __name__ when the module is imported.
	ModuleName string
	// Dir is the slash-separated directory of the source file in its root.
	Dir string
	// Resolver locates imported modules.
	// A nil resolver maps imports to their conventional output paths.
	Resolver *resolver.Resolver
}

// Unit is the generated code of a module.
type Unit struct {
	// Imports are the ES module import declarations.
	Imports []string
	// Body of the module.
	Body *Buffer
	// Exports is the statement exporting the module names.
	Exports string
	// Shims are the sorted identifiers of the shims referenced by the code.
	Shims []string
}

type (
	// funcCtx is the state of the function (or module) being generated.
	funcCtx struct {
		scope     *binder.Scope
		generator bool
		// class is set for methods, with self the first parameter.
		class *classCtx
		self  string
		// temps are the variables introduced by the generator.
		temps []string
		// loops are the labels of the enclosing loops.
		// An empty label marks a loop without else clause.
		loops []string
		// handlers are the variables of the enclosing catch clauses.
		handlers []string
		// unbound are the locals holding the unbound marker until assigned.
		unbound map[string]bool
	}

	// classCtx is the state of a class definition.
	classCtx struct {
		def   *ast.ClassDef
		scope *binder.Scope
		// ident is the constant holding the class while its body executes.
		ident  string
		fields []string
		props  map[string]*property
	}
)

type generator struct {
	file  string
	opts  Options
	bind  *binder.Info
	types *infer.Info
	cat   *stdlib.Catalog
	app   *fmterr.Appender

	buf     *Buffer
	names   *uname.Unique
	shims   map[string]bool
	imports []string
	// modules maps resolved import paths to their module variables.
	modules map[string]string

	fn    *funcCtx
	scope *binder.Scope
	// cls is set while generating the statements of a class body.
	cls     *classCtx
	classes map[*binder.Scope]*classCtx
	// direct maps the bindings of functions also declared for direct calls
	// to their definitions.
	direct map[*binder.Binding]*ast.FunctionDef
	// arrays are the temporaries always holding a target array.
	arrays map[string]bool
}

// Generate the code of a module.
func Generate(file string, mod *ast.Module, bind *binder.Info, types *infer.Info, cat *stdlib.Catalog, opts Options) (*Unit, error) {
	g := &generator{
		file:    file,
		opts:    opts,
		bind:    bind,
		types:   types,
		cat:     cat,
		app:     fmterr.NewAppender(file),
		buf:     &Buffer{},
		names:   uname.New(),
		shims:   make(map[string]bool),
		modules: make(map[string]string),
		classes: make(map[*binder.Scope]*classCtx),
		arrays:  make(map[string]bool),
	}
	g.direct = directDefs(mod, bind)
	g.module(mod)
	if !g.app.Empty() {
		return nil, g.app.First()
	}
	unit := &Unit{
		Imports: g.imports,
		Body:    g.buf,
		Exports: g.exports(),
	}
	for ident := range g.shims {
		unit.Shims = append(unit.Shims, ident)
	}
	slices.Sort(unit.Shims)
	return unit, nil
}

func (g *generator) module(mod *ast.Module) {
	g.fn = &funcCtx{scope: g.bind.Module}
	g.scope = g.bind.Module
	g.block(mod.Body)
	if decls := g.declarations(g.fn); len(decls) > 0 {
		g.buf.Insert(0, "let "+strings.Join(decls, ", ")+";")
	}
}

// declarations returns the variables to declare at the start of a function.
func (g *generator) declarations(fn *funcCtx) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = Mangle(name)
		if seen[name] {
			return
		}
		seen[name] = true
		if fn.unbound[name] {
			name += " = " + g.shim("unbound")
		}
		names = append(names, name)
	}
	for _, name := range fn.scope.Locals() {
		add(name)
	}
	if fn.scope.Kind == binder.ModuleScope {
		for b := range fn.scope.Bindings() {
			if b.Star {
				add(b.Name)
			}
		}
	}
	var classTemps func(*binder.Scope)
	classTemps = func(s *binder.Scope) {
		for _, child := range s.Children() {
			if child.Kind != binder.ClassScope {
				continue
			}
			for b := range child.Bindings() {
				if isTemp(b.Name) && (b.Class == binder.Local || b.Class == binder.Cell) {
					add(b.Name)
				}
			}
			classTemps(child)
		}
	}
	classTemps(fn.scope)
	for _, name := range fn.temps {
		add(name)
	}
	return names
}

// temp returns a new variable declared by the current function.
func (g *generator) temp(root string) string {
	name := g.names.Next(root)
	g.fn.temps = append(g.fn.temps, name)
	return name
}

// shim records the use of a function shim and returns its identifier.
func (g *generator) shim(name string) string {
	return g.use(stdlib.Function, name)
}

// method records the use of a method shim and returns its identifier.
func (g *generator) method(name string) string {
	return g.use(stdlib.Method, name)
}

func (g *generator) use(c stdlib.Category, name string) string {
	ident := stdlib.Ident(c, name)
	if _, ok := g.cat.Shim(ident); !ok {
		g.app.Append(fmterr.Internalf(g.file, nil, "%s shim %s missing from %s", c, name, g.cat.File()))
		return ident
	}
	g.shims[ident] = true
	return ident
}

// hasMethod returns true if the catalog has a method shim for an attribute name.
func (g *generator) hasMethod(name string) bool {
	_, ok := g.cat.Lookup(stdlib.Method, name)
	return ok
}

func (g *generator) internalf(node ast.Node, format string, a ...any) fragment {
	g.app.AppendInternalf(node, format, a...)
	return primary("null")
}

func (g *generator) unsupported(node ast.Node, feature string) fragment {
	g.app.Unsupported(node, feature)
	return primary("null")
}

func (g *generator) typeOf(e ast.Expr) infer.Type {
	return g.types.TypeOf(e)
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, "$")
}

// classOf returns the class whose body binds b, or nil.
func (g *generator) classOf(b *binder.Binding) *classCtx {
	if b == nil || b.Scope == nil || b.Scope.Kind != binder.ClassScope || isTemp(b.Name) {
		return nil
	}
	if b.Class != binder.Local && b.Class != binder.Cell {
		return nil
	}
	return g.classes[b.Scope]
}

// variable returns the target expression holding the value of a binding.
func (g *generator) variable(b *binder.Binding) string {
	if cls := g.classOf(b); cls != nil {
		return cls.ident + ".prototype." + b.Name
	}
	return Mangle(b.Resolved().Name)
}

// declared returns the target expression of a name declared by a statement
// in the current scope.
func (g *generator) declared(node ast.Node, name string) string {
	b, ok := g.scope.Lookup(name)
	if !ok {
		g.app.AppendInternalf(node, "name %s not bound in %s", name, g.scope)
		return Mangle(name)
	}
	return g.variable(b)
}

// nameRef returns the value of a name.
func (g *generator) nameRef(n *ast.Name) fragment {
	b := g.bind.Use(n)
	if b == nil {
		return g.internalf(n, "name %s has no binding", n.ID)
	}
	if b.Class == binder.Builtin {
		return g.builtin(n)
	}
	if cls := g.classOf(b); cls != nil {
		return fragment{text: g.variable(b), prec: precCall}
	}
	if g.unboundRead(n, b) {
		return call(g.shim("local"), primary(g.variable(b)), primary(quote(n.ID)))
	}
	return primary(g.variable(b))
}

// unboundRead returns true if a read of a local variable of the current
// function is checked at runtime. Once a variable is read before its first
// assignment in the source, all its reads are checked.
func (g *generator) unboundRead(n *ast.Name, b *binder.Binding) bool {
	fn := g.fn
	if fn == nil || b.Scope != fn.scope || b.Scope.Kind == binder.ModuleScope {
		return false
	}
	if b.Class != binder.Local || b.Param || isTemp(b.Name) {
		return false
	}
	name := Mangle(b.Name)
	if fn.unbound[name] {
		return true
	}
	if b.Decl == nil || !before(n.Span(), b.Decl.Span()) {
		return false
	}
	if fn.unbound == nil {
		fn.unbound = make(map[string]bool)
	}
	fn.unbound[name] = true
	return true
}

// before returns true if p starts before q.
func before(p, q ast.Pos) bool {
	if !p.Valid() || !q.Valid() {
		return false
	}
	return p.Line < q.Line || (p.Line == q.Line && p.Col < q.Col)
}

// nameTarget returns the assignment target of a name.
func (g *generator) nameTarget(n *ast.Name) string {
	b := g.bind.Use(n)
	if b == nil {
		g.app.AppendInternalf(n, "name %s has no binding", n.ID)
		return Mangle(n.ID)
	}
	return g.variable(b)
}

func (g *generator) builtin(n *ast.Name) fragment {
	switch n.ID {
	case stdlib.ModuleName:
		return g.moduleName()
	case stdlib.Super:
		return g.unsupported(n, "super outside of a call")
	case stdlib.Property:
		return g.unsupported(n, "property outside of a method decorator")
	}
	if _, ok := g.cat.Builtin(n.ID); !ok {
		return g.unsupported(n, "builtin "+n.ID)
	}
	return primary(g.shim(n.ID))
}

// moduleName evaluates to __main__ when the module is the entry point.
func (g *generator) moduleName() fragment {
	name := quote(g.opts.ModuleName)
	if g.opts.ModuleMode {
		return fragment{
			text: `typeof process !== "undefined" && process.argv[1] !== undefined && import.meta.url === new URL(process.argv[1], "file:///").href ? "__main__" : ` + name,
			prec: precCond,
		}
	}
	return fragment{
		text: `typeof require !== "undefined" && typeof module !== "undefined" && require.main === module ? "__main__" : ` + name,
		prec: precCond,
	}
}

// exports returns the statement exporting the module variables.
func (g *generator) exports() string {
	var names []string
	for _, name := range g.bind.Module.Locals() {
		if isTemp(name) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	specs := make([]string, len(names))
	for i, name := range names {
		mangled := Mangle(name)
		switch {
		case mangled == name:
			specs[i] = name
		case g.opts.ModuleMode:
			specs[i] = mangled + " as " + name
		default:
			specs[i] = quote(name) + ": " + mangled
		}
	}
	if g.opts.ModuleMode {
		return "export { " + strings.Join(specs, ", ") + " };"
	}
	return `if (typeof module !== "undefined") module.exports = { ` + strings.Join(specs, ", ") + " };"
}
