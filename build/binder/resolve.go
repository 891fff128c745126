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

package binder

import (
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// resolveScope resolves the targets of the global and nonlocal
// declarations of a scope.
func (b *binder) resolveScope(s *Scope) {
	for bnd := range s.Bindings() {
		switch bnd.Class {
		case Global:
			if s.Kind != ModuleScope {
				bnd.Target = b.declaredGlobal(bnd.Name, bnd.Decl)
			}
		case Nonlocal:
			target := b.enclosing(s, bnd.Name)
			if target == nil {
				b.app.Appendf(fmterr.UnknownSymbol, bnd.Decl, "no binding for nonlocal '%s' found", bnd.Name)
				continue
			}
			bnd.Target = target
		}
	}
}

// enclosing returns the binding of a name in the enclosing function scopes
// of s, marking it as a cell. Class scopes are skipped. Free bindings are
// added to the intermediate function scopes.
func (b *binder) enclosing(s *Scope, name string) *Binding {
	var path []*Scope
	for p := s.Parent; p != nil && p.Kind != ModuleScope; p = p.Parent {
		if p.Kind == ClassScope {
			continue
		}
		bnd, ok := p.names.FindLocal(name)
		if !ok {
			path = append(path, p)
			continue
		}
		switch bnd.Class {
		case Global:
			return bnd.Resolved()
		case Local:
			bnd.Class = Cell
		}
		for i := len(path) - 1; i >= 0; i-- {
			q := path[i]
			outer := bnd
			bnd = q.names.Intern(name, func() *Binding {
				return &Binding{Name: name, Scope: q, Class: Free, Decl: outer.Decl, Target: outer}
			})
		}
		return bnd
	}
	return nil
}

// declaredGlobal returns the binding referred to by a global declaration.
// The declaration defines the name in the module if it is not bound yet.
func (b *binder) declaredGlobal(name string, node ast.Node) *Binding {
	module := b.info.Module
	if bnd, ok := module.names.FindLocal(name); ok {
		return bnd
	}
	if bnd, ok := b.builtins.Find(name); ok {
		return bnd
	}
	bnd := &Binding{Name: name, Scope: module, Class: Global, Decl: node}
	module.names.Define(name, bnd)
	return bnd
}

// global returns the module or builtin binding of a name.
func (b *binder) global(name string, node ast.Node) *Binding {
	module := b.info.Module
	if bnd, ok := module.names.Find(name); ok {
		return bnd
	}
	if !module.StarImport {
		b.app.Appendf(fmterr.UnknownSymbol, node, "name '%s' is not defined", name)
	}
	bnd := &Binding{Name: name, Scope: module, Class: Global, Decl: node, Star: module.StarImport}
	module.names.Define(name, bnd)
	return bnd
}

// lookup resolves a name used in scope s.
func (b *binder) lookup(s *Scope, name string, node ast.Node) *Binding {
	if bnd, ok := s.names.FindLocal(name); ok {
		return bnd
	}
	if s.Kind == ModuleScope {
		return b.global(name, node)
	}
	if bnd := b.enclosing(s, name); bnd != nil {
		if s.Kind == ClassScope {
			return bnd
		}
		return s.names.Intern(name, func() *Binding {
			return &Binding{Name: name, Scope: s, Class: Free, Decl: bnd.Decl, Target: bnd}
		})
	}
	return b.global(name, node)
}

func (b *binder) use(s *Scope, name *ast.Name) {
	b.info.Uses[name] = b.lookup(s, name.ID, name)
}

func (b *binder) resolveBlock(s *Scope, body []ast.Stmt) {
	for _, stmt := range body {
		b.resolveStmt(s, stmt)
	}
}

func (b *binder) resolveExprs(s *Scope, es ...ast.Expr) {
	for _, e := range es {
		b.resolveExpr(s, e)
	}
}

// loop resolves the body of a loop.
func (b *binder) loop(s *Scope, body []ast.Stmt) {
	b.loops++
	b.resolveBlock(s, body)
	b.loops--
}

// nested resolves the body of a function or class with no enclosing loop.
func (b *binder) nested(s *Scope, body []ast.Stmt) {
	loops := b.loops
	b.loops = 0
	b.resolveScope(s)
	b.resolveBlock(s, body)
	b.loops = loops
}

func (b *binder) resolveStmt(s *Scope, stmt ast.Stmt) {
	switch st := stmt.(type) {
	case *ast.Assign:
		b.resolveExpr(s, st.Value)
		b.resolveExprs(s, st.Targets...)
	case *ast.AnnAssign:
		b.resolveExprs(s, st.Value, st.Target)
	case *ast.AugAssign:
		b.resolveExprs(s, st.Target, st.Value)
	case *ast.ExprStmt:
		b.resolveExpr(s, st.Value)
	case *ast.If:
		b.resolveExpr(s, st.Test)
		b.resolveBlock(s, st.Body)
		b.resolveBlock(s, st.OrElse)
	case *ast.While:
		b.resolveExpr(s, st.Test)
		b.loop(s, st.Body)
		b.resolveBlock(s, st.OrElse)
	case *ast.For:
		b.resolveExprs(s, st.Iter, st.Target)
		b.loop(s, st.Body)
		b.resolveBlock(s, st.OrElse)
	case *ast.Break:
		if b.loops == 0 {
			b.app.Appendf(fmterr.StatementOutOfContext, st, "'break' outside loop")
		}
	case *ast.Continue:
		if b.loops == 0 {
			b.app.Appendf(fmterr.StatementOutOfContext, st, "'continue' not properly in loop")
		}
	case *ast.Return:
		if s.Kind != FunctionScope {
			b.app.Appendf(fmterr.StatementOutOfContext, st, "'return' outside function")
		}
		b.resolveExpr(s, st.Value)
	case *ast.Raise:
		b.resolveExprs(s, st.Exc, st.Cause)
	case *ast.Try:
		b.resolveBlock(s, st.Body)
		for _, h := range st.Handlers {
			b.resolveExpr(s, h.Type)
			b.resolveBlock(s, h.Body)
		}
		b.resolveBlock(s, st.OrElse)
		b.resolveBlock(s, st.FinalBody)
	case *ast.FunctionDef:
		b.resolveExprs(s, st.Decorators...)
		b.resolveDefaults(s, st.Args)
		b.nested(b.info.Scopes[st], st.Body)
	case *ast.ClassDef:
		b.resolveExprs(s, st.Decorators...)
		b.resolveExprs(s, st.Bases...)
		for _, kw := range st.Keywords {
			b.resolveExpr(s, kw.Value)
		}
		b.nested(b.info.Scopes[st], st.Body)
	case *ast.Delete:
		b.resolveExprs(s, st.Targets...)
	case *ast.Assert:
		b.resolveExprs(s, st.Test, st.Msg)
	case *ast.Import, *ast.ImportFrom, *ast.Global, *ast.Nonlocal, *ast.Pass:
	}
}

func (b *binder) resolveDefaults(s *Scope, args *ast.Arguments) {
	if args == nil {
		return
	}
	b.resolveExprs(s, args.Defaults...)
	b.resolveExprs(s, args.KwDefaults...)
}

func (b *binder) resolveComprehension(s *Scope, node ast.Node, gens []*ast.Comprehension, elts ...ast.Expr) {
	cs := b.info.Scopes[node]
	if cs == nil || len(gens) == 0 {
		return
	}
	b.resolveExpr(s, gens[0].Iter)
	for i, gen := range gens {
		if i > 0 {
			b.resolveExpr(cs, gen.Iter)
		}
		b.resolveExpr(cs, gen.Target)
		b.resolveExprs(cs, gen.Ifs...)
	}
	b.resolveExprs(cs, elts...)
}

func (b *binder) resolveExpr(s *Scope, e ast.Expr) {
	if e == nil {
		return
	}
	ast.Inspect(e, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.Name:
			b.use(s, n)
		case *ast.NamedExpr:
			b.use(s, n.Target)
			b.resolveExpr(s, n.Value)
			return false
		case *ast.Lambda:
			b.resolveDefaults(s, n.Args)
			ls := b.info.Scopes[n]
			b.resolveScope(ls)
			b.resolveExpr(ls, n.Body)
			return false
		case *ast.ListComp:
			b.resolveComprehension(s, n, n.Generators, n.Elt)
			return false
		case *ast.SetComp:
			b.resolveComprehension(s, n, n.Generators, n.Elt)
			return false
		case *ast.GeneratorExp:
			b.resolveComprehension(s, n, n.Generators, n.Elt)
			return false
		case *ast.DictComp:
			b.resolveComprehension(s, n, n.Generators, n.Key, n.Value)
			return false
		case *ast.Arg:
			return false
		}
		return true
	})
}
