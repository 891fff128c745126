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
	"strings"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// declare binds a name in a scope. Existing bindings, including global
// and nonlocal declarations, are kept.
func (b *binder) declare(s *Scope, name string, node ast.Node) *Binding {
	if bnd, ok := s.names.FindLocal(name); ok {
		if bnd.Class == Global && s.Kind != ModuleScope {
			b.declare(b.info.Module, name, node)
		}
		return bnd
	}
	class := Local
	if s.Kind == ModuleScope {
		class = Global
	}
	bnd := &Binding{Name: name, Scope: s, Class: class, Decl: node}
	s.names.Define(name, bnd)
	return bnd
}

// walrusScope returns the scope where an assignment expression binds:
// the closest enclosing scope which is not a comprehension.
func (b *binder) walrusScope(s *Scope, node ast.Node) *Scope {
	inComprehension := false
	for s.Kind == ComprehensionScope {
		s = s.Parent
		inComprehension = true
	}
	if inComprehension && s.Kind == ClassScope {
		b.app.Appendf(fmterr.StatementOutOfContext, node, "assignment expression within a comprehension cannot be used in a class body")
	}
	return s
}

func (b *binder) declareBlock(s *Scope, body []ast.Stmt) {
	for _, stmt := range body {
		b.declareStmt(s, stmt)
	}
}

func (b *binder) declareExprs(s *Scope, es ...ast.Expr) {
	for _, e := range es {
		b.declareExpr(s, e)
	}
}

// declareTarget declares the names bound by an assignment target.
func (b *binder) declareTarget(s *Scope, target ast.Expr) {
	switch t := target.(type) {
	case *ast.Name:
		b.declare(s, t.ID, t)
	case *ast.Tuple:
		for _, elt := range t.Elts {
			b.declareTarget(s, elt)
		}
	case *ast.List:
		for _, elt := range t.Elts {
			b.declareTarget(s, elt)
		}
	case *ast.Starred:
		b.declareTarget(s, t.Value)
	default:
		b.declareExpr(s, target)
	}
}

func (b *binder) declareStmt(s *Scope, stmt ast.Stmt) {
	switch st := stmt.(type) {
	case *ast.Assign:
		b.declareExpr(s, st.Value)
		for _, t := range st.Targets {
			b.declareTarget(s, t)
		}
	case *ast.AnnAssign:
		b.declareExpr(s, st.Value)
		b.declareTarget(s, st.Target)
	case *ast.AugAssign:
		b.declareExpr(s, st.Value)
		b.declareTarget(s, st.Target)
	case *ast.ExprStmt:
		b.declareExpr(s, st.Value)
	case *ast.If:
		b.declareExpr(s, st.Test)
		b.declareBlock(s, st.Body)
		b.declareBlock(s, st.OrElse)
	case *ast.While:
		b.declareExpr(s, st.Test)
		b.declareBlock(s, st.Body)
		b.declareBlock(s, st.OrElse)
	case *ast.For:
		b.declareExpr(s, st.Iter)
		b.declareTarget(s, st.Target)
		b.declareBlock(s, st.Body)
		b.declareBlock(s, st.OrElse)
	case *ast.Return:
		b.declareExpr(s, st.Value)
	case *ast.Raise:
		b.declareExprs(s, st.Exc, st.Cause)
	case *ast.Try:
		b.declareBlock(s, st.Body)
		for _, h := range st.Handlers {
			b.declareExpr(s, h.Type)
			if h.Name != "" {
				b.declare(s, h.Name, h)
			}
			b.declareBlock(s, h.Body)
		}
		b.declareBlock(s, st.OrElse)
		b.declareBlock(s, st.FinalBody)
	case *ast.Import:
		for _, alias := range st.Names {
			name := alias.AsName
			if name == "" {
				name, _, _ = strings.Cut(alias.Name, ".")
			}
			b.declare(s, name, alias)
		}
	case *ast.ImportFrom:
		for _, alias := range st.Names {
			if alias.Name == "*" {
				if s.Kind != ModuleScope {
					b.app.Appendf(fmterr.StatementOutOfContext, st, "import * only allowed at module level")
				}
				s.StarImport = true
				continue
			}
			name := alias.AsName
			if name == "" {
				name = alias.Name
			}
			b.declare(s, name, alias)
		}
	case *ast.FunctionDef:
		b.declareExprs(s, st.Decorators...)
		b.declareDefaults(s, st.Args)
		b.declare(s, st.Name, st)
		fs := b.newScope(FunctionScope, st, s, st.Name)
		b.declareParams(fs, st.Args)
		b.declareBlock(fs, st.Body)
	case *ast.ClassDef:
		b.declareExprs(s, st.Decorators...)
		b.declareExprs(s, st.Bases...)
		for _, kw := range st.Keywords {
			b.declareExpr(s, kw.Value)
		}
		b.declare(s, st.Name, st)
		cs := b.newScope(ClassScope, st, s, st.Name)
		b.declareBlock(cs, st.Body)
	case *ast.Global:
		b.declareGlobal(s, st, st.Names, Global)
	case *ast.Nonlocal:
		if s.Kind == ModuleScope {
			b.app.Appendf(fmterr.StatementOutOfContext, st, "nonlocal declaration not allowed at module level")
			return
		}
		b.declareGlobal(s, st, st.Names, Nonlocal)
	case *ast.Delete:
		for _, t := range st.Targets {
			b.declareTarget(s, t)
		}
	case *ast.Assert:
		b.declareExprs(s, st.Test, st.Msg)
	case *ast.Break, *ast.Continue, *ast.Pass:
	default:
		b.app.AppendInternalf(stmt, "statement %T must be desugared before binding", stmt)
	}
}

// declareGlobal declares names of a global or nonlocal statement.
func (b *binder) declareGlobal(s *Scope, stmt ast.Stmt, names []string, class Class) {
	if s.Kind == ModuleScope {
		return
	}
	other := Nonlocal
	if class == Nonlocal {
		other = Global
	}
	for _, name := range names {
		if bnd, ok := s.names.FindLocal(name); ok {
			switch {
			case bnd.Param:
				b.app.Appendf(fmterr.NameConflict, stmt, "name '%s' is parameter and %s", name, class)
			case bnd.Class == other:
				b.app.Appendf(fmterr.NameConflict, stmt, "name '%s' is %s and %s", name, other, class)
			case bnd.Class == Local:
				b.app.Appendf(fmterr.NameConflict, stmt, "name '%s' is assigned to before %s declaration", name, class)
			}
			continue
		}
		if s.seen[name] {
			b.app.Appendf(fmterr.NameConflict, stmt, "name '%s' is used prior to %s declaration", name, class)
			continue
		}
		s.names.Define(name, &Binding{Name: name, Scope: s, Class: class, Decl: stmt})
	}
}

func (b *binder) declareDefaults(s *Scope, args *ast.Arguments) {
	if args == nil {
		return
	}
	b.declareExprs(s, args.Defaults...)
	b.declareExprs(s, args.KwDefaults...)
}

func (b *binder) declareParams(fs *Scope, args *ast.Arguments) {
	for _, arg := range args.All() {
		if fs.names.IsLocal(arg.Name) {
			b.app.Appendf(fmterr.NameConflict, arg, "duplicate argument '%s' in function definition", arg.Name)
			continue
		}
		fs.names.Define(arg.Name, &Binding{
			Name:  arg.Name,
			Scope: fs,
			Class: Local,
			Decl:  arg,
			Param: true,
		})
	}
}

// markYield records a yield found in scope s.
func (b *binder) markYield(s *Scope, node ast.Node) {
	switch s.Kind {
	case FunctionScope, LambdaScope:
		s.Generator = true
		b.info.Generators[s.Node] = true
	case ComprehensionScope:
		b.app.Appendf(fmterr.StatementOutOfContext, node, "'yield' inside comprehension")
	default:
		b.app.Appendf(fmterr.StatementOutOfContext, node, "'yield' outside function")
	}
}

func (b *binder) declareComprehension(s *Scope, node ast.Node, gens []*ast.Comprehension, elts ...ast.Expr) {
	if len(gens) == 0 {
		b.app.AppendInternalf(node, "comprehension without generator")
		return
	}
	b.declareExpr(s, gens[0].Iter)
	cs := b.newScope(ComprehensionScope, node, s, "")
	for i, gen := range gens {
		if i > 0 {
			b.declareExpr(cs, gen.Iter)
		}
		b.declareTarget(cs, gen.Target)
		b.declareExprs(cs, gen.Ifs...)
	}
	b.declareExprs(cs, elts...)
}

// declareExpr declares the names bound inside an expression and creates
// the scopes of lambdas and comprehensions.
func (b *binder) declareExpr(s *Scope, e ast.Expr) {
	if e == nil {
		return
	}
	ast.Inspect(e, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.Name:
			if n.Ctx == ast.Load {
				s.seen[n.ID] = true
			} else {
				b.declare(s, n.ID, n)
			}
		case *ast.NamedExpr:
			b.declare(b.walrusScope(s, n), n.Target.ID, n.Target)
			b.declareExpr(s, n.Value)
			return false
		case *ast.Bind:
			b.declare(s, n.Target.ID, n.Target)
			b.declareExpr(s, n.Value)
			return false
		case *ast.Lambda:
			b.declareDefaults(s, n.Args)
			ls := b.newScope(LambdaScope, n, s, "<lambda>")
			b.declareParams(ls, n.Args)
			b.declareExpr(ls, n.Body)
			return false
		case *ast.ListComp:
			b.declareComprehension(s, n, n.Generators, n.Elt)
			return false
		case *ast.SetComp:
			b.declareComprehension(s, n, n.Generators, n.Elt)
			return false
		case *ast.GeneratorExp:
			b.declareComprehension(s, n, n.Generators, n.Elt)
			return false
		case *ast.DictComp:
			b.declareComprehension(s, n, n.Generators, n.Key, n.Value)
			return false
		case *ast.Yield, *ast.YieldFrom:
			b.markYield(s, n)
		case *ast.Arg:
			// Annotations are never evaluated.
			return false
		}
		return true
	})
}
