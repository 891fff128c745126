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

// Package infer annotates expressions with a type of a small lattice.
//
// The inference is flow-insensitive: the type of a binding is the join of
// the types of all the values assigned to it anywhere in the module. Each
// walk of the module recomputes all binding types, reading the types of
// the previous walk, until they are stable. After MaxRounds walks, bindings
// which still change are widened to Unknown.
//
// Types are only used to select faster code. Unknown is always correct.
package infer

import (
	"strings"

	"golang.org/x/exp/maps"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/binder"
	"github.com/gx-org/pyjs/build/fmterr"
)

// MaxRounds is the number of walks before widening unstable bindings.
const MaxRounds = 4

// Info stores the inferred types.
type Info struct {
	// Types of the expressions. Absent expressions are Unknown.
	Types map[ast.Expr]Type
	// Bindings maps resolved bindings to their type.
	Bindings map[*binder.Binding]Type
}

// TypeOf returns the type of an expression.
func (inf *Info) TypeOf(e ast.Expr) Type {
	return inf.Types[e]
}

// BindingType returns the type of the value held by a binding.
func (inf *Info) BindingType(b *binder.Binding) Type {
	if b == nil {
		return Unknown
	}
	return inf.Bindings[b.Resolved()]
}

type inferer struct {
	app   *fmterr.Appender
	bind  *binder.Info
	info  *Info
	scope *binder.Scope

	// prev are the binding types computed by the previous walk.
	prev map[*binder.Binding]Type
	// fixed are the bindings declared with an annotation or widened.
	fixed map[*binder.Binding]Type
}

// Infer the types of a bound module.
func Infer(file string, mod *ast.Module, bind *binder.Info) (*Info, error) {
	inf := &inferer{
		app:   fmterr.NewAppender(file),
		bind:  bind,
		info:  &Info{},
		fixed: make(map[*binder.Binding]Type),
	}
	for round := 1; ; round++ {
		inf.info.Types = make(map[ast.Expr]Type)
		inf.info.Bindings = make(map[*binder.Binding]Type)
		inf.scope = bind.Module
		inf.block(mod.Body)
		if !inf.app.Empty() {
			return nil, inf.app.First()
		}
		if inf.prev != nil && maps.Equal(inf.prev, inf.info.Bindings) {
			break
		}
		if round >= MaxRounds && inf.prev != nil {
			inf.widen()
		}
		inf.prev = inf.info.Bindings
	}
	return inf.info, nil
}

// widen fixes to Unknown the bindings which changed during the last walk.
func (inf *inferer) widen() {
	for b, t := range inf.info.Bindings {
		if prev, ok := inf.prev[b]; !ok || prev != t {
			inf.fixed[b] = Unknown
		}
	}
}

// typeOf returns the type of a binding read by an expression.
func (inf *inferer) typeOf(b *binder.Binding) Type {
	b = b.Resolved()
	if t, ok := inf.prev[b]; ok {
		return t
	}
	return inf.info.Bindings[b]
}

// assign joins the type of a value assigned to a binding.
func (inf *inferer) assign(b *binder.Binding, t Type) {
	if b == nil {
		return
	}
	b = b.Resolved()
	if b.Class == binder.Builtin {
		return
	}
	if fixed, ok := inf.fixed[b]; ok {
		inf.info.Bindings[b] = fixed
		return
	}
	if cur, ok := inf.info.Bindings[b]; ok {
		t = Join(cur, t)
	}
	inf.info.Bindings[b] = t
}

// declare sets the type of an annotated binding.
func (inf *inferer) declare(b *binder.Binding, t Type) {
	if b == nil {
		return
	}
	b = b.Resolved()
	if _, ok := inf.fixed[b]; !ok {
		inf.fixed[b] = t
	}
	inf.info.Bindings[b] = inf.fixed[b]
}

func (inf *inferer) local(name string) *binder.Binding {
	b, _ := inf.scope.Lookup(name)
	return b
}

// checkLiteral reports a literal initializing a declaration of another type.
func (inf *inferer) checkLiteral(ann Type, value ast.Expr) bool {
	lit, ok := value.(*ast.Constant)
	if !ok {
		return true
	}
	litType := OfConstant(lit.Value)
	if assignable(ann, litType) {
		return true
	}
	return inf.app.Appendf(fmterr.IncompatibleType, value, "cannot use %s literal as %s", litType, ann)
}

func (inf *inferer) block(body []ast.Stmt) {
	for _, stmt := range body {
		inf.stmt(stmt)
	}
}

func (inf *inferer) exprs(es ...ast.Expr) {
	for _, e := range es {
		inf.expr(e)
	}
}

func (inf *inferer) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Assign:
		t := inf.expr(s.Value)
		for _, target := range s.Targets {
			inf.target(target, t)
		}
	case *ast.AnnAssign:
		ann := Annotation(s.Annotation)
		if s.Value != nil {
			inf.expr(s.Value)
			if !inf.checkLiteral(ann, s.Value) {
				return
			}
		}
		name, ok := s.Target.(*ast.Name)
		if !ok {
			inf.target(s.Target, Unknown)
			return
		}
		inf.declare(inf.bind.Use(name), ann)
		inf.info.Types[name] = ann
	case *ast.AugAssign:
		t := inf.binOp(s.Op, inf.expr(s.Target), inf.expr(s.Value))
		inf.target(s.Target, t)
	case *ast.ExprStmt:
		inf.expr(s.Value)
	case *ast.If:
		inf.expr(s.Test)
		inf.block(s.Body)
		inf.block(s.OrElse)
	case *ast.While:
		inf.expr(s.Test)
		inf.block(s.Body)
		inf.block(s.OrElse)
	case *ast.For:
		inf.target(s.Target, inf.element(s.Iter, inf.expr(s.Iter)))
		inf.block(s.Body)
		inf.block(s.OrElse)
	case *ast.Return:
		inf.expr(s.Value)
	case *ast.Raise:
		inf.exprs(s.Exc, s.Cause)
	case *ast.Try:
		inf.block(s.Body)
		for _, h := range s.Handlers {
			inf.expr(h.Type)
			if h.Name != "" {
				inf.assign(inf.local(h.Name), Unknown)
			}
			inf.block(h.Body)
		}
		inf.block(s.OrElse)
		inf.block(s.FinalBody)
	case *ast.FunctionDef:
		inf.exprs(s.Decorators...)
		inf.function(s, s.Args, func() { inf.block(s.Body) })
		inf.assign(inf.local(s.Name), Callable)
	case *ast.ClassDef:
		inf.exprs(s.Decorators...)
		inf.exprs(s.Bases...)
		for _, kw := range s.Keywords {
			inf.expr(kw.Value)
		}
		outer := inf.scope
		inf.scope = inf.bind.ScopeOf(s)
		inf.block(s.Body)
		inf.scope = outer
		inf.assign(inf.local(s.Name), Callable)
	case *ast.Import:
		for _, alias := range s.Names {
			name := alias.AsName
			if name == "" {
				name, _, _ = strings.Cut(alias.Name, ".")
			}
			inf.assign(inf.local(name), Unknown)
		}
	case *ast.ImportFrom:
		for _, alias := range s.Names {
			name := alias.AsName
			if name == "" {
				name = alias.Name
			}
			if name != "*" {
				inf.assign(inf.local(name), Unknown)
			}
		}
	case *ast.Delete:
		inf.exprs(s.Targets...)
	case *ast.Assert:
		inf.exprs(s.Test, s.Msg)
	case *ast.Global, *ast.Nonlocal, *ast.Pass, *ast.Break, *ast.Continue:
	default:
		inf.app.AppendInternalf(stmt, "statement %T not supported by type inference", stmt)
	}
}

// function infers the parameters of a function or a lambda,
// then runs body in the function scope.
func (inf *inferer) function(node ast.Node, args *ast.Arguments, body func()) {
	if args != nil {
		inf.exprs(args.Defaults...)
		inf.exprs(args.KwDefaults...)
	}
	outer := inf.scope
	inf.scope = inf.bind.ScopeOf(node)
	defer func() { inf.scope = outer }()
	if args != nil {
		inf.params(args)
	}
	body()
}

func (inf *inferer) params(args *ast.Arguments) {
	positional := args.Positional()
	firstDefault := len(positional) - len(args.Defaults)
	for i, arg := range positional {
		var def ast.Expr
		if i >= firstDefault {
			def = args.Defaults[i-firstDefault]
		}
		inf.param(arg, def)
	}
	for i, arg := range args.KwOnly {
		var def ast.Expr
		if i < len(args.KwDefaults) {
			def = args.KwDefaults[i]
		}
		inf.param(arg, def)
	}
	if args.Vararg != nil {
		inf.declare(inf.local(args.Vararg.Name), Tuple)
	}
	if args.Kwarg != nil {
		inf.declare(inf.local(args.Kwarg.Name), Dict)
	}
}

func (inf *inferer) param(arg *ast.Arg, def ast.Expr) {
	b := inf.local(arg.Name)
	if arg.Annotation == nil {
		inf.assign(b, Unknown)
		return
	}
	ann := Annotation(arg.Annotation)
	if def != nil && !inf.checkLiteral(ann, def) {
		return
	}
	inf.declare(b, ann)
}

// target records the type of the value assigned to a target.
func (inf *inferer) target(target ast.Expr, t Type) {
	switch tg := target.(type) {
	case *ast.Name:
		inf.assign(inf.bind.Use(tg), t)
		inf.info.Types[tg] = t
	case *ast.Tuple:
		for _, elt := range tg.Elts {
			inf.target(elt, Unknown)
		}
	case *ast.List:
		for _, elt := range tg.Elts {
			inf.target(elt, Unknown)
		}
	case *ast.Starred:
		inf.target(tg.Value, List)
	default:
		inf.expr(target)
	}
}

// element returns the type of the elements produced by iterating over an expression.
func (inf *inferer) element(iter ast.Expr, t Type) Type {
	if inf.builtinName(iter) == "range" {
		return Int
	}
	switch t {
	case String:
		return String
	case Bytes:
		return Int
	}
	return Unknown
}

// builtinName returns the name of the builtin called by an expression, if any.
func (inf *inferer) builtinName(e ast.Expr) string {
	call, ok := e.(*ast.Call)
	if !ok {
		return ""
	}
	name, ok := call.Func.(*ast.Name)
	if !ok {
		return ""
	}
	b := inf.bind.Use(name)
	if b == nil || b.Resolved().Class != binder.Builtin {
		return ""
	}
	return name.ID
}

func (inf *inferer) expr(e ast.Expr) Type {
	if e == nil {
		return Unknown
	}
	t := inf.exprType(e)
	inf.info.Types[e] = t
	return t
}

func (inf *inferer) exprType(e ast.Expr) Type {
	switch x := e.(type) {
	case *ast.Constant:
		return OfConstant(x.Value)
	case *ast.Name:
		b := inf.bind.Use(x)
		if b == nil {
			return Unknown
		}
		if b.Resolved().Class == binder.Builtin {
			return Callable
		}
		return inf.typeOf(b)
	case *ast.BinOp:
		return inf.binOp(x.Op, inf.expr(x.Left), inf.expr(x.Right))
	case *ast.UnaryOp:
		return unaryOp(x.Op, inf.expr(x.Operand))
	case *ast.BoolOp:
		t := inf.expr(x.Values[0])
		for _, v := range x.Values[1:] {
			t = Join(t, inf.expr(v))
		}
		return t
	case *ast.Compare:
		inf.expr(x.Left)
		inf.exprs(x.Comparators...)
		return Bool
	case *ast.Attribute:
		inf.expr(x.Value)
		if inf.isMath(x.Value) {
			switch x.Attr {
			case "pi", "e", "tau", "inf", "nan":
				return Float
			}
		}
		return Unknown
	case *ast.Subscript:
		return subscript(inf.expr(x.Value), x.Index, inf.expr(x.Index))
	case *ast.Slice:
		inf.exprs(x.Lower, x.Upper, x.Step)
		return Unknown
	case *ast.Call:
		return inf.call(x)
	case *ast.IfExp:
		inf.expr(x.Test)
		return Join(inf.expr(x.Body), inf.expr(x.OrElse))
	case *ast.List:
		inf.exprs(x.Elts...)
		return List
	case *ast.Tuple:
		inf.exprs(x.Elts...)
		return Tuple
	case *ast.Set:
		inf.exprs(x.Elts...)
		return Set
	case *ast.Dict:
		inf.exprs(x.Keys...)
		inf.exprs(x.Values...)
		return Dict
	case *ast.ListComp:
		inf.comprehension(x.Generators, x.Elt)
		return List
	case *ast.SetComp:
		inf.comprehension(x.Generators, x.Elt)
		return Set
	case *ast.DictComp:
		inf.comprehension(x.Generators, x.Key, x.Value)
		return Dict
	case *ast.GeneratorExp:
		inf.comprehension(x.Generators, x.Elt)
		return Iterable
	case *ast.Lambda:
		inf.function(x, x.Args, func() { inf.expr(x.Body) })
		return Callable
	case *ast.JoinedStr:
		inf.exprs(x.Values...)
		return String
	case *ast.FormattedValue:
		inf.exprs(x.Value, x.FormatSpec)
		return String
	case *ast.Yield:
		inf.expr(x.Value)
		return Unknown
	case *ast.YieldFrom:
		inf.expr(x.Value)
		return Unknown
	case *ast.Starred:
		inf.expr(x.Value)
		return Unknown
	case *ast.NamedExpr:
		t := inf.expr(x.Value)
		inf.target(x.Target, t)
		return t
	case *ast.Bind:
		inf.target(x.Target, inf.expr(x.Value))
		return Bool
	case *ast.ShimCall:
		inf.exprs(x.Args...)
		return Unknown
	}
	inf.app.AppendInternalf(e, "expression %T not supported by type inference", e)
	return Unknown
}

func (inf *inferer) comprehension(gens []*ast.Comprehension, elts ...ast.Expr) {
	for _, gen := range gens {
		inf.target(gen.Target, inf.element(gen.Iter, inf.expr(gen.Iter)))
		inf.exprs(gen.Ifs...)
	}
	inf.exprs(elts...)
}

// isMath returns true if an expression refers to the math module.
func (inf *inferer) isMath(e ast.Expr) bool {
	name, ok := e.(*ast.Name)
	if !ok {
		return false
	}
	b := inf.bind.Use(name)
	if b == nil {
		return false
	}
	alias, ok := b.Resolved().Decl.(*ast.Alias)
	return ok && alias.Name == "math"
}

func (inf *inferer) call(c *ast.Call) Type {
	inf.expr(c.Func)
	args := make([]Type, len(c.Args))
	for i, arg := range c.Args {
		args[i] = inf.expr(arg)
	}
	for _, kw := range c.Keywords {
		inf.expr(kw.Value)
	}
	switch fn := c.Func.(type) {
	case *ast.Name:
		b := inf.bind.Use(fn)
		if b == nil {
			return Unknown
		}
		r := b.Resolved()
		if r.Class == binder.Builtin {
			return builtinCall(fn.ID, args, len(c.Keywords) > 0)
		}
		def, ok := r.Decl.(*ast.FunctionDef)
		if ok && def.Returns != nil && inf.typeOf(r) == Callable && len(def.Decorators) == 0 {
			return Annotation(def.Returns)
		}
	case *ast.Attribute:
		if inf.isMath(fn.Value) {
			return mathReturns[fn.Attr]
		}
		if methods := methodReturns[inf.info.TypeOf(fn.Value)]; methods != nil {
			return methods[fn.Attr]
		}
	}
	return Unknown
}

func builtinCall(name string, args []Type, keywords bool) Type {
	switch name {
	case "abs":
		if len(args) == 1 && arith(args[0]).Number() {
			return arith(args[0])
		}
		return Unknown
	case "round":
		if len(args) == 1 && !keywords {
			return Int
		}
		return Unknown
	case "min", "max":
		if len(args) < 2 || keywords {
			return Unknown
		}
		t := args[0]
		for _, a := range args[1:] {
			t = Join(t, a)
		}
		if t.Number() || t == String {
			return t
		}
		return Unknown
	}
	return builtinReturns[name]
}

func (inf *inferer) binOp(op ast.Operator, l, r Type) Type {
	al, ar := arith(l), arith(r)
	switch op {
	case ast.Add:
		switch {
		case al.Number() && ar.Number():
			return Join(al, ar)
		case l == r && (l == String || l == List || l == Tuple || l == Bytes):
			return l
		}
	case ast.Sub:
		if al.Number() && ar.Number() {
			return Join(al, ar)
		}
		if l == Set && r == Set {
			return Set
		}
	case ast.Mult:
		switch {
		case al.Number() && ar.Number():
			return Join(al, ar)
		case (l == String || l == List || l == Tuple || l == Bytes) && ar == Int:
			return l
		case al == Int && (r == String || r == List || r == Tuple || r == Bytes):
			return r
		}
	case ast.Div:
		if al.Number() && ar.Number() {
			return Float
		}
	case ast.FloorDiv, ast.Mod, ast.Pow:
		if op == ast.Mod && l == String {
			return String
		}
		if al.Number() && ar.Number() {
			return Join(al, ar)
		}
	case ast.LShift, ast.RShift:
		if al == Int && ar == Int {
			return Int
		}
	case ast.BitAnd, ast.BitOr, ast.BitXor:
		switch {
		case l == Bool && r == Bool:
			return Bool
		case al == Int && ar == Int:
			return Int
		case l == Set && r == Set:
			return Set
		case op == ast.BitOr && l == Dict && r == Dict:
			return Dict
		}
	}
	return Unknown
}

func unaryOp(op ast.UnaryOperator, t Type) Type {
	switch op {
	case ast.Not:
		return Bool
	case ast.USub, ast.UAdd:
		if arith(t).Number() {
			return arith(t)
		}
	case ast.Invert:
		if arith(t) == Int {
			return Int
		}
	}
	return Unknown
}

func subscript(value Type, index ast.Expr, indexType Type) Type {
	_, isSlice := index.(*ast.Slice)
	switch value {
	case String:
		if isSlice || arith(indexType) == Int {
			return String
		}
	case Bytes:
		if isSlice {
			return Bytes
		}
		if arith(indexType) == Int {
			return Int
		}
	case List, Tuple:
		if isSlice {
			return value
		}
	}
	return Unknown
}
