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

package ast

import (
	"fmt"
	"reflect"
)

// Inspect traverses a tree in depth-first order. It calls f(node) for
// each node; if f returns true, Inspect visits the children of node.
// Nil nodes are skipped.
func Inspect(node Node, f func(Node) bool) {
	if isNil(node) || !f(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, f)
	}
}

func isNil(node Node) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func appendExprs(nodes []Node, exprs ...Expr) []Node {
	for _, x := range exprs {
		if x != nil {
			nodes = append(nodes, x)
		}
	}
	return nodes
}

func appendStmts(nodes []Node, stmts []Stmt) []Node {
	for _, s := range stmts {
		nodes = append(nodes, s)
	}
	return nodes
}

func appendComprehensions(nodes []Node, gens []*Comprehension) []Node {
	for _, gen := range gens {
		nodes = appendExprs(nodes, gen.Target, gen.Iter)
		nodes = appendExprs(nodes, gen.Ifs...)
	}
	return nodes
}

func appendArguments(nodes []Node, args *Arguments) []Node {
	if args == nil {
		return nodes
	}
	nodes = appendExprs(nodes, args.Defaults...)
	nodes = appendExprs(nodes, args.KwDefaults...)
	for _, arg := range args.All() {
		nodes = append(nodes, arg)
	}
	return nodes
}

// Children returns the direct children of a node in source order,
// except for function and lambda parameters which come before the body.
func Children(node Node) []Node {
	var nodes []Node
	switch n := node.(type) {
	case *Module:
		nodes = appendStmts(nodes, n.Body)
	case *Arg:
		nodes = appendExprs(nodes, n.Annotation)
	case *Keyword:
		nodes = appendExprs(nodes, n.Value)
	case *Alias:
	case *ExceptHandler:
		nodes = appendExprs(nodes, n.Type)
		nodes = appendStmts(nodes, n.Body)
	case *MatchCase:
		nodes = append(nodes, n.Pattern)
		nodes = appendExprs(nodes, n.Guard)
		nodes = appendStmts(nodes, n.Body)

	// Expressions.
	case *Constant, *Name:
	case *BinOp:
		nodes = appendExprs(nodes, n.Left, n.Right)
	case *UnaryOp:
		nodes = appendExprs(nodes, n.Operand)
	case *BoolOp:
		nodes = appendExprs(nodes, n.Values...)
	case *Compare:
		nodes = appendExprs(nodes, n.Left)
		nodes = appendExprs(nodes, n.Comparators...)
	case *Attribute:
		nodes = appendExprs(nodes, n.Value)
	case *Subscript:
		nodes = appendExprs(nodes, n.Value, n.Index)
	case *Slice:
		nodes = appendExprs(nodes, n.Lower, n.Upper, n.Step)
	case *Call:
		nodes = appendExprs(nodes, n.Func)
		nodes = appendExprs(nodes, n.Args...)
		for _, kw := range n.Keywords {
			nodes = append(nodes, kw)
		}
	case *IfExp:
		nodes = appendExprs(nodes, n.Test, n.Body, n.OrElse)
	case *List:
		nodes = appendExprs(nodes, n.Elts...)
	case *Tuple:
		nodes = appendExprs(nodes, n.Elts...)
	case *Set:
		nodes = appendExprs(nodes, n.Elts...)
	case *Dict:
		for i, v := range n.Values {
			nodes = appendExprs(nodes, n.Keys[i], v)
		}
	case *ListComp:
		nodes = appendComprehensions(nodes, n.Generators)
		nodes = appendExprs(nodes, n.Elt)
	case *SetComp:
		nodes = appendComprehensions(nodes, n.Generators)
		nodes = appendExprs(nodes, n.Elt)
	case *DictComp:
		nodes = appendComprehensions(nodes, n.Generators)
		nodes = appendExprs(nodes, n.Key, n.Value)
	case *GeneratorExp:
		nodes = appendComprehensions(nodes, n.Generators)
		nodes = appendExprs(nodes, n.Elt)
	case *Lambda:
		nodes = appendArguments(nodes, n.Args)
		nodes = appendExprs(nodes, n.Body)
	case *JoinedStr:
		nodes = appendExprs(nodes, n.Values...)
	case *FormattedValue:
		nodes = appendExprs(nodes, n.Value, n.FormatSpec)
	case *Yield:
		nodes = appendExprs(nodes, n.Value)
	case *YieldFrom:
		nodes = appendExprs(nodes, n.Value)
	case *Starred:
		nodes = appendExprs(nodes, n.Value)
	case *NamedExpr:
		nodes = appendExprs(nodes, n.Target, n.Value)
	case *ShimCall:
		nodes = appendExprs(nodes, n.Args...)
	case *Bind:
		nodes = appendExprs(nodes, n.Target, n.Value)

	// Statements.
	case *Assign:
		nodes = appendExprs(nodes, n.Value)
		nodes = appendExprs(nodes, n.Targets...)
	case *AnnAssign:
		nodes = appendExprs(nodes, n.Annotation, n.Value, n.Target)
	case *AugAssign:
		nodes = appendExprs(nodes, n.Target, n.Value)
	case *ExprStmt:
		nodes = appendExprs(nodes, n.Value)
	case *If:
		nodes = appendExprs(nodes, n.Test)
		nodes = appendStmts(nodes, n.Body)
		nodes = appendStmts(nodes, n.OrElse)
	case *While:
		nodes = appendExprs(nodes, n.Test)
		nodes = appendStmts(nodes, n.Body)
		nodes = appendStmts(nodes, n.OrElse)
	case *For:
		nodes = appendExprs(nodes, n.Iter, n.Target)
		nodes = appendStmts(nodes, n.Body)
		nodes = appendStmts(nodes, n.OrElse)
	case *Break, *Continue, *Pass, *Global, *Nonlocal:
	case *Return:
		nodes = appendExprs(nodes, n.Value)
	case *Raise:
		nodes = appendExprs(nodes, n.Exc, n.Cause)
	case *Try:
		nodes = appendStmts(nodes, n.Body)
		for _, h := range n.Handlers {
			nodes = append(nodes, h)
		}
		nodes = appendStmts(nodes, n.OrElse)
		nodes = appendStmts(nodes, n.FinalBody)
	case *With:
		for _, item := range n.Items {
			nodes = appendExprs(nodes, item.ContextExpr, item.OptionalVars)
		}
		nodes = appendStmts(nodes, n.Body)
	case *Import:
		for _, alias := range n.Names {
			nodes = append(nodes, alias)
		}
	case *ImportFrom:
		for _, alias := range n.Names {
			nodes = append(nodes, alias)
		}
	case *FunctionDef:
		nodes = appendExprs(nodes, n.Decorators...)
		nodes = appendArguments(nodes, n.Args)
		nodes = appendExprs(nodes, n.Returns)
		nodes = appendStmts(nodes, n.Body)
	case *ClassDef:
		nodes = appendExprs(nodes, n.Decorators...)
		nodes = appendExprs(nodes, n.Bases...)
		for _, kw := range n.Keywords {
			nodes = append(nodes, kw)
		}
		nodes = appendStmts(nodes, n.Body)
	case *Match:
		nodes = appendExprs(nodes, n.Subject)
		for _, c := range n.Cases {
			nodes = append(nodes, c)
		}
	case *Delete:
		nodes = appendExprs(nodes, n.Targets...)
	case *Assert:
		nodes = appendExprs(nodes, n.Test, n.Msg)

	// Patterns.
	case *MatchValue:
		nodes = appendExprs(nodes, n.Value)
	case *MatchSingleton, *MatchStar:
	case *MatchSequence:
		for _, p := range n.Patterns {
			nodes = append(nodes, p)
		}
	case *MatchMapping:
		nodes = appendExprs(nodes, n.Keys...)
		for _, p := range n.Patterns {
			nodes = append(nodes, p)
		}
	case *MatchClass:
		nodes = appendExprs(nodes, n.Cls)
		for _, p := range n.Patterns {
			nodes = append(nodes, p)
		}
		for _, p := range n.KwdPatterns {
			nodes = append(nodes, p)
		}
	case *MatchAs:
		if n.Pattern != nil {
			nodes = append(nodes, n.Pattern)
		}
	case *MatchOr:
		for _, p := range n.Patterns {
			nodes = append(nodes, p)
		}
	default:
		panic(fmt.Sprintf("ast.Children: node type %T not supported", node))
	}
	return nodes
}

// Rewrite replaces every expression reachable from node, in post-order,
// by the result of f. Names bound by NamedExpr and Bind are not rewritten.
func Rewrite(node Node, f func(Expr) Expr) {
	r := rewriter{f: f}
	r.node(node)
}

type rewriter struct {
	f func(Expr) Expr
}

func (r rewriter) expr(e Expr) Expr {
	if isNil(e) {
		return e
	}
	r.node(e)
	return r.f(e)
}

func (r rewriter) exprs(es []Expr) {
	for i, e := range es {
		es[i] = r.expr(e)
	}
}

func (r rewriter) stmts(ss []Stmt) {
	for _, s := range ss {
		r.node(s)
	}
}

func (r rewriter) arguments(args *Arguments) {
	if args == nil {
		return
	}
	r.exprs(args.Defaults)
	r.exprs(args.KwDefaults)
}

func (r rewriter) comprehensions(gens []*Comprehension) {
	for _, gen := range gens {
		gen.Iter = r.expr(gen.Iter)
		gen.Target = r.expr(gen.Target)
		r.exprs(gen.Ifs)
	}
}

func (r rewriter) keywords(kws []*Keyword) {
	for _, kw := range kws {
		kw.Value = r.expr(kw.Value)
	}
}

func (r rewriter) patterns(ps []Pattern) {
	for _, p := range ps {
		r.node(p)
	}
}

func (r rewriter) node(node Node) {
	switch n := node.(type) {
	case *Module:
		r.stmts(n.Body)

	// Expressions.
	case *Constant, *Name:
	case *BinOp:
		n.Left = r.expr(n.Left)
		n.Right = r.expr(n.Right)
	case *UnaryOp:
		n.Operand = r.expr(n.Operand)
	case *BoolOp:
		r.exprs(n.Values)
	case *Compare:
		n.Left = r.expr(n.Left)
		r.exprs(n.Comparators)
	case *Attribute:
		n.Value = r.expr(n.Value)
	case *Subscript:
		n.Value = r.expr(n.Value)
		n.Index = r.expr(n.Index)
	case *Slice:
		n.Lower = r.expr(n.Lower)
		n.Upper = r.expr(n.Upper)
		n.Step = r.expr(n.Step)
	case *Call:
		n.Func = r.expr(n.Func)
		r.exprs(n.Args)
		r.keywords(n.Keywords)
	case *IfExp:
		n.Test = r.expr(n.Test)
		n.Body = r.expr(n.Body)
		n.OrElse = r.expr(n.OrElse)
	case *List:
		r.exprs(n.Elts)
	case *Tuple:
		r.exprs(n.Elts)
	case *Set:
		r.exprs(n.Elts)
	case *Dict:
		r.exprs(n.Keys)
		r.exprs(n.Values)
	case *ListComp:
		r.comprehensions(n.Generators)
		n.Elt = r.expr(n.Elt)
	case *SetComp:
		r.comprehensions(n.Generators)
		n.Elt = r.expr(n.Elt)
	case *DictComp:
		r.comprehensions(n.Generators)
		n.Key = r.expr(n.Key)
		n.Value = r.expr(n.Value)
	case *GeneratorExp:
		r.comprehensions(n.Generators)
		n.Elt = r.expr(n.Elt)
	case *Lambda:
		r.arguments(n.Args)
		n.Body = r.expr(n.Body)
	case *JoinedStr:
		r.exprs(n.Values)
	case *FormattedValue:
		n.Value = r.expr(n.Value)
		n.FormatSpec = r.expr(n.FormatSpec)
	case *Yield:
		n.Value = r.expr(n.Value)
	case *YieldFrom:
		n.Value = r.expr(n.Value)
	case *Starred:
		n.Value = r.expr(n.Value)
	case *NamedExpr:
		n.Value = r.expr(n.Value)
	case *ShimCall:
		r.exprs(n.Args)
	case *Bind:
		n.Value = r.expr(n.Value)

	// Statements.
	case *Assign:
		n.Value = r.expr(n.Value)
		r.exprs(n.Targets)
	case *AnnAssign:
		n.Value = r.expr(n.Value)
		n.Target = r.expr(n.Target)
	case *AugAssign:
		n.Target = r.expr(n.Target)
		n.Value = r.expr(n.Value)
	case *ExprStmt:
		n.Value = r.expr(n.Value)
	case *If:
		n.Test = r.expr(n.Test)
		r.stmts(n.Body)
		r.stmts(n.OrElse)
	case *While:
		n.Test = r.expr(n.Test)
		r.stmts(n.Body)
		r.stmts(n.OrElse)
	case *For:
		n.Iter = r.expr(n.Iter)
		n.Target = r.expr(n.Target)
		r.stmts(n.Body)
		r.stmts(n.OrElse)
	case *Break, *Continue, *Pass, *Global, *Nonlocal, *Import, *ImportFrom:
	case *Return:
		n.Value = r.expr(n.Value)
	case *Raise:
		n.Exc = r.expr(n.Exc)
		n.Cause = r.expr(n.Cause)
	case *Try:
		r.stmts(n.Body)
		for _, h := range n.Handlers {
			h.Type = r.expr(h.Type)
			r.stmts(h.Body)
		}
		r.stmts(n.OrElse)
		r.stmts(n.FinalBody)
	case *With:
		for _, item := range n.Items {
			item.ContextExpr = r.expr(item.ContextExpr)
			item.OptionalVars = r.expr(item.OptionalVars)
		}
		r.stmts(n.Body)
	case *FunctionDef:
		r.exprs(n.Decorators)
		r.arguments(n.Args)
		r.stmts(n.Body)
	case *ClassDef:
		r.exprs(n.Decorators)
		r.exprs(n.Bases)
		r.keywords(n.Keywords)
		r.stmts(n.Body)
	case *Match:
		n.Subject = r.expr(n.Subject)
		for _, c := range n.Cases {
			r.node(c.Pattern)
			c.Guard = r.expr(c.Guard)
			r.stmts(c.Body)
		}
	case *Delete:
		r.exprs(n.Targets)
	case *Assert:
		n.Test = r.expr(n.Test)
		n.Msg = r.expr(n.Msg)

	// Patterns.
	case *MatchValue:
		n.Value = r.expr(n.Value)
	case *MatchSingleton, *MatchStar:
	case *MatchSequence:
		r.patterns(n.Patterns)
	case *MatchMapping:
		r.exprs(n.Keys)
		r.patterns(n.Patterns)
	case *MatchClass:
		n.Cls = r.expr(n.Cls)
		r.patterns(n.Patterns)
		r.patterns(n.KwdPatterns)
	case *MatchAs:
		if n.Pattern != nil {
			r.node(n.Pattern)
		}
	case *MatchOr:
		r.patterns(n.Patterns)
	default:
		panic(fmt.Sprintf("ast.Rewrite: node type %T not supported", node))
	}
}
