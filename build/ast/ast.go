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

// Package ast declares the types used to represent Python syntax trees.
//
// Nodes are created by the parser and mutated in place by the compiler
// passes. Pass results are not stored in the nodes: they live in side tables
// keyed by node identity (see the binder and infer packages).
package ast

import "fmt"

type (
	// Pos is the source range of a node.
	// Lines start at 1, columns at 0. EndCol is exclusive.
	Pos struct {
		Line, Col       int
		EndLine, EndCol int
	}

	// Node is implemented by all nodes of the tree.
	Node interface {
		Span() Pos
	}

	// Expr is implemented by all expression nodes.
	Expr interface {
		Node
		exprNode()
	}

	// Stmt is implemented by all statement nodes.
	Stmt interface {
		Node
		stmtNode()
	}

	// Pattern is implemented by the patterns of a match statement.
	Pattern interface {
		Node
		patternNode()
	}
)

// Span returns the position itself so that Pos can be embedded in nodes.
func (p Pos) Span() Pos {
	return p
}

// Valid returns true if the position has been set.
func (p Pos) Valid() bool {
	return p.Line > 0
}

// String representation of the position.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col+1)
}

// Join returns a position spanning from the start of p to the end of q.
func (p Pos) Join(q Pos) Pos {
	return Pos{Line: p.Line, Col: p.Col, EndLine: q.EndLine, EndCol: q.EndCol}
}

// ExprContext is the context in which a name, attribute, subscript,
// list or tuple is used.
type ExprContext int

const (
	// Load reads a value.
	Load ExprContext = iota
	// Store binds a value.
	Store
	// Del deletes a value.
	Del
)

// Module is the root of a file.
type Module struct {
	Pos
	Body []Stmt
}

// Arg is a formal parameter.
type Arg struct {
	Pos
	Name       string
	Annotation Expr
}

// Arguments are the formal parameters of a function or a lambda.
type Arguments struct {
	PosOnly    []*Arg
	Args       []*Arg
	Vararg     *Arg
	KwOnly     []*Arg
	KwDefaults []Expr // Same length as KwOnly, nil for no default.
	Kwarg      *Arg
	Defaults   []Expr // Defaults of the last len(Defaults) positional parameters.
}

// Positional returns positional-only and regular positional parameters.
func (a *Arguments) Positional() []*Arg {
	if a == nil {
		return nil
	}
	return append(append([]*Arg{}, a.PosOnly...), a.Args...)
}

// All returns all the parameters in declaration order.
func (a *Arguments) All() []*Arg {
	if a == nil {
		return nil
	}
	all := a.Positional()
	if a.Vararg != nil {
		all = append(all, a.Vararg)
	}
	all = append(all, a.KwOnly...)
	if a.Kwarg != nil {
		all = append(all, a.Kwarg)
	}
	return all
}

// Simple returns true if the arguments are only positional parameters
// without defaults.
func (a *Arguments) Simple() bool {
	return a == nil || (a.Vararg == nil && a.Kwarg == nil && len(a.KwOnly) == 0 && len(a.Defaults) == 0)
}

// Keyword is a keyword argument of a call.
// Arg is empty for a **kwargs expansion.
type Keyword struct {
	Pos
	Arg   string
	Value Expr
}

// Alias is a name imported by an import statement.
type Alias struct {
	Pos
	Name   string
	AsName string
}

// Comprehension is one for clause of a comprehension,
// with the if clauses that follow it.
type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// ExceptHandler is one except clause of a try statement.
type ExceptHandler struct {
	Pos
	Type Expr // nil for a bare except.
	Name string
	Body []Stmt
}

// WithItem is one context manager of a with statement.
type WithItem struct {
	ContextExpr  Expr
	OptionalVars Expr
}

// MatchCase is one case clause of a match statement.
type MatchCase struct {
	Pos
	Pattern Pattern
	Guard   Expr
	Body    []Stmt
}
