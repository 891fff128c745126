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

// Package binder builds the scopes of a module and resolves every name
// to its binding.
//
// The binder walks a desugared module twice. The first walk declares the
// names bound by each scope. The second walk resolves each use, marking
// captured function locals as cells, and checks that statements appear in
// a valid context. All errors are collected before the binder aborts.
package binder

import (
	"fmt"
	"iter"
	"strings"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
	"github.com/gx-org/pyjs/internal/base/scope"
)

// Kind of a scope.
type Kind int

// Scope kinds.
const (
	ModuleScope Kind = iota
	FunctionScope
	LambdaScope
	ClassScope
	ComprehensionScope
)

var kindNames = [...]string{
	ModuleScope:        "module",
	FunctionScope:      "function",
	LambdaScope:        "lambda",
	ClassScope:         "class",
	ComprehensionScope: "comprehension",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Class classifies a binding.
type Class int

// Binding classes.
const (
	// Local is a name bound in its scope and only used there.
	Local Class = iota
	// Cell is a local captured by an inner scope.
	Cell
	// Free refers to a cell of an enclosing function.
	Free
	// Global is a module-level name, or a global declaration in a function.
	Global
	// Nonlocal is a nonlocal declaration.
	Nonlocal
	// Builtin is a name provided by the runtime.
	Builtin
)

var classNames = [...]string{
	Local:    "local",
	Cell:     "cell",
	Free:     "free",
	Global:   "global",
	Nonlocal: "nonlocal",
	Builtin:  "builtin",
}

func (c Class) String() string {
	return classNames[c]
}

// Binding of a name in a scope.
type Binding struct {
	Name  string
	Scope *Scope
	Class Class
	// Decl is the first node declaring the name.
	Decl ast.Node
	// Param is true if the name is a formal parameter.
	Param bool
	// Target is the binding referred to by Free, Nonlocal and
	// function-level Global bindings.
	Target *Binding
	// Star is set on module names only provided by `from m import *`.
	Star bool
}

// Resolved returns the binding holding the value.
func (b *Binding) Resolved() *Binding {
	for b.Target != nil {
		b = b.Target
	}
	return b
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s(%s)", b.Name, b.Class)
}

// Scope is a name space.
type Scope struct {
	Kind   Kind
	Node   ast.Node
	Parent *Scope
	// Name of the function or class introducing the scope.
	Name string
	// Generator is set for functions directly containing yield.
	Generator bool
	// StarImport is set on a module with `from m import *`.
	StarImport bool

	names    *scope.RWScope[*Binding]
	children []*Scope
	// seen records names referenced while declaring,
	// to detect uses before a global declaration.
	seen map[string]bool
}

// Lookup returns the binding of a name declared in this scope only.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	return s.names.FindLocal(name)
}

// Bindings of the scope in declaration order.
func (s *Scope) Bindings() iter.Seq[*Binding] {
	return s.names.LocalValues()
}

// Children returns the scopes directly nested in this scope.
func (s *Scope) Children() []*Scope {
	return s.children
}

// IsFunction returns true for function and lambda scopes.
func (s *Scope) IsFunction() bool {
	return s.Kind == FunctionScope || s.Kind == LambdaScope
}

// Locals returns the names of the variables held by this scope,
// excluding parameters, in declaration order.
func (s *Scope) Locals() []string {
	var names []string
	for b := range s.Bindings() {
		if b.Param || b.Star {
			continue
		}
		switch b.Class {
		case Local, Cell:
			names = append(names, b.Name)
		case Global:
			if s.Kind == ModuleScope {
				names = append(names, b.Name)
			}
		}
	}
	return names
}

// Function returns the closest enclosing function or module scope.
func (s *Scope) Function() *Scope {
	for s.Kind != ModuleScope && !s.IsFunction() {
		s = s.Parent
	}
	return s
}

func (s *Scope) String() string {
	var bs []string
	for b := range s.Bindings() {
		bs = append(bs, b.String())
	}
	name := s.Name
	if name == "" {
		name = s.Kind.String()
	}
	return fmt.Sprintf("%s{%s}", name, strings.Join(bs, ", "))
}

// Info is the result of binding a module.
type Info struct {
	// Module is the module scope.
	Module *Scope
	// Uses maps every name occurrence to its binding.
	Uses map[*ast.Name]*Binding
	// Scopes maps scope-introducing nodes to their scope: the module,
	// function and class definitions, lambdas and comprehensions.
	Scopes map[ast.Node]*Scope
	// Generators is the set of functions directly containing yield.
	Generators map[ast.Node]bool
}

// Use returns the binding of a name occurrence.
func (inf *Info) Use(name *ast.Name) *Binding {
	return inf.Uses[name]
}

// ScopeOf returns the scope introduced by a node.
func (inf *Info) ScopeOf(node ast.Node) *Scope {
	return inf.Scopes[node]
}

type binder struct {
	app      *fmterr.Appender
	info     *Info
	builtins scope.Scope[*Binding]

	// loops is the number of enclosing loops in the current function.
	loops int
}

// Bind builds the scopes of a desugared module.
// builtins are the names provided by the runtime.
func Bind(file string, mod *ast.Module, builtins []string) (*Info, error) {
	b := &binder{
		app: fmterr.NewAppender(file),
		info: &Info{
			Uses:       make(map[*ast.Name]*Binding),
			Scopes:     make(map[ast.Node]*Scope),
			Generators: make(map[ast.Node]bool),
		},
	}
	builtinScope := &Scope{Kind: ModuleScope, Name: "builtins"}
	values := make(map[string]*Binding, len(builtins))
	for _, name := range builtins {
		values[name] = &Binding{Name: name, Scope: builtinScope, Class: Builtin}
	}
	b.builtins = scope.NewScopeWithValues(values)
	module := &Scope{
		Kind:  ModuleScope,
		Node:  mod,
		names: scope.NewScope(b.builtins),
		seen:  make(map[string]bool),
	}
	b.info.Module = module
	b.info.Scopes[mod] = module
	b.declareBlock(module, mod.Body)
	b.resolveScope(module)
	b.resolveBlock(module, mod.Body)
	if !b.app.Empty() {
		return nil, b.app.Err()
	}
	return b.info, nil
}

func (b *binder) newScope(kind Kind, node ast.Node, parent *Scope, name string) *Scope {
	s := &Scope{
		Kind:   kind,
		Node:   node,
		Parent: parent,
		Name:   name,
		names:  scope.NewScope[*Binding](nil),
		seen:   make(map[string]bool),
	}
	parent.children = append(parent.children, s)
	b.info.Scopes[node] = s
	return s
}
