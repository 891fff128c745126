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

type (
	// Assign is targets[0] = targets[1] = ... = value.
	Assign struct {
		Pos
		Targets []Expr
		Value   Expr
	}

	// AnnAssign is target: annotation [= value].
	AnnAssign struct {
		Pos
		Target     Expr
		Annotation Expr
		Value      Expr
	}

	// AugAssign is target op= value.
	AugAssign struct {
		Pos
		Target Expr
		Op     Operator
		Value  Expr
	}

	// ExprStmt is an expression evaluated for its side effects.
	ExprStmt struct {
		Pos
		Value Expr
	}

	// If statement. Elif clauses are nested If in OrElse.
	If struct {
		Pos
		Test   Expr
		Body   []Stmt
		OrElse []Stmt
	}

	// While loop.
	While struct {
		Pos
		Test   Expr
		Body   []Stmt
		OrElse []Stmt
	}

	// For loop.
	For struct {
		Pos
		Target Expr
		Iter   Expr
		Body   []Stmt
		OrElse []Stmt
	}

	// Break statement.
	Break struct {
		Pos
	}

	// Continue statement.
	Continue struct {
		Pos
	}

	// Pass statement.
	Pass struct {
		Pos
	}

	// Return statement.
	Return struct {
		Pos
		Value Expr
	}

	// Raise statement. Exc is nil for a bare raise.
	Raise struct {
		Pos
		Exc   Expr
		Cause Expr
	}

	// Try statement.
	Try struct {
		Pos
		Body      []Stmt
		Handlers  []*ExceptHandler
		OrElse    []Stmt
		FinalBody []Stmt
	}

	// With statement.
	With struct {
		Pos
		Items []*WithItem
		Body  []Stmt
	}

	// Import statement.
	Import struct {
		Pos
		Names []*Alias
	}

	// ImportFrom statement. Level is the number of leading dots.
	ImportFrom struct {
		Pos
		Module string
		Names  []*Alias
		Level  int
	}

	// FunctionDef is a function definition.
	FunctionDef struct {
		Pos
		Name       string
		Args       *Arguments
		Body       []Stmt
		Decorators []Expr
		Returns    Expr
	}

	// ClassDef is a class definition.
	ClassDef struct {
		Pos
		Name       string
		Bases      []Expr
		Keywords   []*Keyword
		Body       []Stmt
		Decorators []Expr
	}

	// Match statement.
	Match struct {
		Pos
		Subject Expr
		Cases   []*MatchCase
	}

	// Global declaration.
	Global struct {
		Pos
		Names []string
	}

	// Nonlocal declaration.
	Nonlocal struct {
		Pos
		Names []string
	}

	// Delete statement.
	Delete struct {
		Pos
		Targets []Expr
	}

	// Assert statement.
	Assert struct {
		Pos
		Test Expr
		Msg  Expr
	}
)

func (*Assign) stmtNode()      {}
func (*AnnAssign) stmtNode()   {}
func (*AugAssign) stmtNode()   {}
func (*ExprStmt) stmtNode()    {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*For) stmtNode()         {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Return) stmtNode()      {}
func (*Raise) stmtNode()       {}
func (*Try) stmtNode()         {}
func (*With) stmtNode()        {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Match) stmtNode()       {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Delete) stmtNode()      {}
func (*Assert) stmtNode()      {}

type (
	// MatchValue matches a value compared with ==.
	MatchValue struct {
		Pos
		Value Expr
	}

	// MatchSingleton matches None, True or False compared with is.
	MatchSingleton struct {
		Pos
		Value any
	}

	// MatchSequence matches a sequence, at most one element is a MatchStar.
	MatchSequence struct {
		Pos
		Patterns []Pattern
	}

	// MatchMapping matches a mapping. Rest is the **rest capture name, if any.
	MatchMapping struct {
		Pos
		Keys     []Expr
		Patterns []Pattern
		Rest     string
	}

	// MatchClass matches an instance of a class.
	MatchClass struct {
		Pos
		Cls         Expr
		Patterns    []Pattern
		KwdAttrs    []string
		KwdPatterns []Pattern
	}

	// MatchStar is *name in a sequence pattern. Name is empty for *_.
	MatchStar struct {
		Pos
		Name string
	}

	// MatchAs is pattern as name, a capture (nil pattern),
	// or the wildcard _ (nil pattern and empty name).
	MatchAs struct {
		Pos
		Pattern Pattern
		Name    string
	}

	// MatchOr is p1 | p2 | ...
	MatchOr struct {
		Pos
		Patterns []Pattern
	}
)

func (*MatchValue) patternNode()     {}
func (*MatchSingleton) patternNode() {}
func (*MatchSequence) patternNode()  {}
func (*MatchMapping) patternNode()   {}
func (*MatchClass) patternNode()     {}
func (*MatchStar) patternNode()      {}
func (*MatchAs) patternNode()        {}
func (*MatchOr) patternNode()        {}
