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

// Package parser parses Python source files into syntax trees.
//
// The parser is a predictive recursive-descent parser over the tokens of an
// indentation-aware lexer. Soft keywords (match, case) are recognised by
// trying the statement form first and backtracking to an expression.
// Parsing stops at the first syntax error.
package parser

import (
	"fmt"

	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// MaxDepth is the maximum nesting depth of expressions and patterns.
const MaxDepth = 200

type (
	parser struct {
		file  string
		toks  []token
		i     int
		tok   token
		prev  token
		depth int
	}

	// bailout is used to unwind the parser on the first error.
	bailout struct {
		err error
	}
)

// Parse parses a source file.
func Parse(file string, src []byte) (mod *ast.Module, err error) {
	toks, err := newLexer(file, normalizeNewlines(string(src)), 1, 0).run()
	if err != nil {
		return nil, err
	}
	p := newParser(file, toks)
	defer p.handleBailout(&err)
	return p.module(), nil
}

// ParseExpr parses a single expression.
func ParseExpr(src string) (expr ast.Expr, err error) {
	toks, err := newLexer("", normalizeNewlines(src), 1, 0).run()
	if err != nil {
		return nil, err
	}
	p := newParser("", toks)
	defer p.handleBailout(&err)
	expr = p.starNamedExprs()
	if p.atKind(tNewline) {
		p.next()
	}
	if !p.atKind(tEOF) {
		p.errorf(p.tok.pos, "invalid syntax: unexpected %s", p.tok)
	}
	return expr, nil
}

func newParser(file string, toks []token) *parser {
	return &parser{file: file, toks: toks, tok: toks[0]}
}

func (p *parser) handleBailout(err *error) {
	r := recover()
	if r == nil {
		return
	}
	b, ok := r.(bailout)
	if !ok {
		panic(r)
	}
	*err = b.err
}

func (p *parser) errorf(node ast.Node, format string, a ...any) {
	panic(bailout{err: fmterr.Errorf(fmterr.SyntaxError, p.file, node, format, a...)})
}

func (p *parser) unsupported(node ast.Node, feature string) {
	panic(bailout{err: fmterr.Unsupported(p.file, node, feature)})
}

// try runs f and returns true if it succeeded.
// On a syntax error, the parser is rewound to where it was before f.
func (p *parser) try(f func()) (ok bool) {
	i, tok, prev, depth := p.i, p.tok, p.prev, p.depth
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, isBailout := r.(bailout); !isBailout {
			panic(r)
		}
		p.i, p.tok, p.prev, p.depth = i, tok, prev, depth
		ok = false
	}()
	f()
	return true
}

func (p *parser) enter() {
	p.depth++
	if p.depth > MaxDepth {
		p.unsupported(p.tok.pos, fmt.Sprintf("nesting deeper than %d levels", MaxDepth))
	}
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) next() {
	p.prev = p.tok
	if p.i < len(p.toks)-1 {
		p.i++
	}
	p.tok = p.toks[p.i]
}

func (p *parser) peekTok(n int) token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (t token) is(text string) bool {
	return (t.kind == tOp || t.kind == tKeyword) && t.text == text
}

func (p *parser) at(text string) bool {
	return p.tok.is(text)
}

func (p *parser) atKind(k kind) bool {
	return p.tok.kind == k
}

// atSoft returns true if the current token is the soft keyword word.
func (p *parser) atSoft(word string) bool {
	return p.tok.kind == tName && p.tok.text == word
}

func (p *parser) got(text string) bool {
	if !p.at(text) {
		return false
	}
	p.next()
	return true
}

func (p *parser) expect(text string) {
	if !p.at(text) {
		p.errorf(p.tok.pos, "invalid syntax: expected '%s' but got %s", text, p.tok)
	}
	p.next()
}

func (p *parser) expectKind(k kind) {
	if !p.atKind(k) {
		if k == tIndent {
			p.errorf(p.tok.pos, "expected an indented block")
		}
		p.errorf(p.tok.pos, "invalid syntax: expected %s but got %s", k, p.tok)
	}
	p.next()
}

func (p *parser) name() string {
	if !p.atKind(tName) {
		p.errorf(p.tok.pos, "invalid syntax: expected a name but got %s", p.tok)
	}
	s := p.tok.text
	p.next()
	return s
}

// span returns the position from start to the end of the last consumed token.
func (p *parser) span(start ast.Pos) ast.Pos {
	return start.Join(p.prev.pos)
}

func (p *parser) atStmtEnd() bool {
	return p.at(";") || p.atKind(tNewline) || p.atKind(tEOF)
}

func (p *parser) module() *ast.Module {
	mod := &ast.Module{Pos: ast.Pos{Line: 1}}
	for !p.atKind(tEOF) {
		mod.Body = append(mod.Body, p.statement()...)
	}
	mod.EndLine, mod.EndCol = p.tok.pos.Line, p.tok.pos.Col
	return mod
}

func (p *parser) statement() []ast.Stmt {
	switch {
	case p.atKind(tIndent):
		p.errorf(p.tok.pos, "unexpected indent")
	case p.at("def"):
		return []ast.Stmt{p.funcDef(nil)}
	case p.at("class"):
		return []ast.Stmt{p.classDef(nil)}
	case p.at("@"):
		return []ast.Stmt{p.decorated()}
	case p.at("if"):
		return []ast.Stmt{p.ifStmt()}
	case p.at("while"):
		return []ast.Stmt{p.whileStmt()}
	case p.at("for"):
		return []ast.Stmt{p.forStmt()}
	case p.at("try"):
		return []ast.Stmt{p.tryStmt()}
	case p.at("with"):
		return []ast.Stmt{p.withStmt()}
	case p.at("async"):
		p.unsupported(p.tok.pos, "async")
	case p.atSoft("match"):
		if s := p.matchStmt(); s != nil {
			return []ast.Stmt{s}
		}
	}
	return p.simpleStmts()
}

// block parses the colon and the body of a compound statement.
func (p *parser) block() []ast.Stmt {
	p.expect(":")
	if !p.atKind(tNewline) {
		return p.simpleStmts()
	}
	p.next()
	p.expectKind(tIndent)
	var body []ast.Stmt
	for !p.atKind(tDedent) && !p.atKind(tEOF) {
		body = append(body, p.statement()...)
	}
	p.expectKind(tDedent)
	return body
}

func (p *parser) simpleStmts() []ast.Stmt {
	var stmts []ast.Stmt
	for {
		stmts = append(stmts, p.simpleStmt())
		if !p.got(";") || p.atKind(tNewline) {
			break
		}
	}
	if !p.atKind(tNewline) {
		p.errorf(p.tok.pos, "invalid syntax: unexpected %s", p.tok)
	}
	p.next()
	return stmts
}

func (p *parser) simpleStmt() ast.Stmt {
	start := p.tok.pos
	switch {
	case p.got("pass"):
		return &ast.Pass{Pos: start}
	case p.got("break"):
		return &ast.Break{Pos: start}
	case p.got("continue"):
		return &ast.Continue{Pos: start}
	case p.got("return"):
		var value ast.Expr
		if !p.atStmtEnd() {
			value = p.starExprs()
		}
		return &ast.Return{Pos: p.span(start), Value: value}
	case p.got("raise"):
		s := &ast.Raise{}
		if !p.atStmtEnd() {
			s.Exc = p.test()
			if p.got("from") {
				s.Cause = p.test()
			}
		}
		s.Pos = p.span(start)
		return s
	case p.at("global") || p.at("nonlocal"):
		global := p.at("global")
		p.next()
		names := []string{p.name()}
		for p.got(",") {
			names = append(names, p.name())
		}
		if global {
			return &ast.Global{Pos: p.span(start), Names: names}
		}
		return &ast.Nonlocal{Pos: p.span(start), Names: names}
	case p.got("del"):
		var targets []ast.Expr
		for {
			t := p.bitOr()
			p.checkTarget(t, "delete")
			setCtx(t, ast.Del)
			targets = append(targets, t)
			if !p.got(",") || !p.canStartExpr() {
				break
			}
		}
		return &ast.Delete{Pos: p.span(start), Targets: targets}
	case p.got("assert"):
		s := &ast.Assert{Test: p.test()}
		if p.got(",") {
			s.Msg = p.test()
		}
		s.Pos = p.span(start)
		return s
	case p.at("import"):
		return p.importStmt()
	case p.at("from"):
		return p.importFrom()
	}
	return p.exprStmt()
}

var augOps = map[string]ast.Operator{
	"+=":  ast.Add,
	"-=":  ast.Sub,
	"*=":  ast.Mult,
	"@=":  ast.MatMult,
	"/=":  ast.Div,
	"%=":  ast.Mod,
	"**=": ast.Pow,
	"<<=": ast.LShift,
	">>=": ast.RShift,
	"|=":  ast.BitOr,
	"^=":  ast.BitXor,
	"&=":  ast.BitAnd,
	"//=": ast.FloorDiv,
}

// rhs parses the right-hand side of an assignment.
func (p *parser) rhs() ast.Expr {
	if p.at("yield") {
		return p.yieldExpr()
	}
	return p.starExprs()
}

func (p *parser) exprStmt() ast.Stmt {
	start := p.tok.pos
	first := p.rhs()
	if op, ok := augOps[p.tok.text]; ok && p.atKind(tOp) {
		if !isSingleTarget(first) {
			p.errorf(first, "'%s' is an illegal expression for augmented assignment", describe(first))
		}
		p.next()
		value := p.rhs()
		setCtx(first, ast.Store)
		return &ast.AugAssign{Pos: p.span(start), Target: first, Op: op, Value: value}
	}
	switch {
	case p.got(":"):
		if !isSingleTarget(first) {
			p.errorf(first, "only single target (not %s) can be annotated", describe(first))
		}
		s := &ast.AnnAssign{Target: first, Annotation: p.test()}
		if p.got("=") {
			s.Value = p.rhs()
		}
		setCtx(first, ast.Store)
		s.Pos = p.span(start)
		return s
	case p.at("="):
		targets := []ast.Expr{first}
		for p.got("=") {
			targets = append(targets, p.rhs())
		}
		value := targets[len(targets)-1]
		targets = targets[:len(targets)-1]
		for _, t := range targets {
			p.checkTarget(t, "assign to")
			setCtx(t, ast.Store)
		}
		return &ast.Assign{Pos: p.span(start), Targets: targets, Value: value}
	}
	return &ast.ExprStmt{Pos: p.span(start), Value: first}
}

func isSingleTarget(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return true
	}
	return false
}

func describe(e ast.Expr) string {
	switch e.(type) {
	case *ast.Tuple:
		return "tuple"
	case *ast.List:
		return "list"
	case *ast.Call:
		return "function call"
	case *ast.Constant, *ast.JoinedStr:
		return "literal"
	case *ast.Lambda:
		return "lambda"
	case *ast.Starred:
		return "starred"
	case *ast.Compare:
		return "comparison"
	}
	return "expression"
}

// checkTarget checks that an expression can be assigned to (or deleted).
func (p *parser) checkTarget(e ast.Expr, verb string) {
	switch t := e.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
	case *ast.Starred:
		if verb == "delete" {
			p.errorf(e, "cannot delete starred")
		}
		p.checkTarget(t.Value, verb)
	case *ast.Tuple:
		p.checkTargets(t.Elts, verb)
	case *ast.List:
		p.checkTargets(t.Elts, verb)
	default:
		p.errorf(e, "cannot %s %s", verb, describe(e))
	}
}

func (p *parser) checkTargets(elts []ast.Expr, verb string) {
	starred := 0
	for _, elt := range elts {
		if _, ok := elt.(*ast.Starred); ok {
			starred++
			if starred > 1 {
				p.errorf(elt, "multiple starred expressions in assignment")
			}
		}
		p.checkTarget(elt, verb)
	}
}

// setCtx sets the context of a target expression.
func setCtx(e ast.Expr, ctx ast.ExprContext) {
	switch t := e.(type) {
	case *ast.Name:
		t.Ctx = ctx
	case *ast.Attribute:
		t.Ctx = ctx
	case *ast.Subscript:
		t.Ctx = ctx
	case *ast.Starred:
		t.Ctx = ctx
		setCtx(t.Value, ctx)
	case *ast.Tuple:
		t.Ctx = ctx
		for _, elt := range t.Elts {
			setCtx(elt, ctx)
		}
	case *ast.List:
		t.Ctx = ctx
		for _, elt := range t.Elts {
			setCtx(elt, ctx)
		}
	}
}

func (p *parser) ifStmt() ast.Stmt {
	start := p.tok.pos
	p.next()
	s := &ast.If{Test: p.namedExpr()}
	s.Pos = p.span(start)
	s.Body = p.block()
	switch {
	case p.at("elif"):
		s.OrElse = []ast.Stmt{p.ifStmt()}
	case p.got("else"):
		s.OrElse = p.block()
	}
	return s
}

func (p *parser) whileStmt() ast.Stmt {
	start := p.tok.pos
	p.next()
	s := &ast.While{Test: p.namedExpr()}
	s.Pos = p.span(start)
	s.Body = p.block()
	if p.got("else") {
		s.OrElse = p.block()
	}
	return s
}

func (p *parser) forStmt() ast.Stmt {
	start := p.tok.pos
	p.next()
	target := p.targetList()
	p.checkTarget(target, "assign to")
	setCtx(target, ast.Store)
	p.expect("in")
	s := &ast.For{Target: target, Iter: p.starExprs()}
	s.Pos = p.span(start)
	s.Body = p.block()
	if p.got("else") {
		s.OrElse = p.block()
	}
	return s
}

func (p *parser) tryStmt() ast.Stmt {
	start := p.tok.pos
	p.next()
	s := &ast.Try{Pos: p.span(start)}
	s.Body = p.block()
	for p.at("except") {
		hstart := p.tok.pos
		p.next()
		if p.at("*") {
			p.unsupported(p.tok.pos, "except*")
		}
		if n := len(s.Handlers); n > 0 && s.Handlers[n-1].Type == nil {
			p.errorf(s.Handlers[n-1], "default 'except:' must be last")
		}
		h := &ast.ExceptHandler{}
		if !p.at(":") {
			h.Type = p.test()
			if p.got("as") {
				h.Name = p.name()
			}
		}
		h.Pos = p.span(hstart)
		h.Body = p.block()
		s.Handlers = append(s.Handlers, h)
	}
	if len(s.Handlers) > 0 && p.got("else") {
		s.OrElse = p.block()
	}
	hasFinally := p.got("finally")
	if hasFinally {
		s.FinalBody = p.block()
	}
	if len(s.Handlers) == 0 && !hasFinally {
		p.errorf(p.tok.pos, "expected 'except' or 'finally' block")
	}
	return s
}

func (p *parser) withStmt() ast.Stmt {
	start := p.tok.pos
	p.next()
	var items []*ast.WithItem
	if p.at("(") {
		p.try(func() {
			p.next()
			var its []*ast.WithItem
			for !p.at(")") {
				its = append(its, p.withItem())
				if !p.got(",") {
					break
				}
			}
			p.expect(")")
			if !p.at(":") {
				p.errorf(p.tok.pos, "invalid syntax")
			}
			items = its
		})
	}
	if items == nil {
		for {
			items = append(items, p.withItem())
			if !p.got(",") {
				break
			}
		}
	}
	s := &ast.With{Pos: p.span(start), Items: items}
	s.Body = p.block()
	return s
}

func (p *parser) withItem() *ast.WithItem {
	item := &ast.WithItem{ContextExpr: p.test()}
	if p.got("as") {
		t := p.starOrBitOr()
		p.checkTarget(t, "assign to")
		setCtx(t, ast.Store)
		item.OptionalVars = t
	}
	return item
}

func (p *parser) decorated() ast.Stmt {
	var decorators []ast.Expr
	for p.got("@") {
		decorators = append(decorators, p.namedExpr())
		p.expectKind(tNewline)
	}
	switch {
	case p.at("def"):
		return p.funcDef(decorators)
	case p.at("class"):
		return p.classDef(decorators)
	case p.at("async"):
		p.unsupported(p.tok.pos, "async")
	}
	p.errorf(p.tok.pos, "invalid syntax: expected a function or a class after a decorator")
	return nil
}

func (p *parser) funcDef(decorators []ast.Expr) ast.Stmt {
	start := p.tok.pos
	p.expect("def")
	s := &ast.FunctionDef{Name: p.name(), Decorators: decorators}
	if p.at("[") {
		p.unsupported(p.tok.pos, "type parameters")
	}
	p.expect("(")
	s.Args = p.parameters(")", true)
	p.expect(")")
	if p.got("->") {
		s.Returns = p.test()
	}
	s.Pos = p.span(start)
	s.Body = p.block()
	return s
}

func (p *parser) param(annotations bool) *ast.Arg {
	start := p.tok.pos
	a := &ast.Arg{Name: p.name()}
	if annotations && p.got(":") {
		a.Annotation = p.test()
	}
	a.Pos = p.span(start)
	return a
}

// parameters parses the formal parameters of a function or a lambda
// up to (but excluding) the closer token.
func (p *parser) parameters(closer string, annotations bool) *ast.Arguments {
	args := &ast.Arguments{}
	seenDefault := false
	kwOnly := false
	for !p.at(closer) {
		switch {
		case p.at("/"):
			if kwOnly || len(args.PosOnly) > 0 {
				p.errorf(p.tok.pos, "/ may appear only once and must be ahead of *")
			}
			if len(args.Args) == 0 {
				p.errorf(p.tok.pos, "at least one argument must precede /")
			}
			p.next()
			args.PosOnly, args.Args = args.Args, nil
		case p.at("**"):
			p.next()
			args.Kwarg = p.param(annotations)
			p.got(",")
			if !p.at(closer) {
				p.errorf(p.tok.pos, "arguments cannot follow var-keyword argument")
			}
			return args
		case p.at("*"):
			if kwOnly {
				p.errorf(p.tok.pos, "* argument may appear only once")
			}
			p.next()
			kwOnly = true
			if !p.at(",") && !p.at(closer) {
				args.Vararg = p.param(annotations)
			}
		default:
			a := p.param(annotations)
			var def ast.Expr
			if p.got("=") {
				def = p.test()
			}
			if kwOnly {
				args.KwOnly = append(args.KwOnly, a)
				args.KwDefaults = append(args.KwDefaults, def)
				break
			}
			args.Args = append(args.Args, a)
			if def != nil {
				args.Defaults = append(args.Defaults, def)
				seenDefault = true
			} else if seenDefault {
				p.errorf(a, "non-default argument follows default argument")
			}
		}
		if !p.got(",") {
			break
		}
	}
	if kwOnly && args.Vararg == nil && len(args.KwOnly) == 0 {
		p.errorf(p.tok.pos, "named arguments must follow bare *")
	}
	return args
}

func (p *parser) classDef(decorators []ast.Expr) ast.Stmt {
	start := p.tok.pos
	p.expect("class")
	s := &ast.ClassDef{Name: p.name(), Decorators: decorators}
	if p.at("[") {
		p.unsupported(p.tok.pos, "type parameters")
	}
	if p.got("(") {
		s.Bases, s.Keywords = p.callArgs()
		p.expect(")")
	}
	s.Pos = p.span(start)
	s.Body = p.block()
	return s
}

func (p *parser) dottedName() string {
	name := p.name()
	for p.got(".") {
		name += "." + p.name()
	}
	return name
}

func (p *parser) importStmt() ast.Stmt {
	start := p.tok.pos
	p.expect("import")
	s := &ast.Import{}
	for {
		astart := p.tok.pos
		a := &ast.Alias{Name: p.dottedName()}
		if p.got("as") {
			a.AsName = p.name()
		}
		a.Pos = p.span(astart)
		s.Names = append(s.Names, a)
		if !p.got(",") {
			break
		}
	}
	s.Pos = p.span(start)
	return s
}

func (p *parser) importFrom() ast.Stmt {
	start := p.tok.pos
	p.expect("from")
	s := &ast.ImportFrom{}
	for {
		if p.got(".") {
			s.Level++
		} else if p.got("...") {
			s.Level += 3
		} else {
			break
		}
	}
	if !p.at("import") {
		s.Module = p.dottedName()
	}
	p.expect("import")
	if p.at("*") {
		s.Names = []*ast.Alias{{Pos: p.tok.pos, Name: "*"}}
		p.next()
		s.Pos = p.span(start)
		return s
	}
	paren := p.got("(")
	for {
		astart := p.tok.pos
		a := &ast.Alias{Name: p.name()}
		if p.got("as") {
			a.AsName = p.name()
		}
		a.Pos = p.span(astart)
		s.Names = append(s.Names, a)
		if !p.got(",") {
			break
		}
		if paren && p.at(")") {
			break
		}
	}
	if paren {
		p.expect(")")
	}
	s.Pos = p.span(start)
	return s
}

// matchStmt parses a match statement. It returns nil if match is used
// as a name.
func (p *parser) matchStmt() ast.Stmt {
	start := p.tok.pos
	s := &ast.Match{}
	if !p.try(func() {
		p.next()
		s.Subject = p.starNamedExprs()
		s.Pos = p.span(start)
		p.expect(":")
		p.expectKind(tNewline)
		p.expectKind(tIndent)
		if !p.atSoft("case") {
			p.errorf(p.tok.pos, "expected 'case'")
		}
	}) {
		return nil
	}
	for p.atSoft("case") {
		cstart := p.tok.pos
		p.next()
		c := &ast.MatchCase{Pattern: p.patterns()}
		if p.got("if") {
			c.Guard = p.namedExpr()
		}
		c.Pos = p.span(cstart)
		c.Body = p.block()
		s.Cases = append(s.Cases, c)
	}
	p.expectKind(tDedent)
	return s
}
