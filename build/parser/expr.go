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

package parser

import (
	"github.com/gx-org/pyjs/build/ast"
)

// canStartExpr returns true if the current token can start an expression.
func (p *parser) canStartExpr() bool {
	switch p.tok.kind {
	case tName, tInt, tFloat, tString:
		return true
	case tKeyword:
		switch p.tok.text {
		case "not", "lambda", "None", "True", "False", "await", "yield":
			return true
		}
	case tOp:
		switch p.tok.text {
		case "(", "[", "{", "-", "+", "~", "*", "...":
			return true
		}
	}
	return false
}

// exprList parses a comma-separated list of elements.
// A list with a comma is a tuple.
func (p *parser) exprList(elem func() ast.Expr) ast.Expr {
	start := p.tok.pos
	first := elem()
	if !p.at(",") {
		if _, ok := first.(*ast.Starred); ok {
			p.errorf(first, "can't use starred expression here")
		}
		return first
	}
	elts := []ast.Expr{first}
	for p.got(",") {
		if !p.canStartExpr() {
			break
		}
		elts = append(elts, elem())
	}
	return &ast.Tuple{Pos: p.span(start), Elts: elts}
}

func (p *parser) starExprs() ast.Expr {
	return p.exprList(p.starOrTest)
}

func (p *parser) starNamedExprs() ast.Expr {
	return p.exprList(p.starOrNamed)
}

// targetList parses the targets of a for loop or a comprehension.
func (p *parser) targetList() ast.Expr {
	start := p.tok.pos
	first := p.starOrBitOr()
	if !p.at(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.got(",") {
		if !p.canStartExpr() {
			break
		}
		elts = append(elts, p.starOrBitOr())
	}
	return &ast.Tuple{Pos: p.span(start), Elts: elts}
}

func (p *parser) starred(value func() ast.Expr) ast.Expr {
	start := p.tok.pos
	p.expect("*")
	v := value()
	return &ast.Starred{Pos: p.span(start), Value: v}
}

func (p *parser) starOrTest() ast.Expr {
	if p.at("*") {
		return p.starred(p.bitOr)
	}
	return p.test()
}

func (p *parser) starOrNamed() ast.Expr {
	if p.at("*") {
		return p.starred(p.bitOr)
	}
	return p.namedExpr()
}

func (p *parser) starOrBitOr() ast.Expr {
	if p.at("*") {
		return p.starred(p.bitOr)
	}
	return p.bitOr()
}

func (p *parser) namedExpr() ast.Expr {
	if p.atKind(tName) && p.peekTok(1).is(":=") {
		start := p.tok.pos
		target := &ast.Name{Pos: p.tok.pos, ID: p.tok.text, Ctx: ast.Store}
		p.next()
		p.next()
		value := p.test()
		return &ast.NamedExpr{Pos: p.span(start), Target: target, Value: value}
	}
	return p.test()
}

func (p *parser) test() ast.Expr {
	p.enter()
	defer p.leave()
	if p.at("lambda") {
		return p.lambda()
	}
	start := p.tok.pos
	body := p.orTest()
	if !p.got("if") {
		return body
	}
	e := &ast.IfExp{Body: body, Test: p.orTest()}
	p.expect("else")
	e.OrElse = p.test()
	e.Pos = p.span(start)
	return e
}

func (p *parser) lambda() ast.Expr {
	start := p.tok.pos
	p.expect("lambda")
	e := &ast.Lambda{Args: p.parameters(":", false)}
	p.expect(":")
	e.Body = p.test()
	e.Pos = p.span(start)
	return e
}

func (p *parser) boolOp(op ast.BoolOperator, keyword string, operand func() ast.Expr) ast.Expr {
	start := p.tok.pos
	first := operand()
	if !p.at(keyword) {
		return first
	}
	values := []ast.Expr{first}
	for p.got(keyword) {
		values = append(values, operand())
	}
	return &ast.BoolOp{Pos: p.span(start), Op: op, Values: values}
}

func (p *parser) orTest() ast.Expr {
	return p.boolOp(ast.Or, "or", p.andTest)
}

func (p *parser) andTest() ast.Expr {
	return p.boolOp(ast.And, "and", p.notTest)
}

func (p *parser) notTest() ast.Expr {
	if !p.at("not") {
		return p.comparison()
	}
	p.enter()
	defer p.leave()
	start := p.tok.pos
	p.next()
	operand := p.notTest()
	return &ast.UnaryOp{Pos: p.span(start), Op: ast.Not, Operand: operand}
}

var cmpOps = map[string]ast.CmpOp{
	"==": ast.Eq,
	"!=": ast.NotEq,
	"<":  ast.Lt,
	"<=": ast.LtE,
	">":  ast.Gt,
	">=": ast.GtE,
}

// compOp consumes a comparison operator if there is one.
func (p *parser) compOp() (ast.CmpOp, bool) {
	if op, ok := cmpOps[p.tok.text]; ok && p.atKind(tOp) {
		p.next()
		return op, true
	}
	switch {
	case p.got("in"):
		return ast.In, true
	case p.at("not") && p.peekTok(1).is("in"):
		p.next()
		p.next()
		return ast.NotIn, true
	case p.got("is"):
		if p.got("not") {
			return ast.IsNot, true
		}
		return ast.Is, true
	}
	return 0, false
}

func (p *parser) comparison() ast.Expr {
	start := p.tok.pos
	left := p.bitOr()
	var ops []ast.CmpOp
	var comparators []ast.Expr
	for {
		op, ok := p.compOp()
		if !ok {
			break
		}
		ops = append(ops, op)
		comparators = append(comparators, p.bitOr())
	}
	if len(ops) == 0 {
		return left
	}
	return &ast.Compare{Pos: p.span(start), Left: left, Ops: ops, Comparators: comparators}
}

// binary parses a left-associative chain of binary operators.
// Each operator of the chain nests the tree one level deeper.
func (p *parser) binary(operand func() ast.Expr, ops map[string]ast.Operator) ast.Expr {
	start := p.tok.pos
	left := operand()
	levels := 0
	defer func() {
		for ; levels > 0; levels-- {
			p.leave()
		}
	}()
	for p.atKind(tOp) {
		op, ok := ops[p.tok.text]
		if !ok {
			break
		}
		p.enter()
		levels++
		p.next()
		right := operand()
		left = &ast.BinOp{Pos: p.span(start), Left: left, Op: op, Right: right}
	}
	return left
}

var (
	bitOrOps  = map[string]ast.Operator{"|": ast.BitOr}
	bitXorOps = map[string]ast.Operator{"^": ast.BitXor}
	bitAndOps = map[string]ast.Operator{"&": ast.BitAnd}
	shiftOps  = map[string]ast.Operator{"<<": ast.LShift, ">>": ast.RShift}
	arithOps  = map[string]ast.Operator{"+": ast.Add, "-": ast.Sub}
	termOps   = map[string]ast.Operator{
		"*":  ast.Mult,
		"@":  ast.MatMult,
		"/":  ast.Div,
		"%":  ast.Mod,
		"//": ast.FloorDiv,
	}
)

func (p *parser) bitOr() ast.Expr  { return p.binary(p.bitXor, bitOrOps) }
func (p *parser) bitXor() ast.Expr { return p.binary(p.bitAnd, bitXorOps) }
func (p *parser) bitAnd() ast.Expr { return p.binary(p.shift, bitAndOps) }
func (p *parser) shift() ast.Expr  { return p.binary(p.arith, shiftOps) }
func (p *parser) arith() ast.Expr  { return p.binary(p.term, arithOps) }
func (p *parser) term() ast.Expr   { return p.binary(p.factor, termOps) }

var unaryOps = map[string]ast.UnaryOperator{
	"+": ast.UAdd,
	"-": ast.USub,
	"~": ast.Invert,
}

func (p *parser) factor() ast.Expr {
	op, ok := unaryOps[p.tok.text]
	if !ok || !p.atKind(tOp) {
		return p.power()
	}
	p.enter()
	defer p.leave()
	start := p.tok.pos
	p.next()
	operand := p.factor()
	return &ast.UnaryOp{Pos: p.span(start), Op: op, Operand: operand}
}

func (p *parser) power() ast.Expr {
	start := p.tok.pos
	if p.at("await") {
		p.unsupported(p.tok.pos, "await")
	}
	base := p.primary()
	if !p.got("**") {
		return base
	}
	p.enter()
	defer p.leave()
	exp := p.factor()
	return &ast.BinOp{Pos: p.span(start), Left: base, Op: ast.Pow, Right: exp}
}

func (p *parser) primary() ast.Expr {
	start := p.tok.pos
	e := p.atom()
	for {
		switch {
		case p.got("."):
			attr := p.name()
			e = &ast.Attribute{Pos: p.span(start), Value: e, Attr: attr}
		case p.got("("):
			call := &ast.Call{Func: e}
			call.Args, call.Keywords = p.callArgs()
			p.expect(")")
			call.Pos = p.span(start)
			e = call
		case p.got("["):
			index := p.subscriptIndex()
			p.expect("]")
			e = &ast.Subscript{Pos: p.span(start), Value: e, Index: index}
		default:
			return e
		}
	}
}

// callArgs parses the arguments of a call up to (but excluding) the
// closing parenthesis.
func (p *parser) callArgs() ([]ast.Expr, []*ast.Keyword) {
	var args []ast.Expr
	var kws []*ast.Keyword
	for !p.at(")") {
		start := p.tok.pos
		switch {
		case p.at("*"):
			args = append(args, p.starred(p.test))
		case p.got("**"):
			v := p.test()
			kws = append(kws, &ast.Keyword{Pos: p.span(start), Value: v})
		case p.atKind(tName) && p.peekTok(1).is("="):
			name := p.name()
			p.next()
			v := p.test()
			kws = append(kws, &ast.Keyword{Pos: p.span(start), Arg: name, Value: v})
		default:
			v := p.namedExpr()
			if p.at("for") {
				if len(args) > 0 || len(kws) > 0 {
					p.errorf(v, "generator expression must be parenthesized")
				}
				g := &ast.GeneratorExp{Elt: v, Generators: p.comprehension()}
				g.Pos = p.span(start)
				v = g
				if p.at(",") && !p.peekTok(1).is(")") {
					p.errorf(v, "generator expression must be parenthesized")
				}
			}
			if len(kws) > 0 {
				p.errorf(v, "positional argument follows keyword argument")
			}
			args = append(args, v)
		}
		if !p.got(",") {
			break
		}
	}
	return args, kws
}

func (p *parser) subscriptIndex() ast.Expr {
	start := p.tok.pos
	first := p.sliceItem()
	if !p.at(",") {
		return first
	}
	elts := []ast.Expr{first}
	for p.got(",") {
		if p.at("]") {
			break
		}
		elts = append(elts, p.sliceItem())
	}
	return &ast.Tuple{Pos: p.span(start), Elts: elts}
}

func (p *parser) sliceItem() ast.Expr {
	start := p.tok.pos
	var lower ast.Expr
	if !p.at(":") {
		lower = p.starOrNamed()
		if !p.at(":") {
			return lower
		}
	}
	p.expect(":")
	s := &ast.Slice{Lower: lower}
	if !p.at(":") && !p.at("]") && !p.at(",") {
		s.Upper = p.test()
	}
	if p.got(":") && !p.at("]") && !p.at(",") {
		s.Step = p.test()
	}
	s.Pos = p.span(start)
	return s
}

func (p *parser) atom() ast.Expr {
	tok := p.tok
	switch tok.kind {
	case tName:
		p.next()
		return &ast.Name{Pos: tok.pos, ID: tok.text}
	case tInt, tFloat:
		p.next()
		return &ast.Constant{Pos: tok.pos, Value: tok.value}
	case tString:
		return p.strings()
	case tKeyword:
		switch tok.text {
		case "None":
			p.next()
			return &ast.Constant{Pos: tok.pos}
		case "True", "False":
			p.next()
			return &ast.Constant{Pos: tok.pos, Value: tok.text == "True"}
		}
	case tOp:
		switch tok.text {
		case "(":
			return p.parenAtom()
		case "[":
			return p.listAtom()
		case "{":
			return p.braceAtom()
		case "...":
			p.next()
			return &ast.Constant{Pos: tok.pos, Value: ast.EllipsisValue{}}
		}
	}
	p.errorf(tok.pos, "invalid syntax: unexpected %s", tok)
	return nil
}

func (p *parser) parenAtom() ast.Expr {
	start := p.tok.pos
	p.expect("(")
	if p.got(")") {
		return &ast.Tuple{Pos: p.span(start)}
	}
	if p.at("yield") {
		y := p.yieldExpr()
		p.expect(")")
		return y
	}
	first := p.starOrNamed()
	if p.at("for") {
		g := &ast.GeneratorExp{Elt: first, Generators: p.comprehension()}
		p.expect(")")
		g.Pos = p.span(start)
		return g
	}
	if p.got(")") {
		if _, ok := first.(*ast.Starred); ok {
			p.errorf(first, "can't use starred expression here")
		}
		return first
	}
	elts := []ast.Expr{first}
	for p.got(",") {
		if p.at(")") {
			break
		}
		elts = append(elts, p.starOrNamed())
	}
	p.expect(")")
	return &ast.Tuple{Pos: p.span(start), Elts: elts}
}

func (p *parser) listAtom() ast.Expr {
	start := p.tok.pos
	p.expect("[")
	if p.got("]") {
		return &ast.List{Pos: p.span(start)}
	}
	first := p.starOrNamed()
	if p.at("for") {
		c := &ast.ListComp{Elt: first, Generators: p.comprehension()}
		p.expect("]")
		c.Pos = p.span(start)
		return c
	}
	elts := []ast.Expr{first}
	for p.got(",") {
		if p.at("]") {
			break
		}
		elts = append(elts, p.starOrNamed())
	}
	p.expect("]")
	return &ast.List{Pos: p.span(start), Elts: elts}
}

// braceAtom parses a dict or a set display, or their comprehensions.
func (p *parser) braceAtom() ast.Expr {
	start := p.tok.pos
	p.expect("{")
	if p.got("}") {
		return &ast.Dict{Pos: p.span(start)}
	}
	if p.got("**") {
		return p.dictRest(start, nil, p.bitOr())
	}
	first := p.starOrNamed()
	if p.got(":") {
		value := p.test()
		if p.at("for") {
			c := &ast.DictComp{Key: first, Value: value, Generators: p.comprehension()}
			p.expect("}")
			c.Pos = p.span(start)
			return c
		}
		return p.dictRest(start, first, value)
	}
	if p.at("for") {
		c := &ast.SetComp{Elt: first, Generators: p.comprehension()}
		p.expect("}")
		c.Pos = p.span(start)
		return c
	}
	elts := []ast.Expr{first}
	for p.got(",") {
		if p.at("}") {
			break
		}
		elts = append(elts, p.starOrNamed())
	}
	p.expect("}")
	return &ast.Set{Pos: p.span(start), Elts: elts}
}

// dictRest parses the entries of a dict display after the first one.
// A nil key is a ** expansion.
func (p *parser) dictRest(start ast.Pos, key, value ast.Expr) ast.Expr {
	d := &ast.Dict{Keys: []ast.Expr{key}, Values: []ast.Expr{value}}
	for p.got(",") {
		if p.at("}") {
			break
		}
		if p.got("**") {
			d.Keys = append(d.Keys, nil)
			d.Values = append(d.Values, p.bitOr())
			continue
		}
		k := p.test()
		p.expect(":")
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, p.test())
	}
	p.expect("}")
	d.Pos = p.span(start)
	return d
}

// comprehension parses the for and if clauses of a comprehension.
func (p *parser) comprehension() []*ast.Comprehension {
	var gens []*ast.Comprehension
	for p.at("for") || p.at("async") {
		if p.at("async") {
			p.unsupported(p.tok.pos, "async comprehension")
		}
		p.next()
		target := p.targetList()
		p.checkTarget(target, "assign to")
		setCtx(target, ast.Store)
		p.expect("in")
		c := &ast.Comprehension{Target: target, Iter: p.orTest()}
		for p.got("if") {
			c.Ifs = append(c.Ifs, p.orTest())
		}
		gens = append(gens, c)
	}
	return gens
}

func (p *parser) yieldExpr() ast.Expr {
	start := p.tok.pos
	p.expect("yield")
	if p.got("from") {
		v := p.test()
		return &ast.YieldFrom{Pos: p.span(start), Value: v}
	}
	var v ast.Expr
	if p.canStartExpr() {
		v = p.starExprs()
	}
	return &ast.Yield{Pos: p.span(start), Value: v}
}

// strings parses adjacent string literals into a constant or an f-string.
func (p *parser) strings() ast.Expr {
	start := p.tok.pos
	var parts []ast.Expr
	var bytes []byte
	isBytes, isF := false, false
	first := true
	for p.atKind(tString) {
		tok := p.tok
		p.next()
		b, tokIsBytes := tok.value.(ast.Bytes)
		if !first && tokIsBytes != isBytes {
			p.errorf(tok.pos, "cannot mix bytes and nonbytes literals")
		}
		first = false
		switch {
		case tokIsBytes:
			isBytes = true
			bytes = append(bytes, b...)
		case tok.fstr != nil:
			isF = true
			parts = append(parts, p.fstring(tok)...)
		default:
			parts = append(parts, &ast.Constant{Pos: tok.pos, Value: tok.value})
		}
	}
	pos := p.span(start)
	if isBytes {
		return &ast.Constant{Pos: pos, Value: ast.Bytes(bytes)}
	}
	values := mergeConstants(parts)
	if !isF {
		s := ""
		if len(values) > 0 {
			s = values[0].(*ast.Constant).Value.(string)
		}
		return &ast.Constant{Pos: pos, Value: s}
	}
	return &ast.JoinedStr{Pos: pos, Values: values}
}

// mergeConstants merges adjacent string constants and drops empty ones.
func mergeConstants(parts []ast.Expr) []ast.Expr {
	var values []ast.Expr
	for _, part := range parts {
		c, ok := part.(*ast.Constant)
		if !ok {
			values = append(values, part)
			continue
		}
		s := c.Value.(string)
		if s == "" {
			continue
		}
		if n := len(values); n > 0 {
			if last, ok := values[n-1].(*ast.Constant); ok {
				values[n-1] = &ast.Constant{Pos: last.Pos.Join(c.Pos), Value: last.Value.(string) + s}
				continue
			}
		}
		values = append(values, &ast.Constant{Pos: c.Pos, Value: s})
	}
	return values
}
