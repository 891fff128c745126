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

import "github.com/gx-org/pyjs/build/ast"

// patterns parses the pattern of a case clause.
// A comma-separated list of patterns is a sequence pattern.
func (p *parser) patterns() ast.Pattern {
	start := p.tok.pos
	first := p.maybeStarPattern()
	if !p.at(",") {
		if _, ok := first.(*ast.MatchStar); ok {
			p.errorf(first, "can't use starred pattern here")
		}
		return first
	}
	seq := &ast.MatchSequence{Patterns: []ast.Pattern{first}}
	for p.got(",") {
		if p.at(":") || p.at("if") {
			break
		}
		seq.Patterns = append(seq.Patterns, p.maybeStarPattern())
	}
	seq.Pos = p.span(start)
	return seq
}

func (p *parser) maybeStarPattern() ast.Pattern {
	if !p.at("*") {
		return p.asPattern()
	}
	start := p.tok.pos
	p.next()
	name := p.name()
	if name == "_" {
		name = ""
	}
	return &ast.MatchStar{Pos: p.span(start), Name: name}
}

func (p *parser) asPattern() ast.Pattern {
	start := p.tok.pos
	pat := p.orPattern()
	if !p.got("as") {
		return pat
	}
	nameTok := p.tok
	name := p.name()
	if name == "_" {
		p.errorf(nameTok.pos, "cannot use '_' as a target")
	}
	return &ast.MatchAs{Pos: p.span(start), Pattern: pat, Name: name}
}

func (p *parser) orPattern() ast.Pattern {
	start := p.tok.pos
	first := p.closedPattern()
	if !p.at("|") {
		return first
	}
	or := &ast.MatchOr{Patterns: []ast.Pattern{first}}
	for p.got("|") {
		or.Patterns = append(or.Patterns, p.closedPattern())
	}
	or.Pos = p.span(start)
	return or
}

func (p *parser) closedPattern() ast.Pattern {
	p.enter()
	defer p.leave()
	start := p.tok.pos
	tok := p.tok
	switch {
	case tok.is("None"):
		p.next()
		return &ast.MatchSingleton{Pos: tok.pos}
	case tok.is("True"), tok.is("False"):
		p.next()
		return &ast.MatchSingleton{Pos: tok.pos, Value: tok.text == "True"}
	case tok.kind == tInt, tok.kind == tFloat, tok.is("-"):
		return &ast.MatchValue{Pos: tok.pos, Value: p.signedNumber()}
	case tok.kind == tString:
		s := p.strings()
		if _, ok := s.(*ast.JoinedStr); ok {
			p.errorf(s, "patterns may only match literals and attribute lookups")
		}
		return &ast.MatchValue{Pos: s.Span(), Value: s}
	case tok.is("("):
		p.next()
		if p.got(")") {
			return &ast.MatchSequence{Pos: p.span(start)}
		}
		first := p.maybeStarPattern()
		if p.got(")") {
			if _, ok := first.(*ast.MatchStar); !ok {
				return first
			}
			return &ast.MatchSequence{Pos: p.span(start), Patterns: []ast.Pattern{first}}
		}
		seq := &ast.MatchSequence{Patterns: []ast.Pattern{first}}
		p.expect(",")
		for !p.at(")") {
			seq.Patterns = append(seq.Patterns, p.maybeStarPattern())
			if !p.got(",") {
				break
			}
		}
		p.expect(")")
		seq.Pos = p.span(start)
		return seq
	case tok.is("["):
		p.next()
		seq := &ast.MatchSequence{}
		for !p.at("]") {
			seq.Patterns = append(seq.Patterns, p.maybeStarPattern())
			if !p.got(",") {
				break
			}
		}
		p.expect("]")
		seq.Pos = p.span(start)
		return seq
	case tok.is("{"):
		return p.mappingPattern()
	case tok.kind == tName:
		value, dotted := p.dottedValue()
		if p.at("(") {
			return p.classPattern(start, value)
		}
		if dotted {
			return &ast.MatchValue{Pos: value.Span(), Value: value}
		}
		if tok.text == "_" {
			return &ast.MatchAs{Pos: tok.pos}
		}
		return &ast.MatchAs{Pos: tok.pos, Name: tok.text}
	}
	p.errorf(tok.pos, "invalid pattern: unexpected %s", tok)
	return nil
}

// signedNumber parses an optionally negated number literal.
func (p *parser) signedNumber() ast.Expr {
	start := p.tok.pos
	neg := p.got("-")
	if !p.atKind(tInt) && !p.atKind(tFloat) {
		p.errorf(p.tok.pos, "invalid pattern: expected a number but got %s", p.tok)
	}
	v := p.tok.value
	p.next()
	if neg {
		switch n := v.(type) {
		case int64:
			v = -n
		case float64:
			v = -n
		}
	}
	return &ast.Constant{Pos: p.span(start), Value: v}
}

// dottedValue parses name(.name)*.
func (p *parser) dottedValue() (ast.Expr, bool) {
	start := p.tok.pos
	var e ast.Expr = &ast.Name{Pos: start, ID: p.name()}
	dotted := false
	for p.got(".") {
		attr := p.name()
		e = &ast.Attribute{Pos: p.span(start), Value: e, Attr: attr}
		dotted = true
	}
	return e, dotted
}

func (p *parser) patternKey() ast.Expr {
	tok := p.tok
	switch {
	case tok.is("None"):
		p.next()
		return &ast.Constant{Pos: tok.pos}
	case tok.is("True"), tok.is("False"):
		p.next()
		return &ast.Constant{Pos: tok.pos, Value: tok.text == "True"}
	case tok.kind == tInt, tok.kind == tFloat, tok.is("-"):
		return p.signedNumber()
	case tok.kind == tString:
		s := p.strings()
		if _, ok := s.(*ast.JoinedStr); !ok {
			return s
		}
	case tok.kind == tName:
		if value, dotted := p.dottedValue(); dotted {
			return value
		}
	}
	p.errorf(tok.pos, "mapping pattern keys may only match literals and attribute lookups")
	return nil
}

func (p *parser) mappingPattern() ast.Pattern {
	start := p.tok.pos
	p.expect("{")
	m := &ast.MatchMapping{}
	for !p.at("}") {
		if p.got("**") {
			m.Rest = p.name()
			p.got(",")
			break
		}
		m.Keys = append(m.Keys, p.patternKey())
		p.expect(":")
		m.Patterns = append(m.Patterns, p.asPattern())
		if !p.got(",") {
			break
		}
	}
	p.expect("}")
	m.Pos = p.span(start)
	return m
}

func (p *parser) classPattern(start ast.Pos, cls ast.Expr) ast.Pattern {
	p.expect("(")
	m := &ast.MatchClass{Cls: cls}
	for !p.at(")") {
		if p.atKind(tName) && p.peekTok(1).is("=") {
			m.KwdAttrs = append(m.KwdAttrs, p.name())
			p.next()
			m.KwdPatterns = append(m.KwdPatterns, p.asPattern())
		} else {
			if len(m.KwdAttrs) > 0 {
				p.errorf(p.tok.pos, "positional patterns follow keyword patterns")
			}
			m.Patterns = append(m.Patterns, p.asPattern())
		}
		if !p.got(",") {
			break
		}
	}
	p.expect(")")
	m.Pos = p.span(start)
	return m
}
