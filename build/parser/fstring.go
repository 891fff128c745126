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
	"strings"

	"github.com/gx-org/pyjs/build/ast"
)

// cursor walks the runes of an f-string body keeping track of the
// position in the source.
type cursor struct {
	rs        []rune
	i         int
	line, col int
}

func (c *cursor) advance(n int) {
	for k := 0; k < n && c.i < len(c.rs); k++ {
		if c.rs[c.i] == '\n' {
			c.line++
			c.col = 0
		} else {
			c.col++
		}
		c.i++
	}
}

func (c *cursor) at(i int) rune {
	if i >= len(c.rs) {
		return 0
	}
	return c.rs[i]
}

// skipString returns the index after the string literal starting at i.
func skipString(rs []rune, i int) int {
	q := rs[i]
	triple := i+2 < len(rs) && rs[i+1] == q && rs[i+2] == q
	if triple {
		i += 3
	} else {
		i++
	}
	for i < len(rs) {
		switch {
		case rs[i] == '\\':
			i += 2
			continue
		case rs[i] == q && !triple:
			return i + 1
		case rs[i] == q && i+2 < len(rs) && rs[i+1] == q && rs[i+2] == q:
			return i + 3
		}
		i++
	}
	return i
}

// matchingBrace returns the index of the brace closing the field opened at i.
func matchingBrace(rs []rune, i int) int {
	depth := 0
	for i < len(rs) {
		switch rs[i] {
		case '\'', '"':
			i = skipString(rs, i)
			continue
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return len(rs)
}

// fstring splits an f-string into constant strings and formatted values.
func (p *parser) fstring(tok token) []ast.Expr {
	return p.fstringParts(tok.fstr.text, tok.fstr.raw, tok.fstr.line, tok.fstr.col, tok.pos)
}

func (p *parser) fstringParts(body string, raw bool, line, col int, pos ast.Pos) []ast.Expr {
	cur := &cursor{rs: []rune(body), line: line, col: col}
	var parts []ast.Expr
	var lit []rune
	flush := func() {
		if len(lit) == 0 {
			return
		}
		v, err := unescape(string(lit), raw, false)
		if err != nil {
			p.errorf(pos, "%s", err.Error())
		}
		parts = append(parts, &ast.Constant{Pos: pos, Value: v})
		lit = nil
	}
	for cur.i < len(cur.rs) {
		c := cur.rs[cur.i]
		next := cur.at(cur.i + 1)
		switch {
		case c == '\\' && next != 0:
			lit = append(lit, c, next)
			cur.advance(2)
		case c == '{' && next == '{':
			lit = append(lit, '{')
			cur.advance(2)
		case c == '}' && next == '}':
			lit = append(lit, '}')
			cur.advance(2)
		case c == '}':
			p.errorf(pos, "f-string: single '}' is not allowed")
		case c == '{':
			flush()
			end := matchingBrace(cur.rs, cur.i)
			cur.advance(1)
			field := cur.rs[cur.i:end]
			parts = append(parts, p.replacementField(field, raw, cur.line, cur.col, pos)...)
			cur.advance(len(field) + 1)
		default:
			lit = append(lit, c)
			cur.advance(1)
		}
	}
	flush()
	return parts
}

// replacementField parses expr[=][!conv][:spec] of an f-string.
func (p *parser) replacementField(field []rune, raw bool, line, col int, pos ast.Pos) []ast.Expr {
	exprEnd := len(field)
	depth := 0
scan:
	for j := 0; j < len(field); j++ {
		switch c := field[j]; c {
		case '\'', '"':
			j = skipString(field, j) - 1
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '!':
			if depth == 0 && (j+1 >= len(field) || field[j+1] != '=') {
				exprEnd = j
				break scan
			}
		case ':':
			if depth == 0 {
				exprEnd = j
				break scan
			}
		}
	}
	text := string(field[:exprEnd])
	var parts []ast.Expr
	debug := false
	if trimmed := strings.TrimRight(text, " \t\n"); strings.HasSuffix(trimmed, "=") {
		before := strings.TrimSuffix(trimmed, "=")
		if !strings.HasSuffix(before, "=") && !strings.HasSuffix(before, "!") &&
			!strings.HasSuffix(before, "<") && !strings.HasSuffix(before, ">") {
			debug = true
			parts = append(parts, &ast.Constant{Pos: pos, Value: text})
			text = before
		}
	}
	if strings.TrimSpace(text) == "" {
		p.errorf(pos, "f-string: empty expression not allowed")
	}
	value := p.subExpr(text, line, col)
	fv := &ast.FormattedValue{Pos: value.Span(), Value: value}
	rest := field[exprEnd:]
	restCur := &cursor{rs: field, line: line, col: col}
	restCur.advance(exprEnd)
	if len(rest) > 0 && rest[0] == '!' {
		if len(rest) < 2 || !strings.ContainsRune("sra", rest[1]) {
			p.errorf(pos, "f-string: invalid conversion character: expected 's', 'r', or 'a'")
		}
		fv.Conversion = rest[1]
		rest = rest[2:]
		restCur.advance(2)
		if len(rest) > 0 && rest[0] != ':' {
			p.errorf(pos, "f-string: expecting '}'")
		}
	}
	if len(rest) > 0 && rest[0] == ':' {
		restCur.advance(1)
		if spec := rest[1:]; len(spec) > 0 {
			fv.FormatSpec = &ast.JoinedStr{
				Pos:    pos,
				Values: mergeConstants(p.fstringParts(string(spec), raw, restCur.line, restCur.col, pos)),
			}
		}
	}
	if debug && fv.Conversion == 0 && fv.FormatSpec == nil {
		fv.Conversion = 'r'
	}
	return append(parts, fv)
}

// subExpr parses an expression embedded in an f-string.
func (p *parser) subExpr(text string, line, col int) ast.Expr {
	lex := newLexer(p.file, text, line, col)
	lex.expr = true
	toks, err := lex.run()
	if err != nil {
		panic(bailout{err: err})
	}
	sub := newParser(p.file, toks)
	sub.depth = p.depth
	e := sub.starNamedExprs()
	if !sub.atKind(tEOF) {
		sub.errorf(sub.tok.pos, "f-string: invalid syntax: unexpected %s", sub.tok)
	}
	return e
}
