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
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/gx-org/pyjs/build/ast"
	"github.com/gx-org/pyjs/build/fmterr"
)

// lexer splits a source into tokens.
// Indentation is tracked with a stack of widths: a line indented more than
// the top of the stack emits an indent token, a line indented less emits
// one dedent token per level it closes.
type lexer struct {
	file string
	src  []rune
	off  int
	line int
	col  int

	parens  []rune
	indents []int
	toks    []token

	// expr is set when lexing an expression embedded in an f-string:
	// no newline or indentation tokens are emitted.
	expr bool
}

func newLexer(file, src string, line, col int) *lexer {
	return &lexer{
		file:    file,
		src:     []rune(src),
		line:    line,
		col:     col,
		indents: []int{0},
	}
}

// normalizeNewlines replaces \r\n and \r with \n.
func normalizeNewlines(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.ReplaceAll(src, "\r", "\n")
}

func (l *lexer) errorf(line, col int, format string, a ...any) error {
	return fmterr.At(fmterr.SyntaxError, fmterr.Location{
		File: l.file,
		Pos:  ast.Pos{Line: line, Col: col, EndLine: line, EndCol: col + 1},
	}, format, a...)
}

func (l *lexer) atEOF() bool {
	return l.off >= len(l.src)
}

func (l *lexer) peekAt(i int) rune {
	if l.off+i >= len(l.src) {
		return 0
	}
	return l.src[l.off+i]
}

func (l *lexer) peek() rune {
	return l.peekAt(0)
}

func (l *lexer) advance() rune {
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return c
}

func (l *lexer) hasPrefix(s string) bool {
	for i, c := range []rune(s) {
		if l.peekAt(i) != c {
			return false
		}
	}
	return true
}

func (l *lexer) emit(k kind, text string, line, col int, value any) {
	l.toks = append(l.toks, token{
		kind:  k,
		text:  text,
		pos:   ast.Pos{Line: line, Col: col, EndLine: l.line, EndCol: l.col},
		value: value,
	})
}

func (l *lexer) emitAt(k kind, line, col int) {
	l.toks = append(l.toks, token{
		kind: k,
		pos:  ast.Pos{Line: line, Col: col, EndLine: line, EndCol: col + 1},
	})
}

func (l *lexer) run() ([]token, error) {
	atLineStart := !l.expr
	for {
		if atLineStart && len(l.parens) == 0 {
			eof, err := l.indentation()
			if err != nil {
				return nil, err
			}
			if eof {
				break
			}
			atLineStart = false
		}
		l.skipSpaces()
		if l.atEOF() {
			break
		}
		line, col := l.line, l.col
		c := l.peek()
		var err error
		switch {
		case c == '#':
			l.skipComment()
		case c == '\n':
			l.advance()
			if len(l.parens) == 0 && !l.expr {
				l.emitAt(tNewline, line, col)
				atLineStart = true
			}
		case c == '\\':
			l.advance()
			if l.peek() != '\n' {
				return nil, l.errorf(line, col, "unexpected character after line continuation character")
			}
			l.advance()
		case c == '"' || c == '\'':
			err = l.str(l.off, "", line, col)
		case isIdentStart(c):
			err = l.nameOrString()
		case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
			err = l.number()
		default:
			err = l.operator()
		}
		if err != nil {
			return nil, err
		}
	}
	if n := len(l.parens); n > 0 {
		return nil, l.errorf(l.line, l.col, "unexpected EOF: '%c' was never closed", l.parens[n-1])
	}
	if !l.expr {
		if n := len(l.toks); n > 0 && l.toks[n-1].kind != tNewline {
			l.emitAt(tNewline, l.line, l.col)
		}
		for len(l.indents) > 1 {
			l.indents = l.indents[:len(l.indents)-1]
			l.emitAt(tDedent, l.line, l.col)
		}
	}
	l.emitAt(tEOF, l.line, l.col)
	return l.toks, nil
}

func (l *lexer) skipSpaces() {
	for c := l.peek(); c == ' ' || c == '\t' || c == '\f'; c = l.peek() {
		l.advance()
	}
}

func (l *lexer) skipComment() {
	for !l.atEOF() && l.peek() != '\n' {
		l.advance()
	}
}

// indentation measures the indentation of the next non-blank line and emits
// indent or dedent tokens. It returns true when the end of the file has been
// reached.
func (l *lexer) indentation() (bool, error) {
	for {
		width := 0
	measure:
		for !l.atEOF() {
			switch l.peek() {
			case ' ':
				width++
			case '\t':
				width = (width/8 + 1) * 8
			case '\f':
				width = 0
			default:
				break measure
			}
			l.advance()
		}
		if l.peek() == '#' {
			l.skipComment()
		}
		if l.atEOF() {
			return true, nil
		}
		if l.peek() == '\n' {
			l.advance()
			continue
		}
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.emitAt(tIndent, l.line, l.col)
		case width < top:
			for width < l.indents[len(l.indents)-1] {
				l.indents = l.indents[:len(l.indents)-1]
				l.emitAt(tDedent, l.line, l.col)
			}
			if l.indents[len(l.indents)-1] != width {
				return false, l.errorf(l.line, l.col, "unindent does not match any outer indentation level")
			}
		}
		return false, nil
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "b", "f", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

func (l *lexer) nameOrString() error {
	line, col := l.line, l.col
	start := l.off
	for !l.atEOF() && isIdentPart(l.peek()) {
		l.advance()
	}
	text := string(l.src[start:l.off])
	if q := l.peek(); (q == '"' || q == '\'') && isStringPrefix(text) {
		return l.str(start, strings.ToLower(text), line, col)
	}
	k := tName
	if keywords[text] {
		k = tKeyword
	}
	l.emit(k, text, line, col, nil)
	return nil
}

func (l *lexer) str(start int, prefix string, line, col int) error {
	raw := strings.ContainsRune(prefix, 'r')
	isBytes := strings.ContainsRune(prefix, 'b')
	isF := strings.ContainsRune(prefix, 'f')
	q := l.advance()
	triple := false
	if l.peek() == q && l.peekAt(1) == q {
		l.advance()
		l.advance()
		triple = true
	}
	bodyLine, bodyCol := l.line, l.col
	var body []rune
	for {
		if l.atEOF() || (l.peek() == '\n' && !triple) {
			return l.errorf(line, col, "unterminated string literal")
		}
		c := l.peek()
		if c == q && (!triple || (l.peekAt(1) == q && l.peekAt(2) == q)) {
			l.advance()
			if triple {
				l.advance()
				l.advance()
			}
			break
		}
		switch {
		case c == '\\':
			body = append(body, l.advance())
			if !l.atEOF() {
				body = append(body, l.advance())
			}
		case isF && c == '{' && l.peekAt(1) == '{':
			body = append(body, l.advance(), l.advance())
		case isF && c == '{':
			field, err := l.replacementField(triple)
			if err != nil {
				return err
			}
			body = append(body, field...)
		default:
			body = append(body, l.advance())
		}
	}
	text := string(l.src[start:l.off])
	if isF {
		l.emit(tString, text, line, col, nil)
		l.toks[len(l.toks)-1].fstr = &fstringBody{
			text: string(body),
			raw:  raw,
			line: bodyLine,
			col:  bodyCol,
		}
		return nil
	}
	v, err := unescape(string(body), raw, isBytes)
	if err != nil {
		return l.errorf(line, col, "%s", err.Error())
	}
	l.emit(tString, text, line, col, v)
	return nil
}

// replacementField consumes a {...} field of an f-string, including
// nested brackets and strings.
func (l *lexer) replacementField(triple bool) ([]rune, error) {
	line, col := l.line, l.col
	field := []rune{l.advance()}
	depth := 1
	for depth > 0 {
		if l.atEOF() || (l.peek() == '\n' && !triple) {
			return nil, l.errorf(line, col, "f-string: expecting '}'")
		}
		switch c := l.peek(); c {
		case '\'', '"':
			s, err := l.nestedString()
			if err != nil {
				return nil, err
			}
			field = append(field, s...)
			continue
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		}
		field = append(field, l.advance())
	}
	return field, nil
}

func (l *lexer) nestedString() ([]rune, error) {
	line, col := l.line, l.col
	q := l.advance()
	s := []rune{q}
	triple := false
	if l.peek() == q && l.peekAt(1) == q {
		s = append(s, l.advance(), l.advance())
		triple = true
	}
	for {
		if l.atEOF() || (l.peek() == '\n' && !triple) {
			return nil, l.errorf(line, col, "unterminated string literal")
		}
		c := l.peek()
		if c == q && (!triple || (l.peekAt(1) == q && l.peekAt(2) == q)) {
			s = append(s, l.advance())
			if triple {
				s = append(s, l.advance(), l.advance())
			}
			return s, nil
		}
		if c == '\\' {
			s = append(s, l.advance())
		}
		if !l.atEOF() {
			s = append(s, l.advance())
		}
	}
}

func (l *lexer) digits(valid func(rune) bool) {
	for !l.atEOF() {
		c := l.peek()
		if !valid(c) && !(c == '_' && valid(l.peekAt(1))) {
			return
		}
		l.advance()
	}
}

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func intValue(n *big.Int) any {
	if n.IsInt64() {
		return n.Int64()
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

func (l *lexer) number() error {
	line, col := l.line, l.col
	start := l.off
	if l.peek() == '0' && strings.ContainsRune("xXoObB", l.peekAt(1)) {
		l.advance()
		base := 16
		switch unicode.ToLower(l.advance()) {
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
		l.digits(isHexDigit)
		text := string(l.src[start:l.off])
		digits := strings.ReplaceAll(text[2:], "_", "")
		n, ok := new(big.Int).SetString(digits, base)
		if !ok {
			return l.errorf(line, col, "invalid base %d literal %q", base, text)
		}
		l.emit(tInt, text, line, col, intValue(n))
		return nil
	}
	isFloat := false
	l.digits(isDigit)
	if l.peek() == '.' {
		l.advance()
		l.digits(isDigit)
		isFloat = true
	}
	if c := l.peek(); c == 'e' || c == 'E' {
		n := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(l.peekAt(n)) {
			for i := 0; i < n; i++ {
				l.advance()
			}
			l.digits(isDigit)
			isFloat = true
		}
	}
	if c := l.peek(); c == 'j' || c == 'J' {
		return fmterr.Unsupported(l.file, ast.Pos{Line: line, Col: col, EndLine: l.line, EndCol: l.col + 1}, "complex numbers")
	}
	if isIdentStart(l.peek()) {
		return l.errorf(line, col, "invalid decimal literal")
	}
	text := string(l.src[start:l.off])
	clean := strings.ReplaceAll(text, "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return l.errorf(line, col, "invalid float literal %q", text)
		}
		l.emit(tFloat, text, line, col, f)
		return nil
	}
	if len(clean) > 1 && clean[0] == '0' && strings.Trim(clean, "0") != "" {
		return l.errorf(line, col, "leading zeros in decimal integer literals are not permitted")
	}
	n, ok := new(big.Int).SetString(clean, 10)
	if !ok {
		return l.errorf(line, col, "invalid decimal literal %q", text)
	}
	l.emit(tInt, text, line, col, intValue(n))
	return nil
}

var closing = map[rune]string{'(': ")", '[': "]", '{': "}"}

func (l *lexer) operator() error {
	line, col := l.line, l.col
	for _, op := range operators {
		if !l.hasPrefix(op) {
			continue
		}
		for i := 0; i < len(op); i++ {
			l.advance()
		}
		switch op {
		case "(", "[", "{":
			l.parens = append(l.parens, rune(op[0]))
		case ")", "]", "}":
			n := len(l.parens)
			if n == 0 {
				return l.errorf(line, col, "unmatched '%s'", op)
			}
			if open := l.parens[n-1]; closing[open] != op {
				return l.errorf(line, col, "closing parenthesis '%s' does not match opening parenthesis '%c'", op, open)
			}
			l.parens = l.parens[:n-1]
		}
		l.emit(tOp, op, line, col, nil)
		return nil
	}
	c := l.peek()
	return l.errorf(line, col, "invalid character '%c' (U+%04X)", c, c)
}

// unescape decodes the escape sequences of a string literal body.
func unescape(s string, raw, isBytes bool) (any, error) {
	rs := []rune(s)
	var out []rune
	var bs []byte
	put := func(r rune) error {
		if !isBytes {
			out = append(out, r)
			return nil
		}
		if r > 255 {
			return errors.Errorf("bytes escape value %d out of range", r)
		}
		bs = append(bs, byte(r))
		return nil
	}
	hex := func(i, n int) (rune, int, error) {
		if i+n >= len(rs) {
			return 0, i, errors.Errorf("truncated \\%c escape", rs[i])
		}
		v, err := strconv.ParseUint(string(rs[i+1:i+1+n]), 16, 32)
		if err != nil {
			return 0, i, errors.Errorf("truncated \\%c escape", rs[i])
		}
		return rune(v), i + n, nil
	}
	for i := 0; i < len(rs); i++ {
		c := rs[i]
		if isBytes && c >= 128 {
			return nil, errors.New("bytes can only contain ASCII literal characters")
		}
		if c != '\\' || raw || i+1 == len(rs) {
			if err := put(c); err != nil {
				return nil, err
			}
			continue
		}
		i++
		var r rune
		switch e := rs[i]; e {
		case '\n':
			continue
		case '\\', '\'', '"':
			r = e
		case 'a':
			r = 7
		case 'b':
			r = 8
		case 'f':
			r = 12
		case 'n':
			r = '\n'
		case 'r':
			r = '\r'
		case 't':
			r = '\t'
		case 'v':
			r = 11
		case '0', '1', '2', '3', '4', '5', '6', '7':
			for n := 0; n < 3 && i < len(rs) && rs[i] >= '0' && rs[i] <= '7'; n++ {
				r = r*8 + (rs[i] - '0')
				i++
			}
			i--
		case 'x':
			var err error
			if r, i, err = hex(i, 2); err != nil {
				return nil, err
			}
		case 'u', 'U':
			if isBytes {
				bs = append(bs, '\\', byte(e))
				continue
			}
			n := 4
			if e == 'U' {
				n = 8
			}
			var err error
			if r, i, err = hex(i, n); err != nil {
				return nil, err
			}
		case 'N':
			return nil, errors.New("\\N{...} escapes are not supported")
		default:
			if err := put('\\'); err != nil {
				return nil, err
			}
			r = e
		}
		if err := put(r); err != nil {
			return nil, err
		}
	}
	if isBytes {
		return ast.Bytes(bs), nil
	}
	return string(out), nil
}
