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

package codegen

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Precedence levels of target expressions, from the loosest to the tightest.
const (
	precComma = iota + 1
	precAssign
	precCond
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEq
	precRel
	precShift
	precAdd
	precMul
	precExp
	precUnary
	precPostfix
	precCall
	precPrimary
)

// fragment is the text of a target expression with its precedence.
type fragment struct {
	text string
	prec int
}

func primary(text string) fragment {
	return fragment{text: text, prec: precPrimary}
}

// at returns the text of the fragment to use as an operand
// requiring at least the precedence prec.
func (f fragment) at(prec int) string {
	if f.prec < prec {
		return "(" + f.text + ")"
	}
	return f.text
}

// arg returns the text of the fragment as a list element or an argument.
func (f fragment) arg() string {
	return f.at(precAssign)
}

// member returns the text of the fragment as the object of a member access.
func (f fragment) member() string {
	if f.prec >= precCall && len(f.text) > 0 && f.text[0] >= '0' && f.text[0] <= '9' {
		return "(" + f.text + ")"
	}
	return f.at(precCall)
}

// binary returns a left-associative binary operation.
func binary(left fragment, op string, right fragment, prec int) fragment {
	return fragment{text: left.at(prec) + " " + op + " " + right.at(prec+1), prec: prec}
}

// unary returns a prefix operation.
func unary(op string, x fragment) fragment {
	text := x.at(precUnary)
	if strings.HasPrefix(text, "-") || strings.HasPrefix(text, "+") {
		text = "(" + text + ")"
	}
	return fragment{text: op + text, prec: precUnary}
}

func call(fn string, args ...fragment) fragment {
	return primary(fn + "(" + joinArgs(args) + ")")
}

func joinArgs(args []fragment) string {
	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = a.arg()
	}
	return strings.Join(texts, ", ")
}

// joinMap returns the results of f applied to elements separated by commas.
func joinMap[T any](elements []T, f func(T) string) string {
	texts := make([]string, len(elements))
	for i, el := range elements {
		texts[i] = f(el)
	}
	return strings.Join(texts, ", ")
}

// quote returns a target string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\x` + strconv.FormatUint(uint64(s[i]), 16))
			i++
			continue
		}
		i += size
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			b.WriteString(`\u` + strconv.FormatInt(int64(r), 16))
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				if r < 0x10 {
					b.WriteByte('0')
				}
				b.WriteString(strconv.FormatInt(int64(r), 16))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// latin1 returns a target string literal whose code units are the bytes of s.
func latin1(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			b.WriteString(`\x`)
			if c < 0x10 {
				b.WriteByte('0')
			}
			b.WriteString(strconv.FormatUint(uint64(c), 16))
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
