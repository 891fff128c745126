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

package desugar

import "github.com/gx-org/pyjs/build/ast"

// match rewrites a match statement into an if/elif chain.
// The subject is evaluated once. Captures are bound with Bind
// expressions as the tests are evaluated.
func (d *desugarer) match(s *ast.Match) []ast.Stmt {
	subject := d.expr(s.Subject)
	var out []ast.Stmt
	var subj *ast.Name
	if name, ok := subject.(*ast.Name); ok {
		subj = name
	} else {
		subj = d.temp(subject)
		out = append(out, assignTo(subj, subject))
	}
	var last *ast.If
	for _, c := range s.Cases {
		test := d.pattern(c.Pattern, subj)
		if c.Guard != nil {
			test = and(c.Pos, test, d.expr(c.Guard))
		}
		body := d.block(c.Body)
		if isTrue(test) {
			// Irrefutable: the remaining cases are unreachable.
			if last == nil {
				return append(out, body...)
			}
			last.OrElse = body
			return out
		}
		branch := &ast.If{Pos: c.Pos, Test: test, Body: body}
		if last == nil {
			out = append(out, branch)
		} else {
			last.OrElse = []ast.Stmt{branch}
		}
		last = branch
	}
	return out
}

func bindName(pos ast.Pos, name string, value ast.Expr) *ast.Bind {
	return &ast.Bind{
		Pos:    pos,
		Target: &ast.Name{Pos: pos, ID: name, Ctx: ast.Store},
		Value:  value,
	}
}

// sub returns the test of a pattern against a value evaluated at most once.
func (d *desugarer) sub(p ast.Pattern, value ast.Expr) ast.Expr {
	switch p := p.(type) {
	case *ast.MatchValue:
		return &ast.Compare{
			Pos:         p.Pos,
			Left:        value,
			Ops:         []ast.CmpOp{ast.Eq},
			Comparators: []ast.Expr{d.expr(p.Value)},
		}
	case *ast.MatchSingleton:
		return &ast.Compare{
			Pos:         p.Pos,
			Left:        value,
			Ops:         []ast.CmpOp{ast.Is},
			Comparators: []ast.Expr{constant(p.Pos, p.Value)},
		}
	case *ast.MatchAs:
		if p.Pattern == nil {
			if p.Name == "" {
				return constant(p.Pos, true)
			}
			return bindName(p.Pos, p.Name, value)
		}
	}
	tmp := d.temp(p)
	return and(p.Span(), &ast.Bind{Pos: p.Span(), Target: tmp, Value: value}, d.pattern(p, tmp))
}

// pattern returns the test of a pattern against a subject name.
func (d *desugarer) pattern(p ast.Pattern, subj *ast.Name) ast.Expr {
	switch p := p.(type) {
	case *ast.MatchValue, *ast.MatchSingleton:
		return d.sub(p, load(subj))
	case *ast.MatchAs:
		if p.Pattern == nil {
			return d.sub(p, load(subj))
		}
		return and(p.Pos, d.pattern(p.Pattern, subj), bindName(p.Pos, p.Name, load(subj)))
	case *ast.MatchOr:
		alts := make([]ast.Expr, len(p.Patterns))
		for i, alt := range p.Patterns {
			alts[i] = d.pattern(alt, subj)
			if isTrue(alts[i]) {
				return alts[i]
			}
		}
		return &ast.BoolOp{Pos: p.Pos, Op: ast.Or, Values: alts}
	case *ast.MatchSequence:
		return d.sequence(p, subj)
	case *ast.MatchMapping:
		return d.mapping(p, subj)
	case *ast.MatchClass:
		return d.class(p, subj)
	}
	d.app.AppendInternalf(p, "pattern %T not supported by desugaring", p)
	return constant(p.Span(), false)
}

func (d *desugarer) sequence(p *ast.MatchSequence, subj *ast.Name) ast.Expr {
	n := len(p.Patterns)
	star := -1
	for i, sub := range p.Patterns {
		if _, ok := sub.(*ast.MatchStar); ok {
			star = i
		}
	}
	tests := []ast.Expr{shim(p.Pos, "match_seq", load(subj), intConst(p.Pos, n), intConst(p.Pos, star))}
	for i, sub := range p.Patterns {
		if ms, ok := sub.(*ast.MatchStar); ok {
			if ms.Name != "" {
				rest := shim(ms.Pos, "match_star", load(subj), intConst(ms.Pos, star), intConst(ms.Pos, n-star-1))
				tests = append(tests, bindName(ms.Pos, ms.Name, rest))
			}
			continue
		}
		index := i
		if star >= 0 && i > star {
			index = i - n
		}
		item := &ast.Subscript{Pos: sub.Span(), Value: load(subj), Index: intConst(sub.Span(), index)}
		tests = append(tests, d.sub(sub, item))
	}
	return and(p.Pos, tests...)
}

func (d *desugarer) mapping(p *ast.MatchMapping, subj *ast.Name) ast.Expr {
	keys := make([]ast.Expr, len(p.Keys))
	for i, k := range p.Keys {
		keys[i] = d.expr(k)
	}
	keyTuple := &ast.Tuple{Pos: p.Pos, Elts: keys}
	tests := []ast.Expr{shim(p.Pos, "match_map", load(subj), keyTuple)}
	for i, k := range keys {
		item := &ast.Subscript{Pos: p.Patterns[i].Span(), Value: load(subj), Index: dup(k)}
		tests = append(tests, d.sub(p.Patterns[i], item))
	}
	if p.Rest != "" {
		rest := shim(p.Pos, "match_rest", load(subj), dup(keyTuple))
		tests = append(tests, bindName(p.Pos, p.Rest, rest))
	}
	return and(p.Pos, tests...)
}

func (d *desugarer) class(p *ast.MatchClass, subj *ast.Name) ast.Expr {
	cls := d.expr(p.Cls)
	tests := []ast.Expr{shim(p.Pos, "isinstance", load(subj), cls)}
	for i, sub := range p.Patterns {
		item := shim(sub.Span(), "match_pos", load(subj), dup(cls), intConst(sub.Span(), i))
		tests = append(tests, d.sub(sub, item))
	}
	for i, attr := range p.KwdAttrs {
		sub := p.KwdPatterns[i]
		tests = append(tests, shim(sub.Span(), "hasattr", load(subj), constant(sub.Span(), attr)))
		item := &ast.Attribute{Pos: sub.Span(), Value: load(subj), Attr: attr}
		tests = append(tests, d.sub(sub, item))
	}
	return and(p.Pos, tests...)
}
