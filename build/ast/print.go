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

import (
	"fmt"
	"strconv"
	"strings"
)

// Format returns a Python-like rendering of a node.
// Compiler-only nodes are rendered as $shim(args) for ShimCall and
// (bind name = value) for Bind.
func Format(node Node) string {
	pr := &printer{}
	switch n := node.(type) {
	case *Module:
		pr.stmts(n.Body)
	case Stmt:
		pr.stmt(n)
	case Expr:
		pr.b.WriteString(pr.expr(n))
	case Pattern:
		pr.b.WriteString(pr.pattern(n))
	default:
		return fmt.Sprintf("%T", node)
	}
	return strings.TrimRight(pr.b.String(), "\n")
}

type printer struct {
	b      strings.Builder
	indent int
}

func (pr *printer) line(format string, a ...any) {
	pr.b.WriteString(strings.Repeat("    ", pr.indent))
	fmt.Fprintf(&pr.b, format, a...)
	pr.b.WriteString("\n")
}

func (pr *printer) block(header string, body []Stmt) {
	pr.line("%s:", header)
	pr.indent++
	if len(body) == 0 {
		pr.line("pass")
	}
	pr.stmts(body)
	pr.indent--
}

func (pr *printer) stmts(body []Stmt) {
	for _, s := range body {
		pr.stmt(s)
	}
}

func (pr *printer) exprs(es []Expr) string {
	ss := make([]string, len(es))
	for i, e := range es {
		ss[i] = pr.expr(e)
	}
	return strings.Join(ss, ", ")
}

func (pr *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case *Assign:
		targets := make([]string, len(s.Targets))
		for i, t := range s.Targets {
			targets[i] = pr.expr(t)
		}
		pr.line("%s = %s", strings.Join(targets, " = "), pr.expr(s.Value))
	case *AnnAssign:
		if s.Value == nil {
			pr.line("%s: %s", pr.expr(s.Target), pr.expr(s.Annotation))
			return
		}
		pr.line("%s: %s = %s", pr.expr(s.Target), pr.expr(s.Annotation), pr.expr(s.Value))
	case *AugAssign:
		pr.line("%s %s= %s", pr.expr(s.Target), s.Op, pr.expr(s.Value))
	case *ExprStmt:
		pr.line("%s", pr.expr(s.Value))
	case *If:
		pr.block("if "+pr.expr(s.Test), s.Body)
		if len(s.OrElse) > 0 {
			pr.block("else", s.OrElse)
		}
	case *While:
		pr.block("while "+pr.expr(s.Test), s.Body)
		if len(s.OrElse) > 0 {
			pr.block("else", s.OrElse)
		}
	case *For:
		pr.block(fmt.Sprintf("for %s in %s", pr.expr(s.Target), pr.expr(s.Iter)), s.Body)
		if len(s.OrElse) > 0 {
			pr.block("else", s.OrElse)
		}
	case *Break:
		pr.line("break")
	case *Continue:
		pr.line("continue")
	case *Pass:
		pr.line("pass")
	case *Return:
		if s.Value == nil {
			pr.line("return")
			return
		}
		pr.line("return %s", pr.expr(s.Value))
	case *Raise:
		switch {
		case s.Exc == nil:
			pr.line("raise")
		case s.Cause == nil:
			pr.line("raise %s", pr.expr(s.Exc))
		default:
			pr.line("raise %s from %s", pr.expr(s.Exc), pr.expr(s.Cause))
		}
	case *Try:
		pr.block("try", s.Body)
		for _, h := range s.Handlers {
			header := "except"
			if h.Type != nil {
				header += " " + pr.expr(h.Type)
			}
			if h.Name != "" {
				header += " as " + h.Name
			}
			pr.block(header, h.Body)
		}
		if len(s.OrElse) > 0 {
			pr.block("else", s.OrElse)
		}
		if len(s.FinalBody) > 0 {
			pr.block("finally", s.FinalBody)
		}
	case *With:
		items := make([]string, len(s.Items))
		for i, item := range s.Items {
			items[i] = pr.expr(item.ContextExpr)
			if item.OptionalVars != nil {
				items[i] += " as " + pr.expr(item.OptionalVars)
			}
		}
		pr.block("with "+strings.Join(items, ", "), s.Body)
	case *Import:
		pr.line("import %s", aliases(s.Names))
	case *ImportFrom:
		pr.line("from %s%s import %s", strings.Repeat(".", s.Level), s.Module, aliases(s.Names))
	case *FunctionDef:
		for _, dec := range s.Decorators {
			pr.line("@%s", pr.expr(dec))
		}
		pr.block(fmt.Sprintf("def %s(%s)", s.Name, pr.arguments(s.Args)), s.Body)
	case *ClassDef:
		for _, dec := range s.Decorators {
			pr.line("@%s", pr.expr(dec))
		}
		header := "class " + s.Name
		if len(s.Bases) > 0 {
			header += "(" + pr.exprs(s.Bases) + ")"
		}
		pr.block(header, s.Body)
	case *Match:
		pr.line("match %s:", pr.expr(s.Subject))
		pr.indent++
		for _, c := range s.Cases {
			header := "case " + pr.pattern(c.Pattern)
			if c.Guard != nil {
				header += " if " + pr.expr(c.Guard)
			}
			pr.block(header, c.Body)
		}
		pr.indent--
	case *Global:
		pr.line("global %s", strings.Join(s.Names, ", "))
	case *Nonlocal:
		pr.line("nonlocal %s", strings.Join(s.Names, ", "))
	case *Delete:
		pr.line("del %s", pr.exprs(s.Targets))
	case *Assert:
		if s.Msg == nil {
			pr.line("assert %s", pr.expr(s.Test))
			return
		}
		pr.line("assert %s, %s", pr.expr(s.Test), pr.expr(s.Msg))
	default:
		pr.line("<%T>", s)
	}
}

func aliases(names []*Alias) string {
	ss := make([]string, len(names))
	for i, a := range names {
		ss[i] = a.Name
		if a.AsName != "" {
			ss[i] += " as " + a.AsName
		}
	}
	return strings.Join(ss, ", ")
}

func (pr *printer) arguments(args *Arguments) string {
	if args == nil {
		return ""
	}
	var ss []string
	param := func(a *Arg, def Expr) string {
		if def == nil {
			return a.Name
		}
		return a.Name + "=" + pr.expr(def)
	}
	pos := args.Positional()
	firstDefault := len(pos) - len(args.Defaults)
	for i, a := range pos {
		var def Expr
		if i >= firstDefault {
			def = args.Defaults[i-firstDefault]
		}
		ss = append(ss, param(a, def))
		if len(args.PosOnly) > 0 && i == len(args.PosOnly)-1 {
			ss = append(ss, "/")
		}
	}
	if args.Vararg != nil {
		ss = append(ss, "*"+args.Vararg.Name)
	} else if len(args.KwOnly) > 0 {
		ss = append(ss, "*")
	}
	for i, a := range args.KwOnly {
		ss = append(ss, param(a, args.KwDefaults[i]))
	}
	if args.Kwarg != nil {
		ss = append(ss, "**"+args.Kwarg.Name)
	}
	return strings.Join(ss, ", ")
}

// sub renders an operand, parenthesized if it is an operation.
func (pr *printer) sub(e Expr) string {
	switch e.(type) {
	case *BinOp, *UnaryOp, *BoolOp, *Compare, *IfExp, *Lambda, *NamedExpr, *Yield, *YieldFrom:
		return "(" + pr.expr(e) + ")"
	}
	return pr.expr(e)
}

func (pr *printer) comprehension(gens []*Comprehension) string {
	var ss []string
	for _, g := range gens {
		ss = append(ss, fmt.Sprintf("for %s in %s", pr.expr(g.Target), pr.sub(g.Iter)))
		for _, cond := range g.Ifs {
			ss = append(ss, "if "+pr.sub(cond))
		}
	}
	return strings.Join(ss, " ")
}

func formatConstant(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case bool:
		if v {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(v)
	case Bytes:
		return "b" + strconv.Quote(string(v))
	case EllipsisValue:
		return "..."
	}
	return fmt.Sprint(v)
}

func (pr *printer) expr(e Expr) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *Constant:
		return formatConstant(e.Value)
	case *Name:
		return e.ID
	case *BinOp:
		op := e.Op.String()
		if e.InPlace {
			op += "="
		}
		return fmt.Sprintf("%s %s %s", pr.sub(e.Left), op, pr.sub(e.Right))
	case *UnaryOp:
		if e.Op == Not {
			return "not " + pr.sub(e.Operand)
		}
		return e.Op.String() + pr.sub(e.Operand)
	case *BoolOp:
		ss := make([]string, len(e.Values))
		for i, v := range e.Values {
			ss[i] = pr.sub(v)
		}
		return strings.Join(ss, " "+e.Op.String()+" ")
	case *Compare:
		s := pr.sub(e.Left)
		for i, op := range e.Ops {
			s += " " + op.String() + " " + pr.sub(e.Comparators[i])
		}
		return s
	case *Attribute:
		return pr.sub(e.Value) + "." + e.Attr
	case *Subscript:
		return pr.sub(e.Value) + "[" + pr.expr(e.Index) + "]"
	case *Slice:
		s := pr.expr(e.Lower) + ":" + pr.expr(e.Upper)
		if e.Step != nil {
			s += ":" + pr.expr(e.Step)
		}
		return s
	case *Call:
		args := []string{}
		for _, a := range e.Args {
			args = append(args, pr.expr(a))
		}
		for _, kw := range e.Keywords {
			if kw.Arg == "" {
				args = append(args, "**"+pr.expr(kw.Value))
			} else {
				args = append(args, kw.Arg+"="+pr.expr(kw.Value))
			}
		}
		return pr.sub(e.Func) + "(" + strings.Join(args, ", ") + ")"
	case *IfExp:
		return fmt.Sprintf("%s if %s else %s", pr.sub(e.Body), pr.sub(e.Test), pr.sub(e.OrElse))
	case *List:
		return "[" + pr.exprs(e.Elts) + "]"
	case *Tuple:
		if len(e.Elts) == 1 {
			return "(" + pr.expr(e.Elts[0]) + ",)"
		}
		return "(" + pr.exprs(e.Elts) + ")"
	case *Set:
		return "{" + pr.exprs(e.Elts) + "}"
	case *Dict:
		ss := make([]string, len(e.Keys))
		for i, k := range e.Keys {
			if k == nil {
				ss[i] = "**" + pr.expr(e.Values[i])
			} else {
				ss[i] = pr.expr(k) + ": " + pr.expr(e.Values[i])
			}
		}
		return "{" + strings.Join(ss, ", ") + "}"
	case *ListComp:
		return "[" + pr.expr(e.Elt) + " " + pr.comprehension(e.Generators) + "]"
	case *SetComp:
		return "{" + pr.expr(e.Elt) + " " + pr.comprehension(e.Generators) + "}"
	case *DictComp:
		return "{" + pr.expr(e.Key) + ": " + pr.expr(e.Value) + " " + pr.comprehension(e.Generators) + "}"
	case *GeneratorExp:
		return "(" + pr.expr(e.Elt) + " " + pr.comprehension(e.Generators) + ")"
	case *Lambda:
		return "lambda " + pr.arguments(e.Args) + ": " + pr.expr(e.Body)
	case *JoinedStr:
		var b strings.Builder
		b.WriteString("f\"")
		for _, v := range e.Values {
			switch v := v.(type) {
			case *Constant:
				s, _ := v.Value.(string)
				b.WriteString(strings.NewReplacer("{", "{{", "}", "}}").Replace(s))
			default:
				b.WriteString(pr.expr(v))
			}
		}
		b.WriteString("\"")
		return b.String()
	case *FormattedValue:
		s := "{" + pr.expr(e.Value)
		if e.Conversion != 0 {
			s += "!" + string(e.Conversion)
		}
		if e.FormatSpec != nil {
			spec := pr.expr(e.FormatSpec)
			s += ":" + strings.TrimSuffix(strings.TrimPrefix(spec, "f\""), "\"")
		}
		return s + "}"
	case *Yield:
		if e.Value == nil {
			return "yield"
		}
		return "yield " + pr.expr(e.Value)
	case *YieldFrom:
		return "yield from " + pr.expr(e.Value)
	case *Starred:
		return "*" + pr.sub(e.Value)
	case *NamedExpr:
		return e.Target.ID + " := " + pr.sub(e.Value)
	case *ShimCall:
		return "$" + e.Shim + "(" + pr.exprs(e.Args) + ")"
	case *Bind:
		return "(bind " + e.Target.ID + " = " + pr.expr(e.Value) + ")"
	}
	return fmt.Sprintf("<%T>", e)
}

func (pr *printer) patterns(ps []Pattern) string {
	ss := make([]string, len(ps))
	for i, p := range ps {
		ss[i] = pr.pattern(p)
	}
	return strings.Join(ss, ", ")
}

func (pr *printer) pattern(p Pattern) string {
	switch p := p.(type) {
	case *MatchValue:
		return pr.expr(p.Value)
	case *MatchSingleton:
		return formatConstant(p.Value)
	case *MatchSequence:
		return "[" + pr.patterns(p.Patterns) + "]"
	case *MatchMapping:
		var ss []string
		for i, k := range p.Keys {
			ss = append(ss, pr.expr(k)+": "+pr.pattern(p.Patterns[i]))
		}
		if p.Rest != "" {
			ss = append(ss, "**"+p.Rest)
		}
		return "{" + strings.Join(ss, ", ") + "}"
	case *MatchClass:
		args := []string{}
		for _, sub := range p.Patterns {
			args = append(args, pr.pattern(sub))
		}
		for i, attr := range p.KwdAttrs {
			args = append(args, attr+"="+pr.pattern(p.KwdPatterns[i]))
		}
		return pr.expr(p.Cls) + "(" + strings.Join(args, ", ") + ")"
	case *MatchStar:
		if p.Name == "" {
			return "*_"
		}
		return "*" + p.Name
	case *MatchAs:
		switch {
		case p.Pattern == nil && p.Name == "":
			return "_"
		case p.Pattern == nil:
			return p.Name
		}
		return pr.pattern(p.Pattern) + " as " + p.Name
	case *MatchOr:
		ss := make([]string, len(p.Patterns))
		for i, alt := range p.Patterns {
			ss[i] = pr.pattern(alt)
		}
		return strings.Join(ss, " | ")
	}
	return fmt.Sprintf("<%T>", p)
}
