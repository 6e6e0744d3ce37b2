// Package printer serializes a parsed ast.Script back to shell source,
// the way spec.md §8 requires: parsing Format's own output must
// reproduce an equivalent tree (round-trip), and formatting twice must
// be a no-op the second time (idempotence).
//
// Grounded on mvdan.cc/sh/v3/syntax's Printer (syntax/printer.go):
// single indent-tracking writer walking the statement tree, emitting
// each Command variant's canonical spelling rather than preserving the
// original token-for-token layout.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/tv-labs/bash/ast"
)

// Config controls formatting knobs, mirroring the teacher printer's
// functional fields (Indent, etc.) in struct-literal form.
type Config struct {
	Indent int // spaces per level; 0 means tabs
}

// Fprint writes sc to w using cfg, returning any write error.
func Fprint(w io.Writer, sc *ast.Script, cfg Config) error {
	p := &printer{w: w, cfg: cfg}
	p.stmts(sc.Stmts, 0)
	return p.err
}

// String formats sc with default settings, for callers (tests, the
// root package's Format helper) that just want the text.
func String(sc *ast.Script) (string, error) {
	var b strings.Builder
	if err := Fprint(&b, sc, Config{}); err != nil {
		return "", err
	}
	return b.String(), nil
}

type printer struct {
	w   io.Writer
	cfg Config
	err error
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) indent(level int) string {
	if p.cfg.Indent > 0 {
		return strings.Repeat(" ", p.cfg.Indent*level)
	}
	return strings.Repeat("\t", level)
}

func (p *printer) stmts(stmts []ast.Stmt, level int) {
	for i := range stmts {
		p.write(p.indent(level))
		p.stmt(&stmts[i], level)
		p.write("\n")
	}
}

func (p *printer) stmt(st *ast.Stmt, level int) {
	if len(st.Assigns) > 0 {
		var parts []string
		for _, a := range st.Assigns {
			parts = append(parts, p.assignment(a))
		}
		p.write(strings.Join(parts, " "))
		if _, ok := st.Cmd.(*ast.CallExpr); !ok || len(st.Cmd.(*ast.CallExpr).Args) > 0 {
			p.write(" ")
		}
	}
	if st.Negate {
		p.write("! ")
	}
	p.command(st.Cmd, level)
	for _, r := range st.Redirects {
		p.write(" ")
		p.redirect(r)
	}
	if st.Background {
		p.write(" &")
	}
}

func (p *printer) assignment(a *ast.Assignment) string {
	op := "="
	if a.Append {
		op = "+="
	}
	if a.Array {
		var els []string
		for _, el := range a.Elements {
			v, _ := p.word(el.Value)
			if el.Subscript != nil {
				idx, _ := p.word(el.Subscript)
				els = append(els, fmt.Sprintf("[%s]=%s", idx, v))
				continue
			}
			els = append(els, v)
		}
		return fmt.Sprintf("%s%s(%s)", a.Name, op, strings.Join(els, " "))
	}
	v, _ := p.word(a.Value)
	return a.Name + op + v
}

func (p *printer) command(cmd ast.Command, level int) {
	switch c := cmd.(type) {
	case *ast.CallExpr:
		var words []string
		for _, a := range c.Args {
			w, _ := p.word(a)
			words = append(words, w)
		}
		p.write(strings.Join(words, " "))
	case *ast.Pipeline:
		if c.Negate {
			p.write("! ")
		}
		var parts []string
		for i, st := range c.Stmts {
			var b strings.Builder
			sub := &printer{w: &b, cfg: p.cfg}
			sub.stmt(st, 0)
			op := " | "
			if i < len(c.StderrAll) && c.StderrAll[i] {
				op = " |& "
			}
			if i > 0 {
				parts = append(parts, op)
			}
			parts = append(parts, b.String())
		}
		p.write(strings.Join(parts, ""))
	case *ast.BinaryCmd:
		p.stmt(c.X, level)
		switch c.Op {
		case ast.AndOp:
			p.write(" &&\n" + p.indent(level))
		case ast.OrOp:
			p.write(" ||\n" + p.indent(level))
		default:
			p.write(" &\n" + p.indent(level))
		}
		p.stmt(c.Y, level)
	case *ast.Block:
		p.write("{\n")
		p.stmts(c.Stmts, level+1)
		p.write(p.indent(level) + "}")
	case *ast.Subshell:
		p.write("(\n")
		p.stmts(c.Stmts, level+1)
		p.write(p.indent(level) + ")")
	case *ast.IfClause:
		p.write("if ")
		p.stmtsInline(c.Cond, level)
		p.write("; then\n")
		p.stmts(c.Then, level+1)
		for _, e := range c.Elifs {
			p.write(p.indent(level) + "elif ")
			p.stmtsInline(e.Cond, level)
			p.write("; then\n")
			p.stmts(e.Then, level+1)
		}
		if c.HasElse {
			p.write(p.indent(level) + "else\n")
			p.stmts(c.Else, level+1)
		}
		p.write(p.indent(level) + "fi")
	case *ast.WhileClause:
		kw := "while"
		if c.Until {
			kw = "until"
		}
		p.write(kw + " ")
		p.stmtsInline(c.Cond, level)
		p.write("; do\n")
		p.stmts(c.Do, level+1)
		p.write(p.indent(level) + "done")
	case *ast.ForClause:
		if c.Arith {
			p.write(fmt.Sprintf("for ((%s; %s; %s)); do\n", c.Init, c.CondExpr, c.Post))
		} else {
			var items []string
			for _, it := range c.Items {
				w, _ := p.word(it)
				items = append(items, w)
			}
			p.write(fmt.Sprintf("for %s in %s; do\n", c.Name, strings.Join(items, " ")))
		}
		p.stmts(c.Do, level+1)
		p.write(p.indent(level) + "done")
	case *ast.CaseClause:
		w, _ := p.word(c.Word)
		p.write("case " + w + " in\n")
		for _, item := range c.Items {
			var pats []string
			for _, pw := range item.Patterns {
				ps, _ := p.word(pw)
				pats = append(pats, ps)
			}
			p.write(p.indent(level+1) + strings.Join(pats, "|") + ")\n")
			p.stmts(item.Stmts, level+2)
			term := ";;"
			switch item.Term {
			case ast.CaseFallthrough:
				term = ";&"
			case ast.CaseContinue:
				term = ";;&"
			}
			p.write(p.indent(level+2) + term + "\n")
		}
		p.write(p.indent(level) + "esac")
	case *ast.FuncDecl:
		p.write(c.Name + "() ")
		p.command(c.Body.Cmd, level)
	case *ast.ArithCmd:
		p.write("((" + c.Expr + "))")
	case *ast.TestClause:
		p.write("[[ " + testOperands(c.X, p) + " ]]")
	case *ast.TestCommand:
		var words []string
		for _, a := range c.Args {
			w, _ := p.word(a)
			words = append(words, w)
		}
		p.write("[ " + strings.Join(words, " ") + " ]")
	case *ast.CoprocClause:
		p.write("coproc ")
		if c.Name != "" {
			p.write(c.Name + " ")
		}
		p.stmt(c.Stmt, level)
	case *ast.TimeClause:
		p.write("time ")
		if c.Posix {
			p.write("-p ")
		}
		p.stmt(c.Stmt, level)
	default:
		p.write(fmt.Sprintf("<unknown %T>", cmd))
	}
}

func testOperands(ops []ast.TestOperand, p *printer) string {
	var parts []string
	for _, op := range ops {
		switch op.Kind {
		case ast.TestWord:
			w, _ := p.word(op.Word)
			parts = append(parts, w)
		case ast.TestUnaryOp, ast.TestBinaryOp:
			parts = append(parts, op.Op)
		case ast.TestAndOp:
			parts = append(parts, "&&")
		case ast.TestOrOp:
			parts = append(parts, "||")
		case ast.TestNotOp:
			parts = append(parts, "!")
		case ast.TestLParen:
			parts = append(parts, "(")
		case ast.TestRParen:
			parts = append(parts, ")")
		}
	}
	return strings.Join(parts, " ")
}

func (p *printer) stmtsInline(stmts []ast.Stmt, level int) {
	var parts []string
	for i := range stmts {
		var b strings.Builder
		sub := &printer{w: &b, cfg: p.cfg}
		sub.stmt(&stmts[i], level)
		parts = append(parts, b.String())
	}
	p.write(strings.Join(parts, "; "))
}

func (p *printer) redirect(r *ast.Redirect) string {
	var b strings.Builder
	if r.FD != -1 {
		fmt.Fprintf(&b, "%d", r.FD)
	}
	b.WriteString(r.Op)
	if r.Heredoc {
		b.WriteString(r.HeredocDelim)
		p.write(b.String())
		return b.String()
	}
	if r.Target.Close {
		b.WriteString("-")
	} else if r.Target.IsFD {
		fmt.Fprintf(&b, "%d", r.Target.FD)
	} else if r.Target.Word != nil {
		w, _ := p.word(r.Target.Word)
		b.WriteString(w)
	}
	p.write(b.String())
	return b.String()
}

// word renders w back to source text; the bool result is reserved for
// future error propagation and always true today.
func (p *printer) word(w *ast.Word) (string, bool) {
	if w == nil {
		return "", true
	}
	var b strings.Builder
	for _, part := range w.Parts {
		b.WriteString(wordPart(part))
	}
	return b.String(), true
}

func wordPart(part ast.WordPart) string {
	switch pt := part.(type) {
	case *ast.Literal:
		return pt.Value
	case *ast.SingleQuoted:
		return "'" + strings.ReplaceAll(pt.Value, "'", `'\''`) + "'"
	case *ast.DoubleQuoted:
		var b strings.Builder
		b.WriteByte('"')
		for _, inner := range pt.Parts {
			b.WriteString(wordPart(inner))
		}
		b.WriteByte('"')
		return b.String()
	case *ast.Variable:
		return "$" + pt.Name
	case *ast.VariableBraced:
		return "${" + pt.Name + "}"
	case *ast.CommandSubst:
		if pt.Backtick {
			return "`" + pt.Raw + "`"
		}
		return "$(" + pt.Raw + ")"
	case *ast.ArithExpand:
		return "$((" + pt.Expr + "))"
	case *ast.ProcessSubst:
		if pt.Out {
			return ">(" + pt.Raw + ")"
		}
		return "<(" + pt.Raw + ")"
	case *ast.BraceExpand:
		if pt.IsRange {
			step := ""
			if pt.HasStep {
				step = ".." + pt.Step
			}
			return "{" + pt.Start + ".." + pt.End + step + "}"
		}
		var items []string
		for _, w := range pt.List {
			s, _ := (&printer{}).word(w)
			items = append(items, s)
		}
		return "{" + strings.Join(items, ",") + "}"
	default:
		return ""
	}
}
