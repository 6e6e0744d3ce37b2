package parser

import "github.com/tv-labs/bash/ast"

// resolvePendingSubstitutions walks a freshly parsed Script and, for
// every CommandSubst/ProcessSubst part discovered, recursively parses
// its captured Raw text into Stmts using this same grammar - the
// parser-level half of the split described for word construction: the
// lexer only captures interior text (plus early diagnostics), and the
// parser is what turns it into a real statement list.
func (p *Parser) resolvePendingSubstitutions(sc *ast.Script) {
	if sc == nil {
		return
	}
	for i := range sc.Stmts {
		p.resolveStmt(&sc.Stmts[i])
	}
}

func (p *Parser) resolveStmt(st *ast.Stmt) {
	if st == nil {
		return
	}
	for _, a := range st.Assigns {
		p.resolveAssignment(a)
	}
	for _, r := range st.Redirects {
		p.resolveRedirect(r)
	}
	p.resolveCommand(st.Cmd)
}

func (p *Parser) resolveAssignment(a *ast.Assignment) {
	if a == nil {
		return
	}
	p.resolveWord(a.Value)
	for _, e := range a.Elements {
		p.resolveWord(e.Subscript)
		p.resolveWord(e.Value)
	}
}

func (p *Parser) resolveRedirect(r *ast.Redirect) {
	if r == nil {
		return
	}
	p.resolveWord(r.Target.Word)
	p.resolveWord(r.HeredocBody)
}

func (p *Parser) resolveStmtList(stmts []ast.Stmt) {
	for i := range stmts {
		p.resolveStmt(&stmts[i])
	}
}

func (p *Parser) resolveCommand(c ast.Command) {
	switch cmd := c.(type) {
	case nil:
		return
	case *ast.CallExpr:
		for _, w := range cmd.Args {
			p.resolveWord(w)
		}
	case *ast.Pipeline:
		for _, s := range cmd.Stmts {
			p.resolveStmt(s)
		}
	case *ast.BinaryCmd:
		p.resolveStmt(cmd.X)
		p.resolveStmt(cmd.Y)
	case *ast.Block:
		p.resolveStmtList(cmd.Stmts)
	case *ast.Subshell:
		p.resolveStmtList(cmd.Stmts)
	case *ast.IfClause:
		p.resolveStmtList(cmd.Cond)
		p.resolveStmtList(cmd.Then)
		for i := range cmd.Elifs {
			p.resolveStmtList(cmd.Elifs[i].Cond)
			p.resolveStmtList(cmd.Elifs[i].Then)
		}
		p.resolveStmtList(cmd.Else)
	case *ast.WhileClause:
		p.resolveStmtList(cmd.Cond)
		p.resolveStmtList(cmd.Do)
	case *ast.ForClause:
		for _, w := range cmd.Items {
			p.resolveWord(w)
		}
		p.resolveStmtList(cmd.Do)
	case *ast.CaseClause:
		p.resolveWord(cmd.Word)
		for i := range cmd.Items {
			for _, w := range cmd.Items[i].Patterns {
				p.resolveWord(w)
			}
			p.resolveStmtList(cmd.Items[i].Stmts)
		}
	case *ast.FuncDecl:
		p.resolveStmt(cmd.Body)
	case *ast.TestClause:
		for _, op := range cmd.X {
			p.resolveWord(op.Word)
		}
	case *ast.TestCommand:
		for _, w := range cmd.Args {
			p.resolveWord(w)
		}
	case *ast.CoprocClause:
		p.resolveStmt(cmd.Stmt)
	case *ast.TimeClause:
		p.resolveStmt(cmd.Stmt)
	case *ast.ArithCmd:
		// Raw arithmetic text: it is not re-lexed as shell words here,
		// and the arith package does not expand $(...) or other '$'
		// substitutions inside it.
	}
}

// resolveWord recursively finds CommandSubst/ProcessSubst parts
// (including inside DoubleQuoted nesting and ${...} operator operand
// words) and parses their Raw text.
func (p *Parser) resolveWord(w *ast.Word) {
	if w == nil {
		return
	}
	for _, part := range w.Parts {
		p.resolveWordPart(part)
	}
}

func (p *Parser) resolveWordPart(part ast.WordPart) {
	switch pt := part.(type) {
	case *ast.DoubleQuoted:
		for _, inner := range pt.Parts {
			p.resolveWordPart(inner)
		}
	case *ast.CommandSubst:
		pt.Stmts = p.parseNested(pt.Raw)
	case *ast.ProcessSubst:
		pt.Stmts = p.parseNested(pt.Raw)
	case *ast.VariableBraced:
		for i := range pt.Ops {
			op := &pt.Ops[i]
			p.resolveWord(op.Word)
			p.resolveWord(op.Pattern)
			p.resolveWord(op.Replacement)
			p.resolveWord(op.Offset)
			p.resolveWord(op.Length)
			p.resolveWord(op.Pattern2)
			p.resolveWord(op.Index)
		}
	case *ast.BraceExpand:
		for _, w := range pt.List {
			p.resolveWord(w)
		}
	}
}

// parseNested parses a captured substitution interior with a fresh
// Parser sharing this one's options, folding its diagnostics into the
// parent's and returning the resulting statement list.
func (p *Parser) parseNested(raw string) []ast.Stmt {
	res := Parse([]byte(raw), p.opts)
	p.diags = append(p.diags, res.Diagnostics...)
	if res.Script == nil {
		return nil
	}
	return res.Script.Stmts
}
