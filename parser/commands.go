package parser

import (
	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/token"
)

// parseAndOrList parses one top-level list item: a chain of pipelines
// joined by '&&'/'||', left-associative, with an optional trailing '&'
// backgrounding the whole chain.
func (p *Parser) parseAndOrList() *ast.Stmt {
	left := p.parsePipelineStmt()
	if left == nil {
		return nil
	}
	for p.at(token.LAND) || p.at(token.LOR) {
		op := ast.AndOp
		if p.at(token.LOR) {
			op = ast.OrOp
		}
		p.advance()
		p.skipNewlines()
		right := p.parsePipelineStmt()
		if right == nil {
			p.errf(diag.SCParseUnexpectedToken, "expected a command after '&&'/'||'")
			break
		}
		left = &ast.Stmt{From: left.From, To: right.To, Cmd: &ast.BinaryCmd{
			From: left.From, To: right.To, Op: op, X: left, Y: right,
		}}
	}
	if p.at(token.AMP) {
		p.advance()
		left.Background = true
	}
	return left
}

// parsePipelineStmt parses one or more commands joined by '|'/'|&',
// with an optional leading '!' negation.
func (p *Parser) parsePipelineStmt() *ast.Stmt {
	negate := false
	if p.atReserved(token.BANG) {
		p.advance()
		negate = true
	}
	first := p.parseCompoundOrSimple()
	if first == nil {
		return nil
	}
	if !p.at(token.PIPE) && !p.at(token.PIPEALL) {
		if negate {
			first.Negate = true
		}
		return first
	}
	pipe := &ast.Pipeline{From: first.Pos(), Stmts: []*ast.Stmt{first}, Negate: negate}
	for p.at(token.PIPE) || p.at(token.PIPEALL) {
		stderrAll := p.at(token.PIPEALL)
		p.advance()
		p.skipNewlines()
		next := p.parseCompoundOrSimple()
		if next == nil {
			p.errf(diag.SCParseUnexpectedToken, "expected a command after '|'")
			break
		}
		pipe.StderrAll = append(pipe.StderrAll, stderrAll)
		pipe.Stmts = append(pipe.Stmts, next)
	}
	pipe.To = pipe.Stmts[len(pipe.Stmts)-1].To
	return &ast.Stmt{From: pipe.From, To: pipe.To, Cmd: pipe}
}

// parseCompoundOrSimple parses a single command: a compound construct
// (if/while/for/case/block/subshell/function/test/arith/time/coproc)
// or, failing those, a simple command with its leading assignments and
// interleaved redirections.
func (p *Parser) parseCompoundOrSimple() *ast.Stmt {
	switch {
	case p.at(token.LBRACE):
		return p.parseBlock()
	case p.at(token.LPAREN):
		return p.parseSubshell()
	case p.atReserved(token.IF):
		return p.parseIf()
	case p.atReserved(token.WHILE), p.atReserved(token.UNTIL):
		return p.parseWhile()
	case p.atReserved(token.FOR):
		return p.parseFor()
	case p.atReserved(token.CASE):
		return p.parseCase()
	case p.atReserved(token.FUNCTION):
		return p.parseFuncDecl(true)
	case p.at(token.DLBRACK):
		return p.parseTestClause()
	case p.at(token.LBRACK):
		return p.parseTestCommandBracket()
	case p.at(token.ARITH_CMD):
		return p.parseArithCmd()
	case p.atReserved(token.TIME):
		return p.parseTime()
	case p.atReserved(token.COPROC):
		return p.parseCoproc()
	case p.isFuncDeclShorthand():
		return p.parseFuncDecl(false)
	default:
		return p.parseSimpleCommand()
	}
}

// isFuncDeclShorthand reports whether the upcoming tokens are
// `name ( )`, the POSIX function-definition shorthand.
func (p *Parser) isFuncDeclShorthand() bool {
	if !p.at(token.WORD) {
		return false
	}
	if _, ok := reservedKind(p.cur()); ok {
		return false
	}
	return p.peekAt(1).Kind == token.LPAREN && p.peekAt(2).Kind == token.RPAREN
}

func (p *Parser) parseFuncDecl(keyword bool) *ast.Stmt {
	from := p.cur().Offset
	if keyword {
		p.advance() // 'function'
	}
	nameTok := p.advance()
	name := p.litOf(nameTok)
	if p.at(token.LPAREN) && p.peekAt(1).Kind == token.RPAREN {
		p.advance()
		p.advance()
	}
	p.skipNewlines()
	body := p.parseCompoundOrSimple()
	if body == nil {
		p.errf(diag.SCFuncBodyShape, "function '"+name+"' has no body")
		body = &ast.Stmt{Cmd: &ast.Block{}}
	}
	fd := &ast.FuncDecl{From: ast.Pos(from + 1), To: body.To, Name: name, Body: body}
	return &ast.Stmt{From: fd.From, To: fd.To, Cmd: fd}
}

func (p *Parser) parseBlock() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // {
	stmts := p.parseStmtList()
	to := p.cur().Offset
	if p.at(token.RBRACE) {
		p.advance()
	} else {
		p.errf(diag.SCUnclosedGroup, "this '{' is never closed with a matching '}'")
	}
	blk := &ast.Block{From: ast.Pos(from + 1), To: ast.Pos(to + 1), Stmts: stmts}
	st := &ast.Stmt{From: blk.From, To: blk.To, Cmd: blk}
	return p.attachTrailingRedirects(st)
}

func (p *Parser) parseSubshell() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // (
	stmts := p.parseStmtList()
	to := p.cur().Offset
	if p.at(token.RPAREN) {
		p.advance()
	} else {
		p.errf(diag.SCUnclosedSubshell, "this '(' is never closed with a matching ')'")
	}
	sub := &ast.Subshell{From: ast.Pos(from + 1), To: ast.Pos(to + 1), Stmts: stmts}
	st := &ast.Stmt{From: sub.From, To: sub.To, Cmd: sub}
	return p.attachTrailingRedirects(st)
}

// parseStmtList parses statements up to (but not consuming) a closing
// token, as determined by atClose.
func (p *Parser) parseStmtList() []ast.Stmt {
	var stmts []ast.Stmt
	p.skipSeparators()
	for !p.at(token.EOF) && !p.atClose() {
		st := p.parseAndOrList()
		if st == nil {
			break
		}
		stmts = append(stmts, *st)
		switch p.curKind() {
		case token.SEMI, token.NEWLINE:
			p.advance()
		}
		p.skipSeparators()
	}
	return stmts
}

func (p *Parser) parseIf() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // if
	clause := &ast.IfClause{From: ast.Pos(from + 1)}
	clause.Cond = p.parseStmtList()
	p.expectReserved(token.THEN, "then")
	clause.Then = p.parseStmtList()
	for p.atReserved(token.ELIF) {
		p.advance()
		var e ast.Elif
		e.Cond = p.parseStmtList()
		p.expectReserved(token.THEN, "then")
		e.Then = p.parseStmtList()
		clause.Elifs = append(clause.Elifs, e)
	}
	if p.atReserved(token.ELSE) {
		p.advance()
		clause.HasElse = true
		clause.Else = p.parseStmtList()
	}
	to := p.cur().Offset
	p.expectReserved(token.FI, "fi")
	clause.To = ast.Pos(to + 1)
	st := &ast.Stmt{From: clause.From, To: clause.To, Cmd: clause}
	return p.attachTrailingRedirects(st)
}

func (p *Parser) parseWhile() *ast.Stmt {
	from := p.cur().Offset
	until := p.atReserved(token.UNTIL)
	p.advance()
	clause := &ast.WhileClause{From: ast.Pos(from + 1), Until: until}
	clause.Cond = p.parseStmtList()
	p.expectReserved(token.DO, "do")
	clause.Do = p.parseStmtList()
	to := p.cur().Offset
	p.expectReserved(token.DONE, "done")
	clause.To = ast.Pos(to + 1)
	st := &ast.Stmt{From: clause.From, To: clause.To, Cmd: clause}
	return p.attachTrailingRedirects(st)
}

func (p *Parser) parseFor() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // for
	clause := &ast.ForClause{From: ast.Pos(from + 1)}
	if p.at(token.ARITH_CMD) {
		// `for (( init; cond; post ))`, reusing the lexer's existing
		// arithmetic-command capture for the whole header.
		raw := p.cur().Raw
		p.advance()
		clause.Arith = true
		clause.Init, clause.CondExpr, clause.Post = splitArithHeader(raw)
	} else {
		nameTok := p.advance()
		clause.Name = p.litOf(nameTok)
		p.skipNewlines()
		if p.atReserved(token.IN) {
			p.advance()
			for p.at(token.WORD) || p.at(token.ASSIGN_WORD) {
				t := p.advance()
				clause.Items = append(clause.Items, t.Word)
			}
		}
	}
	p.skipSeparators()
	p.expectReserved(token.DO, "do")
	clause.Do = p.parseStmtList()
	to := p.cur().Offset
	p.expectReserved(token.DONE, "done")
	clause.To = ast.Pos(to + 1)
	st := &ast.Stmt{From: clause.From, To: clause.To, Cmd: clause}
	return p.attachTrailingRedirects(st)
}

// splitArithHeader splits the raw "init; cond; post" text of a C-style
// for-loop header on its top-level semicolons (parens balanced, quotes
// respected) so each segment can be handed to the arith package as an
// independent expression.
func splitArithHeader(raw string) (init, cond, post string) {
	var parts []string
	depth := 0
	start := 0
	inSingle, inDouble := false, false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ';' && depth == 0:
			parts = append(parts, raw[start:i])
			start = i + 1
		}
	}
	parts = append(parts, raw[start:])
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return trimSpace(parts[0]), trimSpace(parts[1]), trimSpace(parts[2])
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func (p *Parser) parseCase() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // case
	clause := &ast.CaseClause{From: ast.Pos(from + 1)}
	wordTok := p.advance()
	clause.Word = wordTok.Word
	p.skipNewlines()
	p.expectReserved(token.IN, "in")
	p.skipSeparators()
	for !p.atReserved(token.ESAC) && !p.at(token.EOF) {
		item := ast.CaseItem{}
		if p.at(token.LPAREN) {
			p.advance()
		}
		item.Patterns = append(item.Patterns, p.advance().Word)
		for p.at(token.PIPE) {
			p.advance()
			item.Patterns = append(item.Patterns, p.advance().Word)
		}
		if p.at(token.RPAREN) {
			p.advance()
		}
		p.skipSeparators()
		item.Stmts = p.parseStmtList()
		switch {
		case p.at(token.DSEMIFALL):
			item.Term = ast.CaseContinue
			p.advance()
		case p.at(token.SEMIFALL):
			item.Term = ast.CaseFallthrough
			p.advance()
		case p.at(token.DSEMI):
			item.Term = ast.CaseBreak
			p.advance()
		default:
			item.Term = ast.CaseBreak
		}
		clause.Items = append(clause.Items, item)
		p.skipSeparators()
	}
	to := p.cur().Offset
	p.expectReserved(token.ESAC, "esac")
	clause.To = ast.Pos(to + 1)
	st := &ast.Stmt{From: clause.From, To: clause.To, Cmd: clause}
	return p.attachTrailingRedirects(st)
}

func (p *Parser) parseArithCmd() *ast.Stmt {
	t := p.advance()
	a := &ast.ArithCmd{From: ast.Pos(t.Offset + 1), To: ast.Pos(t.Offset + 1 + len(t.Raw)), Expr: t.Raw}
	st := &ast.Stmt{From: a.From, To: a.To, Cmd: a}
	return p.attachTrailingRedirects(st)
}

func (p *Parser) parseTime() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // time
	posix := false
	if p.at(token.WORD) && p.litOf(p.cur()) == "-p" {
		posix = true
		p.advance()
	}
	inner := p.parsePipelineStmt()
	tc := &ast.TimeClause{From: ast.Pos(from + 1), Posix: posix, Stmt: inner}
	if inner != nil {
		tc.To = inner.To
	}
	return &ast.Stmt{From: tc.From, To: tc.To, Cmd: tc}
}

func (p *Parser) parseCoproc() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // coproc
	name := ""
	if p.at(token.WORD) {
		if _, isKeyword := reservedKind(p.cur()); !isKeyword && p.peekAt(1).Kind != token.LPAREN {
			name = p.litOf(p.cur())
			p.advance()
		}
	}
	inner := p.parseCompoundOrSimple()
	cc := &ast.CoprocClause{From: ast.Pos(from + 1), Name: name, Stmt: inner}
	if inner != nil {
		cc.To = inner.To
	}
	return &ast.Stmt{From: cc.From, To: cc.To, Cmd: cc}
}

// expectReserved consumes the current token if it matches k, otherwise
// records a parse diagnostic naming what was expected.
func (p *Parser) expectReserved(k token.Kind, spelling string) {
	if p.atReserved(k) {
		p.advance()
		return
	}
	p.errf(diag.SCParseUnexpectedToken, "expected '"+spelling+"'")
}

// attachTrailingRedirects consumes any redirection operators that
// immediately follow a compound command (e.g. `{ ...; } > out`),
// attaching them to the Stmt.
func (p *Parser) attachTrailingRedirects(st *ast.Stmt) *ast.Stmt {
	for token.IsRedirOp(p.curKind()) {
		r := p.parseRedirect()
		st.Redirects = append(st.Redirects, r)
		st.To = r.To
	}
	return st
}

// parseSimpleCommand parses prefix assignments, interleaved
// redirections, and argument words into one CallExpr-backed Stmt.
func (p *Parser) parseSimpleCommand() *ast.Stmt {
	st := &ast.Stmt{}
	first := true
	var call *ast.CallExpr
	for {
		switch {
		case token.IsRedirOp(p.curKind()):
			r := p.parseRedirect()
			st.Redirects = append(st.Redirects, r)
			if first {
				st.From = r.From
				first = false
			}
			st.To = r.To
		case p.at(token.ASSIGN_WORD) && call == nil:
			t := p.advance()
			a := &ast.Assignment{
				From: ast.Pos(t.Offset + 1), To: ast.Pos(t.Offset + 1),
				Name: t.AssignName, Append: t.AssignPlus,
			}
			if len(t.Word.Parts) == 0 && p.at(token.LPAREN) {
				a.Array = true
				a.Elements, a.To = p.parseArrayElements()
			} else {
				a.Value = t.Word
				a.To = ast.Pos(t.Offset + 1 + wordByteLen(t.Word))
			}
			st.Assigns = append(st.Assigns, a)
			if first {
				st.From = a.From
				first = false
			}
			st.To = a.To
		case p.at(token.WORD) || (p.at(token.ASSIGN_WORD) && call != nil):
			t := p.advance()
			w := t.Word
			if t.Kind == token.ASSIGN_WORD {
				// An assignment-shaped word in argument position (not
				// immediately after the command name) is just a plain
				// argument, e.g. "echo x=1"; reassemble the "name="
				// prefix the lexer split off.
				sep := "="
				if t.AssignPlus {
					sep = "+="
				}
				w = &ast.Word{Parts: append([]ast.WordPart{&ast.Literal{Value: t.AssignName + sep}}, t.Word.Parts...)}
			}
			if call == nil {
				call = &ast.CallExpr{From: ast.Pos(t.Offset + 1)}
				if first {
					st.From = call.From
					first = false
				}
			}
			call.Args = append(call.Args, w)
			call.To = ast.Pos(t.Offset + 1 + wordByteLen(w))
			st.To = call.To
		default:
			if call == nil && len(st.Assigns) == 0 && len(st.Redirects) == 0 {
				return nil
			}
			if call == nil {
				call = &ast.CallExpr{From: st.From, To: st.To}
			}
			st.Cmd = call
			return st
		}
	}
}

// parseArrayElements parses the parenthesized element list of an array
// assignment: `( [idx]=val | val )*`. The lexer has no notion of array
// syntax, so `name=(` always shows up here as an empty-valued
// ASSIGN_WORD immediately followed by a bare LPAREN; this is where that
// shape is turned into indexed elements.
func (p *Parser) parseArrayElements() ([]ast.ArrayElement, ast.Pos) {
	p.advance() // (
	var elems []ast.ArrayElement
	p.skipNewlines()
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		t := p.advance()
		if t.Kind == token.ASSIGN_WORD {
			// Not real array-index syntax (bash arrays only take
			// `[idx]=value`); reconstruct the literal "name=value" text
			// as a single plain element, matching what a real shell
			// would do with such a malformed element.
			lit, _ := t.Word.Lit()
			sep := "="
			if t.AssignPlus {
				sep = "+="
			}
			elems = append(elems, ast.ArrayElement{Value: &ast.Word{Parts: []ast.WordPart{
				&ast.Literal{Value: t.AssignName + sep + lit},
			}}})
			p.skipNewlines()
			continue
		}
		if sub, val, ok := splitArraySubscript(t.Word); ok {
			elems = append(elems, ast.ArrayElement{Subscript: sub, Value: val})
		} else {
			elems = append(elems, ast.ArrayElement{Value: t.Word})
		}
		p.skipNewlines()
	}
	to := ast.Pos(p.cur().Offset + 1)
	if p.at(token.RPAREN) {
		p.advance()
	}
	return elems, to
}

// splitArraySubscript recognizes a `[idx]=value` element word, which
// the lexer hands over as one opaque literal since it has no special
// meaning for '[' outside of test-bracket contexts.
func splitArraySubscript(w *ast.Word) (sub, val *ast.Word, ok bool) {
	lit, isLit := w.Lit()
	if !isLit || len(lit) < 2 || lit[0] != '[' {
		return nil, nil, false
	}
	depth := 0
	for i := 0; i < len(lit); i++ {
		switch lit[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				if i+1 < len(lit) && lit[i+1] == '=' {
					idx := lit[1:i]
					value := lit[i+2:]
					return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: idx}}},
						&ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: value}}}, true
				}
				return nil, nil, false
			}
		}
	}
	return nil, nil, false
}

func wordByteLen(w *ast.Word) int {
	if w == nil || len(w.Parts) == 0 {
		return 0
	}
	return int(w.End() - w.Parts[0].Pos())
}
