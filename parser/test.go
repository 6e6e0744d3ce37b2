package parser

import (
	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/token"
)

// unaryTestOps are the `[[ -f x ]]`-style single-operand test flags.
var unaryTestOps = map[string]bool{
	"-e": true, "-f": true, "-d": true, "-r": true, "-w": true, "-x": true,
	"-s": true, "-n": true, "-z": true, "-o": true, "-v": true, "-L": true,
	"-h": true, "-p": true, "-S": true, "-b": true, "-c": true, "-g": true,
	"-u": true, "-k": true, "-t": true, "-O": true, "-G": true, "-N": true,
	"-a": true,
}

// binaryTestOps are the two-operand comparison spellings that the
// lexer hands back as ordinary WORD literals (as opposed to "<"/">",
// which arrive as LSS/GTR operator tokens even inside [[ ]]).
var binaryTestOps = map[string]bool{
	"==": true, "=": true, "!=": true, "=~": true,
	"-eq": true, "-ne": true, "-lt": true, "-le": true, "-gt": true, "-ge": true,
	"-nt": true, "-ot": true, "-ef": true,
}

// parseTestClause parses `[[ ... ]]` into its flat TestOperand
// sequence; precedence among !, &&, ||, and ( ) is resolved later by
// the executor via operator-precedence climbing over that sequence,
// matching the spec's flat test-expression data model.
func (p *Parser) parseTestClause() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // [[
	tc := &ast.TestClause{From: ast.Pos(from + 1)}
	for !p.at(token.DRBRACK) && !p.at(token.EOF) {
		switch {
		case p.atReserved(token.BANG):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestNotOp})
			p.advance()
		case p.at(token.LAND):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestAndOp})
			p.advance()
		case p.at(token.LOR):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestOrOp})
			p.advance()
		case p.at(token.LPAREN):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestLParen})
			p.advance()
		case p.at(token.RPAREN):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestRParen})
			p.advance()
		case p.at(token.LSS):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestBinaryOp, Op: "<"})
			p.advance()
		case p.at(token.GTR):
			tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestBinaryOp, Op: ">"})
			p.advance()
		case p.at(token.WORD):
			t := p.advance()
			lit, isLit := t.Word.Lit()
			switch {
			case isLit && unaryTestOps[lit]:
				tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestUnaryOp, Op: lit})
			case isLit && binaryTestOps[lit]:
				tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestBinaryOp, Op: lit})
			default:
				tc.X = append(tc.X, ast.TestOperand{Kind: ast.TestWord, Word: t.Word})
			}
		default:
			p.errf(diag.SCTestUnterminatedLine, "unexpected token inside '[[ ]]'")
			p.advance()
		}
	}
	to := p.cur().Offset
	if p.at(token.DRBRACK) {
		p.advance()
	} else {
		p.errf(diag.SCDoubleBracketCloseMismatch, "this '[[' is never closed with a matching ']]'")
	}
	tc.To = ast.Pos(to + 1)
	st := &ast.Stmt{From: tc.From, To: tc.To, Cmd: tc}
	return p.attachTrailingRedirects(st)
}

// parseTestCommandBracket parses the POSIX `[ ... ]` form: unlike
// [[ ]], its arguments are plain words (command-style, undergoing the
// same expansion and splitting as any other argument) and the closing
// "]" is required as the literal final argument.
func (p *Parser) parseTestCommandBracket() *ast.Stmt {
	from := p.cur().Offset
	p.advance() // [
	tcmd := &ast.TestCommand{From: ast.Pos(from + 1)}
	st := &ast.Stmt{From: tcmd.From, Cmd: tcmd}
	for !p.at(token.RBRACK) && !p.at(token.EOF) {
		// `[` is an ordinary command as far as the shell grammar is
		// concerned, so an unescaped '<'/'>' here redirects rather than
		// compares, exactly like in any other simple command.
		if token.IsRedirOp(p.curKind()) {
			st.Redirects = append(st.Redirects, p.parseRedirect())
			continue
		}
		t := p.advance()
		if t.Word != nil {
			tcmd.Args = append(tcmd.Args, t.Word)
		}
	}
	to := p.cur().Offset
	if p.at(token.RBRACK) {
		p.advance()
	} else {
		p.errf(diag.SCBracketCloseMismatch, "this '[' is never closed with a matching ']'")
	}
	tcmd.To = ast.Pos(to + 1)
	st.To = tcmd.To
	return p.attachTrailingRedirects(st)
}
