// Package parser turns a lexer token stream into a Script AST. It is a
// recursive-descent parser with one token of lookahead and no
// backtracking except for the small '(' disambiguation needed around
// subshells versus parenthesized test groups.
//
// Grounded on mvdan.cc/sh/v3/syntax/parser.go's production functions,
// reshaped around a pre-tokenized input (our lexer runs to completion
// before parsing starts, rather than interleaving token production
// with parsing) since heredoc bodies and command-substitution interiors
// are already fully captured by the time the parser sees them.
package parser

import (
	"fmt"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/lexer"
	"github.com/tv-labs/bash/token"
)

// Options mirrors the shell options that affect parsing decisions.
type Options struct {
	BraceExpand bool
}

// Result is a completed parse: the Script (possibly partial, if errors
// were found) and the diagnostics collected across lexing and parsing.
type Result struct {
	Script      *ast.Script
	Diagnostics []*diag.Diagnostic
}

// Parse tokenizes and parses source into a Script.
func Parse(source []byte, opts Options) Result {
	lr := lexer.Tokenize(source, lexer.Options{BraceExpand: opts.BraceExpand})
	p := &Parser{toks: lr.Tokens, heredocs: lr.HeredocBodies, diags: append([]*diag.Diagnostic{}, lr.Diagnostics...), opts: opts}
	script := p.parseScript()
	p.resolvePendingSubstitutions(script)
	return Result{Script: script, Diagnostics: p.diags}
}

// Parser holds the cursor over an already-tokenized input.
type Parser struct {
	toks     []lexer.Token
	i        int
	heredocs []lexer.HeredocBody
	hIdx     int
	diags    []*diag.Diagnostic
	opts     Options
}

func (p *Parser) cur() lexer.Token {
	if p.i >= len(p.toks) {
		return lexer.Token{Kind: token.EOF}
	}
	return p.toks[p.i]
}

func (p *Parser) curKind() token.Kind { return p.cur().Kind }

func (p *Parser) peekAt(n int) lexer.Token {
	if p.i+n >= len(p.toks) {
		return lexer.Token{Kind: token.EOF}
	}
	return p.toks[p.i+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.curKind() == k }

func (p *Parser) errf(code diag.Code, format string, args ...interface{}) {
	t := p.cur()
	p.diags = append(p.diags, &diag.Diagnostic{
		Code: code, Message: fmt.Sprintf(format, args...), Line: t.Line, Column: t.Col,
		Hint: diag.Hints[code],
	})
}

// skipNewlines consumes any run of NEWLINE tokens (and freestanding
// COMMENT tokens), which are insignificant between most grammar
// productions.
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) || p.at(token.COMMENT) {
		p.advance()
	}
}

func (p *Parser) skipSeparators() {
	for p.at(token.NEWLINE) || p.at(token.SEMI) || p.at(token.COMMENT) {
		p.advance()
	}
}

// reservedKind reclassifies a WORD token into its reserved-word Kind
// when the literal matches one, per the lexer/parser split described
// in the lexical design: the lexer always emits WORD for keyword-
// shaped text, and the parser decides whether position makes it
// meaningful.
func reservedKind(t lexer.Token) (token.Kind, bool) {
	if t.Kind != token.WORD {
		return token.ILLEGAL, false
	}
	lit, ok := t.Word.Lit()
	if !ok {
		return token.ILLEGAL, false
	}
	switch lit {
	case "if":
		return token.IF, true
	case "then":
		return token.THEN, true
	case "elif":
		return token.ELIF, true
	case "else":
		return token.ELSE, true
	case "fi":
		return token.FI, true
	case "for":
		return token.FOR, true
	case "while":
		return token.WHILE, true
	case "until":
		return token.UNTIL, true
	case "do":
		return token.DO, true
	case "done":
		return token.DONE, true
	case "case":
		return token.CASE, true
	case "in":
		return token.IN, true
	case "esac":
		return token.ESAC, true
	case "function":
		return token.FUNCTION, true
	case "select":
		return token.SELECT, true
	case "time":
		return token.TIME, true
	case "!":
		return token.BANG, true
	case "coproc":
		return token.COPROC, true
	}
	return token.ILLEGAL, false
}

// atReserved reports whether the current token is word-shaped text
// equal to one of the given reserved spellings.
func (p *Parser) atReserved(kinds ...token.Kind) bool {
	k, ok := reservedKind(p.cur())
	if !ok {
		return false
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (p *Parser) litOf(t lexer.Token) string {
	if t.Word == nil {
		return ""
	}
	lit, _ := t.Word.Lit()
	return lit
}

// parseScript parses a whole program: the top level of a file, or the
// recursively-reparsed interior of a substitution.
func (p *Parser) parseScript() *ast.Script {
	sc := &ast.Script{}
	if p.at(token.SHEBANG) {
		p.advance()
	}
	p.skipSeparators()
	for !p.at(token.EOF) && !p.atClose() {
		st := p.parseAndOrList()
		if st == nil {
			break
		}
		sc.Stmts = append(sc.Stmts, *st)
		sep := ast.SepNone
		switch p.curKind() {
		case token.SEMI:
			sep = ast.SepSemi
			p.advance()
		case token.NEWLINE:
			sep = ast.SepNewline
			p.advance()
		}
		sc.Seps = append(sc.Seps, sep)
		p.skipSeparators()
	}
	return sc
}

// atClose reports whether the current token closes an enclosing
// compound (used so parseScript stops at e.g. 'fi'/'done'/'}' without
// needing an explicit terminator set threaded through every call).
func (p *Parser) atClose() bool {
	return p.atReserved(token.FI, token.DO, token.DONE, token.ESAC, token.THEN, token.ELSE, token.ELIF) ||
		p.at(token.RBRACE) || p.at(token.RPAREN) || p.at(token.DRPAREN) || p.atCaseTerm()
}

func (p *Parser) atCaseTerm() bool {
	return p.at(token.DSEMI) || p.at(token.SEMIFALL) || p.at(token.DSEMIFALL)
}
