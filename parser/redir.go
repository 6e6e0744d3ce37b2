package parser

import (
	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/lexer"
	"github.com/tv-labs/bash/token"
)

// parseRedirect consumes one redirection operator and its target. The
// cursor is assumed to be on a redirection-operator token.
func (p *Parser) parseRedirect() *ast.Redirect {
	opTok := p.advance()
	r := &ast.Redirect{
		From: ast.Pos(opTok.Offset + 1),
		FD:   opTok.FD,
		Op:   opTok.Kind.String(),
		Both: opTok.Kind == token.RDRALL || opTok.Kind == token.APPALL,
	}

	switch opTok.Kind {
	case token.SHL, token.DHEREDOC:
		r.Heredoc = true
		r.StripTabs = opTok.Kind == token.DHEREDOC
		delimTok := p.advance()
		delim, expand := p.heredocDelim(delimTok)
		r.HeredocDelim = delim
		r.Expand = expand
		r.Target.Word = delimTok.Word
		body := p.nextHeredocBody()
		r.HeredocBody = p.buildHeredocBody(body, expand)
		r.To = ast.Pos(delimTok.Offset + 1 + wordByteLen(delimTok.Word))
		return r
	case token.DPLIN, token.DPLOUT:
		target := p.advance()
		if lit := p.litOf(target); target.Word != nil && lit == "-" {
			r.Target.IsFD = true
			r.Target.Close = true
		} else if fd, ok := fdDupTarget(target); ok {
			r.Target.IsFD = true
			r.Target.FD = fd
		} else {
			r.Target.Word = target.Word
		}
		r.To = ast.Pos(target.Offset + 1 + wordByteLen(target.Word))
		return r
	default:
		target := p.advance()
		r.Target.Word = target.Word
		r.To = ast.Pos(target.Offset + 1 + wordByteLen(target.Word))
		return r
	}
}

// fdDupTarget recognizes the N<&M / N>&M duplicate-fd form, where the
// "word" after the operator is a bare digit run. The N<&- close form is
// handled by the caller.
func fdDupTarget(t lexer.Token) (int, bool) {
	if t.Word == nil {
		return 0, false
	}
	lit, ok := t.Word.Lit()
	if !ok {
		return 0, false
	}
	for _, c := range lit {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	if lit == "" {
		return 0, false
	}
	n := 0
	for _, c := range lit {
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (p *Parser) heredocDelim(t lexer.Token) (string, bool) {
	if t.Word == nil {
		return "", true
	}
	if lit, ok := t.Word.Lit(); ok {
		return lit, true
	}
	// A quoted delimiter still has a flattenable literal value for
	// matching purposes; reuse the lexer's own flattening since the
	// heredoc's expand flag was already decided there.
	return lexer.HeredocDelimText(t.Word)
}

func (p *Parser) nextHeredocBody() string {
	if p.hIdx >= len(p.heredocs) {
		return ""
	}
	b := p.heredocs[p.hIdx].Text
	p.hIdx++
	return b
}

// buildHeredocBody turns a captured heredoc body into a Word: if
// expansion is enabled, the text is re-lexed as double-quoted content
// (so $vars, $(...), etc. still expand); otherwise it is a single
// verbatim literal.
func (p *Parser) buildHeredocBody(text string, expand bool) *ast.Word {
	if !expand {
		return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: text}}}
	}
	return lexer.LexDoubleQuotedLike(text, lexer.Options{})
}
