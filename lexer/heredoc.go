package lexer

import (
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/token"
)

// maybeQueueHeredoc is called right after a WORD token is emitted (by
// lexWordStart and lexProcessSubst). When the token before that WORD is
// SHL or DHEREDOC, it registers a pending heredoc keyed to the WORD's
// literal spelling.
func (l *Lexer) maybeQueueHeredoc() {
	if len(l.tokens) < 2 {
		return
	}
	opTok := l.tokens[len(l.tokens)-2]
	delimTok := l.tokens[len(l.tokens)-1]
	if opTok.Kind != token.SHL && opTok.Kind != token.DHEREDOC {
		return
	}
	if delimTok.Kind != token.WORD || delimTok.Word == nil {
		return
	}
	delim, expand := heredocDelimLiteral(delimTok.Word)
	if strings.TrimSpace(delim) == "" {
		return
	}
	l.pendingHeredocs = append(l.pendingHeredocs, &pendingHeredoc{
		delim:     delim,
		stripTabs: opTok.Kind == token.DHEREDOC,
		expand:    expand,
	})
}

// heredocDelimLiteral flattens a heredoc delimiter word to its literal
// text and reports whether the delimiter was unquoted (and thus the
// body should still undergo expansion). Any quoting on any part (e.g.
// <<"EOF", <<EO"F", <<'EOF') disables body expansion, matching bash.
func heredocDelimLiteral(w *ast.Word) (string, bool) {
	var b strings.Builder
	quoted := false
	var walk func(parts []ast.WordPart)
	walk = func(parts []ast.WordPart) {
		for _, p := range parts {
			switch pt := p.(type) {
			case *ast.Literal:
				b.WriteString(pt.Value)
			case *ast.SingleQuoted:
				quoted = true
				b.WriteString(pt.Value)
			case *ast.DoubleQuoted:
				quoted = true
				walk(pt.Parts)
			default:
				// Variables/substitutions in a heredoc delimiter are not
				// expanded by bash at queue time either; keep their raw
				// source text out of the delimiter comparison by simply
				// not representing them, which will just fail to match
				// any closing line (mirrors bash treating such a
				// delimiter as unmatchable).
			}
		}
	}
	walk(w.Parts)
	return b.String(), !quoted
}

// HeredocDelimText exposes heredocDelimLiteral's flattening for the
// parser, which needs the same literal text when re-deriving a
// delimiter from a token it already split off the lexer's stream.
func HeredocDelimText(w *ast.Word) (string, bool) {
	return heredocDelimLiteral(w)
}

// LexDoubleQuotedLike re-lexes a captured (expansion-enabled) heredoc
// body the same way the interior of a "..." string is read: $ and `
// introduce expansions, backslash escapes only $, `, \ and newline, and
// every other byte is literal. Unlike readDoubleQuoted this runs to the
// end of the text rather than stopping at an unescaped '"', since a
// heredoc body has no quote-ending byte.
func LexDoubleQuotedLike(text string, opts Options) *ast.Word {
	l := &Lexer{src: []byte(text), line: 1, col: 1, opts: opts}
	var parts []ast.WordPart
	for !l.eof() {
		switch l.peek() {
		case '$':
			parts = append(parts, l.readDollar())
		case '`':
			parts = append(parts, l.readBacktick())
		case '\\':
			start := l.pos
			l.advance()
			if !l.eof() {
				switch l.peek() {
				case '$', '`', '\\', '\n':
					l.advance()
				}
			}
			parts = append(parts, &ast.Literal{Value: string(l.src[start:l.pos])})
		default:
			start := l.pos
			for !l.eof() && l.peek() != '$' && l.peek() != '`' && l.peek() != '\\' {
				l.advance()
			}
			parts = append(parts, &ast.Literal{Value: string(l.src[start:l.pos])})
		}
	}
	if len(parts) == 0 {
		return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: ""}}}
	}
	return &ast.Word{Parts: parts}
}

// captureHeredocs is invoked at each unescaped newline: it reads one
// body per queued heredoc, in FIFO order, honoring <<- tab-stripping
// and the various SC104x delimiter-hygiene diagnostics.
func (l *Lexer) captureHeredocs() {
	for len(l.pendingHeredocs) > 0 {
		ph := l.pendingHeredocs[0]
		l.pendingHeredocs = l.pendingHeredocs[1:]
		body := l.readHeredocBody(ph)
		l.heredocBodies = append(l.heredocBodies, HeredocBody{Text: body})
	}
}

func (l *Lexer) readHeredocBody(ph *pendingHeredoc) string {
	var b strings.Builder
	for {
		if l.eof() {
			l.errf(diag.SCHeredocMissingEOF, "couldn't find the heredoc terminator '"+ph.delim+"' before the end of the file")
			return b.String()
		}
		lineStart := l.pos
		for !l.eof() && l.peek() != '\n' {
			l.advance()
		}
		rawLine := string(l.src[lineStart:l.pos])
		if !l.eof() {
			l.advance() // consume the newline
		}
		line := rawLine
		if ph.stripTabs {
			line = strings.TrimLeft(line, "\t")
		}
		if line == ph.delim {
			return b.String()
		}
		if strings.TrimSpace(rawLine) == ph.delim && rawLine != ph.delim {
			l.errf(diag.SCHeredocIndentedDelim, "the heredoc delimiter must appear alone, with no leading whitespace (unless using <<-)")
		}
		if strings.EqualFold(line, ph.delim) {
			l.errf(diag.SCHeredocCaseMismatch, "this line's case doesn't match the heredoc delimiter")
		}
		b.WriteString(rawLine)
		b.WriteByte('\n')
	}
}
