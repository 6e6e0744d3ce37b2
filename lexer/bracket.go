package lexer

import (
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/token"
)

func (l *Lexer) flagMissingSpaceBeforeBracket() {
	l.errf(diag.SCMissingSpaceBeforeBracket, "put a space before the closing ']', bash needs it to tell it apart from the rest of the word")
}

// lexBracket recognizes the standalone '[', '[[', ']' and ']]' tokens
// used by test commands and expressions. Since run() only dispatches
// here right after a word boundary was consumed, a bracket run is
// classified as one of these operators solely by what follows it; if it
// isn't followed by a boundary, it's an ordinary glob/literal character
// (e.g. the bracket in "echo [abc]") and is left for lexWordStart.
func (l *Lexer) lexBracket() {
	line, col, off := l.line, l.col, l.pos
	if l.peek() == '[' {
		if l.peekAt(1) == '[' && isWordBoundary(l.peekAt(2)) {
			l.advance()
			l.advance()
			l.tokens = append(l.tokens, Token{Kind: token.DLBRACK, Line: line, Col: col, Offset: off, FD: -1})
			l.atCmdStart = true
			return
		}
		if isWordBoundary(l.peekAt(1)) {
			l.advance()
			l.tokens = append(l.tokens, Token{Kind: token.LBRACK, Line: line, Col: col, Offset: off, FD: -1})
			l.atCmdStart = true
			return
		}
		l.lexWordStart()
		return
	}
	// ']'
	if l.peekAt(1) == ']' && isWordBoundary(l.peekAt(2)) {
		l.advance()
		l.advance()
		l.tokens = append(l.tokens, Token{Kind: token.DRBRACK, Line: line, Col: col, Offset: off, FD: -1})
		l.atCmdStart = false
		return
	}
	if isWordBoundary(l.peekAt(1)) {
		l.advance()
		l.tokens = append(l.tokens, Token{Kind: token.RBRACK, Line: line, Col: col, Offset: off, FD: -1})
		l.atCmdStart = false
		return
	}
	// A ']' glued to the previous word with no space, e.g. "[ -n "$x"]":
	// flag it (SC1020) and still treat it as a literal word character so
	// parsing can proceed.
	l.flagMissingSpaceBeforeBracket()
	l.lexWordStart()
}
