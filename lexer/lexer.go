// Package lexer turns Bash source bytes into a token stream. It is a
// single-pass, context-sensitive tokenizer: it tracks whether it is at
// the start of a command (to recognize reserved words and the `{`/`(`/
// `[[` family), builds Word values directly rather than handing raw
// characters to the parser, and recursively re-invokes itself on the
// interior of command and process substitutions so their diagnostics
// and structure ride the same code path as the outer script.
//
// Grounded on mvdan.cc/sh/v3/syntax/lexer.go's single-cursor dispatch
// loop, reshaped so each Token already carries the structured ast.Word
// the spec's data model calls for instead of deferring assembly to the
// parser.
package lexer

import (
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/token"
)

// Options controls lexer behavior that depends on shell options.
type Options struct {
	BraceExpand bool // recognize {a,b} / {1..3} as BraceExpand parts
}

// Token is one lexical unit, with its payload already assembled when
// applicable (WORD/ASSIGN_WORD carry an *ast.Word).
type Token struct {
	Kind       token.Kind
	Word       *ast.Word
	AssignName string // for ASSIGN_WORD
	AssignPlus bool   // += vs =
	FD         int    // explicit fd prefix on a redirection operator, -1 if none
	Raw        string // interior text for ARITH_CMD, interpreter for SHEBANG, text for COMMENT
	Line, Col  int
	Offset     int
}

// pendingHeredoc is queued when "<<" / "<<-" is lexed; its body is
// captured at the next unescaped newline.
type pendingHeredoc struct {
	tokenIdx  int // index into the in-progress token list of the owning Redirect-producing token slot; resolved by the parser via HeredocBodies
	delim     string
	stripTabs bool
	expand    bool
}

// HeredocBody is the resolved body text for one queued heredoc, matched
// to its pending request by order of appearance.
type HeredocBody struct {
	Text string
}

// Lexer holds the cursor state for one tokenization pass.
type Lexer struct {
	src  []byte
	pos  int
	line int
	col  int

	opts Options

	atCmdStart bool // true when the next word may be a reserved word / { ( [[

	tokens []Token
	diags  []*diag.Diagnostic

	pendingHeredocs []*pendingHeredoc
	heredocBodies   []HeredocBody
}

// Result is everything a tokenization pass produced.
type Result struct {
	Tokens        []Token
	Diagnostics   []*diag.Diagnostic
	HeredocBodies []HeredocBody
}

// Tokenize runs the lexer over source and returns its token stream,
// diagnostics, and any heredoc bodies captured along the way, in the
// order their delimiters were seen.
func Tokenize(source []byte, opts Options) Result {
	l := &Lexer{src: source, line: 1, col: 1, atCmdStart: true, opts: opts}
	l.lexShebang()
	l.run()
	l.tokens = append(l.tokens, Token{Kind: token.EOF, Line: l.line, Col: l.col, Offset: l.pos})
	return Result{Tokens: l.tokens, Diagnostics: l.diags, HeredocBodies: l.heredocBodies}
}

func (l *Lexer) errf(code diag.Code, msg string) {
	hint := diag.Hints[code]
	l.diags = append(l.diags, &diag.Diagnostic{
		Code: code, Message: msg, Line: l.line, Column: l.col,
		Snippet: l.currentLine(), Hint: hint,
	})
}

func (l *Lexer) currentLine() string {
	start := l.pos
	for start > 0 && l.src[start-1] != '\n' {
		start--
	}
	end := l.pos
	for end < len(l.src) && l.src[end] != '\n' {
		end++
	}
	return string(l.src[start:end])
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *Lexer) curPos() token.Pos { return token.Pos(l.pos + 1) }

// lexShebang inspects the very first bytes of the source, per the
// shebang rules in the lexical design.
func (l *Lexer) lexShebang() {
	if len(l.src) >= 3 && l.src[0] == 0xEF && l.src[1] == 0xBB && l.src[2] == 0xBF {
		l.errf(diag.SCUTF8BOM, "this file has a byte-order-mark that most shells don't expect")
		l.pos += 3
	}
	rest := l.src[l.pos:]
	trimmed := strings.TrimLeft(string(rest), " \t")
	leadingWS := len(rest) - len(trimmed)
	switch {
	case strings.HasPrefix(trimmed, "#!"):
		if leadingWS > 0 {
			l.errf(diag.SCShebangLeadingSpace, "the shebang must be the first thing in the file, with no leading whitespace")
		}
		l.pos += leadingWS
		nl := strings.IndexByte(string(l.src[l.pos:]), '\n')
		var line string
		if nl < 0 {
			line = string(l.src[l.pos:])
			l.pos = len(l.src)
		} else {
			line = string(l.src[l.pos : l.pos+nl])
			l.pos += nl
		}
		interp := strings.TrimSpace(strings.TrimPrefix(line, "#!"))
		l.tokens = append(l.tokens, Token{Kind: token.SHEBANG, Raw: interp, Line: 1, Col: 1})
	case strings.HasPrefix(trimmed, "!#"):
		l.errf(diag.SCShebangBang, "the shebang is reversed; it must be #! not !#")
	case strings.HasPrefix(trimmed, "# !"):
		l.errf(diag.SCShebangCommentSpace, "this shebang has a space between # and !, so it's read as a plain comment")
	}
}

// run is the top-level dispatch loop.
func (l *Lexer) run() {
	for !l.eof() {
		b := l.peek()
		switch {
		case b == ' ' || b == '\t':
			l.advance()
		case b == '\r':
			l.advance()
		case b == '\n':
			l.advance()
			l.emitSimple(token.NEWLINE)
			l.atCmdStart = true
			l.captureHeredocs()
		case b == '\\' && l.peekAt(1) == '\n':
			l.advance()
			l.advance() // swallow line continuation
		case b == '#':
			l.lexComment()
		case b == '\'':
			l.lexWordStart()
		case b == '"':
			l.lexWordStart()
		case b == '$':
			l.lexWordStart()
		case b == '`':
			l.lexWordStart()
		case isOperatorStart(b):
			l.lexOperator()
		case b >= '0' && b <= '9' && l.digitsPrecedeRedir():
			l.lexOperator()
		case b == '[' || b == ']':
			l.lexBracket()
		default:
			l.lexWordStart()
		}
	}
}

// digitsPrecedeRedir reports whether the unquoted digit run starting at
// the cursor is immediately followed by '<' or '>', i.e. it is an
// explicit fd prefix like the 2 in "2>&1" rather than an ordinary word
// that merely starts with digits.
func (l *Lexer) digitsPrecedeRedir() bool {
	i := l.pos
	for i < len(l.src) && l.src[i] >= '0' && l.src[i] <= '9' {
		i++
	}
	return i < len(l.src) && (l.src[i] == '<' || l.src[i] == '>')
}

func isOperatorStart(b byte) bool {
	switch b {
	case '|', '&', ';', '(', ')', '{', '}', '<', '>':
		return true
	}
	return false
}

func (l *Lexer) emitSimple(k token.Kind) {
	l.tokens = append(l.tokens, Token{Kind: k, Line: l.line, Col: l.col, Offset: l.pos, FD: -1})
}

func (l *Lexer) lexComment() {
	start := l.pos
	for !l.eof() && l.peek() != '\n' {
		l.advance()
	}
	l.tokens = append(l.tokens, Token{Kind: token.COMMENT, Raw: string(l.src[start:l.pos]), Line: l.line, Col: l.col})
}
