package lexer

import (
	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/token"
)

// specialParamNames are the single-byte parameter names that never
// need braces.
const specialParamNames = "?!$#@*0123456789_"

// readDollar dispatches on the byte(s) following an unescaped '$'.
func (l *Lexer) readDollar() ast.WordPart {
	from := l.curPos()
	l.advance() // $

	switch l.peek() {
	case '(':
		if l.peekAt(1) == '(' {
			return l.readArithExpand(from)
		}
		return l.readCommandSubst(from)
	case '{':
		return l.readBraced(from)
	case '[':
		// legacy $[ ... ] arithmetic, treated the same as $(( ... )).
		return l.readLegacyArith(from)
	}

	if identByte(l.peek(), true) {
		start := l.pos
		for !l.eof() && identByte(l.peek(), false) {
			l.advance()
		}
		return &ast.Variable{PartBase: partBaseAt(from, l.curPos()), Name: string(l.src[start:l.pos])}
	}

	if l.peek() >= '0' && l.peek() <= '9' {
		start := l.pos
		for !l.eof() && l.peek() >= '0' && l.peek() <= '9' {
			l.advance()
		}
		name := string(l.src[start:l.pos])
		if len(name) > 1 {
			l.errf(diag.SCMultiDigitPositional, "positional parameters above $9 need braces, e.g. ${10}")
		}
		return &ast.Variable{PartBase: partBaseAt(from, l.curPos()), Name: name}
	}

	for i := 0; i < len(specialParamNames); i++ {
		if l.peek() == specialParamNames[i] {
			l.advance()
			return &ast.Variable{PartBase: partBaseAt(from, l.curPos()), Name: string(specialParamNames[i])}
		}
	}

	// A bare '$' followed by nothing special is just a literal dollar.
	return &ast.Literal{PartBase: partBaseAt(from, l.curPos()), Value: "$"}
}

func (l *Lexer) readCommandSubst(from token.Pos) ast.WordPart {
	l.advance() // (
	depth := 1
	start := l.pos
	for !l.eof() && depth > 0 {
		switch l.peek() {
		case '(':
			depth++
			l.advance()
		case ')':
			depth--
			if depth == 0 {
				break
			}
			l.advance()
		case '\'':
			l.skipBalancedSingleQuote()
		case '"':
			l.skipBalancedDoubleQuote()
		default:
			l.advance()
		}
	}
	interior := string(l.src[start:l.pos])
	if !l.eof() {
		l.advance() // closing )
	}
	sub := Tokenize([]byte(interior), l.opts)
	l.diags = append(l.diags, sub.Diagnostics...)
	return &ast.CommandSubst{PartBase: partBaseAt(from, l.curPos()), Raw: interior}
}

func (l *Lexer) skipBalancedSingleQuote() {
	l.advance()
	for !l.eof() && l.peek() != '\'' {
		l.advance()
	}
	if !l.eof() {
		l.advance()
	}
}

func (l *Lexer) skipBalancedDoubleQuote() {
	l.advance()
	for !l.eof() && l.peek() != '"' {
		if l.peek() == '\\' {
			l.advance()
		}
		if !l.eof() {
			l.advance()
		}
	}
	if !l.eof() {
		l.advance()
	}
}

func (l *Lexer) readArithExpand(from token.Pos) ast.WordPart {
	l.advance() // (
	l.advance() // (
	depth := 1
	start := l.pos
	for !l.eof() {
		if l.peek() == '(' {
			depth++
			l.advance()
			continue
		}
		if l.peek() == ')' && l.peekAt(1) == ')' {
			depth--
			if depth == 0 {
				break
			}
			l.advance()
			l.advance()
			continue
		}
		l.advance()
	}
	expr := string(l.src[start:l.pos])
	if !l.eof() {
		l.advance()
		l.advance()
	}
	return &ast.ArithExpand{PartBase: partBaseAt(from, l.curPos()), Expr: expr}
}

func (l *Lexer) readLegacyArith(from token.Pos) ast.WordPart {
	l.advance() // [
	start := l.pos
	depth := 1
	for !l.eof() && depth > 0 {
		switch l.peek() {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				expr := string(l.src[start:l.pos])
				l.advance()
				return &ast.ArithExpand{PartBase: partBaseAt(from, l.curPos()), Expr: expr}
			}
		}
		l.advance()
	}
	return &ast.ArithExpand{PartBase: partBaseAt(from, l.curPos()), Expr: string(l.src[start:l.pos])}
}

// readBraced parses ${...}: a name (or one of the special parameters,
// or a length/indirect prefix), followed by an ordered list of
// modifier operators.
func (l *Lexer) readBraced(from token.Pos) ast.WordPart {
	l.advance() // {
	vb := &ast.VariableBraced{}

	if l.peek() == '#' && !isCloseOrOpStart(l.peekAt(1)) {
		// ${#name} length, unless it's immediately the ## operator
		// applied to a preceding name, which can't happen this early.
		save := l.pos
		l.advance()
		if name, ok := l.readParamName(); ok {
			vb.Length = true
			vb.Name = name
			l.expectCloseBrace()
			vb.PartBase = partBaseAt(from, l.curPos())
			return vb
		}
		l.pos = save
	}

	if l.peek() == '!' {
		l.advance()
		vb.Indirect = true
	}

	name, ok := l.readParamName()
	if !ok {
		name = l.readSpecialParamName()
	}
	vb.Name = name

	if vb.Indirect && (l.peek() == '*' || l.peek() == '@') {
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpPrefixNames, Prefix: name, WantNames: l.peek() == '@'})
		l.advance()
		l.expectCloseBrace()
		vb.PartBase = partBaseAt(from, l.curPos())
		return vb
	}

	for l.peek() != '}' && !l.eof() {
		if !l.readParamOp(vb) {
			break
		}
	}
	l.expectCloseBrace()
	vb.PartBase = partBaseAt(from, l.curPos())
	return vb
}

func isCloseOrOpStart(b byte) bool { return b == '}' }

func (l *Lexer) readParamName() (string, bool) {
	if !identByte(l.peek(), true) {
		return "", false
	}
	start := l.pos
	for !l.eof() && identByte(l.peek(), false) {
		l.advance()
	}
	return string(l.src[start:l.pos]), true
}

func (l *Lexer) readSpecialParamName() string {
	if l.peek() >= '0' && l.peek() <= '9' {
		start := l.pos
		for !l.eof() && l.peek() >= '0' && l.peek() <= '9' {
			l.advance()
		}
		return string(l.src[start:l.pos])
	}
	for i := 0; i < len(specialParamNames); i++ {
		if l.peek() == specialParamNames[i] {
			l.advance()
			return string(specialParamNames[i])
		}
	}
	return ""
}

func (l *Lexer) expectCloseBrace() {
	if l.peek() == '}' {
		l.advance()
	}
}

// readParamOp consumes exactly one ${...} modifier operator and
// appends it to vb.Ops, returning false if nothing recognizable
// remains (typically because '}' was reached).
func (l *Lexer) readParamOp(vb *ast.VariableBraced) bool {
	switch l.peek() {
	case '[':
		return l.readSubscript(vb)
	case ':':
		l.advance()
		switch l.peek() {
		case '-':
			l.advance()
			vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpDefault, Word: l.readOpWord()})
		case '=':
			l.advance()
			vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpAssignDefault, Word: l.readOpWord()})
		case '?':
			l.advance()
			vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpError, Word: l.readOpWord()})
		case '+':
			l.advance()
			vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpAlternate, Word: l.readOpWord()})
		default:
			off, hasLen, length := l.readSubstring()
			vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpSubstring, Offset: off, HasLen: hasLen, Length: length})
		}
	case '-':
		l.advance()
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpDefault, Word: l.readOpWord()})
	case '=':
		l.advance()
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpAssignDefault, Word: l.readOpWord()})
	case '?':
		l.advance()
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpError, Word: l.readOpWord()})
	case '+':
		l.advance()
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpAlternate, Word: l.readOpWord()})
	case '#':
		l.advance()
		greedy := false
		if l.peek() == '#' {
			greedy = true
			l.advance()
		}
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpRemovePrefix, Word: l.readOpWord(), Greedy: greedy})
	case '%':
		l.advance()
		greedy := false
		if l.peek() == '%' {
			greedy = true
			l.advance()
		}
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpRemoveSuffix, Word: l.readOpWord(), Greedy: greedy})
	case '/':
		l.advance()
		scope := ast.SubstFirst
		switch l.peek() {
		case '/':
			scope = ast.SubstAll
			l.advance()
		case '#':
			scope = ast.SubstPrefix
			l.advance()
		case '%':
			scope = ast.SubstSuffix
			l.advance()
		}
		pat := l.readOpWordUntil('/')
		var repl *ast.Word
		if l.peek() == '/' {
			l.advance()
			repl = l.readOpWord()
		}
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpSubstitute, Pattern: pat, Replacement: repl, Scope: scope})
	case '^':
		l.advance()
		all := false
		if l.peek() == '^' {
			all = true
			l.advance()
		}
		kind := ast.OpCaseFirst
		if all {
			kind = ast.OpCaseAll
		}
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: kind, Pattern2: l.readOpWord()})
	case ',':
		l.advance()
		all := false
		if l.peek() == ',' {
			all = true
			l.advance()
		}
		kind := ast.OpLowerFirst
		if all {
			kind = ast.OpLowerAll
		}
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: kind, Pattern2: l.readOpWord()})
	case '@':
		l.advance()
		t := l.peek()
		l.advance()
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpTransform, Transform: ast.TransformKind(t)})
	default:
		return false
	}
	return true
}

func (l *Lexer) readSubscript(vb *ast.VariableBraced) bool {
	l.advance() // [
	if l.peek() == '@' {
		l.advance()
		l.expectByte(']')
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpSubscript, SubKind: ast.SubscriptAllValues})
		return true
	}
	if l.peek() == '*' {
		l.advance()
		l.expectByte(']')
		vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpSubscript, SubKind: ast.SubscriptAllKeys})
		return true
	}
	idx := l.readOpWordUntil(']')
	l.expectByte(']')
	vb.Ops = append(vb.Ops, ast.ParamOp{Kind: ast.OpSubscript, SubKind: ast.SubscriptIndex, Index: idx})
	return true
}

func (l *Lexer) expectByte(b byte) {
	if l.peek() == b {
		l.advance()
	}
}

// readOpWord reads a modifier's operand word up to the enclosing '}'
// (respecting nested braces/quotes), expanding $ and quoting within it
// like a double-quoted context.
func (l *Lexer) readOpWord() *ast.Word {
	return l.readOpWordUntil('}')
}

func (l *Lexer) readOpWordUntil(stop byte) *ast.Word {
	var parts []ast.WordPart
	depth := 0
	for !l.eof() {
		b := l.peek()
		if depth == 0 && b == stop {
			break
		}
		if depth == 0 && stop != '}' && b == '}' {
			break
		}
		switch b {
		case '{':
			depth++
			parts = append(parts, l.readLiteral())
			continue
		case '}':
			depth--
			parts = append(parts, l.readLiteral())
			continue
		case '\'':
			parts = append(parts, l.readSingleQuoted())
		case '"':
			parts = append(parts, l.readDoubleQuoted())
		case '$':
			parts = append(parts, l.readDollar())
		case '`':
			parts = append(parts, l.readBacktick())
		default:
			start := l.pos
			for !l.eof() {
				c := l.peek()
				if c == '\'' || c == '"' || c == '$' || c == '`' || c == '{' || c == '}' || c == stop {
					break
				}
				if c == '\\' {
					l.advance()
					if !l.eof() {
						l.advance()
					}
					continue
				}
				l.advance()
			}
			if l.pos > start {
				parts = append(parts, &ast.Literal{Value: string(l.src[start:l.pos])})
			} else if l.peek() != stop && l.peek() != '}' {
				l.advance()
			}
		}
	}
	if len(parts) == 0 {
		return &ast.Word{}
	}
	return &ast.Word{Parts: parts}
}

// readSubstring reads the `:offset[:length]` portion of a substring
// operator, honoring the rule that a negative offset needs a space or
// parens before its leading '-' to disambiguate from ${var:-default}
// (the lexer has already committed to OpSubstring by the time this
// runs, since a bare '-' is handled by the caller).
func (l *Lexer) readSubstring() (offset *ast.Word, hasLen bool, length *ast.Word) {
	offset = l.readOpWordUntil(':')
	if l.peek() == ':' {
		l.advance()
		hasLen = true
		length = l.readOpWordUntil('}')
	}
	return offset, hasLen, length
}
