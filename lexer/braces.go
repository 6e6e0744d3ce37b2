package lexer

import (
	"strconv"
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/token"
)

// tryReadBraceExpand attempts to recognize {a,b,c} or {start..end[..step]}
// at the current '{'. On success it consumes the run and returns the
// BraceExpand part; on failure (the byte run doesn't have the shape) it
// leaves the cursor untouched and returns nil so the caller falls back
// to a literal '{'.
func (l *Lexer) tryReadBraceExpand() ast.WordPart {
	save := l.pos
	from := l.curPos()
	if l.peek() != '{' {
		return nil
	}
	depth := 0
	start := l.pos
	for i := l.pos; i < len(l.src); i++ {
		switch l.src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := string(l.src[start+1 : i])
				if part := l.classifyBraceBody(body, from, i+1); part != nil {
					l.pos = i + 1
					return part
				}
				l.pos = save
				return nil
			}
		case ' ', '\t', '\n':
			l.pos = save
			return nil
		}
	}
	l.pos = save
	return nil
}

func (l *Lexer) classifyBraceBody(body string, from token.Pos, toOffset int) ast.WordPart {
	if rng := parseBraceRange(body); rng != nil {
		rng.PartBase = partBaseAt(from, token.Pos(toOffset+1))
		return rng
	}
	if strings.Contains(body, ",") {
		items := splitTopLevelComma(body)
		if len(items) < 2 {
			return nil
		}
		words := make([]*ast.Word, len(items))
		for i, it := range items {
			words[i] = lexWordText(it, l.opts)
		}
		return &ast.BraceExpand{PartBase: partBaseAt(from, token.Pos(toOffset+1)), List: words}
	}
	return nil
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// parseBraceRange recognizes "start..end" or "start..end..step", where
// start/end are both integers or both single letters, per the brace
// range rules.
func parseBraceRange(body string) *ast.BraceExpand {
	parts := strings.Split(body, "..")
	if len(parts) != 2 && len(parts) != 3 {
		return nil
	}
	be := &ast.BraceExpand{IsRange: true, Start: parts[0], End: parts[1]}
	if len(parts) == 3 {
		be.HasStep = true
		be.Step = parts[2]
		if _, err := strconv.Atoi(strings.TrimPrefix(be.Step, "-")); err != nil {
			return nil
		}
	}
	if isIntLiteral(be.Start) && isIntLiteral(be.End) {
		if len(be.Start) > 1 && be.Start[0] == '0' {
			be.ZeroPad = len(be.Start)
		} else if len(be.Start) > 1 && be.Start[0] == '-' && be.Start[1] == '0' {
			be.ZeroPad = len(be.Start) - 1
		}
		return be
	}
	if len(be.Start) == 1 && len(be.End) == 1 && isAlpha(be.Start[0]) && isAlpha(be.End[0]) {
		return be
	}
	return nil
}

func isIntLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i++
	}
	if i == len(s) {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

// lexWordText tokenizes a standalone snippet (such as one brace-list
// item) and returns its first word's parts, falling back to a literal
// if the snippet didn't lex as a single word (e.g. it was empty).
func lexWordText(text string, opts Options) *ast.Word {
	r := Tokenize([]byte(text), opts)
	for _, t := range r.Tokens {
		if t.Kind == token.WORD && t.Word != nil {
			return t.Word
		}
	}
	return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: text}}}
}
