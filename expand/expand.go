// Package expand implements spec.md §4.4's word-expansion pipeline:
// brace expansion, tilde expansion, parameter/command/arithmetic
// expansion, word splitting on IFS, pathname expansion, and quote
// removal.
//
// Grounded on mvdan.cc/sh/v3/expand's division of responsibility
// (expand.go driving the per-word pipeline, param.go owning the
// ${...} operator table, braces.go owning brace materialization), but
// rewritten against this module's ast.Word/WordPart types and driven
// by the small Env interface below instead of the teacher's
// expand.Environ/Config, so this package has no import-cycle-forcing
// dependency on interp.Session - interp implements Env structurally.
package expand

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/pattern"
)

// VarKind distinguishes the three variable shapes spec.md §3 names.
type VarKind int

const (
	VarUnset VarKind = iota
	VarScalar
	VarIndexed
	VarAssoc
)

// VarView is a read-only snapshot of one variable's value, as Env
// reports it to the expander.
type VarView struct {
	Kind    VarKind
	Scalar  string
	Indexed map[int]string
	Assoc   map[string]string
}

// Env is everything the expander needs from the session: variable
// storage, options, positional parameters, and the callbacks needed to
// run nested command/process substitutions and arithmetic without this
// package depending on interp (which depends on this package).
type Env interface {
	Lookup(name string) VarView
	Set(name, val string)
	IFS() string
	OptionOn(name string) bool
	Positional(i int) (string, bool) // 1-based
	NumPositional() int
	NamesWithPrefix(prefix string) []string
	RunCommandSubst(stmts []ast.Stmt) (string, error)
	ProcessSubst(stmts []ast.Stmt, out bool) (string, error)
	ArithEval(expr string) (int64, error)
	Glob(pat string) ([]string, error)
	Home(user string) (string, bool)
}

// segment is one contiguous run of a word's expanded text, tagged with
// whether it came from a quoted context (which suppresses splitting and
// globbing for that run).
type segment struct {
	text   string
	quoted bool
}

// Fields expands a whole argument list the way a simple command's
// words are expanded: brace expansion first, then per-word parameter/
// command/arithmetic expansion, IFS splitting, pathname expansion, and
// quote removal, with "$@" honored as one field per positional
// parameter when it appears alone inside double quotes.
func Fields(words []*ast.Word, env Env) ([]string, error) {
	var out []string
	for _, w := range words {
		expanded, err := expandOneBraced(w, env)
		if err != nil {
			return nil, err
		}
		for _, bw := range expanded {
			if at, ok := quotedAtAlone(bw); ok {
				_ = at
				for i := 1; i <= env.NumPositional(); i++ {
					v, _ := env.Positional(i)
					out = append(out, v)
				}
				continue
			}
			segs, err := expandWord(bw, env, false)
			if err != nil {
				return nil, err
			}
			fields, quotedOnly := splitFields(segs, env.IFS())
			for i, f := range fields {
				if quotedOnly[i] || !pattern.HasMeta(f) {
					out = append(out, f)
					continue
				}
				matches, err := env.Glob(f)
				if err != nil || len(matches) == 0 {
					if env.OptionOn("nullglob") {
						continue
					}
					out = append(out, f)
					continue
				}
				sort.Strings(matches)
				out = append(out, matches...)
			}
		}
	}
	return out, nil
}

// Value expands a word the way an assignment value, a case pattern, or
// a [[ ]] operand does: tilde/parameter/command/arithmetic expansion
// runs, but word splitting and pathname expansion are suppressed, per
// spec.md §4.4 step ordering and the `[[ ]]` invariant in §3.
func Value(w *ast.Word, env Env) (string, error) {
	if w == nil {
		return "", nil
	}
	segs, err := expandWord(w, env, true)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return b.String(), nil
}

// quotedAtAlone reports whether w is exactly `"$@"` - a double-quoted
// word whose only part is the $@ special variable - the one shape
// spec.md's word-splitting rules call out for special per-positional
// treatment rather than IFS joining.
func quotedAtAlone(w *ast.Word) (ast.Pos, bool) {
	if len(w.Parts) != 1 {
		return 0, false
	}
	dq, ok := w.Parts[0].(*ast.DoubleQuoted)
	if !ok || len(dq.Parts) != 1 {
		return 0, false
	}
	v, ok := dq.Parts[0].(*ast.Variable)
	if !ok || v.Name != "@" {
		return 0, false
	}
	return v.From, true
}

func expandOneBraced(w *ast.Word, env Env) ([]*ast.Word, error) {
	if !env.OptionOn("braceexpand") {
		return []*ast.Word{w}, nil
	}
	return braceExpand(w), nil
}

// expandWord walks a word's parts left to right, producing the
// segment list used by both Fields (which still has to split/glob) and
// Value (which just concatenates). The third parameter is unused:
// tilde expansion applies to a leading Literal part on every call.
func expandWord(w *ast.Word, env Env, _ bool) ([]segment, error) {
	var segs []segment
	for i, part := range w.Parts {
		if i == 0 {
			if lit, ok := part.(*ast.Literal); ok {
				expanded, rest, did := expandTilde(lit.Value, env)
				if did {
					segs = append(segs, segment{expanded, false})
					if rest != "" {
						segs = append(segs, segment{rest, false})
					}
					continue
				}
			}
		}
		more, err := expandPart(part, env, false)
		if err != nil {
			return nil, err
		}
		segs = append(segs, more...)
	}
	return segs, nil
}

func expandTilde(lit string, env Env) (expanded, rest string, did bool) {
	if lit == "" || lit[0] != '~' {
		return "", lit, false
	}
	end := 1
	for end < len(lit) && lit[end] != '/' {
		end++
	}
	user := lit[1:end]
	home, ok := env.Home(user)
	if !ok {
		return "", lit, false
	}
	return home, lit[end:], true
}

func expandPart(part ast.WordPart, env Env, forceQuoted bool) ([]segment, error) {
	switch pt := part.(type) {
	case *ast.Literal:
		return []segment{{pt.Value, forceQuoted}}, nil
	case *ast.SingleQuoted:
		return []segment{{pt.Value, true}}, nil
	case *ast.DoubleQuoted:
		var segs []segment
		for _, inner := range pt.Parts {
			more, err := expandPart(inner, env, true)
			if err != nil {
				return nil, err
			}
			segs = append(segs, more...)
		}
		return segs, nil
	case *ast.Variable:
		v := lookupSimple(pt.Name, env)
		return []segment{{v, forceQuoted}}, nil
	case *ast.VariableBraced:
		v, err := expandBraced(pt, env)
		if err != nil {
			return nil, err
		}
		return []segment{{v, forceQuoted}}, nil
	case *ast.CommandSubst:
		v, err := env.RunCommandSubst(pt.Stmts)
		if err != nil {
			return nil, err
		}
		return []segment{{v, forceQuoted}}, nil
	case *ast.ArithExpand:
		v, err := env.ArithEval(pt.Expr)
		if err != nil {
			return nil, err
		}
		return []segment{{strconv.FormatInt(v, 10), forceQuoted}}, nil
	case *ast.ProcessSubst:
		v, err := env.ProcessSubst(pt.Stmts, pt.Out)
		if err != nil {
			return nil, err
		}
		return []segment{{v, forceQuoted}}, nil
	case *ast.BraceExpand:
		// Reaching here means braceexpand was off or this brace run
		// survived expandOneBraced unexpanded (shouldn't normally
		// happen since braceExpand always resolves a BraceExpand part
		// when called); render literally as a defensive fallback.
		return []segment{{braceLiteral(pt), forceQuoted}}, nil
	default:
		return nil, fmt.Errorf("expand: unhandled word part %T", part)
	}
}

// lookupSimple resolves $name / $1 / $? / $@ / $* / ... to a single
// string the way an unbraced Variable reference does: scalar value, or
// element 0 of an indexed array, or the positional/special forms.
func lookupSimple(name string, env Env) string {
	switch name {
	case "@", "*":
		var parts []string
		for i := 1; i <= env.NumPositional(); i++ {
			v, _ := env.Positional(i)
			parts = append(parts, v)
		}
		sep := " "
		if ifs := env.IFS(); ifs != "" {
			sep = ifs[:1]
		}
		return strings.Join(parts, sep)
	case "#":
		return strconv.Itoa(env.NumPositional())
	}
	if n, err := strconv.Atoi(name); err == nil {
		v, _ := env.Positional(n)
		return v
	}
	view := env.Lookup(name)
	switch view.Kind {
	case VarScalar:
		return view.Scalar
	case VarIndexed:
		return view.Indexed[0]
	case VarAssoc:
		return view.Assoc["0"]
	}
	return ""
}

func braceLiteral(b *ast.BraceExpand) string {
	if b.IsRange {
		s := "{" + b.Start + ".." + b.End
		if b.HasStep {
			s += ".." + b.Step
		}
		return s + "}"
	}
	var parts []string
	for _, w := range b.List {
		if lit, ok := w.Lit(); ok {
			parts = append(parts, lit)
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// splitFields applies IFS word-splitting to a word's segment list,
// returning the resulting fields plus a parallel quotedOnly slice
// reporting whether pathname expansion should be suppressed for that
// field (true iff every contributing segment was quoted).
func splitFields(segs []segment, ifs string) (fields []string, quotedOnly []bool) {
	var cur strings.Builder
	curQuotedOnly := true
	hasContent := false
	flush := func() {
		fields = append(fields, cur.String())
		quotedOnly = append(quotedOnly, curQuotedOnly)
		cur.Reset()
		curQuotedOnly = true
		hasContent = false
	}
	for _, seg := range segs {
		if seg.quoted {
			cur.WriteString(seg.text)
			hasContent = true
			continue
		}
		curQuotedOnly = false
		start := 0
		for i := 0; i < len(seg.text); i++ {
			if strings.IndexByte(ifs, seg.text[i]) >= 0 {
				cur.WriteString(seg.text[start:i])
				flush()
				start = i + 1
			}
		}
		cur.WriteString(seg.text[start:])
		if len(seg.text) > 0 {
			hasContent = true
		}
	}
	if hasContent || cur.Len() > 0 || len(fields) == 0 {
		flush()
	}
	return fields, quotedOnly
}
