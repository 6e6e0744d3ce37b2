package expand

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/pattern"
)

// expandBraced resolves a ${...} expansion: the bare name/array lookup
// plus every ParamOp applied in source order, per spec.md §4.4's
// operator table.
func expandBraced(v *ast.VariableBraced, env Env) (string, error) {
	if v.Length {
		return strconv.Itoa(paramLength(v.Name, env)), nil
	}
	if len(v.Ops) > 0 && v.Ops[0].Kind == ast.OpPrefixNames {
		return prefixNames(v.Ops[0], env), nil
	}

	view, subKind, set := resolveView(v, env)

	for _, op := range v.Ops {
		switch op.Kind {
		case ast.OpSubscript:
			// Already folded into resolveView.
			continue
		case ast.OpDefault:
			if !set || (subKind != ast.SubscriptAllValues && viewScalar(view, subKind) == "") {
				w, err := Value(op.Word, env)
				return w, err
			}
		case ast.OpAssignDefault:
			if !set || (subKind != ast.SubscriptAllValues && viewScalar(view, subKind) == "") {
				w, err := Value(op.Word, env)
				if err != nil {
					return "", err
				}
				env.Set(v.Name, w)
				return w, nil
			}
		case ast.OpError:
			if !set || (subKind != ast.SubscriptAllValues && viewScalar(view, subKind) == "") {
				msg := "parameter null or not set"
				if op.Word != nil {
					w, err := Value(op.Word, env)
					if err != nil {
						return "", err
					}
					if w != "" {
						msg = w
					}
				}
				return "", fmt.Errorf("%s: %s", v.Name, msg)
			}
		case ast.OpAlternate:
			if set && (subKind == ast.SubscriptAllValues || viewScalar(view, subKind) != "") {
				return Value(op.Word, env)
			}
			return "", nil
		}
	}

	result := viewToString(view, subKind, env)

	for _, op := range v.Ops {
		var err error
		result, err = applyStringOp(op, result, view, subKind, env)
		if err != nil {
			return "", err
		}
	}
	return result, nil
}

func paramLength(name string, env Env) int {
	view := env.Lookup(name)
	switch view.Kind {
	case VarIndexed:
		return len(view.Indexed)
	case VarAssoc:
		return len(view.Assoc)
	default:
		return len(view.Scalar)
	}
}

func prefixNames(op ast.ParamOp, env Env) string {
	names := env.NamesWithPrefix(op.Prefix)
	sort.Strings(names)
	return strings.Join(names, " ")
}

// resolveView looks up the base variable and, if an OpSubscript is
// present, narrows the view to that element/selection.
func resolveView(v *ast.VariableBraced, env Env) (view VarView, subKind ast.SubscriptKind, set bool) {
	view = env.Lookup(v.Name)
	set = view.Kind != VarUnset
	subKind = ast.SubscriptIndex
	for _, op := range v.Ops {
		if op.Kind != ast.OpSubscript {
			continue
		}
		subKind = op.SubKind
		if op.SubKind != ast.SubscriptIndex {
			return view, subKind, set
		}
		idxStr, _ := Value(op.Index, env)
		switch view.Kind {
		case VarIndexed:
			n, _ := strconv.Atoi(idxStr)
			if n < 0 {
				max := -1
				for k := range view.Indexed {
					if k > max {
						max = k
					}
				}
				n += max + 1
			}
			scalar, ok := view.Indexed[n]
			return VarView{Kind: VarScalar, Scalar: scalar}, ast.SubscriptIndex, ok
		case VarAssoc:
			scalar, ok := view.Assoc[idxStr]
			return VarView{Kind: VarScalar, Scalar: scalar}, ast.SubscriptIndex, ok
		default:
			if idxStr == "0" {
				return view, ast.SubscriptIndex, set
			}
			return VarView{Kind: VarUnset}, ast.SubscriptIndex, false
		}
	}
	return view, subKind, set
}

func viewScalar(view VarView, subKind ast.SubscriptKind) string {
	switch view.Kind {
	case VarIndexed:
		return view.Indexed[0]
	case VarAssoc:
		return view.Assoc["0"]
	default:
		return view.Scalar
	}
}

func viewToString(view VarView, subKind ast.SubscriptKind, env Env) string {
	switch view.Kind {
	case VarIndexed:
		if subKind == ast.SubscriptAllValues || subKind == ast.SubscriptAllKeys {
			keys := make([]int, 0, len(view.Indexed))
			for k := range view.Indexed {
				keys = append(keys, k)
			}
			sort.Ints(keys)
			if subKind == ast.SubscriptAllKeys {
				var parts []string
				for _, k := range keys {
					parts = append(parts, strconv.Itoa(k))
				}
				return strings.Join(parts, " ")
			}
			var parts []string
			for _, k := range keys {
				parts = append(parts, view.Indexed[k])
			}
			sep := " "
			if ifs := env.IFS(); ifs != "" {
				sep = ifs[:1]
			}
			return strings.Join(parts, sep)
		}
		return view.Indexed[0]
	case VarAssoc:
		if subKind == ast.SubscriptAllValues || subKind == ast.SubscriptAllKeys {
			keys := make([]string, 0, len(view.Assoc))
			for k := range view.Assoc {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if subKind == ast.SubscriptAllKeys {
				return strings.Join(keys, " ")
			}
			var parts []string
			for _, k := range keys {
				parts = append(parts, view.Assoc[k])
			}
			return strings.Join(parts, " ")
		}
		return view.Assoc["0"]
	default:
		return view.Scalar
	}
}

func applyStringOp(op ast.ParamOp, s string, view VarView, subKind ast.SubscriptKind, env Env) (string, error) {
	switch op.Kind {
	case ast.OpRemovePrefix:
		pat, err := Value(op.Word, env)
		if err != nil {
			return "", err
		}
		return removeAffix(s, pat, op.Greedy, true), nil
	case ast.OpRemoveSuffix:
		pat, err := Value(op.Word, env)
		if err != nil {
			return "", err
		}
		return removeAffix(s, pat, op.Greedy, false), nil
	case ast.OpSubstitute:
		pat, err := Value(op.Pattern, env)
		if err != nil {
			return "", err
		}
		repl := ""
		if op.Replacement != nil {
			repl, err = Value(op.Replacement, env)
			if err != nil {
				return "", err
			}
		}
		return substitute(s, pat, repl, op.Scope), nil
	case ast.OpSubstring:
		return substring(s, op, env)
	case ast.OpCaseFirst, ast.OpCaseAll, ast.OpLowerFirst, ast.OpLowerAll:
		pat := "?"
		if op.Pattern2 != nil {
			v, err := Value(op.Pattern2, env)
			if err != nil {
				return "", err
			}
			if v != "" {
				pat = v
			}
		}
		return applyCase(s, op.Kind, pat)
	case ast.OpTransform:
		return applyTransform(s, op.Transform), nil
	default:
		return s, nil
	}
}

// removeAffix removes the shortest (greedy=false) or longest
// (greedy=true) prefix/suffix of s matching the glob pattern pat.
func removeAffix(s, pat string, greedy, prefix bool) string {
	if prefix {
		if greedy {
			for k := len(s); k >= 0; k-- {
				if ok, _ := pattern.Match(pat, s[:k], true); ok {
					return s[k:]
				}
			}
		} else {
			for k := 0; k <= len(s); k++ {
				if ok, _ := pattern.Match(pat, s[:k], true); ok {
					return s[k:]
				}
			}
		}
		return s
	}
	if greedy {
		for k := 0; k <= len(s); k++ {
			if ok, _ := pattern.Match(pat, s[k:], true); ok {
				return s[:k]
			}
		}
	} else {
		for k := len(s); k >= 0; k-- {
			if ok, _ := pattern.Match(pat, s[k:], true); ok {
				return s[:k]
			}
		}
	}
	return s
}

func substitute(s, pat, repl string, scope ast.SubstScope) string {
	re, err := pattern.RegexpUnanchored(pat, true)
	if err != nil {
		return s
	}
	rx, err := regexp.Compile(re)
	if err != nil {
		return s
	}
	switch scope {
	case ast.SubstAll:
		return rx.ReplaceAllString(s, escapeDollar(repl))
	case ast.SubstPrefix:
		if loc := rx.FindStringIndex(s); loc != nil && loc[0] == 0 {
			return repl + s[loc[1]:]
		}
		return s
	case ast.SubstSuffix:
		if loc := rx.FindStringIndex(s); loc != nil && loc[1] == len(s) {
			return s[:loc[0]] + repl
		}
		return s
	default: // SubstFirst
		loc := rx.FindStringIndex(s)
		if loc == nil {
			return s
		}
		return s[:loc[0]] + repl + s[loc[1]:]
	}
}

func escapeDollar(repl string) string {
	return strings.ReplaceAll(repl, "$", "$$")
}

func substring(s string, op ast.ParamOp, env Env) (string, error) {
	offStr, err := Value(op.Offset, env)
	if err != nil {
		return "", err
	}
	off, err := strconv.Atoi(strings.TrimSpace(offStr))
	if err != nil {
		return "", fmt.Errorf("substring: invalid offset %q", offStr)
	}
	if off < 0 {
		off += len(s)
		if off < 0 {
			off = 0
		}
	}
	if off > len(s) {
		off = len(s)
	}
	if !op.HasLen {
		return s[off:], nil
	}
	lenStr, err := Value(op.Length, env)
	if err != nil {
		return "", err
	}
	n, err := strconv.Atoi(strings.TrimSpace(lenStr))
	if err != nil {
		return "", fmt.Errorf("substring: invalid length %q", lenStr)
	}
	end := off + n
	if n < 0 {
		end = len(s) + n
	}
	if end > len(s) {
		end = len(s)
	}
	if end < off {
		return "", nil
	}
	return s[off:end], nil
}

func applyCase(s string, kind ast.ParamOpKind, pat string) (string, error) {
	transform := func(r rune) (rune, bool) {
		ok, err := pattern.Match(pat, string(r), false)
		return r, err == nil && ok
	}
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		matched := true
		if pat != "?" {
			_, matched = transform(r)
		}
		switch kind {
		case ast.OpCaseFirst:
			if i == 0 && matched {
				b.WriteRune(toUpperRune(r))
			} else {
				b.WriteRune(r)
			}
		case ast.OpCaseAll:
			if matched {
				b.WriteRune(toUpperRune(r))
			} else {
				b.WriteRune(r)
			}
		case ast.OpLowerFirst:
			if i == 0 && matched {
				b.WriteRune(toLowerRune(r))
			} else {
				b.WriteRune(r)
			}
		case ast.OpLowerAll:
			if matched {
				b.WriteRune(toLowerRune(r))
			} else {
				b.WriteRune(r)
			}
		}
	}
	return b.String(), nil
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func applyTransform(s string, kind ast.TransformKind) string {
	switch kind {
	case ast.TransformUpper:
		return strings.ToUpper(s)
	case ast.TransformLower:
		return strings.ToLower(s)
	case ast.TransformQuote:
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	default:
		return s
	}
}
