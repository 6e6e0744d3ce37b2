package expand

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tv-labs/bash/ast"
)

// fakeEnv is a minimal Env double, grounded the same way the teacher's
// expand package tests stub an Environ: just enough storage and option
// state to drive Fields/Value without a real interp.Session.
type fakeEnv struct {
	vars       map[string]VarView
	ifs        string
	options    map[string]bool
	positional []string
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		vars:    map[string]VarView{},
		ifs:     " \t\n",
		options: map[string]bool{"braceexpand": true},
	}
}

func (e *fakeEnv) Lookup(name string) VarView { return e.vars[name] }
func (e *fakeEnv) Set(name, val string) {
	e.vars[name] = VarView{Kind: VarScalar, Scalar: val}
}
func (e *fakeEnv) IFS() string          { return e.ifs }
func (e *fakeEnv) OptionOn(n string) bool { return e.options[n] }
func (e *fakeEnv) Positional(i int) (string, bool) {
	if i < 1 || i > len(e.positional) {
		return "", false
	}
	return e.positional[i-1], true
}
func (e *fakeEnv) NumPositional() int { return len(e.positional) }
func (e *fakeEnv) NamesWithPrefix(prefix string) []string {
	var out []string
	for n := range e.vars {
		if len(n) >= len(prefix) && n[:len(prefix)] == prefix {
			out = append(out, n)
		}
	}
	return out
}
func (e *fakeEnv) RunCommandSubst(stmts []ast.Stmt) (string, error) { return "", nil }
func (e *fakeEnv) ProcessSubst(stmts []ast.Stmt, out bool) (string, error) {
	return "", fmt.Errorf("not supported")
}
func (e *fakeEnv) ArithEval(expr string) (int64, error) { return 0, nil }
func (e *fakeEnv) Glob(pat string) ([]string, error)    { return nil, nil }
func (e *fakeEnv) Home(user string) (string, bool)      { return "", false }

func litWord(s string) *ast.Word {
	return &ast.Word{Parts: []ast.WordPart{&ast.Literal{Value: s}}}
}

func dqWord(parts ...ast.WordPart) *ast.Word {
	return &ast.Word{Parts: []ast.WordPart{&ast.DoubleQuoted{Parts: parts}}}
}

func TestFieldsSplitsOnIFS(t *testing.T) {
	env := newFakeEnv()
	env.Set("greeting", "hello world")
	words := []*ast.Word{
		litWord("a"),
		{Parts: []ast.WordPart{&ast.Variable{Name: "greeting"}}},
		litWord("z"),
	}
	got, err := Fields(words, env)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "hello", "world", "z"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsQuotedNotSplit(t *testing.T) {
	env := newFakeEnv()
	env.Set("greeting", "hello world")
	words := []*ast.Word{
		dqWord(&ast.Variable{Name: "greeting"}),
	}
	got, err := Fields(words, env)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"hello world"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsQuotedAtExpandsPerPositional(t *testing.T) {
	env := newFakeEnv()
	env.positional = []string{"one", "two three", "four"}
	words := []*ast.Word{
		dqWord(&ast.Variable{Name: "@"}),
	}
	got, err := Fields(words, env)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"one", "two three", "four"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValueNoSplitting(t *testing.T) {
	env := newFakeEnv()
	env.Set("x", "a b c")
	got, err := Value(&ast.Word{Parts: []ast.WordPart{&ast.Variable{Name: "x"}}}, env)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a b c" {
		t.Errorf("Value = %q, want %q", got, "a b c")
	}
}
