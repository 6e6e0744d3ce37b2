package interp

import (
	"bytes"
	"context"
	"testing"

	"github.com/tv-labs/bash/parser"
)

func mustRun(t *testing.T, s *Session, src string) int {
	t.Helper()
	res := parser.Parse([]byte(src), parser.Options{BraceExpand: true})
	if len(res.Diagnostics) > 0 {
		t.Fatalf("parse %q: %v", src, res.Diagnostics)
	}
	status, err := s.Run(context.Background(), res.Script)
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return status
}

func TestCloneIsolatesVariablesFromSubshell(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	mustRun(t, s, "x=1\n(x=2)\necho $x\n")
	if got := out.String(); got != "1\n" {
		t.Errorf("stdout = %q, want %q (subshell assignment must not leak out)", got, "1\n")
	}
}

func TestCloneSeesParentFuncs(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	mustRun(t, s, "f() { echo parent; }\n(f)\n")
	if got := out.String(); got != "parent\n" {
		t.Errorf("stdout = %q, want %q (subshell must see parent-defined functions)", got, "parent\n")
	}
}

func TestBreakExitsInnermostLoopOnly(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	mustRun(t, s, "for i in 1 2 3; do\n  if [ \"$i\" = 2 ]; then break; fi\n  echo $i\ndone\n")
	if got := out.String(); got != "1\n" {
		t.Errorf("stdout = %q, want %q", got, "1\n")
	}
}

func TestBreakWithLevelEscapesNestedLoop(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	mustRun(t, s, "for i in 1 2; do\n  for j in a b; do\n    break 2\n  done\n  echo after-$i\ndone\necho done\n")
	if got := out.String(); got != "done\n" {
		t.Errorf("stdout = %q, want %q (break 2 should unwind both loops)", got, "done\n")
	}
}

func TestContinueSkipsRestOfLoopBody(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	mustRun(t, s, "for i in 1 2 3; do\n  if [ \"$i\" = 2 ]; then continue; fi\n  echo $i\ndone\n")
	if got := out.String(); got != "1\n3\n" {
		t.Errorf("stdout = %q, want %q", got, "1\n3\n")
	}
}

func TestFunctionReturnDoesNotExitScript(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	status := mustRun(t, s, "f() { return 3; }\nf\necho after\n")
	if got := out.String(); got != "after\n" {
		t.Errorf("stdout = %q, want %q (return must only unwind the function)", got, "after\n")
	}
	if status != 0 {
		t.Errorf("status = %d, want 0 (echo after resets $?)", status)
	}
}

func TestExitStopsScriptWithStatus(t *testing.T) {
	var out bytes.Buffer
	s := New(WithStdout(&out))
	status := mustRun(t, s, "echo before\nexit 7\necho after\n")
	if got := out.String(); got != "before\n" {
		t.Errorf("stdout = %q, want %q (exit must stop the script)", got, "before\n")
	}
	if status != 7 {
		t.Errorf("status = %d, want 7", status)
	}
}
