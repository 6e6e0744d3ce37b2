package bash

import (
	"bytes"
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
)

func runScript(t *testing.T, src string) (string, int) {
	t.Helper()
	var out bytes.Buffer
	sess := NewSession(WithStdout(&out), WithStderr(&out))
	res, err := sess.Run(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return out.String(), res.ExitCode
}

func TestRunEcho(t *testing.T) {
	c := qt.New(t)
	out, code := runScript(t, "echo hello world\n")
	c.Assert(out, qt.Equals, "hello world\n")
	c.Assert(code, qt.Equals, 0)
}

func TestRunExitStatus(t *testing.T) {
	c := qt.New(t)
	_, code := runScript(t, "exit 3\n")
	c.Assert(code, qt.Equals, 3)
}

func TestRunVariablesAndArithmetic(t *testing.T) {
	c := qt.New(t)
	out, code := runScript(t, "x=2\necho $((x + 3))\n")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Equals, "5\n")
}

func TestRunPipeline(t *testing.T) {
	c := qt.New(t)
	out, code := runScript(t, "echo hi | cat\n")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Equals, "hi\n")
}

func TestRunIfClause(t *testing.T) {
	c := qt.New(t)
	out, code := runScript(t, "if true; then echo yes; else echo no; fi\n")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Equals, "yes\n")
}

func TestRunForLoop(t *testing.T) {
	c := qt.New(t)
	out, code := runScript(t, "for i in a b c; do echo $i; done\n")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Equals, "a\nb\nc\n")
}

func TestRunFunctionCall(t *testing.T) {
	c := qt.New(t)
	out, code := runScript(t, "greet() { echo \"hi $1\"; }\ngreet world\n")
	c.Assert(code, qt.Equals, 0)
	c.Assert(out, qt.Equals, "hi world\n")
}

func TestParseAndFormatRoundTrip(t *testing.T) {
	c := qt.New(t)
	res := Parse([]byte("echo hi\n"))
	c.Assert(res.HasErrors(), qt.IsFalse)
	out, err := FormatScript(res.Script)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "echo hi\n")
}

func TestValidateReportsDuplicateFunc(t *testing.T) {
	c := qt.New(t)
	src := []byte("f() { :; }\nf() { :; }\n")
	res := Parse(src)
	c.Assert(res.HasErrors(), qt.IsFalse)
	diags := Validate(src, res.Script)
	c.Assert(len(diags) > 0, qt.IsTrue)
}
