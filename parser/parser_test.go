package parser

import (
	"testing"

	"github.com/tv-labs/bash/ast"
)

func parseNoDiags(t *testing.T, src string) *ast.Script {
	t.Helper()
	res := Parse([]byte(src), Options{BraceExpand: true})
	if len(res.Diagnostics) > 0 {
		t.Fatalf("Parse(%q) produced diagnostics: %v", src, res.Diagnostics)
	}
	return res.Script
}

func litArg(t *testing.T, w *ast.Word) string {
	t.Helper()
	lit, ok := w.Lit()
	if !ok {
		t.Fatalf("word %+v is not a plain literal", w)
	}
	return lit
}

func TestParseSimpleCommand(t *testing.T) {
	sc := parseNoDiags(t, "echo hi\n")
	if len(sc.Stmts) != 1 {
		t.Fatalf("Stmts = %d, want 1", len(sc.Stmts))
	}
	call, ok := sc.Stmts[0].Cmd.(*ast.CallExpr)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.CallExpr", sc.Stmts[0].Cmd)
	}
	if len(call.Args) != 2 || litArg(t, call.Args[0]) != "echo" || litArg(t, call.Args[1]) != "hi" {
		t.Errorf("Args = %v, want [echo hi]", call.Args)
	}
}

func TestParsePipeline(t *testing.T) {
	sc := parseNoDiags(t, "echo hi | cat\n")
	pl, ok := sc.Stmts[0].Cmd.(*ast.Pipeline)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.Pipeline", sc.Stmts[0].Cmd)
	}
	if len(pl.Stmts) != 2 {
		t.Fatalf("Pipeline.Stmts = %d, want 2", len(pl.Stmts))
	}
}

func TestParseAndOr(t *testing.T) {
	sc := parseNoDiags(t, "a && b || c\n")
	top, ok := sc.Stmts[0].Cmd.(*ast.BinaryCmd)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.BinaryCmd", sc.Stmts[0].Cmd)
	}
	if top.Op != ast.OrOp {
		t.Errorf("top-level Op = %v, want OrOp (|| binds a&&b together first)", top.Op)
	}
	left, ok := top.X.Cmd.(*ast.BinaryCmd)
	if !ok {
		t.Fatalf("X.Cmd = %T, want *ast.BinaryCmd", top.X.Cmd)
	}
	if left.Op != ast.AndOp {
		t.Errorf("left Op = %v, want AndOp", left.Op)
	}
}

func TestParseBackground(t *testing.T) {
	sc := parseNoDiags(t, "sleep 1 &\n")
	if !sc.Stmts[0].Background {
		t.Errorf("Background = false, want true")
	}
}

func TestParseNegation(t *testing.T) {
	sc := parseNoDiags(t, "! true\n")
	if !sc.Stmts[0].Negate {
		t.Errorf("Negate = false, want true")
	}
}

func TestParseAssignmentPrefix(t *testing.T) {
	sc := parseNoDiags(t, "x=1 y=2 echo hi\n")
	st := sc.Stmts[0]
	if len(st.Assigns) != 2 {
		t.Fatalf("Assigns = %d, want 2", len(st.Assigns))
	}
}

func TestParseIfClause(t *testing.T) {
	sc := parseNoDiags(t, "if true; then echo yes; else echo no; fi\n")
	ic, ok := sc.Stmts[0].Cmd.(*ast.IfClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.IfClause", sc.Stmts[0].Cmd)
	}
	if !ic.HasElse || len(ic.Then) != 1 || len(ic.Else) != 1 {
		t.Errorf("IfClause = %+v, want HasElse with one Then and one Else stmt", ic)
	}
}

func TestParseElif(t *testing.T) {
	sc := parseNoDiags(t, "if a; then b; elif c; then d; fi\n")
	ic := sc.Stmts[0].Cmd.(*ast.IfClause)
	if len(ic.Elifs) != 1 {
		t.Fatalf("Elifs = %d, want 1", len(ic.Elifs))
	}
	if ic.HasElse {
		t.Errorf("HasElse = true, want false")
	}
}

func TestParseWhileLoop(t *testing.T) {
	sc := parseNoDiags(t, "while true; do echo hi; done\n")
	wc, ok := sc.Stmts[0].Cmd.(*ast.WhileClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.WhileClause", sc.Stmts[0].Cmd)
	}
	if wc.Until {
		t.Errorf("Until = true, want false")
	}
}

func TestParseUntilLoop(t *testing.T) {
	sc := parseNoDiags(t, "until false; do echo hi; done\n")
	wc := sc.Stmts[0].Cmd.(*ast.WhileClause)
	if !wc.Until {
		t.Errorf("Until = false, want true")
	}
}

func TestParseForInLoop(t *testing.T) {
	sc := parseNoDiags(t, "for i in a b c; do echo $i; done\n")
	fc, ok := sc.Stmts[0].Cmd.(*ast.ForClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.ForClause", sc.Stmts[0].Cmd)
	}
	if fc.Arith {
		t.Errorf("Arith = true, want false")
	}
	if fc.Name != "i" || len(fc.Items) != 3 {
		t.Errorf("ForClause = %+v, want Name=i with 3 items", fc)
	}
}

func TestParseCStyleForLoop(t *testing.T) {
	sc := parseNoDiags(t, "for ((i=0; i<3; i++)); do echo $i; done\n")
	fc := sc.Stmts[0].Cmd.(*ast.ForClause)
	if !fc.Arith {
		t.Fatalf("Arith = false, want true")
	}
	if fc.Init == "" || fc.CondExpr == "" || fc.Post == "" {
		t.Errorf("ForClause arith fields = %+v, want all non-empty", fc)
	}
}

func TestParseFuncDecl(t *testing.T) {
	sc := parseNoDiags(t, "greet() { echo hi; }\n")
	fd, ok := sc.Stmts[0].Cmd.(*ast.FuncDecl)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.FuncDecl", sc.Stmts[0].Cmd)
	}
	if fd.Name != "greet" {
		t.Errorf("Name = %q, want %q", fd.Name, "greet")
	}
}

func TestParseSubshell(t *testing.T) {
	sc := parseNoDiags(t, "(echo hi)\n")
	if _, ok := sc.Stmts[0].Cmd.(*ast.Subshell); !ok {
		t.Fatalf("Cmd = %T, want *ast.Subshell", sc.Stmts[0].Cmd)
	}
}

func TestParseBlock(t *testing.T) {
	sc := parseNoDiags(t, "{ echo hi; }\n")
	if _, ok := sc.Stmts[0].Cmd.(*ast.Block); !ok {
		t.Fatalf("Cmd = %T, want *ast.Block", sc.Stmts[0].Cmd)
	}
}

func TestParseCaseClause(t *testing.T) {
	sc := parseNoDiags(t, "case $x in a) echo a;; b) echo b;; esac\n")
	cc, ok := sc.Stmts[0].Cmd.(*ast.CaseClause)
	if !ok {
		t.Fatalf("Cmd = %T, want *ast.CaseClause", sc.Stmts[0].Cmd)
	}
	if len(cc.Items) != 2 {
		t.Fatalf("Items = %d, want 2", len(cc.Items))
	}
}

func TestParseRedirect(t *testing.T) {
	sc := parseNoDiags(t, "echo hi > out.txt\n")
	st := sc.Stmts[0]
	if len(st.Redirects) != 1 {
		t.Fatalf("Redirects = %d, want 1", len(st.Redirects))
	}
}

func TestParseHeredoc(t *testing.T) {
	sc := parseNoDiags(t, "cat <<EOF\nhello\nEOF\n")
	st := sc.Stmts[0]
	if len(st.Redirects) != 1 {
		t.Fatalf("Redirects = %d, want 1", len(st.Redirects))
	}
}

func TestParseDoubleBracketTest(t *testing.T) {
	sc := parseNoDiags(t, "[[ -f foo && -n bar ]]\n")
	if _, ok := sc.Stmts[0].Cmd.(*ast.TestClause); !ok {
		t.Fatalf("Cmd = %T, want *ast.TestClause", sc.Stmts[0].Cmd)
	}
}

func TestParseArithCmd(t *testing.T) {
	sc := parseNoDiags(t, "((x = 1 + 2))\n")
	if _, ok := sc.Stmts[0].Cmd.(*ast.ArithCmd); !ok {
		t.Fatalf("Cmd = %T, want *ast.ArithCmd", sc.Stmts[0].Cmd)
	}
}

func TestParseSyntaxErrorReportsDiagnostic(t *testing.T) {
	res := Parse([]byte("if true; then echo hi\n"), Options{})
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for an unterminated if clause")
	}
}
