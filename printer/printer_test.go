package printer_test

import (
	"testing"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/parser"
	"github.com/tv-labs/bash/printer"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	res := parser.Parse([]byte(src), parser.Options{BraceExpand: true})
	if len(res.Diagnostics) > 0 {
		t.Fatalf("parse %q: %v", src, res.Diagnostics)
	}
	return res.Script
}

func TestStringRendersSimpleCommand(t *testing.T) {
	sc := mustParse(t, "echo hi\n")
	out, err := printer.String(sc)
	if err != nil {
		t.Fatal(err)
	}
	if out != "echo hi\n" {
		t.Errorf("String = %q, want %q", out, "echo hi\n")
	}
}

func TestStringIsIdempotent(t *testing.T) {
	sc := mustParse(t, "if true; then\n\techo yes\nfi\n")
	first, err := printer.String(sc)
	if err != nil {
		t.Fatal(err)
	}
	reparsed := mustParse(t, first)
	second, err := printer.String(reparsed)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("formatting is not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestStringRendersForLoop(t *testing.T) {
	sc := mustParse(t, "for i in a b c; do\n\techo $i\ndone\n")
	out, err := printer.String(sc)
	if err != nil {
		t.Fatal(err)
	}
	want := "for i in a b c; do\n\techo $i\ndone\n"
	if out != want {
		t.Errorf("String = %q, want %q", out, want)
	}
}
