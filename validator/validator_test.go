package validator

import (
	"testing"

	"github.com/tv-labs/bash/parser"
)

func parseOK(t *testing.T, src string) *parser.Result {
	t.Helper()
	res := parser.Parse([]byte(src), parser.Options{BraceExpand: true})
	return &res
}

func TestValidateEmptyGroup(t *testing.T) {
	res := parseOK(t, "{ }\n")
	diags := Validate([]byte("{ }\n"), res.Script)
	if len(diags) != 1 || diags[0].Code != "SC1113" {
		t.Fatalf("want one SC1113 diagnostic, got %+v", diags)
	}
}

func TestValidateNonEmptyGroupIsFine(t *testing.T) {
	res := parseOK(t, "{ echo hi; }\n")
	diags := Validate([]byte("{ echo hi; }\n"), res.Script)
	if len(diags) != 0 {
		t.Fatalf("want no diagnostics, got %+v", diags)
	}
}

func TestValidateDuplicateFunction(t *testing.T) {
	src := "foo() { echo a; }\nfoo() { echo b; }\n"
	res := parseOK(t, src)
	diags := Validate([]byte(src), res.Script)
	if len(diags) != 1 || diags[0].Code != "SC2035" {
		t.Fatalf("want one SC2035 diagnostic, got %+v", diags)
	}
}

func TestValidateUnknownSetOption(t *testing.T) {
	src := "set -o bogus\n"
	res := parseOK(t, src)
	diags := Validate([]byte(src), res.Script)
	if len(diags) != 1 || diags[0].Code != "SC2034" {
		t.Fatalf("want one SC2034 diagnostic, got %+v", diags)
	}
}

func TestValidateKnownSetOption(t *testing.T) {
	src := "set -o errexit -u\n"
	res := parseOK(t, src)
	diags := Validate([]byte(src), res.Script)
	if len(diags) != 0 {
		t.Fatalf("want no diagnostics, got %+v", diags)
	}
}

func TestLineColMapping(t *testing.T) {
	src := "echo a\necho b\n{ }\n"
	res := parser.Parse([]byte(src), parser.Options{})
	diags := Validate([]byte(src), res.Script)
	if len(diags) != 1 {
		t.Fatalf("want one diagnostic, got %+v", diags)
	}
	if diags[0].Line != 3 {
		t.Fatalf("want line 3, got %d", diags[0].Line)
	}
}
