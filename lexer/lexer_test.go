package lexer

import (
	"testing"

	"github.com/tv-labs/bash/token"
)

func kinds(toks []Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func wantKinds(t *testing.T, src string, want ...token.Kind) {
	t.Helper()
	res := Tokenize([]byte(src), Options{})
	got := kinds(res.Tokens)
	if len(got) != len(want) {
		t.Fatalf("Tokenize(%q) = %v, want %v", src, got, want)
	}
	for i, k := range want {
		if got[i] != k {
			t.Errorf("Tokenize(%q)[%d] = %v, want %v (full: %v)", src, i, got[i], k, got)
		}
	}
}

func TestTokenizeSimpleCommand(t *testing.T) {
	wantKinds(t, "echo hi\n", token.WORD, token.WORD, token.NEWLINE, token.EOF)
}

func TestTokenizeAssignWord(t *testing.T) {
	res := Tokenize([]byte("x=1\n"), Options{})
	got := kinds(res.Tokens)
	want := []token.Kind{token.ASSIGN_WORD, token.NEWLINE, token.EOF}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("Tokenize(%q) = %v, want %v", "x=1\n", got, want)
	}
	if res.Tokens[0].AssignName != "x" {
		t.Errorf("AssignName = %q, want %q", res.Tokens[0].AssignName, "x")
	}
	if res.Tokens[0].AssignPlus {
		t.Errorf("AssignPlus = true, want false")
	}
}

func TestTokenizePlusAssign(t *testing.T) {
	res := Tokenize([]byte("x+=1\n"), Options{})
	if !res.Tokens[0].AssignPlus {
		t.Errorf("AssignPlus = false, want true")
	}
}

func TestTokenizePipeline(t *testing.T) {
	wantKinds(t, "a | b\n", token.WORD, token.PIPE, token.WORD, token.NEWLINE, token.EOF)
}

func TestTokenizeAndOr(t *testing.T) {
	wantKinds(t, "a && b || c\n",
		token.WORD, token.LAND, token.WORD, token.LOR, token.WORD, token.NEWLINE, token.EOF)
}

func TestTokenizeRedirFD(t *testing.T) {
	res := Tokenize([]byte("cmd 2>&1\n"), Options{})
	var fdTok *Token
	for i := range res.Tokens {
		if res.Tokens[i].FD == 2 {
			fdTok = &res.Tokens[i]
			break
		}
	}
	if fdTok == nil {
		t.Fatalf("no token with FD=2 in %v", res.Tokens)
	}
}

func TestTokenizeComment(t *testing.T) {
	res := Tokenize([]byte("echo hi # trailing\n"), Options{})
	var found bool
	for _, tk := range res.Tokens {
		if tk.Kind == token.COMMENT {
			found = true
			if tk.Raw != "# trailing" {
				t.Errorf("comment Raw = %q, want %q", tk.Raw, "# trailing")
			}
		}
	}
	if !found {
		t.Fatalf("no COMMENT token found in %v", res.Tokens)
	}
}

func TestTokenizeShebang(t *testing.T) {
	res := Tokenize([]byte("#!/bin/bash\necho hi\n"), Options{})
	if len(res.Tokens) == 0 || res.Tokens[0].Kind != token.SHEBANG {
		t.Fatalf("first token = %+v, want SHEBANG", res.Tokens[0])
	}
	if res.Tokens[0].Raw != "/bin/bash" {
		t.Errorf("shebang Raw = %q, want %q", res.Tokens[0].Raw, "/bin/bash")
	}
}

func TestTokenizeShebangLeadingWhitespaceWarns(t *testing.T) {
	res := Tokenize([]byte(" #!/bin/bash\necho hi\n"), Options{})
	if len(res.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for leading whitespace before shebang")
	}
}

func TestTokenizeBraceExpand(t *testing.T) {
	res := Tokenize([]byte("echo {a,b,c}\n"), Options{BraceExpand: true})
	if len(res.Tokens) < 3 {
		t.Fatalf("too few tokens: %v", res.Tokens)
	}
	w := res.Tokens[1].Word
	if w == nil || len(w.Parts) != 1 {
		t.Fatalf("word parts = %v, want a single BraceExpand part", w)
	}
}

func TestDigitsPrecedeRedirDistinguishesFDFromWord(t *testing.T) {
	res := Tokenize([]byte("echo 2\n"), Options{})
	got := kinds(res.Tokens)
	want := []token.Kind{token.WORD, token.WORD, token.NEWLINE, token.EOF}
	if len(got) != len(want) || got[1] != token.WORD {
		t.Fatalf("Tokenize(%q) = %v, want a plain WORD for the bare digit", "echo 2\n", got)
	}
}
