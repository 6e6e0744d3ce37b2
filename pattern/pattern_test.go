package pattern

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		glob, s string
		extglob bool
		want    bool
	}{
		{"*.go", "main.go", false, true},
		{"*.go", "main.c", false, false},
		{"foo?bar", "fooXbar", false, true},
		{"[abc]x", "bx", false, true},
		{"[!abc]x", "dx", false, true},
		{"@(foo|bar)", "bar", true, true},
		{"@(foo|bar)", "baz", true, false},
		{"+(ab)", "ababab", true, true},
	}
	for _, tc := range cases {
		got, err := Match(tc.glob, tc.s, tc.extglob)
		if err != nil {
			t.Fatalf("Match(%q, %q): %v", tc.glob, tc.s, err)
		}
		if got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.glob, tc.s, got, tc.want)
		}
	}
}

func TestRematch(t *testing.T) {
	m, err := Rematch(`([a-z]+)([0-9]+)`, "hello123")
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 3 || m[1] != "hello" || m[2] != "123" {
		t.Fatalf("unexpected submatches: %#v", m)
	}
}

func TestHasMeta(t *testing.T) {
	if !HasMeta("*.go") {
		t.Error("expected *.go to have meta")
	}
	if HasMeta("plain.txt") {
		t.Error("expected plain.txt to have no meta")
	}
}
