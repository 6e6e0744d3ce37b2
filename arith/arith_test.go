package arith

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

type fakeEnv map[string]string

func (e fakeEnv) Get(name string) string { return e[name] }
func (e fakeEnv) Set(name, val string)   { e[name] = val }

func TestEvalBasic(t *testing.T) {
	c := qt.New(t)
	cases := []struct {
		expr string
		want int64
	}{
		{"1 + 2", 3},
		{"2 * (3 + 4)", 14},
		{"2 ** 10", 1024},
		{"-2 ** 2", 4}, // unary binds tighter than **
		{"7 / 2", 3},
		{"7 % 2", 1},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"1 && 0", 0},
		{"0 || 1", 1},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"~0", -1},
		{"!0", 1},
		{"1 << 4", 16},
		{"16 >> 2", 4},
		{"5 & 3", 1},
		{"5 | 2", 7},
		{"5 ^ 1", 4},
		{"0xFF", 255},
		{"010", 8},
		{"16#FF", 255},
		{"2#1010", 10},
	}
	for _, tc := range cases {
		got, err := Eval(tc.expr, fakeEnv{})
		c.Assert(err, qt.IsNil, qt.Commentf("expr %q", tc.expr))
		c.Assert(got, qt.Equals, tc.want, qt.Commentf("expr %q", tc.expr))
	}
}

func TestEvalAssignment(t *testing.T) {
	c := qt.New(t)
	env := fakeEnv{"x": "5"}
	got, err := Eval("x += 3", env)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, int64(8))
	c.Assert(env["x"], qt.Equals, "8")
}

func TestEvalIncDec(t *testing.T) {
	c := qt.New(t)
	env := fakeEnv{"i": "0"}
	got, err := Eval("i++", env)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, int64(0))
	c.Assert(env["i"], qt.Equals, "1")

	got, err = Eval("++i", env)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, int64(2))
	c.Assert(env["i"], qt.Equals, "2")
}

func TestEvalVariableChaining(t *testing.T) {
	c := qt.New(t)
	env := fakeEnv{"a": "b", "b": "41"}
	got, err := Eval("a + 1", env)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, int64(42))
}

func TestEvalUnsetVariableDefaultsToZero(t *testing.T) {
	c := qt.New(t)
	got, err := Eval("missing + 1", fakeEnv{})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, int64(1))
}

func TestTruthyEmptyMeansForever(t *testing.T) {
	c := qt.New(t)
	ok, err := Truthy("", fakeEnv{})
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
}

func TestEvalDivisionByZeroIsZero(t *testing.T) {
	c := qt.New(t)
	got, err := Eval("1 / 0", fakeEnv{})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, int64(0))
}
