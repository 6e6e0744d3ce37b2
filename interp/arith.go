package interp

import "github.com/tv-labs/bash/arith"

// arithEnv adapts Session to arith.Env, so $((...)) and `(( ))` share
// the same variable store as every other expansion.
type arithEnv struct{ s *Session }

func (e arithEnv) Get(name string) string {
	if v, ok := e.s.special(name); ok {
		return v
	}
	if v, ok := e.s.lookupVar(name); ok {
		return v.Scalar
	}
	return ""
}

func (e arithEnv) Set(name, val string) { e.s.SetScalar(name, val) }

func (s *Session) arithEval(expr string) (int64, error) {
	return arith.Eval(expr, arithEnv{s})
}

func (s *Session) arithTruthy(expr string) (bool, error) {
	return arith.Truthy(expr, arithEnv{s})
}
