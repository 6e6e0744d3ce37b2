package interp

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/expand"
	"github.com/tv-labs/bash/pattern"
)

func matchCasePattern(pat, s string, extglob bool) (bool, error) {
	return pattern.Match(pat, s, extglob)
}

// testParser walks a flat ast.TestOperand sequence with operator
// precedence climbing: ! binds tightest, then binary/unary tests,
// then &&, then ||, matching spec.md §4.3's [[ ]] grammar.
type testParser struct {
	ops []ast.TestOperand
	pos int
	s   *Session
}

func (s *Session) execTestClause(c *ast.TestClause) (int, error) {
	tp := &testParser{ops: c.X, s: s}
	ok, err := tp.parseOr()
	if err != nil {
		return 2, err
	}
	if tp.pos != len(tp.ops) {
		return 2, fmt.Errorf("[[: unexpected trailing operand")
	}
	if ok {
		return 0, nil
	}
	return 1, nil
}

func (p *testParser) cur() (ast.TestOperand, bool) {
	if p.pos >= len(p.ops) {
		return ast.TestOperand{}, false
	}
	return p.ops[p.pos], true
}

func (p *testParser) parseOr() (bool, error) {
	left, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for {
		op, ok := p.cur()
		if !ok || op.Kind != ast.TestOrOp {
			return left, nil
		}
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		left = left || right
	}
}

func (p *testParser) parseAnd() (bool, error) {
	left, err := p.parseUnaryLevel()
	if err != nil {
		return false, err
	}
	for {
		op, ok := p.cur()
		if !ok || op.Kind != ast.TestAndOp {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnaryLevel()
		if err != nil {
			return false, err
		}
		left = left && right
	}
}

func (p *testParser) parseUnaryLevel() (bool, error) {
	op, ok := p.cur()
	if ok && op.Kind == ast.TestNotOp {
		p.pos++
		v, err := p.parseUnaryLevel()
		return !v, err
	}
	if ok && op.Kind == ast.TestLParen {
		p.pos++
		v, err := p.parseOr()
		if err != nil {
			return false, err
		}
		closer, ok := p.cur()
		if !ok || closer.Kind != ast.TestRParen {
			return false, fmt.Errorf("[[: expected )")
		}
		p.pos++
		return v, nil
	}
	if ok && op.Kind == ast.TestUnaryOp {
		p.pos++
		operand, ok := p.cur()
		if !ok || operand.Kind != ast.TestWord {
			return false, fmt.Errorf("[[: %s: unary operator expects one argument", op.Op)
		}
		p.pos++
		val, err := expand.Value(operand.Word, p.s)
		if err != nil {
			return false, err
		}
		return evalUnaryTest(op.Op, val)
	}
	// Binary test or bare word truthiness: WORD [OP WORD].
	if ok && op.Kind == ast.TestWord {
		p.pos++
		left, err := expand.Value(op.Word, p.s)
		if err != nil {
			return false, err
		}
		next, ok := p.cur()
		if ok && next.Kind == ast.TestBinaryOp {
			p.pos++
			rightOperand, ok := p.cur()
			if !ok || rightOperand.Kind != ast.TestWord {
				return false, fmt.Errorf("[[: %s: binary operator expects one argument", next.Op)
			}
			p.pos++
			right, err := expand.Value(rightOperand.Word, p.s)
			if err != nil {
				return false, err
			}
			return p.evalBinaryTest(next.Op, left, right)
		}
		return left != "", nil
	}
	return false, fmt.Errorf("[[: unexpected token in test expression")
}

func evalUnaryTest(op, val string) (bool, error) {
	switch op {
	case "-z":
		return val == "", nil
	case "-n":
		return val != "", nil
	case "-e", "-a":
		_, err := os.Stat(val)
		return err == nil, nil
	case "-f":
		fi, err := os.Stat(val)
		return err == nil && fi.Mode().IsRegular(), nil
	case "-d":
		fi, err := os.Stat(val)
		return err == nil && fi.IsDir(), nil
	case "-r", "-w", "-x":
		_, err := os.Stat(val)
		return err == nil, nil
	case "-s":
		fi, err := os.Stat(val)
		return err == nil && fi.Size() > 0, nil
	case "-L", "-h":
		fi, err := os.Lstat(val)
		return err == nil && fi.Mode()&os.ModeSymlink != 0, nil
	case "-o":
		return false, nil
	case "-v":
		return val != "", nil
	default:
		return false, fmt.Errorf("[[: %s: unknown unary operator", op)
	}
}

func (p *testParser) evalBinaryTest(op, left, right string) (bool, error) {
	switch op {
	case "=", "==":
		return matchCasePattern(right, left, p.s.OptionOn("extglob"))
	case "!=":
		ok, err := matchCasePattern(right, left, p.s.OptionOn("extglob"))
		return !ok, err
	case "<":
		return left < right, nil
	case ">":
		return left > right, nil
	case "=~":
		m, err := pattern.Rematch(right, left)
		if err != nil {
			return false, err
		}
		p.s.setRematch(m)
		return m != nil, nil
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		l, err := strconv.ParseInt(left, 10, 64)
		if err != nil {
			l = 0
		}
		r, err := strconv.ParseInt(right, 10, 64)
		if err != nil {
			r = 0
		}
		switch op {
		case "-eq":
			return l == r, nil
		case "-ne":
			return l != r, nil
		case "-lt":
			return l < r, nil
		case "-le":
			return l <= r, nil
		case "-gt":
			return l > r, nil
		default:
			return l >= r, nil
		}
	case "-nt", "-ot", "-ef":
		return false, nil
	default:
		return false, fmt.Errorf("[[: %s: unknown binary operator", op)
	}
}

func (s *Session) setRematch(m []string) {
	v := s.declareGlobalArrayIfAbsent("BASH_REMATCH")
	v.Kind = expand.VarIndexed
	v.Indexed = map[int]string{}
	for i, g := range m {
		v.Indexed[i] = g
	}
}

func (s *Session) declareGlobalArrayIfAbsent(name string) *Variable {
	if v, ok := s.global.vars[name]; ok {
		return v
	}
	v := &Variable{Kind: expand.VarIndexed, Indexed: map[int]string{}}
	s.global.vars[name] = v
	return v
}

// execTestCommand evaluates the POSIX `[ ... ]` / `test ...` form,
// whose words undergo ordinary command-style expansion and splitting
// (unlike [[ ]]) and whose operator arity is decided by argument count.
func (s *Session) execTestCommand(c *ast.TestCommand) (int, error) {
	args, err := expand.Fields(c.Args, s)
	if err != nil {
		return 2, err
	}
	ok, err := evalPosixTest(args, s)
	if err != nil {
		return 2, err
	}
	if ok {
		return 0, nil
	}
	return 1, nil
}

func evalPosixTest(args []string, s *Session) (bool, error) {
	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		if args[0] == "!" {
			ok, err := evalPosixTest(args[1:], s)
			return !ok, err
		}
		return evalUnaryTest(args[0], args[1])
	case 3:
		return (&testParser{s: s}).evalBinaryTest(args[1], args[0], args[2])
	case 4:
		if args[0] == "!" {
			ok, err := evalPosixTest(args[1:], s)
			return !ok, err
		}
		return false, fmt.Errorf("test: too many arguments")
	default:
		return false, fmt.Errorf("test: too many arguments")
	}
}
