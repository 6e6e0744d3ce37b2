// Package interp is the executor: it walks the ast.Command tree a
// parser.Parse call produced and runs it, maintaining the variable
// store, function table, job list, and options a Session needs across
// statements.
//
// Grounded on mvdan.cc/sh/v3/interp's Runner/environment split
// (interp/interp.go's Runner struct, interp/vars.go's variable
// storage, interp/api.go's functional-option construction), rewritten
// against this module's ast.* node set and its own expand.Env/arith.Env
// contracts instead of the teacher's syntax.Stmt/expand.Environ pair.
package interp

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/expand"
)

// Variable is one shell variable: a scalar, an indexed array, or an
// associative array, plus the attributes `declare`/`typeset` can set.
type Variable struct {
	Kind    expand.VarKind
	Scalar  string
	Indexed map[int]string
	Assoc   map[string]string

	ReadOnly bool
	Exported bool
	Integer  bool
	Nameref  bool
	Lower    bool
	Upper    bool
}

func (v *Variable) view() expand.VarView {
	return expand.VarView{Kind: v.Kind, Scalar: v.Scalar, Indexed: v.Indexed, Assoc: v.Assoc}
}

// scope is one level of variable visibility: the global scope, or one
// `local` frame pushed by a function call.
type scope struct {
	vars map[string]*Variable
}

func newScope() *scope { return &scope{vars: map[string]*Variable{}} }

// Session holds all shell state: variables, functions, options, the
// positional-parameter stack, and the I/O a script runs against.
type Session struct {
	global *scope
	locals []*scope // innermost last

	funcs map[string]*ast.Stmt

	options map[string]bool

	positional [][]string // stack; top is current $1.. frame
	scriptName string

	lastStatus   int
	lastBgPID    int
	pipeStatus   []int
	funcDepth    int
	breakCount   int // set by `break N` while it propagates
	continueSkip int

	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	start time.Time
	rng   *rand.Rand

	traps map[string]*ast.Stmt

	procSubstDir string
	procSubstSeq int
}

// Option is a functional option configuring a new Session, mirroring
// mvdan.cc/sh/v3/interp's New(opts ...RunnerOption) constructor shape.
type Option func(*Session)

func WithDir(dir string) Option        { return func(s *Session) { s.Dir = dir } }
func WithStdin(r io.Reader) Option     { return func(s *Session) { s.Stdin = r } }
func WithStdout(w io.Writer) Option    { return func(s *Session) { s.Stdout = w } }
func WithStderr(w io.Writer) Option    { return func(s *Session) { s.Stderr = w } }
func WithArgs(args ...string) Option   { return func(s *Session) { s.positional = [][]string{append([]string{}, args...)} } }
func WithScriptName(name string) Option {
	return func(s *Session) { s.scriptName = name }
}

// New builds a Session with spec.md §4.6's default option values
// (errexit/nounset/xtrace off, braceexpand on, hashall on) and a
// minimal, POSIX-ish environment seeded from the process environment.
func New(opts ...Option) *Session {
	s := &Session{
		global: newScope(),
		funcs:  map[string]*ast.Stmt{},
		options: map[string]bool{
			"braceexpand": true,
			"hashall":     true,
		},
		positional: [][]string{nil},
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Dir:        ".",
		start:      time.Now(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		traps:      map[string]*ast.Stmt{},
	}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			s.global.vars[kv[:i]] = &Variable{Kind: expand.VarScalar, Scalar: kv[i+1:], Exported: true}
		}
	}
	if dir, err := os.Getwd(); err == nil && s.Dir == "." {
		s.Dir = dir
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) pushLocals() *scope {
	sc := newScope()
	s.locals = append(s.locals, sc)
	return sc
}

func (s *Session) popLocals() {
	s.locals = s.locals[:len(s.locals)-1]
}

func (s *Session) lookupVar(name string) (*Variable, bool) {
	for i := len(s.locals) - 1; i >= 0; i-- {
		if v, ok := s.locals[i].vars[name]; ok {
			return v, true
		}
	}
	v, ok := s.global.vars[name]
	return v, ok
}

// declareLocal creates name in the innermost local scope, shadowing
// any outer variable, as `local name` does.
func (s *Session) declareLocal(name string) *Variable {
	if len(s.locals) == 0 {
		return s.declareGlobal(name)
	}
	v := &Variable{Kind: expand.VarScalar}
	s.locals[len(s.locals)-1].vars[name] = v
	return v
}

func (s *Session) declareGlobal(name string) *Variable {
	v := &Variable{Kind: expand.VarScalar}
	s.global.vars[name] = v
	return v
}

func (s *Session) varOrCreate(name string) *Variable {
	if v, ok := s.lookupVar(name); ok {
		return v
	}
	for i := len(s.locals) - 1; i >= 0; i-- {
		if _, declaredHere := s.locals[i].vars[name]; declaredHere {
			v := &Variable{Kind: expand.VarScalar}
			s.locals[i].vars[name] = v
			return v
		}
	}
	return s.declareGlobal(name)
}

func (s *Session) special(name string) (string, bool) {
	switch name {
	case "?":
		return strconv.Itoa(s.lastStatus), true
	case "$":
		return strconv.Itoa(os.Getpid()), true
	case "!":
		return strconv.Itoa(s.lastBgPID), true
	case "#":
		return strconv.Itoa(len(s.curPositional())), true
	case "0":
		if s.scriptName != "" {
			return s.scriptName, true
		}
		return "bash", true
	case "RANDOM":
		return strconv.Itoa(s.rng.Intn(32768)), true
	case "SECONDS":
		return strconv.Itoa(int(time.Since(s.start).Seconds())), true
	case "PWD":
		return s.Dir, true
	case "PIPESTATUS":
		var parts []string
		for _, c := range s.pipeStatus {
			parts = append(parts, strconv.Itoa(c))
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

func (s *Session) curPositional() []string {
	return s.positional[len(s.positional)-1]
}

// --- expand.Env ---

func (s *Session) Lookup(name string) expand.VarView {
	if v, ok := s.special(name); ok {
		return expand.VarView{Kind: expand.VarScalar, Scalar: v}
	}
	if v, ok := s.lookupVar(name); ok {
		return v.view()
	}
	return expand.VarView{Kind: expand.VarUnset}
}

func (s *Session) Set(name, val string) {
	s.SetScalar(name, val)
}

// SetScalar assigns a plain scalar value, applying integer/upper/lower
// attributes if the variable already carries them.
func (s *Session) SetScalar(name, val string) {
	switch name {
	case "PWD":
		s.Dir = val
		return
	}
	v := s.varOrCreate(name)
	if v.ReadOnly {
		return
	}
	v.Kind = expand.VarScalar
	if v.Integer {
		if n, err := s.arithEval(val); err == nil {
			val = strconv.FormatInt(n, 10)
		}
	}
	v.Scalar = applyAttrs(v, val)
}

func applyAttrs(v *Variable, val string) string {
	if v.Upper {
		val = strings.ToUpper(val)
	}
	if v.Lower {
		val = strings.ToLower(val)
	}
	return val
}

func (s *Session) SetIndexed(name string, idx int, val string) {
	v := s.varOrCreate(name)
	if v.ReadOnly {
		return
	}
	if v.Kind != expand.VarIndexed {
		v.Kind = expand.VarIndexed
		v.Indexed = map[int]string{}
	}
	v.Indexed[idx] = val
}

func (s *Session) AppendIndexed(name string, val string) {
	v := s.varOrCreate(name)
	if v.Kind != expand.VarIndexed {
		v.Kind = expand.VarIndexed
		v.Indexed = map[int]string{}
	}
	n := 0
	for k := range v.Indexed {
		if k >= n {
			n = k + 1
		}
	}
	v.Indexed[n] = val
}

func (s *Session) SetAssoc(name, key, val string) {
	v := s.varOrCreate(name)
	if v.ReadOnly {
		return
	}
	if v.Kind != expand.VarAssoc {
		v.Kind = expand.VarAssoc
		v.Assoc = map[string]string{}
	}
	v.Assoc[key] = val
}

func (s *Session) IFS() string {
	if v, ok := s.lookupVar("IFS"); ok && v.Kind == expand.VarScalar {
		return v.Scalar
	}
	return " \t\n"
}

func (s *Session) OptionOn(name string) bool { return s.options[name] }

func (s *Session) Positional(i int) (string, bool) {
	p := s.curPositional()
	if i < 1 || i > len(p) {
		return "", false
	}
	return p[i-1], true
}

func (s *Session) NumPositional() int { return len(s.curPositional()) }

func (s *Session) NamesWithPrefix(prefix string) []string {
	var names []string
	seen := map[string]bool{}
	for _, sc := range s.locals {
		for n := range sc.vars {
			if strings.HasPrefix(n, prefix) && !seen[n] {
				names = append(names, n)
				seen[n] = true
			}
		}
	}
	for n := range s.global.vars {
		if strings.HasPrefix(n, prefix) && !seen[n] {
			names = append(names, n)
			seen[n] = true
		}
	}
	sort.Strings(names)
	return names
}

func (s *Session) ArithEval(expr string) (int64, error) {
	return s.arithEval(expr)
}

func (s *Session) Home(user string) (string, bool) {
	if user != "" {
		return "", false
	}
	if v, ok := s.lookupVar("HOME"); ok {
		return v.Scalar, true
	}
	if h, ok := os.LookupEnv("HOME"); ok {
		return h, true
	}
	return "", false
}

// environList builds the os/exec-ready KEY=VALUE slice from every
// exported variable, for spawning external commands.
func (s *Session) environList() []string {
	var out []string
	for name, v := range s.global.vars {
		if v.Exported && v.Kind == expand.VarScalar {
			out = append(out, fmt.Sprintf("%s=%s", name, v.Scalar))
		}
	}
	sort.Strings(out)
	return out
}
