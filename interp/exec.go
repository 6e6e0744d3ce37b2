package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/expand"
	"github.com/tv-labs/bash/host"
)

// ctrlKind distinguishes the non-local-exit signals break/continue/
// return/exit unwind through the call stack as, mirroring
// mvdan.cc/sh/v3/interp's runErr/runReturn sentinel-error approach.
type ctrlKind int

const (
	ctrlBreak ctrlKind = iota
	ctrlContinue
	ctrlReturn
	ctrlExit
)

type ctrlSignal struct {
	kind   ctrlKind
	levels int
	status int
}

func (c *ctrlSignal) Error() string {
	switch c.kind {
	case ctrlBreak:
		return "break"
	case ctrlContinue:
		return "continue"
	case ctrlReturn:
		return "return"
	default:
		return "exit"
	}
}

// Run executes a whole script and returns the exit status of its last
// command, the way spec.md §6's Run entry point does.
func (s *Session) Run(ctx context.Context, script *ast.Script) (int, error) {
	status := 0
	for i := range script.Stmts {
		var err error
		status, err = s.execStmt(ctx, &script.Stmts[i])
		if err != nil {
			if cs, ok := err.(*ctrlSignal); ok && cs.kind == ctrlExit {
				return cs.status, nil
			}
			return status, err
		}
	}
	return status, nil
}

func (s *Session) execStmtList(ctx context.Context, stmts []ast.Stmt) (int, error) {
	status := 0
	for i := range stmts {
		var err error
		status, err = s.execStmt(ctx, &stmts[i])
		if err != nil {
			return status, err
		}
	}
	return status, nil
}

func (s *Session) execStmt(ctx context.Context, st *ast.Stmt) (int, error) {
	if st.Background {
		go func() {
			_, _ = s.execStmtInline(ctx, st)
		}()
		s.lastBgPID = os.Getpid()
		return 0, nil
	}
	return s.execStmtInline(ctx, st)
}

func (s *Session) execStmtInline(ctx context.Context, st *ast.Stmt) (int, error) {
	restore, err := s.applyRedirects(st.Redirects)
	if err != nil {
		s.lastStatus = 1
		fmt.Fprintln(s.Stderr, err)
		if s.OptionOn("errexit") {
			return 1, &ctrlSignal{kind: ctrlExit, status: 1}
		}
		return 1, nil
	}
	defer restore()

	status, err := s.execAssignOnly(ctx, st)
	if status >= 0 {
		return s.finish(status, st.Negate, err)
	}

	status, err = s.execWithAssigns(st.Assigns, func() (int, error) {
		return s.execCommand(ctx, st.Cmd)
	})
	return s.finish(status, st.Negate, err)
}

// execWithAssigns runs fn with st's prefix assignments (`VAR=val cmd`)
// temporarily set and exported, restoring whatever was there before
// once fn returns, per spec.md §4.5's command-scoped assignment rule.
func (s *Session) execWithAssigns(assigns []*ast.Assignment, fn func() (int, error)) (int, error) {
	if len(assigns) == 0 {
		return fn()
	}
	type saved struct {
		name string
		had  bool
		old  Variable
	}
	var saves []saved
	for _, a := range assigns {
		old, had := s.lookupVar(a.Name)
		var oldCopy Variable
		if had {
			oldCopy = *old
		}
		saves = append(saves, saved{a.Name, had, oldCopy})
		if err := s.applyAssignment(a); err != nil {
			return 1, err
		}
		v, _ := s.lookupVar(a.Name)
		v.Exported = true
	}
	status, err := fn()
	for _, sv := range saves {
		if sv.had {
			v := s.varOrCreate(sv.name)
			*v = sv.old
			continue
		}
		delete(s.global.vars, sv.name)
		for _, sc := range s.locals {
			delete(sc.vars, sv.name)
		}
	}
	return status, err
}

func (s *Session) finish(status int, negate bool, err error) (int, error) {
	if err != nil {
		if _, ok := err.(*ctrlSignal); ok {
			return status, err
		}
	}
	if negate {
		if status == 0 {
			status = 1
		} else {
			status = 0
		}
	}
	s.lastStatus = status
	if err == nil && status != 0 && s.OptionOn("errexit") {
		return status, &ctrlSignal{kind: ctrlExit, status: status}
	}
	return status, err
}

// execAssignOnly handles a bare `NAME=value ...` statement (no
// command word at all): returns status -1 to signal "not an
// assignment-only statement, keep going" to the caller.
func (s *Session) execAssignOnly(ctx context.Context, st *ast.Stmt) (int, error) {
	call, ok := st.Cmd.(*ast.CallExpr)
	if !ok || len(call.Args) > 0 {
		return -1, nil
	}
	for _, a := range st.Assigns {
		if err := s.applyAssignment(a); err != nil {
			return 1, err
		}
	}
	return 0, nil
}

func (s *Session) applyAssignment(a *ast.Assignment) error {
	if a.Array {
		idx := 0
		for _, el := range a.Elements {
			key := idx
			if el.Subscript != nil {
				v, err := expand.Value(el.Subscript, s)
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(v)
				if err == nil {
					key = n
				}
			}
			val, err := expand.Value(el.Value, s)
			if err != nil {
				return err
			}
			s.SetIndexed(a.Name, key, val)
			idx = key + 1
		}
		return nil
	}
	val, err := expand.Value(a.Value, s)
	if err != nil {
		return err
	}
	if a.Append {
		if cur, ok := s.lookupVar(a.Name); ok && cur.Kind == expand.VarScalar {
			val = cur.Scalar + val
		}
	}
	s.SetScalar(a.Name, val)
	return nil
}

func (s *Session) execCommand(ctx context.Context, cmd ast.Command) (int, error) {
	switch c := cmd.(type) {
	case *ast.CallExpr:
		return s.execCall(ctx, c)
	case *ast.Pipeline:
		return s.execPipeline(ctx, c)
	case *ast.BinaryCmd:
		return s.execBinary(ctx, c)
	case *ast.Block:
		return s.execStmtList(ctx, c.Stmts)
	case *ast.Subshell:
		return s.execSubshell(ctx, c)
	case *ast.IfClause:
		return s.execIf(ctx, c)
	case *ast.WhileClause:
		return s.execWhile(ctx, c)
	case *ast.ForClause:
		return s.execFor(ctx, c)
	case *ast.CaseClause:
		return s.execCase(ctx, c)
	case *ast.FuncDecl:
		s.funcs[c.Name] = c.Body
		return 0, nil
	case *ast.ArithCmd:
		n, err := s.arithEval(c.Expr)
		if err != nil {
			return 1, err
		}
		if n == 0 {
			return 1, nil
		}
		return 0, nil
	case *ast.TestClause:
		return s.execTestClause(c)
	case *ast.TestCommand:
		return s.execTestCommand(c)
	case *ast.CoprocClause:
		return s.execStmt(ctx, c.Stmt)
	case *ast.TimeClause:
		return s.execStmt(ctx, c.Stmt)
	default:
		return 1, fmt.Errorf("interp: unhandled command type %T", cmd)
	}
}

func (s *Session) execBinary(ctx context.Context, b *ast.BinaryCmd) (int, error) {
	switch b.Op {
	case ast.AndOp:
		// The left operand runs with errexit suspended.
		errexit := s.options["errexit"]
		s.options["errexit"] = false
		status, err := s.execStmt(ctx, b.X)
		s.options["errexit"] = errexit
		if err != nil || status != 0 {
			return status, err
		}
		return s.execStmt(ctx, b.Y)
	case ast.OrOp:
		errexit := s.options["errexit"]
		s.options["errexit"] = false
		status, err := s.execStmt(ctx, b.X)
		s.options["errexit"] = errexit
		if err != nil || status == 0 {
			return status, err
		}
		return s.execStmt(ctx, b.Y)
	default: // BgOp
		go func() { _, _ = s.execStmt(ctx, b.X) }()
		return s.execStmt(ctx, b.Y)
	}
}

func (s *Session) execIf(ctx context.Context, c *ast.IfClause) (int, error) {
	status, err := s.execStmtList(ctx, c.Cond)
	if err != nil {
		return status, err
	}
	if status == 0 {
		return s.execStmtList(ctx, c.Then)
	}
	for _, elif := range c.Elifs {
		status, err = s.execStmtList(ctx, elif.Cond)
		if err != nil {
			return status, err
		}
		if status == 0 {
			return s.execStmtList(ctx, elif.Then)
		}
	}
	if c.HasElse {
		return s.execStmtList(ctx, c.Else)
	}
	return 0, nil
}

func (s *Session) execWhile(ctx context.Context, c *ast.WhileClause) (int, error) {
	status := 0
	for {
		condStatus, err := s.execStmtList(ctx, c.Cond)
		if err != nil {
			return condStatus, err
		}
		cont := condStatus == 0
		if c.Until {
			cont = condStatus != 0
		}
		if !cont {
			break
		}
		status, err = s.execStmtList(ctx, c.Do)
		if brk, handled := handleLoopSignal(err); handled {
			if brk {
				break
			}
			continue
		} else if err != nil {
			return status, err
		}
	}
	return status, nil
}

// handleLoopSignal unwraps a break/continue ctrlSignal one loop level.
// ok is false if err is nil or not a loop-control signal (the caller
// should treat err as a real error); when ok is true, brk reports
// whether the loop should stop (true) or just skip to its next
// iteration (false).
func handleLoopSignal(err error) (brk bool, ok bool) {
	cs, isCtrl := err.(*ctrlSignal)
	if !isCtrl {
		return false, false
	}
	switch cs.kind {
	case ctrlBreak:
		if cs.levels > 1 {
			cs.levels--
			return true, false // keep propagating as an error upward after breaking this level
		}
		return true, true
	case ctrlContinue:
		if cs.levels > 1 {
			cs.levels--
			return true, false
		}
		return false, true
	}
	return false, false
}

func (s *Session) execFor(ctx context.Context, c *ast.ForClause) (int, error) {
	status := 0
	if c.Arith {
		if c.Init != "" {
			if _, err := s.arithEval(c.Init); err != nil {
				return 1, err
			}
		}
		for {
			if c.CondExpr != "" {
				n, err := s.arithEval(c.CondExpr)
				if err != nil {
					return 1, err
				}
				if n == 0 {
					break
				}
			}
			var err error
			status, err = s.execStmtList(ctx, c.Do)
			if brk, handled := handleLoopSignal(err); handled {
				if brk {
					break
				}
			} else if err != nil {
				return status, err
			}
			if c.Post != "" {
				if _, err := s.arithEval(c.Post); err != nil {
					return 1, err
				}
			}
		}
		return status, nil
	}
	items, err := expand.Fields(c.Items, s)
	if err != nil {
		return 1, err
	}
	for _, item := range items {
		s.SetScalar(c.Name, item)
		status, err = s.execStmtList(ctx, c.Do)
		if brk, handled := handleLoopSignal(err); handled {
			if brk {
				break
			}
			continue
		} else if err != nil {
			return status, err
		}
	}
	return status, nil
}

func (s *Session) execCase(ctx context.Context, c *ast.CaseClause) (int, error) {
	subject, err := expand.Value(c.Word, s)
	if err != nil {
		return 1, err
	}
	extglob := s.OptionOn("extglob")
	for i, item := range c.Items {
		matched := false
		for _, pw := range item.Patterns {
			pat, err := expand.Value(pw, s)
			if err != nil {
				return 1, err
			}
			if ok, _ := matchCasePattern(pat, subject, extglob); ok {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		status, err := s.execStmtList(ctx, item.Stmts)
		if err != nil {
			return status, err
		}
		if item.Term == ast.CaseFallthrough && i+1 < len(c.Items) {
			return s.execStmtList(ctx, c.Items[i+1].Stmts)
		}
		return status, nil
	}
	return 0, nil
}

func (s *Session) execSubshell(ctx context.Context, c *ast.Subshell) (int, error) {
	clone := s.clone()
	status, err := clone.execStmtList(ctx, c.Stmts)
	if cs, ok := err.(*ctrlSignal); ok && cs.kind == ctrlExit {
		return cs.status, nil
	}
	return status, err
}

// clone produces an independent Session sharing nothing mutable with
// s: subshells, command substitutions and process substitutions run
// against a clone so their variable/cwd changes don't leak back out,
// per spec.md §5's subshell semantics.
func (s *Session) clone() *Session {
	c := &Session{
		global:     newScope(),
		funcs:      map[string]*ast.Stmt{},
		options:    map[string]bool{},
		positional: [][]string{append([]string{}, s.curPositional()...)},
		Stdin:      s.Stdin,
		Stdout:     s.Stdout,
		Stderr:     s.Stderr,
		Dir:        s.Dir,
		start:      s.start,
		rng:        s.rng,
		traps:      map[string]*ast.Stmt{},
		lastStatus: s.lastStatus,
	}
	for k, v := range s.global.vars {
		cp := *v
		c.global.vars[k] = &cp
	}
	for name, body := range s.funcs {
		c.funcs[name] = body
	}
	for k, v := range s.options {
		c.options[k] = v
	}
	return c
}

func (s *Session) execCall(ctx context.Context, call *ast.CallExpr) (int, error) {
	if len(call.Args) == 0 {
		return 0, nil
	}
	fields, err := expand.Fields(call.Args, s)
	if err != nil {
		return 1, err
	}
	if len(fields) == 0 {
		return 0, nil
	}
	name := fields[0]
	args := fields[1:]

	if body, ok := s.funcs[name]; ok {
		return s.callFunc(ctx, body, args)
	}
	if fn, ok := builtins[name]; ok {
		return fn(ctx, s, args)
	}
	return s.execExternal(ctx, name, args)
}

func (s *Session) callFunc(ctx context.Context, body *ast.Stmt, args []string) (int, error) {
	s.positional = append(s.positional, args)
	s.pushLocals()
	s.funcDepth++
	defer func() {
		s.funcDepth--
		s.popLocals()
		s.positional = s.positional[:len(s.positional)-1]
	}()
	status, err := s.execStmt(ctx, body)
	if cs, ok := err.(*ctrlSignal); ok && cs.kind == ctrlReturn {
		return cs.status, nil
	}
	return status, err
}

func (s *Session) execExternal(ctx context.Context, name string, args []string) (int, error) {
	stdin, _ := s.Stdin.(*os.File)
	stdout, _ := s.Stdout.(*os.File)
	stderr, _ := s.Stderr.(*os.File)
	cmd := host.Command{
		Name: name, Args: args, Dir: s.Dir, Env: s.environList(),
		Stdin: stdin, Stdout: stdout, Stderr: stderr,
	}
	if stdin == nil {
		cmd.Stdin = passthroughFile(s.Stdin, false)
	}
	if stdout == nil {
		cmd.Stdout = passthroughFile(s.Stdout, true)
	}
	if stderr == nil {
		cmd.Stderr = passthroughFile(s.Stderr, true)
	}
	proc, err := host.Start(ctx, cmd)
	if err != nil {
		fmt.Fprintln(s.Stderr, err)
		return 127, nil
	}
	waitErr := proc.Wait()
	code, err := host.ExitCode(waitErr)
	if err != nil {
		return 1, err
	}
	return code, nil
}

// passthroughFile copies an io.Reader/io.Writer that isn't already an
// *os.File through an os.Pipe so external processes (which need real
// file descriptors) can still be wired to in-process buffers such as
// command-substitution capture or test harness buffers.
func passthroughFile(stream interface{}, isWriter bool) *os.File {
	r, w, err := os.Pipe()
	if err != nil {
		return nil
	}
	if isWriter {
		wr, _ := stream.(io.Writer)
		go func() {
			io.Copy(wr, r)
			r.Close()
		}()
		return w
	}
	rd, _ := stream.(io.Reader)
	go func() {
		if rd != nil {
			io.Copy(w, rd)
		}
		w.Close()
	}()
	return r
}

// RunCommandSubst executes a parsed command substitution body in a
// cloned session and captures its stdout, trimmed of trailing
// newlines per spec.md §4.4.
func (s *Session) RunCommandSubst(stmts []ast.Stmt) (string, error) {
	clone := s.clone()
	var buf strings.Builder
	clone.Stdout = &buf
	_, err := clone.execStmtList(context.Background(), stmts)
	if cs, ok := err.(*ctrlSignal); ok && cs.kind == ctrlExit {
		err = nil
		s.lastStatus = cs.status
	} else if err == nil {
		s.lastStatus = clone.lastStatus
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// ProcessSubst runs stmts in a cloned session with its stdout or
// stdin wired to one end of a FIFO, returning the FIFO path the
// caller substitutes into the word (e.g. diff <(sort a) <(sort b)).
func (s *Session) ProcessSubst(stmts []ast.Stmt, out bool) (string, error) {
	path := s.nextProcSubstPath()
	if err := host.MkFIFO(path); err != nil {
		return "", err
	}
	clone := s.clone()
	go func() {
		f, err := os.OpenFile(path, os.O_RDWR, 0)
		if err != nil {
			return
		}
		defer f.Close()
		defer os.Remove(path)
		if out {
			clone.Stdin = f
		} else {
			clone.Stdout = f
		}
		clone.execStmtList(context.Background(), stmts)
	}()
	return path, nil
}

func (s *Session) nextProcSubstPath() string {
	s.procSubstSeq++
	if s.procSubstDir == "" {
		s.procSubstDir = os.TempDir()
	}
	return s.procSubstDir + string(os.PathSeparator) + "bash-procsubst-" + strconv.Itoa(os.Getpid()) + "-" + strconv.Itoa(s.procSubstSeq)
}
