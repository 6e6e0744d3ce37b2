package interp

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/tv-labs/bash/ast"
)

// execPipeline runs a|b|c with streaming fd-to-fd connections between
// stages (os.Pipe, not full buffering), recording each stage's exit
// status in PIPESTATUS and returning the last stage's status (or the
// first, under `set -o pipefail`), per spec.md §4.2.
func (s *Session) execPipeline(ctx context.Context, p *ast.Pipeline) (int, error) {
	n := len(p.Stmts)
	if n == 1 {
		status, err := s.execStmt(ctx, p.Stmts[0])
		s.pipeStatus = []int{status}
		if p.Negate {
			return negateStatus(status), err
		}
		return status, err
	}

	type stage struct {
		session *Session
		stmt    *ast.Stmt
	}
	stages := make([]stage, n)
	var readers []*os.File
	var writers []*os.File
	for i := 0; i < n-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			return 1, err
		}
		readers = append(readers, r)
		writers = append(writers, w)
	}
	for i := 0; i < n; i++ {
		clone := s.clone()
		if i > 0 {
			clone.Stdin = readers[i-1]
		}
		if i < n-1 {
			clone.Stdout = writers[i]
		}
		stages[i] = stage{session: clone, stmt: p.Stmts[i]}
	}

	results := make([]int, n)
	g, gctx := errgroup.WithContext(ctx)
	var lastErr error
	for i := range stages {
		i := i
		g.Go(func() error {
			st, err := stages[i].session.execStmt(gctx, stages[i].stmt)
			if i > 0 {
				readers[i-1].Close()
			}
			if i < n-1 {
				writers[i].Close()
			}
			results[i] = st
			if i == n-1 {
				lastErr = err
			}
			return nil
		})
	}
	// Stage errors (other than the last stage's, returned separately
	// below) surface as a non-zero status rather than aborting the
	// group: a failing command in the middle of a pipeline must not
	// stop its neighbors from draining their pipe ends.
	_ = g.Wait()

	s.pipeStatus = append([]int{}, results...)
	status := results[n-1]
	if s.OptionOn("pipefail") {
		for i := 0; i < n; i++ {
			if results[i] != 0 {
				status = results[i]
				break
			}
		}
	}
	if p.Negate {
		status = negateStatus(status)
	}
	return status, lastErr
}

func negateStatus(status int) int {
	if status == 0 {
		return 1
	}
	return 0
}
