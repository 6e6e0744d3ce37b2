package interp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/expand"
)

// applyRedirects opens every redirect target in order, swapping the
// session's current stdin/stdout/stderr, and returns a func that
// undoes all of them in reverse order. Only descriptors 0, 1 and 2 are
// modeled; a redirect naming any other descriptor is accepted
// syntactically but has no observable effect, since this interpreter
// keeps three standard streams rather than a full fd table.
func (s *Session) applyRedirects(rs []*ast.Redirect) (func(), error) {
	var restores []func()
	undo := func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}
	for _, r := range rs {
		restore, err := s.applyOneRedirect(r)
		if err != nil {
			undo()
			return nil, err
		}
		restores = append(restores, restore)
	}
	return undo, nil
}

func (s *Session) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Dir, p)
}

func (s *Session) applyOneRedirect(r *ast.Redirect) (func(), error) {
	if r.Heredoc {
		return s.applyHeredoc(r)
	}
	switch r.Op {
	case "<":
		path, err := expand.Value(r.Target.Word, s)
		if err != nil {
			return nil, err
		}
		f, err := os.Open(s.resolvePath(path))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s.swapStdin(r.FD, f), nil
	case ">", ">|", "&>":
		return s.openOutput(r, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	case ">>", "&>>":
		return s.openOutput(r, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
	case "<>":
		path, err := expand.Value(r.Target.Word, s)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(s.resolvePath(path), os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		restoreIn := s.swapStdin(r.FD, f)
		restoreOut := s.swapStdout(r.FD, f)
		return func() { restoreOut(); restoreIn() }, nil
	case "<<<":
		val, err := expand.Value(r.Target.Word, s)
		if err != nil {
			return nil, err
		}
		return s.pipeToStdin(val + "\n")
	case "<&", ">&":
		return s.dupOrClose(r)
	default:
		return func() {}, nil
	}
}

func (s *Session) openOutput(r *ast.Redirect, flags int) (func(), error) {
	path, err := expand.Value(r.Target.Word, s)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.resolvePath(path), flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Both || r.Op == "&>" || r.Op == "&>>" {
		restoreOut := s.swapStdout(1, f)
		restoreErr := s.swapStderr(2, f)
		return func() { restoreErr(); restoreOut(); f.Close() }, nil
	}
	fd := r.FD
	if fd == -1 {
		fd = 1
	}
	if fd == 2 {
		restore := s.swapStderr(2, f)
		return func() { restore(); f.Close() }, nil
	}
	restore := s.swapStdout(1, f)
	return func() { restore(); f.Close() }, nil
}

func (s *Session) swapStdin(fd int, f *os.File) func() {
	old := s.Stdin
	s.Stdin = f
	return func() { s.Stdin = old; f.Close() }
}

func (s *Session) swapStdout(fd int, f *os.File) func() {
	old := s.Stdout
	s.Stdout = f
	return func() { s.Stdout = old }
}

func (s *Session) swapStderr(fd int, f *os.File) func() {
	old := s.Stderr
	s.Stderr = f
	return func() { s.Stderr = old }
}

func (s *Session) pipeToStdin(content string) (func(), error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	go func() {
		io.WriteString(w, content)
		w.Close()
	}()
	old := s.Stdin
	s.Stdin = r
	return func() { s.Stdin = old; r.Close() }, nil
}

func (s *Session) applyHeredoc(r *ast.Redirect) (func(), error) {
	body, err := expand.Value(r.HeredocBody, s)
	if err != nil {
		return nil, err
	}
	if r.StripTabs {
		body = stripLeadingTabs(body)
	}
	return s.pipeToStdin(body)
}

func stripLeadingTabs(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimLeft(l, "\t")
	}
	return strings.Join(lines, "\n")
}

// dupOrClose handles N<&M, N>&M, N<&- and N>&- forms. Since only fds
// 0/1/2 are modeled, only dup/close among those three has any effect.
func (s *Session) dupOrClose(r *ast.Redirect) (func(), error) {
	fd := r.FD
	if fd == -1 {
		if r.Op == "<&" {
			fd = 0
		} else {
			fd = 1
		}
	}
	if r.Target.Close {
		switch fd {
		case 0:
			old := s.Stdin
			s.Stdin = eofReader{}
			return func() { s.Stdin = old }, nil
		case 1:
			old := s.Stdout
			s.Stdout = io.Discard
			return func() { s.Stdout = old }, nil
		case 2:
			old := s.Stderr
			s.Stderr = io.Discard
			return func() { s.Stderr = old }, nil
		}
		return func() {}, nil
	}
	if r.Target.IsFD {
		src := r.Target.FD
		switch fd {
		case 0:
			// Duplicating stdin from another fd isn't modeled; only
			// self-duplication (0<&0) is a meaningful no-op here.
			return func() {}, nil
		case 1, 2:
			var stream io.Writer
			switch src {
			case 1:
				stream = s.Stdout
			case 2:
				stream = s.Stderr
			default:
				return func() {}, nil
			}
			if fd == 1 {
				old := s.Stdout
				s.Stdout = stream
				return func() { s.Stdout = old }, nil
			}
			old := s.Stderr
			s.Stderr = stream
			return func() { s.Stderr = old }, nil
		}
	}
	return func() {}, nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
