// Package host is the thin OS-facing layer interp uses to spawn
// external commands and wire up process substitution: os/exec for
// child processes, golang.org/x/sys/unix for the FIFOs `<(...)` and
// `>(...)` need.
//
// Grounded on mvdan.cc/sh/v3/interp's split between the interpreter
// (syntax-driven control flow) and the OS calls it makes along the way
// (os/exec.Cmd construction in interp/interp.go's fields() and the
// process-substitution FIFO handling scattered through
// interp/runner.go and interp/os.go in the teacher).
package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Command wraps the pieces of an external process invocation the
// executor needs to assemble before starting it.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Start resolves Name against PATH (unless it contains a slash) and
// starts the process, returning the running *exec.Cmd so the caller
// can Wait on it as part of a pipeline.
func Start(ctx context.Context, c Command) (*exec.Cmd, error) {
	path := c.Name
	if needsLookup(path) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return nil, fmt.Errorf("%s: command not found", c.Name)
		}
		path = resolved
	}
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func needsLookup(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return false
		}
	}
	return true
}

// ExitCode extracts the process exit status Wait returned, mapping a
// nil error to 0 and an *exec.ExitError to its wrapped status; any
// other error (failure to even start/wait) is returned unchanged so
// the caller can tell a real exec failure from a nonzero exit.
func ExitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// MkFIFO creates a named pipe at path for process substitution,
// mode 0600, removing any stale file at that path first.
func MkFIFO(path string) error {
	_ = os.Remove(path)
	return unix.Mkfifo(path, 0o600)
}
