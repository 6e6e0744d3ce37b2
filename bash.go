// Package bash is the embedding surface described in spec.md §6: parse
// a script into an AST, validate it for ShellCheck-style diagnostics,
// format it back to text, and run it against a Session.
//
// Grounded on mvdan.cc/sh/v3's top-level package shape (syntax.Parse +
// interp.Runner + shell.Expand as three independently usable layers
// glued together by a thin caller), collapsed here into one small
// facade since this module's lexer/parser/validator/interp stack is
// entirely its own rather than re-exporting a vendored dependency.
package bash

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tv-labs/bash/ast"
	"github.com/tv-labs/bash/diag"
	"github.com/tv-labs/bash/interp"
	"github.com/tv-labs/bash/parser"
	"github.com/tv-labs/bash/printer"
	"github.com/tv-labs/bash/validator"
)

// ParseResult is a parsed script plus every diagnostic the lexer and
// parser produced along the way; Script may still be non-nil (partial)
// even when Diagnostics is non-empty.
type ParseResult struct {
	Script      *ast.Script
	Diagnostics []*diag.Diagnostic
}

// HasErrors reports whether any diagnostic in the result is fatal
// enough that the parse should be treated as failed.
func (r ParseResult) HasErrors() bool {
	return len(r.Diagnostics) > 0
}

// Parse tokenizes and parses a script's source text.
func Parse(source []byte) ParseResult {
	res := parser.Parse(source, parser.Options{BraceExpand: true})
	return ParseResult{Script: res.Script, Diagnostics: res.Diagnostics}
}

// Validate runs the residual semantic checks (spec.md §4.3) against an
// already-parsed script: empty compound bodies, duplicate function
// definitions, unknown `set` options.
func Validate(source []byte, sc *ast.Script) []*diag.Diagnostic {
	return validator.Validate(source, sc)
}

// Format parses source and renders it back to canonical text. Callers
// that already have a *ast.Script (e.g. after calling Parse once)
// should call FormatScript instead to avoid reparsing.
func Format(source []byte) (string, error) {
	res := Parse(source)
	if res.Script == nil {
		return "", diagError(res.Diagnostics)
	}
	return FormatScript(res.Script)
}

// FormatScript renders an already-parsed script back to text.
func FormatScript(sc *ast.Script) (string, error) {
	return printer.String(sc)
}

func diagError(ds []*diag.Diagnostic) error {
	if len(ds) == 0 {
		return fmt.Errorf("bash: parse failed with no diagnostics")
	}
	var b strings.Builder
	for _, d := range ds {
		b.WriteString(d.Error())
		b.WriteString("\n")
	}
	return fmt.Errorf("%s", strings.TrimRight(b.String(), "\n"))
}

// Session is the embedding handle for repeated execution against one
// persistent shell state (variables, functions, options survive across
// Run calls on the same Session, the way a long-lived bash process
// does).
type Session struct {
	rt *interp.Session
}

// NewSession builds a Session configured by opts.
func NewSession(opts ...interp.Option) *Session {
	return &Session{rt: interp.New(opts...)}
}

// Option re-exports interp's functional options so callers don't need
// to import the interp package directly for common configuration.
type Option = interp.Option

var (
	WithDir        = interp.WithDir
	WithStdin      = interp.WithStdin
	WithStdout     = interp.WithStdout
	WithStderr     = interp.WithStderr
	WithArgs       = interp.WithArgs
	WithScriptName = interp.WithScriptName
)

// ExecutionResult reports a completed Run/RunFile call's outcome.
type ExecutionResult struct {
	ExitCode    int
	Diagnostics []*diag.Diagnostic
}

// Success reports whether the script parsed without fatal diagnostics
// and exited with status 0.
func (r ExecutionResult) Success() bool {
	return len(r.Diagnostics) == 0 && r.ExitCode == 0
}

// Run parses, validates, and executes source against the Session,
// returning the exit status of the last command run.
func (s *Session) Run(ctx context.Context, source []byte) (ExecutionResult, error) {
	res := Parse(source)
	if res.Script == nil || res.HasErrors() {
		return ExecutionResult{ExitCode: 2, Diagnostics: res.Diagnostics}, diagError(res.Diagnostics)
	}
	diags := append([]*diag.Diagnostic{}, res.Diagnostics...)
	diags = append(diags, Validate(source, res.Script)...)
	code, err := s.rt.Run(ctx, res.Script)
	return ExecutionResult{ExitCode: code, Diagnostics: diags}, err
}

// RunFile reads and runs the script at path.
func (s *Session) RunFile(ctx context.Context, path string) (ExecutionResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return ExecutionResult{ExitCode: 127}, err
	}
	return s.Run(ctx, source)
}

// Underlying exposes the interp.Session backing this Session, for
// callers that need direct variable/function access beyond what this
// facade provides.
func (s *Session) Underlying() *interp.Session { return s.rt }

// Run is a convenience one-shot: build a default Session and execute
// source once.
func Run(ctx context.Context, source []byte, opts ...interp.Option) (ExecutionResult, error) {
	return NewSession(opts...).Run(ctx, source)
}
