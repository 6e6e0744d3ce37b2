// Command bash is a small CLI over this module's embedding API: run a
// script, check its syntax, or reformat it, exercising Parse/Validate/
// Format/Run end to end the way the teacher's gosh and shfmt commands
// each exercised one layer of mvdan.cc/sh/v3.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	maybeio "github.com/google/renameio/v2/maybe"
	"github.com/pkg/diff"

	tvbash "github.com/tv-labs/bash"
)

func main() {
	os.Exit(main1())
}

func main1() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	fs := flag.NewFlagSet("bash", flag.ContinueOnError)
	checkOnly := fs.Bool("n", false, "check syntax only, don't execute")
	format := fs.Bool("fmt", false, "format the script and print it")
	write := fs.Bool("w", false, "with -fmt, write the formatted result back to the file")
	showDiff := fs.Bool("d", false, "with -fmt, print a diff instead of the formatted text")
	cCmd := fs.String("c", "", "run the given command string instead of a file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *cCmd != "" {
		return runSource(context.Background(), []byte(*cCmd), "bash", fs.Args())
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "bash: no script given")
		return 2
	}
	path := rest[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch {
	case *format:
		return formatFile(path, source, *write, *showDiff)
	case *checkOnly:
		return checkSyntax(source)
	default:
		return runSource(context.Background(), source, path, rest[1:])
	}
}

func checkSyntax(source []byte) int {
	res := tvbash.Parse(source)
	for _, d := range res.Diagnostics {
		fmt.Fprint(os.Stderr, d.Render())
	}
	if res.HasErrors() {
		return 1
	}
	if res.Script != nil {
		for _, d := range tvbash.Validate(source, res.Script) {
			fmt.Fprint(os.Stderr, d.Render())
		}
	}
	return 0
}

func formatFile(path string, source []byte, write, showDiff bool) int {
	out, err := tvbash.Format(source)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	switch {
	case write:
		if err := maybeio.WriteFile(path, []byte(out), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	case showDiff:
		if string(source) == out {
			return 0
		}
		if err := diff.Text(path, path+".formatted", bytes.NewReader(source), bytes.NewReader([]byte(out)), os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 1
	default:
		fmt.Print(out)
	}
	return 0
}

func runSource(ctx context.Context, source []byte, name string, args []string) int {
	sess := tvbash.NewSession(tvbash.WithArgs(args...), tvbash.WithScriptName(name))
	res, err := sess.Run(ctx, source)
	for _, d := range res.Diagnostics {
		fmt.Fprint(os.Stderr, d.Render())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return res.ExitCode
}
