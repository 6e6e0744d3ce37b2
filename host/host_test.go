package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestStartResolvesPathAndCapturesOutput(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	cmd, err := Start(context.Background(), Command{
		Name:   "echo",
		Args:   []string{"hi"},
		Stdout: w,
		Stderr: w,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	if err := cmd.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := buf.String(); got != "hi\n" {
		t.Errorf("output = %q, want %q", got, "hi\n")
	}
}

func TestExitCodeFromFailingCommand(t *testing.T) {
	cmd, err := Start(context.Background(), Command{Name: "false"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitErr := cmd.Wait()
	code, err := ExitCode(waitErr)
	if err != nil {
		t.Fatalf("ExitCode: %v", err)
	}
	if code != 1 {
		t.Errorf("code = %d, want 1", code)
	}
}

func TestExitCodeNilError(t *testing.T) {
	code, err := ExitCode(nil)
	if err != nil || code != 0 {
		t.Errorf("ExitCode(nil) = (%d, %v), want (0, nil)", code, err)
	}
}

func TestStartUnknownCommand(t *testing.T) {
	_, err := Start(context.Background(), Command{Name: "not-a-real-command-xyz"})
	if err == nil {
		t.Fatal("expected error for unresolvable command")
	}
}

func TestMkFIFOCreatesNamedPipe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fifo")
	if err := MkFIFO(path); err != nil {
		t.Fatalf("MkFIFO: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("mode = %v, want named pipe bit set", fi.Mode())
	}
}
