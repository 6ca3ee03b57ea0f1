package proc

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Run(t *testing.T) {
	runner := ExecRunner{}

	t.Run("captures combined output by line", func(t *testing.T) {
		var lines []string
		output, err := runner.Run(context.Background(), "sh",
			[]string{"-c", "echo out; echo err 1>&2"},
			func(line string) { lines = append(lines, line) })
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if !strings.Contains(output, "out") || !strings.Contains(output, "err") {
			t.Errorf("output = %q, want both streams", output)
		}
		if len(lines) != 2 {
			t.Errorf("lines = %v, want 2 callbacks", lines)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		output, err := runner.Run(context.Background(), "sh",
			[]string{"-c", "echo failing; exit 7"}, nil)

		var ee *exec.ExitError
		if !errors.As(err, &ee) {
			t.Fatalf("error = %v, want *exec.ExitError", err)
		}
		if ee.ExitCode() != 7 {
			t.Errorf("exit code = %d, want 7", ee.ExitCode())
		}
		if !strings.Contains(output, "failing") {
			t.Errorf("output lost on failure: %q", output)
		}
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := runner.Run(context.Background(), "definitely-not-a-binary-20xx", nil, nil)
		if !errors.Is(err, exec.ErrNotFound) {
			t.Fatalf("error = %v, want exec.ErrNotFound", err)
		}
	})

	t.Run("oversized line does not stall the process", func(t *testing.T) {
		// A single line past the scanner's cap stops line delivery; the
		// child must still be able to finish writing and exit.
		var lines []string
		_, err := runner.Run(context.Background(), "sh",
			[]string{"-c", "head -c 2097152 /dev/zero | tr '\\0' 'x'; echo; echo trailing"},
			func(line string) { lines = append(lines, line) })
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		for _, line := range lines {
			if len(line) > 1024*1024 {
				t.Errorf("callback received %d-byte line past the cap", len(line))
			}
		}
	})

	t.Run("cancellation kills the process group", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		// The child spawns its own subprocess; group kill must take both.
		_, err := runner.Run(ctx, "sh", []string{"-c", "sleep 30 & wait"}, nil)
		if err == nil {
			t.Fatal("expected error after cancellation")
		}
		if elapsed := time.Since(start); elapsed > 10*time.Second {
			t.Errorf("run outlived cancellation by %v", elapsed)
		}
	})
}
