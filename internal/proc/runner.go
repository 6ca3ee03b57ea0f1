// Package proc executes external tool processes for the adapters.
package proc

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"
)

// Runner abstracts process execution so tests can inject a stub.
type Runner interface {
	// Run executes name with args, invoking onLine for each line of
	// combined output when non-nil, and returns the full output.
	Run(ctx context.Context, name string, args []string, onLine func(string)) (string, error)
}

// ExecRunner is the real Runner. Child processes are placed in their own
// process group; on context cancellation the whole group is killed so
// helper processes spawned by the tool do not outlive the job.
type ExecRunner struct{}

// Compile-time verification that ExecRunner implements Runner.
var _ Runner = ExecRunner{}

func (ExecRunner) Run(ctx context.Context, name string, args []string, onLine func(string)) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 5 * time.Second

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return "", err
	}

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			buf.WriteString(line)
			buf.WriteByte('\n')
			if onLine != nil {
				onLine(line)
			}
		}
		// A scan error (a line over the buffer cap) stops line delivery,
		// but the pipe must stay drained or the child blocks on write and
		// Wait never returns.
		io.Copy(io.Discard, pr)
	}()

	err := cmd.Wait()
	pw.Close()
	<-done

	return buf.String(), err
}
