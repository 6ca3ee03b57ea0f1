// Package downloader wraps the yt-dlp binary behind a small adapter.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/clipstream-dev/clipstream/internal/proc"
)

var (
	// ErrDependencyMissing is returned when the yt-dlp binary is not on PATH.
	ErrDependencyMissing = errors.New("yt-dlp is not installed")

	// ErrOutputNotProduced is returned when the tool reports success but the
	// expected artifact is absent. Distinct from a non-zero exit: it marks a
	// contract violation by the external tool.
	ErrOutputNotProduced = errors.New("downloader reported success but produced no artifact")
)

// ExitError reports a downloader process that exited non-zero.
type ExitError struct {
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("yt-dlp exited with code %d", e.ExitCode)
}

// Config holds configuration for the yt-dlp adapter.
type Config struct {
	// BinaryPath is the path to the yt-dlp binary.
	// If empty, "yt-dlp" will be used (assumes it's in PATH).
	BinaryPath string

	// FormatSelector requests best available video+audio merged into a
	// single mp4 container.
	FormatSelector string
}

// DefaultConfig returns a Config matching the fixed argument template.
func DefaultConfig() Config {
	return Config{
		BinaryPath:     "yt-dlp",
		FormatSelector: "bestvideo[ext=mp4]+bestaudio[ext=m4a]/mp4",
	}
}

// Downloader defines the interface for source media retrieval.
type Downloader interface {
	// Probe verifies the downloader binary is available.
	Probe(ctx context.Context) error

	// Download fetches url to dest. dest may be a concrete path or an
	// output template containing a "%(ext)s" placeholder; for concrete
	// paths the artifact's existence is verified after a zero exit.
	// onLine, when non-nil, receives each line of tool output.
	Download(ctx context.Context, url, dest string, onLine func(string)) error
}

// YtDlp invokes the yt-dlp binary as a child process. The process's stdin
// is never used; output is streamed for logging and progress only, and
// only the exit code drives control decisions.
type YtDlp struct {
	config Config
	runner proc.Runner
}

// Compile-time verification that YtDlp implements Downloader.
var _ Downloader = (*YtDlp)(nil)

// NewYtDlp creates a new yt-dlp adapter.
func NewYtDlp(cfg Config) *YtDlp {
	return &YtDlp{config: cfg, runner: proc.ExecRunner{}}
}

// Probe runs a lightweight --version check.
func (d *YtDlp) Probe(ctx context.Context) error {
	_, err := d.runner.Run(ctx, d.config.BinaryPath, []string{"--version"}, nil)
	if err != nil {
		if isNotFound(err) {
			return ErrDependencyMissing
		}
		return fmt.Errorf("yt-dlp probe: %w", err)
	}
	return nil
}

// Download fetches url to dest with the fixed argument template.
func (d *YtDlp) Download(ctx context.Context, url, dest string, onLine func(string)) error {
	args := d.buildArgs(url, dest)

	output, err := d.runner.Run(ctx, d.config.BinaryPath, args, onLine)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download cancelled: %w", ctx.Err())
		}
		if isNotFound(err) {
			return ErrDependencyMissing
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{ExitCode: ee.ExitCode(), Output: tail(output, 2048)}
		}
		return fmt.Errorf("yt-dlp execution failed: %w", err)
	}

	// A zero exit with a missing artifact is still a failure. Templates
	// are verified by the caller once the tool-chosen name is known.
	if !strings.Contains(dest, "%(") {
		if _, err := os.Stat(dest); err != nil {
			return ErrOutputNotProduced
		}
	}

	return nil
}

// buildArgs constructs the fixed, validated yt-dlp argument template.
func (d *YtDlp) buildArgs(url, dest string) []string {
	return []string{
		"-f", d.config.FormatSelector,
		"--merge-output-format", "mp4",
		"--newline",
		"--no-colors",
		"-o", dest,
		url,
	}
}

// ParsePercent extracts the completion percentage from a yt-dlp progress
// line such as "[download]  42.7% of 10.00MiB at 1.00MiB/s".
func ParsePercent(line string) (float64, bool) {
	if !strings.HasPrefix(line, "[download]") {
		return 0, false
	}
	for _, field := range strings.Fields(line) {
		if !strings.HasSuffix(field, "%") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(field, "%"), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

// tail returns at most n trailing bytes of s, for compact error reports.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
