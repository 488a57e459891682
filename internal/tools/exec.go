package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode"
)

const (
	defaultCommandTimeout = 120 * time.Second
	defaultMaxOutputBytes = 65536
)

// Shell launches local processes in Dir with a per-call timeout and bounded
// output capture.
type Shell struct {
	Dir            string
	Timeout        time.Duration
	MaxOutputBytes int
	Env            map[string]string
}

type ProcessResult struct {
	Command         string
	Args            []string
	ExitCode        int
	Stdout          string
	Stderr          string
	Duration        time.Duration
	UsedShell       bool
	TimedOut        bool
	ErrorType       string
	StdoutTruncated int
	StderrTruncated int
}

// ExecError is returned when a process could not be started or did not run to
// completion. A non-zero exit is not an ExecError; it is reported through
// ProcessResult.ExitCode.
type ExecError struct {
	Type string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Run executes command with args. With no args and a command that looks like
// a shell line (`ls | wc -l`), a failed direct launch is retried through the
// platform shell.
func (s *Shell) Run(ctx context.Context, command string, args []string) (ProcessResult, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return ProcessResult{}, errors.New("command is required")
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	maxBytes := s.MaxOutputBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxOutputBytes
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	stdoutCapture := &limitedBuffer{buf: &stdout, max: maxBytes}
	stderrCapture := &limitedBuffer{buf: &stderr, max: maxBytes}

	build := func(useShell bool) *exec.Cmd {
		var cmd *exec.Cmd
		switch {
		case useShell && runtime.GOOS == "windows":
			cmd = exec.CommandContext(cmdCtx, "cmd", "/C", command)
		case useShell:
			cmd = exec.CommandContext(cmdCtx, "sh", "-c", command)
		default:
			cmd = exec.CommandContext(cmdCtx, command, args...)
		}
		cmd.Dir = s.Dir
		if len(s.Env) > 0 {
			cmd.Env = os.Environ()
			for k, v := range s.Env {
				cmd.Env = append(cmd.Env, k+"="+v)
			}
		}
		cmd.Stdout = stdoutCapture
		cmd.Stderr = stderrCapture
		// Orphaned children can hold the pipes open after cancellation.
		cmd.WaitDelay = 500 * time.Millisecond
		configureProcessTreeKill(cmd)
		return cmd
	}

	start := time.Now()
	usedShell := false
	err := build(false).Run()
	if shouldFallbackToShell(err, args, command) {
		usedShell = true
		stdoutCapture.Reset()
		stderrCapture.Reset()
		err = build(true).Run()
	}

	res := ProcessResult{
		Command:         command,
		Args:            args,
		Stdout:          strings.TrimRight(stdout.String(), "\n"),
		Stderr:          strings.TrimRight(stderr.String(), "\n"),
		Duration:        time.Since(start),
		UsedShell:       usedShell,
		StdoutTruncated: stdoutCapture.TruncatedBytes(),
		StderrTruncated: stderrCapture.TruncatedBytes(),
	}
	res.ExitCode, res.ErrorType = classifyExecError(err)

	switch ctxErr := cmdCtx.Err(); {
	case err == nil:
		return res, nil
	case errors.Is(ctxErr, context.DeadlineExceeded):
		res.ExitCode, res.ErrorType, res.TimedOut = -1, "timeout", true
		return res, &ExecError{Type: res.ErrorType, Err: fmt.Errorf("timed out after %s", timeout)}
	case errors.Is(ctxErr, context.Canceled):
		res.ExitCode, res.ErrorType = -1, "canceled"
		return res, &ExecError{Type: res.ErrorType, Err: ctxErr}
	case res.ErrorType == "non_zero_exit":
		return res, nil
	default:
		return res, &ExecError{Type: res.ErrorType, Err: err}
	}
}

// Format renders the result for the conversation transcript.
func (r ProcessResult) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exit_code: %d\n", r.ExitCode)
	fmt.Fprintf(&b, "duration_ms: %d\n", r.Duration.Milliseconds())
	if r.TimedOut {
		b.WriteString("timed_out: true\n")
	}
	if r.UsedShell {
		b.WriteString("execution_mode: shell\n")
	}
	if r.StdoutTruncated > 0 || r.StderrTruncated > 0 {
		fmt.Fprintf(&b, "truncated_bytes: stdout=%d stderr=%d\n", r.StdoutTruncated, r.StderrTruncated)
	}
	fmt.Fprintf(&b, "stdout:\n%s\n", r.Stdout)
	fmt.Fprintf(&b, "stderr:\n%s", r.Stderr)
	return b.String()
}

type limitedBuffer struct {
	buf       *bytes.Buffer
	max       int
	truncated int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.max <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.max - l.buf.Len()
	if remaining <= 0 {
		l.truncated += len(p)
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated += len(p) - remaining
		if _, err := l.buf.Write(p[:remaining]); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) TruncatedBytes() int {
	return l.truncated
}

func (l *limitedBuffer) Reset() {
	l.buf.Reset()
	l.truncated = 0
}

func shouldFallbackToShell(err error, args []string, command string) bool {
	if err == nil || len(args) > 0 {
		return false
	}
	if !looksLikeShellCommand(command) {
		return false
	}
	return isCommandNotFoundError(err)
}

func looksLikeShellCommand(command string) bool {
	if strings.IndexFunc(command, unicode.IsSpace) >= 0 {
		return true
	}
	return strings.ContainsAny(command, "\"'`|&;<>()$*?[]{}")
}

func isCommandNotFoundError(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return true
	}
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

func classifyExecError(err error) (exitCode int, errorType string) {
	if err == nil {
		return 0, "none"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return -1, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return -1, "canceled"
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), "non_zero_exit"
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return -1, "command_not_found"
		}
		return -1, "exec_error"
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, os.ErrNotExist) {
			return -1, "command_not_found"
		}
		return -1, "path_error"
	}

	return -1, "runtime_error"
}
