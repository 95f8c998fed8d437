package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Defaults for process execution.
const (
	DefaultTimeout = 30 * time.Second
	DefaultGrace   = 5 * time.Second
	DefaultShell   = "/bin/sh"

	// AgentModeEnv is set in every spawned command's environment so
	// invoked tools can detect non-interactive/agent mode.
	AgentModeEnv = "INTENTD_AGENT=1"

	timeoutSnapshotLimit = 1000
	stderrSnapshotLimit  = 2000
)

// FailureKind classifies an execution failure.
type FailureKind string

// Failure kinds.
const (
	FailExit    FailureKind = "exit"
	FailTimeout FailureKind = "timeout"
	FailSpawn   FailureKind = "spawn"
)

// ExecError is the failure outcome of running a command.
type ExecError struct {
	Kind     FailureKind
	ExitCode int           // set for FailExit
	Timeout  time.Duration // set for FailTimeout
	Output   string        // truncated captured output
	Err      error         // underlying error for FailSpawn
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	switch e.Kind {
	case FailTimeout:
		return fmt.Sprintf("executor: command timed out after %s", e.Timeout)
	case FailExit:
		return fmt.Sprintf("executor: command exited with code %d", e.ExitCode)
	default:
		return fmt.Sprintf("executor: spawn failed: %v", e.Err)
	}
}

// Unwrap exposes the underlying spawn error.
func (e *ExecError) Unwrap() error { return e.Err }

// Result is a successful execution outcome. Output is the parsed JSON
// payload when stdout parses, otherwise the trimmed raw text.
type Result struct {
	Output any
	Raw    bool // true when Output is unparsed text
}

// Runner spawns finished command lines through a shell interpreter.
// Each Run call owns its own subprocess and timer; concurrent runs are
// fully independent.
type Runner struct {
	Shell   string
	Timeout time.Duration
	Grace   time.Duration
}

// NewRunner creates a runner with defaults filled in.
func NewRunner(shell string, timeout, grace time.Duration) *Runner {
	if shell == "" {
		shell = DefaultShell
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Runner{Shell: shell, Timeout: timeout, Grace: grace}
}

// Run executes the command with the given timeout (the runner default when
// zero). On expiry the process group receives SIGTERM, then SIGKILL after
// the grace window. Exactly one terminal outcome is produced and process
// cleanup is attempted on every exit path.
func (r *Runner) Run(ctx context.Context, command string, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = r.Timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := osexec.CommandContext(ctx, r.Shell, "-c", command)
	cmd.Env = append(os.Environ(), AgentModeEnv)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = r.Grace + time.Second // backstop if the group kill is missed
	cmd.Cancel = func() error {
		// Graceful first, forceful after the grace window. Negative pid
		// targets the whole process group.
		pid := cmd.Process.Pid
		err := syscall.Kill(-pid, syscall.SIGTERM)
		time.AfterFunc(r.Grace, func() {
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		})
		return err
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &ExecError{Kind: FailSpawn, Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &ExecError{Kind: FailSpawn, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &ExecError{Kind: FailSpawn, Err: err}
	}

	var stdout, stderr bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = io.Copy(&stdout, stdoutPipe) }()
	go func() { defer wg.Done(); _, _ = io.Copy(&stderr, stderrPipe) }()
	wg.Wait()

	waitErr := cmd.Wait()

	if waitErr != nil {
		var exitErr *osexec.ExitError
		realExit := errors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0

		// Killed by the timeout rather than exiting on its own.
		if ctx.Err() != nil {
			captured := stdout.String()
			if stderr.Len() > 0 {
				captured += stderr.String()
			}
			return nil, &ExecError{
				Kind:    FailTimeout,
				Timeout: timeout,
				Output:  truncate(captured, timeoutSnapshotLimit),
			}
		}

		if realExit {
			return nil, &ExecError{
				Kind:     FailExit,
				ExitCode: exitErr.ExitCode(),
				Output:   truncate(stderr.String(), stderrSnapshotLimit),
			}
		}
		return nil, &ExecError{Kind: FailSpawn, Err: waitErr}
	}

	return parseOutput(stdout.String()), nil
}

// parseOutput attempts to interpret stdout as JSON; unparsable output is
// returned as trimmed raw text, which is not an error.
func parseOutput(stdout string) *Result {
	trimmed := strings.TrimSpace(stdout)
	if trimmed != "" {
		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
			return &Result{Output: parsed}
		}
	}
	return &Result{Output: trimmed, Raw: true}
}

// truncate caps s at limit characters.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
