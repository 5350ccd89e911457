// Package harness launches a memory-consuming fixture under a memory
// ceiling and reports how it died. It exists so tests can verify
// ceiling enforcement end to end: the fixture only allocates, the
// harness limits, observes and kills.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/artyom/bytesize"
	"github.com/artyom/exitstatus"
)

const (
	// DefaultTimeout bounds a run; the fixture never exits on its own.
	DefaultTimeout = 10 * time.Second

	// DefaultMemoryLimit applies when MemoryLimitBytes is zero.
	DefaultMemoryLimit = 2 << 30
)

// CeilingMode selects how the memory ceiling is enforced.
type CeilingMode int

const (
	// CeilingNone runs the fixture without a limit. Callers must rely
	// on Timeout or Kill to end the run.
	CeilingNone CeilingMode = iota

	// CeilingWatchdog polls the child's RSS and kills its process
	// group once it crosses the limit. Needs no privileges.
	CeilingWatchdog

	// CeilingCgroup places the child in a dedicated cgroup2 with
	// memory.max set; kernel kills show up in the group's oom_kill
	// counter. Needs root and a cgroup2 mount.
	CeilingCgroup

	// CeilingAddressSpace caps the child's data segment with
	// prlimit(2), which makes allocation failure visible in-process:
	// the guarded fixture's ENOMEM path.
	CeilingAddressSpace
)

// Result describes a finished fixture run.
type Result struct {
	Stdout []byte
	Stderr []byte

	// ExitCode is the fixture's exit status; deaths by signal map to
	// 128+signal.
	ExitCode int

	// Reason is a human-readable rendition of how the process ended.
	Reason string

	// OOMKilled reports that the ceiling, not the fixture itself,
	// ended the run.
	OOMKilled bool

	// PeakRSS is the highest resident usage observed, in bytes. Only
	// the watchdog and cgroup ceilings sample it.
	PeakRSS uint64
}

// ceiling is one enforcement strategy attached to a running fixture.
type ceiling interface {
	// stop halts any sampling; safe to call more than once.
	stop()
	// tripped reports whether the ceiling ended the run.
	tripped() bool
	// peakRSS is the highest resident usage sampled, 0 if unsampled.
	peakRSS() uint64
	// cleanup releases kernel objects the ceiling created.
	cleanup()
}

type noopCeiling struct{}

func (noopCeiling) stop()           {}
func (noopCeiling) tripped() bool   { return false }
func (noopCeiling) peakRSS() uint64 { return 0 }
func (noopCeiling) cleanup()        {}

// Runner launches one fixture process. The zero value plus Path is
// usable; a Runner must not be reused across runs.
type Runner struct {
	// Path is the fixture executable.
	Path string
	Args []string

	// Env entries are appended to the current environment.
	Env []string

	Mode             CeilingMode
	MemoryLimitBytes int64

	// Timeout bounds the whole run; zero means DefaultTimeout.
	Timeout time.Duration

	// Verbose mirrors child output and harness notes to stderr.
	Verbose bool

	cmd     *exec.Cmd
	cancel  context.CancelFunc
	ctx     context.Context
	ceiling ceiling

	stdout bytes.Buffer
	stderr bytes.Buffer
}

// Start launches the fixture and applies the configured ceiling.
func (r *Runner) Start() error {
	if r.cmd != nil {
		return errors.New("process already in progress")
	}

	absPath, err := filepath.Abs(r.Path)
	if err != nil {
		return fmt.Errorf("%s not found", filepath.Base(r.Path))
	}
	fileInfo, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("%s not found", filepath.Base(r.Path))
	}
	if fileInfo.IsDir() || fileInfo.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not an executable file", r.Path)
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	limit := r.MemoryLimitBytes
	if limit == 0 {
		limit = DefaultMemoryLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	cmd := exec.CommandContext(ctx, absPath, r.Args...)
	cmd.Env = append(os.Environ(), r.Env...)
	// own process group, so kills hit the fixture and its children
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = r.captureWriter(&r.stdout, stdoutColor)
	cmd.Stderr = r.captureWriter(&r.stderr, stderrColor)

	if err := cmd.Start(); err != nil {
		cancel()
		return err
	}

	c, err := applyCeiling(r.Mode, cmd.Process.Pid, limit)
	if err != nil {
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL) // nolint: errcheck
		cancel()
		cmd.Wait() // nolint: errcheck
		return fmt.Errorf("apply memory ceiling: %w", err)
	}

	if r.Mode == CeilingNone {
		r.logf("started %s (pid %d), no ceiling", filepath.Base(absPath), cmd.Process.Pid)
	} else {
		r.logf("started %s (pid %d), ceiling %v", filepath.Base(absPath), cmd.Process.Pid, bytesize.Bytes(limit))
	}

	r.cmd = cmd
	r.cancel = cancel
	r.ctx = ctx
	r.ceiling = c
	return nil
}

// Wait blocks until the fixture exits and assembles the Result.
func (r *Runner) Wait() (Result, error) {
	if r.cmd == nil {
		return Result{}, errors.New("process not started")
	}
	defer func() {
		r.cancel()
		r.cmd = nil
		r.ceiling = nil
	}()

	err := r.cmd.Wait()

	r.ceiling.stop()
	defer r.ceiling.cleanup()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return Result{}, err
	}

	exitCode := r.cmd.ProcessState.ExitCode()
	if exitCode == -1 {
		if status, ok := r.cmd.ProcessState.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			exitCode = 128 + int(status.Signal())
		}
	}

	res := Result{
		Stdout:    r.stdout.Bytes(),
		Stderr:    r.stderr.Bytes(),
		ExitCode:  exitCode,
		Reason:    exitstatus.Reason(err),
		OOMKilled: r.ceiling.tripped(),
		PeakRSS:   r.ceiling.peakRSS(),
	}

	if errors.Is(r.ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("execution timed out")
	}

	if res.OOMKilled {
		r.logf("memory ceiling tripped: %s, peak %v", res.Reason, bytesize.Bytes(int64(res.PeakRSS)))
	} else {
		r.logf("fixture ended: %s", res.Reason)
	}
	return res, nil
}

// Kill ends the run from outside: SIGTERM to the process group, then
// SIGKILL if the fixture lingers. It returns the Result from Wait.
func (r *Runner) Kill() (Result, error) {
	if r.cmd == nil {
		return Result{}, errors.New("process not started")
	}
	pid := r.cmd.Process.Pid
	syscall.Kill(-pid, syscall.SIGTERM) // nolint: errcheck

	type waitOutcome struct {
		res Result
		err error
	}
	done := make(chan waitOutcome, 1)
	go func() {
		res, err := r.Wait()
		done <- waitOutcome{res, err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-time.After(2 * time.Second):
		syscall.Kill(-pid, syscall.SIGKILL) // nolint: errcheck
		out := <-done
		return out.res, out.err
	}
}

// Run starts the fixture and waits for it to end.
func (r *Runner) Run() (Result, error) {
	if err := r.Start(); err != nil {
		return Result{}, err
	}
	return r.Wait()
}
