// Package supervisor owns the lifecycle of the single supervised shell
// command: spawn, non-blocking exit detection, signaled termination, and
// restart. At most one run exists at a time and every operation is
// serialized under one mutex, so concurrent starts cannot both win.
package supervisor

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/d41928/shellherd/internal/apperr"
	"github.com/d41928/shellherd/internal/model"
)

// DefaultGracePeriod is how long a terminate waits for voluntary exit
// before escalating to a forced kill.
const DefaultGracePeriod = 5 * time.Second

// Supervisor manages at most one child process.
type Supervisor struct {
	mu    sync.Mutex
	grace time.Duration
	run   *run
}

type run struct {
	command   string
	createdAt time.Time
	logFile   string
	cmd       *exec.Cmd
	output    *os.File // read end of the merged stdout+stderr pipe

	done     chan struct{} // closed by the reaper goroutine
	waitCode int           // valid once done is closed

	// Observed state, updated by refreshLocked at operation entry.
	stoppedAt *time.Time
	exitCode  *int
	killed    bool
}

// New creates a Supervisor. A non-positive grace period falls back to
// DefaultGracePeriod.
func New(grace time.Duration) *Supervisor {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Supervisor{grace: grace}
}

// Start launches a shell command with stdout and stderr merged into one
// pipe. It fails with ConflictError if a process is already running and
// with InternalError if the OS refuses the spawn.
func (s *Supervisor) Start(command, logFile string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshLocked()
	if s.runningLocked() {
		return nil, apperr.Conflictf("Process already running")
	}
	return s.startLocked(command, logFile)
}

// startLocked spawns the child. Callers hold the mutex.
func (s *Supervisor) startLocked(command, logFile string) (*model.Run, error) {
	cmd := exec.Command("/bin/sh", "-c", command)

	// A plain os.Pipe keeps the read end alive independently of Wait, so
	// the drain loop controls its own reads and Wait can reap at any time.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, apperr.Internalf(err, "Failed to start process: %v", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, apperr.Internalf(err, "Failed to start process: %v", err)
	}
	// Parent must drop its write end or the reader never sees EOF.
	pw.Close()

	r := &run{
		command:   command,
		createdAt: time.Now().UTC(),
		logFile:   logFile,
		cmd:       cmd,
		output:    pr,
		done:      make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		if cmd.ProcessState != nil {
			r.waitCode = cmd.ProcessState.ExitCode()
		}
		close(r.done)
	}()

	// Release the replaced run's read end; its drain has already been
	// stopped, so the fd does not have to wait for a finalizer.
	if s.run != nil && s.run.output != nil {
		_ = s.run.output.Close()
	}
	s.run = r
	return s.snapshotLocked(), nil
}

// Status returns the current run snapshot after a non-blocking liveness
// probe. It fails with NotFoundError if no run was ever started.
func (s *Supervisor) Status() (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return nil, apperr.NotFoundf("No process started")
	}
	s.refreshLocked()
	return s.snapshotLocked(), nil
}

// Kill signals the running process and waits for it to be reaped. A
// terminate escalates to a forced kill after the grace period; a forced
// kill waits unconditionally. The resulting killed status is sticky.
func (s *Supervisor) Kill(sig model.Signal) (*model.KillResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return nil, apperr.NotFoundf("No process to kill")
	}
	s.refreshLocked()
	if !s.runningLocked() {
		return nil, apperr.BadRequestf("Process already exited")
	}

	code := s.terminateLocked(sig, s.grace)
	now := time.Now().UTC()
	s.run.stoppedAt = &now
	s.run.exitCode = &code
	s.run.killed = true

	return &model.KillResult{
		StoppedAt: now,
		ExitCode:  code,
		Type:      sig,
		Status:    model.StatusKilled,
	}, nil
}

// Restart terminates the current process if still running (grace period =
// timeout, escalating to a forced kill) and relaunches the same command
// with a fresh log file.
func (s *Supervisor) Restart(logFile string, timeout time.Duration) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return nil, apperr.NotFoundf("No process to restart")
	}
	command := s.run.command

	s.refreshLocked()
	if s.runningLocked() {
		if timeout <= 0 {
			timeout = s.grace
		}
		s.terminateLocked(model.SignalTerminate, timeout)
	}

	return s.startLocked(command, logFile)
}

// Output returns the read end of the current run's merged output stream,
// or nil when no run exists. The log pipeline drains it.
func (s *Supervisor) Output() *os.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return s.run.output
}

// Exited reports whether the current process has terminated. It never
// blocks. With no run it reports true so drain loops stop.
func (s *Supervisor) Exited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return true
	}
	s.refreshLocked()
	return !s.runningLocked()
}

// Close terminates any live child. Called on supervisor shutdown.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	s.refreshLocked()
	if s.runningLocked() {
		code := s.terminateLocked(model.SignalTerminate, s.grace)
		now := time.Now().UTC()
		s.run.stoppedAt = &now
		s.run.exitCode = &code
		s.run.killed = true
	}
	return nil
}

// terminateLocked sends the signal, waits up to grace for a voluntary
// exit, escalates terminate to a forced kill on timeout, and returns the
// reaped exit code. Callers hold the mutex and have verified the process
// is running.
func (s *Supervisor) terminateLocked(sig model.Signal, grace time.Duration) int {
	proc := s.run.cmd.Process
	if sig == model.SignalForce {
		_ = proc.Kill()
		<-s.run.done
		return s.run.waitCode
	}

	// Signal can fail if the process exited between the liveness probe
	// and here; the reaper still closes done, so just wait.
	_ = proc.Signal(syscall.SIGTERM)
	select {
	case <-s.run.done:
	case <-time.After(grace):
		_ = proc.Kill()
		<-s.run.done
	}
	return s.run.waitCode
}

// refreshLocked transfers a reaped exit into the observed snapshot. It is
// the non-blocking poll invoked at the top of every operation.
func (s *Supervisor) refreshLocked() {
	if s.run == nil || s.run.exitCode != nil {
		return
	}
	select {
	case <-s.run.done:
		now := time.Now().UTC()
		code := s.run.waitCode
		s.run.stoppedAt = &now
		s.run.exitCode = &code
	default:
	}
}

func (s *Supervisor) runningLocked() bool {
	return s.run != nil && s.run.exitCode == nil
}

func (s *Supervisor) snapshotLocked() *model.Run {
	r := s.run
	status := model.StatusExited
	switch {
	case r.killed:
		status = model.StatusKilled
	case r.exitCode == nil:
		status = model.StatusRunning
	}

	snap := &model.Run{
		Command:   r.command,
		Status:    status,
		CreatedAt: r.createdAt,
		LogFile:   r.logFile,
	}
	if r.cmd.Process != nil {
		pid := r.cmd.Process.Pid
		snap.PID = &pid
	}
	if r.stoppedAt != nil {
		t := *r.stoppedAt
		snap.StoppedAt = &t
	}
	if r.exitCode != nil {
		c := *r.exitCode
		snap.ExitCode = &c
	}
	return snap
}
