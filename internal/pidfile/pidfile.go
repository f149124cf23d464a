// Package pidfile tracks which process is serving the HTTP API so a
// dashboard launch can tell whether a server is already up.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const pidFile = "shellherd.pid"

// Path returns the path to the PID file inside the state directory.
func Path(stateDir string) string {
	return filepath.Join(stateDir, pidFile)
}

// Write writes the current process PID to the PID file.
func Write(stateDir string) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return os.WriteFile(Path(stateDir), []byte(strconv.Itoa(os.Getpid())), 0644)
}

// Read reads the PID from the PID file.
func Read(stateDir string) (int, error) {
	data, err := os.ReadFile(Path(stateDir))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// Remove removes the PID file. Removing a missing file is not an error.
func Remove(stateDir string) error {
	err := os.Remove(Path(stateDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsRunning reports whether the PID file points at a live process.
func IsRunning(stateDir string) bool {
	return RunningPID(stateDir) != 0
}

// RunningPID returns the live server PID, or 0 if none.
func RunningPID(stateDir string) int {
	pid, err := Read(stateDir)
	if err != nil || pid <= 0 {
		return 0
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0
	}
	// Signal 0 probes liveness without disturbing the process.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0
	}
	return pid
}
