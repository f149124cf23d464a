package pidfile

import (
	"os"
	"testing"
)

func TestPIDFileOperations(t *testing.T) {
	dir := t.TempDir()

	if err := Write(dir); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	pid, err := Read(dir)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid = %d, want %d", pid, os.Getpid())
	}

	if !IsRunning(dir) {
		t.Fatal("expected server to be reported running")
	}
	if got := RunningPID(dir); got != os.Getpid() {
		t.Fatalf("RunningPID = %d, want %d", got, os.Getpid())
	}

	if err := Remove(dir); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := Remove(dir); err != nil {
		t.Fatalf("Remove idempotent error: %v", err)
	}
	if IsRunning(dir) {
		t.Fatal("expected no running server after removal")
	}
}

func TestReadInvalidPID(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("bad"), 0644); err != nil {
		t.Fatalf("write pid: %v", err)
	}

	if _, err := Read(dir); err == nil {
		t.Fatal("expected error for invalid pid")
	}
	if IsRunning(dir) {
		t.Fatal("invalid pid file must not report running")
	}
}

func TestRunningPIDStale(t *testing.T) {
	dir := t.TempDir()
	// PID values this large are above any default kernel pid_max.
	if err := os.WriteFile(Path(dir), []byte("99999999"), 0644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if got := RunningPID(dir); got != 0 {
		t.Fatalf("RunningPID = %d, want 0 for stale pid", got)
	}
}
