// Package model holds the data types shared between the supervisor core,
// the HTTP layer, and the dashboard client.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusExited     Status = "exited"
	StatusKilled     Status = "killed"
)

// Signal is the kind of termination requested via /kill.
type Signal string

const (
	// SignalTerminate asks the process to exit and escalates to a forced
	// kill if it ignores the request past the grace period.
	SignalTerminate Signal = "terminate"
	// SignalForce kills the process outright.
	SignalForce Signal = "force"
)

// ParseSignal validates a signal kind from user input.
func ParseSignal(s string) (Signal, error) {
	switch Signal(strings.ToLower(strings.TrimSpace(s))) {
	case SignalTerminate:
		return SignalTerminate, nil
	case SignalForce:
		return SignalForce, nil
	default:
		return "", fmt.Errorf("invalid signal type: %s", s)
	}
}

// Run is a point-in-time snapshot of the supervised command.
// StoppedAt and ExitCode are nil while the process is running.
type Run struct {
	Command   string     `json:"command"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	PID       *int       `json:"process_pid"`
	LogFile   string     `json:"log_file,omitempty"`
	StoppedAt *time.Time `json:"stopped_at"`
	ExitCode  *int       `json:"exit_code"`
}

// KillResult is the outcome of a kill operation.
type KillResult struct {
	StoppedAt time.Time `json:"stopped_at"`
	ExitCode  int       `json:"exit_code"`
	Type      Signal    `json:"type"`
	Status    Status    `json:"status"`
}

// LogsResult is the outcome of a log query.
type LogsResult struct {
	LogFile       string `json:"log_file"`
	TotalLines    int    `json:"total_lines"`
	LinesReturned int    `json:"lines_returned"`
	Content       string `json:"content"`
}

// StartRequest is the JSON body accepted by POST /start.
type StartRequest struct {
	Command string `json:"command"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  int    `json:"uptime"`
}

// Record is one captured output line, the atomic unit of the log file
// format. Files are sequences of newline-delimited JSON records.
type Record struct {
	Timestamp string `json:"timestamp"`
	Line      string `json:"line"`
}

// Time parses the record's capture timestamp.
func (r Record) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, r.Timestamp)
}
