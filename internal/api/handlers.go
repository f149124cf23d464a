package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/d41928/shellherd/internal/model"
	"github.com/d41928/shellherd/internal/stats"
)

// earlyExitWindow is how long /start watches a new process for an
// immediate exit so the response can carry its captured output.
const earlyExitWindow = 2 * time.Second

// earlyExitTailLines bounds the log tail attached to an early exit.
const earlyExitTailLines = 100

// statusResponse is a run snapshot optionally enriched with resource
// metrics while the process is alive.
type statusResponse struct {
	model.Run
	*stats.Sample
	LogTail string `json:"log_tail,omitempty"`
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	uptime := int(time.Since(s.startedAt).Seconds())
	s.respondJSON(w, http.StatusOK, model.HealthResponse{
		Status:  "healthy",
		Version: Version,
		Uptime:  uptime,
	})
}

// handleStart handles POST /start. The command comes either from a JSON
// body ({"command": ...}) or from a raw text body.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	command, err := readCommand(r)
	if err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(command) == "" {
		s.respondErrorMsg(w, http.StatusBadRequest, "Command cannot be empty")
		return
	}

	logFile, err := s.logs.CreateLogFile()
	if err != nil {
		s.respondErrorMsg(w, http.StatusInternalServerError, "Failed to create log file: "+err.Error())
		return
	}

	snap, err := s.sup.Start(command, logFile)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logs.StartLogging(s.sup.Output(), s.sup.Exited, logFile)

	resp := statusResponse{Run: *snap}

	// A command that exits within the window gets its output attached so
	// one-shot invocations are useful without a second round trip.
	deadline := time.Now().Add(earlyExitWindow)
	for snap.Status == model.StatusRunning && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		if latest, err := s.sup.Status(); err == nil {
			snap = latest
		}
	}
	resp.Run = *snap

	switch snap.Status {
	case model.StatusRunning:
		if snap.PID != nil {
			resp.Sample = stats.Collect(*snap.PID)
		}
	case model.StatusExited:
		s.logs.StopLogging()
		tail := earlyExitTailLines
		if result, err := s.logs.ReadLogs(logFile, &tail, nil); err == nil {
			resp.LogTail = result.Content
		}
	}

	if wantsJSON(r) {
		s.respondJSON(w, http.StatusCreated, resp)
		return
	}
	s.respondText(w, http.StatusCreated, statusText(&resp))
}

// handleStatus handles GET /status. A supervisor with no run yet yields
// a synthesized not_started snapshot rather than an error.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snap, err := s.sup.Status()
	if err != nil {
		snap = &model.Run{
			Status:    model.StatusNotStarted,
			CreatedAt: time.Now().UTC(),
		}
	}

	resp := statusResponse{Run: *snap}
	if snap.Status == model.StatusRunning && snap.PID != nil {
		resp.Sample = stats.Collect(*snap.PID)
	}

	if wantsJSON(r) {
		s.respondJSON(w, http.StatusOK, resp)
		return
	}
	s.respondText(w, http.StatusOK, statusText(&resp))
}

// handleKill handles POST /kill?type=terminate|force.
func (s *Server) handleKill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = string(model.SignalTerminate)
	}
	sig, err := model.ParseSignal(kind)
	if err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.sup.Kill(sig)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logs.StopLogging()

	if wantsJSON(r) {
		s.respondJSON(w, http.StatusOK, result)
		return
	}
	s.respondText(w, http.StatusOK, killText(result))
}

// handleRestart handles POST /restart?timeout=N.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	timeout := s.cfg.RestartTimeout
	if v := r.URL.Query().Get("timeout"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 {
			s.respondErrorMsg(w, http.StatusBadRequest, "Invalid timeout: "+v)
			return
		}
		timeout = time.Duration(secs) * time.Second
	}

	s.logs.StopLogging()
	logFile, err := s.logs.CreateLogFile()
	if err != nil {
		s.respondErrorMsg(w, http.StatusInternalServerError, "Failed to create log file: "+err.Error())
		return
	}

	snap, err := s.sup.Restart(logFile, timeout)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logs.StartLogging(s.sup.Output(), s.sup.Exited, logFile)

	if wantsJSON(r) {
		s.respondJSON(w, http.StatusOK, statusResponse{Run: *snap})
		return
	}
	s.respondText(w, http.StatusOK, startText(snap))
}

// handleLogs handles GET /logs?lines=N|seconds=N. The text form returns
// just the captured content; format=json returns the full result.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondErrorMsg(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	lines, err := positiveIntParam(r, "lines")
	if err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	seconds, err := positiveIntParam(r, "seconds")
	if err != nil {
		s.respondErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.sup.Status()
	if err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.logs.ReadLogs(snap.LogFile, lines, seconds)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if wantsJSON(r) {
		s.respondJSON(w, http.StatusOK, result)
		return
	}
	s.respondText(w, http.StatusOK, result.Content)
}

// readCommand extracts the command from a JSON or raw text body.
func readCommand(r *http.Request) (string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req model.StartRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return "", err
		}
		return req.Command, nil
	}
	return string(body), nil
}

// positiveIntParam parses an optional query parameter that must be >= 1.
func positiveIntParam(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return nil, &paramError{name: name, value: v}
	}
	return &n, nil
}

type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return "Invalid value for '" + e.name + "': " + e.value
}
