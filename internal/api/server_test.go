package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/d41928/shellherd/internal/config"
	"github.com/d41928/shellherd/internal/logpipe"
	"github.com/d41928/shellherd/internal/model"
	"github.com/d41928/shellherd/internal/supervisor"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	cfg := &config.Config{
		Host:           "127.0.0.1",
		Port:           0,
		LogDir:         t.TempDir(),
		RestartTimeout: 2 * time.Second,
		GracePeriod:    500 * time.Millisecond,
	}
	sup := supervisor.New(cfg.GracePeriod)
	logs := logpipe.New(cfg.LogDir, nil)
	server := NewServer(sup, logs, cfg, nil)
	t.Cleanup(server.Shutdown)
	return server, server.Routes()
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]json.RawMessage
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response is not valid JSON: %v\nbody: %s", err, rec.Body.String())
		}
	}
	return rec, payload
}

func jsonString(t *testing.T, payload map[string]json.RawMessage, key string) string {
	t.Helper()
	raw, ok := payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("field %q is not a string: %s", key, raw)
	}
	return s
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := jsonString(t, payload, "status"); got != "healthy" {
		t.Errorf("health status = %q, want %q", got, "healthy")
	}
	if got := jsonString(t, payload, "version"); got != Version {
		t.Errorf("version = %q, want %q", got, Version)
	}
}

func TestAccessLogSkipsDashboardRequests(t *testing.T) {
	cfg := &config.Config{
		Host:           "127.0.0.1",
		LogDir:         t.TempDir(),
		RestartTimeout: 2 * time.Second,
		GracePeriod:    500 * time.Millisecond,
	}
	var buf bytes.Buffer
	server := NewServer(supervisor.New(cfg.GracePeriod), logpipe.New(cfg.LogDir, nil), cfg, log.New(&buf, "", 0))
	t.Cleanup(server.Shutdown)
	h := server.Routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TUIHeader, "1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if buf.Len() != 0 {
		t.Fatalf("dashboard request was logged: %q", buf.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	logged := buf.String()
	if !strings.Contains(logged, "GET /health 200") {
		t.Errorf("access log = %q, want method, path and status", logged)
	}
	if got := strings.Count(logged, "\n"); got != 1 {
		t.Errorf("access log has %d lines, want exactly 1: %q", got, logged)
	}
}

func TestStatusNotStarted(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodGet, "/status?format=json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := jsonString(t, payload, "status"); got != string(model.StatusNotStarted) {
		t.Errorf("run status = %q, want %q", got, model.StatusNotStarted)
	}
}

func TestStatusNotStartedText(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "status: not_started") {
		t.Errorf("text body missing status line:\n%s", rec.Body.String())
	}
}

func TestStartEmptyCommand(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "Command cannot be empty" {
		t.Errorf("error = %q, want %q", got, "Command cannot be empty")
	}
}

func TestStartMethodNotAllowed(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodGet, "/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestStartEarlyExitCapturesOutput(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "echo hello from the herd"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}
	if got := jsonString(t, payload, "status"); got != string(model.StatusExited) {
		t.Errorf("run status = %q, want %q", got, model.StatusExited)
	}
	if got := jsonString(t, payload, "log_tail"); !strings.Contains(got, "hello from the herd") {
		t.Errorf("log_tail = %q, want captured output", got)
	}
}

func TestStartConflict(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "sleep 30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first start: status = %d, want 201", rec.Code)
	}

	rec, payload := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "echo no"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second start: status = %d, want 409", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "Process already running" {
		t.Errorf("error = %q, want %q", got, "Process already running")
	}
}

func TestStartRawTextBody(t *testing.T) {
	_, h := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/start?format=json", strings.NewReader("echo raw body"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got := jsonString(t, payload, "command"); got != "echo raw body" {
		t.Errorf("command = %q, want %q", got, "echo raw body")
	}
}

func TestKillWorkflow(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "sleep 30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, want 201", rec.Code)
	}

	rec, payload := doJSON(t, h, http.MethodPost, "/kill?format=json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("kill: status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if got := jsonString(t, payload, "status"); got != string(model.StatusKilled) {
		t.Errorf("kill status = %q, want %q", got, model.StatusKilled)
	}
	if got := jsonString(t, payload, "type"); got != string(model.SignalTerminate) {
		t.Errorf("kill type = %q, want %q", got, model.SignalTerminate)
	}

	// The killed status persists in later status reads.
	rec, payload = doJSON(t, h, http.MethodGet, "/status?format=json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: status = %d, want 200", rec.Code)
	}
	if got := jsonString(t, payload, "status"); got != string(model.StatusKilled) {
		t.Errorf("run status = %q, want %q", got, model.StatusKilled)
	}

	// A second kill finds nothing running.
	rec, payload = doJSON(t, h, http.MethodPost, "/kill?format=json", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second kill: status = %d, want 400", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "Process already exited" {
		t.Errorf("error = %q, want %q", got, "Process already exited")
	}
}

func TestKillForceType(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "sleep 30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, want 201", rec.Code)
	}

	rec, payload := doJSON(t, h, http.MethodPost, "/kill?format=json&type=force", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("kill: status = %d, want 200", rec.Code)
	}
	if got := jsonString(t, payload, "type"); got != string(model.SignalForce) {
		t.Errorf("kill type = %q, want %q", got, model.SignalForce)
	}
}

func TestKillInvalidType(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/kill?format=json&type=nuke", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestKillNoProcess(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodPost, "/kill?format=json", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "No process to kill" {
		t.Errorf("error = %q, want %q", got, "No process to kill")
	}
}

func TestRestartNoProcess(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/restart?format=json", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRestartRotatesLogFile(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "sleep 30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, want 201", rec.Code)
	}
	firstLog := jsonString(t, payload, "log_file")

	rec, payload = doJSON(t, h, http.MethodPost, "/restart?format=json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("restart: status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if got := jsonString(t, payload, "status"); got != string(model.StatusRunning) {
		t.Errorf("run status = %q, want %q", got, model.StatusRunning)
	}
	if secondLog := jsonString(t, payload, "log_file"); secondLog == firstLog {
		t.Errorf("log file not rotated, still %q", secondLog)
	}
	// The replaced run's log file stays on disk.
	if _, err := os.Stat(firstLog); err != nil {
		t.Errorf("old log file gone after restart: %v", err)
	}
}

func TestRestartInvalidTimeout(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodPost, "/restart?format=json&timeout=0", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "Invalid timeout: 0" {
		t.Errorf("error = %q, want %q", got, "Invalid timeout: 0")
	}
}

func TestLogsNoProcess(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodGet, "/logs?format=json", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "No process started" {
		t.Errorf("error = %q, want %q", got, "No process started")
	}
}

func TestLogsBothFilters(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "echo hi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, want 201", rec.Code)
	}

	rec, payload := doJSON(t, h, http.MethodGet, "/logs?format=json&lines=5&seconds=60", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "Cannot specify both 'lines' and 'seconds'" {
		t.Errorf("error = %q, want %q", got, "Cannot specify both 'lines' and 'seconds'")
	}
}

func TestLogsInvalidLines(t *testing.T) {
	_, h := newTestServer(t)

	rec, payload := doJSON(t, h, http.MethodGet, "/logs?format=json&lines=zero", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := jsonString(t, payload, "error"); got != "Invalid value for 'lines': zero" {
		t.Errorf("error = %q, want %q", got, "Invalid value for 'lines': zero")
	}
}

func TestLogsAfterRun(t *testing.T) {
	_, h := newTestServer(t)

	rec, _ := doJSON(t, h, http.MethodPost, "/start?format=json", `{"command": "echo one; echo two"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status = %d, want 201", rec.Code)
	}

	rec, payload := doJSON(t, h, http.MethodGet, "/logs?format=json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("logs: status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	if got := jsonString(t, payload, "content"); got != "one\ntwo" {
		t.Errorf("content = %q, want %q", got, "one\ntwo")
	}

	// The text form returns only the captured content.
	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	textRec := httptest.NewRecorder()
	h.ServeHTTP(textRec, req)
	if textRec.Body.String() != "one\ntwo" {
		t.Errorf("text body = %q, want %q", textRec.Body.String(), "one\ntwo")
	}
}
