package tui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/d41928/shellherd/internal/api"
	"github.com/d41928/shellherd/internal/model"
)

func testClient(ts *httptest.Server) *Client {
	return &Client{baseURL: ts.URL, http: ts.Client()}
}

func TestClientStatus(t *testing.T) {
	var gotHeader string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(api.TUIHeader)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"command":"sleep 5","status":"running","process_pid":1234}`))
	}))
	defer ts.Close()

	snap, err := testClient(ts).Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if snap.Status != model.StatusRunning {
		t.Errorf("status = %q, want %q", snap.Status, model.StatusRunning)
	}
	if snap.PID == nil || *snap.PID != 1234 {
		t.Errorf("pid = %v, want 1234", snap.PID)
	}
	if gotHeader != "1" {
		t.Errorf("requests must carry the dashboard header, got %q", gotHeader)
	}
}

func TestClientLogs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("lines"); got != "25" {
			t.Errorf("lines = %q, want %q", got, "25")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"log_file":"a.log","total_lines":3,"lines_returned":2,"content":"x\ny"}`))
	}))
	defer ts.Close()

	result, err := testClient(ts).Logs(25)
	if err != nil {
		t.Fatalf("Logs failed: %v", err)
	}
	if result.LinesReturned != 2 {
		t.Errorf("linesReturned = %d, want 2", result.LinesReturned)
	}
	if result.Content != "x\ny" {
		t.Errorf("content = %q, want %q", result.Content, "x\ny")
	}
}

func TestClientKillErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"No process to kill"}`))
	}))
	defer ts.Close()

	err := testClient(ts).Kill(model.SignalTerminate)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "No process to kill" {
		t.Errorf("error = %q, want server message", err.Error())
	}
}

func TestClientHealthy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","version":"1.0.0","uptime":1}`))
	}))
	defer ts.Close()

	if !testClient(ts).Healthy() {
		t.Error("expected Healthy to report true")
	}

	ts.Close()
	if testClient(ts).Healthy() {
		t.Error("expected Healthy to report false after server shutdown")
	}
}
