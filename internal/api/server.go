// Package api exposes the supervisor core over HTTP. Handlers are thin:
// they validate input, call the core, and map its typed errors to status
// codes.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/d41928/shellherd/internal/apperr"
	"github.com/d41928/shellherd/internal/config"
	"github.com/d41928/shellherd/internal/logpipe"
	"github.com/d41928/shellherd/internal/supervisor"
)

// Version is reported by GET /health.
const Version = "1.0.0"

// TUIHeader marks dashboard requests so they are excluded from access
// logging.
const TUIHeader = "X-Shellherd-TUI"

// Server wires the supervisor and log pipeline to the HTTP surface.
type Server struct {
	sup       *supervisor.Supervisor
	logs      *logpipe.Pipeline
	cfg       *config.Config
	accessLog *log.Logger
	startedAt time.Time
}

// NewServer creates a Server. A nil accessLog disables access logging.
func NewServer(sup *supervisor.Supervisor, logs *logpipe.Pipeline, cfg *config.Config, accessLog *log.Logger) *Server {
	return &Server{
		sup:       sup,
		logs:      logs,
		cfg:       cfg,
		accessLog: accessLog,
		startedAt: time.Now().UTC(),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/kill", s.handleKill)
	mux.HandleFunc("/restart", s.handleRestart)
	mux.HandleFunc("/logs", s.handleLogs)
	return s.withAccessLog(mux)
}

// Shutdown terminates any live child and stops the drain task. Called
// once when the HTTP server goes down.
func (s *Server) Shutdown() {
	_ = s.sup.Close()
	s.logs.StopLogging()
}

// withAccessLog logs one line per request, skipping dashboard polling
// traffic.
func (s *Server) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.accessLog == nil || r.Header.Get(TUIHeader) == "1" {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.accessLog.Printf("%s %s %s %d", r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// respondJSON writes a JSON response with the given status code.
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && s.accessLog != nil {
		s.accessLog.Printf("error encoding response: %v", err)
	}
}

// respondText writes a plain-text response with the given status code.
func (s *Server) respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// respondError maps a core error to its HTTP status code. Messages are
// passed through so no failure collapses into a generic message.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var conflict *apperr.ConflictError
	var notFound *apperr.NotFoundError
	var badReq *apperr.BadRequestError
	switch {
	case errors.As(err, &conflict):
		status = http.StatusConflict
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &badReq):
		status = http.StatusBadRequest
	}

	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

// respondErrorMsg writes an error response with an explicit status code.
func (s *Server) respondErrorMsg(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

// wantsJSON reports whether the request asked for structured output.
// Text is the default, matching the flattened human-readable rendering.
func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json"
}
