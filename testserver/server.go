// Package testserver provides a configurable HTTP target used by the
// package tests: fixed statuses, fixed delays, JSON echo and probabilistic
// failures.
package testserver

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Server is a configurable HTTP load target.
type Server struct {
	mux      *http.ServeMux
	requests atomic.Int64
}

// NewServer creates a target with all endpoints registered.
func NewServer() *Server {
	s := &Server{mux: http.NewServeMux()}
	s.mux.HandleFunc("/ok", s.handleOK)
	s.mux.HandleFunc("/status/", s.handleStatus)
	s.mux.HandleFunc("/delay/", s.handleDelay)
	s.mux.HandleFunc("/echo", s.handleEcho)
	s.mux.HandleFunc("/flaky", s.handleFlaky)
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mux.ServeHTTP(w, r)
	})
}

// Requests returns how many requests the server has received.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) handleOK(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// handleStatus responds with the status code given in the path.
// Example: GET /status/503 responds 503.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 100 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.WriteHeader(code)
	fmt.Fprintf(w, "%d %s", code, http.StatusText(code))
}

// handleDelay sleeps for the requested number of milliseconds first.
// Example: GET /delay/50 responds after 50ms.
func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/delay/"))
	if err != nil || ms < 0 {
		http.Error(w, "invalid delay", http.StatusBadRequest)
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
	fmt.Fprintf(w, "delayed %dms", ms)
}

// handleEcho returns the request body and content type unchanged.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Echo-Method", r.Method)
	_, _ = io.Copy(w, r.Body)
}

// handleFlaky fails with 500 at the rate given by the rate query parameter
// (0..1, default 0.5).
func (s *Server) handleFlaky(w http.ResponseWriter, r *http.Request) {
	failRate := 0.5
	if q := r.URL.Query().Get("rate"); q != "" {
		f, err := strconv.ParseFloat(q, 64)
		if err != nil || f < 0 || f > 1 {
			http.Error(w, "invalid rate", http.StatusBadRequest)
			return
		}
		failRate = f
	}
	if rand.Float64() < failRate {
		http.Error(w, "flaky failure", http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, "ok")
}
