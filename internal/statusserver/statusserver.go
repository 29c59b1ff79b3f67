// Package statusserver exposes the daemon's ambient HTTP observability
// surface: health, Prometheus metrics, and a JSON status summary. This is
// daemon observability, not a protocol the reconciler itself speaks.
package statusserver

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires /healthz, /metrics, /status behind a gorilla/mux router.
type Server struct {
	router    *mux.Router
	startTime time.Time
	ready     atomic.Bool
	lastApply atomic.Int64 // unix seconds, 0 if never
}

// StatusResponse is the JSON body for GET /status.
type StatusResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	Ready           bool   `json:"ready"`
	LastReconcileAt int64  `json:"last_reconcile_unix,omitempty"`
}

// New constructs a Server. Call MarkReady once the configdb client and
// engine executor have completed their first successful connect.
func New() *Server {
	s := &Server{router: mux.NewRouter(), startTime: time.Now()}
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return s
}

// Handler returns the http.Handler to pass to http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MarkReady flips the readiness flag /healthz reports.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

// RecordReconcile timestamps the most recent reconciliation for /status.
func (s *Server) RecordReconcile(at time.Time) {
	s.lastApply.Store(at.Unix())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := StatusResponse{
		Status:          "ok",
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		Ready:           s.ready.Load(),
		LastReconcileAt: s.lastApply.Load(),
	}
	json.NewEncoder(w).Encode(resp)
}
