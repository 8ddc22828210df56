package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate. The server flips it off before draining.
func SetReady(v bool) {
	ready.Store(v)
}

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingSMTP(ctx context.Context, timeout time.Duration) error
}

// CheckerFunc adapts a plain probe to Checker.
type CheckerFunc func(ctx context.Context, timeout time.Duration) error

// PingSMTP implements Checker.
func (f CheckerFunc) PingSMTP(ctx context.Context, timeout time.Duration) error {
	return f(ctx, timeout)
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker     Checker
	SMTPTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the relay probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	if h.Checker == nil {
		writeStatus(w, http.StatusOK, map[string]string{"smtp": "unchecked"})
		return
	}
	smtpStatus := "ok"
	if err := h.Checker.PingSMTP(r.Context(), h.smtpTimeout()); err != nil {
		smtpStatus = err.Error()
	}
	code := http.StatusOK
	if smtpStatus != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeStatus(w, code, map[string]string{"smtp": smtpStatus})
}

func writeStatus(w http.ResponseWriter, code int, status map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) smtpTimeout() time.Duration {
	if h.SMTPTimeout <= 0 {
		return 2 * time.Second
	}
	return h.SMTPTimeout
}
