package rest

import (
	"context"
	"net/http"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type PingHandler struct {
	check HealthCheck
}

func NewPingHandler(check HealthCheck) *PingHandler {
	return &PingHandler{check: check}
}

func (that *PingHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	if that.check != nil {
		if err := that.check(r.Context()); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
