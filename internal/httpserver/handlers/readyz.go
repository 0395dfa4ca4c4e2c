package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz reports ready once at least one plugin is registered and, when
// messages live in redis, redis answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if total(d.Registry.Stats()) == 0 {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "no plugins registered"})
			return
		}
		if d.RedisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Reason: "redis unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
