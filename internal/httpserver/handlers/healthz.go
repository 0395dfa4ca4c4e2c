package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
	Plugins       int     `json:"plugins"`
	Sessions      int     `json:"sessions"`
}

// Healthz answers as long as the process serves HTTP. It also reports how many
// plugins are registered and how many identity sessions were handed out.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: d.Now().Sub(start).Seconds(),
			Plugins:       total(d.Registry.Stats()),
			Sessions:      d.State.Sessions.Count(),
		})
	}
}
