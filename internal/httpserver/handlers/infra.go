package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool           `json:"ok"`
	Plugins map[string]int `json:"plugins,omitempty"`
	Count   *int           `json:"count,omitempty"`
	Mode    string         `json:"mode,omitempty"`
	Impact  string         `json:"impact,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := d.Registry.Stats()
		sessions := d.State.Sessions.Count()

		components := map[string]componentStatus{
			"registry": {
				OK:      total(stats) > 0,
				Plugins: stats,
			},
			"sessions": {
				OK:    true,
				Count: &sessions,
			},
			"messages": checkRedis(r.Context(), d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if reg, ok := components["registry"]; ok && !reg.OK {
		return "critical" // nothing to serve
	}
	if msgs, ok := components["messages"]; ok && !msgs.OK {
		return "degraded" // mailgun mock cannot store messages
	}
	return "operational"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:   true,
			Mode: "memory",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "redis",
			Impact: "message-store-unavailable",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:   true,
		Mode: "redis",
	}
}
