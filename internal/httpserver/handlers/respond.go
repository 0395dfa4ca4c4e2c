package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeFault renders an OpenStack style error document, e.g.
// {"itemNotFound": {"code": 404, "message": "..."}}.
func writeFault(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]fault{kind: {Code: status, Message: message}})
}

// rootURL is the externally visible base URL used to build catalog URLs.
func rootURL(r *http.Request, d deps.Deps) string {
	if d.BaseURL != "" {
		return d.BaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if d.TrustProxy {
		if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
			scheme = strings.TrimSpace(strings.Split(p, ",")[0])
		}
		if h := r.Header.Get("X-Forwarded-Host"); h != "" {
			host = strings.TrimSpace(strings.Split(h, ",")[0])
		}
	}
	return scheme + "://" + host
}
