package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/mw"
)

type domainsDoc struct {
	Domains []string `json:"domains"`
}

// Domains lists the domains served by domain plugins, in registration order.
func Domains(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domainsDoc{Domains: d.Registry.Domains()})
	}
}

// Domain serves /domain/{domain}/... with the plugin of that domain, for
// clients that cannot choose the Host header.
func Domain(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, err := d.Registry.ResolveDomain(chi.URLParam(r, "domain"))
		if err != nil {
			writeFault(w, http.StatusNotFound, "itemNotFound", err.Error())
			return
		}
		mw.Forward(w, r, h, chi.URLParam(r, "*"))
	}
}
