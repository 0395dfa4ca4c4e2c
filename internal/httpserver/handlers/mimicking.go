package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/mw"
	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/plugin"
)

// Mimicking dispatches /mimicking/<pluginID>/<region>/<tenant>/... to the
// internally hosted plugin bound to that prefix. The plugin sees the path
// after the tenant segment and finds the tenant in the request scope.
func Mimicking(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(chi.URLParam(r, "*"), "/")

		route, err := d.Registry.ResolvePath(rest)
		if err != nil {
			d.Logger.Debug("no plugin for path", logger.String("path", rest))
			writeFault(w, http.StatusNotFound, "itemNotFound", err.Error())
			return
		}

		after := strings.TrimPrefix(strings.TrimPrefix(rest, route.Prefix), "/")
		tenantID, tail, _ := strings.Cut(after, "/")
		if tenantID == "" {
			writeFault(w, http.StatusNotFound, "itemNotFound", "tenant id missing from path")
			return
		}

		ctx := plugin.WithScope(r.Context(), plugin.Scope{
			TenantID: tenantID,
			Region:   route.Region,
			Prefix:   route.Prefix,
		})
		mw.Forward(w, r.WithContext(ctx), route.Handler(), "/"+tail)
	}
}
