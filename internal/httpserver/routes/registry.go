package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
	// MiddlewareFactory builds a middleware once the dependencies are known.
	MiddlewareFactory func(d deps.Deps) Middleware
)

type entry struct {
	reg Registrar
	mws []MiddlewareFactory
}

var registry []entry

// Register a registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...MiddlewareFactory) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterAll applies every registrar, in registration order. Called once from server.NewHandler().
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		built := make([]Middleware, 0, len(e.mws))
		for _, mk := range e.mws {
			built = append(built, mk(d))
		}
		e.reg(r.With(built...), d) // apply per-route middlewares
	}
}

// adminOnly restricts a registrar to SKYMOCK_ADMIN_CIDRS.
func adminOnly(d deps.Deps) Middleware {
	return mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger)
}
