package mw

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/logger"
)

// DomainResolver finds the handler registered for a host name.
type DomainResolver interface {
	LookupDomain(host string) (http.Handler, bool)
}

// DomainDispatch serves requests whose Host names a registered domain plugin
// with that plugin. Everything else continues down the chain.
// Matching is exact on the host name; the port is ignored.
func DomainDispatch(resolver DomainResolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := HostName(r.Host)
			h, ok := resolver.LookupDomain(host)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			log.Debugf("DomainDispatch: Host %s served by domain plugin", host)
			Forward(w, r, h, r.URL.Path)
		})
	}
}

// HostName strips the port from a Host header value.
func HostName(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return h
	}
	return hostport
}

// Forward hands r to h as if it had been sent to path, with a routing context
// of its own so that h may be a chi router.
func Forward(w http.ResponseWriter, r *http.Request, h http.Handler, path string) {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, chi.NewRouteContext())
	r2 := r.Clone(ctx)
	r2.URL.Path = path
	r2.URL.RawPath = ""
	h.ServeHTTP(w, r2)
}
