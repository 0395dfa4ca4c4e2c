package registry

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/monitoring"
	"github.com/MrSnakeDoc/skymock/internal/plugin"
)

// NoMatchingHandlerError is returned when no plugin serves a request.
type NoMatchingHandlerError struct {
	Kind   string // "domain" or "path"
	Target string
}

func (e *NoMatchingHandlerError) Error() string {
	return fmt.Sprintf("no handler for %s %q", e.Kind, e.Target)
}

// Route is an internally hosted plugin bound to one region.
type Route struct {
	Prefix   string // "<pluginID>/<region>"
	PluginID string
	Region   string

	api     plugin.InternalAPI
	once    sync.Once
	handler http.Handler
	bind    func() http.Handler
}

// Handler returns the plugin's handler for this region, creating it on first use.
func (rt *Route) Handler() http.Handler {
	rt.once.Do(func() {
		rt.handler = rt.bind()
	})
	return rt.handler
}

func routePrefix(pluginID, region string) string {
	return pluginID + "/" + region
}

// bindRoute returns the route of (pluginID, region), creating it when missing.
func (r *Registry) bindRoute(pluginID, region string, api plugin.InternalAPI) *Route {
	prefix := routePrefix(pluginID, region)

	r.routesMu.Lock()
	defer r.routesMu.Unlock()

	if rt, ok := r.routes[prefix]; ok {
		return rt
	}
	rt := &Route{
		Prefix:   prefix,
		PluginID: pluginID,
		Region:   region,
		api:      api,
	}
	rt.bind = func() http.Handler {
		r.log.Debug("binding plugin to region",
			logger.String("plugin_id", pluginID),
			logger.String("region", region))
		return api.ResourceForRegion(region, prefix, r.state)
	}
	r.routes[prefix] = rt
	return rt
}

// ResolvePath finds the route serving path, given relative to the mimicking root
// (e.g. "<pluginID>/<region>/<tenant>/..."). The longest bound prefix wins.
// A registered internal plugin is bound on demand to a region its catalog
// entries declare but that no catalog has bound yet. Other regions miss, so
// the route table never holds more than the declared (plugin, region) pairs.
func (r *Registry) ResolvePath(path string) (*Route, error) {
	segments := splitPath(path)

	r.routesMu.Lock()
	for i := len(segments); i > 0; i-- {
		if rt, ok := r.routes[strings.Join(segments[:i], "/")]; ok {
			r.routesMu.Unlock()
			r.monitor.ObserveResolution(monitoring.KindPath, true)
			return rt, nil
		}
	}
	r.routesMu.Unlock()

	if len(segments) >= 2 {
		r.mu.RLock()
		reg, ok := r.byID[segments[0]]
		r.mu.RUnlock()
		internal, isInternal := reg.api.(plugin.InternalAPI)
		if ok && isInternal && declaresRegion(internal, segments[1]) {
			r.monitor.ObserveResolution(monitoring.KindPath, true)
			return r.bindRoute(reg.id, segments[1], internal), nil
		}
	}

	r.monitor.ObserveResolution(monitoring.KindPath, false)
	return nil, &NoMatchingHandlerError{Kind: monitoring.KindPath, Target: path}
}

// declaresRegion reports whether any catalog entry of api has an endpoint in region.
func declaresRegion(api plugin.InternalAPI, region string) bool {
	for _, entry := range api.CatalogEntries("") {
		for _, ep := range entry.Endpoints {
			if ep.Region == region {
				return true
			}
		}
	}
	return false
}

func splitPath(path string) []string {
	raw := strings.Split(strings.Trim(path, "/"), "/")
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
