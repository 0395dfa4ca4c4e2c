// Package registry composes registered plugins into per-tenant service catalogs
// and resolves inbound requests to plugin handlers.
package registry

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v2/tokens"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/monitoring"
	"github.com/MrSnakeDoc/skymock/internal/plugin"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

// Plugin variants, as reported by Stats and the metrics.
const (
	VariantInternal = "internal"
	VariantExternal = "external"
	VariantOther    = "other"
	VariantDomain   = "domain"
)

type registered struct {
	id      string
	api     plugin.API
	variant string
}

// Registry is the ordered set of registered plugins.
//
// Registration is append-only. Plugin order decides catalog order and domain
// matching priority. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	apis    []registered
	byID    map[string]registered
	domains []plugin.DomainAPI

	routesMu sync.Mutex
	routes   map[string]*Route

	state   *session.State
	log     logger.Logger
	monitor *monitoring.Monitor
}

// Option configures a Registry.
type Option func(*Registry)

// WithMonitor reports catalog and routing activity to m.
func WithMonitor(m *monitoring.Monitor) Option {
	return func(r *Registry) { r.monitor = m }
}

// New creates an empty registry. state is handed to every internally hosted
// plugin when it is bound to a region.
func New(state *session.State, log logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		byID:   make(map[string]registered),
		routes: make(map[string]*Route),
		state:  state,
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the shared collaborator state.
func (r *Registry) State() *session.State { return r.state }

// Register appends an API plugin and returns the id used in its route prefixes.
// Registering the same plugin twice is the caller's mistake and is not detected.
func (r *Registry) Register(p plugin.API) string {
	reg := registered{id: uuid.NewString(), api: p, variant: variantOf(p)}

	r.mu.Lock()
	r.apis = append(r.apis, reg)
	r.byID[reg.id] = reg
	counts := r.countsLocked()
	r.mu.Unlock()

	r.monitor.SetPlugins(reg.variant, counts[reg.variant])
	r.log.Info("registered api plugin",
		logger.String("plugin_id", reg.id),
		logger.String("variant", reg.variant))
	return reg.id
}

// RegisterDomain appends a domain plugin.
func (r *Registry) RegisterDomain(p plugin.DomainAPI) {
	r.mu.Lock()
	r.domains = append(r.domains, p)
	n := len(r.domains)
	r.mu.Unlock()

	r.monitor.SetPlugins(VariantDomain, n)
	r.log.Info("registered domain plugin", logger.String("domain", p.Domain()))
}

func variantOf(p plugin.API) string {
	switch p.(type) {
	case *plugin.ExternalAPI:
		return VariantExternal
	case plugin.InternalAPI:
		return VariantInternal
	default:
		return VariantOther
	}
}

func (r *Registry) countsLocked() map[string]int {
	counts := make(map[string]int, 3)
	for _, reg := range r.apis {
		counts[reg.variant]++
	}
	return counts
}

// CatalogForTenant concatenates the catalog entries of every plugin in
// registration order. Internally hosted endpoints get their route prefix
// stamped and the corresponding route bound.
func (r *Registry) CatalogForTenant(tenantID string) []catalog.Entry {
	r.mu.RLock()
	apis := append([]registered(nil), r.apis...)
	r.mu.RUnlock()

	var entries []catalog.Entry
	for _, reg := range apis {
		for _, entry := range reg.api.CatalogEntries(tenantID) {
			if internal, ok := reg.api.(plugin.InternalAPI); ok {
				entry = r.bindEntry(reg.id, internal, entry)
			}
			entries = append(entries, entry)
		}
	}

	r.monitor.ObserveCatalog(len(entries))
	return entries
}

// bindEntry copies entry with prefixes stamped on its endpoints.
func (r *Registry) bindEntry(pluginID string, api plugin.InternalAPI, entry catalog.Entry) catalog.Entry {
	endpoints := make([]catalog.Endpoint, 0, len(entry.Endpoints))
	for _, ep := range entry.Endpoints {
		ep.Prefix = r.bindRoute(pluginID, ep.Region, api).Prefix
		endpoints = append(endpoints, ep)
	}
	entry.Endpoints = endpoints
	return entry
}

// ServiceCatalog returns the tenant's catalog in identity v2 wire form.
func (r *Registry) ServiceCatalog(tenantID, root string) []tokens.CatalogEntry {
	return catalog.ServiceCatalog(r.CatalogForTenant(tenantID), root)
}

// ExternalAPIs returns the stores of every registered external plugin, in order.
func (r *Registry) ExternalAPIs() []*catalog.ExternalAPIStore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stores []*catalog.ExternalAPIStore
	for _, reg := range r.apis {
		if ext, ok := reg.api.(*plugin.ExternalAPI); ok {
			stores = append(stores, ext.Store())
		}
	}
	return stores
}

// ExternalAPIByName finds an external store by display name.
func (r *Registry) ExternalAPIByName(name string) (*catalog.ExternalAPIStore, bool) {
	for _, store := range r.ExternalAPIs() {
		if store.Name() == name {
			return store, true
		}
	}
	return nil, false
}

// FindTemplate locates the external store holding the template id.
func (r *Registry) FindTemplate(id string) (*catalog.ExternalAPIStore, catalog.EndpointTemplate, bool) {
	for _, store := range r.ExternalAPIs() {
		if t, ok := store.Template(id); ok {
			return store, t, true
		}
	}
	return nil, catalog.EndpointTemplate{}, false
}

// SetEnabledForTenant applies an override on store and records it.
func (r *Registry) SetEnabledForTenant(store *catalog.ExternalAPIStore, tenantID, templateID string, enabled bool) {
	store.SetEnabledForTenant(tenantID, templateID, enabled)
	r.monitor.ObserveOverride(enabled)
	r.log.Info("tenant endpoint override",
		logger.String("tenant_id", tenantID),
		logger.String("template_id", templateID),
		logger.Bool("enabled", enabled))
}

// Domains lists the registered domains in registration order.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.domains))
	for _, d := range r.domains {
		out = append(out, d.Domain())
	}
	return out
}

// Stats counts registered plugins by variant.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := r.countsLocked()
	counts[VariantDomain] = len(r.domains)
	return counts
}

// ResolveDomain returns the handler of the first domain plugin whose domain
// equals host exactly. Hits and misses are recorded.
func (r *Registry) ResolveDomain(host string) (http.Handler, error) {
	h, ok := r.lookupDomain(host)
	r.monitor.ObserveResolution(monitoring.KindDomain, ok)
	if !ok {
		return nil, &NoMatchingHandlerError{Kind: monitoring.KindDomain, Target: host}
	}
	return h, nil
}

// LookupDomain is ResolveDomain without miss accounting, for middleware that
// checks the Host of every inbound request. Only a hit is recorded.
func (r *Registry) LookupDomain(host string) (http.Handler, bool) {
	h, ok := r.lookupDomain(host)
	if ok {
		r.monitor.ObserveResolution(monitoring.KindDomain, true)
	}
	return h, ok
}

func (r *Registry) lookupDomain(host string) (http.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.domains {
		if d.Domain() == host {
			return d.Resource(), true
		}
	}
	return nil, false
}
