// Package plugin defines the contracts mock services implement to appear in the
// service catalog and receive requests.
//
// There are three variants:
//   - InternalAPI: hosted in this process, reached under a tenant scoped path prefix.
//   - *ExternalAPI: hosted elsewhere, described by an ExternalAPIStore of endpoint templates.
//   - DomainAPI: hosted in this process, reached by matching the request's Host.
//
// Plugins are registered explicitly with the registry at startup.
package plugin

import (
	"net/http"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

// API is anything that contributes entries to a tenant's service catalog.
type API interface {
	CatalogEntries(tenantID string) []catalog.Entry
}

// InternalAPI is an API whose requests are served by this process.
type InternalAPI interface {
	API
	// ResourceForRegion returns the handler serving region. It is called at most
	// once per region; uriPrefix is the route prefix the handler is mounted on.
	ResourceForRegion(region, uriPrefix string, state *session.State) http.Handler
}

// DomainAPI is served when a request's Host equals Domain().
type DomainAPI interface {
	Domain() string
	Resource() http.Handler
}

// ExternalAPI exposes an ExternalAPIStore as a catalog plugin.
type ExternalAPI struct {
	store *catalog.ExternalAPIStore
}

// NewExternalAPI wraps store.
func NewExternalAPI(store *catalog.ExternalAPIStore) *ExternalAPI {
	return &ExternalAPI{store: store}
}

// CatalogEntries delegates to the store's tenant view.
func (e *ExternalAPI) CatalogEntries(tenantID string) []catalog.Entry {
	return e.store.EntriesForTenant(tenantID)
}

// Store returns the wrapped store.
func (e *ExternalAPI) Store() *catalog.ExternalAPIStore {
	return e.store
}
