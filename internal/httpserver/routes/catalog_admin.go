package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/handlers"
)

func init() { Register(registerCatalogAdmin, adminOnly) }

// OS-KSCATALOG endpoint template administration.
func registerCatalogAdmin(r chi.Router, d deps.Deps) {
	const templates = identityV2 + "/OS-KSCATALOG/endpointTemplates"
	r.Get(templates, handlers.ListEndpointTemplates(d))
	r.Post(templates, handlers.AddEndpointTemplate(d))
	r.Delete(templates+"/{templateID}", handlers.DeleteEndpointTemplate(d))

	const tenantEndpoints = identityV2 + "/tenants/{tenantID}/OS-KSCATALOG/endpoints"
	r.Get(tenantEndpoints, handlers.ListTenantEndpoints(d))
	r.Post(tenantEndpoints, handlers.EnableTenantEndpoint(d))
	r.Delete(tenantEndpoints+"/{templateID}", handlers.DisableTenantEndpoint(d))
}
