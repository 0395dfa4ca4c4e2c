package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/logger"
)

// templateDoc is the OS-KSCATALOG representation of an endpoint template.
type templateDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Region      string `json:"region"`
	PublicURL   string `json:"publicURL"`
	InternalURL string `json:"internalURL,omitempty"`
	AdminURL    string `json:"adminURL,omitempty"`
	VersionID   string `json:"versionId,omitempty"`
	VersionInfo string `json:"versionInfo,omitempty"`
	VersionList string `json:"versionList,omitempty"`
	Enabled     bool   `json:"enabled"`
	TenantAlias string `json:"RAX-AUTH:tenantAlias,omitempty"`
	ServiceID   string `json:"serviceId,omitempty"`
}

type templateEnvelope struct {
	Template templateDoc `json:"OS-KSCATALOG:endpointTemplate"`
}

type templateListDoc struct {
	Templates []templateDoc `json:"OS-KSCATALOG"`
	Links     []any         `json:"OS-KSCATALOG:endpointsTemplates_links"`
}

type tenantEndpointsDoc struct {
	Endpoints []templateDoc `json:"endpoints"`
	Links     []any         `json:"endpoints_links"`
}

func docFromTemplate(store *catalog.ExternalAPIStore, t catalog.EndpointTemplate, enabled bool) templateDoc {
	return templateDoc{
		ID:          t.ID(),
		Name:        t.Name(),
		Type:        t.ServiceType(),
		Region:      t.Region(),
		PublicURL:   t.PublicURL(),
		InternalURL: t.InternalURL(),
		AdminURL:    t.AdminURL(),
		VersionID:   t.Version(),
		VersionInfo: t.VersionInfoURL(),
		VersionList: t.VersionListURL(),
		Enabled:     enabled,
		TenantAlias: t.TenantAlias(),
		ServiceID:   store.ID(),
	}
}

// ListEndpointTemplates mocks GET .../OS-KSCATALOG/endpointTemplates.
// ?serviceid= restricts the listing to one external API.
func ListEndpointTemplates(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID := r.URL.Query().Get("serviceid")

		doc := templateListDoc{Templates: []templateDoc{}, Links: []any{}}
		found := serviceID == ""
		for _, store := range d.Registry.ExternalAPIs() {
			if serviceID != "" && store.ID() != serviceID {
				continue
			}
			found = true
			for _, t := range store.Templates() {
				doc.Templates = append(doc.Templates, docFromTemplate(store, t, t.Enabled()))
			}
		}
		if !found {
			writeFault(w, http.StatusNotFound, "itemNotFound", "Service API not found")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// AddEndpointTemplate mocks POST .../OS-KSCATALOG/endpointTemplates. The
// template joins the external API named by its "name" (or serviceId).
func AddEndpointTemplate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var env templateEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			writeFault(w, http.StatusBadRequest, "badRequest", "Invalid JSON request body")
			return
		}
		in := env.Template
		if in.PublicURL == "" || in.Region == "" {
			writeFault(w, http.StatusBadRequest, "badRequest", "publicURL and region are required")
			return
		}

		store := findStore(d, in.ServiceID, in.Name)
		if store == nil {
			writeFault(w, http.StatusNotFound, "itemNotFound", "Service API not found")
			return
		}
		if in.Type == "" {
			in.Type = store.Type()
		}

		t := catalog.NewEndpointTemplate(catalog.TemplateSpec{
			ID:             in.ID,
			ServiceType:    in.Type,
			Region:         in.Region,
			Version:        in.VersionID,
			URL:            in.PublicURL,
			InternalURL:    in.InternalURL,
			AdminURL:       in.AdminURL,
			VersionInfoURL: in.VersionInfo,
			VersionListURL: in.VersionList,
			TenantAlias:    in.TenantAlias,
			Enabled:        in.Enabled,
		})
		if err := store.AddTemplate(t); err != nil {
			writeTemplateError(w, err)
			return
		}

		added, _ := store.Template(t.ID())
		d.Logger.Info("endpoint template added",
			logger.String("api", store.Name()),
			logger.String("template_id", added.ID()))
		writeJSON(w, http.StatusCreated, templateEnvelope{Template: docFromTemplate(store, added, added.Enabled())})
	}
}

// DeleteEndpointTemplate mocks DELETE .../OS-KSCATALOG/endpointTemplates/{templateID}.
func DeleteEndpointTemplate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "templateID")
		store, _, ok := d.Registry.FindTemplate(id)
		if !ok || !store.RemoveTemplate(id) {
			writeFault(w, http.StatusNotFound, "itemNotFound", "Unable to locate an External API with the given Template ID.")
			return
		}
		d.Logger.Info("endpoint template removed",
			logger.String("api", store.Name()),
			logger.String("template_id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListTenantEndpoints mocks GET /tenants/{tenantID}/OS-KSCATALOG/endpoints:
// the templates enabled for the tenant.
func ListTenantEndpoints(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		doc := tenantEndpointsDoc{Endpoints: []templateDoc{}, Links: []any{}}
		for _, store := range d.Registry.ExternalAPIs() {
			for _, tt := range store.TemplatesForTenant(tenantID) {
				if tt.Enabled {
					doc.Endpoints = append(doc.Endpoints, docFromTemplate(store, tt.Template, true))
				}
			}
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

// EnableTenantEndpoint mocks POST /tenants/{tenantID}/OS-KSCATALOG/endpoints.
func EnableTenantEndpoint(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")

		var env templateEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.Template.ID == "" {
			writeFault(w, http.StatusBadRequest, "badRequest", "Invalid JSON request body")
			return
		}

		store, t, ok := d.Registry.FindTemplate(env.Template.ID)
		if !ok {
			writeFault(w, http.StatusNotFound, "itemNotFound", "Unable to locate an External API with the given Template ID.")
			return
		}
		d.Registry.SetEnabledForTenant(store, tenantID, t.ID(), true)
		writeJSON(w, http.StatusCreated, templateEnvelope{Template: docFromTemplate(store, t, true)})
	}
}

// DisableTenantEndpoint mocks DELETE /tenants/{tenantID}/OS-KSCATALOG/endpoints/{templateID}.
func DisableTenantEndpoint(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := chi.URLParam(r, "tenantID")
		id := chi.URLParam(r, "templateID")

		store, _, ok := d.Registry.FindTemplate(id)
		if !ok {
			writeFault(w, http.StatusNotFound, "itemNotFound", "Unable to locate an External API with the given Template ID.")
			return
		}
		d.Registry.SetEnabledForTenant(store, tenantID, id, false)
		w.WriteHeader(http.StatusNoContent)
	}
}

func findStore(d deps.Deps, serviceID, name string) *catalog.ExternalAPIStore {
	for _, store := range d.Registry.ExternalAPIs() {
		if serviceID != "" && store.ID() == serviceID {
			return store
		}
	}
	if store, ok := d.Registry.ExternalAPIByName(name); ok {
		return store
	}
	return nil
}

func writeTemplateError(w http.ResponseWriter, err error) {
	var typeErr *catalog.InvalidServiceTypeError
	var dupErr *catalog.DuplicateTemplateError
	switch {
	case errors.As(err, &typeErr):
		writeFault(w, http.StatusConflict, "conflict", typeErr.Error())
	case errors.As(err, &dupErr):
		writeFault(w, http.StatusConflict, "conflict", dupErr.Error())
	default:
		writeFault(w, http.StatusInternalServerError, "identityFault", err.Error())
	}
}
