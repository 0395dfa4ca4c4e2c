package apis

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/plugin"
)

// Mapper converts API definitions into external API plugins.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapAPIs builds one store per definition, in file order. The first invalid
// definition aborts the whole mapping so that nothing half-built is registered.
func (m *Mapper) MapAPIs(f File) ([]*plugin.ExternalAPI, error) {
	out := make([]*plugin.ExternalAPI, 0, len(f.APIs))
	for i, def := range f.APIs {
		store, err := m.MapAPI(def)
		if err != nil {
			return nil, fmt.Errorf("api #%d (%s): %w", i, def.Name, err)
		}
		out = append(out, plugin.NewExternalAPI(store))
	}
	return out, nil
}

// MapAPI builds the store for a single definition.
func (m *Mapper) MapAPI(def APIDef) (*catalog.ExternalAPIStore, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	templates := make([]catalog.EndpointTemplate, 0, len(def.Templates))
	for _, td := range def.Templates {
		if td.URL == "" && td.PublicURL == "" {
			return nil, fmt.Errorf("template %q: url is required", td.ID)
		}
		templates = append(templates, catalog.NewEndpointTemplate(templateSpec(def, td)))
	}

	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	return catalog.NewExternalAPIStore(id, def.Name, def.Type, templates)
}

func templateSpec(def APIDef, td TemplateDef) catalog.TemplateSpec {
	serviceType := td.Type
	if serviceType == "" {
		serviceType = def.Type
	}
	url := td.URL
	if url == "" {
		url = td.PublicURL
	}
	enabled := true
	if td.Enabled != nil {
		enabled = *td.Enabled
	}
	return catalog.TemplateSpec{
		ID:             td.ID,
		ServiceType:    serviceType,
		Name:           def.Name,
		Region:         td.Region,
		Version:        td.Version,
		URL:            url,
		PublicURL:      td.PublicURL,
		InternalURL:    td.InternalURL,
		AdminURL:       td.AdminURL,
		VersionInfoURL: td.VersionInfoURL,
		VersionListURL: td.VersionListURL,
		TenantAlias:    td.TenantAlias,
		Enabled:        enabled,
	}
}
