package catalog

import (
	"errors"
	"sync"
)

// ExternalAPIStore owns the endpoint templates of one externally hosted service
// together with the per-tenant enable/disable overrides.
//
// Templates are ordered by insertion. Overrides map tenant id -> template id ->
// enabled; an override always wins over the template default.
type ExternalAPIStore struct {
	id          string
	name        string
	serviceType string

	mu        sync.RWMutex
	templates []EndpointTemplate
	overrides map[string]map[string]bool
}

// NewExternalAPIStore validates templates and returns a store owning copies of them
// with name stamped on each one.
//
// The service type of the first template is authoritative; any template that
// disagrees yields an *InvalidServiceTypeError and no store. serviceType may be
// empty, in which case it is taken from the first template. A store without
// templates needs an explicit serviceType.
func NewExternalAPIStore(id, name, serviceType string, templates []EndpointTemplate) (*ExternalAPIStore, error) {
	if len(templates) > 0 {
		first := templates[0].ServiceType()
		if serviceType == "" {
			serviceType = first
		}
		for _, t := range templates {
			if t.ServiceType() != first || t.ServiceType() != serviceType {
				return nil, &InvalidServiceTypeError{Want: serviceType, Got: t.ServiceType(), TemplateID: t.ID()}
			}
		}
	}
	if serviceType == "" {
		return nil, errors.New("service type is required for an empty store")
	}

	owned := make([]EndpointTemplate, 0, len(templates))
	seen := make(map[string]struct{}, len(templates))
	for _, t := range templates {
		if _, dup := seen[t.ID()]; dup {
			return nil, &DuplicateTemplateError{TemplateID: t.ID()}
		}
		seen[t.ID()] = struct{}{}
		owned = append(owned, t.WithName(name))
	}

	return &ExternalAPIStore{
		id:          id,
		name:        name,
		serviceType: serviceType,
		templates:   owned,
		overrides:   make(map[string]map[string]bool),
	}, nil
}

func (s *ExternalAPIStore) ID() string   { return s.id }
func (s *ExternalAPIStore) Name() string { return s.name }
func (s *ExternalAPIStore) Type() string { return s.serviceType }

// SetEnabledForTenant records an override for one tenant. Unknown template ids are
// stored as well; they have no effect until a template with that id exists.
func (s *ExternalAPIStore) SetEnabledForTenant(tenantID, templateID string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perTenant, ok := s.overrides[tenantID]
	if !ok {
		perTenant = make(map[string]bool)
		s.overrides[tenantID] = perTenant
	}
	perTenant[templateID] = enabled
}

// IsEnabled reports the effective enabled state of a template for a tenant.
// It is false for templates the store does not hold.
func (s *ExternalAPIStore) IsEnabled(tenantID, templateID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates {
		if t.ID() == templateID {
			return s.enabledLocked(tenantID, t)
		}
	}
	return false
}

func (s *ExternalAPIStore) enabledLocked(tenantID string, t EndpointTemplate) bool {
	if enabled, ok := s.overrides[tenantID][t.ID()]; ok {
		return enabled
	}
	return t.Enabled()
}

// EntriesForTenant returns the catalog entry of this service for tenantID.
// All enabled templates are grouped into a single entry; disabled templates are
// left out. When nothing is enabled the result is empty.
func (s *ExternalAPIStore) EntriesForTenant(tenantID string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var endpoints []Endpoint
	for _, t := range s.templates {
		if s.enabledLocked(tenantID, t) {
			endpoints = append(endpoints, t.Endpoint(tenantID))
		}
	}
	if len(endpoints) == 0 {
		return nil
	}
	return []Entry{{
		TenantID:  tenantID,
		Type:      s.serviceType,
		Name:      s.name,
		Endpoints: endpoints,
	}}
}

// TenantTemplate is a template together with its effective state for one tenant.
type TenantTemplate struct {
	Template EndpointTemplate
	Enabled  bool
}

// TemplatesForTenant lists every template with its effective enabled state.
func (s *ExternalAPIStore) TemplatesForTenant(tenantID string) []TenantTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TenantTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, TenantTemplate{Template: t, Enabled: s.enabledLocked(tenantID, t)})
	}
	return out
}

// Templates returns a snapshot of the templates in insertion order.
func (s *ExternalAPIStore) Templates() []EndpointTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]EndpointTemplate(nil), s.templates...)
}

// Template looks a template up by id.
func (s *ExternalAPIStore) Template(id string) (EndpointTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates {
		if t.ID() == id {
			return t, true
		}
	}
	return EndpointTemplate{}, false
}

// AddTemplate appends a template created at runtime. The store name is stamped
// onto it like at construction.
func (s *ExternalAPIStore) AddTemplate(t EndpointTemplate) error {
	if t.ServiceType() != s.serviceType {
		return &InvalidServiceTypeError{Want: s.serviceType, Got: t.ServiceType(), TemplateID: t.ID()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.templates {
		if existing.ID() == t.ID() {
			return &DuplicateTemplateError{TemplateID: t.ID()}
		}
	}
	s.templates = append(s.templates, t.WithName(s.name))
	return nil
}

// RemoveTemplate drops a template. Overrides referring to it are kept and become inert.
func (s *ExternalAPIStore) RemoveTemplate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.templates {
		if t.ID() == id {
			s.templates = append(s.templates[:i:i], s.templates[i+1:]...)
			return true
		}
	}
	return false
}
