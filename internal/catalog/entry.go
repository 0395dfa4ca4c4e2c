package catalog

import "strings"

// MimickingPath is the path segment under which internally hosted plugins are served.
const MimickingPath = "mimicking"

// Endpoint is one region/version of a service as seen by one tenant.
//
// Internally hosted endpoints carry a Prefix, assigned by the registry when the
// owning plugin is bound to a region, and derive their URLs from the server root.
// Externally hosted endpoints carry fixed URLs copied from their template.
type Endpoint struct {
	TenantID   string
	Region     string
	EndpointID string
	Version    string
	Prefix     string

	PublicURL   string
	InternalURL string
	AdminURL    string
	VersionInfo string
	VersionList string

	external bool
}

// NewEndpoint creates an internally hosted endpoint. Its prefix is filled in
// later by the registry.
func NewEndpoint(tenantID, region, endpointID, version string) Endpoint {
	return Endpoint{
		TenantID:   tenantID,
		Region:     region,
		EndpointID: endpointID,
		Version:    version,
	}
}

// External reports whether the endpoint points outside this server.
func (e Endpoint) External() bool { return e.external }

// URLs returns the public, internal and admin URLs of the endpoint.
// root is the externally visible base URL of this server, e.g. "http://localhost:8900".
func (e Endpoint) URLs(root string) (public, internal, admin string) {
	if e.external {
		return e.PublicURL, e.InternalURL, e.AdminURL
	}
	u := e.URL(root)
	return u, u, u
}

// URL returns the tenant scoped URL of an internally hosted endpoint.
func (e Endpoint) URL(root string) string {
	if e.external {
		return e.PublicURL
	}
	parts := []string{strings.TrimRight(root, "/"), MimickingPath}
	if e.Prefix != "" {
		parts = append(parts, strings.Trim(e.Prefix, "/"))
	}
	parts = append(parts, e.TenantID)
	return strings.Join(parts, "/")
}

// Entry is one named service in a tenant's catalog.
type Entry struct {
	TenantID  string
	Type      string
	Name      string
	Endpoints []Endpoint
}

// NewEntry builds an Entry. The endpoints slice is copied.
func NewEntry(tenantID, serviceType, name string, endpoints []Endpoint) Entry {
	return Entry{
		TenantID:  tenantID,
		Type:      serviceType,
		Name:      name,
		Endpoints: append([]Endpoint(nil), endpoints...),
	}
}
