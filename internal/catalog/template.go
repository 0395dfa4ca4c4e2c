package catalog

import "github.com/google/uuid"

// DefaultTenantAlias is the placeholder a template URL may carry for the tenant id.
// It is stored on the template but never substituted: externally hosted URLs are
// served as-is.
const DefaultTenantAlias = "%tenant_id%"

// TemplateSpec holds the inputs for NewEndpointTemplate. Zero values select the
// defaults described on each field.
//
// The empty string means unset for every defaulted field, whether it was left
// out or given explicitly. A template therefore cannot carry an empty role URL
// while URL is set; clients that need to see "no admin endpoint" should get a
// template with an empty URL instead.
type TemplateSpec struct {
	ID          string // empty => fresh uuid
	ServiceType string // e.g. "object-store"
	Name        string // display name, overwritten by the owning store
	Region      string // e.g. "ORD"
	Version     string // e.g. "v1"

	URL         string // base URL, used for every role left empty
	PublicURL   string
	InternalURL string
	AdminURL    string

	VersionInfoURL string // empty => URL + "/versionInfo"
	VersionListURL string // empty => URL + "/versions"

	TenantAlias string // empty => DefaultTenantAlias
	Enabled     bool   // default for tenants without an override
}

// EndpointTemplate describes one region/version variant of an externally hosted
// service. It is immutable: the With* methods return modified copies.
type EndpointTemplate struct {
	id          string
	serviceType string
	name        string
	region      string
	version     string

	publicURL   string
	internalURL string
	adminURL    string

	versionInfoURL string
	versionListURL string

	tenantAlias string
	enabled     bool
}

// NewEndpointTemplate builds a template from spec, filling in defaults.
// No cross-template validation happens here; ExternalAPIStore enforces
// service type consistency.
func NewEndpointTemplate(spec TemplateSpec) EndpointTemplate {
	t := EndpointTemplate{
		id:             spec.ID,
		serviceType:    spec.ServiceType,
		name:           spec.Name,
		region:         spec.Region,
		version:        spec.Version,
		publicURL:      orDefault(spec.PublicURL, spec.URL),
		internalURL:    orDefault(spec.InternalURL, spec.URL),
		adminURL:       orDefault(spec.AdminURL, spec.URL),
		versionInfoURL: orDefault(spec.VersionInfoURL, spec.URL+"/versionInfo"),
		versionListURL: orDefault(spec.VersionListURL, spec.URL+"/versions"),
		tenantAlias:    orDefault(spec.TenantAlias, DefaultTenantAlias),
		enabled:        spec.Enabled,
	}
	if t.id == "" {
		t.id = uuid.NewString()
	}
	return t
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func (t EndpointTemplate) ID() string             { return t.id }
func (t EndpointTemplate) ServiceType() string    { return t.serviceType }
func (t EndpointTemplate) Name() string           { return t.name }
func (t EndpointTemplate) Region() string         { return t.region }
func (t EndpointTemplate) Version() string        { return t.version }
func (t EndpointTemplate) PublicURL() string      { return t.publicURL }
func (t EndpointTemplate) InternalURL() string    { return t.internalURL }
func (t EndpointTemplate) AdminURL() string       { return t.adminURL }
func (t EndpointTemplate) VersionInfoURL() string { return t.versionInfoURL }
func (t EndpointTemplate) VersionListURL() string { return t.versionListURL }
func (t EndpointTemplate) TenantAlias() string    { return t.tenantAlias }
func (t EndpointTemplate) Enabled() bool          { return t.enabled }

// WithName returns a copy of t carrying name.
func (t EndpointTemplate) WithName(name string) EndpointTemplate {
	t.name = name
	return t
}

// WithEnabled returns a copy of t with a different default enabled flag.
func (t EndpointTemplate) WithEnabled(enabled bool) EndpointTemplate {
	t.enabled = enabled
	return t
}

// Endpoint renders the template as a catalog endpoint for tenantID.
func (t EndpointTemplate) Endpoint(tenantID string) Endpoint {
	return Endpoint{
		TenantID:    tenantID,
		Region:      t.region,
		EndpointID:  t.id,
		Version:     t.version,
		PublicURL:   t.publicURL,
		InternalURL: t.internalURL,
		AdminURL:    t.adminURL,
		VersionInfo: t.versionInfoURL,
		VersionList: t.versionListURL,
		external:    true,
	}
}
