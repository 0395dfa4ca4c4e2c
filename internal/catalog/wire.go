package catalog

import "github.com/gophercloud/gophercloud/v2/openstack/identity/v2/tokens"

// ServiceCatalog converts entries into the identity v2 wire representation.
// root is the base URL used for internally hosted endpoints.
func ServiceCatalog(entries []Entry, root string) []tokens.CatalogEntry {
	out := make([]tokens.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		endpoints := make([]tokens.Endpoint, 0, len(e.Endpoints))
		for _, ep := range e.Endpoints {
			endpoints = append(endpoints, WireEndpoint(ep, root))
		}
		out = append(out, tokens.CatalogEntry{
			Name:      e.Name,
			Type:      e.Type,
			Endpoints: endpoints,
		})
	}
	return out
}

// WireEndpoint converts a single endpoint.
func WireEndpoint(ep Endpoint, root string) tokens.Endpoint {
	public, internal, admin := ep.URLs(root)
	return tokens.Endpoint{
		TenantID:    ep.TenantID,
		PublicURL:   public,
		InternalURL: internal,
		AdminURL:    admin,
		Region:      ep.Region,
		VersionID:   ep.Version,
		VersionInfo: ep.VersionInfo,
		VersionList: ep.VersionList,
	}
}
