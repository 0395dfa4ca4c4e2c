package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v2/tokens"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

// authRequest accepts the identity v2 credential shapes clients send.
// Credentials are never checked.
type authRequest struct {
	Auth struct {
		PasswordCredentials *struct {
			Username string `json:"username"`
			Password string `json:"password"`
		} `json:"passwordCredentials,omitempty"`
		APIKeyCredentials *struct {
			Username string `json:"username"`
			APIKey   string `json:"apiKey"`
		} `json:"RAX-KSKEY:apiKeyCredentials,omitempty"`
		Token *struct {
			ID string `json:"id"`
		} `json:"token,omitempty"`
		TenantID   string `json:"tenantId,omitempty"`
		TenantName string `json:"tenantName,omitempty"`
	} `json:"auth"`
}

type tenantDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tokenDoc struct {
	ID      string    `json:"id"`
	Expires string    `json:"expires"`
	Tenant  tenantDoc `json:"tenant"`
}

type roleDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type userDoc struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Roles         []roleDoc `json:"roles"`
	DefaultRegion string    `json:"RAX-AUTH:defaultRegion"`
}

type accessDoc struct {
	Access struct {
		Token          tokenDoc              `json:"token"`
		ServiceCatalog []tokens.CatalogEntry `json:"serviceCatalog"`
		User           userDoc               `json:"user"`
	} `json:"access"`
}

var defaultRoles = []roleDoc{
	{ID: "3", Name: "identity:user-admin", Description: "User Admin Role."},
}

// Tokens mocks POST /identity/v2.0/tokens: any credentials are accepted and
// the caller receives a token plus the service catalog of its tenant.
func Tokens(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFault(w, http.StatusBadRequest, "badRequest", "Invalid JSON request body")
			return
		}

		tenantID := req.Auth.TenantID
		if tenantID == "" {
			tenantID = req.Auth.TenantName
		}

		var username string
		switch a := req.Auth; {
		case a.PasswordCredentials != nil:
			username = a.PasswordCredentials.Username
		case a.APIKeyCredentials != nil:
			username = a.APIKeyCredentials.Username
		case a.Token != nil:
			sess, ok := d.State.Sessions.ByToken(a.Token.ID)
			if !ok {
				writeFault(w, http.StatusUnauthorized, "unauthorized", "Token not found")
				return
			}
			username = sess.Username
		}
		if username == "" {
			writeFault(w, http.StatusBadRequest, "badRequest", "Invalid request body: missing credentials")
			return
		}

		sess := d.State.Sessions.ForCredentials(username, tenantID)
		d.Logger.Debug("token issued",
			logger.String("username", sess.Username),
			logger.String("tenant_id", sess.TenantID))

		writeJSON(w, http.StatusOK, accessFor(sess, d.Registry.ServiceCatalog(sess.TenantID, rootURL(r, d))))
	}
}

func accessFor(sess session.Session, serviceCatalog []tokens.CatalogEntry) accessDoc {
	var doc accessDoc
	doc.Access.Token = tokenDoc{
		ID:      sess.Token,
		Expires: sess.ExpiresAt.UTC().Format(gophercloud.RFC3339Milli),
		Tenant:  tenantDoc{ID: sess.TenantID, Name: sess.TenantID},
	}
	doc.Access.ServiceCatalog = serviceCatalog
	doc.Access.User = userDoc{
		ID:       sess.UserID,
		Name:     sess.Username,
		Username: sess.Username,
		Roles:    defaultRoles,
	}
	return doc
}

type endpointDoc struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Region      string `json:"region"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	PublicURL   string `json:"publicURL"`
	InternalURL string `json:"internalURL"`
	AdminURL    string `json:"adminURL"`
	VersionID   string `json:"versionId"`
	VersionInfo string `json:"versionInfo,omitempty"`
	VersionList string `json:"versionList,omitempty"`
}

type endpointsDoc struct {
	Endpoints []endpointDoc `json:"endpoints"`
	Links     []any         `json:"endpoints_links"`
}

// TokenEndpoints mocks GET /identity/v2.0/tokens/{token}/endpoints.
func TokenEndpoints(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := d.State.Sessions.ByToken(chi.URLParam(r, "token"))
		if !ok {
			writeFault(w, http.StatusNotFound, "itemNotFound", "Invalid Token")
			return
		}

		root := rootURL(r, d)
		doc := endpointsDoc{Endpoints: []endpointDoc{}, Links: []any{}}
		for _, entry := range d.Registry.CatalogForTenant(sess.TenantID) {
			for _, ep := range entry.Endpoints {
				doc.Endpoints = append(doc.Endpoints, flatEndpoint(entry, ep, root))
			}
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func flatEndpoint(entry catalog.Entry, ep catalog.Endpoint, root string) endpointDoc {
	public, internal, admin := ep.URLs(root)
	return endpointDoc{
		ID:          ep.EndpointID,
		TenantID:    ep.TenantID,
		Region:      ep.Region,
		Type:        entry.Type,
		Name:        entry.Name,
		PublicURL:   public,
		InternalURL: internal,
		AdminURL:    admin,
		VersionID:   ep.Version,
		VersionInfo: ep.VersionInfo,
		VersionList: ep.VersionList,
	}
}
