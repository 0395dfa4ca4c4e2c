package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v2/tokens"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/config"
	"github.com/MrSnakeDoc/skymock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/mocks/cloudfeeds"
	"github.com/MrSnakeDoc/skymock/internal/mocks/mailgun"
	"github.com/MrSnakeDoc/skymock/internal/monitoring"
	"github.com/MrSnakeDoc/skymock/internal/plugin"
	"github.com/MrSnakeDoc/skymock/internal/registry"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

const (
	dnsTemplateORD = "dns-ord"
	dnsTemplateDFW = "dns-dfw"
)

// newTestHandler wires the full router with the cloud feeds plugin, the
// mailgun domain plugin and an external DNS API (ORD enabled, DFW disabled).
func newTestHandler(t *testing.T, opts ...func(*deps.Deps)) (http.Handler, deps.Deps) {
	t.Helper()

	log := logger.Nop()
	state := session.NewState(nil, time.Hour)
	metrics := prometheus.NewRegistry()
	reg := registry.New(state, log, registry.WithMonitor(monitoring.NewMonitor(metrics)))

	reg.Register(cloudfeeds.New([]string{"ORD", "DFW"}, log))
	reg.RegisterDomain(mailgun.New(mailgun.DefaultDomain, state, log))

	store, err := catalog.NewExternalAPIStore("dns-api", "cloudDNS", "", []catalog.EndpointTemplate{
		catalog.NewEndpointTemplate(catalog.TemplateSpec{
			ID: dnsTemplateORD, ServiceType: "rax:dns", Region: "ORD", Version: "1.0",
			URL: "https://ord.dns.example.com/v1.0", Enabled: true,
		}),
		catalog.NewEndpointTemplate(catalog.TemplateSpec{
			ID: dnsTemplateDFW, ServiceType: "rax:dns", Region: "DFW", Version: "1.0",
			URL: "https://dfw.dns.example.com/v1.0",
		}),
	})
	require.NoError(t, err)
	reg.Register(plugin.NewExternalAPI(store))

	d := deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		Version:   "test",
		Registry:  reg,
		State:     state,
		Gatherer:  metrics,
	}
	for _, opt := range opts {
		opt(&d)
	}

	cfg := &config.Config{ListenPort: ":0", RequestTimeout: 5 * time.Second}
	return NewHandler(cfg, log, d), d
}

type accessResponse struct {
	Access struct {
		Token struct {
			ID      string `json:"id"`
			Expires string `json:"expires"`
			Tenant  struct {
				ID string `json:"id"`
			} `json:"tenant"`
		} `json:"token"`
		ServiceCatalog []tokens.CatalogEntry `json:"serviceCatalog"`
	} `json:"access"`
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func authenticate(t *testing.T, h http.Handler, username, tenantID string) accessResponse {
	t.Helper()
	body := `{"auth":{"passwordCredentials":{"username":"` + username + `","password":"secret"},"tenantId":"` + tenantID + `"}}`
	rec := do(h, http.MethodPost, "/identity/v2.0/tokens", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var access accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &access))
	return access
}

func entryByName(entries []tokens.CatalogEntry, name string) (tokens.CatalogEntry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return tokens.CatalogEntry{}, false
}

func TestTokensReturnsTenantCatalog(t *testing.T) {
	h, _ := newTestHandler(t)

	access := authenticate(t, h, "demo", "123456")
	assert.NotEmpty(t, access.Access.Token.ID)
	assert.Equal(t, "123456", access.Access.Token.Tenant.ID)

	expires, err := time.Parse(gophercloud.RFC3339Milli, access.Access.Token.Expires)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	require.Len(t, access.Access.ServiceCatalog, 2)

	feedsEntry := access.Access.ServiceCatalog[0]
	assert.Equal(t, cloudfeeds.ServiceName, feedsEntry.Name)
	assert.Equal(t, cloudfeeds.ServiceType, feedsEntry.Type)
	require.Len(t, feedsEntry.Endpoints, 2)
	for _, ep := range feedsEntry.Endpoints {
		assert.True(t, strings.HasPrefix(ep.PublicURL, "http://example.com/mimicking/"), ep.PublicURL)
		assert.True(t, strings.HasSuffix(ep.PublicURL, "/"+ep.Region+"/123456"), ep.PublicURL)
		assert.Equal(t, "123456", ep.TenantID)
	}

	dns, ok := entryByName(access.Access.ServiceCatalog, "cloudDNS")
	require.True(t, ok)
	require.Len(t, dns.Endpoints, 1, "disabled templates stay out of the catalog")
	assert.Equal(t, "https://ord.dns.example.com/v1.0", dns.Endpoints[0].PublicURL)
}

func TestTokensHonoursBaseURL(t *testing.T) {
	h, _ := newTestHandler(t, func(d *deps.Deps) { d.BaseURL = "http://mock.test:8900" })

	access := authenticate(t, h, "demo", "42")
	for _, ep := range access.Access.ServiceCatalog[0].Endpoints {
		assert.True(t, strings.HasPrefix(ep.PublicURL, "http://mock.test:8900/mimicking/"), ep.PublicURL)
	}
}

func TestTokensSameUserSameSession(t *testing.T) {
	h, _ := newTestHandler(t)

	first := authenticate(t, h, "demo", "111111")
	second := authenticate(t, h, "demo", "222222")
	assert.Equal(t, first.Access.Token.ID, second.Access.Token.ID)
	assert.Equal(t, "111111", second.Access.Token.Tenant.ID)

	rec := do(h, http.MethodPost, "/identity/v2.0/tokens",
		`{"auth":{"token":{"id":"`+first.Access.Token.ID+`"}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var viaToken accessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &viaToken))
	assert.Equal(t, "111111", viaToken.Access.Token.Tenant.ID)
}

func TestTokensRejectsBadRequests(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"no credentials", `{"auth":{}}`, http.StatusBadRequest},
		{"unknown token", `{"auth":{"token":{"id":"nope"}}}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/identity/v2.0/tokens", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTokenEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	access := authenticate(t, h, "demo", "123456")

	rec := do(h, http.MethodGet, "/identity/v2.0/tokens/"+access.Access.Token.ID+"/endpoints", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Endpoints []struct {
			Type      string `json:"type"`
			Region    string `json:"region"`
			PublicURL string `json:"publicURL"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Endpoints, 3)

	rec = do(h, http.MethodGet, "/identity/v2.0/tokens/unknown/endpoints", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMimickingServesInternalPlugin(t *testing.T) {
	h, _ := newTestHandler(t)
	access := authenticate(t, h, "demo", "123456")

	publicURL := access.Access.ServiceCatalog[0].Endpoints[0].PublicURL
	u, err := url.Parse(publicURL)
	require.NoError(t, err)

	rec := do(h, http.MethodPost, u.Path, `{"title":"Servers","href":"servers"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodPost, u.Path+"/servers/events", `<entry/>`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Products are shared state: the other region sees them too.
	other, err := url.Parse(access.Access.ServiceCatalog[0].Endpoints[1].PublicURL)
	require.NoError(t, err)
	rec = do(h, http.MethodGet, other.Path+"/servers/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<entry/>")
}

func TestMimickingMisses(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		path string
	}{
		{"unknown plugin", "/mimicking/not-a-plugin/ORD/123"},
		{"nothing after the prefix", "/mimicking/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "itemNotFound")
		})
	}
}

func TestMimickingRejectsUndeclaredRegion(t *testing.T) {
	h, _ := newTestHandler(t)
	access := authenticate(t, h, "demo", "123456")

	u, err := url.Parse(access.Access.ServiceCatalog[0].Endpoints[0].PublicURL)
	require.NoError(t, err)
	require.Contains(t, u.Path, "/ORD/")

	rec := do(h, http.MethodGet, strings.Replace(u.Path, "/ORD/", "/LON/", 1), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "itemNotFound")
}

func TestMailgunByHostAndByPath(t *testing.T) {
	h, _ := newTestHandler(t)

	form := url.Values{"to": {"user@example.com"}, "subject": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/v3/example.com/messages", strings.NewReader(form.Encode()))
	req.Host = mailgun.DefaultDomain + ":443"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/domain/"+mailgun.DefaultDomain+"/messages?to=user@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.TotalCount)

	rec = do(h, http.MethodGet, "/domain/unknown.example.com/messages", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/domains", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"domains":["api.mailgun.net"]}`, rec.Body.String())
}

func TestEndpointTemplateAdministration(t *testing.T) {
	h, _ := newTestHandler(t)
	access := authenticate(t, h, "demo", "123456")
	tenantPath := "/identity/v2.0/tenants/123456/OS-KSCATALOG/endpoints"

	rec := do(h, http.MethodGet, "/identity/v2.0/OS-KSCATALOG/endpointTemplates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Templates []struct {
			ID      string `json:"id"`
			Enabled bool   `json:"enabled"`
		} `json:"OS-KSCATALOG"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Templates, 2)

	rec = do(h, http.MethodGet, "/identity/v2.0/OS-KSCATALOG/endpointTemplates?serviceid=missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// enable DFW for the tenant
	rec = do(h, http.MethodPost, tenantPath, `{"OS-KSCATALOG:endpointTemplate":{"id":"`+dnsTemplateDFW+`"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, tenantPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), dnsTemplateDFW)
	assert.Contains(t, rec.Body.String(), dnsTemplateORD)

	refreshed := authenticate(t, h, "demo", "123456")
	dns, ok := entryByName(refreshed.Access.ServiceCatalog, "cloudDNS")
	require.True(t, ok)
	assert.Len(t, dns.Endpoints, 2)
	assert.Equal(t, access.Access.Token.ID, refreshed.Access.Token.ID)

	// other tenants keep the defaults
	other := authenticate(t, h, "someone-else", "654321")
	dns, ok = entryByName(other.Access.ServiceCatalog, "cloudDNS")
	require.True(t, ok)
	assert.Len(t, dns.Endpoints, 1)

	// disable ORD for the tenant
	rec = do(h, http.MethodDelete, tenantPath+"/"+dnsTemplateORD, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(h, http.MethodGet, tenantPath, "")
	assert.NotContains(t, rec.Body.String(), dnsTemplateORD)

	rec = do(h, http.MethodDelete, tenantPath+"/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(h, http.MethodPost, tenantPath, `{"OS-KSCATALOG:endpointTemplate":{"id":"unknown"}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddAndDeleteEndpointTemplate(t *testing.T) {
	h, _ := newTestHandler(t)
	const base = "/identity/v2.0/OS-KSCATALOG/endpointTemplates"

	rec := do(h, http.MethodPost, base,
		`{"OS-KSCATALOG:endpointTemplate":{"id":"dns-iad","name":"cloudDNS","region":"IAD","publicURL":"https://iad.dns.example.com/v1.0","enabled":true}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"type":"rax:dns"`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"duplicate id", `{"OS-KSCATALOG:endpointTemplate":{"id":"dns-iad","name":"cloudDNS","region":"IAD","publicURL":"https://x"}}`, http.StatusConflict},
		{"wrong service type", `{"OS-KSCATALOG:endpointTemplate":{"name":"cloudDNS","type":"object-store","region":"SYD","publicURL":"https://x"}}`, http.StatusConflict},
		{"unknown api", `{"OS-KSCATALOG:endpointTemplate":{"name":"nope","region":"SYD","publicURL":"https://x"}}`, http.StatusNotFound},
		{"missing url", `{"OS-KSCATALOG:endpointTemplate":{"name":"cloudDNS","region":"SYD"}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, base, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}

	rec = do(h, http.MethodDelete, base+"/dns-iad", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(h, http.MethodDelete, base+"/dns-iad", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRestrictedByCIDR(t *testing.T) {
	h, _ := newTestHandler(t, func(d *deps.Deps) { d.AdminCIDRS = []string{"10.0.0.0/8"} })

	// httptest requests come from 192.0.2.1
	rec := do(h, http.MethodGet, "/identity/v2.0/OS-KSCATALOG/endpointTemplates", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// identity stays open
	authenticate(t, h, "demo", "1")

	req := httptest.NewRequest(http.MethodGet, "/identity/v2.0/OS-KSCATALOG/endpointTemplates", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)
	authenticate(t, h, "demo", "1")

	rec := do(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"plugins":3`)
	assert.Contains(t, rec.Body.String(), `"sessions":1`)

	rec = do(h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var infra struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK    bool `json:"ok"`
			Count *int `json:"count"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infra))
	assert.Equal(t, "operational", infra.Mode)
	require.NotNil(t, infra.Components["sessions"].Count)
	assert.Equal(t, 1, *infra.Components["sessions"].Count)

	rec = do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "skymock_registered_plugins")
	assert.Contains(t, rec.Body.String(), "skymock_catalog_requests_total 1")
}

func TestOrdinaryRequestsAreNotDomainMisses(t *testing.T) {
	h, d := newTestHandler(t)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	}
	authenticate(t, h, "demo", "1")
	assert.Equal(t, 0.0, resolutions(t, d.Gatherer, monitoring.KindDomain, "miss"))

	req := httptest.NewRequest(http.MethodGet, "/v3/example.com/messages", nil)
	req.Host = mailgun.DefaultDomain
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 1.0, resolutions(t, d.Gatherer, monitoring.KindDomain, "hit"))

	do(h, http.MethodGet, "/domain/unknown.example.com/messages", "")
	assert.Equal(t, 1.0, resolutions(t, d.Gatherer, monitoring.KindDomain, "miss"))
}

func resolutions(t *testing.T, g prometheus.Gatherer, kind, result string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "skymock_handler_resolutions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["kind"] == kind && labels["result"] == result {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestReadyzWithoutPlugins(t *testing.T) {
	log := logger.Nop()
	state := session.NewState(nil, time.Hour)
	d := deps.Deps{Logger: log, Registry: registry.New(state, log), State: state}
	h := NewHandler(&config.Config{RequestTimeout: time.Second}, log, d)

	rec := do(h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no gatherer, no metrics route")
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := do(h, http.MethodGet, "/does/not/exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "itemNotFound")
}

func TestGophercloudClientAgainstMock(t *testing.T) {
	h, _ := newTestHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := openstack.AuthenticatedClient(ctx, gophercloud.AuthOptions{
		IdentityEndpoint: srv.URL + "/identity/v2.0/",
		Username:         "demo",
		Password:         "secret",
		TenantID:         "123456",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, provider.Token())

	feedsURL, err := provider.EndpointLocator(gophercloud.EndpointOpts{
		Type:         cloudfeeds.ServiceType,
		Region:       "DFW",
		Availability: gophercloud.AvailabilityPublic,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(feedsURL, srv.URL+"/mimicking/"), feedsURL)
	assert.True(t, strings.HasSuffix(feedsURL, "/DFW/123456/"), feedsURL)

	resp, err := http.Get(feedsURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	dnsURL, err := provider.EndpointLocator(gophercloud.EndpointOpts{
		Type:         "rax:dns",
		Region:       "ORD",
		Availability: gophercloud.AvailabilityPublic,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://ord.dns.example.com/v1.0/", dnsURL)
}
