// Package cloudfeeds mocks the Cloud Feeds product event API.
package cloudfeeds

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/skymock/internal/catalog"
	"github.com/MrSnakeDoc/skymock/internal/feeds"
	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/plugin"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

const (
	ServiceType = "rax:feeds"
	ServiceName = "cloudFeeds"
	Version     = "1.0"

	maxEventBytes = 1 << 20
)

// API is the cloud feeds plugin. Its products live in the shared state, so
// every region sees the same feeds.
type API struct {
	regions     []string
	endpointIDs map[string]string
	log         logger.Logger
}

// New creates the plugin serving the given regions ("ORD" when none).
func New(regions []string, log logger.Logger) *API {
	if len(regions) == 0 {
		regions = []string{"ORD"}
	}
	ids := make(map[string]string, len(regions))
	for _, region := range regions {
		ids[region] = uuid.NewString()
	}
	return &API{
		regions:     append([]string(nil), regions...),
		endpointIDs: ids,
		log:         logger.Named(log, "cloudfeeds"),
	}
}

// CatalogEntries implements plugin.API.
func (a *API) CatalogEntries(tenantID string) []catalog.Entry {
	endpoints := make([]catalog.Endpoint, 0, len(a.regions))
	for _, region := range a.regions {
		endpoints = append(endpoints, catalog.NewEndpoint(tenantID, region, a.endpointIDs[region], Version))
	}
	return []catalog.Entry{catalog.NewEntry(tenantID, ServiceType, ServiceName, endpoints)}
}

// ResourceForRegion implements plugin.InternalAPI.
func (a *API) ResourceForRegion(region, uriPrefix string, state *session.State) http.Handler {
	h := &handler{feeds: state.Feeds, region: region, log: a.log}

	r := chi.NewRouter()
	r.Get("/", h.listProducts)
	r.Post("/", h.registerProduct)
	r.Get("/{href}/events", h.listEvents)
	r.Post("/{href}/events", h.postEvent)

	a.log.Debug("cloud feeds bound", logger.String("region", region), logger.String("prefix", uriPrefix))
	return r
}

type handler struct {
	feeds  *feeds.Feeds
	region string
	log    logger.Logger
}

type registerRequest struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

type eventsResponse struct {
	Title  string   `json:"title"`
	Href   string   `json:"href"`
	Events []string `json:"events"`
}

func (h *handler) listProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, feeds.RenderProductList(h.feeds.Products()))
}

func (h *handler) registerProduct(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid product document", http.StatusBadRequest)
		return
	}
	req.Href = strings.Trim(req.Href, "/")
	if req.Href == "" || strings.Contains(req.Href, "/") {
		http.Error(w, "href must be a single path segment", http.StatusBadRequest)
		return
	}

	p := h.feeds.RegisterProduct(req.Title, req.Href)
	h.log.Debug("product registered",
		logger.String("href", p.Href),
		logger.String("tenant_id", tenantOf(r)),
		logger.String("region", h.region))
	writeJSON(w, http.StatusCreated, feeds.RenderProduct(p))
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := h.feeds.ProductByHref(chi.URLParam(r, "href"))
	if !ok {
		http.Error(w, "unknown product", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Title: p.Title, Href: p.Href, Events: p.Events()})
}

func (h *handler) postEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.feeds.ProductByHref(chi.URLParam(r, "href"))
	if !ok {
		http.Error(w, "unknown product", http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		http.Error(w, "cannot read event", http.StatusBadRequest)
		return
	}
	p.Post(string(body))
	w.WriteHeader(http.StatusCreated)
}

func tenantOf(r *http.Request) string {
	if s, ok := plugin.ScopeFrom(r.Context()); ok {
		return s.TenantID
	}
	return ""
}

// writeJSON leaves markup unescaped: events are ATOM XML documents.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
