// Package mailgun mocks the Mailgun message sending API.
//
// Two recipients have special meaning: bademail@example.com yields a 500 and is
// counted, failingemail@example.com yields a 400. Every other message is stored
// and can be read back through the listing endpoints.
package mailgun

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/skymock/internal/logger"
	"github.com/MrSnakeDoc/skymock/internal/messages"
	"github.com/MrSnakeDoc/skymock/internal/session"
)

const (
	// DefaultDomain is the Host the mock answers to unless configured otherwise.
	DefaultDomain = "api.mailgun.net"

	BadRecipient     = "bademail@example.com"
	FailingRecipient = "failingemail@example.com"

	queuedMessage = "Queued. Thank you."
	idSuffix      = "@samples.mailgun.org"
	idLayout      = "20060102150405.000000"
)

// API is the mailgun domain plugin.
type API struct {
	domain string
	state  *session.State
	log    logger.Logger
	now    func() time.Time
}

// New creates the plugin. An empty domain means DefaultDomain.
func New(domain string, state *session.State, log logger.Logger) *API {
	if domain == "" {
		domain = DefaultDomain
	}
	return &API{
		domain: domain,
		state:  state,
		log:    logger.Named(log, "mailgun"),
		now:    time.Now,
	}
}

// Domain implements plugin.DomainAPI.
func (a *API) Domain() string { return a.domain }

// Resource implements plugin.DomainAPI.
func (a *API) Resource() http.Handler {
	r := chi.NewRouter()
	r.Group(a.routes)
	// Clients using the real base URL address messages under /v3/<sending domain>.
	r.Route("/v3/{sendingDomain}", a.routes)
	return r
}

func (a *API) routes(r chi.Router) {
	r.Post("/messages", a.sendMessage)
	r.Get("/messages", a.listMessages)
	r.Get("/messages/500s", a.failureCount)
	r.Get("/messages/headers", a.messageHeaders)
}

type sendResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	form := r.PostForm
	to := form["to"]
	if len(to) == 0 {
		http.Error(w, "'to' parameter is missing", http.StatusBadRequest)
		return
	}

	if slices.Contains(to, BadRecipient) {
		n := a.state.RecordMailgunFailure()
		a.log.Debug("simulated mailgun failure", logger.Int64("failures", n))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if slices.Contains(to, FailingRecipient) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	headers := make(map[string][]string)
	for key, values := range form {
		if strings.HasPrefix(key, "h:") || strings.HasPrefix(key, "v:") {
			headers[key] = values
		}
	}

	now := a.now().UTC()
	msg := messages.Message{
		ID:        now.Format(idLayout) + idSuffix,
		To:        to[0],
		From:      form["from"],
		Subject:   form.Get("subject"),
		Body:      form["html"],
		Headers:   headers,
		CreatedAt: now,
	}
	if err := a.state.Messages.Add(r.Context(), msg); err != nil {
		a.log.Error("failed to store message", logger.String("to", msg.To), logger.Error(err))
		http.Error(w, "message store unavailable", http.StatusInternalServerError)
		return
	}

	a.log.Debug("message queued", logger.String("id", msg.ID), logger.String("to", msg.To))
	writeJSON(w, http.StatusOK, sendResponse{Message: queuedMessage, ID: msg.ID})
}

func (a *API) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := a.state.Messages.List(r.Context(), r.URL.Query().Get("to"))
	if err != nil {
		a.log.Error("failed to list messages", logger.Error(err))
		http.Error(w, "message store unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, messages.NewListing(msgs))
}

func (a *API) failureCount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"count": a.state.MailgunFailures()})
}

func (a *API) messageHeaders(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	msg, ok, err := a.state.Messages.ByTo(r.Context(), to)
	if err != nil {
		a.log.Error("failed to read message", logger.String("to", to), logger.Error(err))
		http.Error(w, "message store unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no message for recipient", http.StatusNotFound)
		return
	}
	headers := msg.Headers
	if headers == nil {
		headers = map[string][]string{}
	}
	writeJSON(w, http.StatusOK, map[string]map[string][]string{msg.To: headers})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
