// Package session holds the process-wide state shared by every mock handler.
package session

import (
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/skymock/internal/feeds"
	"github.com/MrSnakeDoc/skymock/internal/messages"
)

// State is created once at startup and handed by pointer to every plugin.
// Its identity never changes for the lifetime of the process and nothing in it
// is reset implicitly.
type State struct {
	Messages messages.Store
	Feeds    *feeds.Feeds
	Sessions *Sessions

	mailgunFailures atomic.Int64
}

// NewState wires the collaborator stores together.
func NewState(msgs messages.Store, tokenTTL time.Duration) *State {
	if msgs == nil {
		msgs = messages.NewMemoryStore()
	}
	return &State{
		Messages: msgs,
		Feeds:    feeds.New(),
		Sessions: NewSessions(tokenTTL, time.Now),
	}
}

// RecordMailgunFailure counts one simulated 500 from the mailgun mock.
func (s *State) RecordMailgunFailure() int64 {
	return s.mailgunFailures.Add(1)
}

// MailgunFailures returns the number of simulated 500s so far.
func (s *State) MailgunFailures() int64 {
	return s.mailgunFailures.Load()
}
