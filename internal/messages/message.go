// Package messages stores the emails accepted by the mailgun mock.
package messages

import (
	"context"
	"time"
)

// Message is one email accepted by the mailgun mock.
type Message struct {
	ID        string              `json:"id"`
	To        string              `json:"to"`
	From      []string            `json:"from,omitempty"`
	Subject   string              `json:"subject"`
	Body      []string            `json:"body,omitempty"`
	Headers   map[string][]string `json:"headers,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Store is implemented by the in-memory store and the redis store.
type Store interface {
	// Add appends a message.
	Add(ctx context.Context, msg Message) error
	// List returns messages in insertion order, filtered by recipient when to is not empty.
	List(ctx context.Context, to string) ([]Message, error)
	// ByTo returns the most recent message sent to the given address.
	ByTo(ctx context.Context, to string) (Message, bool, error)
}

// Listing is the JSON document returned when listing messages.
type Listing struct {
	Items      []Message `json:"items"`
	TotalCount int       `json:"total_count"`
}

// NewListing wraps msgs for rendering. A nil slice renders as an empty array.
func NewListing(msgs []Message) Listing {
	if msgs == nil {
		msgs = []Message{}
	}
	return Listing{Items: msgs, TotalCount: len(msgs)}
}
