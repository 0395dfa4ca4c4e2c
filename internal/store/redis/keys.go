package redis

import (
	"fmt"
	"strings"
)

// KeyRoot is the first segment of every key written by skymock.
const KeyRoot = "skymock"

// Keys builds the redis keys of one server run. Every key carries the run id,
// so a restarted server never sees the messages of a previous run.
type Keys struct {
	prefix string
}

// NewKeys returns the key builder for runID.
func NewKeys(runID string) Keys {
	return Keys{prefix: KeyRoot + ":" + runID + ":"}
}

// Message returns the key holding one message document.
func (k Keys) Message(id string) string {
	return k.prefix + "message:" + id
}

// AllMessages returns the key of the list of every message id, oldest first.
func (k Keys) AllMessages() string {
	return k.prefix + "messages"
}

// Recipient returns the key of the list of message ids sent to addr, oldest first.
func (k Keys) Recipient(addr string) string {
	return k.prefix + "to:" + strings.ToLower(addr)
}

// ExtractMessageID extracts the message id from a message key.
func (k Keys) ExtractMessageID(key string) (string, error) {
	p := k.prefix + "message:"
	if len(key) <= len(p) || !strings.HasPrefix(key, p) {
		return "", fmt.Errorf("invalid message key: %s", key)
	}
	return key[len(p):], nil
}
