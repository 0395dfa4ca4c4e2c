// Package redis stores mock messages in redis so that several skymock
// processes behind one address share what clients sent.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/skymock/internal/messages"
)

// DefaultMessageTTL bounds how long a run's messages survive in redis.
const DefaultMessageTTL = 24 * time.Hour

// MessageStore implements messages.Store on top of redis.
type MessageStore struct {
	client *redis.Client
	keys   Keys
	ttl    time.Duration
}

var _ messages.Store = (*MessageStore)(nil)

// NewMessageStore creates a store namespaced by runID.
func NewMessageStore(client *redis.Client, runID string) *MessageStore {
	return &MessageStore{
		client: client,
		keys:   NewKeys(runID),
		ttl:    DefaultMessageTTL,
	}
}

// Add stores msg and appends it to the global and per-recipient lists.
func (s *MessageStore) Add(ctx context.Context, msg messages.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	// Mailgun ids are timestamps and may collide; the storage id may not.
	storageID := uuid.NewString()
	all := s.keys.AllMessages()
	recipient := s.keys.Recipient(msg.To)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keys.Message(storageID), data, s.ttl)
	pipe.RPush(ctx, all, storageID)
	pipe.RPush(ctx, recipient, storageID)
	pipe.Expire(ctx, all, s.ttl)
	pipe.Expire(ctx, recipient, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// List returns messages oldest first, only those sent to `to` when it is set.
func (s *MessageStore) List(ctx context.Context, to string) ([]messages.Message, error) {
	listKey := s.keys.AllMessages()
	if to != "" {
		listKey = s.keys.Recipient(to)
	}

	ids, err := s.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list message ids: %w", err)
	}
	if len(ids) == 0 {
		return []messages.Message{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.keys.Message(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	out := make([]messages.Message, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Expired between LRANGE and MGET.
			continue
		}
		var msg messages.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		// Recipient lists are keyed case-insensitively.
		if to != "" && msg.To != to {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

// ByTo returns the latest message sent to `to`.
func (s *MessageStore) ByTo(ctx context.Context, to string) (messages.Message, bool, error) {
	msgs, err := s.List(ctx, to)
	if err != nil {
		return messages.Message{}, false, err
	}
	if len(msgs) == 0 {
		return messages.Message{}, false, nil
	}
	return msgs[len(msgs)-1], true, nil
}

// Ping reports whether redis is reachable.
func (s *MessageStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
