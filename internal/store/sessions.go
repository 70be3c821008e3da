package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kode4food/flowrun/pkg/api"
)

// SessionStore records chat messages per session in Redis lists. A
// session expires when nothing is appended to it for the configured TTL
type SessionStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrDecodeMessage   = errors.New("failed to decode session message")
)

// NewSessionStore creates a session store under the given key prefix
func NewSessionStore(
	client redis.Cmdable, prefix string, ttl time.Duration,
) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Append records messages at the end of a session's history and refreshes
// the session's expiry. Messages without an ID or timestamp are assigned
// one
func (s *SessionStore) Append(
	ctx context.Context, id api.SessionID, msgs ...*api.ChatMessage,
) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, len(msgs))
	for i, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = time.Now().UTC()
		}
		m.SessionID = id
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		values[i] = data
	}

	k := s.sessionKey(id)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, k, values...)
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	return err
}

// Messages returns a session's history in the order it was recorded. An
// unknown session has no messages
func (s *SessionStore) Messages(
	ctx context.Context, id api.SessionID,
) ([]*api.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, s.sessionKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	res := make([]*api.ChatMessage, 0, len(raw))
	for _, data := range raw {
		var m api.ChatMessage
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeMessage, err)
		}
		res = append(res, &m)
	}
	return res, nil
}

// Clear deletes a session's history
func (s *SessionStore) Clear(ctx context.Context, id api.SessionID) error {
	n, err := s.client.Del(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

func (s *SessionStore) sessionKey(id api.SessionID) string {
	return key(s.prefix, "session", string(id))
}
