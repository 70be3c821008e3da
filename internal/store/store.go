package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kode4food/flowrun/internal/config"
)

// Store bundles the Redis-backed flow and session stores over a single
// client connection
type Store struct {
	Flows    *FlowStore
	Sessions *SessionStore
	client   *redis.Client
}

var (
	ErrCreateFlowStore = errors.New("failed to create flow store")
	ErrPing            = errors.New("redis ping failed")
)

// New connects to Redis and constructs the stores described by cfg
func New(cfg config.StoreConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	flows, err := NewFlowStore(client, cfg.Prefix, cfg.FlowCacheSize)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrCreateFlowStore, err)
	}

	return &Store{
		Flows:    flows,
		Sessions: NewSessionStore(client, cfg.Prefix, cfg.SessionTTL),
		client:   client,
	}, nil
}

// Ping verifies that Redis is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPing, err)
	}
	return nil
}

// Close releases the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func key(prefix string, parts ...string) string {
	res := prefix
	for _, p := range parts {
		res += ":" + p
	}
	return res
}
