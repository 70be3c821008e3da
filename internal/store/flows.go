package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kode4food/flowrun/pkg/api"
)

// FlowStore keeps flow definitions in a Redis hash, fronted by an LRU of
// decoded flows. Flows returned by the store are shared and must be treated
// as read-only; use Flow.Clone before modifying one
type FlowStore struct {
	client redis.Cmdable
	cache  *lru.Cache[api.FlowID, *api.Flow]
	key    string
}

var (
	ErrFlowNotFound = errors.New("flow not found")
	ErrFlowExists   = errors.New("flow already exists")
	ErrDecodeFlow   = errors.New("failed to decode flow")
)

// NewFlowStore creates a flow store under the given key prefix
func NewFlowStore(
	client redis.Cmdable, prefix string, cacheSize int,
) (*FlowStore, error) {
	cache, err := lru.New[api.FlowID, *api.Flow](cacheSize)
	if err != nil {
		return nil, err
	}
	return &FlowStore{
		client: client,
		cache:  cache,
		key:    key(prefix, "flows"),
	}, nil
}

// Create stores a new flow, failing if its ID is taken
func (s *FlowStore) Create(ctx context.Context, fl *api.Flow) error {
	data, err := json.Marshal(fl)
	if err != nil {
		return err
	}
	ok, err := s.client.HSetNX(ctx, s.key, string(fl.ID), data).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrFlowExists, fl.ID)
	}
	s.cache.Add(fl.ID, fl.Clone())
	return nil
}

// Put stores a flow, replacing any flow with the same ID
func (s *FlowStore) Put(ctx context.Context, fl *api.Flow) error {
	data, err := json.Marshal(fl)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.key, string(fl.ID), data).Err(); err != nil {
		return err
	}
	s.cache.Add(fl.ID, fl.Clone())
	return nil
}

// Get retrieves a flow by ID
func (s *FlowStore) Get(ctx context.Context, id api.FlowID) (*api.Flow, error) {
	if fl, ok := s.cache.Get(id); ok {
		return fl, nil
	}

	data, err := s.client.HGet(ctx, s.key, string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	fl, err := decodeFlow(data)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, fl)
	return fl, nil
}

// List returns every stored flow ordered by ID
func (s *FlowStore) List(ctx context.Context) ([]*api.Flow, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	res := make([]*api.Flow, 0, len(all))
	for _, data := range all {
		fl, err := decodeFlow(data)
		if err != nil {
			return nil, err
		}
		res = append(res, fl)
	}
	slices.SortFunc(res, func(l, r *api.Flow) int {
		return strings.Compare(string(l.ID), string(r.ID))
	})
	return res, nil
}

// Delete removes a flow by ID
func (s *FlowStore) Delete(ctx context.Context, id api.FlowID) error {
	s.cache.Remove(id)
	n, err := s.client.HDel(ctx, s.key, string(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	return nil
}

func decodeFlow(data string) (*api.Flow, error) {
	var fl api.Flow
	if err := json.Unmarshal([]byte(data), &fl); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFlow, err)
	}
	return &fl, nil
}
