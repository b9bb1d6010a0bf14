package xero

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps OAuth state tokens server-side. Consume returns the user
// that started the flow and removes the state, so each state works once.
type StateStore interface {
	Save(ctx context.Context, state, userID string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (string, error)
}

const stateKeyPrefix = "xero:oauth_state:"

// RedisStateStore stores states as keys with a TTL and consumes them with
// GETDEL.
type RedisStateStore struct {
	client redis.UniversalClient
}

// NewRedisStateStore panics if client is nil.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	if client == nil {
		panic("xero: redis client is required")
	}
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, state, userID string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, stateKeyPrefix+state, userID, ttl).Result()
	if err != nil {
		return errors.Join(ErrFailedToStoreState, err)
	}
	if !ok {
		return errors.Join(ErrFailedToStoreState, errors.New("state already exists"))
	}
	return nil
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (string, error) {
	if state == "" {
		return "", ErrInvalidState
	}
	userID, err := s.client.GetDel(ctx, stateKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidState
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

type memoryState struct {
	userID  string
	expires time.Time
}

// MemoryStateStore is a single-instance StateStore for development and
// tests.
type MemoryStateStore struct {
	mu     sync.Mutex
	now    func() time.Time
	states map[string]memoryState
}

// NewMemoryStateStore uses now for expiry; nil means time.Now.
func NewMemoryStateStore(now func() time.Time) *MemoryStateStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStateStore{now: now, states: make(map[string]memoryState)}
}

func (s *MemoryStateStore) Save(_ context.Context, state, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.states {
		if !now.Before(v.expires) {
			delete(s.states, k)
		}
	}
	if _, ok := s.states[state]; ok {
		return errors.Join(ErrFailedToStoreState, errors.New("state already exists"))
	}
	s.states[state] = memoryState{userID: userID, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[state]
	if !ok {
		return "", ErrInvalidState
	}
	delete(s.states, state)
	if !s.now().Before(entry.expires) {
		return "", ErrInvalidState
	}
	return entry.userID, nil
}
