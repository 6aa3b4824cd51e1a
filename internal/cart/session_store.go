package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// DefaultSessionTTL is how long an idle cart survives.
const DefaultSessionTTL = 24 * time.Hour

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Sessions persists carts between requests.
type Sessions interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// SessionStore keeps carts as JSON in Redis; every save refreshes the TTL.
type SessionStore struct {
	store kvStore
	ttl   time.Duration
}

func NewSessionStore(store kvStore, ttl time.Duration) (*SessionStore, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{store: store, ttl: ttl}, nil
}

// Load returns the stored cart or an empty one when none exists.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.store.Get(ctx, s.store.CartKey(sessionID))
	if errors.Is(err, pkgredis.ErrNotFound) {
		return New(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	c.SessionID = sessionID
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return &c, nil
}

func (s *SessionStore) Save(ctx context.Context, c *Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.store.Set(ctx, s.store.CartKey(c.SessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Del(ctx, s.store.CartKey(sessionID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
