package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// Flash is the one-time state carried across a redirect.
type Flash struct {
	Success string            `json:"success,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (f Flash) Empty() bool {
	return f.Success == "" && f.Error == "" && len(f.Errors) == 0
}

type FlashStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewFlashStore(client *redisv9.Client, ttl time.Duration) *FlashStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &FlashStore{
		client: client,
		ttl:    ttl,
	}
}

// Put replaces any pending flash for the session.
func (s *FlashStore) Put(ctx context.Context, sessionID string, flash Flash) error {
	payload, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("marshal flash failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set flash failed: %w", err)
	}
	return nil
}

// Pull returns the pending flash and removes it, so each flash is seen once.
func (s *FlashStore) Pull(ctx context.Context, sessionID string) (Flash, error) {
	raw, err := s.client.GetDel(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redisv9.Nil) {
		return Flash{}, nil
	}
	if err != nil {
		return Flash{}, fmt.Errorf("redis getdel flash failed: %w", err)
	}

	var flash Flash
	if err := json.Unmarshal([]byte(raw), &flash); err != nil {
		return Flash{}, fmt.Errorf("unmarshal flash failed: %w", err)
	}
	return flash, nil
}

func (s *FlashStore) key(sessionID string) string {
	return fmt.Sprintf("flash:%s", sessionID)
}
