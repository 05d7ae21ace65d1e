package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Record is what is kept per Idempotency-Key. Done is false while the first request runs.
type Record struct {
	Hash        string `json:"hash"`
	Done        bool   `json:"done"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

type Store interface {
	// Reserve claims key for a request with the given hash. It returns nil when the claim
	// succeeded, or the record already stored under key.
	Reserve(ctx context.Context, key, hash string) (*Record, error)
	Complete(ctx context.Context, key string, rec Record) error
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, prefix: "idem:"}
}

func (s *RedisStore) Reserve(ctx context.Context, key, hash string) (*Record, error) {
	placeholder, err := json.Marshal(Record{Hash: hash})
	if err != nil {
		return nil, err
	}
	// The placeholder may expire between SETNX and GET; one retry covers it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, s.prefix+key, placeholder, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("idempotency: reserve: %w", err)
		}
		if ok {
			return nil, nil
		}
		raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("idempotency: lookup: %w", err)
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("idempotency: decode: %w", err)
		}
		return &rec, nil
	}
	return nil, errors.New("idempotency: key churned during reserve")
}

func (s *RedisStore) Complete(ctx context.Context, key string, rec Record) error {
	rec.Done = true
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
