// Package redis provides a Redis-backed pending submission store. Redis
// is a natural fit here because the TTL is native: expired submissions
// disappear without a sweeper pass, and GETDEL makes take-and-delete a
// single atomic command.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	wastebot "github.com/greenloop/wastebot"
)

const keyPrefix = "wastebot:pending:"

// Config holds the Redis pending store configuration.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL applied to every pending submission. Zero means no expiry.
	TTL time.Duration
}

// DefaultConfig returns the default Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:6379",
		TTL:  wastebot.DefaultPendingTTL,
	}
}

// PendingStore implements store.PendingStore on Redis.
type PendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Redis pending store.
func New(cfg Config) *PendingStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &PendingStore{client: client, ttl: cfg.TTL}
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *PendingStore {
	return &PendingStore{client: client, ttl: ttl}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// PutPending stores a session's pending submission with the configured
// TTL, replacing any existing one.
func (s *PendingStore) PutPending(ctx context.Context, sub wastebot.PendingSubmission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return wastebot.NewStoreError("put", "pending", err)
	}
	if err := s.client.Set(ctx, key(sub.SessionID), data, s.ttl).Err(); err != nil {
		return wastebot.NewStoreError("put", "pending", err)
	}
	return nil
}

// GetPending reads a session's pending submission without consuming it.
func (s *PendingStore) GetPending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	data, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, wastebot.ErrNoPendingSubmission
		}
		return nil, wastebot.NewStoreError("get", "pending", err)
	}
	return decode(data)
}

// TakePending atomically reads and deletes a session's pending submission
// with a single GETDEL.
func (s *PendingStore) TakePending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	data, err := s.client.GetDel(ctx, key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, wastebot.ErrNoPendingSubmission
		}
		return nil, wastebot.NewStoreError("take", "pending", err)
	}
	return decode(data)
}

// DeletePending removes a session's pending submission if present.
func (s *PendingStore) DeletePending(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return wastebot.NewStoreError("delete", "pending", err)
	}
	return nil
}

// DeleteExpiredBefore is a no-op: Redis expires keys natively via the
// per-key TTL, so there is nothing for the sweeper to do.
func (s *PendingStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

// Ping checks connectivity.
func (s *PendingStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *PendingStore) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*wastebot.PendingSubmission, error) {
	var sub wastebot.PendingSubmission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, wastebot.NewStoreError("decode", "pending", err)
	}
	return &sub, nil
}
