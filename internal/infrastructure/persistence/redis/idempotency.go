// Package redis implements Redis-backed infrastructure for the placement
// hub. Its sole tenant is the idempotency store: reservations are SETNX
// claims, so concurrent retries of the same request are decided by Redis
// even across instances.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Host is the Redis server hostname.
	Host string

	// Port is the Redis server port.
	Port int

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        6379,
		DB:          0,
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
	}
}

// Addr returns the Redis address in "host:port" format.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewClient creates a go-redis client and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}
	return client, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// IDEMPOTENCY STORE
// ══════════════════════════════════════════════════════════════════════════════

// pendingMarker is stored while the reserving request is still in flight.
const pendingMarker = "__pending__"

// releaseScript deletes a key only while it still holds the pending marker,
// so a Release racing a Complete never destroys the recorded entity ID.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// IdempotencyStore is a Redis-backed idempotency store shared by all
// instances of the service.
type IdempotencyStore struct {
	client     *redis.Client
	keyPrefix  string
	pendingTTL time.Duration
	recordTTL  time.Duration
}

// IdempotencyStoreOptions configures the store.
type IdempotencyStoreOptions struct {
	// KeyPrefix namespaces the keys (default "placement:idem:").
	KeyPrefix string

	// PendingTTL bounds how long an in-flight reservation blocks retries
	// when the reserving instance dies mid-request.
	PendingTTL time.Duration

	// RecordTTL is how long a completed key keeps deduplicating.
	RecordTTL time.Duration
}

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client, opts IdempotencyStoreOptions) *IdempotencyStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "placement:idem:"
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 30 * time.Second
	}
	if opts.RecordTTL <= 0 {
		opts.RecordTTL = 24 * time.Hour
	}
	return &IdempotencyStore{
		client:     client,
		keyPrefix:  opts.KeyPrefix,
		pendingTTL: opts.PendingTTL,
		recordTTL:  opts.RecordTTL,
	}
}

// Reserve claims the key for the caller. ok is true when the key was free.
// When the key is taken, existingID carries the entity a completed earlier
// attempt produced, or "" when that attempt is still in flight.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string) (existingID string, ok bool, err error) {
	fullKey := s.keyPrefix + key

	claimed, err := s.client.SetNX(ctx, fullKey, pendingMarker, s.pendingTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis: failed to reserve idempotency key: %w", err)
	}
	if claimed {
		return "", true, nil
	}

	value, err := s.client.Get(ctx, fullKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// The holder expired or released between SETNX and GET; treat
			// it as in flight and let the client retry.
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis: failed to read idempotency key: %w", err)
	}
	if value == pendingMarker {
		return "", false, nil
	}
	return value, false, nil
}

// Complete records the entity produced under the key.
func (s *IdempotencyStore) Complete(ctx context.Context, key, entityID string) error {
	fullKey := s.keyPrefix + key
	if err := s.client.Set(ctx, fullKey, entityID, s.recordTTL).Err(); err != nil {
		return fmt.Errorf("redis: failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release frees a reserved key after a failed attempt so the client may
// retry with the same key. A completed key is left untouched.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	fullKey := s.keyPrefix + key
	if err := releaseScript.Run(ctx, s.client, []string{fullKey}, pendingMarker).Err(); err != nil {
		return fmt.Errorf("redis: failed to release idempotency key: %w", err)
	}
	return nil
}
