package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent from the cache.
// Callers treat this as a miss, not a failure.
var ErrNotFound = errors.New("cache: key not found")

// Cache defines the caching operations interface.
// This is a port that can be implemented by different cache providers.
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns ErrNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the specified key and TTL.
	// TTL of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache by key.
	Delete(ctx context.Context, key string) error

	// Ping checks if the cache service is reachable.
	Ping(ctx context.Context) error

	// Close closes the cache connection.
	Close() error
}
