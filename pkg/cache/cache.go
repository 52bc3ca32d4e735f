// Package cache stores parsed documents, layouts and rendered artifacts.
//
// Three backends implement [Cache]: [NullCache] disables caching,
// [FileCache] keeps entries under the user's cache directory for CLI use,
// and [RedisCache] shares entries between server replicas. Keys are built
// by a [Keyer] so that every input that changes the output changes the key.
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	// DocumentTTL bounds how long a fetched document is reused.
	DocumentTTL = 5 * time.Minute
	// LayoutTTL applies to computed layouts, keyed by document hash.
	LayoutTTL = 24 * time.Hour
	// ArtifactTTL applies to rendered SVG, PNG and PDF output.
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}
