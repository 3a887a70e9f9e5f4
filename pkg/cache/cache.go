// Package cache provides pluggable caching for registry responses and
// whole analysis results.
//
// Two backends are provided:
//   - file: directory-backed cache for CLI usage
//   - redis: Redis-backed cache for multi-instance deployments
//
// A NullCache disables caching entirely. All backends store opaque byte
// payloads under string keys with a per-entry TTL; key construction is the
// Keyer's job so that HTTP responses and analysis results never collide.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache is the interface implemented by all cache backends.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TreeKeyOpts are the analysis inputs that affect a cached tree result.
// Anything that changes the computed tree must be part of the key.
type TreeKeyOpts struct {
	OS   string `json:"os"`
	CPU  string `json:"cpu"`
	Libc string `json:"libc"`
}

// Keyer generates cache keys for the different payload classes.
type Keyer interface {
	// HTTPKey generates a key for a raw upstream HTTP response.
	HTTPKey(namespace, key string) string

	// TreeKey generates a key for a full vulnerability-tree result.
	TreeKey(name, version string, opts TreeKeyOpts) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// TreeKey generates a key for tree-result caching. Options are hashed so
// that platform changes never serve a stale tree.
func (k *DefaultKeyer) TreeKey(name, version string, opts TreeKeyOpts) string {
	return hashKey("tree", name, version, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
